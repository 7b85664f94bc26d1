package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/sagebrushdata/nvenr/internal/server"
	"github.com/sagebrushdata/nvenr/internal/shared"
	"github.com/urfave/cli/v3"
)

// Serve runs the local enrollment HTTP API.
func (r *Runner) Serve(ctx context.Context, cmd *cli.Command) error {
	if r.service == nil {
		return fmt.Errorf("%w: enrollment service not initialized", shared.ErrServiceUnavailable)
	}

	if err := r.ensureCache(); err != nil {
		r.logger.Warn("cache unavailable, serving without persistence", "error", err)
	}

	host := cmd.String("host")
	if host == "" {
		host = r.config.Server.Host
	}
	port := cmd.Int("port")
	if port == 0 {
		port = r.config.Server.Port
	}

	router := server.NewBasicRouter()
	router.Use(server.LoggingMiddleware(r.logger))
	router.Handler(server.NewEnrollmentHandler(r.service, r.engine, r.logger))

	addr := fmt.Sprintf("%s:%d", host, port)
	srv := &http.Server{
		Addr:              addr,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		srv.Shutdown(shutdownCtx)
	}()

	url := fmt.Sprintf("http://%s/health", addr)
	r.logger.Info("starting server", "addr", addr)
	r.writePlain("Serving enrollment API at http://%s\n", addr)
	r.writePlain("Health check: %s\n", url)

	if cmd.Bool("open") {
		if err := shared.OpenBrowser(url); err != nil {
			r.logger.Warn("failed to open browser", "error", err)
		}
	}

	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("server error: %w", err)
	}
	return nil
}
