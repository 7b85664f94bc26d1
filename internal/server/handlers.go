package server

import (
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/charmbracelet/log"
	"github.com/sagebrushdata/nvenr/internal/enrollment"
	"github.com/sagebrushdata/nvenr/internal/shared"
	"github.com/sagebrushdata/nvenr/internal/tasks"
)

// EnrollmentHandler serves the read-only enrollment API.
// Implements the Handler interface for registration with a Router.
type EnrollmentHandler struct {
	service *enrollment.Service
	engine  tasks.Engine
	logger  *log.Logger
}

// NewEnrollmentHandler creates a handler over the given service and engine.
func NewEnrollmentHandler(service *enrollment.Service, engine tasks.Engine, logger *log.Logger) *EnrollmentHandler {
	return &EnrollmentHandler{
		service: service,
		engine:  engine,
		logger:  logger,
	}
}

// Routes returns the HTTP routes this handler serves.
func (h *EnrollmentHandler) Routes() []string {
	return []string{
		"GET /health",
		"GET /api/years",
		"GET /api/enrollment/{year}",
		"GET /api/enrollment/{year}/tidy",
		"GET /api/compare",
	}
}

// ServeHTTP dispatches to the endpoint implementations.
func (h *EnrollmentHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	switch {
	case r.URL.Path == "/health":
		h.handleHealth(w, r)
	case r.URL.Path == "/api/years":
		h.handleYears(w, r)
	case r.URL.Path == "/api/compare":
		h.handleCompare(w, r)
	case strings.HasSuffix(r.URL.Path, "/tidy"):
		h.handleEnrollment(w, r, true)
	default:
		h.handleEnrollment(w, r, false)
	}
}

func (h *EnrollmentHandler) handleHealth(w http.ResponseWriter, r *http.Request) {
	h.writeJSON(w, http.StatusOK, map[string]string{
		"status":  "ok",
		"version": enrollment.Version,
	})
}

func (h *EnrollmentHandler) handleYears(w http.ResponseWriter, r *http.Request) {
	years, err := h.service.AvailableYears(r.Context())
	if err != nil {
		h.writeError(w, err)
		return
	}
	h.writeJSON(w, http.StatusOK, years)
}

func (h *EnrollmentHandler) handleEnrollment(w http.ResponseWriter, r *http.Request, tidy bool) {
	year, err := strconv.Atoi(r.PathValue("year"))
	if err != nil {
		h.writeJSON(w, http.StatusBadRequest, map[string]string{"error": "year must be an integer"})
		return
	}

	refresh := r.URL.Query().Get("refresh") == "true"

	result, err := h.engine.Fetch(r.Context(), nil, year, refresh)
	if err != nil {
		h.writeError(w, err)
		return
	}

	if !tidy {
		h.writeJSON(w, http.StatusOK, result.Table)
		return
	}

	long, err := h.service.TidyEnr(result.Table)
	if err != nil {
		h.writeError(w, err)
		return
	}
	h.writeJSON(w, http.StatusOK, long)
}

func (h *EnrollmentHandler) handleCompare(w http.ResponseWriter, r *http.Request) {
	from, err := strconv.Atoi(r.URL.Query().Get("from"))
	if err != nil {
		h.writeJSON(w, http.StatusBadRequest, map[string]string{"error": "from must be an integer year"})
		return
	}
	to, err := strconv.Atoi(r.URL.Query().Get("to"))
	if err != nil {
		h.writeJSON(w, http.StatusBadRequest, map[string]string{"error": "to must be an integer year"})
		return
	}

	result, err := h.engine.Compare(r.Context(), nil, from, to)
	if err != nil {
		h.writeError(w, err)
		return
	}
	h.writeJSON(w, http.StatusOK, result)
}

// writeError maps domain errors to status codes and writes a JSON error body.
func (h *EnrollmentHandler) writeError(w http.ResponseWriter, err error) {
	status := http.StatusInternalServerError
	switch {
	case errors.Is(err, shared.ErrInvalidYear), errors.Is(err, shared.ErrEmptyYears):
		status = http.StatusBadRequest
	case errors.Is(err, shared.ErrProvider), errors.Is(err, shared.ErrEmptyTable):
		status = http.StatusBadGateway
	case errors.Is(err, shared.ErrServiceUnavailable):
		status = http.StatusServiceUnavailable
	}

	h.logger.Error("request failed", "error", err)
	h.writeJSON(w, status, map[string]string{"error": err.Error()})
}

func (h *EnrollmentHandler) writeJSON(w http.ResponseWriter, status int, data any) {
	body, err := shared.MarshalJSON(data, false)
	if err != nil {
		h.logger.Error("failed to marshal response", "error", err)
		http.Error(w, `{"error":"internal error"}`, http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	w.Write(body)
}
