package server

import (
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/sagebrushdata/nvenr/internal/enrollment"
	"github.com/sagebrushdata/nvenr/internal/shared"
	"github.com/sagebrushdata/nvenr/internal/tasks"
	helpers "github.com/sagebrushdata/nvenr/internal/testing"
)

func newTestServer(t *testing.T) *httptest.Server {
	t.Helper()

	service := enrollment.NewService(helpers.NewMockProvider())
	engine := tasks.NewEnrollmentEngine(service, nil)
	logger := shared.NewLogger(io.Discard)

	router := NewBasicRouter()
	router.Use(LoggingMiddleware(logger))
	router.Handler(NewEnrollmentHandler(service, engine, logger))

	srv := httptest.NewServer(router)
	t.Cleanup(srv.Close)
	return srv
}

func getJSON(t *testing.T, url string, target any) int {
	t.Helper()

	resp, err := http.Get(url)
	if err != nil {
		t.Fatalf("request failed: %v", err)
	}
	defer resp.Body.Close()

	if target != nil {
		if err := json.NewDecoder(resp.Body).Decode(target); err != nil {
			t.Fatalf("response does not parse as JSON: %v", err)
		}
	}
	return resp.StatusCode
}

func TestEnrollmentHandler(t *testing.T) {
	srv := newTestServer(t)

	t.Run("health reports status and version", func(t *testing.T) {
		var body map[string]string
		if status := getJSON(t, srv.URL+"/health", &body); status != http.StatusOK {
			t.Fatalf("expected 200, got %d", status)
		}
		if body["status"] != "ok" {
			t.Errorf("expected ok status, got %q", body["status"])
		}
		if body["version"] != enrollment.Version {
			t.Errorf("expected version %s, got %s", enrollment.Version, body["version"])
		}
	})

	t.Run("years returns provider bounds", func(t *testing.T) {
		var years enrollment.YearRange
		if status := getJSON(t, srv.URL+"/api/years", &years); status != http.StatusOK {
			t.Fatalf("expected 200, got %d", status)
		}
		if years != helpers.DefaultYears {
			t.Errorf("expected %v, got %v", helpers.DefaultYears, years)
		}
	})

	t.Run("enrollment returns the wide table", func(t *testing.T) {
		var table enrollment.Table
		if status := getJSON(t, srv.URL+"/api/enrollment/2026", &table); status != http.StatusOK {
			t.Fatalf("expected 200, got %d", status)
		}
		if table.Len() == 0 {
			t.Fatal("expected a non-empty table")
		}
		for _, r := range table.Records[:10] {
			if r.EndYear != 2026 {
				t.Errorf("expected end year 2026, got %d", r.EndYear)
			}
		}
	})

	t.Run("tidy returns more rows than the wide table", func(t *testing.T) {
		var wide enrollment.Table
		getJSON(t, srv.URL+"/api/enrollment/2026", &wide)

		var tidy enrollment.TidyTable
		if status := getJSON(t, srv.URL+"/api/enrollment/2026/tidy", &tidy); status != http.StatusOK {
			t.Fatalf("expected 200, got %d", status)
		}
		if tidy.Len() < wide.Len() {
			t.Errorf("expected at least %d tidy rows, got %d", wide.Len(), tidy.Len())
		}
	})

	t.Run("out-of-range year returns 400", func(t *testing.T) {
		var body map[string]string
		if status := getJSON(t, srv.URL+"/api/enrollment/1800", &body); status != http.StatusBadRequest {
			t.Fatalf("expected 400, got %d", status)
		}
		if body["error"] == "" {
			t.Error("expected a JSON error body")
		}
	})

	t.Run("non-integer year returns 400", func(t *testing.T) {
		if status := getJSON(t, srv.URL+"/api/enrollment/latest", nil); status != http.StatusBadRequest {
			t.Fatalf("expected 400, got %d", status)
		}
	})

	t.Run("compare reports district deltas", func(t *testing.T) {
		var result tasks.CompareResult
		if status := getJSON(t, srv.URL+"/api/compare?from=2024&to=2026", &result); status != http.StatusOK {
			t.Fatalf("expected 200, got %d", status)
		}
		if result.YearA != 2024 || result.YearB != 2026 {
			t.Errorf("expected years 2024 and 2026, got %d and %d", result.YearA, result.YearB)
		}
		if len(result.Deltas) == 0 {
			t.Error("expected district deltas")
		}
	})

	t.Run("compare without params returns 400", func(t *testing.T) {
		if status := getJSON(t, srv.URL+"/api/compare", nil); status != http.StatusBadRequest {
			t.Fatalf("expected 400, got %d", status)
		}
	})

	t.Run("wrong method returns 405", func(t *testing.T) {
		resp, err := http.Post(srv.URL+"/api/years", "application/json", nil)
		if err != nil {
			t.Fatalf("request failed: %v", err)
		}
		defer resp.Body.Close()
		if resp.StatusCode != http.StatusMethodNotAllowed {
			t.Errorf("expected 405, got %d", resp.StatusCode)
		}
	})
}

func TestBasicRouter(t *testing.T) {
	t.Run("middleware wraps in reverse order", func(t *testing.T) {
		router := NewBasicRouter()

		var order []string
		mw := func(name string) Middleware {
			return func(next http.Handler) http.Handler {
				return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
					order = append(order, name)
					next.ServeHTTP(w, r)
				})
			}
		}

		router.Use(mw("first"), mw("second"))
		router.Handle(http.MethodGet, "/ping", http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusNoContent)
		}))

		req := httptest.NewRequest(http.MethodGet, "/ping", nil)
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, req)

		if rec.Code != http.StatusNoContent {
			t.Fatalf("expected 204, got %d", rec.Code)
		}
		if len(order) != 2 || order[0] != "first" || order[1] != "second" {
			t.Errorf("expected first-then-second execution, got %v", order)
		}
	})

	t.Run("method filtering rejects mismatches", func(t *testing.T) {
		router := NewBasicRouter()
		router.Handle(http.MethodGet, "/ping", http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))

		req := httptest.NewRequest(http.MethodDelete, "/ping", nil)
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, req)

		if rec.Code != http.StatusMethodNotAllowed {
			t.Errorf("expected 405, got %d", rec.Code)
		}
	})
}
