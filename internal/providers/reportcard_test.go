package providers

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/sagebrushdata/nvenr/internal/shared"
	helpers "github.com/sagebrushdata/nvenr/internal/testing"
)

func TestReportCardService(t *testing.T) {
	ctx := context.Background()

	t.Run("NewReportCardService", func(t *testing.T) {
		t.Run("creates service without credentials", func(t *testing.T) {
			svc, err := NewReportCardService(shared.ProviderConfig{BaseURL: "http://localhost:9000"}, nil)
			if err != nil {
				t.Fatalf("expected no error, got %v", err)
			}
			if svc.baseURL != "http://localhost:9000" {
				t.Errorf("expected baseURL to be kept, got %s", svc.baseURL)
			}
		})

		t.Run("loads portal headers from curl file", func(t *testing.T) {
			tmpDir := t.TempDir()
			path := filepath.Join(tmpDir, "portal.sh")
			content := `curl 'https://reportcard.nv.gov' -H 'accept: text/csv' -b 'session=abc'`
			if err := os.WriteFile(path, []byte(content), 0644); err != nil {
				t.Fatalf("failed to write curl file: %v", err)
			}

			svc, err := NewReportCardService(shared.ProviderConfig{HeadersPath: path}, nil)
			if err != nil {
				t.Fatalf("expected no error, got %v", err)
			}
			if svc.headers == nil || svc.headers.Cookie != "session=abc" {
				t.Error("expected parsed portal headers on the service")
			}
		})

		t.Run("fails on unreadable headers file", func(t *testing.T) {
			_, err := NewReportCardService(shared.ProviderConfig{HeadersPath: "/nonexistent/portal.sh"}, nil)
			if err == nil {
				t.Error("expected error for missing headers file")
			}
		})
	})

	t.Run("Name", func(t *testing.T) {
		svc, _ := NewReportCardService(shared.ProviderConfig{}, nil)
		if svc.Name() != "Nevada Report Card" {
			t.Errorf("expected name 'Nevada Report Card', got %s", svc.Name())
		}
	})

	t.Run("Years", func(t *testing.T) {
		t.Run("serves pinned range without a base URL", func(t *testing.T) {
			svc, _ := NewReportCardService(shared.ProviderConfig{}, nil)

			years, err := svc.Years(ctx)
			if err != nil {
				t.Fatalf("expected no error, got %v", err)
			}
			if years != fallbackYears {
				t.Errorf("expected fallback range %s, got %s", fallbackYears, years)
			}
			if !years.Valid() {
				t.Error("fallback range must have min < max")
			}
		})

		t.Run("queries the portal when configured", func(t *testing.T) {
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				if r.URL.Path != yearsEndpoint {
					t.Errorf("expected path %s, got %s", yearsEndpoint, r.URL.Path)
				}
				w.Header().Set("Content-Type", "application/json")
				fmt.Fprint(w, `{"min_year": 2014, "max_year": 2026}`)
			}))
			defer server.Close()

			svc, _ := NewReportCardService(shared.ProviderConfig{BaseURL: server.URL}, nil)

			years, err := svc.Years(ctx)
			if err != nil {
				t.Fatalf("expected no error, got %v", err)
			}
			if years.Min != 2014 || years.Max != 2026 {
				t.Errorf("expected 2014-2026, got %s", years)
			}
		})

		t.Run("wraps portal failures", func(t *testing.T) {
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				http.Error(w, "down for maintenance", http.StatusServiceUnavailable)
			}))
			defer server.Close()

			svc, _ := NewReportCardService(shared.ProviderConfig{BaseURL: server.URL}, nil)

			if _, err := svc.Years(ctx); !errors.Is(err, shared.ErrProvider) {
				t.Errorf("expected ErrProvider, got %v", err)
			}
		})
	})

	t.Run("FetchRawEnrollment", func(t *testing.T) {
		t.Run("downloads and parses the year export", func(t *testing.T) {
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				if r.URL.Path != enrollmentEndpoint {
					t.Errorf("expected path %s, got %s", enrollmentEndpoint, r.URL.Path)
				}
				if r.URL.Query().Get("year") != "2026" {
					t.Errorf("expected year=2026 query, got %s", r.URL.Query().Get("year"))
				}

				w.Header().Set("Content-Type", "text/csv")
				fmt.Fprint(w, "District Name,School Name,Organization Level,Grade,Total Enrollment\n")
				fmt.Fprint(w, "Washoe County,Hug High School,School,Grade 09,410\n")
				fmt.Fprint(w, "Washoe County,,District,Total,\"61,000\"\n")
			}))
			defer server.Close()

			svc, _ := NewReportCardService(shared.ProviderConfig{BaseURL: server.URL}, nil)

			records, err := svc.FetchRawEnrollment(ctx, 2026)
			if err != nil {
				t.Fatalf("expected no error, got %v", err)
			}
			if len(records) != 2 {
				t.Fatalf("expected 2 records, got %d", len(records))
			}
			if records[0].NStudents != 410 {
				t.Errorf("expected 410 students, got %v", records[0].NStudents)
			}
			if !records[1].IsDistrict {
				t.Error("expected district-level row")
			}
		})

		t.Run("replays portal session headers", func(t *testing.T) {
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				if r.Header.Get("Cookie") != "session=abc" {
					t.Errorf("expected portal session cookie, got %q", r.Header.Get("Cookie"))
				}
				w.Header().Set("Content-Type", "text/csv")
				fmt.Fprint(w, "District Name,Grade,Total Enrollment\nWashoe County,Total,61000\n")
			}))
			defer server.Close()

			svc, _ := NewReportCardService(shared.ProviderConfig{BaseURL: server.URL}, nil)
			svc.headers = &shared.CurlHeaders{Cookie: "session=abc"}

			if _, err := svc.FetchRawEnrollment(ctx, 2026); err != nil {
				t.Fatalf("expected no error, got %v", err)
			}
		})

		t.Run("fails without a base URL", func(t *testing.T) {
			svc, _ := NewReportCardService(shared.ProviderConfig{}, nil)

			if _, err := svc.FetchRawEnrollment(ctx, 2026); !errors.Is(err, shared.ErrProvider) {
				t.Errorf("expected ErrProvider, got %v", err)
			}
		})

		t.Run("wraps transport failures", func(t *testing.T) {
			client := &http.Client{Transport: helpers.NewMockRoundTripper(nil, errors.New("connection refused"))}
			svc, _ := NewReportCardService(shared.ProviderConfig{BaseURL: "http://localhost:1"}, client)

			if _, err := svc.FetchRawEnrollment(ctx, 2026); !errors.Is(err, shared.ErrProvider) {
				t.Errorf("expected ErrProvider, got %v", err)
			}
		})

		t.Run("wraps portal error statuses", func(t *testing.T) {
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				http.Error(w, "not found", http.StatusNotFound)
			}))
			defer server.Close()

			svc, _ := NewReportCardService(shared.ProviderConfig{BaseURL: server.URL}, nil)

			if _, err := svc.FetchRawEnrollment(ctx, 2026); !errors.Is(err, shared.ErrProvider) {
				t.Errorf("expected ErrProvider, got %v", err)
			}
		})
	})
}
