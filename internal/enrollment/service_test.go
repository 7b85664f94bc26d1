package enrollment_test

import (
	"context"
	"errors"
	"testing"

	"github.com/sagebrushdata/nvenr/internal/enrollment"
	"github.com/sagebrushdata/nvenr/internal/shared"
	helpers "github.com/sagebrushdata/nvenr/internal/testing"
)

func TestAvailableYears(t *testing.T) {
	ctx := context.Background()

	t.Run("returns provider bounds", func(t *testing.T) {
		svc := enrollment.NewService(helpers.NewMockProvider())

		years, err := svc.AvailableYears(ctx)
		if err != nil {
			t.Fatalf("expected no error, got %v", err)
		}

		if years.Min >= years.Max {
			t.Errorf("expected min < max, got %s", years)
		}
		if years.Min < 2010 || years.Max > 2030 {
			t.Errorf("expected bounds within [2010, 2030], got %s", years)
		}
	})

	t.Run("propagates provider failure", func(t *testing.T) {
		provider := helpers.NewMockProvider()
		provider.YearsErr = shared.ErrProvider

		if _, err := enrollment.NewService(provider).AvailableYears(ctx); !errors.Is(err, shared.ErrProvider) {
			t.Errorf("expected ErrProvider, got %v", err)
		}
	})

	t.Run("rejects malformed range", func(t *testing.T) {
		provider := helpers.NewMockProvider()
		provider.YearBounds = enrollment.YearRange{Min: 2026, Max: 2012}

		if _, err := enrollment.NewService(provider).AvailableYears(ctx); !errors.Is(err, shared.ErrProvider) {
			t.Errorf("expected ErrProvider for inverted range, got %v", err)
		}
	})

	t.Run("fails without a provider", func(t *testing.T) {
		if _, err := enrollment.NewService(nil).AvailableYears(ctx); !errors.Is(err, shared.ErrServiceUnavailable) {
			t.Errorf("expected ErrServiceUnavailable, got %v", err)
		}
	})
}

func TestFetchEnr(t *testing.T) {
	ctx := context.Background()

	t.Run("returns non-empty table for a valid year", func(t *testing.T) {
		svc := enrollment.NewService(helpers.NewMockProvider())

		table, err := svc.FetchEnr(ctx, 2026)
		if err != nil {
			t.Fatalf("expected no error, got %v", err)
		}

		if table.Len() <= 1000 {
			t.Errorf("expected more than 1000 rows, got %d", table.Len())
		}

		for _, r := range table.Records {
			if r.EndYear != 2026 {
				t.Fatalf("expected every row's end year to be 2026, got %d", r.EndYear)
			}
		}
	})

	t.Run("district TOTAL rows sum to a plausible statewide count", func(t *testing.T) {
		svc := enrollment.NewService(helpers.NewMockProvider())

		table, err := svc.FetchEnr(ctx, 2026)
		if err != nil {
			t.Fatalf("expected no error, got %v", err)
		}

		total := table.TotalStudents()
		if total < 400000 || total > 600000 {
			t.Errorf("expected statewide total in [400000, 600000], got %v", total)
		}
	})

	t.Run("rejects years outside the available range", func(t *testing.T) {
		provider := helpers.NewMockProvider()
		svc := enrollment.NewService(provider)

		for _, year := range []int{1800, 2011, 2027, 2099} {
			if _, err := svc.FetchEnr(ctx, year); !errors.Is(err, shared.ErrInvalidYear) {
				t.Errorf("expected ErrInvalidYear for %d, got %v", year, err)
			}
		}

		if len(provider.FetchCalls) != 0 {
			t.Errorf("invalid years must not reach the provider, saw %v", provider.FetchCalls)
		}
	})

	t.Run("accepts both range bounds", func(t *testing.T) {
		svc := enrollment.NewService(helpers.NewMockProvider())

		for _, year := range []int{helpers.DefaultYears.Min, helpers.DefaultYears.Max} {
			table, err := svc.FetchEnr(ctx, year)
			if err != nil {
				t.Fatalf("expected bound year %d to succeed: %v", year, err)
			}
			if table.Len() == 0 {
				t.Errorf("expected non-empty table for %d", year)
			}
		}
	})

	t.Run("propagates provider fetch failure", func(t *testing.T) {
		provider := helpers.NewMockProvider()
		provider.FetchErr = shared.ErrProvider

		if _, err := enrollment.NewService(provider).FetchEnr(ctx, 2026); !errors.Is(err, shared.ErrProvider) {
			t.Errorf("expected ErrProvider, got %v", err)
		}
	})
}

func TestFetchEnrMulti(t *testing.T) {
	ctx := context.Background()

	t.Run("fails with empty year list", func(t *testing.T) {
		svc := enrollment.NewService(helpers.NewMockProvider())

		if _, err := svc.FetchEnrMulti(ctx, nil); !errors.Is(err, shared.ErrEmptyYears) {
			t.Errorf("expected ErrEmptyYears for nil, got %v", err)
		}
		if _, err := svc.FetchEnrMulti(ctx, []int{}); !errors.Is(err, shared.ErrEmptyYears) {
			t.Errorf("expected ErrEmptyYears for empty slice, got %v", err)
		}
	})

	t.Run("single year matches FetchEnr row count", func(t *testing.T) {
		svc := enrollment.NewService(helpers.NewMockProvider())

		single, err := svc.FetchEnr(ctx, 2025)
		if err != nil {
			t.Fatalf("FetchEnr failed: %v", err)
		}

		multi, err := svc.FetchEnrMulti(ctx, []int{2025})
		if err != nil {
			t.Fatalf("FetchEnrMulti failed: %v", err)
		}

		if multi.Len() != single.Len() {
			t.Errorf("expected %d rows, got %d", single.Len(), multi.Len())
		}
	})

	t.Run("row count is additive across years", func(t *testing.T) {
		svc := enrollment.NewService(helpers.NewMockProvider())

		y1, err := svc.FetchEnr(ctx, 2024)
		if err != nil {
			t.Fatalf("FetchEnr failed: %v", err)
		}
		y2, err := svc.FetchEnr(ctx, 2025)
		if err != nil {
			t.Fatalf("FetchEnr failed: %v", err)
		}

		multi, err := svc.FetchEnrMulti(ctx, []int{2024, 2025})
		if err != nil {
			t.Fatalf("FetchEnrMulti failed: %v", err)
		}

		if multi.Len() != y1.Len()+y2.Len() {
			t.Errorf("expected %d rows, got %d", y1.Len()+y2.Len(), multi.Len())
		}
		if multi.Len() <= y1.Len() {
			t.Errorf("two distinct years must outgrow a single year: %d <= %d", multi.Len(), y1.Len())
		}
	})

	t.Run("preserves duplicate years", func(t *testing.T) {
		svc := enrollment.NewService(helpers.NewMockProvider())

		single, err := svc.FetchEnr(ctx, 2025)
		if err != nil {
			t.Fatalf("FetchEnr failed: %v", err)
		}

		multi, err := svc.FetchEnrMulti(ctx, []int{2025, 2025})
		if err != nil {
			t.Fatalf("FetchEnrMulti failed: %v", err)
		}

		if multi.Len() != 2*single.Len() {
			t.Errorf("expected %d rows for a repeated year, got %d", 2*single.Len(), multi.Len())
		}
	})

	t.Run("contains every requested year", func(t *testing.T) {
		svc := enrollment.NewService(helpers.NewMockProvider())

		multi, err := svc.FetchEnrMulti(ctx, []int{2023, 2024, 2025})
		if err != nil {
			t.Fatalf("FetchEnrMulti failed: %v", err)
		}

		years := multi.Years()
		if len(years) != 3 {
			t.Fatalf("expected 3 distinct years, got %v", years)
		}
		for i, want := range []int{2023, 2024, 2025} {
			if years[i] != want {
				t.Errorf("expected year %d at position %d, got %d", want, i, years[i])
			}
		}
	})

	t.Run("fails fast before any fetch on an invalid year", func(t *testing.T) {
		provider := helpers.NewMockProvider()
		svc := enrollment.NewService(provider)

		_, err := svc.FetchEnrMulti(ctx, []int{2024, 2099, 2025})
		if !errors.Is(err, shared.ErrInvalidYear) {
			t.Fatalf("expected ErrInvalidYear, got %v", err)
		}

		if len(provider.FetchCalls) != 0 {
			t.Errorf("expected no provider fetches for a rejected list, saw %v", provider.FetchCalls)
		}
	})
}
