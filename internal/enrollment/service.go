package enrollment

import (
	"context"
	"fmt"

	"github.com/sagebrushdata/nvenr/internal/shared"
)

// Provider defines the single capability boundary to the external enrollment
// data source. Implementations live in internal/providers.
type Provider interface {
	// Years returns the inclusive bounds of retrievable school years.
	Years(ctx context.Context) (YearRange, error)

	// FetchRawEnrollment retrieves all wide enrollment rows for one year.
	FetchRawEnrollment(ctx context.Context, year int) ([]Record, error)

	// Name returns the provider name (e.g. "Nevada Report Card")
	Name() string
}

// Service exposes the enrollment data operations over a [Provider].
//
// The provider's state is externally owned; Service never caches or locks it.
type Service struct {
	provider Provider
}

// NewService creates a Service backed by the given provider.
func NewService(provider Provider) *Service {
	return &Service{provider: provider}
}

// ProviderName returns the backing provider's display name, or "" when no
// provider is configured.
func (s *Service) ProviderName() string {
	if s.provider == nil {
		return ""
	}
	return s.provider.Name()
}

// AvailableYears returns the valid year bounds from the provider.
func (s *Service) AvailableYears(ctx context.Context) (YearRange, error) {
	if s.provider == nil {
		return YearRange{}, fmt.Errorf("%w: provider not initialized", shared.ErrServiceUnavailable)
	}

	years, err := s.provider.Years(ctx)
	if err != nil {
		return YearRange{}, fmt.Errorf("failed to get available years: %w", err)
	}

	if !years.Valid() {
		return YearRange{}, fmt.Errorf("%w: year range %s has min >= max", shared.ErrProvider, years)
	}

	return years, nil
}

// FetchEnr retrieves the wide enrollment table for a single school year.
//
// The year must fall inside [AvailableYears] bounds, inclusive; far-past and
// far-future values fail with [shared.ErrInvalidYear]. The returned table is
// non-empty and every row's end year equals the requested year.
func (s *Service) FetchEnr(ctx context.Context, year int) (*Table, error) {
	years, err := s.AvailableYears(ctx)
	if err != nil {
		return nil, err
	}

	if !years.Contains(year) {
		return nil, fmt.Errorf("%w: %d is not between %d and %d", shared.ErrInvalidYear, year, years.Min, years.Max)
	}

	return s.fetchOne(ctx, year)
}

// FetchEnrMulti retrieves and concatenates tables for each requested year.
//
// An empty year list fails with [shared.ErrEmptyYears]. Validation is
// fail-fast: every year is checked against the available range before any
// fetch happens, so an invalid year anywhere in the list means no provider
// traffic at all. Duplicate years are fetched again, not deduplicated, and
// the result's row count is the sum of each fetch's row count.
func (s *Service) FetchEnrMulti(ctx context.Context, years []int) (*Table, error) {
	if len(years) == 0 {
		return nil, fmt.Errorf("%w: fetch_enr_multi requires at least one year", shared.ErrEmptyYears)
	}

	bounds, err := s.AvailableYears(ctx)
	if err != nil {
		return nil, err
	}

	for _, year := range years {
		if !bounds.Contains(year) {
			return nil, fmt.Errorf("%w: %d is not between %d and %d", shared.ErrInvalidYear, year, bounds.Min, bounds.Max)
		}
	}

	result := &Table{}
	for _, year := range years {
		table, err := s.fetchOne(ctx, year)
		if err != nil {
			return nil, err
		}
		result = result.Concat(table)
	}

	return result, nil
}

// fetchOne delegates to the provider and checks the table contract for an
// already-validated year.
func (s *Service) fetchOne(ctx context.Context, year int) (*Table, error) {
	records, err := s.provider.FetchRawEnrollment(ctx, year)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch enrollment for %d: %w", year, err)
	}

	if len(records) == 0 {
		return nil, fmt.Errorf("%w: year %d from %s", shared.ErrEmptyTable, year, s.provider.Name())
	}

	for _, r := range records {
		if r.EndYear != year {
			return nil, fmt.Errorf("%w: row for year %d in %d table", shared.ErrProvider, r.EndYear, year)
		}
	}

	return &Table{Records: records}, nil
}
