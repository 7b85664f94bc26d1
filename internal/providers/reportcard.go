// Nevada Report Card [enrollment.Provider] implementation
package providers

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/sagebrushdata/nvenr/internal/enrollment"
	"github.com/sagebrushdata/nvenr/internal/shared"
	"golang.org/x/oauth2/clientcredentials"
)

// fallbackYears is the pinned range served when no portal base URL is
// configured. 2012 is the first year the portal publishes grade-by-grade
// subgroup counts.
var fallbackYears = enrollment.YearRange{Min: 2012, Max: 2026}

const (
	yearsEndpoint      = "/api/v1/enrollment/years"
	enrollmentEndpoint = "/api/v1/enrollment/export"
)

// ReportCardService implements [enrollment.Provider] against the Nevada
// Report Card portal.
type ReportCardService struct {
	baseURL    string
	headers    *shared.CurlHeaders
	httpClient *http.Client
}

// NewReportCardService creates a provider from configuration.
//
// When the OAuth section is fully populated the HTTP client exchanges
// client credentials for bearer tokens on every request. When headers_path
// points at a saved cURL command, its headers and cookies are replayed on
// portal requests. Both may be combined.
func NewReportCardService(cfg shared.ProviderConfig, client *http.Client) (*ReportCardService, error) {
	if client == nil {
		client = http.DefaultClient
	}

	if cfg.OAuth.ClientID != "" && cfg.OAuth.ClientSecret != "" && cfg.OAuth.TokenURL != "" {
		creds := clientcredentials.Config{
			ClientID:     cfg.OAuth.ClientID,
			ClientSecret: cfg.OAuth.ClientSecret,
			TokenURL:     cfg.OAuth.TokenURL,
		}
		client = creds.Client(context.Background())
	}

	svc := &ReportCardService{
		baseURL:    cfg.BaseURL,
		httpClient: client,
	}

	if cfg.HeadersPath != "" {
		headers, err := shared.ParseCurlFile(cfg.HeadersPath)
		if err != nil {
			return nil, fmt.Errorf("failed to load portal headers: %w", err)
		}
		svc.headers = headers
	}

	return svc, nil
}

// Name returns the provider name.
func (p *ReportCardService) Name() string {
	return "Nevada Report Card"
}

// Years returns the retrievable year bounds.
//
// Without a configured base URL the pinned fallback range is returned; with
// one, the portal is queried and failures wrap [shared.ErrProvider].
func (p *ReportCardService) Years(ctx context.Context) (enrollment.YearRange, error) {
	if p.baseURL == "" {
		return fallbackYears, nil
	}

	var years enrollment.YearRange
	resp, err := p.doRequest(ctx, yearsEndpoint)
	if err != nil {
		return enrollment.YearRange{}, err
	}
	defer resp.Body.Close()

	if err := json.NewDecoder(resp.Body).Decode(&years); err != nil {
		return enrollment.YearRange{}, fmt.Errorf("%w: failed to decode year range: %v", shared.ErrProvider, err)
	}

	return years, nil
}

// FetchRawEnrollment downloads and parses the wide enrollment table for one
// school year.
func (p *ReportCardService) FetchRawEnrollment(ctx context.Context, year int) ([]enrollment.Record, error) {
	if p.baseURL == "" {
		return nil, fmt.Errorf("%w: no portal base URL configured", shared.ErrProvider)
	}

	endpoint := fmt.Sprintf("%s?year=%d&format=csv", enrollmentEndpoint, year)
	resp, err := p.doRequest(ctx, endpoint)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	records, err := ParseEnrollmentCSV(resp.Body, year)
	if err != nil {
		return nil, fmt.Errorf("year %d: %w", year, err)
	}

	return records, nil
}

func (p *ReportCardService) doRequest(ctx context.Context, endpoint string) (*http.Response, error) {
	apiURL := p.baseURL + endpoint

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, apiURL, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	req.Header.Set("Accept", "text/csv, application/json")
	if p.headers != nil {
		p.headers.Apply(req)
	}

	resp, err := p.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", shared.ErrProvider, err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		resp.Body.Close()
		return nil, fmt.Errorf("%w: portal returned status %d for %s", shared.ErrProvider, resp.StatusCode, endpoint)
	}

	return resp, nil
}
