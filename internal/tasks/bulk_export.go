package tasks

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/sagebrushdata/nvenr/internal/enrollment"
	"github.com/sagebrushdata/nvenr/internal/formatter"
	"github.com/sagebrushdata/nvenr/internal/shared"
	"golang.org/x/time/rate"
)

// BulkExportOpts contains configuration for bulk year exports.
type BulkExportOpts struct {
	Format     string  // Export format: json, csv, markdown, txt
	OutputDir  string  // Base output directory (default: enrollment_export_{epoch})
	NumWorkers int     // Concurrent workers (default: 5)
	RateLimit  float64 // Provider requests per second (default: 5)
	Tidy       bool    // Export long-format rows instead of wide rows (csv and json)
	Refresh    bool    // Bypass cached snapshots and re-fetch every year
}

// YearExportJob pairs a fetched table with its school year for the worker pool.
type YearExportJob struct {
	Year  int
	Table *enrollment.Table
}

// YearExportResult records the outcome of exporting one school year.
type YearExportResult struct {
	Year     int
	RowCount int
	Success  bool
	Files    []string
	Error    error
}

// BulkExportResult aggregates the outcome of a bulk export run.
type BulkExportResult struct {
	TotalYears        int
	SuccessfulExports int
	FailedExports     int
	OutputDirectory   string
	ManifestPath      string
	Results           []YearExportResult
}

// BulkExport exports multiple school years concurrently with rate limiting and progress tracking.
//
// This method implements a worker pool pattern to efficiently export multiple years.
// It respects provider rate limits, handles partial failures gracefully, and generates
// a manifest file summarizing the export results.
func (e *EnrollmentEngine) BulkExport(
	ctx context.Context,
	prog chan<- ProgressUpdate,
	years []int,
	opts BulkExportOpts,
) (*BulkExportResult, error) {
	if e.service == nil {
		return nil, fmt.Errorf("%w: enrollment service not initialized", shared.ErrServiceUnavailable)
	}
	if len(years) == 0 {
		return nil, shared.ErrEmptyYears
	}

	if opts.OutputDir == "" {
		opts.OutputDir = fmt.Sprintf("enrollment_export_%d", time.Now().Unix())
	}
	if opts.NumWorkers <= 0 {
		opts.NumWorkers = 5
	}
	if opts.NumWorkers > 10 {
		opts.NumWorkers = 10
	}
	if opts.RateLimit <= 0 {
		opts.RateLimit = 5.0
	}

	if err := os.MkdirAll(opts.OutputDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create output directory: %w", err)
	}

	result := &BulkExportResult{
		TotalYears:      len(years),
		OutputDirectory: opts.OutputDir,
		Results:         make([]YearExportResult, 0, len(years)),
	}

	limiter := rate.NewLimiter(rate.Limit(opts.RateLimit), 1)

	jobs := make(chan YearExportJob, len(years))
	results := make(chan YearExportResult, len(years))

	var wg sync.WaitGroup
	for i := 0; i < opts.NumWorkers; i++ {
		wg.Add(1)
		go e.exportWorker(ctx, &wg, jobs, results, opts)
	}

	go func() {
		for i, year := range years {
			select {
			case <-ctx.Done():
				close(jobs)
				return
			default:
			}

			if err := limiter.Wait(ctx); err != nil {
				close(jobs)
				return
			}

			e.sendProgress(prog, exportingYearUpdate(i+1, len(years), year))

			table, _, err := e.fetchYear(ctx, prog, i+1, len(years), year, opts.Refresh)
			if err != nil {
				results <- YearExportResult{
					Year:    year,
					Success: false,
					Error:   fmt.Errorf("failed to fetch year: %w", err),
				}
				continue
			}

			jobs <- YearExportJob{
				Year:  year,
				Table: table,
			}
		}
		close(jobs)
	}()

	go func() {
		wg.Wait()
		close(results)
	}()

	completed := 0
	for res := range results {
		completed++
		result.Results = append(result.Results, res)

		if res.Success {
			result.SuccessfulExports++
			e.sendProgress(prog, exportCompletedUpdate(
				completed,
				len(years),
				res.Year,
				len(res.Files),
			))
		} else {
			result.FailedExports++
			e.sendProgress(prog, exportFailedUpdate(
				completed,
				len(years),
				res.Year,
				res.Error,
			))
		}
	}

	manifestPath := filepath.Join(opts.OutputDir, "export_manifest.json")
	if err := writeManifest(result, opts.Format, manifestPath); err != nil {
		return result, fmt.Errorf("export completed but failed to write manifest: %w", err)
	}
	result.ManifestPath = manifestPath
	return result, nil
}

// exportWorker is a worker goroutine that exports years from the jobs channel.
func (e *EnrollmentEngine) exportWorker(
	ctx context.Context,
	wg *sync.WaitGroup,
	jobs <-chan YearExportJob,
	results chan<- YearExportResult,
	opts BulkExportOpts,
) {
	defer wg.Done()

	for job := range jobs {
		select {
		case <-ctx.Done():
			return
		default:
		}

		res := e.exportSingleYear(job, opts)
		results <- res
	}
}

// exportSingleYear exports one year's table to the appropriate format.
func (e *EnrollmentEngine) exportSingleYear(j YearExportJob, opts BulkExportOpts) YearExportResult {
	result := YearExportResult{
		Year:     j.Year,
		RowCount: j.Table.Len(),
		Success:  false,
		Files:    []string{},
	}

	base := fmt.Sprintf("enrollment_%d", j.Year)

	switch opts.Format {
	case "csv":
		if opts.Tidy {
			tidy, err := e.service.TidyEnr(j.Table)
			if err != nil {
				result.Error = fmt.Errorf("tidy reshape failed: %w", err)
				return result
			}
			csvData, err := formatter.ExportTidyToCSV(tidy)
			if err != nil {
				result.Error = fmt.Errorf("CSV export failed: %w", err)
				return result
			}
			csvPath := filepath.Join(opts.OutputDir, base+"_tidy.csv")
			if err := os.WriteFile(csvPath, csvData, 0644); err != nil {
				result.Error = fmt.Errorf("CSV write failed: %w", err)
				return result
			}
			result.Files = []string{csvPath}
			result.Success = true
			return result
		}

		csvRes, err := formatter.WriteCSVExport(j.Table, filepath.Join(opts.OutputDir, base))
		if err != nil {
			result.Error = fmt.Errorf("CSV export failed: %w", err)
			return result
		}
		result.Files = []string{csvRes.DataFile, csvRes.SummaryFile}
		result.Success = true

	case "markdown":
		outputDir := filepath.Join(opts.OutputDir, base)
		title := fmt.Sprintf("Nevada Enrollment %d", j.Year)

		mdRes, err := formatter.WriteMarkdownExport(j.Table, outputDir, title)
		if err != nil {
			result.Error = fmt.Errorf("markdown export failed: %w", err)
			return result
		}
		result.Files = mdRes.Files
		result.Success = true

	case "txt":
		txtPath := filepath.Join(opts.OutputDir, base+".txt")
		written, err := formatter.WriteTextExport(j.Table, txtPath)
		if err != nil {
			result.Error = fmt.Errorf("text export failed: %w", err)
			return result
		}
		result.Files = []string{written}
		result.Success = true

	case "json":
		fallthrough
	default:
		var payload any = j.Table
		if opts.Tidy {
			tidy, err := e.service.TidyEnr(j.Table)
			if err != nil {
				result.Error = fmt.Errorf("tidy reshape failed: %w", err)
				return result
			}
			payload = tidy
		}

		jsonPath := filepath.Join(opts.OutputDir, base+".json")
		data, err := shared.MarshalJSON(payload, true)
		if err != nil {
			result.Error = fmt.Errorf("JSON marshal failed: %w", err)
			return result
		}
		if err := os.WriteFile(jsonPath, data, 0644); err != nil {
			result.Error = fmt.Errorf("JSON write failed: %w", err)
			return result
		}
		result.Files = []string{jsonPath}
		result.Success = true
	}
	return result
}

type manifestEntry struct {
	Year     int      `json:"year"`
	RowCount int      `json:"row_count"`
	Success  bool     `json:"success"`
	Files    []string `json:"files,omitempty"`
	Error    string   `json:"error,omitempty"`
}

type manifestData struct {
	GeneratedAt       time.Time       `json:"generated_at"`
	Format            string          `json:"format"`
	TotalYears        int             `json:"total_years"`
	SuccessfulExports int             `json:"successful_exports"`
	FailedExports     int             `json:"failed_exports"`
	Years             []manifestEntry `json:"years"`
}

// writeManifest summarizes a bulk export run as a JSON file in the output directory.
func writeManifest(result *BulkExportResult, format, path string) error {
	manifest := manifestData{
		GeneratedAt:       time.Now().UTC(),
		Format:            format,
		TotalYears:        result.TotalYears,
		SuccessfulExports: result.SuccessfulExports,
		FailedExports:     result.FailedExports,
		Years:             make([]manifestEntry, 0, len(result.Results)),
	}

	for _, res := range result.Results {
		entry := manifestEntry{
			Year:     res.Year,
			RowCount: res.RowCount,
			Success:  res.Success,
			Files:    res.Files,
		}
		if res.Error != nil {
			entry.Error = res.Error.Error()
		}
		manifest.Years = append(manifest.Years, entry)
	}

	data, err := shared.MarshalJSON(manifest, true)
	if err != nil {
		return fmt.Errorf("failed to marshal manifest: %w", err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write manifest: %w", err)
	}
	return nil
}
