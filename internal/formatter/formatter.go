// package formatter provides functions to export enrollment tables to various formats (CSV, Markdown, plain text)
package formatter

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"os"
	"strconv"

	"github.com/sagebrushdata/nvenr/internal/enrollment"
	"github.com/sagebrushdata/nvenr/internal/shared"
)

// wideHeaders is the column order for wide CSV exports. It mirrors the
// field order of enrollment.Record.
var wideHeaders = []string{
	"end_year", "district_id", "district_name", "school_id", "school_name",
	"is_district", "grade_level", "n_students",
	"male", "female", "american_indian", "asian", "black", "hispanic",
	"pacific_islander", "white", "two_or_more", "iep", "ell", "frl",
}

// tidyHeaders is the column order for long-format CSV exports.
var tidyHeaders = []string{
	"end_year", "district_id", "district_name", "school_id", "school_name",
	"is_district", "grade_level", "subgroup", "n_students",
}

func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}

// ExportToCSV converts a wide enrollment table to CSV with one row per
// organization and grade level.
func ExportToCSV(table *enrollment.Table) ([]byte, error) {
	var buf bytes.Buffer
	writer := csv.NewWriter(&buf)

	if err := writer.Write(wideHeaders); err != nil {
		return nil, fmt.Errorf("failed to write CSV headers: %w", err)
	}

	for _, r := range table.Records {
		row := []string{
			strconv.Itoa(r.EndYear),
			r.DistrictID,
			r.DistrictName,
			r.SchoolID,
			r.SchoolName,
			strconv.FormatBool(r.IsDistrict),
			r.GradeLevel,
			formatFloat(r.NStudents),
			formatFloat(r.Male),
			formatFloat(r.Female),
			formatFloat(r.AmericanIndian),
			formatFloat(r.Asian),
			formatFloat(r.Black),
			formatFloat(r.Hispanic),
			formatFloat(r.PacificIslander),
			formatFloat(r.White),
			formatFloat(r.TwoOrMore),
			formatFloat(r.IEP),
			formatFloat(r.ELL),
			formatFloat(r.FRL),
		}
		if err := writer.Write(row); err != nil {
			return nil, fmt.Errorf("failed to write CSV record: %w", err)
		}
	}

	writer.Flush()
	if err := writer.Error(); err != nil {
		return nil, fmt.Errorf("CSV writer error: %w", err)
	}

	return buf.Bytes(), nil
}

// ExportTidyToCSV converts a long-format table to CSV with one row per
// subgroup observation.
func ExportTidyToCSV(tidy *enrollment.TidyTable) ([]byte, error) {
	var buf bytes.Buffer
	writer := csv.NewWriter(&buf)

	if err := writer.Write(tidyHeaders); err != nil {
		return nil, fmt.Errorf("failed to write CSV headers: %w", err)
	}

	for _, r := range tidy.Records {
		row := []string{
			strconv.Itoa(r.EndYear),
			r.DistrictID,
			r.DistrictName,
			r.SchoolID,
			r.SchoolName,
			strconv.FormatBool(r.IsDistrict),
			r.GradeLevel,
			r.Subgroup,
			formatFloat(r.NStudents),
		}
		if err := writer.Write(row); err != nil {
			return nil, fmt.Errorf("failed to write CSV record: %w", err)
		}
	}

	writer.Flush()
	if err := writer.Error(); err != nil {
		return nil, fmt.Errorf("CSV writer error: %w", err)
	}

	return buf.Bytes(), nil
}

// districtTotals maps each district name to its TOTAL grade row count, in
// first-seen order.
func districtTotals(table *enrollment.Table) ([]string, map[string]float64) {
	totals := make(map[string]float64)
	var order []string
	for _, r := range table.Records {
		if !r.IsDistrict || r.GradeLevel != enrollment.GradeTotal {
			continue
		}
		if _, seen := totals[r.DistrictName]; !seen {
			order = append(order, r.DistrictName)
		}
		totals[r.DistrictName] += r.NStudents
	}
	return order, totals
}

// ExportToMarkdown converts an enrollment table to a Markdown summary with
// per-district totals.
func ExportToMarkdown(table *enrollment.Table, title string) ([]byte, error) {
	if title == "" {
		title = "Enrollment"
	}

	var buf bytes.Buffer
	buf.WriteString(fmt.Sprintf("# %s\n\n", title))

	years := table.Years()
	if len(years) > 0 {
		buf.WriteString("**School years**:")
		for _, year := range years {
			buf.WriteString(fmt.Sprintf(" %d", year))
		}
		buf.WriteString("\n")
	}

	buf.WriteString(fmt.Sprintf("**Rows**: %s\n", shared.FormatCount(float64(table.Len()))))
	buf.WriteString(fmt.Sprintf("**Students**: %s\n\n", shared.FormatCount(table.TotalStudents())))

	order, totals := districtTotals(table)
	if len(order) > 0 {
		buf.WriteString("## Districts\n\n")
		for i, name := range order {
			buf.WriteString(fmt.Sprintf("%d. %s [%s students]\n", i+1, name, shared.FormatCount(totals[name])))
		}
	}

	return buf.Bytes(), nil
}

// ExportToText converts an enrollment table to a plain text summary.
func ExportToText(table *enrollment.Table) ([]byte, error) {
	var buf bytes.Buffer

	buf.WriteString(fmt.Sprintf("Rows: %s\n", shared.FormatCount(float64(table.Len()))))
	buf.WriteString(fmt.Sprintf("Students: %s\n\n", shared.FormatCount(table.TotalStudents())))

	order, totals := districtTotals(table)
	for i, name := range order {
		buf.WriteString(fmt.Sprintf("%d. %s - %s\n", i+1, name, shared.FormatCount(totals[name])))
	}

	return buf.Bytes(), nil
}

// Summary describes a table at a glance without its rows.
type Summary struct {
	Years         []int    `json:"years"`
	Districts     []string `json:"districts"`
	Rows          int      `json:"rows"`
	TotalStudents float64  `json:"total_students"`
}

// ToSummaryJSON generates a JSON representation of table metadata (without rows)
func ToSummaryJSON(table *enrollment.Table) ([]byte, error) {
	summary := Summary{
		Years:         table.Years(),
		Districts:     table.Districts(),
		Rows:          table.Len(),
		TotalStudents: table.TotalStudents(),
	}
	return shared.MarshalJSON(summary, true)
}

func defaultBase(table *enrollment.Table) string {
	years := table.Years()
	if len(years) == 0 {
		return "enrollment"
	}
	return fmt.Sprintf("enrollment_%d", years[0])
}

// CSVExportResult contains the paths of files created by WriteCSVExport
type CSVExportResult struct {
	DataFile    string
	SummaryFile string
}

// WriteCSVExport exports a table to CSV format with an accompanying summary JSON file.
//
// Defaults to enrollment_{year} as the base filename & creates {base}.csv and {base}_summary.json
func WriteCSVExport(table *enrollment.Table, baseFilepath string) (*CSVExportResult, error) {
	if baseFilepath == "" {
		baseFilepath = defaultBase(table)
	}

	csvData, err := ExportToCSV(table)
	if err != nil {
		return nil, fmt.Errorf("failed to generate CSV: %w", err)
	}

	dataFile := baseFilepath + ".csv"
	if err := os.WriteFile(dataFile, csvData, 0644); err != nil {
		return nil, fmt.Errorf("failed to write CSV file: %w", err)
	}

	summaryJSON, err := ToSummaryJSON(table)
	if err != nil {
		return nil, fmt.Errorf("failed to generate summary JSON: %w", err)
	}

	summaryFile := baseFilepath + "_summary.json"
	if err := os.WriteFile(summaryFile, summaryJSON, 0644); err != nil {
		return nil, fmt.Errorf("failed to write summary file: %w", err)
	}

	return &CSVExportResult{
		DataFile:    dataFile,
		SummaryFile: summaryFile,
	}, nil
}

// MarkdownExportResult contains information about files created by WriteMarkdownExport
type MarkdownExportResult struct {
	Directory string
	Files     []string
}

// WriteMarkdownExport exports a table to Markdown format in a dedicated directory.
//
// Directory name defaults to enrollment_{year}.
// Creates a directory structure: {dir}/README.md
func WriteMarkdownExport(table *enrollment.Table, outputDir string, title string) (*MarkdownExportResult, error) {
	if outputDir == "" {
		outputDir = defaultBase(table)
	}

	if err := os.MkdirAll(outputDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create directory: %w", err)
	}

	mdData, err := ExportToMarkdown(table, title)
	if err != nil {
		return nil, fmt.Errorf("failed to generate Markdown: %w", err)
	}

	mdFile := fmt.Sprintf("%s/README.md", outputDir)
	if err := os.WriteFile(mdFile, mdData, 0644); err != nil {
		return nil, fmt.Errorf("failed to write Markdown file: %w", err)
	}

	return &MarkdownExportResult{
		Directory: outputDir,
		Files:     []string{mdFile},
	}, nil
}

// WriteTextExport exports a table summary to plain text format.
//
// Defaults to enrollment_{year}.txt as the filename.
func WriteTextExport(table *enrollment.Table, filepath string) (string, error) {
	if filepath == "" {
		filepath = defaultBase(table) + ".txt"
	}

	textData, err := ExportToText(table)
	if err != nil {
		return "", fmt.Errorf("failed to generate text: %w", err)
	}

	if err := os.WriteFile(filepath, textData, 0644); err != nil {
		return "", fmt.Errorf("failed to write text file: %w", err)
	}

	return filepath, nil
}
