package providers

import (
	"encoding/csv"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/sagebrushdata/nvenr/internal/enrollment"
	"github.com/sagebrushdata/nvenr/internal/shared"
)

// columnMap holds the resolved position of each known column in a CSV export.
type columnMap map[string]int

// required columns for a usable export; everything else defaults to zero.
var requiredColumns = []string{"district_name", "grade", "total"}

// ParseEnrollmentCSV reads a portal CSV export and extracts wide enrollment
// records for the given end year.
//
// The portal renames and reorders columns between report vintages, so the
// header row is located by content and mapped dynamically instead of by
// fixed position. Suppressed counts ("*", "-", "<10") parse as zero.
func ParseEnrollmentCSV(r io.Reader, year int) ([]enrollment.Record, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1

	rows, err := reader.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("%w: failed to read CSV: %v", shared.ErrProvider, err)
	}

	headerRow, cols := findHeader(rows)
	if headerRow == -1 {
		return nil, fmt.Errorf("%w: no header row in export", shared.ErrSchema)
	}

	for _, col := range requiredColumns {
		if _, ok := cols[col]; !ok {
			return nil, fmt.Errorf("%w: %s", shared.ErrSchema, col)
		}
	}

	var records []enrollment.Record
	for i := headerRow + 1; i < len(rows); i++ {
		row := rows[i]
		if isBlank(row) {
			continue
		}

		get := func(col string) string {
			if idx, ok := cols[col]; ok && idx < len(row) {
				return strings.TrimSpace(row[idx])
			}
			return ""
		}
		count := func(col string) float64 {
			return parseCount(get(col))
		}

		grade := normalizeGrade(get("grade"))
		if grade == "" {
			continue
		}

		schoolName := get("school_name")
		level := strings.ToLower(get("level"))
		isDistrict := strings.Contains(level, "district")
		if level == "" {
			isDistrict = schoolName == ""
		}

		records = append(records, enrollment.Record{
			EndYear:         year,
			DistrictID:      get("district_id"),
			DistrictName:    get("district_name"),
			SchoolID:        get("school_id"),
			SchoolName:      schoolName,
			IsDistrict:      isDistrict,
			GradeLevel:      grade,
			NStudents:       count("total"),
			Male:            count("male"),
			Female:          count("female"),
			AmericanIndian:  count("american_indian"),
			Asian:           count("asian"),
			Black:           count("black"),
			Hispanic:        count("hispanic"),
			PacificIslander: count("pacific_islander"),
			White:           count("white"),
			TwoOrMore:       count("two_or_more"),
			IEP:             count("iep"),
			ELL:             count("ell"),
			FRL:             count("frl"),
		})
	}

	return records, nil
}

// findHeader scans for the row carrying the column names and maps positions.
func findHeader(rows [][]string) (int, columnMap) {
	for i, row := range rows {
		if len(row) < 3 {
			continue
		}

		rowText := strings.ToLower(strings.Join(row, " "))
		if !strings.Contains(rowText, "district") || !strings.Contains(rowText, "grade") || !strings.Contains(rowText, "enrollment") {
			continue
		}

		cols := columnMap{}
		for j, header := range row {
			h := strings.ToLower(strings.TrimSpace(header))
			switch {
			case strings.Contains(h, "district") && strings.Contains(h, "id"):
				cols["district_id"] = j
			case strings.Contains(h, "district"):
				cols["district_name"] = j
			case strings.Contains(h, "school") && strings.Contains(h, "id"):
				cols["school_id"] = j
			case strings.Contains(h, "school"):
				cols["school_name"] = j
			case strings.Contains(h, "level") || strings.Contains(h, "organization type"):
				cols["level"] = j
			case strings.Contains(h, "grade"):
				cols["grade"] = j
			case strings.Contains(h, "total") && strings.Contains(h, "enrollment"):
				cols["total"] = j
			case h == "male":
				cols["male"] = j
			case h == "female":
				cols["female"] = j
			case strings.Contains(h, "american indian") || strings.Contains(h, "alaskan"):
				cols["american_indian"] = j
			case h == "asian":
				cols["asian"] = j
			case strings.Contains(h, "black"):
				cols["black"] = j
			case strings.Contains(h, "hispanic") || strings.Contains(h, "latino"):
				cols["hispanic"] = j
			case strings.Contains(h, "pacific"):
				cols["pacific_islander"] = j
			case h == "white" || strings.Contains(h, "caucasian"):
				cols["white"] = j
			case strings.Contains(h, "two or more") || strings.Contains(h, "multiracial"):
				cols["two_or_more"] = j
			case h == "iep" || strings.Contains(h, "special education"):
				cols["iep"] = j
			case h == "ell" || h == "el" || strings.Contains(h, "english learner"):
				cols["ell"] = j
			case h == "frl" || strings.Contains(h, "free and reduced") || strings.Contains(h, "free/reduced"):
				cols["frl"] = j
			}
		}

		return i, cols
	}

	return -1, nil
}

func isBlank(row []string) bool {
	for _, cell := range row {
		if strings.TrimSpace(cell) != "" {
			return false
		}
	}
	return true
}

// parseCount converts a cell to a non-negative count. Suppression markers
// and unparseable cells become zero rather than failing the whole table.
func parseCount(s string) float64 {
	s = strings.TrimSpace(s)
	switch s {
	case "", "*", "-", "N/A", "n/a":
		return 0
	}
	if strings.HasPrefix(s, "<") {
		return 0
	}

	s = strings.ReplaceAll(s, ",", "")
	val, err := strconv.ParseFloat(s, 64)
	if err != nil || val < 0 {
		return 0
	}
	return val
}

// normalizeGrade collapses the portal's grade label variants to the
// canonical set PK, K, 1..12, TOTAL.
func normalizeGrade(s string) string {
	g := strings.ToUpper(strings.TrimSpace(s))
	if g == "" {
		return ""
	}

	switch {
	case g == "TOTAL" || g == "ALL GRADES" || g == "ALL":
		return enrollment.GradeTotal
	case strings.HasPrefix(g, "PRE") || g == "PK":
		return "PK"
	case strings.HasPrefix(g, "K"):
		return "K"
	}

	g = strings.TrimPrefix(g, "GRADE ")
	g = strings.TrimLeft(g, "0")
	if g == "" {
		return ""
	}

	if _, err := strconv.Atoi(g); err != nil {
		return ""
	}
	return g
}
