// package testing contains shared testing utilities
package testing

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"testing"

	"github.com/sagebrushdata/nvenr/internal/enrollment"
)

// DefaultYears is the year range MockProvider serves unless overridden.
var DefaultYears = enrollment.YearRange{Min: 2012, Max: 2026}

// MockProvider is a test double for [enrollment.Provider].
//
// It synthesizes a deterministic statewide table per year via
// [StatewideRecords], so tests exercising row counts and district totals see
// realistic cardinality without network access.
type MockProvider struct {
	YearBounds enrollment.YearRange
	YearsErr   error
	FetchErr   error
	FetchCalls []int
}

func NewMockProvider() *MockProvider {
	return &MockProvider{YearBounds: DefaultYears}
}

func (m *MockProvider) Years(ctx context.Context) (enrollment.YearRange, error) {
	if m.YearsErr != nil {
		return enrollment.YearRange{}, m.YearsErr
	}
	return m.YearBounds, nil
}

func (m *MockProvider) FetchRawEnrollment(ctx context.Context, year int) ([]enrollment.Record, error) {
	m.FetchCalls = append(m.FetchCalls, year)
	if m.FetchErr != nil {
		return nil, m.FetchErr
	}
	return StatewideRecords(year), nil
}

func (m *MockProvider) Name() string { return "mock" }

// fixtureDistrict drives the synthesized statewide table. Students are the
// district's total enrollment; schools is how many campuses it splits across.
type fixtureDistrict struct {
	name     string
	schools  int
	students float64
}

var fixtureDistricts = []fixtureDistrict{
	{"Clark County", 200, 295000},
	{"Washoe County", 60, 61000},
	{"Carson City", 10, 7500},
	{"Churchill County", 8, 3300},
	{"Douglas County", 8, 5400},
	{"Elko County", 12, 9600},
	{"Esmeralda County", 2, 80},
	{"Eureka County", 2, 250},
	{"Humboldt County", 8, 3400},
	{"Lander County", 4, 950},
	{"Lincoln County", 5, 1000},
	{"Lyon County", 12, 8900},
	{"Mineral County", 3, 480},
	{"Nye County", 10, 5200},
	{"Pershing County", 3, 650},
	{"Storey County", 3, 400},
	{"White Pine County", 5, 1200},
}

var fixtureGrades = []string{"PK", "K", "1", "2", "3", "4", "5", "6", "7", "8", "9", "10", "11", "12"}

// StatewideRecords synthesizes one full year of wide enrollment rows.
//
// Cardinality mirrors the real report: hundreds of schools each carrying a
// row per grade plus a TOTAL row, and one aggregate set per district. The
// statewide sum of district TOTAL rows lands near 480k students and drifts
// slightly by year.
func StatewideRecords(year int) []enrollment.Record {
	// Small enrollment drift so multi-year tables differ.
	scale := 1.0 + float64(year-2024)*0.003

	var records []enrollment.Record
	for di, d := range fixtureDistricts {
		districtID := fmt.Sprintf("%02d", di+1)
		perSchool := d.students * scale / float64(d.schools)
		perGrade := perSchool / float64(len(fixtureGrades))

		var districtTotal float64
		for si := 0; si < d.schools; si++ {
			schoolID := fmt.Sprintf("%s-%03d", districtID, si+1)
			schoolName := fmt.Sprintf("%s School %d", d.name, si+1)

			var schoolTotal float64
			for _, grade := range fixtureGrades {
				records = append(records, newFixtureRecord(year, districtID, d.name, schoolID, schoolName, false, grade, perGrade))
				schoolTotal += perGrade
			}
			records = append(records, newFixtureRecord(year, districtID, d.name, schoolID, schoolName, false, enrollment.GradeTotal, schoolTotal))
			districtTotal += schoolTotal
		}

		for _, grade := range fixtureGrades {
			records = append(records, newFixtureRecord(year, districtID, d.name, "", "", true, grade, districtTotal/float64(len(fixtureGrades))))
		}
		records = append(records, newFixtureRecord(year, districtID, d.name, "", "", true, enrollment.GradeTotal, districtTotal))
	}

	return records
}

// newFixtureRecord fills subgroup columns with stable statewide fractions.
func newFixtureRecord(year int, districtID, districtName, schoolID, schoolName string, isDistrict bool, grade string, n float64) enrollment.Record {
	return enrollment.Record{
		EndYear:         year,
		DistrictID:      districtID,
		DistrictName:    districtName,
		SchoolID:        schoolID,
		SchoolName:      schoolName,
		IsDistrict:      isDistrict,
		GradeLevel:      grade,
		NStudents:       n,
		Male:            n * 0.51,
		Female:          n * 0.49,
		AmericanIndian:  n * 0.008,
		Asian:           n * 0.055,
		Black:           n * 0.12,
		Hispanic:        n * 0.43,
		PacificIslander: n * 0.015,
		White:           n * 0.29,
		TwoOrMore:       n * 0.082,
		IEP:             n * 0.13,
		ELL:             n * 0.16,
		FRL:             n * 0.62,
	}
}

// StatewideTable wraps [StatewideRecords] in a Table.
func StatewideTable(year int) *enrollment.Table {
	return &enrollment.Table{Records: StatewideRecords(year)}
}

// SmallTable returns a four-row table for tests that assert exact values.
func SmallTable(year int) *enrollment.Table {
	return &enrollment.Table{Records: []enrollment.Record{
		newFixtureRecord(year, "02", "Washoe County", "02-001", "Hug High School", false, "9", 410),
		newFixtureRecord(year, "02", "Washoe County", "02-001", "Hug High School", false, enrollment.GradeTotal, 1640),
		newFixtureRecord(year, "02", "Washoe County", "", "", true, "9", 4700),
		newFixtureRecord(year, "02", "Washoe County", "", "", true, enrollment.GradeTotal, 61000),
	}}
}

// FWriter always returns an error on Write
type FWriter struct{}

func (f *FWriter) Write(p []byte) (n int, err error) {
	return 0, errors.New("write failed")
}

// LimitedWriter fails after a certain number of writes
type LimitedWriter struct {
	maxWrites int
	written   int
	target    io.Writer
}

func (l *LimitedWriter) Write(p []byte) (n int, err error) {
	if l.written >= l.maxWrites {
		return 0, errors.New("write limit exceeded")
	}
	l.written++
	return l.target.Write(p)
}

func NewLimitedWriter(maxWrites, written int, target io.Writer) LimitedWriter {
	return LimitedWriter{maxWrites: maxWrites, written: written, target: target}
}

// MockRoundTripper allows custom HTTP responses for testing
type MockRoundTripper struct {
	response *http.Response
	err      error
}

func NewMockRoundTripper(r *http.Response, e error) *MockRoundTripper {
	return &MockRoundTripper{response: r, err: e}
}

func (m *MockRoundTripper) RoundTrip(*http.Request) (*http.Response, error) {
	return m.response, m.err
}

func MustGetwd(t *testing.T) string {
	t.Helper()
	wd, err := os.Getwd()
	if err != nil {
		t.Fatalf("Failed to get working directory: %v", err)
	}
	return wd
}

func MustChdir(t *testing.T, dir string) {
	t.Helper()
	if err := os.Chdir(dir); err != nil {
		t.Fatalf("Failed to change directory to %s: %v", dir, err)
	}
}

func AssertFileExists(t *testing.T, path string) {
	t.Helper()
	if _, err := os.Stat(path); os.IsNotExist(err) {
		t.Errorf("File does not exist: %s", path)
	}
}

func AssertDirExists(t *testing.T, path string) {
	t.Helper()
	info, err := os.Stat(path)
	if os.IsNotExist(err) {
		t.Errorf("Directory does not exist: %s", path)
		return
	}
	if !info.IsDir() {
		t.Errorf("Path is not a directory: %s", path)
	}
}

func MustReadFile(t *testing.T, path string) string {
	t.Helper()
	content, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("Failed to read file %s: %v", path, err)
	}
	return string(content)
}
