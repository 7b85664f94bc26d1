package enrollment

import (
	"fmt"

	"github.com/sagebrushdata/nvenr/internal/shared"
)

// GradeTotal is the sentinel grade level for whole-organization aggregate rows.
const GradeTotal = "TOTAL"

// Subgroup labels used in tidy output. SubgroupTotal corresponds to the wide
// table's n_students column.
const (
	SubgroupTotal           = "total_enrollment"
	SubgroupMale            = "male"
	SubgroupFemale          = "female"
	SubgroupAmericanIndian  = "american_indian"
	SubgroupAsian           = "asian"
	SubgroupBlack           = "black"
	SubgroupHispanic        = "hispanic"
	SubgroupPacificIslander = "pacific_islander"
	SubgroupWhite           = "white"
	SubgroupTwoOrMore       = "two_or_more"
	SubgroupIEP             = "iep"
	SubgroupELL             = "ell"
	SubgroupFRL             = "frl"
)

// YearRange is the inclusive bounds of school years the provider can serve.
type YearRange struct {
	Min int `json:"min_year"`
	Max int `json:"max_year"`
}

// Contains reports whether the year falls inside the range, bounds included.
func (r YearRange) Contains(year int) bool {
	return year >= r.Min && year <= r.Max
}

// Valid reports whether the range is well formed (Min strictly below Max).
func (r YearRange) Valid() bool {
	return r.Min < r.Max
}

func (r YearRange) String() string {
	return fmt.Sprintf("%d-%d", r.Min, r.Max)
}

// Record is one wide enrollment row: a school or district at a grade level,
// with the total count and per-subgroup counts as columns.
type Record struct {
	EndYear      int     `json:"end_year"`
	DistrictID   string  `json:"district_id"`
	DistrictName string  `json:"district_name"`
	SchoolID     string  `json:"school_id,omitempty"`
	SchoolName   string  `json:"school_name,omitempty"`
	IsDistrict   bool    `json:"is_district"`
	GradeLevel   string  `json:"grade_level"`
	NStudents    float64 `json:"n_students"`

	Male            float64 `json:"male"`
	Female          float64 `json:"female"`
	AmericanIndian  float64 `json:"american_indian"`
	Asian           float64 `json:"asian"`
	Black           float64 `json:"black"`
	Hispanic        float64 `json:"hispanic"`
	PacificIslander float64 `json:"pacific_islander"`
	White           float64 `json:"white"`
	TwoOrMore       float64 `json:"two_or_more"`
	IEP             float64 `json:"iep"`
	ELL             float64 `json:"ell"`
	FRL             float64 `json:"frl"`
}

// Validate checks the record satisfies the table schema.
func (r Record) Validate() error {
	if r.EndYear <= 0 {
		return fmt.Errorf("%w: end_year", shared.ErrSchema)
	}
	if r.GradeLevel == "" {
		return fmt.Errorf("%w: grade_level", shared.ErrSchema)
	}
	if r.DistrictName == "" {
		return fmt.Errorf("%w: district_name", shared.ErrSchema)
	}
	for _, c := range r.subgroupCounts() {
		if c.N < 0 {
			return fmt.Errorf("%w: negative %s count", shared.ErrSchema, c.Subgroup)
		}
	}
	return nil
}

// OrgKey returns a normalized lookup key for the record's organization.
func (r Record) OrgKey() string {
	return shared.NormalizeOrgKey(r.DistrictName, r.SchoolName)
}

type subgroupCount struct {
	Subgroup string
	N        float64
}

// subgroupCounts lists every unpivotable column in tidy order, total first.
func (r Record) subgroupCounts() []subgroupCount {
	return []subgroupCount{
		{SubgroupTotal, r.NStudents},
		{SubgroupMale, r.Male},
		{SubgroupFemale, r.Female},
		{SubgroupAmericanIndian, r.AmericanIndian},
		{SubgroupAsian, r.Asian},
		{SubgroupBlack, r.Black},
		{SubgroupHispanic, r.Hispanic},
		{SubgroupPacificIslander, r.PacificIslander},
		{SubgroupWhite, r.White},
		{SubgroupTwoOrMore, r.TwoOrMore},
		{SubgroupIEP, r.IEP},
		{SubgroupELL, r.ELL},
		{SubgroupFRL, r.FRL},
	}
}

// Table is an ordered collection of wide enrollment records from one fetch.
type Table struct {
	Records []Record `json:"records"`
}

// Len returns the row count.
func (t *Table) Len() int {
	return len(t.Records)
}

// Years returns the distinct end years present, in first-seen order.
func (t *Table) Years() []int {
	seen := make(map[int]bool)
	var years []int
	for _, r := range t.Records {
		if !seen[r.EndYear] {
			seen[r.EndYear] = true
			years = append(years, r.EndYear)
		}
	}
	return years
}

// Districts returns the distinct district names present, in first-seen order.
func (t *Table) Districts() []string {
	seen := make(map[string]bool)
	var names []string
	for _, r := range t.Records {
		if !seen[r.DistrictName] {
			seen[r.DistrictName] = true
			names = append(names, r.DistrictName)
		}
	}
	return names
}

// TotalStudents sums n_students across district-level TOTAL rows.
func (t *Table) TotalStudents() float64 {
	var sum float64
	for _, r := range t.Records {
		if r.IsDistrict && r.GradeLevel == GradeTotal {
			sum += r.NStudents
		}
	}
	return sum
}

// Concat appends all rows of other to a copy of t, preserving order and
// duplicates. Neither input is modified.
func (t *Table) Concat(other *Table) *Table {
	records := make([]Record, 0, len(t.Records)+len(other.Records))
	records = append(records, t.Records...)
	records = append(records, other.Records...)
	return &Table{Records: records}
}

// TidyRecord is one subgroup observation in long format.
type TidyRecord struct {
	EndYear      int     `json:"end_year"`
	DistrictID   string  `json:"district_id"`
	DistrictName string  `json:"district_name"`
	SchoolID     string  `json:"school_id,omitempty"`
	SchoolName   string  `json:"school_name,omitempty"`
	IsDistrict   bool    `json:"is_district"`
	GradeLevel   string  `json:"grade_level"`
	Subgroup     string  `json:"subgroup"`
	NStudents    float64 `json:"n_students"`
}

// TidyTable is the long-format reshape of a [Table].
type TidyTable struct {
	Records []TidyRecord `json:"records"`
}

// Len returns the row count.
func (t *TidyTable) Len() int {
	return len(t.Records)
}
