package enrollment

import "fmt"

// TidyEnr reshapes a wide table into long format, one row per subgroup
// observation.
//
// Each wide row melts into one tidy row per subgroup column, total
// enrollment first, so the output row count is always at least the input's.
// A record that fails schema validation aborts the reshape with
// [shared.ErrSchema]; there is no partial output.
func (s *Service) TidyEnr(table *Table) (*TidyTable, error) {
	if table == nil {
		return nil, fmt.Errorf("tidy_enr: nil table")
	}

	tidy := &TidyTable{Records: make([]TidyRecord, 0, len(table.Records))}

	for i, r := range table.Records {
		if err := r.Validate(); err != nil {
			return nil, fmt.Errorf("row %d: %w", i, err)
		}

		for _, c := range r.subgroupCounts() {
			tidy.Records = append(tidy.Records, TidyRecord{
				EndYear:      r.EndYear,
				DistrictID:   r.DistrictID,
				DistrictName: r.DistrictName,
				SchoolID:     r.SchoolID,
				SchoolName:   r.SchoolName,
				IsDistrict:   r.IsDistrict,
				GradeLevel:   r.GradeLevel,
				Subgroup:     c.Subgroup,
				NStudents:    c.N,
			})
		}
	}

	return tidy, nil
}
