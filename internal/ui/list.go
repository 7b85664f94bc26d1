package ui

import (
	"fmt"

	"github.com/charmbracelet/bubbles/list"
	"github.com/sagebrushdata/nvenr/internal/shared"
)

var (
	_ list.Item = yearItem{}
	_ list.Item = districtItem{}
	_ list.Item = schoolItem{}
)

// yearItem wraps one selectable school year to implement [list.Item].
type yearItem struct {
	year int
}

func (i yearItem) FilterValue() string { return fmt.Sprintf("%d", i.year) }
func (i yearItem) Title() string       { return fmt.Sprintf("%d-%d", i.year-1, i.year) }
func (i yearItem) Description() string {
	return fmt.Sprintf("school year ending %d", i.year)
}

// districtItem summarizes one district's enrollment to implement [list.Item].
type districtItem struct {
	name     string
	students float64
	schools  int
}

func (i districtItem) FilterValue() string { return i.name }
func (i districtItem) Title() string       { return i.name }
func (i districtItem) Description() string {
	desc := fmt.Sprintf("%s students", shared.FormatCount(i.students))
	if i.schools > 0 {
		desc = fmt.Sprintf("%s • %d schools", desc, i.schools)
	}
	return desc
}

// schoolItem summarizes one school's enrollment to implement [list.Item].
type schoolItem struct {
	name     string
	id       string
	students float64
}

func (i schoolItem) FilterValue() string { return i.name }
func (i schoolItem) Title() string       { return i.name }
func (i schoolItem) Description() string {
	desc := fmt.Sprintf("%s students", shared.FormatCount(i.students))
	if i.id != "" {
		desc = fmt.Sprintf("%s • %s", desc, i.id)
	}
	return desc
}
