package ui

import (
	"github.com/sagebrushdata/nvenr/internal/enrollment"
	"github.com/sagebrushdata/nvenr/internal/tasks"
)

// yearsFetchedMsg carries the provider's year bounds into the Elm loop.
type yearsFetchedMsg struct {
	years enrollment.YearRange
	err   error
}

// fetchCompleteMsg carries one year's table after a fetch finishes.
type fetchCompleteMsg struct {
	year  int
	table *enrollment.Table
	err   error
}

// fetchProgressMsg wraps engine progress updates for the fetch view.
type fetchProgressMsg tasks.ProgressUpdate
