package ui

import (
	"context"
	"fmt"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/list"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/sagebrushdata/nvenr/internal/enrollment"
	"github.com/sagebrushdata/nvenr/internal/shared"
	"github.com/sagebrushdata/nvenr/internal/tasks"
)

// ViewState represents the current view in the TUI.
type ViewState int

const (
	YearListView ViewState = iota
	FetchView
	DistrictListView
	SchoolListView
)

// Model represents the TUI application state.
type Model struct {
	ctx          context.Context
	view         ViewState
	service      *enrollment.Service
	engine       tasks.Engine
	width        int
	height       int
	yearList     list.Model
	districtList list.Model
	schoolList   list.Model
	table        *enrollment.Table
	year         int
	district     string
	progressChan chan tasks.ProgressUpdate
	progress     tasks.ProgressUpdate
	fetched      *enrollment.Table
	fetchErr     error
	err          error
	help         help.Model
	keys         keyMap
}

// NewModel creates a new TUI model with the provided dependencies.
func NewModel(ctx context.Context, service *enrollment.Service, engine tasks.Engine) *Model {
	return &Model{
		ctx:     ctx,
		view:    YearListView,
		service: service,
		engine:  engine,
		help:    help.New(),
		keys:    newKeyMap(),
	}
}

// Init initializes the TUI by fetching the provider's year bounds.
func (m *Model) Init() tea.Cmd {
	return m.fetchYears()
}

// Update handles incoming messages and updates the model state.
func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		if m.yearList.Width() == 0 {
			m.yearList.SetSize(msg.Width-4, msg.Height-8)
		}
		if m.districtList.Width() == 0 {
			m.districtList.SetSize(msg.Width-4, msg.Height-8)
		}
		if m.schoolList.Width() == 0 {
			m.schoolList.SetSize(msg.Width-4, msg.Height-8)
		}
		return m, nil

	case tea.KeyMsg:
		switch m.view {
		case YearListView:
			return m.handleYearListKeys(msg)
		case DistrictListView:
			return m.handleDistrictListKeys(msg)
		case SchoolListView:
			return m.handleSchoolListKeys(msg)
		}

	case yearsFetchedMsg:
		if msg.err != nil {
			m.err = msg.err
			return m, tea.Quit
		}
		items := make([]list.Item, 0, msg.years.Max-msg.years.Min+1)
		for year := msg.years.Max; year >= msg.years.Min; year-- {
			items = append(items, yearItem{year: year})
		}
		m.yearList = list.New(items, list.NewDefaultDelegate(), 0, 0)
		m.yearList.Title = "Nevada School Years"
		m.yearList.SetSize(m.width-4, m.height-8)
		return m, nil

	case fetchProgressMsg:
		m.progress = tasks.ProgressUpdate(msg)
		return m, m.waitForProgress()

	case fetchCompleteMsg:
		m.progressChan = nil
		if msg.err != nil {
			m.err = msg.err
			m.view = YearListView
			return m, nil
		}
		m.err = nil
		m.table = msg.table
		m.year = msg.year
		m.buildDistrictList()
		m.view = DistrictListView
		return m, nil
	}

	return m.updateLists(msg)
}

// View renders the UI based on the current view state.
func (m *Model) View() string {
	if m.err != nil && m.view == YearListView {
		return styles.err.Render(fmt.Sprintf("Error: %v\n\nPress q to quit", m.err))
	}

	switch m.view {
	case YearListView:
		return m.renderYearList()
	case FetchView:
		return m.renderFetch()
	case DistrictListView:
		return m.renderDistrictList()
	case SchoolListView:
		return m.renderSchoolList()
	default:
		return ""
	}
}

func (m *Model) handleYearListKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "q", "ctrl+c":
		return m, tea.Quit
	case "enter":
		selected := m.yearList.SelectedItem()
		if selected != nil {
			if item, ok := selected.(yearItem); ok {
				m.view = FetchView
				return m, m.startFetch(item.year, false)
			}
		}
	}

	var cmd tea.Cmd
	m.yearList, cmd = m.yearList.Update(msg)
	return m, cmd
}

func (m *Model) handleDistrictListKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "q", "ctrl+c":
		return m, tea.Quit
	case "esc":
		m.view = YearListView
		return m, nil
	case "r":
		m.view = FetchView
		return m, m.startFetch(m.year, true)
	case "enter":
		selected := m.districtList.SelectedItem()
		if selected != nil {
			if item, ok := selected.(districtItem); ok {
				m.district = item.name
				m.buildSchoolList()
				m.view = SchoolListView
				return m, nil
			}
		}
	}

	var cmd tea.Cmd
	m.districtList, cmd = m.districtList.Update(msg)
	return m, cmd
}

func (m *Model) handleSchoolListKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "q", "ctrl+c":
		return m, tea.Quit
	case "esc":
		m.view = DistrictListView
		return m, nil
	}

	var cmd tea.Cmd
	m.schoolList, cmd = m.schoolList.Update(msg)
	return m, cmd
}

func (m *Model) updateLists(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmd tea.Cmd
	switch m.view {
	case YearListView:
		m.yearList, cmd = m.yearList.Update(msg)
	case DistrictListView:
		m.districtList, cmd = m.districtList.Update(msg)
	case SchoolListView:
		m.schoolList, cmd = m.schoolList.Update(msg)
	}
	return m, cmd
}

func (m *Model) fetchYears() tea.Cmd {
	return func() tea.Msg {
		years, err := m.service.AvailableYears(m.ctx)
		return yearsFetchedMsg{years: years, err: err}
	}
}

func (m *Model) startFetch(year int, refresh bool) tea.Cmd {
	m.progress = tasks.ProgressUpdate{}
	m.progressChan = make(chan tasks.ProgressUpdate, 50)
	m.fetched = nil
	m.fetchErr = nil

	progressChan := m.progressChan
	go func() {
		result, err := m.engine.Fetch(m.ctx, progressChan, year, refresh)
		if result != nil {
			m.fetched = result.Table
		}
		m.fetchErr = err
		close(progressChan)
	}()

	m.year = year
	return m.waitForProgress()
}

func (m *Model) waitForProgress() tea.Cmd {
	return func() tea.Msg {
		if m.progressChan == nil {
			return fetchCompleteMsg{year: m.year, table: m.fetched, err: m.fetchErr}
		}

		update, ok := <-m.progressChan
		if !ok {
			return fetchCompleteMsg{year: m.year, table: m.fetched, err: m.fetchErr}
		}
		return fetchProgressMsg(update)
	}
}

// buildDistrictList aggregates district TOTAL rows into the district view.
func (m *Model) buildDistrictList() {
	type districtAgg struct {
		students float64
		schools  map[string]bool
	}

	aggs := make(map[string]*districtAgg)
	var order []string
	for _, r := range m.table.Records {
		agg, seen := aggs[r.DistrictName]
		if !seen {
			agg = &districtAgg{schools: make(map[string]bool)}
			aggs[r.DistrictName] = agg
			order = append(order, r.DistrictName)
		}
		if r.IsDistrict && r.GradeLevel == enrollment.GradeTotal {
			agg.students += r.NStudents
		}
		if r.SchoolName != "" {
			agg.schools[r.SchoolName] = true
		}
	}

	items := make([]list.Item, 0, len(order))
	for _, name := range order {
		agg := aggs[name]
		items = append(items, districtItem{
			name:     name,
			students: agg.students,
			schools:  len(agg.schools),
		})
	}

	m.districtList = list.New(items, list.NewDefaultDelegate(), 0, 0)
	m.districtList.Title = fmt.Sprintf("Districts (%d-%d)", m.year-1, m.year)
	m.districtList.SetSize(m.width-4, m.height-8)
}

// buildSchoolList collects school TOTAL rows for the selected district.
func (m *Model) buildSchoolList() {
	var items []list.Item
	for _, r := range m.table.Records {
		if r.IsDistrict || r.DistrictName != m.district || r.GradeLevel != enrollment.GradeTotal {
			continue
		}
		items = append(items, schoolItem{
			name:     r.SchoolName,
			id:       r.SchoolID,
			students: r.NStudents,
		})
	}

	m.schoolList = list.New(items, list.NewDefaultDelegate(), 0, 0)
	m.schoolList.Title = fmt.Sprintf("Schools in %s", m.district)
	m.schoolList.SetSize(m.width-4, m.height-8)
}

func (m *Model) renderYearList() string {
	helpKeys := []key.Binding{m.keys.enter, m.keys.quit}
	helpView := m.help.ShortHelpView(helpKeys)
	return fmt.Sprintf("%s\n\n%s", m.yearList.View(), helpView)
}

func (m *Model) renderFetch() string {
	title := styles.title.Render(fmt.Sprintf("Fetching %d-%d Enrollment", m.year-1, m.year))

	var phase string
	switch m.progress.Phase {
	case tasks.FetchYear:
		phase = "Fetching from the provider..."
	case tasks.CacheRead:
		phase = "Loading cached snapshot..."
	case tasks.CacheWrite:
		phase = "Caching snapshot..."
	default:
		phase = "Processing..."
	}

	return fmt.Sprintf("%s\n\n%s\n%s", title, phase, m.progress.Message)
}

func (m *Model) renderDistrictList() string {
	var summary string
	if m.table != nil {
		summary = styles.help.Render(fmt.Sprintf("%s students statewide", shared.FormatCount(m.table.TotalStudents())))
	}
	helpKeys := []key.Binding{m.keys.enter, m.keys.back, m.keys.refresh, m.keys.quit}
	helpView := m.help.ShortHelpView(helpKeys)
	return fmt.Sprintf("%s\n%s\n\n%s", m.districtList.View(), summary, helpView)
}

func (m *Model) renderSchoolList() string {
	helpKeys := []key.Binding{m.keys.back, m.keys.quit}
	helpView := m.help.ShortHelpView(helpKeys)
	return fmt.Sprintf("%s\n\n%s", m.schoolList.View(), helpView)
}
