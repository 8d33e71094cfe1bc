package tui

import (
	"time"

	"github.com/charmbracelet/bubbles/textinput"

	"github.com/existflow/habitgrid/internal/calendar"
	"github.com/existflow/habitgrid/internal/grid"
	"github.com/existflow/habitgrid/internal/logger"
	"github.com/existflow/habitgrid/internal/model"
	"github.com/existflow/habitgrid/internal/tracker"
)

// Mode represents the current UI mode
type Mode int

const (
	ModeNormal Mode = iota
	ModeAddHabit
	ModeEditHabit
	ModeConfirmRemove
	ModeHelp
)

const (
	fieldName = iota
	fieldColour
)

// Options tune the TUI from user config
type Options struct {
	Timeout         time.Duration // Per-operation deadline
	RefreshInterval time.Duration // Background refetch, 0 disables
	ConfirmRemove   bool
}

// Model is the main TUI model
type Model struct {
	tracker *tracker.Tracker
	opts    Options

	// Background refresh
	poller      *tracker.Poller
	refreshChan chan error // Poller results, buffered

	// UI state
	width  int
	height int
	mode   Mode
	row    int // habit cursor
	col    int // day cursor, 0-based day of the pivot month

	// Habit form
	inputs    []textinput.Model
	focus     int
	editingID int64
	formErr   string

	busy           bool // a command is in flight
	message        string
	celebrateUntil time.Time
	celebrateDay   time.Time
}

// NewModel creates a new TUI model over t
func NewModel(t *tracker.Tracker, opts Options) Model {
	logger.Info("Initializing TUI model")

	if opts.Timeout <= 0 {
		opts.Timeout = 15 * time.Second
	}

	name := textinput.New()
	name.Placeholder = "Habit name..."
	name.CharLimit = 64
	name.Width = 40

	colour := textinput.New()
	colour.Placeholder = model.DefaultColour
	colour.CharLimit = 7
	colour.Width = 10

	m := Model{
		tracker:     t,
		opts:        opts,
		mode:        ModeNormal,
		inputs:      []textinput.Model{name, colour},
		refreshChan: make(chan error, 1),
		col:         t.Now().Day() - 1,
	}

	if opts.RefreshInterval > 0 {
		m.poller = tracker.NewPoller(t, opts.RefreshInterval)
		m.poller.SetTimeout(opts.Timeout)

		refreshChan := m.refreshChan
		m.poller.SetOnRefresh(func(err error) {
			logger.Debug("Background refresh finished", logger.F("error", err))
			select {
			case refreshChan <- err:
			default:
			}
		})
		m.poller.Start()
	}

	return m
}

// Stop releases background workers
func (m Model) Stop() {
	if m.poller != nil {
		m.poller.Stop()
	}
}

func (m *Model) rows() []grid.Row {
	return m.tracker.Rows()
}

// clampCursor keeps the cursor inside the grid after data or month changes
func (m *Model) clampCursor(rows []grid.Row) {
	m.row = clamp(m.row, 0, len(rows)-1)
	days := daysInPivot(m.tracker)
	if len(rows) > 0 {
		days = len(rows[0].Cells)
	}
	m.col = clamp(m.col, 0, days-1)
}

func (m *Model) currentHabit() (model.Habit, bool) {
	habits := m.tracker.Habits()
	if m.row < 0 || m.row >= len(habits) {
		return model.Habit{}, false
	}
	return habits[m.row], true
}

func (m *Model) currentCell() (grid.Row, grid.Cell, bool) {
	rows := m.rows()
	if m.row < 0 || m.row >= len(rows) {
		return grid.Row{}, grid.Cell{}, false
	}
	r := rows[m.row]
	if m.col < 0 || m.col >= len(r.Cells) {
		return grid.Row{}, grid.Cell{}, false
	}
	return r, r.Cells[m.col], true
}

func (m Model) celebrating(now time.Time) bool {
	return now.Before(m.celebrateUntil)
}

func daysInPivot(t *tracker.Tracker) int {
	p := t.Pivot()
	return len(calendar.DaysInMonth(p.Year(), p.Month(), p.Location()))
}
