package tui

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/existflow/habitgrid/internal/calendar"
	"github.com/existflow/habitgrid/internal/logger"
	"github.com/existflow/habitgrid/internal/model"
	"github.com/existflow/habitgrid/internal/tracker"
)

const celebrationLength = 4 * time.Second

// tickMsg is sent every second for time updates
type tickMsg time.Time

// pollRefreshMsg is sent when the poller refetched in the background
type pollRefreshMsg struct {
	err error
}

// refreshedMsg is the result of a foreground refresh
type refreshedMsg struct {
	err error
}

// toggledMsg is the result of marking or unmarking a day
type toggledMsg struct {
	day       time.Time
	celebrate bool
	err       error
}

// mutatedMsg is the result of a habit create, edit, remove or reorder
type mutatedMsg struct {
	done string
	err  error
}

// Init loads habits and starts the clock
func (m Model) Init() tea.Cmd {
	return tea.Batch(m.refreshCmd(), tickCmd(), m.waitForPollRefresh())
}

func tickCmd() tea.Cmd {
	return tea.Every(time.Second, func(t time.Time) tea.Msg {
		return tickMsg(t)
	})
}

// waitForPollRefresh listens for background refresh signals
func (m Model) waitForPollRefresh() tea.Cmd {
	if m.poller == nil {
		return nil
	}
	ch := m.refreshChan
	return func() tea.Msg {
		return pollRefreshMsg{err: <-ch}
	}
}

func (m Model) opContext() (context.Context, context.CancelFunc) {
	return context.WithTimeout(context.Background(), m.opts.Timeout)
}

func (m Model) refreshCmd() tea.Cmd {
	t := m.tracker
	return func() tea.Msg {
		ctx, cancel := m.opContext()
		defer cancel()
		return refreshedMsg{err: t.Refresh(ctx)}
	}
}

func (m Model) toggleCmd(habitID int64, day time.Time) tea.Cmd {
	t := m.tracker
	return func() tea.Msg {
		ctx, cancel := m.opContext()
		defer cancel()
		celebrate, err := t.ToggleEntry(ctx, habitID, day)
		return toggledMsg{day: day, celebrate: celebrate, err: err}
	}
}

func (m Model) mutateCmd(done string, fn func(ctx context.Context) error) tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := m.opContext()
		defer cancel()
		return mutatedMsg{done: done, err: fn(ctx)}
	}
}

// Update handles messages
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tickMsg:
		// Continue ticking so the today column and celebration expire on time
		return m, tickCmd()

	case pollRefreshMsg:
		if msg.err == nil && m.tracker.State() != tracker.Error {
			m.clampCursor(m.rows())
		}
		return m, m.waitForPollRefresh()

	case refreshedMsg:
		m.busy = false
		if msg.err != nil {
			m.message = ""
		} else {
			m.message = "Refreshed"
		}
		m.clampCursor(m.rows())
		return m, nil

	case toggledMsg:
		m.busy = false
		m.clampCursor(m.rows())
		switch {
		case msg.err != nil:
			m.message = errorMessage(msg.err)
		case msg.celebrate:
			m.celebrateUntil = m.tracker.Now().Add(celebrationLength)
			m.celebrateDay = msg.day
			m.message = ""
		default:
			m.message = ""
		}
		return m, nil

	case mutatedMsg:
		m.busy = false
		m.clampCursor(m.rows())
		if msg.err != nil {
			m.message = errorMessage(msg.err)
		} else {
			m.message = msg.done
		}
		return m, nil

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		return m, nil

	case tea.KeyMsg:
		// Handle mode-specific input
		switch m.mode {
		case ModeAddHabit, ModeEditHabit:
			return m.updateForm(msg)
		case ModeConfirmRemove:
			return m.updateConfirm(msg)
		case ModeHelp:
			m.mode = ModeNormal
			return m, nil
		}

		// Normal mode key handling
		return m.handleNormalKeys(msg)
	}

	return m, nil
}

// refuse reports whether a new intent must be dropped because a request is in flight
func (m *Model) refuse() bool {
	if m.busy || m.tracker.Loading() {
		m.message = "Still working..."
		return true
	}
	return false
}

// handleNormalKeys handles key presses in normal mode
func (m Model) handleNormalKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, keys.Quit):
		return m, tea.Quit

	case key.Matches(msg, keys.Escape):
		if _, ok := m.tracker.Dragging(); ok {
			m.tracker.CancelDrag()
			m.message = "Move cancelled"
		}

	case key.Matches(msg, keys.Up):
		m.row = clamp(m.row-1, 0, len(m.tracker.Habits())-1)

	case key.Matches(msg, keys.Down):
		m.row = clamp(m.row+1, 0, len(m.tracker.Habits())-1)

	case key.Matches(msg, keys.Left):
		m.col = clamp(m.col-1, 0, daysInPivot(m.tracker)-1)

	case key.Matches(msg, keys.Right):
		m.col = clamp(m.col+1, 0, daysInPivot(m.tracker)-1)

	case key.Matches(msg, keys.PrevMonth):
		m.tracker.PrevMonth()
		m.clampCursor(m.rows())

	case key.Matches(msg, keys.NextMonth):
		m.tracker.NextMonth()
		m.clampCursor(m.rows())

	case key.Matches(msg, keys.Today):
		m.tracker.JumpToToday()
		m.col = m.tracker.Now().Day() - 1
		m.clampCursor(m.rows())

	case key.Matches(msg, keys.Toggle):
		return m.handleToggle()

	case key.Matches(msg, keys.Add):
		return m.startForm(ModeAddHabit, model.Habit{})

	case key.Matches(msg, keys.Edit):
		if h, ok := m.currentHabit(); ok {
			return m.startForm(ModeEditHabit, h)
		}

	case key.Matches(msg, keys.Remove):
		return m.handleRemove()

	case key.Matches(msg, keys.Move):
		return m.handleMove()

	case key.Matches(msg, keys.Refresh):
		if m.refuse() {
			return m, nil
		}
		m.busy = true
		m.message = ""
		return m, m.refreshCmd()

	case key.Matches(msg, keys.Help):
		m.mode = ModeHelp
	}

	return m, nil
}

func (m Model) handleToggle() (tea.Model, tea.Cmd) {
	row, cell, ok := m.currentCell()
	if !ok {
		return m, nil
	}
	if !cell.State.Toggleable() {
		m.message = "Can't mark a day in the future"
		return m, nil
	}
	if m.refuse() {
		return m, nil
	}
	m.busy = true
	m.message = ""
	logger.Debug("Toggling day",
		logger.F("habit", row.Habit.ID),
		logger.F("date", cell.Date.Format(time.DateOnly)))
	return m, m.toggleCmd(row.Habit.ID, cell.Date)
}

func (m Model) handleRemove() (tea.Model, tea.Cmd) {
	h, ok := m.currentHabit()
	if !ok {
		return m, nil
	}
	if m.opts.ConfirmRemove {
		m.mode = ModeConfirmRemove
		m.editingID = h.ID
		return m, nil
	}
	return m.remove(h.ID)
}

func (m Model) remove(id int64) (tea.Model, tea.Cmd) {
	if m.refuse() {
		return m, nil
	}
	h, _ := m.tracker.Habit(id)
	m.busy = true
	t := m.tracker
	return m, m.mutateCmd(fmt.Sprintf("Removed: %s", h.Name), func(ctx context.Context) error {
		return t.RemoveHabit(ctx, id)
	})
}

func (m Model) updateConfirm(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	m.mode = ModeNormal
	if key.Matches(msg, keys.Confirm) {
		return m.remove(m.editingID)
	}
	m.message = "Kept habit"
	return m, nil
}

// handleMove grabs the current habit, or drops the held one onto the current row
func (m Model) handleMove() (tea.Model, tea.Cmd) {
	h, ok := m.currentHabit()
	if !ok {
		return m, nil
	}

	held, dragging := m.tracker.Dragging()
	if !dragging {
		if m.tracker.DragStart(h.ID) {
			m.message = fmt.Sprintf("Moving %s: j/k to choose a spot, m to drop, esc to cancel", h.Name)
		}
		return m, nil
	}

	if m.refuse() {
		return m, nil
	}
	if held.ID == h.ID {
		m.tracker.CancelDrag()
		m.message = ""
		return m, nil
	}

	m.busy = true
	t := m.tracker
	target := h.ID
	return m, func() tea.Msg {
		ctx, cancel := m.opContext()
		defer cancel()
		moved, err := t.DragEnd(ctx, target, true)
		switch {
		case err != nil:
			return mutatedMsg{err: err}
		case !moved:
			return mutatedMsg{done: fmt.Sprintf("%s is no longer on the grid, nothing moved", held.Name)}
		}
		return mutatedMsg{done: fmt.Sprintf("Moved: %s", held.Name)}
	}
}

func (m Model) startForm(mode Mode, h model.Habit) (tea.Model, tea.Cmd) {
	m.mode = mode
	m.focus = fieldName
	m.formErr = ""
	m.editingID = h.ID

	name, colour := h.Name, h.Colour
	if mode == ModeAddHabit {
		name, colour = "", model.DefaultColour
	}
	m.inputs[fieldName].SetValue(name)
	m.inputs[fieldName].CursorEnd()
	m.inputs[fieldColour].SetValue(colour)
	m.inputs[fieldColour].CursorEnd()
	m.inputs[fieldName].Focus()
	m.inputs[fieldColour].Blur()
	return m, textinput.Blink
}

func (m Model) updateForm(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, keys.Escape):
		m.mode = ModeNormal
		return m, nil

	case key.Matches(msg, keys.Tab):
		m.inputs[m.focus].Blur()
		m.focus = (m.focus + 1) % len(m.inputs)
		m.inputs[m.focus].Focus()
		return m, textinput.Blink

	case key.Matches(msg, keys.Enter):
		return m.submitForm()
	}

	var cmd tea.Cmd
	m.inputs[m.focus], cmd = m.inputs[m.focus].Update(msg)
	return m, cmd
}

func (m Model) submitForm() (tea.Model, tea.Cmd) {
	form := model.HabitForm{
		Name:   m.inputs[fieldName].Value(),
		Colour: m.inputs[fieldColour].Value(),
	}
	if err := form.Validate(); err != nil {
		m.formErr = err.Error()
		return m, nil
	}
	if m.refuse() {
		return m, nil
	}

	t := m.tracker
	mode := m.mode
	id := m.editingID
	m.mode = ModeNormal
	m.busy = true

	name := strings.TrimSpace(form.Name)
	if mode == ModeEditHabit {
		return m, m.mutateCmd(fmt.Sprintf("Updated: %s", name), func(ctx context.Context) error {
			return t.EditHabit(ctx, id, form)
		})
	}
	return m, m.mutateCmd(fmt.Sprintf("Added: %s", name), func(ctx context.Context) error {
		_, err := t.CreateHabit(ctx, form)
		return err
	})
}

// errorMessage renders errors that do not come from the network; those are
// shown by the status bar from the tracker state
func errorMessage(err error) string {
	var verr *model.ValidationError
	switch {
	case errors.As(err, &verr):
		return verr.Error()
	case errors.Is(err, tracker.ErrFutureDay), errors.Is(err, tracker.ErrHabitNotFound):
		return err.Error()
	default:
		return ""
	}
}

// todayColumn returns the 0-based column of today, or -1 outside the pivot month
func todayColumn(t *tracker.Tracker) int {
	now := t.Now()
	p := t.Pivot()
	if !calendar.DatesMatch(calendar.MonthStart(now), p) {
		return -1
	}
	return now.Day() - 1
}
