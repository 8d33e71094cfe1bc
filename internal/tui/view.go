package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/existflow/habitgrid/internal/calendar"
	"github.com/existflow/habitgrid/internal/grid"
	"github.com/existflow/habitgrid/internal/tracker"
)

const nameWidth = 18

// View renders the UI
func (m Model) View() string {
	if m.width == 0 {
		return "Loading..."
	}

	mainContent := m.renderGrid()

	switch m.mode {
	case ModeAddHabit, ModeEditHabit:
		mainContent = m.place(m.renderForm())
	case ModeConfirmRemove:
		mainContent = m.place(m.renderConfirm())
	case ModeHelp:
		mainContent = m.renderHelp()
	}

	// Combine with status bar
	return lipgloss.JoinVertical(lipgloss.Left, mainContent, m.renderStatusBar())
}

func (m Model) place(modal string) string {
	return lipgloss.Place(
		m.width, m.height-2,
		lipgloss.Center, lipgloss.Center,
		modal,
		lipgloss.WithWhitespaceChars(" "),
	)
}

// cellWidth shrinks cells on narrow terminals
func (m Model) cellWidth(days int) int {
	if m.width >= nameWidth+days*3+16 {
		return 3
	}
	return 2
}

func (m Model) renderGrid() string {
	rows := m.rows()
	pivot := m.tracker.Pivot()
	days := calendar.DaysInMonth(pivot.Year(), pivot.Month(), pivot.Location())
	cw := m.cellWidth(len(days))
	today := todayColumn(m.tracker)
	held, dragging := m.tracker.Dragging()

	var b strings.Builder

	// Header
	title := lipgloss.NewStyle().Bold(true).Foreground(Primary).Render("HabitGrid")
	month := MonthStyle.Render(fmt.Sprintf("‹ %s ›", calendar.FormatMonth(pivot)))
	b.WriteString(title + "  " + month + "\n")
	b.WriteString(lipgloss.NewStyle().Foreground(Border).Render(strings.Repeat("─", nameWidth+len(days)*cw+12)) + "\n")

	// Day numbers
	b.WriteString(strings.Repeat(" ", nameWidth+2))
	for i, d := range days {
		label := padRight(fmt.Sprintf("%2d", d.Day()), cw)
		switch {
		case i == today:
			b.WriteString(TodayHeaderStyle.Render(label))
		case i == m.col:
			b.WriteString(lipgloss.NewStyle().Foreground(Text).Render(label))
		default:
			b.WriteString(DayHeaderStyle.Render(label))
		}
	}
	b.WriteString("\n")

	if len(rows) == 0 {
		b.WriteString("\n" + HelpStyle.Render("  No habits yet. Press 'a' to add one."))
		return GridStyle.Width(m.width).Height(m.height - 2).Render(b.String())
	}

	for i, r := range rows {
		b.WriteString(m.renderRow(i, r, cw, dragging && held.ID == r.Habit.ID))
		b.WriteString("\n")
	}

	return GridStyle.Width(m.width).Height(m.height - 2).Render(b.String())
}

func (m Model) renderRow(i int, r grid.Row, cw int, held bool) string {
	cursor := "  "
	nameStyle := HabitNameStyle
	if i == m.row {
		cursor = "❯ "
		nameStyle = HabitNameSelectedStyle
	}
	if held {
		cursor = "≡ "
		nameStyle = HabitDraggingStyle
	}

	swatch := SwatchStyle(r.Habit.Colour).Render("●")
	name := nameStyle.Render(padRight(truncate(r.Habit.Name, nameWidth-4), nameWidth-4))

	var cells strings.Builder
	for j, c := range r.Cells {
		text := cellText(c.State, cw)
		style := CellStyle(r.Habit.Colour, c)
		if i == m.row && j == m.col {
			style = style.Inherit(CursorCellStyle)
		}
		cells.WriteString(style.Render(text))
	}

	stats := StatsStyle.Render(fmt.Sprintf("✓%d  ×%d", r.CompletedCount(), r.BestCombo()))
	return cursor + swatch + name + cells.String() + stats
}

func (m Model) renderStatusBar() string {
	now := m.tracker.Now()
	var left string

	switch {
	case m.busy || m.tracker.Loading():
		left = LoadingStyle.Render("Loading...")
	case m.tracker.State() == tracker.Error:
		left = ErrorStyle.Render(fmt.Sprintf("Error: %v", m.tracker.Err())) + HelpStyle.Render("  r:retry")
	case m.celebrating(now):
		left = CelebrationStyle.Render(fmt.Sprintf("✦ ✧ ✦  Every habit done for %s!  ✦ ✧ ✦", m.celebrateDay.Format("Mon Jan 2")))
	case m.message != "":
		left = m.message
	default:
		left = "h/l:day  j/k:habit  space:toggle  a:add  e:edit  d:remove  m:move  [/]:month  ?:help  q:quit"
	}

	// Selected cell on the right
	right := ""
	if r, c, ok := m.currentCell(); ok {
		right = fmt.Sprintf("%s · %s", truncate(r.Habit.Name, 16), c.Date.Format("Jan 2"))
		if c.HasEntry {
			right += fmt.Sprintf(" · combo %d", c.Entry.Combo)
		}
	}

	if right != "" {
		avail := m.width - lipgloss.Width(left) - lipgloss.Width(right) - 2
		if avail > 0 {
			left += strings.Repeat(" ", avail) + HelpStyle.Render(right)
		}
	}

	return StatusBarStyle.Width(m.width).Render(left)
}

func (m Model) renderForm() string {
	title := "New Habit"
	if m.mode == ModeEditHabit {
		title = "Edit Habit"
	}

	content := lipgloss.NewStyle().Bold(true).Render(title) + "\n\n"
	content += "Name    " + m.inputs[fieldName].View() + "\n"
	content += "Colour  " + m.inputs[fieldColour].View()

	colour := strings.TrimSpace(m.inputs[fieldColour].Value())
	if colour != "" {
		content += "  " + SwatchStyle(colour).Render("██")
	}
	content += "\n\n"

	if m.formErr != "" {
		content += ErrorStyle.Render(m.formErr) + "\n\n"
	}
	content += HelpStyle.Render("Tab:next field  Enter:save  Esc:cancel")

	return ModalStyle.Render(content)
}

func (m Model) renderConfirm() string {
	h, _ := m.tracker.Habit(m.editingID)
	content := lipgloss.NewStyle().Bold(true).Render(fmt.Sprintf("Remove %q?", h.Name)) + "\n\n"
	content += HelpStyle.Render("Its history is kept on the server.") + "\n\n"
	content += HelpStyle.Render("y:remove  any other key:cancel")
	return ModalStyle.Render(content)
}

func (m Model) renderHelp() string {
	help := `
╭─── Keyboard Shortcuts ─────────╮
│                                │
│  Grid                          │
│  ────                          │
│  h/l ←/→   Previous/next day   │
│  j/k ↑/↓   Previous/next habit │
│  [ / ]     Previous/next month │
│  t         Back to today       │
│                                │
│  Actions                       │
│  ───────                       │
│  space/x   Toggle day          │
│  a         Add habit           │
│  e         Edit habit          │
│  d         Remove habit        │
│  m         Grab / drop habit   │
│  r         Refresh             │
│                                │
│  Other                         │
│  ─────                         │
│  ?         Toggle help         │
│  q         Quit                │
│                                │
╰────────────────────────────────╯

     Press any key to close
`
	return lipgloss.Place(m.width, m.height-2, lipgloss.Center, lipgloss.Center, help)
}
