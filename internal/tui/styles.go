package tui

import (
	"github.com/charmbracelet/lipgloss"

	"github.com/existflow/habitgrid/internal/grid"
)

// backgroundHex is what completed cells are blended against
const backgroundHex = "#1a1a2e"

// Color palette based on TUI design
var (
	// Status colors
	StatusOK      = lipgloss.Color("#95E1A3") // Green
	StatusLoading = lipgloss.Color("#FFE66D") // Yellow
	StatusError   = lipgloss.Color("#FF6B6B") // Red
	Celebrate     = lipgloss.Color("#FFB347") // Orange

	// UI colors
	Primary    = lipgloss.Color("#4ECDC4")
	Secondary  = lipgloss.Color("#6C757D")
	Background = lipgloss.Color(backgroundHex)
	Surface    = lipgloss.Color("#16213e")
	Text       = lipgloss.Color("#FFFFFF")
	TextMuted  = lipgloss.Color("#888888")
	Border     = lipgloss.Color("#333333")
	Highlight  = lipgloss.Color("#4ECDC4")
)

// Styles
var (
	// Header
	HeaderStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(Primary).
			Padding(0, 1)

	MonthStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(Text)

	// Grid
	GridStyle = lipgloss.NewStyle().
			Padding(1, 2)

	DayHeaderStyle = lipgloss.NewStyle().
			Foreground(TextMuted)

	TodayHeaderStyle = lipgloss.NewStyle().
				Foreground(Primary).
				Bold(true)

	HabitNameStyle = lipgloss.NewStyle().
			Padding(0, 1)

	HabitNameSelectedStyle = lipgloss.NewStyle().
				Padding(0, 1).
				Background(Surface).
				Bold(true)

	HabitDraggingStyle = lipgloss.NewStyle().
				Padding(0, 1).
				Foreground(Celebrate).
				Bold(true)

	PastCellStyle   = lipgloss.NewStyle().Foreground(Border)
	FutureCellStyle = lipgloss.NewStyle().Foreground(Surface)
	CursorCellStyle = lipgloss.NewStyle().Reverse(true)

	StatsStyle = lipgloss.NewStyle().
			Foreground(TextMuted).
			Padding(0, 1)

	// Status bar
	StatusBarStyle = lipgloss.NewStyle().
			Foreground(TextMuted).
			Padding(0, 1).
			BorderStyle(lipgloss.NormalBorder()).
			BorderTop(true).
			BorderForeground(Border)

	ErrorStyle       = lipgloss.NewStyle().Foreground(StatusError).Bold(true)
	LoadingStyle     = lipgloss.NewStyle().Foreground(StatusLoading)
	CelebrationStyle = lipgloss.NewStyle().Foreground(Celebrate).Bold(true)

	// Input modal
	ModalStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(Primary).
			Padding(1, 2)

	// Help text
	HelpStyle = lipgloss.NewStyle().
			Foreground(TextMuted)
)

// cellText returns the glyphs for a cell of the given width
func cellText(state grid.CellState, width int) string {
	switch state {
	case grid.Completed:
		return padRight("██", width)
	case grid.TodayIncomplete:
		return padRight("[]", width)
	case grid.Future:
		return padRight("  ", width)
	default:
		return padRight("··", width)
	}
}

// CellStyle renders a cell in the habit's colour, faded by its streak opacity
func CellStyle(habitColour string, cell grid.Cell) lipgloss.Style {
	switch cell.State {
	case grid.Completed:
		return lipgloss.NewStyle().Foreground(lipgloss.Color(grid.CellColour(habitColour, cell.Opacity, backgroundHex)))
	case grid.TodayIncomplete:
		return lipgloss.NewStyle().Foreground(lipgloss.Color(habitColour)).Bold(true)
	case grid.Future:
		return FutureCellStyle
	default:
		return PastCellStyle
	}
}

// SwatchStyle shows a habit's colour next to its name
func SwatchStyle(colour string) lipgloss.Style {
	return lipgloss.NewStyle().Foreground(lipgloss.Color(colour))
}
