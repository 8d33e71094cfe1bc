package tui

import "github.com/charmbracelet/bubbles/key"

// keyMap defines all key bindings
type keyMap struct {
	Up        key.Binding
	Down      key.Binding
	Left      key.Binding
	Right     key.Binding
	Toggle    key.Binding
	Add       key.Binding
	Edit      key.Binding
	Remove    key.Binding
	PrevMonth key.Binding
	NextMonth key.Binding
	Today     key.Binding
	Move      key.Binding
	Refresh   key.Binding
	Help      key.Binding
	Quit      key.Binding
	Escape    key.Binding
	Enter     key.Binding
	Tab       key.Binding
	Confirm   key.Binding
}

var keys = keyMap{
	Up:        key.NewBinding(key.WithKeys("up", "k"), key.WithHelp("↑/k", "previous habit")),
	Down:      key.NewBinding(key.WithKeys("down", "j"), key.WithHelp("↓/j", "next habit")),
	Left:      key.NewBinding(key.WithKeys("left", "h"), key.WithHelp("←/h", "previous day")),
	Right:     key.NewBinding(key.WithKeys("right", "l"), key.WithHelp("→/l", "next day")),
	Toggle:    key.NewBinding(key.WithKeys(" ", "x", "enter"), key.WithHelp("space/x", "toggle day")),
	Add:       key.NewBinding(key.WithKeys("a"), key.WithHelp("a", "add habit")),
	Edit:      key.NewBinding(key.WithKeys("e"), key.WithHelp("e", "edit habit")),
	Remove:    key.NewBinding(key.WithKeys("d"), key.WithHelp("d", "remove habit")),
	PrevMonth: key.NewBinding(key.WithKeys("["), key.WithHelp("[", "previous month")),
	NextMonth: key.NewBinding(key.WithKeys("]"), key.WithHelp("]", "next month")),
	Today:     key.NewBinding(key.WithKeys("t"), key.WithHelp("t", "today")),
	Move:      key.NewBinding(key.WithKeys("m"), key.WithHelp("m", "grab/drop habit")),
	Refresh:   key.NewBinding(key.WithKeys("r", "R"), key.WithHelp("r", "refresh")),
	Help:      key.NewBinding(key.WithKeys("?"), key.WithHelp("?", "help")),
	Quit:      key.NewBinding(key.WithKeys("q", "ctrl+c"), key.WithHelp("q", "quit")),
	Escape:    key.NewBinding(key.WithKeys("esc"), key.WithHelp("esc", "cancel")),
	Enter:     key.NewBinding(key.WithKeys("enter"), key.WithHelp("enter", "save")),
	Tab:       key.NewBinding(key.WithKeys("tab", "shift+tab"), key.WithHelp("tab", "next field")),
	Confirm:   key.NewBinding(key.WithKeys("y", "Y"), key.WithHelp("y", "confirm")),
}
