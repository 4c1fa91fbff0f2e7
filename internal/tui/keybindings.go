package tui

import "github.com/charmbracelet/bubbles/key"

// KeyMap defines all key bindings for the TUI.
type KeyMap struct {
	Record  key.Binding
	Submit  key.Binding
	Discard key.Binding
	Next    key.Binding
	Restart key.Binding
	Play    key.Binding
	Up      key.Binding
	Down    key.Binding
	Help    key.Binding
	CtrlC   key.Binding
}

// DefaultKeyMap provides the default key bindings for the TUI.
var DefaultKeyMap = KeyMap{
	Record: key.NewBinding(
		key.WithKeys(" "),
		key.WithHelp("space", "start/stop recording"),
	),
	Submit: key.NewBinding(
		key.WithKeys("enter"),
		key.WithHelp("enter", "submit answer"),
	),
	Discard: key.NewBinding(
		key.WithKeys("d"),
		key.WithHelp("d", "discard take"),
	),
	Next: key.NewBinding(
		key.WithKeys("n"),
		key.WithHelp("n", "next question"),
	),
	Restart: key.NewBinding(
		key.WithKeys("r"),
		key.WithHelp("r", "restart"),
	),
	Play: key.NewBinding(
		key.WithKeys("p"),
		key.WithHelp("p", "play/stop feedback"),
	),
	Up: key.NewBinding(
		key.WithKeys("up", "k"),
		key.WithHelp("↑/k", "scroll up"),
	),
	Down: key.NewBinding(
		key.WithKeys("down", "j"),
		key.WithHelp("↓/j", "scroll down"),
	),
	Help: key.NewBinding(
		key.WithKeys("?"),
		key.WithHelp("?", "help"),
	),
	CtrlC: key.NewBinding(
		key.WithKeys("ctrl+c"),
		key.WithHelp("ctrl+c", "exit"),
	),
}

// ShortHelp implements help.KeyMap.
func (k KeyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.Record, k.Submit, k.Next, k.Play, k.Help}
}

// FullHelp implements help.KeyMap.
func (k KeyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{
		{k.Record, k.Submit, k.Discard},
		{k.Next, k.Restart, k.Play},
		{k.Up, k.Down, k.Help, k.CtrlC},
	}
}
