// SPDX-License-Identifier: MIT
package tui

import "github.com/charmbracelet/bubbles/key"

type listKeyMap struct {
	Up     key.Binding
	Down   key.Binding
	Select key.Binding
	Back   key.Binding
	Quit   key.Binding
}

var listKeys = listKeyMap{
	Up:     key.NewBinding(key.WithKeys("up", "k")),
	Down:   key.NewBinding(key.WithKeys("down", "j")),
	Select: key.NewBinding(key.WithKeys("enter")),
	Back:   key.NewBinding(key.WithKeys("esc")),
	Quit:   key.NewBinding(key.WithKeys("q", "ctrl+c")),
}

// monitorKeyMap implements help.KeyMap.
type monitorKeyMap struct {
	Up       key.Binding
	Down     key.Binding
	Increase key.Binding
	Decrease key.Binding
	Coarse   key.Binding
	CoarseDn key.Binding
	Reset    key.Binding
	Bypass   key.Binding
	Help     key.Binding
	Quit     key.Binding
}

var monitorKeys = monitorKeyMap{
	Up:       key.NewBinding(key.WithKeys("up", "k"), key.WithHelp("↑/k", "prev param")),
	Down:     key.NewBinding(key.WithKeys("down", "j"), key.WithHelp("↓/j", "next param")),
	Increase: key.NewBinding(key.WithKeys("right", "l"), key.WithHelp("→/l", "increase")),
	Decrease: key.NewBinding(key.WithKeys("left", "h"), key.WithHelp("←/h", "decrease")),
	Coarse:   key.NewBinding(key.WithKeys("pgup", "L"), key.WithHelp("pgup/L", "increase x10")),
	CoarseDn: key.NewBinding(key.WithKeys("pgdown", "H"), key.WithHelp("pgdn/H", "decrease x10")),
	Reset:    key.NewBinding(key.WithKeys("0"), key.WithHelp("0", "reset param")),
	Bypass:   key.NewBinding(key.WithKeys("b"), key.WithHelp("b", "bypass")),
	Help:     key.NewBinding(key.WithKeys("?"), key.WithHelp("?", "more keys")),
	Quit:     key.NewBinding(key.WithKeys("q", "ctrl+c"), key.WithHelp("q", "quit")),
}

func (k monitorKeyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.Up, k.Down, k.Decrease, k.Increase, k.Bypass, k.Help, k.Quit}
}

func (k monitorKeyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{
		{k.Up, k.Down, k.Reset},
		{k.Decrease, k.Increase, k.CoarseDn, k.Coarse},
		{k.Bypass, k.Help, k.Quit},
	}
}
