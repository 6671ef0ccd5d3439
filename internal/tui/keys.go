package tui

import "github.com/charmbracelet/bubbles/key"

type keyMap struct {
	Up     key.Binding
	Down   key.Binding
	Switch key.Binding
	Add    key.Binding
	Remove key.Binding
	Clear  key.Binding
	Run    key.Binding
	Check  key.Binding
	Locale key.Binding
	Help   key.Binding
	Quit   key.Binding
}

func defaultKeys(puzzle bool) keyMap {
	k := keyMap{
		Up:     key.NewBinding(key.WithKeys("up", "k"), key.WithHelp("↑/k", "up")),
		Down:   key.NewBinding(key.WithKeys("down", "j"), key.WithHelp("↓/j", "down")),
		Switch: key.NewBinding(key.WithKeys("tab"), key.WithHelp("tab", "palette/program")),
		Add:    key.NewBinding(key.WithKeys("enter"), key.WithHelp("enter", "add block")),
		Remove: key.NewBinding(key.WithKeys("backspace", "x"), key.WithHelp("x", "remove")),
		Clear:  key.NewBinding(key.WithKeys("c"), key.WithHelp("c", "clear")),
		Run:    key.NewBinding(key.WithKeys("r", " "), key.WithHelp("r", "run/stop")),
		Check:  key.NewBinding(key.WithKeys("v"), key.WithHelp("v", "check")),
		Locale: key.NewBinding(key.WithKeys("l"), key.WithHelp("l", "english/عربي")),
		Help:   key.NewBinding(key.WithKeys("?"), key.WithHelp("?", "more")),
		Quit:   key.NewBinding(key.WithKeys("q", "ctrl+c"), key.WithHelp("q", "quit")),
	}
	k.Check.SetEnabled(puzzle)
	return k
}

func (k keyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.Switch, k.Add, k.Run, k.Check, k.Help, k.Quit}
}

func (k keyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{
		{k.Up, k.Down, k.Switch},
		{k.Add, k.Remove, k.Clear},
		{k.Run, k.Check, k.Locale},
		{k.Help, k.Quit},
	}
}
