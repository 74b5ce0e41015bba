package statsui

import "github.com/charmbracelet/bubbles/key"

type keyMap struct {
	PrevDay  key.Binding
	NextDay  key.Binding
	PrevWeek key.Binding
	NextWeek key.Binding
	Tab      key.Binding
	Mark     key.Binding
	Clear    key.Binding
	Reload   key.Binding
	Older    key.Binding
	Newer    key.Binding
	Help     key.Binding
	Quit     key.Binding
}

func defaultKeyMap() keyMap {
	return keyMap{
		PrevDay:  key.NewBinding(key.WithKeys("k", "up"), key.WithHelp("k/↑", "prev day")),
		NextDay:  key.NewBinding(key.WithKeys("j", "down"), key.WithHelp("j/↓", "next day")),
		PrevWeek: key.NewBinding(key.WithKeys("h", "left"), key.WithHelp("h/←", "prev week")),
		NextWeek: key.NewBinding(key.WithKeys("l", "right"), key.WithHelp("l/→", "next week")),
		Tab:      key.NewBinding(key.WithKeys("tab"), key.WithHelp("tab", "reviews/lessons")),
		Mark:     key.NewBinding(key.WithKeys(" ", "v"), key.WithHelp("space", "mark range")),
		Clear:    key.NewBinding(key.WithKeys("esc"), key.WithHelp("esc", "clear mark")),
		Reload:   key.NewBinding(key.WithKeys("r"), key.WithHelp("r", "reload")),
		Older:    key.NewBinding(key.WithKeys("["), key.WithHelp("[", "more years")),
		Newer:    key.NewBinding(key.WithKeys("]"), key.WithHelp("]", "fewer years")),
		Help:     key.NewBinding(key.WithKeys("?"), key.WithHelp("?", "help")),
		Quit:     key.NewBinding(key.WithKeys("q", "ctrl+c"), key.WithHelp("q", "quit")),
	}
}

// ShortHelp implements help.KeyMap.
func (k keyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.PrevWeek, k.NextWeek, k.Tab, k.Mark, k.Reload, k.Help, k.Quit}
}

// FullHelp implements help.KeyMap.
func (k keyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{
		{k.PrevDay, k.NextDay, k.PrevWeek, k.NextWeek},
		{k.Tab, k.Mark, k.Clear},
		{k.Reload, k.Older, k.Newer},
		{k.Help, k.Quit},
	}
}
