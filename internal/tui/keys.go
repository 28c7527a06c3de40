package tui

import "github.com/charmbracelet/bubbles/key"

type keyMap struct {
	PrevWeek   key.Binding
	NextWeek   key.Binding
	Today      key.Binding
	ZoomIn     key.Binding
	ZoomOut    key.Binding
	Refresh    key.Binding
	Add        key.Binding
	Enter      key.Binding
	Escape     key.Binding
	Comment    key.Binding
	Issue      key.Binding
	Delete     key.Binding
	Up         key.Binding
	Down       key.Binding
	Left       key.Binding
	Right      key.Binding
	Shrink     key.Binding
	Grow       key.Binding
	Next       key.Binding
	ScrollUp   key.Binding
	ScrollDown key.Binding
	Quit       key.Binding
	ForceQuit  key.Binding
}

func defaultKeyMap() keyMap {
	return keyMap{
		PrevWeek:   key.NewBinding(key.WithKeys("["), key.WithHelp("[", "prev week")),
		NextWeek:   key.NewBinding(key.WithKeys("]"), key.WithHelp("]", "next week")),
		Today:      key.NewBinding(key.WithKeys("t"), key.WithHelp("t", "today")),
		ZoomIn:     key.NewBinding(key.WithKeys("+", "="), key.WithHelp("+", "zoom in")),
		ZoomOut:    key.NewBinding(key.WithKeys("-"), key.WithHelp("-", "zoom out")),
		Refresh:    key.NewBinding(key.WithKeys("r"), key.WithHelp("r", "refresh")),
		Add:        key.NewBinding(key.WithKeys("a"), key.WithHelp("a", "add")),
		Enter:      key.NewBinding(key.WithKeys("enter"), key.WithHelp("enter", "edit/save")),
		Escape:     key.NewBinding(key.WithKeys("esc"), key.WithHelp("esc", "close")),
		Comment:    key.NewBinding(key.WithKeys("c"), key.WithHelp("c", "comment")),
		Issue:      key.NewBinding(key.WithKeys("i"), key.WithHelp("i", "issue")),
		Delete:     key.NewBinding(key.WithKeys("d"), key.WithHelp("d", "delete")),
		Up:         key.NewBinding(key.WithKeys("up", "k"), key.WithHelp("↑/k", "earlier")),
		Down:       key.NewBinding(key.WithKeys("down", "j"), key.WithHelp("↓/j", "later")),
		Left:       key.NewBinding(key.WithKeys("left", "h"), key.WithHelp("←/h", "day before")),
		Right:      key.NewBinding(key.WithKeys("right", "l"), key.WithHelp("→/l", "day after")),
		Shrink:     key.NewBinding(key.WithKeys("shift+up", "K"), key.WithHelp("⇧↑", "shorter")),
		Grow:       key.NewBinding(key.WithKeys("shift+down", "J"), key.WithHelp("⇧↓", "longer")),
		Next:       key.NewBinding(key.WithKeys("tab"), key.WithHelp("tab", "select next")),
		ScrollUp:   key.NewBinding(key.WithKeys("pgup"), key.WithHelp("pgup", "scroll up")),
		ScrollDown: key.NewBinding(key.WithKeys("pgdown"), key.WithHelp("pgdn", "scroll down")),
		Quit:       key.NewBinding(key.WithKeys("q"), key.WithHelp("q", "quit")),
		ForceQuit:  key.NewBinding(key.WithKeys("ctrl+c")),
	}
}

// ShortHelp implements help.KeyMap.
func (k keyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.PrevWeek, k.NextWeek, k.Today, k.Add, k.Enter, k.Next, k.ZoomIn, k.ZoomOut, k.Refresh, k.Quit}
}

// FullHelp implements help.KeyMap.
func (k keyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{
		{k.PrevWeek, k.NextWeek, k.Today, k.Refresh},
		{k.Add, k.Enter, k.Escape, k.Comment, k.Issue, k.Delete},
		{k.Up, k.Down, k.Left, k.Right, k.Shrink, k.Grow},
		{k.Next, k.ZoomIn, k.ZoomOut, k.ScrollUp, k.ScrollDown, k.Quit},
	}
}

// editHelp is shown while a work log is open.
func (k keyMap) editHelp() []key.Binding {
	return []key.Binding{k.Enter, k.Escape, k.Up, k.Down, k.Left, k.Right, k.Shrink, k.Grow, k.Comment, k.Issue, k.Delete}
}
