package screen

import "github.com/charmbracelet/bubbles/key"

type keyMap struct {
	Next     key.Binding
	Prev     key.Binding
	Submit   key.Binding
	Register key.Binding
	Delete   key.Binding
	SignOut  key.Binding
	Quit     key.Binding
}

var keys = keyMap{
	Next:     key.NewBinding(key.WithKeys("tab"), key.WithHelp("tab", "next field")),
	Prev:     key.NewBinding(key.WithKeys("shift+tab"), key.WithHelp("shift+tab", "prev field")),
	Submit:   key.NewBinding(key.WithKeys("enter"), key.WithHelp("enter", "submit")),
	Register: key.NewBinding(key.WithKeys("ctrl+n"), key.WithHelp("ctrl+n", "register")),
	Delete:   key.NewBinding(key.WithKeys("d", "x", "delete"), key.WithHelp("d", "delete")),
	SignOut:  key.NewBinding(key.WithKeys("ctrl+o"), key.WithHelp("ctrl+o", "sign out")),
	Quit:     key.NewBinding(key.WithKeys("esc", "ctrl+c"), key.WithHelp("esc", "quit")),
}

func (k keyMap) listHelp() []key.Binding {
	return []key.Binding{k.Next, k.Delete, k.SignOut}
}
