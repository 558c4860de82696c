package screen

import (
	"fmt"
	"io"

	"github.com/charmbracelet/bubbles/list"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/Makepad-fr/amped/internal/model"
	"github.com/Makepad-fr/amped/internal/ui"
)

// listItem adapts model.Item to bubbles/list.Item
type listItem struct {
	todo model.Item
}

func (i listItem) Title() string       { return i.todo.Name }
func (i listItem) Description() string { return i.todo.Description }
func (i listItem) FilterValue() string { return i.todo.Name + " " + i.todo.Description }

func toListItems(items []model.Item) []list.Item {
	out := make([]list.Item, 0, len(items))
	for _, it := range items {
		out = append(out, listItem{todo: it})
	}
	return out
}

// Two lines per todo: name, then description.
type itemDelegate struct{}

func (d itemDelegate) Height() int                               { return 2 }
func (d itemDelegate) Spacing() int                              { return 1 }
func (d itemDelegate) Update(msg tea.Msg, m *list.Model) tea.Cmd { return nil }
func (d itemDelegate) Render(w io.Writer, m list.Model, index int, item list.Item) {
	it, ok := item.(listItem)
	if !ok {
		return
	}
	t := ui.Current()
	width := m.Width() - 4
	if width < 10 {
		width = 10
	}

	prefix := "  "
	name := t.Title.Render(ui.Truncate(it.todo.Name, width))
	if index == m.Index() {
		prefix = t.Selected.Render(t.SymCursor) + " "
	}
	desc := t.Muted.Render(ui.Truncate(it.todo.Description, width))
	if it.todo.ID == "" {
		// not saved yet
		desc += " " + t.Warn.Render("(saving)")
	}
	fmt.Fprintf(w, "%s%s\n  %s", prefix, name, desc)
}
