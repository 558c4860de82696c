package screen

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/list"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/Makepad-fr/amped/internal/auth"
	"github.com/Makepad-fr/amped/internal/store/liststore"
	"github.com/Makepad-fr/amped/internal/ui"
)

type mode int

const (
	modeGate mode = iota
	modeList
)

// gate fields
const (
	fieldEmail = iota
	fieldPassword
)

// list view fields
const (
	fieldName = iota
	fieldDescription
	fieldList
	fieldCount
)

// lines used by everything around the list in the list view
const chromeHeight = 14

type (
	todosChangedMsg struct{}
	startedMsg      struct{ err error }
	signedInMsg     struct {
		session *auth.Session
		err     error
	}
	signedOutMsg struct{ err error }
	createdMsg   struct{ err error }
	deletedMsg   struct{ err error }
)

// Model is the Bubble Tea model for the whole screen: the sign-in gate and
// the todo list behind it.
type Model struct {
	ctx     context.Context
	ctrl    *Controller
	gate    Gate
	store   *liststore.Store
	changes <-chan struct{}

	mode    mode
	session *auth.Session
	focus   int

	email, password   textinput.Model
	name, description textinput.Model
	list              list.Model

	status    string
	statusErr bool
	width     int
	height    int
}

// NewModel builds the screen. changes should come from store.Watch so list
// updates made outside the UI goroutine reach the view.
func NewModel(ctx context.Context, ctrl *Controller, gate Gate, store *liststore.Store, changes <-chan struct{}) Model {
	m := Model{
		ctx:     ctx,
		ctrl:    ctrl,
		gate:    gate,
		store:   store,
		changes: changes,
		width:   80,
		height:  30,
	}

	m.email = newInput("Email", 254)
	m.password = newInput("Password", 128)
	m.password.EchoMode = textinput.EchoPassword
	m.password.EchoCharacter = '•'
	m.name = newInput("Name", 200)
	m.description = newInput("Description", 500)

	l := list.New(toListItems(store.Todos()), itemDelegate{}, m.width-4, m.height-chromeHeight)
	l.Title = todosTitle(len(l.Items()))
	l.Styles.Title = ui.Current().Title
	l.SetShowStatusBar(false)
	l.SetFilteringEnabled(true)
	l.FilterInput.Prompt = "/ "
	l.SetStatusBarItemName("todo", "todos")
	l.AdditionalShortHelpKeys = keys.listHelp
	l.AdditionalFullHelpKeys = keys.listHelp
	m.list = l

	s, err := gate.Require()
	switch {
	case err == nil:
		m.session = s
		m.mode = modeList
		m.focus = fieldName
	case errors.Is(err, auth.ErrNotSignedIn):
		m.mode = modeGate
	case errors.Is(err, auth.ErrSessionExpired):
		m.mode = modeGate
		m.setStatus("session expired, sign in again", false)
	default:
		m.mode = modeGate
		m.setStatus(err.Error(), true)
	}
	m.applyFocus()
	return m
}

func newInput(placeholder string, limit int) textinput.Model {
	ti := textinput.New()
	ti.Prompt = "> "
	ti.Placeholder = placeholder
	ti.CharLimit = limit
	return ti
}

func todosTitle(n int) string {
	return fmt.Sprintf("Todos (%d)", n)
}

func (m Model) Init() tea.Cmd {
	cmds := []tea.Cmd{textinput.Blink, waitForChange(m.changes)}
	if m.mode == modeList {
		cmds = append(cmds, m.startCmd())
	}
	return tea.Batch(cmds...)
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width, m.height = msg.Width, msg.Height
		m.resize()
		return m, nil

	case todosChangedMsg:
		items := toListItems(m.store.Todos())
		m.list.Title = todosTitle(len(items))
		cmd := m.list.SetItems(items)
		return m, tea.Batch(cmd, waitForChange(m.changes))

	case startedMsg:
		if msg.err != nil {
			m.setStatus(msg.err.Error(), true)
		}
		return m, nil

	case signedInMsg:
		if msg.err != nil {
			m.setStatus(msg.err.Error(), true)
			return m, nil
		}
		m.session = msg.session
		m.mode = modeList
		m.focus = fieldName
		m.email.SetValue("")
		m.password.SetValue("")
		m.setStatus("", false)
		cmd := tea.Batch(m.applyFocus(), m.startCmd())
		return m, cmd

	case signedOutMsg:
		if msg.err != nil {
			m.setStatus(msg.err.Error(), !errors.Is(msg.err, ErrEnvSession))
			return m, nil
		}
		m.session = nil
		m.mode = modeGate
		m.focus = fieldEmail
		m.name.SetValue("")
		m.description.SetValue("")
		m.setStatus("signed out", false)
		cmd := m.applyFocus()
		return m, cmd

	case createdMsg:
		if msg.err != nil {
			m.setStatus(msg.err.Error(), true)
		}
		return m, nil

	case deletedMsg:
		if msg.err != nil {
			m.setStatus(msg.err.Error(), true)
		}
		return m, nil

	case tea.KeyMsg:
		if msg.String() == "ctrl+c" {
			return m, tea.Quit
		}
		if key.Matches(msg, keys.Quit) && !m.filtering() {
			return m, tea.Quit
		}
		if m.mode == modeGate {
			return m.updateGate(msg)
		}
		return m.updateList(msg)
	}
	return m.updateFocused(msg)
}

func (m Model) updateGate(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, keys.Next), key.Matches(msg, keys.Prev):
		m.focus = 1 - m.focus
		cmd := m.applyFocus()
		return m, cmd
	case key.Matches(msg, keys.Submit):
		if m.focus == fieldEmail {
			m.focus = fieldPassword
			cmd := m.applyFocus()
			return m, cmd
		}
		m.setStatus("signing in...", false)
		return m, m.signInCmd(false)
	case key.Matches(msg, keys.Register):
		m.setStatus("creating account...", false)
		return m, m.signInCmd(true)
	}
	return m.updateFocused(msg)
}

func (m Model) updateList(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, keys.SignOut):
		m.setStatus("signing out...", false)
		return m, m.signOutCmd()
	case m.filtering():
		// keys belong to the list filter
	case key.Matches(msg, keys.Next):
		m.focus = (m.focus + 1) % fieldCount
		cmd := m.applyFocus()
		return m, cmd
	case key.Matches(msg, keys.Prev):
		m.focus = (m.focus + fieldCount - 1) % fieldCount
		cmd := m.applyFocus()
		return m, cmd
	case m.focus != fieldList && key.Matches(msg, keys.Submit):
		form := FormState{Name: m.name.Value(), Description: m.description.Value()}
		if _, err := form.Validate(); err != nil {
			return m, nil
		}
		m.name.SetValue("")
		m.description.SetValue("")
		m.focus = fieldName
		m.setStatus("", false)
		cmd := tea.Batch(m.applyFocus(), m.createCmd(form))
		return m, cmd
	case m.focus == fieldList && key.Matches(msg, keys.Delete):
		it, ok := m.list.SelectedItem().(listItem)
		if !ok {
			return m, nil
		}
		if it.todo.ID == "" {
			m.setStatus("still saving, try again in a moment", false)
			return m, nil
		}
		return m, m.deleteCmd(it.todo.ID)
	}
	return m.updateFocused(msg)
}

// updateFocused hands msg to whichever widget has focus.
func (m Model) updateFocused(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmd tea.Cmd
	switch {
	case m.mode == modeGate && m.focus == fieldEmail:
		m.email, cmd = m.email.Update(msg)
	case m.mode == modeGate:
		m.password, cmd = m.password.Update(msg)
	case m.focus == fieldName:
		m.name, cmd = m.name.Update(msg)
	case m.focus == fieldDescription:
		m.description, cmd = m.description.Update(msg)
	default:
		m.list, cmd = m.list.Update(msg)
	}
	return m, cmd
}

func (m *Model) applyFocus() tea.Cmd {
	m.email.Blur()
	m.password.Blur()
	m.name.Blur()
	m.description.Blur()
	switch {
	case m.mode == modeGate && m.focus == fieldEmail:
		return m.email.Focus()
	case m.mode == modeGate:
		return m.password.Focus()
	case m.focus == fieldName:
		return m.name.Focus()
	case m.focus == fieldDescription:
		return m.description.Focus()
	}
	return nil
}

func (m *Model) setStatus(text string, isErr bool) {
	m.status, m.statusErr = text, isErr
}

func (m Model) filtering() bool {
	return m.mode == modeList && m.focus == fieldList && m.list.FilterState() == list.Filtering
}

func (m *Model) resize() {
	h := m.height - chromeHeight
	if h < 4 {
		h = 4
	}
	w := m.width - 4
	if w < 20 {
		w = 20
	}
	m.list.SetSize(w, h)
	m.name.Width = w - 4
	m.description.Width = w - 4
}

// -------------- commands ----------------

func waitForChange(ch <-chan struct{}) tea.Cmd {
	if ch == nil {
		return nil
	}
	return func() tea.Msg {
		if _, ok := <-ch; !ok {
			return nil
		}
		return todosChangedMsg{}
	}
}

func (m Model) startCmd() tea.Cmd {
	ctrl, ctx := m.ctrl, m.ctx
	return func() tea.Msg { return startedMsg{err: ctrl.Start(ctx)} }
}

func (m Model) createCmd(f FormState) tea.Cmd {
	ctrl, ctx := m.ctrl, m.ctx
	return func() tea.Msg { return createdMsg{err: ctrl.Submit(ctx, f)} }
}

func (m Model) deleteCmd(id string) tea.Cmd {
	ctrl, ctx := m.ctrl, m.ctx
	return func() tea.Msg { return deletedMsg{err: ctrl.Delete(ctx, id)} }
}

func (m Model) signOutCmd() tea.Cmd {
	ctrl, ctx := m.ctrl, m.ctx
	return func() tea.Msg { return signedOutMsg{err: ctrl.SignOut(ctx)} }
}

func (m Model) signInCmd(register bool) tea.Cmd {
	gate := m.gate
	email, password := m.email.Value(), m.password.Value()
	return func() tea.Msg {
		if register {
			if err := gate.Register(email, password); err != nil {
				return signedInMsg{err: fmt.Errorf("register: %w", err)}
			}
		}
		s, err := gate.SignIn(email, password)
		if err != nil {
			return signedInMsg{err: fmt.Errorf("sign in: %w", err)}
		}
		return signedInMsg{session: s}
	}
}

// -------------- view ----------------

func (m Model) View() string {
	t := ui.Current()
	var lines []string
	lines = append(lines, t.Header.Render("Amped"), "")

	if m.mode == modeGate {
		lines = append(lines,
			t.Title.Render("Sign in"),
			m.email.View(),
			m.password.View(),
			"",
			t.Muted.Render("enter sign in • ctrl+n register • tab switch field • esc quit"),
		)
	} else {
		lines = append(lines,
			t.Accent.Render(fmt.Sprintf("Hello, %s!", m.session.Label()))+" "+t.Muted.Render("ctrl+o to sign out"),
			"",
			m.name.View(),
			m.description.View(),
			t.Muted.Render("enter create todo • tab next field"),
			t.Muted.Render(strings.Repeat("─", max(m.width-6, 10))),
			m.list.View(),
		)
	}

	if m.status != "" {
		style := t.Muted
		if m.statusErr {
			style = t.Error
		}
		lines = append(lines, "", style.Render(m.status))
	}
	return ui.PanelString(lines)
}
