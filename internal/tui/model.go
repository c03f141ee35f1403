// Package tui is the terminal view of the user table: a two-field form above a table
// of users, driven by a usertable.State.
package tui

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/charmbracelet/bubbles/cursor"
	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/table"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"user-table/internal/usertable"
)

type focus int

const (
	focusFirstName focus = iota
	focusEmail
	focusTable
	focusCount
)

const formHint = "First name and a valid email are required"

// Model is the bubbletea model of the user table. API calls run as commands and come
// back as usertable.Outcome messages.
type Model struct {
	ctx    context.Context
	cancel context.CancelFunc
	svc    *usertable.Service

	state   usertable.State
	inputs  [2]textinput.Model // firstName, email
	focus   focus
	table   table.Model
	spinner spinner.Model
	pending int
	hint    string
	closed  bool

	width  int
	height int
}

// New creates the model. Calls are bound to ctx; quitting cancels them.
func New(ctx context.Context, svc *usertable.Service) Model {
	ctx, cancel := context.WithCancel(ctx)

	s := spinner.New()
	s.Spinner = spinner.Dot
	s.Style = styleSpinner

	placeholders := [2]string{"First name", "Email"}
	var inputs [2]textinput.Model
	for i := range inputs {
		ti := textinput.New()
		ti.Placeholder = placeholders[i]
		ti.CharLimit = 100
		ti.Prompt = ""
		ti.Cursor.SetMode(cursor.CursorStatic)
		inputs[i] = ti
	}
	inputs[focusFirstName].Focus()

	t := table.New(
		table.WithColumns([]table.Column{
			{Title: "ID", Width: 6},
			{Title: "First name", Width: 20},
			{Title: "Email", Width: 32},
		}),
		table.WithHeight(10),
	)
	st := table.DefaultStyles()
	st.Header = st.Header.
		BorderStyle(lipgloss.NormalBorder()).
		BorderForeground(lipgloss.Color("240")).
		BorderBottom(true).
		Bold(true)
	st.Selected = st.Selected.
		Foreground(lipgloss.Color("255")).
		Background(lipgloss.Color("236")).
		Bold(false)
	t.SetStyles(st)

	state := usertable.NewState()
	state.Mounted = true

	return Model{
		ctx:     ctx,
		cancel:  cancel,
		svc:     svc,
		state:   state,
		inputs:  inputs,
		table:   t,
		spinner: s,
		pending: 1, // the fetch issued by Init
	}
}

// State returns the current view-model.
func (m Model) State() usertable.State {
	return m.state
}

// Closed reports whether the view has been torn down.
func (m Model) Closed() bool {
	return m.closed
}

// Init fetches the user list once.
func (m Model) Init() tea.Cmd {
	return tea.Batch(m.call(func(ctx context.Context) usertable.Outcome {
		return m.svc.Fetch(ctx)
	}), m.spinner.Tick)
}

// Update handles a message.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case usertable.Outcome:
		if m.closed {
			return m, nil
		}
		m.pending--
		m.state = m.state.Apply(msg)
		m.syncInputs()
		m.syncRows()
		return m, nil

	case spinner.TickMsg:
		if m.pending <= 0 {
			return m, nil
		}
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd

	case tea.WindowSizeMsg:
		m.width, m.height = msg.Width, msg.Height
		if h := m.height - 12; h >= 3 {
			m.table.SetHeight(h)
		}
		return m, nil

	case tea.KeyMsg:
		return m.handleKey(msg)
	}

	return m, nil
}

func (m Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "ctrl+c":
		return m.quit()
	case "tab":
		m.setFocus((m.focus + 1) % focusCount)
		return m, nil
	case "shift+tab":
		m.setFocus((m.focus + focusCount - 1) % focusCount)
		return m, nil
	}

	if m.focus == focusTable {
		switch msg.String() {
		case "q":
			return m.quit()
		case "e":
			if id, ok := m.selectedID(); ok {
				if next, found := m.state.Edit(id); found {
					m.state = next
					m.hint = ""
					m.syncInputs()
					m.setFocus(focusFirstName)
				}
			}
			return m, nil
		case "d":
			id, ok := m.selectedID()
			if !ok {
				return m, nil
			}
			return m.startCall(func(ctx context.Context) usertable.Outcome {
				return m.svc.Delete(ctx, id)
			})
		}
		var cmd tea.Cmd
		m.table, cmd = m.table.Update(msg)
		return m, cmd
	}

	if msg.String() == "enter" {
		if err := m.state.Form.Validate(); err != nil {
			m.hint = formHint
			return m, nil
		}
		m.hint = ""
		st := m.state
		return m.startCall(func(ctx context.Context) usertable.Outcome {
			return m.svc.Submit(ctx, st)
		})
	}

	var cmd tea.Cmd
	i := int(m.focus)
	m.inputs[i], cmd = m.inputs[i].Update(msg)
	name := usertable.FieldFirstName
	if m.focus == focusEmail {
		name = usertable.FieldEmail
	}
	if next, err := m.state.WithField(name, m.inputs[i].Value()); err == nil {
		m.state = next
	}
	return m, cmd
}

func (m Model) quit() (tea.Model, tea.Cmd) {
	m.closed = true
	m.cancel()
	return m, tea.Quit
}

// startCall runs fn as a command and starts the spinner when it is idle.
func (m Model) startCall(fn func(ctx context.Context) usertable.Outcome) (tea.Model, tea.Cmd) {
	m.pending++
	cmd := m.call(fn)
	if m.pending == 1 {
		cmd = tea.Batch(cmd, m.spinner.Tick)
	}
	return m, cmd
}

func (m Model) call(fn func(ctx context.Context) usertable.Outcome) tea.Cmd {
	ctx := m.ctx
	return func() tea.Msg { return fn(ctx) }
}

func (m *Model) setFocus(f focus) {
	m.focus = f
	for i := range m.inputs {
		if focus(i) == f {
			m.inputs[i].Focus()
		} else {
			m.inputs[i].Blur()
		}
	}
	if f == focusTable {
		m.table.Focus()
	} else {
		m.table.Blur()
	}
}

func (m *Model) syncInputs() {
	if m.inputs[focusFirstName].Value() != m.state.Form.FirstName {
		m.inputs[focusFirstName].SetValue(m.state.Form.FirstName)
	}
	if m.inputs[focusEmail].Value() != m.state.Form.Email {
		m.inputs[focusEmail].SetValue(m.state.Form.Email)
	}
}

func (m *Model) syncRows() {
	rows := make([]table.Row, len(m.state.Users))
	for i, u := range m.state.Users {
		rows[i] = table.Row{strconv.FormatInt(u.ID, 10), u.FirstName, u.Email}
	}
	m.table.SetRows(rows)
	if c := m.table.Cursor(); c >= len(rows) && len(rows) > 0 {
		m.table.SetCursor(len(rows) - 1)
	}
}

func (m Model) selectedID() (int64, bool) {
	c := m.table.Cursor()
	if c < 0 || c >= len(m.state.Users) {
		return 0, false
	}
	return m.state.Users[c].ID, true
}

// View renders the form and the table.
func (m Model) View() string {
	if m.closed {
		return ""
	}

	title := styleTitle.Render(fmt.Sprintf("Users (%d)", len(m.state.Users)))
	if m.pending > 0 {
		title += " " + m.spinner.View()
	}

	labels := [2]string{"First name:", "Email:"}
	lines := []string{title, ""}
	for i, in := range m.inputs {
		label := fmt.Sprintf("%-12s", labels[i])
		if focus(i) == m.focus {
			label = styleFocused.Render(label)
		} else {
			label = styleLabel.Render(label)
		}
		lines = append(lines, label+in.View())
	}
	button := styleButton.Render(m.state.SubmitLabel())
	if m.hint != "" {
		button += "  " + styleHint.Render(m.hint)
	}
	lines = append(lines, "", button, "", m.table.View(), "")
	lines = append(lines, styleHelp.Render("[tab] next field   [enter] "+strings.ToLower(m.state.SubmitLabel())+
		"   [e] edit   [d] delete   [q] quit"))

	return stylePage.Render(strings.Join(lines, "\n"))
}
