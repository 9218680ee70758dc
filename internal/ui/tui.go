// Package ui is the interactive terminal client.
package ui

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/ytakahashi/todo-app/internal/controller"
)

type mode int

const (
	modeList mode = iota
	modeAdding
	modeEditing
)

// resultMsg carries the outcome of a controller call run as a tea.Cmd.
type resultMsg struct {
	op  string
	err error
}

type keyMap struct {
	Up, Down, Toggle, Select, SelectAll key.Binding
	Delete, DeleteSelected, Edit, Add   key.Binding
	Reload, Quit                        key.Binding
}

var keys = keyMap{
	Up:             key.NewBinding(key.WithKeys("up", "k"), key.WithHelp("↑/k", "up")),
	Down:           key.NewBinding(key.WithKeys("down", "j"), key.WithHelp("↓/j", "down")),
	Toggle:         key.NewBinding(key.WithKeys(" "), key.WithHelp("space", "done")),
	Select:         key.NewBinding(key.WithKeys("x"), key.WithHelp("x", "select")),
	SelectAll:      key.NewBinding(key.WithKeys("A"), key.WithHelp("A", "all")),
	Delete:         key.NewBinding(key.WithKeys("d"), key.WithHelp("d", "delete")),
	DeleteSelected: key.NewBinding(key.WithKeys("D"), key.WithHelp("D", "delete selected")),
	Edit:           key.NewBinding(key.WithKeys("e"), key.WithHelp("e", "edit")),
	Add:            key.NewBinding(key.WithKeys("a"), key.WithHelp("a", "add")),
	Reload:         key.NewBinding(key.WithKeys("r"), key.WithHelp("r", "reload")),
	Quit:           key.NewBinding(key.WithKeys("q", "ctrl+c"), key.WithHelp("q", "quit")),
}

func (k keyMap) help() string {
	bindings := []key.Binding{k.Toggle, k.Select, k.SelectAll, k.Add, k.Edit, k.Delete, k.DeleteSelected, k.Reload, k.Quit}
	parts := make([]string, 0, len(bindings))
	for _, b := range bindings {
		h := b.Help()
		parts = append(parts, h.Key+" "+h.Desc)
	}
	return strings.Join(parts, " • ")
}

type Model struct {
	ctx    context.Context
	ctrl   *controller.Controller
	cursor int
	mode   mode
	input  textinput.Model

	notice    string
	noticeErr bool
	width     int
}

func New(ctx context.Context, ctrl *controller.Controller) Model {
	ti := textinput.New()
	ti.Prompt = "> "
	ti.CharLimit = 200

	return Model{
		ctx:   ctx,
		ctrl:  ctrl,
		input: ti,
		width: 80,
	}
}

// Run starts the program and blocks until the user quits.
func Run(ctx context.Context, ctrl *controller.Controller) error {
	p := tea.NewProgram(New(ctx, ctrl), tea.WithAltScreen(), tea.WithContext(ctx))
	_, err := p.Run()
	return err
}

func (m Model) Init() tea.Cmd {
	return m.run("load", m.ctrl.Load)
}

func (m Model) run(op string, fn func(context.Context) error) tea.Cmd {
	ctx := m.ctx
	return func() tea.Msg {
		return resultMsg{op: op, err: fn(ctx)}
	}
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		return m, nil

	case resultMsg:
		return m.handleResult(msg), nil

	case tea.KeyMsg:
		switch m.mode {
		case modeAdding:
			return m.updateAdding(msg)
		case modeEditing:
			return m.updateEditing(msg)
		}
		return m.updateList(msg)
	}
	return m, nil
}

func (m Model) handleResult(msg resultMsg) Model {
	m.clampCursor()
	switch {
	case errors.Is(msg.err, controller.ErrSuperseded):
		// A newer action on the same todo owns the outcome.
	case msg.err != nil:
		m.notice, m.noticeErr = msg.op+": "+rootMessage(msg.err), true
		if msg.op == "edit" {
			if edit, ok := m.ctrl.Editing(); ok {
				m.mode = modeEditing
				m.input.SetValue(edit.Text)
				m.input.CursorEnd()
				m.input.Focus()
			}
		}
	default:
		m.notice, m.noticeErr = msg.op+" ok", false
	}
	return m
}

func (m Model) updateList(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	items := m.ctrl.State().Items
	current := ""
	if m.cursor >= 0 && m.cursor < len(items) {
		current = items[m.cursor].ID
	}

	switch {
	case key.Matches(msg, keys.Quit):
		m.ctrl.Close()
		return m, tea.Quit
	case key.Matches(msg, keys.Up):
		if m.cursor > 0 {
			m.cursor--
		}
	case key.Matches(msg, keys.Down):
		if m.cursor < len(items)-1 {
			m.cursor++
		}
	case key.Matches(msg, keys.Toggle):
		if current != "" {
			return m, m.run("toggle", func(ctx context.Context) error { return m.ctrl.Toggle(ctx, current) })
		}
	case key.Matches(msg, keys.Select):
		if current != "" {
			m.ctrl.ToggleSelection(current)
		}
	case key.Matches(msg, keys.SelectAll):
		return m, m.run("select all", m.ctrl.ToggleSelectAll)
	case key.Matches(msg, keys.Delete):
		if current != "" {
			return m, m.run("delete", func(ctx context.Context) error { return m.ctrl.Delete(ctx, current) })
		}
	case key.Matches(msg, keys.DeleteSelected):
		return m, m.run("delete selected", m.ctrl.DeleteSelected)
	case key.Matches(msg, keys.Edit):
		if current != "" && m.ctrl.BeginEdit(current) == nil {
			edit, _ := m.ctrl.Editing()
			m.mode = modeEditing
			m.input.Placeholder = "Edit todo..."
			m.input.SetValue(edit.Text)
			m.input.CursorEnd()
			return m, m.input.Focus()
		}
	case key.Matches(msg, keys.Add):
		m.mode = modeAdding
		m.input.Placeholder = "New todo..."
		m.input.SetValue(m.ctrl.State().Draft)
		m.input.CursorEnd()
		return m, m.input.Focus()
	case key.Matches(msg, keys.Reload):
		return m, m.run("load", m.ctrl.Load)
	}
	return m, nil
}

func (m Model) updateAdding(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.Type {
	case tea.KeyEnter:
		m.ctrl.SetDraft(m.input.Value())
		m.mode = modeList
		m.input.Blur()
		return m, m.run("add", m.ctrl.Create)
	case tea.KeyEsc:
		m.ctrl.SetDraft(m.input.Value())
		m.mode = modeList
		m.input.Blur()
		return m, nil
	}

	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	m.ctrl.SetDraft(m.input.Value())
	return m, cmd
}

func (m Model) updateEditing(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.Type {
	case tea.KeyEnter:
		m.ctrl.SetEditText(m.input.Value())
		m.mode = modeList
		m.input.Blur()
		return m, m.run("edit", m.ctrl.SubmitEdit)
	case tea.KeyEsc, tea.KeyTab:
		// Leaving the field without submitting discards the edit.
		m.ctrl.CancelEdit()
		m.mode = modeList
		m.input.Blur()
		return m, nil
	}

	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	m.ctrl.SetEditText(m.input.Value())
	return m, cmd
}

func (m *Model) clampCursor() {
	n := len(m.ctrl.Todos())
	if m.cursor >= n {
		m.cursor = n - 1
	}
	if m.cursor < 0 {
		m.cursor = 0
	}
}

func (m Model) View() string {
	st := m.ctrl.State()

	var b strings.Builder
	b.WriteString(header(st))
	b.WriteString("\n\n")

	if len(st.Items) == 0 {
		b.WriteString(mutedStyle.Render("no todos"))
		b.WriteString("\n")
	}
	for i, item := range st.Items {
		b.WriteString(m.row(i, item))
		b.WriteString("\n")
	}

	if m.mode != modeList {
		title := "Add todo"
		if m.mode == modeEditing {
			title = "Edit todo"
		}
		b.WriteString("\n")
		b.WriteString(panelStyle.Render(title + "\n" + m.input.View()))
		b.WriteString("\n")
	}

	if m.notice != "" {
		b.WriteString("\n")
		if m.noticeErr {
			b.WriteString(errorStyle.Render("✖ " + m.notice))
		} else {
			b.WriteString(successStyle.Render("✔ " + m.notice))
		}
		b.WriteString("\n")
	}
	b.WriteString("\n")
	b.WriteString(helpStyle.Render(keys.help()))

	return panelStyle.Width(max(m.width-2, 20)).Render(b.String())
}

func (m Model) row(i int, item controller.Item) string {
	prefix := "  "
	if i == m.cursor {
		prefix = cursorStyle.Render(">") + " "
	}

	mark := mutedStyle.Render(markFree)
	if item.Selected {
		mark = accentStyle.Render(markSelected)
	}

	box := mutedStyle.Render(boxUnchecked)
	text := item.Text
	if item.Done {
		box = successStyle.Render(boxChecked)
		text = doneStyle.Render(text)
	}

	line := fmt.Sprintf("%s%s %s %s", prefix, mark, box, text)
	if m.ctrl.Busy(item.ID) {
		line += " " + pendingStyle.Render("…")
	}
	return line
}

func header(st controller.State) string {
	done := 0
	for _, item := range st.Items {
		if item.Done {
			done++
		}
	}

	glyph := pendingStyle.Render(boxUnchecked)
	if st.AllDone {
		glyph = successStyle.Render(boxChecked)
	}

	return fmt.Sprintf("%s %s   %s %d  %s %d  %s %d",
		glyph,
		titleStyle.Render("Todos"),
		successStyle.Render("✔"), done,
		pendingStyle.Render("•"), len(st.Items)-done,
		accentStyle.Render("Total"), len(st.Items),
	)
}

// rootMessage drops the operation prefixes the controller and client add, so
// the notice shows what the server (or the network) said.
func rootMessage(err error) string {
	for {
		next := errors.Unwrap(err)
		if next == nil {
			return err.Error()
		}
		err = next
	}
}
