// Package tui is the interactive Bubble Tea view over a todo store. Every
// key action goes straight to the store, which persists it.
package tui

import (
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/list"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/idilsaglam/tada/internal/model"
	"github.com/idilsaglam/tada/internal/todos"
	"github.com/idilsaglam/tada/internal/ui"
)

// listItem adapts model.Todo to bubbles/list.Item
type listItem struct {
	todo model.Todo
}

func (i listItem) Title() string       { return i.todo.Title }
func (i listItem) Description() string { return "" }
func (i listItem) FilterValue() string { return i.todo.Title }

// Custom delegate to control how items render (single line)
type itemDelegate struct{}

func (d itemDelegate) Height() int                               { return 1 }
func (d itemDelegate) Spacing() int                              { return 0 }
func (d itemDelegate) Update(msg tea.Msg, m *list.Model) tea.Cmd { return nil }
func (d itemDelegate) Render(w io.Writer, m list.Model, index int, item list.Item) {
	it, ok := item.(listItem)
	if !ok {
		return
	}
	t := ui.Current()
	box, text := t.Muted.Render(t.BoxUnchecked), it.todo.Title
	if it.todo.Completed {
		box, text = t.Success.Render(t.BoxChecked), t.Done.Render(text)
	}
	prefix := "  "
	if index == m.Index() {
		prefix = t.Selected.Render("> ")
	}
	fmt.Fprint(w, prefix+box+" "+text)
}

type mode int

const (
	browsing mode = iota
	adding
	editing
)

type keyMap struct {
	Toggle, Add, Edit, Delete, Clear, Filter key.Binding
}

var keys = keyMap{
	Toggle: key.NewBinding(key.WithKeys(" "), key.WithHelp("space", "toggle")),
	Add:    key.NewBinding(key.WithKeys("a"), key.WithHelp("a", "add")),
	Edit:   key.NewBinding(key.WithKeys("e"), key.WithHelp("e", "edit")),
	Delete: key.NewBinding(key.WithKeys("d"), key.WithHelp("d", "delete")),
	Clear:  key.NewBinding(key.WithKeys("c"), key.WithHelp("c", "clear done")),
	Filter: key.NewBinding(key.WithKeys("tab", "1", "2", "3"), key.WithHelp("tab/1-3", "filter")),
}

func (k keyMap) bindings() []key.Binding {
	return []key.Binding{k.Toggle, k.Add, k.Edit, k.Delete, k.Clear, k.Filter}
}

// Model is the Bubble Tea model. It holds no todo state of its own; the
// list is rebuilt from the store after every action.
type Model struct {
	store *todos.Store
	list  list.Model

	mode     mode
	ti       textinput.Model // shared text input model (used for add & edit)
	editID   string
	inputErr string
}

// New builds the model over store.
func New(store *todos.Store) Model {
	l := list.New(nil, itemDelegate{}, 80, 20)
	l.SetShowHelp(true)
	l.SetShowPagination(true)
	l.SetShowStatusBar(true)
	l.SetFilteringEnabled(false)
	l.Styles.Title = ui.Current().Title
	l.Styles.HelpStyle = ui.Current().Help
	l.Styles.PaginationStyle = ui.Current().Help
	l.SetStatusBarItemName("item", "items")
	l.DisableQuitKeybindings()
	l.AdditionalShortHelpKeys = keys.bindings
	l.AdditionalFullHelpKeys = keys.bindings

	ti := textinput.New()
	ti.Prompt = "> "
	ti.CharLimit = 200

	m := Model{store: store, list: l, ti: ti}
	m.refresh()
	return m
}

// Run starts the program and blocks until the user quits.
func Run(store *todos.Store) error {
	_, err := tea.NewProgram(New(store), tea.WithAltScreen()).Run()
	return err
}

func (m *Model) refresh() {
	idx := m.list.Index()
	view := m.store.Filtered()
	items := make([]list.Item, len(view))
	for i, t := range view {
		items[i] = listItem{todo: t}
	}
	m.list.SetItems(items)
	if n := len(items); n > 0 {
		if idx >= n {
			idx = n - 1
		}
		m.list.Select(idx)
	}
	m.list.Title = m.header()
}

func (m Model) header() string {
	t := ui.Current()
	tabs := make([]string, 0, len(model.Filters))
	for _, f := range model.Filters {
		label := string(f)
		if f == m.store.Filter() {
			tabs = append(tabs, t.Selected.Render(label))
		} else {
			tabs = append(tabs, t.Muted.Render(label))
		}
	}
	return fmt.Sprintf("Todos  %s   %s %d  %s %d",
		strings.Join(tabs, " "),
		t.Pending.Render(t.SymPending), m.store.Remaining(),
		t.Success.Render(t.SymDone), m.store.CompletedCount(),
	)
}

func (m Model) selected() (model.Todo, bool) {
	it, ok := m.list.SelectedItem().(listItem)
	if !ok {
		return model.Todo{}, false
	}
	return it.todo, true
}

func (m Model) Init() tea.Cmd { return nil }

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	if size, ok := msg.(tea.WindowSizeMsg); ok {
		m.list.SetSize(max(size.Width-4, 1), max(size.Height-6, 1))
		return m, nil
	}
	if m.mode != browsing {
		return m.updateInput(msg)
	}

	if k, ok := msg.(tea.KeyMsg); ok {
		switch k.String() {
		case "q", "esc", "ctrl+c":
			return m, tea.Quit
		case " ":
			if t, ok := m.selected(); ok {
				m.store.Toggle(t.ID)
				m.refresh()
			}
			return m, nil
		case "d":
			if t, ok := m.selected(); ok {
				m.store.Remove(t.ID)
				m.refresh()
			}
			return m, nil
		case "c":
			m.store.ClearCompleted()
			m.refresh()
			return m, nil
		case "tab":
			m.store.SetFilter(m.store.Filter().Next())
			m.refresh()
			return m, nil
		case "1", "2", "3":
			m.store.SetFilter(model.Filters[k.String()[0]-'1'])
			m.refresh()
			return m, nil
		case "a":
			m.mode = adding
			m.ti.SetValue("")
			m.ti.Placeholder = "New item title..."
			return m, m.ti.Focus()
		case "e":
			if t, ok := m.selected(); ok {
				m.mode = editing
				m.editID = t.ID
				m.ti.SetValue(t.Title)
				m.ti.CursorEnd()
				m.ti.Placeholder = "Edit item title..."
				return m, m.ti.Focus()
			}
			return m, nil
		}
	}

	var cmd tea.Cmd
	m.list, cmd = m.list.Update(msg)
	return m, cmd
}

func (m Model) updateInput(msg tea.Msg) (tea.Model, tea.Cmd) {
	if k, ok := msg.(tea.KeyMsg); ok {
		switch k.String() {
		case "enter":
			var (
				added model.Todo
				ok    bool
			)
			wasAdding := m.mode == adding
			if wasAdding {
				added, ok = m.store.Add(m.ti.Value())
			} else {
				ok = m.store.UpdateTitle(m.editID, m.ti.Value())
			}
			if !ok {
				m.inputErr = "Title cannot be empty"
				return m, nil
			}
			m.leaveInput()
			m.refresh()
			// new items land at the end of the view
			if wasAdding && m.store.Filter().Match(added) {
				m.list.Select(len(m.list.Items()) - 1)
			}
			return m, nil
		case "esc":
			m.leaveInput()
			return m, nil
		}
	}
	var cmd tea.Cmd
	m.ti, cmd = m.ti.Update(msg)
	return m, cmd
}

func (m *Model) leaveInput() {
	m.mode = browsing
	m.editID = ""
	m.inputErr = ""
	m.ti.SetValue("")
	m.ti.Blur()
}

func (m Model) View() string {
	content := m.list.View()
	if m.mode != browsing {
		t := ui.Current()
		bar := lipgloss.NewStyle().Border(t.Border).BorderForeground(t.BorderColor).Padding(0, 1)
		title := "Add new item"
		if m.mode == editing {
			title = "Edit item"
		}
		if m.inputErr != "" {
			title += " - " + t.Error.Render(m.inputErr)
		}
		content += "\n" + bar.Render(title+"\n"+m.ti.View())
	}
	return ui.PanelString(content)
}
