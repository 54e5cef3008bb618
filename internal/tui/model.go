// Package tui provides the Bubble Tea course selection interface.
package tui

import (
	"context"
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/verte-zerg/coursepick/internal/controller"
	"github.com/verte-zerg/coursepick/internal/model"
	"github.com/verte-zerg/coursepick/internal/selection"
)

type catalogLoadedMsg struct {
	courses []model.CourseDTO
	err     error
}

type courseRemovedMsg struct {
	id  int64
	err error
}

// Model implements the Bubble Tea selection UI and the controller's Presenter.
type Model struct {
	ctx    context.Context
	events controller.Events
	keys   keyMap
	help   help.Model

	width  int
	height int

	courses    []model.Course
	highlights map[int64]highlight
	total      int
	cursor     int
	offset     int

	committed   []model.Course
	isCommitted bool
	loading     bool
	confirming  bool
	removing    bool
	alert       string
}

var (
	titleStyle       = lipgloss.NewStyle().Foreground(lipgloss.Color("#C89A3A")).Bold(true)
	headerStyle      = lipgloss.NewStyle().Foreground(lipgloss.Color("#6E6E6E"))
	selectedRowStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#000000")).Background(lipgloss.Color("#00BFFF"))
	oddRowStyle      = lipgloss.NewStyle().Foreground(lipgloss.Color("#000000")).Background(lipgloss.Color("#FFFFFF"))
	evenRowStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("#000000")).Background(lipgloss.Color("#DDEFDD"))
	cursorStyle      = lipgloss.NewStyle().Foreground(lipgloss.Color("#C89A3A")).Bold(true)
	footerStyle      = lipgloss.NewStyle().Foreground(lipgloss.Color("#6E6E6E"))
	alertStyle       = lipgloss.NewStyle().Foreground(lipgloss.Color("#FF4D4F"))
	totalStyle       = lipgloss.NewStyle().Foreground(lipgloss.Color("#F0F0F0")).Bold(true)
	modalStyle       = lipgloss.NewStyle().
				Border(lipgloss.RoundedBorder(), true).
				BorderForeground(lipgloss.Color("#C89A3A")).
				Padding(1, 2)
	panelStyle = lipgloss.NewStyle().
			Padding(0, 1).
			Border(lipgloss.RoundedBorder(), true).
			BorderForeground(lipgloss.Color("#4A4A4A"))
)

// NewModel constructs the selection TUI. The catalog is fetched when the
// program starts.
func NewModel(ctx context.Context, events controller.Events) *Model {
	return &Model{
		ctx:        ctx,
		events:     events,
		keys:       defaultKeyMap(),
		help:       help.New(),
		highlights: map[int64]highlight{},
		loading:    true,
	}
}

// Init implements tea.Model.
func (m *Model) Init() tea.Cmd {
	return m.fetchCmd()
}

func (m *Model) fetchCmd() tea.Cmd {
	ctx, events := m.ctx, m.events
	return func() tea.Msg {
		courses, err := events.Fetch(ctx)
		return catalogLoadedMsg{courses: courses, err: err}
	}
}

func (m *Model) removeCmd(id int64) tea.Cmd {
	ctx, events := m.ctx, m.events
	return func() tea.Msg {
		return courseRemovedMsg{id: id, err: events.RemoteRemove(ctx, id)}
	}
}

// Update implements tea.Model.
func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.help.Width = msg.Width
		m.scroll()
		return m, nil
	case catalogLoadedMsg:
		m.loading = false
		_ = m.events.CatalogLoaded(msg.courses, msg.err)
		return m, nil
	case courseRemovedMsg:
		m.removing = false
		_ = m.events.CourseRemoved(msg.id, msg.err)
		return m, nil
	case tea.KeyMsg:
		if m.confirming {
			return m.updateConfirm(msg)
		}
		return m.updateBrowse(msg)
	default:
		return m, nil
	}
}

func (m *Model) updateBrowse(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.Quit):
		return m, tea.Quit
	case key.Matches(msg, m.keys.Help):
		m.help.ShowAll = !m.help.ShowAll
		m.scroll()
	case key.Matches(msg, m.keys.Up):
		m.moveCursor(-1)
	case key.Matches(msg, m.keys.Down):
		m.moveCursor(1)
	case key.Matches(msg, m.keys.Toggle):
		m.alert = ""
		id, ok := m.currentID()
		if !ok {
			m.alert = controller.NotLoadedMessage
			return m, nil
		}
		_, _ = m.events.CourseClicked(id)
	case key.Matches(msg, m.keys.Commit):
		m.alert = ""
		if m.isCommitted {
			_, _ = m.events.CommitClicked(nil)
			return m, nil
		}
		// A delete in flight must land before the selection is frozen.
		if m.removing {
			m.alert = controller.RemovingMessage
			return m, nil
		}
		m.confirming = true
	case key.Matches(msg, m.keys.Remove):
		m.alert = ""
		id, ok := m.currentID()
		if !ok {
			return m, nil
		}
		if m.removing {
			m.alert = controller.RemovingMessage
			return m, nil
		}
		m.removing = true
		return m, m.removeCmd(id)
	case key.Matches(msg, m.keys.Reload):
		m.alert = ""
		if m.removing {
			m.alert = controller.RemovingMessage
			return m, nil
		}
		m.loading = true
		return m, m.fetchCmd()
	}
	return m, nil
}

func (m *Model) updateConfirm(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.Confirm):
		m.confirming = false
		_, _ = m.events.CommitClicked(func(int) bool { return true })
	case key.Matches(msg, m.keys.Cancel):
		m.confirming = false
		_, _ = m.events.CommitClicked(func(int) bool { return false })
	case msg.Type == tea.KeyCtrlC:
		return m, tea.Quit
	}
	return m, nil
}

func (m *Model) moveCursor(delta int) {
	if len(m.courses) == 0 {
		m.cursor = 0
		return
	}
	m.cursor += delta
	if m.cursor < 0 {
		m.cursor = 0
	}
	if m.cursor >= len(m.courses) {
		m.cursor = len(m.courses) - 1
	}
	m.scroll()
}

// scroll keeps the list offset such that the cursor row is drawn.
func (m *Model) scroll() {
	m.offset, _ = visibleWindow(len(m.courses), m.cursor, m.offset, m.listHeight())
}

func (m *Model) currentID() (int64, bool) {
	if m.cursor < 0 || m.cursor >= len(m.courses) {
		return 0, false
	}
	return m.courses[m.cursor].ID, true
}

// RenderCatalog implements controller.Presenter.
func (m *Model) RenderCatalog(courses []model.Course) {
	m.courses = courses
	m.highlights = make(map[int64]highlight, len(courses))
	for _, c := range courses {
		m.highlights[c.ID] = highlight{parity: controller.Parity(c.ID)}
	}
	m.moveCursor(0)
}

// RenderSelection implements controller.Presenter.
func (m *Model) RenderSelection(courses []model.Course) {
	m.committed = courses
	m.isCommitted = true
	m.scroll()
}

// RenderTotal implements controller.Presenter.
func (m *Model) RenderTotal(n int) {
	m.total = n
}

// Highlight implements controller.Presenter.
func (m *Model) Highlight(id int64, selected bool, parity int) {
	m.highlights[id] = highlight{selected: selected, parity: parity}
}

// Alert implements controller.Presenter.
func (m *Model) Alert(msg string) {
	m.alert = msg
}

// View implements tea.Model.
func (m *Model) View() string {
	width := m.width
	if width <= 0 {
		width = 80
	}
	if m.confirming {
		boxWidth := width - 8
		if boxWidth > 60 {
			boxWidth = 60
		}
		box := modalStyle.Width(boxWidth).Render(controller.ConfirmText(m.total) + "\n\n" + footerStyle.Render("y confirm · n cancel"))
		if m.height > 0 {
			return lipgloss.Place(width, m.height, lipgloss.Center, lipgloss.Center, box)
		}
		return box
	}

	sections := []string{titleStyle.Render("Available courses")}
	sections = append(sections, m.renderList(width))
	if m.isCommitted {
		sections = append(sections, m.renderCommitted(width))
	}
	sections = append(sections, m.renderFooter())
	if m.alert != "" {
		sections = append(sections, alertStyle.Render(m.alert))
	}
	sections = append(sections, m.help.View(m.keys))
	return lipgloss.JoinVertical(lipgloss.Left, sections...)
}

func (m *Model) renderList(width int) string {
	if m.loading && len(m.courses) == 0 {
		return headerStyle.Render("Loading courses…")
	}
	if len(m.courses) == 0 {
		return headerStyle.Render("No courses available")
	}
	rowWidth := width - 2
	lines := []string{headerStyle.Render("  " + headerLine(rowWidth))}
	start, end := visibleWindow(len(m.courses), m.cursor, m.offset, m.listHeight())
	for i := start; i < end; i++ {
		c := m.courses[i]
		prefix := "  "
		if i == m.cursor {
			prefix = cursorStyle.Render("> ")
		}
		row := rowStyle(m.highlights[c.ID]).Render(formatCourseRow(c, rowWidth))
		lines = append(lines, prefix+row)
	}
	return strings.Join(lines, "\n")
}

func (m *Model) listHeight() int {
	if m.height <= 0 {
		return 0
	}
	reserved := 6
	if m.isCommitted {
		reserved += len(m.committed) + 3
	}
	if m.help.ShowAll {
		reserved += 3
	}
	h := m.height - reserved
	if h < 1 {
		h = 1
	}
	return h
}

func (m *Model) renderCommitted(width int) string {
	lines := []string{titleStyle.Render("Selected courses")}
	if len(m.committed) == 0 {
		lines = append(lines, headerStyle.Render("No courses selected"))
	}
	for _, c := range m.committed {
		lines = append(lines, formatCourseRow(c, width-4))
	}
	return panelStyle.Render(strings.Join(lines, "\n"))
}

func (m *Model) renderFooter() string {
	segments := []string{
		totalStyle.Render(fmt.Sprintf("Total credit: %d", m.total)),
		fmt.Sprintf("Limit %d", selection.MaxCredits),
	}
	if m.isCommitted {
		segments = append(segments, "Submitted")
	} else {
		segments = append(segments, fmt.Sprintf("%d courses", len(m.courses)))
	}
	return footerStyle.Render(strings.Join(segments, "  "))
}
