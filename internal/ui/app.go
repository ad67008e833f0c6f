// Package ui is the terminal front end of the diary: a spot list with
// detail and edit screens, plus a moon phase calendar. Every screen
// reads the shared list through one subscription, so a save on the form
// shows up in the list without a manual reload.
package ui

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/bft-labs/fishdiary/internal/app"
	"github.com/bft-labs/fishdiary/internal/domain"
)

// Screen identifies the active view.
type Screen int

const (
	ScreenSpots Screen = iota
	ScreenDetail
	ScreenForm
	ScreenMoon
)

// Store is the part of the diary the UI drives. *diary.Diary satisfies it.
type Store interface {
	Subscribe() (spots []domain.Spot, updates <-chan []domain.Spot, cancel func())
	Refresh(ctx context.Context) ([]domain.Spot, error)
	NewDraft(coord domain.Coordinate) *app.Editor
	Edit(id int64) (*app.Editor, error)
}

// Model is the root Bubble Tea model.
type Model struct {
	ctx     context.Context
	store   Store
	updates <-chan []domain.Spot
	cancel  func()

	screen Screen
	spots  []domain.Spot
	cursor int

	form *FormModel
	moon MoonModel

	pendingDelete int64
	pendingSelect int64 // saved spot to select once the list catches up
	showingHelp   bool
	err           string
	info          string

	width  int
	height int

	keys     KeyMap
	formKeys FormKeyMap
}

// New subscribes to store and returns the root model. Call Close when
// the program exits.
func New(ctx context.Context, store Store) Model {
	spots, updates, cancel := store.Subscribe()
	return Model{
		ctx:      ctx,
		store:    store,
		updates:  updates,
		cancel:   cancel,
		screen:   ScreenSpots,
		spots:    spots,
		moon:     NewMoonModel(time.Now()),
		width:    80,
		height:   24,
		keys:     DefaultKeyMap(),
		formKeys: DefaultFormKeyMap(),
	}
}

// Close releases the list subscription.
func (m Model) Close() {
	if m.cancel != nil {
		m.cancel()
	}
}

// Init starts listening for list changes.
func (m Model) Init() tea.Cmd {
	return waitForSpots(m.updates)
}

func waitForSpots(updates <-chan []domain.Spot) tea.Cmd {
	return func() tea.Msg {
		spots, ok := <-updates
		if !ok {
			return nil
		}
		return spotsMsg{spots: spots}
	}
}

// Update handles messages.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		return m, nil

	case spotsMsg:
		m.spots = msg.spots
		m.clampCursor()
		if m.pendingSelect != 0 && m.selectID(m.pendingSelect) {
			m.pendingSelect = 0
		}
		return m, waitForSpots(m.updates)

	case errMsg:
		m.err = msg.err.Error()
		m.info = ""
		return m, nil

	case refreshedMsg:
		switch {
		case errors.Is(msg.err, domain.ErrCorruptData):
			m.err = "stored data was unreadable and has been reset"
		case msg.err != nil:
			m.err = msg.err.Error()
		default:
			m.err = ""
			m.info = fmt.Sprintf("Reloaded %d spots", msg.count)
		}
		return m, nil

	case savedMsg:
		m.form = nil
		m.screen = ScreenSpots
		m.err = ""
		m.info = fmt.Sprintf("Saved %q", msg.spot.Title)
		m.pendingSelect = 0
		if !m.selectID(msg.spot.ID) {
			m.pendingSelect = msg.spot.ID
		}
		return m, nil

	case deletedMsg:
		m.form = nil
		m.screen = ScreenSpots
		m.err = ""
		m.info = fmt.Sprintf("Deleted spot %d", msg.id)
		return m, nil

	case formCancelledMsg:
		m.form = nil
		m.screen = ScreenSpots
		return m, nil

	case formErrMsg:
		if m.form != nil {
			m.form.fail(msg.err)
		}
		return m, nil

	case tea.KeyMsg:
		if msg.String() == "ctrl+c" {
			return m, tea.Quit
		}
		if m.screen == ScreenForm && m.form != nil {
			var cmd tea.Cmd
			*m.form, cmd = m.form.Update(msg)
			return m, cmd
		}
		if key.Matches(msg, m.keys.Help) {
			m.showingHelp = !m.showingHelp
			return m, nil
		}
		if m.showingHelp {
			if key.Matches(msg, m.keys.Back) {
				m.showingHelp = false
			}
			return m, nil
		}
		return m.handleNav(msg)
	}
	return m, nil
}

func (m Model) handleNav(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if m.pendingDelete != 0 {
		id := m.pendingDelete
		m.pendingDelete = 0
		if key.Matches(msg, m.keys.Confirm) {
			return m, m.deleteCmd(id)
		}
		m.info = "Delete cancelled"
		return m, nil
	}

	if key.Matches(msg, m.keys.Quit) {
		return m, tea.Quit
	}

	switch m.screen {
	case ScreenMoon:
		switch {
		case key.Matches(msg, m.keys.Back):
			m.screen = ScreenSpots
		case key.Matches(msg, m.keys.PrevMonth):
			m.moon = m.moon.Shift(-1)
		case key.Matches(msg, m.keys.NextMonth):
			m.moon = m.moon.Shift(1)
		case key.Matches(msg, m.keys.Today):
			m.moon = NewMoonModel(time.Now())
		}
		return m, nil

	case ScreenDetail:
		switch {
		case key.Matches(msg, m.keys.Back):
			m.screen = ScreenSpots
			return m, nil
		case key.Matches(msg, m.keys.Edit):
			return m.openEdit()
		case key.Matches(msg, m.keys.Delete):
			return m.askDelete()
		case key.Matches(msg, m.keys.Moon):
			m.screen = ScreenMoon
		}
		return m, nil
	}

	switch {
	case key.Matches(msg, m.keys.Up):
		if m.cursor > 0 {
			m.cursor--
		}
	case key.Matches(msg, m.keys.Down):
		if m.cursor < len(m.spots)-1 {
			m.cursor++
		}
	case key.Matches(msg, m.keys.Select):
		if len(m.spots) > 0 {
			m.screen = ScreenDetail
		}
	case key.Matches(msg, m.keys.Add):
		m.form = NewFormModel(m.ctx, m.store, nil, m.formKeys)
		m.screen = ScreenForm
		m.info = ""
		return m, m.form.Init()
	case key.Matches(msg, m.keys.Edit):
		return m.openEdit()
	case key.Matches(msg, m.keys.Delete):
		return m.askDelete()
	case key.Matches(msg, m.keys.Refresh):
		return m, m.refreshCmd()
	case key.Matches(msg, m.keys.Moon):
		m.screen = ScreenMoon
	}
	return m, nil
}

func (m Model) openEdit() (tea.Model, tea.Cmd) {
	spot, ok := m.selected()
	if !ok {
		return m, nil
	}
	editor, err := m.store.Edit(spot.ID)
	if err != nil {
		m.err = err.Error()
		return m, nil
	}
	m.form = NewFormModel(m.ctx, m.store, editor, m.formKeys)
	m.screen = ScreenForm
	m.info = ""
	return m, m.form.Init()
}

func (m Model) askDelete() (tea.Model, tea.Cmd) {
	spot, ok := m.selected()
	if !ok {
		return m, nil
	}
	m.pendingDelete = spot.ID
	m.info = fmt.Sprintf("Delete %q? press y to confirm", spot.Title)
	return m, nil
}

func (m Model) deleteCmd(id int64) tea.Cmd {
	ctx, store := m.ctx, m.store
	return func() tea.Msg {
		editor, err := store.Edit(id)
		if err != nil {
			return errMsg{err: err}
		}
		if _, err := editor.Delete(ctx); err != nil {
			return errMsg{err: err}
		}
		return deletedMsg{id: id}
	}
}

func (m Model) refreshCmd() tea.Cmd {
	ctx, store := m.ctx, m.store
	return func() tea.Msg {
		spots, err := store.Refresh(ctx)
		return refreshedMsg{count: len(spots), err: err}
	}
}

func (m Model) selected() (domain.Spot, bool) {
	if m.cursor < 0 || m.cursor >= len(m.spots) {
		return domain.Spot{}, false
	}
	return m.spots[m.cursor], true
}

func (m *Model) selectID(id int64) bool {
	for i, s := range m.spots {
		if s.ID == id {
			m.cursor = i
			return true
		}
	}
	return false
}

func (m *Model) clampCursor() {
	if m.cursor >= len(m.spots) {
		m.cursor = len(m.spots) - 1
	}
	if m.cursor < 0 {
		m.cursor = 0
	}
}

// View renders the active screen with a header and footer.
func (m Model) View() string {
	var body string
	switch {
	case m.showingHelp:
		body = m.renderFullHelp()
	case m.screen == ScreenForm && m.form != nil:
		body = m.form.View(m.width)
	case m.screen == ScreenDetail:
		body = m.renderDetail()
	case m.screen == ScreenMoon:
		body = m.moon.View(m.width)
	default:
		body = m.renderList()
	}

	var status string
	switch {
	case m.err != "":
		status = ErrorStyle.Render(m.err)
	case m.info != "":
		status = SuccessStyle.Render(m.info)
	}

	parts := []string{TitleStyle.Render(m.title()), body}
	if status != "" {
		parts = append(parts, status)
	}
	parts = append(parts, m.renderHelp())
	return lipgloss.JoinVertical(lipgloss.Left, parts...)
}

func (m Model) title() string {
	switch m.screen {
	case ScreenDetail:
		return "Fishing Spots › Details"
	case ScreenForm:
		if m.form != nil && m.form.editing() {
			return "Fishing Spots › Edit"
		}
		return "Fishing Spots › New"
	case ScreenMoon:
		return "Moon Phases"
	default:
		return fmt.Sprintf("Fishing Spots (%d)", len(m.spots))
	}
}

func (m Model) renderList() string {
	if len(m.spots) == 0 {
		return EmptyStateStyle.Render("No spots yet. Press a to add one.")
	}

	rows := make([]string, 0, len(m.spots))
	for i, s := range m.spots {
		line := fmt.Sprintf("%-28s %22s  %d📷", truncate(s.Title, 28), s.Coordinate.String(), len(s.Images))
		if i == m.cursor {
			rows = append(rows, SelectedRowStyle.Width(m.width).Render(line))
			continue
		}
		rows = append(rows, NormalRowStyle.Render(line))
	}
	return strings.Join(rows, "\n")
}

func (m Model) renderDetail() string {
	s, ok := m.selected()
	if !ok {
		return EmptyStateStyle.Render("Spot no longer exists.")
	}

	lines := []string{
		LabelStyle.Render(s.Title),
		MutedStyle.Render(s.Coordinate.String()),
		"",
	}
	if s.Description != "" {
		lines = append(lines, s.Description, "")
	}
	if len(s.Images) == 0 {
		lines = append(lines, MutedStyle.Render("No photos"))
	}
	for _, img := range s.Images {
		lines = append(lines, "📷 "+img.URI)
	}
	return PanelStyle.Width(max(m.width-4, 20)).Render(strings.Join(lines, "\n"))
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n-1]) + "…"
}
