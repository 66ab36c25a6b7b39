package update

import (
	"fmt"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/sandeepkv93/habitgarden/internal/views"
)

func (m Model) Init() tea.Cmd {
	if m.bus != nil {
		return waitForCelebrationCmd(m.bus.C())
	}
	return nil
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch typed := msg.(type) {
	case tea.KeyMsg:
		if typed.String() == "ctrl+c" {
			m.Quitting = true
			return m, tea.Quit
		}
		if m.Palette.Active {
			next, cmd := m.handlePaletteKey(typed)
			next.syncDetails()
			return next, cmd
		}
		switch m.Mode {
		case ModeForm:
			next, cmd := m.handleFormKey(typed)
			next.syncDetails()
			return next, cmd
		case ModeConfirm:
			return m.handleConfirmKey(typed), nil
		}
		return m.handleListKey(typed)
	case tea.WindowSizeMsg:
		m.Width = typed.Width
		return m, nil
	case CelebrationMsg:
		m.applyCelebration(typed.Event)
		if m.bus != nil {
			return m, waitForCelebrationCmd(m.bus.C())
		}
		return m, nil
	case SetStatusMsg:
		m.Status = StatusBar{Text: typed.Text, IsError: typed.IsError}
		return m, nil
	case ClearStatusMsg:
		m.Status = StatusBar{}
		return m, nil
	case AppErrorMsg:
		m.LastError = typed.Err
		if typed.Err != nil {
			m.Status = StatusBar{Text: typed.Err.Error(), IsError: true}
		}
		return m, nil
	}
	return m, nil
}

func (m Model) handleListKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "j", "down":
		if m.Cursor < len(m.Habits)-1 {
			m.Cursor++
		}
	case "k", "up":
		if m.Cursor > 0 {
			m.Cursor--
		}
	case m.Keys.Done, " ":
		if h, ok := m.selectedHabit(); ok {
			_ = m.completeHabit(h)
		}
	case m.Keys.Add:
		m.openAddForm()
	case m.Keys.Edit:
		m.openEditForm()
	case m.Keys.Reset:
		m.openConfirm(ConfirmReset)
	case m.Keys.Delete, "delete":
		m.openConfirm(ConfirmDelete)
	case m.Keys.Theme:
		m.setTheme(m.Theme.Toggle())
	case m.Keys.Details:
		m.ShowDetails = !m.ShowDetails
	case m.Keys.Save:
		m.retrySave()
	case m.Keys.Palette, "/":
		cmd := m.openPalette()
		m.syncDetails()
		return m, cmd
	case m.Keys.Help:
		m.HelpVisible = !m.HelpVisible
	case m.Keys.Quit:
		m.Quitting = true
		return m, tea.Quit
	}
	m.syncDetails()
	return m, nil
}

func (m Model) handleConfirmKey(msg tea.KeyMsg) Model {
	switch msg.String() {
	case "y", "Y":
		m.resolveConfirm(true)
	case "n", "N", "esc":
		m.resolveConfirm(false)
	}
	m.syncDetails()
	return m
}

func (m Model) View() string {
	if m.Quitting {
		return ""
	}
	body := ""
	switch m.Mode {
	case ModeForm:
		body = m.renderForm()
	case ModeConfirm:
		body = m.renderConfirm()
	default:
		body = m.renderHabitList()
	}

	banner := ""
	if m.Celebration != nil {
		banner = views.RenderCelebration(views.CelebrationData{
			Name:   m.Celebration.Name,
			Gain:   m.Celebration.Gain,
			Streak: m.Celebration.Streak,
		})
	}

	return views.RenderApp(views.AppData{
		Theme:       string(m.Theme),
		Header:      fmt.Sprintf("🌱 Habit Garden | total XP: %d | theme: %s", m.store.TotalXP(), m.Theme),
		MainPane:    body,
		SidePane:    m.renderSidePane(),
		StatusLine:  m.Status.Text,
		StatusError: m.Status.IsError,
		Banner:      banner,
		Footer: fmt.Sprintf("keys: %s done | %s add | %s edit | %s reset | %s delete | %s theme | %s cmd | %s help | %s quit",
			m.Keys.Done, m.Keys.Add, m.Keys.Edit, m.Keys.Reset, m.Keys.Delete, m.Keys.Theme, m.Keys.Palette, m.Keys.Help, m.Keys.Quit),
		Width: m.Width,
	})
}
