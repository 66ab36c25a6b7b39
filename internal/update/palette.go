package update

import (
	"fmt"
	"strings"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/sandeepkv93/habitgarden/internal/commands"
	"github.com/sandeepkv93/habitgarden/internal/habits"
	"github.com/sandeepkv93/habitgarden/internal/model"
)

func (m *Model) openPalette() tea.Cmd {
	m.Palette.Active = true
	m.Palette.Input = ""
	m.commandInput.SetValue("")
	m.Status = StatusBar{Text: "command palette active"}
	return m.commandInput.Focus()
}

func (m *Model) closePalette() {
	m.Palette.Active = false
	m.Palette.Input = ""
	m.commandInput.SetValue("")
	m.commandInput.Blur()
}

func (m Model) handlePaletteKey(msg tea.KeyMsg) (Model, tea.Cmd) {
	switch msg.String() {
	case "esc":
		m.closePalette()
		m.Status = StatusBar{Text: "command palette closed"}
		return m, nil
	case "enter":
		m.Palette.Input = m.commandInput.Value()
		return m.executePaletteCommand(), nil
	}
	var cmd tea.Cmd
	m.commandInput, cmd = m.commandInput.Update(msg)
	m.Palette.Input = m.commandInput.Value()
	return m, cmd
}

func (m Model) executePaletteCommand() Model {
	raw := strings.TrimSpace(m.Palette.Input)
	cmd, err := commands.Parse(raw)
	if err != nil {
		m.Status = StatusBar{Text: err.Error(), IsError: true}
		m.closePalette()
		return m
	}

	// Handlers set the status themselves; their error only aborts Result.
	res, err := commands.Execute(cmd, commands.Handlers{
		Add: func(a commands.AddArgs) (commands.Result, error) {
			err := m.createHabit(habits.CreateInput{
				Name:       a.Name,
				IfThen:     a.IfThen,
				Tasks:      a.Tasks,
				Difficulty: a.Difficulty,
				TargetDays: a.TargetDays,
			})
			return commands.Result{Message: m.Status.Text}, err
		},
		Done: func(r commands.RefArgs) (commands.Result, error) {
			return m.onRef(r, m.completeHabit)
		},
		Reset: func(r commands.RefArgs) (commands.Result, error) {
			return m.onRef(r, m.resetHabit)
		},
		Delete: func(r commands.RefArgs) (commands.Result, error) {
			return m.onRef(r, m.deleteHabit)
		},
		Edit: func(e commands.EditArgs) (commands.Result, error) {
			h, err := m.store.Lookup(e.Ref)
			if err != nil {
				return commands.Result{}, err
			}
			err = m.editHabit(h.ID, habits.EditInput{
				Name:       e.Name,
				IfThen:     e.IfThen,
				Tasks:      e.Tasks,
				Difficulty: e.Difficulty,
				TargetDays: e.TargetDays,
			})
			return commands.Result{Message: m.Status.Text}, err
		},
		Theme: func(t commands.ThemeArgs) (commands.Result, error) {
			next := t.Theme
			if next == "" {
				next = m.Theme.Toggle()
			}
			m.setTheme(next)
			return commands.Result{Message: m.Status.Text}, nil
		},
		Stats: func() (commands.Result, error) {
			return commands.Result{Message: m.statsLine()}, nil
		},
	})
	if err != nil {
		m.LastError = err
		m.Status = StatusBar{Text: err.Error(), IsError: true}
	} else {
		m.Status = StatusBar{Text: res.Message}
	}
	m.closePalette()
	return m
}

func (m *Model) onRef(r commands.RefArgs, action func(model.Habit) error) (commands.Result, error) {
	h, err := m.store.Lookup(r.Ref)
	if err != nil {
		return commands.Result{}, err
	}
	if err := action(h); err != nil {
		return commands.Result{}, err
	}
	if idx := m.indexOf(h.ID); idx >= 0 {
		m.Cursor = idx
	}
	return commands.Result{Message: m.Status.Text}, nil
}

func (m Model) statsLine() string {
	return fmt.Sprintf("%d habits, %d total XP", len(m.Habits), m.store.TotalXP())
}

func (m Model) indexOf(id string) int {
	for i, h := range m.Habits {
		if h.ID == id {
			return i
		}
	}
	return -1
}
