package update

import (
	"fmt"

	"github.com/sandeepkv93/habitgarden/internal/model"
	"github.com/sandeepkv93/habitgarden/internal/views"
)

func (m Model) cardData(h model.Habit, selected bool) views.HabitCardData {
	now := m.store.Now()
	week, _ := m.store.WeekCountFor(h.ID, now)
	pct, _ := m.store.ProgressFor(h.ID, now)
	return views.HabitCardData{
		ID:           h.ID,
		Name:         h.Name,
		IfThen:       h.IfThen,
		Tasks:        h.Tasks,
		Difficulty:   h.Difficulty.Label(),
		Streak:       h.Streak,
		XP:           h.XP,
		WeekCount:    week,
		TargetDays:   h.TargetDays,
		ProgressView: m.progressBar.ViewAs(pct),
		Selected:     selected,
	}
}

func (m Model) renderHabitList() string {
	cards := make([]views.HabitCardData, 0, len(m.Habits))
	for i, h := range m.Habits {
		cards = append(cards, m.cardData(h, i == m.Cursor))
	}
	return views.RenderHabitList(views.HabitListData{
		Theme: string(m.Theme),
		Cards: cards,
	})
}

func (m Model) renderForm() string {
	title := "New habit"
	if m.Form.Kind == FormEdit {
		title = "Edit habit"
	}
	fields := make([]views.FormFieldData, 0, fieldCount)
	for i := formField(0); i < fieldCount; i++ {
		view := m.inputs[i].View()
		if i == fieldDifficulty {
			view = m.renderDifficultySelector()
		}
		fields = append(fields, views.FormFieldData{
			Label:   formLabels[i],
			View:    view,
			Focused: m.Form.Focus == i,
		})
	}
	return views.RenderForm(views.FormData{
		Theme:  string(m.Theme),
		Title:  title,
		Fields: fields,
		Error:  m.Form.Err,
	})
}

func (m Model) renderDifficultySelector() string {
	out := ""
	for i, d := range model.Difficulties() {
		label := fmt.Sprintf(" %d %s ", int(d), d.Label())
		if i == m.Form.DifficultyCursor {
			label = "[" + label + "]"
		} else {
			label = " " + label + " "
		}
		out += label
	}
	return out
}

func (m Model) renderConfirm() string {
	action := "Reset progress for"
	if m.Confirm.Action == ConfirmDelete {
		action = "Delete"
	}
	return views.RenderConfirm(views.ConfirmData{
		Theme:   string(m.Theme),
		Action:  action,
		Subject: m.Confirm.Name,
	})
}

func (m Model) renderSidePane() string {
	side := views.RenderCommandPalette(m.Palette.Active, m.Palette.Input)
	if m.ShowDetails {
		if side != "" {
			side += "\n\n"
		}
		side += m.detailsView.View()
	}
	if help := m.renderHelpIfVisible(); help != "" {
		if side != "" {
			side += "\n\n"
		}
		side += help
	}
	return side
}

// syncDetails re-renders the markdown details of the selected habit.
func (m *Model) syncDetails() {
	if !m.ShowDetails || m.store == nil {
		return
	}
	h, ok := m.selectedHabit()
	if !ok {
		m.detailsView.SetContent("(no habit selected)")
		return
	}
	md := views.HabitMarkdown(m.cardData(h, true))
	m.detailsView.SetContent(views.RenderMarkdown(md, string(m.Theme), m.detailsView.Width))
}
