package update

import (
	"errors"
	"strconv"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/sandeepkv93/habitgarden/internal/habits"
	"github.com/sandeepkv93/habitgarden/internal/model"
)

var formLabels = [fieldCount]string{
	fieldName:       "Name",
	fieldIfThen:     "If-Then plan",
	fieldTasks:      "Micro-tasks (comma separated)",
	fieldDifficulty: "Difficulty",
	fieldTarget:     "Target days / week (1-7)",
}

func (m *Model) openAddForm() {
	m.Mode = ModeForm
	m.Form = FormState{Kind: FormAdd, DifficultyCursor: 0}
	for i := range m.inputs {
		m.inputs[i].SetValue("")
	}
	m.inputs[fieldTarget].SetValue(strconv.Itoa(model.DefaultTargetDays))
	m.focusField(fieldName)
}

func (m *Model) openEditForm() {
	h, ok := m.selectedHabit()
	if !ok {
		return
	}
	m.Mode = ModeForm
	m.Form = FormState{Kind: FormEdit, HabitID: h.ID, DifficultyCursor: difficultyIndex(h.Difficulty)}
	m.inputs[fieldName].SetValue(h.Name)
	m.inputs[fieldIfThen].SetValue(h.IfThen)
	m.inputs[fieldTasks].SetValue(model.FormatTaskList(h.Tasks))
	m.inputs[fieldTarget].SetValue(strconv.Itoa(h.TargetDays))
	for i := range m.inputs {
		m.inputs[i].CursorEnd()
	}
	m.focusField(fieldName)
}

func (m *Model) closeForm() {
	m.Mode = ModeList
	m.Form = FormState{}
	for i := range m.inputs {
		m.inputs[i].Blur()
	}
}

func (m *Model) focusField(f formField) {
	m.Form.Focus = f
	for i := range m.inputs {
		if formField(i) == f {
			m.inputs[i].Focus()
		} else {
			m.inputs[i].Blur()
		}
	}
}

func (m Model) handleFormKey(msg tea.KeyMsg) (Model, tea.Cmd) {
	switch msg.String() {
	case "esc":
		m.closeForm()
		m.Status = StatusBar{Text: "form closed"}
		return m, nil
	case "tab", "down":
		m.focusField((m.Form.Focus + 1) % fieldCount)
		return m, nil
	case "shift+tab", "up":
		m.focusField((m.Form.Focus + fieldCount - 1) % fieldCount)
		return m, nil
	case "enter", "ctrl+s":
		m.submitForm()
		return m, nil
	}

	if m.Form.Focus == fieldDifficulty {
		switch msg.String() {
		case "left", "h":
			m.moveDifficulty(-1)
		case "right", "l", " ":
			m.moveDifficulty(1)
		case "1", "2", "3":
			m.Form.DifficultyCursor = int(msg.Runes[0] - '1')
		}
		return m, nil
	}

	var cmd tea.Cmd
	m.inputs[m.Form.Focus], cmd = m.inputs[m.Form.Focus].Update(msg)
	return m, cmd
}

func (m *Model) moveDifficulty(delta int) {
	n := len(model.Difficulties())
	m.Form.DifficultyCursor = (m.Form.DifficultyCursor + delta + n) % n
}

func (m Model) formDifficulty() model.Difficulty {
	all := model.Difficulties()
	if m.Form.DifficultyCursor < 0 || m.Form.DifficultyCursor >= len(all) {
		return model.DefaultDifficulty
	}
	return all[m.Form.DifficultyCursor]
}

func (m *Model) submitForm() {
	name := m.inputs[fieldName].Value()
	ifThen := m.inputs[fieldIfThen].Value()
	tasks := m.inputs[fieldTasks].Value()
	difficulty := int(m.formDifficulty())
	target := model.ParseTargetDays(m.inputs[fieldTarget].Value())

	switch m.Form.Kind {
	case FormAdd:
		err := m.createHabit(habits.CreateInput{
			Name:       name,
			IfThen:     ifThen,
			Tasks:      tasks,
			Difficulty: difficulty,
			TargetDays: target,
		})
		var verr *habits.ValidationError
		if errors.As(err, &verr) {
			m.Form.Err = verr.Message
			m.focusField(fieldName)
			return
		}
	case FormEdit:
		_ = m.editHabit(m.Form.HabitID, habits.EditInput{
			Name:       name,
			IfThen:     ifThen,
			Tasks:      tasks,
			Difficulty: difficulty,
			TargetDays: target,
		})
	}
	m.closeForm()
}

func difficultyIndex(d model.Difficulty) int {
	for i, candidate := range model.Difficulties() {
		if candidate == d {
			return i
		}
	}
	return 0
}
