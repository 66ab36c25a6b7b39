package update

import (
	"errors"
	"fmt"

	"go.uber.org/zap"

	"github.com/sandeepkv93/habitgarden/internal/habits"
	"github.com/sandeepkv93/habitgarden/internal/model"
)

// applyResult refreshes the snapshot after a store call and reports the
// outcome. A PersistenceError keeps the change on screen and asks for a retry.
func (m *Model) applyResult(okText string, err error) error {
	m.refreshHabits()
	if err == nil {
		m.LastError = nil
		m.Status = StatusBar{Text: okText}
		return nil
	}
	m.LastError = err
	var perr *habits.PersistenceError
	if errors.As(err, &perr) {
		m.logger.Warn("habit change not saved", zap.Error(err))
		m.Status = StatusBar{Text: fmt.Sprintf("%s, but not saved (press %s to retry): %v", okText, m.Keys.Save, perr.Err), IsError: true}
		return err
	}
	m.Status = StatusBar{Text: err.Error(), IsError: true}
	return err
}

func (m *Model) completeHabit(h model.Habit) error {
	_, err := m.store.Complete(m.ctx, h.ID)
	return m.applyResult(fmt.Sprintf("completed %s", h.Name), err)
}

func (m *Model) resetHabit(h model.Habit) error {
	_, err := m.store.Reset(m.ctx, h.ID)
	return m.applyResult(fmt.Sprintf("reset %s", h.Name), err)
}

func (m *Model) deleteHabit(h model.Habit) error {
	_, err := m.store.Delete(m.ctx, h.ID)
	return m.applyResult(fmt.Sprintf("deleted %s", h.Name), err)
}

func (m *Model) createHabit(in habits.CreateInput) error {
	snapshot, err := m.store.Create(m.ctx, in)
	var verr *habits.ValidationError
	if errors.As(err, &verr) {
		m.Status = StatusBar{Text: verr.Error(), IsError: true}
		m.LastError = err
		return err
	}
	if len(snapshot) > 0 {
		m.Cursor = len(snapshot) - 1
	}
	return m.applyResult(fmt.Sprintf("added %s", in.Name), err)
}

func (m *Model) editHabit(id string, in habits.EditInput) error {
	_, err := m.store.Edit(m.ctx, id, in)
	return m.applyResult("habit updated", err)
}

func (m *Model) retrySave() {
	if err := m.store.Save(m.ctx); err != nil {
		m.LastError = err
		m.Status = StatusBar{Text: err.Error(), IsError: true}
		return
	}
	m.LastError = nil
	m.Status = StatusBar{Text: "habits saved"}
}

func (m *Model) openConfirm(action ConfirmAction) {
	h, ok := m.selectedHabit()
	if !ok {
		return
	}
	m.Mode = ModeConfirm
	m.Confirm = ConfirmState{Action: action, HabitID: h.ID, Name: h.Name}
}

func (m *Model) resolveConfirm(accepted bool) {
	c := m.Confirm
	m.Mode = ModeList
	m.Confirm = ConfirmState{}
	if !accepted {
		m.Status = StatusBar{Text: fmt.Sprintf("%s cancelled", c.Action)}
		return
	}
	h := model.Habit{ID: c.HabitID, Name: c.Name}
	switch c.Action {
	case ConfirmReset:
		_ = m.resetHabit(h)
	case ConfirmDelete:
		_ = m.deleteHabit(h)
	}
}
