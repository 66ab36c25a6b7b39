package update

import (
	tea "github.com/charmbracelet/bubbletea"

	"github.com/sandeepkv93/habitgarden/internal/events"
)

func waitForCelebrationCmd(ch <-chan events.Event) tea.Cmd {
	if ch == nil {
		return nil
	}
	return func() tea.Msg {
		ev, ok := <-ch
		if !ok {
			return nil
		}
		return CelebrationMsg{Event: ev}
	}
}

func (m *Model) applyCelebration(ev events.Event) {
	switch ev.Kind {
	case events.KindCelebrate:
		m.Celebration = &Celebration{
			HabitID: ev.HabitID,
			Name:    ev.Name,
			Gain:    ev.Gain,
			Streak:  ev.Streak,
		}
	case events.KindCelebrateEnd:
		if m.Celebration != nil && m.Celebration.HabitID == ev.HabitID {
			m.Celebration = nil
		}
	}
}
