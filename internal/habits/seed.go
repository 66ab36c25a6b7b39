package habits

import (
	"time"

	"github.com/sandeepkv93/habitgarden/internal/model"
)

// seedHabits is the starter collection used when nothing usable is stored.
func seedHabits(newID func() string) []model.Habit {
	return []model.Habit{
		{
			ID:         newID(),
			Name:       "Morning Walk",
			IfThen:     "If it is 7:00 AM, then I will walk right after coffee.",
			Tasks:      []string{"Shoes on", "Fill bottle", "10-min route"},
			Difficulty: model.DifficultyEasy,
			TargetDays: model.DefaultTargetDays,
			History:    []time.Time{},
		},
		{
			ID:         newID(),
			Name:       "Deep Work (25m)",
			IfThen:     "If it is 9:30 AM, then I will start a 25m focus block.",
			Tasks:      []string{"Phone on DND", "One task", "Timer on"},
			Difficulty: model.DifficultyMedium,
			TargetDays: model.DefaultTargetDays,
			History:    []time.Time{},
		},
	}
}
