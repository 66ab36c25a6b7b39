package storage

import (
	"context"
	"errors"
)

var ErrNotFound = errors.New("storage: not found")

const (
	SettingTheme = "theme"

	settingInitialized = "habits.initialized"
)

// Repository persists the habit collection as a whole snapshot plus a small
// set of string settings. LoadHabits returns ErrNotFound until the first
// SaveHabits, so callers can tell "never saved" apart from "saved empty".
type Repository interface {
	LoadHabits(ctx context.Context) ([]Habit, error)
	SaveHabits(ctx context.Context, habits []Habit) error
	ListHabits(ctx context.Context, filter HabitListFilter) ([]Habit, error)

	GetSetting(ctx context.Context, key string) (Setting, error)
	SetSetting(ctx context.Context, in Setting) error

	Close() error
}
