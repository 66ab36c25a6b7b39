package model

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

var (
	ErrInvalidDifficulty = errors.New("model: invalid habit difficulty")
	ErrInvalidTarget     = errors.New("model: invalid weekly target")
	ErrInvalidTheme      = errors.New("model: invalid theme")
)

type Difficulty int

const (
	DifficultyEasy   Difficulty = 1
	DifficultyMedium Difficulty = 2
	DifficultyTough  Difficulty = 3
)

const (
	DefaultDifficulty = DifficultyEasy
	DefaultTargetDays = 5
	MinTargetDays     = 1
	MaxTargetDays     = 7
)

func (d Difficulty) IsValid() bool {
	return d >= DifficultyEasy && d <= DifficultyTough
}

func (d Difficulty) Label() string {
	switch d {
	case DifficultyEasy:
		return "Easy"
	case DifficultyMedium:
		return "Medium"
	case DifficultyTough:
		return "Tough"
	default:
		return fmt.Sprintf("Difficulty(%d)", int(d))
	}
}

// Difficulties lists the selectable difficulties in display order.
func Difficulties() []Difficulty {
	return []Difficulty{DifficultyEasy, DifficultyMedium, DifficultyTough}
}

type Theme string

const (
	ThemeLight Theme = "light"
	ThemeDark  Theme = "dark"
)

func (t Theme) IsValid() bool {
	return t == ThemeLight || t == ThemeDark
}

// Toggle returns the other theme. Unknown values toggle to dark, matching
// their light fallback.
func (t Theme) Toggle() Theme {
	if t == ThemeDark {
		return ThemeLight
	}
	return ThemeDark
}

// ParseTheme accepts "light" or "dark" in any case and falls back to light.
func ParseTheme(raw string) Theme {
	t := Theme(strings.ToLower(strings.TrimSpace(raw)))
	if !t.IsValid() {
		return ThemeLight
	}
	return t
}

type Habit struct {
	ID         string
	Name       string
	IfThen     string
	Tasks      []string
	Difficulty Difficulty
	TargetDays int
	Streak     int
	XP         int
	LastDone   *time.Time
	History    []time.Time
}

func (h Habit) Validate() error {
	if strings.TrimSpace(h.ID) == "" {
		return errors.New("model: habit id is required")
	}
	if strings.TrimSpace(h.Name) == "" {
		return errors.New("model: habit name is required")
	}
	if !h.Difficulty.IsValid() {
		return fmt.Errorf("%w: %d", ErrInvalidDifficulty, h.Difficulty)
	}
	if h.TargetDays < MinTargetDays || h.TargetDays > MaxTargetDays {
		return fmt.Errorf("%w: %d", ErrInvalidTarget, h.TargetDays)
	}
	if h.Streak < 0 {
		return errors.New("model: streak must not be negative")
	}
	if h.XP < 0 {
		return errors.New("model: xp must not be negative")
	}
	if h.Streak == 0 && h.LastDone != nil {
		return errors.New("model: last_done must be nil when streak is zero")
	}
	if h.Streak > 0 && h.LastDone == nil {
		return errors.New("model: last_done is required when streak is positive")
	}
	for i := 1; i < len(h.History); i++ {
		if h.History[i].Before(h.History[i-1]) {
			return errors.New("model: history must be chronological")
		}
	}
	for _, task := range h.Tasks {
		if task == "" || StripTaskDecoration(task) != task {
			return fmt.Errorf("model: task %q is not normalized", task)
		}
	}
	return nil
}

// Clone returns a deep copy so callers never share slices or pointers with
// the owner of the original.
func (h Habit) Clone() Habit {
	out := h
	if h.Tasks != nil {
		out.Tasks = append([]string(nil), h.Tasks...)
	}
	if h.History != nil {
		out.History = append([]time.Time(nil), h.History...)
	}
	if h.LastDone != nil {
		last := *h.LastDone
		out.LastDone = &last
	}
	return out
}

func CloneAll(in []Habit) []Habit {
	out := make([]Habit, len(in))
	for i := range in {
		out[i] = in[i].Clone()
	}
	return out
}
