package storage

import "time"

// Habit is the persisted shape of one habit. Position records collection
// order; History is chronological.
type Habit struct {
	ID         string
	Position   int
	Name       string
	IfThen     string
	Tasks      []string
	Difficulty int
	TargetDays int
	Streak     int
	XP         int
	LastDone   *time.Time
	History    []time.Time
}

type Setting struct {
	Key       string
	Value     string
	UpdatedAt time.Time
}

type HabitListFilter struct {
	Limit  int
	Offset int
}
