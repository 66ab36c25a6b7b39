package model

import (
	"strconv"
	"strings"
	"unicode"
)

// StripTaskDecoration removes a leading run of whitespace, bullets, dashes
// and asterisks, then trims the result. It is idempotent.
func StripTaskDecoration(task string) string {
	trimmed := strings.TrimLeftFunc(task, isTaskDecoration)
	return strings.TrimSpace(trimmed)
}

func isTaskDecoration(r rune) bool {
	switch r {
	case '•', '-', '–', '—', '*':
		return true
	default:
		return unicode.IsSpace(r)
	}
}

// NormalizeTaskList splits comma separated input into clean task entries.
// Order and duplicates are kept; empty pieces are dropped.
func NormalizeTaskList(rawCSV string) []string {
	out := make([]string, 0)
	for _, piece := range strings.Split(rawCSV, ",") {
		task := StripTaskDecoration(piece)
		if task == "" {
			continue
		}
		out = append(out, task)
	}
	return out
}

// NormalizeTasks applies StripTaskDecoration to already split tasks.
func NormalizeTasks(tasks []string) []string {
	out := make([]string, 0, len(tasks))
	for _, t := range tasks {
		task := StripTaskDecoration(t)
		if task == "" {
			continue
		}
		out = append(out, task)
	}
	return out
}

// FormatTaskList joins tasks for display in a single line input.
func FormatTaskList(tasks []string) string {
	return strings.Join(tasks, ", ")
}

// ParseDifficulty accepts 1-3 or easy/medium/tough. Anything else yields the
// default; numbers outside the range are clamped.
func ParseDifficulty(raw string) Difficulty {
	s := strings.ToLower(strings.TrimSpace(raw))
	switch s {
	case "easy":
		return DifficultyEasy
	case "medium":
		return DifficultyMedium
	case "tough", "hard":
		return DifficultyTough
	}
	n, err := strconv.Atoi(s)
	if err != nil {
		return DefaultDifficulty
	}
	return ClampDifficulty(n)
}

// ClampDifficulty defaults zero to DefaultDifficulty and clamps the rest.
func ClampDifficulty(n int) Difficulty {
	switch {
	case n == 0:
		return DefaultDifficulty
	case n < int(DifficultyEasy):
		return DifficultyEasy
	case n > int(DifficultyTough):
		return DifficultyTough
	default:
		return Difficulty(n)
	}
}

func ParseTargetDays(raw string) int {
	n, err := strconv.Atoi(strings.TrimSpace(raw))
	if err != nil {
		return DefaultTargetDays
	}
	return ClampTargetDays(n)
}

// ClampTargetDays defaults zero to DefaultTargetDays and clamps to [1,7].
func ClampTargetDays(n int) int {
	switch {
	case n == 0:
		return DefaultTargetDays
	case n < MinTargetDays:
		return MinTargetDays
	case n > MaxTargetDays:
		return MaxTargetDays
	default:
		return n
	}
}
