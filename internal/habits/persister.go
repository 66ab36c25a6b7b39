package habits

import (
	"context"
	"time"

	"github.com/sandeepkv93/habitgarden/internal/model"
	"github.com/sandeepkv93/habitgarden/internal/storage"
)

// Persister loads and saves the whole habit collection.
type Persister interface {
	Load(ctx context.Context) ([]model.Habit, error)
	Save(ctx context.Context, habits []model.Habit) error
}

// RepositoryPersister adapts a storage.Repository to a Persister.
type RepositoryPersister struct {
	Repo storage.Repository
}

func NewRepositoryPersister(repo storage.Repository) RepositoryPersister {
	return RepositoryPersister{Repo: repo}
}

func (p RepositoryPersister) Load(ctx context.Context) ([]model.Habit, error) {
	rows, err := p.Repo.LoadHabits(ctx)
	if err != nil {
		return nil, err
	}
	out := make([]model.Habit, 0, len(rows))
	for _, row := range rows {
		out = append(out, fromStorageHabit(row))
	}
	return out, nil
}

func (p RepositoryPersister) Save(ctx context.Context, habits []model.Habit) error {
	rows := make([]storage.Habit, 0, len(habits))
	for i, h := range habits {
		rows = append(rows, toStorageHabit(i, h))
	}
	return p.Repo.SaveHabits(ctx, rows)
}

func toStorageHabit(position int, h model.Habit) storage.Habit {
	return storage.Habit{
		ID:         h.ID,
		Position:   position,
		Name:       h.Name,
		IfThen:     h.IfThen,
		Tasks:      append([]string(nil), h.Tasks...),
		Difficulty: int(h.Difficulty),
		TargetDays: h.TargetDays,
		Streak:     h.Streak,
		XP:         h.XP,
		LastDone:   copyTime(h.LastDone),
		History:    append([]time.Time(nil), h.History...),
	}
}

func fromStorageHabit(row storage.Habit) model.Habit {
	return model.Habit{
		ID:         row.ID,
		Name:       row.Name,
		IfThen:     row.IfThen,
		Tasks:      append([]string(nil), row.Tasks...),
		Difficulty: model.Difficulty(row.Difficulty),
		TargetDays: row.TargetDays,
		Streak:     row.Streak,
		XP:         row.XP,
		LastDone:   copyTime(row.LastDone),
		History:    append([]time.Time(nil), row.History...),
	}
}

func copyTime(v *time.Time) *time.Time {
	if v == nil {
		return nil
	}
	out := *v
	return &out
}
