package habits

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/sandeepkv93/habitgarden/internal/model"
	"github.com/sandeepkv93/habitgarden/internal/storage"
)

// Celebrator receives one call per recorded completion.
type Celebrator interface {
	Celebrate(habitID, name string, gain, streak int) error
}

type CreateInput struct {
	Name   string
	IfThen string
	// Tasks is a comma separated checklist, normalized on create.
	Tasks      string
	Difficulty int
	TargetDays int
}

type EditInput struct {
	// An empty Name keeps the current name.
	Name       string
	IfThen     string
	Tasks      string
	Difficulty int
	TargetDays int
}

// Store owns the ordered habit collection. Every mutation holds the lock
// across the in-memory change and the save, so callers observe a fully
// persisted state between operations.
type Store struct {
	mu        sync.Mutex
	habits    []model.Habit
	persister Persister
	now       func() time.Time
	newID     func() string
	logger    *zap.Logger
	events    Celebrator
}

type Option func(*Store)

func WithClock(now func() time.Time) Option {
	return func(s *Store) {
		if now != nil {
			s.now = now
		}
	}
}

func WithIDGenerator(newID func() string) Option {
	return func(s *Store) {
		if newID != nil {
			s.newID = newID
		}
	}
}

func WithLogger(logger *zap.Logger) Option {
	return func(s *Store) {
		if logger != nil {
			s.logger = logger
		}
	}
}

func WithEvents(events Celebrator) Option {
	return func(s *Store) {
		s.events = events
	}
}

func defaultID() string {
	id, err := uuid.NewV7()
	if err != nil {
		return uuid.NewString()
	}
	return id.String()
}

// Open loads the collection through persister. Missing or unreadable data is
// replaced by the starter collection, which is then saved.
func Open(ctx context.Context, persister Persister, opts ...Option) (*Store, error) {
	if persister == nil {
		return nil, errors.New("habits: persister is required")
	}
	s := &Store{
		persister: persister,
		now:       func() time.Time { return time.Now().UTC() },
		newID:     defaultID,
		logger:    zap.NewNop(),
	}
	for _, opt := range opts {
		opt(s)
	}

	loaded, err := persister.Load(ctx)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			s.logger.Info("no saved habits, using starter collection")
		} else {
			s.logger.Warn("load habits failed, using starter collection", zap.Error(&PersistenceError{Op: "load", Err: err}))
		}
		s.habits = seedHabits(s.newID)
		if err := s.persistLocked(ctx); err != nil {
			s.logger.Warn("save starter collection failed", zap.Error(err))
		}
		return s, nil
	}

	s.habits = s.normalizeLoaded(loaded)
	s.logger.Debug("habits loaded", zap.Int("count", len(s.habits)))
	return s, nil
}

// normalizeLoaded strips task decoration, coerces out of range fields and
// replaces missing or duplicate ids. It is idempotent.
func (s *Store) normalizeLoaded(in []model.Habit) []model.Habit {
	out := make([]model.Habit, 0, len(in))
	seen := make(map[string]bool, len(in))
	for _, raw := range in {
		h := raw.Clone()
		h.ID = strings.TrimSpace(h.ID)
		if h.ID == "" || seen[h.ID] {
			old := h.ID
			h.ID = s.freshIDLocked(seen)
			s.logger.Warn("replaced unusable habit id", zap.String("old", old), zap.String("new", h.ID))
		}
		seen[h.ID] = true
		h.Name = strings.TrimSpace(h.Name)
		h.IfThen = strings.TrimSpace(h.IfThen)
		h.Tasks = model.NormalizeTasks(h.Tasks)
		h.Difficulty = model.ClampDifficulty(int(h.Difficulty))
		h.TargetDays = model.ClampTargetDays(h.TargetDays)
		if h.XP < 0 {
			h.XP = 0
		}
		if h.History == nil {
			h.History = []time.Time{}
		}
		sort.SliceStable(h.History, func(i, j int) bool { return h.History[i].Before(h.History[j]) })
		switch {
		case h.LastDone == nil || h.Streak < 0:
			h.Streak = 0
			h.LastDone = nil
		case h.Streak == 0:
			h.Streak = 1
		}
		out = append(out, h)
	}
	return out
}

func (s *Store) freshIDLocked(taken map[string]bool) string {
	for {
		id := s.newID()
		if id != "" && !taken[id] && s.indexLocked(id) < 0 {
			return id
		}
	}
}

func (s *Store) Create(ctx context.Context, in CreateInput) ([]model.Habit, error) {
	name := strings.TrimSpace(in.Name)
	if name == "" {
		return nil, &ValidationError{Field: "name", Message: "must not be empty"}
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	h := model.Habit{
		ID:         s.freshIDLocked(nil),
		Name:       name,
		IfThen:     strings.TrimSpace(in.IfThen),
		Tasks:      model.NormalizeTaskList(in.Tasks),
		Difficulty: model.ClampDifficulty(in.Difficulty),
		TargetDays: model.ClampTargetDays(in.TargetDays),
		History:    []time.Time{},
	}
	s.habits = append(s.habits, h)
	s.logger.Debug("habit created", zap.String("id", h.ID), zap.String("name", h.Name))
	return s.commitLocked(ctx, "create")
}

// Complete records a completion at the store clock's current time.
func (s *Store) Complete(ctx context.Context, id string) ([]model.Habit, error) {
	return s.CompleteAt(ctx, id, s.now())
}

func (s *Store) CompleteAt(ctx context.Context, id string, now time.Time) ([]model.Habit, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	idx := s.indexLocked(id)
	if idx < 0 {
		return nil, &NotFoundError{ID: id}
	}
	h := &s.habits[idx]
	h.Streak = model.NextStreak(h.Streak, h.LastDone, now)
	gain := model.ComputeXPGain(model.BaseXP, int(h.Difficulty), h.Streak)
	h.XP += gain
	// LastDone never moves backwards, so it stays the newest history entry.
	if h.LastDone == nil || now.After(*h.LastDone) {
		done := now
		h.LastDone = &done
	}
	h.History = insertChronological(h.History, now)

	s.logger.Debug("habit completed",
		zap.String("id", h.ID),
		zap.Int("streak", h.Streak),
		zap.Int("gain", gain),
		zap.Int("xp", h.XP))
	if s.events != nil {
		if err := s.events.Celebrate(h.ID, h.Name, gain, h.Streak); err != nil {
			s.logger.Warn("celebration not published", zap.Error(err))
		}
	}
	return s.commitLocked(ctx, "complete")
}

// Reset zeroes progress regardless of current state.
func (s *Store) Reset(ctx context.Context, id string) ([]model.Habit, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	idx := s.indexLocked(id)
	if idx < 0 {
		return nil, &NotFoundError{ID: id}
	}
	h := &s.habits[idx]
	h.Streak = 0
	h.XP = 0
	h.LastDone = nil
	h.History = []time.Time{}
	s.logger.Debug("habit reset", zap.String("id", id))
	return s.commitLocked(ctx, "reset")
}

func (s *Store) Delete(ctx context.Context, id string) ([]model.Habit, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	idx := s.indexLocked(id)
	if idx < 0 {
		return nil, &NotFoundError{ID: id}
	}
	s.habits = append(s.habits[:idx:idx], s.habits[idx+1:]...)
	s.logger.Debug("habit deleted", zap.String("id", id))
	return s.commitLocked(ctx, "delete")
}

func (s *Store) Edit(ctx context.Context, id string, in EditInput) ([]model.Habit, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	idx := s.indexLocked(id)
	if idx < 0 {
		return nil, &NotFoundError{ID: id}
	}
	h := &s.habits[idx]
	if name := strings.TrimSpace(in.Name); name != "" {
		h.Name = name
	}
	h.IfThen = strings.TrimSpace(in.IfThen)
	h.Tasks = model.NormalizeTaskList(in.Tasks)
	h.Difficulty = model.ClampDifficulty(in.Difficulty)
	h.TargetDays = model.ClampTargetDays(in.TargetDays)
	s.logger.Debug("habit edited", zap.String("id", id))
	return s.commitLocked(ctx, "edit")
}

// Save retries persisting the current collection, typically after a
// PersistenceError from a mutation.
func (s *Store) Save(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.persistLocked(ctx)
}

func (s *Store) TotalXP() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	total := 0
	for _, h := range s.habits {
		total += h.XP
	}
	return total
}

func (s *Store) WeekCountFor(id string, now time.Time) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	idx := s.indexLocked(id)
	if idx < 0 {
		return 0, &NotFoundError{ID: id}
	}
	return model.WeeklyCompletionCount(s.habits[idx].History, now), nil
}

// ProgressFor is the weekly completion ratio toward the habit's target,
// capped at 1.
func (s *Store) ProgressFor(id string, now time.Time) (float64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	idx := s.indexLocked(id)
	if idx < 0 {
		return 0, &NotFoundError{ID: id}
	}
	h := s.habits[idx]
	return model.WeeklyProgress(model.WeeklyCompletionCount(h.History, now), h.TargetDays), nil
}

func (s *Store) Habits() []model.Habit {
	s.mu.Lock()
	defer s.mu.Unlock()
	return model.CloneAll(s.habits)
}

func (s *Store) Get(id string) (model.Habit, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	idx := s.indexLocked(id)
	if idx < 0 {
		return model.Habit{}, &NotFoundError{ID: id}
	}
	return s.habits[idx].Clone(), nil
}

// Lookup resolves a user reference: a 1-based position, an exact id or a
// unique id prefix.
func (s *Store) Lookup(ref string) (model.Habit, error) {
	ref = strings.TrimSpace(ref)
	if ref == "" {
		return model.Habit{}, &ValidationError{Field: "habit", Message: "reference is required"}
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if n, err := strconv.Atoi(ref); err == nil {
		if n >= 1 && n <= len(s.habits) {
			return s.habits[n-1].Clone(), nil
		}
		return model.Habit{}, &NotFoundError{ID: ref}
	}
	if idx := s.indexLocked(ref); idx >= 0 {
		return s.habits[idx].Clone(), nil
	}
	match := -1
	for i, h := range s.habits {
		if !strings.HasPrefix(h.ID, ref) {
			continue
		}
		if match >= 0 {
			return model.Habit{}, &ValidationError{Field: "habit", Message: fmt.Sprintf("reference %q is ambiguous", ref)}
		}
		match = i
	}
	if match < 0 {
		return model.Habit{}, &NotFoundError{ID: ref}
	}
	return s.habits[match].Clone(), nil
}

func (s *Store) Now() time.Time {
	return s.now()
}

func (s *Store) indexLocked(id string) int {
	for i := range s.habits {
		if s.habits[i].ID == id {
			return i
		}
	}
	return -1
}

func (s *Store) commitLocked(ctx context.Context, op string) ([]model.Habit, error) {
	snapshot := model.CloneAll(s.habits)
	if err := s.persistLocked(ctx); err != nil {
		s.logger.Warn("persist habits failed", zap.String("op", op), zap.Error(err))
		return snapshot, err
	}
	return snapshot, nil
}

func (s *Store) persistLocked(ctx context.Context) error {
	if err := s.persister.Save(ctx, model.CloneAll(s.habits)); err != nil {
		return &PersistenceError{Op: "save", Err: err}
	}
	return nil
}

func insertChronological(history []time.Time, at time.Time) []time.Time {
	i := sort.Search(len(history), func(i int) bool { return history[i].After(at) })
	history = append(history, time.Time{})
	copy(history[i+1:], history[i:])
	history[i] = at
	return history
}
