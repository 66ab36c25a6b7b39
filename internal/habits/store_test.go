package habits

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sandeepkv93/habitgarden/internal/model"
	"github.com/sandeepkv93/habitgarden/internal/storage"
)

type memPersister struct {
	mu      sync.Mutex
	loaded  []model.Habit
	loadErr error
	saveErr error
	saves   [][]model.Habit
}

func (p *memPersister) Load(context.Context) ([]model.Habit, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.loadErr != nil {
		return nil, p.loadErr
	}
	return model.CloneAll(p.loaded), nil
}

func (p *memPersister) Save(_ context.Context, habits []model.Habit) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.saveErr != nil {
		return p.saveErr
	}
	p.saves = append(p.saves, model.CloneAll(habits))
	return nil
}

func (p *memPersister) last() []model.Habit {
	p.mu.Lock()
	defer p.mu.Unlock()
	if len(p.saves) == 0 {
		return nil
	}
	return p.saves[len(p.saves)-1]
}

type countingCelebrator struct {
	mu    sync.Mutex
	calls []int
}

func (c *countingCelebrator) Celebrate(_ string, _ string, gain, _ int) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.calls = append(c.calls, gain)
	return nil
}

func sequentialIDs() func() string {
	n := 0
	return func() string {
		n++
		return fmt.Sprintf("habit-%02d", n)
	}
}

var baseTime = time.Date(2026, 2, 9, 8, 0, 0, 0, time.UTC)

func openEmpty(t *testing.T, opts ...Option) (*Store, *memPersister) {
	t.Helper()
	p := &memPersister{loaded: []model.Habit{}}
	opts = append([]Option{WithIDGenerator(sequentialIDs()), WithClock(func() time.Time { return baseTime })}, opts...)
	s, err := Open(context.Background(), p, opts...)
	require.NoError(t, err)
	return s, p
}

func createHabit(t *testing.T, s *Store, name string, difficulty int) model.Habit {
	t.Helper()
	snapshot, err := s.Create(context.Background(), CreateInput{Name: name, Difficulty: difficulty})
	require.NoError(t, err)
	return snapshot[len(snapshot)-1]
}

func TestOpenRequiresPersister(t *testing.T) {
	_, err := Open(context.Background(), nil)
	require.Error(t, err)
}

func TestOpenSeedsWhenNothingStored(t *testing.T) {
	p := &memPersister{loadErr: storage.ErrNotFound}
	s, err := Open(context.Background(), p, WithIDGenerator(sequentialIDs()))
	require.NoError(t, err)

	got := s.Habits()
	require.Len(t, got, 2)
	require.Equal(t, "Morning Walk", got[0].Name)
	require.Equal(t, []string{"Shoes on", "Fill bottle", "10-min route"}, got[0].Tasks)
	require.Equal(t, model.DifficultyEasy, got[0].Difficulty)
	require.Equal(t, "Deep Work (25m)", got[1].Name)
	require.Equal(t, model.DifficultyMedium, got[1].Difficulty)
	require.Equal(t, 5, got[1].TargetDays)
	require.NotEqual(t, got[0].ID, got[1].ID)
	require.Len(t, p.last(), 2, "seed should be persisted")
}

func TestOpenSeedsOnCorruptData(t *testing.T) {
	p := &memPersister{loadErr: errors.New("unexpected end of JSON input")}
	s, err := Open(context.Background(), p)
	require.NoError(t, err)
	require.Len(t, s.Habits(), 2)
}

func TestOpenKeepsSavedEmptyCollection(t *testing.T) {
	s, _ := openEmpty(t)
	require.Empty(t, s.Habits())
	require.Equal(t, 0, s.TotalXP())
}

func TestOpenNormalizesLoadedHabits(t *testing.T) {
	done := baseTime.Add(-time.Hour)
	p := &memPersister{loaded: []model.Habit{
		{ID: "a", Name: " Walk ", Tasks: []string{"- Shoes on", "•  Fill bottle", "  "}, Difficulty: 0, TargetDays: 12},
		{ID: "a", Name: "Dup", Difficulty: 9, TargetDays: 3, Streak: 2, LastDone: &done, History: []time.Time{done, done.Add(-time.Hour)}},
		{ID: "", Name: "Blank", Difficulty: 2, TargetDays: 0, Streak: 4},
	}}
	s, err := Open(context.Background(), p, WithIDGenerator(sequentialIDs()))
	require.NoError(t, err)

	got := s.Habits()
	require.Len(t, got, 3)
	require.Equal(t, "Walk", got[0].Name)
	require.Equal(t, []string{"Shoes on", "Fill bottle"}, got[0].Tasks)
	require.Equal(t, model.DifficultyEasy, got[0].Difficulty)
	require.Equal(t, 7, got[0].TargetDays)
	require.Equal(t, model.DifficultyTough, got[1].Difficulty)
	require.Equal(t, 5, got[2].TargetDays)
	require.Equal(t, 0, got[2].Streak, "streak without last done is cleared")

	ids := map[string]bool{}
	for _, h := range got {
		require.False(t, ids[h.ID], "duplicate id %q", h.ID)
		ids[h.ID] = true
		require.NoError(t, h.Validate())
	}
}

func TestCreateAppliesDefaultsAndNormalization(t *testing.T) {
	s, p := openEmpty(t)
	snapshot, err := s.Create(context.Background(), CreateInput{
		Name:   "  Morning Walk ",
		IfThen: " If 7 AM, then walk ",
		Tasks:  "- Shoes on, •Fill bottle, **10-min route",
	})
	require.NoError(t, err)
	require.Len(t, snapshot, 1)

	h := snapshot[0]
	require.Equal(t, "habit-01", h.ID)
	require.Equal(t, "Morning Walk", h.Name)
	require.Equal(t, "If 7 AM, then walk", h.IfThen)
	require.Equal(t, []string{"Shoes on", "Fill bottle", "10-min route"}, h.Tasks)
	require.Equal(t, model.DifficultyEasy, h.Difficulty)
	require.Equal(t, 5, h.TargetDays)
	require.Zero(t, h.Streak)
	require.Zero(t, h.XP)
	require.Nil(t, h.LastDone)
	require.Empty(t, h.History)
	require.Equal(t, snapshot, p.last())
}

func TestCreateClampsRanges(t *testing.T) {
	s, _ := openEmpty(t)
	snapshot, err := s.Create(context.Background(), CreateInput{Name: "x", Difficulty: 7, TargetDays: 30})
	require.NoError(t, err)
	require.Equal(t, model.DifficultyTough, snapshot[0].Difficulty)
	require.Equal(t, 7, snapshot[0].TargetDays)

	snapshot, err = s.Create(context.Background(), CreateInput{Name: "y", Difficulty: -2, TargetDays: -1})
	require.NoError(t, err)
	require.Equal(t, model.DifficultyEasy, snapshot[1].Difficulty)
	require.Equal(t, 1, snapshot[1].TargetDays)
}

func TestCreateRejectsEmptyName(t *testing.T) {
	s, p := openEmpty(t)
	createHabit(t, s, "Keep", 1)
	savesBefore := len(p.saves)

	_, err := s.Create(context.Background(), CreateInput{Name: "   "})
	var verr *ValidationError
	require.ErrorAs(t, err, &verr)
	require.Equal(t, "name", verr.Field)
	require.Len(t, s.Habits(), 1)
	require.Len(t, p.saves, savesBefore)
}

func TestFirstCompletionOnMediumHabit(t *testing.T) {
	celebrations := &countingCelebrator{}
	s, _ := openEmpty(t, WithEvents(celebrations))
	h := createHabit(t, s, "Deep Work", 2)

	snapshot, err := s.CompleteAt(context.Background(), h.ID, baseTime)
	require.NoError(t, err)
	require.Equal(t, 1, snapshot[0].Streak)
	require.Equal(t, 21, snapshot[0].XP)
	require.NotNil(t, snapshot[0].LastDone)
	require.True(t, snapshot[0].LastDone.Equal(baseTime))
	require.Len(t, snapshot[0].History, 1)
	require.Equal(t, []int{21}, celebrations.calls)
}

func TestCompleteUsesInjectedClock(t *testing.T) {
	s, _ := openEmpty(t)
	h := createHabit(t, s, "Walk", 1)
	snapshot, err := s.Complete(context.Background(), h.ID)
	require.NoError(t, err)
	require.True(t, snapshot[0].LastDone.Equal(baseTime))
}

func TestCompleteTwiceSameDay(t *testing.T) {
	celebrations := &countingCelebrator{}
	s, _ := openEmpty(t, WithEvents(celebrations))
	h := createHabit(t, s, "Walk", 1)
	ctx := context.Background()

	first, err := s.CompleteAt(ctx, h.ID, baseTime)
	require.NoError(t, err)
	second, err := s.CompleteAt(ctx, h.ID, baseTime.Add(3*time.Hour))
	require.NoError(t, err)

	require.Equal(t, first[0].Streak, second[0].Streak)
	require.Greater(t, second[0].XP, first[0].XP)
	require.Len(t, second[0].History, 2)
	require.Len(t, celebrations.calls, 2)
}

func TestConsecutiveDaysGrowStreakAndCapGain(t *testing.T) {
	s, _ := openEmpty(t)
	h := createHabit(t, s, "Walk", 1)
	ctx := context.Background()

	prevXP := 0
	gains := make([]int, 0, 14)
	for day := 0; day < 14; day++ {
		snapshot, err := s.CompleteAt(ctx, h.ID, baseTime.Add(time.Duration(day)*model.Day))
		require.NoError(t, err)
		require.Equal(t, day+1, snapshot[0].Streak)
		gains = append(gains, snapshot[0].XP-prevXP)
		prevXP = snapshot[0].XP
	}
	for i := 1; i < len(gains); i++ {
		require.GreaterOrEqual(t, gains[i], gains[i-1])
	}
	for i := 9; i < len(gains); i++ {
		require.Equal(t, 15, gains[i], "gain at streak %d", i+1)
	}
}

func TestGapResetsStreak(t *testing.T) {
	s, _ := openEmpty(t)
	h := createHabit(t, s, "Walk", 1)
	ctx := context.Background()

	for day := 0; day < 3; day++ {
		_, err := s.CompleteAt(ctx, h.ID, baseTime.Add(time.Duration(day)*model.Day))
		require.NoError(t, err)
	}
	snapshot, err := s.CompleteAt(ctx, h.ID, baseTime.Add(5*model.Day))
	require.NoError(t, err)
	require.Equal(t, 1, snapshot[0].Streak)
}

func TestBackwardsClockKeepsStreakAndHistoryOrder(t *testing.T) {
	s, _ := openEmpty(t)
	h := createHabit(t, s, "Walk", 1)
	ctx := context.Background()

	_, err := s.CompleteAt(ctx, h.ID, baseTime)
	require.NoError(t, err)
	snapshot, err := s.CompleteAt(ctx, h.ID, baseTime.Add(-2*model.Day))
	require.NoError(t, err)
	require.Equal(t, 1, snapshot[0].Streak)
	require.NoError(t, snapshot[0].Validate())
	require.NotNil(t, snapshot[0].LastDone)
	require.True(t, snapshot[0].LastDone.Equal(baseTime), "last done must stay at the newest completion")
	require.True(t, snapshot[0].History[len(snapshot[0].History)-1].Equal(*snapshot[0].LastDone))

	snapshot, err = s.CompleteAt(ctx, h.ID, baseTime.Add(model.Day))
	require.NoError(t, err)
	require.Equal(t, 2, snapshot[0].Streak, "next day still extends the streak")
}

func TestCompleteUnknownHabit(t *testing.T) {
	celebrations := &countingCelebrator{}
	s, _ := openEmpty(t, WithEvents(celebrations))
	_, err := s.Complete(context.Background(), "nope")
	var nf *NotFoundError
	require.ErrorAs(t, err, &nf)
	require.Equal(t, "nope", nf.ID)
	require.Empty(t, celebrations.calls)
}

func TestResetClearsProgress(t *testing.T) {
	s, _ := openEmpty(t)
	h := createHabit(t, s, "Walk", 3)
	ctx := context.Background()
	_, err := s.CompleteAt(ctx, h.ID, baseTime)
	require.NoError(t, err)

	snapshot, err := s.Reset(ctx, h.ID)
	require.NoError(t, err)
	require.Zero(t, snapshot[0].Streak)
	require.Zero(t, snapshot[0].XP)
	require.Nil(t, snapshot[0].LastDone)
	require.Empty(t, snapshot[0].History)

	// Reset is unconditional.
	_, err = s.Reset(ctx, h.ID)
	require.NoError(t, err)

	_, err = s.Reset(ctx, "missing")
	require.ErrorAs(t, err, new(*NotFoundError))
}

func TestDeletePreservesOrder(t *testing.T) {
	s, p := openEmpty(t)
	a := createHabit(t, s, "A", 1)
	b := createHabit(t, s, "B", 1)
	c := createHabit(t, s, "C", 1)

	snapshot, err := s.Delete(context.Background(), b.ID)
	require.NoError(t, err)
	require.Len(t, snapshot, 2)
	require.Equal(t, a.ID, snapshot[0].ID)
	require.Equal(t, c.ID, snapshot[1].ID)
	require.Len(t, p.last(), 2)

	_, err = s.Get(b.ID)
	require.ErrorAs(t, err, new(*NotFoundError))
	_, err = s.Delete(context.Background(), b.ID)
	require.ErrorAs(t, err, new(*NotFoundError))
}

func TestEditKeepsNameWhenEmptyAndProgress(t *testing.T) {
	s, _ := openEmpty(t)
	h := createHabit(t, s, "Walk", 1)
	ctx := context.Background()
	_, err := s.CompleteAt(ctx, h.ID, baseTime)
	require.NoError(t, err)

	snapshot, err := s.Edit(ctx, h.ID, EditInput{
		Name:       "  ",
		IfThen:     "If lunch, then walk",
		Tasks:      "* Shoes, - Route",
		Difficulty: 3,
		TargetDays: 4,
	})
	require.NoError(t, err)
	got := snapshot[0]
	require.Equal(t, "Walk", got.Name)
	require.Equal(t, "If lunch, then walk", got.IfThen)
	require.Equal(t, []string{"Shoes", "Route"}, got.Tasks)
	require.Equal(t, model.DifficultyTough, got.Difficulty)
	require.Equal(t, 4, got.TargetDays)
	require.Equal(t, 1, got.Streak)
	require.Equal(t, 11, got.XP)
	require.Len(t, got.History, 1)

	snapshot, err = s.Edit(ctx, h.ID, EditInput{Name: "Lunch Walk"})
	require.NoError(t, err)
	require.Equal(t, "Lunch Walk", snapshot[0].Name)
	require.Empty(t, snapshot[0].Tasks)
	require.Equal(t, model.DifficultyEasy, snapshot[0].Difficulty)
	require.Equal(t, 5, snapshot[0].TargetDays)

	_, err = s.Edit(ctx, "missing", EditInput{Name: "x"})
	require.ErrorAs(t, err, new(*NotFoundError))
}

func TestTotalXPAndWeeklyQueries(t *testing.T) {
	s, _ := openEmpty(t)
	a := createHabit(t, s, "A", 1)
	b := createHabit(t, s, "B", 2)
	ctx := context.Background()

	_, err := s.CompleteAt(ctx, a.ID, baseTime.Add(-8*model.Day))
	require.NoError(t, err)
	_, err = s.CompleteAt(ctx, a.ID, baseTime.Add(-model.Day))
	require.NoError(t, err)
	_, err = s.CompleteAt(ctx, b.ID, baseTime)
	require.NoError(t, err)

	require.Equal(t, 11+11+21, s.TotalXP())

	count, err := s.WeekCountFor(a.ID, baseTime)
	require.NoError(t, err)
	require.Equal(t, 1, count)

	progress, err := s.ProgressFor(a.ID, baseTime)
	require.NoError(t, err)
	require.InDelta(t, 0.2, progress, 1e-9)

	_, err = s.WeekCountFor("missing", baseTime)
	require.ErrorAs(t, err, new(*NotFoundError))
	_, err = s.ProgressFor("missing", baseTime)
	require.ErrorAs(t, err, new(*NotFoundError))
}

func TestSnapshotsAreIsolated(t *testing.T) {
	s, _ := openEmpty(t)
	h := createHabit(t, s, "Walk", 1)
	snapshot := s.Habits()
	snapshot[0].Name = "mutated"
	snapshot[0].Tasks = append(snapshot[0].Tasks, "extra")

	got, err := s.Get(h.ID)
	require.NoError(t, err)
	require.Equal(t, "Walk", got.Name)
	require.Empty(t, got.Tasks)
}

func TestSaveFailureKeepsMutation(t *testing.T) {
	s, p := openEmpty(t)
	h := createHabit(t, s, "Walk", 1)

	p.mu.Lock()
	p.saveErr = errors.New("disk full")
	p.mu.Unlock()

	snapshot, err := s.CompleteAt(context.Background(), h.ID, baseTime)
	var perr *PersistenceError
	require.ErrorAs(t, err, &perr)
	require.Equal(t, "save", perr.Op)
	require.EqualError(t, errors.Unwrap(err), "disk full")
	require.Len(t, snapshot, 1)
	require.Equal(t, 11, snapshot[0].XP)

	got, err := s.Get(h.ID)
	require.NoError(t, err)
	require.Equal(t, 11, got.XP)

	p.mu.Lock()
	p.saveErr = nil
	p.mu.Unlock()
	require.NoError(t, s.Save(context.Background()))
	require.Equal(t, 11, p.last()[0].XP)
}

func TestLookupByPositionIDAndPrefix(t *testing.T) {
	s, _ := openEmpty(t, WithIDGenerator(func() func() string {
		ids := []string{"abc-1", "abd-2", "xyz-3"}
		i := 0
		return func() string {
			id := ids[i]
			i++
			return id
		}
	}()))
	createHabit(t, s, "A", 1)
	createHabit(t, s, "B", 1)
	createHabit(t, s, "C", 1)

	got, err := s.Lookup("2")
	require.NoError(t, err)
	require.Equal(t, "B", got.Name)

	got, err = s.Lookup("xyz-3")
	require.NoError(t, err)
	require.Equal(t, "C", got.Name)

	got, err = s.Lookup("abd")
	require.NoError(t, err)
	require.Equal(t, "B", got.Name)

	_, err = s.Lookup("ab")
	require.ErrorAs(t, err, new(*ValidationError))
	_, err = s.Lookup("9")
	require.ErrorAs(t, err, new(*NotFoundError))
	_, err = s.Lookup("zzz")
	require.ErrorAs(t, err, new(*NotFoundError))
}

func TestConcurrentCompletionsAreNotLost(t *testing.T) {
	s, p := openEmpty(t)
	h := createHabit(t, s, "Walk", 1)

	const workers = 16
	var wg sync.WaitGroup
	wg.Add(workers)
	for i := 0; i < workers; i++ {
		go func() {
			defer wg.Done()
			_, err := s.CompleteAt(context.Background(), h.ID, baseTime)
			assert.NoError(t, err)
		}()
	}
	wg.Wait()

	got, err := s.Get(h.ID)
	require.NoError(t, err)
	require.Len(t, got.History, workers)
	require.Len(t, p.last()[0].History, workers)
}

func TestStoreWithSQLiteRepository(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "store.db")
	repo, err := storage.OpenSQLite(ctx, path, storage.DriverCGO)
	require.NoError(t, err)
	defer repo.Close()

	s, err := Open(ctx, NewRepositoryPersister(repo))
	require.NoError(t, err)
	seeded := s.Habits()
	require.Len(t, seeded, 2)

	_, err = s.CompleteAt(ctx, seeded[1].ID, baseTime)
	require.NoError(t, err)

	reopened, err := Open(ctx, NewRepositoryPersister(repo))
	require.NoError(t, err)
	got := reopened.Habits()
	require.Len(t, got, 2)
	require.Equal(t, seeded[0].ID, got[0].ID)
	require.Equal(t, 21, got[1].XP)
	require.Equal(t, 1, got[1].Streak)
	require.True(t, got[1].LastDone.Equal(baseTime))
}

func TestStoreWithFileRepository(t *testing.T) {
	ctx := context.Background()
	repo, err := storage.NewFileRepository(filepath.Join(t.TempDir(), "habits.json"))
	require.NoError(t, err)

	s, err := Open(ctx, NewRepositoryPersister(repo))
	require.NoError(t, err)
	for _, h := range s.Habits() {
		_, err := s.Delete(ctx, h.ID)
		require.NoError(t, err)
	}

	reopened, err := Open(ctx, NewRepositoryPersister(repo))
	require.NoError(t, err)
	require.Empty(t, reopened.Habits(), "saved empty collection must not reseed")
}

func TestStoreRecoversFromCorruptStateFile(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "habits.json")
	require.NoError(t, os.WriteFile(path, []byte("{not json"), 0o644))
	repo, err := storage.NewFileRepository(path)
	require.NoError(t, err)

	s, err := Open(ctx, NewRepositoryPersister(repo))
	require.NoError(t, err)
	require.Len(t, s.Habits(), 2)

	_, err = s.Create(ctx, CreateInput{Name: "Read"})
	require.NoError(t, err)

	reopened, err := Open(ctx, NewRepositoryPersister(repo))
	require.NoError(t, err)
	got := reopened.Habits()
	require.Len(t, got, 3)
	assert.Equal(t, "Morning Walk", got[0].Name)
	assert.Equal(t, "Deep Work (25m)", got[1].Name)
	assert.Equal(t, "Read", got[2].Name)
	assert.FileExists(t, repo.CorruptPath())
}
