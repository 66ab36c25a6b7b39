package storage

import (
	"context"
	"database/sql"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
)

func setupRepo(t *testing.T) *SQLiteRepository {
	t.Helper()
	dbPath := filepath.Join(t.TempDir(), "habitgarden-test.db")
	db, err := sql.Open(DriverCGO, dbPath)
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	db.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = db.Close() })

	if err := MigrateUp(context.Background(), db); err != nil {
		t.Fatalf("migrate up: %v", err)
	}

	repo, err := NewSQLiteRepository(db)
	if err != nil {
		t.Fatalf("new repo: %v", err)
	}
	return repo
}

func parseRFC3339(t *testing.T, value string) time.Time {
	t.Helper()
	out, err := time.Parse(time.RFC3339, value)
	if err != nil {
		t.Fatalf("parse time: %v", err)
	}
	return out
}

func sampleHabits(t *testing.T) []Habit {
	t.Helper()
	first := parseRFC3339(t, "2026-02-08T07:00:00Z")
	second := parseRFC3339(t, "2026-02-09T07:30:00Z")
	return []Habit{
		{
			ID:         "habit-walk",
			Position:   0,
			Name:       "Morning Walk",
			IfThen:     "If it is 7:00 AM, then I will walk.",
			Tasks:      []string{"Shoes on", "Fill bottle"},
			Difficulty: 1,
			TargetDays: 5,
			Streak:     2,
			XP:         21,
			LastDone:   &second,
			History:    []time.Time{first, second},
		},
		{
			ID:         "habit-deep",
			Position:   1,
			Name:       "Deep Work (25m)",
			IfThen:     "",
			Tasks:      []string{},
			Difficulty: 2,
			TargetDays: 3,
			History:    []time.Time{},
		},
	}
}

func TestLoadHabitsBeforeFirstSave(t *testing.T) {
	repo := setupRepo(t)
	if _, err := repo.LoadHabits(context.Background()); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound before first save, got %v", err)
	}
}

func TestSaveAndLoadHabitsSnapshot(t *testing.T) {
	repo := setupRepo(t)
	ctx := context.Background()
	want := sampleHabits(t)

	if err := repo.SaveHabits(ctx, want); err != nil {
		t.Fatalf("save habits: %v", err)
	}
	got, err := repo.LoadHabits(ctx)
	if err != nil {
		t.Fatalf("load habits: %v", err)
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Fatalf("snapshot mismatch (-want +got):\n%s", diff)
	}
}

func TestSaveHabitsReplacesPreviousSnapshot(t *testing.T) {
	repo := setupRepo(t)
	ctx := context.Background()
	habits := sampleHabits(t)
	if err := repo.SaveHabits(ctx, habits); err != nil {
		t.Fatalf("save habits: %v", err)
	}

	kept := habits[1]
	kept.Position = 0
	if err := repo.SaveHabits(ctx, []Habit{kept}); err != nil {
		t.Fatalf("save reduced snapshot: %v", err)
	}
	got, err := repo.LoadHabits(ctx)
	if err != nil {
		t.Fatalf("load habits: %v", err)
	}
	if diff := cmp.Diff([]Habit{kept}, got); diff != "" {
		t.Fatalf("reduced snapshot mismatch (-want +got):\n%s", diff)
	}

	var orphans int
	if err := repo.DB().QueryRowContext(ctx, `SELECT COUNT(*) FROM habit_history`).Scan(&orphans); err != nil {
		t.Fatalf("count history: %v", err)
	}
	if orphans != 0 {
		t.Fatalf("expected history of removed habit to be gone, got %d rows", orphans)
	}
}

func TestSaveEmptySnapshotIsNotNotFound(t *testing.T) {
	repo := setupRepo(t)
	ctx := context.Background()
	if err := repo.SaveHabits(ctx, nil); err != nil {
		t.Fatalf("save empty: %v", err)
	}
	got, err := repo.LoadHabits(ctx)
	if err != nil {
		t.Fatalf("load after empty save: %v", err)
	}
	if len(got) != 0 {
		t.Fatalf("expected no habits, got %d", len(got))
	}
}

func TestListHabitsPagination(t *testing.T) {
	repo := setupRepo(t)
	ctx := context.Background()
	if err := repo.SaveHabits(ctx, sampleHabits(t)); err != nil {
		t.Fatalf("save habits: %v", err)
	}

	first, err := repo.ListHabits(ctx, HabitListFilter{Limit: 1})
	if err != nil {
		t.Fatalf("list first page: %v", err)
	}
	if len(first) != 1 || first[0].ID != "habit-walk" {
		t.Fatalf("unexpected first page: %#v", first)
	}
	rest, err := repo.ListHabits(ctx, HabitListFilter{Offset: 1})
	if err != nil {
		t.Fatalf("list offset page: %v", err)
	}
	if len(rest) != 1 || rest[0].ID != "habit-deep" {
		t.Fatalf("unexpected offset page: %#v", rest)
	}
}

func TestSettingsUpsert(t *testing.T) {
	repo := setupRepo(t)
	ctx := context.Background()

	if _, err := repo.GetSetting(ctx, SettingTheme); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound for missing setting, got %v", err)
	}
	at := parseRFC3339(t, "2026-02-09T12:00:00Z")
	if err := repo.SetSetting(ctx, Setting{Key: SettingTheme, Value: "light", UpdatedAt: at}); err != nil {
		t.Fatalf("set setting: %v", err)
	}
	if err := repo.SetSetting(ctx, Setting{Key: SettingTheme, Value: "dark", UpdatedAt: at.Add(time.Minute)}); err != nil {
		t.Fatalf("overwrite setting: %v", err)
	}
	got, err := repo.GetSetting(ctx, SettingTheme)
	if err != nil {
		t.Fatalf("get setting: %v", err)
	}
	want := Setting{Key: SettingTheme, Value: "dark", UpdatedAt: at.Add(time.Minute)}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Fatalf("setting mismatch (-want +got):\n%s", diff)
	}
	if err := repo.SetSetting(ctx, Setting{Key: "  "}); err == nil {
		t.Fatal("expected error for blank key")
	}
}

func TestOpenSQLiteWithBothDrivers(t *testing.T) {
	for _, driver := range []string{DriverCGO, DriverPureGo} {
		t.Run(driver, func(t *testing.T) {
			ctx := context.Background()
			path := filepath.Join(t.TempDir(), "open-"+driver+".db")
			repo, err := OpenSQLite(ctx, path, driver)
			if err != nil {
				t.Fatalf("open sqlite: %v", err)
			}
			defer repo.Close()

			want := sampleHabits(t)
			if err := repo.SaveHabits(ctx, want); err != nil {
				t.Fatalf("save habits: %v", err)
			}
			got, err := repo.LoadHabits(ctx)
			if err != nil {
				t.Fatalf("load habits: %v", err)
			}
			if diff := cmp.Diff(want, got); diff != "" {
				t.Fatalf("snapshot mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestOpenSQLiteRejectsUnknownDriver(t *testing.T) {
	if _, err := OpenSQLite(context.Background(), filepath.Join(t.TempDir(), "x.db"), "postgres"); err == nil {
		t.Fatal("expected unsupported driver error")
	}
}
