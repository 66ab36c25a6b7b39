package storage

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	_ "github.com/mattn/go-sqlite3"
	_ "modernc.org/sqlite"
)

const sqliteTimeLayout = time.RFC3339Nano

const (
	// DriverCGO is github.com/mattn/go-sqlite3.
	DriverCGO = "sqlite3"
	// DriverPureGo is modernc.org/sqlite.
	DriverPureGo = "sqlite"
)

type SQLiteRepository struct {
	db  *sql.DB
	now func() time.Time
}

func NewSQLiteRepository(db *sql.DB) (*SQLiteRepository, error) {
	if db == nil {
		return nil, errors.New("storage: nil db")
	}
	if _, err := db.Exec("PRAGMA foreign_keys = ON"); err != nil {
		return nil, fmt.Errorf("enable foreign keys: %w", err)
	}
	return &SQLiteRepository{db: db, now: func() time.Time { return time.Now().UTC() }}, nil
}

// OpenSQLite opens the database at path with the given driver (DriverCGO when
// empty), applies migrations and returns a ready repository.
func OpenSQLite(ctx context.Context, path, driver string) (*SQLiteRepository, error) {
	driver = strings.TrimSpace(driver)
	if driver == "" {
		driver = DriverCGO
	}
	if driver != DriverCGO && driver != DriverPureGo {
		return nil, fmt.Errorf("storage: unsupported sqlite driver %q", driver)
	}
	db, err := sql.Open(driver, path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}
	// foreign_keys is a per-connection pragma.
	db.SetMaxOpenConns(1)
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping sqlite: %w", err)
	}
	if err := MigrateUp(ctx, db); err != nil {
		_ = db.Close()
		return nil, err
	}
	repo, err := NewSQLiteRepository(db)
	if err != nil {
		_ = db.Close()
		return nil, err
	}
	return repo, nil
}

func (r *SQLiteRepository) DB() *sql.DB {
	return r.db
}

func (r *SQLiteRepository) Close() error {
	return r.db.Close()
}

func (r *SQLiteRepository) LoadHabits(ctx context.Context) ([]Habit, error) {
	if _, err := r.GetSetting(ctx, settingInitialized); err != nil {
		return nil, err
	}
	return r.ListHabits(ctx, HabitListFilter{})
}

func (r *SQLiteRepository) ListHabits(ctx context.Context, filter HabitListFilter) ([]Habit, error) {
	query := `SELECT id, position, name, if_then, tasks, difficulty, target_days, streak, xp, last_done FROM habits ORDER BY position ASC`
	args := make([]any, 0, 2)
	query += applyPagination(&args, filter.Limit, filter.Offset)

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	out := make([]Habit, 0)
	for rows.Next() {
		item, scanErr := scanHabit(rows)
		if scanErr != nil {
			_ = rows.Close()
			return nil, scanErr
		}
		out = append(out, item)
	}
	if err := rows.Err(); err != nil {
		_ = rows.Close()
		return nil, err
	}
	_ = rows.Close()

	for i := range out {
		history, err := r.listHistory(ctx, out[i].ID)
		if err != nil {
			return nil, err
		}
		out[i].History = history
	}
	return out, nil
}

func (r *SQLiteRepository) listHistory(ctx context.Context, habitID string) ([]time.Time, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT completed_at FROM habit_history WHERE habit_id = ? ORDER BY seq ASC`, habitID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]time.Time, 0)
	for rows.Next() {
		var raw string
		if err := rows.Scan(&raw); err != nil {
			return nil, err
		}
		at, err := parseRequiredTime(raw)
		if err != nil {
			return nil, err
		}
		out = append(out, at)
	}
	return out, rows.Err()
}

// SaveHabits replaces the stored collection with habits in one transaction.
func (r *SQLiteRepository) SaveHabits(ctx context.Context, habits []Habit) error {
	return inTx(ctx, r.db, "save habits snapshot", func(tx *sql.Tx) error {
		if _, err := tx.ExecContext(ctx, `DELETE FROM habit_history`); err != nil {
			return fmt.Errorf("clear history: %w", err)
		}
		if _, err := tx.ExecContext(ctx, `DELETE FROM habits`); err != nil {
			return fmt.Errorf("clear habits: %w", err)
		}
		for i, h := range habits {
			tasks, err := json.Marshal(nonNilTasks(h.Tasks))
			if err != nil {
				return fmt.Errorf("encode tasks for %s: %w", h.ID, err)
			}
			if _, err := tx.ExecContext(ctx, `
				INSERT INTO habits (id, position, name, if_then, tasks, difficulty, target_days, streak, xp, last_done)
				VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
				h.ID, i, h.Name, h.IfThen, string(tasks), h.Difficulty, h.TargetDays, h.Streak, h.XP, nullTime(h.LastDone),
			); err != nil {
				return fmt.Errorf("insert habit %s: %w", h.ID, err)
			}
			for seq, at := range h.History {
				if _, err := tx.ExecContext(ctx, `
					INSERT INTO habit_history (habit_id, seq, completed_at) VALUES (?, ?, ?)`,
					h.ID, seq, mustTime(at),
				); err != nil {
					return fmt.Errorf("insert history for %s: %w", h.ID, err)
				}
			}
		}
		return upsertSetting(ctx, tx, Setting{Key: settingInitialized, Value: "1", UpdatedAt: r.now()})
	})
}

func (r *SQLiteRepository) GetSetting(ctx context.Context, key string) (Setting, error) {
	row := r.db.QueryRowContext(ctx, `SELECT key, value, updated_at FROM settings WHERE key = ?`, key)
	var out Setting
	var updated string
	if err := row.Scan(&out.Key, &out.Value, &updated); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return Setting{}, ErrNotFound
		}
		return Setting{}, err
	}
	updatedAt, err := parseRequiredTime(updated)
	if err != nil {
		return Setting{}, err
	}
	out.UpdatedAt = updatedAt
	return out, nil
}

func (r *SQLiteRepository) SetSetting(ctx context.Context, in Setting) error {
	if strings.TrimSpace(in.Key) == "" {
		return errors.New("storage: setting key is required")
	}
	if in.UpdatedAt.IsZero() {
		in.UpdatedAt = r.now()
	}
	return upsertSetting(ctx, r.db, in)
}

type execer interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
}

func upsertSetting(ctx context.Context, db execer, in Setting) error {
	_, err := db.ExecContext(ctx, `
		INSERT INTO settings (key, value, updated_at) VALUES (?, ?, ?)
		ON CONFLICT(key) DO UPDATE SET value = excluded.value, updated_at = excluded.updated_at`,
		in.Key, in.Value, mustTime(in.UpdatedAt),
	)
	return err
}

func nullTime(v *time.Time) any {
	if v == nil {
		return nil
	}
	return v.UTC().Format(sqliteTimeLayout)
}

func mustTime(v time.Time) string {
	return v.UTC().Format(sqliteTimeLayout)
}

func parseNullableTime(v sql.NullString) (*time.Time, error) {
	if !v.Valid || v.String == "" {
		return nil, nil
	}
	tm, err := time.Parse(sqliteTimeLayout, v.String)
	if err != nil {
		return nil, err
	}
	return &tm, nil
}

func parseRequiredTime(v string) (time.Time, error) {
	return time.Parse(sqliteTimeLayout, v)
}

func nonNilTasks(tasks []string) []string {
	if tasks == nil {
		return []string{}
	}
	return tasks
}

func applyPagination(args *[]any, limit, offset int) string {
	sql := ""
	if limit > 0 {
		sql += " LIMIT ?"
		*args = append(*args, limit)
	} else if offset > 0 {
		sql += " LIMIT -1"
	}
	if offset > 0 {
		sql += " OFFSET ?"
		*args = append(*args, offset)
	}
	return sql
}

type scanner interface {
	Scan(dest ...any) error
}

func scanHabit(s scanner) (Habit, error) {
	var out Habit
	var tasks string
	var last sql.NullString
	if err := s.Scan(&out.ID, &out.Position, &out.Name, &out.IfThen, &tasks, &out.Difficulty, &out.TargetDays, &out.Streak, &out.XP, &last); err != nil {
		return Habit{}, err
	}
	if err := json.Unmarshal([]byte(tasks), &out.Tasks); err != nil {
		return Habit{}, fmt.Errorf("decode tasks for %s: %w", out.ID, err)
	}
	lastDone, err := parseNullableTime(last)
	if err != nil {
		return Habit{}, err
	}
	out.LastDone = lastDone
	return out, nil
}
