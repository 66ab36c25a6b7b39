package storage

import (
	"context"
	"database/sql"
	"errors"
	"strings"
	"testing"
)

func TestInTxRollsBackAndLabelsErrors(t *testing.T) {
	repo := setupRepo(t)
	ctx := context.Background()
	if err := repo.SaveHabits(ctx, sampleHabits(t)); err != nil {
		t.Fatalf("save: %v", err)
	}

	boom := errors.New("boom")
	err := inTx(ctx, repo.DB(), "save habits snapshot", func(tx *sql.Tx) error {
		if _, err := tx.ExecContext(ctx, `DELETE FROM habits`); err != nil {
			return err
		}
		return boom
	})
	if !errors.Is(err, boom) {
		t.Fatalf("expected wrapped cause, got %v", err)
	}
	if !strings.HasPrefix(err.Error(), "save habits snapshot: ") {
		t.Fatalf("expected op prefix, got %q", err.Error())
	}

	got, err := repo.LoadHabits(ctx)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if len(got) != len(sampleHabits(t)) {
		t.Fatalf("rollback lost habits: got %d", len(got))
	}
}

func TestInTxCommits(t *testing.T) {
	repo := setupRepo(t)
	ctx := context.Background()
	err := inTx(ctx, repo.DB(), "write setting", func(tx *sql.Tx) error {
		return upsertSetting(ctx, tx, Setting{Key: SettingTheme, Value: "dark", UpdatedAt: repo.now()})
	})
	if err != nil {
		t.Fatalf("inTx: %v", err)
	}
	s, err := repo.GetSetting(ctx, SettingTheme)
	if err != nil || s.Value != "dark" {
		t.Fatalf("expected committed setting, got %+v err=%v", s, err)
	}
}
