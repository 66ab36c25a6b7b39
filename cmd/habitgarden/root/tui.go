package root

import (
	"context"
	"fmt"

	tea "github.com/charmbracelet/bubbletea"
	"go.uber.org/zap"

	"github.com/sandeepkv93/habitgarden/internal/logging"
	"github.com/sandeepkv93/habitgarden/internal/model"
	"github.com/sandeepkv93/habitgarden/internal/update"
)

// runTUI opens the interactive garden. Logs go to the configured log file
// only, so the alternate screen stays clean.
func runTUI(ctx context.Context) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	level := cfg.LogLevel
	if flags.verbose {
		level = "debug"
	}
	logger, err := logging.New(logging.Options{Level: level, File: cfg.LogFile})
	if err != nil {
		return err
	}

	a, err := openApp(ctx, logger, cfg)
	if err != nil {
		return err
	}
	defer a.close()

	m := update.NewModel(update.Deps{
		Ctx:          ctx,
		Store:        a.store,
		Settings:     a.repo,
		Events:       a.bus,
		Logger:       logger,
		DefaultTheme: model.ParseTheme(cfg.DefaultTheme),
	})
	program := tea.NewProgram(m, tea.WithAltScreen(), tea.WithContext(ctx))
	if _, err := program.Run(); err != nil {
		logger.Error("tui exited", zap.Error(err))
		return fmt.Errorf("habitgarden failed: %w", err)
	}
	logger.Info("tui closed", zap.Int("habits", len(a.store.Habits())), zap.Int("total_xp", a.store.TotalXP()))
	return nil
}
