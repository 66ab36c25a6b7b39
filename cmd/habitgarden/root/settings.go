package root

import (
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/sandeepkv93/habitgarden/internal/model"
	"github.com/sandeepkv93/habitgarden/internal/storage"
)

func newThemeCmd() *cobra.Command {
	return &cobra.Command{
		Use:       "theme [light|dark]",
		Short:     "Show, set or toggle the saved theme",
		Args:      cobra.MaximumNArgs(1),
		ValidArgs: []string{string(model.ThemeLight), string(model.ThemeDark)},
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			logger, err := cliLogger(cfg)
			if err != nil {
				return err
			}
			repo, err := openRepo(cmd.Context(), cfg, logger)
			if err != nil {
				return err
			}
			defer repo.Close()

			current := model.ParseTheme(cfg.DefaultTheme)
			s, err := repo.GetSetting(cmd.Context(), storage.SettingTheme)
			switch {
			case err == nil:
				current = model.ParseTheme(s.Value)
			case !errors.Is(err, storage.ErrNotFound):
				return err
			}

			next := current.Toggle()
			if len(args) == 1 {
				next = model.Theme(strings.ToLower(strings.TrimSpace(args[0])))
				if !next.IsValid() {
					return fmt.Errorf("%w: %q", model.ErrInvalidTheme, args[0])
				}
			}
			if err := repo.SetSetting(cmd.Context(), storage.Setting{Key: storage.SettingTheme, Value: string(next)}); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), okStyle.Render("theme: "+string(next)))
			return nil
		},
	}
}

func newMigrateCmd() *cobra.Command {
	return &cobra.Command{
		Use:       "migrate [up|down]",
		Short:     "Apply or roll back the sqlite schema",
		Args:      cobra.MaximumNArgs(1),
		ValidArgs: []string{"up", "down"},
		RunE: func(cmd *cobra.Command, args []string) error {
			direction := "up"
			if len(args) == 1 {
				direction = strings.ToLower(args[0])
			}
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			logger, err := cliLogger(cfg)
			if err != nil {
				return err
			}
			repo, err := openRepo(cmd.Context(), cfg, logger)
			if err != nil {
				return err
			}
			defer repo.Close()

			sqlRepo, ok := repo.(*storage.SQLiteRepository)
			if !ok {
				return fmt.Errorf("migrate needs the sqlite backend, got %q", cfg.Backend)
			}
			switch direction {
			case "up":
				err = storage.MigrateUp(cmd.Context(), sqlRepo.DB())
			case "down":
				err = storage.MigrateDown(cmd.Context(), sqlRepo.DB())
			default:
				return fmt.Errorf("unknown migrate direction %q", direction)
			}
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), okStyle.Render("migrate "+direction+" complete"))
			return nil
		},
	}
}
