package root

import (
	"context"
	"fmt"
	"os"

	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/sandeepkv93/habitgarden/internal/config"
	"github.com/sandeepkv93/habitgarden/internal/events"
	"github.com/sandeepkv93/habitgarden/internal/habits"
	"github.com/sandeepkv93/habitgarden/internal/logging"
	"github.com/sandeepkv93/habitgarden/internal/storage"
)

const Version = "0.1.0"

var errStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("160")).Bold(true)

type globalFlags struct {
	configPath string
	backend    string
	dbPath     string
	statePath  string
	driver     string
	verbose    bool
}

var flags globalFlags

func newRootCmd() *cobra.Command {
	flags = globalFlags{}
	cmd := &cobra.Command{
		Use:           "habitgarden",
		Short:         "Habit Garden, a local-first habit tracker",
		Long:          "Habit Garden tracks daily habits with streaks, XP and weekly targets. Run without a subcommand to open the TUI.",
		Version:       Version,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runTUI(cmd.Context())
		},
	}
	cmd.SetVersionTemplate("{{.Name}} v{{.Version}}\n")

	pf := cmd.PersistentFlags()
	pf.StringVar(&flags.configPath, "config", "", "YAML config file (default $"+config.EnvConfigFile+")")
	pf.StringVar(&flags.backend, "backend", "", "storage backend (sqlite|json)")
	pf.StringVar(&flags.dbPath, "db", "", "sqlite database path")
	pf.StringVar(&flags.statePath, "state", "", "json state file path")
	pf.StringVar(&flags.driver, "driver", "", "sqlite driver (sqlite3|sqlite)")
	pf.BoolVarP(&flags.verbose, "verbose", "v", false, "log debug output to stderr")

	cmd.AddCommand(
		newListCmd(),
		newAddCmd(),
		newDoneCmd(),
		newResetCmd(),
		newDeleteCmd(),
		newEditCmd(),
		newStatsCmd(),
		newThemeCmd(),
		newMigrateCmd(),
	)
	return cmd
}

func Execute() {
	if err := newRootCmd().ExecuteContext(context.Background()); err != nil {
		fmt.Fprintln(os.Stderr, errStyle.Render("error: "+err.Error()))
		os.Exit(1)
	}
}

func loadConfig() (config.RuntimeConfig, error) {
	cfg, err := config.Load(flags.configPath)
	if err != nil {
		return config.RuntimeConfig{}, err
	}
	if flags.backend != "" {
		cfg.Backend = flags.backend
	}
	if flags.dbPath != "" {
		cfg.DBPath = flags.dbPath
	}
	if flags.statePath != "" {
		cfg.StatePath = flags.statePath
	}
	if flags.driver != "" {
		cfg.SQLiteDriver = flags.driver
	}
	if err := cfg.Validate(); err != nil {
		return config.RuntimeConfig{}, err
	}
	return cfg, nil
}

// app bundles everything a command needs. close releases it in reverse order.
type app struct {
	cfg    config.RuntimeConfig
	logger *zap.Logger
	repo   storage.Repository
	bus    *events.Bus
	store  *habits.Store
}

func (a *app) close() {
	if a.bus != nil {
		a.bus.Stop()
	}
	if a.repo != nil {
		if err := a.repo.Close(); err != nil {
			a.logger.Warn("close repository", zap.Error(err))
		}
	}
	_ = a.logger.Sync()
}

// cliLogger writes to stderr for subcommands: warnings by default, debug
// with --verbose.
func cliLogger(cfg config.RuntimeConfig) (*zap.Logger, error) {
	level := "warn"
	if flags.verbose {
		level = "debug"
	}
	return logging.New(logging.Options{Level: level, File: cfg.LogFile, Stderr: true})
}

func openRepo(ctx context.Context, cfg config.RuntimeConfig, logger *zap.Logger) (storage.Repository, error) {
	repo, err := cfg.OpenRepository(ctx)
	if err != nil {
		return nil, fmt.Errorf("open %s storage: %w", cfg.Backend, err)
	}
	logger.Debug("storage opened", zap.String("backend", cfg.Backend))
	return repo, nil
}

func openApp(ctx context.Context, logger *zap.Logger, cfg config.RuntimeConfig) (*app, error) {
	a := &app{cfg: cfg, logger: logger}
	repo, err := openRepo(ctx, cfg, logger)
	if err != nil {
		return nil, err
	}
	a.repo = repo

	a.bus = events.NewBus(cfg.EventBuffer)
	a.bus.Start()

	store, err := habits.Open(ctx, habits.NewRepositoryPersister(repo),
		habits.WithLogger(logger),
		habits.WithEvents(a.bus),
	)
	if err != nil {
		a.close()
		return nil, err
	}
	a.store = store
	return a, nil
}

func openCLIApp(ctx context.Context) (*app, error) {
	cfg, err := loadConfig()
	if err != nil {
		return nil, err
	}
	logger, err := cliLogger(cfg)
	if err != nil {
		return nil, err
	}
	return openApp(ctx, logger, cfg)
}
