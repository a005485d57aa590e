package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
	"time"

	tea "charm.land/bubbletea/v2"
	"charm.land/lipgloss/v2"
	"github.com/charmbracelet/fang"
	"github.com/evanschultz/tavla/internal/adapters/storage/sqlite"
	"github.com/evanschultz/tavla/internal/app"
	"github.com/evanschultz/tavla/internal/config"
	"github.com/evanschultz/tavla/internal/domain"
	"github.com/evanschultz/tavla/internal/platform"
	"github.com/evanschultz/tavla/internal/tui"
	"github.com/google/uuid"
	"github.com/spf13/cobra"
)

// version is stamped at build time.
var version = "dev"

type program interface {
	Run() (tea.Model, error)
}

// programFactory builds the TUI program. Tests replace it.
var programFactory = func(m tea.Model) program {
	return tea.NewProgram(m)
}

// detectDarkBackground resolves ui.theme = "auto".
var detectDarkBackground = func() bool {
	return lipgloss.HasDarkBackground(os.Stdin, os.Stdout)
}

func main() {
	if err := run(context.Background(), os.Args[1:], os.Stdin, os.Stdout, os.Stderr); err != nil {
		os.Exit(1)
	}
}

// run executes the command tree with fang. Errors are already printed to
// stderr when it returns.
func run(ctx context.Context, args []string, stdin io.Reader, stdout, stderr io.Writer) error {
	if stdout == nil {
		stdout = io.Discard
	}
	if stderr == nil {
		stderr = io.Discard
	}
	root := newRootCommand()
	root.SetArgs(args)
	root.SetIn(stdin)
	root.SetOut(stdout)
	root.SetErr(stderr)
	return fang.Execute(ctx, root, fang.WithVersion(version), fang.WithoutManpage())
}

// globalOptions holds the persistent root flags.
type globalOptions struct {
	configPath string
	dbPath     string
	appName    string
	devMode    bool
}

func newRootCommand() *cobra.Command {
	opts := &globalOptions{}
	appName := platform.DefaultAppName
	if envApp := strings.TrimSpace(os.Getenv("TAVLA_APP_NAME")); envApp != "" {
		appName = envApp
	}
	devMode := version == "dev"
	if envDev, ok := parseBoolEnv("TAVLA_DEV_MODE"); ok {
		devMode = envDev
	}

	root := &cobra.Command{
		Use:   "tavla",
		Short: "A kanban board for the terminal",
		Long:  "tavla keeps a three-column kanban board in a local sqlite file. Run it without a command to open the board.",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runTUI(cmd, opts)
		},
	}
	flags := root.PersistentFlags()
	flags.StringVar(&opts.configPath, "config", "", "path to config TOML")
	flags.StringVar(&opts.dbPath, "db", "", "path to sqlite database")
	flags.StringVar(&opts.appName, "app", appName, "application name for config/data path resolution")
	flags.BoolVar(&opts.devMode, "dev", devMode, "use dev mode paths (<app>-dev)")

	root.AddCommand(
		newPathsCommand(opts),
		newResetCommand(opts),
		newListCommand(opts),
		newAddCommand(opts),
		newExportCommand(opts),
		newImportCommand(opts),
		newMCPCommand(opts),
	)
	return root
}

func resolvePaths(opts *globalOptions) (platform.Layout, error) {
	return platform.Resolve(platform.Request{
		AppName:    opts.appName,
		DevMode:    opts.devMode,
		ConfigFlag: opts.configPath,
		DBFlag:     opts.dbPath,
	})
}

// session is the wired runtime shared by every board command.
type session struct {
	cfg    config.Config
	logger *runtimeLogger
	repo   *sqlite.Repository
	svc    *app.Service
}

// openSession loads config, opens the database, and loads the board. With
// quiet set the console log sink is muted from the start.
func openSession(ctx context.Context, stderr io.Writer, opts *globalOptions, command string, quiet bool) (*session, error) {
	paths, err := resolvePaths(opts)
	if err != nil {
		return nil, err
	}
	cfg, err := config.Load(paths.ConfigPath, config.Default(paths.DBPath))
	if err != nil {
		return nil, fmt.Errorf("load config %q: %w", paths.ConfigPath, err)
	}
	if paths.DBOverridden() {
		cfg.Database.Path = paths.DBPath
	}

	logger, err := newRuntimeLogger(stderr, opts.appName, opts.devMode, cfg.Logging, time.Now)
	if err != nil {
		return nil, fmt.Errorf("configure runtime logger: %w", err)
	}
	logger.SetConsoleEnabled(!quiet)
	logger.Debug("startup configuration resolved", "app", opts.appName, "dev_mode", opts.devMode, "command", command)
	logger.Debug("configuration loaded", "config_path", paths.ConfigPath, "db_path", cfg.Database.Path, "log_level", cfg.Logging.Level)
	if devPath := logger.DevLogPath(); devPath != "" {
		logger.Debug("dev file logging enabled", "path", devPath)
	}

	repo, err := sqlite.Open(cfg.Database.Path)
	if err != nil {
		logger.Error("sqlite open failed", "db_path", cfg.Database.Path, "err", err)
		_ = logger.Close()
		return nil, fmt.Errorf("open sqlite repository: %w", err)
	}

	columns := columnsFromConfig(cfg.Board.Columns)
	defaults := app.Defaults{
		Columns: columns,
		Theme:   resolveTheme(cfg.UI.Theme),
	}
	if cfg.Board.SeedSampleTasks {
		defaults.Tasks = app.SampleTasks(columns, uuid.NewString)
	}
	svc := app.NewService(repo, uuid.NewString, nil, app.ServiceConfig{
		Defaults: defaults,
		Logger:   logger,
	})
	report := svc.Load(ctx)
	if len(report.Missing) > 0 {
		logger.Debug("board keys initialised from defaults", "keys", report.Missing)
	}
	return &session{cfg: cfg, logger: logger, repo: repo, svc: svc}, nil
}

// Close releases the database and the dev log file.
func (s *session) Close(stderr io.Writer) {
	if err := s.repo.Close(); err != nil {
		s.logger.Warn("sqlite close failed", "err", err)
	}
	if err := s.logger.Close(); err != nil && s.logger.consoleEnabled {
		_, _ = fmt.Fprintf(stderr, "warning: close runtime log sink: %v\n", err)
	}
}

func runTUI(cmd *cobra.Command, opts *globalOptions) error {
	s, err := openSession(cmd.Context(), cmd.ErrOrStderr(), opts, "tui", true)
	if err != nil {
		return err
	}
	defer s.Close(cmd.ErrOrStderr())

	m := tui.NewModel(
		s.svc,
		tui.WithFieldConfig(tui.FieldConfig{
			ShowPriority:    s.cfg.UI.ShowPriority,
			ShowDueDate:     s.cfg.UI.ShowDueDate,
			ShowDescription: s.cfg.UI.ShowDescription,
		}),
		tui.WithConfirmDelete(s.cfg.UI.ConfirmDelete),
		tui.WithKeyConfig(keyConfigFromConfig(s.cfg.Keys)),
	)
	s.logger.Info("starting tui program loop")
	if _, err := programFactory(m).Run(); err != nil {
		s.logger.Error("tui program terminated with error", "err", err)
		return fmt.Errorf("run tui program: %w", err)
	}
	s.svc.DragCancel()
	s.logger.Info("command flow complete", "command", "tui")
	return nil
}

// columnsFromConfig maps configured columns onto board columns.
func columnsFromConfig(in []config.ColumnConfig) []domain.Column {
	out := make([]domain.Column, 0, len(in))
	for _, c := range in {
		out = append(out, domain.Column{
			ID:    strings.TrimSpace(c.ID),
			Title: strings.TrimSpace(c.Title),
			Style: domain.ColumnStyle{
				Accent:         c.Accent,
				Background:     c.Background,
				Text:           c.Text,
				DarkBackground: c.DarkBackground,
				DarkText:       c.DarkText,
			},
		})
	}
	return out
}

// resolveTheme picks the first-run theme. A stored theme always wins over it.
func resolveTheme(raw string) domain.Theme {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case config.ThemeDark:
		return domain.ThemeDark
	case config.ThemeLight:
		return domain.ThemeLight
	default:
		return domain.ThemeFromDarkMode(detectDarkBackground())
	}
}

func keyConfigFromConfig(k config.KeyConfig) tui.KeyConfig {
	return tui.KeyConfig{
		Grab:        k.Grab,
		AddTask:     k.AddTask,
		EditTask:    k.EditTask,
		DeleteTask:  k.DeleteTask,
		RenameCol:   k.RenameColumn,
		ToggleTheme: k.ToggleTheme,
		TaskInfo:    k.TaskInfo,
		CopyTitle:   k.CopyTitle,
	}
}

func parseBoolEnv(name string) (bool, bool) {
	raw := strings.TrimSpace(os.Getenv(name))
	if raw == "" {
		return false, false
	}
	v, err := strconv.ParseBool(raw)
	if err != nil {
		return false, false
	}
	return v, true
}
