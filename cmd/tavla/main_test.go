package main

import (
	"bytes"
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	tea "charm.land/bubbletea/v2"
	"github.com/evanschultz/tavla/internal/adapters/storage/sqlite"
	"github.com/evanschultz/tavla/internal/config"
	"github.com/evanschultz/tavla/internal/domain"
)

// TestMain pins dev mode off and the terminal background to light.
func TestMain(m *testing.M) {
	_ = os.Setenv("TAVLA_DEV_MODE", "false")
	detectDarkBackground = func() bool { return false }
	os.Exit(m.Run())
}

type fakeProgram struct {
	runErr error
}

func (f fakeProgram) Run() (tea.Model, error) {
	return nil, f.runErr
}

// scriptedProgram drives the model inside run() without a terminal.
type scriptedProgram struct {
	model tea.Model
	runFn func(tea.Model) (tea.Model, error)
}

func (p scriptedProgram) Run() (tea.Model, error) {
	if p.runFn == nil {
		return p.model, nil
	}
	return p.runFn(p.model)
}

func stubProgram(t *testing.T, factory func(tea.Model) program) {
	t.Helper()
	orig := programFactory
	programFactory = factory
	t.Cleanup(func() { programFactory = orig })
}

// testPaths returns a config and db path inside a fresh temp dir.
func testPaths(t *testing.T) (string, string) {
	t.Helper()
	dir := t.TempDir()
	return filepath.Join(dir, "config.toml"), filepath.Join(dir, "tavla.db")
}

func runCLI(t *testing.T, stdin string, args ...string) (string, string, error) {
	t.Helper()
	var stdout, stderr bytes.Buffer
	err := run(context.Background(), args, strings.NewReader(stdin), &stdout, &stderr)
	return stdout.String(), stderr.String(), err
}

func writeConfig(t *testing.T, path, content string) {
	t.Helper()
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("WriteFile() error = %v", err)
	}
}

func TestRunVersion(t *testing.T) {
	stdout, _, err := runCLI(t, "", "--version")
	if err != nil {
		t.Fatalf("run() error = %v", err)
	}
	if !strings.Contains(stdout, version) {
		t.Fatalf("expected version in output, got %q", stdout)
	}
}

func TestRunStartsProgram(t *testing.T) {
	cfgPath, dbPath := testPaths(t)
	stubProgram(t, func(tea.Model) program { return fakeProgram{} })

	_, stderr, err := runCLI(t, "", "--config", cfgPath, "--db", dbPath)
	if err != nil {
		t.Fatalf("run() error = %v", err)
	}
	if _, err := os.Stat(dbPath); err != nil {
		t.Fatalf("expected sqlite db at %s: %v", dbPath, err)
	}
	if stderr != "" {
		t.Fatalf("expected console logs muted while the tui runs, got %q", stderr)
	}
}

func TestRunProgramErrorIsReturned(t *testing.T) {
	cfgPath, dbPath := testPaths(t)
	stubProgram(t, func(tea.Model) program { return fakeProgram{runErr: errors.New("boom")} })

	_, _, err := runCLI(t, "", "--config", cfgPath, "--db", dbPath)
	if err == nil || !strings.Contains(err.Error(), "boom") {
		t.Fatalf("expected program error, got %v", err)
	}
}

func TestRunTUIPersistsThemeToggle(t *testing.T) {
	cfgPath, dbPath := testPaths(t)
	stubProgram(t, func(m tea.Model) program {
		return scriptedProgram{model: m, runFn: func(model tea.Model) (tea.Model, error) {
			model, _ = model.Update(model.Init()())
			model, _ = model.Update(tea.WindowSizeMsg{Width: 120, Height: 40})
			model, _ = model.Update(tea.KeyPressMsg{Code: 't', Text: "t"})
			return model, nil
		}}
	})

	if _, _, err := runCLI(t, "", "--config", cfgPath, "--db", dbPath); err != nil {
		t.Fatalf("run() error = %v", err)
	}

	repo, err := sqlite.Open(dbPath)
	if err != nil {
		t.Fatalf("Open() error = %v", err)
	}
	defer func() { _ = repo.Close() }()
	raw, found, err := repo.Get(context.Background(), "darkMode")
	if err != nil || !found {
		t.Fatalf("Get(darkMode) = found %v, err %v", found, err)
	}
	if strings.TrimSpace(string(raw)) != "true" {
		t.Fatalf("expected darkMode true after toggle, got %s", raw)
	}
}

func TestRunUnknownCommand(t *testing.T) {
	if _, _, err := runCLI(t, "", "bogus"); err == nil {
		t.Fatal("expected error for unknown command")
	}
}

func TestRunInvalidFlag(t *testing.T) {
	if _, _, err := runCLI(t, "", "--definitely-not-a-flag"); err == nil {
		t.Fatal("expected error for unknown flag")
	}
}

func TestRunAddThenList(t *testing.T) {
	cfgPath, dbPath := testPaths(t)
	base := []string{"--config", cfgPath, "--db", dbPath}

	stdout, _, err := runCLI(t, "", append(base, "add", "Write", "docs", "--priority", "high", "--due", "2026-03-01")...)
	if err != nil {
		t.Fatalf("add error = %v", err)
	}
	if !strings.Contains(stdout, "to To Do") {
		t.Fatalf("expected add confirmation, got %q", stdout)
	}

	stdout, _, err = runCLI(t, "", append(base, "list")...)
	if err != nil {
		t.Fatalf("list error = %v", err)
	}
	for _, want := range []string{
		"To Do (2)",
		"In Progress (1)",
		"Completed (1)",
		"Buy groceries [medium]",
		"Write docs [high] due 2026-03-01",
	} {
		if !strings.Contains(stdout, want) {
			t.Fatalf("expected %q in list output:\n%s", want, stdout)
		}
	}
	if strings.Index(stdout, "Buy groceries") > strings.Index(stdout, "Write docs") {
		t.Fatalf("expected new task appended after the sample task:\n%s", stdout)
	}
}

func TestRunAddRejectsBadInput(t *testing.T) {
	cfgPath, dbPath := testPaths(t)
	base := []string{"--config", cfgPath, "--db", dbPath, "add", "x"}
	if _, _, err := runCLI(t, "", append(base, "--priority", "urgent")...); err == nil {
		t.Fatal("expected error for unknown priority")
	}
	if _, _, err := runCLI(t, "", append(base, "--due", "tomorrow")...); err == nil {
		t.Fatal("expected error for malformed due date")
	}
	if _, _, err := runCLI(t, "", "--config", cfgPath, "--db", dbPath, "add"); err == nil {
		t.Fatal("expected error without a title")
	}
}

func TestRunConfiguredColumnsSeedBoard(t *testing.T) {
	cfgPath, dbPath := testPaths(t)
	writeConfig(t, cfgPath, `
[board]
seed_sample_tasks = false

[[board.columns]]
id = "backlog"
title = "Backlog"

[[board.columns]]
id = "done"
title = "Done"
`)
	stdout, _, err := runCLI(t, "", "--config", cfgPath, "--db", dbPath, "list")
	if err != nil {
		t.Fatalf("list error = %v", err)
	}
	if !strings.Contains(stdout, "Backlog (0)") || !strings.Contains(stdout, "Done (0)") {
		t.Fatalf("expected configured empty columns, got:\n%s", stdout)
	}
	if strings.Contains(stdout, "To Do") {
		t.Fatalf("default columns should be replaced, got:\n%s", stdout)
	}
}

func TestRunExportImportRoundTrip(t *testing.T) {
	cfgPath, dbPath := testPaths(t)
	snapPath := filepath.Join(t.TempDir(), "out", "board.json")
	if _, _, err := runCLI(t, "", "--config", cfgPath, "--db", dbPath, "add", "Ship it"); err != nil {
		t.Fatalf("add error = %v", err)
	}
	if _, _, err := runCLI(t, "", "--config", cfgPath, "--db", dbPath, "export", "--out", snapPath); err != nil {
		t.Fatalf("export error = %v", err)
	}
	content, err := os.ReadFile(snapPath)
	if err != nil {
		t.Fatalf("ReadFile() error = %v", err)
	}
	if !strings.Contains(string(content), `"version": "tavla.snapshot.v1"`) {
		t.Fatalf("unexpected snapshot content %s", content)
	}

	otherCfg, otherDB := testPaths(t)
	writeConfig(t, otherCfg, "[board]\nseed_sample_tasks = false\n")
	stdout, _, err := runCLI(t, "", "--config", otherCfg, "--db", otherDB, "import", "--in", snapPath)
	if err != nil {
		t.Fatalf("import error = %v", err)
	}
	if !strings.Contains(stdout, "imported 4 tasks in 3 columns") {
		t.Fatalf("unexpected import output %q", stdout)
	}
	stdout, _, err = runCLI(t, "", "--config", otherCfg, "--db", otherDB, "list")
	if err != nil {
		t.Fatalf("list error = %v", err)
	}
	if !strings.Contains(stdout, "Ship it [medium]") {
		t.Fatalf("expected imported task in list:\n%s", stdout)
	}
}

func TestRunExportToStdoutAndImportErrors(t *testing.T) {
	cfgPath, dbPath := testPaths(t)
	base := []string{"--config", cfgPath, "--db", dbPath}
	stdout, _, err := runCLI(t, "", append(base, "export")...)
	if err != nil {
		t.Fatalf("export error = %v", err)
	}
	if !strings.Contains(stdout, `"columns"`) {
		t.Fatalf("expected snapshot json on stdout, got %q", stdout)
	}

	if _, _, err := runCLI(t, "", append(base, "import")...); err == nil {
		t.Fatal("expected error when --in is missing")
	}
	if _, _, err := runCLI(t, "", append(base, "import", "--in", filepath.Join(t.TempDir(), "missing.json"))...); err == nil {
		t.Fatal("expected error for missing import file")
	}
	bad := filepath.Join(t.TempDir(), "bad.json")
	writeConfig(t, bad, `{"version":"other.v9","columns":[{"id":"a","title":"A"}],"tasks":[]}`)
	if _, _, err := runCLI(t, "", append(base, "import", "--in", bad)...); err == nil {
		t.Fatal("expected error for unsupported snapshot version")
	}
}

func TestRunPathsCommand(t *testing.T) {
	cfgPath, dbPath := testPaths(t)
	t.Setenv("TAVLA_CONFIG", cfgPath)
	t.Setenv("TAVLA_DB_PATH", dbPath)

	stdout, _, err := runCLI(t, "", "paths", "--entries")
	if err != nil {
		t.Fatalf("paths error = %v", err)
	}
	for _, want := range []string{"app: tavla", "dev_mode: false", "config: " + cfgPath + " (env)", "db: " + dbPath + " (env)", "entries: none"} {
		if !strings.Contains(stdout, want) {
			t.Fatalf("expected %q in paths output:\n%s", want, stdout)
		}
	}

	if _, _, err := runCLI(t, "", "list"); err != nil {
		t.Fatalf("list error = %v", err)
	}
	stdout, _, err = runCLI(t, "", "paths", "--entries")
	if err != nil {
		t.Fatalf("paths error = %v", err)
	}
	for _, want := range []string{"entries: 3", "columns", "darkMode", "tasks"} {
		if !strings.Contains(stdout, want) {
			t.Fatalf("expected %q in paths output:\n%s", want, stdout)
		}
	}
}

func TestRunPathsFlagBeatsEnv(t *testing.T) {
	cfgPath, dbPath := testPaths(t)
	t.Setenv("TAVLA_CONFIG", cfgPath)
	t.Setenv("TAVLA_DB_PATH", dbPath)
	flagDB := filepath.Join(t.TempDir(), "flag.db")

	stdout, _, err := runCLI(t, "", "--db", flagDB, "paths")
	if err != nil {
		t.Fatalf("paths error = %v", err)
	}
	for _, want := range []string{"config: " + cfgPath + " (env)", "db: " + flagDB + " (flag)"} {
		if !strings.Contains(stdout, want) {
			t.Fatalf("expected %q in paths output:\n%s", want, stdout)
		}
	}
}

func TestRunResetCommand(t *testing.T) {
	cfgPath, dbPath := testPaths(t)
	t.Setenv("TAVLA_CONFIG", cfgPath)
	t.Setenv("TAVLA_DB_PATH", dbPath)

	stdout, _, err := runCLI(t, "", "reset")
	if err != nil {
		t.Fatalf("reset error = %v", err)
	}
	if !strings.Contains(stdout, "database not created yet") {
		t.Fatalf("expected nothing to reset, got:\n%s", stdout)
	}

	if _, _, err := runCLI(t, "", "add", "Write docs"); err != nil {
		t.Fatalf("add error = %v", err)
	}
	stdout, _, err = runCLI(t, "", "reset", "--key", "tasks", "--key", "missing")
	if err != nil {
		t.Fatalf("reset error = %v", err)
	}
	for _, want := range []string{"deleted tasks", "skipped missing (not stored)", "reset 1 of 2 keys"} {
		if !strings.Contains(stdout, want) {
			t.Fatalf("expected %q in reset output:\n%s", want, stdout)
		}
	}

	stdout, _, err = runCLI(t, "", "list")
	if err != nil {
		t.Fatalf("list error = %v", err)
	}
	if strings.Contains(stdout, "Write docs") {
		t.Fatalf("expected board reseeded after reset, got:\n%s", stdout)
	}

	stdout, _, err = runCLI(t, "", "reset")
	if err != nil {
		t.Fatalf("reset error = %v", err)
	}
	if !strings.Contains(stdout, "reset 3 of 3 keys") {
		t.Fatalf("expected all board keys deleted, got:\n%s", stdout)
	}
}

func TestRunAppNameFlag(t *testing.T) {
	stdout, _, err := runCLI(t, "", "--app", "board", "--dev", "paths")
	if err != nil {
		t.Fatalf("paths error = %v", err)
	}
	if !strings.Contains(stdout, "app: board") || !strings.Contains(stdout, "board-dev") {
		t.Fatalf("expected dev paths for app board, got:\n%s", stdout)
	}
}

func TestRunRejectsInvalidLoggingLevelFromConfig(t *testing.T) {
	cfgPath, dbPath := testPaths(t)
	writeConfig(t, cfgPath, "[logging]\nlevel = \"loud\"\n")
	if _, _, err := runCLI(t, "", "--config", cfgPath, "--db", dbPath, "list"); err == nil {
		t.Fatal("expected error for invalid logging level")
	}
}

func TestRunDebugLoggingGoesToStderr(t *testing.T) {
	cfgPath, dbPath := testPaths(t)
	writeConfig(t, cfgPath, "[logging]\nlevel = \"debug\"\n")
	stdout, stderr, err := runCLI(t, "", "--config", cfgPath, "--db", dbPath, "list")
	if err != nil {
		t.Fatalf("list error = %v", err)
	}
	if !strings.Contains(stderr, "board loaded") {
		t.Fatalf("expected runtime logs on stderr, got %q", stderr)
	}
	if strings.Contains(stdout, "board loaded") {
		t.Fatalf("runtime logs leaked into stdout: %q", stdout)
	}
}

func TestRunDevModeWritesLogFile(t *testing.T) {
	cfgPath, dbPath := testPaths(t)
	logDir := filepath.Join(t.TempDir(), "logs")
	writeConfig(t, cfgPath, "[logging]\nlevel = \"info\"\n\n[logging.dev_file]\nenabled = true\ndir = \""+filepath.ToSlash(logDir)+"\"\n")
	stubProgram(t, func(tea.Model) program { return fakeProgram{} })

	if _, _, err := runCLI(t, "", "--config", cfgPath, "--db", dbPath, "--dev"); err != nil {
		t.Fatalf("run() error = %v", err)
	}
	matches, err := filepath.Glob(filepath.Join(logDir, "tavla-*.log"))
	if err != nil || len(matches) != 1 {
		t.Fatalf("expected one dev log file, got %v (err %v)", matches, err)
	}
	content, err := os.ReadFile(matches[0])
	if err != nil {
		t.Fatalf("ReadFile() error = %v", err)
	}
	if !strings.Contains(string(content), "starting tui program loop") {
		t.Fatalf("expected tui startup in dev log, got %s", content)
	}
}

func TestRunMCPStopsAtEndOfInput(t *testing.T) {
	cfgPath, dbPath := testPaths(t)
	if _, _, err := runCLI(t, "", "--config", cfgPath, "--db", dbPath, "mcp"); err != nil {
		t.Fatalf("mcp error = %v", err)
	}
	if _, err := os.Stat(dbPath); err != nil {
		t.Fatalf("expected sqlite db at %s: %v", dbPath, err)
	}
}

func TestResolveTheme(t *testing.T) {
	if got := resolveTheme("dark"); got != domain.ThemeDark {
		t.Fatalf("resolveTheme(dark) = %q", got)
	}
	if got := resolveTheme(" Light "); got != domain.ThemeLight {
		t.Fatalf("resolveTheme(light) = %q", got)
	}
	orig := detectDarkBackground
	t.Cleanup(func() { detectDarkBackground = orig })
	detectDarkBackground = func() bool { return true }
	if got := resolveTheme("auto"); got != domain.ThemeDark {
		t.Fatalf("resolveTheme(auto) on dark terminal = %q", got)
	}
}

func TestColumnsFromConfig(t *testing.T) {
	cols := columnsFromConfig([]config.ColumnConfig{
		{ID: " todo ", Title: " Now ", Accent: "205", DarkText: "#FFF"},
	})
	if len(cols) != 1 {
		t.Fatalf("expected one column, got %d", len(cols))
	}
	if cols[0].ID != "todo" || cols[0].Title != "Now" || cols[0].Style.Accent != "205" || cols[0].Style.DarkText != "#FFF" {
		t.Fatalf("unexpected column %#v", cols[0])
	}
}

func TestKeyConfigFromConfig(t *testing.T) {
	got := keyConfigFromConfig(config.KeyConfig{Grab: "g", RenameColumn: "R"})
	if got.Grab != "g" || got.RenameCol != "R" || got.AddTask != "" {
		t.Fatalf("unexpected key config %#v", got)
	}
}

func TestParseBoolEnv(t *testing.T) {
	t.Setenv("TAVLA_TEST_BOOL", "true")
	if v, ok := parseBoolEnv("TAVLA_TEST_BOOL"); !ok || !v {
		t.Fatalf("parseBoolEnv(true) = %v, %v", v, ok)
	}
	t.Setenv("TAVLA_TEST_BOOL", "nope")
	if _, ok := parseBoolEnv("TAVLA_TEST_BOOL"); ok {
		t.Fatal("expected invalid bool to be ignored")
	}
	t.Setenv("TAVLA_TEST_BOOL", "")
	if _, ok := parseBoolEnv("TAVLA_TEST_BOOL"); ok {
		t.Fatal("expected empty value to be ignored")
	}
}

func TestRuntimeLoggerCanMuteConsoleSink(t *testing.T) {
	var buf bytes.Buffer
	logger, err := newRuntimeLogger(&buf, "tavla", false, config.LoggingConfig{Level: "info"}, time.Now)
	if err != nil {
		t.Fatalf("newRuntimeLogger() error = %v", err)
	}
	logger.Info("visible")
	logger.SetConsoleEnabled(false)
	logger.Info("hidden")
	if !strings.Contains(buf.String(), "visible") || strings.Contains(buf.String(), "hidden") {
		t.Fatalf("unexpected console output %q", buf.String())
	}
	logger.Debug("below level")
	if strings.Contains(buf.String(), "below level") {
		t.Fatal("debug output should be filtered at info level")
	}
}

func TestWorkspaceRootFromUsesNearestMarker(t *testing.T) {
	root := t.TempDir()
	nested := filepath.Join(root, "a", "b")
	if err := os.MkdirAll(nested, 0o755); err != nil {
		t.Fatalf("MkdirAll() error = %v", err)
	}
	writeConfig(t, filepath.Join(root, "go.mod"), "module example\n")
	if got := workspaceRootFrom(nested); got != root {
		t.Fatalf("workspaceRootFrom() = %q, want %q", got, root)
	}
}

func TestDevLogFilePath(t *testing.T) {
	dir := t.TempDir()
	now := time.Date(2026, 2, 21, 10, 0, 0, 0, time.UTC)
	got, err := devLogFilePath(dir, "my app", now)
	if err != nil {
		t.Fatalf("devLogFilePath() error = %v", err)
	}
	if want := filepath.Join(dir, "my-app-20260221.log"); got != want {
		t.Fatalf("devLogFilePath() = %q, want %q", got, want)
	}
	if stem := logFileStem(" / "); stem != "tavla" {
		t.Fatalf("logFileStem() = %q, want tavla", stem)
	}
}
