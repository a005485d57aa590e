package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestDefaultConfig(t *testing.T) {
	cfg := Default("/tmp/tavla.db")
	if cfg.Database.Path != "/tmp/tavla.db" {
		t.Fatalf("unexpected db path %q", cfg.Database.Path)
	}
	if len(cfg.Board.Columns) != 3 || cfg.Board.Columns[0].ID != "todo" {
		t.Fatalf("unexpected default columns %#v", cfg.Board.Columns)
	}
	if !cfg.Board.SeedSampleTasks {
		t.Fatal("expected sample tasks seeded by default")
	}
	if cfg.UI.Theme != ThemeAuto {
		t.Fatalf("unexpected theme %q", cfg.UI.Theme)
	}
	if !cfg.UI.ShowPriority || !cfg.UI.ShowDueDate || cfg.UI.ShowDescription {
		t.Fatal("expected priority/due_date shown and description hidden by default")
	}
	if err := cfg.Validate(); err != nil {
		t.Fatalf("Validate() error = %v", err)
	}
}

func TestLoadMissingFileUsesDefaults(t *testing.T) {
	defaults := Default("/tmp/tavla.db")
	cfg, err := Load(filepath.Join(t.TempDir(), "missing.toml"), defaults)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.Database.Path != defaults.Database.Path {
		t.Fatalf("expected default db path, got %q", cfg.Database.Path)
	}
}

func TestLoadFileOverridesDefaults(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.toml")
	content := `
[database]
path = "/custom/tavla.db"

[board]
seed_sample_tasks = false

[[board.columns]]
id = "backlog"
title = "Backlog"
accent = "205"

[[board.columns]]
id = "done"
title = "Done"

[ui]
theme = "dark"
show_due_date = false
show_description = true

[keys]
grab = "g"
copy_title = "Y"

[logging]
level = "debug"
`
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("WriteFile() error = %v", err)
	}

	cfg, err := Load(path, Default("/tmp/default.db"))
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.Database.Path != "/custom/tavla.db" {
		t.Fatalf("unexpected db path %q", cfg.Database.Path)
	}
	if len(cfg.Board.Columns) != 2 || cfg.Board.Columns[0].ID != "backlog" || cfg.Board.Columns[0].Accent != "205" {
		t.Fatalf("expected configured columns to replace defaults, got %#v", cfg.Board.Columns)
	}
	if cfg.Board.SeedSampleTasks {
		t.Fatal("expected sample seeding disabled from config override")
	}
	if cfg.UI.Theme != ThemeDark || cfg.UI.ShowDueDate || !cfg.UI.ShowDescription {
		t.Fatalf("unexpected ui config %#v", cfg.UI)
	}
	if cfg.Keys.Grab != "g" || cfg.Keys.CopyTitle != "Y" || cfg.Keys.AddTask != "" {
		t.Fatalf("unexpected key overrides %#v", cfg.Keys)
	}
	if !cfg.UI.ShowPriority {
		t.Fatal("expected unset show_priority to keep its default")
	}
	if cfg.Logging.Level != "debug" {
		t.Fatalf("unexpected logging level %q", cfg.Logging.Level)
	}
}

func TestLoadWithoutColumnsKeepsDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")
	if err := os.WriteFile(path, []byte("[ui]\ntheme = \"light\"\n"), 0o644); err != nil {
		t.Fatalf("WriteFile() error = %v", err)
	}
	cfg, err := Load(path, Default("/tmp/default.db"))
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if len(cfg.Board.Columns) != 3 {
		t.Fatalf("expected default columns, got %#v", cfg.Board.Columns)
	}
}

func TestLoadRejectsInvalidValues(t *testing.T) {
	cases := map[string]string{
		"theme":     "[ui]\ntheme = \"sepia\"\n",
		"log level": "[logging]\nlevel = \"loud\"\n",
		"duplicate column": `
[[board.columns]]
id = "a"
title = "A"

[[board.columns]]
id = "a"
title = "Again"
`,
		"blank column title": "[[board.columns]]\nid = \"a\"\ntitle = \" \"\n",
		"bad toml":           "[ui\n",
	}
	for name, content := range cases {
		t.Run(name, func(t *testing.T) {
			path := filepath.Join(t.TempDir(), "config.toml")
			if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
				t.Fatalf("WriteFile() error = %v", err)
			}
			if _, err := Load(path, Default("/tmp/default.db")); err == nil {
				t.Fatal("expected error")
			}
		})
	}
}

func TestWriteThenLoad(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "config.toml")
	cfg := Default("/tmp/written.db")
	cfg.UI.Theme = ThemeLight
	if err := Write(path, cfg); err != nil {
		t.Fatalf("Write() error = %v", err)
	}
	raw, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("ReadFile() error = %v", err)
	}
	if !strings.Contains(string(raw), "seed_sample_tasks") {
		t.Fatalf("expected toml keys in output, got %s", raw)
	}
	loaded, err := Load(path, Default("/tmp/other.db"))
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if loaded.Database.Path != "/tmp/written.db" || loaded.UI.Theme != ThemeLight {
		t.Fatalf("unexpected loaded config %#v", loaded)
	}
}

func TestEnsureConfigDir(t *testing.T) {
	target := filepath.Join(t.TempDir(), "a", "b", "config.toml")
	if err := EnsureConfigDir(target); err != nil {
		t.Fatalf("EnsureConfigDir() error = %v", err)
	}
	if _, err := os.Stat(filepath.Dir(target)); err != nil {
		t.Fatalf("expected dir to exist, stat error %v", err)
	}
}
