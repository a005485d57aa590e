package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"strings"

	toml "github.com/pelletier/go-toml/v2"
)

// Theme values accepted by ui.theme.
const (
	ThemeAuto  = "auto"
	ThemeLight = "light"
	ThemeDark  = "dark"
)

type Config struct {
	Database DatabaseConfig `toml:"database"`
	Board    BoardConfig    `toml:"board"`
	UI       UIConfig       `toml:"ui"`
	Keys     KeyConfig      `toml:"keys"`
	Logging  LoggingConfig  `toml:"logging"`
}

type DatabaseConfig struct {
	Path string `toml:"path"`
}

// BoardConfig seeds a board on first run. Changing it later does not rewrite
// columns that are already stored.
type BoardConfig struct {
	Columns         []ColumnConfig `toml:"columns"`
	SeedSampleTasks bool           `toml:"seed_sample_tasks"`
}

type ColumnConfig struct {
	ID             string `toml:"id"`
	Title          string `toml:"title"`
	Accent         string `toml:"accent"`
	Background     string `toml:"background"`
	Text           string `toml:"text"`
	DarkBackground string `toml:"dark_background"`
	DarkText       string `toml:"dark_text"`
}

type UIConfig struct {
	Theme           string `toml:"theme"` // auto | light | dark
	ShowPriority    bool   `toml:"show_priority"`
	ShowDueDate     bool   `toml:"show_due_date"`
	ShowDescription bool   `toml:"show_description"`
	ConfirmDelete   bool   `toml:"confirm_delete"`
}

// KeyConfig overrides single-action key bindings. Empty values keep the
// built-in key.
type KeyConfig struct {
	Grab         string `toml:"grab"`
	AddTask      string `toml:"add_task"`
	EditTask     string `toml:"edit_task"`
	DeleteTask   string `toml:"delete_task"`
	RenameColumn string `toml:"rename_column"`
	ToggleTheme  string `toml:"toggle_theme"`
	TaskInfo     string `toml:"task_info"`
	CopyTitle    string `toml:"copy_title"`
}

type LoggingConfig struct {
	Level   string        `toml:"level"`
	DevFile DevFileConfig `toml:"dev_file"`
}

type DevFileConfig struct {
	Enabled bool   `toml:"enabled"`
	Dir     string `toml:"dir"`
}

var logLevels = []string{"debug", "info", "warn", "error", "fatal"}

func defaultColumns() []ColumnConfig {
	return []ColumnConfig{
		{ID: "todo", Title: "To Do", Accent: "245", Background: "#F3F4F6", Text: "#374151", DarkBackground: "#1F2937", DarkText: "#E5E7EB"},
		{ID: "inprogress", Title: "In Progress", Accent: "75", Background: "#DBEAFE", Text: "#1D4ED8", DarkBackground: "#1E3A8A", DarkText: "#BFDBFE"},
		{ID: "completed", Title: "Completed", Accent: "78", Background: "#DCFCE7", Text: "#15803D", DarkBackground: "#14532D", DarkText: "#BBF7D0"},
	}
}

func Default(dbPath string) Config {
	return Config{
		Database: DatabaseConfig{
			Path: dbPath,
		},
		Board: BoardConfig{
			Columns:         defaultColumns(),
			SeedSampleTasks: true,
		},
		UI: UIConfig{
			Theme:           ThemeAuto,
			ShowPriority:    true,
			ShowDueDate:     true,
			ShowDescription: false,
			ConfirmDelete:   true,
		},
		Logging: LoggingConfig{
			Level: "info",
			DevFile: DevFileConfig{
				Enabled: true,
				Dir:     ".tavla/log",
			},
		},
	}
}

func Load(path string, defaults Config) (Config, error) {
	cfg := defaults
	if strings.TrimSpace(path) == "" {
		return cfg, nil
	}

	content, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return cfg, nil
		}
		return Config{}, fmt.Errorf("read config: %w", err)
	}
	if len(content) == 0 {
		return cfg, nil
	}

	// a file that names columns replaces the default list instead of merging into it
	cfg.Board.Columns = nil
	if err := toml.Unmarshal(content, &cfg); err != nil {
		return Config{}, fmt.Errorf("decode toml: %w", err)
	}
	if len(cfg.Board.Columns) == 0 {
		cfg.Board.Columns = slices.Clone(defaults.Board.Columns)
	}

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}

	return cfg, nil
}

func (c Config) Validate() error {
	c.Database.Path = strings.TrimSpace(c.Database.Path)
	if c.Database.Path == "" {
		return errors.New("database path is required")
	}

	if len(c.Board.Columns) == 0 {
		return errors.New("board.columns must include at least one column")
	}
	seenColumnID := map[string]struct{}{}
	for idx, col := range c.Board.Columns {
		id := strings.TrimSpace(col.ID)
		if id == "" {
			return fmt.Errorf("board.columns[%d].id is required", idx)
		}
		if strings.TrimSpace(col.Title) == "" {
			return fmt.Errorf("board.columns[%d].title is required", idx)
		}
		if _, ok := seenColumnID[id]; ok {
			return fmt.Errorf("board.columns[%d].id is duplicated: %s", idx, id)
		}
		seenColumnID[id] = struct{}{}
	}

	switch strings.TrimSpace(strings.ToLower(c.UI.Theme)) {
	case "", ThemeAuto, ThemeLight, ThemeDark:
	default:
		return fmt.Errorf("invalid ui.theme: %q", c.UI.Theme)
	}

	level := strings.TrimSpace(strings.ToLower(c.Logging.Level))
	if level != "" && !slices.Contains(logLevels, level) {
		return fmt.Errorf("invalid logging.level: %q", c.Logging.Level)
	}

	return nil
}

// Write encodes cfg as TOML at path, creating the parent directory.
func Write(path string, cfg Config) error {
	if err := EnsureConfigDir(path); err != nil {
		return fmt.Errorf("create config dir: %w", err)
	}
	content, err := toml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("encode toml: %w", err)
	}
	if err := os.WriteFile(path, content, 0o644); err != nil {
		return fmt.Errorf("write config: %w", err)
	}
	return nil
}

func EnsureConfigDir(path string) error {
	dir := filepath.Dir(path)
	if dir == "." || dir == "" {
		return nil
	}
	return os.MkdirAll(dir, 0o755)
}
