package platform

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"strings"
)

// DefaultAppName names the config and data directories when no app name is given.
const DefaultAppName = "tavla"

// Environment variables that override the default locations.
const (
	EnvConfigPath = "TAVLA_CONFIG"
	EnvDBPath     = "TAVLA_DB_PATH"
)

// Source records which rule chose a path.
type Source string

const (
	SourceDefault Source = "default"
	SourceEnv     Source = "env"
	SourceFlag    Source = "flag"
)

// Request carries what one invocation asked for. Empty flag values fall
// through to the environment and then to the platform layout.
type Request struct {
	AppName    string
	DevMode    bool
	ConfigFlag string
	DBFlag     string
}

// Layout is where one invocation reads its config and keeps its board.
type Layout struct {
	AppDir       string
	ConfigPath   string
	ConfigSource Source
	DataDir      string
	DBPath       string
	DBSource     Source
}

// DBOverridden reports whether the database path beats the config file's
// database.path setting.
func (l Layout) DBOverridden() bool {
	return l.DBSource != SourceDefault
}

// Host describes the machine paths are resolved against.
type Host struct {
	GOOS      string
	Getenv    func(string) string
	ConfigDir func() (string, error)
	HomeDir   func() (string, error)
}

// CurrentHost reads the running process.
func CurrentHost() Host {
	return Host{
		GOOS:      runtime.GOOS,
		Getenv:    os.Getenv,
		ConfigDir: os.UserConfigDir,
		HomeDir:   os.UserHomeDir,
	}
}

// Resolve applies flags, then environment, then the platform layout on the
// current host.
func Resolve(req Request) (Layout, error) {
	return CurrentHost().Resolve(req)
}

// Resolve applies flags, then environment, then the platform layout.
func (h Host) Resolve(req Request) (Layout, error) {
	dir := AppDirName(req.AppName, req.DevMode)
	configBase, dataBase, err := h.baseDirs()
	if err != nil {
		return Layout{}, err
	}

	out := Layout{
		AppDir:  dir,
		DataDir: filepath.Join(dataBase, dir),
	}
	out.ConfigPath, out.ConfigSource = pick(req.ConfigFlag, h.env(EnvConfigPath), filepath.Join(configBase, dir, "config.toml"))
	out.DBPath, out.DBSource = pick(req.DBFlag, h.env(EnvDBPath), filepath.Join(out.DataDir, dir+".db"))
	return out, nil
}

// AppDirName is the directory and database stem for appName. Dev runs get a
// "-dev" suffix so they never touch the real board.
func AppDirName(appName string, devMode bool) string {
	name := strings.TrimSpace(appName)
	if name == "" {
		name = DefaultAppName
	}
	if devMode && !strings.HasSuffix(name, "-dev") {
		name += "-dev"
	}
	return name
}

func pick(flag, env, fallback string) (string, Source) {
	if v := strings.TrimSpace(flag); v != "" {
		return v, SourceFlag
	}
	if env != "" {
		return env, SourceEnv
	}
	return fallback, SourceDefault
}

func (h Host) env(key string) string {
	if h.Getenv == nil {
		return ""
	}
	return strings.TrimSpace(h.Getenv(key))
}

// baseDirs returns the parent directories for config and data. Windows uses
// roaming APPDATA for config and LOCALAPPDATA for the database, macOS keeps
// both under Application Support, and everything else follows XDG.
func (h Host) baseDirs() (configBase, dataBase string, err error) {
	switch h.GOOS {
	case "windows":
		configBase = h.env("APPDATA")
		dataBase = h.env("LOCALAPPDATA")
		if configBase == "" {
			if configBase, err = h.userConfigDir(); err != nil {
				return "", "", err
			}
		}
		if dataBase == "" {
			dataBase = configBase
		}
	case "darwin":
		if configBase, err = h.userConfigDir(); err != nil {
			return "", "", err
		}
		dataBase = configBase
	default:
		configBase = h.env("XDG_CONFIG_HOME")
		if configBase == "" {
			if configBase, err = h.userConfigDir(); err != nil {
				return "", "", err
			}
		}
		dataBase = h.env("XDG_DATA_HOME")
		if dataBase == "" {
			home, homeErr := h.homeDir()
			if homeErr != nil {
				return "", "", homeErr
			}
			dataBase = filepath.Join(home, ".local", "share")
		}
	}
	return configBase, dataBase, nil
}

func (h Host) userConfigDir() (string, error) {
	if h.ConfigDir == nil {
		return "", errors.New("user config dir: not available")
	}
	dir, err := h.ConfigDir()
	if err != nil {
		return "", fmt.Errorf("user config dir: %w", err)
	}
	if strings.TrimSpace(dir) == "" {
		return "", errors.New("user config dir: empty")
	}
	return dir, nil
}

func (h Host) homeDir() (string, error) {
	if h.HomeDir == nil {
		return "", errors.New("user home dir: not available")
	}
	dir, err := h.HomeDir()
	if err != nil {
		return "", fmt.Errorf("user home dir: %w", err)
	}
	if strings.TrimSpace(dir) == "" {
		return "", errors.New("user home dir: empty")
	}
	return dir, nil
}
