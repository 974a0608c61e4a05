// Package paths locates the taskboard configuration and data directories.
package paths

import (
	"os"
	"path/filepath"
	"runtime"
)

// AppName is the directory name used under platform config and data roots.
const AppName = "taskboard"

// DefaultDataDirName is the CWD-relative data directory used when nothing
// else is configured.
const DefaultDataDirName = ".taskboard-db"

// Environment overrides.
const (
	EnvConfigDir = "TASKBOARD_CONFIG_DIR"
	EnvDataDir   = "TASKBOARD_DATA_DIR"
)

// platform holds the OS lookups; tests replace them.
var platform = struct {
	goos          string
	homeDir       func() (string, error)
	userConfigDir func() (string, error)
}{
	goos:          runtime.GOOS,
	homeDir:       os.UserHomeDir,
	userConfigDir: os.UserConfigDir,
}

// xdgDir returns $xdgEnv/taskboard on Linux, falling back to
// ~/<fallback...>/taskboard. Other platforms use os.UserConfigDir, which is
// ~/Library/Application Support on macOS and %APPDATA% on Windows.
func xdgDir(xdgEnv string, fallback ...string) (string, error) {
	if platform.goos != "linux" {
		dir, err := platform.userConfigDir()
		if err != nil {
			return "", err
		}
		return filepath.Join(dir, AppName), nil
	}
	if xdg := os.Getenv(xdgEnv); xdg != "" {
		return filepath.Join(xdg, AppName), nil
	}
	home, err := platform.homeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(append(append([]string{home}, fallback...), AppName)...), nil
}

// DefaultConfigDir returns the platform configuration directory.
func DefaultConfigDir() (string, error) {
	return xdgDir("XDG_CONFIG_HOME", ".config")
}

// DefaultDataDir returns the platform data directory. The CLI only uses it
// when asked to; ResolveDataDir defaults to the working directory.
func DefaultDataDir() (string, error) {
	return xdgDir("XDG_DATA_HOME", ".local", "share")
}

// firstAbs returns the first non-empty candidate made absolute.
func firstAbs(candidates ...string) (string, bool, error) {
	for _, c := range candidates {
		if c != "" {
			abs, err := filepath.Abs(c)
			return abs, true, err
		}
	}
	return "", false, nil
}

// ResolveConfigDir applies flag > TASKBOARD_CONFIG_DIR > DefaultConfigDir.
func ResolveConfigDir(flag string) (string, error) {
	if dir, ok, err := firstAbs(flag, os.Getenv(EnvConfigDir)); ok {
		return dir, err
	}
	return DefaultConfigDir()
}

// ResolveDataDir applies flag > config data_dir > TASKBOARD_DATA_DIR >
// $(CWD)/.taskboard-db.
func ResolveDataDir(flag, configured string) (string, error) {
	if dir, ok, err := firstAbs(flag, configured, os.Getenv(EnvDataDir)); ok {
		return dir, err
	}
	cwd, err := os.Getwd()
	if err != nil {
		return "", err
	}
	return filepath.Join(cwd, DefaultDataDirName), nil
}
