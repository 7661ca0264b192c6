// Package config resolves the per-user directories the rest of the module
// writes durable state into: the chunk store database, its instance lock,
// and debug logs.
package config

import (
	"os"
	"path/filepath"
	"runtime"
)

const appDirName = "resumeload"

// GetAppDir returns the per-user directory durable files live under.
// XDG_CONFIG_HOME wins on every platform when set; otherwise APPDATA is
// used on Windows, and a directory under the user's home elsewhere.
func GetAppDir() string {
	if xdg := os.Getenv("XDG_CONFIG_HOME"); xdg != "" {
		return filepath.Join(xdg, appDirName)
	}

	if runtime.GOOS == "windows" {
		if appData := os.Getenv("APPDATA"); appData != "" {
			return filepath.Join(appData, appDirName)
		}
	}

	home, err := os.UserHomeDir()
	if err != nil {
		return filepath.Join(".", "."+appDirName)
	}

	switch runtime.GOOS {
	case "darwin":
		return filepath.Join(home, "Library", "Application Support", appDirName)
	default:
		return filepath.Join(home, ".config", appDirName)
	}
}

// GetDBPath returns the path to the chunk store's SQLite database file.
func GetDBPath() string {
	return filepath.Join(GetAppDir(), "store.db")
}

// GetLockPath returns the path to the store's single-instance advisory lock.
func GetLockPath() string {
	return filepath.Join(GetAppDir(), "store.lock")
}

// GetLogsDir returns the directory debug log files are written to.
func GetLogsDir() string {
	return filepath.Join(GetAppDir(), "logs")
}

// EnsureDirs creates the application and logs directories if they don't
// already exist.
func EnsureDirs() error {
	if err := os.MkdirAll(GetAppDir(), 0o755); err != nil {
		return err
	}
	return os.MkdirAll(GetLogsDir(), 0o755)
}
