package paths

import (
	"os"
	"path/filepath"
)

// EnvHome overrides the base directory.
const EnvHome = "GUESTBOOK_HOME"

// BaseDir returns $GUESTBOOK_HOME, or ~/.guestbook.
func BaseDir() string {
	if dir := os.Getenv(EnvHome); dir != "" {
		return dir
	}
	home, _ := os.UserHomeDir()
	return filepath.Join(home, ".guestbook")
}

// ConfigPath returns the config file path.
func ConfigPath() string {
	return filepath.Join(BaseDir(), "config.toml")
}

// LogDir returns the log directory.
func LogDir() string {
	return filepath.Join(BaseDir(), "logs")
}

// LogPath returns the log file for a binary, e.g. logs/gbtui.log.
func LogPath(component string) string {
	return filepath.Join(LogDir(), component+".log")
}

// DataDir returns the default server data directory.
func DataDir() string {
	return filepath.Join(BaseDir(), "data")
}

// DBPath returns the entries database inside dataDir.
func DBPath(dataDir string) string {
	return filepath.Join(dataDir, "guestbook.db")
}

// EnsureDir creates each directory with owner-only permissions.
func EnsureDir(dirs ...string) error {
	for _, d := range dirs {
		if err := os.MkdirAll(d, 0700); err != nil {
			return err
		}
	}
	return nil
}
