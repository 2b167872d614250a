package utils

import (
	"os"
	"path/filepath"
	"strings"
	"time"
)

const (
	LogFileName     = "oraclevoting.log"
	DefaultLogLevel = "info"

	// UserFilePerm contains permissions for the user only. Attempting to
	// access the files and directories created by this package by any other
	// user may fail.
	UserFilePerm = os.FileMode(0700)

	// DefaultPollInterval is how long the transaction poller waits between two
	// status queries for the same hash.
	DefaultPollInterval = 10 * time.Second
	// DefaultSchedulerInterval is the deferred vote scheduler tick.
	DefaultSchedulerInterval = 20 * time.Second
	// DefaultBlockRefreshInterval is how often the cached chain height is
	// refreshed by the scheduler.
	DefaultBlockRefreshInterval = 10 * time.Second
	// DefaultListPageSize is the number of contracts requested per index page.
	DefaultListPageSize = 10
	// DefaultListRefreshInterval is how often the visible contracts are
	// reloaded from the index.
	DefaultListRefreshInterval = time.Minute

	// LastListSyncConfigKey stores the unix time of the last successful list
	// refresh.
	LastListSyncConfigKey = "oraclevoting_last_list_sync"
	// LogLevelConfigKey stores the persisted debug level.
	LogLevelConfigKey = "log_level"
)

// CleanAndExpandPath expands environment variables and leading ~ in the
// passed path, cleans the result, and returns it.
func CleanAndExpandPath(path string) string {
	if path == "" {
		return ""
	}

	if strings.HasPrefix(path, "~") {
		homeDir, err := os.UserHomeDir()
		if err == nil {
			path = filepath.Join(homeDir, path[1:])
		}
	}

	return filepath.Clean(os.ExpandEnv(path))
}
