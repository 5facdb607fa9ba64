package config

import (
	"path/filepath"
)

var (
	// GazetteerSchemaVersion is the PRAGMA user_version the gazetteer
	// database must carry.
	GazetteerSchemaVersion = 1
	// CacheSchemaVersion is the PRAGMA user_version of the API cache.
	CacheSchemaVersion = 1
	// AppName is used in generating file system paths.
	AppName = "taxfinder"
)

// ConfigDir returns the directory path for configuration files.
// Returns ~/.config/taxfinder by default.
func ConfigDir(homeDir string) string {
	return filepath.Join(homeDir, ".config", AppName)
}

// CacheDir returns the directory path for cache files.
// Returns ~/.cache/taxfinder by default.
func CacheDir(homeDir string) string {
	return filepath.Join(homeDir, ".cache", AppName)
}

// LogDir returns the directory path for log files.
// Returns ~/.local/share/taxfinder/logs by default.
func LogDir(homeDir string) string {
	return filepath.Join(homeDir, ".local", "share", AppName, "logs")
}

// CheckpointDir returns the directory path for per-run checkpoints.
func CheckpointDir(homeDir string) string {
	return filepath.Join(CacheDir(homeDir), "checkpoints")
}

// ConfigFilePath returns the full path to the taxfinder.yaml file.
// Returns ~/.config/taxfinder/taxfinder.yaml by default.
func ConfigFilePath(homeDir string) string {
	return filepath.Join(ConfigDir(homeDir), "taxfinder.yaml")
}
