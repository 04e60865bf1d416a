// Package config provides layered configuration loading for the gateway.
package config

import (
	"os"
	"path/filepath"
	"runtime"
)

// Paths contains the standard paths for the gateway's own data.
type Paths struct {
	Data   string // ~/.local/share/mcp-gateway
	Config string // ~/.config/mcp-gateway
	Cache  string // ~/.cache/mcp-gateway
	State  string // ~/.local/state/mcp-gateway
}

// GetPaths returns the standard paths for gateway data.
func GetPaths() *Paths {
	return &Paths{
		Data:   filepath.Join(getEnvOrDefault("XDG_DATA_HOME", defaultDataHome()), "mcp-gateway"),
		Config: filepath.Join(getEnvOrDefault("XDG_CONFIG_HOME", defaultConfigHome()), "mcp-gateway"),
		Cache:  filepath.Join(getEnvOrDefault("XDG_CACHE_HOME", defaultCacheHome()), "mcp-gateway"),
		State:  filepath.Join(getEnvOrDefault("XDG_STATE_HOME", defaultStateHome()), "mcp-gateway"),
	}
}

// EnsurePaths creates all required directories.
func (p *Paths) EnsurePaths() error {
	for _, dir := range []string{p.Data, p.Config, p.Cache, p.State} {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return err
		}
	}
	return nil
}

// StoragePath returns the path to the on-disk file-profile storage directory.
func (p *Paths) StoragePath() string {
	return filepath.Join(p.Data, "storage")
}

func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func defaultDataHome() string {
	if runtime.GOOS == "windows" {
		return os.Getenv("APPDATA")
	}
	return filepath.Join(os.Getenv("HOME"), ".local", "share")
}

func defaultConfigHome() string {
	if runtime.GOOS == "windows" {
		return os.Getenv("APPDATA")
	}
	return filepath.Join(os.Getenv("HOME"), ".config")
}

func defaultCacheHome() string {
	if runtime.GOOS == "windows" {
		return filepath.Join(os.Getenv("APPDATA"), "cache")
	}
	return filepath.Join(os.Getenv("HOME"), ".cache")
}

func defaultStateHome() string {
	if runtime.GOOS == "windows" {
		return os.Getenv("APPDATA")
	}
	return filepath.Join(os.Getenv("HOME"), ".local", "state")
}

// GlobalConfigPath returns the path to the global config file.
func GlobalConfigPath() string {
	return filepath.Join(GetPaths().Config, "gateway.json")
}

// ProjectConfigPath returns the path to the project-local config file.
func ProjectConfigPath(directory string) string {
	return filepath.Join(directory, ".mcp-gateway", "gateway.json")
}
