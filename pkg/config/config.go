// Package config holds runner settings for prehook, distinct from the hook
// document itself (.prehook.yaml). Settings cover concurrency, timeouts,
// cache placement, and output preferences.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Settings holds all runner configuration for prehook
type Settings struct {
	Run    RunSettings    `mapstructure:"run"`
	Cache  CacheSettings  `mapstructure:"cache"`
	Output OutputSettings `mapstructure:"output"`
}

// RunSettings holds execution engine options
type RunSettings struct {
	// Concurrency is the worker count. When 0, ConcurrencyPercent applies.
	Concurrency int `mapstructure:"concurrency"`
	// ConcurrencyPercent sizes workers as a percentage of CPU cores (1-100).
	ConcurrencyPercent int `mapstructure:"concurrency_percent"`
	// HookTimeout bounds a single hook invocation. Zero disables the bound.
	HookTimeout time.Duration `mapstructure:"hook_timeout"`
	// Sequential forces one-at-a-time execution regardless of worker count.
	Sequential bool `mapstructure:"sequential"`
	// ExcludeGlobs are runner-level glob exclusions applied before any
	// per-hook filters (doublestar syntax).
	ExcludeGlobs []string `mapstructure:"exclude_globs"`
}

// CacheSettings holds resolver cache options
type CacheSettings struct {
	// Dir overrides the default cache location under the prehook home.
	Dir string `mapstructure:"dir"`
}

// OutputSettings holds reporting options
type OutputSettings struct {
	Color  bool   `mapstructure:"color"`
	Format string `mapstructure:"format"` // "pretty" or "json"
}

var defaultSettings = Settings{
	Run: RunSettings{
		Concurrency:        0,
		ConcurrencyPercent: 50,
		HookTimeout:        2 * time.Minute,
		Sequential:         false,
		ExcludeGlobs:       []string{},
	},
	Cache: CacheSettings{
		Dir: "",
	},
	Output: OutputSettings{
		Color:  true,
		Format: "pretty",
	},
}

// LoadSettings loads runner settings from config files and environment.
// Search order: ./prehook.yaml (settings, not the hook document), $HOME,
// then the prehook home config dir. PREHOOK_* env vars override.
func LoadSettings() (*Settings, error) {
	v := viper.New()

	v.SetDefault("run.concurrency", defaultSettings.Run.Concurrency)
	v.SetDefault("run.concurrency_percent", defaultSettings.Run.ConcurrencyPercent)
	v.SetDefault("run.hook_timeout", defaultSettings.Run.HookTimeout)
	v.SetDefault("run.sequential", defaultSettings.Run.Sequential)
	v.SetDefault("run.exclude_globs", defaultSettings.Run.ExcludeGlobs)
	v.SetDefault("cache.dir", defaultSettings.Cache.Dir)
	v.SetDefault("output.color", defaultSettings.Output.Color)
	v.SetDefault("output.format", defaultSettings.Output.Format)

	v.SetConfigName("prehook")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")
	v.AddConfigPath("$HOME")
	if configDir, err := GetConfigDir(); err == nil {
		v.AddConfigPath(configDir)
	}

	v.SetEnvPrefix("PREHOOK")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Settings file is optional; defaults apply when absent.
	_ = v.ReadInConfig()

	var settings Settings
	if err := v.Unmarshal(&settings); err != nil {
		return nil, fmt.Errorf("error unmarshaling settings: %v", err)
	}

	return &settings, nil
}

// GetPrehookHome returns the prehook home directory
func GetPrehookHome() (string, error) {
	if home := os.Getenv("PREHOOK_HOME"); home != "" {
		return home, nil
	}

	homeDir, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("failed to get user home directory: %v", err)
	}

	return filepath.Join(homeDir, ".prehook"), nil
}

// EnsurePrehookHome creates the prehook home directory if it doesn't exist
func EnsurePrehookHome() (string, error) {
	homeDir, err := GetPrehookHome()
	if err != nil {
		return "", err
	}

	if err := os.MkdirAll(homeDir, 0750); err != nil {
		return "", fmt.Errorf("failed to create prehook home directory: %v", err)
	}

	return homeDir, nil
}

// GetCacheDir returns the resolver cache directory
func GetCacheDir() (string, error) {
	homeDir, err := EnsurePrehookHome()
	if err != nil {
		return "", err
	}
	cacheDir := filepath.Join(homeDir, "cache")
	if err := os.MkdirAll(cacheDir, 0750); err != nil {
		return "", fmt.Errorf("failed to create cache directory: %v", err)
	}
	return cacheDir, nil
}

// GetConfigDir returns the config directory under the prehook home
func GetConfigDir() (string, error) {
	homeDir, err := EnsurePrehookHome()
	if err != nil {
		return "", err
	}
	configDir := filepath.Join(homeDir, "config")
	if err := os.MkdirAll(configDir, 0750); err != nil {
		return "", fmt.Errorf("failed to create config directory: %v", err)
	}
	return configDir, nil
}

// ResolveCacheDir returns the effective cache directory given the settings
// override, falling back to the prehook home cache.
func (s *Settings) ResolveCacheDir() (string, error) {
	if s != nil && s.Cache.Dir != "" {
		if err := os.MkdirAll(s.Cache.Dir, 0750); err != nil {
			return "", fmt.Errorf("failed to create cache directory: %v", err)
		}
		return s.Cache.Dir, nil
	}
	return GetCacheDir()
}

// WorkerCount resolves the effective worker count from concurrency settings
// against the given CPU core count.
func (s *Settings) WorkerCount(cores int) int {
	if s.Run.Sequential {
		return 1
	}
	if s.Run.Concurrency > 0 {
		return s.Run.Concurrency
	}
	percent := s.Run.ConcurrencyPercent
	if percent <= 0 {
		percent = 50
	}
	workers := (cores * percent) / 100
	if workers < 1 {
		workers = 1
	}
	return workers
}
