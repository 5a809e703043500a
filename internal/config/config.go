// Package config provides configuration management for KuzuMemory.
// It loads settings from environment variables with the KUZU_MEMORY_
// prefix and an optional config.yaml override, and provides sensible
// defaults for every recognized key.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

// Sentinel errors surfaced by Load.
var (
	// ErrUnknownKey is returned when config.yaml contains a key this
	// version of KuzuMemory does not recognize.
	ErrUnknownKey = errors.New("config: unknown key")
	// ErrSchemaMismatch is returned when a recognized key holds a value
	// of the wrong shape (e.g. a string where an int was expected).
	ErrSchemaMismatch = errors.New("config: schema mismatch")
)

// Config holds all configuration settings for KuzuMemory.
type Config struct {
	DBPath    string `yaml:"db_path"`
	Memory    MemoryConfig
	Recall    RecallConfig
	Async     AsyncConfig
	Storage   StorageConfig
	Locks     LocksConfig
	Retention map[string]RetentionOverride `yaml:"retention"`
}

// MemoryConfig controls user-id auto-tagging.
type MemoryConfig struct {
	AutoTagGitUser bool   `yaml:"auto_tag_git_user"`
	UserIDOverride string `yaml:"user_id_override"`
}

// RecallConfig controls attach_memories defaults.
type RecallConfig struct {
	DefaultStrategy string `yaml:"default_strategy"`
	MaxMemories     int    `yaml:"max_memories"`
}

// AsyncConfig sizes the async learning queue's worker pool and bounds how
// long a submitted task may sit queued before a worker expires it.
type AsyncConfig struct {
	Workers    int `yaml:"workers"`
	MaxQueue   int `yaml:"max_queue"`
	TaskTTLSec int `yaml:"task_ttl_sec"`
}

// StorageConfig holds storage.cache_ttl_sec. It is loaded and validated, but
// the query-result cache does not read it: internal/storage/sqlite always
// uses its fixed CacheTTL (300 s).
type StorageConfig struct {
	CacheTTLSec int `yaml:"cache_ttl_sec"`
}

// LocksConfig controls file-lock acquisition timeouts.
type LocksConfig struct {
	ForegroundTimeoutSec int `yaml:"foreground_timeout_sec"`
	HookTimeoutSec       int `yaml:"hook_timeout_sec"`
}

// RetentionOverride holds retention.<type>.ttl_days for one memory type. It
// is loaded and validated, but no component applies it: new memories take
// their default TTL from types.RetentionPolicies.
type RetentionOverride struct {
	TTLDays int `yaml:"ttl_days"`
}

const envPrefix = "KUZU_MEMORY_"

// Load builds a Config from defaults, an optional config.yaml found at
// yamlPath (skipped if it does not exist), and environment variable
// overrides, in that precedence order (env wins). Unknown keys in
// config.yaml are rejected with ErrUnknownKey; type-mismatched values
// are rejected with ErrSchemaMismatch.
func Load(yamlPath string) (*Config, error) {
	cfg := defaultConfig()

	if yamlPath != "" {
		if err := applyYAML(cfg, yamlPath); err != nil {
			return nil, err
		}
	}

	applyEnv(cfg)
	return cfg, nil
}

func defaultConfig() *Config {
	return &Config{
		DBPath: filepath.Join(".kuzu-memory", "memories.db"),
		Memory: MemoryConfig{
			AutoTagGitUser: true,
		},
		Recall: RecallConfig{
			DefaultStrategy: "hybrid",
			MaxMemories:     10,
		},
		Async: AsyncConfig{
			Workers:    2,
			MaxQueue:   256,
			TaskTTLSec: 300,
		},
		Storage: StorageConfig{
			CacheTTLSec: 300,
		},
		Locks: LocksConfig{
			ForegroundTimeoutSec: 2,
			HookTimeoutSec:       0,
		},
		Retention: map[string]RetentionOverride{},
	}
}

// applyYAML decodes yamlPath over cfg with strict key checking. A
// missing file is not an error: config.yaml is optional.
func applyYAML(cfg *Config, yamlPath string) error {
	f, err := os.Open(yamlPath) // #nosec G304 - path supplied by caller/env, not request input
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return fmt.Errorf("config: reading %s: %w", yamlPath, err)
	}
	defer f.Close()

	dec := yaml.NewDecoder(f)
	dec.KnownFields(true)
	if err := dec.Decode(cfg); err != nil {
		if isUnknownFieldError(err) {
			return fmt.Errorf("%s: %w", err, ErrUnknownKey)
		}
		return fmt.Errorf("%s: %w", err, ErrSchemaMismatch)
	}
	return nil
}

// isUnknownFieldError reports whether err came from yaml.v3's
// KnownFields(true) rejecting a field absent from the target struct.
func isUnknownFieldError(err error) bool {
	return strings.Contains(err.Error(), "not found in type") ||
		strings.Contains(err.Error(), "unknown field")
}

// applyEnv applies the one environment variable recognized by the core
// config. Additional KUZU_MEMORY_* variables are deliberately not
// recognized here: the YAML file is the surface for everything else.
func applyEnv(cfg *Config) {
	if v := os.Getenv(envPrefix + "DB"); v != "" {
		cfg.DBPath = v
	}
	// KUZU_MEMORY_MODE is a free-form hint consumed by the CLI/MCP/hook
	// adapters; the core config has nothing to apply it to.
}
