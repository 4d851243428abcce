// Package config loads klumpen settings from a TOML file, the environment
// and an optional .env file.
//
// Precedence, lowest first: built-in defaults, the config file, KLUMPEN_*
// environment variables. Command-line flags are applied by the CLI on top.
//
// The config file is the first of:
//
//  1. the path given with --config
//  2. ./klumpen.toml
//  3. $XDG_CONFIG_HOME/klumpen/config.toml (~/.config/klumpen/config.toml)
//
// Example:
//
//	[classify]
//	monorepo_dirs = ["apps", "packages", "tools"]
//
//	[treemap]
//	width = 120
//	height = 40
//
//	[cache]
//	backend = "redis"
//	redis_url = "redis://localhost:6379/0"
//	ttl = "72h"
//
//	[storage]
//	backend = "mongo"
//	mongo_uri = "mongodb://localhost:27017"
//
//	[server]
//	addr = ":8080"
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/joho/godotenv"

	"github.com/matzehuels/klumpen/pkg/errors"
)

const (
	appName  = "klumpen"
	fileName = "klumpen.toml"
)

// Cache backends.
const (
	CacheFile   = "file"
	CacheMemory = "memory"
	CacheRedis  = "redis"
	CacheNone   = "none"
)

// Storage backends.
const (
	StorageFile   = "file"
	StorageMemory = "memory"
	StorageMongo  = "mongo"
)

// Config is the merged configuration.
type Config struct {
	Classify ClassifyConfig `toml:"classify"`
	Treemap  TreemapConfig  `toml:"treemap"`
	Cache    CacheConfig    `toml:"cache"`
	Storage  StorageConfig  `toml:"storage"`
	Server   ServerConfig   `toml:"server"`

	// Path is the config file that was read, or "" if none was found.
	Path string `toml:"-"`
}

type ClassifyConfig struct {
	MonorepoDirs []string `toml:"monorepo_dirs"`
}

type TreemapConfig struct {
	Width  int `toml:"width"`
	Height int `toml:"height"`
}

type CacheConfig struct {
	Backend  string   `toml:"backend"`
	Dir      string   `toml:"dir"`
	RedisURL string   `toml:"redis_url"`
	Prefix   string   `toml:"prefix"`
	Entries  int      `toml:"entries"`
	TTL      Duration `toml:"ttl"`
}

type StorageConfig struct {
	Backend  string `toml:"backend"`
	Dir      string `toml:"dir"`
	MongoURI string `toml:"mongo_uri"`
	Database string `toml:"database"`
}

type ServerConfig struct {
	Addr string `toml:"addr"`
}

// Duration is a time.Duration written as a string such as "36h".
type Duration struct{ time.Duration }

func (d *Duration) UnmarshalText(text []byte) error {
	v, err := time.ParseDuration(string(text))
	if err != nil {
		return err
	}
	d.Duration = v
	return nil
}

func (d Duration) MarshalText() ([]byte, error) {
	return []byte(d.String()), nil
}

// Default returns the built-in configuration.
func Default() *Config {
	return &Config{
		Cache:   CacheConfig{Backend: CacheFile, Dir: cacheDir()},
		Storage: StorageConfig{Backend: StorageFile, Dir: dataDir()},
		Server:  ServerConfig{Addr: ":8080"},
	}
}

// Load reads .env from the working directory, then the config file at path
// (or the first default location that exists) and the environment.
func Load(path string) (*Config, error) {
	_ = godotenv.Load()
	return LoadFrom(path, os.Getenv)
}

// LoadFrom is Load with an explicit environment lookup and without .env
// handling.
func LoadFrom(path string, getenv func(string) string) (*Config, error) {
	cfg := Default()

	explicit := path != ""
	if !explicit {
		path = findFile(getenv)
	}
	if path != "" {
		if err := cfg.decodeFile(path, explicit); err != nil {
			return nil, err
		}
	}
	if err := cfg.applyEnv(getenv); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) decodeFile(path string, explicit bool) error {
	md, err := toml.DecodeFile(path, c)
	if err != nil {
		if os.IsNotExist(err) && !explicit {
			return nil
		}
		if os.IsNotExist(err) {
			return errors.Wrap(errors.ErrCodeFileNotFound, err, "config file %s not found", path)
		}
		return errors.Wrap(errors.ErrCodeInvalidInput, err, "parse config %s", path)
	}
	if undecoded := md.Undecoded(); len(undecoded) > 0 {
		keys := make([]string, len(undecoded))
		for i, k := range undecoded {
			keys[i] = k.String()
		}
		return errors.New(errors.ErrCodeInvalidInput, "unknown config keys in %s: %s", path, strings.Join(keys, ", "))
	}
	c.Path = path
	return nil
}

func (c *Config) applyEnv(getenv func(string) string) error {
	env := func(name string) string { return strings.TrimSpace(getenv("KLUMPEN_" + name)) }

	if v := env("MONOREPO_DIRS"); v != "" {
		c.Classify.MonorepoDirs = splitList(v)
	}
	for name, dst := range map[string]*int{
		"WIDTH":         &c.Treemap.Width,
		"HEIGHT":        &c.Treemap.Height,
		"CACHE_ENTRIES": &c.Cache.Entries,
	} {
		v := env(name)
		if v == "" {
			continue
		}
		n, err := strconv.Atoi(v)
		if err != nil {
			return errors.Wrap(errors.ErrCodeInvalidInput, err, "KLUMPEN_%s must be an integer", name)
		}
		*dst = n
	}
	if v := env("CACHE_TTL"); v != "" {
		if err := c.Cache.TTL.UnmarshalText([]byte(v)); err != nil {
			return errors.Wrap(errors.ErrCodeInvalidInput, err, "KLUMPEN_CACHE_TTL")
		}
	}
	for name, dst := range map[string]*string{
		"CACHE":          &c.Cache.Backend,
		"CACHE_DIR":      &c.Cache.Dir,
		"REDIS_URL":      &c.Cache.RedisURL,
		"CACHE_PREFIX":   &c.Cache.Prefix,
		"STORAGE":        &c.Storage.Backend,
		"HISTORY_DIR":    &c.Storage.Dir,
		"MONGO_URI":      &c.Storage.MongoURI,
		"MONGO_DATABASE": &c.Storage.Database,
		"ADDR":           &c.Server.Addr,
	} {
		if v := env(name); v != "" {
			*dst = v
		}
	}
	return nil
}

// Validate checks backend names and the settings each backend needs.
func (c *Config) Validate() error {
	switch c.Cache.Backend {
	case CacheFile, CacheMemory, CacheNone:
	case CacheRedis:
		if c.Cache.RedisURL == "" {
			return errors.New(errors.ErrCodeInvalidInput, "cache backend redis needs cache.redis_url")
		}
	default:
		return errors.New(errors.ErrCodeInvalidInput, "unknown cache backend %q", c.Cache.Backend)
	}

	switch c.Storage.Backend {
	case StorageFile, StorageMemory:
	case StorageMongo:
		if c.Storage.MongoURI == "" {
			return errors.New(errors.ErrCodeInvalidInput, "storage backend mongo needs storage.mongo_uri")
		}
	default:
		return errors.New(errors.ErrCodeInvalidInput, "unknown storage backend %q", c.Storage.Backend)
	}

	if c.Treemap.Width < 0 || c.Treemap.Height < 0 {
		return errors.New(errors.ErrCodeInvalidCanvas, "treemap size cannot be negative")
	}
	if c.Cache.TTL.Duration < 0 {
		return errors.New(errors.ErrCodeInvalidInput, "cache ttl cannot be negative")
	}
	return nil
}

func findFile(getenv func(string) string) string {
	candidates := []string{fileName}
	if dir := configDir(getenv); dir != "" {
		candidates = append(candidates, filepath.Join(dir, appName, "config.toml"))
	}
	for _, p := range candidates {
		if _, err := os.Stat(p); err == nil {
			return p
		}
	}
	return ""
}

func configDir(getenv func(string) string) string {
	if dir := getenv("XDG_CONFIG_HOME"); dir != "" {
		return dir
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return ""
	}
	return filepath.Join(home, ".config")
}

// cacheDir follows XDG: $XDG_CACHE_HOME/klumpen or ~/.cache/klumpen.
func cacheDir() string {
	if dir := os.Getenv("XDG_CACHE_HOME"); dir != "" {
		return filepath.Join(dir, appName)
	}
	if home, err := os.UserHomeDir(); err == nil {
		return filepath.Join(home, ".cache", appName)
	}
	return filepath.Join(os.TempDir(), appName)
}

// dataDir follows XDG: $XDG_DATA_HOME/klumpen/history or
// ~/.local/share/klumpen/history.
func dataDir() string {
	if dir := os.Getenv("XDG_DATA_HOME"); dir != "" {
		return filepath.Join(dir, appName, "history")
	}
	if home, err := os.UserHomeDir(); err == nil {
		return filepath.Join(home, ".local", "share", appName, "history")
	}
	return filepath.Join(os.TempDir(), appName, "history")
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

// String renders the effective configuration as TOML.
func (c *Config) String() string {
	var b strings.Builder
	if err := toml.NewEncoder(&b).Encode(c); err != nil {
		return fmt.Sprintf("config: %v", err)
	}
	return b.String()
}
