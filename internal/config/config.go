package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/BurntSushi/toml"
)

const (
	DefaultAPIURL           = "http://127.0.0.1:7444"
	DefaultDBFileName       = ".evalgallery.db"
	DefaultStorageDirName   = ".evalgallery-files"
	DefaultLogLevel         = "info"
	DefaultServletPrefix    = "/servlet/attachments"
	DefaultCoverGranularity = "bien"
	DefaultStorageBackend   = StorageBackendLocal
	DefaultS3Region         = "us-east-1"

	StorageBackendLocal  = "local"
	StorageBackendMemory = "memory"
	StorageBackendS3     = "s3"

	configFileName = ".evalgallery.toml"

	configDirEnvKey   = "EVALGALLERY_CONFIG_DIR"
	dbPathEnvKey      = "EVALGALLERY_DB"
	apiURLEnvKey      = "EVALGALLERY_API_URL"
	logLevelEnvKey    = "EVALGALLERY_LOG_LEVEL"
	storageRootEnvKey = "EVALGALLERY_STORAGE_ROOT"
)

// StorageConfig selects and configures the blob backend holding attachment files.
type StorageConfig struct {
	Backend     string `toml:"backend"`
	Root        string `toml:"root"`
	S3Endpoint  string `toml:"s3_endpoint"`
	S3Bucket    string `toml:"s3_bucket"`
	S3Region    string `toml:"s3_region"`
	S3AccessKey string `toml:"s3_access_key"`
	S3SecretKey string `toml:"s3_secret_key"`
	S3UseSSL    bool   `toml:"s3_use_ssl"`
}

// Config defines runtime configuration for evalgallery.
type Config struct {
	APIURL           string        `toml:"api_url"`
	DBPath           string        `toml:"db_path"`
	LogLevel         string        `toml:"log_level"`
	ServletPrefix    string        `toml:"servlet_prefix"`
	CoverGranularity string        `toml:"cover_granularity"`
	Storage          StorageConfig `toml:"storage"`
}

// Default returns default configuration values.
func Default() Config {
	return Config{
		APIURL:           DefaultAPIURL,
		DBPath:           "",
		LogLevel:         DefaultLogLevel,
		ServletPrefix:    DefaultServletPrefix,
		CoverGranularity: DefaultCoverGranularity,
		Storage: StorageConfig{
			Backend:  DefaultStorageBackend,
			S3Region: DefaultS3Region,
		},
	}
}

func loadFile(path string, cfg *Config) error {
	_, err := loadFileIfExists(path, cfg)
	return err
}

func loadFileIfExists(path string, cfg *Config) (bool, error) {
	info, err := os.Stat(path)
	if err != nil {
		if os.IsNotExist(err) {
			return false, nil
		}
		return false, err
	}
	if info.IsDir() {
		return false, nil
	}
	if _, err := toml.DecodeFile(path, cfg); err != nil {
		return false, fmt.Errorf("failed to parse config %s: %w", path, err)
	}
	return true, nil
}

func overrideConfigPath() (string, bool) {
	dir := strings.TrimSpace(os.Getenv(configDirEnvKey))
	if dir == "" {
		return "", false
	}
	return filepath.Join(dir, configFileName), true
}

var allowedKeys = []string{
	"api_url",
	"db_path",
	"log_level",
	"servlet_prefix",
	"cover_granularity",
	"storage.backend",
	"storage.root",
	"storage.s3_endpoint",
	"storage.s3_bucket",
	"storage.s3_region",
	"storage.s3_access_key",
	"storage.s3_secret_key",
	"storage.s3_use_ssl",
}

// AllowedKeys returns the set of valid config keys.
func AllowedKeys() []string {
	return allowedKeys
}

// IsAllowedKey checks if a key is a valid config key.
func IsAllowedKey(key string) bool {
	for _, k := range allowedKeys {
		if k == key {
			return true
		}
	}
	return false
}

// Get returns the value of a config key.
func (c *Config) Get(key string) (string, error) {
	switch key {
	case "api_url":
		return c.APIURL, nil
	case "db_path":
		return c.DBPath, nil
	case "log_level":
		return c.LogLevel, nil
	case "servlet_prefix":
		return c.ServletPrefix, nil
	case "cover_granularity":
		return c.CoverGranularity, nil
	case "storage.backend":
		return c.Storage.Backend, nil
	case "storage.root":
		return c.Storage.Root, nil
	case "storage.s3_endpoint":
		return c.Storage.S3Endpoint, nil
	case "storage.s3_bucket":
		return c.Storage.S3Bucket, nil
	case "storage.s3_region":
		return c.Storage.S3Region, nil
	case "storage.s3_access_key":
		return c.Storage.S3AccessKey, nil
	case "storage.s3_secret_key":
		return c.Storage.S3SecretKey, nil
	case "storage.s3_use_ssl":
		return strconv.FormatBool(c.Storage.S3UseSSL), nil
	default:
		return "", fmt.Errorf("unknown key: %s", key)
	}
}

// GlobalPath returns the path to the global config file.
func GlobalPath() (string, error) {
	if path, ok := overrideConfigPath(); ok {
		return path, nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, configFileName), nil
}

// SetKey reads the TOML file at path, sets key=value, and writes it back.
func SetKey(path, key, value string) error {
	if !IsAllowedKey(key) {
		return fmt.Errorf("unknown key: %s", key)
	}

	data := make(map[string]any)
	if _, err := os.Stat(path); err == nil {
		if _, err := toml.DecodeFile(path, &data); err != nil {
			return fmt.Errorf("parse %s: %w", path, err)
		}
	}

	parsedValue, err := parseSetValue(key, value)
	if err != nil {
		return err
	}
	if err := setNestedKey(data, strings.Split(key, "."), parsedValue); err != nil {
		return err
	}

	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}

	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()

	return toml.NewEncoder(f).Encode(data)
}

// Load reads the global config file and applies env overrides.
func Load() (*Config, error) {
	cfg := Default()

	path, err := GlobalPath()
	if err == nil {
		if err := loadFile(path, &cfg); err != nil {
			return nil, err
		}
	}

	if cfg.DBPath == "" {
		if cwd, err := os.Getwd(); err == nil {
			cfg.DBPath = filepath.Join(cwd, DefaultDBFileName)
		}
	}

	if apiURL := os.Getenv(apiURLEnvKey); apiURL != "" {
		cfg.APIURL = apiURL
	}
	if dbPath := os.Getenv(dbPathEnvKey); dbPath != "" {
		cfg.DBPath = dbPath
	}
	if level := strings.TrimSpace(os.Getenv(logLevelEnvKey)); level != "" {
		cfg.LogLevel = level
	}
	if root := strings.TrimSpace(os.Getenv(storageRootEnvKey)); root != "" {
		cfg.Storage.Root = root
	}

	cfg.normalizeDefaults()

	return &cfg, nil
}

func parseSetValue(key, value string) (any, error) {
	value = strings.TrimSpace(value)
	switch key {
	case "storage.s3_use_ssl":
		parsed, err := strconv.ParseBool(value)
		if err != nil {
			return nil, fmt.Errorf("%s must be true or false", key)
		}
		return parsed, nil
	case "storage.backend":
		backend := strings.ToLower(value)
		switch backend {
		case StorageBackendLocal, StorageBackendMemory, StorageBackendS3:
			return backend, nil
		}
		return nil, fmt.Errorf("%s must be one of %s, %s, %s", key, StorageBackendLocal, StorageBackendMemory, StorageBackendS3)
	case "cover_granularity":
		granularity := strings.ToLower(value)
		switch granularity {
		case "mission", "bien", "gallery":
			return granularity, nil
		}
		return nil, fmt.Errorf("%s must be mission, bien or gallery", key)
	case "log_level":
		level := strings.ToLower(value)
		switch level {
		case "debug", "info", "warn", "warning", "error":
			return level, nil
		}
		return nil, fmt.Errorf("%s must be debug, info, warn or error", key)
	default:
		return value, nil
	}
}

func setNestedKey(data map[string]any, parts []string, value any) error {
	if len(parts) == 0 {
		return fmt.Errorf("invalid config key")
	}
	if len(parts) == 1 {
		data[parts[0]] = value
		return nil
	}
	childRaw, ok := data[parts[0]]
	if !ok {
		child := map[string]any{}
		data[parts[0]] = child
		return setNestedKey(child, parts[1:], value)
	}
	child, ok := childRaw.(map[string]any)
	if !ok {
		return fmt.Errorf("cannot set nested key %q", strings.Join(parts, "."))
	}
	return setNestedKey(child, parts[1:], value)
}

func (c *Config) normalizeDefaults() {
	c.Storage.Backend = strings.ToLower(strings.TrimSpace(c.Storage.Backend))
	if c.Storage.Backend == "" {
		c.Storage.Backend = DefaultStorageBackend
	}
	if c.Storage.Root == "" && c.DBPath != "" {
		c.Storage.Root = filepath.Join(filepath.Dir(c.DBPath), DefaultStorageDirName)
	}
	if c.Storage.S3Region == "" {
		c.Storage.S3Region = DefaultS3Region
	}
	if strings.TrimSpace(c.ServletPrefix) == "" {
		c.ServletPrefix = DefaultServletPrefix
	}
	if strings.TrimSpace(c.CoverGranularity) == "" {
		c.CoverGranularity = DefaultCoverGranularity
	}
	if strings.TrimSpace(c.LogLevel) == "" {
		c.LogLevel = DefaultLogLevel
	}
}
