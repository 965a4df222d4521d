package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

type GlobalFlags struct {
	ConfigPath  string
	JSON        bool
	Plain       bool
	Select      string
	ResultsOnly bool
	Timeout     string
	Retries     int
	NoCache     bool
	LogLevel    string
}

type Settings struct {
	OutputMode       string
	SelectFields     []string
	ResultsOnly      bool
	Timeout          time.Duration
	Retries          int
	LogLevel         string
	CacheEnabled     bool
	CachePath        string
	CacheLockPath    string
	ProfileTTL       time.Duration
	AttemptStorePath string
	AttemptLockPath  string
	NetworksFile     string
	RPCOverrides     map[string]string
	MarketplaceURL   string
	MarketplaceKey   string
}

type fileConfig struct {
	Output   string `yaml:"output"`
	Timeout  string `yaml:"timeout"`
	Retries  *int   `yaml:"retries"`
	LogLevel string `yaml:"log_level"`
	Cache    struct {
		Enabled    *bool  `yaml:"enabled"`
		Path       string `yaml:"path"`
		LockPath   string `yaml:"lock_path"`
		ProfileTTL string `yaml:"profile_ttl"`
	} `yaml:"cache"`
	Attempts struct {
		Path     string `yaml:"path"`
		LockPath string `yaml:"lock_path"`
	} `yaml:"attempts"`
	Networks struct {
		File         string            `yaml:"file"`
		RPCOverrides map[string]string `yaml:"rpc_overrides"`
	} `yaml:"networks"`
	Marketplace struct {
		BaseURL   string `yaml:"base_url"`
		APIKey    string `yaml:"api_key"`
		APIKeyEnv string `yaml:"api_key_env"`
	} `yaml:"marketplace"`
}

func Load(flags GlobalFlags) (Settings, error) {
	settings, err := defaultSettings()
	if err != nil {
		return Settings{}, err
	}

	cfgPath, err := resolveConfigPath(flags.ConfigPath)
	if err != nil {
		return Settings{}, err
	}

	if err := applyFileConfig(cfgPath, &settings); err != nil {
		return Settings{}, err
	}

	applyEnv(&settings)

	if err := applyFlags(flags, &settings); err != nil {
		return Settings{}, err
	}

	if settings.OutputMode == "" {
		settings.OutputMode = "json"
	}
	if settings.Timeout <= 0 {
		settings.Timeout = 15 * time.Second
	}
	if settings.Retries < 0 {
		settings.Retries = 0
	}
	if settings.ProfileTTL <= 0 {
		settings.ProfileTTL = 5 * time.Minute
	}

	return settings, nil
}

func defaultSettings() (Settings, error) {
	cachePath, lockPath, err := defaultCachePaths()
	if err != nil {
		return Settings{}, err
	}
	cacheDir := filepath.Dir(cachePath)
	return Settings{
		OutputMode:       "json",
		Timeout:          15 * time.Second,
		Retries:          2,
		LogLevel:         "warn",
		CacheEnabled:     true,
		CachePath:        cachePath,
		CacheLockPath:    lockPath,
		ProfileTTL:       5 * time.Minute,
		AttemptStorePath: filepath.Join(cacheDir, "attempts.db"),
		AttemptLockPath:  filepath.Join(cacheDir, "attempts.lock"),
		RPCOverrides:     map[string]string{},
	}, nil
}

func resolveConfigPath(input string) (string, error) {
	if strings.TrimSpace(input) != "" {
		return input, nil
	}
	base := os.Getenv("XDG_CONFIG_HOME")
	if base == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", err
		}
		base = filepath.Join(home, ".config")
	}
	return filepath.Join(base, "cubepay", "config.yaml"), nil
}

func defaultCachePaths() (string, string, error) {
	base := os.Getenv("XDG_CACHE_HOME")
	if base == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", "", err
		}
		base = filepath.Join(home, ".cache")
	}
	dir := filepath.Join(base, "cubepay")
	return filepath.Join(dir, "profiles.db"), filepath.Join(dir, "profiles.lock"), nil
}

func applyFileConfig(path string, settings *Settings) error {
	buf, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil
		}
		return fmt.Errorf("read config: %w", err)
	}

	var cfg fileConfig
	if err := yaml.Unmarshal(buf, &cfg); err != nil {
		return fmt.Errorf("parse config yaml: %w", err)
	}

	if cfg.Output != "" {
		settings.OutputMode = strings.ToLower(cfg.Output)
	}
	if cfg.Timeout != "" {
		d, err := time.ParseDuration(cfg.Timeout)
		if err != nil {
			return fmt.Errorf("config timeout: %w", err)
		}
		settings.Timeout = d
	}
	if cfg.Retries != nil {
		settings.Retries = *cfg.Retries
	}
	if cfg.LogLevel != "" {
		settings.LogLevel = strings.ToLower(cfg.LogLevel)
	}
	if cfg.Cache.Enabled != nil {
		settings.CacheEnabled = *cfg.Cache.Enabled
	}
	if cfg.Cache.Path != "" {
		settings.CachePath = cfg.Cache.Path
	}
	if cfg.Cache.LockPath != "" {
		settings.CacheLockPath = cfg.Cache.LockPath
	}
	if cfg.Cache.ProfileTTL != "" {
		d, err := time.ParseDuration(cfg.Cache.ProfileTTL)
		if err != nil {
			return fmt.Errorf("config cache.profile_ttl: %w", err)
		}
		settings.ProfileTTL = d
	}
	if cfg.Attempts.Path != "" {
		settings.AttemptStorePath = cfg.Attempts.Path
	}
	if cfg.Attempts.LockPath != "" {
		settings.AttemptLockPath = cfg.Attempts.LockPath
	}
	if cfg.Networks.File != "" {
		settings.NetworksFile = cfg.Networks.File
	}
	for key, url := range cfg.Networks.RPCOverrides {
		settings.RPCOverrides[strings.TrimSpace(key)] = strings.TrimSpace(url)
	}
	if cfg.Marketplace.BaseURL != "" {
		settings.MarketplaceURL = cfg.Marketplace.BaseURL
	}
	if cfg.Marketplace.APIKey != "" {
		settings.MarketplaceKey = cfg.Marketplace.APIKey
	}
	if cfg.Marketplace.APIKeyEnv != "" {
		settings.MarketplaceKey = os.Getenv(cfg.Marketplace.APIKeyEnv)
	}

	return nil
}

func applyEnv(settings *Settings) {
	if v := os.Getenv("CUBEPAY_OUTPUT"); v != "" {
		settings.OutputMode = strings.ToLower(v)
	}
	if v := os.Getenv("CUBEPAY_TIMEOUT"); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			settings.Timeout = d
		}
	}
	if v := os.Getenv("CUBEPAY_RETRIES"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			settings.Retries = n
		}
	}
	if v := os.Getenv("CUBEPAY_LOG_LEVEL"); v != "" {
		settings.LogLevel = strings.ToLower(v)
	}
	if v := os.Getenv("CUBEPAY_NO_CACHE"); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			settings.CacheEnabled = !b
		}
	}
	if v := os.Getenv("CUBEPAY_CACHE_PATH"); v != "" {
		settings.CachePath = v
	}
	if v := os.Getenv("CUBEPAY_CACHE_LOCK_PATH"); v != "" {
		settings.CacheLockPath = v
	}
	if v := os.Getenv("CUBEPAY_ATTEMPTS_PATH"); v != "" {
		settings.AttemptStorePath = v
	}
	if v := os.Getenv("CUBEPAY_ATTEMPTS_LOCK_PATH"); v != "" {
		settings.AttemptLockPath = v
	}
	if v := os.Getenv("CUBEPAY_NETWORKS_FILE"); v != "" {
		settings.NetworksFile = v
	}
	if v := os.Getenv("CUBEPAY_MARKETPLACE_URL"); v != "" {
		settings.MarketplaceURL = v
	}
	if v := os.Getenv("CUBEPAY_MARKETPLACE_API_KEY"); v != "" {
		settings.MarketplaceKey = v
	}
}

func applyFlags(flags GlobalFlags, settings *Settings) error {
	if flags.JSON && flags.Plain {
		return fmt.Errorf("cannot use --json and --plain together")
	}
	if flags.JSON {
		settings.OutputMode = "json"
	}
	if flags.Plain {
		settings.OutputMode = "plain"
	}
	if strings.TrimSpace(flags.Select) != "" {
		parts := strings.Split(flags.Select, ",")
		fields := make([]string, 0, len(parts))
		for _, part := range parts {
			f := strings.TrimSpace(part)
			if f != "" {
				fields = append(fields, f)
			}
		}
		settings.SelectFields = fields
	}
	settings.ResultsOnly = flags.ResultsOnly

	if flags.Timeout != "" {
		d, err := time.ParseDuration(flags.Timeout)
		if err != nil {
			return fmt.Errorf("parse --timeout: %w", err)
		}
		settings.Timeout = d
	}
	if flags.Retries >= 0 {
		settings.Retries = flags.Retries
	}
	if flags.NoCache {
		settings.CacheEnabled = false
	}
	if strings.TrimSpace(flags.LogLevel) != "" {
		settings.LogLevel = strings.ToLower(strings.TrimSpace(flags.LogLevel))
	}

	if settings.OutputMode != "json" && settings.OutputMode != "plain" {
		return fmt.Errorf("output must be json or plain")
	}

	return nil
}
