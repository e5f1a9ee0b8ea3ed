package config

import (
	"context"
	"fmt"
	"net/url"
	"os"
	"os/exec"
	"os/user"
	"path/filepath"
	"strconv"
	"strings"
	"sync"
	"time"

	"gopkg.in/yaml.v3"
)

const (
	cacheDirName      = "cache"
	defaultConfigFile = "ticketboard.yaml"
	defaultAPIBase    = "http://localhost:8080/api"
	defaultListenAddr = ":8080"
	defaultRateLimit  = 200
)

// databaseURLVars are checked in order; the first non-empty one wins.
var databaseURLVars = []string{"DATABASE_URL", "POSTGRES_URL", "PRISMA_DATABASE_URL"}

// Config holds resolved configuration for both the server and the client.
type Config struct {
	DataDir        string   // resolved .ticketboard directory path
	CacheDir       string   // badger directory for the local fallback store
	ConfigFile     string   // YAML file that was loaded, if any
	DatabaseURL    string   // empty means no relational store
	DatabaseURLVar string   // which variable supplied DatabaseURL
	APIBase        string   // remote API base URL for the client
	Offline        bool     // skip the remote API entirely
	ListenAddr     string   // serve listen address
	Env            string   // "dev" or "prod"
	AllowedOrigins []string // CORS origins
	RateLimit      int      // requests per minute per IP
	EnvVarSet      bool     // whether TICKETBOARD_PATH was used
}

// fileConfig is the on-disk YAML shape. Values may reference environment
// variables as ${NAME}.
type fileConfig struct {
	DatabaseURL    string   `yaml:"database_url"`
	APIBase        string   `yaml:"api"`
	ListenAddr     string   `yaml:"listen_addr"`
	Env            string   `yaml:"env"`
	AllowedOrigins []string `yaml:"allowed_origins"`
	RateLimit      int      `yaml:"rate_limit"`
	Offline        bool     `yaml:"offline"`
}

// loadFile reads a YAML config file and expands environment references.
func loadFile(path string) (*fileConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config file: %w", err)
	}

	var fc fileConfig
	if err := yaml.Unmarshal(data, &fc); err != nil {
		return nil, fmt.Errorf("parsing config file: %w", err)
	}

	fc.DatabaseURL = expandEnv(fc.DatabaseURL)
	fc.APIBase = expandEnv(fc.APIBase)
	fc.ListenAddr = expandEnv(fc.ListenAddr)
	fc.Env = expandEnv(fc.Env)
	for i, o := range fc.AllowedOrigins {
		fc.AllowedOrigins[i] = expandEnv(o)
	}

	return &fc, nil
}

// Resolve returns the current configuration. The data directory comes from
// TICKETBOARD_PATH or $PWD/.ticketboard. configPath names a YAML file; when
// empty, ticketboard.yaml inside the data directory is used if it exists.
// Environment variables override file values, and defaults fill the rest.
func Resolve(configPath string) (*Config, error) {
	cfg := &Config{}

	if envPath := os.Getenv("TICKETBOARD_PATH"); envPath != "" {
		cfg.DataDir = envPath
		cfg.EnvVarSet = true
	} else {
		cwd, err := os.Getwd()
		if err != nil {
			return nil, err
		}
		cfg.DataDir = filepath.Join(cwd, ".ticketboard")
	}
	cfg.CacheDir = filepath.Join(cfg.DataDir, cacheDirName)

	fc := &fileConfig{}
	explicit := configPath != ""
	if !explicit {
		configPath = filepath.Join(cfg.DataDir, defaultConfigFile)
	}
	if _, err := os.Stat(configPath); err == nil {
		loaded, err := loadFile(configPath)
		if err != nil {
			return nil, err
		}
		fc = loaded
		cfg.ConfigFile = configPath
	} else if explicit {
		return nil, fmt.Errorf("config file %s: %w", configPath, err)
	}

	for _, name := range databaseURLVars {
		if v := os.Getenv(name); v != "" {
			cfg.DatabaseURL = v
			cfg.DatabaseURLVar = name
			break
		}
	}
	if cfg.DatabaseURL == "" && fc.DatabaseURL != "" {
		cfg.DatabaseURL = fc.DatabaseURL
		cfg.DatabaseURLVar = "database_url"
	}

	cfg.APIBase = firstNonEmpty(os.Getenv("TICKETBOARD_API"), fc.APIBase, defaultAPIBase)
	cfg.ListenAddr = firstNonEmpty(os.Getenv("TICKETBOARD_ADDR"), fc.ListenAddr, defaultListenAddr)
	cfg.Env = firstNonEmpty(os.Getenv("TICKETBOARD_ENV"), fc.Env, "prod")

	cfg.Offline = fc.Offline
	if v := os.Getenv("TICKETBOARD_OFFLINE"); v != "" {
		offline, err := strconv.ParseBool(v)
		if err != nil {
			return nil, fmt.Errorf("parsing TICKETBOARD_OFFLINE %q: %w", v, err)
		}
		cfg.Offline = offline
	}

	if v := os.Getenv("TICKETBOARD_ORIGINS"); v != "" {
		cfg.AllowedOrigins = splitList(v)
	} else if len(fc.AllowedOrigins) > 0 {
		cfg.AllowedOrigins = fc.AllowedOrigins
	} else {
		cfg.AllowedOrigins = []string{"*"}
	}

	cfg.RateLimit = defaultRateLimit
	if fc.RateLimit > 0 {
		cfg.RateLimit = fc.RateLimit
	}
	if v := os.Getenv("TICKETBOARD_RATE_LIMIT"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n <= 0 {
			return nil, fmt.Errorf("invalid TICKETBOARD_RATE_LIMIT %q: must be a positive integer", v)
		}
		cfg.RateLimit = n
	}

	return cfg, nil
}

// RedactedDatabaseURL returns DatabaseURL with any password masked.
func (c *Config) RedactedDatabaseURL() string {
	if c.DatabaseURL == "" {
		return ""
	}
	u, err := url.Parse(c.DatabaseURL)
	if err != nil || u.User == nil {
		return c.DatabaseURL
	}
	if _, ok := u.User.Password(); ok {
		u.User = url.UserPassword(u.User.Username(), "xxxxx")
	}
	return u.String()
}

func firstNonEmpty(vals ...string) string {
	for _, v := range vals {
		if v != "" {
			return v
		}
	}
	return ""
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}

func expandEnv(s string) string {
	if strings.HasPrefix(s, "${") && strings.HasSuffix(s, "}") {
		return os.Getenv(s[2 : len(s)-1])
	}
	return os.ExpandEnv(s)
}

var (
	defaultAuthor     string
	defaultAuthorOnce sync.Once
)

// DefaultAuthor returns the actor name recorded in the activity log.
// It tries git config user.name first and falls back to the OS username.
// The result is cached for the lifetime of the process.
func DefaultAuthor() string {
	defaultAuthorOnce.Do(func() {
		defaultAuthor = resolveAuthor()
	})
	return defaultAuthor
}

func resolveAuthor() string {
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	out, err := exec.CommandContext(ctx, "git", "config", "user.name").Output()
	if err == nil {
		if name := strings.TrimSpace(string(out)); name != "" {
			return name
		}
	}

	u, err := user.Current()
	if err == nil && u.Username != "" {
		return u.Username
	}

	return "unknown"
}
