// Package config provides application configuration management with support for command-line flags, environment variables, .env files and an optional YAML file.
package config

import (
	"bufio"
	"errors"
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
)

// Config holds the application configuration.
type Config struct {
	App       AppConfig
	Logger    LoggerConfig
	Data      DataConfig
	Server    ServerConfig
	Auth      AuthConfig
	Spotify   SpotifyConfig
	LinkStore LinkStoreConfig
	Reconcile ReconcileConfig
}

// AppConfig holds application-level configuration.
type AppConfig struct {
	Environment string
}

// LoggerConfig holds logging configuration.
type LoggerConfig struct {
	Level string
}

// DataConfig holds on-disk storage locations.
type DataConfig struct {
	BasePath string
}

// DatabasePath is the SQLite database file.
func (d DataConfig) DatabasePath() string {
	return filepath.Join(d.BasePath, "albumduel.db")
}

// LinksPath is the badger directory for provider links.
func (d DataConfig) LinksPath() string {
	return filepath.Join(d.BasePath, "links")
}

// ServerConfig holds server configuration.
type ServerConfig struct {
	Port         string
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
	IdleTimeout  time.Duration
	CORSOrigins  []string
}

// AuthConfig holds authentication configuration.
type AuthConfig struct {
	// Hex-encoded PASETO v4 key. Empty means load or generate <data>/auth.key.
	AccessTokenKeyHex   string
	AccessTokenDuration time.Duration
	// Shared secret the authentication collaborator sends when asking for tokens.
	CollaboratorSecret string
	// Token endpoint limit per client IP.
	TokenRateLimit float64
	TokenRateBurst int
}

// SpotifyConfig holds Spotify Web API credentials. Without credentials the
// Spotify cover strategies are disabled.
type SpotifyConfig struct {
	ClientID      string
	ClientSecret  string
	SearchEnabled bool
	RateLimit     float64
}

// Enabled reports whether credentials are configured.
func (s SpotifyConfig) Enabled() bool {
	return s.ClientID != "" && s.ClientSecret != ""
}

// LinkStoreConfig selects and configures the provider link store.
type LinkStoreConfig struct {
	Backend       string
	TTL           time.Duration
	RedisAddr     string
	RedisPassword string
	RedisDB       int
}

// ReconcileConfig controls scheduled duplicate reconciliation.
type ReconcileConfig struct {
	// Interval between passes; zero disables the scheduled job.
	Interval time.Duration
}

// loader resolves one value from flag, environment, YAML file and default,
// in that order. The .env file feeds the environment.
type loader struct {
	k    *koanf.Koanf
	errs []error
}

func (l *loader) str(flagValue, envKey, fileKey, defaultValue string) string {
	if flagValue != "" {
		return flagValue
	}
	if v := os.Getenv(envKey); v != "" {
		return v
	}
	if l.k != nil && l.k.Exists(fileKey) {
		return l.k.String(fileKey)
	}
	return defaultValue
}

func (l *loader) duration(flagValue, envKey, fileKey, defaultValue string) time.Duration {
	raw := l.str(flagValue, envKey, fileKey, defaultValue)
	d, err := time.ParseDuration(raw)
	if err != nil {
		l.errs = append(l.errs, fmt.Errorf("invalid %s %q: %w", envKey, raw, err))
	}
	return d
}

func (l *loader) integer(flagValue, envKey, fileKey string, defaultValue int) int {
	raw := l.str(flagValue, envKey, fileKey, "")
	if raw == "" {
		return defaultValue
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		l.errs = append(l.errs, fmt.Errorf("invalid %s %q: %w", envKey, raw, err))
		return defaultValue
	}
	return v
}

func (l *loader) float(flagValue, envKey, fileKey string, defaultValue float64) float64 {
	raw := l.str(flagValue, envKey, fileKey, "")
	if raw == "" {
		return defaultValue
	}
	v, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		l.errs = append(l.errs, fmt.Errorf("invalid %s %q: %w", envKey, raw, err))
		return defaultValue
	}
	return v
}

// boolean accepts "true", "1", "yes" and "on" (case-insensitive) as true.
func (l *loader) boolean(flagValue, envKey, fileKey string, defaultValue bool) bool {
	raw := strings.ToLower(l.str(flagValue, envKey, fileKey, ""))
	if raw == "" {
		return defaultValue
	}
	return raw == "true" || raw == "1" || raw == "yes" || raw == "on"
}

// LoadConfig loads configuration from the process arguments.
func LoadConfig() (*Config, error) {
	return Load(os.Args[1:])
}

// Load loads configuration with precedence:
// 1. Command-line flags (highest priority).
// 2. Environment variables.
// 3. .env file.
// 4. YAML config file (CONFIG_FILE or -config).
// 5. Default values (lowest priority).
func Load(args []string) (*Config, error) {
	fs := flag.NewFlagSet("albumduel", flag.ContinueOnError)

	env := fs.String("env", "", "Environment (development, staging, production)")
	logLevel := fs.String("log-level", "", "Log level (debug, info, warn, error)")
	dataPath := fs.String("data-path", "", "Base path for the database and link store")
	configFile := fs.String("config", "", "Path to YAML config file")
	envFile := fs.String("env-file", ".env", "Path to .env file")

	serverPort := fs.String("port", "", "Server port (default: 8080)")
	readTimeout := fs.String("read-timeout", "", "HTTP read timeout (default: 15s)")
	writeTimeout := fs.String("write-timeout", "", "HTTP write timeout (default: 15s)")
	idleTimeout := fs.String("idle-timeout", "", "HTTP idle timeout (default: 60s)")
	corsOrigins := fs.String("cors-origins", "", "Comma-separated allowed CORS origins")

	accessTokenDuration := fs.String("access-token-duration", "", "Access token lifetime (e.g., 24h)")

	linkBackend := fs.String("link-store", "", "Provider link store backend (badger, redis)")
	reconcileInterval := fs.String("reconcile-interval", "", "Interval between scheduled reconciliation passes (0 disables)")

	if err := fs.Parse(args); err != nil {
		return nil, err
	}

	// Load .env file if it exists (silently ignore if not found).
	_ = loadEnvFile(*envFile)

	l := &loader{}
	if path := l.str(*configFile, "CONFIG_FILE", "", ""); path != "" {
		k := koanf.New(".")
		if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("load config file %s: %w", path, err)
		}
		l.k = k
	}

	cfg := &Config{
		App: AppConfig{
			Environment: l.str(*env, "ENV", "app.env", "development"),
		},
		Logger: LoggerConfig{
			Level: l.str(*logLevel, "LOG_LEVEL", "logger.level", "info"),
		},
		Data: DataConfig{
			BasePath: l.str(*dataPath, "DATA_PATH", "data.path", ""),
		},
		Server: ServerConfig{
			Port:         l.str(*serverPort, "SERVER_PORT", "server.port", "8080"),
			ReadTimeout:  l.duration(*readTimeout, "SERVER_READ_TIMEOUT", "server.read_timeout", "15s"),
			WriteTimeout: l.duration(*writeTimeout, "SERVER_WRITE_TIMEOUT", "server.write_timeout", "15s"),
			IdleTimeout:  l.duration(*idleTimeout, "SERVER_IDLE_TIMEOUT", "server.idle_timeout", "60s"),
			CORSOrigins:  splitList(l.str(*corsOrigins, "CORS_ORIGINS", "server.cors_origins", "*")),
		},
		Auth: AuthConfig{
			AccessTokenKeyHex:   l.str("", "ACCESS_TOKEN_KEY", "auth.access_token_key", ""),
			AccessTokenDuration: l.duration(*accessTokenDuration, "ACCESS_TOKEN_DURATION", "auth.access_token_duration", "24h"),
			CollaboratorSecret:  l.str("", "COLLABORATOR_SECRET", "auth.collaborator_secret", ""),
			TokenRateLimit:      l.float("", "TOKEN_RATE_LIMIT", "auth.token_rate_limit", 1),
			TokenRateBurst:      l.integer("", "TOKEN_RATE_BURST", "auth.token_rate_burst", 10),
		},
		Spotify: SpotifyConfig{
			ClientID:      l.str("", "SPOTIFY_CLIENT_ID", "spotify.client_id", ""),
			ClientSecret:  l.str("", "SPOTIFY_CLIENT_SECRET", "spotify.client_secret", ""),
			SearchEnabled: l.boolean("", "SPOTIFY_SEARCH_ENABLED", "spotify.search_enabled", true),
			RateLimit:     l.float("", "SPOTIFY_RATE_LIMIT", "spotify.rate_limit", 5),
		},
		LinkStore: LinkStoreConfig{
			Backend:       l.str(*linkBackend, "LINK_STORE_BACKEND", "link_store.backend", "badger"),
			TTL:           l.duration("", "LINK_STORE_TTL", "link_store.ttl", "720h"),
			RedisAddr:     l.str("", "REDIS_ADDR", "link_store.redis_addr", "localhost:6379"),
			RedisPassword: l.str("", "REDIS_PASSWORD", "link_store.redis_password", ""),
			RedisDB:       l.integer("", "REDIS_DB", "link_store.redis_db", 0),
		},
		Reconcile: ReconcileConfig{
			Interval: l.duration(*reconcileInterval, "RECONCILE_INTERVAL", "reconcile.interval", "0s"),
		},
	}
	if len(l.errs) > 0 {
		return nil, errors.Join(l.errs...)
	}

	if err := cfg.expandDataPath(); err != nil {
		return nil, fmt.Errorf("invalid data path: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return cfg, nil
}

// Validate checks that all required config values are present and valid.
func (c *Config) Validate() error {
	if c.App.Environment == "" {
		return errors.New("ENV is required")
	}

	validEnvs := map[string]bool{
		"development": true,
		"staging":     true,
		"production":  true,
	}
	if !validEnvs[c.App.Environment] {
		return fmt.Errorf("invalid environment: %s (must be development, staging, or production)", c.App.Environment)
	}

	validLevels := map[string]bool{
		"debug": true,
		"info":  true,
		"warn":  true,
		"error": true,
	}
	if !validLevels[strings.ToLower(c.Logger.Level)] {
		return fmt.Errorf("invalid log level: %s (must be debug, info, warn, or error)", c.Logger.Level)
	}

	if c.Data.BasePath == "" {
		return errors.New("data base path cannot be empty after expansion")
	}

	switch c.LinkStore.Backend {
	case "badger":
	case "redis":
		if c.LinkStore.RedisAddr == "" {
			return errors.New("REDIS_ADDR is required for the redis link store")
		}
	default:
		return fmt.Errorf("invalid link store backend: %s (must be badger or redis)", c.LinkStore.Backend)
	}
	if c.LinkStore.TTL <= 0 {
		return errors.New("LINK_STORE_TTL must be positive")
	}

	if c.Auth.AccessTokenDuration <= 0 {
		return errors.New("ACCESS_TOKEN_DURATION must be positive")
	}
	if c.Reconcile.Interval < 0 {
		return errors.New("RECONCILE_INTERVAL cannot be negative")
	}
	if c.App.Environment == "production" && c.Auth.CollaboratorSecret == "" {
		return errors.New("COLLABORATOR_SECRET is required in production")
	}

	return nil
}

// expandPath expands ~ and makes the path absolute.
// If path is empty and defaultPath is provided, uses the default.
func expandPath(path, defaultPath string) (string, error) {
	if path == "" {
		return defaultPath, nil
	}

	if strings.HasPrefix(path, "~/") {
		homeDir, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("failed to get home directory: %w", err)
		}
		path = filepath.Join(homeDir, path[2:])
	}

	if !filepath.IsAbs(path) {
		absPath, err := filepath.Abs(path)
		if err != nil {
			return "", fmt.Errorf("failed to get absolute path: %w", err)
		}
		path = absPath
	}

	return filepath.Clean(path), nil
}

// expandDataPath expands ~ and makes the path absolute.
// Defaults to ~/AlbumDuel/data.
func (c *Config) expandDataPath() error {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return fmt.Errorf("failed to get home directory: %w", err)
	}
	defaultPath := filepath.Join(homeDir, "AlbumDuel", "data")

	expanded, err := expandPath(c.Data.BasePath, defaultPath)
	if err != nil {
		return err
	}
	c.Data.BasePath = expanded
	return nil
}

func splitList(s string) []string {
	var out []string
	for part := range strings.SplitSeq(s, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}

// loadEnvFile loads environment variables from a .env file.
// Format: KEY=value (one per line, # for comments).
func loadEnvFile(path string) error {
	f, err := os.Open(path) //#nosec G304 -- Config file path from user input is expected
	if err != nil {
		return err
	}
	defer f.Close()

	scanner := bufio.NewScanner(f)
	lineNum := 0

	for scanner.Scan() {
		lineNum++
		line := strings.TrimSpace(scanner.Text())

		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}

		key, value, ok := strings.Cut(line, "=")
		if !ok {
			return fmt.Errorf("invalid format at line %d: %s", lineNum, line)
		}
		key = strings.TrimSpace(key)
		value = strings.Trim(strings.TrimSpace(value), `"'`)

		// Real environment variables win over the file.
		if os.Getenv(key) == "" {
			if err := os.Setenv(key, value); err != nil {
				return fmt.Errorf("failed to set env var %s: %w", key, err)
			}
		}
	}

	return scanner.Err()
}
