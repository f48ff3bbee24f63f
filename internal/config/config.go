package config

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/joho/godotenv"
	toml "github.com/pelletier/go-toml/v2"
)

// Config is the dashboard's client configuration.
type Config struct {
	APIURL          string
	DataDir         string
	FieldsFile      string
	EarlyMinutes    int
	SyncInterval    time.Duration
	RefreshInterval time.Duration
	WindowInterval  time.Duration
	ProbeInterval   time.Duration
}

const (
	defaultConfigPath     = "~/.config/lessondesk/config.toml"
	defaultDataDir        = "~/.local/share/lessondesk"
	defaultAPIURL         = "http://127.0.0.1:8787"
	defaultEarlyMinutes   = 5
	defaultSyncSeconds    = 30
	defaultRefreshSeconds = 30
	defaultWindowSeconds  = 60
	defaultProbeSeconds   = 10
	logFileName           = "lessondesk.log"
	defaultProxyListen    = ":8787"
	defaultBaserowTableID = "831"
	defaultProxyEnvFile   = ".env"
)

// Default returns the configuration used when no file exists.
func Default() Config {
	return Config{
		APIURL:          defaultAPIURL,
		DataDir:         mustExpand(defaultDataDir),
		EarlyMinutes:    defaultEarlyMinutes,
		SyncInterval:    defaultSyncSeconds * time.Second,
		RefreshInterval: defaultRefreshSeconds * time.Second,
		WindowInterval:  defaultWindowSeconds * time.Second,
		ProbeInterval:   defaultProbeSeconds * time.Second,
	}
}

// Load locates and parses the client config, falling back to defaults when missing.
func Load(path string) (Config, error) {
	resolved, err := resolvePath(path)
	if err != nil {
		return Config{}, err
	}

	cfg := Default()

	file, err := os.Open(resolved)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return cfg, nil
		}
		return Config{}, fmt.Errorf("open config: %w", err)
	}
	defer file.Close()

	bytes, err := io.ReadAll(file)
	if err != nil {
		return Config{}, fmt.Errorf("read config: %w", err)
	}

	var raw struct {
		APIURL         string `toml:"api_url"`
		DataDir        string `toml:"data_dir"`
		FieldsFile     string `toml:"fields_file"`
		EarlyMinutes   *int   `toml:"early_minutes"`
		SyncSeconds    int    `toml:"sync_seconds"`
		RefreshSeconds int    `toml:"refresh_seconds"`
		WindowSeconds  int    `toml:"window_seconds"`
		ProbeSeconds   int    `toml:"probe_seconds"`
	}
	if err := toml.Unmarshal(bytes, &raw); err != nil {
		return Config{}, fmt.Errorf("parse config: %w", err)
	}

	if v := strings.TrimSpace(raw.APIURL); v != "" {
		cfg.APIURL = v
	}
	if v := strings.TrimSpace(raw.DataDir); v != "" {
		cfg.DataDir = mustExpand(v)
	}
	if v := strings.TrimSpace(raw.FieldsFile); v != "" {
		cfg.FieldsFile = mustExpand(v)
	}
	if raw.EarlyMinutes != nil && *raw.EarlyMinutes >= 0 {
		cfg.EarlyMinutes = *raw.EarlyMinutes
	}
	cfg.SyncInterval = seconds(raw.SyncSeconds, cfg.SyncInterval)
	cfg.RefreshInterval = seconds(raw.RefreshSeconds, cfg.RefreshInterval)
	cfg.WindowInterval = seconds(raw.WindowSeconds, cfg.WindowInterval)
	cfg.ProbeInterval = seconds(raw.ProbeSeconds, cfg.ProbeInterval)

	return cfg, nil
}

// LogPath returns the path of the dashboard's log file.
func (c Config) LogPath() string {
	if strings.TrimSpace(c.DataDir) == "" {
		return mustExpand(defaultDataDir + "/" + logFileName)
	}
	return filepath.Join(c.DataDir, logFileName)
}

// Proxy is the configuration of the proxy server.
type Proxy struct {
	BaserowURL     string
	BaserowToken   string
	BaserowTableID string
	Listen         string
	FieldsFile     string
}

// LoadProxy reads the proxy settings from the environment after loading
// envFile (default ".env") when it exists. Variables already set in the
// environment win over the file.
func LoadProxy(envFile string) (Proxy, error) {
	if strings.TrimSpace(envFile) == "" {
		envFile = defaultProxyEnvFile
	}
	if err := godotenv.Load(envFile); err != nil && !errors.Is(err, os.ErrNotExist) {
		return Proxy{}, fmt.Errorf("load %s: %w", envFile, err)
	}

	cfg := Proxy{
		BaserowURL:     getEnv("BASEROW_BASE_URL", ""),
		BaserowToken:   getEnv("BASEROW_TOKEN", ""),
		BaserowTableID: getEnv("BASEROW_TABLE_ID", defaultBaserowTableID),
		Listen:         getEnv("LESSONDESK_LISTEN", defaultProxyListen),
		FieldsFile:     getEnv("LESSONDESK_FIELDS_FILE", ""),
	}
	if cfg.FieldsFile != "" {
		cfg.FieldsFile = mustExpand(cfg.FieldsFile)
	}
	if cfg.BaserowURL == "" {
		return Proxy{}, fmt.Errorf("BASEROW_BASE_URL is not set")
	}
	if cfg.BaserowToken == "" {
		return Proxy{}, fmt.Errorf("BASEROW_TOKEN is not set")
	}
	return cfg, nil
}

func getEnv(key, fallback string) string {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		return v
	}
	return fallback
}

func seconds(n int, fallback time.Duration) time.Duration {
	if n <= 0 {
		return fallback
	}
	return time.Duration(n) * time.Second
}

func resolvePath(path string) (string, error) {
	if strings.TrimSpace(path) == "" {
		return expandPath(defaultConfigPath)
	}
	return expandPath(path)
}

func mustExpand(path string) string {
	expanded, err := expandPath(path)
	if err != nil {
		return path
	}
	return expanded
}

func expandPath(path string) (string, error) {
	trimmed := strings.TrimSpace(path)
	if trimmed == "" {
		return "", fmt.Errorf("path is empty")
	}
	if strings.HasPrefix(trimmed, "~") {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("resolve home dir: %w", err)
		}
		trimmed = filepath.Join(home, strings.TrimPrefix(trimmed, "~"))
	}
	return filepath.Abs(trimmed)
}
