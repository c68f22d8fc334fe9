package config

import (
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/lecternhq/lectern/pkg/protocol"
)

type Config struct {
	Backend   BackendConfig   `toml:"backend"`
	DevServer DevServerConfig `toml:"devserver"`
	Store     StoreConfig     `toml:"store"`
	Log       LogConfig       `toml:"log"`
	Tracing   TracingConfig   `toml:"tracing"`
}

// BackendConfig locates the teaching-assistant backend and tunes the
// reconnect behavior. The defaults match what the backend expects; they are
// exposed here mostly so tests and unusual deployments can override them.
type BackendConfig struct {
	Endpoint             string `toml:"endpoint"`
	ReconnectDelay       string `toml:"reconnect_delay"`
	MaxReconnectAttempts int    `toml:"max_reconnect_attempts"`
}

// Delay parses the reconnect delay, falling back to the default on garbage.
func (b BackendConfig) Delay() time.Duration {
	d, err := time.ParseDuration(b.ReconnectDelay)
	if err != nil || d <= 0 {
		return 3 * time.Second
	}
	return d
}

type DevServerConfig struct {
	Bind string `toml:"bind"`
	Port int    `toml:"port"`
}

type StoreConfig struct {
	DSN string `toml:"dsn"`
}

type LogConfig struct {
	Level  string `toml:"level"`
	Format string `toml:"format"`
}

type TracingConfig struct {
	Enabled  bool   `toml:"enabled"`
	Endpoint string `toml:"endpoint"`
}

func Default() *Config {
	return &Config{
		Backend: BackendConfig{
			Endpoint:             protocol.DefaultEndpoint,
			ReconnectDelay:       "3s",
			MaxReconnectAttempts: 5,
		},
		DevServer: DevServerConfig{
			Bind: "loopback",
			Port: 8765,
		},
		Store: StoreConfig{
			DSN: filepath.Join(DataDir(), "lectern.db"),
		},
		Log: LogConfig{
			Level:  "info",
			Format: "json",
		},
	}
}

var (
	current *Config
	mu      sync.RWMutex
)

func Load(path string) (*Config, error) {
	cfg := Default()

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			setCurrent(cfg)
			return cfg, nil
		}
		return nil, fmt.Errorf("reading config file: %w", err)
	}

	if err := toml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parsing config file: %w", err)
	}

	if cfg.Backend.Endpoint == "" {
		cfg.Backend.Endpoint = protocol.DefaultEndpoint
	}
	if cfg.Store.DSN == "" {
		cfg.Store.DSN = filepath.Join(DataDir(), "lectern.db")
	}

	setCurrent(cfg)
	return cfg, nil
}

func setCurrent(cfg *Config) {
	mu.Lock()
	current = cfg
	mu.Unlock()
}

func Current() *Config {
	mu.RLock()
	defer mu.RUnlock()
	if current == nil {
		return Default()
	}
	return current
}

func DataDir() string {
	if dir := os.Getenv("LECTERN_DATA_DIR"); dir != "" {
		return dir
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return ".lectern"
	}
	return filepath.Join(home, ".lectern")
}

func DefaultConfigPath() string {
	return filepath.Join(DataDir(), "lectern.toml")
}

func EnsureDataDir() error {
	return os.MkdirAll(DataDir(), 0700)
}
