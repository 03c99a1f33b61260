package config

import (
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"time"

	"github.com/BurntSushi/toml"
)

// EnvEndpoint overrides the collection endpoint.
const EnvEndpoint = "GUESTBOOK_API_URL"

// Defaults.
const (
	DefaultEndpoint       = "http://127.0.0.1:5000/guestbook"
	DefaultRequestTimeout = 10 * time.Second
	DefaultServerAddr     = "127.0.0.1:5000"
	DefaultBasePath       = "/guestbook"
)

// Duration is a time.Duration written as text ("10s") in the config file.
type Duration struct {
	time.Duration
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (d *Duration) UnmarshalText(text []byte) error {
	v, err := time.ParseDuration(string(text))
	if err != nil {
		return err
	}
	d.Duration = v
	return nil
}

// MarshalText implements encoding.TextMarshaler.
func (d Duration) MarshalText() ([]byte, error) {
	return []byte(d.String()), nil
}

// Server holds the gbd settings.
type Server struct {
	Addr           string   `toml:"addr"`
	DataDir        string   `toml:"data_dir"`
	BasePath       string   `toml:"base_path"`
	AllowedOrigins []string `toml:"allowed_origins"`
}

// Config represents ~/.guestbook/config.toml.
type Config struct {
	Endpoint       string   `toml:"endpoint"`
	RequestTimeout Duration `toml:"request_timeout"`
	Server         Server   `toml:"server"`
}

// Default returns the built-in configuration.
func Default() *Config {
	return &Config{
		Endpoint:       DefaultEndpoint,
		RequestTimeout: Duration{DefaultRequestTimeout},
		Server: Server{
			Addr:           DefaultServerAddr,
			BasePath:       DefaultBasePath,
			AllowedOrigins: []string{"*"},
		},
	}
}

// Load reads config from the given path on top of the defaults.
// Returns an error if the file is missing or malformed.
func Load(path string) (*Config, error) {
	cfg := Default()
	if _, err := toml.DecodeFile(path, cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Resolve builds the effective configuration with precedence
// flag override > $GUESTBOOK_API_URL > config file > defaults.
// A missing config file is not an error.
func Resolve(path, endpointOverride string) (*Config, error) {
	cfg, err := Load(path)
	if errors.Is(err, fs.ErrNotExist) {
		cfg, err = Default(), nil
	}
	if err != nil {
		return nil, err
	}
	if env := os.Getenv(EnvEndpoint); env != "" {
		cfg.Endpoint = env
	}
	if endpointOverride != "" {
		cfg.Endpoint = endpointOverride
	}
	if cfg.RequestTimeout.Duration <= 0 {
		cfg.RequestTimeout.Duration = DefaultRequestTimeout
	}
	return cfg, nil
}

// Save writes config to the given path, creating parent dirs as needed.
func Save(path string, cfg *Config) error {
	if err := os.MkdirAll(filepath.Dir(path), 0700); err != nil {
		return err
	}
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0600)
	if err != nil {
		return err
	}
	encErr := toml.NewEncoder(f).Encode(cfg)
	if closeErr := f.Close(); closeErr != nil && encErr == nil {
		return closeErr
	}
	return encErr
}
