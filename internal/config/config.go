// Package config handles loading and parsing application configuration.
// It supports two sources (in priority order):
//  1. An environment variable:  CONFIG_PATH=/path/to/config.yaml
//  2. A command-line flag:      --config=/path/to/config.yaml
//
// Both binaries (the portal and the development students store) read the
// same Config shape; each uses only the sections it needs.
package config

import (
	"errors"
	"flag"
	"fmt"
	"log"
	"os"
	"time"

	"github.com/ilyakaznacheev/cleanenv"
)

// Storage drivers understood by the students store.
const (
	DriverMemory   = "memory"
	DriverSQLite   = "sqlite"
	DriverPostgres = "postgres"
)

// Config is the root configuration structure.
// Every field maps to a key in the YAML file AND can be overridden
// by the corresponding environment variable (env:"...").
//
// env-required:"true" means the app refuses to start if that value is
// missing. Crashing at boot beats running with a wrong default.
type Config struct {
	// Env controls log format and verbosity.
	// Valid values: "dev", "staging", "prod"
	Env string `yaml:"env" env:"ENV" env-required:"true"`

	HTTPServer `yaml:"http_server"`

	// Store points the portal at the remote students collection.
	Store Store `yaml:"store"`

	// Storage selects the persistence backend of the students store.
	Storage Storage `yaml:"storage"`
}

// HTTPServer holds settings specific to the HTTP listener.
type HTTPServer struct {
	// Addr is the TCP address the server listens on, e.g. "localhost:8082".
	Addr         string        `yaml:"address"       env:"HTTP_SERVER_ADDR" env-required:"true"`
	ReadTimeout  time.Duration `yaml:"read_timeout"  env:"HTTP_SERVER_READ_TIMEOUT"  env-default:"10s"`
	WriteTimeout time.Duration `yaml:"write_timeout" env:"HTTP_SERVER_WRITE_TIMEOUT" env-default:"10s"`
	IdleTimeout  time.Duration `yaml:"idle_timeout"  env:"HTTP_SERVER_IDLE_TIMEOUT"  env-default:"60s"`
}

// Store configures the Record Store Client used by the portal.
type Store struct {
	// BaseURL is the root of the store; the client appends /students.
	BaseURL string        `yaml:"base_url" env:"STORE_BASE_URL" env-default:"http://localhost:5000"`
	Timeout time.Duration `yaml:"timeout"  env:"STORE_TIMEOUT"  env-default:"10s"`
}

// Storage configures the students store backend.
type Storage struct {
	Driver string `yaml:"driver" env:"STORAGE_DRIVER" env-default:"memory"`

	// Path is the filesystem path to the SQLite .db file.
	Path string `yaml:"path" env:"STORAGE_PATH"`

	// DSN is the PostgreSQL connection string.
	DSN string `yaml:"dsn" env:"STORAGE_DSN"`

	// SeedPath optionally names a YAML fixture loaded into an empty store.
	SeedPath string `yaml:"seed_path" env:"STORAGE_SEED_PATH"`
}

// Load reads the YAML file at path, applies environment overrides and
// checks the values that cleanenv cannot check on its own.
func Load(path string) (*Config, error) {
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return nil, fmt.Errorf("config file does not exist: %s", path)
	}

	var cfg Config
	if err := cleanenv.ReadConfig(path, &cfg); err != nil {
		return nil, fmt.Errorf("cannot read config: %w", err)
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

func (c *Config) validate() error {
	switch c.Storage.Driver {
	case DriverMemory:
	case DriverSQLite:
		if c.Storage.Path == "" {
			return errors.New("storage.path is required for the sqlite driver")
		}
	case DriverPostgres:
		if c.Storage.DSN == "" {
			return errors.New("storage.dsn is required for the postgres driver")
		}
	default:
		return fmt.Errorf("unknown storage driver %q", c.Storage.Driver)
	}

	if c.Store.Timeout < 0 {
		return errors.New("store.timeout must not be negative")
	}

	return nil
}

// MustLoad reads, validates, and returns the application config.
//
// The name "MustLoad" follows a Go convention: functions prefixed with
// "Must" are allowed to panic/fatal on failure. Callers do not need to
// check a returned error; if this function returns, the config is valid.
func MustLoad() *Config {
	// ── Source 1: environment variable ───────────────────────────────
	configPath := os.Getenv("CONFIG_PATH")

	// ── Source 2: command-line flag ───────────────────────────────────
	//   go run ./cmd/student-portal --config=config/portal.yaml
	if configPath == "" {
		flags := flag.String("config", "", "Path to the configuration YAML file")
		flag.Parse()
		configPath = *flags
	}

	if configPath == "" {
		log.Fatal("config path is not set: use --config flag or CONFIG_PATH env var")
	}

	cfg, err := Load(configPath)
	if err != nil {
		log.Fatal(err.Error())
	}

	return cfg
}
