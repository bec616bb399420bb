// Package config loads xpidriver settings from a YAML file, a .env file and
// the environment, and turns them into service options.
package config

import (
	"errors"
	"fmt"
	"net/http"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"github.com/entrhq/xpidriver/pkg/domain"
	"github.com/entrhq/xpidriver/pkg/firefox"
	"github.com/entrhq/xpidriver/pkg/logging"
	"github.com/entrhq/xpidriver/pkg/profile"
	"github.com/entrhq/xpidriver/pkg/readiness"
	"github.com/entrhq/xpidriver/pkg/service"
)

// Environment variables that override file settings.
const (
	EnvDriverXPI  = "XPIDRIVER_DRIVER_XPI"
	EnvFirefoxBin = "XPIDRIVER_FIREFOX_BIN"
	EnvPort       = "XPIDRIVER_PORT"
	EnvLogLevel   = "XPIDRIVER_LOG_LEVEL"
)

// Config is the on-disk configuration.
type Config struct {
	Firefox FirefoxConfig `yaml:"firefox" json:"firefox"`

	// Port for the WebDriver endpoint. Zero picks a free port.
	Port        int  `yaml:"port" json:"port"`
	AnyFreePort bool `yaml:"any_free_port" json:"any_free_port"`

	Extension ExtensionConfig `yaml:"extension" json:"extension"`
	Profile   ProfileConfig   `yaml:"profile" json:"profile"`
	Readiness ReadinessConfig `yaml:"readiness" json:"readiness"`
	Logging   LoggingConfig   `yaml:"logging" json:"logging"`
}

// FirefoxConfig describes the browser binary and how it is launched.
type FirefoxConfig struct {
	Binary         string            `yaml:"binary" json:"binary"`
	UsePlaywright  bool              `yaml:"use_playwright" json:"use_playwright"`
	Args           []string          `yaml:"args" json:"args"`
	Environment    map[string]string `yaml:"environment" json:"environment"`
	EnvPassthrough []string          `yaml:"env_passthrough" json:"env_passthrough"` // glob patterns
	StopTimeout    time.Duration     `yaml:"stop_timeout" json:"stop_timeout"`
}

// ExtensionConfig selects the WebDriver extension. An empty path uses the
// bundled one.
type ExtensionConfig struct {
	Path string `yaml:"path" json:"path"`
}

// ProfileConfig describes the Firefox profile handed to each launch.
type ProfileConfig struct {
	Template    string         `yaml:"template" json:"template"` // existing profile used as a model
	TempDir     string         `yaml:"temp_dir" json:"temp_dir"`
	Preferences map[string]any `yaml:"preferences" json:"preferences"`
	Clean       bool           `yaml:"clean" json:"clean"` // remove the laid-out profile on stop
}

// ReadinessConfig controls the wait for the endpoint after launch.
type ReadinessConfig struct {
	Timeout  time.Duration `yaml:"timeout" json:"timeout"`
	Interval time.Duration `yaml:"interval" json:"interval"`
}

// LoggingConfig defines logging configuration
type LoggingConfig struct {
	// Level is one of debug, info, warn, error.
	Level string `yaml:"level" json:"level"`
}

// Default returns the configuration used when no file is given.
func Default() *Config {
	return &Config{
		Firefox: FirefoxConfig{
			StopTimeout: firefox.DefaultStopTimeout,
		},
		Profile: ProfileConfig{
			Clean: true,
		},
		Readiness: ReadinessConfig{
			Timeout:  service.DefaultStartupTimeout,
			Interval: readiness.DefaultInterval,
		},
		Logging: LoggingConfig{
			Level: "info",
		},
	}
}

// Load reads path (optional) over the defaults, then applies overrides from
// envFile (optional, skipped when missing) and the process environment. The
// process environment wins over envFile. The result is validated.
func Load(path, envFile string) (*Config, error) {
	cfg := Default()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("failed to parse config file: %w", err)
		}
	}

	dotenv := map[string]string{}
	if envFile != "" {
		vars, err := godotenv.Read(envFile)
		switch {
		case err == nil:
			dotenv = vars
		case !errors.Is(err, os.ErrNotExist):
			return nil, fmt.Errorf("failed to read env file: %w", err)
		}
	}

	// Empty values count as unset so they never clear a file setting.
	lookup := func(key string) (string, bool) {
		if v := os.Getenv(key); v != "" {
			return v, true
		}
		v := dotenv[key]
		return v, v != ""
	}
	if err := cfg.applyEnv(lookup); err != nil {
		return nil, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) applyEnv(lookup func(string) (string, bool)) error {
	if v, ok := lookup(EnvDriverXPI); ok {
		c.Extension.Path = v
	}
	if v, ok := lookup(EnvFirefoxBin); ok {
		c.Firefox.Binary = v
	}
	if v, ok := lookup(EnvLogLevel); ok {
		c.Logging.Level = v
	}
	if v, ok := lookup(EnvPort); ok {
		port, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("invalid %s %q: %w", EnvPort, v, err)
		}
		c.Port = port
		c.AnyFreePort = port == 0
	}
	return nil
}

// Validate checks ranges and combinations.
func (c *Config) Validate() error {
	if c.Port < 0 || c.Port > 65535 {
		return fmt.Errorf("port must be between 0 and 65535, got %d", c.Port)
	}
	if c.Port > 0 && c.AnyFreePort {
		return fmt.Errorf("port %d cannot be combined with any_free_port", c.Port)
	}

	if c.Firefox.StopTimeout < 0 {
		return fmt.Errorf("firefox.stop_timeout cannot be negative")
	}
	if c.Readiness.Timeout < 0 {
		return fmt.Errorf("readiness.timeout cannot be negative")
	}
	if c.Readiness.Interval < 0 {
		return fmt.Errorf("readiness.interval cannot be negative")
	}

	if _, err := logging.ParseLevel(c.Logging.Level); err != nil {
		return fmt.Errorf("invalid logging level: %s (must be 'debug', 'info', 'warn', or 'error')", c.Logging.Level)
	}
	return nil
}

// LogLevel returns the parsed logging level, defaulting to info.
func (c *Config) LogLevel() logging.Level {
	level, _ := logging.ParseLevel(c.Logging.Level)
	return level
}

// BuildProfile returns the profile described by the configuration.
func (c *Config) BuildProfile() (*profile.Profile, error) {
	prof := profile.New()
	if c.Profile.Template != "" {
		var err error
		prof, err = profile.FromDir(c.Profile.Template)
		if err != nil {
			return nil, err
		}
	}
	if c.Profile.TempDir != "" {
		prof.SetTempRoot(c.Profile.TempDir)
	}
	for k, v := range c.Profile.Preferences {
		prof.SetPreference(k, v)
	}
	return prof, nil
}

// ServiceOptions translates the configuration into service.Options.
func (c *Config) ServiceOptions(logger domain.Logger) (service.Options, error) {
	prof, err := c.BuildProfile()
	if err != nil {
		return service.Options{}, err
	}

	return service.Options{
		Executable:    c.Firefox.Binary,
		UsePlaywright: c.Firefox.UsePlaywright,
		Port:          c.Port,
		AnyFreePort:   c.AnyFreePort || c.Port == 0,
		Args:          c.Firefox.Args,
		Environment:   c.Firefox.Environment,
		LauncherOptions: firefox.Options{
			EnvPassthrough: c.Firefox.EnvPassthrough,
			StopTimeout:    c.Firefox.StopTimeout,
			CleanProfile:   c.Profile.Clean,
		},
		Profile:       prof,
		ExtensionPath: c.Extension.Path,
		Prober: &readiness.HTTPProber{
			Client:   &http.Client{Timeout: readiness.DefaultRequestTimeout},
			Interval: c.Readiness.Interval,
		},
		StartupTimeout: c.Readiness.Timeout,
		Logger:         logger,
	}, nil
}
