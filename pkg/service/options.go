package service

import (
	"fmt"
	"sync"
	"time"

	"github.com/entrhq/xpidriver/pkg/domain"
	"github.com/entrhq/xpidriver/pkg/extension"
	"github.com/entrhq/xpidriver/pkg/firefox"
	"github.com/entrhq/xpidriver/pkg/logging"
	"github.com/entrhq/xpidriver/pkg/portalloc"
	"github.com/entrhq/xpidriver/pkg/profile"
	"github.com/entrhq/xpidriver/pkg/readiness"
)

// DefaultStartupTimeout bounds the readiness wait when Options leaves it
// unset.
const DefaultStartupTimeout = 20 * time.Second

// Options configures New. Zero values select the defaults noted per field.
type Options struct {
	// Executable is the Firefox binary. Empty means firefox.Locate.
	Executable string

	// UsePlaywright lets Locate fall back to a Playwright-managed Firefox.
	UsePlaywright bool

	// Port the extension listens on. Exactly one of Port and AnyFreePort
	// must be set.
	Port        int
	AnyFreePort bool

	// Args are appended after -foreground.
	Args []string

	// Environment is added to the browser environment.
	Environment map[string]string

	// Launcher overrides the Firefox launcher built from Executable and
	// LauncherOptions.
	Launcher        domain.Launcher
	LauncherOptions firefox.Options

	// Profile defaults to a fresh profile.New().
	Profile domain.Profile

	// ExtensionPath overrides the bundled WebDriver extension. It cannot be
	// combined with Resolver.
	ExtensionPath string
	Resolver      domain.ExtensionResolver

	// Prober defaults to readiness.NewHTTPProber().
	Prober domain.Prober

	// StartupTimeout defaults to DefaultStartupTimeout.
	StartupTimeout time.Duration

	// Logger defaults to the file logger for the "service" component.
	Logger domain.Logger
}

// New validates opts, fills in defaults and returns an unstarted service.
// With AnyFreePort the port is picked here, before the service exists.
func New(opts Options) (*Service, error) {
	port := opts.Port
	if opts.AnyFreePort {
		if opts.Port != 0 {
			return nil, invalidConfig("port %d conflicts with any free port", opts.Port)
		}
		free, err := portalloc.Free()
		if err != nil {
			return nil, err
		}
		port = free
	}
	if port <= 0 {
		return nil, invalidConfig("port must be positive, got %d", port)
	}
	if err := portalloc.Validate(port); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidConfig, err)
	}
	if opts.ExtensionPath != "" && opts.Resolver != nil {
		return nil, invalidConfig("extension path and resolver are mutually exclusive")
	}
	if opts.StartupTimeout < 0 {
		return nil, invalidConfig("startup timeout must not be negative, got %s", opts.StartupTimeout)
	}

	cfg := serviceConfig{
		port:        port,
		executable:  opts.Executable,
		args:        opts.Args,
		environment: opts.Environment,
		launcher:    opts.Launcher,
		profile:     opts.Profile,
		resolver:    opts.Resolver,
		prober:      opts.Prober,
		timeout:     opts.StartupTimeout,
		logger:      opts.Logger,
	}

	if cfg.logger == nil {
		cfg.logger = defaultLogger()
	}
	if cfg.timeout == 0 {
		cfg.timeout = DefaultStartupTimeout
	}
	if cfg.profile == nil {
		cfg.profile = profile.New()
	}
	if cfg.resolver == nil {
		cfg.resolver = extension.NewResolver(opts.ExtensionPath)
	}
	if cfg.prober == nil {
		cfg.prober = readiness.NewHTTPProber()
	}
	if cfg.launcher == nil {
		exe, err := firefox.Locate(opts.Executable, firefox.LocateOptions{UsePlaywright: opts.UsePlaywright})
		if err != nil {
			return nil, fmt.Errorf("%w: %w", ErrInvalidConfig, err)
		}
		cfg.executable = exe

		lopts := opts.LauncherOptions
		lopts.Environment = mergeEnv(lopts.Environment, opts.Environment)
		if lopts.Logger == nil {
			lopts.Logger = cfg.logger
		}
		bin, err := firefox.NewBinary(exe, lopts)
		if err != nil {
			return nil, fmt.Errorf("%w: %w", ErrInvalidConfig, err)
		}
		cfg.launcher = bin
	}

	return newService(cfg)
}

// NewDefault returns a service on any free port using the located Firefox, a
// fresh profile and the bundled extension.
func NewDefault() (*Service, error) {
	return New(Options{AnyFreePort: true})
}

var (
	fallbackLogger     *logging.Logger
	fallbackLoggerOnce sync.Once
)

func defaultLogger() domain.Logger {
	fallbackLoggerOnce.Do(func() {
		var err error
		fallbackLogger, err = logging.NewLogger("service")
		if err != nil {
			fallbackLogger.Warnf("Failed to initialize service logger, using stderr fallback: %v", err)
		}
	})
	return fallbackLogger
}

// mergeEnv overlays b on a without modifying either.
func mergeEnv(a, b map[string]string) map[string]string {
	if len(a) == 0 && len(b) == 0 {
		return nil
	}
	out := make(map[string]string, len(a)+len(b))
	for k, v := range a {
		out[k] = v
	}
	for k, v := range b {
		out[k] = v
	}
	return out
}
