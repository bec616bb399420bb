// Package service runs a local Firefox with the WebDriver extension and
// tracks it through start, readiness and shutdown.
package service

import (
	"context"
	"errors"
	"net"
	"net/url"
	"strconv"
	"sync"
	"sync/atomic"
	"time"

	"github.com/entrhq/xpidriver/pkg/domain"
)

// ForegroundFlag is always passed to Firefox first.
const ForegroundFlag = "-foreground"

// HubURL returns the endpoint URL the extension serves on port.
func HubURL(port int) *url.URL {
	return &url.URL{
		Scheme: "http",
		Host:   net.JoinHostPort("localhost", strconv.Itoa(port)),
		Path:   "/hub",
	}
}

// Service manages one local browser instance. Start and Stop are serialized
// by a per-instance mutex; State can be read at any time.
type Service struct {
	mu sync.Mutex

	port        int
	executable  string
	args        []string
	environment map[string]string

	launcher domain.Launcher
	profile  domain.Profile
	resolver domain.ExtensionResolver
	prober   domain.Prober
	timeout  time.Duration
	logger   domain.Logger

	state   atomic.Int32
	process domain.Process
}

// serviceConfig carries fully resolved collaborators into newService.
type serviceConfig struct {
	port        int
	executable  string
	args        []string
	environment map[string]string
	launcher    domain.Launcher
	profile     domain.Profile
	resolver    domain.ExtensionResolver
	prober      domain.Prober
	timeout     time.Duration
	logger      domain.Logger
}

func newService(cfg serviceConfig) (*Service, error) {
	if cfg.port <= 0 {
		return nil, invalidConfig("port must be positive, got %d", cfg.port)
	}
	switch {
	case cfg.launcher == nil:
		return nil, invalidConfig("launcher is required")
	case cfg.profile == nil:
		return nil, invalidConfig("profile is required")
	case cfg.resolver == nil:
		return nil, invalidConfig("extension resolver is required")
	case cfg.prober == nil:
		return nil, invalidConfig("readiness prober is required")
	case cfg.logger == nil:
		return nil, invalidConfig("logger is required")
	case cfg.timeout <= 0:
		return nil, invalidConfig("startup timeout must be positive, got %s", cfg.timeout)
	}

	s := &Service{
		port:        cfg.port,
		executable:  cfg.executable,
		args:        launchArgs(cfg.args),
		environment: copyEnv(cfg.environment),
		launcher:    cfg.launcher,
		profile:     cfg.profile,
		resolver:    cfg.resolver,
		prober:      cfg.prober,
		timeout:     cfg.timeout,
		logger:      cfg.logger,
	}
	s.setState(StateUnstarted)
	return s, nil
}

// Start configures the profile, lays it out, launches the browser and waits
// for the hub endpoint to answer. ctx bounds only the readiness wait.
//
// Start on a ready service does nothing. After a failed start the service
// must be stopped before it can be started again.
func (s *Service) Start(ctx context.Context) error {
	if ctx == nil {
		ctx = context.Background()
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	switch s.State() {
	case StateReady:
		return nil
	case StateFailed:
		return &StartupError{Stage: StageState, Err: errors.New("previous start failed, call Stop before starting again")}
	}

	s.setState(StateStarting)
	s.logger.Infof("starting firefox on port %d", s.port)

	if err := ConfigureProfile(s.profile, s.port, s.resolver); err != nil {
		return s.fail(StageConfigure, err)
	}

	dir, err := s.profile.LayoutOnDisk()
	if err != nil {
		return s.fail(StageLayout, err)
	}
	s.logger.Debugf("profile laid out at %s", dir)

	proc, err := s.launcher.StartProcess(dir, s.args...)
	if err != nil {
		return s.fail(StageLaunch, err)
	}
	if proc == nil {
		return s.fail(StageLaunch, errors.New("launcher returned no process"))
	}
	s.process = proc
	s.logger.Debugf("firefox launched with pid %d", proc.PID())

	hub := HubURL(s.port).String()
	if err := s.prober.AwaitReachable(ctx, hub, s.timeout); err != nil {
		return s.fail(StageReadiness, err)
	}

	s.setState(StateReady)
	s.logger.Infof("driver service ready at %s", hub)
	return nil
}

func (s *Service) fail(stage Stage, err error) error {
	s.setState(StateFailed)
	s.logger.Errorf("driver service failed at %s: %v", stage, err)
	return &StartupError{Stage: stage, Err: err}
}

// Stop terminates the browser, whatever state the service is in. It never
// fails: termination problems are logged as warnings.
func (s *Service) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.setState(StateStopping)
	if err := s.launcher.Terminate(s.process); err != nil {
		s.logger.Warnf("shutdown warning: failed to terminate firefox: %v", err)
	}
	s.process = nil
	s.setState(StateStopped)
	s.logger.Infof("driver service on port %d stopped", s.port)
}

// State reports the lifecycle state without waiting on Start or Stop.
func (s *Service) State() State {
	return State(s.state.Load())
}

func (s *Service) setState(st State) {
	s.state.Store(int32(st))
}

// URL returns HubURL(s.Port()).
func (s *Service) URL() *url.URL {
	return HubURL(s.port)
}

func (s *Service) Port() int {
	return s.port
}

// Executable returns the browser path, or "" when a custom launcher was
// supplied without one.
func (s *Service) Executable() string {
	return s.executable
}

// Args returns the launch flags, starting with ForegroundFlag.
func (s *Service) Args() []string {
	return append([]string(nil), s.args...)
}

func (s *Service) Environment() map[string]string {
	return copyEnv(s.environment)
}

func (s *Service) Profile() domain.Profile {
	return s.profile
}

// launchArgs puts ForegroundFlag first and drops any repeat of it.
func launchArgs(extra []string) []string {
	args := []string{ForegroundFlag}
	for _, a := range extra {
		if a == ForegroundFlag {
			continue
		}
		args = append(args, a)
	}
	return args
}

func copyEnv(env map[string]string) map[string]string {
	out := make(map[string]string, len(env))
	for k, v := range env {
		out[k] = v
	}
	return out
}
