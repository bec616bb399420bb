package service

import (
	"errors"
	"fmt"
)

var (
	// ErrInvalidConfig reports a service that cannot be constructed.
	ErrInvalidConfig = errors.New("invalid driver service configuration")

	// ErrStartup reports a failure to configure, lay out or launch the
	// browser.
	ErrStartup = errors.New("driver service failed to start")

	// ErrReadinessTimeout reports a browser that launched but whose endpoint
	// never answered. It does not match ErrStartup.
	ErrReadinessTimeout = errors.New("driver service did not become reachable")
)

// Stage names the step of Start that failed.
type Stage string

const (
	StageState     Stage = "state"
	StageConfigure Stage = "configure"
	StageLayout    Stage = "layout"
	StageLaunch    Stage = "launch"
	StageReadiness Stage = "readiness"
)

// StartupError is returned by Start. It matches ErrReadinessTimeout when
// Stage is StageReadiness and ErrStartup otherwise, and also matches
// whatever Err matches.
type StartupError struct {
	Stage Stage
	Err   error
}

func (e *StartupError) Error() string {
	return fmt.Sprintf("%v (%s): %v", e.sentinel(), e.Stage, e.Err)
}

func (e *StartupError) Unwrap() []error {
	return []error{e.sentinel(), e.Err}
}

func (e *StartupError) sentinel() error {
	if e.Stage == StageReadiness {
		return ErrReadinessTimeout
	}
	return ErrStartup
}

func invalidConfig(format string, v ...interface{}) error {
	return fmt.Errorf("%w: %s", ErrInvalidConfig, fmt.Sprintf(format, v...))
}
