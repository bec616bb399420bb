// Package domain declares the collaborators the driver service consumes.
// Concrete implementations live in pkg/firefox, pkg/profile, pkg/readiness
// and pkg/extension; tests substitute their own.
package domain

import (
	"context"
	"errors"
	"time"

	"github.com/entrhq/xpidriver/pkg/extension"
)

// ErrNotReachable is returned by a Prober whose deadline elapsed before the
// endpoint answered.
var ErrNotReachable = errors.New("endpoint not reachable")

// Process is a handle to a launched browser process.
type Process interface {
	PID() int
}

// Launcher starts and terminates the browser binary.
// Terminate must accept a nil Process and a process that already exited.
type Launcher interface {
	StartProcess(profileDir string, flags ...string) (Process, error)
	Terminate(p Process) error
}

// Profile is the set of preferences and extensions a browser instance loads.
type Profile interface {
	SetPreference(key string, value any)
	HasAutomationExtension() bool
	AttachExtension(name string, a extension.Artifact) error
	// LayoutOnDisk writes the profile to a fresh directory and returns it.
	LayoutOnDisk() (string, error)
}

// Prober blocks until url answers or timeout elapses.
type Prober interface {
	AwaitReachable(ctx context.Context, url string, timeout time.Duration) error
}

// ExtensionResolver picks the automation extension to inject.
type ExtensionResolver interface {
	Resolve() extension.Artifact
}

// Logger is satisfied by *logging.Logger.
type Logger interface {
	Debugf(format string, v ...interface{})
	Infof(format string, v ...interface{})
	Warnf(format string, v ...interface{})
	Errorf(format string, v ...interface{})
}
