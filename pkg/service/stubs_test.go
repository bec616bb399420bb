package service

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/stretchr/testify/mock"

	"github.com/entrhq/xpidriver/pkg/domain"
	"github.com/entrhq/xpidriver/pkg/extension"
)

type fakeProcess int

func (p fakeProcess) PID() int { return int(p) }

type stubLauncher struct {
	mu        sync.Mutex
	dirs      []string
	flags     [][]string
	startErr  error
	noProcess bool
	termErr   error
	onStart   func()
	terminate []domain.Process

	starts atomic.Int32
	terms  atomic.Int32
}

func (l *stubLauncher) StartProcess(dir string, flags ...string) (domain.Process, error) {
	l.starts.Add(1)
	if l.onStart != nil {
		l.onStart()
	}
	if l.startErr != nil {
		return nil, l.startErr
	}
	if l.noProcess {
		return nil, nil
	}

	l.mu.Lock()
	defer l.mu.Unlock()
	l.dirs = append(l.dirs, dir)
	l.flags = append(l.flags, flags)
	return fakeProcess(1000 + len(l.dirs)), nil
}

func (l *stubLauncher) Terminate(p domain.Process) error {
	l.terms.Add(1)
	l.mu.Lock()
	l.terminate = append(l.terminate, p)
	l.mu.Unlock()
	return l.termErr
}

type stubProfile struct {
	mu        sync.Mutex
	prefs     map[string]any
	attached  map[string]extension.Artifact
	hasExt    bool
	layoutErr error
	attachErr error
	layouts   int
	onSet     func()
}

func newStubProfile() *stubProfile {
	return &stubProfile{prefs: map[string]any{}, attached: map[string]extension.Artifact{}}
}

func (p *stubProfile) SetPreference(key string, value any) {
	if p.onSet != nil {
		p.onSet()
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	p.prefs[key] = value
}

func (p *stubProfile) HasAutomationExtension() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.hasExt
}

func (p *stubProfile) AttachExtension(name string, a extension.Artifact) error {
	if p.attachErr != nil {
		return p.attachErr
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	p.attached[name] = a
	p.hasExt = true
	return nil
}

func (p *stubProfile) LayoutOnDisk() (string, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.layouts++
	if p.layoutErr != nil {
		return "", p.layoutErr
	}
	return fmt.Sprintf("/tmp/profile-%d", p.layouts), nil
}

// stubProber succeeds after reachableAfter polls, or never when it is 0.
type stubProber struct {
	reachableAfter int
	calls          atomic.Int32
	urls           []string
	onAwait        func()
}

func (p *stubProber) AwaitReachable(ctx context.Context, url string, timeout time.Duration) error {
	p.calls.Add(1)
	p.urls = append(p.urls, url)
	if p.onAwait != nil {
		p.onAwait()
	}
	if p.reachableAfter > 0 {
		return nil
	}
	return fmt.Errorf("%w: %s after %s", domain.ErrNotReachable, url, timeout)
}

type mockResolver struct {
	mock.Mock
}

func (m *mockResolver) Resolve() extension.Artifact {
	args := m.Called()
	return args.Get(0).(extension.Artifact)
}

type recordingLogger struct {
	mu       sync.Mutex
	warnings []string
}

func (l *recordingLogger) Debugf(string, ...interface{}) {}
func (l *recordingLogger) Infof(string, ...interface{})  {}
func (l *recordingLogger) Errorf(string, ...interface{}) {}

func (l *recordingLogger) Warnf(format string, v ...interface{}) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.warnings = append(l.warnings, fmt.Sprintf(format, v...))
}

func (l *recordingLogger) Warnings() []string {
	l.mu.Lock()
	defer l.mu.Unlock()
	return append([]string(nil), l.warnings...)
}

var errBoom = errors.New("boom")
