// Package firefox locates, launches and terminates a local Firefox binary.
package firefox

import (
	"fmt"
	"io"
	"os"
	"os/exec"
	"sort"
	"strings"
	"time"

	"github.com/gobwas/glob"

	"github.com/entrhq/xpidriver/pkg/domain"
	"github.com/entrhq/xpidriver/pkg/profile"
)

// DefaultStopTimeout is how long Terminate waits after the interrupt before
// killing the process group.
const DefaultStopTimeout = 5 * time.Second

// Options configures a Binary.
type Options struct {
	// Environment is added on top of the inherited environment.
	Environment map[string]string

	// EnvPassthrough restricts the inherited environment to variables whose
	// names match one of these glob patterns. Empty inherits everything.
	EnvPassthrough []string

	StopTimeout time.Duration

	// CleanProfile removes the profile directory once the process is gone.
	CleanProfile bool

	Stdout io.Writer
	Stderr io.Writer

	Logger domain.Logger
}

// Binary launches one Firefox executable. It implements domain.Launcher.
type Binary struct {
	path        string
	opts        Options
	passthrough []glob.Glob
}

// NewBinary returns a launcher for the executable at path. It fails only when
// an EnvPassthrough pattern does not compile.
func NewBinary(path string, opts Options) (*Binary, error) {
	b := &Binary{path: path, opts: opts}
	for _, pattern := range opts.EnvPassthrough {
		g, err := glob.Compile(pattern)
		if err != nil {
			return nil, fmt.Errorf("invalid env passthrough pattern %q: %w", pattern, err)
		}
		b.passthrough = append(b.passthrough, g)
	}
	if b.opts.StopTimeout <= 0 {
		b.opts.StopTimeout = DefaultStopTimeout
	}
	return b, nil
}

// Path returns the executable path.
func (b *Binary) Path() string {
	return b.path
}

// Process is a running Firefox started by a Binary.
type Process struct {
	cmd        *exec.Cmd
	profileDir string
	startedAt  time.Time

	done    chan struct{}
	exitErr error
}

// PID returns the operating system process id.
func (p *Process) PID() int {
	return p.cmd.Process.Pid
}

// ProfileDir returns the profile directory the process was started with.
func (p *Process) ProfileDir() string {
	return p.profileDir
}

// StartedAt returns the launch time.
func (p *Process) StartedAt() time.Time {
	return p.startedAt
}

// Done is closed once the process has exited and been reaped.
func (p *Process) Done() <-chan struct{} {
	return p.done
}

// ExitErr returns the error from waiting on the process. Only valid after
// Done is closed.
func (p *Process) ExitErr() error {
	return p.exitErr
}

func (p *Process) exited() bool {
	select {
	case <-p.done:
		return true
	default:
		return false
	}
}

// StartProcess launches Firefox on profileDir with the given flags.
func (b *Binary) StartProcess(profileDir string, flags ...string) (domain.Process, error) {
	if profileDir == "" {
		return nil, fmt.Errorf("profile directory is required")
	}

	args := append([]string{"-profile", profileDir}, flags...)
	cmd := exec.Command(b.path, args...)
	cmd.Env = b.environ(profileDir)
	cmd.Stdout = b.opts.Stdout
	cmd.Stderr = b.opts.Stderr
	setProcessGroup(cmd)

	if err := cmd.Start(); err != nil {
		if b.opts.CleanProfile {
			if cerr := profile.Clean(profileDir); cerr != nil {
				b.warnf("failed to remove profile %s: %v", profileDir, cerr)
			}
		}
		return nil, fmt.Errorf("failed to start firefox: %w", err)
	}

	p := &Process{
		cmd:        cmd,
		profileDir: profileDir,
		startedAt:  time.Now(),
		done:       make(chan struct{}),
	}
	go func() {
		p.exitErr = cmd.Wait()
		close(p.done)
	}()

	b.debugf("started firefox pid=%d profile=%s args=%v", p.PID(), profileDir, args)
	return p, nil
}

// Terminate stops p: interrupt the process group, wait StopTimeout, then
// kill. A nil process or one that already exited is not an error, and
// calling Terminate again is harmless.
func (b *Binary) Terminate(dp domain.Process) error {
	if dp == nil {
		return nil
	}
	p, ok := dp.(*Process)
	if !ok {
		return fmt.Errorf("process %d was not started by this launcher", dp.PID())
	}
	if p == nil {
		return nil
	}

	if !p.exited() {
		signalGroup(p.cmd, false)

		select {
		case <-p.done:
		case <-time.After(b.opts.StopTimeout):
			b.warnf("firefox pid=%d ignored interrupt for %s, killing", p.PID(), b.opts.StopTimeout)
			signalGroup(p.cmd, true)
			<-p.done
		}
	}

	if b.opts.CleanProfile {
		if err := profile.Clean(p.profileDir); err != nil {
			return err
		}
	}
	return nil
}

// environ builds the child environment: filtered inherited variables, then
// Options.Environment, then the variables Firefox needs for automation.
func (b *Binary) environ(profileDir string) []string {
	env := make(map[string]string)
	for _, kv := range os.Environ() {
		name, value, ok := strings.Cut(kv, "=")
		if !ok || !b.inherit(name) {
			continue
		}
		env[name] = value
	}
	for k, v := range b.opts.Environment {
		env[k] = v
	}

	env["MOZ_NO_REMOTE"] = "1"
	env["MOZ_CRASHREPORTER_DISABLE"] = "1"
	env["NO_EM_RESTART"] = "1"
	env["XRE_PROFILE_PATH"] = profileDir

	out := make([]string, 0, len(env))
	for k, v := range env {
		out = append(out, k+"="+v)
	}
	sort.Strings(out)
	return out
}

func (b *Binary) inherit(name string) bool {
	if len(b.passthrough) == 0 {
		return true
	}
	for _, g := range b.passthrough {
		if g.Match(name) {
			return true
		}
	}
	return false
}

func (b *Binary) debugf(format string, v ...interface{}) {
	if b.opts.Logger != nil {
		b.opts.Logger.Debugf(format, v...)
	}
}

func (b *Binary) warnf(format string, v ...interface{}) {
	if b.opts.Logger != nil {
		b.opts.Logger.Warnf(format, v...)
	}
}
