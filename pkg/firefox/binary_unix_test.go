//go:build !windows

package firefox

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeFirefox writes a shell script standing in for the browser. It records
// its arguments and environment into the profile directory, then runs body.
func fakeFirefox(t *testing.T, body string) string {
	t.Helper()

	script := "#!/bin/sh\n" +
		"echo \"$@\" > \"$XRE_PROFILE_PATH/args.txt\"\n" +
		"env > \"$XRE_PROFILE_PATH/env.txt\"\n" +
		body + "\n"

	path := filepath.Join(t.TempDir(), "firefox")
	require.NoError(t, os.WriteFile(path, []byte(script), 0755))
	return path
}

func readWhenPresent(t *testing.T, path string) string {
	t.Helper()

	var data []byte
	require.Eventually(t, func() bool {
		var err error
		data, err = os.ReadFile(path)
		return err == nil && len(data) > 0
	}, 5*time.Second, 10*time.Millisecond)
	return string(data)
}

func TestBinary_StartAndTerminate(t *testing.T) {
	t.Setenv("XPIDRIVER_TEST_KEEP", "yes")
	t.Setenv("UNRELATED_SECRET", "no")

	b, err := NewBinary(fakeFirefox(t, "exec sleep 30"), Options{
		Environment:    map[string]string{"EXTRA": "1"},
		EnvPassthrough: []string{"XPIDRIVER_TEST_*", "PATH"},
		StopTimeout:    2 * time.Second,
	})
	require.NoError(t, err)

	profileDir := t.TempDir()
	dp, err := b.StartProcess(profileDir, "-foreground", "-headless")
	require.NoError(t, err)

	p := dp.(*Process)
	assert.Positive(t, p.PID())
	assert.Equal(t, profileDir, p.ProfileDir())

	args := readWhenPresent(t, filepath.Join(profileDir, "args.txt"))
	assert.Equal(t, "-profile "+profileDir+" -foreground -headless", strings.TrimSpace(args))

	env := readWhenPresent(t, filepath.Join(profileDir, "env.txt"))
	assert.Contains(t, env, "XPIDRIVER_TEST_KEEP=yes")
	assert.Contains(t, env, "EXTRA=1")
	assert.Contains(t, env, "MOZ_NO_REMOTE=1")
	assert.Contains(t, env, "MOZ_CRASHREPORTER_DISABLE=1")
	assert.Contains(t, env, "XRE_PROFILE_PATH="+profileDir)
	assert.NotContains(t, env, "UNRELATED_SECRET")

	require.NoError(t, b.Terminate(p))
	select {
	case <-p.Done():
	default:
		t.Fatal("process still running after Terminate")
	}

	// Second call on an exited process is a no-op.
	assert.NoError(t, b.Terminate(p))
	assert.DirExists(t, profileDir, "profile kept without CleanProfile")
}

func TestBinary_TerminateKillsAfterTimeout(t *testing.T) {
	b, err := NewBinary(fakeFirefox(t, "trap '' TERM\necho ok > \"$XRE_PROFILE_PATH/ready\"\nexec sleep 30"), Options{
		StopTimeout: 200 * time.Millisecond,
	})
	require.NoError(t, err)

	profileDir := t.TempDir()
	p, err := b.StartProcess(profileDir)
	require.NoError(t, err)
	readWhenPresent(t, filepath.Join(profileDir, "ready"))

	start := time.Now()
	require.NoError(t, b.Terminate(p))
	assert.GreaterOrEqual(t, time.Since(start), 200*time.Millisecond)
	assert.Less(t, time.Since(start), 10*time.Second)
}

func TestBinary_CleanProfile(t *testing.T) {
	b, err := NewBinary(fakeFirefox(t, "exit 0"), Options{CleanProfile: true})
	require.NoError(t, err)

	profileDir := filepath.Join(t.TempDir(), "profile")
	require.NoError(t, os.MkdirAll(profileDir, 0700))

	dp, err := b.StartProcess(profileDir)
	require.NoError(t, err)
	<-dp.(*Process).Done()

	require.NoError(t, b.Terminate(dp))
	assert.NoDirExists(t, profileDir)
}
