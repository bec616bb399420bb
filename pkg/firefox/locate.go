package firefox

import (
	"errors"
	"fmt"
	"io"
	"os"
	"os/exec"
	"path/filepath"
	"runtime"

	"github.com/playwright-community/playwright-go"
)

// ErrNotFound is returned by Locate when no Firefox executable exists.
var ErrNotFound = errors.New("no Firefox executable found")

// LocateOptions controls the fallback steps of Locate.
type LocateOptions struct {
	// UsePlaywright downloads (if needed) and uses the Playwright-managed
	// Firefox when nothing is installed on the system.
	UsePlaywright bool
}

// Replaced in tests.
var (
	lookPath       = exec.LookPath
	candidatePaths = platformCandidates
	playwrightPath = playwrightFirefox
)

// Locate finds the Firefox executable. A non-empty custom path must exist and
// is returned as is. Otherwise PATH is searched, then the usual install
// locations for the platform, then optionally Playwright's own build.
func Locate(custom string, opts LocateOptions) (string, error) {
	if custom != "" {
		if !fileExists(custom) {
			return "", fmt.Errorf("firefox executable not found: %s", custom)
		}
		return custom, nil
	}

	for _, name := range []string{"firefox", "firefox-esr"} {
		if path, err := lookPath(name); err == nil {
			return path, nil
		}
	}

	for _, path := range candidatePaths(runtime.GOOS) {
		if fileExists(path) {
			return path, nil
		}
	}

	if opts.UsePlaywright {
		path, err := playwrightPath()
		if err != nil {
			return "", fmt.Errorf("%w: playwright fallback failed: %v", ErrNotFound, err)
		}
		return path, nil
	}

	return "", ErrNotFound
}

func platformCandidates(goos string) []string {
	home, _ := os.UserHomeDir()

	switch goos {
	case "darwin":
		return []string{
			"/Applications/Firefox.app/Contents/MacOS/firefox",
			"/Applications/Firefox Developer Edition.app/Contents/MacOS/firefox",
			"/Applications/Firefox Nightly.app/Contents/MacOS/firefox",
			filepath.Join(home, "Applications/Firefox.app/Contents/MacOS/firefox"),
		}
	case "linux":
		return []string{
			"/usr/bin/firefox",
			"/usr/bin/firefox-esr",
			"/usr/lib/firefox/firefox",
			"/usr/lib64/firefox/firefox",
			"/opt/firefox/firefox",
			"/snap/bin/firefox",
		}
	case "windows":
		var out []string
		for _, env := range []string{"PROGRAMFILES", "PROGRAMFILES(X86)", "LOCALAPPDATA"} {
			if dir := os.Getenv(env); dir != "" {
				out = append(out, filepath.Join(dir, "Mozilla Firefox", "firefox.exe"))
			}
		}
		return out
	default:
		return nil
	}
}

// playwrightFirefox installs Playwright's Firefox build and returns its
// executable path.
func playwrightFirefox() (string, error) {
	// Quiet install so nothing interleaves with CLI output.
	opts := &playwright.RunOptions{
		Browsers: []string{"firefox"},
		Verbose:  false,
		Stdout:   io.Discard,
		Stderr:   io.Discard,
	}

	if err := playwright.Install(opts); err != nil {
		return "", fmt.Errorf("failed to install playwright: %w", err)
	}

	pw, err := playwright.Run(opts)
	if err != nil {
		return "", fmt.Errorf("failed to start playwright: %w", err)
	}
	defer pw.Stop()

	path := pw.Firefox.ExecutablePath()
	if !fileExists(path) {
		return "", fmt.Errorf("playwright firefox missing at %s", path)
	}
	return path, nil
}

func fileExists(path string) bool {
	info, err := os.Stat(path)
	return err == nil && !info.IsDir()
}
