// Package profile models a Firefox profile: a set of preferences plus the
// extensions to install, written to a fresh directory right before launch.
package profile

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"sync"

	"github.com/google/uuid"

	"github.com/entrhq/xpidriver/pkg/extension"
)

const (
	// PortPreference tells the WebDriver extension which port to listen on.
	PortPreference = "webdriver_firefox_port"

	// AutomationExtensionName is the logical name the WebDriver extension is
	// attached under.
	AutomationExtensionName = "webdriver"

	userJSName    = "user.js"
	extensionsDir = "extensions"
)

// lockFiles are left behind by a running Firefox and must not be copied from
// a model profile, or the new instance refuses to start.
var lockFiles = map[string]bool{
	"parent.lock": true,
	".parentlock": true,
	"lock":        true,
}

// Profile is safe for concurrent use.
type Profile struct {
	mu sync.RWMutex

	modelDir   string
	tempRoot   string
	prefs      map[string]any
	extensions map[string]extension.Artifact
	order      []string
}

// New returns an empty profile. Default WebDriver preferences are applied
// when the profile is laid out.
func New() *Profile {
	return &Profile{
		prefs:      make(map[string]any),
		extensions: make(map[string]extension.Artifact),
	}
}

// FromDir returns a profile that uses dir as its model. The model is copied,
// never modified.
func FromDir(dir string) (*Profile, error) {
	info, err := os.Stat(dir)
	if err != nil {
		return nil, fmt.Errorf("failed to read model profile: %w", err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("model profile %s is not a directory", dir)
	}

	p := New()
	p.modelDir = dir
	return p, nil
}

// SetTempRoot sets the parent directory for laid-out profiles.
// The default is os.TempDir().
func (p *Profile) SetTempRoot(dir string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.tempRoot = dir
}

// ModelDir returns the model directory, or "" for a fresh profile.
func (p *Profile) ModelDir() string {
	return p.modelDir
}

// SetPreference sets a preference, replacing any previous value.
// Values must be bools, strings or integers; anything else fails at layout.
func (p *Profile) SetPreference(key string, value any) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.prefs[key] = value
}

// Preference returns an explicitly set preference.
func (p *Profile) Preference(key string) (any, bool) {
	p.mu.RLock()
	defer p.mu.RUnlock()
	v, ok := p.prefs[key]
	return v, ok
}

// HasAutomationExtension reports whether the WebDriver extension is attached.
func (p *Profile) HasAutomationExtension() bool {
	p.mu.RLock()
	defer p.mu.RUnlock()
	_, ok := p.extensions[AutomationExtensionName]
	return ok
}

// AttachExtension attaches an extension under a logical name, replacing any
// extension previously attached under that name.
func (p *Profile) AttachExtension(name string, a extension.Artifact) error {
	if name == "" {
		return fmt.Errorf("extension name cannot be empty")
	}
	if a.IsZero() {
		return fmt.Errorf("extension %q has no payload", name)
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	if _, exists := p.extensions[name]; !exists {
		p.order = append(p.order, name)
	}
	p.extensions[name] = a
	return nil
}

// Extensions returns the attached extensions in attachment order.
func (p *Profile) Extensions() []extension.Artifact {
	p.mu.RLock()
	defer p.mu.RUnlock()

	out := make([]extension.Artifact, 0, len(p.order))
	for _, name := range p.order {
		out = append(out, p.extensions[name])
	}
	return out
}

// LayoutOnDisk writes the profile into a new directory and returns its path.
// The directory is removed again if any step fails.
func (p *Profile) LayoutOnDisk() (string, error) {
	p.mu.RLock()
	defer p.mu.RUnlock()

	root := p.tempRoot
	if root == "" {
		root = os.TempDir()
	}

	dir := filepath.Join(root, "anonymous"+uuid.NewString()+"webdriver-profile")
	if err := os.MkdirAll(dir, 0700); err != nil {
		return "", fmt.Errorf("failed to create profile directory: %w", err)
	}

	if err := p.layout(dir); err != nil {
		_ = os.RemoveAll(dir)
		return "", err
	}
	return dir, nil
}

func (p *Profile) layout(dir string) error {
	if p.modelDir != "" {
		if err := copyModel(p.modelDir, dir); err != nil {
			return fmt.Errorf("failed to copy model profile: %w", err)
		}
	}

	for _, name := range p.order {
		if _, err := extension.Install(p.extensions[name], filepath.Join(dir, extensionsDir)); err != nil {
			return fmt.Errorf("failed to install extension %q: %w", name, err)
		}
	}

	existing, err := readUserJS(filepath.Join(dir, userJSName))
	if err != nil {
		return err
	}

	rendered, err := render(p.merged(existing))
	if err != nil {
		return err
	}

	if err := os.WriteFile(filepath.Join(dir, userJSName), []byte(rendered), 0644); err != nil {
		return fmt.Errorf("failed to write %s: %w", userJSName, err)
	}
	return nil
}

// UserJS renders the user.js that LayoutOnDisk would write.
func (p *Profile) UserJS() (string, error) {
	p.mu.RLock()
	defer p.mu.RUnlock()

	var existing map[string]any
	if p.modelDir != "" {
		var err error
		existing, err = readUserJS(filepath.Join(p.modelDir, userJSName))
		if err != nil {
			return "", err
		}
	}
	return render(p.merged(existing))
}

// merged layers defaults, then model preferences, then explicit ones.
// Callers hold p.mu.
func (p *Profile) merged(model map[string]any) map[string]any {
	out := DefaultPreferences()
	for k, v := range model {
		out[k] = v
	}
	for k, v := range p.prefs {
		out[k] = v
	}
	return out
}

// Clean removes a directory produced by LayoutOnDisk.
func Clean(dir string) error {
	if dir == "" {
		return nil
	}
	if err := os.RemoveAll(dir); err != nil {
		return fmt.Errorf("failed to remove profile %s: %w", dir, err)
	}
	return nil
}

func copyModel(src, dst string) error {
	return filepath.WalkDir(src, func(path string, d os.DirEntry, err error) error {
		if err != nil {
			return err
		}

		rel, err := filepath.Rel(src, path)
		if err != nil {
			return err
		}
		if rel == "." {
			return nil
		}

		target := filepath.Join(dst, rel)
		switch {
		case d.IsDir():
			return os.MkdirAll(target, 0700)
		case lockFiles[d.Name()]:
			return nil
		case !d.Type().IsRegular():
			return nil
		}

		data, err := os.ReadFile(path)
		if err != nil {
			return err
		}
		return os.WriteFile(target, data, 0644)
	})
}

// sortedKeys keeps user.js output stable.
func sortedKeys(m map[string]any) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
