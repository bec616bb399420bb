package profile

import (
	"bufio"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"regexp"
	"strconv"
	"strings"
)

var userPrefLine = regexp.MustCompile(`^\s*user_pref\(\s*"([^"]+)"\s*,\s*("(?:[^"\\]|\\.)*"|[^)]+?)\s*\)\s*;`)

// Literal is a preference value written to user.js exactly as given, such
// as a float read back from a model profile.
type Literal string

// DefaultPreferences returns the preferences every WebDriver profile starts
// with. Model and explicit preferences override them.
func DefaultPreferences() map[string]any {
	return map[string]any{
		"app.update.auto":                          false,
		"app.update.enabled":                       false,
		"browser.shell.checkDefaultBrowser":        false,
		"browser.startup.homepage":                 "about:blank",
		"browser.startup.page":                     0,
		"browser.tabs.warnOnClose":                 false,
		"datareporting.healthreport.uploadEnabled": false,
		"dom.disable_open_during_load":             false,
		"extensions.autoDisableScopes":             10,
		"extensions.update.enabled":                false,
		"network.http.phishy-userpass-length":      255,
		"startup.homepage_welcome_url":             "about:blank",
		"webdriver_accept_untrusted_certs":         true,
		"webdriver_assume_untrusted_issuer":        true,
		"xpinstall.signatures.required":            false,
	}
}

// render formats preferences as user.js lines in key order.
func render(prefs map[string]any) (string, error) {
	var b strings.Builder
	for _, key := range sortedKeys(prefs) {
		v, err := formatValue(prefs[key])
		if err != nil {
			return "", fmt.Errorf("preference %q: %w", key, err)
		}
		fmt.Fprintf(&b, "user_pref(%q, %s);\n", key, v)
	}
	return b.String(), nil
}

func formatValue(v any) (string, error) {
	switch val := v.(type) {
	case bool:
		return strconv.FormatBool(val), nil
	case Literal:
		return string(val), nil
	case string:
		quoted, err := json.Marshal(val)
		if err != nil {
			return "", err
		}
		return string(quoted), nil
	case int, int8, int16, int32, int64, uint, uint8, uint16, uint32, uint64:
		return fmt.Sprintf("%d", val), nil
	default:
		return "", fmt.Errorf("unsupported preference type %T", v)
	}
}

// readUserJS parses an existing user.js. A missing file yields no
// preferences; lines that are not user_pref calls are ignored.
func readUserJS(path string) (map[string]any, error) {
	f, err := os.Open(path)
	if errors.Is(err, os.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to open %s: %w", path, err)
	}
	defer f.Close()

	prefs := make(map[string]any)
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		m := userPrefLine.FindStringSubmatch(scanner.Text())
		if m == nil {
			continue
		}
		prefs[m[1]] = parseValue(m[2])
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", path, err)
	}
	return prefs, nil
}

func parseValue(raw string) any {
	switch raw {
	case "true":
		return true
	case "false":
		return false
	}
	if n, err := strconv.Atoi(raw); err == nil {
		return n
	}
	if strings.HasPrefix(raw, `"`) {
		var s string
		if err := json.Unmarshal([]byte(raw), &s); err == nil {
			return s
		}
	}
	return Literal(raw)
}
