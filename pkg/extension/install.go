package extension

import (
	"encoding/xml"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/klauspost/compress/zip"
	"github.com/tidwall/gjson"
)

// ErrNoAddonID is returned when an XPI carries neither a manifest.json nor
// an install.rdf that names the add-on id.
var ErrNoAddonID = errors.New("extension has no add-on id")

// manifestIDPaths are the manifest.json locations of the gecko add-on id,
// newest first.
var manifestIDPaths = []string{
	"browser_specific_settings.gecko.id",
	"applications.gecko.id",
}

// installManifest is the subset of a legacy install.rdf we read.
// The id can be written either as an element or as an attribute.
type installManifest struct {
	Descriptions []struct {
		ID     string `xml:"http://www.mozilla.org/2004/em-rdf# id"`
		IDAttr string `xml:"http://www.mozilla.org/2004/em-rdf# id,attr"`
	} `xml:"Description"`
}

// Install unpacks the artifact into extensionsDir/<add-on id> and returns
// the id. An existing directory for the same id is replaced.
func Install(a Artifact, extensionsDir string) (string, error) {
	ra, size, err := a.Open()
	if err != nil {
		return "", err
	}

	zr, err := zip.NewReader(ra, size)
	if err != nil {
		return "", fmt.Errorf("%s is not a valid XPI archive: %w", a, err)
	}

	id, err := AddonID(zr)
	if err != nil {
		return "", fmt.Errorf("%s: %w", a, err)
	}
	if id == "." || id == ".." || strings.ContainsAny(id, `/\`) {
		return "", fmt.Errorf("%s: add-on id %q is not a valid directory name", a, id)
	}

	target := filepath.Join(extensionsDir, id)
	if err := os.RemoveAll(target); err != nil {
		return "", fmt.Errorf("failed to clear %s: %w", target, err)
	}
	if err := os.MkdirAll(target, 0755); err != nil {
		return "", fmt.Errorf("failed to create extension directory: %w", err)
	}

	for _, f := range zr.File {
		if err := extractFile(f, target); err != nil {
			return "", fmt.Errorf("failed to unpack %s: %w", a, err)
		}
	}

	return id, nil
}

// AddonID discovers the add-on id of an opened XPI.
func AddonID(zr *zip.Reader) (string, error) {
	if data, ok, err := readEntry(zr, "manifest.json"); err != nil {
		return "", err
	} else if ok {
		if !gjson.ValidBytes(data) {
			return "", fmt.Errorf("manifest.json is not valid JSON")
		}
		for _, path := range manifestIDPaths {
			if v := gjson.GetBytes(data, path); v.String() != "" {
				return v.String(), nil
			}
		}
	}

	if data, ok, err := readEntry(zr, "install.rdf"); err != nil {
		return "", err
	} else if ok {
		var m installManifest
		if err := xml.Unmarshal(data, &m); err != nil {
			return "", fmt.Errorf("failed to parse install.rdf: %w", err)
		}
		for _, d := range m.Descriptions {
			if id := strings.TrimSpace(d.ID); id != "" {
				return id, nil
			}
			if id := strings.TrimSpace(d.IDAttr); id != "" {
				return id, nil
			}
		}
	}

	return "", ErrNoAddonID
}

func readEntry(zr *zip.Reader, name string) ([]byte, bool, error) {
	for _, f := range zr.File {
		if f.Name != name {
			continue
		}
		rc, err := f.Open()
		if err != nil {
			return nil, false, fmt.Errorf("failed to open %s: %w", name, err)
		}
		defer rc.Close()

		data, err := io.ReadAll(rc)
		if err != nil {
			return nil, false, fmt.Errorf("failed to read %s: %w", name, err)
		}
		return data, true, nil
	}
	return nil, false, nil
}

func extractFile(f *zip.File, target string) error {
	dest := filepath.Join(target, filepath.FromSlash(f.Name))
	if dest != target && !strings.HasPrefix(dest, target+string(os.PathSeparator)) {
		return fmt.Errorf("entry %q escapes the extension directory", f.Name)
	}

	if f.FileInfo().IsDir() {
		return os.MkdirAll(dest, 0755)
	}

	if err := os.MkdirAll(filepath.Dir(dest), 0755); err != nil {
		return err
	}

	rc, err := f.Open()
	if err != nil {
		return err
	}
	defer rc.Close()

	out, err := os.OpenFile(dest, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0644)
	if err != nil {
		return err
	}

	if _, err := io.Copy(out, rc); err != nil {
		out.Close()
		return err
	}
	return out.Close()
}
