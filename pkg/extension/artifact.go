// Package extension resolves the WebDriver automation extension that gets
// injected into a Firefox profile and unpacks it onto disk.
//
// An Artifact is either a caller override backed by a file on disk or the
// default payload bundled into the binary. The Resolver picks exactly one of
// the two on every call.
package extension

import (
	"bytes"
	"embed"
	"fmt"
	"io"
	"os"
)

//go:embed assets/webdriver.xpi
var assets embed.FS

// bundledPath is the resource name of the default XPI inside assets.
const bundledPath = "assets/webdriver.xpi"

// Source identifies where an Artifact's payload comes from.
type Source int

const (
	sourceUnknown Source = iota

	// SourceBundled is the XPI packaged with this module.
	SourceBundled

	// SourceFile is an XPI on the local filesystem supplied by the caller.
	SourceFile
)

// String returns a short name for the source.
func (s Source) String() string {
	switch s {
	case SourceBundled:
		return "bundled"
	case SourceFile:
		return "file"
	default:
		return "unknown"
	}
}

// Artifact is an immutable reference to an extension payload.
// The zero value references nothing and fails to open.
type Artifact struct {
	source Source
	path   string
}

// FromFile returns an artifact backed by the XPI at path.
// The file is not checked here; a missing file surfaces when the
// artifact is opened.
func FromFile(path string) Artifact {
	return Artifact{source: SourceFile, path: path}
}

// Bundled returns the default artifact packaged with this module.
func Bundled() Artifact {
	return Artifact{source: SourceBundled, path: bundledPath}
}

// Source reports which variant this artifact is.
func (a Artifact) Source() Source {
	return a.source
}

// Path returns the filesystem path for file artifacts, or the embedded
// resource name for the bundled artifact.
func (a Artifact) Path() string {
	return a.path
}

// IsZero reports whether the artifact references nothing.
func (a Artifact) IsZero() bool {
	return a.source == sourceUnknown
}

func (a Artifact) String() string {
	if a.IsZero() {
		return "extension(<none>)"
	}
	return fmt.Sprintf("extension(%s:%s)", a.source, a.path)
}

// Open reads the payload and returns it as a random-access reader along with
// its size, which is what zip readers need.
func (a Artifact) Open() (io.ReaderAt, int64, error) {
	var (
		data []byte
		err  error
	)

	switch a.source {
	case SourceFile:
		data, err = os.ReadFile(a.path)
	case SourceBundled:
		data, err = assets.ReadFile(a.path)
	default:
		return nil, 0, fmt.Errorf("cannot open empty extension artifact")
	}
	if err != nil {
		return nil, 0, fmt.Errorf("failed to read %s: %w", a, err)
	}

	return bytes.NewReader(data), int64(len(data)), nil
}
