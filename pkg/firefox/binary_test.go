package firefox

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/entrhq/xpidriver/pkg/profile"
)

type foreignProcess struct{}

func (foreignProcess) PID() int { return 42 }

func TestNewBinary_InvalidPattern(t *testing.T) {
	_, err := NewBinary("/usr/bin/firefox", Options{EnvPassthrough: []string{"["}})
	assert.ErrorContains(t, err, "invalid env passthrough pattern")
}

func TestNewBinary_Defaults(t *testing.T) {
	b, err := NewBinary("/usr/bin/firefox", Options{})
	require.NoError(t, err)
	assert.Equal(t, "/usr/bin/firefox", b.Path())
	assert.Equal(t, DefaultStopTimeout, b.opts.StopTimeout)
	assert.True(t, b.inherit("ANYTHING"))
}

func TestBinary_TerminateEdgeCases(t *testing.T) {
	b, err := NewBinary("/usr/bin/firefox", Options{})
	require.NoError(t, err)

	t.Run("nil process", func(t *testing.T) {
		assert.NoError(t, b.Terminate(nil))
	})

	t.Run("typed nil process", func(t *testing.T) {
		var p *Process
		assert.NoError(t, b.Terminate(p))
	})

	t.Run("foreign process", func(t *testing.T) {
		assert.Error(t, b.Terminate(foreignProcess{}))
	})
}

func TestBinary_StartProcessFailures(t *testing.T) {
	b, err := NewBinary(filepath.Join(t.TempDir(), "missing-firefox"), Options{})
	require.NoError(t, err)

	_, err = b.StartProcess("")
	assert.ErrorContains(t, err, "profile directory is required")

	_, err = b.StartProcess(t.TempDir())
	assert.ErrorContains(t, err, "failed to start firefox")
}

func TestBinary_StartFailureRemovesProfile(t *testing.T) {
	tests := []struct {
		name      string
		clean     bool
		wantExist bool
	}{
		{name: "clean profile set", clean: true, wantExist: false},
		{name: "clean profile unset", clean: false, wantExist: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := profile.New()
			p.SetTempRoot(t.TempDir())
			dir, err := p.LayoutOnDisk()
			require.NoError(t, err)

			b, err := NewBinary(filepath.Join(t.TempDir(), "missing-firefox"), Options{CleanProfile: tt.clean})
			require.NoError(t, err)

			_, err = b.StartProcess(dir)
			require.ErrorContains(t, err, "failed to start firefox")

			if tt.wantExist {
				assert.DirExists(t, dir)
			} else {
				assert.NoDirExists(t, dir)
			}
		})
	}
}
