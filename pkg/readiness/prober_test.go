package readiness

import (
	"context"
	"net/http"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/net/nettest"

	"github.com/entrhq/xpidriver/pkg/domain"
)

func serve(t *testing.T, h http.Handler) string {
	t.Helper()

	l, err := nettest.NewLocalListener("tcp")
	require.NoError(t, err)

	srv := &http.Server{Handler: h}
	go srv.Serve(l)
	t.Cleanup(func() { srv.Close() })

	return "http://" + l.Addr().String() + "/hub"
}

func TestHTTPProber_Reachable(t *testing.T) {
	tests := []struct {
		name   string
		status int
	}{
		{name: "ok", status: http.StatusOK},
		{name: "not found still counts", status: http.StatusNotFound},
		{name: "server error still counts", status: http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			url := serve(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.status)
			}))

			p := &HTTPProber{Client: &http.Client{Timeout: time.Second}, Interval: 10 * time.Millisecond}
			assert.NoError(t, p.AwaitReachable(context.Background(), url, time.Second))
		})
	}
}

func TestHTTPProber_BecomesReachable(t *testing.T) {
	l, err := nettest.NewLocalListener("tcp")
	require.NoError(t, err)
	url := "http://" + l.Addr().String() + "/hub"

	// Nothing accepts on the address until the server starts.
	var hits atomic.Int32
	srv := &http.Server{Handler: http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
	})}
	defer srv.Close()

	time.AfterFunc(50*time.Millisecond, func() { srv.Serve(l) })

	p := &HTTPProber{Client: &http.Client{Timeout: time.Second}, Interval: 10 * time.Millisecond}
	require.NoError(t, p.AwaitReachable(context.Background(), url, 5*time.Second))
	assert.GreaterOrEqual(t, hits.Load(), int32(1))
}

func TestHTTPProber_Timeout(t *testing.T) {
	l, err := nettest.NewLocalListener("tcp")
	require.NoError(t, err)
	url := "http://" + l.Addr().String() + "/hub"
	require.NoError(t, l.Close())

	p := &HTTPProber{Client: &http.Client{Timeout: 100 * time.Millisecond}, Interval: 10 * time.Millisecond}

	start := time.Now()
	err = p.AwaitReachable(context.Background(), url, 150*time.Millisecond)
	assert.ErrorIs(t, err, domain.ErrNotReachable)
	assert.Less(t, time.Since(start), 2*time.Second)
}

func TestHTTPProber_ContextCancelled(t *testing.T) {
	l, err := nettest.NewLocalListener("tcp")
	require.NoError(t, err)
	url := "http://" + l.Addr().String() + "/hub"
	require.NoError(t, l.Close())

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err = NewHTTPProber().AwaitReachable(ctx, url, time.Minute)
	assert.ErrorIs(t, err, domain.ErrNotReachable)
}
