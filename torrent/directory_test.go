package torrent

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/drizzle-bt/drizzle/internal/tracker"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStaticPeers(t *testing.T) {
	addrs, err := StaticPeers{"1.1.1.1:1", "2.2.2.2:2", "1.1.1.1:1", "bad"}.Discover(context.Background(), &Metadata{})
	require.NoError(t, err)
	assert.Equal(t, []string{"1.1.1.1:1", "2.2.2.2:2"}, addrs)
}

func testTrackerConfig() TrackerConfig {
	cfg := DefaultConfig.Tracker
	cfg.Timeout = time.Second
	return cfg
}

func TestTrackerDirectory(t *testing.T) {
	var calls int32
	s := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		assert.Equal(t, "started", r.URL.Query().Get("event"))
		assert.Equal(t, "6881", r.URL.Query().Get("port"))
		_, _ = w.Write([]byte("d8:intervali60e5:peers12:\x7f\x00\x00\x01\x1a\xe1\x7f\x00\x00\x02\x1a\xe1e"))
	}))
	defer s.Close()

	m := &Metadata{
		// first tracker is down
		Announce:    []string{"http://127.0.0.1:1/announce", s.URL + "/announce"},
		TotalLength: 10,
	}
	cfg := testTrackerConfig()
	cfg.MaxAttempts = 1
	d := NewTrackerDirectory([20]byte{1}, cfg)
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	addrs, err := d.Discover(ctx, m)
	require.NoError(t, err)
	require.NoError(t, ctx.Err())
	assert.Equal(t, []string{"127.0.0.1:6881", "127.0.0.2:6881"}, addrs)
	assert.Equal(t, int32(1), atomic.LoadInt32(&calls))
}

func TestTrackerDirectoryFailureReasonNotRetried(t *testing.T) {
	var calls int32
	s := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		_, _ = w.Write([]byte("d14:failure reason12:unregisterede"))
	}))
	defer s.Close()

	d := NewTrackerDirectory([20]byte{1}, testTrackerConfig())
	_, err := d.Discover(context.Background(), &Metadata{Announce: []string{s.URL}})
	var terr *tracker.Error
	require.True(t, errors.As(err, &terr))
	assert.Equal(t, int32(1), atomic.LoadInt32(&calls))
}

func TestTrackerDirectoryRetry(t *testing.T) {
	var calls int32
	s := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if atomic.AddInt32(&calls, 1) == 1 {
			http.Error(w, "busy", http.StatusServiceUnavailable)
			return
		}
		_, _ = w.Write([]byte("d8:intervali60e5:peers0:e"))
	}))
	defer s.Close()

	cfg := testTrackerConfig()
	cfg.MaxAttempts = 2
	d := NewTrackerDirectory([20]byte{1}, cfg)
	addrs, err := d.Discover(context.Background(), &Metadata{Announce: []string{s.URL}})
	require.NoError(t, err)
	assert.Empty(t, addrs)
	assert.Equal(t, int32(2), atomic.LoadInt32(&calls))
}

func TestTrackerDirectoryNoTrackers(t *testing.T) {
	d := NewTrackerDirectory([20]byte{1}, testTrackerConfig())
	_, err := d.Discover(context.Background(), &Metadata{Announce: []string{"udp://tracker:80"}})
	assert.Equal(t, errNoTrackers, err)
	_, err = d.Discover(context.Background(), &Metadata{})
	assert.Equal(t, errNoTrackers, err)
}
