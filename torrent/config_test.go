package torrent

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadConfigMissingFile(t *testing.T) {
	c, err := LoadConfig(filepath.Join(t.TempDir(), "missing.yaml"))
	require.NoError(t, err)
	assert.Equal(t, DefaultConfig, *c)
}

func TestLoadConfig(t *testing.T) {
	filename := filepath.Join(t.TempDir(), "config.yaml")
	const data = `
peer_id_prefix: -XX0001-
peer:
  read_timeout: 10s
download:
  request_queue_length: 10
  max_attempts: 3
tracker:
  port: 7000
`
	require.NoError(t, os.WriteFile(filename, []byte(data), 0600))
	c, err := LoadConfig(filename)
	require.NoError(t, err)
	assert.Equal(t, "-XX0001-", c.PeerIDPrefix)
	assert.Equal(t, 10*time.Second, c.Peer.ReadTimeout)
	assert.Equal(t, DefaultConfig.Peer.ConnectTimeout, c.Peer.ConnectTimeout)
	assert.Equal(t, 10, c.Download.RequestQueueLength)
	assert.Equal(t, 3, c.Download.MaxAttempts)
	assert.Equal(t, 7000, c.Tracker.Port)
	assert.Equal(t, DefaultConfig.Tracker.NumWant, c.Tracker.NumWant)
}

func TestLoadConfigInvalid(t *testing.T) {
	filename := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(filename, []byte("peer: [1, 2"), 0600))
	_, err := LoadConfig(filename)
	assert.Error(t, err)
}
