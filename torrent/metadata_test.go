package torrent

import (
	"bytes"
	"crypto/sha1" // nolint: gosec
	"os"
	"path/filepath"
	"testing"

	"github.com/drizzle-bt/drizzle/internal/metainfo"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestReadMetadata(t *testing.T) {
	content := bytes.Repeat([]byte("drizzle"), 10000)
	info, err := metainfo.NewInfoBytes("sample.txt", content, 16384)
	require.NoError(t, err)
	b, err := metainfo.NewBytes(info, []string{"http://tracker.example/announce"}, "")
	require.NoError(t, err)

	path := filepath.Join(t.TempDir(), "sample.torrent")
	require.NoError(t, os.WriteFile(path, b, 0600))
	m, err := LoadMetadata(path)
	require.NoError(t, err)

	assert.Equal(t, "sample.txt", m.Name)
	assert.Equal(t, []string{"http://tracker.example/announce"}, m.Announce)
	assert.Equal(t, int64(70000), m.TotalLength)
	assert.Equal(t, uint32(16384), m.PieceLength)
	assert.Equal(t, uint32(5), m.NumPieces())
	assert.Equal(t, sha1.Sum(info), m.InfoHash) // nolint: gosec
	assert.Len(t, m.InfoHashHex(), 40)
	assert.Equal(t, sha1.Sum(content[4*16384:]), m.PieceHashes[4]) // nolint: gosec

	pieces, err := m.Pieces()
	require.NoError(t, err)
	require.Len(t, pieces, 5)
	assert.Equal(t, uint32(70000-4*16384), pieces[4].Length)
}

func TestLoadMetadataMissing(t *testing.T) {
	_, err := LoadMetadata(filepath.Join(t.TempDir(), "missing.torrent"))
	assert.True(t, os.IsNotExist(err))
}
