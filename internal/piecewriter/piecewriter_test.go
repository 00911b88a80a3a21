package piecewriter

import (
	"bytes"
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/drizzle-bt/drizzle/internal/storage/filestorage"
	"github.com/rcrowley/go-metrics"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestConcurrentWrites(t *testing.T) {
	dir := t.TempDir()
	s, err := filestorage.New(dir)
	require.NoError(t, err)
	const pieceLength = 4
	f, err := s.Open("out", 7)
	require.NoError(t, err)
	defer f.Close()

	writes := metrics.NewMeter()
	defer writes.Stop()
	writeBytes := metrics.NewMeter()
	defer writeBytes.Stop()
	w := New(f, pieceLength, 0, writes, writeBytes)
	assert.Equal(t, int64(4), w.Offset(1))

	var wg sync.WaitGroup
	wg.Add(2)
	go func() {
		defer wg.Done()
		assert.NoError(t, w.Write(1, []byte("efg")))
	}()
	go func() {
		defer wg.Done()
		assert.NoError(t, w.Write(0, []byte("abcd")))
	}()
	wg.Wait()

	b, err := os.ReadFile(filepath.Join(dir, "out"))
	require.NoError(t, err)
	assert.True(t, bytes.Equal([]byte("abcdefg"), b))
	assert.Equal(t, int64(2), writes.Count())
	assert.Equal(t, int64(7), writeBytes.Count())
}

type failingFile struct{ *os.File }

func (f failingFile) WriteAt(p []byte, off int64) (int, error) { return 0, os.ErrClosed }

func TestFirstPiece(t *testing.T) {
	w := New(failingFile{}, 4, 3, nil, nil)
	assert.Equal(t, int64(0), w.Offset(3))
	assert.Equal(t, int64(8), w.Offset(5))
}

func TestWriteError(t *testing.T) {
	w := New(failingFile{}, 4, 0, nil, nil)
	assert.Equal(t, os.ErrClosed, w.Write(0, []byte{1}))
}
