// Package piecewriter writes verified pieces to their position in the output file.
package piecewriter

import (
	"github.com/drizzle-bt/drizzle/internal/semaphore"
	"github.com/drizzle-bt/drizzle/internal/storage"
	"github.com/rcrowley/go-metrics"
)

// Writer writes pieces to a file shared by all peers.
// Writes are serialized by a one-slot semaphore.
type Writer struct {
	file        storage.File
	pieceLength uint32
	base        int64
	sem         *semaphore.Semaphore

	writesPerSecond     metrics.Meter
	writeBytesPerSecond metrics.Meter
}

// New returns a new Writer for file. firstPiece is the index of the piece stored at the beginning of the file.
// Meters may be nil.
func New(file storage.File, pieceLength uint32, firstPiece uint32, writesPerSecond, writeBytesPerSecond metrics.Meter) *Writer {
	if writesPerSecond == nil {
		writesPerSecond = metrics.NilMeter{}
	}
	if writeBytesPerSecond == nil {
		writeBytesPerSecond = metrics.NilMeter{}
	}
	return &Writer{
		file:                file,
		pieceLength:         pieceLength,
		base:                int64(firstPiece) * int64(pieceLength),
		sem:                 semaphore.New(1),
		writesPerSecond:     writesPerSecond,
		writeBytesPerSecond: writeBytesPerSecond,
	}
}

// Offset returns the position of the piece in the file.
func (w *Writer) Offset(index uint32) int64 {
	return int64(index)*int64(w.pieceLength) - w.base
}

// Write the data of the piece at its offset.
func (w *Writer) Write(index uint32, data []byte) error {
	err := w.sem.Do(func() error {
		_, err := w.file.WriteAt(data, w.Offset(index))
		return err
	})
	if err != nil {
		return err
	}
	w.writesPerSecond.Mark(1)
	w.writeBytesPerSecond.Mark(int64(len(data)))
	return nil
}
