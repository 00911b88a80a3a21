// Package storage contains an interface for reading and writing the downloaded content.
package storage

import "io"

// Storage opens the file that holds the downloaded pieces.
type Storage interface {
	// Open the file with name, creating it if needed, and set its size.
	Open(name string, size int64) (File, error)
}

// File is written at piece offsets and read back for verification.
type File interface {
	io.ReaderAt
	io.WriterAt
	io.Closer
}
