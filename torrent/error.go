package torrent

import (
	"errors"
	"fmt"
)

// ErrNoUsablePeers is returned when none of the discovered peers completed the handshake and sent a bitfield.
var ErrNoUsablePeers = errors.New("no usable peers")

// ConnectionError is returned when a peer cannot be reached.
type ConnectionError struct {
	Addr string
	Err  error
}

func (e *ConnectionError) Error() string {
	return fmt.Sprintf("connection error (%s): %s", e.Addr, e.Err)
}

// Unwrap returns the underlying error.
func (e *ConnectionError) Unwrap() error { return e.Err }

// ProtocolError is returned when a peer sends a malformed handshake or message, or a message out of order.
type ProtocolError struct {
	Addr string
	Err  error
}

func (e *ProtocolError) Error() string {
	return fmt.Sprintf("protocol error (%s): %s", e.Addr, e.Err)
}

// Unwrap returns the underlying error.
func (e *ProtocolError) Unwrap() error { return e.Err }

// PieceUnavailableError is returned when no usable peer has the piece.
type PieceUnavailableError struct {
	Index uint32
}

func (e *PieceUnavailableError) Error() string {
	return fmt.Sprintf("piece #%d is not available from any peer", e.Index)
}

// HashMismatchError is returned when the downloaded piece does not match its hash.
type HashMismatchError struct {
	Index uint32
	Addr  string
}

func (e *HashMismatchError) Error() string {
	return fmt.Sprintf("hash mismatch for piece #%d from %s", e.Index, e.Addr)
}

// IOError is returned when the output file cannot be opened or written.
type IOError struct {
	Op  string
	Err error
}

func (e *IOError) Error() string {
	return "io error: " + e.Op + ": " + e.Err.Error()
}

// Unwrap returns the underlying error.
func (e *IOError) Unwrap() error { return e.Err }
