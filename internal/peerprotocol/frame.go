// Package peerprotocol implements the length-prefixed message framing of the BitTorrent peer wire protocol.
package peerprotocol

import (
	"bytes"
	"encoding/binary"
	"errors"
	"fmt"
	"io"
)

// MaxFrameLength is the largest frame we accept from a peer: a piece message
// header plus a block far bigger than any block we request.
const MaxFrameLength = 1<<20 + 13

var (
	errShortPayload  = errors.New("payload too short")
	errFrameTooLarge = errors.New("frame too large")
)

// FramingError is returned when a frame cannot be read or parsed.
type FramingError struct {
	Err error
}

func (e *FramingError) Error() string {
	return "framing error: " + e.Err.Error()
}

// Unwrap returns the underlying error.
func (e *FramingError) Unwrap() error { return e.Err }

// Frame is a single message read from the wire.
// A frame with zero Length is a keep-alive and has no ID or Payload.
type Frame struct {
	Length  uint32
	ID      MessageID
	Payload []byte
}

// KeepAlive returns true if the frame is a keep-alive message.
func (f Frame) KeepAlive() bool { return f.Length == 0 }

func (f Frame) String() string {
	if f.KeepAlive() {
		return "keep alive"
	}
	return fmt.Sprintf("%s (%d bytes)", f.ID, len(f.Payload))
}

// ReadFrame reads one length-prefixed frame from r.
func ReadFrame(r io.Reader) (Frame, error) {
	var f Frame
	err := binary.Read(r, binary.BigEndian, &f.Length)
	if err != nil {
		return f, &FramingError{Err: err}
	}
	if f.Length == 0 {
		return f, nil
	}
	if f.Length > MaxFrameLength {
		return f, &FramingError{Err: errFrameTooLarge}
	}
	err = binary.Read(r, binary.BigEndian, &f.ID)
	if err != nil {
		return f, &FramingError{Err: unexpectedEOF(err)}
	}
	if f.Length > 1 {
		f.Payload = make([]byte, f.Length-1)
		_, err = io.ReadFull(r, f.Payload)
		if err != nil {
			return f, &FramingError{Err: fmt.Errorf("%s payload: %w", f.ID, unexpectedEOF(err))}
		}
	}
	return f, nil
}

// WriteMessage writes msg to w as a single frame.
func WriteMessage(w io.Writer, msg Message) error {
	payload, err := msg.MarshalBinary()
	if err != nil {
		return err
	}
	buf := bytes.NewBuffer(make([]byte, 0, 4+1+len(payload)))
	var header = struct {
		Length uint32
		ID     MessageID
	}{
		Length: uint32(1 + len(payload)),
		ID:     msg.ID(),
	}
	_ = binary.Write(buf, binary.BigEndian, &header)
	buf.Write(payload)
	_, err = w.Write(buf.Bytes())
	return err
}

// WriteKeepAlive writes a zero length frame to w.
func WriteKeepAlive(w io.Writer) error {
	_, err := w.Write([]byte{0, 0, 0, 0})
	return err
}

// A frame cut after its length prefix is never a clean EOF.
func unexpectedEOF(err error) error {
	if err == io.EOF {
		return io.ErrUnexpectedEOF
	}
	return err
}
