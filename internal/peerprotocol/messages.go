package peerprotocol

import (
	"bytes"
	"encoding"
	"encoding/binary"
	"fmt"
)

// Message is a peer message that can be written to the wire.
type Message interface {
	encoding.BinaryMarshaler
	ID() MessageID
}

// HaveMessage indicates a peer has the piece with index.
type HaveMessage struct {
	Index uint32
}

// ID returns the peer protocol message type.
func (m HaveMessage) ID() MessageID { return Have }

// MarshalBinary encodes the piece index.
func (m HaveMessage) MarshalBinary() ([]byte, error) {
	buf := bytes.NewBuffer(make([]byte, 0, 4))
	err := binary.Write(buf, binary.BigEndian, m)
	return buf.Bytes(), err
}

// RequestMessage is sent when we need a block of a piece.
type RequestMessage struct {
	Index, Begin, Length uint32
}

// ID returns the peer protocol message type.
func (m RequestMessage) ID() MessageID { return Request }

// MarshalBinary encodes index, begin and length as big-endian integers.
func (m RequestMessage) MarshalBinary() ([]byte, error) {
	buf := bytes.NewBuffer(make([]byte, 0, 12))
	err := binary.Write(buf, binary.BigEndian, m)
	return buf.Bytes(), err
}

// PieceMessage carries the data of a block.
type PieceMessage struct {
	Index, Begin uint32
	Data         []byte
}

// ID returns the peer protocol message type.
func (m PieceMessage) ID() MessageID { return Piece }

// MarshalBinary encodes the block header followed by the block data.
func (m PieceMessage) MarshalBinary() ([]byte, error) {
	b := make([]byte, 8+len(m.Data))
	binary.BigEndian.PutUint32(b[0:4], m.Index)
	binary.BigEndian.PutUint32(b[4:8], m.Begin)
	copy(b[8:], m.Data)
	return b, nil
}

// BitfieldMessage is sent after the handshake to tell which pieces the sender has.
type BitfieldMessage struct {
	Data []byte
}

// ID returns the peer protocol message type.
func (m BitfieldMessage) ID() MessageID { return Bitfield }

// MarshalBinary returns the raw bit vector.
func (m BitfieldMessage) MarshalBinary() ([]byte, error) {
	b := make([]byte, len(m.Data))
	copy(b, m.Data)
	return b, nil
}

type emptyMessage struct{}

func (m emptyMessage) MarshalBinary() ([]byte, error) {
	return []byte{}, nil
}

// ChokeMessage is sent to peer that it should not request pieces.
type ChokeMessage struct{ emptyMessage }

// UnchokeMessage is sent to peer that it can request pieces.
type UnchokeMessage struct{ emptyMessage }

// InterestedMessage is sent to peer that we want to request pieces if you unchoke us.
type InterestedMessage struct{ emptyMessage }

// NotInterestedMessage is sent to peer that we don't want any piece from you.
type NotInterestedMessage struct{ emptyMessage }

// CancelMessage is sent to peer to cancel previosly sent request.
type CancelMessage struct{ RequestMessage }

func (m ChokeMessage) ID() MessageID         { return Choke }
func (m UnchokeMessage) ID() MessageID       { return Unchoke }
func (m InterestedMessage) ID() MessageID    { return Interested }
func (m NotInterestedMessage) ID() MessageID { return NotInterested }
func (m CancelMessage) ID() MessageID        { return Cancel }

// ParseRequest decodes the payload of a request or cancel message.
func ParseRequest(payload []byte) (RequestMessage, error) {
	var m RequestMessage
	if len(payload) != 12 {
		return m, &FramingError{Err: fmt.Errorf("%s: %w", Request, errShortPayload)}
	}
	m.Index = binary.BigEndian.Uint32(payload[0:4])
	m.Begin = binary.BigEndian.Uint32(payload[4:8])
	m.Length = binary.BigEndian.Uint32(payload[8:12])
	return m, nil
}

// ParsePiece decodes the payload of a piece message.
// Data of the returned message shares memory with payload.
func ParsePiece(payload []byte) (PieceMessage, error) {
	var m PieceMessage
	if len(payload) < 8 {
		return m, &FramingError{Err: fmt.Errorf("%s: %w", Piece, errShortPayload)}
	}
	m.Index = binary.BigEndian.Uint32(payload[0:4])
	m.Begin = binary.BigEndian.Uint32(payload[4:8])
	m.Data = payload[8:]
	return m, nil
}

// ParseHave decodes the payload of a have message.
func ParseHave(payload []byte) (HaveMessage, error) {
	var m HaveMessage
	if len(payload) != 4 {
		return m, &FramingError{Err: fmt.Errorf("%s: %w", Have, errShortPayload)}
	}
	m.Index = binary.BigEndian.Uint32(payload)
	return m, nil
}
