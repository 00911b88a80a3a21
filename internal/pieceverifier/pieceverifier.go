// Package pieceverifier reconstructs a piece from downloaded blocks and checks it against the piece hash.
package pieceverifier

import (
	"errors"

	"github.com/drizzle-bt/drizzle/internal/piece"
)

// ErrHashMismatch is returned when the assembled piece does not match the piece hash.
var ErrHashMismatch = errors.New("piece hash mismatch")

// PieceVerifier assembles the block slots of a piece and verifies the result.
type PieceVerifier struct {
	Piece *piece.Piece
	Slots [][]byte

	Data  []byte
	OK    bool
	Error error
}

// New returns a new PieceVerifier for the given piece and block slots.
// Slot i holds the data of block i, or nil if the block has not been received.
func New(p *piece.Piece, slots [][]byte) *PieceVerifier {
	return &PieceVerifier{
		Piece: p,
		Slots: slots,
	}
}

// Run assembles the piece and verifies its hash.
// Data is always set; OK is set only if the hash is correct.
func (v *PieceVerifier) Run() error {
	v.Data = Assemble(v.Piece, v.Slots)
	v.Error = Verify(v.Piece, v.Data)
	v.OK = v.Error == nil
	return v.Error
}

// Assemble returns exactly p.Length bytes built from block slots.
// Missing slots are filled with zeros, slots longer than their block are truncated.
func Assemble(p *piece.Piece, slots [][]byte) []byte {
	buf := make([]byte, p.Length)
	for _, blk := range p.Blocks() {
		if int(blk.Index) >= len(slots) {
			break
		}
		data := slots[blk.Index]
		if uint32(len(data)) > blk.Length {
			data = data[:blk.Length]
		}
		copy(buf[blk.Begin:blk.Begin+blk.Length], data)
	}
	return buf
}

// Verify returns ErrHashMismatch if data does not match the hash of the piece.
func Verify(p *piece.Piece, data []byte) error {
	if uint32(len(data)) != p.Length || !p.VerifyHash(data) {
		return ErrHashMismatch
	}
	return nil
}
