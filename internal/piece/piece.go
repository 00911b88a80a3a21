// Package piece describes how the content of a single-file torrent is split into pieces and blocks.
package piece

import (
	"crypto/sha1" // nolint: gosec
	"encoding/hex"
	"errors"
)

// BlockSize is the number of bytes requested from a peer in a single request message.
const BlockSize = 16 * 1024

var errInvalidLayout = errors.New("piece hashes do not match the content length")

// Piece of a torrent.
type Piece struct {
	Index  uint32   // index in torrent
	Offset int64    // absolute position of the first byte in the file
	Length uint32   // always equal to piece length except last piece
	Hash   [20]byte // correct hash value
}

// Block is part of a Piece.
type Block struct {
	Index  uint32 // index in piece
	Begin  uint32 // offset in piece
	Length uint32
}

// Count returns the number of pieces needed to hold totalLength bytes.
func Count(totalLength int64, pieceLength uint32) uint32 {
	if pieceLength == 0 || totalLength <= 0 {
		return 0
	}
	div, mod := totalLength/int64(pieceLength), totalLength%int64(pieceLength)
	if mod != 0 {
		div++
	}
	return uint32(div)
}

// NewPieces returns the pieces of the content with given hashes.
// The number of hashes must be equal to Count(totalLength, pieceLength).
func NewPieces(pieceLength uint32, totalLength int64, hashes [][20]byte) ([]Piece, error) {
	numPieces := Count(totalLength, pieceLength)
	if numPieces == 0 || uint32(len(hashes)) != numPieces {
		return nil, errInvalidLayout
	}
	pieces := make([]Piece, numPieces)
	for i := uint32(0); i < numPieces; i++ {
		offset := int64(i) * int64(pieceLength)
		length := pieceLength
		if i == numPieces-1 {
			length = uint32(totalLength - offset)
		}
		pieces[i] = Piece{
			Index:  i,
			Offset: offset,
			Length: length,
			Hash:   hashes[i],
		}
	}
	return pieces, nil
}

// NumBlocks returns the number of blocks in the piece.
func (p *Piece) NumBlocks() int {
	div, mod := divMod32(p.Length, BlockSize)
	if mod != 0 {
		div++
	}
	return int(div)
}

// Blocks returns the blocks of the piece in order.
// All blocks are BlockSize long except the last one which contains the remainder.
func (p *Piece) Blocks() []Block {
	div, mod := divMod32(p.Length, BlockSize)
	numBlocks := div
	if mod != 0 {
		numBlocks++
	}
	blocks := make([]Block, numBlocks)
	for j := uint32(0); j < div; j++ {
		blocks[j] = Block{
			Index:  j,
			Begin:  j * BlockSize,
			Length: BlockSize,
		}
	}
	if mod != 0 {
		blocks[numBlocks-1] = Block{
			Index:  numBlocks - 1,
			Begin:  (numBlocks - 1) * BlockSize,
			Length: mod,
		}
	}
	return blocks
}

// GetBlock returns the block that begins at the given offset.
// Offsets that are not a multiple of BlockSize map to the block containing them.
func (p *Piece) GetBlock(begin uint32) (Block, bool) {
	if begin >= p.Length {
		return Block{}, false
	}
	idx := begin / BlockSize
	length := uint32(BlockSize)
	if end := (idx + 1) * BlockSize; end > p.Length {
		length = p.Length - idx*BlockSize
	}
	return Block{Index: idx, Begin: idx * BlockSize, Length: length}, true
}

// HexHash returns the correct hash of the piece as a hex string.
func (p *Piece) HexHash() string {
	return hex.EncodeToString(p.Hash[:])
}

// VerifyHash returns true if the SHA-1 of buf is equal to the piece hash.
func (p *Piece) VerifyHash(buf []byte) bool {
	sum := sha1.Sum(buf) // nolint: gosec
	return hex.EncodeToString(sum[:]) == p.HexHash()
}

func divMod32(a, b uint32) (uint32, uint32) { return a / b, a % b }
