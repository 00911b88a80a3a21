package torrent

import (
	"encoding/hex"
	"errors"
	"io"
	"os"

	"github.com/drizzle-bt/drizzle/internal/metainfo"
	"github.com/drizzle-bt/drizzle/internal/piece"
)

// Metadata is the information about a single-file torrent needed to download it.
// Metadata must not be modified after it is loaded.
type Metadata struct {
	Name        string
	Announce    []string
	InfoHash    [20]byte
	PieceLength uint32
	TotalLength int64
	PieceHashes [][20]byte
}

var errPieceCount = errors.New("number of piece hashes does not match the length")

// ReadMetadata parses a bencoded torrent file from r.
func ReadMetadata(r io.Reader) (*Metadata, error) {
	mi, err := metainfo.New(r)
	if err != nil {
		return nil, err
	}
	m := &Metadata{
		Name:        mi.Info.Name,
		Announce:    mi.Announce,
		InfoHash:    mi.Info.Hash,
		PieceLength: mi.Info.PieceLength,
		TotalLength: mi.Info.Length,
		PieceHashes: mi.Info.PieceHashes(),
	}
	if uint32(len(m.PieceHashes)) != piece.Count(m.TotalLength, m.PieceLength) {
		return nil, errPieceCount
	}
	return m, nil
}

// LoadMetadata reads the torrent file at path.
func LoadMetadata(path string) (*Metadata, error) {
	f, err := os.Open(path) // nolint: gosec
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return ReadMetadata(f)
}

// InfoHashHex returns the info hash as a hex string.
func (m *Metadata) InfoHashHex() string {
	return hex.EncodeToString(m.InfoHash[:])
}

// NumPieces returns the number of pieces in the torrent.
func (m *Metadata) NumPieces() uint32 {
	return uint32(len(m.PieceHashes))
}

// Pieces returns the layout of all pieces.
func (m *Metadata) Pieces() ([]piece.Piece, error) {
	return piece.NewPieces(m.PieceLength, m.TotalLength, m.PieceHashes)
}
