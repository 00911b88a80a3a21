package metainfo

import (
	"crypto/sha1" // nolint: gosec
	"errors"
	"strings"

	"github.com/zeebo/bencode"
)

var (
	errInvalidPieceData = errors.New("invalid piece data")
	errZeroPieceLength  = errors.New("torrent has zero piece length")
	errInvalidName      = errors.New("invalid file name")

	// ErrMultiFile is returned for torrents with more than one file.
	ErrMultiFile = errors.New("multi-file torrents are not supported")
)

// Info contains information about torrent.
type Info struct {
	PieceLength uint32     `bencode:"piece length" json:"piece_length"`
	Pieces      []byte     `bencode:"pieces" json:"pieces"`
	Name        string     `bencode:"name" json:"name"`
	Length      int64      `bencode:"length" json:"length"`
	Files       []FileDict `bencode:"files" json:"files"` // only to detect multiple file mode

	// Calculated fileds
	Hash      [20]byte `bencode:"-" json:"-"`
	NumPieces uint32   `bencode:"-" json:"-"`
	Bytes     []byte   `bencode:"-" json:"-"`
}

// FileDict is an entry in the file list of a multiple file torrent.
type FileDict struct {
	Length int64    `bencode:"length" json:"length"`
	Path   []string `bencode:"path" json:"path"`
}

// NewInfo returns info from bencoded bytes in b.
// The info hash is the SHA-1 of b exactly as it appears in the torrent file.
func NewInfo(b []byte) (*Info, error) {
	var i Info
	if err := bencode.DecodeBytes(b, &i); err != nil {
		return nil, err
	}
	if len(i.Files) != 0 {
		return nil, ErrMultiFile
	}
	if i.PieceLength == 0 {
		return nil, errZeroPieceLength
	}
	if uint32(len(i.Pieces))%sha1.Size != 0 {
		return nil, errInvalidPieceData
	}
	name := strings.TrimSpace(i.Name)
	if name == ".." || strings.ContainsAny(name, "/\\") {
		return nil, errInvalidName
	}
	i.NumPieces = uint32(len(i.Pieces)) / sha1.Size
	totalPieceDataLength := int64(i.PieceLength) * int64(i.NumPieces)
	delta := totalPieceDataLength - i.Length
	if i.Length <= 0 || delta >= int64(i.PieceLength) || delta < 0 {
		return nil, errInvalidPieceData
	}
	i.Bytes = b
	hash := sha1.New()   // nolint: gosec
	_, _ = hash.Write(b) // nolint: gosec
	copy(i.Hash[:], hash.Sum(nil))
	return &i, nil
}

// HashOf returns the expected hash of the piece at index.
func (i *Info) HashOf(index uint32) (h [20]byte) {
	begin := index * sha1.Size
	copy(h[:], i.Pieces[begin:begin+sha1.Size])
	return
}

// PieceHashes returns the hashes of all pieces in order.
func (i *Info) PieceHashes() [][20]byte {
	hashes := make([][20]byte, i.NumPieces)
	for j := range hashes {
		hashes[j] = i.HashOf(uint32(j))
	}
	return hashes
}

// NewInfoBytes returns the bencoded info dictionary of a single file with the given content.
func NewInfoBytes(name string, content []byte, pieceLength uint32) ([]byte, error) {
	if pieceLength == 0 {
		return nil, errZeroPieceLength
	}
	var pieces []byte
	for off := 0; off < len(content); off += int(pieceLength) {
		end := off + int(pieceLength)
		if end > len(content) {
			end = len(content)
		}
		sum := sha1.Sum(content[off:end]) // nolint: gosec
		pieces = append(pieces, sum[:]...)
	}
	info := struct {
		PieceLength uint32 `bencode:"piece length"`
		Pieces      []byte `bencode:"pieces"`
		Name        string `bencode:"name"`
		Length      int64  `bencode:"length"`
	}{
		PieceLength: pieceLength,
		Pieces:      pieces,
		Name:        name,
		Length:      int64(len(content)),
	}
	return bencode.EncodeBytes(info)
}
