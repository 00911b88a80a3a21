// Package piecedownloader downloads the blocks of a single piece from a peer with a fixed depth request pipeline.
package piecedownloader

import (
	"context"
	"errors"

	"github.com/drizzle-bt/drizzle/internal/peerprotocol"
	"github.com/drizzle-bt/drizzle/internal/piece"
)

// DefaultQueueLength is the number of requests kept in flight when no queue length is given.
const DefaultQueueLength = 5

// ErrBlockInvalid is returned when the peer sends a block that begins outside of the piece.
var ErrBlockInvalid = errors.New("received block is invalid")

// Peer is the connection that blocks are requested from.
type Peer interface {
	SendMessage(msg peerprotocol.Message) error
	ReadFrame() (peerprotocol.Frame, error)
}

// PieceDownloader downloads all blocks of a piece from a peer.
type PieceDownloader struct {
	Piece       *piece.Piece
	Peer        Peer
	QueueLength int

	// Slots holds the received data of each block indexed by block index.
	// A nil slot means the block has not been received.
	Slots [][]byte
	// Received counts piece messages that belong to this piece.
	Received int

	blocks    []piece.Block
	remaining []piece.Block // not requested yet, in order
	attempts  int           // piece messages received
}

// New returns a new PieceDownloader.
func New(pi *piece.Piece, pe Peer, queueLength int) *PieceDownloader {
	if queueLength <= 0 {
		queueLength = DefaultQueueLength
	}
	blocks := pi.Blocks()
	return &PieceDownloader{
		Piece:       pi,
		Peer:        pe,
		QueueLength: queueLength,
		Slots:       make([][]byte, len(blocks)),
		blocks:      blocks,
		remaining:   blocks,
	}
}

// Run requests the blocks of the piece and reads piece messages until as many
// piece messages as blocks have been received. Frames other than piece messages
// are ignored and do not count. Blocks that never arrive are left as nil slots.
func (d *PieceDownloader) Run(ctx context.Context) ([][]byte, error) {
	for i := 0; i < d.QueueLength && len(d.remaining) > 0; i++ {
		if err := d.requestNext(); err != nil {
			return nil, err
		}
	}
	for d.attempts < len(d.blocks) {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		f, err := d.Peer.ReadFrame()
		if err != nil {
			return nil, err
		}
		if f.KeepAlive() || f.ID != peerprotocol.Piece {
			continue
		}
		d.attempts++
		msg, err := peerprotocol.ParsePiece(f.Payload)
		if err != nil {
			return nil, err
		}
		if err = d.gotBlock(msg); err != nil {
			return nil, err
		}
		if len(d.remaining) > 0 {
			if err = d.requestNext(); err != nil {
				return nil, err
			}
		}
	}
	return d.Slots, nil
}

// Done returns true if every block of the piece has been received.
func (d *PieceDownloader) Done() bool {
	for _, s := range d.Slots {
		if s == nil {
			return false
		}
	}
	return true
}

func (d *PieceDownloader) requestNext() error {
	b := d.remaining[0]
	d.remaining = d.remaining[1:]
	return d.Peer.SendMessage(peerprotocol.RequestMessage{
		Index:  d.Piece.Index,
		Begin:  b.Begin,
		Length: b.Length,
	})
}

func (d *PieceDownloader) gotBlock(msg peerprotocol.PieceMessage) error {
	if msg.Index != d.Piece.Index {
		// Counted as an attempt but the data belongs to another piece.
		return nil
	}
	blk, ok := d.Piece.GetBlock(msg.Begin)
	if !ok {
		return ErrBlockInvalid
	}
	d.Slots[blk.Index] = msg.Data
	d.Received++
	return nil
}
