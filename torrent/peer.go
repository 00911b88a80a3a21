package torrent

import (
	"context"
	"errors"

	"github.com/drizzle-bt/drizzle/internal/bitfield"
	"github.com/drizzle-bt/drizzle/internal/btconn"
	"github.com/drizzle-bt/drizzle/internal/logger"
	"github.com/drizzle-bt/drizzle/internal/peerconn"
	"github.com/drizzle-bt/drizzle/internal/piecewriter"
)

// Peer is a connected peer that has sent its bitfield.
type Peer struct {
	*peerconn.Conn
	Addr     string
	Bitfield *bitfield.Bitfield
}

func classifyConnectError(addr string, err error) error {
	var derr *btconn.DialError
	if errors.As(err, &derr) {
		return &ConnectionError{Addr: addr, Err: err}
	}
	return &ProtocolError{Addr: addr, Err: err}
}

// connect dials the peer, does the handshake and reads the bitfield.
func (d *download) connect(ctx context.Context, addr string) (*Peer, error) {
	cfg := d.client.config.Peer
	conn, id, err := btconn.Dial(ctx, addr, cfg.ConnectTimeout, cfg.HandshakeTimeout, d.meta.InfoHash, d.client.peerID)
	if err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		return nil, classifyConnectError(addr, err)
	}
	l := logger.New("peer <- " + addr)
	pc := peerconn.New(conn, id, l, cfg.ReadTimeout, cfg.WriteTimeout, d.client.bucket)
	stop := pc.CloseOnDone(ctx)
	defer stop()
	l.Debugf("Connected to peer %s", pc.IDHex())
	bf, err := pc.ReadBitfield(d.meta.NumPieces())
	if err != nil {
		pc.Close()
		return nil, d.peerError(ctx, addr, err)
	}
	return &Peer{Conn: pc, Addr: addr, Bitfield: bf}, nil
}

// runPeer downloads the pieces assigned to the peer in order and writes them to the output.
func (d *download) runPeer(ctx context.Context, pe *Peer, indexes []uint32, w *piecewriter.Writer) error {
	defer pe.Close()
	stop := pe.CloseOnDone(ctx)
	defer stop()

	if err := pe.Unchoke(); err != nil {
		return d.peerError(ctx, pe.Addr, err)
	}
	pe.Logger().Debugf("Unchoked, downloading %d pieces", len(indexes))
	for _, i := range indexes {
		p := &d.pieces[i]
		data, err := d.downloadPiece(ctx, pe, p)
		if err != nil {
			return err
		}
		if err = w.Write(p.Index, data); err != nil {
			return &IOError{Op: "write", Err: err}
		}
		d.metrics.PiecesDownloaded.Inc(1)
		pe.Logger().Debugf("Piece #%d is written", p.Index)
	}
	return nil
}

// peerError converts an error from the peer connection to a ProtocolError.
// If the context is done, the connection is closed because of cancellation and the context error is returned instead.
func (d *download) peerError(ctx context.Context, addr string, err error) error {
	if ctx.Err() != nil {
		return ctx.Err()
	}
	return &ProtocolError{Addr: addr, Err: err}
}
