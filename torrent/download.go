package torrent

import (
	"context"
	"errors"
	"path/filepath"
	"strings"
	"time"

	"github.com/drizzle-bt/drizzle/internal/bitfield"
	"github.com/drizzle-bt/drizzle/internal/logger"
	"github.com/drizzle-bt/drizzle/internal/piece"
	"github.com/drizzle-bt/drizzle/internal/piecepicker"
	"github.com/drizzle-bt/drizzle/internal/piecewriter"
	"github.com/drizzle-bt/drizzle/internal/storage"
	"github.com/drizzle-bt/drizzle/internal/storage/filestorage"
	"golang.org/x/sync/errgroup"
)

// download is a single run of downloading some pieces of a torrent into a file.
type download struct {
	client  *Client
	meta    *Metadata
	pieces  []piece.Piece
	indexes []uint32 // pieces to download, contiguous
	id      string
	log     logger.Logger
	metrics *downloadMetrics

	startedAt time.Time
}

func (c *Client) newDownload(m *Metadata, indexes []uint32) (*download, error) {
	pieces, err := m.Pieces()
	if err != nil {
		return nil, err
	}
	if indexes == nil {
		indexes = make([]uint32, len(pieces))
		for i := range indexes {
			indexes[i] = uint32(i)
		}
	}
	id, err := newJobID()
	if err != nil {
		return nil, err
	}
	return &download{
		client:  c,
		meta:    m,
		pieces:  pieces,
		indexes: indexes,
		id:      id,
		log:     logger.New("download " + id),
	}, nil
}

// Run discovers peers, assigns pieces to them, and downloads the assigned pieces
// from all peers concurrently. Run returns after every peer is done.
// The first error stops the download and closes all peer connections.
func (d *download) Run(ctx context.Context, output string) (*Stats, error) {
	d.startedAt = time.Now()
	d.metrics = newDownloadMetrics()
	defer d.metrics.Close()

	addrs, err := d.client.directory().Discover(ctx, d.meta)
	if err != nil {
		return nil, err
	}
	d.log.Infof("Discovered %d peers", len(addrs))

	peers, err := d.connectPeers(ctx, addrs)
	if err != nil {
		return nil, err
	}
	defer func() {
		for _, pe := range peers {
			pe.Close()
		}
	}()
	d.metrics.PeersUsable.Update(int64(len(peers)))
	d.log.Infof("%d peers are usable", len(peers))

	assigned, err := d.assign(peers)
	if err != nil {
		return nil, err
	}

	f, err := d.openOutput(output)
	if err != nil {
		return nil, &IOError{Op: "open", Err: err}
	}
	defer f.Close()
	w := piecewriter.New(f, d.meta.PieceLength, d.indexes[0], d.metrics.WritesPerSecond, d.metrics.WriteBytesPerSecond)

	g, gctx := errgroup.WithContext(ctx)
	for i, pe := range peers {
		if len(assigned[i]) == 0 {
			pe.Close()
			continue
		}
		pe, indexes := pe, assigned[i]
		g.Go(func() error {
			return d.runPeer(gctx, pe, indexes, w)
		})
	}
	err = g.Wait()
	if err != nil {
		if ctx.Err() != nil {
			err = ctx.Err()
		}
		d.log.Errorf("Download failed: %s", err)
		return nil, err
	}
	stats := d.stats()
	d.log.Infof("Downloaded %d pieces in %s", stats.PiecesDownloaded, stats.Duration)
	return stats, nil
}

// connectPeers connects to all addresses concurrently and returns the peers that
// completed the handshake and sent a bitfield, in the order of addrs.
func (d *download) connectPeers(ctx context.Context, addrs []string) ([]*Peer, error) {
	type result struct {
		peer *Peer
		err  error
	}
	results := make([]result, len(addrs))
	var g errgroup.Group
	for i, addr := range addrs {
		i, addr := i, addr
		g.Go(func() error {
			pe, err := d.connect(ctx, addr)
			results[i] = result{pe, err}
			return nil
		})
	}
	_ = g.Wait()

	if ctx.Err() != nil {
		for _, r := range results {
			if r.peer != nil {
				r.peer.Close()
			}
		}
		return nil, ctx.Err()
	}

	var peers []*Peer
	dialFailures := 0
	for i, r := range results {
		if r.err != nil {
			var cerr *ConnectionError
			if errors.As(r.err, &cerr) {
				dialFailures++
			}
			d.log.Warningf("Peer %s is excluded: %s", addrs[i], r.err)
			continue
		}
		peers = append(peers, r.peer)
	}
	if len(peers) == 0 {
		if len(addrs) > 0 && dialFailures == len(addrs) {
			return nil, &ConnectionError{Addr: strings.Join(addrs, ", "), Err: ErrNoUsablePeers}
		}
		return nil, ErrNoUsablePeers
	}
	return peers, nil
}

// assign returns the pieces assigned to each peer.
func (d *download) assign(peers []*Peer) ([][]uint32, error) {
	have := make([]*bitfield.Bitfield, len(peers))
	for i, pe := range peers {
		have[i] = pe.Bitfield
	}
	picker := d.client.picker()
	var assigned [][]uint32
	var err error
	if len(d.indexes) == len(d.pieces) {
		assigned, err = piecepicker.Assign(uint32(len(d.pieces)), have, picker)
	} else {
		assigned = make([][]uint32, len(peers))
		for _, index := range d.indexes {
			var i int
			i, err = picker.Pick(index, have)
			if err != nil {
				break
			}
			assigned[i] = append(assigned[i], index)
		}
	}
	var uerr *piecepicker.UnavailableError
	if errors.As(err, &uerr) {
		return nil, &PieceUnavailableError{Index: uerr.Index}
	}
	if err != nil {
		return nil, err
	}
	for i, pe := range peers {
		pe.Logger().Debugf("%d pieces assigned", len(assigned[i]))
	}
	return assigned, nil
}

// openOutput opens the output file and sets its size to the total length of the pieces in the download.
func (d *download) openOutput(output string) (storage.File, error) {
	first := d.pieces[d.indexes[0]]
	last := d.pieces[d.indexes[len(d.indexes)-1]]
	size := last.Offset + int64(last.Length) - first.Offset

	sto, err := filestorage.New(filepath.Dir(output))
	if err != nil {
		return nil, err
	}
	return sto.Open(filepath.Base(output), size)
}
