// Package torrent downloads single-file torrents from peers using the BitTorrent peer wire protocol.
package torrent

import (
	"context"
	"crypto/rand"
	"encoding/base64"

	"github.com/drizzle-bt/drizzle/internal/btconn"
	"github.com/drizzle-bt/drizzle/internal/logger"
	"github.com/drizzle-bt/drizzle/internal/piecepicker"
	"github.com/gofrs/uuid"
	"github.com/juju/ratelimit"
)

// Client downloads torrents. A Client may run multiple downloads concurrently.
type Client struct {
	// Picker assigns pieces to peers. RoundRobin is used if nil.
	Picker piecepicker.Picker
	// Directory returns peer addresses. The trackers of the torrent are used if nil.
	Directory PeerDirectory

	config Config
	peerID [20]byte
	bucket *ratelimit.Bucket
	log    logger.Logger
}

// NewClient returns a new Client with a random peer id.
func NewClient(cfg Config) (*Client, error) {
	c := &Client{
		config: cfg,
		log:    logger.New("client"),
	}
	n := copy(c.peerID[:], cfg.PeerIDPrefix)
	_, err := rand.Read(c.peerID[n:])
	if err != nil {
		return nil, err
	}
	if cfg.Download.SpeedLimit > 0 {
		c.bucket = ratelimit.NewBucketWithRate(float64(cfg.Download.SpeedLimit), cfg.Download.SpeedLimit)
	}
	return c, nil
}

// PeerID returns the peer id sent in handshakes.
func (c *Client) PeerID() [20]byte {
	return c.peerID
}

// Config returns the configuration of the client.
func (c *Client) Config() Config {
	return c.config
}

func (c *Client) directory() PeerDirectory {
	if c.Directory != nil {
		return c.Directory
	}
	return NewTrackerDirectory(c.peerID, c.config.Tracker)
}

func (c *Client) picker() piecepicker.Picker {
	if c.Picker != nil {
		return c.Picker
	}
	return piecepicker.RoundRobin{}
}

// Peers returns the addresses of peers for the torrent from the peer directory.
func (c *Client) Peers(ctx context.Context, m *Metadata) ([]string, error) {
	return c.directory().Discover(ctx, m)
}

// Handshake connects to the peer at addr and returns its peer id.
func (c *Client) Handshake(ctx context.Context, m *Metadata, addr string) ([20]byte, error) {
	conn, id, err := btconn.Dial(ctx, addr, c.config.Peer.ConnectTimeout, c.config.Peer.HandshakeTimeout, m.InfoHash, c.peerID)
	if err != nil {
		return id, classifyConnectError(addr, err)
	}
	_ = conn.Close()
	return id, nil
}

// Download all pieces of the torrent into the file at output.
func (c *Client) Download(ctx context.Context, m *Metadata, output string) (*Stats, error) {
	d, err := c.newDownload(m, nil)
	if err != nil {
		return nil, err
	}
	return d.Run(ctx, output)
}

// DownloadPiece downloads a single piece into the file at output.
// The output file contains only the data of the piece.
func (c *Client) DownloadPiece(ctx context.Context, m *Metadata, index uint32, output string) (*Stats, error) {
	if index >= m.NumPieces() {
		return nil, &PieceUnavailableError{Index: index}
	}
	d, err := c.newDownload(m, []uint32{index})
	if err != nil {
		return nil, err
	}
	return d.Run(ctx, output)
}

func newJobID() (string, error) {
	u1, err := uuid.NewV1()
	if err != nil {
		return "", err
	}
	return base64.RawURLEncoding.EncodeToString(u1[:]), nil
}
