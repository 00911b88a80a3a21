package torrent

import (
	"context"
	"errors"
	"net/http"
	"net/url"
	"time"

	"github.com/cenkalti/backoff/v3"
	"github.com/drizzle-bt/drizzle/internal/addrlist"
	"github.com/drizzle-bt/drizzle/internal/logger"
	"github.com/drizzle-bt/drizzle/internal/tracker"
	"github.com/drizzle-bt/drizzle/internal/tracker/httptracker"
)

var errNoTrackers = errors.New("torrent has no http tracker")

// PeerDirectory returns the addresses of peers that may have the torrent, in "host:port" form.
type PeerDirectory interface {
	Discover(ctx context.Context, m *Metadata) ([]string, error)
}

// StaticPeers is a PeerDirectory that always returns the same addresses.
type StaticPeers []string

var _ PeerDirectory = StaticPeers(nil)

// Discover returns the addresses without duplicates.
func (s StaticPeers) Discover(ctx context.Context, m *Metadata) ([]string, error) {
	l := addrlist.New(0)
	l.Push(s, addrlist.Manual)
	return l.List(), nil
}

// TrackerDirectory announces to the HTTP trackers of the torrent in order
// and returns the peers of the first tracker that responds.
type TrackerDirectory struct {
	PeerID [20]byte
	Config TrackerConfig

	transport *http.Transport
	log       logger.Logger
}

var _ PeerDirectory = (*TrackerDirectory)(nil)

// NewTrackerDirectory returns a new TrackerDirectory.
func NewTrackerDirectory(peerID [20]byte, cfg TrackerConfig) *TrackerDirectory {
	return &TrackerDirectory{
		PeerID:    peerID,
		Config:    cfg,
		transport: &http.Transport{DisableKeepAlives: true},
		log:       logger.New("directory"),
	}
}

// Discover announces the torrent and returns the peers sent by the tracker.
func (d *TrackerDirectory) Discover(ctx context.Context, m *Metadata) ([]string, error) {
	l := addrlist.New(d.Config.NumWant)
	err := errNoTrackers
	for _, rawURL := range m.Announce {
		u, perr := url.Parse(rawURL)
		if perr != nil {
			d.log.Warningf("invalid tracker url %q: %s", rawURL, perr)
			continue
		}
		if u.Scheme != "http" && u.Scheme != "https" {
			continue
		}
		trk := httptracker.New(rawURL, u, d.Config.Timeout, d.transport, d.Config.UserAgent, d.Config.MaxResponseLength)
		var resp *tracker.AnnounceResponse
		resp, err = d.announce(ctx, trk, m)
		_ = trk.Close()
		if err != nil {
			if ctx.Err() != nil {
				return nil, ctx.Err()
			}
			d.log.Warningf("announce to %s failed: %s", rawURL, err)
			continue
		}
		if resp.WarningMessage != "" {
			d.log.Warningf("tracker warning: %s", resp.WarningMessage)
		}
		l.PushTCP(resp.Peers, addrlist.Tracker)
		d.log.Infof("Tracker %s returned %d peers", rawURL, len(resp.Peers))
		return l.List(), nil
	}
	return nil, err
}

func (d *TrackerDirectory) announce(ctx context.Context, trk tracker.Tracker, m *Metadata) (*tracker.AnnounceResponse, error) {
	req := tracker.AnnounceRequest{
		InfoHash: m.InfoHash,
		PeerID:   d.PeerID,
		Port:     d.Config.Port,
		Left:     m.TotalLength,
		Event:    tracker.EventStarted,
		NumWant:  d.Config.NumWant,
	}
	var resp *tracker.AnnounceResponse
	op := func() error {
		var err error
		resp, err = trk.Announce(ctx, req)
		var terr *tracker.Error
		if errors.As(err, &terr) || errors.Is(err, tracker.ErrDecode) {
			return backoff.Permanent(err)
		}
		return err
	}
	retry := &backoff.ExponentialBackOff{
		InitialInterval:     time.Second,
		RandomizationFactor: 0.5,
		Multiplier:          2,
		MaxInterval:         10 * time.Second,
		MaxElapsedTime:      0, // limited by attempts
		Clock:               backoff.SystemClock,
	}
	retry.Reset()
	b := limitAttempts(ctx, retry, d.Config.MaxAttempts)
	notify := func(err error, next time.Duration) {
		d.log.Debugf("announce to %s failed: %s, retrying in %s", trk.URL(), err, next)
	}
	err := backoff.RetryNotify(op, b, notify)
	return resp, err
}
