// Package httptracker implements announces to HTTP trackers.
package httptracker

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/drizzle-bt/drizzle/internal/logger"
	"github.com/drizzle-bt/drizzle/internal/tracker"
	"github.com/zeebo/bencode"
)

// HTTPTracker announces to a single HTTP tracker URL.
type HTTPTracker struct {
	rawURL            string
	url               *url.URL
	log               logger.Logger
	http              *http.Client
	transport         *http.Transport
	trackerID         string
	userAgent         string
	maxResponseLength int64
}

var _ tracker.Tracker = (*HTTPTracker)(nil)

// New returns a new HTTPTracker.
func New(rawURL string, u *url.URL, timeout time.Duration, t *http.Transport, userAgent string, maxResponseLength int64) *HTTPTracker {
	return &HTTPTracker{
		rawURL:            rawURL,
		url:               u,
		log:               logger.New("tracker " + u.String()),
		transport:         t,
		userAgent:         userAgent,
		maxResponseLength: maxResponseLength,
		http: &http.Client{
			Timeout:   timeout,
			Transport: t,
		},
	}
}

// URL returns the announce URL of the tracker.
func (t *HTTPTracker) URL() string {
	return t.rawURL
}

// Announce the torrent and return the peers sent by the tracker.
func (t *HTTPTracker) Announce(ctx context.Context, req tracker.AnnounceRequest) (*tracker.AnnounceResponse, error) {
	q := t.url.Query()
	q.Set("info_hash", string(req.InfoHash[:]))
	q.Set("peer_id", string(req.PeerID[:]))
	q.Set("port", strconv.Itoa(req.Port))
	q.Set("uploaded", strconv.FormatInt(req.Uploaded, 10))
	q.Set("downloaded", strconv.FormatInt(req.Downloaded, 10))
	q.Set("left", strconv.FormatInt(req.Left, 10))
	q.Set("compact", "1")
	q.Set("no_peer_id", "1")
	q.Set("numwant", strconv.Itoa(req.NumWant))
	if req.Event != tracker.EventNone {
		q.Set("event", string(req.Event))
	}
	if t.trackerID != "" {
		q.Set("trackerid", t.trackerID)
	}

	u := *t.url
	u.RawQuery = q.Encode()
	t.log.Debugf("making request to: %q", u.String())

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
	if err != nil {
		return nil, err
	}
	httpReq.Header.Set("User-Agent", t.userAgent)

	resp, err := t.http.Do(httpReq)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	body := io.Reader(resp.Body)
	if t.maxResponseLength > 0 {
		body = io.LimitReader(resp.Body, t.maxResponseLength)
	}
	data, err := io.ReadAll(body)
	if err != nil {
		return nil, err
	}
	if resp.StatusCode != http.StatusOK {
		return nil, &StatusError{
			Code:   resp.StatusCode,
			Header: resp.Header,
			Body:   string(data),
		}
	}

	var response announceResponse
	err = bencode.DecodeBytes(data, &response)
	if err != nil {
		return nil, fmt.Errorf("%w: %s", tracker.ErrDecode, err.Error())
	}

	if response.WarningMessage != "" {
		t.log.Warning(response.WarningMessage)
	}
	if response.FailureReason != "" {
		retryIn, _ := strconv.Atoi(response.RetryIn)
		return nil, &tracker.Error{
			FailureReason: response.FailureReason,
			RetryIn:       time.Duration(retryIn) * time.Minute,
		}
	}

	if response.TrackerID != "" {
		t.trackerID = response.TrackerID
	}

	peers, err := response.peers()
	if err != nil {
		return nil, fmt.Errorf("%w: %s", tracker.ErrDecode, err.Error())
	}

	return &tracker.AnnounceResponse{
		Interval:       time.Duration(response.Interval) * time.Second,
		MinInterval:    time.Duration(response.MinInterval) * time.Second,
		Leechers:       response.Incomplete,
		Seeders:        response.Complete,
		WarningMessage: response.WarningMessage,
		Peers:          peers,
	}, nil
}

// Close idle connections of the transport.
func (t *HTTPTracker) Close() error {
	t.transport.CloseIdleConnections()
	return nil
}
