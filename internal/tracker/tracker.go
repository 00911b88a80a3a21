// Package tracker provides support for announcing torrents to trackers.
package tracker

import (
	"context"
	"errors"
	"net"
	"time"
)

// Tracker returns peers for a torrent.
type Tracker interface {
	// Announce the download to the tracker.
	Announce(ctx context.Context, req AnnounceRequest) (*AnnounceResponse, error)

	// URL of the tracker.
	URL() string
}

// Event is sent in an announce request to mark a state change of the download.
// The zero value means a regular announce.
type Event string

// Announce events as named in the HTTP tracker protocol.
const (
	EventNone      Event = ""
	EventStarted   Event = "started"
	EventCompleted Event = "completed"
	EventStopped   Event = "stopped"
)

// AnnounceRequest contains the parameters of an announce.
type AnnounceRequest struct {
	InfoHash   [20]byte
	PeerID     [20]byte
	Port       int
	Uploaded   int64
	Downloaded int64
	Left       int64
	Event      Event
	NumWant    int
}

// AnnounceResponse is the result of a successful announce.
type AnnounceResponse struct {
	Interval       time.Duration
	MinInterval    time.Duration
	Leechers       int32
	Seeders        int32
	WarningMessage string
	Peers          []*net.TCPAddr
}

// ErrDecode is returned when the tracker response cannot be parsed.
var ErrDecode = errors.New("cannot decode response")

// Error is the failure reason sent by the tracker.
type Error struct {
	FailureReason string
	RetryIn       time.Duration
}

func (e *Error) Error() string { return "announce error: " + e.FailureReason }
