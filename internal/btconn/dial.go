// Package btconn provides support for dialing and accepting BitTorrent connections.
package btconn

import (
	"bytes"
	"context"
	"net"
	"time"

	"github.com/drizzle-bt/drizzle/internal/logger"
)

// Dial new connection to the address and does the BitTorrent protocol handshake.
// The handshake echoed by the peer must have the same info hash.
// Returns a net.Conn that is ready for sending/receiving BitTorrent peer protocol messages.
func Dial(
	ctx context.Context,
	addr string,
	dialTimeout, handshakeTimeout time.Duration,
	ih [20]byte,
	ourID [20]byte) (
	conn net.Conn, peerID [20]byte, err error) {
	log := logger.New("conn -> " + addr)
	done := make(chan struct{})
	defer close(done)

	log.Debug("Connecting to peer...")
	dialer := net.Dialer{Timeout: dialTimeout}
	conn, err = dialer.DialContext(ctx, "tcp", addr)
	if err != nil {
		err = &DialError{Addr: addr, Err: err}
		return
	}
	log.Debug("Connected")
	defer func(conn net.Conn) {
		if err != nil {
			conn.Close()
		}
	}(conn)
	go func(conn net.Conn) {
		select {
		case <-ctx.Done():
			conn.Close()
		case <-done:
		}
	}(conn)

	// Handshake must be completed in allowed duration.
	if err = conn.SetDeadline(time.Now().Add(handshakeTimeout)); err != nil {
		return
	}

	out := bytes.NewBuffer(make([]byte, 0, HandshakeLength))
	err = writeHandshake(out, ih, ourID)
	if err != nil {
		return
	}
	_, err = conn.Write(out.Bytes())
	if err != nil {
		return
	}

	var ihRead [20]byte
	ihRead, peerID, err = readHandshake(conn)
	if err != nil {
		return
	}
	if ihRead != ih {
		err = errInvalidInfoHash
		return
	}
	if peerID == ourID {
		err = errOwnConnection
		return
	}
	err = conn.SetDeadline(time.Time{})
	return
}
