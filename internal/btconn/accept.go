package btconn

import (
	"net"
	"time"
)

// Accept BitTorrent handshake from the connection.
// hasInfoHash is called with the info hash sent by the dialer before we reply.
// The connection is ready for sending/receiving BitTorrent protocol messages after Accept returns.
func Accept(
	conn net.Conn,
	handshakeTimeout time.Duration,
	hasInfoHash func([20]byte) bool,
	ourID [20]byte) (
	peerID [20]byte, infoHash [20]byte, err error) {
	if err = conn.SetDeadline(time.Now().Add(handshakeTimeout)); err != nil {
		return
	}
	infoHash, peerID, err = readHandshake(conn)
	if err != nil {
		return
	}
	if !hasInfoHash(infoHash) {
		err = errInvalidInfoHash
		return
	}
	if peerID == ourID {
		err = errOwnConnection
		return
	}
	err = writeHandshake(conn, infoHash, ourID)
	if err != nil {
		return
	}
	err = conn.SetDeadline(time.Time{})
	return
}
