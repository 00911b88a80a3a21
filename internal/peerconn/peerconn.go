// Package peerconn owns a handshaken connection to a peer and reads and writes peer protocol messages on it.
package peerconn

import (
	"bufio"
	"context"
	"encoding/hex"
	"fmt"
	"io"
	"net"
	"sync"
	"time"

	"github.com/drizzle-bt/drizzle/internal/bitfield"
	"github.com/drizzle-bt/drizzle/internal/logger"
	"github.com/drizzle-bt/drizzle/internal/peerprotocol"
	"github.com/juju/ratelimit"
)

// length + msgid + piece header + block
const readBufferSize = 4 + 1 + 8 + 16*1024

// UnexpectedMessageError is returned when the peer sends a message other than the one required by the protocol state.
type UnexpectedMessageError struct {
	Want peerprotocol.MessageID
	Got  peerprotocol.MessageID
}

func (e *UnexpectedMessageError) Error() string {
	return fmt.Sprintf("expected %q message, got %q", e.Want, e.Got)
}

// Conn is a peer connection after a successful handshake.
// Conn is not safe for concurrent use except Close.
type Conn struct {
	conn         net.Conn
	r            io.Reader
	id           [20]byte
	log          logger.Logger
	readTimeout  time.Duration
	writeTimeout time.Duration
	closeOnce    sync.Once
}

// New returns a new Conn by wrapping a net.Conn.
// If b is not nil, reads from the peer are limited by the bucket.
func New(conn net.Conn, id [20]byte, l logger.Logger, readTimeout, writeTimeout time.Duration, b *ratelimit.Bucket) *Conn {
	var r io.Reader = bufio.NewReaderSize(conn, readBufferSize)
	if b != nil {
		r = ratelimit.Reader(r, b)
	}
	return &Conn{
		conn:         conn,
		r:            r,
		id:           id,
		log:          l,
		readTimeout:  readTimeout,
		writeTimeout: writeTimeout,
	}
}

// ID returns the peer id learned in handshake.
func (p *Conn) ID() [20]byte { return p.id }

// IDHex returns the peer id as a hex string.
func (p *Conn) IDHex() string { return hex.EncodeToString(p.id[:]) }

// Addr returns the address of the peer.
func (p *Conn) Addr() net.Addr { return p.conn.RemoteAddr() }

// String returns the remote address as string.
func (p *Conn) String() string { return p.conn.RemoteAddr().String() }

// Logger for the peer that logs messages prefixed with peer address.
func (p *Conn) Logger() logger.Logger { return p.log }

// Close the underlying net.Conn. Blocked reads and writes return with an error.
func (p *Conn) Close() error {
	var err error
	p.closeOnce.Do(func() { err = p.conn.Close() })
	return err
}

// CloseOnDone closes the connection when ctx is done.
// The returned function must be called to release the watcher goroutine.
func (p *Conn) CloseOnDone(ctx context.Context) (stop func()) {
	done := make(chan struct{})
	go func() {
		select {
		case <-ctx.Done():
			p.Close()
		case <-done:
		}
	}()
	return func() { close(done) }
}

// SendMessage writes a message to the peer.
func (p *Conn) SendMessage(msg peerprotocol.Message) error {
	if p.writeTimeout > 0 {
		if err := p.conn.SetWriteDeadline(time.Now().Add(p.writeTimeout)); err != nil {
			return err
		}
	}
	p.log.Debugf("Sending %s", msg.ID())
	return peerprotocol.WriteMessage(p.conn, msg)
}

// ReadFrame reads the next frame from the peer, including keep-alives.
func (p *Conn) ReadFrame() (peerprotocol.Frame, error) {
	if p.readTimeout > 0 {
		if err := p.conn.SetReadDeadline(time.Now().Add(p.readTimeout)); err != nil {
			return peerprotocol.Frame{}, err
		}
	}
	f, err := peerprotocol.ReadFrame(p.r)
	if err != nil {
		return f, err
	}
	p.log.Debugf("Received %s", f)
	return f, nil
}

// ReadMessage reads frames until a frame that is not a keep-alive arrives.
func (p *Conn) ReadMessage() (peerprotocol.Frame, error) {
	for {
		f, err := p.ReadFrame()
		if err != nil || !f.KeepAlive() {
			return f, err
		}
	}
}

// ReadBitfield reads the first message after the handshake, which must be a bitfield message.
func (p *Conn) ReadBitfield(numPieces uint32) (*bitfield.Bitfield, error) {
	f, err := p.ReadMessage()
	if err != nil {
		return nil, err
	}
	if f.ID != peerprotocol.Bitfield {
		return nil, &UnexpectedMessageError{Want: peerprotocol.Bitfield, Got: f.ID}
	}
	bf, err := bitfield.NewBytes(f.Payload, numPieces)
	if err != nil {
		return nil, err
	}
	p.log.Debugf("Peer has %d of %d pieces", bf.Count(), numPieces)
	return bf, nil
}

// Unchoke tells the peer we are interested and waits for it to unchoke us.
// The message received after interested must be unchoke.
func (p *Conn) Unchoke() error {
	err := p.SendMessage(peerprotocol.InterestedMessage{})
	if err != nil {
		return err
	}
	f, err := p.ReadMessage()
	if err != nil {
		return err
	}
	if f.ID != peerprotocol.Unchoke {
		return &UnexpectedMessageError{Want: peerprotocol.Unchoke, Got: f.ID}
	}
	return nil
}
