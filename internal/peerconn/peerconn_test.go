package peerconn

import (
	"errors"
	"net"
	"testing"
	"time"

	"github.com/drizzle-bt/drizzle/internal/logger"
	"github.com/drizzle-bt/drizzle/internal/peerprotocol"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestConn(t *testing.T) (*Conn, net.Conn) {
	c1, c2 := net.Pipe()
	t.Cleanup(func() {
		c1.Close()
		c2.Close()
	})
	var id [20]byte
	copy(id[:], "-XX0000-abcdefghijkl")
	return New(c1, id, logger.New("peer"), time.Second, time.Second, nil), c2
}

func TestReadBitfieldSkipsKeepAlive(t *testing.T) {
	c, remote := newTestConn(t)
	go func() {
		_ = peerprotocol.WriteKeepAlive(remote)
		_ = peerprotocol.WriteMessage(remote, peerprotocol.BitfieldMessage{Data: []byte{0xa0}})
	}()
	bf, err := c.ReadBitfield(3)
	require.NoError(t, err)
	assert.True(t, bf.Test(0))
	assert.False(t, bf.Test(1))
	assert.True(t, bf.Test(2))
	assert.Equal(t, "2d5858303030302d6162636465666768696a6b6c", c.IDHex())
}

func TestReadBitfieldUnexpectedMessage(t *testing.T) {
	c, remote := newTestConn(t)
	go func() {
		_ = peerprotocol.WriteMessage(remote, peerprotocol.UnchokeMessage{})
	}()
	_, err := c.ReadBitfield(3)
	var uerr *UnexpectedMessageError
	require.True(t, errors.As(err, &uerr))
	assert.Equal(t, peerprotocol.Bitfield, uerr.Want)
	assert.Equal(t, peerprotocol.Unchoke, uerr.Got)
}

func TestReadBitfieldShort(t *testing.T) {
	c, remote := newTestConn(t)
	go func() {
		_ = peerprotocol.WriteMessage(remote, peerprotocol.BitfieldMessage{Data: []byte{0xff}})
	}()
	_, err := c.ReadBitfield(9)
	assert.Error(t, err)
}

func TestUnchoke(t *testing.T) {
	c, remote := newTestConn(t)
	done := make(chan error, 1)
	go func() {
		f, err := peerprotocol.ReadFrame(remote)
		if err != nil {
			done <- err
			return
		}
		if f.ID != peerprotocol.Interested {
			done <- errors.New("expected interested")
			return
		}
		_ = peerprotocol.WriteKeepAlive(remote)
		done <- peerprotocol.WriteMessage(remote, peerprotocol.UnchokeMessage{})
	}()
	require.NoError(t, c.Unchoke())
	require.NoError(t, <-done)
}

func TestUnchokeGotChoke(t *testing.T) {
	c, remote := newTestConn(t)
	go func() {
		_, _ = peerprotocol.ReadFrame(remote)
		_ = peerprotocol.WriteMessage(remote, peerprotocol.ChokeMessage{})
	}()
	err := c.Unchoke()
	var uerr *UnexpectedMessageError
	require.True(t, errors.As(err, &uerr))
	assert.Equal(t, peerprotocol.Choke, uerr.Got)
}

func TestReadTimeout(t *testing.T) {
	c1, c2 := net.Pipe()
	defer c1.Close()
	defer c2.Close()
	c := New(c1, [20]byte{}, logger.New("peer"), 50*time.Millisecond, time.Second, nil)
	_, err := c.ReadFrame()
	var nerr net.Error
	require.True(t, errors.As(err, &nerr))
	assert.True(t, nerr.Timeout())
}
