package torrent_test

import (
	"net"
	"sync"
	"testing"
	"time"

	"github.com/drizzle-bt/drizzle/internal/bitfield"
	"github.com/drizzle-bt/drizzle/internal/btconn"
	"github.com/drizzle-bt/drizzle/internal/peerprotocol"
	"github.com/drizzle-bt/drizzle/torrent"
)

// fakePeer is a seeder that serves content to a single torrent.
type fakePeer struct {
	meta    *torrent.Metadata
	content []byte
	id      [20]byte

	// have lists the pieces in the bitfield. All pieces if nil.
	have []uint32
	// corrupt flips a byte of the pieces in the map. The value is the number of times
	// the piece is sent corrupted, or -1 for always.
	corrupt map[uint32]int
	// first message after handshake instead of bitfield
	firstMessage peerprotocol.Message
	// reply to interested instead of unchoke
	unchokeMessage peerprotocol.Message
	// do not answer requests
	silent bool

	l     net.Listener
	m     sync.Mutex
	conns []net.Conn
	wg    sync.WaitGroup
}

func (p *fakePeer) start(t *testing.T) *fakePeer {
	l, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatal(err)
	}
	p.l = l
	copy(p.id[:], "-FK0001-fakepeer0000")
	p.wg.Add(1)
	go p.acceptLoop()
	return p
}

func (p *fakePeer) Addr() string {
	return p.l.Addr().String()
}

func (p *fakePeer) Close() {
	p.l.Close()
	p.m.Lock()
	for _, c := range p.conns {
		c.Close()
	}
	p.m.Unlock()
	p.wg.Wait()
}

func (p *fakePeer) acceptLoop() {
	defer p.wg.Done()
	for {
		conn, err := p.l.Accept()
		if err != nil {
			return
		}
		p.m.Lock()
		p.conns = append(p.conns, conn)
		p.m.Unlock()
		p.wg.Add(1)
		go p.handle(conn)
	}
}

func (p *fakePeer) bitfield() []byte {
	bf := bitfield.New(p.meta.NumPieces())
	if p.have == nil {
		for i := uint32(0); i < bf.Len(); i++ {
			bf.Set(i)
		}
	}
	for _, i := range p.have {
		bf.Set(i)
	}
	return bf.Bytes()
}

func (p *fakePeer) handle(conn net.Conn) {
	defer p.wg.Done()
	defer conn.Close()
	_, _, err := btconn.Accept(conn, 5*time.Second, func(ih [20]byte) bool { return ih == p.meta.InfoHash }, p.id)
	if err != nil {
		return
	}
	first := p.firstMessage
	if first == nil {
		first = peerprotocol.BitfieldMessage{Data: p.bitfield()}
	}
	if err = peerprotocol.WriteMessage(conn, first); err != nil {
		return
	}
	for {
		f, err := peerprotocol.ReadFrame(conn)
		if err != nil {
			return
		}
		switch f.ID {
		case peerprotocol.Interested:
			var msg peerprotocol.Message = peerprotocol.UnchokeMessage{}
			if p.unchokeMessage != nil {
				msg = p.unchokeMessage
			}
			_ = peerprotocol.WriteKeepAlive(conn)
			err = peerprotocol.WriteMessage(conn, msg)
		case peerprotocol.Request:
			if p.silent {
				continue
			}
			var req peerprotocol.RequestMessage
			req, err = peerprotocol.ParseRequest(f.Payload)
			if err != nil {
				return
			}
			err = peerprotocol.WriteMessage(conn, p.pieceMessage(req))
		}
		if err != nil {
			return
		}
	}
}

func (p *fakePeer) pieceMessage(req peerprotocol.RequestMessage) peerprotocol.PieceMessage {
	off := int64(req.Index)*int64(p.meta.PieceLength) + int64(req.Begin)
	data := make([]byte, req.Length)
	copy(data, p.content[off:off+int64(req.Length)])
	if req.Begin == 0 {
		p.m.Lock()
		if n, ok := p.corrupt[req.Index]; ok && n != 0 {
			data[0] ^= 0xff
			if n > 0 {
				p.corrupt[req.Index] = n - 1
			}
		}
		p.m.Unlock()
	}
	return peerprotocol.PieceMessage{Index: req.Index, Begin: req.Begin, Data: data}
}
