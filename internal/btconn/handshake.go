package btconn

import (
	"encoding/binary"
	"io"
)

// HandshakeLength is the size of the BitTorrent handshake in bytes.
const HandshakeLength = 68

var pstr = [20]byte{19, 'B', 'i', 't', 'T', 'o', 'r', 'r', 'e', 'n', 't', ' ', 'p', 'r', 'o', 't', 'o', 'c', 'o', 'l'}

type handshake struct {
	Pstr       [20]byte
	Extensions [8]byte
	InfoHash   [20]byte
	PeerID     [20]byte
}

func writeHandshake(w io.Writer, ih [20]byte, id [20]byte) error {
	h := handshake{
		Pstr:     pstr,
		InfoHash: ih,
		PeerID:   id,
	}
	return binary.Write(w, binary.BigEndian, h)
}

// readHandshake reads exactly HandshakeLength bytes and checks the protocol string.
func readHandshake(r io.Reader) (ih [20]byte, id [20]byte, err error) {
	var h handshake
	err = binary.Read(r, binary.BigEndian, &h)
	if err == io.EOF {
		err = io.ErrUnexpectedEOF
	}
	if err != nil {
		return
	}
	if h.Pstr != pstr {
		err = errInvalidProtocol
		return
	}
	return h.InfoHash, h.PeerID, nil
}
