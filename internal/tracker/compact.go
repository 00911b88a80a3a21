package tracker

import (
	"encoding/binary"
	"fmt"
	"net"
)

// CompactPeerLength is the size of a peer in the compact format: an IPv4 address and a big-endian port.
const CompactPeerLength = 6

// DecodePeersCompact parses a compact peer string into TCP addresses.
func DecodePeersCompact(b []byte) ([]*net.TCPAddr, error) {
	if len(b)%CompactPeerLength != 0 {
		return nil, fmt.Errorf("invalid compact peers length: %d", len(b))
	}
	addrs := make([]*net.TCPAddr, 0, len(b)/CompactPeerLength)
	for ; len(b) > 0; b = b[CompactPeerLength:] {
		ip := make(net.IP, net.IPv4len)
		copy(ip, b[:4])
		addrs = append(addrs, &net.TCPAddr{IP: ip, Port: int(binary.BigEndian.Uint16(b[4:6]))})
	}
	return addrs, nil
}

// EncodePeersCompact is the reverse of DecodePeersCompact.
// Addresses that are not IPv4 are skipped.
func EncodePeersCompact(addrs []*net.TCPAddr) []byte {
	b := make([]byte, 0, len(addrs)*CompactPeerLength)
	for _, addr := range addrs {
		ip := addr.IP.To4()
		if ip == nil {
			continue
		}
		b = append(b, ip...)
		b = binary.BigEndian.AppendUint16(b, uint16(addr.Port))
	}
	return b
}
