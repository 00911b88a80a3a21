package httptracker

import (
	"bytes"
	"net"

	"github.com/drizzle-bt/drizzle/internal/tracker"
	"github.com/zeebo/bencode"
)

type announceResponse struct {
	FailureReason  string             `bencode:"failure reason"`
	RetryIn        string             `bencode:"retry in"`
	WarningMessage string             `bencode:"warning message"`
	Interval       int32              `bencode:"interval"`
	MinInterval    int32              `bencode:"min interval"`
	TrackerID      string             `bencode:"tracker id"`
	Complete       int32              `bencode:"complete"`
	Incomplete     int32              `bencode:"incomplete"`
	Peers          bencode.RawMessage `bencode:"peers"`
	ExternalIP     []byte             `bencode:"external ip"`
}

// peers decodes the peer list, which is either a compact string or a list of dictionaries.
// Our own address is removed if the tracker told us what it is.
func (r *announceResponse) peers() ([]*net.TCPAddr, error) {
	if len(r.Peers) == 0 {
		return nil, nil
	}
	var addrs []*net.TCPAddr
	var err error
	if r.Peers[0] == 'l' {
		addrs, err = decodePeersDictionary(r.Peers)
	} else {
		var b []byte
		err = bencode.DecodeBytes(r.Peers, &b)
		if err == nil {
			addrs, err = tracker.DecodePeersCompact(b)
		}
	}
	if err != nil {
		return nil, err
	}
	if len(r.ExternalIP) == 0 {
		return addrs, nil
	}
	filtered := addrs[:0]
	for _, addr := range addrs {
		if bytes.Equal(addr.IP.To4(), r.ExternalIP) || bytes.Equal(addr.IP.To16(), r.ExternalIP) {
			continue
		}
		filtered = append(filtered, addr)
	}
	return filtered, nil
}

func decodePeersDictionary(b bencode.RawMessage) ([]*net.TCPAddr, error) {
	var peers []struct {
		IP   string `bencode:"ip"`
		Port uint16 `bencode:"port"`
	}
	err := bencode.DecodeBytes(b, &peers)
	if err != nil {
		return nil, err
	}
	addrs := make([]*net.TCPAddr, 0, len(peers))
	for _, p := range peers {
		ip := net.ParseIP(p.IP)
		if ip == nil {
			continue
		}
		addrs = append(addrs, &net.TCPAddr{IP: ip, Port: int(p.Port)})
	}
	return addrs, nil
}
