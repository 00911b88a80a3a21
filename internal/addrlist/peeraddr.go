package addrlist

import (
	"github.com/google/btree"
)

// Source is where a peer address comes from. Lower values are tried first.
type Source int

const (
	// Manual addresses are given by the user.
	Manual Source = iota
	// Tracker addresses are returned from an announce.
	Tracker
)

func (s Source) String() string {
	switch s {
	case Manual:
		return "manual"
	case Tracker:
		return "tracker"
	default:
		return "unknown"
	}
}

type peerAddr struct {
	addr   string
	source Source
	seq    uint64 // order of insertion
}

var _ btree.Item = (*peerAddr)(nil)

func (p *peerAddr) Less(than btree.Item) bool {
	o := than.(*peerAddr)
	if p.source != o.source {
		return p.source < o.source
	}
	return p.seq < o.seq
}
