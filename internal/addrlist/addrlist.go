// Package addrlist keeps a de-duplicated list of peer addresses ordered by source and arrival.
package addrlist

import (
	"net"
	"strconv"

	"github.com/google/btree"
)

// AddrList holds peer addresses in the order they should be connected.
type AddrList struct {
	peerByPriority *btree.BTree
	peerByAddr     map[string]*peerAddr
	seq            uint64
	maxItems       int
}

// New returns an empty AddrList. If maxItems is positive, addresses beyond
// that count are dropped from the end of the list.
func New(maxItems int) *AddrList {
	return &AddrList{
		peerByPriority: btree.New(2),
		peerByAddr:     make(map[string]*peerAddr),
		maxItems:       maxItems,
	}
}

// Len returns the number of addresses in the list.
func (d *AddrList) Len() int {
	return d.peerByPriority.Len()
}

// Push adds addresses in "host:port" form. Invalid addresses and addresses with zero port are ignored.
// An address already in the list keeps its position unless it comes from a better source.
func (d *AddrList) Push(addrs []string, source Source) {
	for _, ad := range addrs {
		_, port, err := net.SplitHostPort(ad)
		if err != nil {
			continue
		}
		if p, err := strconv.ParseUint(port, 10, 16); err != nil || p == 0 {
			continue
		}
		if p, ok := d.peerByAddr[ad]; ok {
			if source >= p.source {
				continue
			}
			d.peerByPriority.Delete(p)
		}
		p := &peerAddr{addr: ad, source: source, seq: d.seq}
		d.seq++
		d.peerByAddr[ad] = p
		d.peerByPriority.ReplaceOrInsert(p)
	}
	for d.maxItems > 0 && d.peerByPriority.Len() > d.maxItems {
		it := d.peerByPriority.DeleteMax()
		delete(d.peerByAddr, it.(*peerAddr).addr)
	}
}

// PushTCP adds resolved addresses.
func (d *AddrList) PushTCP(addrs []*net.TCPAddr, source Source) {
	s := make([]string, len(addrs))
	for i, a := range addrs {
		s[i] = a.String()
	}
	d.Push(s, source)
}

// Pop removes and returns the first address. Returns empty string if the list is empty.
func (d *AddrList) Pop() string {
	it := d.peerByPriority.DeleteMin()
	if it == nil {
		return ""
	}
	p := it.(*peerAddr)
	delete(d.peerByAddr, p.addr)
	return p.addr
}

// List returns all addresses in order without removing them.
func (d *AddrList) List() []string {
	ret := make([]string, 0, d.peerByPriority.Len())
	d.peerByPriority.Ascend(func(i btree.Item) bool {
		ret = append(ret, i.(*peerAddr).addr)
		return true
	})
	return ret
}
