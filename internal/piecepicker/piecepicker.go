// Package piecepicker decides which peer downloads each piece.
package piecepicker

import (
	"fmt"

	"github.com/drizzle-bt/drizzle/internal/bitfield"
)

// UnavailableError is returned when no peer has the piece.
type UnavailableError struct {
	Index uint32
}

func (e *UnavailableError) Error() string {
	return fmt.Sprintf("piece #%d is not available from any peer", e.Index)
}

// Picker selects the peer that downloads a piece.
// have[i] is the bitfield of the i'th usable peer.
type Picker interface {
	Pick(index uint32, have []*bitfield.Bitfield) (int, error)
}

// RoundRobin spreads pieces over peers in turn. Piece p is given to peer p mod N,
// or to the next peer in rotation that has the piece.
type RoundRobin struct{}

var _ Picker = RoundRobin{}

// Pick returns the index of the peer that downloads the piece.
func (RoundRobin) Pick(index uint32, have []*bitfield.Bitfield) (int, error) {
	n := len(have)
	if n == 0 {
		return -1, &UnavailableError{Index: index}
	}
	start := int(index % uint32(n))
	misses := 0
	for misses < n {
		i := (start + misses) % n
		if have[i].Test(index) {
			return i, nil
		}
		misses++
	}
	return -1, &UnavailableError{Index: index}
}

// Assign gives every piece to exactly one peer.
// The returned slice holds the piece indexes assigned to each peer in increasing order.
func Assign(numPieces uint32, have []*bitfield.Bitfield, picker Picker) ([][]uint32, error) {
	if picker == nil {
		picker = RoundRobin{}
	}
	assigned := make([][]uint32, len(have))
	for i := uint32(0); i < numPieces; i++ {
		pe, err := picker.Pick(i, have)
		if err != nil {
			return nil, err
		}
		assigned[pe] = append(assigned[pe], i)
	}
	return assigned, nil
}
