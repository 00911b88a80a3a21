package addrlist

import (
	"net"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestAddrList(t *testing.T) {
	al := New(0)

	// Push 1st addr
	al.Push([]string{"1.1.1.1:1"}, Tracker)
	assert.Equal(t, 1, al.Len())

	// Push same addr again
	al.Push([]string{"1.1.1.1:1"}, Tracker)
	assert.Equal(t, 1, al.Len())

	// Push 2nd addr
	al.PushTCP([]*net.TCPAddr{newAddr("2.2.2.2")}, Tracker)
	assert.Equal(t, 2, al.Len())
	assert.Equal(t, []string{"1.1.1.1:1", "2.2.2.2:1"}, al.List())

	// Manual addresses come first
	al.Push([]string{"3.3.3.3:1", "2.2.2.2:1"}, Manual)
	assert.Equal(t, []string{"3.3.3.3:1", "2.2.2.2:1", "1.1.1.1:1"}, al.List())

	// Pop an addr
	assert.Equal(t, "3.3.3.3:1", al.Pop())
	assert.Equal(t, 2, al.Len())
	assert.Equal(t, "2.2.2.2:1", al.Pop())
	assert.Equal(t, "1.1.1.1:1", al.Pop())
	assert.Equal(t, "", al.Pop())
}

func TestAddrListInvalid(t *testing.T) {
	al := New(0)
	al.Push([]string{"1.1.1.1", "1.1.1.1:0", "1.1.1.1:99999", "example.com:6881"}, Manual)
	assert.Equal(t, []string{"example.com:6881"}, al.List())
}

func TestAddrListMaxItems(t *testing.T) {
	al := New(2)
	al.Push([]string{"1.1.1.1:1", "2.2.2.2:1", "3.3.3.3:1"}, Tracker)
	assert.Equal(t, []string{"1.1.1.1:1", "2.2.2.2:1"}, al.List())
	al.Push([]string{"4.4.4.4:1"}, Manual)
	assert.Equal(t, []string{"4.4.4.4:1", "1.1.1.1:1"}, al.List())
}

func newAddr(ip string) *net.TCPAddr {
	return &net.TCPAddr{IP: net.ParseIP(ip), Port: 1}
}
