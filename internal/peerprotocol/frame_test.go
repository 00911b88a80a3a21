package peerprotocol

import (
	"bytes"
	"errors"
	"io"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWriteMessage(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteMessage(&buf, InterestedMessage{}))
	assert.Equal(t, []byte{0, 0, 0, 1, 2}, buf.Bytes())

	buf.Reset()
	require.NoError(t, WriteMessage(&buf, RequestMessage{Index: 1, Begin: 16384, Length: 42}))
	assert.Equal(t, []byte{
		0, 0, 0, 13, 6,
		0, 0, 0, 1,
		0, 0, 0x40, 0,
		0, 0, 0, 42,
	}, buf.Bytes())
}

func TestRoundTrip(t *testing.T) {
	cases := []Message{
		InterestedMessage{},
		RequestMessage{Index: 0, Begin: 0, Length: 16384},
		RequestMessage{Index: 0xffffffff, Begin: 0x7fff0000, Length: 1},
		PieceMessage{Index: 3, Begin: 32768, Data: []byte("hello world")},
		PieceMessage{Index: 9, Begin: 0, Data: []byte{}},
	}
	for _, msg := range cases {
		var buf bytes.Buffer
		require.NoError(t, WriteMessage(&buf, msg))
		f, err := ReadFrame(&buf)
		require.NoError(t, err)
		assert.Equal(t, msg.ID(), f.ID)
		assert.False(t, f.KeepAlive())
		assert.Zero(t, buf.Len())

		want, err := msg.MarshalBinary()
		require.NoError(t, err)
		assert.Equal(t, len(want), len(f.Payload))
		assert.True(t, bytes.Equal(want, f.Payload))

		switch m := msg.(type) {
		case RequestMessage:
			got, err := ParseRequest(f.Payload)
			require.NoError(t, err)
			assert.Equal(t, m, got)
		case PieceMessage:
			got, err := ParsePiece(f.Payload)
			require.NoError(t, err)
			assert.Equal(t, m.Index, got.Index)
			assert.Equal(t, m.Begin, got.Begin)
			assert.True(t, bytes.Equal(m.Data, got.Data))
		}
	}
}

func TestReadFrameKeepAlive(t *testing.T) {
	r := bytes.NewReader([]byte{0, 0, 0, 0, 0, 0, 0, 1, 1})
	f, err := ReadFrame(r)
	require.NoError(t, err)
	assert.True(t, f.KeepAlive())
	assert.Equal(t, "keep alive", f.String())

	f, err = ReadFrame(r)
	require.NoError(t, err)
	assert.False(t, f.KeepAlive())
	assert.Equal(t, Unchoke, f.ID)
	assert.Empty(t, f.Payload)
}

func TestReadFrameShort(t *testing.T) {
	cases := [][]byte{
		{},
		{0, 0},
		{0, 0, 0, 5},
		{0, 0, 0, 5, 7, 1, 2},
	}
	for _, b := range cases {
		_, err := ReadFrame(bytes.NewReader(b))
		var ferr *FramingError
		require.True(t, errors.As(err, &ferr), "input: %v", b)
	}

	_, err := ReadFrame(bytes.NewReader([]byte{0, 0, 0, 5, 7, 1}))
	assert.True(t, errors.Is(err, io.ErrUnexpectedEOF))
}

func TestReadFrameTooLarge(t *testing.T) {
	_, err := ReadFrame(bytes.NewReader([]byte{0xff, 0, 0, 0, 7}))
	assert.True(t, errors.Is(err, errFrameTooLarge))
}

func TestParseShortPayload(t *testing.T) {
	_, err := ParsePiece([]byte{0, 0, 0, 1, 0})
	assert.Error(t, err)
	_, err = ParseRequest(make([]byte, 11))
	assert.Error(t, err)
	_, err = ParseHave(make([]byte, 3))
	assert.Error(t, err)
}

func TestMessageIDString(t *testing.T) {
	assert.Equal(t, "bitfield", Bitfield.String())
	assert.Equal(t, "not interested", NotInterested.String())
	assert.Equal(t, "42", MessageID(42).String())
}
