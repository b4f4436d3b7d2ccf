package stream

import (
	"bytes"
	"io"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestReadWriter(t *testing.T) {
	var buf bytes.Buffer
	rw := New(&buf)
	require.NoError(t, rw.WritePacket([]byte("HI")))
	require.NoError(t, rw.WritePacket(nil))
	require.Equal(t, []byte{2, 0, 0, 0, 'H', 'I', 0, 0, 0, 0}, buf.Bytes())

	pkt, err := rw.ReadPacket()
	require.NoError(t, err)
	require.Equal(t, []byte("HI"), pkt)
	pkt, err = rw.ReadPacket()
	require.NoError(t, err)
	require.Empty(t, pkt)
	_, err = rw.ReadPacket()
	require.Equal(t, io.EOF, err)
}

func TestReadTruncated(t *testing.T) {
	rw := New(bytes.NewBuffer([]byte{5, 0, 0, 0, 'a'}))
	_, err := rw.ReadPacket()
	require.Equal(t, io.ErrUnexpectedEOF, err)
}

func TestReadTooLarge(t *testing.T) {
	rw := New(bytes.NewBuffer([]byte{0xff, 0xff, 0xff, 0xff}))
	_, err := rw.ReadPacket()
	require.Equal(t, ErrPacketTooLarge, err)
}

func TestClose(t *testing.T) {
	require.NoError(t, New(&bytes.Buffer{}).Close())
}
