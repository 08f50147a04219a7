package frame

import (
	"bytes"
	"io"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type chunkedReader struct {
	chunks [][]byte
}

func (c *chunkedReader) Read(p []byte) (int, error) {
	if len(c.chunks) == 0 {
		return 0, io.EOF
	}
	n := copy(p, c.chunks[0])
	c.chunks[0] = c.chunks[0][n:]
	if len(c.chunks[0]) == 0 {
		c.chunks = c.chunks[1:]
	}
	return n, nil
}

func TestEncodeDecodeRoundTrip(t *testing.T) {
	handle := RequestBit | 7
	payload := []byte("<methodCall><methodName>Foo</methodName><params></params></methodCall>")

	encoded := Encode(handle, payload)

	gotHandle, gotPayload, err := Read(bytes.NewReader(encoded))
	require.NoError(t, err)
	assert.Equal(t, handle, gotHandle)
	assert.Equal(t, payload, gotPayload)
}

func TestReadAccumulatesAcrossPartialReads(t *testing.T) {
	payload := []byte("0123456789")
	full := Encode(42, payload)

	// split the 18-byte frame into three chunks that don't land on the
	// header/payload boundary, exercising the bounded-read accumulation.
	r := &chunkedReader{chunks: [][]byte{full[0:3], full[3:10], full[10:]}}

	handle, got, err := Read(r)
	require.NoError(t, err)
	assert.Equal(t, uint32(42), handle)
	assert.Equal(t, payload, got)
}

func TestReadZeroByteBeforeCompletionIsClosed(t *testing.T) {
	full := Encode(1, []byte("hello"))
	r := bytes.NewReader(full[:5]) // truncate mid-header

	_, _, err := Read(r)
	require.Error(t, err)
	assert.Equal(t, ErrClosed, err)
}

func TestIsRequest(t *testing.T) {
	assert.True(t, IsRequest(RequestBit|1))
	assert.False(t, IsRequest(0x00000001))
}

func TestReadHeaderRoundTrip(t *testing.T) {
	var buf bytes.Buffer
	header := "GBXRemote 2"
	lenBuf := []byte{byte(len(header)), 0, 0, 0}
	buf.Write(lenBuf)
	buf.WriteString(header)

	got, err := ReadHeader(&buf)
	require.NoError(t, err)
	assert.Equal(t, header, got)
}
