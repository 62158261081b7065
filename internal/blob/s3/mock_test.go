package s3

import (
	"bytes"
	"context"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"isacore/internal/blob/core"
)

func TestDecodeChunked(t *testing.T) {
	_, ok := decodeChunked([]byte("not-chunked"))
	assert.False(t, ok)
	_, ok = decodeChunked([]byte("5\r\nabc\r\n0\r\n"))
	assert.False(t, ok)
	b, ok := decodeChunked([]byte("6;chunk-signature=ab\r\nA\r\nB\tC\r\n0\r\nx-amz-checksum-crc32:AAAA\r\n"))
	require.True(t, ok)
	assert.Equal(t, "A\r\nB\tC", string(b))
}

func TestFakeRejectsUnknownMethod(t *testing.T) {
	f := &fakeS3{objects: map[string]fakeObject{}}
	req, err := http.NewRequest(http.MethodPatch, "https://mock.s3.local/bucket/key", nil)
	require.NoError(t, err)
	resp, err := f.RoundTrip(req)
	require.NoError(t, err)
	assert.Equal(t, http.StatusNotImplemented, resp.StatusCode)
}

func TestNewRequiresBucket(t *testing.T) {
	_, err := New(context.Background(), Config{})
	require.Error(t, err)
}

func TestMockListPrefix(t *testing.T) {
	s := NewMock()
	ctx := context.Background()
	for _, k := range []string{"a/1", "a/2", "b/1"} {
		_, err := s.Put(ctx, k, bytes.NewReader([]byte(k)), core.PutOptions{})
		require.NoError(t, err)
	}
	list, err := s.List(ctx, "a/")
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.EqualValues(t, 3, list[1].Size)
}
