package inventory

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestEncodeGetPresenceUsesFixedWidthLength(t *testing.T) {
	payload := encodeGetPresence([]byte("addr"))
	require.Len(t, payload, 4+4)
	require.Equal(t, byte(4), payload[0])
	require.Equal(t, byte(0), payload[1])
}

func TestEncodeGetKeepAlive(t *testing.T) {
	payload := encodeGetKeepAlive([]byte("ad"), []byte("dev"))
	require.NotEmpty(t, payload)
}

func TestEncodeGetBlockSignature(t *testing.T) {
	payload := encodeGetBlockSignature(42, []byte("addr"))
	require.NotEmpty(t, payload)
}

func TestEncodeGetTransactionHasReservedTrailer(t *testing.T) {
	payload := encodeGetTransaction("abc")
	require.Equal(t, len(payload), 8+1+3) // varint(3) is one byte + 3 chars + 8 reserved
}
