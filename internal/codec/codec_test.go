package codec

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEncodeDecodeRoundTrip(t *testing.T) {
	cases := [][]byte{
		[]byte("hello"),
		{0x00, 0xff, 0x10, 0x80},
		{},
		[]byte("\xde\xad\xbe\xef face image bytes"),
	}

	for _, data := range cases {
		decoded, err := Decode(Encode(data))
		require.NoError(t, err)
		assert.Equal(t, data, decoded)
	}
}

func TestDecodeMalformedInput(t *testing.T) {
	for _, input := range []string{"not base64!!!", "====", "ab\ncd\x01"} {
		_, err := Decode(input)
		require.Error(t, err)
		assert.True(t, errors.Is(err, ErrDecode), "expected ErrDecode, got %v", err)
	}
}

func TestDecodeEmptyString(t *testing.T) {
	decoded, err := Decode("")
	require.NoError(t, err)
	assert.Empty(t, decoded)
}
