// Package codec converts binary face-image blobs to and from the
// transfer-safe text form used inside sync snapshots.
package codec

import (
	"encoding/base64"
	"fmt"
)

// ErrDecode reports malformed input text passed to Decode.
var ErrDecode = fmt.Errorf("codec: malformed base64 input")

// Encode converts raw bytes into the transfer-safe text representation.
// It cannot fail: any byte sequence has a valid encoding.
func Encode(data []byte) string {
	return base64.StdEncoding.EncodeToString(data)
}

// Decode converts encoded text back into the original bytes.
// Decode(Encode(b)) == b for all b.
func Decode(text string) ([]byte, error) {
	data, err := base64.StdEncoding.DecodeString(text)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrDecode, err)
	}
	return data, nil
}
