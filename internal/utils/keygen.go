package utils

import (
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"strconv"
	"time"
)

// randomHex returns n random bytes hex-encoded (2n characters).
func randomHex(n int) (string, error) {
	b := make([]byte, n)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return hex.EncodeToString(b), nil
}

// NewProductID generates an opaque product identifier: base-36 unix
// milliseconds plus a random hex suffix, so bursts of creations within the
// same millisecond still get distinct ids.
// Format: m1x9k2pq-3fa81c90
func NewProductID() (string, error) {
	suffix, err := randomHex(4)
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("%s-%s", strconv.FormatInt(time.Now().UnixMilli(), 36), suffix), nil
}

// NewAssetName builds a stored file name from a millisecond timestamp plus a
// random component, keeping the (already sanitized) extension. Generated names
// never contain caller-supplied strings, so uploads cannot inject path
// components.
// Format: 1756080000123-3fa81c90.jpg
func NewAssetName(ext string) (string, error) {
	suffix, err := randomHex(4)
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("%d-%s%s", time.Now().UnixMilli(), suffix, ext), nil
}
