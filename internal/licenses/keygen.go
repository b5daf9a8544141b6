package licenses

import (
	"crypto/rand"
	"strings"
)

const (
	keyPrefix      = "XD"
	keyAlphabet    = "ABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"
	keySegments    = 3
	keySegmentSize = 4
)

// GenerateKey produces a license key of the shape XD-XXXX-XXXX-XXXX, each X an
// upper-case alphanumeric. The generator makes no uniqueness promise; the
// unique constraint on the licenses table is the authority.
func GenerateKey() string {
	var b strings.Builder
	b.Grow(len(keyPrefix) + keySegments*(keySegmentSize+1))
	b.WriteString(keyPrefix)

	raw := make([]byte, keySegments*keySegmentSize)
	if _, err := rand.Read(raw); err != nil {
		// crypto/rand only fails when the OS entropy source is broken;
		// nothing sensible to do but stop.
		panic(err)
	}

	for i, c := range raw {
		if i%keySegmentSize == 0 {
			b.WriteByte('-')
		}
		b.WriteByte(keyAlphabet[int(c)%len(keyAlphabet)])
	}
	return b.String()
}
