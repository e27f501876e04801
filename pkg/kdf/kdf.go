// Package kdf derives symmetric key material from pairing results and
// derives sub-purpose keys from a base key.
package kdf

import (
	"crypto/hmac"
	"fmt"
	"io"

	"golang.org/x/crypto/hkdf"
	"golang.org/x/crypto/sha3"

	"github.com/mystenlabs/seal-go/pkg/curve"
)

// OutputSize is the fixed length of a derived key.
const OutputSize = 32

// gtCoefficients is the number of equal-size blocks the GT serialization is
// split into before permutation.
const gtCoefficients = 6

// gtPermutation maps input block i to output position π(i): block i of the
// serialized GT element is written into output position permutation[i].
var gtPermutation = [gtCoefficients]int{0, 2, 4, 1, 3, 5}

// Purpose selects which sub-key deriveKey produces from a base key.
type Purpose byte

const (
	PurposeEncryptedRandomness Purpose = 0
	PurposeDEM                 Purpose = 1
)

// Derive computes kdf(x, info): the GT element's canonical bytes, with its
// six equal-size coefficient blocks permuted to match the on-chain
// verifier's layout, fed as HKDF-SHA3-256 IKM with an empty salt.
func Derive(x *curve.GT, info []byte) ([]byte, error) {
	raw := x.ToBytes()
	if len(raw)%gtCoefficients != 0 {
		return nil, fmt.Errorf("kdf: GT encoding length %d not divisible by %d", len(raw), gtCoefficients)
	}
	blockSize := len(raw) / gtCoefficients

	permuted := make([]byte, len(raw))
	for i := 0; i < gtCoefficients; i++ {
		src := raw[i*blockSize : (i+1)*blockSize]
		dstIdx := gtPermutation[i]
		copy(permuted[dstIdx*blockSize:(dstIdx+1)*blockSize], src)
	}

	reader := hkdf.New(sha3.New256, permuted, nil, info)
	out := make([]byte, OutputSize)
	if _, err := io.ReadFull(reader, out); err != nil {
		return nil, fmt.Errorf("kdf: HKDF expand failed: %w", err)
	}
	return out, nil
}

// DeriveKey derives a 32-byte sub-purpose key from baseKey via
// HMAC-SHA3-256(baseKey, [purpose]).
func DeriveKey(purpose Purpose, baseKey []byte) []byte {
	mac := hmac.New(sha3.New256, baseKey)
	mac.Write([]byte{byte(purpose)})
	return mac.Sum(nil)
}
