// Package ibe implements the Boneh-Franklin identity-based encryption
// scheme used to wrap per-server shares of the root symmetric key.
package ibe

import (
	"crypto/subtle"
	"encoding/hex"
	"fmt"

	"github.com/mystenlabs/seal-go/pkg/curve"
	"github.com/mystenlabs/seal-go/pkg/kdf"
)

// DST is the domain-separation tag applied to hash-to-curve of the full
// identity bytes.
const DST = "SUI-SEAL-IBE-BLS12381-00"

// CreateFullID builds the canonical identity bytes
// len(dst) || dst || packageId(32) || innerId, and returns its hex
// encoding, per the contract with the on-chain verifier.
func CreateFullID(dst string, packageID, innerID []byte) (string, error) {
	if len(packageID) != 32 {
		return "", fmt.Errorf("ibe: packageId must be 32 bytes, got %d", len(packageID))
	}
	if len(dst) > 255 {
		return "", fmt.Errorf("ibe: dst too long (%d bytes)", len(dst))
	}

	out := make([]byte, 0, 1+len(dst)+len(packageID)+len(innerID))
	out = append(out, byte(len(dst)))
	out = append(out, dst...)
	out = append(out, packageID...)
	out = append(out, innerID...)
	return hex.EncodeToString(out), nil
}

// fullIDBytes decodes a hex full id back to raw bytes for hash-to-curve.
func fullIDBytes(fullIDHex string) ([]byte, error) {
	b, err := hex.DecodeString(fullIDHex)
	if err != nil {
		return nil, fmt.Errorf("ibe: invalid full id hex: %w", err)
	}
	return b, nil
}

// EncapsulatedShare is the per-server entry produced by EncryptBatched.
type EncapsulatedShare struct {
	Ciphertext [32]byte
}

// BatchedCiphertext is the output of EncryptBatched: a single nonce shared
// across all recipients, one masked share per recipient, and the masked
// randomness used to recover the scalar r.
type BatchedCiphertext struct {
	Nonce               *curve.G2
	EncryptedShares     []EncapsulatedShare
	EncryptedRandomness [32]byte
}

// Message is one (share, info) pair to encapsulate to the matching public
// key at the same index.
type Message struct {
	M    [32]byte
	Info []byte
}

// EncryptBatched encapsulates n messages to n public keys under a single
// random scalar r, so the randomness masking and the share masking both
// derive from the same ephemeral value.
func EncryptBatched(publicKeys []*curve.G2, fullIDHex string, messages []Message, randomnessKey [32]byte) (*BatchedCiphertext, error) {
	if len(publicKeys) != len(messages) {
		return nil, fmt.Errorf("ibe: publicKeys count (%d) must match messages count (%d)", len(publicKeys), len(messages))
	}

	idBytes, err := fullIDBytes(fullIDHex)
	if err != nil {
		return nil, err
	}

	r, err := curve.RandomScalar()
	if err != nil {
		return nil, fmt.Errorf("ibe: failed to sample r: %w", err)
	}

	nonce := curve.MulG2(curve.G2Generator(), r)

	idPoint, err := curve.HashToG1(idBytes, []byte(DST))
	if err != nil {
		return nil, fmt.Errorf("ibe: hash-to-curve failed: %w", err)
	}
	gid := curve.MulG1(idPoint, r)

	shares := make([]EncapsulatedShare, len(messages))
	for i, msg := range messages {
		k, err := curve.Pair(gid, publicKeys[i])
		if err != nil {
			return nil, fmt.Errorf("ibe: pairing failed for recipient %d: %w", i, err)
		}
		mask, err := kdf.Derive(k, msg.Info)
		if err != nil {
			return nil, fmt.Errorf("ibe: kdf failed for recipient %d: %w", i, err)
		}
		var out [32]byte
		for j := range out {
			out[j] = msg.M[j] ^ mask[j]
		}
		shares[i] = EncapsulatedShare{Ciphertext: out}
	}

	rBytes := r.ToBytes()
	var encryptedRandomness [32]byte
	for i := range encryptedRandomness {
		encryptedRandomness[i] = randomnessKey[i] ^ rBytes[i]
	}

	return &BatchedCiphertext{
		Nonce:               nonce,
		EncryptedShares:     shares,
		EncryptedRandomness: encryptedRandomness,
	}, nil
}

// Decrypt recovers a 32-byte share given the batch nonce, the caller's
// verified user secret key for this identity, the matching ciphertext
// block, and the per-recipient info used at encryption time.
func Decrypt(nonce *curve.G2, userSecretKey *curve.G1, ciphertext [32]byte, info []byte) ([32]byte, error) {
	k, err := curve.Pair(userSecretKey, nonce)
	if err != nil {
		return [32]byte{}, fmt.Errorf("ibe: pairing failed: %w", err)
	}
	mask, err := kdf.Derive(k, info)
	if err != nil {
		return [32]byte{}, fmt.Errorf("ibe: kdf failed: %w", err)
	}

	var out [32]byte
	for i := range out {
		out[i] = ciphertext[i] ^ mask[i]
	}
	return out, nil
}

// VerifyUserSecretKey checks pairing(usk, g2) == pairing(hash_to_G1(fullId), serverPk)
// in constant time over the GT serialization.
func VerifyUserSecretKey(usk *curve.G1, fullIDHex string, serverPk *curve.G2) (bool, error) {
	idBytes, err := fullIDBytes(fullIDHex)
	if err != nil {
		return false, err
	}

	lhs, err := curve.Pair(usk, curve.G2Generator())
	if err != nil {
		return false, fmt.Errorf("ibe: pairing failed: %w", err)
	}

	idPoint, err := curve.HashToG1(idBytes, []byte(DST))
	if err != nil {
		return false, fmt.Errorf("ibe: hash-to-curve failed: %w", err)
	}
	rhs, err := curve.Pair(idPoint, serverPk)
	if err != nil {
		return false, fmt.Errorf("ibe: pairing failed: %w", err)
	}

	return subtle.ConstantTimeCompare(lhs.ToBytes(), rhs.ToBytes()) == 1, nil
}

// Extract derives the per-identity user secret key from a server's master
// scalar: usk = hash_to_G1(fullId) * masterScalar. Used by test fixtures and
// any master-key-holding collaborator to stand in for a real key server.
func Extract(masterScalar *curve.Scalar, fullIDHex string) (*curve.G1, error) {
	idBytes, err := fullIDBytes(fullIDHex)
	if err != nil {
		return nil, err
	}
	idPoint, err := curve.HashToG1(idBytes, []byte(DST))
	if err != nil {
		return nil, fmt.Errorf("ibe: hash-to-curve failed: %w", err)
	}
	return curve.MulG1(idPoint, masterScalar), nil
}
