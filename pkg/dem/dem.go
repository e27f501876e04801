// Package dem implements the data-encapsulation modes used to encrypt the
// payload under the symmetric key recovered from the threshold scheme.
package dem

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/hmac"
	"crypto/rand"
	"encoding/binary"
	"fmt"
	"io"

	"golang.org/x/crypto/sha3"
)

// KeySize is the size of the symmetric key every mode consumes.
const KeySize = 32

// blockSize is the Hmac256Ctr stream block size.
const blockSize = 32

// fixedGcmNonce is the constant IV used for AES-GCM. Safe only because
// every key passed to Encrypt is freshly derived and never reused.
var fixedGcmNonce = []byte{0x8a, 0x37, 0x99, 0xfd, 0xc6, 0x2e, 0x79, 0xdb, 0xa0, 0x80, 0x59, 0x07, 0xd6, 0x9c, 0x94, 0xdc}

// GenerateKey samples a fresh random 32-byte symmetric key.
func GenerateKey() ([]byte, error) {
	k := make([]byte, KeySize)
	if _, err := io.ReadFull(rand.Reader, k); err != nil {
		return nil, fmt.Errorf("dem: failed to sample key: %w", err)
	}
	return k, nil
}

// Aes256GcmEncrypt seals plaintext under key using AES-GCM-256 with the
// fixed-nonce invariant (key is used exactly once).
func Aes256GcmEncrypt(key, plaintext, aad []byte) ([]byte, error) {
	if len(key) != KeySize {
		return nil, fmt.Errorf("dem: AES-GCM key must be %d bytes, got %d", KeySize, len(key))
	}
	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, fmt.Errorf("dem: failed to create AES cipher: %w", err)
	}
	gcm, err := cipher.NewGCMWithNonceSize(block, len(fixedGcmNonce))
	if err != nil {
		return nil, fmt.Errorf("dem: failed to create GCM: %w", err)
	}
	return gcm.Seal(nil, fixedGcmNonce, plaintext, aad), nil
}

// Aes256GcmDecrypt opens a blob produced by Aes256GcmEncrypt, failing on tag
// mismatch.
func Aes256GcmDecrypt(key, blob, aad []byte) ([]byte, error) {
	if len(key) != KeySize {
		return nil, fmt.Errorf("dem: AES-GCM key must be %d bytes, got %d", KeySize, len(key))
	}
	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, fmt.Errorf("dem: failed to create AES cipher: %w", err)
	}
	gcm, err := cipher.NewGCMWithNonceSize(block, len(fixedGcmNonce))
	if err != nil {
		return nil, fmt.Errorf("dem: failed to create GCM: %w", err)
	}
	plaintext, err := gcm.Open(nil, fixedGcmNonce, blob, aad)
	if err != nil {
		return nil, fmt.Errorf("dem: AES-GCM tag verification failed: %w", err)
	}
	return plaintext, nil
}

// Hmac256CtrResult is the output of Hmac256CtrEncrypt: a deterministic
// ciphertext blob plus its authentication tag.
type Hmac256CtrResult struct {
	Blob []byte
	Mac  []byte
}

func hmac256CtrKeys(key []byte) (ek, mk []byte) {
	ekMac := hmac.New(sha3.New256, key)
	ekMac.Write([]byte{1})
	ek = ekMac.Sum(nil)

	mkMac := hmac.New(sha3.New256, key)
	mkMac.Write([]byte{2})
	mk = mkMac.Sum(nil)
	return
}

func hmac256CtrStream(ek []byte, length int) []byte {
	out := make([]byte, 0, length)
	for i := uint64(0); len(out) < length; i++ {
		var idx [8]byte
		binary.LittleEndian.PutUint64(idx[:], i)

		mac := hmac.New(sha3.New256, ek)
		mac.Write(idx[:])
		mask := mac.Sum(nil)

		remaining := length - len(out)
		if remaining > blockSize {
			out = append(out, mask[:blockSize]...)
		} else {
			out = append(out, mask[:remaining]...)
		}
	}
	return out
}

func hmac256CtrMac(mk, aad, ciphertext []byte) []byte {
	var aadLen [8]byte
	binary.LittleEndian.PutUint64(aadLen[:], uint64(len(aad)))

	mac := hmac.New(sha3.New256, mk)
	mac.Write(aadLen[:])
	mac.Write(aad)
	mac.Write(ciphertext)
	return mac.Sum(nil)
}

// Hmac256CtrEncrypt produces a deterministic authenticated ciphertext: a
// CTR-mode keystream XORed with the plaintext, plus a MAC over
// len(aad)||aad||ciphertext.
func Hmac256CtrEncrypt(key, plaintext, aad []byte) (*Hmac256CtrResult, error) {
	if len(key) != KeySize {
		return nil, fmt.Errorf("dem: Hmac256Ctr key must be %d bytes, got %d", KeySize, len(key))
	}
	ek, mk := hmac256CtrKeys(key)

	mask := hmac256CtrStream(ek, len(plaintext))
	blob := make([]byte, len(plaintext))
	for i := range plaintext {
		blob[i] = plaintext[i] ^ mask[i]
	}

	mac := hmac256CtrMac(mk, aad, blob)
	return &Hmac256CtrResult{Blob: blob, Mac: mac}, nil
}

// Hmac256CtrDecrypt verifies the MAC then recovers the plaintext, failing
// with an error if the MAC does not match (e.g. the aad was swapped).
func Hmac256CtrDecrypt(key []byte, r *Hmac256CtrResult, aad []byte) ([]byte, error) {
	if len(key) != KeySize {
		return nil, fmt.Errorf("dem: Hmac256Ctr key must be %d bytes, got %d", KeySize, len(key))
	}
	ek, mk := hmac256CtrKeys(key)

	expectedMac := hmac256CtrMac(mk, aad, r.Blob)
	if !hmac.Equal(expectedMac, r.Mac) {
		return nil, fmt.Errorf("dem: Hmac256Ctr MAC verification failed")
	}

	mask := hmac256CtrStream(ek, len(r.Blob))
	plaintext := make([]byte, len(r.Blob))
	for i := range r.Blob {
		plaintext[i] = r.Blob[i] ^ mask[i]
	}
	return plaintext, nil
}
