package dem

import (
	"crypto/sha256"
	"testing"

	"github.com/stretchr/testify/require"
)

// deriveKey deterministically maps arbitrary bytes into a 32-byte key.
func deriveKey(b []byte) []byte {
	h := sha256.Sum256(b)
	return h[:]
}

func FuzzAes256GcmRoundTrip(f *testing.F) {
	f.Add([]byte("seed"), []byte("hello"), []byte("aad"))
	f.Add([]byte{}, []byte{}, []byte{})
	f.Add([]byte("k"), []byte("a much longer plaintext to exercise multiple GCM blocks"), []byte(""))

	f.Fuzz(func(t *testing.T, keySeed, plaintext, aad []byte) {
		key := deriveKey(keySeed)

		blob, err := Aes256GcmEncrypt(key, plaintext, aad)
		require.NoError(t, err)

		got, err := Aes256GcmDecrypt(key, blob, aad)
		require.NoError(t, err)
		require.Equal(t, plaintext, got)
	})
}

func FuzzHmac256CtrRoundTrip(f *testing.F) {
	f.Add([]byte("seed"), []byte("hello"), []byte("aad"))
	f.Add([]byte{}, []byte{}, []byte{})
	f.Add([]byte("k"), []byte("a much longer plaintext spanning several 32-byte blocks of keystream"), []byte("x"))

	f.Fuzz(func(t *testing.T, keySeed, plaintext, aad []byte) {
		key := deriveKey(keySeed)

		r, err := Hmac256CtrEncrypt(key, plaintext, aad)
		require.NoError(t, err)

		got, err := Hmac256CtrDecrypt(key, r, aad)
		require.NoError(t, err)
		require.Equal(t, plaintext, got)
	})
}
