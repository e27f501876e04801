package dem

import (
	"encoding/hex"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestAes256GcmRoundTrip(t *testing.T) {
	key, err := GenerateKey()
	require.NoError(t, err)

	plaintext := []byte("the quick brown fox jumps over the lazy dog")
	aad := []byte("context")

	blob, err := Aes256GcmEncrypt(key, plaintext, aad)
	require.NoError(t, err)

	got, err := Aes256GcmDecrypt(key, blob, aad)
	require.NoError(t, err)
	require.Equal(t, plaintext, got)
}

func TestAes256GcmTamperFails(t *testing.T) {
	key, err := GenerateKey()
	require.NoError(t, err)

	blob, err := Aes256GcmEncrypt(key, []byte("hello world"), nil)
	require.NoError(t, err)

	blob[0] ^= 0xff
	_, err = Aes256GcmDecrypt(key, blob, nil)
	require.Error(t, err)
}

func TestHmac256CtrRoundTrip(t *testing.T) {
	key := make([]byte, KeySize)
	for i := range key {
		key[i] = byte(i * 3)
	}
	plaintext := []byte("roundtrip message spanning more than one 32-byte CTR block easily")
	aad := []byte("some aad")

	r, err := Hmac256CtrEncrypt(key, plaintext, aad)
	require.NoError(t, err)

	got, err := Hmac256CtrDecrypt(key, r, aad)
	require.NoError(t, err)
	require.Equal(t, plaintext, got)
}

func TestHmac256CtrSwappedAadFails(t *testing.T) {
	key := make([]byte, KeySize)
	r, err := Hmac256CtrEncrypt(key, []byte("message"), []byte("aad-a"))
	require.NoError(t, err)

	_, err = Hmac256CtrDecrypt(key, r, []byte("aad-b"))
	require.Error(t, err)
}

// TestHmac256CtrRegression pins the exact vector from the design notes.
func TestHmac256CtrRegression(t *testing.T) {
	key, err := hex.DecodeString("5bfdfd7c814903f1311bebacfffa3c001cbeb1cbb3275baa9aafe21fadd9f396")
	require.NoError(t, err)
	require.Len(t, key, KeySize)

	aad := []byte("Mark Twain")
	plaintext := []byte("The difference between a Miracle and a Fact is exactly the difference between a mermaid and a seal.")

	r, err := Hmac256CtrEncrypt(key, plaintext, aad)
	require.NoError(t, err)

	wantBlob, err := hex.DecodeString("b0c4eee6fbd97a2fb86bbd1e0dafa47d2ce5c9e8975a50c2d9eae02ebede8fee6b6434e68584be475b89089fce4c451cbd4c0d6e00dbcae1241abaf237df2eccdd86b890d35e4e8ae9418386012891d8413483d64179ce1d7fe69ad25d546495df54a1")
	require.NoError(t, err)
	wantMac, err := hex.DecodeString("5de3ffdd9d7a258e651ebdba7d80839df2e19ea40cd35b6e1b06375181a0c2f2")
	require.NoError(t, err)
	require.Equal(t, wantBlob, r.Blob)
	require.Equal(t, wantMac, r.Mac)

	got, err := Hmac256CtrDecrypt(key, r, aad)
	require.NoError(t, err)
	require.Equal(t, plaintext, got)
}
