package envelope

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/mystenlabs/seal-go/pkg/curve"
)

func sampleObject(t *testing.T, variant DemVariant) *EncryptedObject {
	t.Helper()

	r, err := curve.RandomScalar()
	require.NoError(t, err)
	nonce := curve.MulG2(curve.G2Generator(), r)

	shares := make([][32]byte, 3)
	for i := range shares {
		shares[i][0] = byte(i + 1)
	}

	var packageID, objA, objB, objC, encRand [32]byte
	packageID[0] = 0xaa
	objA[0], objB[0], objC[0] = 1, 2, 3

	o := &EncryptedObject{
		Version:   Version,
		PackageID: packageID,
		ID:        []byte{0x01, 0x02, 0x03, 0x04},
		Services: []ServiceEntry{
			{ObjectID: objA, Index: 1},
			{ObjectID: objB, Index: 2},
			{ObjectID: objC, Index: 3},
		},
		Threshold: 2,
		Shares: EncryptedShares{
			Nonce:               nonce,
			Shares:              shares,
			EncryptedRandomness: encRand,
		},
	}

	switch variant {
	case DemVariantAes256Gcm:
		o.Cipher = Ciphertext{Variant: DemVariantAes256Gcm, Blob: []byte("ciphertext-blob"), Aad: []byte("aad")}
	case DemVariantHmac256Ctr:
		var mac [32]byte
		mac[0] = 0x7
		o.Cipher = Ciphertext{Variant: DemVariantHmac256Ctr, Blob: []byte("ciphertext-blob"), Mac: mac}
	case DemVariantPlain:
		o.Cipher = Ciphertext{Variant: DemVariantPlain}
	}
	return o
}

func TestRoundTripAllVariants(t *testing.T) {
	for _, v := range []DemVariant{DemVariantAes256Gcm, DemVariantHmac256Ctr, DemVariantPlain} {
		o := sampleObject(t, v)
		encoded := Serialize(o)

		parsed, err := Parse(encoded)
		require.NoError(t, err)
		require.Equal(t, o.Version, parsed.Version)
		require.Equal(t, o.PackageID, parsed.PackageID)
		require.Equal(t, o.ID, parsed.ID)
		require.Equal(t, o.Services, parsed.Services)
		require.Equal(t, o.Threshold, parsed.Threshold)
		require.Equal(t, o.Shares.Shares, parsed.Shares.Shares)
		require.Equal(t, o.Shares.EncryptedRandomness, parsed.Shares.EncryptedRandomness)
		require.Equal(t, o.Shares.Nonce.ToBytes(), parsed.Shares.Nonce.ToBytes())
		require.Equal(t, o.Cipher.Variant, parsed.Cipher.Variant)
		require.Equal(t, o.Cipher.Blob, parsed.Cipher.Blob)
		require.Equal(t, o.Cipher.Aad, parsed.Cipher.Aad)

		// Re-serializing the parsed object must reproduce the same bytes.
		require.Equal(t, encoded, Serialize(parsed))
	}
}

func TestParseRejectsUnknownVersion(t *testing.T) {
	o := sampleObject(t, DemVariantPlain)
	encoded := Serialize(o)
	encoded[0] = 1

	_, err := Parse(encoded)
	require.Error(t, err)
}

func TestParseRejectsTruncatedInput(t *testing.T) {
	o := sampleObject(t, DemVariantPlain)
	encoded := Serialize(o)

	_, err := Parse(encoded[:len(encoded)-5])
	require.Error(t, err)
}

func TestParseRejectsMismatchedLengths(t *testing.T) {
	o := sampleObject(t, DemVariantPlain)
	encoded := Serialize(o)

	// Corrupt the encryptedShares count field to no longer match |services|.
	parsed, err := Parse(encoded)
	require.NoError(t, err)
	parsed.Shares.Shares = parsed.Shares.Shares[:2]
	reEncoded := Serialize(parsed)

	_, err = Parse(reEncoded)
	require.Error(t, err)
}

func TestParseRejectsThresholdOutOfRange(t *testing.T) {
	o := sampleObject(t, DemVariantPlain)
	o.Threshold = 0
	_, err := Parse(Serialize(o))
	require.Error(t, err)

	o2 := sampleObject(t, DemVariantPlain)
	o2.Threshold = byte(len(o2.Services) + 1)
	_, err = Parse(Serialize(o2))
	require.Error(t, err)
}

func TestParseRejectsUnknownDiscriminator(t *testing.T) {
	o := sampleObject(t, DemVariantPlain)
	encoded := Serialize(o)
	encoded[len(encoded)-1] = 0xff

	_, err := Parse(encoded)
	require.Error(t, err)
}

func TestParseRejectsNonCanonicalNonce(t *testing.T) {
	o := sampleObject(t, DemVariantPlain)
	encoded := Serialize(o)

	// Locate the nonce field (version(1) + packageId(32) + id len(4)+4
	// bytes of id + services count(4) + 3*(32+1) + threshold(1) + keyType(1))
	offset := 1 + 32 + 4 + len(o.ID) + 4 + len(o.Services)*33 + 1 + 1
	for i := offset; i < offset+curve.G2Size; i++ {
		encoded[i] = 0xff
	}

	_, err := Parse(encoded)
	require.Error(t, err)
}
