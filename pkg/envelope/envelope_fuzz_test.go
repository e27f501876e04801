package envelope

import (
	"testing"

	"github.com/mystenlabs/seal-go/pkg/curve"
)

func mustFuzzNonce() *curve.G2 {
	return curve.G2Generator()
}

// FuzzParseNeverPanics exercises the parser against arbitrary byte strings;
// it must return an error for malformed input, never panic.
func FuzzParseNeverPanics(f *testing.F) {
	valid := sampleObjectForFuzz()
	f.Add(Serialize(valid))
	f.Add([]byte{})
	f.Add([]byte{0x00})
	f.Add(make([]byte, 200))

	f.Fuzz(func(t *testing.T, data []byte) {
		_, _ = Parse(data)
	})
}

func sampleObjectForFuzz() *EncryptedObject {
	var packageID, objA, encRand [32]byte
	return &EncryptedObject{
		Version:   Version,
		PackageID: packageID,
		ID:        []byte{1, 2, 3},
		Services: []ServiceEntry{
			{ObjectID: objA, Index: 1},
		},
		Threshold: 1,
		Shares: EncryptedShares{
			Nonce:               mustFuzzNonce(),
			Shares:              [][32]byte{{}},
			EncryptedRandomness: encRand,
		},
		Cipher: Ciphertext{Variant: DemVariantPlain},
	}
}
