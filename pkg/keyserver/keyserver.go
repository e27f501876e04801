// Package keyserver describes the independently-operated IBE key issuers a
// SealClient fetches partial keys from, and verifies their proof of
// possession of the published public key.
package keyserver

import (
	"fmt"

	ethcrypto "github.com/ethereum/go-ethereum/crypto"

	"github.com/mystenlabs/seal-go/pkg/curve"
	"github.com/mystenlabs/seal-go/pkg/sealerrors"
)

// KeyType enumerates the IBE schemes a key server may advertise.
type KeyType byte

const (
	KeyTypeBonehFranklinBLS12381 KeyType = 0
)

// DstPop is the domain-separation tag for the proof-of-possession transcript.
const DstPop = "SUI-SEAL-IBE-BLS12381-POP-00"

// KeyServer is the on-ledger record describing one key issuer.
type KeyServer struct {
	ObjectID [32]byte
	Name     string
	URL      string
	KeyType  KeyType
	Pk       *curve.G2
}

// VerifyProofOfPossession checks a server's short G1 signature over
// DST_POP || serverPk(96) || serverObjectId(32) against serverPk.
func VerifyProofOfPossession(serverPk *curve.G2, serverObjectID [32]byte, pop *curve.G1) (bool, error) {
	msg := make([]byte, 0, len(DstPop)+curve.G2Size+32)
	msg = append(msg, DstPop...)
	msg = append(msg, serverPk.ToBytes()...)
	msg = append(msg, serverObjectID[:]...)

	msgPoint, err := curve.HashToG1(msg, []byte(DstPop))
	if err != nil {
		return false, fmt.Errorf("keyserver: hash-to-curve failed: %w", err)
	}

	lhs, err := curve.Pair(pop, curve.G2Generator())
	if err != nil {
		return false, fmt.Errorf("keyserver: pairing failed: %w", err)
	}
	rhs, err := curve.Pair(msgPoint, serverPk)
	if err != nil {
		return false, fmt.Errorf("keyserver: pairing failed: %w", err)
	}
	return lhs.Equal(rhs), nil
}

// Validate checks the server record's structural invariants: keyType must
// be a supported scheme and Pk must be non-zero.
func (k *KeyServer) Validate() error {
	if k.KeyType != KeyTypeBonehFranklinBLS12381 {
		return sealerrors.User(sealerrors.CodeInvalidKeyServer, "keyserver: unsupported keyType %d for server %x", k.KeyType, k.ObjectID)
	}
	if k.Pk == nil || k.Pk.IsZero() {
		return sealerrors.User(sealerrors.CodeInvalidKeyServer, "keyserver: zero public key for server %x", k.ObjectID)
	}
	return nil
}

// addressFromPk derives a stable identifier from a server's public key
// bytes, used by Fingerprint as a human-checkable identifier.
func addressFromPk(pk *curve.G2) string {
	hash := ethcrypto.Keccak256(pk.ToBytes())
	return fmt.Sprintf("%x", hash[:20])
}

// Fingerprint returns a short human-readable identifier for the server,
// derived from its public key.
func (k *KeyServer) Fingerprint() string {
	return addressFromPk(k.Pk)
}
