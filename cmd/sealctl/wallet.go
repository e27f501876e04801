package main

import (
	"crypto/ed25519"
	"encoding/hex"
	"fmt"

	"github.com/mystenlabs/seal-go/pkg/sealerrors"
)

// walletStandIn signs and verifies personal messages with a local Ed25519
// keypair. Real wallet signing is an out-of-scope external collaborator;
// this lets the CLI demonstrate the full session lifecycle without one.
type walletStandIn struct {
	pub  ed25519.PublicKey
	priv ed25519.PrivateKey
}

func newWalletStandIn(seedHex string) (*walletStandIn, error) {
	seed, err := hex.DecodeString(seedHex)
	if err != nil {
		return nil, err
	}
	if len(seed) != ed25519.SeedSize {
		return nil, fmt.Errorf("wallet seed must be %d bytes, got %d", ed25519.SeedSize, len(seed))
	}
	priv := ed25519.NewKeyFromSeed(seed)
	return &walletStandIn{pub: priv.Public().(ed25519.PublicKey), priv: priv}, nil
}

func (w *walletStandIn) Sign(message []byte) ([]byte, error) {
	return ed25519.Sign(w.priv, message), nil
}

func (w *walletStandIn) VerifyPersonalMessageSignature(message, signature []byte, _ string) error {
	if !ed25519.Verify(w.pub, message, signature) {
		return sealerrors.User(sealerrors.CodeInvalidPersonalMessageSignature, "sealctl: personal message signature does not verify")
	}
	return nil
}
