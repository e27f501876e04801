// Package session implements the SessionKey lifecycle: ephemeral signing
// keypair issuance, wallet-backed certificate authorization, and per-fetch
// ElGamal-wrapped request parameters.
package session

import (
	"crypto/ed25519"
	"crypto/rand"
	"encoding/base64"
	"fmt"
	"time"

	"github.com/mystenlabs/seal-go/pkg/curve"
	"github.com/mystenlabs/seal-go/pkg/sealerrors"
)

const (
	minTTLMin = 1
	maxTTLMin = 10
	// skewToleranceMs is the grace window subtracted from the nominal
	// expiry when checking whether a session is still usable.
	skewToleranceMs = 10_000
)

// WalletVerifier checks that a signature over a personal message originates
// from address. Implementations talk to whatever ledger network the
// caller's wallet is on; the core never hard-codes an endpoint.
type WalletVerifier interface {
	VerifyPersonalMessageSignature(message, signature []byte, address string) error
}

// Signer produces a wallet signature over a message without a manual
// round-trip, for callers that hold the wallet key directly (tests, CLIs).
type Signer interface {
	Sign(message []byte) ([]byte, error)
}

// Certificate is the structured witness that a wallet authorized the
// session's ephemeral signing key.
type Certificate struct {
	User             string    `json:"user"`
	SessionVerifyKey string    `json:"sessionVerifyKey"` // base64
	CreationTime     time.Time `json:"creationTime"`
	TTLMin           int       `json:"ttlMin"`
	Signature        []byte    `json:"signature"` // base64-encoded by encoding/json
}

// RequestParams carries the per-fetch ElGamal secret and the ephemeral
// key's signature over the request body.
type RequestParams struct {
	DecryptionKey    [32]byte
	RequestSignature []byte
}

// SessionKey is the per-app-session authorization unit: an ephemeral
// Ed25519 keypair bound to a wallet's personal-message signature.
type SessionKey struct {
	address        string
	packageID      [32]byte
	creationTimeMs int64
	ttlMin         int
	verifyKey      ed25519.PublicKey
	signKey        ed25519.PrivateKey
	personalMsgSig []byte
	signer         Signer
	verifier       WalletVerifier
}

// Options configures a new SessionKey.
type Options struct {
	Address   string
	PackageID [32]byte
	TTLMin    int
	Signer    Signer // optional: enables getCertificate() without a manual round-trip
	Verifier  WalletVerifier
	Now       time.Time // for deterministic tests; zero value uses time.Now
}

// New constructs a fresh SessionKey with a newly generated ephemeral
// keypair. Fails with a UserError if address is empty or ttlMin is out of
// [1, 10].
func New(opts Options) (*SessionKey, error) {
	if opts.Address == "" {
		return nil, sealerrors.User(sealerrors.CodeInvalidPackage, "session: address is required")
	}
	if opts.TTLMin < minTTLMin || opts.TTLMin > maxTTLMin {
		return nil, sealerrors.User(sealerrors.CodeInvalidThreshold, "session: ttlMin %d out of [%d,%d]", opts.TTLMin, minTTLMin, maxTTLMin)
	}

	now := opts.Now
	if now.IsZero() {
		now = time.Now()
	}

	vk, sk, err := ed25519.GenerateKey(rand.Reader)
	if err != nil {
		return nil, fmt.Errorf("session: failed to generate ephemeral keypair: %w", err)
	}

	return &SessionKey{
		address:        opts.Address,
		packageID:      opts.PackageID,
		creationTimeMs: now.UnixMilli(),
		ttlMin:         opts.TTLMin,
		verifyKey:      vk,
		signKey:        sk,
		signer:         opts.Signer,
		verifier:       opts.Verifier,
	}, nil
}

// isExpired reports whether now is past creation + ttl, minus the skew
// tolerance.
func (s *SessionKey) isExpired(nowMs int64) bool {
	expiry := s.creationTimeMs + int64(s.ttlMin)*60_000 - skewToleranceMs
	return nowMs > expiry
}

// IsExpired reports whether the session is currently past its allowed
// lifetime.
func (s *SessionKey) IsExpired() bool {
	return s.isExpired(time.Now().UnixMilli())
}

// GetPersonalMessage returns the deterministic UTF-8 bytes wallets sign to
// authorize this session's ephemeral key. The exact text is a wire
// contract; it must not be reworded.
func (s *SessionKey) GetPersonalMessage() []byte {
	creation := time.UnixMilli(s.creationTimeMs).UTC().Format("2006-01-02 15:04:05")
	vkB64 := base64.StdEncoding.EncodeToString(s.verifyKey)
	msg := fmt.Sprintf(
		"Accessing keys of package %x for %d mins from %s UTC, session key %s",
		s.packageID, s.ttlMin, creation, vkB64,
	)
	return []byte(msg)
}

// SetPersonalMessageSignature verifies sig against the session's address
// through the injected WalletVerifier and, on success, stores it.
func (s *SessionKey) SetPersonalMessageSignature(sig []byte) error {
	if s.verifier == nil {
		return sealerrors.User(sealerrors.CodeInvalidPersonalMessageSignature, "session: no wallet verifier configured")
	}
	if err := s.verifier.VerifyPersonalMessageSignature(s.GetPersonalMessage(), sig, s.address); err != nil {
		return sealerrors.UserWrap(sealerrors.CodeInvalidPersonalMessageSignature, err, "session: personal message signature verification failed")
	}
	s.personalMsgSig = sig
	return nil
}

// GetCertificate returns the Certificate witnessing wallet authorization.
// If no signature has been set yet and a Signer was supplied at
// construction, the Signer is invoked with the personal message; otherwise
// this fails. Idempotent once a signature is present.
func (s *SessionKey) GetCertificate() (*Certificate, error) {
	if s.personalMsgSig == nil {
		if s.signer == nil {
			return nil, sealerrors.User(sealerrors.CodeInvalidPersonalMessageSignature, "session: no personal message signature and no signer configured")
		}
		sig, err := s.signer.Sign(s.GetPersonalMessage())
		if err != nil {
			return nil, fmt.Errorf("session: signer failed: %w", err)
		}
		if err := s.SetPersonalMessageSignature(sig); err != nil {
			return nil, err
		}
	}

	return &Certificate{
		User:             s.address,
		SessionVerifyKey: base64.StdEncoding.EncodeToString(s.verifyKey),
		CreationTime:     time.UnixMilli(s.creationTimeMs),
		TTLMin:           s.ttlMin,
		Signature:        s.personalMsgSig,
	}, nil
}

// CreateRequestParams builds the per-fetch ElGamal keypair and signs the
// canonical request message over ptbBytes (its leading intent-tag byte
// stripped) bound to the ephemeral ElGamal public/verification keys.
func (s *SessionKey) CreateRequestParams(ptbBytes []byte) (*RequestParams, *curve.G1, *curve.G2, error) {
	if s.isExpired(time.Now().UnixMilli()) {
		return nil, nil, nil, sealerrors.User(sealerrors.CodeExpiredSessionKey, "session: expired")
	}

	egSk, err := curve.RandomScalar()
	if err != nil {
		return nil, nil, nil, fmt.Errorf("session: failed to sample ElGamal secret: %w", err)
	}
	egPk := curve.MulG1(curve.G1Generator(), egSk)
	egVk := curve.MulG2(curve.G2Generator(), egSk)

	var ptbBody []byte
	if len(ptbBytes) > 0 {
		ptbBody = ptbBytes[1:]
	}

	msg := make([]byte, 0, len(ptbBody)+curve.G1Size+curve.G2Size)
	msg = append(msg, ptbBody...)
	msg = append(msg, egPk.ToBytes()...)
	msg = append(msg, egVk.ToBytes()...)

	sig := ed25519.Sign(s.signKey, msg)

	var egSkBytes [32]byte
	copy(egSkBytes[:], egSk.ToBytes())

	return &RequestParams{DecryptionKey: egSkBytes, RequestSignature: sig}, egPk, egVk, nil
}

// VerifyKey returns the session's ephemeral Ed25519 verify key.
func (s *SessionKey) VerifyKey() ed25519.PublicKey { return s.verifyKey }

// PackageID returns the session's bound package id.
func (s *SessionKey) PackageID() [32]byte { return s.packageID }

// Address returns the session's bound ledger address.
func (s *SessionKey) Address() string { return s.address }
