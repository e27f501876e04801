package session

import (
	"crypto/ed25519"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

type fakeVerifier struct {
	ok  bool
	err error
}

func (f *fakeVerifier) VerifyPersonalMessageSignature(message, signature []byte, address string) error {
	if f.ok {
		return nil
	}
	return f.err
}

type fakeSigner struct {
	key ed25519.PrivateKey
}

func (f *fakeSigner) Sign(message []byte) ([]byte, error) {
	return ed25519.Sign(f.key, message), nil
}

func TestNewRejectsBadTTL(t *testing.T) {
	_, err := New(Options{Address: "0xabc", TTLMin: 0})
	require.Error(t, err)

	_, err = New(Options{Address: "0xabc", TTLMin: 11})
	require.Error(t, err)
}

func TestNewRejectsMissingAddress(t *testing.T) {
	_, err := New(Options{TTLMin: 5})
	require.Error(t, err)
}

func TestGetPersonalMessageFormat(t *testing.T) {
	now := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)
	var pkg [32]byte
	pkg[0] = 0xaa

	s, err := New(Options{Address: "0xabc", PackageID: pkg, TTLMin: 5, Now: now})
	require.NoError(t, err)

	msg := string(s.GetPersonalMessage())
	require.Contains(t, msg, "Accessing keys of package")
	require.Contains(t, msg, "for 5 mins from 2026-01-02 03:04:05 UTC, session key ")
}

func TestSetPersonalMessageSignatureAndCertificateIdempotent(t *testing.T) {
	s, err := New(Options{Address: "0xabc", TTLMin: 5, Verifier: &fakeVerifier{ok: true}})
	require.NoError(t, err)

	require.NoError(t, s.SetPersonalMessageSignature([]byte("sig")))

	cert1, err := s.GetCertificate()
	require.NoError(t, err)
	cert2, err := s.GetCertificate()
	require.NoError(t, err)
	require.Equal(t, cert1, cert2)
}

func TestGetCertificateWithInjectedSigner(t *testing.T) {
	_, walletKey, err := ed25519.GenerateKey(nil)
	require.NoError(t, err)

	verifier := &verifierFromKey{pub: walletKey.Public().(ed25519.PublicKey)}
	s, err := New(Options{Address: "0xabc", TTLMin: 5, Signer: &fakeSigner{key: walletKey}, Verifier: verifier})
	require.NoError(t, err)

	cert, err := s.GetCertificate()
	require.NoError(t, err)
	require.NotEmpty(t, cert.Signature)
}

type verifierFromKey struct {
	pub ed25519.PublicKey
}

func (v *verifierFromKey) VerifyPersonalMessageSignature(message, signature []byte, address string) error {
	if ed25519.Verify(v.pub, message, signature) {
		return nil
	}
	return errSigInvalid
}

var errSigInvalid = &sigError{}

type sigError struct{}

func (e *sigError) Error() string { return "invalid signature" }

func TestCreateRequestParamsFailsWhenExpired(t *testing.T) {
	past := time.Now().Add(-time.Hour)
	s, err := New(Options{Address: "0xabc", TTLMin: 1, Now: past})
	require.NoError(t, err)

	_, _, _, err = s.CreateRequestParams([]byte{0x00, 0x01, 0x02})
	require.Error(t, err)
}

func TestCreateRequestParamsSignsOverPtbAndKeys(t *testing.T) {
	s, err := New(Options{Address: "0xabc", TTLMin: 5})
	require.NoError(t, err)

	ptb := []byte{0x00, 0xde, 0xad, 0xbe, 0xef}
	params, egPk, egVk, err := s.CreateRequestParams(ptb)
	require.NoError(t, err)
	require.NotNil(t, egPk)
	require.NotNil(t, egVk)

	msg := append(append([]byte{}, ptb[1:]...), egPk.ToBytes()...)
	msg = append(msg, egVk.ToBytes()...)
	require.True(t, ed25519.Verify(s.VerifyKey(), msg, params.RequestSignature))
}
