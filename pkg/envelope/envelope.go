// Package envelope implements the canonical little-endian binary encoding
// of the encrypted object: the on-wire/on-disk compatibility boundary
// between the encryptor and any decryptor.
package envelope

import (
	"bytes"
	"encoding/binary"
	"fmt"

	"github.com/mystenlabs/seal-go/pkg/curve"
	"github.com/mystenlabs/seal-go/pkg/sealerrors"
)

// Version is the only currently-defined wire version.
const Version = 0

// KeyType enumerates supported KEM schemes for the encryptedShares variant.
type KeyType byte

const (
	KeyTypeBonehFranklinBLS12381 KeyType = 0
)

// DemVariant enumerates the supported payload ciphertext encodings.
type DemVariant byte

const (
	DemVariantAes256Gcm  DemVariant = 0
	DemVariantHmac256Ctr DemVariant = 1
	DemVariantPlain      DemVariant = 2
)

// ServiceEntry is one (server object id, share index) pair. Duplicates are
// permitted: a server may hold more than one share.
type ServiceEntry struct {
	ObjectID [32]byte
	Index    byte
}

// EncryptedShares is the BonehFranklinBLS12381 variant body: one share
// block per services entry, in the same order.
type EncryptedShares struct {
	Nonce               *curve.G2
	Shares              [][32]byte
	EncryptedRandomness [32]byte
}

// Ciphertext is the tagged-union payload encoding.
type Ciphertext struct {
	Variant DemVariant
	Blob    []byte
	Mac     [32]byte // only meaningful for Hmac256Ctr
	Aad     []byte   // nil means absent
}

// EncryptedObject is the parsed form of the on-wire envelope.
type EncryptedObject struct {
	Version   byte
	PackageID [32]byte
	ID        []byte
	Services  []ServiceEntry
	Threshold byte
	Shares    EncryptedShares
	Cipher    Ciphertext
}

func writeUint32(buf *bytes.Buffer, v uint32) {
	var b [4]byte
	binary.LittleEndian.PutUint32(b[:], v)
	buf.Write(b[:])
}

func writeBytesWithLen(buf *bytes.Buffer, b []byte) {
	writeUint32(buf, uint32(len(b)))
	buf.Write(b)
}

func writeOptionalBytes(buf *bytes.Buffer, b []byte) {
	if b == nil {
		buf.WriteByte(0)
		return
	}
	buf.WriteByte(1)
	writeBytesWithLen(buf, b)
}

// Serialize encodes the envelope into its canonical binary form. The caller
// is responsible for ensuring o's invariants already hold (matching lengths,
// threshold bounds) — Serialize does not re-validate a constructed value.
func Serialize(o *EncryptedObject) []byte {
	buf := &bytes.Buffer{}
	buf.WriteByte(o.Version)
	buf.Write(o.PackageID[:])
	writeBytesWithLen(buf, o.ID)

	writeUint32(buf, uint32(len(o.Services)))
	for _, s := range o.Services {
		buf.Write(s.ObjectID[:])
		buf.WriteByte(s.Index)
	}

	buf.WriteByte(o.Threshold)

	buf.WriteByte(byte(KeyTypeBonehFranklinBLS12381))
	buf.Write(o.Shares.Nonce.ToBytes())
	writeUint32(buf, uint32(len(o.Shares.Shares)))
	for _, s := range o.Shares.Shares {
		buf.Write(s[:])
	}
	buf.Write(o.Shares.EncryptedRandomness[:])

	buf.WriteByte(byte(o.Cipher.Variant))
	switch o.Cipher.Variant {
	case DemVariantAes256Gcm:
		writeBytesWithLen(buf, o.Cipher.Blob)
		writeOptionalBytes(buf, o.Cipher.Aad)
	case DemVariantHmac256Ctr:
		writeBytesWithLen(buf, o.Cipher.Blob)
		buf.Write(o.Cipher.Mac[:])
		writeOptionalBytes(buf, o.Cipher.Aad)
	case DemVariantPlain:
		// no payload
	}

	return buf.Bytes()
}

type reader struct {
	b   []byte
	pos int
}

func (r *reader) remaining() int { return len(r.b) - r.pos }

func (r *reader) readByte() (byte, error) {
	if r.remaining() < 1 {
		return 0, fmt.Errorf("truncated input")
	}
	v := r.b[r.pos]
	r.pos++
	return v, nil
}

func (r *reader) readN(n int) ([]byte, error) {
	if r.remaining() < n {
		return nil, fmt.Errorf("truncated input: need %d bytes, have %d", n, r.remaining())
	}
	out := r.b[r.pos : r.pos+n]
	r.pos += n
	return out, nil
}

func (r *reader) readUint32() (uint32, error) {
	b, err := r.readN(4)
	if err != nil {
		return 0, err
	}
	return binary.LittleEndian.Uint32(b), nil
}

func (r *reader) readBytesWithLen() ([]byte, error) {
	n, err := r.readUint32()
	if err != nil {
		return nil, err
	}
	return r.readN(int(n))
}

func (r *reader) readOptionalBytes() ([]byte, error) {
	tag, err := r.readByte()
	if err != nil {
		return nil, err
	}
	if tag == 0 {
		return nil, nil
	}
	return r.readBytesWithLen()
}

// Parse decodes the canonical binary envelope, failing with InvalidCiphertext
// on any structural inconsistency: unknown version, truncation, unknown
// discriminator, mismatched array lengths, non-canonical curve bytes, or a
// threshold outside [1, |services|].
func Parse(data []byte) (*EncryptedObject, error) {
	invalid := func(format string, args ...any) error {
		return sealerrors.User(sealerrors.CodeInvalidCiphertext, format, args...)
	}

	r := &reader{b: data}

	version, err := r.readByte()
	if err != nil {
		return nil, invalid("envelope: %s", err)
	}
	if version != Version {
		return nil, invalid("envelope: unsupported version %d", version)
	}

	packageIDBytes, err := r.readN(32)
	if err != nil {
		return nil, invalid("envelope: %s", err)
	}
	var packageID [32]byte
	copy(packageID[:], packageIDBytes)

	id, err := r.readBytesWithLen()
	if err != nil {
		return nil, invalid("envelope: %s", err)
	}

	nServices, err := r.readUint32()
	if err != nil {
		return nil, invalid("envelope: %s", err)
	}
	services := make([]ServiceEntry, nServices)
	for i := range services {
		objIDBytes, err := r.readN(32)
		if err != nil {
			return nil, invalid("envelope: %s", err)
		}
		idx, err := r.readByte()
		if err != nil {
			return nil, invalid("envelope: %s", err)
		}
		var objID [32]byte
		copy(objID[:], objIDBytes)
		services[i] = ServiceEntry{ObjectID: objID, Index: idx}
	}

	threshold, err := r.readByte()
	if err != nil {
		return nil, invalid("envelope: %s", err)
	}
	if threshold == 0 || int(threshold) > len(services) {
		return nil, invalid("envelope: threshold %d out of [1, %d]", threshold, len(services))
	}

	keyType, err := r.readByte()
	if err != nil {
		return nil, invalid("envelope: %s", err)
	}
	if keyType != byte(KeyTypeBonehFranklinBLS12381) {
		return nil, invalid("envelope: unknown key type discriminator %d", keyType)
	}

	nonceBytes, err := r.readN(curve.G2Size)
	if err != nil {
		return nil, invalid("envelope: %s", err)
	}
	nonce, err := curve.G2FromBytes(nonceBytes)
	if err != nil {
		return nil, invalid("envelope: non-canonical nonce: %s", err)
	}

	nShares, err := r.readUint32()
	if err != nil {
		return nil, invalid("envelope: %s", err)
	}
	if int(nShares) != len(services) {
		return nil, invalid("envelope: |services|=%d != |encryptedShares|=%d", len(services), nShares)
	}
	shares := make([][32]byte, nShares)
	for i := range shares {
		b, err := r.readN(32)
		if err != nil {
			return nil, invalid("envelope: %s", err)
		}
		copy(shares[i][:], b)
	}

	randBytes, err := r.readN(32)
	if err != nil {
		return nil, invalid("envelope: %s", err)
	}
	var encRandomness [32]byte
	copy(encRandomness[:], randBytes)

	cipherVariant, err := r.readByte()
	if err != nil {
		return nil, invalid("envelope: %s", err)
	}

	var cipher Ciphertext
	switch DemVariant(cipherVariant) {
	case DemVariantAes256Gcm:
		blob, err := r.readBytesWithLen()
		if err != nil {
			return nil, invalid("envelope: %s", err)
		}
		aad, err := r.readOptionalBytes()
		if err != nil {
			return nil, invalid("envelope: %s", err)
		}
		cipher = Ciphertext{Variant: DemVariantAes256Gcm, Blob: blob, Aad: aad}
	case DemVariantHmac256Ctr:
		blob, err := r.readBytesWithLen()
		if err != nil {
			return nil, invalid("envelope: %s", err)
		}
		macBytes, err := r.readN(32)
		if err != nil {
			return nil, invalid("envelope: %s", err)
		}
		aad, err := r.readOptionalBytes()
		if err != nil {
			return nil, invalid("envelope: %s", err)
		}
		var mac [32]byte
		copy(mac[:], macBytes)
		cipher = Ciphertext{Variant: DemVariantHmac256Ctr, Blob: blob, Mac: mac, Aad: aad}
	case DemVariantPlain:
		cipher = Ciphertext{Variant: DemVariantPlain}
	default:
		return nil, invalid("envelope: unknown ciphertext discriminator %d", cipherVariant)
	}

	if r.remaining() != 0 {
		return nil, invalid("envelope: %d trailing bytes after parse", r.remaining())
	}

	return &EncryptedObject{
		Version:   version,
		PackageID: packageID,
		ID:        id,
		Services:  services,
		Threshold: threshold,
		Shares: EncryptedShares{
			Nonce:               nonce,
			Shares:              shares,
			EncryptedRandomness: encRandomness,
		},
		Cipher: cipher,
	}, nil
}
