// Package curve wraps the BLS12-381 pairing-friendly curve (via gnark-crypto)
// behind the opaque Scalar/G1/G2/GT surface the rest of the module builds on.
package curve

import (
	"crypto/subtle"
	"errors"
	"fmt"

	bls12381 "github.com/consensys/gnark-crypto/ecc/bls12-381"
	"github.com/consensys/gnark-crypto/ecc/bls12-381/fr"
)

// ErrInvalidPoint is returned when a byte encoding is not a canonical,
// in-subgroup point.
var ErrInvalidPoint = errors.New("curve: invalid point encoding")

const (
	// ScalarSize is the canonical byte length of a Scalar.
	ScalarSize = 32
	// G1Size is the canonical compressed byte length of a G1 point.
	G1Size = 48
	// G2Size is the canonical compressed byte length of a G2 point.
	G2Size = 96
	// GTSize is the canonical byte length of a GT element.
	GTSize = 576
)

// Scalar is an element of the scalar field Fr.
type Scalar struct {
	el fr.Element
}

// RandomScalar samples a uniformly random scalar.
func RandomScalar() (*Scalar, error) {
	var s Scalar
	if _, err := s.el.SetRandom(); err != nil {
		return nil, fmt.Errorf("curve: failed to sample random scalar: %w", err)
	}
	return &s, nil
}

// ScalarFromBytes parses a canonical 32-byte big-endian scalar encoding.
func ScalarFromBytes(b []byte) (*Scalar, error) {
	if len(b) != ScalarSize {
		return nil, fmt.Errorf("%w: scalar must be %d bytes, got %d", ErrInvalidPoint, ScalarSize, len(b))
	}
	var s Scalar
	s.el.SetBytes(b)
	return &s, nil
}

// ToBytes serializes the scalar to its canonical 32-byte encoding.
func (s *Scalar) ToBytes() []byte {
	b := s.el.Bytes()
	out := make([]byte, ScalarSize)
	copy(out, b[:])
	return out
}

// Element exposes the underlying gnark-crypto field element for packages
// (threshold, ibe) that need direct field arithmetic.
func (s *Scalar) Element() *fr.Element {
	return &s.el
}

// ScalarFromElement wraps a raw fr.Element as a Scalar.
func ScalarFromElement(e *fr.Element) *Scalar {
	return &Scalar{el: *e}
}

// G1 is a point on the G1 subgroup.
type G1 struct {
	p bls12381.G1Affine
}

// G2 is a point on the G2 subgroup.
type G2 struct {
	p bls12381.G2Affine
}

// GT is an element of the target group.
type GT struct {
	el bls12381.GT
}

// G1Generator returns the canonical G1 generator.
func G1Generator() *G1 {
	_, _, g1, _ := bls12381.Generators()
	return &G1{p: g1}
}

// G2Generator returns the canonical G2 generator.
func G2Generator() *G2 {
	_, _, _, g2 := bls12381.Generators()
	return &G2{p: g2}
}

// G1FromBytes parses a canonical compressed 48-byte G1 encoding, rejecting
// non-canonical or off-subgroup points.
func G1FromBytes(b []byte) (*G1, error) {
	if len(b) != G1Size {
		return nil, fmt.Errorf("%w: G1 must be %d bytes, got %d", ErrInvalidPoint, G1Size, len(b))
	}
	var p bls12381.G1Affine
	if _, err := p.SetBytes(b); err != nil {
		return nil, fmt.Errorf("%w: %s", ErrInvalidPoint, err)
	}
	return &G1{p: p}, nil
}

// ToBytes serializes the G1 point to its canonical 48-byte compressed form.
func (g *G1) ToBytes() []byte {
	b := g.p.Bytes()
	out := make([]byte, G1Size)
	copy(out, b[:])
	return out
}

// G2FromBytes parses a canonical compressed 96-byte G2 encoding.
func G2FromBytes(b []byte) (*G2, error) {
	if len(b) != G2Size {
		return nil, fmt.Errorf("%w: G2 must be %d bytes, got %d", ErrInvalidPoint, G2Size, len(b))
	}
	var p bls12381.G2Affine
	if _, err := p.SetBytes(b); err != nil {
		return nil, fmt.Errorf("%w: %s", ErrInvalidPoint, err)
	}
	return &G2{p: p}, nil
}

// ToBytes serializes the G2 point to its canonical 96-byte compressed form.
func (g *G2) ToBytes() []byte {
	b := g.p.Bytes()
	out := make([]byte, G2Size)
	copy(out, b[:])
	return out
}

// ToBytes serializes the GT element.
func (e *GT) ToBytes() []byte {
	b := e.el.Bytes()
	out := make([]byte, GTSize)
	copy(out, b[:])
	return out
}

// Equal reports whether two GT elements are equal, compared in constant
// time over their canonical byte encodings.
func (e *GT) Equal(other *GT) bool {
	return subtle.ConstantTimeCompare(e.ToBytes(), other.ToBytes()) == 1
}

// IsZero reports whether g is the point at infinity.
func (g *G1) IsZero() bool { return g.p.IsInfinity() }

// IsZero reports whether g is the point at infinity.
func (g *G2) IsZero() bool { return g.p.IsInfinity() }

// Affine exposes the underlying gnark-crypto affine point for pairing calls.
func (g *G1) Affine() *bls12381.G1Affine { return &g.p }

// Affine exposes the underlying gnark-crypto affine point for pairing calls.
func (g *G2) Affine() *bls12381.G2Affine { return &g.p }
