package curve

import (
	"fmt"
	"math/big"

	bls12381 "github.com/consensys/gnark-crypto/ecc/bls12-381"
)

// MulG1 performs scalar multiplication on G1.
func MulG1(p *G1, s *Scalar) *G1 {
	scalarBig := new(big.Int)
	s.el.BigInt(scalarBig)
	var result bls12381.G1Affine
	result.ScalarMultiplication(&p.p, scalarBig)
	return &G1{p: result}
}

// AddG1 adds two G1 points.
func AddG1(a, b *G1) *G1 {
	var result bls12381.G1Affine
	result.Add(&a.p, &b.p)
	return &G1{p: result}
}

// NegG1 negates a G1 point.
func NegG1(p *G1) *G1 {
	var result bls12381.G1Affine
	result.Neg(&p.p)
	return &G1{p: result}
}

// MulG2 performs scalar multiplication on G2.
func MulG2(p *G2, s *Scalar) *G2 {
	scalarBig := new(big.Int)
	s.el.BigInt(scalarBig)
	var result bls12381.G2Affine
	result.ScalarMultiplication(&p.p, scalarBig)
	return &G2{p: result}
}

// AddG2 adds two G2 points.
func AddG2(a, b *G2) *G2 {
	var result bls12381.G2Affine
	result.Add(&a.p, &b.p)
	return &G2{p: result}
}

// HashToG1 hashes a message to a G1 point under the given domain-separation
// tag using the standard BLS12-381 XMD:SHA-256 SSWU hash-to-curve.
func HashToG1(msg, dst []byte) (*G1, error) {
	p, err := bls12381.HashToG1(msg, dst)
	if err != nil {
		return nil, fmt.Errorf("curve: hash to G1 failed: %w", err)
	}
	return &G1{p: p}, nil
}

// Pair computes the bilinear pairing e(a, b) in GT.
func Pair(a *G1, b *G2) (*GT, error) {
	res, err := bls12381.Pair([]bls12381.G1Affine{a.p}, []bls12381.G2Affine{b.p})
	if err != nil {
		return nil, fmt.Errorf("curve: pairing failed: %w", err)
	}
	return &GT{el: res}, nil
}
