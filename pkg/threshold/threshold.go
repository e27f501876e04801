// Package threshold implements Shamir secret sharing over GF(256), applied
// byte-by-byte to the root symmetric key so the on-chain verifier can
// reproduce the same field arithmetic.
package threshold

import (
	"crypto/rand"
	"fmt"
	"io"

	"github.com/mystenlabs/seal-go/pkg/sealerrors"
)

// Share is one (index, bytes) pair produced by Split.
type Share struct {
	Index byte
	Data  []byte
}

var (
	gfExp [512]byte
	gfLog [256]byte
)

func init() {
	x := byte(1)
	for i := 0; i < 255; i++ {
		gfExp[i] = x
		gfLog[x] = byte(i)
		x = gfMulNoTable(x, 3)
	}
	for i := 255; i < 512; i++ {
		gfExp[i] = gfExp[i-255]
	}
}

// gfMulNoTable multiplies two bytes in GF(256) using the AES reduction
// polynomial x^8+x^4+x^3+x+1, without relying on the log tables (used only
// to build them).
func gfMulNoTable(a, b byte) byte {
	var result byte
	for b > 0 {
		if b&1 != 0 {
			result ^= a
		}
		high := a & 0x80
		a <<= 1
		if high != 0 {
			a ^= 0x1b
		}
		b >>= 1
	}
	return result
}

func gfMul(a, b byte) byte {
	if a == 0 || b == 0 {
		return 0
	}
	return gfExp[int(gfLog[a])+int(gfLog[b])]
}

// gfDiv computes a/b in GF(256) via the log/antilog tables: a/b = exp[(log(a)
// - log(b)) mod 255]. Dividing by zero is undefined and never invoked here
// since denominators are differences of distinct nonzero indices.
func gfDiv(a, b byte) byte {
	if a == 0 {
		return 0
	}
	if b == 0 {
		panic("threshold: division by zero in GF(256)")
	}
	logA := int(gfLog[a])
	logB := int(gfLog[b])
	diff := (logA - logB + 255) % 255
	return gfExp[diff]
}

// gfAdd is addition (and subtraction) in GF(256): XOR.
func gfAdd(a, b byte) byte { return a ^ b }

// evalPoly evaluates a GF(256) polynomial (coefficients low-to-high degree,
// one per output byte) at x via Horner's method.
func evalPoly(coeffs [][]byte, x byte, outLen int) []byte {
	out := make([]byte, outLen)
	for k := 0; k < outLen; k++ {
		var v byte
		for i := len(coeffs) - 1; i >= 0; i-- {
			v = gfAdd(gfMul(v, x), coeffs[i][k])
		}
		out[k] = v
	}
	return out
}

// Split divides secret into n shares requiring t to recombine. When t == 1
// every share is an identical copy of the secret with a distinct positional
// index — cryptographically equivalent, since any single share already
// reveals the secret.
func Split(secret []byte, n, t int) ([]Share, error) {
	if t == 0 || t > n {
		return nil, sealerrors.User(sealerrors.CodeInvalidThreshold, "threshold: invalid (t=%d, n=%d)", t, n)
	}
	if n > 255 {
		return nil, sealerrors.User(sealerrors.CodeInvalidThreshold, "threshold: n=%d exceeds 255", n)
	}

	shares := make([]Share, n)
	if t == 1 {
		for i := 0; i < n; i++ {
			cp := make([]byte, len(secret))
			copy(cp, secret)
			shares[i] = Share{Index: byte(i + 1), Data: cp}
		}
		return shares, nil
	}

	coeffs := make([][]byte, t)
	coeffs[0] = secret
	for i := 1; i < t; i++ {
		c := make([]byte, len(secret))
		if _, err := io.ReadFull(rand.Reader, c); err != nil {
			return nil, fmt.Errorf("threshold: failed to sample coefficient: %w", err)
		}
		coeffs[i] = c
	}

	for i := 0; i < n; i++ {
		x := byte(i + 1)
		shares[i] = Share{Index: x, Data: evalPoly(coeffs, x, len(secret))}
	}
	return shares, nil
}

// Combine recovers the secret from any t of the given shares via
// Lagrange interpolation at x = 0, per byte. If t == 1, the first share's
// data is returned directly.
func Combine(shares []Share, t int) ([]byte, error) {
	if len(shares) < t {
		return nil, sealerrors.User(sealerrors.CodeInsufficientShares, "threshold: got %d shares, need %d", len(shares), t)
	}
	shares = shares[:t]

	if t == 1 {
		out := make([]byte, len(shares[0].Data))
		copy(out, shares[0].Data)
		return out, nil
	}

	outLen := len(shares[0].Data)
	for _, s := range shares {
		if len(s.Data) != outLen {
			return nil, sealerrors.User(sealerrors.CodeInvalidCiphertext, "threshold: mismatched share lengths")
		}
	}

	secret := make([]byte, outLen)
	for i, si := range shares {
		// Lagrange basis L_i(0) = product over j != i of (0 - x_j) / (x_i - x_j)
		// In GF(256), 0 - x_j == x_j (subtraction is XOR == addition).
		num := byte(1)
		den := byte(1)
		for j, sj := range shares {
			if i == j {
				continue
			}
			num = gfMul(num, sj.Index)
			den = gfMul(den, gfAdd(si.Index, sj.Index))
		}
		coeff := gfDiv(num, den)

		for k := 0; k < outLen; k++ {
			secret[k] = gfAdd(secret[k], gfMul(si.Data[k], coeff))
		}
	}
	return secret, nil
}
