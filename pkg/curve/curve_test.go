package curve

import (
	"encoding/hex"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestScalarRoundTrip(t *testing.T) {
	s, err := RandomScalar()
	require.NoError(t, err)

	b := s.ToBytes()
	require.Len(t, b, ScalarSize)

	s2, err := ScalarFromBytes(b)
	require.NoError(t, err)
	require.Equal(t, b, s2.ToBytes())
}

func TestScalarFromBytesRejectsWrongLength(t *testing.T) {
	_, err := ScalarFromBytes(make([]byte, 31))
	require.ErrorIs(t, err, ErrInvalidPoint)
}

func TestG1RoundTrip(t *testing.T) {
	g := G1Generator()
	b := g.ToBytes()
	require.Len(t, b, G1Size)

	g2, err := G1FromBytes(b)
	require.NoError(t, err)
	require.Equal(t, b, g2.ToBytes())
}

func TestG2RoundTrip(t *testing.T) {
	g := G2Generator()
	b := g.ToBytes()
	require.Len(t, b, G2Size)

	g2, err := G2FromBytes(b)
	require.NoError(t, err)
	require.Equal(t, b, g2.ToBytes())
}

func TestG1FromBytesRejectsNonCanonical(t *testing.T) {
	garbage := make([]byte, G1Size)
	for i := range garbage {
		garbage[i] = 0xff
	}
	_, err := G1FromBytes(garbage)
	require.Error(t, err)
}

func TestMulAddConsistency(t *testing.T) {
	a, err := RandomScalar()
	require.NoError(t, err)
	b, err := RandomScalar()
	require.NoError(t, err)

	g1a := MulG1(G1Generator(), a)
	g1b := MulG1(G1Generator(), b)
	sum := AddG1(g1a, g1b)

	aEl := a.Element()
	bEl := b.Element()
	var sumEl = *aEl
	sumEl.Add(&sumEl, bEl)
	expected := MulG1(G1Generator(), ScalarFromElement(&sumEl))

	require.Equal(t, expected.ToBytes(), sum.ToBytes())
}

func TestPairingBilinearity(t *testing.T) {
	a, err := RandomScalar()
	require.NoError(t, err)
	b, err := RandomScalar()
	require.NoError(t, err)

	g1a := MulG1(G1Generator(), a)
	g2b := MulG2(G2Generator(), b)

	lhs, err := Pair(g1a, g2b)
	require.NoError(t, err)

	aEl := a.Element()
	bEl := b.Element()
	var prod = *aEl
	prod.Mul(&prod, bEl)

	rhs, err := Pair(MulG1(G1Generator(), ScalarFromElement(&prod)), G2Generator())
	require.NoError(t, err)

	require.True(t, lhs.Equal(rhs))
}

// TestHashToG1Regression pins the exact hash-to-curve output for a fixed
// identity so a change in DST or curve library is caught immediately.
func TestHashToG1Regression(t *testing.T) {
	const dst = "SUI-SEAL-IBE-BLS12381-00"
	packageID := make([]byte, 32)
	innerID, err := hex.DecodeString("01020304")
	require.NoError(t, err)

	fullID := make([]byte, 0, 1+len(dst)+len(packageID)+len(innerID))
	fullID = append(fullID, byte(len(dst)))
	fullID = append(fullID, dst...)
	fullID = append(fullID, packageID...)
	fullID = append(fullID, innerID...)

	p, err := HashToG1(fullID, []byte(dst))
	require.NoError(t, err)

	want := "b32685b6ffd1f373faf3abb10c05772e033f75da8af729c3611d81aea845670db48ceadd0132d3a667dbbaa36acefac7"
	require.Equal(t, want, hex.EncodeToString(p.ToBytes()))
}
