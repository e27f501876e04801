package threshold

import (
	"crypto/rand"
	"testing"

	"github.com/stretchr/testify/require"
)

func randomSecret(t *testing.T, n int) []byte {
	t.Helper()
	b := make([]byte, n)
	_, err := rand.Read(b)
	require.NoError(t, err)
	return b
}

func TestSplitCombineRoundTrip(t *testing.T) {
	for _, tc := range []struct{ n, t int }{
		{3, 1}, {3, 2}, {3, 3}, {5, 3}, {1, 1},
	} {
		secret := randomSecret(t, 32)
		shares, err := Split(secret, tc.n, tc.t)
		require.NoError(t, err)
		require.Len(t, shares, tc.n)

		recovered, err := Combine(shares, tc.t)
		require.NoError(t, err)
		require.Equal(t, secret, recovered)
	}
}

func TestCombineAnySubset(t *testing.T) {
	secret := randomSecret(t, 32)
	shares, err := Split(secret, 5, 3)
	require.NoError(t, err)

	subsets := [][]int{{0, 1, 2}, {1, 2, 3}, {0, 2, 4}, {2, 3, 4}}
	for _, idxs := range subsets {
		subset := make([]Share, 0, 3)
		for _, i := range idxs {
			subset = append(subset, shares[i])
		}
		recovered, err := Combine(subset, 3)
		require.NoError(t, err)
		require.Equal(t, secret, recovered)
	}
}

func TestThresholdOneDegenerate(t *testing.T) {
	secret := randomSecret(t, 16)
	shares, err := Split(secret, 3, 1)
	require.NoError(t, err)
	require.Len(t, shares, 3)

	for i, s := range shares {
		require.Equal(t, secret, s.Data)
		require.Equal(t, byte(i+1), s.Index)
	}

	recovered, err := Combine(shares[1:2], 1)
	require.NoError(t, err)
	require.Equal(t, secret, recovered)
}

func TestSplitRejectsInvalidThreshold(t *testing.T) {
	_, err := Split([]byte("secret"), 3, 0)
	require.Error(t, err)

	_, err = Split([]byte("secret"), 3, 4)
	require.Error(t, err)
}

func TestCombineInsufficientShares(t *testing.T) {
	secret := randomSecret(t, 32)
	shares, err := Split(secret, 3, 3)
	require.NoError(t, err)

	_, err = Combine(shares[:2], 3)
	require.Error(t, err)
}

func TestCombineWrongSubsetStillRecovers(t *testing.T) {
	// Any t-subset (not just a prefix) must recombine to the same secret.
	secret := randomSecret(t, 8)
	shares, err := Split(secret, 4, 2)
	require.NoError(t, err)

	a, err := Combine([]Share{shares[0], shares[3]}, 2)
	require.NoError(t, err)
	b, err := Combine([]Share{shares[1], shares[2]}, 2)
	require.NoError(t, err)

	require.Equal(t, secret, a)
	require.Equal(t, secret, b)
}
