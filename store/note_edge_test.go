package store

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestCanonicalPair(t *testing.T) {
	from, to := CanonicalPair("b", "a")
	require.Equal(t, "a", from)
	require.Equal(t, "b", to)

	from, to = CanonicalPair("a", "b")
	require.Equal(t, "a", from)
	require.Equal(t, "b", to)
}

func TestPairKey(t *testing.T) {
	require.Equal(t, PairKey("a", "b"), PairKey("b", "a"))
	require.Equal(t, "a|b", PairKey("b", "a"))
	require.NotEqual(t, PairKey("a", "b"), PairKey("a", "c"))
}
