package embed

import (
	"context"
	"math"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestBuildVectorDeterministic(t *testing.T) {
	a := BuildVector("Grafana dashboards for postgres", 128)
	b := BuildVector("Grafana dashboards for postgres", 128)
	require.Equal(t, a, b)
}

func TestBuildVectorCaseAndSpaceInsensitive(t *testing.T) {
	a := BuildVector("  Hello World ", 64)
	b := BuildVector("hello world", 64)
	require.Equal(t, a, b)
}

func TestBuildVectorEmptyContent(t *testing.T) {
	for _, content := range []string{"", "   ", "\n\t"} {
		vector := BuildVector(content, 32)
		require.Len(t, vector, 32)
		for _, v := range vector {
			require.Zero(t, v)
		}
	}
}

func TestBuildVectorNormalized(t *testing.T) {
	vector := BuildVector("some note content with enough text to fill buckets", 256)

	var sum float64
	for _, v := range vector {
		sum += float64(v) * float64(v)
	}
	// rounding to 6 decimals perturbs the magnitude slightly
	require.InDelta(t, 1.0, math.Sqrt(sum), 0.01)
}

func TestBuildVectorDistinctContent(t *testing.T) {
	a := BuildVector("kubernetes operators", 128)
	b := BuildVector("sourdough starters", 128)
	require.NotEqual(t, a, b)
}

func TestLocalEmbedder(t *testing.T) {
	embedder := NewLocal(0)
	require.Equal(t, DefaultDimensions, embedder.Dimensions())

	vector, err := embedder.Embed(context.Background(), "note text")
	require.NoError(t, err)
	require.Len(t, vector, DefaultDimensions)
	require.Equal(t, BuildVector("note text", DefaultDimensions), vector)
}
