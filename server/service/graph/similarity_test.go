package graph

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestScoreTagSetsIdentical(t *testing.T) {
	result := ScoreTagSets([]string{"go", "db"}, []string{"go", "db"}, false)
	require.Equal(t, 2, result.Intersection)
	require.Equal(t, 2, result.Union)
	require.InDelta(t, 1.0, result.Score, 1e-9)
}

func TestScoreTagSetsPartialOverlap(t *testing.T) {
	result := ScoreTagSets([]string{"go", "db", "web"}, []string{"go", "db"}, false)
	require.Equal(t, 2, result.Intersection)
	require.Equal(t, 3, result.Union)
	require.InDelta(t, 2.0/3.0, result.Score, 1e-9)
}

func TestScoreTagSetsSameNotebookBonus(t *testing.T) {
	without := ScoreTagSets([]string{"go", "db", "web"}, []string{"go", "db"}, false)
	with := ScoreTagSets([]string{"go", "db", "web"}, []string{"go", "db"}, true)
	require.InDelta(t, without.Score+sameNotebookBonus, with.Score, 1e-9)
}

func TestScoreTagSetsBonusCapped(t *testing.T) {
	result := ScoreTagSets([]string{"go"}, []string{"go"}, true)
	require.InDelta(t, 1.0, result.Score, 1e-9)
}

func TestScoreTagSetsEmpty(t *testing.T) {
	// no tags means no signal, the bonus alone never creates a score
	result := ScoreTagSets(nil, nil, true)
	require.Zero(t, result.Score)
	require.Zero(t, result.Union)

	result = ScoreTagSets([]string{}, []string{}, true)
	require.Zero(t, result.Score)
}

func TestScoreTagSetsDisjoint(t *testing.T) {
	result := ScoreTagSets([]string{"go"}, []string{"cooking"}, false)
	require.Zero(t, result.Intersection)
	require.Equal(t, 2, result.Union)
	require.Zero(t, result.Score)
}

func TestScoreTagSetsSymmetric(t *testing.T) {
	a := []string{"go", "db", "web"}
	b := []string{"db", "infra"}
	require.Equal(t, ScoreTagSets(a, b, false).Score, ScoreTagSets(b, a, false).Score)
}

func TestTagSimilarityReason(t *testing.T) {
	result := ScoreTagSets([]string{"go", "db"}, []string{"go", "db", "web"}, true)
	require.Equal(t, "2 shared tags out of 3, same notebook", result.Reason())

	result = ScoreTagSets([]string{"go"}, []string{"go"}, false)
	require.Equal(t, "1 shared tags out of 1", result.Reason())
}

func TestRoundWeight(t *testing.T) {
	require.Equal(t, 0.6667, roundWeight(2.0/3.0))
	require.Equal(t, 0.7667, roundWeight(2.0/3.0+0.1))
}

func TestRoundScore(t *testing.T) {
	require.Equal(t, 0.666667, roundScore(2.0/3.0))
	require.Equal(t, 1.0, roundScore(1.0))
}
