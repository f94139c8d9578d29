package graph

import (
	"fmt"
	"math"
)

const (
	// sameNotebookBonus is added to the Jaccard score when both notes live in
	// the same notebook.
	sameNotebookBonus = 0.1
	// candidateThreshold is the minimum (inclusive) score for a pair to become
	// a candidate edge.
	candidateThreshold = 0.7
	// maxCandidatesPerRun caps how many new candidate edges a single
	// generation run may propose.
	maxCandidatesPerRun = 20
)

// TagSimilarity is the outcome of scoring one unordered note pair.
type TagSimilarity struct {
	Score        float64
	Intersection int
	Union        int
	SameNotebook bool
}

// ScoreTagSets computes the Jaccard similarity of two lowercase tag sets plus
// the same-notebook bonus, capped at 1.0. Two notes without any tags score
// zero regardless of the bonus; an empty union carries no signal.
func ScoreTagSets(a, b []string, sameNotebook bool) TagSimilarity {
	union := make(map[string]bool, len(a)+len(b))
	for _, tag := range a {
		union[tag] = true
	}
	setA := make(map[string]bool, len(a))
	for _, tag := range a {
		setA[tag] = true
	}

	intersection := 0
	for _, tag := range b {
		if setA[tag] {
			intersection++
			setA[tag] = false
		}
		union[tag] = true
	}

	result := TagSimilarity{
		Intersection: intersection,
		Union:        len(union),
		SameNotebook: sameNotebook,
	}
	if result.Union == 0 {
		return result
	}

	score := float64(result.Intersection) / float64(result.Union)
	if sameNotebook {
		score += sameNotebookBonus
	}
	result.Score = math.Min(score, 1.0)
	return result
}

// Reason renders the human-readable explanation stored on generated edges.
func (s TagSimilarity) Reason() string {
	reason := fmt.Sprintf("%d shared tags out of %d", s.Intersection, s.Union)
	if s.SameNotebook {
		reason += ", same notebook"
	}
	return reason
}

// roundWeight rounds an edge weight to 4 decimal places.
func roundWeight(weight float64) float64 {
	return math.Round(weight*1e4) / 1e4
}

// roundScore rounds a similarity score to 6 decimal places.
func roundScore(score float64) float64 {
	return math.Round(score*1e6) / 1e6
}
