package graph

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"time"

	apierrors "github.com/hrygo/notegraph/server/internal/errors"
	"github.com/hrygo/notegraph/store"
)

// GenerateCandidates scans all live notes of the owner, scores every
// unordered pair by tag overlap and proposes the top-scoring pairs as
// CANDIDATE edges. Pairs that already have an edge row in any status are
// never re-proposed; a rejected pair stays rejected. Concurrent runs for the
// same owner are collapsed into one.
//
// It returns the owner's full current candidate set, newly inserted rows
// included.
func (s *Service) GenerateCandidates(ctx context.Context, ownerID int32) ([]*store.NoteEdge, error) {
	result, err, _ := s.candidateGroup.Do(fmt.Sprintf("candidates/%d", ownerID), func() (any, error) {
		return s.generateCandidates(ctx, ownerID)
	})
	if err != nil {
		return nil, err
	}
	return result.([]*store.NoteEdge), nil
}

func (s *Service) generateCandidates(ctx context.Context, ownerID int32) ([]*store.NoteEdge, error) {
	notes, err := s.store.ListNotes(ctx, &store.FindNote{CreatorID: &ownerID})
	if err != nil {
		return nil, apierrors.Internal(err, "failed to list notes")
	}

	edgeType := store.EdgeTypeRelated
	existing, err := s.store.ListNoteEdges(ctx, &store.FindNoteEdge{
		OwnerID: &ownerID,
		Type:    &edgeType,
	})
	if err != nil {
		return nil, apierrors.Internal(err, "failed to list note edges")
	}
	seen := make(map[string]bool, len(existing))
	for _, edge := range existing {
		seen[store.PairKey(edge.FromUID, edge.ToUID)] = true
	}

	now := time.Now().Unix()
	drafts := []*store.NoteEdge{}
	for i := 0; i < len(notes); i++ {
		for j := i + 1; j < len(notes); j++ {
			a, b := notes[i], notes[j]
			if seen[store.PairKey(a.UID, b.UID)] {
				continue
			}
			similarity := ScoreTagSets(a.Tags, b.Tags, a.NotebookID == b.NotebookID)
			if similarity.Score < candidateThreshold {
				continue
			}
			from, to := store.CanonicalPair(a.UID, b.UID)
			drafts = append(drafts, &store.NoteEdge{
				FromUID:   from,
				ToUID:     to,
				Type:      store.EdgeTypeRelated,
				Weight:    roundWeight(similarity.Score),
				Status:    store.EdgeStatusCandidate,
				Origin:    store.EdgeOriginAuto,
				Reason:    similarity.Reason(),
				CreatedTs: now,
				UpdatedTs: now,
			})
		}
	}

	// highest weight first; pair key breaks ties so runs are deterministic
	sort.Slice(drafts, func(i, j int) bool {
		if drafts[i].Weight != drafts[j].Weight {
			return drafts[i].Weight > drafts[j].Weight
		}
		return store.PairKey(drafts[i].FromUID, drafts[i].ToUID) < store.PairKey(drafts[j].FromUID, drafts[j].ToUID)
	})
	if len(drafts) > maxCandidatesPerRun {
		drafts = drafts[:maxCandidatesPerRun]
	}

	inserted, err := s.store.UpsertNoteEdges(ctx, drafts)
	if err != nil {
		return nil, apierrors.Internal(err, "failed to upsert candidate edges")
	}
	if inserted > 0 {
		slog.Info("generated candidate edges", "ownerID", ownerID, "proposed", len(drafts), "inserted", inserted)
	}

	return s.ListCandidates(ctx, ownerID)
}

// ListCandidates returns the owner's pending candidate edges ordered by
// weight descending.
func (s *Service) ListCandidates(ctx context.Context, ownerID int32) ([]*store.NoteEdge, error) {
	candidates, err := s.store.ListNoteEdges(ctx, &store.FindNoteEdge{
		OwnerID:  &ownerID,
		Statuses: []store.EdgeStatus{store.EdgeStatusCandidate},
	})
	if err != nil {
		return nil, apierrors.Internal(err, "failed to list candidate edges")
	}
	return candidates, nil
}
