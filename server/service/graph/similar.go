package graph

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	apierrors "github.com/hrygo/notegraph/server/internal/errors"
	"github.com/hrygo/notegraph/store"
)

const (
	defaultSimilarLimit = 5
	maxSimilarLimit     = 20
	defaultMinScore     = 0.5
	similarCacheTTL     = 5 * time.Minute
)

// SimilarNote is one similarity search hit, hydrated with note metadata.
type SimilarNote struct {
	NoteUID    string   `json:"noteUid"`
	Title      string   `json:"title"`
	Summary    string   `json:"summary"`
	Tags       []string `json:"tags"`
	NotebookID int32    `json:"notebookId"`
	UpdatedTs  int64    `json:"updatedTs"`
	Score      float64  `json:"score"`
}

// FindSimilarNotes ranks the owner's other notes by cosine similarity to the
// source note's stored vector. Limit defaults to 5 and may not exceed 20;
// minScore defaults to 0.5 and must stay within [0,1]. A source note without
// a usable vector yields an empty result rather than an error.
//
// Results are cached per (owner, note, limit, minScore) for a few minutes;
// rebuilds and note mutations invalidate the owner's entries.
func (s *Service) FindSimilarNotes(ctx context.Context, ownerID int32, noteUID string, limit int, minScore *float64) ([]*SimilarNote, error) {
	if limit == 0 {
		limit = defaultSimilarLimit
	}
	if limit < 0 || limit > maxSimilarLimit {
		return nil, apierrors.Validation("limit must be between 1 and %d, got %d", maxSimilarLimit, limit)
	}
	threshold := defaultMinScore
	if minScore != nil {
		threshold = *minScore
	}
	if threshold < 0 || threshold > 1 {
		return nil, apierrors.Validation("minScore must be between 0 and 1, got %g", threshold)
	}

	if _, err := s.requireNote(ctx, ownerID, noteUID); err != nil {
		return nil, err
	}

	cacheKey := fmt.Sprintf("similar:%d:%s:%d:%g", ownerID, noteUID, limit, threshold)
	if buf, ok := s.cache.Get(ctx, cacheKey); ok {
		cached := []*SimilarNote{}
		if err := json.Unmarshal(buf, &cached); err == nil {
			return cached, nil
		}
		// unreadable cache entries are dropped and recomputed
		_ = s.cache.Invalidate(ctx, cacheKey)
	}

	hits, err := s.store.SearchNoteEmbeddings(ctx, &store.SearchNoteEmbeddings{
		OwnerID:       ownerID,
		SourceNoteUID: noteUID,
		MinScore:      threshold,
		Limit:         limit,
	})
	if err != nil {
		return nil, apierrors.Internal(err, "failed to search note embeddings")
	}

	results, err := s.hydrateSimilarNotes(ctx, ownerID, hits)
	if err != nil {
		return nil, err
	}

	if buf, err := json.Marshal(results); err == nil {
		if err := s.cache.Set(ctx, cacheKey, buf, similarCacheTTL); err != nil {
			slog.Warn("failed to cache similarity results", "key", cacheKey, "error", err)
		}
	}
	return results, nil
}

// hydrateSimilarNotes joins search hits with note metadata, preserving the
// search order. Hits whose note disappeared between search and hydration are
// dropped.
func (s *Service) hydrateSimilarNotes(ctx context.Context, ownerID int32, hits []*store.NoteSimilarity) ([]*SimilarNote, error) {
	results := []*SimilarNote{}
	if len(hits) == 0 {
		return results, nil
	}

	uids := make([]string, 0, len(hits))
	for _, hit := range hits {
		uids = append(uids, hit.NoteUID)
	}
	notes, err := s.store.ListNotes(ctx, &store.FindNote{
		UIDs:      uids,
		CreatorID: &ownerID,
	})
	if err != nil {
		return nil, apierrors.Internal(err, "failed to list notes")
	}
	byUID := make(map[string]*store.Note, len(notes))
	for _, note := range notes {
		byUID[note.UID] = note
	}

	for _, hit := range hits {
		note, ok := byUID[hit.NoteUID]
		if !ok {
			continue
		}
		results = append(results, &SimilarNote{
			NoteUID:    note.UID,
			Title:      note.Title,
			Summary:    note.Summary,
			Tags:       note.Tags,
			NotebookID: note.NotebookID,
			UpdatedTs:  note.UpdatedTs,
			Score:      roundScore(hit.Score),
		})
	}
	return results, nil
}

// InvalidateSimilarCache drops all cached similarity results for an owner.
// Note create, update and delete paths call this.
func (s *Service) InvalidateSimilarCache(ctx context.Context, ownerID int32) {
	if err := s.cache.Invalidate(ctx, fmt.Sprintf("similar:%d:*", ownerID)); err != nil {
		slog.Warn("failed to invalidate similarity cache", "ownerID", ownerID, "error", err)
	}
}
