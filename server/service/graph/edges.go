package graph

import (
	"context"
	"time"

	apierrors "github.com/hrygo/notegraph/server/internal/errors"
	"github.com/hrygo/notegraph/store"
)

// ConfirmEdge transitions an edge to CONFIRMED on behalf of the owner. The
// transition is idempotent: confirming an already confirmed edge only
// re-stamps its update time.
func (s *Service) ConfirmEdge(ctx context.Context, ownerID int32, edgeID int32) (*store.NoteEdge, error) {
	return s.transitionEdge(ctx, ownerID, edgeID, store.EdgeStatusConfirmed)
}

// RejectEdge transitions an edge to REJECTED on behalf of the owner. The row
// is kept so candidate generation never re-proposes the pair.
func (s *Service) RejectEdge(ctx context.Context, ownerID int32, edgeID int32) (*store.NoteEdge, error) {
	return s.transitionEdge(ctx, ownerID, edgeID, store.EdgeStatusRejected)
}

func (s *Service) transitionEdge(ctx context.Context, ownerID int32, edgeID int32, status store.EdgeStatus) (*store.NoteEdge, error) {
	edge, err := s.store.GetNoteEdge(ctx, &store.FindNoteEdge{ID: &edgeID})
	if err != nil {
		return nil, apierrors.Internal(err, "failed to get note edge")
	}
	if edge == nil {
		return nil, apierrors.NotFound("edge %d not found", edgeID)
	}
	if err := s.checkEdgeAccess(ctx, ownerID, edge); err != nil {
		return nil, err
	}

	origin := store.EdgeOriginManual
	updated, err := s.store.UpdateNoteEdge(ctx, &store.UpdateNoteEdge{
		ID:        edge.ID,
		Status:    &status,
		Origin:    &origin,
		UpdatedTs: time.Now().Unix(),
	})
	if err != nil {
		return nil, apierrors.Internal(err, "failed to update note edge")
	}
	return updated, nil
}

// checkEdgeAccess resolves both endpoints and enforces ownership. An edge
// whose endpoint was deleted reads as missing; an edge touching another
// owner's note is off-limits.
func (s *Service) checkEdgeAccess(ctx context.Context, ownerID int32, edge *store.NoteEdge) error {
	notes, err := s.store.ListNotes(ctx, &store.FindNote{
		UIDs:           []string{edge.FromUID, edge.ToUID},
		IncludeDeleted: true,
	})
	if err != nil {
		return apierrors.Internal(err, "failed to resolve edge endpoints")
	}

	byUID := make(map[string]*store.Note, len(notes))
	for _, note := range notes {
		byUID[note.UID] = note
	}
	for _, uid := range []string{edge.FromUID, edge.ToUID} {
		note, ok := byUID[uid]
		if !ok || note.Deleted() {
			return apierrors.NotFound("edge %d not found", edge.ID)
		}
		if note.CreatorID != ownerID {
			return apierrors.Forbidden("edge %d belongs to another owner", edge.ID)
		}
	}
	return nil
}

// ListEdgesForNote returns the note's CANDIDATE and CONFIRMED edges, pending
// candidates first, then by weight descending. Rejected edges are excluded.
func (s *Service) ListEdgesForNote(ctx context.Context, ownerID int32, noteUID string) ([]*store.NoteEdge, error) {
	if _, err := s.requireNote(ctx, ownerID, noteUID); err != nil {
		return nil, err
	}

	edges, err := s.store.ListNoteEdges(ctx, &store.FindNoteEdge{
		OwnerID:  &ownerID,
		NoteUID:  &noteUID,
		Statuses: []store.EdgeStatus{store.EdgeStatusCandidate, store.EdgeStatusConfirmed},
	})
	if err != nil {
		return nil, apierrors.Internal(err, "failed to list note edges")
	}
	return edges, nil
}

// CreateEdge manually links two of the owner's notes. Manual edges are born
// CONFIRMED with full weight; a pair that already has an edge in any status
// is a conflict.
func (s *Service) CreateEdge(ctx context.Context, ownerID int32, fromUID, toUID, reason string) (*store.NoteEdge, error) {
	if fromUID == toUID {
		return nil, apierrors.Validation("cannot link a note to itself")
	}
	if _, err := s.requireNote(ctx, ownerID, fromUID); err != nil {
		return nil, err
	}
	if _, err := s.requireNote(ctx, ownerID, toUID); err != nil {
		return nil, err
	}

	from, to := store.CanonicalPair(fromUID, toUID)
	now := time.Now().Unix()
	edge, err := s.store.CreateNoteEdge(ctx, &store.NoteEdge{
		FromUID:   from,
		ToUID:     to,
		Type:      store.EdgeTypeRelated,
		Weight:    1.0,
		Status:    store.EdgeStatusConfirmed,
		Origin:    store.EdgeOriginManual,
		Reason:    reason,
		CreatedTs: now,
		UpdatedTs: now,
	})
	if err != nil {
		if err == store.ErrEdgeExists {
			return nil, apierrors.Conflict("edge between %s and %s already exists", from, to)
		}
		return nil, apierrors.Internal(err, "failed to create note edge")
	}
	return edge, nil
}

// requireNote loads a live note of the owner or fails with NOT_FOUND. A note
// of another owner reads as missing rather than forbidden so note uids are
// not probeable.
func (s *Service) requireNote(ctx context.Context, ownerID int32, noteUID string) (*store.Note, error) {
	note, err := s.store.GetNote(ctx, &store.FindNote{
		UID:       &noteUID,
		CreatorID: &ownerID,
	})
	if err != nil {
		return nil, apierrors.Internal(err, "failed to get note")
	}
	if note == nil {
		return nil, apierrors.NotFound("note %s not found", noteUID)
	}
	return note, nil
}
