package store

import (
	"context"

	"github.com/pkg/errors"
)

// EdgeStatus is the lifecycle state of an edge.
type EdgeStatus string

const (
	// EdgeStatusCandidate is an auto-proposed edge awaiting owner action.
	EdgeStatusCandidate EdgeStatus = "CANDIDATE"
	// EdgeStatusConfirmed is an edge the owner accepted. Terminal.
	EdgeStatusConfirmed EdgeStatus = "CONFIRMED"
	// EdgeStatusRejected is an edge the owner dismissed. Terminal; the row is
	// kept so the generator never re-proposes the pair.
	EdgeStatusRejected EdgeStatus = "REJECTED"
)

// EdgeOrigin records how an edge entered its current status.
type EdgeOrigin string

const (
	EdgeOriginAuto   EdgeOrigin = "AUTO"
	EdgeOriginManual EdgeOrigin = "MANUAL"
)

// EdgeTypeRelated is the only relation type in use.
const EdgeTypeRelated = "related"

// ErrEdgeExists is returned by CreateNoteEdge when the unordered pair already
// has an edge row for the relation type.
var ErrEdgeExists = errors.New("edge already exists")

// NoteEdge is an undirected relationship between two notes, stored with
// canonical endpoint ordering (FromUID < ToUID) so each unordered pair has at
// most one row per relation type.
type NoteEdge struct {
	ID        int32
	FromUID   string
	ToUID     string
	Type      string
	Weight    float64 // [0,1]
	Status    EdgeStatus
	Origin    EdgeOrigin
	Reason    string
	CreatedTs int64
	UpdatedTs int64
}

// CanonicalPair orders two note uids lexicographically.
func CanonicalPair(a, b string) (string, string) {
	if a <= b {
		return a, b
	}
	return b, a
}

// PairKey builds the canonical dedup key for an unordered note pair.
func PairKey(a, b string) string {
	from, to := CanonicalPair(a, b)
	return from + "|" + to
}

// FindNoteEdge is the find condition for note edges. OwnerID filters to edges
// whose both endpoints belong to the owner; NoteUID matches either endpoint.
// Results are ordered by status ascending, weight descending, then recency.
type FindNoteEdge struct {
	ID       *int32
	OwnerID  *int32
	NoteUID  *string
	Type     *string
	Statuses []EdgeStatus
}

// UpdateNoteEdge is the update payload for an edge lifecycle transition.
type UpdateNoteEdge struct {
	ID        int32
	Status    *EdgeStatus
	Origin    *EdgeOrigin
	UpdatedTs int64
}

// CreateNoteEdge inserts a single edge. A unique-constraint collision is
// reported as ErrEdgeExists.
func (s *Store) CreateNoteEdge(ctx context.Context, create *NoteEdge) (*NoteEdge, error) {
	return s.driver.CreateNoteEdge(ctx, create)
}

// UpsertNoteEdges bulk-inserts edges in one atomic statement, silently
// skipping rows that violate the pair uniqueness constraint. Returns the
// number of rows actually inserted.
func (s *Store) UpsertNoteEdges(ctx context.Context, creates []*NoteEdge) (int, error) {
	if len(creates) == 0 {
		return 0, nil
	}
	return s.driver.UpsertNoteEdges(ctx, creates)
}

func (s *Store) ListNoteEdges(ctx context.Context, find *FindNoteEdge) ([]*NoteEdge, error) {
	return s.driver.ListNoteEdges(ctx, find)
}

// GetNoteEdge gets a single edge, or nil when no edge matches.
func (s *Store) GetNoteEdge(ctx context.Context, find *FindNoteEdge) (*NoteEdge, error) {
	list, err := s.driver.ListNoteEdges(ctx, find)
	if err != nil {
		return nil, err
	}
	if len(list) == 0 {
		return nil, nil
	}
	return list[0], nil
}

func (s *Store) UpdateNoteEdge(ctx context.Context, update *UpdateNoteEdge) (*NoteEdge, error) {
	return s.driver.UpdateNoteEdge(ctx, update)
}
