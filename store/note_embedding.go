package store

import "context"

// EmbeddingStatus is the processing state of an embedding record.
type EmbeddingStatus string

const (
	EmbeddingStatusPending   EmbeddingStatus = "PENDING"
	EmbeddingStatusSucceeded EmbeddingStatus = "SUCCEEDED"
	EmbeddingStatusFailed    EmbeddingStatus = "FAILED"
)

// NoteEmbedding is one embedding record per (note, chunk index). Chunk index
// is fixed at 0 for now: one chunk per note.
type NoteEmbedding struct {
	ID             int32
	NoteUID        string
	ChunkIndex     int
	SourceContent  string    // the exact text the vector was derived from
	Vector         []float32 // nil until computed
	Status         EmbeddingStatus
	LastError      string
	LastEmbeddedTs *int64
	CreatedTs      int64
	UpdatedTs      int64
}

// FindNoteEmbedding is the find condition for embedding records.
type FindNoteEmbedding struct {
	ID         *int32
	NoteUID    *string
	NoteUIDs   []string
	ChunkIndex *int
	Status     *EmbeddingStatus
}

// UpdateNoteEmbedding is the update payload for an embedding record.
// Nil fields are left unchanged. ClearVector nulls the stored vector;
// a non-nil empty LastError clears the prior error.
type UpdateNoteEmbedding struct {
	ID             int32
	Status         *EmbeddingStatus
	SourceContent  *string
	Vector         []float32
	ClearVector    bool
	LastError      *string
	LastEmbeddedTs *int64
	UpdatedTs      int64
}

// SearchNoteEmbeddings searches for the nearest notes to a source note by
// cosine distance over SUCCEEDED chunk-0 vectors of the same owner. When the
// source note has no SUCCEEDED vector the search returns no rows.
type SearchNoteEmbeddings struct {
	OwnerID       int32
	SourceNoteUID string
	MinScore      float64
	Limit         int
}

// NoteSimilarity is one vector search hit.
type NoteSimilarity struct {
	NoteUID   string
	Score     float64 // [0,1], 1 - cosine distance
	UpdatedTs int64
}

func (s *Store) CreateNoteEmbedding(ctx context.Context, create *NoteEmbedding) (*NoteEmbedding, error) {
	return s.driver.CreateNoteEmbedding(ctx, create)
}

func (s *Store) ListNoteEmbeddings(ctx context.Context, find *FindNoteEmbedding) ([]*NoteEmbedding, error) {
	return s.driver.ListNoteEmbeddings(ctx, find)
}

// GetNoteEmbedding gets the latest matching embedding record, or nil.
func (s *Store) GetNoteEmbedding(ctx context.Context, find *FindNoteEmbedding) (*NoteEmbedding, error) {
	list, err := s.driver.ListNoteEmbeddings(ctx, find)
	if err != nil {
		return nil, err
	}
	if len(list) == 0 {
		return nil, nil
	}
	return list[0], nil
}

func (s *Store) UpdateNoteEmbedding(ctx context.Context, update *UpdateNoteEmbedding) (*NoteEmbedding, error) {
	return s.driver.UpdateNoteEmbedding(ctx, update)
}

func (s *Store) SearchNoteEmbeddings(ctx context.Context, search *SearchNoteEmbeddings) ([]*NoteSimilarity, error) {
	return s.driver.SearchNoteEmbeddings(ctx, search)
}
