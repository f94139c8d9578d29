package store

import "context"

// Note is a text document owned by a user and filed in exactly one notebook.
type Note struct {
	ID         int32
	UID        string
	CreatorID  int32
	NotebookID int32
	Title      string
	Content    string
	Summary    string
	Tags       []string // lowercase-normalized
	CreatedTs  int64
	UpdatedTs  int64
	DeletedTs  *int64 // soft-delete marker; nil means live
}

// Deleted reports whether the note is soft-deleted.
func (n *Note) Deleted() bool {
	return n.DeletedTs != nil
}

// FindNote is the find condition for notes. Deleted notes are excluded
// unless IncludeDeleted is set; edge and embedding audits need the
// deleted rows to stay resolvable.
type FindNote struct {
	ID         *int32
	UID        *string
	UIDs       []string
	CreatorID  *int32
	NotebookID *int32

	IncludeDeleted   bool
	OrderByUpdatedTs bool
	Limit            *int
}

// UpdateNote is the update payload for a note. Nil fields are left unchanged;
// a non-nil Tags slice replaces the tag set.
type UpdateNote struct {
	ID         int32
	NotebookID *int32
	Title      *string
	Content    *string
	Summary    *string
	Tags       []string
	UpdatedTs  int64
}

// DeleteNote soft-deletes a note by stamping deleted_ts.
type DeleteNote struct {
	ID        int32
	DeletedTs int64
}

func (s *Store) CreateNote(ctx context.Context, create *Note) (*Note, error) {
	return s.driver.CreateNote(ctx, create)
}

func (s *Store) ListNotes(ctx context.Context, find *FindNote) ([]*Note, error) {
	return s.driver.ListNotes(ctx, find)
}

// GetNote gets a single note, or nil when no note matches.
func (s *Store) GetNote(ctx context.Context, find *FindNote) (*Note, error) {
	list, err := s.driver.ListNotes(ctx, find)
	if err != nil {
		return nil, err
	}
	if len(list) == 0 {
		return nil, nil
	}
	return list[0], nil
}

func (s *Store) UpdateNote(ctx context.Context, update *UpdateNote) error {
	return s.driver.UpdateNote(ctx, update)
}

func (s *Store) DeleteNote(ctx context.Context, delete *DeleteNote) error {
	return s.driver.DeleteNote(ctx, delete)
}
