package store

import "context"

// Notebook is a named collection of notes.
type Notebook struct {
	ID        int32
	UID       string
	CreatorID int32
	Name      string
	CreatedTs int64
	UpdatedTs int64
}

// FindNotebook is the find condition for notebooks.
type FindNotebook struct {
	ID        *int32
	UID       *string
	CreatorID *int32
}

func (s *Store) CreateNotebook(ctx context.Context, create *Notebook) (*Notebook, error) {
	return s.driver.CreateNotebook(ctx, create)
}

func (s *Store) ListNotebooks(ctx context.Context, find *FindNotebook) ([]*Notebook, error) {
	return s.driver.ListNotebooks(ctx, find)
}

// GetNotebook gets a single notebook, or nil when no notebook matches.
func (s *Store) GetNotebook(ctx context.Context, find *FindNotebook) (*Notebook, error) {
	list, err := s.driver.ListNotebooks(ctx, find)
	if err != nil {
		return nil, err
	}
	if len(list) == 0 {
		return nil, nil
	}
	return list[0], nil
}
