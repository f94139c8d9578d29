package store

import (
	"context"
	"database/sql"
)

// Driver is an interface for store driver.
// It contains all methods that store database driver should implement.
type Driver interface {
	GetDB() *sql.DB
	Close() error

	IsInitialized(ctx context.Context) (bool, error)

	// Notebook model related methods.
	CreateNotebook(ctx context.Context, create *Notebook) (*Notebook, error)
	ListNotebooks(ctx context.Context, find *FindNotebook) ([]*Notebook, error)

	// Note model related methods.
	CreateNote(ctx context.Context, create *Note) (*Note, error)
	ListNotes(ctx context.Context, find *FindNote) ([]*Note, error)
	UpdateNote(ctx context.Context, update *UpdateNote) error
	DeleteNote(ctx context.Context, delete *DeleteNote) error

	// NoteEdge model related methods.
	CreateNoteEdge(ctx context.Context, create *NoteEdge) (*NoteEdge, error)
	UpsertNoteEdges(ctx context.Context, creates []*NoteEdge) (int, error)
	ListNoteEdges(ctx context.Context, find *FindNoteEdge) ([]*NoteEdge, error)
	UpdateNoteEdge(ctx context.Context, update *UpdateNoteEdge) (*NoteEdge, error)

	// NoteEmbedding model related methods.
	CreateNoteEmbedding(ctx context.Context, create *NoteEmbedding) (*NoteEmbedding, error)
	ListNoteEmbeddings(ctx context.Context, find *FindNoteEmbedding) ([]*NoteEmbedding, error)
	UpdateNoteEmbedding(ctx context.Context, update *UpdateNoteEmbedding) (*NoteEmbedding, error)
	SearchNoteEmbeddings(ctx context.Context, search *SearchNoteEmbeddings) ([]*NoteSimilarity, error)
}
