// Package teststore provides an in-memory store.Driver used by service
// tests. It mirrors the SQL drivers' filter and ordering semantics,
// including the edge pair uniqueness constraint.
package teststore

import (
	"context"
	"database/sql"
	"math"
	"sort"
	"sync"

	"github.com/pkg/errors"

	"github.com/hrygo/notegraph/store"
)

type Driver struct {
	mu sync.Mutex

	nextNotebookID  int32
	nextNoteID      int32
	nextEdgeID      int32
	nextEmbeddingID int32

	notebooks  []*store.Notebook
	notes      []*store.Note
	edges      []*store.NoteEdge
	embeddings []*store.NoteEmbedding
}

// New creates an empty in-memory driver.
func New() *Driver {
	return &Driver{}
}

func (d *Driver) GetDB() *sql.DB { return nil }
func (d *Driver) Close() error   { return nil }

func (d *Driver) IsInitialized(context.Context) (bool, error) { return true, nil }

func (d *Driver) CreateNotebook(_ context.Context, create *store.Notebook) (*store.Notebook, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	d.nextNotebookID++
	create.ID = d.nextNotebookID
	copied := *create
	d.notebooks = append(d.notebooks, &copied)
	return create, nil
}

func (d *Driver) ListNotebooks(_ context.Context, find *store.FindNotebook) ([]*store.Notebook, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	list := []*store.Notebook{}
	for _, notebook := range d.notebooks {
		if find.ID != nil && notebook.ID != *find.ID {
			continue
		}
		if find.UID != nil && notebook.UID != *find.UID {
			continue
		}
		if find.CreatorID != nil && notebook.CreatorID != *find.CreatorID {
			continue
		}
		copied := *notebook
		list = append(list, &copied)
	}
	return list, nil
}

func (d *Driver) CreateNote(_ context.Context, create *store.Note) (*store.Note, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	d.nextNoteID++
	create.ID = d.nextNoteID
	copied := *create
	d.notes = append(d.notes, &copied)
	return create, nil
}

func (d *Driver) ListNotes(_ context.Context, find *store.FindNote) ([]*store.Note, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	uidSet := toSet(find.UIDs)
	list := []*store.Note{}
	for _, note := range d.notes {
		if find.ID != nil && note.ID != *find.ID {
			continue
		}
		if find.UID != nil && note.UID != *find.UID {
			continue
		}
		if uidSet != nil && !uidSet[note.UID] {
			continue
		}
		if find.CreatorID != nil && note.CreatorID != *find.CreatorID {
			continue
		}
		if find.NotebookID != nil && note.NotebookID != *find.NotebookID {
			continue
		}
		if !find.IncludeDeleted && note.Deleted() {
			continue
		}
		copied := *note
		list = append(list, &copied)
	}

	if find.OrderByUpdatedTs {
		sort.Slice(list, func(i, j int) bool {
			if list[i].UpdatedTs != list[j].UpdatedTs {
				return list[i].UpdatedTs > list[j].UpdatedTs
			}
			return list[i].ID > list[j].ID
		})
	} else {
		sort.Slice(list, func(i, j int) bool { return list[i].ID < list[j].ID })
	}
	if find.Limit != nil && len(list) > *find.Limit {
		list = list[:*find.Limit]
	}
	return list, nil
}

func (d *Driver) UpdateNote(_ context.Context, update *store.UpdateNote) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	for _, note := range d.notes {
		if note.ID != update.ID {
			continue
		}
		if update.NotebookID != nil {
			note.NotebookID = *update.NotebookID
		}
		if update.Title != nil {
			note.Title = *update.Title
		}
		if update.Content != nil {
			note.Content = *update.Content
		}
		if update.Summary != nil {
			note.Summary = *update.Summary
		}
		if update.Tags != nil {
			note.Tags = update.Tags
		}
		note.UpdatedTs = update.UpdatedTs
		return nil
	}
	return errors.Errorf("note %d not found", update.ID)
}

func (d *Driver) DeleteNote(_ context.Context, delete *store.DeleteNote) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	for _, note := range d.notes {
		if note.ID == delete.ID && !note.Deleted() {
			ts := delete.DeletedTs
			note.DeletedTs = &ts
		}
	}
	return nil
}

func (d *Driver) CreateNoteEdge(_ context.Context, create *store.NoteEdge) (*store.NoteEdge, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.pairExists(create) {
		return nil, store.ErrEdgeExists
	}
	d.nextEdgeID++
	create.ID = d.nextEdgeID
	copied := *create
	d.edges = append(d.edges, &copied)
	return create, nil
}

func (d *Driver) UpsertNoteEdges(_ context.Context, creates []*store.NoteEdge) (int, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	inserted := 0
	for _, create := range creates {
		if d.pairExists(create) {
			continue
		}
		d.nextEdgeID++
		create.ID = d.nextEdgeID
		copied := *create
		d.edges = append(d.edges, &copied)
		inserted++
	}
	return inserted, nil
}

// pairExists must be called with the lock held.
func (d *Driver) pairExists(create *store.NoteEdge) bool {
	for _, edge := range d.edges {
		if edge.Type == create.Type && edge.FromUID == create.FromUID && edge.ToUID == create.ToUID {
			return true
		}
	}
	return false
}

func (d *Driver) ListNoteEdges(_ context.Context, find *store.FindNoteEdge) ([]*store.NoteEdge, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	statusSet := map[store.EdgeStatus]bool{}
	for _, status := range find.Statuses {
		statusSet[status] = true
	}

	list := []*store.NoteEdge{}
	for _, edge := range d.edges {
		if find.ID != nil && edge.ID != *find.ID {
			continue
		}
		if find.Type != nil && edge.Type != *find.Type {
			continue
		}
		if find.NoteUID != nil && edge.FromUID != *find.NoteUID && edge.ToUID != *find.NoteUID {
			continue
		}
		if find.OwnerID != nil && !d.edgeOwnedBy(edge, *find.OwnerID) {
			continue
		}
		if len(statusSet) > 0 && !statusSet[edge.Status] {
			continue
		}
		copied := *edge
		list = append(list, &copied)
	}

	sort.Slice(list, func(i, j int) bool {
		if list[i].Status != list[j].Status {
			return list[i].Status < list[j].Status
		}
		if list[i].Weight != list[j].Weight {
			return list[i].Weight > list[j].Weight
		}
		if list[i].UpdatedTs != list[j].UpdatedTs {
			return list[i].UpdatedTs > list[j].UpdatedTs
		}
		return list[i].ID > list[j].ID
	})
	return list, nil
}

// edgeOwnedBy must be called with the lock held. Both endpoints have to
// resolve to notes of the owner, mirroring the SQL join.
func (d *Driver) edgeOwnedBy(edge *store.NoteEdge, ownerID int32) bool {
	return d.noteCreator(edge.FromUID) == ownerID && d.noteCreator(edge.ToUID) == ownerID
}

func (d *Driver) noteCreator(uid string) int32 {
	for _, note := range d.notes {
		if note.UID == uid {
			return note.CreatorID
		}
	}
	return 0
}

func (d *Driver) UpdateNoteEdge(_ context.Context, update *store.UpdateNoteEdge) (*store.NoteEdge, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	for _, edge := range d.edges {
		if edge.ID != update.ID {
			continue
		}
		if update.Status != nil {
			edge.Status = *update.Status
		}
		if update.Origin != nil {
			edge.Origin = *update.Origin
		}
		edge.UpdatedTs = update.UpdatedTs
		copied := *edge
		return &copied, nil
	}
	return nil, errors.Errorf("note edge %d not found", update.ID)
}

func (d *Driver) CreateNoteEmbedding(_ context.Context, create *store.NoteEmbedding) (*store.NoteEmbedding, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	d.nextEmbeddingID++
	create.ID = d.nextEmbeddingID
	copied := *create
	d.embeddings = append(d.embeddings, &copied)
	return create, nil
}

func (d *Driver) ListNoteEmbeddings(_ context.Context, find *store.FindNoteEmbedding) ([]*store.NoteEmbedding, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	uidSet := toSet(find.NoteUIDs)
	list := []*store.NoteEmbedding{}
	for _, embedding := range d.embeddings {
		if find.ID != nil && embedding.ID != *find.ID {
			continue
		}
		if find.NoteUID != nil && embedding.NoteUID != *find.NoteUID {
			continue
		}
		if uidSet != nil && !uidSet[embedding.NoteUID] {
			continue
		}
		if find.ChunkIndex != nil && embedding.ChunkIndex != *find.ChunkIndex {
			continue
		}
		if find.Status != nil && embedding.Status != *find.Status {
			continue
		}
		copied := *embedding
		list = append(list, &copied)
	}

	sort.Slice(list, func(i, j int) bool {
		if list[i].UpdatedTs != list[j].UpdatedTs {
			return list[i].UpdatedTs > list[j].UpdatedTs
		}
		return list[i].ID > list[j].ID
	})
	return list, nil
}

func (d *Driver) UpdateNoteEmbedding(_ context.Context, update *store.UpdateNoteEmbedding) (*store.NoteEmbedding, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	for _, embedding := range d.embeddings {
		if embedding.ID != update.ID {
			continue
		}
		if update.Status != nil {
			embedding.Status = *update.Status
		}
		if update.SourceContent != nil {
			embedding.SourceContent = *update.SourceContent
		}
		if update.ClearVector {
			embedding.Vector = nil
		} else if update.Vector != nil {
			embedding.Vector = update.Vector
		}
		if update.LastError != nil {
			embedding.LastError = *update.LastError
		}
		if update.LastEmbeddedTs != nil {
			ts := *update.LastEmbeddedTs
			embedding.LastEmbeddedTs = &ts
		}
		embedding.UpdatedTs = update.UpdatedTs
		copied := *embedding
		return &copied, nil
	}
	return nil, errors.Errorf("note embedding %d not found", update.ID)
}

func (d *Driver) SearchNoteEmbeddings(_ context.Context, search *store.SearchNoteEmbeddings) ([]*store.NoteSimilarity, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	source := d.succeededVector(search.SourceNoteUID)
	results := []*store.NoteSimilarity{}
	if source == nil {
		return results, nil
	}

	for _, embedding := range d.embeddings {
		if embedding.NoteUID == search.SourceNoteUID || embedding.ChunkIndex != 0 {
			continue
		}
		if embedding.Status != store.EmbeddingStatusSucceeded || embedding.Vector == nil {
			continue
		}
		note := d.liveNote(embedding.NoteUID)
		if note == nil || note.CreatorID != search.OwnerID {
			continue
		}
		score := cosineSimilarity(source, embedding.Vector)
		if score < search.MinScore {
			continue
		}
		results = append(results, &store.NoteSimilarity{
			NoteUID:   embedding.NoteUID,
			Score:     score,
			UpdatedTs: note.UpdatedTs,
		})
	}

	sort.Slice(results, func(i, j int) bool {
		if results[i].Score != results[j].Score {
			return results[i].Score > results[j].Score
		}
		return results[i].UpdatedTs > results[j].UpdatedTs
	})
	if search.Limit > 0 && len(results) > search.Limit {
		results = results[:search.Limit]
	}
	return results, nil
}

// succeededVector must be called with the lock held.
func (d *Driver) succeededVector(noteUID string) []float32 {
	var latest *store.NoteEmbedding
	for _, embedding := range d.embeddings {
		if embedding.NoteUID != noteUID || embedding.ChunkIndex != 0 {
			continue
		}
		if embedding.Status != store.EmbeddingStatusSucceeded || embedding.Vector == nil {
			continue
		}
		if latest == nil || embedding.UpdatedTs > latest.UpdatedTs ||
			(embedding.UpdatedTs == latest.UpdatedTs && embedding.ID > latest.ID) {
			latest = embedding
		}
	}
	if latest == nil {
		return nil
	}
	return latest.Vector
}

// liveNote must be called with the lock held.
func (d *Driver) liveNote(uid string) *store.Note {
	for _, note := range d.notes {
		if note.UID == uid && !note.Deleted() {
			return note
		}
	}
	return nil
}

func cosineSimilarity(a, b []float32) float64 {
	if len(a) != len(b) || len(a) == 0 {
		return 0
	}
	var dot, normA, normB float64
	for i := range a {
		dot += float64(a[i]) * float64(b[i])
		normA += float64(a[i]) * float64(a[i])
		normB += float64(b[i]) * float64(b[i])
	}
	if normA == 0 || normB == 0 {
		return 0
	}
	score := dot / (math.Sqrt(normA) * math.Sqrt(normB))
	return math.Max(0, math.Min(1, score))
}

func toSet(values []string) map[string]bool {
	if len(values) == 0 {
		return nil
	}
	set := make(map[string]bool, len(values))
	for _, v := range values {
		set[v] = true
	}
	return set
}

var _ store.Driver = (*Driver)(nil)
