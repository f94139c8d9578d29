// Package stats computes per-owner usage statistics for the note graph:
// note, notebook, edge and embedding counts. It is a lightweight local
// alternative to external monitoring.
package stats

import (
	"context"
	"sync"
	"time"

	"github.com/hrygo/notegraph/store"
)

// OwnerStats is one owner's graph snapshot.
type OwnerStats struct {
	Notes     int64 `json:"notes"`
	Notebooks int64 `json:"notebooks"`

	CandidateEdges int64 `json:"candidateEdges"`
	ConfirmedEdges int64 `json:"confirmedEdges"`
	RejectedEdges  int64 `json:"rejectedEdges"`

	EmbeddedNotes  int64 `json:"embeddedNotes"`
	PendingNotes   int64 `json:"pendingNotes"`
	FailedNotes    int64 `json:"failedNotes"`

	CollectedTs int64 `json:"collectedTs"`
}

// Collector computes owner stats with a short cache so repeated dashboard
// polls do not hammer the store.
type Collector struct {
	store *store.Store

	mu     sync.Mutex
	cache  map[int32]*OwnerStats
	maxAge time.Duration
}

// NewCollector creates a stats collector caching results for one minute.
func NewCollector(store *store.Store) *Collector {
	return &Collector{
		store:  store,
		cache:  make(map[int32]*OwnerStats),
		maxAge: time.Minute,
	}
}

// CollectOwner returns the owner's current stats, cached briefly.
func (c *Collector) CollectOwner(ctx context.Context, ownerID int32) (*OwnerStats, error) {
	c.mu.Lock()
	cached, ok := c.cache[ownerID]
	c.mu.Unlock()
	if ok && time.Since(time.Unix(cached.CollectedTs, 0)) < c.maxAge {
		return cached, nil
	}

	stats, err := c.collect(ctx, ownerID)
	if err != nil {
		return nil, err
	}

	c.mu.Lock()
	c.cache[ownerID] = stats
	c.mu.Unlock()
	return stats, nil
}

// Invalidate drops the owner's cached snapshot.
func (c *Collector) Invalidate(ownerID int32) {
	c.mu.Lock()
	delete(c.cache, ownerID)
	c.mu.Unlock()
}

func (c *Collector) collect(ctx context.Context, ownerID int32) (*OwnerStats, error) {
	stats := &OwnerStats{CollectedTs: time.Now().Unix()}

	notes, err := c.store.ListNotes(ctx, &store.FindNote{CreatorID: &ownerID})
	if err != nil {
		return nil, err
	}
	stats.Notes = int64(len(notes))

	notebooks, err := c.store.ListNotebooks(ctx, &store.FindNotebook{CreatorID: &ownerID})
	if err != nil {
		return nil, err
	}
	stats.Notebooks = int64(len(notebooks))

	edges, err := c.store.ListNoteEdges(ctx, &store.FindNoteEdge{OwnerID: &ownerID})
	if err != nil {
		return nil, err
	}
	for _, edge := range edges {
		switch edge.Status {
		case store.EdgeStatusCandidate:
			stats.CandidateEdges++
		case store.EdgeStatusConfirmed:
			stats.ConfirmedEdges++
		case store.EdgeStatusRejected:
			stats.RejectedEdges++
		}
	}

	if len(notes) > 0 {
		uids := make([]string, 0, len(notes))
		for _, note := range notes {
			uids = append(uids, note.UID)
		}
		chunkIndex := 0
		records, err := c.store.ListNoteEmbeddings(ctx, &store.FindNoteEmbedding{
			NoteUIDs:   uids,
			ChunkIndex: &chunkIndex,
		})
		if err != nil {
			return nil, err
		}
		counted := make(map[string]bool, len(records))
		for _, record := range records {
			// records are newest first, count each note's latest only
			if counted[record.NoteUID] {
				continue
			}
			counted[record.NoteUID] = true
			switch record.Status {
			case store.EmbeddingStatusSucceeded:
				stats.EmbeddedNotes++
			case store.EmbeddingStatusPending:
				stats.PendingNotes++
			case store.EmbeddingStatusFailed:
				stats.FailedNotes++
			}
		}
	}
	return stats, nil
}
