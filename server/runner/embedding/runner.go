// Package embedding runs the background embedding maintenance loop. It picks
// up notes whose chunk-0 embedding is missing or older than the note itself
// and feeds them through the rebuild pipeline, so search results catch up
// with edits without manual rebuild calls.
package embedding

import (
	"context"
	"log/slog"
	"time"

	"github.com/hrygo/notegraph/server/service/graph"
	"github.com/hrygo/notegraph/store"
)

type Runner struct {
	store     *store.Store
	graph     *graph.Service
	interval  time.Duration
	batchSize int
}

// NewRunner creates an embedding maintenance runner. The small batch size
// keeps each pass short so shutdown is never blocked for long.
func NewRunner(store *store.Store, graphService *graph.Service) *Runner {
	return &Runner{
		store:     store,
		graph:     graphService,
		interval:  2 * time.Minute,
		batchSize: 8,
	}
}

// Run starts the loop. It processes once on startup, then on every tick
// until the context is cancelled.
func (r *Runner) Run(ctx context.Context) {
	r.RunOnce(ctx)

	ticker := time.NewTicker(r.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			r.RunOnce(ctx)
		case <-ctx.Done():
			slog.Info("embedding runner stopped")
			return
		}
	}
}

// RunOnce performs a single maintenance pass.
func (r *Runner) RunOnce(ctx context.Context) {
	stale, err := r.findStaleNotes(ctx)
	if err != nil {
		slog.Error("failed to find stale notes", "error", err)
		return
	}
	if len(stale) == 0 {
		return
	}

	for owner, uids := range stale {
		for start := 0; start < len(uids); start += r.batchSize {
			select {
			case <-ctx.Done():
				slog.Info("embedding maintenance cancelled", "ownerID", owner)
				return
			default:
			}

			end := start + r.batchSize
			if end > len(uids) {
				end = len(uids)
			}
			result, err := r.graph.RebuildEmbeddings(ctx, owner, uids[start:end], 0)
			if err != nil {
				slog.Error("embedding maintenance batch failed", "ownerID", owner, "error", err)
				continue
			}
			slog.Info("embedding maintenance batch done",
				"ownerID", owner,
				"succeeded", result.Succeeded,
				"failed", result.Failed,
			)
		}
	}
}

// findStaleNotes returns, per owner, the uids of live notes that have no
// chunk-0 embedding record or whose record predates the last note edit.
func (r *Runner) findStaleNotes(ctx context.Context) (map[int32][]string, error) {
	notes, err := r.store.ListNotes(ctx, &store.FindNote{})
	if err != nil {
		return nil, err
	}
	if len(notes) == 0 {
		return nil, nil
	}

	chunkIndex := 0
	records, err := r.store.ListNoteEmbeddings(ctx, &store.FindNoteEmbedding{ChunkIndex: &chunkIndex})
	if err != nil {
		return nil, err
	}
	recordByUID := make(map[string]*store.NoteEmbedding, len(records))
	for _, record := range records {
		if existing, ok := recordByUID[record.NoteUID]; !ok || record.UpdatedTs > existing.UpdatedTs {
			recordByUID[record.NoteUID] = record
		}
	}

	stale := map[int32][]string{}
	for _, note := range notes {
		record, ok := recordByUID[note.UID]
		if ok && record.UpdatedTs >= note.UpdatedTs {
			continue
		}
		stale[note.CreatorID] = append(stale[note.CreatorID], note.UID)
	}
	return stale, nil
}
