package graph

import (
	"context"
	"log/slog"
	"sort"
	"strings"
	"time"

	"github.com/hrygo/notegraph/plugin/markdown"
	apierrors "github.com/hrygo/notegraph/server/internal/errors"
	"github.com/hrygo/notegraph/store"
)

const (
	// rebuildLimitDefault is how many notes a rebuild touches when no explicit
	// selection is given.
	rebuildLimitDefault = 50
	// rebuildLimitMax is the hard cap on a single rebuild batch.
	rebuildLimitMax = 200
	// maxStoredErrorLen truncates embedder failures before persisting them.
	maxStoredErrorLen = 500
)

// PrepareResult summarizes one rebuild scheduling pass.
type PrepareResult struct {
	Scheduled int      `json:"scheduled"`
	NoteUIDs  []string `json:"noteUids"`
}

// RebuildResult summarizes one full embedding rebuild run.
type RebuildResult struct {
	Scheduled int      `json:"scheduled"`
	Succeeded int      `json:"succeeded"`
	Failed    int      `json:"failed"`
	NoteUIDs  []string `json:"noteUids"`
}

// PrepareRebuild schedules a batch of the owner's notes for (re)embedding.
// With explicit noteUIDs the whole selection must resolve to live notes of
// the owner; otherwise the most recently updated notes are taken, up to
// limit (default 50, capped at 200).
//
// Each selected note's chunk-0 record is reset to PENDING with freshly
// derived source content and a cleared error; a note without a record gets a
// new PENDING one. Rows are reset in place, never duplicated.
func (s *Service) PrepareRebuild(ctx context.Context, ownerID int32, noteUIDs []string, limit int) (*PrepareResult, error) {
	notes, err := s.selectRebuildNotes(ctx, ownerID, noteUIDs, limit)
	if err != nil {
		return nil, err
	}

	result := &PrepareResult{NoteUIDs: []string{}}
	for _, note := range notes {
		if err := s.scheduleEmbedding(ctx, note); err != nil {
			return nil, err
		}
		result.NoteUIDs = append(result.NoteUIDs, note.UID)
	}
	result.Scheduled = len(result.NoteUIDs)
	return result, nil
}

// RebuildEmbeddings schedules a batch via PrepareRebuild and then embeds the
// scheduled rows. The PENDING rows are re-queried rather than carried over
// in memory, so the embed step is safe to retry independently; rows flipped
// out of PENDING by a concurrent run are simply skipped.
//
// A failing note is recorded as FAILED and the batch moves on; one bad note
// never aborts the run.
func (s *Service) RebuildEmbeddings(ctx context.Context, ownerID int32, noteUIDs []string, limit int) (*RebuildResult, error) {
	prepared, err := s.PrepareRebuild(ctx, ownerID, noteUIDs, limit)
	if err != nil {
		return nil, err
	}
	result := &RebuildResult{Scheduled: prepared.Scheduled, NoteUIDs: prepared.NoteUIDs}
	if prepared.Scheduled == 0 {
		return result, nil
	}

	chunkIndex := 0
	pending := store.EmbeddingStatusPending
	records, err := s.store.ListNoteEmbeddings(ctx, &store.FindNoteEmbedding{
		NoteUIDs:   prepared.NoteUIDs,
		ChunkIndex: &chunkIndex,
		Status:     &pending,
	})
	if err != nil {
		return nil, apierrors.Internal(err, "failed to list pending embeddings")
	}

	succeededStatus := store.EmbeddingStatusSucceeded
	failedStatus := store.EmbeddingStatusFailed
	for _, record := range records {
		vector, err := s.embedder.Embed(ctx, record.SourceContent)
		now := time.Now().Unix()
		if err != nil {
			message := truncateError(err)
			if _, updateErr := s.store.UpdateNoteEmbedding(ctx, &store.UpdateNoteEmbedding{
				ID:        record.ID,
				Status:    &failedStatus,
				LastError: &message,
				UpdatedTs: now,
			}); updateErr != nil {
				return nil, apierrors.Internal(updateErr, "failed to record embedding failure")
			}
			slog.Warn("embedding failed", "noteUID", record.NoteUID, "error", message)
			result.Failed++
			continue
		}

		noError := ""
		if _, err := s.store.UpdateNoteEmbedding(ctx, &store.UpdateNoteEmbedding{
			ID:             record.ID,
			Status:         &succeededStatus,
			Vector:         vector,
			LastError:      &noError,
			LastEmbeddedTs: &now,
			UpdatedTs:      now,
		}); err != nil {
			return nil, apierrors.Internal(err, "failed to store embedding")
		}
		result.Succeeded++
	}

	// stored vectors changed, cached similarity results are stale
	s.InvalidateSimilarCache(ctx, ownerID)

	slog.Info("embedding rebuild finished",
		"ownerID", ownerID,
		"scheduled", result.Scheduled,
		"succeeded", result.Succeeded,
		"failed", result.Failed,
	)
	return result, nil
}

func (s *Service) selectRebuildNotes(ctx context.Context, ownerID int32, noteUIDs []string, limit int) ([]*store.Note, error) {
	if len(noteUIDs) > 0 {
		if len(noteUIDs) > rebuildLimitMax {
			return nil, apierrors.Validation("at most %d notes per rebuild, got %d", rebuildLimitMax, len(noteUIDs))
		}
		notes, err := s.store.ListNotes(ctx, &store.FindNote{
			UIDs:      noteUIDs,
			CreatorID: &ownerID,
		})
		if err != nil {
			return nil, apierrors.Internal(err, "failed to list notes")
		}
		if len(notes) < len(noteUIDs) {
			found := make(map[string]bool, len(notes))
			for _, note := range notes {
				found[note.UID] = true
			}
			missing := []string{}
			for _, uid := range noteUIDs {
				if !found[uid] {
					missing = append(missing, uid)
				}
			}
			sort.Strings(missing)
			return nil, apierrors.NotFound("notes not found: %s", strings.Join(missing, ", "))
		}
		return notes, nil
	}

	if limit < 0 {
		return nil, apierrors.Validation("limit must not be negative, got %d", limit)
	}
	if limit == 0 {
		limit = rebuildLimitDefault
	}
	if limit > rebuildLimitMax {
		limit = rebuildLimitMax
	}
	notes, err := s.store.ListNotes(ctx, &store.FindNote{
		CreatorID:        &ownerID,
		OrderByUpdatedTs: true,
		Limit:            &limit,
	})
	if err != nil {
		return nil, apierrors.Internal(err, "failed to list notes")
	}
	return notes, nil
}

// scheduleEmbedding resets (or creates) the note's chunk-0 record to PENDING
// with freshly derived source content.
func (s *Service) scheduleEmbedding(ctx context.Context, note *store.Note) error {
	source := embeddingSource(note)
	chunkIndex := 0
	now := time.Now().Unix()

	existing, err := s.store.GetNoteEmbedding(ctx, &store.FindNoteEmbedding{
		NoteUID:    &note.UID,
		ChunkIndex: &chunkIndex,
	})
	if err != nil {
		return apierrors.Internal(err, "failed to get note embedding")
	}

	pending := store.EmbeddingStatusPending
	noError := ""
	if existing != nil {
		if _, err := s.store.UpdateNoteEmbedding(ctx, &store.UpdateNoteEmbedding{
			ID:            existing.ID,
			Status:        &pending,
			SourceContent: &source,
			ClearVector:   true,
			LastError:     &noError,
			UpdatedTs:     now,
		}); err != nil {
			return apierrors.Internal(err, "failed to reset note embedding")
		}
		return nil
	}

	if _, err := s.store.CreateNoteEmbedding(ctx, &store.NoteEmbedding{
		NoteUID:       note.UID,
		ChunkIndex:    chunkIndex,
		SourceContent: source,
		Status:        pending,
		CreatedTs:     now,
		UpdatedTs:     now,
	}); err != nil {
		return apierrors.Internal(err, "failed to create note embedding")
	}
	return nil
}

// embeddingSource derives the text to embed: the title followed by the
// note's markdown rendered to plain text.
func embeddingSource(note *store.Note) string {
	body := markdown.PlainText(note.Content)
	if note.Title == "" {
		return body
	}
	if body == "" {
		return note.Title
	}
	return note.Title + "\n" + body
}

func truncateError(err error) string {
	message := err.Error()
	if len(message) > maxStoredErrorLen {
		message = message[:maxStoredErrorLen]
	}
	return message
}
