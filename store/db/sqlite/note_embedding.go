package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"math"
	"sort"
	"strings"

	"github.com/pkg/errors"

	"github.com/hrygo/notegraph/store"
)

func (d *DB) CreateNoteEmbedding(ctx context.Context, create *store.NoteEmbedding) (*store.NoteEmbedding, error) {
	vector, err := marshalVector(create.Vector)
	if err != nil {
		return nil, err
	}

	stmt := `
		INSERT INTO note_embedding (note_uid, chunk_index, source_content, embedding, status, last_error, last_embedded_ts, created_ts, updated_ts)
		VALUES (` + placeholders(0, 9) + `)
		RETURNING id
	`
	if err := d.db.QueryRowContext(ctx, stmt,
		create.NoteUID,
		create.ChunkIndex,
		create.SourceContent,
		vector,
		create.Status,
		create.LastError,
		create.LastEmbeddedTs,
		create.CreatedTs,
		create.UpdatedTs,
	).Scan(&create.ID); err != nil {
		return nil, errors.Wrap(err, "failed to create note embedding")
	}
	return create, nil
}

func (d *DB) ListNoteEmbeddings(ctx context.Context, find *store.FindNoteEmbedding) ([]*store.NoteEmbedding, error) {
	where, args := []string{"1 = 1"}, []any{}
	if find.ID != nil {
		where, args = append(where, "id = "+placeholder(len(args)+1)), append(args, *find.ID)
	}
	if find.NoteUID != nil {
		where, args = append(where, "note_uid = "+placeholder(len(args)+1)), append(args, *find.NoteUID)
	}
	if len(find.NoteUIDs) > 0 {
		holders := placeholders(len(args), len(find.NoteUIDs))
		for _, uid := range find.NoteUIDs {
			args = append(args, uid)
		}
		where = append(where, "note_uid IN ("+holders+")")
	}
	if find.ChunkIndex != nil {
		where, args = append(where, "chunk_index = "+placeholder(len(args)+1)), append(args, *find.ChunkIndex)
	}
	if find.Status != nil {
		where, args = append(where, "status = "+placeholder(len(args)+1)), append(args, *find.Status)
	}

	query := `
		SELECT id, note_uid, chunk_index, source_content, embedding, status, last_error, last_embedded_ts, created_ts, updated_ts
		FROM note_embedding
		WHERE ` + strings.Join(where, " AND ") + `
		ORDER BY updated_ts DESC, id DESC
	`
	rows, err := d.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, errors.Wrap(err, "failed to list note embeddings")
	}
	defer rows.Close()

	list := []*store.NoteEmbedding{}
	for rows.Next() {
		embedding, err := scanNoteEmbedding(rows)
		if err != nil {
			return nil, err
		}
		list = append(list, embedding)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return list, nil
}

func (d *DB) UpdateNoteEmbedding(ctx context.Context, update *store.UpdateNoteEmbedding) (*store.NoteEmbedding, error) {
	set, args := []string{}, []any{}
	if update.Status != nil {
		set, args = append(set, "status = "+placeholder(len(args)+1)), append(args, *update.Status)
	}
	if update.SourceContent != nil {
		set, args = append(set, "source_content = "+placeholder(len(args)+1)), append(args, *update.SourceContent)
	}
	if update.ClearVector {
		set = append(set, "embedding = NULL")
	} else if update.Vector != nil {
		vector, err := marshalVector(update.Vector)
		if err != nil {
			return nil, err
		}
		set, args = append(set, "embedding = "+placeholder(len(args)+1)), append(args, vector)
	}
	if update.LastError != nil {
		set, args = append(set, "last_error = "+placeholder(len(args)+1)), append(args, *update.LastError)
	}
	if update.LastEmbeddedTs != nil {
		set, args = append(set, "last_embedded_ts = "+placeholder(len(args)+1)), append(args, *update.LastEmbeddedTs)
	}
	set, args = append(set, "updated_ts = "+placeholder(len(args)+1)), append(args, update.UpdatedTs)

	stmt := `
		UPDATE note_embedding
		SET ` + strings.Join(set, ", ") + `
		WHERE id = ` + placeholder(len(args)+1) + `
		RETURNING id, note_uid, chunk_index, source_content, embedding, status, last_error, last_embedded_ts, created_ts, updated_ts
	`
	args = append(args, update.ID)

	embedding, err := scanNoteEmbedding(d.db.QueryRowContext(ctx, stmt, args...))
	if err != nil {
		return nil, errors.Wrap(err, "failed to update note embedding")
	}
	return embedding, nil
}

// SearchNoteEmbeddings computes cosine similarity in-process. Candidate rows
// are restricted in SQL; scoring, ordering and the limit are applied here.
func (d *DB) SearchNoteEmbeddings(ctx context.Context, search *store.SearchNoteEmbeddings) ([]*store.NoteSimilarity, error) {
	source, err := d.sourceVector(ctx, search.SourceNoteUID)
	if err != nil {
		return nil, err
	}
	if source == nil {
		// No SUCCEEDED source vector: the search yields no rows.
		return []*store.NoteSimilarity{}, nil
	}

	query := `
		SELECT e.note_uid, e.embedding, n.updated_ts
		FROM note_embedding e
		INNER JOIN note n ON n.uid = e.note_uid
		WHERE n.creator_id = ` + placeholder(1) + `
			AND n.deleted_ts IS NULL
			AND e.chunk_index = 0
			AND e.status = ` + placeholder(2) + `
			AND e.embedding IS NOT NULL
			AND e.note_uid != ` + placeholder(3)
	rows, err := d.db.QueryContext(ctx, query, search.OwnerID, store.EmbeddingStatusSucceeded, search.SourceNoteUID)
	if err != nil {
		return nil, errors.Wrap(err, "failed to search note embeddings")
	}
	defer rows.Close()

	results := []*store.NoteSimilarity{}
	for rows.Next() {
		var noteUID, rawVector string
		var updatedTs int64
		if err := rows.Scan(&noteUID, &rawVector, &updatedTs); err != nil {
			return nil, errors.Wrap(err, "failed to scan embedding candidate")
		}
		vector, err := unmarshalVector(rawVector)
		if err != nil {
			return nil, err
		}
		score := cosineSimilarity(source, vector)
		if score < search.MinScore {
			continue
		}
		results = append(results, &store.NoteSimilarity{
			NoteUID:   noteUID,
			Score:     score,
			UpdatedTs: updatedTs,
		})
	}
	if err := rows.Err(); err != nil {
		return nil, err
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

func (d *DB) sourceVector(ctx context.Context, noteUID string) ([]float32, error) {
	query := `
		SELECT embedding
		FROM note_embedding
		WHERE note_uid = ` + placeholder(1) + `
			AND chunk_index = 0
			AND status = ` + placeholder(2) + `
			AND embedding IS NOT NULL
		ORDER BY updated_ts DESC, id DESC
		LIMIT 1
	`
	var rawVector string
	err := d.db.QueryRowContext(ctx, query, noteUID, store.EmbeddingStatusSucceeded).Scan(&rawVector)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, errors.Wrap(err, "failed to load source vector")
	}
	return unmarshalVector(rawVector)
}

// cosineSimilarity returns the cosine of the angle between a and b,
// clamped to [0,1].
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

func scanNoteEmbedding(row rowScanner) (*store.NoteEmbedding, error) {
	embedding := &store.NoteEmbedding{}
	var rawVector *string
	if err := row.Scan(
		&embedding.ID,
		&embedding.NoteUID,
		&embedding.ChunkIndex,
		&embedding.SourceContent,
		&rawVector,
		&embedding.Status,
		&embedding.LastError,
		&embedding.LastEmbeddedTs,
		&embedding.CreatedTs,
		&embedding.UpdatedTs,
	); err != nil {
		return nil, errors.Wrap(err, "failed to scan note embedding")
	}
	if rawVector != nil {
		vector, err := unmarshalVector(*rawVector)
		if err != nil {
			return nil, err
		}
		embedding.Vector = vector
	}
	return embedding, nil
}

func marshalVector(vector []float32) (*string, error) {
	if vector == nil {
		return nil, nil
	}
	buf, err := json.Marshal(vector)
	if err != nil {
		return nil, errors.Wrap(err, "failed to marshal embedding vector")
	}
	s := string(buf)
	return &s, nil
}

func unmarshalVector(raw string) ([]float32, error) {
	var vector []float32
	if err := json.Unmarshal([]byte(raw), &vector); err != nil {
		return nil, errors.Wrap(err, "failed to unmarshal embedding vector")
	}
	return vector, nil
}
