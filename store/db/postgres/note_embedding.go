package postgres

import (
	"context"
	"strings"

	"github.com/pgvector/pgvector-go"
	"github.com/pkg/errors"

	"github.com/hrygo/notegraph/store"
)

func (d *DB) CreateNoteEmbedding(ctx context.Context, create *store.NoteEmbedding) (*store.NoteEmbedding, error) {
	stmt := `
		INSERT INTO note_embedding (note_uid, chunk_index, source_content, embedding, status, last_error, last_embedded_ts, created_ts, updated_ts)
		VALUES (` + placeholders(0, 9) + `)
		RETURNING id
	`
	if err := d.db.QueryRowContext(ctx, stmt,
		create.NoteUID,
		create.ChunkIndex,
		create.SourceContent,
		vectorOrNil(create.Vector),
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
		set, args = append(set, "embedding = "+placeholder(len(args)+1)), append(args, pgvector.NewVector(update.Vector))
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

// SearchNoteEmbeddings ranks the owner's notes by cosine distance to the
// source note's latest SUCCEEDED vector. The <=> operator computes cosine
// distance, so ordering by it ascending yields most similar first. When the
// source note has no SUCCEEDED vector the lateral join produces no rows.
func (d *DB) SearchNoteEmbeddings(ctx context.Context, search *store.SearchNoteEmbeddings) ([]*store.NoteSimilarity, error) {
	limit := search.Limit
	if limit <= 0 {
		limit = 10
	}

	query := `
		SELECT e.note_uid, 1 - (e.embedding <=> s.embedding) AS score, n.updated_ts
		FROM (
			SELECT embedding
			FROM note_embedding
			WHERE note_uid = ` + placeholder(1) + `
				AND chunk_index = 0
				AND status = ` + placeholder(2) + `
				AND embedding IS NOT NULL
			ORDER BY updated_ts DESC, id DESC
			LIMIT 1
		) s
		CROSS JOIN note_embedding e
		INNER JOIN note n ON n.uid = e.note_uid
		WHERE n.creator_id = ` + placeholder(3) + `
			AND n.deleted_ts IS NULL
			AND e.chunk_index = 0
			AND e.status = ` + placeholder(4) + `
			AND e.embedding IS NOT NULL
			AND e.note_uid != ` + placeholder(5) + `
			AND 1 - (e.embedding <=> s.embedding) >= ` + placeholder(6) + `
		ORDER BY e.embedding <=> s.embedding ASC, n.updated_ts DESC
		LIMIT ` + placeholder(7)

	rows, err := d.db.QueryContext(ctx, query,
		search.SourceNoteUID,
		store.EmbeddingStatusSucceeded,
		search.OwnerID,
		store.EmbeddingStatusSucceeded,
		search.SourceNoteUID,
		search.MinScore,
		limit,
	)
	if err != nil {
		return nil, errors.Wrap(err, "failed to search note embeddings")
	}
	defer rows.Close()

	results := []*store.NoteSimilarity{}
	for rows.Next() {
		var result store.NoteSimilarity
		if err := rows.Scan(&result.NoteUID, &result.Score, &result.UpdatedTs); err != nil {
			return nil, errors.Wrap(err, "failed to scan similarity result")
		}
		if result.Score < 0 {
			result.Score = 0
		} else if result.Score > 1 {
			result.Score = 1
		}
		results = append(results, &result)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return results, nil
}

func scanNoteEmbedding(row rowScanner) (*store.NoteEmbedding, error) {
	embedding := &store.NoteEmbedding{}
	var vector *pgvector.Vector
	if err := row.Scan(
		&embedding.ID,
		&embedding.NoteUID,
		&embedding.ChunkIndex,
		&embedding.SourceContent,
		&vector,
		&embedding.Status,
		&embedding.LastError,
		&embedding.LastEmbeddedTs,
		&embedding.CreatedTs,
		&embedding.UpdatedTs,
	); err != nil {
		return nil, err
	}
	if vector != nil {
		embedding.Vector = vector.Slice()
	}
	return embedding, nil
}

// vectorOrNil converts a nullable vector for insertion.
func vectorOrNil(vector []float32) any {
	if vector == nil {
		return nil
	}
	return pgvector.NewVector(vector)
}
