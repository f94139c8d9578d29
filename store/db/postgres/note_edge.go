package postgres

import (
	"context"
	"strings"

	"github.com/pkg/errors"

	"github.com/hrygo/notegraph/store"
)

const noteEdgeFields = "note_edge.id, note_edge.from_uid, note_edge.to_uid, note_edge.type, note_edge.weight, note_edge.status, note_edge.origin, note_edge.reason, note_edge.created_ts, note_edge.updated_ts"

func (d *DB) CreateNoteEdge(ctx context.Context, create *store.NoteEdge) (*store.NoteEdge, error) {
	stmt := `
		INSERT INTO note_edge (from_uid, to_uid, type, weight, status, origin, reason, created_ts, updated_ts)
		VALUES (` + placeholders(0, 9) + `)
		RETURNING id
	`
	if err := d.db.QueryRowContext(ctx, stmt,
		create.FromUID,
		create.ToUID,
		create.Type,
		create.Weight,
		create.Status,
		create.Origin,
		create.Reason,
		create.CreatedTs,
		create.UpdatedTs,
	).Scan(&create.ID); err != nil {
		if isUniqueViolation(err) {
			return nil, store.ErrEdgeExists
		}
		return nil, errors.Wrap(err, "failed to create note edge")
	}
	return create, nil
}

// UpsertNoteEdges inserts the drafts in one statement, silently skipping rows
// that collide with an existing pair. One atomic insert so a partial candidate
// set is never visible mid-write.
func (d *DB) UpsertNoteEdges(ctx context.Context, creates []*store.NoteEdge) (int, error) {
	if len(creates) == 0 {
		return 0, nil
	}

	var values []string
	var args []any
	for _, create := range creates {
		values = append(values, "("+placeholders(len(args), 9)+")")
		args = append(args,
			create.FromUID,
			create.ToUID,
			create.Type,
			create.Weight,
			create.Status,
			create.Origin,
			create.Reason,
			create.CreatedTs,
			create.UpdatedTs,
		)
	}

	stmt := `
		INSERT INTO note_edge (from_uid, to_uid, type, weight, status, origin, reason, created_ts, updated_ts)
		VALUES ` + strings.Join(values, ", ") + `
		ON CONFLICT (from_uid, to_uid, type) DO NOTHING
	`
	result, err := d.db.ExecContext(ctx, stmt, args...)
	if err != nil {
		return 0, errors.Wrap(err, "failed to upsert note edges")
	}
	inserted, err := result.RowsAffected()
	if err != nil {
		return 0, err
	}
	return int(inserted), nil
}

func (d *DB) ListNoteEdges(ctx context.Context, find *store.FindNoteEdge) ([]*store.NoteEdge, error) {
	where, args := []string{"1 = 1"}, []any{}
	if find.ID != nil {
		where, args = append(where, "note_edge.id = "+placeholder(len(args)+1)), append(args, *find.ID)
	}
	if find.Type != nil {
		where, args = append(where, "note_edge.type = "+placeholder(len(args)+1)), append(args, *find.Type)
	}
	if find.NoteUID != nil {
		p1, p2 := placeholder(len(args)+1), placeholder(len(args)+2)
		where = append(where, "(note_edge.from_uid = "+p1+" OR note_edge.to_uid = "+p2+")")
		args = append(args, *find.NoteUID, *find.NoteUID)
	}
	if find.OwnerID != nil {
		p1, p2 := placeholder(len(args)+1), placeholder(len(args)+2)
		where = append(where, "nf.creator_id = "+p1, "nt.creator_id = "+p2)
		args = append(args, *find.OwnerID, *find.OwnerID)
	}
	if len(find.Statuses) > 0 {
		holders := placeholders(len(args), len(find.Statuses))
		for _, status := range find.Statuses {
			args = append(args, status)
		}
		where = append(where, "note_edge.status IN ("+holders+")")
	}

	query := `
		SELECT ` + noteEdgeFields + `
		FROM note_edge
		INNER JOIN note nf ON nf.uid = note_edge.from_uid
		INNER JOIN note nt ON nt.uid = note_edge.to_uid
		WHERE ` + strings.Join(where, " AND ") + `
		ORDER BY note_edge.status ASC, note_edge.weight DESC, note_edge.updated_ts DESC, note_edge.id DESC
	`
	rows, err := d.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, errors.Wrap(err, "failed to list note edges")
	}
	defer rows.Close()

	list := []*store.NoteEdge{}
	for rows.Next() {
		edge, err := scanNoteEdge(rows)
		if err != nil {
			return nil, err
		}
		list = append(list, edge)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return list, nil
}

func (d *DB) UpdateNoteEdge(ctx context.Context, update *store.UpdateNoteEdge) (*store.NoteEdge, error) {
	set, args := []string{}, []any{}
	if update.Status != nil {
		set, args = append(set, "status = "+placeholder(len(args)+1)), append(args, *update.Status)
	}
	if update.Origin != nil {
		set, args = append(set, "origin = "+placeholder(len(args)+1)), append(args, *update.Origin)
	}
	set, args = append(set, "updated_ts = "+placeholder(len(args)+1)), append(args, update.UpdatedTs)

	stmt := `
		UPDATE note_edge
		SET ` + strings.Join(set, ", ") + `
		WHERE id = ` + placeholder(len(args)+1) + `
		RETURNING ` + strings.ReplaceAll(noteEdgeFields, "note_edge.", "")
	args = append(args, update.ID)

	edge, err := scanNoteEdge(d.db.QueryRowContext(ctx, stmt, args...))
	if err != nil {
		return nil, errors.Wrap(err, "failed to update note edge")
	}
	return edge, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanNoteEdge(row rowScanner) (*store.NoteEdge, error) {
	edge := &store.NoteEdge{}
	if err := row.Scan(
		&edge.ID,
		&edge.FromUID,
		&edge.ToUID,
		&edge.Type,
		&edge.Weight,
		&edge.Status,
		&edge.Origin,
		&edge.Reason,
		&edge.CreatedTs,
		&edge.UpdatedTs,
	); err != nil {
		return nil, err
	}
	return edge, nil
}
