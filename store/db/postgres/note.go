package postgres

import (
	"context"
	"encoding/json"
	"strings"

	"github.com/pkg/errors"

	"github.com/hrygo/notegraph/store"
)

func (d *DB) CreateNote(ctx context.Context, create *store.Note) (*store.Note, error) {
	tags, err := marshalTags(create.Tags)
	if err != nil {
		return nil, err
	}

	stmt := `
		INSERT INTO note (uid, creator_id, notebook_id, title, content, summary, tags, created_ts, updated_ts)
		VALUES (` + placeholders(0, 9) + `)
		RETURNING id
	`
	if err := d.db.QueryRowContext(ctx, stmt,
		create.UID,
		create.CreatorID,
		create.NotebookID,
		create.Title,
		create.Content,
		create.Summary,
		tags,
		create.CreatedTs,
		create.UpdatedTs,
	).Scan(&create.ID); err != nil {
		return nil, errors.Wrap(err, "failed to create note")
	}
	return create, nil
}

func (d *DB) ListNotes(ctx context.Context, find *store.FindNote) ([]*store.Note, error) {
	where, args := []string{"1 = 1"}, []any{}
	if find.ID != nil {
		where, args = append(where, "id = "+placeholder(len(args)+1)), append(args, *find.ID)
	}
	if find.UID != nil {
		where, args = append(where, "uid = "+placeholder(len(args)+1)), append(args, *find.UID)
	}
	if len(find.UIDs) > 0 {
		holders := placeholders(len(args), len(find.UIDs))
		for _, uid := range find.UIDs {
			args = append(args, uid)
		}
		where = append(where, "uid IN ("+holders+")")
	}
	if find.CreatorID != nil {
		where, args = append(where, "creator_id = "+placeholder(len(args)+1)), append(args, *find.CreatorID)
	}
	if find.NotebookID != nil {
		where, args = append(where, "notebook_id = "+placeholder(len(args)+1)), append(args, *find.NotebookID)
	}
	if !find.IncludeDeleted {
		where = append(where, "deleted_ts IS NULL")
	}

	order := "ORDER BY id"
	if find.OrderByUpdatedTs {
		order = "ORDER BY updated_ts DESC, id DESC"
	}
	limit := ""
	if find.Limit != nil {
		limit = "LIMIT " + placeholder(len(args)+1)
		args = append(args, *find.Limit)
	}

	query := `
		SELECT id, uid, creator_id, notebook_id, title, content, summary, tags, created_ts, updated_ts, deleted_ts
		FROM note
		WHERE ` + strings.Join(where, " AND ") + `
		` + order + `
		` + limit

	rows, err := d.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, errors.Wrap(err, "failed to list notes")
	}
	defer rows.Close()

	list := []*store.Note{}
	for rows.Next() {
		var note store.Note
		var tags string
		if err := rows.Scan(
			&note.ID,
			&note.UID,
			&note.CreatorID,
			&note.NotebookID,
			&note.Title,
			&note.Content,
			&note.Summary,
			&tags,
			&note.CreatedTs,
			&note.UpdatedTs,
			&note.DeletedTs,
		); err != nil {
			return nil, errors.Wrap(err, "failed to scan note")
		}
		if err := json.Unmarshal([]byte(tags), &note.Tags); err != nil {
			return nil, errors.Wrap(err, "failed to unmarshal note tags")
		}
		list = append(list, &note)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return list, nil
}

func (d *DB) UpdateNote(ctx context.Context, update *store.UpdateNote) error {
	set, args := []string{}, []any{}
	if update.NotebookID != nil {
		set, args = append(set, "notebook_id = "+placeholder(len(args)+1)), append(args, *update.NotebookID)
	}
	if update.Title != nil {
		set, args = append(set, "title = "+placeholder(len(args)+1)), append(args, *update.Title)
	}
	if update.Content != nil {
		set, args = append(set, "content = "+placeholder(len(args)+1)), append(args, *update.Content)
	}
	if update.Summary != nil {
		set, args = append(set, "summary = "+placeholder(len(args)+1)), append(args, *update.Summary)
	}
	if update.Tags != nil {
		tags, err := marshalTags(update.Tags)
		if err != nil {
			return err
		}
		set, args = append(set, "tags = "+placeholder(len(args)+1)), append(args, tags)
	}
	set, args = append(set, "updated_ts = "+placeholder(len(args)+1)), append(args, update.UpdatedTs)

	stmt := `UPDATE note SET ` + strings.Join(set, ", ") + ` WHERE id = ` + placeholder(len(args)+1)
	args = append(args, update.ID)
	if _, err := d.db.ExecContext(ctx, stmt, args...); err != nil {
		return errors.Wrap(err, "failed to update note")
	}
	return nil
}

func (d *DB) DeleteNote(ctx context.Context, delete *store.DeleteNote) error {
	stmt := `UPDATE note SET deleted_ts = ` + placeholder(1) + ` WHERE id = ` + placeholder(2) + ` AND deleted_ts IS NULL`
	if _, err := d.db.ExecContext(ctx, stmt, delete.DeletedTs, delete.ID); err != nil {
		return errors.Wrap(err, "failed to delete note")
	}
	return nil
}

func marshalTags(tags []string) (string, error) {
	if tags == nil {
		tags = []string{}
	}
	buf, err := json.Marshal(tags)
	if err != nil {
		return "", errors.Wrap(err, "failed to marshal note tags")
	}
	return string(buf), nil
}
