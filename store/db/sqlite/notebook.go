package sqlite

import (
	"context"
	"strings"

	"github.com/pkg/errors"

	"github.com/hrygo/notegraph/store"
)

func (d *DB) CreateNotebook(ctx context.Context, create *store.Notebook) (*store.Notebook, error) {
	stmt := `
		INSERT INTO notebook (uid, creator_id, name, created_ts, updated_ts)
		VALUES (` + placeholders(0, 5) + `)
		RETURNING id
	`
	if err := d.db.QueryRowContext(ctx, stmt,
		create.UID,
		create.CreatorID,
		create.Name,
		create.CreatedTs,
		create.UpdatedTs,
	).Scan(&create.ID); err != nil {
		return nil, errors.Wrap(err, "failed to create notebook")
	}
	return create, nil
}

func (d *DB) ListNotebooks(ctx context.Context, find *store.FindNotebook) ([]*store.Notebook, error) {
	where, args := []string{"1 = 1"}, []any{}
	if find.ID != nil {
		where, args = append(where, "id = "+placeholder(len(args)+1)), append(args, *find.ID)
	}
	if find.UID != nil {
		where, args = append(where, "uid = "+placeholder(len(args)+1)), append(args, *find.UID)
	}
	if find.CreatorID != nil {
		where, args = append(where, "creator_id = "+placeholder(len(args)+1)), append(args, *find.CreatorID)
	}

	query := `
		SELECT id, uid, creator_id, name, created_ts, updated_ts
		FROM notebook
		WHERE ` + strings.Join(where, " AND ") + `
		ORDER BY id
	`
	rows, err := d.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, errors.Wrap(err, "failed to list notebooks")
	}
	defer rows.Close()

	list := []*store.Notebook{}
	for rows.Next() {
		var notebook store.Notebook
		if err := rows.Scan(
			&notebook.ID,
			&notebook.UID,
			&notebook.CreatorID,
			&notebook.Name,
			&notebook.CreatedTs,
			&notebook.UpdatedTs,
		); err != nil {
			return nil, errors.Wrap(err, "failed to scan notebook")
		}
		list = append(list, &notebook)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return list, nil
}
