package sqlite

import (
	"context"
	"strings"
	"time"

	"github.com/pkg/errors"

	"github.com/auralabs/auraglow/store"
)

func (d *DB) CreateAuraReading(ctx context.Context, create *store.AuraReading) (*store.AuraReading, error) {
	if create.CreatedTs == 0 {
		create.CreatedTs = time.Now().Unix()
	}

	fields := []string{"user_id", "score", "color", "element", "reading", "matched_id", "selfie_path", "created_ts"}
	args := []any{create.UserID, create.Score, create.Color, create.Element, create.Reading, create.MatchedID, create.SelfiePath, create.CreatedTs}

	stmt := `INSERT INTO aura_reading (` + strings.Join(fields, ", ") + `) VALUES (` + placeholders(len(args)) + `)`
	result, err := d.db.ExecContext(ctx, stmt, args...)
	if err != nil {
		return nil, errors.Wrap(err, "failed to create aura reading")
	}

	id, err := result.LastInsertId()
	if err != nil {
		return nil, errors.Wrap(err, "failed to get last insert id")
	}
	create.ID = int32(id)
	return create, nil
}

func (d *DB) ListAuraReadings(ctx context.Context, find *store.FindAuraReading) ([]*store.AuraReading, error) {
	where, args := []string{"1 = 1"}, []any{}
	if find.ID != nil {
		where, args = append(where, "id = ?"), append(args, *find.ID)
	}
	if find.UserID != nil {
		where, args = append(where, "user_id = ?"), append(args, *find.UserID)
	}

	query := `SELECT id, user_id, score, color, element, reading, matched_id, selfie_path, created_ts
		FROM aura_reading WHERE ` + strings.Join(where, " AND ") + ` ORDER BY created_ts DESC`
	if find.Limit != nil {
		query += " LIMIT ?"
		args = append(args, *find.Limit)
	}

	rows, err := d.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, errors.Wrap(err, "failed to list aura readings")
	}
	defer rows.Close()

	list := []*store.AuraReading{}
	for rows.Next() {
		reading := &store.AuraReading{}
		if err := rows.Scan(
			&reading.ID, &reading.UserID, &reading.Score, &reading.Color, &reading.Element,
			&reading.Reading, &reading.MatchedID, &reading.SelfiePath, &reading.CreatedTs,
		); err != nil {
			return nil, errors.Wrap(err, "failed to scan aura reading")
		}
		list = append(list, reading)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return list, nil
}

func (d *DB) DeleteAuraReading(ctx context.Context, delete *store.DeleteAuraReading) error {
	if _, err := d.db.ExecContext(ctx, `DELETE FROM aura_reading WHERE id = ?`, delete.ID); err != nil {
		return errors.Wrap(err, "failed to delete aura reading")
	}
	return nil
}
