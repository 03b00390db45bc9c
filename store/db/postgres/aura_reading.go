package postgres

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

	stmt := `INSERT INTO aura_reading (` + strings.Join(fields, ", ") + `) VALUES (` + placeholders(len(args)) + `) RETURNING id`
	if err := d.db.QueryRowContext(ctx, stmt, args...).Scan(&create.ID); err != nil {
		return nil, errors.Wrap(err, "failed to create aura reading")
	}
	return create, nil
}

func (d *DB) ListAuraReadings(ctx context.Context, find *store.FindAuraReading) ([]*store.AuraReading, error) {
	where, args := []string{"1 = 1"}, []any{}
	if find.ID != nil {
		where, args = append(where, "id = "+placeholder(len(args)+1)), append(args, *find.ID)
	}
	if find.UserID != nil {
		where, args = append(where, "user_id = "+placeholder(len(args)+1)), append(args, *find.UserID)
	}

	query := `SELECT id, user_id, score, color, element, reading, matched_id, selfie_path, created_ts
		FROM aura_reading WHERE ` + strings.Join(where, " AND ") + ` ORDER BY created_ts DESC`
	if find.Limit != nil {
		query += " LIMIT " + placeholder(len(args)+1)
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
	if _, err := d.db.ExecContext(ctx, `DELETE FROM aura_reading WHERE id = $1`, delete.ID); err != nil {
		return errors.Wrap(err, "failed to delete aura reading")
	}
	return nil
}
