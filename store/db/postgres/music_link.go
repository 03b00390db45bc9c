package postgres

import (
	"context"
	"database/sql"
	"time"

	"github.com/pkg/errors"

	"github.com/auralabs/auraglow/store"
)

func (d *DB) UpsertMusicLink(ctx context.Context, upsert *store.MusicLink) (*store.MusicLink, error) {
	upsert.UpdatedTs = time.Now().Unix()

	stmt := `INSERT INTO music_link (user_id, access_token, refresh_token, expiry, updated_ts)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (user_id) DO UPDATE SET
			access_token = EXCLUDED.access_token,
			refresh_token = EXCLUDED.refresh_token,
			expiry = EXCLUDED.expiry,
			updated_ts = EXCLUDED.updated_ts`
	if _, err := d.db.ExecContext(ctx, stmt, upsert.UserID, upsert.AccessToken, upsert.RefreshToken, upsert.Expiry, upsert.UpdatedTs); err != nil {
		return nil, errors.Wrap(err, "failed to upsert music link")
	}
	return upsert, nil
}

func (d *DB) GetMusicLink(ctx context.Context, find *store.FindMusicLink) (*store.MusicLink, error) {
	link := &store.MusicLink{}
	err := d.db.QueryRowContext(ctx,
		`SELECT user_id, access_token, refresh_token, expiry, updated_ts FROM music_link WHERE user_id = $1`,
		find.UserID,
	).Scan(&link.UserID, &link.AccessToken, &link.RefreshToken, &link.Expiry, &link.UpdatedTs)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, errors.Wrap(err, "failed to get music link")
	}
	return link, nil
}

func (d *DB) DeleteMusicLink(ctx context.Context, delete *store.DeleteMusicLink) error {
	if _, err := d.db.ExecContext(ctx, `DELETE FROM music_link WHERE user_id = $1`, delete.UserID); err != nil {
		return errors.Wrap(err, "failed to delete music link")
	}
	return nil
}
