package repository

import (
	"context"
	"database/sql"
	"fmt"
)

func NewRepo(db *sql.DB) *Repo { return &Repo{db: db} }

// UpsertSettings returns the guild's settings, creating the row with schema
// defaults if it does not exist yet.
func (r *Repo) UpsertSettings(ctx context.Context, guild string) (*Settings, error) {
	if _, err := r.db.ExecContext(ctx,
		`INSERT OR IGNORE INTO settings(guild_id) VALUES (?)`, guild,
	); err != nil {
		return nil, fmt.Errorf("insert settings row: %w", err)
	}
	return r.GetSettings(ctx, guild)
}

func (r *Repo) GetSettings(ctx context.Context, guild string) (*Settings, error) {
	row := r.db.QueryRowContext(ctx, `
	SELECT guild_id, seconds_wait_after_empty, default_volume, max_volume, leave_if_no_listeners
	FROM settings WHERE guild_id = ?`, guild)

	var s Settings
	var leave int
	if err := row.Scan(
		&s.GuildID,
		&s.SecondsWaitAfterEmpty,
		&s.DefaultVolume,
		&s.MaxVolume,
		&leave,
	); err != nil {
		return nil, err
	}
	s.LeaveIfNoListeners = leave != 0
	return &s, nil
}

func (r *Repo) UpdateSettings(ctx context.Context, s *Settings) error {
	_, err := r.db.ExecContext(ctx, `
		UPDATE settings SET
		  seconds_wait_after_empty=?,
		  default_volume=?,
		  max_volume=?,
		  leave_if_no_listeners=?
		WHERE guild_id=?`,
		s.SecondsWaitAfterEmpty, s.DefaultVolume, s.MaxVolume,
		boolToInt(s.LeaveIfNoListeners), s.GuildID,
	)
	return err
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
