package repository

import "database/sql"

type Repo struct {
	db *sql.DB
}

// Settings are the per-guild knobs. Rows are created on first use with the
// schema defaults.
type Settings struct {
	GuildID               string
	SecondsWaitAfterEmpty int
	DefaultVolume         int
	MaxVolume             int
	LeaveIfNoListeners    bool
}
