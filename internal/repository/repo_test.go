package repository

import (
	"context"
	"database/sql"
	"errors"
	"testing"

	"github.com/leodahl/chorus/internal/config"
)

func newTestRepo(t *testing.T) *Repo {
	t.Helper()
	db, err := OpenDB(&config.Config{DataDir: t.TempDir()})
	if err != nil {
		t.Fatalf("OpenDB: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return NewRepo(db)
}

func TestUpsertSettingsDefaults(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	s, err := repo.UpsertSettings(ctx, "g1")
	if err != nil {
		t.Fatalf("UpsertSettings: %v", err)
	}
	if s.SecondsWaitAfterEmpty != 180 {
		t.Errorf("SecondsWaitAfterEmpty = %d, want 180", s.SecondsWaitAfterEmpty)
	}
	if s.DefaultVolume != 100 || s.MaxVolume != 100 {
		t.Errorf("volumes = %d/%d, want 100/100", s.DefaultVolume, s.MaxVolume)
	}
	if !s.LeaveIfNoListeners {
		t.Error("LeaveIfNoListeners should default to true")
	}
}

func TestUpdateSettingsRoundTrip(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	s, err := repo.UpsertSettings(ctx, "g1")
	if err != nil {
		t.Fatalf("UpsertSettings: %v", err)
	}
	s.SecondsWaitAfterEmpty = 30
	s.DefaultVolume = 60
	s.MaxVolume = 80
	s.LeaveIfNoListeners = false
	if err := repo.UpdateSettings(ctx, s); err != nil {
		t.Fatalf("UpdateSettings: %v", err)
	}

	got, err := repo.GetSettings(ctx, "g1")
	if err != nil {
		t.Fatalf("GetSettings: %v", err)
	}
	if *got != *s {
		t.Errorf("settings after update = %+v, want %+v", got, s)
	}
}

func TestUpsertSettingsReportsExecFailure(t *testing.T) {
	db, err := OpenDB(&config.Config{DataDir: t.TempDir()})
	if err != nil {
		t.Fatalf("OpenDB: %v", err)
	}
	repo := NewRepo(db)
	db.Close()

	_, err = repo.UpsertSettings(context.Background(), "g1")
	if err == nil {
		t.Fatal("expected an error from a closed database")
	}
	if errors.Is(err, sql.ErrNoRows) {
		t.Fatalf("insert failure misreported as missing row: %v", err)
	}
}

func TestUpsertIsIdempotent(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	s, err := repo.UpsertSettings(ctx, "g1")
	if err != nil {
		t.Fatalf("UpsertSettings: %v", err)
	}
	s.DefaultVolume = 42
	if err := repo.UpdateSettings(ctx, s); err != nil {
		t.Fatalf("UpdateSettings: %v", err)
	}

	again, err := repo.UpsertSettings(ctx, "g1")
	if err != nil {
		t.Fatalf("second UpsertSettings: %v", err)
	}
	if again.DefaultVolume != 42 {
		t.Errorf("upsert clobbered existing row: volume = %d", again.DefaultVolume)
	}
}
