package playlist

import (
	"errors"
	"fmt"
	"path/filepath"
	"sync"
	"testing"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := New(filepath.Join(t.TempDir(), "playlists.json"))
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

func TestAddSongCreatesAndAppends(t *testing.T) {
	s := newTestStore(t)

	n, err := s.AddSong("g1", "chill", "song-a", "alice")
	if err != nil || n != 1 {
		t.Fatalf("AddSong first = %d, %v", n, err)
	}
	n, err = s.AddSong("g1", "chill", "song-b", "bob")
	if err != nil || n != 2 {
		t.Fatalf("AddSong second = %d, %v", n, err)
	}

	pl, err := s.Get("g1", "chill")
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if pl.Creator != "alice" {
		t.Errorf("creator = %q, want first writer alice", pl.Creator)
	}
	if len(pl.Songs) != 2 || pl.Songs[0] != "song-a" || pl.Songs[1] != "song-b" {
		t.Errorf("songs = %v, want insertion order", pl.Songs)
	}
}

func TestGetMissingPlaylist(t *testing.T) {
	s := newTestStore(t)
	if _, err := s.Get("g1", "nope"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("Get missing = %v, want ErrNotFound", err)
	}
}

func TestGuildScoping(t *testing.T) {
	s := newTestStore(t)
	if _, err := s.AddSong("g1", "chill", "song-a", "alice"); err != nil {
		t.Fatalf("AddSong: %v", err)
	}
	if _, err := s.Get("g2", "chill"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("playlist leaked across guilds: %v", err)
	}
}

func TestListSortedWithCounts(t *testing.T) {
	s := newTestStore(t)
	s.AddSong("g1", "rock", "a", "u1")
	s.AddSong("g1", "chill", "b", "u2")
	s.AddSong("g1", "chill", "c", "u2")

	got, err := s.List("g1")
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("len = %d, want 2", len(got))
	}
	if got[0].Name != "chill" || got[0].Songs != 2 {
		t.Errorf("got[0] = %+v, want chill with 2 songs", got[0])
	}
	if got[1].Name != "rock" || got[1].Songs != 1 {
		t.Errorf("got[1] = %+v, want rock with 1 song", got[1])
	}
}

func TestConcurrentAddsLoseNoSongs(t *testing.T) {
	s := newTestStore(t)

	const adds = 50
	var wg sync.WaitGroup
	for n := 0; n < adds; n++ {
		wg.Add(1)
		go func(n int) {
			defer wg.Done()
			if _, err := s.AddSong("g1", "chill", fmt.Sprintf("song-%d", n), "alice"); err != nil {
				t.Errorf("AddSong %d: %v", n, err)
			}
		}(n)
	}
	wg.Wait()

	pl, err := s.Get("g1", "chill")
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if len(pl.Songs) != adds {
		t.Errorf("songs = %d, want %d (lost update)", len(pl.Songs), adds)
	}
}

func TestPersistsAcrossReopen(t *testing.T) {
	path := filepath.Join(t.TempDir(), "playlists.json")

	s, err := New(path)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	if _, err := s.AddSong("g1", "chill", "song-a", "alice"); err != nil {
		t.Fatalf("AddSong: %v", err)
	}
	if err := s.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}

	s2, err := New(path)
	if err != nil {
		t.Fatalf("reopen: %v", err)
	}
	defer s2.Close()

	pl, err := s2.Get("g1", "chill")
	if err != nil {
		t.Fatalf("Get after reopen: %v", err)
	}
	if pl.Creator != "alice" || len(pl.Songs) != 1 {
		t.Errorf("reloaded playlist = %+v", pl)
	}
}
