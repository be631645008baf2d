package playlist

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"

	"github.com/keshon/datastore"
)

const playlistsKey = "playlists"

var (
	ErrNotFound = errors.New("playlist not found")
	ErrEmpty    = errors.New("playlist has no songs")
)

// Playlist is a named, append-only list of song inputs. Creator is whoever
// added the first song; later contributors never change it.
type Playlist struct {
	Creator string   `json:"creator"`
	Songs   []string `json:"songs"`
}

// Store persists guild playlists in a JSON datastore file. The datastore
// serializes individual reads and writes; mu serializes whole
// load-modify-save sequences so concurrent command handlers can't lose
// each other's updates.
type Store struct {
	mu sync.Mutex
	ds *datastore.DataStore
}

func New(filePath string) (*Store, error) {
	ds, err := datastore.New(context.Background(), filePath)
	if err != nil {
		return nil, err
	}
	return &Store{ds: ds}, nil
}

func (s *Store) Close() error {
	return s.ds.Close()
}

// load decodes the playlist map for a guild-scoped key. Caller holds mu.
func (s *Store) load(guildID string) (map[string]Playlist, error) {
	var lists map[string]Playlist
	found, err := s.ds.Get(guildKey(guildID), &lists)
	if err != nil {
		return nil, fmt.Errorf("error reading playlists: %w", err)
	}
	if !found || lists == nil {
		lists = map[string]Playlist{}
	}
	return lists, nil
}

// save writes the guild's playlist map back. Caller holds mu.
func (s *Store) save(guildID string, lists map[string]Playlist) error {
	return s.ds.Set(guildKey(guildID), lists)
}

func guildKey(guildID string) string {
	return playlistsKey + ":" + guildID
}

// AddSong appends a song to the named playlist, creating it when missing.
// Returns the new song count.
func (s *Store) AddSong(guildID, name, song, userID string) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	lists, err := s.load(guildID)
	if err != nil {
		return 0, err
	}

	pl, exists := lists[name]
	if !exists {
		pl = Playlist{Creator: userID}
	}
	pl.Songs = append(pl.Songs, song)
	lists[name] = pl

	if err := s.save(guildID, lists); err != nil {
		return len(pl.Songs), fmt.Errorf("error saving playlist %q: %w", name, err)
	}
	return len(pl.Songs), nil
}

// Get returns the named playlist. An existing but empty playlist is reported
// as ErrEmpty so callers don't start a zero-track run.
func (s *Store) Get(guildID, name string) (Playlist, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	lists, err := s.load(guildID)
	if err != nil {
		return Playlist{}, err
	}
	pl, exists := lists[name]
	if !exists {
		return Playlist{}, fmt.Errorf("%w: %s", ErrNotFound, name)
	}
	if len(pl.Songs) == 0 {
		return Playlist{}, fmt.Errorf("%w: %s", ErrEmpty, name)
	}
	return pl, nil
}

// List returns playlist names with their song counts, sorted by name.
func (s *Store) List(guildID string) ([]Summary, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	lists, err := s.load(guildID)
	if err != nil {
		return nil, err
	}
	out := make([]Summary, 0, len(lists))
	for name, pl := range lists {
		out = append(out, Summary{Name: name, Songs: len(pl.Songs), Creator: pl.Creator})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

type Summary struct {
	Name    string
	Songs   int
	Creator string
}
