package resolver

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/leodahl/chorus/internal/session"
)

// ErrNotFound means the input could not be matched to any playable media.
var ErrNotFound = errors.New("no playable media found")

// Resolver turns user input (URL, spotify link, or free text) into a playable
// track. Stream URLs it produces may be single-use; callers that need to play
// a track again resolve its OriginURL afresh.
type Resolver struct {
	sp *spotifyClient
}

func New(spotifyClientID, spotifyClientSecret string) *Resolver {
	r := &Resolver{}
	if spotifyClientID != "" && spotifyClientSecret != "" {
		r.sp = newSpotifyClient(spotifyClientID, spotifyClientSecret)
	}
	return r
}

type inputKind int

const (
	kindSearch inputKind = iota
	kindYouTube
	kindSpotify
	kindDirectURL
)

func classify(input string) inputKind {
	if strings.HasPrefix(input, "spotify:") || strings.Contains(input, "open.spotify.com") {
		return kindSpotify
	}
	if !strings.HasPrefix(input, "http://") && !strings.HasPrefix(input, "https://") {
		return kindSearch
	}
	if strings.Contains(input, "youtube.com") || strings.Contains(input, "youtu.be") || strings.Contains(input, "music.youtube.") {
		return kindYouTube
	}
	return kindDirectURL
}

func (r *Resolver) Resolve(ctx context.Context, input string) (session.Track, error) {
	q := strings.TrimSpace(input)
	if q == "" {
		return session.Track{}, ErrNotFound
	}

	switch classify(q) {
	case kindSpotify:
		return r.resolveSpotify(ctx, q)

	case kindYouTube:
		return r.fromPage(ctx, q)

	case kindDirectURL:
		// HLS or radio stream; the URL is played as-is
		return session.Track{
			Title:     q,
			Artist:    q,
			OriginURL: q,
			StreamURL: q,
			Provider:  session.ProviderDirectStream,
			IsLive:    true,
		}, nil

	default:
		results, err := SearchVideos(ctx, q, 1)
		if err != nil {
			return session.Track{}, err
		}
		if len(results) == 0 {
			return session.Track{}, fmt.Errorf("%w: %s", ErrNotFound, q)
		}
		return r.fromPage(ctx, results[0].URL)
	}
}

// resolveSpotify maps a spotify track to its closest YouTube match. The
// origin stays the spotify input, so a replay repeats the whole lookup.
func (r *Resolver) resolveSpotify(ctx context.Context, q string) (session.Track, error) {
	if r.sp == nil {
		return session.Track{}, errors.New("spotify is not enabled")
	}
	id, err := parseSpotifyID(q)
	if err != nil {
		return session.Track{}, err
	}
	st, err := r.sp.getTrack(ctx, id)
	if err != nil {
		return session.Track{}, fmt.Errorf("spotify lookup: %w", err)
	}

	results, err := SearchVideos(ctx, fmt.Sprintf("%s %s", st.Name, st.Artist), 1)
	if err != nil {
		return session.Track{}, err
	}
	if len(results) == 0 {
		return session.Track{}, fmt.Errorf("%w: %s - %s", ErrNotFound, st.Artist, st.Name)
	}

	t, err := r.fromPage(ctx, results[0].URL)
	if err != nil {
		return session.Track{}, err
	}
	t.Provider = session.ProviderMetadataLookup
	t.OriginURL = q
	if st.Artist != "" {
		t.Artist = st.Artist
	}
	return t, nil
}

// fromPage fetches stream metadata for a concrete media page URL.
func (r *Resolver) fromPage(ctx context.Context, pageURL string) (session.Track, error) {
	info, err := ytdlpGetInfo(ctx, pageURL)
	if err != nil {
		return session.Track{}, err
	}
	stream := audioURL(info)
	if stream == "" {
		return session.Track{}, fmt.Errorf("%w: %s", ErrNotFound, pageURL)
	}
	origin := info.WebpageURL
	if origin == "" {
		origin = pageURL
	}
	return session.Track{
		Title:     info.Title,
		Artist:    info.Uploader,
		OriginURL: origin,
		StreamURL: stream,
		Provider:  session.ProviderDirectStream,
		Duration:  time.Duration(info.Duration * float64(time.Second)),
		IsLive:    info.IsLive,
		Thumbnail: info.Thumbnail,
	}, nil
}
