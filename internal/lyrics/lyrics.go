package lyrics

import (
	"fmt"
	"strings"

	lyrics "github.com/rhnvrm/lyric-api-go"
)

// Fetcher looks up lyrics for the currently playing track. With a Genius
// token it searches Genius first; otherwise the free providers are used.
type Fetcher struct {
	l lyrics.Lyric
}

func New(geniusToken string) *Fetcher {
	if geniusToken != "" {
		return &Fetcher{l: lyrics.New(lyrics.WithGeniusLyrics(geniusToken))}
	}
	return &Fetcher{l: lyrics.New()}
}

// Search tries artist+title first, then title alone. Track titles often
// already carry the artist name, so the bare title is a useful fallback.
func (f *Fetcher) Search(artist, title string) (string, error) {
	title = cleanTitle(title)
	if artist != "" {
		if text, err := f.l.Search(artist, title); err == nil && text != "" {
			return text, nil
		}
	}
	text, err := f.l.Search("", title)
	if err != nil || text == "" {
		return "", fmt.Errorf("no lyrics found for %q", title)
	}
	return text, nil
}

// cleanTitle strips the decorations video titles tend to carry so provider
// searches have a chance of matching.
func cleanTitle(title string) string {
	for _, cut := range []string{"(", "[", "|"} {
		if i := strings.Index(title, cut); i > 0 {
			title = title[:i]
		}
	}
	return strings.TrimSpace(title)
}
