package resolver

import (
	"context"
	"fmt"

	"github.com/ppalone/ytsearch"
)

// SearchResult is one candidate from a YouTube text search.
type SearchResult struct {
	URL     string
	Title   string
	Channel string
}

// SearchVideos runs a YouTube search and returns up to limit candidates.
// Used both for free-text resolution and for /play autocomplete.
func SearchVideos(ctx context.Context, query string, limit int) ([]SearchResult, error) {
	c := ytsearch.NewClient(nil)
	r, err := c.Search(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("youtube search: %w", err)
	}
	out := make([]SearchResult, 0, limit)
	for _, v := range r.Results {
		if v.VideoID == "" {
			continue
		}
		out = append(out, SearchResult{
			URL:     "https://www.youtube.com/watch?v=" + v.VideoID,
			Title:   v.Title,
			Channel: v.Channel,
		})
		if limit > 0 && len(out) >= limit {
			break
		}
	}
	return out, nil
}
