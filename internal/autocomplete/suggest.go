package autocomplete

import (
	"context"
	"strings"

	"github.com/bwmarrin/discordgo"

	"github.com/leodahl/chorus/internal/resolver"
	"github.com/leodahl/chorus/internal/utils"
)

// Suggest returns play-command choices for a partial query. Values are watch
// URLs so the chosen suggestion resolves without a second search. Choice
// names are capped at Discord's 100 character limit.
func Suggest(ctx context.Context, query string, limit int) []*discordgo.ApplicationCommandOptionChoice {
	if limit <= 0 {
		limit = 10
	}
	query = strings.TrimSpace(query)
	if query == "" || strings.HasPrefix(query, "http") {
		return nil
	}

	results, err := resolver.SearchVideos(ctx, query, limit)
	if err != nil {
		return nil
	}

	out := make([]*discordgo.ApplicationCommandOptionChoice, 0, len(results))
	for _, r := range results {
		name := r.Title
		if r.Channel != "" {
			name += " - " + r.Channel
		}
		out = append(out, &discordgo.ApplicationCommandOptionChoice{
			Name:  utils.Truncate(name, 100),
			Value: r.URL,
		})
	}
	return out
}
