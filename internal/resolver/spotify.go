package resolver

import (
	"context"
	"fmt"
	"net/url"
	"strings"

	"github.com/zmb3/spotify/v2"
	spotifyauth "github.com/zmb3/spotify/v2/auth"
	"golang.org/x/oauth2/clientcredentials"
)

type spotifyTrack struct {
	Name   string
	Artist string
}

type spotifyClient struct {
	raw *spotify.Client
}

func newSpotifyClient(clientID, clientSecret string) *spotifyClient {
	cfg := &clientcredentials.Config{
		ClientID:     clientID,
		ClientSecret: clientSecret,
		TokenURL:     spotifyauth.TokenURL,
	}
	httpClient := cfg.Client(context.Background())
	return &spotifyClient{raw: spotify.New(httpClient, spotify.WithRetry(true))}
}

// parseSpotifyID accepts spotify:track:ID URIs and open.spotify.com links.
// Only tracks can be resolved into a single playback item.
func parseSpotifyID(raw string) (spotify.ID, error) {
	if strings.HasPrefix(raw, "spotify:") {
		parts := strings.Split(raw, ":")
		if len(parts) == 3 && parts[1] == "track" {
			return spotify.ID(parts[2]), nil
		}
		return "", fmt.Errorf("unsupported spotify URI")
	}
	u, err := url.Parse(raw)
	if err != nil {
		return "", err
	}
	if u.Host != "open.spotify.com" && u.Host != "www.open.spotify.com" {
		return "", fmt.Errorf("not a spotify URL")
	}
	parts := strings.Split(strings.Trim(u.Path, "/"), "/")
	if len(parts) < 2 || parts[0] != "track" {
		return "", fmt.Errorf("only spotify track links are supported")
	}
	return spotify.ID(parts[1]), nil
}

func (c *spotifyClient) getTrack(ctx context.Context, id spotify.ID) (spotifyTrack, error) {
	t, err := c.raw.GetTrack(ctx, id)
	if err != nil {
		return spotifyTrack{}, err
	}
	artist := ""
	if len(t.Artists) > 0 {
		artist = t.Artists[0].Name
	}
	return spotifyTrack{Name: t.Name, Artist: artist}, nil
}
