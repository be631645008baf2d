package handlers

import (
	"errors"
	"testing"

	"github.com/bwmarrin/discordgo"

	"github.com/leodahl/chorus/internal/playlist"
	"github.com/leodahl/chorus/internal/resolver"
	"github.com/leodahl/chorus/internal/session"
)

func TestControlRowIDs(t *testing.T) {
	row := controlRow(false)
	if len(row) != 1 {
		t.Fatalf("expected a single action row, got %d", len(row))
	}
	ar, ok := row[0].(discordgo.ActionsRow)
	if !ok {
		t.Fatalf("expected ActionsRow, got %T", row[0])
	}
	want := []string{controlPause, controlResume, controlSkip, controlLoop, controlStop}
	if len(ar.Components) != len(want) {
		t.Fatalf("expected %d buttons, got %d", len(want), len(ar.Components))
	}
	for n, c := range ar.Components {
		b, ok := c.(discordgo.Button)
		if !ok {
			t.Fatalf("component %d: expected Button, got %T", n, c)
		}
		if b.CustomID != want[n] {
			t.Errorf("button %d: customID = %q, want %q", n, b.CustomID, want[n])
		}
		if b.Disabled {
			t.Errorf("button %d: should be enabled", n)
		}
	}
}

func TestControlRowDisabled(t *testing.T) {
	ar := controlRow(true)[0].(discordgo.ActionsRow)
	for n, c := range ar.Components {
		if !c.(discordgo.Button).Disabled {
			t.Errorf("button %d: should be disabled", n)
		}
	}
}

func TestPlayErrorText(t *testing.T) {
	if got := playErrorText(resolver.ErrNotFound); got != "No results found for that query." {
		t.Errorf("not found: got %q", got)
	}
	if got := playErrorText(session.ErrClosed); got != "The session was closed, try again." {
		t.Errorf("closed: got %q", got)
	}
	if got := playErrorText(errors.New("boom")); got != "Couldn't play that: boom" {
		t.Errorf("other: got %q", got)
	}
}

func TestSkipErrorText(t *testing.T) {
	if got := skipErrorText(session.ErrNothingPlaying); got != "nothing is currently playing" {
		t.Errorf("nothing playing: got %q", got)
	}
	if got := skipErrorText(session.ErrNothingToSkipTo); got != "the queue is empty, there is nothing to skip to" {
		t.Errorf("nothing to skip to: got %q", got)
	}
}

func TestPlaylistErrorText(t *testing.T) {
	if got := playlistErrorText(playlist.ErrNotFound, "mix"); got != "No playlist named **mix** exists." {
		t.Errorf("not found: got %q", got)
	}
	if got := playlistErrorText(playlist.ErrEmpty, "mix"); got != "The playlist **mix** has no songs." {
		t.Errorf("empty: got %q", got)
	}
	if got := playlistErrorText(errors.New("io"), "mix"); got != "failed to read the playlist" {
		t.Errorf("other: got %q", got)
	}
}

func TestUserNameOf(t *testing.T) {
	if got := userNameOf(nil); got != "someone" {
		t.Errorf("nil interaction: got %q", got)
	}
	i := &discordgo.InteractionCreate{Interaction: &discordgo.Interaction{
		Member: &discordgo.Member{User: &discordgo.User{ID: "1", Username: "ann"}},
	}}
	if got := userNameOf(i); got != "ann" {
		t.Errorf("username: got %q", got)
	}
	i.Member.Nick = "dj"
	if got := userNameOf(i); got != "dj" {
		t.Errorf("nick wins: got %q", got)
	}
	if got := userIDOf(i); got != "1" {
		t.Errorf("userIDOf: got %q", got)
	}
}

type fixedVoice struct{ ch string }

func (v fixedVoice) ChannelID() string { return v.ch }
func (v fixedVoice) Disconnect()       {}

func stateSession(t *testing.T, guildID string, voiceStates map[string]string) *discordgo.Session {
	t.Helper()
	st := discordgo.NewState()
	g := &discordgo.Guild{ID: guildID}
	for uid, ch := range voiceStates {
		g.VoiceStates = append(g.VoiceStates, &discordgo.VoiceState{
			GuildID: guildID, UserID: uid, ChannelID: ch,
		})
	}
	if err := st.GuildAdd(g); err != nil {
		t.Fatalf("GuildAdd: %v", err)
	}
	return &discordgo.Session{State: st}
}

func interactionFrom(userID string) *discordgo.InteractionCreate {
	return &discordgo.InteractionCreate{Interaction: &discordgo.Interaction{
		GuildID:   "g1",
		ChannelID: "text-1",
		Member:    &discordgo.Member{User: &discordgo.User{ID: userID}},
	}}
}

func TestEnsureSessionRequiresSameChannel(t *testing.T) {
	reg := session.NewRegistry()
	sess := session.New(session.Options{GuildID: "g1", Voice: fixedVoice{ch: "vc-bot"}})
	reg.GetOrCreate("g1", func() *session.Session { return sess })
	h := NewCommandHandler(nil, nil, nil, nil, nil, reg)

	s := stateSession(t, "g1", map[string]string{
		"u-other": "vc-other",
		"u-with":  "vc-bot",
	})

	if _, err := h.ensureSession(s, interactionFrom("u-other")); err == nil {
		t.Fatal("expected rejection for a user in a different voice channel")
	}
	if _, err := h.ensureSession(s, interactionFrom("u-nowhere")); err == nil {
		t.Fatal("expected rejection for a user not in voice")
	}

	got, err := h.ensureSession(s, interactionFrom("u-with"))
	if err != nil {
		t.Fatalf("same channel: %v", err)
	}
	if got != sess {
		t.Fatal("expected the existing session to be reused")
	}
	if got.NotifyChannel() != "text-1" {
		t.Errorf("notify channel = %q, want rebound to text-1", got.NotifyChannel())
	}
}

func TestCommandCatalogComplete(t *testing.T) {
	want := map[string]bool{
		"join": false, "leave": false, "play": false, "pause": false,
		"resume": false, "stop": false, "skip": false, "vote-skip": false,
		"loop": false, "volume": false, "lyrics": false, "now-playing": false,
		"clear": false, "playlist": false, "config": false, "help": false,
	}
	for _, c := range commandCatalog() {
		if _, ok := want[c.Name]; !ok {
			t.Errorf("unexpected command %q", c.Name)
			continue
		}
		want[c.Name] = true
		if c.Description == "" {
			t.Errorf("command %q has no description", c.Name)
		}
	}
	for name, seen := range want {
		if !seen {
			t.Errorf("missing command %q", name)
		}
	}
}
