package handlers

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/bwmarrin/discordgo"

	"github.com/leodahl/chorus/internal/autocomplete"
	"github.com/leodahl/chorus/internal/config"
	"github.com/leodahl/chorus/internal/lyrics"
	"github.com/leodahl/chorus/internal/playlist"
	"github.com/leodahl/chorus/internal/repository"
	"github.com/leodahl/chorus/internal/resolver"
	"github.com/leodahl/chorus/internal/session"
	"github.com/leodahl/chorus/internal/stream"
	"github.com/leodahl/chorus/internal/ui"
	"github.com/leodahl/chorus/internal/utils"
)

var errNotInVoice = errors.New("you need to be in a voice channel first")

type CommandHandler struct {
	cfg   *config.Config
	repo  *repository.Repo
	store *playlist.Store
	res   *resolver.Resolver
	lyr   *lyrics.Fetcher
	reg   *session.Registry

	// serializes voice join + session creation per process
	joinMu sync.Mutex
}

func NewCommandHandler(cfg *config.Config, repo *repository.Repo, store *playlist.Store, res *resolver.Resolver, lyr *lyrics.Fetcher, reg *session.Registry) *CommandHandler {
	return &CommandHandler{cfg: cfg, repo: repo, store: store, res: res, lyr: lyr, reg: reg}
}

func commandCatalog() []*discordgo.ApplicationCommand {
	return []*discordgo.ApplicationCommand{
		{Name: "join", Description: "Join your voice channel"},
		{Name: "leave", Description: "Leave the voice channel"},
		{
			Name:        "play",
			Description: "Play a song (YouTube/Spotify URL, stream URL, or search)",
			Options: []*discordgo.ApplicationCommandOption{
				{Name: "query", Description: "query or URL", Type: discordgo.ApplicationCommandOptionString, Required: true, Autocomplete: true},
			},
		},
		{Name: "pause", Description: "Pause the current song"},
		{Name: "resume", Description: "Resume playback"},
		{Name: "stop", Description: "Stop playback and clear the queue"},
		{Name: "skip", Description: "Skip to the next song"},
		{Name: "vote-skip", Description: "Vote to skip the current song"},
		{
			Name:        "loop",
			Description: "Loop the current song",
			Options: []*discordgo.ApplicationCommandOption{
				{Name: "mode", Description: "on or off (toggles when omitted)", Type: discordgo.ApplicationCommandOptionString, Choices: []*discordgo.ApplicationCommandOptionChoice{
					{Name: "on", Value: "on"},
					{Name: "off", Value: "off"},
				}},
			},
		},
		{
			Name:        "volume",
			Description: "Set the playback volume",
			Options: []*discordgo.ApplicationCommandOption{
				{Name: "percent", Description: "0-100", Type: discordgo.ApplicationCommandOptionInteger, Required: true},
			},
		},
		{Name: "lyrics", Description: "Show lyrics for the current song"},
		{Name: "now-playing", Description: "Show the current song and queue"},
		{
			Name:        "clear",
			Description: "Delete recent messages in this channel",
			Options: []*discordgo.ApplicationCommandOption{
				{Name: "number", Description: "how many messages [default: 10, max: 100]", Type: discordgo.ApplicationCommandOptionInteger},
			},
		},
		{
			Name:        "playlist",
			Description: "Manage saved playlists",
			Options: []*discordgo.ApplicationCommandOption{
				{
					Type:        discordgo.ApplicationCommandOptionSubCommand,
					Name:        "add",
					Description: "add a song to a playlist",
					Options: []*discordgo.ApplicationCommandOption{
						{Name: "name", Description: "playlist name", Type: discordgo.ApplicationCommandOptionString, Required: true},
						{Name: "song", Description: "song URL or search query", Type: discordgo.ApplicationCommandOptionString, Required: true},
					},
				},
				{
					Type:        discordgo.ApplicationCommandOptionSubCommand,
					Name:        "play",
					Description: "queue every song in a playlist",
					Options: []*discordgo.ApplicationCommandOption{
						{Name: "name", Description: "playlist name", Type: discordgo.ApplicationCommandOptionString, Required: true},
					},
				},
				{
					Type:        discordgo.ApplicationCommandOptionSubCommand,
					Name:        "list",
					Description: "list saved playlists",
				},
			},
		},
		{
			Name:        "config",
			Description: "Configure bot settings",
			Options: []*discordgo.ApplicationCommandOption{
				{Type: discordgo.ApplicationCommandOptionSubCommand, Name: "get", Description: "show settings"},
				{Type: discordgo.ApplicationCommandOptionSubCommand, Name: "set-wait-after-queue-empties", Description: "time to wait before leaving VC", Options: []*discordgo.ApplicationCommandOption{
					{Name: "delay", Description: "seconds", Type: discordgo.ApplicationCommandOptionInteger, Required: true},
				}},
				{Type: discordgo.ApplicationCommandOptionSubCommand, Name: "set-default-volume", Description: "volume new sessions start at", Options: []*discordgo.ApplicationCommandOption{
					{Name: "level", Description: "0-100", Type: discordgo.ApplicationCommandOptionInteger, Required: true},
				}},
				{Type: discordgo.ApplicationCommandOptionSubCommand, Name: "set-max-volume", Description: "upper bound for /volume", Options: []*discordgo.ApplicationCommandOption{
					{Name: "level", Description: "1-100", Type: discordgo.ApplicationCommandOptionInteger, Required: true},
				}},
				{Type: discordgo.ApplicationCommandOptionSubCommand, Name: "set-leave-if-no-listeners", Description: "leave when no listeners remain", Options: []*discordgo.ApplicationCommandOption{
					{Name: "value", Description: "true/false", Type: discordgo.ApplicationCommandOptionBoolean, Required: true},
				}},
			},
		},
		{Name: "help", Description: "List available commands"},
	}
}

func (h *CommandHandler) RegisterCommands(s *discordgo.Session, appID string, guildID string) error {
	start := time.Now()
	slog.Info("registering application commands", "appID", appID, "guildID", guildID)

	cmds := commandCatalog()
	for _, c := range cmds {
		if _, err := s.ApplicationCommandCreate(appID, guildID, c); err != nil {
			slog.Error("failed to create application command", "guildID", guildID, "command", c.Name, "err", err)
			return err
		}
		slog.Debug("registered command", "guildID", guildID, "command", c.Name)
	}

	slog.Info("finished registering commands", "guildID", guildID, "count", len(cmds), "took", time.Since(start))
	return nil
}

func (h *CommandHandler) HandleInteraction(s *discordgo.Session, i *discordgo.InteractionCreate) {
	switch i.Type {
	case discordgo.InteractionApplicationCommand:
		slog.Debug("interaction: application command", "guildID", i.GuildID, "userID", userIDOf(i), "command", i.ApplicationCommandData().Name)
		h.handleChatCommand(s, i)
	case discordgo.InteractionApplicationCommandAutocomplete:
		h.handleAutocomplete(s, i)
	case discordgo.InteractionMessageComponent:
		slog.Debug("interaction: component", "guildID", i.GuildID, "userID", userIDOf(i), "customID", i.MessageComponentData().CustomID)
		h.handleComponent(s, i)
	default:
		slog.Debug("interaction: ignored type", "type", i.Type, "guildID", i.GuildID)
	}
}

func (h *CommandHandler) handleAutocomplete(s *discordgo.Session, i *discordgo.InteractionCreate) {
	data := i.ApplicationCommandData()
	if data.Name != "play" {
		return
	}
	var query string
	for _, opt := range data.Options {
		if opt.Focused || opt.Name == "query" {
			query = opt.StringValue()
		}
	}

	choices := []*discordgo.ApplicationCommandOptionChoice{}
	if strings.TrimSpace(query) != "" {
		ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
		choices = append(choices, autocomplete.Suggest(ctx, query, 10)...)
		cancel()
	}
	_ = s.InteractionRespond(i.Interaction, &discordgo.InteractionResponse{
		Type: discordgo.InteractionApplicationCommandAutocompleteResult,
		Data: &discordgo.InteractionResponseData{Choices: choices},
	})
}

func (h *CommandHandler) handleChatCommand(s *discordgo.Session, i *discordgo.InteractionCreate) {
	data := i.ApplicationCommandData()
	switch data.Name {
	case "join":
		h.cmdJoin(s, i)
	case "leave":
		h.cmdLeave(s, i)
	case "play":
		h.cmdPlay(s, i)
	case "pause":
		h.cmdPause(s, i)
	case "resume":
		h.cmdResume(s, i)
	case "stop":
		h.cmdStop(s, i)
	case "skip":
		h.cmdSkip(s, i)
	case "vote-skip":
		h.cmdVoteSkip(s, i)
	case "loop":
		h.cmdLoop(s, i)
	case "volume":
		h.cmdVolume(s, i)
	case "lyrics":
		h.cmdLyrics(s, i)
	case "now-playing":
		h.cmdNowPlaying(s, i)
	case "clear":
		h.cmdClear(s, i)
	case "playlist":
		h.cmdPlaylist(s, i)
	case "config":
		h.cmdConfig(s, i)
	case "help":
		h.cmdHelp(s, i)
	default:
		slog.Debug("unknown command", "name", data.Name, "guildID", i.GuildID, "userID", userIDOf(i))
	}
}

// replyEmbed answers the interaction with a single embed.
func (h *CommandHandler) replyEmbed(s *discordgo.Session, i *discordgo.InteractionCreate, embed *discordgo.MessageEmbed, ephemeral bool) {
	flags := discordgo.MessageFlags(0)
	if ephemeral {
		flags = discordgo.MessageFlagsEphemeral
	}
	if err := s.InteractionRespond(i.Interaction, &discordgo.InteractionResponse{
		Type: discordgo.InteractionResponseChannelMessageWithSource,
		Data: &discordgo.InteractionResponseData{
			Embeds: []*discordgo.MessageEmbed{embed},
			Flags:  flags,
		},
	}); err != nil {
		slog.Warn("reply failed", "guildID", i.GuildID, "userID", userIDOf(i), "err", err)
	}
}

func (h *CommandHandler) deferReply(s *discordgo.Session, i *discordgo.InteractionCreate) {
	if err := s.InteractionRespond(i.Interaction, &discordgo.InteractionResponse{
		Type: discordgo.InteractionResponseDeferredChannelMessageWithSource,
	}); err != nil {
		slog.Warn("defer reply failed", "guildID", i.GuildID, "userID", userIDOf(i), "err", err)
	}
}

func (h *CommandHandler) editReplyEmbed(s *discordgo.Session, i *discordgo.InteractionCreate, embed *discordgo.MessageEmbed) {
	if _, err := s.InteractionResponseEdit(i.Interaction, &discordgo.WebhookEdit{
		Embeds: &[]*discordgo.MessageEmbed{embed},
	}); err != nil {
		slog.Warn("edit reply failed", "guildID", i.GuildID, "userID", userIDOf(i), "err", err)
	}
}

func userInVoice(s *discordgo.Session, guildID, userID string) (channelID string, ok bool) {
	g, _ := s.State.Guild(guildID)
	if g == nil {
		g, _ = s.Guild(guildID)
	}
	if g == nil {
		return "", false
	}
	for _, vs := range g.VoiceStates {
		if vs.UserID == userID && vs.ChannelID != "" {
			return vs.ChannelID, true
		}
	}
	return "", false
}

// ensureSession returns the live session for the guild, creating one bound to
// the caller's voice channel when none exists. The notification channel is
// rebound to wherever the command came from.
func (h *CommandHandler) ensureSession(s *discordgo.Session, i *discordgo.InteractionCreate) (*session.Session, error) {
	guildID := i.GuildID
	chID, ok := userInVoice(s, guildID, userIDOf(i))
	if !ok {
		return nil, errNotInVoice
	}

	h.joinMu.Lock()
	defer h.joinMu.Unlock()

	if sess := h.reg.Peek(guildID); sess != nil && !sess.Closed() {
		if chID != sess.VoiceChannelID() {
			return nil, errors.New("you need to be in the same voice channel as the bot")
		}
		sess.SetNotifyChannel(i.ChannelID)
		return sess, nil
	}

	ctx := context.Background()
	set, err := h.repo.UpsertSettings(ctx, guildID)
	if err != nil {
		return nil, fmt.Errorf("load settings: %w", err)
	}

	vc, err := s.ChannelVoiceJoin(guildID, chID, false, true)
	if err != nil {
		return nil, fmt.Errorf("couldn't connect to the voice channel: %w", err)
	}

	sess := session.New(session.Options{
		GuildID:     guildID,
		ChannelID:   i.ChannelID,
		Resolver:    h.res,
		Renderer:    stream.NewRenderer(vc),
		Announcer:   &announcer{s: s, guildID: guildID},
		Voice:       &voiceConn{vc: vc},
		IdleWait:    time.Duration(set.SecondsWaitAfterEmpty) * time.Second,
		Volume:      set.DefaultVolume,
		MaxVolume:   set.MaxVolume,
		OnTerminate: h.reg.Remove,
	})
	h.reg.GetOrCreate(guildID, func() *session.Session { return sess })
	slog.Info("session created", "guildID", guildID, "channelID", chID)
	return sess, nil
}

// liveSession returns the guild's session only when the caller shares its
// voice channel; playback controls are restricted to people listening.
func (h *CommandHandler) liveSession(s *discordgo.Session, i *discordgo.InteractionCreate) (*session.Session, error) {
	sess := h.reg.Peek(i.GuildID)
	if sess == nil || sess.Closed() {
		return nil, errors.New("not connected to a voice channel")
	}
	chID, ok := userInVoice(s, i.GuildID, userIDOf(i))
	if !ok || chID != sess.VoiceChannelID() {
		return nil, errors.New("you need to be in the same voice channel as the bot")
	}
	return sess, nil
}

func (h *CommandHandler) cmdJoin(s *discordgo.Session, i *discordgo.InteractionCreate) {
	sess, err := h.ensureSession(s, i)
	if err != nil {
		h.replyEmbed(s, i, ui.Error(err.Error()), true)
		return
	}
	name := sess.VoiceChannelID()
	if ch, err := s.State.Channel(sess.VoiceChannelID()); err == nil {
		name = ch.Name
	}
	slog.Info("cmd join", "guildID", i.GuildID, "userID", userIDOf(i))
	h.replyEmbed(s, i, ui.Connected(name), false)
}

func (h *CommandHandler) cmdLeave(s *discordgo.Session, i *discordgo.InteractionCreate) {
	sess := h.reg.Peek(i.GuildID)
	if sess == nil || sess.Closed() {
		h.replyEmbed(s, i, ui.Error("not connected to a voice channel"), true)
		return
	}
	sess.Teardown()
	slog.Info("cmd leave", "guildID", i.GuildID, "userID", userIDOf(i))
	h.replyEmbed(s, i, ui.Disconnected(), false)
}

func (h *CommandHandler) cmdPlay(s *discordgo.Session, i *discordgo.InteractionCreate) {
	var query string
	for _, o := range i.ApplicationCommandData().Options {
		if o.Name == "query" {
			query = o.StringValue()
		}
	}
	slog.Info("cmd play", "guildID", i.GuildID, "userID", userIDOf(i), "query", query)

	sess, err := h.ensureSession(s, i)
	if err != nil {
		h.replyEmbed(s, i, ui.Error(err.Error()), true)
		return
	}

	h.deferReply(s, i)

	ctx, cancel := context.WithTimeout(context.Background(), 60*time.Second)
	defer cancel()
	t, queued, err := sess.Play(ctx, query, userIDOf(i))
	if err != nil {
		slog.Debug("resolve failed", "guildID", i.GuildID, "query", query, "err", err)
		h.editReplyEmbed(s, i, ui.Error(playErrorText(err)))
		return
	}
	if queued {
		h.editReplyEmbed(s, i, ui.AddedToQueue(t, sess.QueueLen()))
		return
	}
	h.editReplyEmbed(s, i, ui.Success(fmt.Sprintf("Playing **%s**.", utils.EscapeMd(t.Title))))
}

func playErrorText(err error) string {
	if errors.Is(err, resolver.ErrNotFound) {
		return "No results found for that query."
	}
	if errors.Is(err, session.ErrClosed) {
		return "The session was closed, try again."
	}
	return "Couldn't play that: " + err.Error()
}

func (h *CommandHandler) cmdPause(s *discordgo.Session, i *discordgo.InteractionCreate) {
	sess, err := h.liveSession(s, i)
	if err != nil {
		h.replyEmbed(s, i, ui.Error(err.Error()), true)
		return
	}
	if err := sess.Pause(); err != nil {
		h.replyEmbed(s, i, ui.Error("nothing is currently playing"), true)
		return
	}
	slog.Info("cmd pause", "guildID", i.GuildID, "userID", userIDOf(i))
	h.replyEmbed(s, i, ui.Paused(), false)
}

func (h *CommandHandler) cmdResume(s *discordgo.Session, i *discordgo.InteractionCreate) {
	sess, err := h.liveSession(s, i)
	if err != nil {
		h.replyEmbed(s, i, ui.Error(err.Error()), true)
		return
	}
	if err := sess.Resume(); err != nil {
		h.replyEmbed(s, i, ui.Error("playback is not paused"), true)
		return
	}
	slog.Info("cmd resume", "guildID", i.GuildID, "userID", userIDOf(i))
	h.replyEmbed(s, i, ui.Resumed(), false)
}

func (h *CommandHandler) cmdStop(s *discordgo.Session, i *discordgo.InteractionCreate) {
	sess, err := h.liveSession(s, i)
	if err != nil {
		h.replyEmbed(s, i, ui.Error(err.Error()), true)
		return
	}
	if err := sess.Stop(); err != nil {
		h.replyEmbed(s, i, ui.Error("nothing is currently playing"), true)
		return
	}
	slog.Info("cmd stop", "guildID", i.GuildID, "userID", userIDOf(i))
	h.replyEmbed(s, i, ui.Stopped(), false)
}

func (h *CommandHandler) cmdSkip(s *discordgo.Session, i *discordgo.InteractionCreate) {
	sess, err := h.liveSession(s, i)
	if err != nil {
		h.replyEmbed(s, i, ui.Error(err.Error()), true)
		return
	}
	if err := sess.Skip(); err != nil {
		h.replyEmbed(s, i, ui.Error(skipErrorText(err)), true)
		return
	}
	slog.Info("cmd skip", "guildID", i.GuildID, "userID", userIDOf(i))
	h.replyEmbed(s, i, ui.Skipped(), false)
}

func skipErrorText(err error) string {
	switch {
	case errors.Is(err, session.ErrNothingPlaying):
		return "nothing is currently playing"
	case errors.Is(err, session.ErrNothingToSkipTo):
		return "the queue is empty, there is nothing to skip to"
	}
	return err.Error()
}

func (h *CommandHandler) cmdVoteSkip(s *discordgo.Session, i *discordgo.InteractionCreate) {
	sess, err := h.liveSession(s, i)
	if err != nil {
		h.replyEmbed(s, i, ui.Error(err.Error()), true)
		return
	}

	eligible := getNonBotSize(s, i.GuildID, sess.VoiceChannelID())
	votes, quorum, skipped, err := sess.VoteSkip(userIDOf(i), eligible)
	switch {
	case errors.Is(err, session.ErrAlreadyVoted):
		h.replyEmbed(s, i, ui.Error("you already voted to skip this song"), true)
		return
	case errors.Is(err, session.ErrNothingPlaying):
		h.replyEmbed(s, i, ui.Error("nothing is currently playing"), true)
		return
	case err != nil:
		h.replyEmbed(s, i, ui.Error(err.Error()), true)
		return
	}

	slog.Info("cmd vote-skip", "guildID", i.GuildID, "userID", userIDOf(i), "votes", votes, "quorum", quorum, "skipped", skipped)
	if skipped {
		h.replyEmbed(s, i, ui.Skipped(), false)
		return
	}
	h.replyEmbed(s, i, ui.VoteSkip(userNameOf(i), votes, quorum), false)
}

func (h *CommandHandler) cmdLoop(s *discordgo.Session, i *discordgo.InteractionCreate) {
	sess, err := h.liveSession(s, i)
	if err != nil {
		h.replyEmbed(s, i, ui.Error(err.Error()), true)
		return
	}
	var on bool
	mode := ""
	for _, o := range i.ApplicationCommandData().Options {
		if o.Name == "mode" {
			mode = o.StringValue()
		}
	}
	switch mode {
	case "on":
		sess.SetLoop(true)
		on = true
	case "off":
		sess.SetLoop(false)
	default:
		on = sess.ToggleLoop()
	}
	slog.Info("cmd loop", "guildID", i.GuildID, "userID", userIDOf(i), "on", on)
	if on {
		h.replyEmbed(s, i, ui.LoopOn(), false)
	} else {
		h.replyEmbed(s, i, ui.LoopOff(), false)
	}
}

func (h *CommandHandler) cmdVolume(s *discordgo.Session, i *discordgo.InteractionCreate) {
	sess, err := h.liveSession(s, i)
	if err != nil {
		h.replyEmbed(s, i, ui.Error(err.Error()), true)
		return
	}
	percent := 0
	for _, o := range i.ApplicationCommandData().Options {
		if o.Name == "percent" {
			percent = int(o.IntValue())
		}
	}
	applied, err := sess.SetVolume(percent)
	if err != nil {
		h.replyEmbed(s, i, ui.Error("nothing is currently playing"), true)
		return
	}
	slog.Info("cmd volume", "guildID", i.GuildID, "userID", userIDOf(i), "requested", percent, "applied", applied)
	h.replyEmbed(s, i, ui.VolumeSet(applied), false)
}

func (h *CommandHandler) cmdLyrics(s *discordgo.Session, i *discordgo.InteractionCreate) {
	sess := h.reg.Peek(i.GuildID)
	if sess == nil || sess.Closed() {
		h.replyEmbed(s, i, ui.Error("nothing is currently playing"), true)
		return
	}
	cur := sess.Current()
	if cur == nil {
		h.replyEmbed(s, i, ui.Error("nothing is currently playing"), true)
		return
	}

	h.deferReply(s, i)
	text, err := h.lyr.Search(cur.Artist, cur.Title)
	if err != nil {
		slog.Debug("lyrics lookup failed", "guildID", i.GuildID, "title", cur.Title, "err", err)
		h.editReplyEmbed(s, i, ui.Error(fmt.Sprintf("No lyrics found for **%s**.", utils.EscapeMd(cur.Title))))
		return
	}
	slog.Debug("cmd lyrics", "guildID", i.GuildID, "title", cur.Title)
	h.editReplyEmbed(s, i, ui.Lyrics(cur.Title, text))
}

func (h *CommandHandler) cmdNowPlaying(s *discordgo.Session, i *discordgo.InteractionCreate) {
	sess := h.reg.Peek(i.GuildID)
	if sess == nil || sess.Closed() {
		h.replyEmbed(s, i, ui.Error("nothing is currently playing"), true)
		return
	}
	cur := sess.Current()
	if cur == nil {
		h.replyEmbed(s, i, ui.Error("nothing is currently playing"), true)
		return
	}
	slog.Debug("cmd now-playing", "guildID", i.GuildID, "title", cur.Title)
	h.replyEmbed(s, i, ui.Queue(*cur, sess.Position(), sess.Queue()), false)
}

func (h *CommandHandler) cmdClear(s *discordgo.Session, i *discordgo.InteractionCreate) {
	number := 10
	for _, o := range i.ApplicationCommandData().Options {
		if o.Name == "number" {
			number = int(o.IntValue())
		}
	}
	if number < 1 {
		number = 1
	}
	if number > 100 {
		number = 100
	}

	h.deferReply(s, i)
	msgs, err := s.ChannelMessages(i.ChannelID, number, "", "", "")
	if err != nil {
		slog.Warn("fetch messages failed", "guildID", i.GuildID, "channelID", i.ChannelID, "err", err)
		h.editReplyEmbed(s, i, ui.Error("couldn't fetch messages to delete"))
		return
	}
	ids := make([]string, 0, len(msgs))
	for _, m := range msgs {
		ids = append(ids, m.ID)
	}
	if err := s.ChannelMessagesBulkDelete(i.ChannelID, ids); err != nil {
		slog.Warn("bulk delete failed", "guildID", i.GuildID, "channelID", i.ChannelID, "err", err)
		h.editReplyEmbed(s, i, ui.Error("couldn't delete messages, check my permissions"))
		return
	}
	slog.Info("cmd clear", "guildID", i.GuildID, "userID", userIDOf(i), "deleted", len(ids))
	h.editReplyEmbed(s, i, ui.MessagesCleared(len(ids)))
}

func (h *CommandHandler) cmdPlaylist(s *discordgo.Session, i *discordgo.InteractionCreate) {
	sub := i.ApplicationCommandData().Options[0]
	switch sub.Name {
	case "add":
		var name, song string
		for _, o := range sub.Options {
			if o.Name == "name" {
				name = o.StringValue()
			} else if o.Name == "song" {
				song = o.StringValue()
			}
		}
		count, err := h.store.AddSong(i.GuildID, name, song, userIDOf(i))
		if err != nil {
			slog.Warn("playlist add failed", "guildID", i.GuildID, "name", name, "err", err)
			h.replyEmbed(s, i, ui.Error("failed to save the playlist"), true)
			return
		}
		slog.Info("playlist add", "guildID", i.GuildID, "userID", userIDOf(i), "name", name, "count", count)
		h.replyEmbed(s, i, ui.AddedToPlaylist(name, song, count), false)

	case "play":
		var name string
		for _, o := range sub.Options {
			if o.Name == "name" {
				name = o.StringValue()
			}
		}
		pl, err := h.store.Get(i.GuildID, name)
		if err != nil {
			h.replyEmbed(s, i, ui.Error(playlistErrorText(err, name)), true)
			return
		}
		sess, err := h.ensureSession(s, i)
		if err != nil {
			h.replyEmbed(s, i, ui.Error(err.Error()), true)
			return
		}

		h.deferReply(s, i)
		queued, failed := 0, 0
		for _, song := range pl.Songs {
			ctx, cancel := context.WithTimeout(context.Background(), 60*time.Second)
			_, _, err := sess.Play(ctx, song, userIDOf(i))
			cancel()
			if err != nil {
				slog.Debug("playlist song failed", "guildID", i.GuildID, "name", name, "song", song, "err", err)
				failed++
				continue
			}
			queued++
		}
		slog.Info("playlist play", "guildID", i.GuildID, "userID", userIDOf(i), "name", name, "queued", queued, "failed", failed)
		if queued == 0 {
			h.editReplyEmbed(s, i, ui.Error(fmt.Sprintf("None of the songs in **%s** could be played.", utils.EscapeMd(name))))
			return
		}
		h.editReplyEmbed(s, i, ui.PlaylistStarted(name, queued, failed))

	case "list":
		lists, err := h.store.List(i.GuildID)
		if err != nil {
			slog.Warn("playlist list failed", "guildID", i.GuildID, "err", err)
			h.replyEmbed(s, i, ui.Error("failed to read playlists"), true)
			return
		}
		h.replyEmbed(s, i, ui.Playlists(lists), false)
	}
}

func playlistErrorText(err error, name string) string {
	switch {
	case errors.Is(err, playlist.ErrNotFound):
		return fmt.Sprintf("No playlist named **%s** exists.", utils.EscapeMd(name))
	case errors.Is(err, playlist.ErrEmpty):
		return fmt.Sprintf("The playlist **%s** has no songs.", utils.EscapeMd(name))
	}
	return "failed to read the playlist"
}

func (h *CommandHandler) cmdConfig(s *discordgo.Session, i *discordgo.InteractionCreate) {
	ctx := context.Background()
	set, err := h.repo.UpsertSettings(ctx, i.GuildID)
	if err != nil {
		slog.Error("load settings failed", "guildID", i.GuildID, "err", err)
		h.replyEmbed(s, i, ui.Error("failed to fetch config"), true)
		return
	}

	sub := i.ApplicationCommandData().Options[0]
	switch sub.Name {
	case "get":
		msg := fmt.Sprintf(
			"- Wait before leaving after queue empties: %ds\n- Default volume: %d%%\n- Max volume: %d%%\n- Leave if no listeners: %t",
			set.SecondsWaitAfterEmpty, set.DefaultVolume, set.MaxVolume, set.LeaveIfNoListeners,
		)
		h.replyEmbed(s, i, ui.Success(msg), false)
		return

	case "set-wait-after-queue-empties":
		delay := int(sub.Options[0].IntValue())
		if delay < 1 {
			h.replyEmbed(s, i, ui.Error("delay must be at least 1 second"), true)
			return
		}
		set.SecondsWaitAfterEmpty = delay
	case "set-default-volume":
		level := int(sub.Options[0].IntValue())
		if level < 0 || level > set.MaxVolume {
			h.replyEmbed(s, i, ui.Error(fmt.Sprintf("volume must be between 0 and %d", set.MaxVolume)), true)
			return
		}
		set.DefaultVolume = level
	case "set-max-volume":
		level := int(sub.Options[0].IntValue())
		if level < 1 || level > 100 {
			h.replyEmbed(s, i, ui.Error("max volume must be between 1 and 100"), true)
			return
		}
		set.MaxVolume = level
		if set.DefaultVolume > level {
			set.DefaultVolume = level
		}
	case "set-leave-if-no-listeners":
		set.LeaveIfNoListeners = sub.Options[0].BoolValue()
	default:
		return
	}

	if err := h.repo.UpdateSettings(ctx, set); err != nil {
		slog.Error("update settings failed", "guildID", i.GuildID, "err", err)
		h.replyEmbed(s, i, ui.Error("failed to update config"), true)
		return
	}
	slog.Info("config updated", "guildID", i.GuildID, "userID", userIDOf(i), "key", sub.Name)
	h.replyEmbed(s, i, ui.Success("Setting updated. New sessions will use it."), false)
}

func (h *CommandHandler) cmdHelp(s *discordgo.Session, i *discordgo.InteractionCreate) {
	descs := make(map[string]string)
	for _, c := range commandCatalog() {
		descs[c.Name] = c.Description
	}
	h.replyEmbed(s, i, ui.Help(descs), true)
}

func userIDOf(i *discordgo.InteractionCreate) string {
	if i == nil || i.Member == nil || i.Member.User == nil {
		return ""
	}
	return i.Member.User.ID
}

func userNameOf(i *discordgo.InteractionCreate) string {
	if i == nil || i.Member == nil || i.Member.User == nil {
		return "someone"
	}
	if i.Member.Nick != "" {
		return i.Member.Nick
	}
	return i.Member.User.Username
}
