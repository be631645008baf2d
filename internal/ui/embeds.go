package ui

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/bwmarrin/discordgo"

	"github.com/leodahl/chorus/internal/playlist"
	"github.com/leodahl/chorus/internal/session"
	"github.com/leodahl/chorus/internal/utils"
)

const (
	colorRed    = 0xE74C3C
	colorGreen  = 0x2ECC71
	colorBlue   = 0x3498DB
	colorOrange = 0xE67E22
	colorPurple = 0x9B59B6
	colorYellow = 0xF1C40F
)

const maxLyricsLen = 2048

func Error(message string) *discordgo.MessageEmbed {
	return &discordgo.MessageEmbed{
		Title:       "❌ Error",
		Description: message,
		Color:       colorRed,
	}
}

func Success(message string) *discordgo.MessageEmbed {
	return &discordgo.MessageEmbed{
		Title:       "✅ Success",
		Description: message,
		Color:       colorGreen,
	}
}

func Connected(channelName string) *discordgo.MessageEmbed {
	return &discordgo.MessageEmbed{
		Title:       "🔗 Connected",
		Description: fmt.Sprintf("Connected to **%s**.", channelName),
		Color:       colorGreen,
	}
}

func Disconnected() *discordgo.MessageEmbed {
	return &discordgo.MessageEmbed{
		Title:       "🔌 Disconnected",
		Description: "The bot has left the voice channel.",
		Color:       colorOrange,
	}
}

func trackLink(t session.Track) string {
	return fmt.Sprintf("[%s](%s)", utils.EscapeMd(t.Title), t.OriginURL)
}

func NowPlaying(t session.Track) *discordgo.MessageEmbed {
	dur := "live"
	if !t.IsLive {
		dur = utils.PrettyTime(int(t.Duration.Seconds()))
	}
	desc := fmt.Sprintf("**%s**\nRequested by: <@%s>\n\n`[ %s ]`",
		trackLink(t), t.RequestedBy, dur)

	embed := &discordgo.MessageEmbed{
		Title:       "🎵 Now playing",
		Description: desc,
		Color:       colorBlue,
	}
	if t.Artist != "" {
		embed.Footer = &discordgo.MessageEmbedFooter{
			Text: fmt.Sprintf("Source: %s", t.Artist),
		}
	}
	if t.Thumbnail != "" {
		embed.Thumbnail = &discordgo.MessageEmbedThumbnail{URL: t.Thumbnail}
	}
	return embed
}

func AddedToQueue(t session.Track, position int) *discordgo.MessageEmbed {
	return &discordgo.MessageEmbed{
		Title:       "➕ Added to queue",
		Description: fmt.Sprintf("The song **%s** has been added to the queue (position %d).", trackLink(t), position),
		Color:       colorPurple,
	}
}

func Skipped() *discordgo.MessageEmbed {
	return &discordgo.MessageEmbed{
		Title:       "⏩ Skipped",
		Description: "The current song has been skipped.",
		Color:       colorOrange,
	}
}

func Paused() *discordgo.MessageEmbed {
	return &discordgo.MessageEmbed{
		Title:       "⏸️ Paused",
		Description: "Playback has been paused.",
		Color:       colorYellow,
	}
}

func Resumed() *discordgo.MessageEmbed {
	return &discordgo.MessageEmbed{
		Title:       "▶️ Resumed",
		Description: "Playback has been resumed.",
		Color:       colorGreen,
	}
}

func Stopped() *discordgo.MessageEmbed {
	return &discordgo.MessageEmbed{
		Title:       "⏹️ Stopped",
		Description: "Playback has been stopped.",
		Color:       colorRed,
	}
}

func Lyrics(title, text string) *discordgo.MessageEmbed {
	return &discordgo.MessageEmbed{
		Title:       fmt.Sprintf("📜 Lyrics for %s", utils.Truncate(title, 200)),
		Description: utils.Truncate(text, maxLyricsLen),
		Color:       colorBlue,
	}
}

func VolumeSet(percent int) *discordgo.MessageEmbed {
	return &discordgo.MessageEmbed{
		Title:       "🔊 Volume Set",
		Description: fmt.Sprintf("The volume has been set to **%d%%**.", percent),
		Color:       colorGreen,
	}
}

func LoopOn() *discordgo.MessageEmbed {
	return &discordgo.MessageEmbed{
		Title:       "🔁 Loop On",
		Description: "The current song will now loop.",
		Color:       colorGreen,
	}
}

func LoopOff() *discordgo.MessageEmbed {
	return &discordgo.MessageEmbed{
		Title:       "🔁 Loop Off",
		Description: "The current song will no longer loop.",
		Color:       colorRed,
	}
}

func AddedToPlaylist(name, song string, count int) *discordgo.MessageEmbed {
	return &discordgo.MessageEmbed{
		Title:       "🎶 Added to Playlist",
		Description: fmt.Sprintf("The song **%s** has been added to the playlist **%s** (%d songs).", utils.EscapeMd(song), utils.EscapeMd(name), count),
		Color:       colorBlue,
	}
}

func PlaylistStarted(name string, queued, failed int) *discordgo.MessageEmbed {
	desc := fmt.Sprintf("Playing songs from the playlist **%s**.", utils.EscapeMd(name))
	if failed > 0 {
		desc += fmt.Sprintf("\n%d of %d songs could not be resolved.", failed, queued+failed)
	}
	return &discordgo.MessageEmbed{
		Title:       "🎵 Playlist Started",
		Description: desc,
		Color:       colorBlue,
	}
}

func Playlists(lists []playlist.Summary) *discordgo.MessageEmbed {
	if len(lists) == 0 {
		return &discordgo.MessageEmbed{
			Title:       "🎶 Playlists",
			Description: "No playlists yet. Use /playlist add to create one.",
			Color:       colorBlue,
		}
	}
	var b strings.Builder
	for i, pl := range lists {
		fmt.Fprintf(&b, "`%d.` **%s** `[ %d songs ]`\n", i+1, utils.EscapeMd(pl.Name), pl.Songs)
	}
	return &discordgo.MessageEmbed{
		Title:       "🎶 Playlists",
		Description: b.String(),
		Color:       colorBlue,
	}
}

func VoteSkip(userName string, votes, quorum int) *discordgo.MessageEmbed {
	return &discordgo.MessageEmbed{
		Title:       "🗳️ Vote to Skip",
		Description: fmt.Sprintf("**%s** has voted to skip the song.\nVotes: **%d/%d**", utils.EscapeMd(userName), votes, quorum),
		Color:       colorBlue,
	}
}

func MessagesCleared(number int) *discordgo.MessageEmbed {
	return &discordgo.MessageEmbed{
		Title:       "🧹 Messages Cleared",
		Description: fmt.Sprintf("Deleted %d messages.", number),
		Color:       colorGreen,
	}
}

func Queue(current session.Track, position time.Duration, queue []session.Track) *discordgo.MessageEmbed {
	desc := fmt.Sprintf("**%s**\nRequested by: <@%s>\n\n", trackLink(current), current.RequestedBy)
	if current.IsLive {
		desc += "`[ live ]`\n\n"
	} else if current.Duration > 0 {
		frac := position.Seconds() / current.Duration.Seconds()
		desc += fmt.Sprintf("%s\n`[ %s / %s ]`\n\n",
			ProgressBar(15, frac),
			utils.PrettyTime(int(position.Seconds())),
			utils.PrettyTime(int(current.Duration.Seconds())))
	}
	if len(queue) > 0 {
		desc += "**Up next:**\n"
		for i, t := range queue {
			dur := "live"
			if !t.IsLive {
				dur = utils.PrettyTime(int(t.Duration.Seconds()))
			}
			line := fmt.Sprintf("`%d.` %s `[ %s ]`\n", i+1, trackLink(t), dur)
			if len(desc)+len(line) > 4000 {
				desc += fmt.Sprintf("…and %d more", len(queue)-i)
				break
			}
			desc += line
		}
	}
	return &discordgo.MessageEmbed{
		Title:       "🎵 Now playing",
		Description: desc,
		Color:       colorBlue,
		Fields: []*discordgo.MessageEmbedField{
			{Name: "In queue", Value: queueCount(len(queue)), Inline: true},
		},
	}
}

func queueCount(n int) string {
	switch n {
	case 0:
		return "-"
	case 1:
		return "1 song"
	}
	return fmt.Sprintf("%d songs", n)
}

func Help(commands map[string]string) *discordgo.MessageEmbed {
	names := make([]string, 0, len(commands))
	for name := range commands {
		names = append(names, name)
	}
	sort.Strings(names)
	var b strings.Builder
	for _, name := range names {
		fmt.Fprintf(&b, "**/%s** - %s\n", name, commands[name])
	}
	return &discordgo.MessageEmbed{
		Title:       "ℹ️ Commands",
		Description: b.String(),
		Color:       colorBlue,
	}
}
