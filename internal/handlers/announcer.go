package handlers

import (
	"log/slog"

	"github.com/bwmarrin/discordgo"

	"github.com/leodahl/chorus/internal/session"
	"github.com/leodahl/chorus/internal/ui"
)

const (
	controlPause  = "controls:pause"
	controlResume = "controls:resume"
	controlSkip   = "controls:skip"
	controlLoop   = "controls:loop"
	controlStop   = "controls:stop"
)

func controlRow(disabled bool) []discordgo.MessageComponent {
	return []discordgo.MessageComponent{
		discordgo.ActionsRow{Components: []discordgo.MessageComponent{
			discordgo.Button{Label: "⏸️ Pause", Style: discordgo.SecondaryButton, CustomID: controlPause, Disabled: disabled},
			discordgo.Button{Label: "▶️ Resume", Style: discordgo.SecondaryButton, CustomID: controlResume, Disabled: disabled},
			discordgo.Button{Label: "⏩ Skip", Style: discordgo.SecondaryButton, CustomID: controlSkip, Disabled: disabled},
			discordgo.Button{Label: "🔁 Loop", Style: discordgo.SecondaryButton, CustomID: controlLoop, Disabled: disabled},
			discordgo.Button{Label: "⏹️ Stop", Style: discordgo.DangerButton, CustomID: controlStop, Disabled: disabled},
		}},
	}
}

// announcer posts playback notices to the guild's notification channel and
// manages the buttons attached to now-playing messages.
type announcer struct {
	s       *discordgo.Session
	guildID string
}

func (a *announcer) NowPlaying(channelID string, t session.Track) (string, error) {
	msg, err := a.s.ChannelMessageSendComplex(channelID, &discordgo.MessageSend{
		Embeds:     []*discordgo.MessageEmbed{ui.NowPlaying(t)},
		Components: controlRow(false),
	})
	if err != nil {
		return "", err
	}
	return msg.ID, nil
}

func (a *announcer) DisableControls(channelID, messageID string) {
	disabled := controlRow(true)
	_, err := a.s.ChannelMessageEditComplex(&discordgo.MessageEdit{
		ID:         messageID,
		Channel:    channelID,
		Components: &disabled,
	})
	if err != nil {
		slog.Warn("disable controls failed", "guildID", a.guildID, "messageID", messageID, "err", err)
	}
}

func (a *announcer) Disconnected(channelID string) {
	if _, err := a.s.ChannelMessageSendEmbed(channelID, ui.Disconnected()); err != nil {
		slog.Warn("disconnect notice failed", "guildID", a.guildID, "err", err)
	}
}

// voiceConn wraps the discordgo voice connection for the session.
type voiceConn struct {
	vc *discordgo.VoiceConnection
}

func (v *voiceConn) ChannelID() string { return v.vc.ChannelID }

func (v *voiceConn) Disconnect() {
	_ = v.vc.Speaking(false)
	if err := v.vc.Disconnect(); err != nil {
		slog.Warn("voice disconnect failed", "channelID", v.vc.ChannelID, "err", err)
	}
}
