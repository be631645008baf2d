package handlers

import (
	"errors"
	"log/slog"

	"github.com/bwmarrin/discordgo"

	"github.com/leodahl/chorus/internal/session"
	"github.com/leodahl/chorus/internal/ui"
)

// handleComponent routes now-playing control buttons. Presses are only
// honored when the button belongs to the live surface and the presser shares
// the bot's voice channel; everything else gets an ephemeral rejection.
func (h *CommandHandler) handleComponent(s *discordgo.Session, i *discordgo.InteractionCreate) {
	customID := i.MessageComponentData().CustomID

	sess := h.reg.Peek(i.GuildID)
	if sess == nil || sess.Closed() {
		h.replyEmbed(s, i, ui.Error("nothing is currently playing"), true)
		return
	}
	surf := sess.Surface()
	if surf == nil || i.Message == nil || surf.MessageID() != i.Message.ID {
		// stale controls from an earlier song
		h.replyEmbed(s, i, ui.Error("these controls are no longer active"), true)
		return
	}
	userCh, _ := userInVoice(s, i.GuildID, userIDOf(i))
	if !surf.CanControl(userCh, sess.VoiceChannelID()) {
		h.replyEmbed(s, i, ui.Error("you need to be in the same voice channel as the bot"), true)
		return
	}

	switch customID {
	case controlPause:
		if err := sess.Pause(); err != nil {
			h.replyEmbed(s, i, ui.Error("nothing is currently playing"), true)
			return
		}
		slog.Info("control pause", "guildID", i.GuildID, "userID", userIDOf(i))
		h.replyEmbed(s, i, ui.Paused(), false)

	case controlResume:
		if err := sess.Resume(); err != nil {
			h.replyEmbed(s, i, ui.Error("playback is not paused"), true)
			return
		}
		slog.Info("control resume", "guildID", i.GuildID, "userID", userIDOf(i))
		h.replyEmbed(s, i, ui.Resumed(), false)

	case controlSkip:
		if err := sess.Skip(); err != nil {
			if errors.Is(err, session.ErrNothingToSkipTo) {
				h.replyEmbed(s, i, ui.Error("the queue is empty, there is nothing to skip to"), true)
				return
			}
			h.replyEmbed(s, i, ui.Error("nothing is currently playing"), true)
			return
		}
		slog.Info("control skip", "guildID", i.GuildID, "userID", userIDOf(i))
		h.replyEmbed(s, i, ui.Skipped(), false)

	case controlLoop:
		on := sess.ToggleLoop()
		slog.Info("control loop", "guildID", i.GuildID, "userID", userIDOf(i), "on", on)
		if on {
			h.replyEmbed(s, i, ui.LoopOn(), false)
		} else {
			h.replyEmbed(s, i, ui.LoopOff(), false)
		}

	case controlStop:
		if err := sess.Stop(); err != nil {
			h.replyEmbed(s, i, ui.Error("nothing is currently playing"), true)
			return
		}
		slog.Info("control stop", "guildID", i.GuildID, "userID", userIDOf(i))
		h.replyEmbed(s, i, ui.Stopped(), false)

	default:
		slog.Debug("unknown component", "customID", customID, "guildID", i.GuildID)
	}
}
