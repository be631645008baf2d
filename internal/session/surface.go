package session

import "sync"

// Surface is the set of interactive controls attached to one now-playing
// message. A session owns at most one live surface; superseded surfaces are
// disabled before being dropped so a stale message can never control a later
// track.
type Surface struct {
	mu        sync.Mutex
	ann       Announcer
	channelID string
	messageID string
	disabled  bool
}

func NewSurface(ann Announcer, channelID, messageID string) *Surface {
	return &Surface{ann: ann, channelID: channelID, messageID: messageID}
}

func (s *Surface) MessageID() string {
	return s.messageID
}

// CanControl reports whether a user may operate the surface. The caller must
// be connected to the same voice channel the bot renders into.
func (s *Surface) CanControl(userChannelID, botChannelID string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.disabled {
		return false
	}
	return userChannelID != "" && userChannelID == botChannelID
}

// Disable greys out the message's controls. Safe to call more than once; only
// the first call touches the wire.
func (s *Surface) Disable() {
	s.mu.Lock()
	if s.disabled {
		s.mu.Unlock()
		return
	}
	s.disabled = true
	s.mu.Unlock()

	s.ann.DisableControls(s.channelID, s.messageID)
}

func (s *Surface) Disabled() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.disabled
}
