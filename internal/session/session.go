package session

import (
	"context"
	"log/slog"
	"sync"
	"time"
)

const (
	DefaultVolume   = 100
	DefaultIdleWait = 180 * time.Second

	resolveTimeout = 30 * time.Second
)

type Options struct {
	GuildID   string
	ChannelID string // notification channel, set by the command that created the session
	Resolver  Resolver
	Renderer  Renderer
	Announcer Announcer
	Voice     VoiceConn
	IdleWait  time.Duration
	Volume    int
	MaxVolume int

	// OnTerminate runs once, after the session has been torn down, so the
	// owner can drop it from its registry.
	OnTerminate func(guildID string)
}

// Session is the per-guild playback state machine. All mutation happens under
// mu; the renderer's completion callback and the inactivity timer are
// independent triggers, so every entry point rechecks ownership (generation
// counter) and the closed flag before touching state.
type Session struct {
	guildID     string
	resolver    Resolver
	renderer    Renderer
	ann         Announcer
	voice       VoiceConn
	idleWait    time.Duration
	maxVolume   int
	onTerminate func(string)

	mu        sync.Mutex
	channelID string
	queue     []Track
	current   *Track
	status    Status
	loop      bool
	volume    int
	votes     map[string]struct{}
	surface   *Surface
	idleTimer *time.Timer
	handle    Handle
	gen       uint64
	closed    bool
}

func New(opts Options) *Session {
	if opts.IdleWait <= 0 {
		opts.IdleWait = DefaultIdleWait
	}
	if opts.MaxVolume <= 0 {
		opts.MaxVolume = DefaultVolume
	}
	if opts.Volume <= 0 {
		opts.Volume = DefaultVolume
	}
	if opts.Volume > opts.MaxVolume {
		opts.Volume = opts.MaxVolume
	}
	return &Session{
		guildID:     opts.GuildID,
		resolver:    opts.Resolver,
		renderer:    opts.Renderer,
		ann:         opts.Announcer,
		voice:       opts.Voice,
		idleWait:    opts.IdleWait,
		maxVolume:   opts.MaxVolume,
		onTerminate: opts.OnTerminate,
		channelID:   opts.ChannelID,
		volume:      opts.Volume,
		votes:       make(map[string]struct{}),
		status:      StatusIdle,
	}
}

func (s *Session) GuildID() string { return s.guildID }

func (s *Session) SetNotifyChannel(channelID string) {
	s.mu.Lock()
	s.channelID = channelID
	s.mu.Unlock()
}

func (s *Session) NotifyChannel() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.channelID
}

// Play resolves input and either starts it right away or appends it to the
// queue when something is already current. Returns the resolved track and
// whether it was queued rather than started.
func (s *Session) Play(ctx context.Context, input, requestedBy string) (Track, bool, error) {
	t, err := s.resolver.Resolve(ctx, input)
	if err != nil {
		return Track{}, false, err
	}
	t.RequestedBy = requestedBy
	queued, err := s.Enqueue(ctx, t)
	return t, queued, err
}

// Enqueue applies the single enqueue policy: append while a track is current,
// start immediately otherwise. No priorities, no reordering.
func (s *Session) Enqueue(ctx context.Context, t Track) (bool, error) {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return false, ErrClosed
	}
	if s.current != nil {
		s.queue = append(s.queue, t)
		s.mu.Unlock()
		return true, nil
	}
	err := s.startLocked(ctx, t, true)
	s.mu.Unlock()
	return false, err
}

// startLocked makes t current and begins rendering it. announce controls
// whether the previous surface is replaced and a now-playing message is sent;
// loop replays keep the existing message since the title is unchanged.
// Called with mu held; mu is released around network work and held again on
// return. On render failure the session degrades to idle.
func (s *Session) startLocked(ctx context.Context, t Track, announce bool) error {
	s.cancelIdleTimerLocked()
	s.votes = make(map[string]struct{})
	cur := t
	s.current = &cur
	s.status = StatusPlaying
	s.gen++
	gen := s.gen
	vol := s.volume
	channelID := s.channelID
	var oldSurface *Surface
	if announce {
		oldSurface = s.surface
		s.surface = nil
	}
	s.mu.Unlock()

	if oldSurface != nil {
		oldSurface.Disable()
	}
	var surf *Surface
	if announce {
		msgID, err := s.ann.NowPlaying(channelID, t)
		if err != nil {
			slog.Warn("now-playing announce failed", "guildID", s.guildID, "err", err)
		} else if msgID != "" {
			surf = NewSurface(s.ann, channelID, msgID)
		}
	}

	h, err := s.renderer.Start(ctx, t, vol, func(playErr error) {
		s.handleTrackEnd(gen, playErr)
	})

	s.mu.Lock()
	if s.closed || s.gen != gen {
		// raced with stop, a newer start, or our own track already ending;
		// undo our side effects
		s.mu.Unlock()
		if h != nil {
			h.Stop()
		}
		if surf != nil {
			surf.Disable()
		}
		s.mu.Lock()
		return nil
	}
	if err != nil {
		s.current = nil
		s.status = StatusIdle
		s.handle = nil
		s.armIdleTimerLocked()
		s.mu.Unlock()
		if surf != nil {
			surf.Disable()
		}
		s.mu.Lock()
		return err
	}
	s.handle = h
	if announce {
		s.surface = surf
	}
	return nil
}

// handleTrackEnd is the advance protocol. It runs on the renderer's goroutine
// and may race with commands and teardown, so it only proceeds while it still
// owns the generation it was armed for.
func (s *Session) handleTrackEnd(gen uint64, playErr error) {
	s.mu.Lock()
	if s.closed || gen != s.gen {
		s.mu.Unlock()
		return
	}
	if playErr != nil {
		slog.Error("player error", "guildID", s.guildID, "err", playErr)
	}
	s.handle = nil
	s.cancelIdleTimerLocked()
	s.votes = make(map[string]struct{})

	switch {
	case s.loop && s.current != nil:
		origin := s.current.OriginURL
		requestedBy := s.current.RequestedBy
		s.mu.Unlock()

		// the old stream URL may have been single-use; fetch a fresh one
		ctx, cancel := context.WithTimeout(context.Background(), resolveTimeout)
		fresh, err := s.resolver.Resolve(ctx, origin)
		cancel()

		s.mu.Lock()
		if s.closed || gen != s.gen {
			s.mu.Unlock()
			return
		}
		if err != nil {
			slog.Error("loop re-resolve failed", "guildID", s.guildID, "url", origin, "err", err)
			s.degradeToIdleLocked()
			s.mu.Unlock()
			return
		}
		fresh.RequestedBy = requestedBy
		if err := s.startLocked(context.Background(), fresh, false); err != nil {
			slog.Error("loop replay failed", "guildID", s.guildID, "url", origin, "err", err)
		}
		s.mu.Unlock()

	case len(s.queue) > 0:
		next := s.queue[0]
		s.queue = s.queue[1:]
		if err := s.startLocked(context.Background(), next, true); err != nil {
			slog.Error("advance to next track failed", "guildID", s.guildID, "title", next.Title, "err", err)
		}
		s.mu.Unlock()

	default:
		s.degradeToIdleLocked()
		s.mu.Unlock()
	}
}

// degradeToIdleLocked clears the current slot, retires the surface and arms
// the inactivity timer. The generation bump orphans any start still in
// flight for the track that just ended, so a completion racing ahead of
// startLocked's relock can't leave a dead handle or live surface installed.
// Caller holds mu; released briefly to edit the surface message.
func (s *Session) degradeToIdleLocked() {
	s.gen++
	s.current = nil
	s.status = StatusIdle
	surf := s.surface
	s.surface = nil
	s.armIdleTimerLocked()
	if surf != nil {
		s.mu.Unlock()
		surf.Disable()
		s.mu.Lock()
	}
}

// Stop halts playback and empties the queue while keeping the voice
// connection. The generation bump orphans the in-flight completion callback
// so it cannot restart anything.
func (s *Session) Stop() error {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return ErrClosed
	}
	if s.current == nil {
		s.mu.Unlock()
		return ErrNothingPlaying
	}
	s.gen++
	h := s.handle
	s.handle = nil
	s.queue = nil
	s.current = nil
	s.status = StatusIdle
	s.votes = make(map[string]struct{})
	surf := s.surface
	s.surface = nil
	s.armIdleTimerLocked()
	s.mu.Unlock()

	if h != nil {
		h.Stop()
	}
	if surf != nil {
		surf.Disable()
	}
	return nil
}

// Skip forces the completion signal early so the ordinary advance protocol
// runs; it never duplicates that logic. With an empty queue and loop off it
// is rejected so a bare skip can't silently end playback.
func (s *Session) Skip() error {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return ErrClosed
	}
	if s.current == nil {
		s.mu.Unlock()
		return ErrNothingPlaying
	}
	if len(s.queue) == 0 && !s.loop {
		s.mu.Unlock()
		return ErrNothingToSkipTo
	}
	h := s.handle
	s.mu.Unlock()
	if h != nil {
		h.Stop()
	}
	return nil
}

// VoteSkip records one vote per user. Quorum is floor(eligible/2)+1 where
// eligible excludes the bot. On quorum the skip goes through the same
// stop-triggers-advance path as Skip, without the empty-queue guard.
func (s *Session) VoteSkip(userID string, eligibleListeners int) (votes, quorum int, skipped bool, err error) {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return 0, 0, false, ErrClosed
	}
	if s.current == nil {
		s.mu.Unlock()
		return 0, 0, false, ErrNothingPlaying
	}
	quorum = eligibleListeners/2 + 1
	if _, ok := s.votes[userID]; ok {
		votes = len(s.votes)
		s.mu.Unlock()
		return votes, quorum, false, ErrAlreadyVoted
	}
	s.votes[userID] = struct{}{}
	votes = len(s.votes)
	if votes < quorum {
		s.mu.Unlock()
		return votes, quorum, false, nil
	}
	s.votes = make(map[string]struct{})
	h := s.handle
	s.mu.Unlock()
	if h != nil {
		h.Stop()
	}
	return votes, quorum, true, nil
}

func (s *Session) Pause() error {
	s.mu.Lock()
	if s.status != StatusPlaying {
		s.mu.Unlock()
		return ErrNothingPlaying
	}
	s.status = StatusPaused
	h := s.handle
	s.mu.Unlock()
	if h != nil {
		h.Pause()
	}
	return nil
}

func (s *Session) Resume() error {
	s.mu.Lock()
	if s.status != StatusPaused {
		s.mu.Unlock()
		return ErrNotPaused
	}
	s.status = StatusPlaying
	h := s.handle
	s.mu.Unlock()
	if h != nil {
		h.Resume()
	}
	return nil
}

// SetVolume clamps to [0, max] rather than rejecting out-of-range values and
// returns what was applied.
func (s *Session) SetVolume(percent int) (int, error) {
	s.mu.Lock()
	if s.current == nil {
		s.mu.Unlock()
		return 0, ErrNothingPlaying
	}
	if percent < 0 {
		percent = 0
	}
	if percent > s.maxVolume {
		percent = s.maxVolume
	}
	s.volume = percent
	h := s.handle
	s.mu.Unlock()
	if h != nil {
		h.SetVolume(percent)
	}
	return percent, nil
}

func (s *Session) SetLoop(on bool) {
	s.mu.Lock()
	s.loop = on
	s.mu.Unlock()
}

func (s *Session) ToggleLoop() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.loop = !s.loop
	return s.loop
}

func (s *Session) Loop() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.loop
}

func (s *Session) Status() Status {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.status
}

func (s *Session) Current() *Track {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.current == nil {
		return nil
	}
	t := *s.current
	return &t
}

// Position reports how far into the current track playback is, or zero when
// nothing is playing.
func (s *Session) Position() time.Duration {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.handle == nil {
		return 0
	}
	return s.handle.Position()
}

func (s *Session) Queue() []Track {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]Track, len(s.queue))
	copy(out, s.queue)
	return out
}

func (s *Session) QueueLen() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.queue)
}

func (s *Session) Volume() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.volume
}

func (s *Session) Surface() *Surface {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.surface
}

func (s *Session) VoiceChannelID() string {
	return s.voice.ChannelID()
}

func (s *Session) Closed() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.closed
}

func (s *Session) armIdleTimerLocked() {
	if s.idleTimer != nil {
		s.idleTimer.Stop()
	}
	s.idleTimer = time.AfterFunc(s.idleWait, s.idleTimeout)
}

func (s *Session) cancelIdleTimerLocked() {
	if s.idleTimer != nil {
		s.idleTimer.Stop()
		s.idleTimer = nil
	}
}

// idleTimeout fires after the session has sat idle for the configured wait.
// Playback may have resumed between arming and firing, so it rechecks before
// tearing anything down.
func (s *Session) idleTimeout() {
	s.mu.Lock()
	if s.closed || s.current != nil || len(s.queue) > 0 {
		s.mu.Unlock()
		return
	}
	channelID := s.channelID
	cleanup := s.teardownLocked()
	s.mu.Unlock()

	cleanup()
	s.ann.Disconnected(channelID)
	slog.Info("session closed after inactivity", "guildID", s.guildID)
}

// Teardown stops playback, disables the surface, releases the voice
// connection and notifies the owner. Safe to call repeatedly and safe to run
// concurrently with an in-flight completion callback: the generation bump
// turns that callback into a no-op.
func (s *Session) Teardown() {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return
	}
	cleanup := s.teardownLocked()
	s.mu.Unlock()
	cleanup()
}

// teardownLocked marks the session closed and returns the cleanup that must
// run without the lock held.
func (s *Session) teardownLocked() func() {
	s.closed = true
	s.gen++
	h := s.handle
	s.handle = nil
	surf := s.surface
	s.surface = nil
	s.cancelIdleTimerLocked()
	s.queue = nil
	s.current = nil
	s.status = StatusIdle
	return func() {
		if h != nil {
			h.Stop()
		}
		if surf != nil {
			surf.Disable()
		}
		s.voice.Disconnect()
		if s.onTerminate != nil {
			s.onTerminate(s.guildID)
		}
	}
}
