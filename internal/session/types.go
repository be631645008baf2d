package session

import (
	"context"
	"errors"
	"time"
)

// Provider says how a track's playable stream was obtained. Tracks that came
// through a metadata service still carry the metadata page as OriginURL so a
// loop replay can re-resolve them the same way.
type Provider int

const (
	ProviderDirectStream Provider = iota
	ProviderMetadataLookup
)

type Track struct {
	Title       string
	Artist      string
	OriginURL   string // stable URL the track was resolved from
	StreamURL   string // ephemeral playable handle, may be single-use
	Provider    Provider
	Duration    time.Duration // 0 when unknown or live
	IsLive      bool
	Thumbnail   string
	RequestedBy string
}

type Status int

const (
	StatusIdle Status = iota
	StatusPlaying
	StatusPaused
)

var (
	ErrNothingPlaying  = errors.New("nothing is playing")
	ErrNotPaused       = errors.New("playback is not paused")
	ErrAlreadyPlaying  = errors.New("already playing")
	ErrNothingToSkipTo = errors.New("no more songs in the queue to skip to")
	ErrAlreadyVoted    = errors.New("you have already voted to skip")
	ErrClosed          = errors.New("session is closed")
)

// Resolver turns a user query or URL into a playable Track. Loop replays call
// it again with the track's OriginURL because stream URLs are not reusable.
type Resolver interface {
	Resolve(ctx context.Context, input string) (Track, error)
}

// Handle controls one in-flight render. Stop fires the render's completion
// callback early; the callback is delivered at most once per started render.
type Handle interface {
	Pause()
	Resume()
	SetVolume(percent int)
	Position() time.Duration
	Stop()
}

// Renderer is the audio subsystem. onDone is invoked exactly once from the
// renderer's own goroutine when the stream ends, fails, or is stopped.
type Renderer interface {
	Start(ctx context.Context, t Track, volume int, onDone func(error)) (Handle, error)
}

// VoiceConn is the guild's voice connection. Disconnect is idempotent.
type VoiceConn interface {
	ChannelID() string
	Disconnect()
}

// Announcer delivers status messages and owns the wire representation of the
// control surface. NowPlaying returns the ID of the message carrying the
// controls so the session can disable them later.
type Announcer interface {
	NowPlaying(channelID string, t Track) (messageID string, err error)
	DisableControls(channelID, messageID string)
	Disconnected(channelID string)
}
