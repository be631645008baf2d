package ui

import (
	"strings"
	"testing"
	"time"

	"github.com/leodahl/chorus/internal/playlist"
	"github.com/leodahl/chorus/internal/session"
)

func track(n string) session.Track {
	return session.Track{
		Title:       "song " + n,
		OriginURL:   "https://example.com/" + n,
		RequestedBy: "u1",
		Duration:    3 * time.Minute,
	}
}

func TestNowPlayingLiveVsDuration(t *testing.T) {
	tr := track("a")
	e := NowPlaying(tr)
	if !strings.Contains(e.Description, "3:00") {
		t.Errorf("expected formatted duration, got %q", e.Description)
	}

	tr.IsLive = true
	e = NowPlaying(tr)
	if !strings.Contains(e.Description, "live") {
		t.Errorf("expected live marker, got %q", e.Description)
	}
}

func TestQueueTruncatesLongQueues(t *testing.T) {
	cur := track("now")
	var queue []session.Track
	for range 400 {
		queue = append(queue, track(strings.Repeat("x", 40)))
	}
	e := Queue(cur, time.Minute, queue)
	if len(e.Description) > 4096 {
		t.Errorf("description exceeds embed limit: %d", len(e.Description))
	}
	if !strings.Contains(e.Description, "more") {
		t.Error("expected overflow marker for truncated queue")
	}
	if e.Fields[0].Value != "400 songs" {
		t.Errorf("queue count = %q", e.Fields[0].Value)
	}
}

func TestQueueCount(t *testing.T) {
	if got := queueCount(0); got != "-" {
		t.Errorf("zero: got %q", got)
	}
	if got := queueCount(1); got != "1 song" {
		t.Errorf("one: got %q", got)
	}
	if got := queueCount(7); got != "7 songs" {
		t.Errorf("many: got %q", got)
	}
}

func TestLyricsTruncated(t *testing.T) {
	e := Lyrics("a song", strings.Repeat("la ", 2000))
	if got := len([]rune(e.Description)); got > maxLyricsLen {
		t.Errorf("lyrics length = %d, want <= %d", got, maxLyricsLen)
	}
}

func TestProgressBar(t *testing.T) {
	if got := ProgressBar(0, 0.5); got != "" {
		t.Errorf("zero width: got %q", got)
	}
	if got := len([]rune(ProgressBar(10, 0.5))); got != 10 {
		t.Errorf("width = %d, want 10", got)
	}
	if got := ProgressBar(10, -1); got != ProgressBar(10, 0) {
		t.Errorf("negative progress should clamp to 0, got %q", got)
	}
	if got := ProgressBar(10, 2); got != ProgressBar(10, 1) {
		t.Errorf("overshoot should clamp to 1, got %q", got)
	}
	if !strings.Contains(ProgressBar(10, 0.5), "🔘") {
		t.Error("bar has no position dot")
	}
}

func TestPlaylistsEmpty(t *testing.T) {
	e := Playlists(nil)
	if !strings.Contains(e.Description, "No playlists yet") {
		t.Errorf("got %q", e.Description)
	}
	e = Playlists([]playlist.Summary{{Name: "mix", Songs: 3, Creator: "u1"}})
	if !strings.Contains(e.Description, "mix") || !strings.Contains(e.Description, "3 songs") {
		t.Errorf("got %q", e.Description)
	}
}
