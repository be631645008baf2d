package resolver

import (
	"context"
	"fmt"
	"strings"
	"sync"

	ytdlp "github.com/lrstanley/go-ytdlp"
)

type mediaInfo struct {
	ID         string
	Title      string
	Uploader   string
	Duration   float64
	IsLive     bool
	WebpageURL string
	URL        string
	Thumbnail  string
	Formats    []string
	ReqFormats []string
}

var installOnce sync.Once

// helpers to safely read pointer fields with defaults
func sv(ptr *string) string {
	if ptr == nil {
		return ""
	}
	return *ptr
}

func fv(ptr *float64) float64 {
	if ptr == nil {
		return 0
	}
	return *ptr
}

func bv(ptr *bool) bool {
	if ptr == nil {
		return false
	}
	return *ptr
}

// ytdlpGetInfo runs yt-dlp -J -f bestaudio/best against url. Search queries
// ("ytsearch1:...") come back as a one-entry container; the first entry wins.
func ytdlpGetInfo(ctx context.Context, url string) (*mediaInfo, error) {
	installOnce.Do(func() {
		ytdlp.MustInstall(ctx, nil)
	})

	cmd := ytdlp.New().
		Format("ba[acodec^=opus]/ba[ext=m4a]/bestaudio/best").
		NoCheckCertificates().
		DumpJSON()

	res, err := cmd.Run(ctx, url)
	if err != nil {
		return nil, fmt.Errorf("yt-dlp run: %w", err)
	}

	infos, err := res.GetExtractedInfo()
	if err != nil {
		return nil, fmt.Errorf("parse yt-dlp json: %w", err)
	}
	if len(infos) == 0 || infos[0] == nil {
		return nil, fmt.Errorf("parse yt-dlp json: no info returned")
	}
	ext := infos[0]

	if len(ext.Entries) > 0 {
		for _, e := range ext.Entries {
			if e != nil {
				return extractedToInfo(e), nil
			}
		}
		return nil, fmt.Errorf("parse yt-dlp json: empty result set")
	}
	return extractedToInfo(ext), nil
}

func extractedToInfo(e *ytdlp.ExtractedInfo) *mediaInfo {
	out := &mediaInfo{
		ID:         e.ID,
		Title:      sv(e.Title),
		Uploader:   sv(e.Uploader),
		Duration:   fv(e.Duration),
		IsLive:     bv(e.IsLive),
		WebpageURL: sv(e.WebpageURL),
		URL:        sv(e.URL),
	}
	for _, t := range e.Thumbnails {
		if t != nil && t.URL != "" {
			out.Thumbnail = t.URL
		}
	}
	for _, f := range e.Formats {
		if f != nil {
			out.Formats = append(out.Formats, f.URL)
		}
	}
	for _, f := range e.RequestedFormats {
		if f != nil {
			out.ReqFormats = append(out.ReqFormats, f.URL)
		}
	}
	return out
}

// audioURL returns the best playable URL. Preferred order: requested
// formats, top-level url, then formats[].
func audioURL(info *mediaInfo) string {
	for _, u := range info.ReqFormats {
		if strings.HasPrefix(u, "http") {
			return u
		}
	}
	if strings.HasPrefix(info.URL, "http") {
		return info.URL
	}
	for _, u := range info.Formats {
		if strings.HasPrefix(u, "http") {
			return u
		}
	}
	return info.WebpageURL
}
