package main

import (
	"fmt"
	"net/url"
	"regexp"
	"strings"
)

// sourceKind identifies where an episode's audio or captions come from.
type sourceKind string

const (
	kindApple       sourceKind = "apple"
	kindSpotify     sourceKind = "spotify"
	kindRSS         sourceKind = "rss"
	kindDirectAudio sourceKind = "direct_audio"
	kindYouTube     sourceKind = "youtube"
	kindUnknown     sourceKind = "unknown"
)

// linkRef is the classified form of a raw user input. It is created once per
// request and discarded after resolution.
type linkRef struct {
	Kind     sourceKind
	RawInput string
	// ID is the canonical identifier for the kind: an 11-char video ID for
	// YouTube, the numeric podcast ID for Apple, the full URL for Spotify,
	// RSS and direct audio. Empty when the input is unrecognized.
	ID string
	// EpisodeID carries Apple's episode-level `i=` query parameter.
	EpisodeID string
}

var (
	rawVideoIDRe = regexp.MustCompile(`^[a-zA-Z0-9_-]{11}$`)
	appleIDRe    = regexp.MustCompile(`/id(\d+)`)
	digitsRe     = regexp.MustCompile(`^\d+$`)
	audioExtRe   = regexp.MustCompile(`\.(mp3|m4a|ogg|wav|aac)($|\?)`)
)

// classify turns an arbitrary input string into a linkRef. Pure function:
// no I/O, no side effects. Unrecognized input yields Kind == kindUnknown
// with an empty ID rather than an error; callers decide how to react.
func classify(input string) linkRef {
	raw := strings.TrimSpace(input)
	ref := linkRef{Kind: kindUnknown, RawInput: raw}

	// A bare 11-char token is a YouTube video ID.
	if rawVideoIDRe.MatchString(raw) {
		ref.Kind = kindYouTube
		ref.ID = raw
		return ref
	}

	u, err := url.Parse(raw)
	if err != nil || u.Host == "" {
		return ref
	}

	host := strings.ToLower(u.Host)
	lowerPath := strings.ToLower(u.Path)

	switch {
	case strings.Contains(host, "podcasts.apple.com"):
		ref.Kind = kindApple
		if m := appleIDRe.FindStringSubmatch(u.Path); m != nil {
			ref.ID = m[1]
		}
		if i := u.Query().Get("i"); digitsRe.MatchString(i) {
			ref.EpisodeID = i
		}

	case strings.Contains(host, "open.spotify.com"):
		// No stable public ID; the full URL feeds the oEmbed lookup.
		ref.Kind = kindSpotify
		ref.ID = raw

	case isYouTubeHost(host) || strings.Contains(lowerPath, "/embed/") || strings.Contains(lowerPath, "/shorts/"):
		ref.Kind = kindYouTube
		if id, err := extractVideoID(raw); err == nil {
			ref.ID = id
		}

	case audioExtRe.MatchString(lowerPath) || audioExtRe.MatchString(strings.ToLower(u.RawQuery)):
		ref.Kind = kindDirectAudio
		ref.ID = raw

	case strings.HasSuffix(lowerPath, ".xml") || strings.HasSuffix(lowerPath, ".rss") || strings.Contains(lowerPath, "/feed"):
		ref.Kind = kindRSS
		ref.ID = raw
	}

	return ref
}

func isYouTubeHost(host string) bool {
	host = strings.TrimPrefix(host, "www.")
	host = strings.TrimPrefix(host, "m.")
	return host == "youtube.com" || host == "youtu.be" || host == "music.youtube.com"
}

// extractVideoID pulls the video ID from various YouTube URL formats
// Supported formats:
//   - youtube.com/watch?v=VIDEO_ID
//   - youtu.be/VIDEO_ID
//   - youtube.com/embed/VIDEO_ID
//   - youtube.com/v/VIDEO_ID
//   - youtube.com/shorts/VIDEO_ID
//   - youtube.com/live/VIDEO_ID
//   - m.youtube.com/watch?v=VIDEO_ID
//   - With extra params: ?v=VIDEO_ID&t=123
func extractVideoID(url string) (string, error) {
	patterns := []string{
		// Standard watch URL (including mobile)
		`(?:m\.)?youtube\.com/watch\?v=([a-zA-Z0-9_-]{11})`,
		// Short URL
		`youtu\.be/([a-zA-Z0-9_-]{11})`,
		// Embed and legacy URLs
		`youtube\.com/(?:embed|v)/([a-zA-Z0-9_-]{11})`,
		// Shorts
		`youtube\.com/shorts/([a-zA-Z0-9_-]{11})`,
		// Live streams
		`youtube\.com/live/([a-zA-Z0-9_-]{11})`,
	}

	for _, pattern := range patterns {
		re := regexp.MustCompile(pattern)
		matches := re.FindStringSubmatch(url)
		if len(matches) > 1 {
			return matches[1], nil
		}
	}

	// Check if it's already just a video ID
	if rawVideoIDRe.MatchString(url) {
		return url, nil
	}

	return "", fmt.Errorf("could not extract video ID from: %s", url)
}
