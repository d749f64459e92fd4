package main

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/kkdai/youtube/v2"
)

// Strategy 1: library-mediated captions client. The Android client profile
// returns caption data without tripping bot detection the way a browser
// profile does. A session that hits an auth, bot-detection or rate-limit
// error is poisoned and must never be reused: it gets dropped and the next
// call creates a fresh one. Recreation is mutex-guarded and idempotent, so
// two requests racing to replace a poisoned client is safe.
type captionsStrategy struct {
	mu     sync.Mutex
	client *youtube.Client
}

func newCaptionsStrategy() *captionsStrategy {
	return &captionsStrategy{}
}

func (s *captionsStrategy) name() string { return "captions" }

func (s *captionsStrategy) getClient() *youtube.Client {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.client == nil {
		youtube.DefaultClient = youtube.AndroidClient
		s.client = &youtube.Client{
			HTTPClient: &http.Client{Timeout: 30 * time.Second},
		}
	}
	return s.client
}

func (s *captionsStrategy) reset() {
	s.mu.Lock()
	s.client = nil
	s.mu.Unlock()
}

func (s *captionsStrategy) fetch(ctx context.Context, videoID string) ([]transcriptSegment, error) {
	client := s.getClient()

	video, err := client.GetVideoContext(ctx, videoID)
	if err != nil {
		if isPoisonError(err) {
			s.reset()
		}
		return nil, mapYouTubeError(err)
	}

	tracks := make([]captionTrackInfo, 0, len(video.CaptionTracks))
	for _, t := range video.CaptionTracks {
		tracks = append(tracks, captionTrackInfo{
			BaseURL:      t.BaseURL,
			LanguageCode: t.LanguageCode,
			Kind:         t.Kind,
		})
	}

	track, err := selectCaptionTrack(tracks)
	if err != nil {
		return nil, err
	}
	return fetchCaptionTrack(ctx, http.DefaultClient, track.BaseURL)
}

// isPoisonError reports whether the session must be discarded.
func isPoisonError(err error) bool {
	if errors.Is(err, youtube.ErrLoginRequired) {
		return true
	}
	msg := strings.ToLower(err.Error())
	return strings.Contains(msg, "429") ||
		strings.Contains(msg, "rate") ||
		strings.Contains(msg, "sign in") ||
		strings.Contains(msg, "bot")
}

// mapYouTubeError folds the library's error values into the taxonomy.
func mapYouTubeError(err error) error {
	switch {
	case errors.Is(err, youtube.ErrVideoPrivate),
		errors.Is(err, youtube.ErrNotPlayableInEmbed):
		return notFound("video is private or unavailable")
	case errors.Is(err, youtube.ErrLoginRequired):
		return notFound("video requires login")
	case errors.Is(err, youtube.ErrInvalidCharactersInVideoID),
		errors.Is(err, youtube.ErrVideoIDMinLength):
		return invalidInput("invalid video id")
	}

	var statusErr *youtube.ErrPlayabiltyStatus
	if errors.As(err, &statusErr) {
		return notFound("video not playable: %s", statusErr.Reason)
	}

	msg := strings.ToLower(err.Error())
	if strings.Contains(msg, "429") || strings.Contains(msg, "rate") {
		return rateLimited("rate limited by video platform")
	}
	return upstreamWrap(err, "video metadata fetch failed")
}
