package main

import (
	"context"
	"errors"
	"log/slog"
	"strings"
)

// transcriptStrategy is one way of obtaining timestamped segments for a
// video. Strategies fail fast with typed errors; fallback between them is
// explicit and sequential, never an automatic retry of the same strategy.
type transcriptStrategy interface {
	name() string
	fetch(ctx context.Context, videoID string) ([]transcriptSegment, error)
}

// transcriptFetcher walks an ordered strategy chain until one produces
// segments. The chain order reflects cost and fragility: library captions
// client, metered proxy, direct player endpoint, and finally audio download
// plus speech-to-text for videos with no captions at all.
type transcriptFetcher struct {
	strategies []transcriptStrategy
}

func newTranscriptFetcher(proxyURL, proxyKey, sttKey string) *transcriptFetcher {
	f := &transcriptFetcher{}
	f.strategies = append(f.strategies, newCaptionsStrategy())
	if proxyURL != "" && proxyKey != "" {
		f.strategies = append(f.strategies, newProxyStrategy(proxyURL, proxyKey))
	}
	f.strategies = append(f.strategies, newInnertubeStrategy())
	if sttKey != "" {
		f.strategies = append(f.strategies, newSpeechToTextStrategy(sttKey))
	}
	return f
}

func (f *transcriptFetcher) fetch(ctx context.Context, videoID string) (*transcript, error) {
	var lastErr error
	for _, s := range f.strategies {
		segments, err := s.fetch(ctx, videoID)
		if err == nil && len(segments) > 0 {
			logDebug("transcript strategy succeeded",
				slog.String("strategy", s.name()),
				slog.String("video_id", videoID),
				slog.Int("segments", len(segments)))
			return buildTranscript(segments), nil
		}
		if err == nil {
			err = notFound("strategy %s returned no segments", s.name())
		}

		// A bad video ID is terminal; no other strategy can fix it.
		var ae *apiError
		if errors.As(err, &ae) && ae.kind == errInvalidInput {
			return nil, err
		}

		logWarn("transcript strategy failed",
			slog.String("strategy", s.name()),
			slog.String("video_id", videoID),
			slog.String("error", err.Error()))
		lastErr = err
	}

	if lastErr == nil {
		lastErr = notFound("no captions available for this video")
	}
	return nil, lastErr
}

// captionTrackInfo is the strategy-neutral view of one caption track.
type captionTrackInfo struct {
	BaseURL      string
	LanguageCode string
	Kind         string // "asr" marks auto-generated tracks
}

// selectCaptionTrack picks a track: a manually authored English track first,
// then any track whose language code starts with "en", then the first track
// available. Resolution never hard-fails just because English is missing.
func selectCaptionTrack(tracks []captionTrackInfo) (*captionTrackInfo, error) {
	if len(tracks) == 0 {
		return nil, notFound("no caption tracks available for this video")
	}

	for i := range tracks {
		if isEnglish(tracks[i].LanguageCode) && tracks[i].Kind != "asr" {
			return &tracks[i], nil
		}
	}
	for i := range tracks {
		if isEnglish(tracks[i].LanguageCode) {
			return &tracks[i], nil
		}
	}
	return &tracks[0], nil
}

func isEnglish(languageCode string) bool {
	return strings.HasPrefix(strings.ToLower(languageCode), "en")
}
