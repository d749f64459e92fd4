package main

import (
	"bytes"
	"context"
	"encoding/json"
	"html"
	"io"
	"net/http"
	"regexp"
	"strconv"
	"strings"
	"time"
)

// Strategy 3: call the platform's internal player-info endpoint directly,
// simulating a browser client, enumerate caption tracks and fetch the
// selected track's payload. No public API exists for this; the endpoint is
// unreliable by nature and every failure maps to a typed error.

const (
	defaultInnertubeURL = "https://www.youtube.com/youtubei/v1/player"
	webClientName       = "WEB"
	webClientVersion    = "2.20240726.00.00"
	browserUserAgent    = "Mozilla/5.0 (Macintosh; Intel Mac OS X 10_15_7) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/126.0.0.0 Safari/537.36"
)

type innertubeStrategy struct {
	endpoint string
	client   *http.Client
}

func newInnertubeStrategy() *innertubeStrategy {
	return &innertubeStrategy{
		endpoint: defaultInnertubeURL,
		client:   &http.Client{Timeout: 30 * time.Second},
	}
}

func (s *innertubeStrategy) name() string { return "innertube" }

// playerResponse - parsed from the player endpoint
type playerResponse struct {
	VideoDetails struct {
		VideoID string `json:"videoId"`
		Title   string `json:"title"`
	} `json:"videoDetails"`
	Captions struct {
		PlayerCaptionsTracklistRenderer struct {
			CaptionTracks []struct {
				BaseURL      string `json:"baseUrl"`
				LanguageCode string `json:"languageCode"`
				Kind         string `json:"kind"` // "asr" = auto-generated
			} `json:"captionTracks"`
		} `json:"playerCaptionsTracklistRenderer"`
	} `json:"captions"`
	PlayabilityStatus struct {
		Status string `json:"status"`
		Reason string `json:"reason"`
	} `json:"playabilityStatus"`
}

type innertubeRequest struct {
	Context struct {
		Client struct {
			ClientName    string `json:"clientName"`
			ClientVersion string `json:"clientVersion"`
		} `json:"client"`
	} `json:"context"`
	VideoID string `json:"videoId"`
}

func (s *innertubeStrategy) fetch(ctx context.Context, videoID string) ([]transcriptSegment, error) {
	pr, err := s.fetchPlayerResponse(ctx, videoID)
	if err != nil {
		return nil, err
	}
	if err := checkPlayability(pr); err != nil {
		return nil, err
	}

	raw := pr.Captions.PlayerCaptionsTracklistRenderer.CaptionTracks
	tracks := make([]captionTrackInfo, 0, len(raw))
	for _, t := range raw {
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
	return fetchCaptionTrack(ctx, s.client, track.BaseURL)
}

func (s *innertubeStrategy) fetchPlayerResponse(ctx context.Context, videoID string) (*playerResponse, error) {
	var reqBody innertubeRequest
	reqBody.Context.Client.ClientName = webClientName
	reqBody.Context.Client.ClientVersion = webClientVersion
	reqBody.VideoID = videoID

	jsonData, err := json.Marshal(reqBody)
	if err != nil {
		return nil, upstreamWrap(err, "failed to marshal player request")
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.endpoint, bytes.NewReader(jsonData))
	if err != nil {
		return nil, upstreamWrap(err, "failed to create player request")
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("User-Agent", browserUserAgent)

	resp, err := s.client.Do(req)
	if err != nil {
		return nil, upstreamWrap(err, "player endpoint unreachable")
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusTooManyRequests {
		return nil, rateLimited("rate limited by video platform")
	}
	if resp.StatusCode != http.StatusOK {
		return nil, upstream("player endpoint error: status %d", resp.StatusCode)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, upstreamWrap(err, "failed to read player response")
	}

	var pr playerResponse
	if err := json.Unmarshal(body, &pr); err != nil {
		return nil, upstream("malformed player response: %s", previewBody(body))
	}
	return &pr, nil
}

func checkPlayability(pr *playerResponse) error {
	reason := strings.ToLower(pr.PlayabilityStatus.Reason)

	switch pr.PlayabilityStatus.Status {
	case "UNPLAYABLE":
		return notFound("video is private or unavailable")
	case "LOGIN_REQUIRED":
		if strings.Contains(reason, "age") {
			return notFound("video is age-restricted")
		}
		return notFound("video requires login")
	case "ERROR":
		return notFound("video error: %s", pr.PlayabilityStatus.Reason)
	}
	return nil
}

// fetchCaptionTrack downloads a caption payload and parses it into
// timestamped segments. The json3 format is requested explicitly; timedtext
// XML is handled as a fallback since the endpoint ignores fmt on some
// tracks.
func fetchCaptionTrack(ctx context.Context, client *http.Client, baseURL string) ([]transcriptSegment, error) {
	sep := "?"
	if strings.Contains(baseURL, "?") {
		sep = "&"
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, baseURL+sep+"fmt=json3", nil)
	if err != nil {
		return nil, upstreamWrap(err, "failed to create caption request")
	}
	req.Header.Set("User-Agent", browserUserAgent)

	resp, err := client.Do(req)
	if err != nil {
		return nil, upstreamWrap(err, "caption fetch failed")
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusTooManyRequests {
		return nil, rateLimited("rate limited by video platform")
	}
	if resp.StatusCode != http.StatusOK {
		return nil, upstream("caption fetch failed: status %d", resp.StatusCode)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, upstreamWrap(err, "failed to read caption response")
	}
	if len(bytes.TrimSpace(body)) == 0 {
		return nil, notFound("empty caption payload")
	}

	if bytes.HasPrefix(bytes.TrimSpace(body), []byte("{")) {
		return parseJSON3Captions(body)
	}
	return parseTimedText(string(body))
}

// json3 captions are keyed by timed events, each carrying one or more text
// segments. Segments within an event are concatenated, internal newlines
// collapsed to spaces, and events that trim to nothing are discarded.
type json3Payload struct {
	Events []struct {
		TStartMs    int64 `json:"tStartMs"`
		DDurationMs int64 `json:"dDurationMs"`
		Segs        []struct {
			UTF8 string `json:"utf8"`
		} `json:"segs"`
	} `json:"events"`
}

func parseJSON3Captions(data []byte) ([]transcriptSegment, error) {
	var payload json3Payload
	if err := json.Unmarshal(data, &payload); err != nil {
		return nil, upstream("malformed json3 caption payload: %s", previewBody(data))
	}

	var segments []transcriptSegment
	for _, ev := range payload.Events {
		var b strings.Builder
		for _, seg := range ev.Segs {
			b.WriteString(seg.UTF8)
		}
		text := strings.TrimSpace(strings.ReplaceAll(b.String(), "\n", " "))
		if text == "" {
			continue
		}
		segments = append(segments, transcriptSegment{
			Text:            text,
			StartSeconds:    float64(ev.TStartMs) / 1000,
			DurationSeconds: float64(ev.DDurationMs) / 1000,
		})
	}

	if len(segments) == 0 {
		return nil, notFound("caption payload contained no text")
	}
	return segments, nil
}

// Timedtext format: <text start="1.36" dur="1.68">text here</text>
var timedTextRe = regexp.MustCompile(`(?s)<text[^>]*\bstart="([0-9.]+)"[^>]*?(?:\bdur="([0-9.]+)")?[^>]*>(.*?)</text>`)

func parseTimedText(xmlContent string) ([]transcriptSegment, error) {
	matches := timedTextRe.FindAllStringSubmatch(xmlContent, -1)

	var segments []transcriptSegment
	for _, m := range matches {
		text := html.UnescapeString(m[3])
		text = strings.TrimSpace(strings.ReplaceAll(text, "\n", " "))
		if text == "" {
			continue
		}

		start, _ := strconv.ParseFloat(m[1], 64)
		var dur float64
		if m[2] != "" {
			dur, _ = strconv.ParseFloat(m[2], 64)
		}
		segments = append(segments, transcriptSegment{
			Text:            text,
			StartSeconds:    start,
			DurationSeconds: dur,
		})
	}

	if len(segments) == 0 {
		return nil, notFound("caption payload contained no text")
	}
	return segments, nil
}
