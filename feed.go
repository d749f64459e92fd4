package main

import (
	"context"
	"html"
	"io"
	"net/http"
	"regexp"
	"strconv"
	"strings"
)

// Feeds in the wild are frequently malformed: missing namespaces, stray
// entities, truncated documents. Extraction is regex-based on purpose so a
// missing or mangled tag yields an empty string instead of a parse error.

// Bound against unbounded feeds.
const maxFeedEntries = 50

// feedEpisode is one actionable entry of an RSS feed.
type feedEpisode struct {
	Title           string
	MP3URL          string
	Artwork         string
	DurationSeconds int
	ShowTitle       string
}

var (
	titleRe        = regexp.MustCompile(`(?is)<title[^>]*>(.*?)</title>`)
	enclosureRe    = regexp.MustCompile(`(?is)<enclosure[^>]*\burl\s*=\s*["']([^"']+)["']`)
	itunesImageRe  = regexp.MustCompile(`(?is)<itunes:image[^>]*\bhref\s*=\s*["']([^"']+)["']`)
	channelImageRe = regexp.MustCompile(`(?is)<image[^>]*>.*?<url[^>]*>(.*?)</url>`)
	durationTagRe  = regexp.MustCompile(`(?is)<itunes:duration[^>]*>(.*?)</itunes:duration>`)
)

// parseFeed extracts up to maxFeedEntries episodes from raw RSS/Atom text.
// Entries without an enclosure URL are dropped: an episode with no audio is
// not actionable. The returned slice preserves document order (reverse
// chronological by RSS convention, not enforced).
func parseFeed(xmlText string) []feedEpisode {
	parts := strings.Split(xmlText, "<item")

	// Show-level title and artwork live in the preamble before the first item.
	showTitle := cleanTagValue(firstMatch(titleRe, parts[0]))
	showArtwork := firstMatch(itunesImageRe, parts[0])
	if showArtwork == "" {
		showArtwork = cleanTagValue(firstMatch(channelImageRe, parts[0]))
	}

	var episodes []feedEpisode
	for _, item := range parts[1:] {
		if len(episodes) >= maxFeedEntries {
			break
		}
		if end := strings.Index(item, "</item>"); end >= 0 {
			item = item[:end]
		}

		mp3 := firstMatch(enclosureRe, item)
		if mp3 == "" {
			continue
		}

		artwork := firstMatch(itunesImageRe, item)
		if artwork == "" {
			artwork = showArtwork
		}

		episodes = append(episodes, feedEpisode{
			Title:           cleanTagValue(firstMatch(titleRe, item)),
			MP3URL:          mp3,
			Artwork:         artwork,
			DurationSeconds: parseItunesDuration(firstMatch(durationTagRe, item)),
			ShowTitle:       showTitle,
		})
	}

	return episodes
}

func firstMatch(re *regexp.Regexp, s string) string {
	m := re.FindStringSubmatch(s)
	if m == nil {
		return ""
	}
	return m[1]
}

// cleanTagValue strips CDATA wrapping, decodes entities and trims.
func cleanTagValue(s string) string {
	s = strings.TrimSpace(s)
	s = strings.TrimPrefix(s, "<![CDATA[")
	s = strings.TrimSuffix(s, "]]>")
	return strings.TrimSpace(html.UnescapeString(s))
}

// parseItunesDuration accepts plain seconds, MM:SS, or HH:MM:SS and returns
// whole seconds. Anything unrecognized is 0. Colon presence decides between
// clock formats and raw seconds.
func parseItunesDuration(s string) int {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0
	}

	if !strings.Contains(s, ":") {
		n, err := strconv.Atoi(s)
		if err != nil || n < 0 {
			return 0
		}
		return n
	}

	parts := strings.Split(s, ":")
	total := 0
	for _, p := range parts {
		n, err := strconv.Atoi(strings.TrimSpace(p))
		if err != nil || n < 0 {
			return 0
		}
		total = total*60 + n
	}
	if len(parts) > 3 {
		return 0
	}
	return total
}

// fetchFeed retrieves raw feed text. Non-2xx responses map to the
// upstream-unavailable error class.
func fetchFeed(ctx context.Context, client *http.Client, feedURL string) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, feedURL, nil)
	if err != nil {
		return "", invalidInput("invalid feed URL: %s", feedURL)
	}
	req.Header.Set("User-Agent", feedUserAgent)

	resp, err := client.Do(req)
	if err != nil {
		return "", upstreamWrap(err, "feed fetch failed")
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return "", upstream("feed unavailable: status %d", resp.StatusCode)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", upstreamWrap(err, "feed read failed")
	}
	return string(body), nil
}

const feedUserAgent = "podsift/1.0 (+https://github.com/podsift/podsift)"
