package main

import (
	"context"
	"net/http"
	"strings"
)

type appleResolver struct {
	catalog *itunesClient
	client  *http.Client
}

// resolve turns an Apple Podcasts reference into an episode descriptor.
// With an episode-level ID a secondary catalog lookup can short-circuit the
// whole feed fetch when it already carries a direct audio URL; otherwise the
// episode title from that lookup is fuzzy-matched against feed entries.
// Without an episode ID (or without a match) the most recent entry wins.
func (r *appleResolver) resolve(ctx context.Context, ref linkRef) (*episodeDescriptor, error) {
	if ref.ID == "" {
		return nil, invalidInput("no podcast id in Apple Podcasts link")
	}

	show, err := r.catalog.lookupPodcast(ctx, ref.ID)
	if err != nil {
		return nil, err
	}

	var episodeTitle string
	if ref.EpisodeID != "" {
		ep, err := r.catalog.lookupEpisode(ctx, ref.EpisodeID)
		if err == nil {
			if ep.EpisodeURL != "" {
				return &episodeDescriptor{
					AudioURL:        ep.EpisodeURL,
					Title:           ep.TrackName,
					Show:            firstNonEmpty(ep.CollectionName, show.CollectionName),
					Artwork:         firstNonEmpty(ep.artwork(), show.artwork()),
					DurationSeconds: int(ep.TrackTimeMillis / 1000),
					SourceKind:      kindApple,
				}, nil
			}
			episodeTitle = ep.TrackName
		}
		// Episode lookup failures fall back to the feed; the podcast-level
		// data is still enough to resolve something playable.
	}

	if show.FeedURL == "" {
		return nil, notFound("catalog entry for podcast %s has no feed URL", ref.ID)
	}

	xmlText, err := fetchFeed(ctx, r.client, show.FeedURL)
	if err != nil {
		return nil, err
	}
	entries := parseFeed(xmlText)
	if len(entries) == 0 {
		return nil, notFound("feed has no playable episodes")
	}

	entry := entries[0]
	if episodeTitle != "" {
		if matched := matchEpisodeByTitle(entries, episodeTitle); matched != nil {
			entry = *matched
		}
	}

	return &episodeDescriptor{
		AudioURL:        entry.MP3URL,
		Title:           entry.Title,
		Show:            firstNonEmpty(show.CollectionName, entry.ShowTitle),
		Artwork:         firstNonEmpty(entry.Artwork, show.artwork()),
		DurationSeconds: entry.DurationSeconds,
		SourceKind:      kindApple,
	}, nil
}

// The catalog and feeds format titles inconsistently (numbering, suffixes,
// truncation), so matching is deliberately fuzzy: lowercase both titles,
// truncate to a 30-character key, and accept containment in either
// direction. The heuristic is approximate but changing it changes which
// episode gets selected.
const titleMatchKeyLen = 30

func titleMatchKey(s string) string {
	s = strings.ToLower(strings.TrimSpace(s))
	if len(s) > titleMatchKeyLen {
		s = s[:titleMatchKeyLen]
	}
	return s
}

func titlesMatch(a, b string) bool {
	ka, kb := titleMatchKey(a), titleMatchKey(b)
	if ka == "" || kb == "" {
		return false
	}
	return strings.Contains(ka, kb) || strings.Contains(kb, ka)
}

func matchEpisodeByTitle(entries []feedEpisode, title string) *feedEpisode {
	for i := range entries {
		if titlesMatch(entries[i].Title, title) {
			return &entries[i]
		}
	}
	return nil
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
