package main

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

func TestTitlesMatch(t *testing.T) {
	tests := []struct {
		name string
		a, b string
		want bool
	}{
		{"exact", "Episode 42: The Answer", "Episode 42: The Answer", true},
		{"case insensitive", "EPISODE 42", "episode 42", true},
		{"prefix containment", "Episode 42", "Episode 42: The Answer To Everything", true},
		{"long titles same prefix", strings.Repeat("a", 40), strings.Repeat("a", 35) + "bcdef", true},
		{"different", "Episode 42", "Episode 43", false},
		{"empty a", "", "Episode 42", false},
		{"empty b", "Episode 42", "", false},
		{"both empty", "", "", false},
		{"padded", "  Episode 42  ", "episode 42", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := titlesMatch(tt.a, tt.b); got != tt.want {
				t.Errorf("titlesMatch(%q, %q) = %v, want %v", tt.a, tt.b, got, tt.want)
			}
		})
	}
}

func TestTitleMatchKey(t *testing.T) {
	long := "This Is A Very Long Episode Title That Keeps Going"
	key := titleMatchKey(long)
	if len(key) != titleMatchKeyLen {
		t.Errorf("key length = %d, want %d", len(key), titleMatchKeyLen)
	}
	if key != strings.ToLower(long[:titleMatchKeyLen]) {
		t.Errorf("key = %q", key)
	}

	if got := titleMatchKey("Short"); got != "short" {
		t.Errorf("titleMatchKey(%q) = %q, want %q", "Short", got, "short")
	}
}

func TestMatchEpisodeByTitle(t *testing.T) {
	entries := []feedEpisode{
		{Title: "Episode 1: Beginnings", MP3URL: "https://example.com/1.mp3"},
		{Title: "Episode 2: Middles", MP3URL: "https://example.com/2.mp3"},
		{Title: "Episode 3: Endings", MP3URL: "https://example.com/3.mp3"},
	}

	got := matchEpisodeByTitle(entries, "episode 2")
	if got == nil || got.MP3URL != "https://example.com/2.mp3" {
		t.Errorf("matchEpisodeByTitle = %+v, want episode 2", got)
	}

	if got := matchEpisodeByTitle(entries, "Episode 9"); got != nil {
		t.Errorf("expected no match, got %+v", got)
	}
}

const appleTestFeed = `<rss><channel>
<title>Catalog Show</title>
<itunes:image href="https://example.com/show.jpg"/>
<item><title>Latest Episode</title><enclosure url="https://example.com/latest.mp3"/><itunes:duration>10:00</itunes:duration></item>
<item><title>The One We Want</title><enclosure url="https://example.com/want.mp3"/><itunes:duration>30:30</itunes:duration></item>
</channel></rss>`

// newTestAppleResolver backs the catalog and the feed with one local server.
func newTestAppleResolver(t *testing.T, lookupJSON string) (*appleResolver, *httptest.Server) {
	t.Helper()

	mux := http.NewServeMux()
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)

	mux.HandleFunc("/lookup", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		if r.URL.Query().Get("entity") == "podcastEpisode" {
			w.Write([]byte(lookupJSON))
			return
		}
		w.Write([]byte(`{"resultCount":1,"results":[{"wrapperType":"track","collectionId":111,"collectionName":"Catalog Show","feedUrl":"` + srv.URL + `/feed.xml","artworkUrl600":"https://example.com/600.jpg"}]}`))
	})
	mux.HandleFunc("/feed.xml", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(appleTestFeed))
	})

	catalog := &itunesClient{baseURL: srv.URL, client: srv.Client()}
	return &appleResolver{catalog: catalog, client: srv.Client()}, srv
}

func TestAppleResolveLatestEntry(t *testing.T) {
	r, _ := newTestAppleResolver(t, `{"resultCount":0,"results":[]}`)

	desc, err := r.resolve(context.Background(), linkRef{Kind: kindApple, ID: "111"})
	if err != nil {
		t.Fatalf("resolve failed: %v", err)
	}
	if desc.AudioURL != "https://example.com/latest.mp3" {
		t.Errorf("AudioURL = %q, want latest entry", desc.AudioURL)
	}
	if desc.Show != "Catalog Show" {
		t.Errorf("Show = %q", desc.Show)
	}
	if desc.DurationSeconds != 600 {
		t.Errorf("DurationSeconds = %d, want 600", desc.DurationSeconds)
	}
	if desc.SourceKind != kindApple {
		t.Errorf("SourceKind = %v", desc.SourceKind)
	}
}

func TestAppleResolveEpisodeByTitle(t *testing.T) {
	// Episode lookup returns a title but no direct audio URL, forcing the
	// feed fuzzy match.
	r, _ := newTestAppleResolver(t, `{"resultCount":1,"results":[{"wrapperType":"podcastEpisode","trackName":"The One We Want","collectionName":"Catalog Show"}]}`)

	desc, err := r.resolve(context.Background(), linkRef{Kind: kindApple, ID: "111", EpisodeID: "222"})
	if err != nil {
		t.Fatalf("resolve failed: %v", err)
	}
	if desc.AudioURL != "https://example.com/want.mp3" {
		t.Errorf("AudioURL = %q, want fuzzy-matched entry", desc.AudioURL)
	}
	if desc.DurationSeconds != 1830 {
		t.Errorf("DurationSeconds = %d, want 1830", desc.DurationSeconds)
	}
}

func TestAppleResolveEpisodeShortCircuit(t *testing.T) {
	// A direct episode audio URL skips the feed entirely.
	r, _ := newTestAppleResolver(t, `{"resultCount":1,"results":[{"wrapperType":"podcastEpisode","trackName":"Direct Hit","collectionName":"Catalog Show","episodeUrl":"https://example.com/direct.mp3","trackTimeMillis":1234000}]}`)

	desc, err := r.resolve(context.Background(), linkRef{Kind: kindApple, ID: "111", EpisodeID: "222"})
	if err != nil {
		t.Fatalf("resolve failed: %v", err)
	}
	if desc.AudioURL != "https://example.com/direct.mp3" {
		t.Errorf("AudioURL = %q, want direct episode URL", desc.AudioURL)
	}
	if desc.Title != "Direct Hit" {
		t.Errorf("Title = %q", desc.Title)
	}
	if desc.DurationSeconds != 1234 {
		t.Errorf("DurationSeconds = %d, want 1234", desc.DurationSeconds)
	}
}

func TestAppleResolveMissingID(t *testing.T) {
	r := &appleResolver{}
	_, err := r.resolve(context.Background(), linkRef{Kind: kindApple})
	if err == nil {
		t.Fatal("expected error for missing podcast id")
	}
	if asAPIError(err).kind != errInvalidInput {
		t.Errorf("error kind = %v, want invalid input", asAPIError(err).kind)
	}
}

func TestAppleResolveUnknownPodcast(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/lookup", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"resultCount":0,"results":[]}`))
	})
	srv := httptest.NewServer(mux)
	defer srv.Close()

	r := &appleResolver{
		catalog: &itunesClient{baseURL: srv.URL, client: srv.Client()},
		client:  srv.Client(),
	}

	_, err := r.resolve(context.Background(), linkRef{Kind: kindApple, ID: "999"})
	if err == nil {
		t.Fatal("expected error for unknown podcast")
	}
	if asAPIError(err).kind != errNotFound {
		t.Errorf("error kind = %v, want not found", asAPIError(err).kind)
	}
}
