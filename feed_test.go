package main

import (
	"fmt"
	"strings"
	"testing"
)

func TestParseItunesDuration(t *testing.T) {
	tests := []struct {
		in   string
		want int
	}{
		{"45", 45},
		{"0", 0},
		{"3600", 3600},
		{"1:30", 90},
		{"01:30", 90},
		{"1:02:03", 3723},
		{"0:00", 0},
		{"10:00:00", 36000},
		{" 1:30 ", 90},
		{"", 0},
		{"abc", 0},
		{"1:xx", 0},
		{"-5", 0},
		{"1:2:3:4", 0},
	}

	for _, tt := range tests {
		if got := parseItunesDuration(tt.in); got != tt.want {
			t.Errorf("parseItunesDuration(%q) = %d, want %d", tt.in, got, tt.want)
		}
	}
}

func TestParseFeed(t *testing.T) {
	feed := `<?xml version="1.0"?>
<rss version="2.0" xmlns:itunes="http://www.itunes.com/dtds/podcast-1.0.dtd">
<channel>
<title>Test Show</title>
<itunes:image href="https://example.com/show.jpg"/>
<item>
<title><![CDATA[Episode One &amp; More]]></title>
<enclosure url="https://example.com/ep1.mp3" type="audio/mpeg" length="12345"/>
<itunes:duration>1:02:03</itunes:duration>
<itunes:image href="https://example.com/ep1.jpg"/>
</item>
<item>
<title>No Audio Here</title>
<itunes:duration>30:00</itunes:duration>
</item>
<item>
<title>Episode Two</title>
<enclosure url='https://example.com/ep2.mp3' type='audio/mpeg'/>
<itunes:duration>45</itunes:duration>
</item>
</channel>
</rss>`

	episodes := parseFeed(feed)

	// The enclosure-less item is dropped.
	if len(episodes) != 2 {
		t.Fatalf("got %d episodes, want 2", len(episodes))
	}

	ep := episodes[0]
	if ep.Title != "Episode One & More" {
		t.Errorf("Title = %q, want %q", ep.Title, "Episode One & More")
	}
	if ep.MP3URL != "https://example.com/ep1.mp3" {
		t.Errorf("MP3URL = %q", ep.MP3URL)
	}
	if ep.DurationSeconds != 3723 {
		t.Errorf("DurationSeconds = %d, want 3723", ep.DurationSeconds)
	}
	if ep.Artwork != "https://example.com/ep1.jpg" {
		t.Errorf("Artwork = %q, want episode-level image", ep.Artwork)
	}
	if ep.ShowTitle != "Test Show" {
		t.Errorf("ShowTitle = %q, want %q", ep.ShowTitle, "Test Show")
	}

	ep = episodes[1]
	if ep.MP3URL != "https://example.com/ep2.mp3" {
		t.Errorf("MP3URL = %q", ep.MP3URL)
	}
	if ep.DurationSeconds != 45 {
		t.Errorf("DurationSeconds = %d, want 45", ep.DurationSeconds)
	}
	// Falls back to the channel artwork.
	if ep.Artwork != "https://example.com/show.jpg" {
		t.Errorf("Artwork = %q, want show-level image", ep.Artwork)
	}
}

func TestParseFeedEntryCap(t *testing.T) {
	var b strings.Builder
	b.WriteString("<rss><channel><title>Big Show</title>")
	for i := 0; i < maxFeedEntries+20; i++ {
		fmt.Fprintf(&b, `<item><title>Ep %d</title><enclosure url="https://example.com/ep%d.mp3"/></item>`, i, i)
	}
	b.WriteString("</channel></rss>")

	episodes := parseFeed(b.String())
	if len(episodes) != maxFeedEntries {
		t.Errorf("got %d episodes, want cap of %d", len(episodes), maxFeedEntries)
	}
	if episodes[0].Title != "Ep 0" {
		t.Errorf("first episode = %q, want %q (document order preserved)", episodes[0].Title, "Ep 0")
	}
}

func TestParseFeedChannelImageFallback(t *testing.T) {
	feed := `<rss><channel>
<title>Fallback Show</title>
<image><url>https://example.com/legacy.png</url></image>
<item><title>Ep</title><enclosure url="https://example.com/ep.mp3"/></item>
</channel></rss>`

	episodes := parseFeed(feed)
	if len(episodes) != 1 {
		t.Fatalf("got %d episodes, want 1", len(episodes))
	}
	if episodes[0].Artwork != "https://example.com/legacy.png" {
		t.Errorf("Artwork = %q, want legacy channel image", episodes[0].Artwork)
	}
}

func TestParseFeedMalformed(t *testing.T) {
	// Truncated garbage should yield no episodes, never panic.
	episodes := parseFeed("<rss><channel><item><title>half an it")
	if len(episodes) != 0 {
		t.Errorf("got %d episodes from malformed feed, want 0", len(episodes))
	}

	if got := parseFeed(""); len(got) != 0 {
		t.Errorf("got %d episodes from empty input, want 0", len(got))
	}
}

func TestCleanTagValue(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"plain", "plain"},
		{"<![CDATA[wrapped]]>", "wrapped"},
		{"  <![CDATA[ padded ]]>  ", "padded"},
		{"a &amp; b", "a & b"},
		{"&lt;tag&gt;", "<tag>"},
		{"", ""},
	}

	for _, tt := range tests {
		if got := cleanTagValue(tt.in); got != tt.want {
			t.Errorf("cleanTagValue(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}
