package main

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "github.com/mattn/go-sqlite3"
)

// Transcript cache. Resolution stays stateless per request; only fetched
// YouTube transcripts are cached, since caption acquisition is the fragile
// and rate-limited part of the pipeline.

var db *sql.DB

func openCache() (*sql.DB, error) {
	if db != nil {
		return db, nil
	}

	dir := cacheDir
	if dir == "" {
		dir = "./cache"
	}
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create cache directory: %w", err)
	}

	d, err := sql.Open("sqlite3", filepath.Join(dir, "podsift.db"))
	if err != nil {
		return nil, fmt.Errorf("failed to open cache db: %w", err)
	}

	_, err = d.Exec(`CREATE TABLE IF NOT EXISTS transcripts (
		video_id       TEXT PRIMARY KEY,
		plain_text     TEXT NOT NULL,
		segments       TEXT NOT NULL,
		total_duration TEXT NOT NULL,
		fetched_at     TIMESTAMP NOT NULL
	)`)
	if err != nil {
		d.Close()
		return nil, fmt.Errorf("failed to create cache schema: %w", err)
	}

	db = d
	return db, nil
}

// getCachedTranscript retrieves a previously fetched transcript.
func getCachedTranscript(videoID string) (*transcript, error) {
	d, err := openCache()
	if err != nil {
		return nil, err
	}

	var plainText, segmentsJSON, totalDuration string
	err = d.QueryRow(
		`SELECT plain_text, segments, total_duration FROM transcripts WHERE video_id = ?`,
		videoID,
	).Scan(&plainText, &segmentsJSON, &totalDuration)
	if err != nil {
		return nil, err
	}

	var segments []transcriptSegment
	if err := json.Unmarshal([]byte(segmentsJSON), &segments); err != nil {
		return nil, fmt.Errorf("corrupt cache entry for %s: %w", videoID, err)
	}

	return &transcript{
		Segments:           segments,
		PlainText:          plainText,
		TotalDurationLabel: totalDuration,
	}, nil
}

// cacheTranscript stores a transcript, replacing any previous entry.
func cacheTranscript(videoID string, t *transcript) error {
	d, err := openCache()
	if err != nil {
		return err
	}

	segmentsJSON, err := json.Marshal(t.Segments)
	if err != nil {
		return fmt.Errorf("failed to encode segments: %w", err)
	}

	_, err = d.Exec(
		`INSERT OR REPLACE INTO transcripts (video_id, plain_text, segments, total_duration, fetched_at)
		 VALUES (?, ?, ?, ?, ?)`,
		videoID, t.PlainText, string(segmentsJSON), t.TotalDurationLabel, time.Now().UTC(),
	)
	return err
}

// getCacheStats returns the number of cached transcripts.
func getCacheStats() (int, error) {
	d, err := openCache()
	if err != nil {
		return 0, err
	}

	var count int
	if err := d.QueryRow(`SELECT COUNT(*) FROM transcripts`).Scan(&count); err != nil {
		return 0, err
	}
	return count, nil
}

func closeCache() {
	if db != nil {
		db.Close()
		db = nil
	}
}
