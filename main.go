package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
)

func init() {
	// Load .env file if present (silently ignore if missing)
	godotenv.Load()
}

var (
	// Config flags
	serveAddr string
	apiKey    string
	cacheDir  string
	proxyURL  string
	proxyKey  string
	sttAPIKey string

	episodeIndex int
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "podsift",
		Short: "Resolve podcast links and fetch video transcripts",
		Long: `podsift turns heterogeneous podcast/video links (Apple Podcasts, Spotify,
RSS, direct audio files, YouTube) into a normalized audio URL or a
timestamped transcript, ready to feed into downstream analysis.`,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			serveAddr = getConfig(serveAddr, "PODSIFT_ADDR")
			apiKey = getConfig(apiKey, "PODSIFT_API_KEY")
			cacheDir = getConfig(cacheDir, "PODSIFT_CACHE_DIR")
			proxyURL = getConfig(proxyURL, "PODSIFT_PROXY_URL")
			proxyKey = getConfig(proxyKey, "PODSIFT_PROXY_KEY")
			sttAPIKey = getConfig(sttAPIKey, "OPENAI_API_KEY")
		},
	}

	serveCmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API",
		RunE: func(cmd *cobra.Command, args []string) error {
			addr := serveAddr
			if addr == "" {
				addr = ":8080"
			}
			return startServer(addr, apiKey)
		},
	}

	resolveCmd := &cobra.Command{
		Use:   "resolve <link>",
		Short: "Resolve a podcast link to its audio URL and metadata",
		Args:  cobra.ExactArgs(1),
		RunE:  runResolve,
	}
	resolveCmd.Flags().IntVar(&episodeIndex, "index", 0, "Feed entry to pick on RSS links (0 = most recent)")

	transcriptCmd := &cobra.Command{
		Use:   "transcript <url-or-video-id>",
		Short: "Fetch and display a timestamped video transcript",
		Args:  cobra.ExactArgs(1),
		RunE:  runTranscript,
	}

	rootCmd.PersistentFlags().StringVar(&serveAddr, "addr", "", "Listen address (default: from PODSIFT_ADDR env, else :8080)")
	rootCmd.PersistentFlags().StringVar(&apiKey, "api-key", "", "Inbound API key (default: from PODSIFT_API_KEY env; empty disables auth)")
	rootCmd.PersistentFlags().StringVar(&cacheDir, "cache-dir", "", "Directory for the transcript cache (default: from PODSIFT_CACHE_DIR env, else ./cache)")
	rootCmd.PersistentFlags().StringVar(&proxyURL, "proxy-url", "", "Transcript proxy base URL (default: from PODSIFT_PROXY_URL env)")
	rootCmd.PersistentFlags().StringVar(&proxyKey, "proxy-key", "", "Transcript proxy API key (default: from PODSIFT_PROXY_KEY env)")
	rootCmd.PersistentFlags().StringVar(&sttAPIKey, "openai-key", "", "Speech-to-text API key (default: from OPENAI_API_KEY env)")

	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(resolveCmd)
	rootCmd.AddCommand(transcriptCmd)

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func log(format string, args ...interface{}) {
	fmt.Fprintf(os.Stderr, "→ "+format+"\n", args...)
}

func runResolve(cmd *cobra.Command, args []string) error {
	initServices()

	ctx, cancel := context.WithTimeout(cmd.Context(), 2*time.Minute)
	defer cancel()

	ref := classify(args[0])
	log("Classified as %s", ref.Kind)

	desc, err := resolverSvc.resolve(ctx, args[0], episodeIndex)
	if err != nil {
		return fmt.Errorf("failed to resolve: %w", err)
	}

	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(desc)
}

func runTranscript(cmd *cobra.Command, args []string) error {
	initServices()

	videoID, err := extractVideoID(args[0])
	if err != nil {
		return fmt.Errorf("invalid video URL or ID: %w", err)
	}
	log("Video ID: %s", videoID)

	ctx, cancel := context.WithTimeout(cmd.Context(), 5*time.Minute)
	defer cancel()

	log("Checking cache...")
	t, err := getCachedTranscript(videoID)
	if err != nil {
		log("Not cached, fetching transcript...")
		t, err = fetcherSvc.fetch(ctx, videoID)
		if err != nil {
			return fmt.Errorf("failed to fetch transcript: %w", err)
		}
		log("Transcript fetched (%d segments, %s)", len(t.Segments), t.TotalDurationLabel)
		if err := cacheTranscript(videoID, t); err != nil {
			fmt.Fprintf(os.Stderr, "warning: failed to cache transcript: %v\n", err)
		} else {
			log("Cached transcript")
		}
	} else {
		log("Found cached transcript (%d segments)", len(t.Segments))
	}
	defer closeCache()

	fmt.Println(t.PlainText)
	return nil
}

// getConfig returns flag value if set, otherwise env var
func getConfig(flagVal, envKey string) string {
	if flagVal != "" {
		return flagVal
	}
	return os.Getenv(envKey)
}
