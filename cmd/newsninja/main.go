// NewsNinja turns topic lists into spoken news broadcasts. It aggregates
// headlines and online discussion from tiered sources, writes a script with
// an LLM, and renders the script to audio.
package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/newsninja/newsninja/internal/aggregator"
	"github.com/newsninja/newsninja/internal/api"
	"github.com/newsninja/newsninja/internal/history"
	"github.com/spf13/cobra"
)

var version = "dev"

func main() {
	var configPath string

	rootCmd := &cobra.Command{
		Use:   "newsninja",
		Short: "AI-powered news broadcast generator",
		Long:  "NewsNinja aggregates news and social discussion for a set of topics, summarizes them into a broadcast script, and renders the script to audio.",
	}
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "newsninja.yaml", "config file path")

	rootCmd.AddCommand(serveCmd(&configPath))
	rootCmd.AddCommand(generateCmd(&configPath))
	rootCmd.AddCommand(statusCmd(&configPath))
	rootCmd.AddCommand(historyCmd(&configPath))
	rootCmd.AddCommand(versionCmd())

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func serveCmd(configPath *string) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the REST API server",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServe(*configPath)
		},
	}
}

func generateCmd(configPath *string) *cobra.Command {
	var topics []string
	var mode string
	var output string

	cmd := &cobra.Command{
		Use:   "generate",
		Short: "Generate one broadcast and write the audio file",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runGenerate(*configPath, topics, mode, output)
		},
	}
	cmd.Flags().StringSliceVarP(&topics, "topics", "t", nil, "topics to cover (required)")
	cmd.Flags().StringVarP(&mode, "mode", "m", "both", "source mode: news, reddit, or both")
	cmd.Flags().StringVarP(&output, "output", "o", "", "audio output path (default: timestamped file in the output dir)")
	cmd.MarkFlagRequired("topics")
	return cmd
}

func statusCmd(configPath *string) *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Show which providers and speech backends are configured",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runStatus(*configPath)
		},
	}
}

func historyCmd(configPath *string) *cobra.Command {
	var limit int

	cmd := &cobra.Command{
		Use:   "history",
		Short: "List recent broadcasts",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runHistory(*configPath, limit)
		},
	}
	cmd.Flags().IntVarP(&limit, "limit", "n", 10, "number of broadcasts to show")
	return cmd
}

func versionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Show version",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Printf("newsninja %s\n", version)
		},
	}
}

func runServe(configPath string) error {
	cfg, err := loadConfig(configPath)
	if err != nil {
		return err
	}

	store, err := buildStore(cfg)
	if err != nil {
		return fmt.Errorf("open history store: %w", err)
	}
	if store != nil {
		defer store.Close()
	}

	server := api.NewServer(buildAggregator(cfg), buildSummarizer(cfg), buildRenderer(cfg), store)
	handler := corsMiddleware(server.Routes())

	srv := &http.Server{
		Addr:    ":" + cfg.Server.Port,
		Handler: handler,
	}

	go func() {
		slog.Info("starting broadcast API server", "port", cfg.Server.Port)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			slog.Error("server failed", "error", err)
		}
	}()

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	slog.Info("shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return srv.Shutdown(ctx)
}

func runGenerate(configPath string, topics []string, modeStr, output string) error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
	defer cancel()

	cfg, err := loadConfig(configPath)
	if err != nil {
		return err
	}

	mode, err := aggregator.ParseMode(modeStr)
	if err != nil {
		return err
	}

	agg := buildAggregator(cfg)

	fmt.Printf("Collecting data for %s...\n", strings.Join(topics, ", "))
	ds, err := agg.Collect(ctx, topics, mode)
	if err != nil {
		return fmt.Errorf("collect data: %w", err)
	}
	if ds.NewsProvider != "" {
		fmt.Printf("  news: %s\n", ds.NewsProvider)
	}
	if ds.DiscussionProvider != "" {
		fmt.Printf("  discussion: %s\n", ds.DiscussionProvider)
	}

	fmt.Println("Writing broadcast script...")
	script := buildSummarizer(cfg).Script(ctx, ds)

	fmt.Println("Rendering audio...")
	artifact, err := buildRenderer(cfg).Render(ctx, script)
	if err != nil {
		return fmt.Errorf("render audio: %w", err)
	}

	if output != "" {
		if err := os.Rename(artifact.Path, output); err != nil {
			return fmt.Errorf("move audio file: %w", err)
		}
		artifact.Path = output
	}

	if store, err := buildStore(cfg); err == nil && store != nil {
		defer store.Close()
		b := &history.Broadcast{
			Topics:      topics,
			Mode:        string(mode),
			Script:      script,
			AudioPath:   artifact.Path,
			ContentType: artifact.ContentType,
			Backend:     artifact.Backend,
		}
		if err := store.Save(ctx, b); err != nil {
			slog.Warn("failed to save broadcast history", "error", err)
		}
	}

	fmt.Printf("Broadcast written to %s (%s, %d bytes)\n", artifact.Path, artifact.Backend, len(artifact.Data))
	return nil
}

func runStatus(configPath string) error {
	cfg, err := loadConfig(configPath)
	if err != nil {
		return err
	}

	fmt.Println("Content providers:")
	for _, p := range buildAggregator(cfg).Providers() {
		fmt.Printf("  %-20s %-12s %s\n", p.Name, p.Category, readiness(p.Eligible))
	}

	fmt.Println("Speech backends:")
	for name, eligible := range buildRenderer(cfg).Backends() {
		fmt.Printf("  %-20s %-12s %s\n", name, "speech", readiness(eligible))
	}

	if cfg.LLM.APIKey != "" {
		fmt.Printf("Summarizer: %s (%s)\n", cfg.LLM.Provider, cfg.LLM.Model)
	} else {
		fmt.Println("Summarizer: not configured (fallback script only)")
	}
	return nil
}

func readiness(eligible bool) string {
	if eligible {
		return "ready"
	}
	return "not configured"
}

func runHistory(configPath string, limit int) error {
	cfg, err := loadConfig(configPath)
	if err != nil {
		return err
	}
	if !cfg.History.Enabled {
		fmt.Println("Broadcast history is disabled.")
		return nil
	}

	store, err := buildStore(cfg)
	if err != nil {
		return fmt.Errorf("open history store: %w", err)
	}
	defer store.Close()

	ctx := context.Background()
	broadcasts, err := store.Recent(ctx, limit)
	if err != nil {
		return err
	}
	if len(broadcasts) == 0 {
		fmt.Println("No broadcasts generated yet.")
		return nil
	}

	count, _ := store.Count(ctx)
	fmt.Printf("Broadcasts (%d total):\n", count)
	for _, b := range broadcasts {
		fmt.Printf("  #%-4d %s  [%s]  %s\n", b.ID, b.CreatedAt.Format("2006-01-02 15:04"), b.Mode, strings.Join(b.Topics, ", "))
		if b.AudioPath != "" {
			fmt.Printf("        %s (%s)\n", b.AudioPath, b.Backend)
		}
	}
	return nil
}

// corsMiddleware allows browser frontends during local development.
func corsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type")

		if r.Method == "OPTIONS" {
			w.WriteHeader(http.StatusOK)
			return
		}

		next.ServeHTTP(w, r)
	})
}
