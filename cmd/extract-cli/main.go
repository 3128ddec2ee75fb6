package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
	"go.uber.org/zap"

	"postextract/internal/adapters/apify"
	"postextract/internal/adapters/downloader"
	"postextract/internal/adapters/ffmpeg"
	"postextract/internal/adapters/pagescrape"
	"postextract/internal/adapters/vision"
	"postextract/internal/adapters/whisper"
	"postextract/internal/adapters/ytdlp"
	"postextract/internal/config"
	"postextract/internal/core/ports"
	"postextract/internal/scratch"
	"postextract/internal/service"
)

func main() {
	// Load .env if it exists; environment variables may be set manually.
	_ = godotenv.Load()

	url := flag.String("url", "", "social-media post URL to extract")
	dataDir := flag.String("data-dir", "", "base directory for scratch storage (overrides DATA_DIR)")
	verbose := flag.Bool("v", false, "verbose logging")
	flag.Parse()

	if *url == "" {
		fmt.Println("Usage: extract-cli -url <post-url> [-data-dir <path>] [-v]")
		fmt.Println("\nExample:")
		fmt.Println("  extract-cli -url https://www.tiktok.com/@user/video/1234567890")
		fmt.Println("  extract-cli -url https://www.instagram.com/reel/Cxyz123/")
		os.Exit(1)
	}

	logger := newLogger(*verbose)
	defer logger.Sync()

	cfg := config.Load()
	if *dataDir != "" {
		cfg.DataDir = *dataDir
	}

	dl := downloader.NewHTTPDownloader()

	// The credentialed provider only joins the fallback list when a token
	// is configured.
	var provider ports.ExtractionStrategy
	if cfg.ApifyToken != "" {
		provider = apify.NewStrategy(cfg.ApifyToken, dl, logger)
	} else {
		logger.Info("no provider token configured, skipping credentialed strategy")
	}

	orchestrator := service.NewOrchestrator(
		service.Strategies{
			Provider:   provider,
			PageScrape: pagescrape.NewStrategy(dl, logger),
			Generic:    ytdlp.NewStrategy(dl, logger),
		},
		ffmpeg.New(),
		whisper.NewClient(cfg.OpenAIKey, cfg.OpenAIBaseURL),
		vision.NewClient(cfg.OpenAIKey, cfg.OpenAIBaseURL),
		scratch.NewManager(cfg.DataDir, logger),
		cfg,
		logger,
	)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-sigChan
		logger.Info("received interrupt signal, cancelling")
		cancel()
	}()

	document, result := orchestrator.ExtractDocument(ctx, *url)

	fmt.Println("\n=== Extraction Summary ===")
	fmt.Printf("Platform: %s\n", result.Platform)
	fmt.Printf("Success:  %t\n", result.Success)
	if !result.Success {
		fmt.Printf("Error:    %s\n", result.Error)
		os.Exit(1)
	}

	fmt.Println("\n=== Assembled Content ===")
	fmt.Println(document)
}

func newLogger(verbose bool) *zap.Logger {
	if verbose {
		logger, _ := zap.NewDevelopment()
		return logger
	}
	logger, _ := zap.NewProduction()
	return logger
}
