// Package service coordinates the extraction pipeline: platform detection,
// the ordered strategy fallback loop, concurrent transcription and frame
// sampling, and final document assembly.
package service

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/hashicorp/go-multierror"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"postextract/internal/config"
	"postextract/internal/core/domain"
	"postextract/internal/core/ports"
	"postextract/internal/platform"
	"postextract/internal/scratch"
)

// Strategies holds the concrete strategy implementations the orchestrator
// composes into per-platform fallback lists. Provider is nil when no
// credential is configured.
type Strategies struct {
	Provider   ports.ExtractionStrategy
	PageScrape ports.ExtractionStrategy
	Generic    ports.ExtractionStrategy
}

// Orchestrator runs one extraction call end to end.
type Orchestrator struct {
	strategies Strategies
	scratch    *scratch.Manager
	logger     *zap.Logger

	transcription *transcriptionStage
	frames        *frameStage
}

// NewOrchestrator wires the pipeline together. Credentials and feature
// toggles arrive through cfg and the strategy set; nothing is cached
// process-wide.
func NewOrchestrator(
	strategies Strategies,
	media ports.MediaUtility,
	transcriber ports.Transcriber,
	ocr ports.TextRecognizer,
	scratchMgr *scratch.Manager,
	cfg config.Config,
	logger *zap.Logger,
) *Orchestrator {
	return &Orchestrator{
		strategies: strategies,
		scratch:    scratchMgr,
		logger:     logger,
		transcription: &transcriptionStage{
			media:       media,
			transcriber: transcriber,
			classifier:  cfg.Classifier,
			logger:      logger,
		},
		frames: &frameStage{
			media:       media,
			ocr:         ocr,
			frameWidth:  cfg.FrameWidth,
			parallelism: cfg.FrameParallelism,
			similarity:  cfg.OCRSimilarity,
			logger:      logger,
		},
	}
}

// strategiesFor returns the ordered fallback list for a platform. The two
// short-form platforms get the full tiered list; everything else only the
// generic downloader.
func (o *Orchestrator) strategiesFor(p domain.Platform) []ports.ExtractionStrategy {
	var list []ports.ExtractionStrategy
	switch p {
	case domain.PlatformTikTok, domain.PlatformInstagram:
		if o.strategies.Provider != nil {
			list = append(list, o.strategies.Provider)
		}
		if o.strategies.PageScrape != nil {
			list = append(list, o.strategies.PageScrape)
		}
	}
	if o.strategies.Generic != nil {
		list = append(list, o.strategies.Generic)
	}
	return list
}

// Extract runs the full pipeline for one URL. Terminal failures come back as
// a success=false result with a human-readable error; stage-local failures
// are swallowed and yield partial results.
func (o *Orchestrator) Extract(ctx context.Context, url string) *domain.ExtractionResult {
	callID := uuid.New().String()[:8]
	logger := o.logger.With(zap.String("extraction_id", callID), zap.String("url", url))

	result := &domain.ExtractionResult{URL: url}

	// Unsupported platforms fail immediately, before any network I/O.
	p := platform.Detect(url)
	if p == domain.PlatformUnknown {
		result.Error = domain.ErrUnsupportedPlatform.Error()
		logger.Info("extraction rejected", zap.String("reason", result.Error))
		return result
	}
	result.Platform = p
	logger.Info("extraction started", zap.String("platform", string(p)))

	ns, err := o.scratch.NewNamespace(string(p))
	if err != nil {
		result.Error = fmt.Sprintf("failed to allocate scratch storage: %v", err)
		return result
	}
	// Every temporary artifact of this call lives under ns.
	defer ns.Cleanup()

	download := o.runStrategies(ctx, p, url, ns, logger)
	if download == nil {
		result.Error = domain.ErrExtractionExhausted.Error()
		logger.Warn("extraction exhausted")
		return result
	}

	o.process(ctx, download, ns, result, logger)

	result.Success = true
	result.Caption = download.Caption
	result.Metadata = download.Metadata
	logger.Info("extraction complete",
		zap.Bool("carousel", download.IsCarousel),
		zap.Bool("has_transcript", result.AudioTranscript != ""),
		zap.Bool("has_ocr", result.OCRText != ""))
	return result
}

// ExtractDocument runs Extract and assembles the unified text document.
func (o *Orchestrator) ExtractDocument(ctx context.Context, url string) (string, *domain.ExtractionResult) {
	result := o.Extract(ctx, url)
	if !result.Success {
		return "", result
	}
	return AssembleDocument(result), result
}

// runStrategies tries each strategy in order and returns the first
// successful download, or nil when the list is exhausted.
func (o *Orchestrator) runStrategies(ctx context.Context, p domain.Platform, url string, ns *scratch.Namespace, logger *zap.Logger) *domain.DownloadResult {
	var attemptErrs error
	for i, strategy := range o.strategiesFor(p) {
		sub, err := ns.Sub("attempt_"+strategy.Name(), i)
		if err != nil {
			attemptErrs = multierror.Append(attemptErrs, err)
			continue
		}

		download, err := strategy.Attempt(ctx, url, sub.Dir())
		if err == nil && download != nil && download.Success {
			logger.Info("strategy succeeded", zap.String("strategy", strategy.Name()))
			return download
		}

		// Non-fatal: log and fall through to the next strategy.
		if err == nil {
			if download != nil && download.Error != "" {
				err = fmt.Errorf("%s", download.Error)
			} else {
				err = fmt.Errorf("strategy returned no result")
			}
		}
		logger.Warn("strategy failed", zap.String("strategy", strategy.Name()), zap.Error(err))
		attemptErrs = multierror.Append(attemptErrs, fmt.Errorf("%s: %w", strategy.Name(), err))
	}
	if attemptErrs != nil {
		logger.Debug("all strategies failed", zap.Error(attemptErrs))
	}
	return nil
}

// process fans out transcription and frame sampling for the downloaded
// media and fans back in before assembly.
func (o *Orchestrator) process(ctx context.Context, download *domain.DownloadResult, ns *scratch.Namespace, result *domain.ExtractionResult, logger *zap.Logger) {
	if download.IsCarousel {
		result.CarouselItems = o.processCarousel(ctx, download.CarouselFiles, ns, logger)
		return
	}

	switch download.MediaType {
	case domain.MediaVideo:
		// Transcription and frame sampling are independent; run them in parallel.
		g, gctx := errgroup.WithContext(ctx)
		g.Go(func() error {
			result.AudioTranscript = o.transcription.run(gctx, download.FilePath, ns)
			return nil
		})
		g.Go(func() error {
			result.OCRText = o.frames.run(gctx, download.FilePath, ns)
			return nil
		})
		_ = g.Wait()
	case domain.MediaImage:
		result.OCRText = o.frames.ocrImage(ctx, download.FilePath)
	}
}

// processCarousel handles each item independently with bounded parallelism.
// Items process in any order; output preserves original index order.
func (o *Orchestrator) processCarousel(ctx context.Context, files []domain.CarouselFile, ns *scratch.Namespace, logger *zap.Logger) []domain.CarouselItem {
	if len(files) > domain.MaxCarouselItems {
		files = files[:domain.MaxCarouselItems]
	}

	items := make([]domain.CarouselItem, len(files))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(3)
	for i, file := range files {
		i, file := i, file
		g.Go(func() error {
			item := domain.CarouselItem{Index: i, Type: file.Type}
			switch file.Type {
			case domain.MediaVideo:
				sub, err := ns.Sub("item", i)
				if err != nil {
					logger.Warn("carousel item scratch failed", zap.Int("index", i), zap.Error(err))
					items[i] = item
					return nil
				}
				item.Transcript = o.transcription.run(gctx, file.Path, sub)
				item.OCRText = o.frames.run(gctx, file.Path, sub)
			case domain.MediaImage:
				item.OCRText = o.frames.ocrImage(gctx, file.Path)
			}
			items[i] = item
			return nil
		})
	}
	_ = g.Wait()
	return items
}
