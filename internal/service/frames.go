package service

import (
	"context"
	"fmt"
	"math"
	"strings"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"postextract/internal/core/ports"
	"postextract/internal/scratch"
)

const (
	minFrames = 10
	maxFrames = 20
	// One frame roughly every 3 seconds, within the clamp.
	secondsPerFrame = 3.0
	// Used when the duration probe fails.
	assumedDuration = 30.0
	// OCR results shorter than this are recognition noise.
	minOCRChars = 5

	ocrSeparator = "\n---\n"
)

// frameStage samples video frames and aggregates their on-screen text.
type frameStage struct {
	media       ports.MediaUtility
	ocr         ports.TextRecognizer
	frameWidth  int
	parallelism int
	similarity  float64
	logger      *zap.Logger
}

// run returns the deduplicated on-screen text of the video, or "" when no
// frame carried usable text. Like transcription, failure here is never fatal.
func (f *frameStage) run(ctx context.Context, videoPath string, ns *scratch.Namespace) string {
	framesNS, err := ns.Sub("frames", 0)
	if err != nil {
		f.logger.Warn("failed to create frame scratch dir", zap.Error(err))
		return ""
	}
	// The frame directory goes away no matter how this stage exits.
	defer framesNS.Cleanup()

	duration, err := f.media.ProbeDuration(ctx, videoPath)
	if err != nil || duration <= 0 {
		f.logger.Info("duration probe failed, assuming 30s", zap.Error(err))
		duration = assumedDuration
	}

	timestamps := frameTimestamps(duration)
	framePaths := make([]string, len(timestamps))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(f.parallelism)
	for i, ts := range timestamps {
		i, ts := i, ts
		g.Go(func() error {
			path := framesNS.Path(fmt.Sprintf("frame_%03d.jpg", i))
			if err := f.media.ExtractFrame(gctx, videoPath, ts, path, f.frameWidth); err != nil {
				// One failed frame never aborts the batch.
				f.logger.Debug("frame extraction failed",
					zap.Int("index", i), zap.Float64("timestamp", ts), zap.Error(err))
				return nil
			}
			framePaths[i] = path
			return nil
		})
	}
	_ = g.Wait()

	// Each OCR task owns its own slot, so no shared mutable state.
	ocrTexts := make([]string, len(framePaths))
	g, gctx = errgroup.WithContext(ctx)
	g.SetLimit(f.parallelism)
	for i, path := range framePaths {
		if path == "" {
			continue
		}
		i, path := i, path
		g.Go(func() error {
			text, err := f.ocr.RecognizeText(gctx, path)
			if err != nil {
				f.logger.Debug("frame OCR failed", zap.Int("index", i), zap.Error(err))
				return nil
			}
			ocrTexts[i] = strings.TrimSpace(text)
			return nil
		})
	}
	_ = g.Wait()

	// Frame order keeps the dedup deterministic.
	var texts []string
	for _, text := range ocrTexts {
		if len(text) >= minOCRChars {
			texts = append(texts, text)
		}
	}

	unique := dedupeTexts(texts, f.similarity)
	return strings.Join(unique, ocrSeparator)
}

// ocrImage recognizes text in a single standalone image (non-video posts).
func (f *frameStage) ocrImage(ctx context.Context, imagePath string) string {
	text, err := f.ocr.RecognizeText(ctx, imagePath)
	if err != nil {
		f.logger.Info("image OCR unavailable", zap.Error(err))
		return ""
	}
	text = strings.TrimSpace(text)
	if len(text) < minOCRChars {
		return ""
	}
	return text
}

// frameCount clamps ceil(duration/3) to [10, 20].
func frameCount(duration float64) int {
	n := int(math.Ceil(duration / secondsPerFrame))
	if n < minFrames {
		return minFrames
	}
	if n > maxFrames {
		return maxFrames
	}
	return n
}

// frameTimestamps spaces count timestamps evenly, strictly inside the clip:
// the very first and last instants are excluded because they tend to be
// black frames or end cards.
func frameTimestamps(duration float64) []float64 {
	count := frameCount(duration)
	interval := duration / float64(count+1)
	timestamps := make([]float64, count)
	for i := 0; i < count; i++ {
		timestamps[i] = interval * float64(i+1)
	}
	return timestamps
}

// dedupeTexts merges near-duplicate OCR blocks pairwise. Two blocks merge
// when their normalized text is identical, when one is a substring of the
// other and the shorter exceeds 20 characters, or when their token-set
// Jaccard similarity exceeds the threshold. The longer block always wins.
func dedupeTexts(texts []string, similarity float64) []string {
	var unique []string
	for _, text := range texts {
		duplicate := false
		for i, kept := range unique {
			if !isDuplicate(text, kept, similarity) {
				continue
			}
			if len(text) > len(kept) {
				unique[i] = text
			}
			duplicate = true
			break
		}
		if !duplicate {
			unique = append(unique, text)
		}
	}
	return unique
}

func isDuplicate(a, b string, similarity float64) bool {
	na, nb := normalizeText(a), normalizeText(b)
	if na == nb {
		return true
	}

	shorter, longer := na, nb
	if len(shorter) > len(longer) {
		shorter, longer = longer, shorter
	}
	if len(shorter) > 20 && strings.Contains(longer, shorter) {
		return true
	}

	return jaccard(na, nb) > similarity
}

func normalizeText(s string) string {
	return strings.Join(strings.Fields(strings.ToLower(s)), " ")
}

// jaccard computes token-set Jaccard similarity.
func jaccard(a, b string) float64 {
	setA := map[string]bool{}
	for _, tok := range strings.Fields(a) {
		setA[tok] = true
	}
	setB := map[string]bool{}
	for _, tok := range strings.Fields(b) {
		setB[tok] = true
	}
	if len(setA) == 0 || len(setB) == 0 {
		return 0
	}

	intersection := 0
	for tok := range setA {
		if setB[tok] {
			intersection++
		}
	}
	union := len(setA) + len(setB) - intersection
	return float64(intersection) / float64(union)
}
