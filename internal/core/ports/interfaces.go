package ports

import (
	"context"

	"postextract/internal/core/domain"
)

// ExtractionStrategy is one concrete technique for acquiring a post's media.
// Strategies are tried in a fixed per-platform fallback order; a failed
// attempt is non-fatal and the orchestrator moves on to the next one.
type ExtractionStrategy interface {
	// Name identifies the strategy in logs and error aggregates.
	Name() string

	// Attempt resolves and downloads the post's media into destDir.
	// A nil error with Success=false is treated the same as a non-nil error.
	Attempt(ctx context.Context, url string, destDir string) (*domain.DownloadResult, error)
}

// MediaUtility wraps the external audio/frame tooling so the pipeline can
// later swap subprocess invocation for a linked codec library.
type MediaUtility interface {
	// ExtractAudio pulls the audio track of videoPath into outPath as
	// compact mono audio. Videos without an audio track produce either an
	// error or a near-empty file; callers treat both as "no audio".
	ExtractAudio(ctx context.Context, videoPath, outPath string) error

	// ProbeDuration returns the media duration in seconds.
	ProbeDuration(ctx context.Context, mediaPath string) (float64, error)

	// ExtractFrame writes the frame at timestamp (seconds) to outPath,
	// scaled to the given width.
	ExtractFrame(ctx context.Context, videoPath string, timestamp float64, outPath string, width int) error
}

// TranscribeResult is the speech-to-text service output for one audio file.
type TranscribeResult struct {
	Text     string
	Duration float64
}

// Transcriber converts an audio file into plain transcript text.
type Transcriber interface {
	Transcribe(ctx context.Context, audioPath string) (*TranscribeResult, error)
}

// TextRecognizer extracts visible text from a single image. An image with
// no legible text yields ("", nil), not an error.
type TextRecognizer interface {
	RecognizeText(ctx context.Context, imagePath string) (string, error)
}
