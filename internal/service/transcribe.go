package service

import (
	"context"
	"os"

	"go.uber.org/zap"

	"postextract/internal/config"
	"postextract/internal/core/ports"
	"postextract/internal/scratch"
)

// Audio under this size is an empty or silent track not worth transcribing.
const minAudioBytes = 1024

// musicTag marks a transcript the classifier scored as lyrics. The transcript
// is still returned so the consumer sees everything that was extractable.
const musicTag = "[likely music lyrics, not narration]"

// transcriptionStage extracts a video's audio track, transcribes it, and
// classifies the transcript as narration vs music.
type transcriptionStage struct {
	media       ports.MediaUtility
	transcriber ports.Transcriber
	classifier  config.Classifier
	logger      *zap.Logger
}

// run returns the (possibly music-tagged) transcript, or "" when
// transcription is unavailable. Unavailability is never an error: the
// pipeline proceeds with whatever else it can extract.
func (t *transcriptionStage) run(ctx context.Context, videoPath string, ns *scratch.Namespace) string {
	audioPath := ns.Path("audio.mp3")
	if err := t.media.ExtractAudio(ctx, videoPath, audioPath); err != nil {
		t.logger.Info("audio extraction failed, skipping transcription", zap.Error(err))
		return ""
	}

	info, err := os.Stat(audioPath)
	if err != nil || info.Size() < minAudioBytes {
		t.logger.Info("no usable audio track, skipping transcription")
		return ""
	}

	// The transcriber enforces the service's upload ceiling itself.
	result, err := t.transcriber.Transcribe(ctx, audioPath)
	if err != nil {
		t.logger.Info("transcription unavailable", zap.Error(err))
		return ""
	}
	if result.Text == "" {
		return ""
	}

	classification := classifyTranscript(result.Text, t.classifier)
	if classification.IsLikelyMusic {
		t.logger.Info("transcript classified as music",
			zap.Float64("confidence", classification.Confidence))
		return musicTag + " " + result.Text
	}
	return result.Text
}
