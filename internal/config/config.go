package config

import (
	"os"
	"strconv"
)

// Classifier holds the tunable thresholds of the music/narration heuristic.
// These are approximations calibrated on short-form English content; they are
// not guaranteed to generalize across languages or genres.
type Classifier struct {
	// MusicScoreFloor is the minimum music score for a music verdict.
	MusicScoreFloor int
	// WordsPerSentence above this adds to the music score.
	WordsPerSentence float64
	// RepetitionRatio of repeated tokens above this adds to the music score.
	RepetitionRatio float64
}

// Config carries everything an extraction call needs. It is built once in
// main and passed down explicitly; nothing in the pipeline reads the
// environment or caches credentials process-wide.
type Config struct {
	// ApifyToken enables the credentialed-provider strategy when non-empty.
	ApifyToken string
	// OpenAIKey authorizes the speech-to-text and scene-text services.
	OpenAIKey string
	// OpenAIBaseURL overrides the API endpoint (tests, proxies).
	OpenAIBaseURL string

	// DataDir is the root under which call-scoped scratch namespaces live.
	DataDir string

	// FrameWidth is the fixed output width for sampled frames.
	FrameWidth int
	// FrameParallelism bounds concurrent frame extraction and OCR.
	FrameParallelism int
	// OCRSimilarity is the token-set Jaccard threshold for dedup merging.
	OCRSimilarity float64

	Classifier Classifier
}

// Load reads configuration from the environment, applying defaults.
func Load() Config {
	return Config{
		ApifyToken:    os.Getenv("APIFY_API_TOKEN"),
		OpenAIKey:     os.Getenv("OPENAI_API_KEY"),
		OpenAIBaseURL: getEnv("OPENAI_BASE_URL", "https://api.openai.com/v1"),

		DataDir: getEnv("DATA_DIR", "./data"),

		FrameWidth:       getEnvInt("FRAME_WIDTH", 960),
		FrameParallelism: getEnvInt("FRAME_PARALLELISM", 5),
		OCRSimilarity:    getEnvFloat("OCR_SIMILARITY", 0.85),

		Classifier: Classifier{
			MusicScoreFloor:  getEnvInt("MUSIC_SCORE_FLOOR", 5),
			WordsPerSentence: getEnvFloat("MUSIC_WORDS_PER_SENTENCE", 15),
			RepetitionRatio:  getEnvFloat("MUSIC_REPETITION_RATIO", 0.15),
		},
	}
}

// DefaultClassifier returns the stock heuristic thresholds.
func DefaultClassifier() Classifier {
	return Classifier{MusicScoreFloor: 5, WordsPerSentence: 15, RepetitionRatio: 0.15}
}

func getEnv(key, fallback string) string {
	if value, ok := os.LookupEnv(key); ok {
		return value
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	if value, ok := os.LookupEnv(key); ok {
		if n, err := strconv.Atoi(value); err == nil {
			return n
		}
	}
	return fallback
}

func getEnvFloat(key string, fallback float64) float64 {
	if value, ok := os.LookupEnv(key); ok {
		if f, err := strconv.ParseFloat(value, 64); err == nil {
			return f
		}
	}
	return fallback
}
