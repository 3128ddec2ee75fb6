package service

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"postextract/internal/config"
)

func TestClassifyLyrics(t *testing.T) {
	c := classifyTranscript("oh oh baby dance with me tonight girl", config.DefaultClassifier())
	assert.True(t, c.IsLikelyMusic)
	assert.Greater(t, c.Confidence, 0.5)
}

func TestClassifyNarration(t *testing.T) {
	c := classifyTranscript(
		"today I'll show you the best budget hotel in Paris, book it for $80 a night",
		config.DefaultClassifier())
	assert.False(t, c.IsLikelyMusic)
	assert.Less(t, c.Confidence, 0.5)
}

func TestClassifyEmptyTranscript(t *testing.T) {
	c := classifyTranscript("", config.DefaultClassifier())
	assert.False(t, c.IsLikelyMusic)
	assert.Equal(t, 0.5, c.Confidence, "no signal either way yields 0.5")
}

func TestClassifyChorusRepetition(t *testing.T) {
	// Heavy token repetition plus rhyming line endings, no narration signal.
	c := classifyTranscript(
		"shake it shake it shake it all night\nhold me close under the light\neverything gonna be alright",
		config.DefaultClassifier())
	assert.True(t, c.IsLikelyMusic)
}

func TestClassifyNeutralSpeechIsNotMusic(t *testing.T) {
	// Below the music-score floor even though narration signal is weak.
	c := classifyTranscript("the weather was nice. we went outside.", config.DefaultClassifier())
	assert.False(t, c.IsLikelyMusic)
}

func TestRhymingPairs(t *testing.T) {
	assert.Equal(t, 2, rhymingPairs("dancing in the night\nholding you so tight\nunder the moonlight"))
	assert.Equal(t, 0, rhymingPairs("single line only"))
	assert.Equal(t, 0, rhymingPairs("first line here\nsecond line gone"))
}
