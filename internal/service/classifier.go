package service

import (
	"regexp"
	"strings"
	"unicode"

	"postextract/internal/config"
	"postextract/internal/core/domain"
)

// The classifier separates sung lyrics from spoken narration so the pipeline
// can tag (not discard) transcripts of background music. It is a tunable
// heuristic, not a load-bearing invariant.

// Filler exclamations and dance/party vocabulary typical of lyrics.
var musicWords = map[string]bool{
	"oh": true, "ooh": true, "yeah": true, "yea": true, "la": true, "na": true,
	"woah": true, "whoa": true, "hey": true, "ayy": true, "baby": true,
	"dance": true, "dancing": true, "party": true, "club": true, "tonight": true,
	"girl": true, "boy": true, "love": true, "heart": true, "shake": true,
	"drop": true, "beat": true, "vibe": true, "groove": true,
}

// Sequencing, recommendation, and price/venue vocabulary typical of narration.
var narrationWords = map[string]bool{
	"first": true, "second": true, "third": true, "then": true, "next": true,
	"finally": true, "step": true, "tip": true, "tips": true, "tutorial": true,
	"recommend": true, "recommended": true, "review": true, "guide": true,
	"hack": true, "budget": true, "cheap": true, "price": true, "cost": true,
	"hotel": true, "restaurant": true, "cafe": true, "menu": true, "located": true,
	"address": true, "book": true, "visit": true, "order": true,
}

var narrationPhrases = []string{
	"show you", "check out", "make sure", "here's how", "in this video", "let me show",
}

var (
	pricePattern    = regexp.MustCompile(`\$\d+`)
	sentencePattern = regexp.MustCompile(`[.!?]+`)
)

// classifyTranscript scores a transcript as music lyrics vs spoken narration.
func classifyTranscript(text string, cfg config.Classifier) domain.MusicClassification {
	lower := strings.ToLower(text)
	tokens := tokenize(lower)

	musicScore := 0
	narrationScore := 0

	for _, tok := range tokens {
		if musicWords[tok] {
			musicScore += 2
		}
		if narrationWords[tok] {
			narrationScore += 3
		}
	}
	for _, phrase := range narrationPhrases {
		narrationScore += 3 * strings.Count(lower, phrase)
	}
	narrationScore += 3 * len(pricePattern.FindAllString(lower, -1))

	// Sung lines are rarely punctuated like speech.
	if avgWordsPerSentence(lower) > cfg.WordsPerSentence {
		musicScore += 3
	}

	// Chorus repetition.
	if len(tokens) > 0 {
		unique := map[string]bool{}
		for _, tok := range tokens {
			unique[tok] = true
		}
		repeated := len(tokens) - len(unique)
		if float64(repeated) > cfg.RepetitionRatio*float64(len(tokens)) {
			musicScore += 4
		}
	}

	musicScore += rhymingPairs(text)

	isMusic := musicScore > narrationScore && musicScore >= cfg.MusicScoreFloor
	confidence := 0.5
	if musicScore+narrationScore > 0 {
		confidence = float64(musicScore) / float64(musicScore+narrationScore)
	}
	return domain.MusicClassification{IsLikelyMusic: isMusic, Confidence: confidence}
}

func tokenize(lower string) []string {
	return strings.FieldsFunc(lower, func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsNumber(r) && r != '\''
	})
}

func avgWordsPerSentence(lower string) float64 {
	sentences := 0
	words := 0
	for _, sentence := range sentencePattern.Split(lower, -1) {
		n := len(strings.Fields(sentence))
		if n == 0 {
			continue
		}
		sentences++
		words += n
	}
	if sentences == 0 {
		return 0
	}
	return float64(words) / float64(sentences)
}

// rhymingPairs compares the last 3 characters of the final word of
// consecutive lines; each rhyming pair counts once.
func rhymingPairs(text string) int {
	var endings []string
	for _, line := range strings.Split(text, "\n") {
		fields := strings.Fields(strings.ToLower(line))
		if len(fields) == 0 {
			continue
		}
		last := strings.TrimFunc(fields[len(fields)-1], func(r rune) bool {
			return !unicode.IsLetter(r) && !unicode.IsNumber(r)
		})
		if len(last) >= 3 {
			endings = append(endings, last[len(last)-3:])
		} else {
			endings = append(endings, "")
		}
	}

	pairs := 0
	for i := 1; i < len(endings); i++ {
		if endings[i] != "" && endings[i] == endings[i-1] {
			pairs++
		}
	}
	return pairs
}
