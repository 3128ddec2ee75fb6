package domain

// Platform identifies a supported social-media platform.
type Platform string

const (
	PlatformTikTok    Platform = "tiktok"
	PlatformInstagram Platform = "instagram"
	PlatformYouTube   Platform = "youtube"
	PlatformTwitter   Platform = "twitter"
	PlatformFacebook  Platform = "facebook"
	PlatformReddit    Platform = "reddit"
	PlatformUnknown   Platform = ""
)

// MediaType distinguishes the two media shapes an item can have.
type MediaType string

const (
	MediaVideo MediaType = "video"
	MediaImage MediaType = "image"
)

// MaxCarouselItems caps how many items of a multi-item post are processed.
const MaxCarouselItems = 10

// ExtractionRequest describes one extraction call. Created per call, never persisted.
type ExtractionRequest struct {
	URL      string   `json:"url"`
	Platform Platform `json:"platform"`
}

// Metadata holds descriptive fields a strategy recovered alongside the media.
type Metadata struct {
	Title      string  `json:"title,omitempty"`
	Author     string  `json:"author,omitempty"`
	Duration   float64 `json:"duration,omitempty"`
	MediaCount int     `json:"media_count,omitempty"`
}

// CarouselFile is one downloaded item of a multi-item post.
type CarouselFile struct {
	Path string    `json:"path"`
	Type MediaType `json:"type"`
}

// DownloadResult is the outcome of exactly one strategy attempt.
// Immutable once returned.
type DownloadResult struct {
	Success       bool           `json:"success"`
	FilePath      string         `json:"file_path,omitempty"`
	MediaType     MediaType      `json:"media_type,omitempty"`
	IsCarousel    bool           `json:"is_carousel"`
	CarouselFiles []CarouselFile `json:"carousel_files,omitempty"`
	Caption       string         `json:"caption,omitempty"`
	Metadata      *Metadata      `json:"metadata,omitempty"`
	Error         string         `json:"error,omitempty"`
}

// CarouselItem is the processed text for one item of a multi-item post,
// in original index order.
type CarouselItem struct {
	Index      int       `json:"index"`
	Type       MediaType `json:"type"`
	OCRText    string    `json:"ocr_text,omitempty"`
	Transcript string    `json:"transcript,omitempty"`
}

// MusicClassification scores a transcript as music lyrics vs spoken narration.
// Derived, never persisted, attached only to transcripts.
type MusicClassification struct {
	IsLikelyMusic bool    `json:"is_likely_music"`
	Confidence    float64 `json:"confidence"`
}

// ExtractionResult is the final output of one extraction call.
type ExtractionResult struct {
	Platform        Platform       `json:"platform"`
	URL             string         `json:"url"`
	Success         bool           `json:"success"`
	Error           string         `json:"error,omitempty"`
	Caption         string         `json:"caption,omitempty"`
	AudioTranscript string         `json:"audio_transcript,omitempty"`
	OCRText         string         `json:"ocr_text,omitempty"`
	Metadata        *Metadata      `json:"metadata,omitempty"`
	CarouselItems   []CarouselItem `json:"carousel_items,omitempty"`
}
