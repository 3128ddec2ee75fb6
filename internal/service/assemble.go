package service

import (
	"fmt"
	"strings"

	"postextract/internal/core/domain"
)

// AssembleDocument merges everything extracted from a post into one
// newline-delimited text document for the downstream planner. Sections
// appear in a fixed order; absent fields are omitted entirely.
func AssembleDocument(res *domain.ExtractionResult) string {
	var b strings.Builder

	fmt.Fprintf(&b, "Platform: %s\n", res.Platform)
	fmt.Fprintf(&b, "Source URL: %s\n", res.URL)

	if res.Metadata != nil {
		if res.Metadata.Author != "" {
			fmt.Fprintf(&b, "Author: %s\n", res.Metadata.Author)
		}
		if res.Metadata.Title != "" {
			fmt.Fprintf(&b, "Title: %s\n", res.Metadata.Title)
		}
	}
	if res.Caption != "" {
		fmt.Fprintf(&b, "\nCaption:\n%s\n", res.Caption)
	}
	if res.AudioTranscript != "" {
		fmt.Fprintf(&b, "\nAudio Transcript:\n%s\n", res.AudioTranscript)
	}
	if res.OCRText != "" {
		fmt.Fprintf(&b, "\nOn-Screen Text:\n%s\n", res.OCRText)
	}

	// Items appear in original index order regardless of processing order.
	for _, item := range res.CarouselItems {
		if item.Transcript == "" && item.OCRText == "" {
			continue
		}
		fmt.Fprintf(&b, "\nItem %d (%s):\n", item.Index+1, item.Type)
		if item.Transcript != "" {
			fmt.Fprintf(&b, "Transcript: %s\n", item.Transcript)
		}
		if item.OCRText != "" {
			fmt.Fprintf(&b, "On-Screen Text: %s\n", item.OCRText)
		}
	}

	return strings.TrimRight(b.String(), "\n")
}
