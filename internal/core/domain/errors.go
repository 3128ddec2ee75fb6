package domain

import "errors"

var (
	// ErrUnsupportedPlatform means no platform matcher recognized the URL.
	// Terminal: the call performs no network I/O after this.
	ErrUnsupportedPlatform = errors.New("unsupported platform")

	// ErrExtractionExhausted means every configured strategy failed for the URL.
	ErrExtractionExhausted = errors.New("all extraction methods failed; content may be private, age-restricted, or require login")

	// ErrNoMediaURL means a strategy resolved metadata but no downloadable media.
	ErrNoMediaURL = errors.New("no media URL resolved")

	// ErrAudioTooLarge means the extracted audio exceeds the transcription ceiling.
	ErrAudioTooLarge = errors.New("audio exceeds transcription size limit")
)
