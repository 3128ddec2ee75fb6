// Package whisper is the speech-to-text client. It uploads one audio file
// and returns plain transcript text plus the spoken duration.
package whisper

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"os"
	"path/filepath"

	"postextract/internal/core/domain"
	"postextract/internal/core/ports"
)

// MaxAudioBytes is the service's upload ceiling (~25MB).
const MaxAudioBytes = 25 * 1024 * 1024

const transcriptionModel = "whisper-1"

// Client calls the transcription endpoint.
type Client struct {
	apiKey  string
	baseURL string
	client  *http.Client
}

// NewClient creates a transcription client. The key is injected per call
// site; an empty key makes every Transcribe call fail, which the pipeline
// treats as "transcription unavailable".
func NewClient(apiKey, baseURL string) *Client {
	return &Client{apiKey: apiKey, baseURL: baseURL, client: &http.Client{}}
}

// Transcribe uploads audioPath and returns the transcript. Files over the
// service ceiling are rejected client-side.
func (c *Client) Transcribe(ctx context.Context, audioPath string) (*ports.TranscribeResult, error) {
	if c.apiKey == "" {
		return nil, fmt.Errorf("transcription API key not configured")
	}

	info, err := os.Stat(audioPath)
	if err != nil {
		return nil, fmt.Errorf("failed to stat audio file: %w", err)
	}
	if info.Size() > MaxAudioBytes {
		return nil, fmt.Errorf("%w: %d bytes", domain.ErrAudioTooLarge, info.Size())
	}

	file, err := os.Open(audioPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open audio file: %w", err)
	}
	defer file.Close()

	var body bytes.Buffer
	writer := multipart.NewWriter(&body)

	part, err := writer.CreateFormFile("file", filepath.Base(audioPath))
	if err != nil {
		return nil, err
	}
	if _, err := io.Copy(part, file); err != nil {
		return nil, fmt.Errorf("failed to read audio file: %w", err)
	}
	_ = writer.WriteField("model", transcriptionModel)
	_ = writer.WriteField("response_format", "verbose_json")
	if err := writer.Close(); err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/audio/transcriptions", &body)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Authorization", "Bearer "+c.apiKey)
	req.Header.Set("Content-Type", writer.FormDataContentType())

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("transcription request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		respBody, _ := io.ReadAll(resp.Body)
		return nil, fmt.Errorf("transcription failed: status %d, body: %s", resp.StatusCode, string(respBody))
	}

	var result struct {
		Text     string  `json:"text"`
		Duration float64 `json:"duration"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return nil, fmt.Errorf("failed to parse transcription response: %w", err)
	}

	return &ports.TranscribeResult{Text: result.Text, Duration: result.Duration}, nil
}
