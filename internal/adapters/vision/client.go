// Package vision is the scene-text recognition client: one image in,
// extracted text (or an explicit no-text sentinel) out.
package vision

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"golang.org/x/time/rate"
)

// noTextSentinel is what the model is told to reply when a frame carries no
// legible text.
const noTextSentinel = "NO_TEXT"

const visionModel = "gpt-4o-mini"

const recognitionPrompt = "Extract all visible text from this image: overlays, captions, signs, labels. " +
	"Return only the text itself, no commentary. If there is no legible text, reply exactly " + noTextSentinel + "."

// Client calls the vision endpoint for scene-text recognition.
type Client struct {
	apiKey  string
	baseURL string
	client  *http.Client
	limiter *rate.Limiter
}

// NewClient creates a recognition client. Requests are paced so per-frame
// fan-out does not trip the service's rate limits.
func NewClient(apiKey, baseURL string) *Client {
	return &Client{
		apiKey:  apiKey,
		baseURL: baseURL,
		client:  &http.Client{Timeout: 60 * time.Second},
		limiter: rate.NewLimiter(rate.Every(200*time.Millisecond), 5),
	}
}

// RecognizeText extracts visible text from one image. An image with no
// legible text returns ("", nil).
func (c *Client) RecognizeText(ctx context.Context, imagePath string) (string, error) {
	if c.apiKey == "" {
		return "", fmt.Errorf("vision API key not configured")
	}
	if err := c.limiter.Wait(ctx); err != nil {
		return "", err
	}

	imageData, err := os.ReadFile(imagePath)
	if err != nil {
		return "", fmt.Errorf("failed to read image: %w", err)
	}
	dataURL := fmt.Sprintf("data:%s;base64,%s", mimeForPath(imagePath), base64.StdEncoding.EncodeToString(imageData))

	payload := map[string]interface{}{
		"model": visionModel,
		"messages": []map[string]interface{}{{
			"role": "user",
			"content": []map[string]interface{}{
				{"type": "text", "text": recognitionPrompt},
				{"type": "image_url", "image_url": map[string]string{"url": dataURL}},
			},
		}},
		"max_tokens": 500,
	}
	body, _ := json.Marshal(payload)

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/chat/completions", bytes.NewReader(body))
	if err != nil {
		return "", err
	}
	req.Header.Set("Authorization", "Bearer "+c.apiKey)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("vision request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		respBody, _ := io.ReadAll(resp.Body)
		return "", fmt.Errorf("vision request failed: status %d, body: %s", resp.StatusCode, string(respBody))
	}

	var result struct {
		Choices []struct {
			Message struct {
				Content string `json:"content"`
			} `json:"message"`
		} `json:"choices"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return "", fmt.Errorf("failed to parse vision response: %w", err)
	}
	if len(result.Choices) == 0 {
		return "", fmt.Errorf("vision response had no choices")
	}

	text := strings.TrimSpace(result.Choices[0].Message.Content)
	if text == "" || strings.EqualFold(text, noTextSentinel) {
		return "", nil
	}
	return text, nil
}

func mimeForPath(path string) string {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".png":
		return "image/png"
	case ".webp":
		return "image/webp"
	default:
		return "image/jpeg"
	}
}
