// Package apify implements the credentialed-provider strategy against the
// Apify REST API. It is only wired into a platform's fallback list when an
// API token is configured.
package apify

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"path/filepath"
	"strings"
	"time"

	"go.uber.org/zap"

	"postextract/internal/adapters/downloader"
	"postextract/internal/core/domain"
)

const (
	defaultBaseURL = "https://api.apify.com/v2"
	pollInterval   = 3 * time.Second
	runTimeout     = 2 * time.Minute
)

// Actor IDs (internal Apify IDs).
const (
	tiktokActorID    = "GdWCkxBtKWOsKjdch" // clockworks~tiktok-scraper
	instagramActorID = "shu8hvrXbJbY3Eb9W" // apify~instagram-scraper
)

// Strategy implements the credentialed-provider extraction strategy.
type Strategy struct {
	apiToken string
	baseURL  string
	client   *http.Client
	dl       *downloader.HTTPDownloader
	logger   *zap.Logger
}

// NewStrategy creates the provider strategy with a per-call token. The token
// is injected, never read from the environment here, so tests and concurrent
// calls can carry different credentials.
func NewStrategy(apiToken string, dl *downloader.HTTPDownloader, logger *zap.Logger) *Strategy {
	return &Strategy{
		apiToken: apiToken,
		baseURL:  defaultBaseURL,
		client:   &http.Client{},
		dl:       dl,
		logger:   logger,
	}
}

func (s *Strategy) Name() string { return "apify" }

// Attempt runs the platform's actor, waits for its dataset, and downloads
// the media it resolved.
func (s *Strategy) Attempt(ctx context.Context, url string, destDir string) (*domain.DownloadResult, error) {
	actorID, input := actorFor(url)
	if actorID == "" {
		err := fmt.Errorf("no actor configured for URL: %s", url)
		return &domain.DownloadResult{Success: false, Error: err.Error()}, err
	}

	ctx, cancel := context.WithTimeout(ctx, runTimeout)
	defer cancel()

	runID, err := s.startActorRun(ctx, actorID, input)
	if err != nil {
		err = fmt.Errorf("failed to start actor run: %w", err)
		return &domain.DownloadResult{Success: false, Error: err.Error()}, err
	}

	rawData, err := s.waitAndGetResults(ctx, runID)
	if err != nil {
		err = fmt.Errorf("failed to get results: %w", err)
		return &domain.DownloadResult{Success: false, Error: err.Error()}, err
	}

	post, err := parseDatasetItem(rawData)
	if err != nil {
		return &domain.DownloadResult{Success: false, Error: err.Error()}, err
	}

	return s.downloadPost(ctx, post, destDir)
}

// post is the normalized view of one dataset item.
type post struct {
	caption   string
	author    string
	title     string
	duration  float64
	videoURL  string
	imageURLs []string
}

func (s *Strategy) downloadPost(ctx context.Context, p *post, destDir string) (*domain.DownloadResult, error) {
	meta := &domain.Metadata{Title: p.title, Author: p.author, Duration: p.duration}

	// Slideshow / carousel: independent per-item downloads, failures omitted.
	if len(p.imageURLs) > 0 {
		urls := p.imageURLs
		if len(urls) > domain.MaxCarouselItems {
			urls = urls[:domain.MaxCarouselItems]
		}
		meta.MediaCount = len(urls)

		var files []domain.CarouselFile
		for i, u := range urls {
			dest := filepath.Join(destDir, fmt.Sprintf("media_%d.jpg", i))
			if err := s.dl.FetchToFile(ctx, u, dest, nil); err != nil {
				s.logger.Warn("carousel item download failed", zap.Int("index", i), zap.Error(err))
				continue
			}
			files = append(files, domain.CarouselFile{Path: dest, Type: domain.MediaImage})
		}
		if len(files) == 0 {
			err := fmt.Errorf("all %d carousel items failed to download", len(urls))
			return &domain.DownloadResult{Success: false, Error: err.Error()}, err
		}
		if len(files) == 1 {
			return &domain.DownloadResult{
				Success: true, FilePath: files[0].Path, MediaType: domain.MediaImage,
				Caption: p.caption, Metadata: meta,
			}, nil
		}
		return &domain.DownloadResult{
			Success: true, IsCarousel: true, CarouselFiles: files,
			Caption: p.caption, Metadata: meta,
		}, nil
	}

	if p.videoURL == "" {
		return &domain.DownloadResult{Success: false, Error: domain.ErrNoMediaURL.Error()}, domain.ErrNoMediaURL
	}

	meta.MediaCount = 1
	dest := filepath.Join(destDir, "media_0.mp4")
	if err := s.dl.FetchToFile(ctx, p.videoURL, dest, nil); err != nil {
		return &domain.DownloadResult{Success: false, Error: err.Error()}, err
	}
	return &domain.DownloadResult{
		Success: true, FilePath: dest, MediaType: domain.MediaVideo,
		Caption: p.caption, Metadata: meta,
	}, nil
}

func actorFor(url string) (string, map[string]interface{}) {
	switch {
	case containsHost(url, "tiktok.com"):
		return tiktokActorID, map[string]interface{}{
			"postURLs":       []string{url},
			"resultsPerPage": 1,
		}
	case containsHost(url, "instagram.com"):
		return instagramActorID, map[string]interface{}{
			"directUrls":   []string{url},
			"resultsLimit": 1,
		}
	default:
		return "", nil
	}
}

func containsHost(url, host string) bool {
	return strings.Contains(strings.ToLower(url), host)
}

func (s *Strategy) startActorRun(ctx context.Context, actorID string, input map[string]interface{}) (string, error) {
	url := fmt.Sprintf("%s/acts/%s/runs?token=%s", s.baseURL, actorID, s.apiToken)
	body, _ := json.Marshal(input)

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := s.client.Do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusCreated {
		respBody, _ := io.ReadAll(resp.Body)
		return "", fmt.Errorf("failed to start actor: status %d, body: %s", resp.StatusCode, string(respBody))
	}

	var result struct {
		Data struct {
			ID string `json:"id"`
		} `json:"data"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return "", err
	}
	return result.Data.ID, nil
}

func (s *Strategy) waitAndGetResults(ctx context.Context, runID string) ([]byte, error) {
	statusURL := fmt.Sprintf("%s/actor-runs/%s?token=%s", s.baseURL, runID, s.apiToken)

	for {
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(pollInterval):
		}

		req, _ := http.NewRequestWithContext(ctx, http.MethodGet, statusURL, nil)
		resp, err := s.client.Do(req)
		if err != nil {
			return nil, err
		}

		var status struct {
			Data struct {
				Status           string `json:"status"`
				DefaultDatasetID string `json:"defaultDatasetId"`
			} `json:"data"`
		}
		if err := json.NewDecoder(resp.Body).Decode(&status); err != nil {
			resp.Body.Close()
			return nil, err
		}
		resp.Body.Close()

		switch status.Data.Status {
		case "SUCCEEDED":
			return s.getDatasetItems(ctx, status.Data.DefaultDatasetID)
		case "FAILED", "ABORTED", "TIMED-OUT":
			return nil, fmt.Errorf("actor run failed with status: %s", status.Data.Status)
		}
		// Still running, continue polling.
	}
}

func (s *Strategy) getDatasetItems(ctx context.Context, datasetID string) ([]byte, error) {
	url := fmt.Sprintf("%s/datasets/%s/items?token=%s", s.baseURL, datasetID, s.apiToken)

	req, _ := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	resp, err := s.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	return io.ReadAll(resp.Body)
}

// parseDatasetItem normalizes the first dataset item across the actors'
// differing field names.
func parseDatasetItem(rawData []byte) (*post, error) {
	var items []map[string]interface{}
	if err := json.Unmarshal(rawData, &items); err != nil {
		return nil, fmt.Errorf("failed to parse dataset: %w", err)
	}
	if len(items) == 0 {
		return nil, fmt.Errorf("no results returned from scraper")
	}
	item := items[0]

	p := &post{
		caption: firstString(item, "text", "caption", "description"),
		author:  firstString(item, "authorMeta.name", "ownerUsername", "author"),
		title:   firstString(item, "title"),
	}
	if d, ok := lookup(item, "videoMeta.duration").(float64); ok {
		p.duration = d
	} else if d, ok := item["duration"].(float64); ok {
		p.duration = d
	}

	// Slideshow images take precedence over a video URL: TikTok slideshows
	// still carry a (music-only) video rendition.
	for _, field := range []string{"slideshowImageLinks", "images", "mediaUrls"} {
		if arr, ok := item[field].([]interface{}); ok && len(arr) > 0 {
			for _, v := range arr {
				switch img := v.(type) {
				case string:
					p.imageURLs = append(p.imageURLs, img)
				case map[string]interface{}:
					if u := firstString(img, "url", "imageUrl", "displayUrl"); u != "" {
						p.imageURLs = append(p.imageURLs, u)
					}
				}
			}
			if len(p.imageURLs) > 1 {
				return p, nil
			}
		}
	}

	p.videoURL = firstString(item,
		"videoUrl", "video_url", "downloadUrl", "download_url", "videoPlayUrl", "mediaUrls.0", "videoMeta.downloadAddr")
	return p, nil
}

// lookup resolves a dotted path ("videoMeta.duration", "mediaUrls.0") in a
// decoded JSON object.
func lookup(item map[string]interface{}, path string) interface{} {
	var cur interface{} = item
	start := 0
	for i := 0; i <= len(path); i++ {
		if i != len(path) && path[i] != '.' {
			continue
		}
		key := path[start:i]
		start = i + 1
		switch node := cur.(type) {
		case map[string]interface{}:
			cur = node[key]
		case []interface{}:
			idx := 0
			for _, c := range key {
				if c < '0' || c > '9' {
					return nil
				}
				idx = idx*10 + int(c-'0')
			}
			if idx >= len(node) {
				return nil
			}
			cur = node[idx]
		default:
			return nil
		}
	}
	return cur
}

func firstString(item map[string]interface{}, paths ...string) string {
	for _, path := range paths {
		if s, ok := lookup(item, path).(string); ok && s != "" {
			return s
		}
	}
	return ""
}
