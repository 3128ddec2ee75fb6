// Package ytdlp implements the generic-downloader strategy on top of the
// local yt-dlp binary. It is the last-resort fallback for the short-form
// platforms and the only strategy for everything else.
package ytdlp

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"os/exec"
	"path/filepath"
	"strings"
	"time"

	"go.uber.org/zap"

	"postextract/internal/adapters/downloader"
	"postextract/internal/core/domain"
)

const metadataTimeout = 30 * time.Second

// Strategy runs yt-dlp for metadata resolution and streams the resolved
// media URLs itself.
type Strategy struct {
	binaryPath string
	dl         *downloader.HTTPDownloader
	logger     *zap.Logger
}

// NewStrategy creates the generic-downloader strategy. Assumes yt-dlp is in PATH.
func NewStrategy(dl *downloader.HTTPDownloader, logger *zap.Logger) *Strategy {
	return &Strategy{binaryPath: "yt-dlp", dl: dl, logger: logger}
}

func (s *Strategy) Name() string { return "ytdlp" }

// videoInfo is the subset of yt-dlp's -J output the pipeline needs.
type videoInfo struct {
	Type        string            `json:"_type"`
	Title       string            `json:"title"`
	Description string            `json:"description"`
	Uploader    string            `json:"uploader"`
	Duration    float64           `json:"duration"`
	URL         string            `json:"url"`
	Ext         string            `json:"ext"`
	HTTPHeaders map[string]string `json:"http_headers"`
	Entries     []videoInfo       `json:"entries"`
}

// Attempt resolves the post via `yt-dlp -J` and downloads every resolved
// item (up to the carousel cap) into destDir.
func (s *Strategy) Attempt(ctx context.Context, url string, destDir string) (*domain.DownloadResult, error) {
	info, err := s.dumpJSON(ctx, url)
	if err != nil {
		return &domain.DownloadResult{Success: false, Error: err.Error()}, err
	}

	meta := &domain.Metadata{
		Title:    info.Title,
		Author:   info.Uploader,
		Duration: info.Duration,
	}

	// Multi-entry listing: a carousel or slideshow post.
	if info.Type == "playlist" && len(info.Entries) > 0 {
		return s.downloadEntries(ctx, info, meta, destDir)
	}

	if info.URL == "" {
		return &domain.DownloadResult{Success: false, Error: domain.ErrNoMediaURL.Error()}, domain.ErrNoMediaURL
	}

	mediaType := mediaTypeForExt(info.Ext)
	dest := filepath.Join(destDir, "media_0."+extOrDefault(info.Ext, mediaType))
	if err := s.dl.FetchToFile(ctx, info.URL, dest, info.HTTPHeaders); err != nil {
		return &domain.DownloadResult{Success: false, Error: err.Error()}, err
	}

	meta.MediaCount = 1
	return &domain.DownloadResult{
		Success:   true,
		FilePath:  dest,
		MediaType: mediaType,
		Caption:   info.Description,
		Metadata:  meta,
	}, nil
}

func (s *Strategy) downloadEntries(ctx context.Context, info *videoInfo, meta *domain.Metadata, destDir string) (*domain.DownloadResult, error) {
	entries := info.Entries
	if len(entries) > domain.MaxCarouselItems {
		s.logger.Info("capping carousel entries",
			zap.Int("total", len(entries)), zap.Int("cap", domain.MaxCarouselItems))
		entries = entries[:domain.MaxCarouselItems]
	}
	meta.MediaCount = len(entries)

	var files []domain.CarouselFile
	for i, entry := range entries {
		if entry.URL == "" {
			s.logger.Warn("carousel entry has no media URL", zap.Int("index", i))
			continue
		}
		mediaType := mediaTypeForExt(entry.Ext)
		dest := filepath.Join(destDir, fmt.Sprintf("media_%d.%s", i, extOrDefault(entry.Ext, mediaType)))
		if err := s.dl.FetchToFile(ctx, entry.URL, dest, entry.HTTPHeaders); err != nil {
			// Per-item failure is non-fatal: the item is simply omitted.
			s.logger.Warn("carousel item download failed", zap.Int("index", i), zap.Error(err))
			continue
		}
		files = append(files, domain.CarouselFile{Path: dest, Type: mediaType})
	}

	if len(files) == 0 {
		err := fmt.Errorf("all %d carousel items failed to download", len(entries))
		return &domain.DownloadResult{Success: false, Error: err.Error()}, err
	}

	// A single surviving item is treated as the whole result.
	if len(files) == 1 {
		return &domain.DownloadResult{
			Success:   true,
			FilePath:  files[0].Path,
			MediaType: files[0].Type,
			Caption:   info.Description,
			Metadata:  meta,
		}, nil
	}

	return &domain.DownloadResult{
		Success:       true,
		IsCarousel:    true,
		CarouselFiles: files,
		Caption:       info.Description,
		Metadata:      meta,
	}, nil
}

// dumpJSON runs `yt-dlp -J` and parses the result.
func (s *Strategy) dumpJSON(ctx context.Context, url string) (*videoInfo, error) {
	ctx, cancel := context.WithTimeout(ctx, metadataTimeout)
	defer cancel()

	// -f b: best single-file format, so every entry carries a direct URL
	// -J: dump full metadata as one JSON document
	cmd := exec.CommandContext(ctx, s.binaryPath, "-f", "b", "-J", "--no-warnings", url)

	var out bytes.Buffer
	var stderr bytes.Buffer
	cmd.Stdout = &out
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		return nil, fmt.Errorf("yt-dlp failed: %w, stderr: %s", err, strings.TrimSpace(stderr.String()))
	}

	return parseDumpJSON(out.Bytes())
}

// parseDumpJSON decodes a yt-dlp -J document.
func parseDumpJSON(data []byte) (*videoInfo, error) {
	var info videoInfo
	if err := json.Unmarshal(data, &info); err != nil {
		return nil, fmt.Errorf("failed to parse yt-dlp output: %w", err)
	}
	return &info, nil
}

var imageExts = map[string]bool{
	"jpg": true, "jpeg": true, "png": true, "webp": true, "gif": true, "heic": true,
}

func mediaTypeForExt(ext string) domain.MediaType {
	if imageExts[strings.ToLower(ext)] {
		return domain.MediaImage
	}
	return domain.MediaVideo
}

func extOrDefault(ext string, mediaType domain.MediaType) string {
	if ext != "" {
		return ext
	}
	if mediaType == domain.MediaImage {
		return "jpg"
	}
	return "mp4"
}
