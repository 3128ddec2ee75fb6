package apify

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"postextract/internal/adapters/downloader"
	"postextract/internal/core/domain"
)

func TestParseDatasetItemTikTokVideo(t *testing.T) {
	raw := []byte(`[{
		"text": "POV: you found the best coffee in town",
		"authorMeta": {"name": "coffeelover"},
		"videoMeta": {"duration": 27.0, "downloadAddr": "https://cdn.example.com/v.mp4"},
		"videoUrl": "https://cdn.example.com/v.mp4"
	}]`)

	p, err := parseDatasetItem(raw)
	require.NoError(t, err)
	assert.Equal(t, "POV: you found the best coffee in town", p.caption)
	assert.Equal(t, "coffeelover", p.author)
	assert.Equal(t, 27.0, p.duration)
	assert.Equal(t, "https://cdn.example.com/v.mp4", p.videoURL)
	assert.Empty(t, p.imageURLs)
}

func TestParseDatasetItemSlideshow(t *testing.T) {
	raw := []byte(`[{
		"text": "5 outfits for fall",
		"slideshowImageLinks": [
			{"url": "https://cdn.example.com/1.jpg"},
			{"url": "https://cdn.example.com/2.jpg"},
			{"url": "https://cdn.example.com/3.jpg"}
		],
		"videoUrl": "https://cdn.example.com/music-only.mp4"
	}]`)

	p, err := parseDatasetItem(raw)
	require.NoError(t, err)
	require.Len(t, p.imageURLs, 3)
	assert.Equal(t, "https://cdn.example.com/2.jpg", p.imageURLs[1])
	// Slideshow images win over the music-only video rendition.
	assert.Empty(t, p.videoURL)
}

func TestParseDatasetItemEmpty(t *testing.T) {
	_, err := parseDatasetItem([]byte(`[]`))
	assert.Error(t, err)
}

func TestAttemptEndToEnd(t *testing.T) {
	media := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("video bytes"))
	}))
	defer media.Close()

	mux := http.NewServeMux()
	mux.HandleFunc("/acts/", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusCreated)
		json.NewEncoder(w).Encode(map[string]any{"data": map[string]string{"id": "run1"}})
	})
	mux.HandleFunc("/actor-runs/run1", func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]any{
			"data": map[string]string{"status": "SUCCEEDED", "defaultDatasetId": "ds1"},
		})
	})
	mux.HandleFunc("/datasets/ds1/items", func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode([]map[string]any{{
			"text":     "caption here",
			"videoUrl": media.URL + "/v.mp4",
		}})
	})
	api := httptest.NewServer(mux)
	defer api.Close()

	s := NewStrategy("token", downloader.NewHTTPDownloader(), zap.NewNop())
	s.baseURL = api.URL

	res, err := s.Attempt(context.Background(), "https://www.tiktok.com/@u/video/1", t.TempDir())
	require.NoError(t, err)
	assert.True(t, res.Success)
	assert.Equal(t, domain.MediaVideo, res.MediaType)
	assert.Equal(t, "caption here", res.Caption)
	assert.FileExists(t, res.FilePath)
}

func TestActorForUnknownHost(t *testing.T) {
	id, _ := actorFor("https://example.com/post/1")
	assert.Empty(t, id)
}
