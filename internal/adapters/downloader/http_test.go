package downloader

import (
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFetchToFile(t *testing.T) {
	var gotUA, gotReferer string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotUA = r.Header.Get("User-Agent")
		gotReferer = r.Header.Get("Referer")
		w.Write([]byte("binary media bytes"))
	}))
	defer srv.Close()

	dest := filepath.Join(t.TempDir(), "video.mp4")
	d := NewHTTPDownloader()
	err := d.FetchToFile(context.Background(), srv.URL, dest, map[string]string{"Referer": "https://www.tiktok.com/"})
	require.NoError(t, err)

	data, err := os.ReadFile(dest)
	require.NoError(t, err)
	assert.Equal(t, "binary media bytes", string(data))
	assert.Contains(t, gotUA, "Mozilla/5.0")
	assert.Equal(t, "https://www.tiktok.com/", gotReferer)
}

func TestFetchToFileNonOKStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "forbidden", http.StatusForbidden)
	}))
	defer srv.Close()

	dest := filepath.Join(t.TempDir(), "video.mp4")
	err := NewHTTPDownloader().FetchToFile(context.Background(), srv.URL, dest, nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "403")
	assert.NoFileExists(t, dest)
}
