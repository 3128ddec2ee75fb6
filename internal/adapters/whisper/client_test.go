package whisper

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"postextract/internal/core/domain"
)

func writeAudio(t *testing.T, size int) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "audio.mp3")
	require.NoError(t, os.WriteFile(path, make([]byte, size), 0644))
	return path
}

func TestTranscribe(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, r.ParseMultipartForm(32<<20))
		assert.Equal(t, "whisper-1", r.FormValue("model"))
		assert.Equal(t, "Bearer key123", r.Header.Get("Authorization"))
		json.NewEncoder(w).Encode(map[string]any{"text": "hello world", "duration": 4.2})
	}))
	defer srv.Close()

	c := NewClient("key123", srv.URL)
	res, err := c.Transcribe(context.Background(), writeAudio(t, 2048))
	require.NoError(t, err)
	assert.Equal(t, "hello world", res.Text)
	assert.Equal(t, 4.2, res.Duration)
}

func TestTranscribeRejectsOversizedAudio(t *testing.T) {
	called := false
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		called = true
	}))
	defer srv.Close()

	c := NewClient("key123", srv.URL)
	_, err := c.Transcribe(context.Background(), writeAudio(t, MaxAudioBytes+1))
	require.ErrorIs(t, err, domain.ErrAudioTooLarge)
	assert.False(t, called, "oversized audio must be rejected before upload")
}

func TestTranscribeWithoutKey(t *testing.T) {
	c := NewClient("", "http://unused")
	_, err := c.Transcribe(context.Background(), writeAudio(t, 10))
	assert.Error(t, err)
}
