package service

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"postextract/internal/config"
	"postextract/internal/core/domain"
	"postextract/internal/core/ports"
	"postextract/internal/scratch"
)

// fakeStrategy writes placeholder media into destDir and returns a canned result.
type fakeStrategy struct {
	mu       sync.Mutex
	name     string
	fail     bool
	carousel int // when >0, produce a carousel with this many image items
	media    domain.MediaType
	caption  string
	calls    int
}

func (s *fakeStrategy) Name() string { return s.name }

func (s *fakeStrategy) Attempt(ctx context.Context, url string, destDir string) (*domain.DownloadResult, error) {
	s.mu.Lock()
	s.calls++
	s.mu.Unlock()

	if s.fail {
		return &domain.DownloadResult{Success: false, Error: "simulated failure"}, fmt.Errorf("simulated failure")
	}

	if s.carousel > 0 {
		var files []domain.CarouselFile
		for i := 0; i < s.carousel; i++ {
			path := filepath.Join(destDir, fmt.Sprintf("media_%d.jpg", i))
			if err := os.WriteFile(path, []byte("img"), 0644); err != nil {
				return nil, err
			}
			files = append(files, domain.CarouselFile{Path: path, Type: domain.MediaImage})
		}
		return &domain.DownloadResult{
			Success: true, IsCarousel: true, CarouselFiles: files,
			Caption: s.caption, Metadata: &domain.Metadata{MediaCount: s.carousel},
		}, nil
	}

	mediaType := s.media
	if mediaType == "" {
		mediaType = domain.MediaVideo
	}
	path := filepath.Join(destDir, "media_0.mp4")
	if err := os.WriteFile(path, []byte("video"), 0644); err != nil {
		return nil, err
	}
	return &domain.DownloadResult{
		Success: true, FilePath: path, MediaType: mediaType,
		Caption: s.caption, Metadata: &domain.Metadata{Author: "someone"},
	}, nil
}

// fakeTranscriber returns canned transcript text.
type fakeTranscriber struct {
	text string
	err  error
}

func (f *fakeTranscriber) Transcribe(ctx context.Context, audioPath string) (*ports.TranscribeResult, error) {
	if f.err != nil {
		return nil, f.err
	}
	return &ports.TranscribeResult{Text: f.text, Duration: 5}, nil
}

type orchestratorFixture struct {
	orch       *Orchestrator
	scratchDir string
}

func newFixture(t *testing.T, strategies Strategies, media *fakeMedia, transcriber ports.Transcriber, ocr ports.TextRecognizer) *orchestratorFixture {
	t.Helper()
	dir := t.TempDir()
	cfg := config.Config{
		FrameWidth:       960,
		FrameParallelism: 4,
		OCRSimilarity:    0.85,
		Classifier:       config.DefaultClassifier(),
	}
	mgr := scratch.NewManager(dir, zap.NewNop())
	return &orchestratorFixture{
		orch:       NewOrchestrator(strategies, media, transcriber, ocr, mgr, cfg, zap.NewNop()),
		scratchDir: dir,
	}
}

// assertNoScratchLeaks verifies that no files remain under the call's
// temporary namespace after the call finishes.
func (f *orchestratorFixture) assertNoScratchLeaks(t *testing.T) {
	t.Helper()
	tmpDir := filepath.Join(f.scratchDir, "tmp")
	entries, err := os.ReadDir(tmpDir)
	if os.IsNotExist(err) {
		return
	}
	require.NoError(t, err)
	assert.Empty(t, entries, "temporary namespaces must be removed after the call")
}

func TestExtractUnsupportedPlatform(t *testing.T) {
	strategy := &fakeStrategy{name: "generic"}
	f := newFixture(t, Strategies{Generic: strategy}, &fakeMedia{duration: 9}, &fakeTranscriber{}, &fakeOCR{})

	res := f.orch.Extract(context.Background(), "https://vimeo.com/12345")

	assert.False(t, res.Success)
	assert.Contains(t, res.Error, "unsupported platform")
	assert.Empty(t, res.AudioTranscript)
	assert.Empty(t, res.OCRText)
	assert.Empty(t, res.Caption)
	assert.Equal(t, 0, strategy.calls, "no strategy may run for an unsupported platform")
	f.assertNoScratchLeaks(t)
}

func TestExtractAllStrategiesFail(t *testing.T) {
	provider := &fakeStrategy{name: "apify", fail: true}
	scrape := &fakeStrategy{name: "pagescrape", fail: true}
	generic := &fakeStrategy{name: "ytdlp", fail: true}
	f := newFixture(t, Strategies{Provider: provider, PageScrape: scrape, Generic: generic},
		&fakeMedia{duration: 9}, &fakeTranscriber{}, &fakeOCR{})

	res := f.orch.Extract(context.Background(), "https://www.tiktok.com/@u/video/1")

	assert.False(t, res.Success)
	assert.Contains(t, res.Error, "all extraction methods failed")
	assert.Equal(t, 1, provider.calls)
	assert.Equal(t, 1, scrape.calls)
	assert.Equal(t, 1, generic.calls)
	// No partial download data leaks into the output.
	assert.Empty(t, res.Caption)
	assert.Nil(t, res.Metadata)
	f.assertNoScratchLeaks(t)
}

func TestExtractFallbackOrder(t *testing.T) {
	provider := &fakeStrategy{name: "apify", fail: true}
	scrape := &fakeStrategy{name: "pagescrape", caption: "from scrape"}
	generic := &fakeStrategy{name: "ytdlp"}
	f := newFixture(t, Strategies{Provider: provider, PageScrape: scrape, Generic: generic},
		&fakeMedia{duration: 9}, &fakeTranscriber{text: "narration here"}, &fakeOCR{})

	res := f.orch.Extract(context.Background(), "https://www.instagram.com/reel/x/")

	assert.True(t, res.Success)
	assert.Equal(t, "from scrape", res.Caption)
	assert.Equal(t, 1, provider.calls, "provider is tried first")
	assert.Equal(t, 1, scrape.calls, "page scrape picks up after the provider fails")
	assert.Equal(t, 0, generic.calls, "later strategies are skipped once one succeeds")
	f.assertNoScratchLeaks(t)
}

func TestExtractNonShortFormUsesGenericOnly(t *testing.T) {
	provider := &fakeStrategy{name: "apify"}
	scrape := &fakeStrategy{name: "pagescrape"}
	generic := &fakeStrategy{name: "ytdlp", caption: "yt caption"}
	f := newFixture(t, Strategies{Provider: provider, PageScrape: scrape, Generic: generic},
		&fakeMedia{duration: 9}, &fakeTranscriber{text: "talk"}, &fakeOCR{})

	res := f.orch.Extract(context.Background(), "https://www.youtube.com/watch?v=abc")

	assert.True(t, res.Success)
	assert.Equal(t, 0, provider.calls)
	assert.Equal(t, 0, scrape.calls)
	assert.Equal(t, 1, generic.calls)
	f.assertNoScratchLeaks(t)
}

func TestExtractPartialResultWithoutAudio(t *testing.T) {
	// Audio extraction fails: transcription is skipped but caption and OCR
	// still come through, and the call succeeds.
	generic := &fakeStrategy{name: "ytdlp", caption: "the caption"}
	media := &fakeMedia{duration: 9, audioErr: fmt.Errorf("no audio track")}
	f := newFixture(t, Strategies{Generic: generic}, media, &fakeTranscriber{text: "never used"},
		&fakeOCR{all: "ON SCREEN WORDS"})

	res := f.orch.Extract(context.Background(), "https://youtu.be/abc")

	assert.True(t, res.Success)
	assert.Empty(t, res.AudioTranscript)
	assert.Equal(t, "ON SCREEN WORDS", res.OCRText)
	assert.Equal(t, "the caption", res.Caption)
	f.assertNoScratchLeaks(t)
}

func TestExtractSilentAudioSkipsTranscription(t *testing.T) {
	// Extracted audio under 1KB means no real track.
	generic := &fakeStrategy{name: "ytdlp"}
	media := &fakeMedia{duration: 9, audioSize: 100}
	f := newFixture(t, Strategies{Generic: generic}, media, &fakeTranscriber{text: "never used"}, &fakeOCR{})

	res := f.orch.Extract(context.Background(), "https://youtu.be/abc")

	assert.True(t, res.Success)
	assert.Empty(t, res.AudioTranscript)
	f.assertNoScratchLeaks(t)
}

func TestExtractTagsMusicTranscript(t *testing.T) {
	generic := &fakeStrategy{name: "ytdlp"}
	media := &fakeMedia{duration: 9, audioSize: 4096}
	f := newFixture(t, Strategies{Generic: generic}, media,
		&fakeTranscriber{text: "oh oh baby dance with me tonight girl"}, &fakeOCR{})

	res := f.orch.Extract(context.Background(), "https://youtu.be/abc")

	require.True(t, res.Success)
	assert.Contains(t, res.AudioTranscript, musicTag)
	assert.Contains(t, res.AudioTranscript, "dance with me tonight")
}

func TestExtractCarousel(t *testing.T) {
	generic := &fakeStrategy{name: "ytdlp", carousel: 4, caption: "carousel cap"}
	f := newFixture(t, Strategies{Generic: generic}, &fakeMedia{duration: 9},
		&fakeTranscriber{}, &fakeOCR{all: "slide text here"})

	res := f.orch.Extract(context.Background(), "https://www.reddit.com/r/pics/comments/x/")

	require.True(t, res.Success)
	require.Len(t, res.CarouselItems, 4)
	for i, item := range res.CarouselItems {
		assert.Equal(t, i, item.Index, "items keep original index order")
		assert.Equal(t, domain.MediaImage, item.Type)
		assert.Equal(t, "slide text here", item.OCRText)
	}
	assert.Equal(t, "carousel cap", res.Caption)
	f.assertNoScratchLeaks(t)
}

func TestExtractImagePost(t *testing.T) {
	generic := &fakeStrategy{name: "ytdlp", media: domain.MediaImage, caption: "photo cap"}
	f := newFixture(t, Strategies{Generic: generic}, &fakeMedia{duration: 9},
		&fakeTranscriber{}, &fakeOCR{all: "poster text"})

	res := f.orch.Extract(context.Background(), "https://x.com/u/status/1")

	require.True(t, res.Success)
	assert.Equal(t, "poster text", res.OCRText)
	assert.Empty(t, res.AudioTranscript, "images have nothing to transcribe")
	f.assertNoScratchLeaks(t)
}

func TestExtractDocument(t *testing.T) {
	generic := &fakeStrategy{name: "ytdlp", caption: "doc caption"}
	f := newFixture(t, Strategies{Generic: generic}, &fakeMedia{duration: 9, audioSize: 4096},
		&fakeTranscriber{text: "first we go to the market. then we cook."}, &fakeOCR{all: "RECIPE BELOW"})

	doc, res := f.orch.ExtractDocument(context.Background(), "https://youtu.be/abc")

	require.True(t, res.Success)
	assert.Contains(t, doc, "Platform: youtube")
	assert.Contains(t, doc, "Caption:\ndoc caption")
	assert.Contains(t, doc, "Audio Transcript:\nfirst we go to the market. then we cook.")
	assert.Contains(t, doc, "On-Screen Text:\nRECIPE BELOW")
	f.assertNoScratchLeaks(t)
}

func TestExtractDocumentFailure(t *testing.T) {
	f := newFixture(t, Strategies{Generic: &fakeStrategy{name: "ytdlp", fail: true}},
		&fakeMedia{}, &fakeTranscriber{}, &fakeOCR{})

	doc, res := f.orch.ExtractDocument(context.Background(), "https://youtu.be/abc")
	assert.Empty(t, doc)
	assert.False(t, res.Success)
}
