// Package ffmpeg implements the MediaUtility port with the local ffmpeg and
// ffprobe binaries. Pipeline logic only sees the interface, so this can be
// swapped for a linked codec library later.
package ffmpeg

import (
	"bytes"
	"context"
	"fmt"
	"os/exec"
	"strconv"
	"strings"
	"time"
)

const (
	audioTimeout = 60 * time.Second
	probeTimeout = 15 * time.Second
	frameTimeout = 15 * time.Second
)

// MediaUtility runs ffmpeg/ffprobe subprocesses.
type MediaUtility struct {
	ffmpegPath  string
	ffprobePath string
}

// New creates a MediaUtility. Assumes ffmpeg and ffprobe are in PATH.
func New() *MediaUtility {
	return &MediaUtility{ffmpegPath: "ffmpeg", ffprobePath: "ffprobe"}
}

// ExtractAudio pulls the audio track of videoPath into outPath as mono
// 16kHz 64kbps mp3, compact enough to stay under transcription ceilings.
func (m *MediaUtility) ExtractAudio(ctx context.Context, videoPath, outPath string) error {
	ctx, cancel := context.WithTimeout(ctx, audioTimeout)
	defer cancel()
	return run(exec.CommandContext(ctx, m.ffmpegPath, extractAudioArgs(videoPath, outPath)...))
}

// ProbeDuration returns the media duration in seconds via ffprobe.
func (m *MediaUtility) ProbeDuration(ctx context.Context, mediaPath string) (float64, error) {
	ctx, cancel := context.WithTimeout(ctx, probeTimeout)
	defer cancel()

	cmd := exec.CommandContext(ctx, m.ffprobePath, probeDurationArgs(mediaPath)...)
	var out bytes.Buffer
	var stderr bytes.Buffer
	cmd.Stdout = &out
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		return 0, fmt.Errorf("ffprobe failed: %w, stderr: %s", err, strings.TrimSpace(stderr.String()))
	}

	duration, err := strconv.ParseFloat(strings.TrimSpace(out.String()), 64)
	if err != nil {
		return 0, fmt.Errorf("ffprobe returned unparseable duration %q: %w", out.String(), err)
	}
	return duration, nil
}

// ExtractFrame writes the frame at timestamp (seconds) to outPath, scaled to
// the given width with the aspect ratio preserved.
func (m *MediaUtility) ExtractFrame(ctx context.Context, videoPath string, timestamp float64, outPath string, width int) error {
	ctx, cancel := context.WithTimeout(ctx, frameTimeout)
	defer cancel()
	return run(exec.CommandContext(ctx, m.ffmpegPath, extractFrameArgs(videoPath, timestamp, outPath, width)...))
}

func run(cmd *exec.Cmd) error {
	var stderr bytes.Buffer
	cmd.Stderr = &stderr
	if err := cmd.Run(); err != nil {
		return fmt.Errorf("%s failed: %w, stderr: %s", cmd.Args[0], err, strings.TrimSpace(stderr.String()))
	}
	return nil
}

func extractAudioArgs(videoPath, outPath string) []string {
	return []string{
		"-i", videoPath,
		"-vn",
		"-ac", "1",
		"-ar", "16000",
		"-b:a", "64k",
		"-y",
		outPath,
	}
}

func probeDurationArgs(mediaPath string) []string {
	return []string{
		"-v", "error",
		"-show_entries", "format=duration",
		"-of", "default=noprint_wrappers=1:nokey=1",
		mediaPath,
	}
}

func extractFrameArgs(videoPath string, timestamp float64, outPath string, width int) []string {
	return []string{
		// -ss before -i seeks by keyframe first, which is much faster.
		"-ss", strconv.FormatFloat(timestamp, 'f', 3, 64),
		"-i", videoPath,
		"-frames:v", "1",
		"-vf", fmt.Sprintf("scale=%d:-2", width),
		"-q:v", "3",
		"-y",
		outPath,
	}
}
