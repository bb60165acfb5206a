package downloader

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/charmbracelet/log"

	"tuneharvest/internal/shared"
)

// CommandRunner runs an external command and returns its combined output
type CommandRunner func(ctx context.Context, name string, args ...string) ([]byte, error)

func execRunner(ctx context.Context, name string, args ...string) ([]byte, error) {
	return exec.CommandContext(ctx, name, args...).CombinedOutput()
}

// FFmpegTranscoder implements interfaces.Transcoder by shelling out to ffmpeg
type FFmpegTranscoder struct {
	binary string
	run    CommandRunner
	logger *log.Logger
}

// NewFFmpegTranscoder creates a transcoder using the ffmpeg found on PATH
func NewFFmpegTranscoder(logger *log.Logger) *FFmpegTranscoder {
	return NewFFmpegTranscoderWithRunner("ffmpeg", execRunner, logger)
}

// NewFFmpegTranscoderWithRunner creates a transcoder with a custom binary and command runner
func NewFFmpegTranscoderWithRunner(binary string, run CommandRunner, logger *log.Logger) *FFmpegTranscoder {
	if logger == nil {
		logger = shared.DiscardLogger()
	}
	return &FFmpegTranscoder{binary: binary, run: run, logger: logger}
}

// OutputPathFor returns <input without extension>_new.<format>
func OutputPathFor(inputPath, format string) string {
	return strings.TrimSuffix(inputPath, filepath.Ext(inputPath)) + "_new." + format
}

func transcodeArgs(inputPath, outputPath string, target shared.AudioTarget) ([]string, error) {
	args := []string{
		"-n", // never overwrite; a refusal is reported as a benign quirk
		"-i", inputPath,
		"-vn",
		"-ar", strconv.Itoa(target.SampleRate),
		"-ac", strconv.Itoa(target.Channels),
	}
	switch target.Format {
	case "mp3":
		args = append(args, "-b:a", strings.TrimSuffix(target.Bitrate, "k")+"k", "-f", "mp3")
	case "flac":
		args = append(args, "-c:a", "flac", "-f", "flac")
	default:
		return nil, fmt.Errorf("unsupported format: %s", target.Format)
	}
	return append(args, outputPath), nil
}

// Transcode converts inputPath into target and removes the input after a clean conversion.
// ffmpeg refusing to overwrite an existing output is returned as TranscodeBenignQuirk.
func (t *FFmpegTranscoder) Transcode(ctx context.Context, inputPath string, target shared.AudioTarget) (shared.TranscodeResult, error) {
	outputPath := OutputPathFor(inputPath, target.Format)
	args, err := transcodeArgs(inputPath, outputPath, target)
	if err != nil {
		return shared.TranscodeResult{}, err
	}

	t.logger.Debug("running ffmpeg", "args", strings.Join(args, " "))

	output, err := t.run(ctx, t.binary, args...)
	if err != nil {
		if isOverwriteRefusal(output) && shared.FileExists(outputPath) {
			t.logger.Debug("ffmpeg refused to overwrite existing output", "path", outputPath)
			return shared.TranscodeResult{Status: shared.TranscodeBenignQuirk, OutputPath: outputPath}, nil
		}
		return shared.TranscodeResult{}, fmt.Errorf("failed to convert track: %w\nffmpeg output: %s", err, string(output))
	}

	if !shared.FileExists(outputPath) {
		return shared.TranscodeResult{}, fmt.Errorf("converted file not found after conversion: %s", outputPath)
	}

	if err := os.Remove(inputPath); err != nil && !os.IsNotExist(err) {
		t.logger.Warn("failed to remove transcoder input", "path", inputPath, "err", err)
	}

	return shared.TranscodeResult{Status: shared.TranscodeOK, OutputPath: outputPath}, nil
}

func isOverwriteRefusal(output []byte) bool {
	return bytes.Contains(output, []byte("already exists"))
}
