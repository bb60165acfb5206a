package downloader

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"reflect"
	"testing"

	"tuneharvest/internal/shared"
)

var mp3Target = shared.AudioTarget{SampleRate: 44100, Channels: 2, Bitrate: "320", Format: "mp3"}

func TestOutputPathFor(t *testing.T) {
	tests := []struct {
		in, format, want string
	}{
		{"/tmp/music/Song.m4a", "mp3", "/tmp/music/Song_new.mp3"},
		{"/tmp/music/Song.webm", "mp3", "/tmp/music/Song_new.mp3"},
		{"/tmp/music/Song", "flac", "/tmp/music/Song_new.flac"},
	}
	for _, tt := range tests {
		if got := OutputPathFor(tt.in, tt.format); got != tt.want {
			t.Errorf("OutputPathFor(%q, %q) = %q, want %q", tt.in, tt.format, got, tt.want)
		}
	}
}

func TestTranscodeArgs(t *testing.T) {
	args, err := transcodeArgs("in.m4a", "in_new.mp3", mp3Target)
	if err != nil {
		t.Fatal(err)
	}
	want := []string{"-n", "-i", "in.m4a", "-vn", "-ar", "44100", "-ac", "2", "-b:a", "320k", "-f", "mp3", "in_new.mp3"}
	if !reflect.DeepEqual(args, want) {
		t.Errorf("args = %v\nwant %v", args, want)
	}

	if _, err := transcodeArgs("in", "out", shared.AudioTarget{Format: "wma"}); err == nil {
		t.Error("expected error for unsupported format")
	}
}

func setupInput(t *testing.T) string {
	t.Helper()
	input := filepath.Join(t.TempDir(), "Song.m4a")
	if err := os.WriteFile(input, []byte("audio"), 0644); err != nil {
		t.Fatal(err)
	}
	return input
}

func TestTranscodeOK(t *testing.T) {
	input := setupInput(t)
	run := func(ctx context.Context, name string, args ...string) ([]byte, error) {
		out := args[len(args)-1]
		return nil, os.WriteFile(out, []byte("mp3"), 0644)
	}

	tr := NewFFmpegTranscoderWithRunner("ffmpeg", run, nil)
	res, err := tr.Transcode(context.Background(), input, mp3Target)
	if err != nil {
		t.Fatalf("Transcode failed: %v", err)
	}
	if res.Status != shared.TranscodeOK {
		t.Errorf("expected TranscodeOK, got %s", res.Status)
	}
	if res.OutputPath != OutputPathFor(input, "mp3") {
		t.Errorf("unexpected output path %s", res.OutputPath)
	}
	if shared.FileExists(input) {
		t.Error("input should be removed after a clean transcode")
	}
}

func TestTranscodeBenignQuirk(t *testing.T) {
	input := setupInput(t)
	output := OutputPathFor(input, "mp3")
	if err := os.WriteFile(output, []byte("previous"), 0644); err != nil {
		t.Fatal(err)
	}
	run := func(ctx context.Context, name string, args ...string) ([]byte, error) {
		return []byte("File '" + output + "' already exists. Exiting."), errors.New("exit status 1")
	}

	tr := NewFFmpegTranscoderWithRunner("ffmpeg", run, nil)
	res, err := tr.Transcode(context.Background(), input, mp3Target)
	if err != nil {
		t.Fatalf("overwrite refusal must not be an error: %v", err)
	}
	if res.Status != shared.TranscodeBenignQuirk || res.OutputPath != output {
		t.Errorf("unexpected result %+v", res)
	}
	if !shared.FileExists(input) {
		t.Error("input should be kept when the transcoder did not run")
	}
}

func TestTranscodeFailure(t *testing.T) {
	tests := []struct {
		name   string
		output string
	}{
		{"decoder error", "Invalid data found when processing input"},
		// refusal text without an output file is a genuine failure
		{"refusal without output", "already exists"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			input := setupInput(t)
			run := func(ctx context.Context, name string, args ...string) ([]byte, error) {
				return []byte(tt.output), errors.New("exit status 1")
			}
			tr := NewFFmpegTranscoderWithRunner("ffmpeg", run, nil)
			if _, err := tr.Transcode(context.Background(), input, mp3Target); err == nil {
				t.Error("expected transcode error")
			}
			if !shared.FileExists(input) {
				t.Error("input must be kept on failure")
			}
		})
	}
}

func TestTranscodeMissingOutput(t *testing.T) {
	input := setupInput(t)
	run := func(ctx context.Context, name string, args ...string) ([]byte, error) { return nil, nil }
	tr := NewFFmpegTranscoderWithRunner("ffmpeg", run, nil)
	if _, err := tr.Transcode(context.Background(), input, mp3Target); err == nil {
		t.Error("expected error when ffmpeg produced nothing")
	}
}
