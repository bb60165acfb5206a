package downloader

import (
	"context"
	"errors"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"tuneharvest/internal/api/youtube"
	"tuneharvest/internal/shared"
)

type fakeOpener struct {
	body string
	size int64
	ext  string
	mime string
	err  error
}

func (f *fakeOpener) OpenAudio(ctx context.Context, link string) (*youtube.AudioStream, error) {
	if f.err != nil {
		return nil, f.err
	}
	return &youtube.AudioStream{
		Body:      io.NopCloser(strings.NewReader(f.body)),
		Size:      f.size,
		Extension: f.ext,
		MimeType:  f.mime,
	}, nil
}

func TestStreamDownloaderWritesFileAndReportsProgress(t *testing.T) {
	body := strings.Repeat("a", 4096)
	d := NewStreamDownloader(&fakeOpener{body: body, size: int64(len(body)), ext: "m4a"}, nil)

	var calls []shared.Progress
	base := filepath.Join(t.TempDir(), "music", "Tera_Buzz")
	path, err := d.Download(context.Background(), "https://www.youtube.com/watch?v=abc", base, func(p shared.Progress) {
		calls = append(calls, p)
	})
	if err != nil {
		t.Fatalf("Download failed: %v", err)
	}
	if path != base+".m4a" {
		t.Errorf("expected %s.m4a, got %s", base, path)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	if string(data) != body {
		t.Errorf("file content mismatch: %d bytes", len(data))
	}

	if len(calls) == 0 {
		t.Fatal("expected at least one progress call")
	}
	last := calls[len(calls)-1]
	if last.Downloaded != int64(len(body)) || last.Total != int64(len(body)) {
		t.Errorf("final progress = %+v", last)
	}
	for i := 1; i < len(calls); i++ {
		if calls[i].Downloaded < calls[i-1].Downloaded {
			t.Errorf("progress went backwards at call %d", i)
		}
	}
}

func TestStreamDownloaderExtensionFromMime(t *testing.T) {
	d := NewStreamDownloader(&fakeOpener{body: "x", mime: `audio/webm; codecs="opus"`}, nil)
	base := filepath.Join(t.TempDir(), "song")
	path, err := d.Download(context.Background(), "link", base, nil)
	if err != nil {
		t.Fatal(err)
	}
	if filepath.Ext(path) != ".webm" {
		t.Errorf("expected .webm, got %s", path)
	}
}

func TestStreamDownloaderRemovesIncompleteFile(t *testing.T) {
	d := NewStreamDownloader(&fakeOpener{body: "short", size: 100, ext: "m4a"}, nil)
	base := filepath.Join(t.TempDir(), "song")

	if _, err := d.Download(context.Background(), "link", base, nil); err == nil {
		t.Fatal("expected incomplete download error")
	}
	if shared.FileExists(base + ".m4a") {
		t.Error("partial file should have been removed")
	}
}

func TestStreamDownloaderStopsOnCancelledContext(t *testing.T) {
	d := NewStreamDownloader(&fakeOpener{body: "data", ext: "m4a"}, nil)
	base := filepath.Join(t.TempDir(), "song")

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := d.Download(ctx, "link", base, nil)
	if !errors.Is(err, context.Canceled) {
		t.Errorf("expected context.Canceled, got %v", err)
	}
	if shared.FileExists(base + ".m4a") {
		t.Error("file should not survive a cancelled download")
	}
}

func TestStreamDownloaderOpenError(t *testing.T) {
	d := NewStreamDownloader(&fakeOpener{err: shared.ErrNoAudioStream}, nil)
	_, err := d.Download(context.Background(), "link", filepath.Join(t.TempDir(), "x"), nil)
	if !errors.Is(err, shared.ErrNoAudioStream) {
		t.Errorf("expected ErrNoAudioStream, got %v", err)
	}
}

func TestProgressETA(t *testing.T) {
	start := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	r := &progressReader{
		total:      1000,
		downloaded: 250,
		start:      start,
		now:        func() time.Time { return start.Add(time.Second) },
	}
	p := r.progress()
	if p.Speed != 250 {
		t.Errorf("speed = %v, want 250", p.Speed)
	}
	if p.ETA != 3*time.Second {
		t.Errorf("eta = %v, want 3s", p.ETA)
	}
	if p.Percent() != 25 {
		t.Errorf("percent = %v, want 25", p.Percent())
	}
}

func TestSummary(t *testing.T) {
	got := Summary(shared.Progress{Downloaded: 2_000_000, Elapsed: 2 * time.Second, Speed: 1_000_000})
	if got != "2.0 MB in 2s (1.0 MB/s)" {
		t.Errorf("unexpected summary %q", got)
	}
	if got := Summary(shared.Progress{Downloaded: 10}); got != "10 B in 0s" {
		t.Errorf("unexpected summary %q", got)
	}
}

func TestProgressBarHook(t *testing.T) {
	bar := NewProgressBar(io.Discard, "Tera Buzz")
	hook := bar.Hook()
	hook(shared.Progress{Downloaded: 10, Total: 100})
	hook(shared.Progress{Downloaded: 100, Total: 100})
	if bar.bar.Current() != 100 || bar.bar.Total() != 100 {
		t.Errorf("bar state current=%d total=%d", bar.bar.Current(), bar.bar.Total())
	}
	bar.Finish()
}
