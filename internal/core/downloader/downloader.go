package downloader

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/charmbracelet/log"

	"tuneharvest/internal/api/youtube"
	"tuneharvest/internal/interfaces"
	"tuneharvest/internal/shared"
)

// StreamOpener opens the best audio-only stream of a link
type StreamOpener interface {
	OpenAudio(ctx context.Context, link string) (*youtube.AudioStream, error)
}

// StreamDownloader implements interfaces.AudioDownloader on top of a StreamOpener
type StreamDownloader struct {
	opener StreamOpener
	logger *log.Logger
	now    func() time.Time
}

// NewStreamDownloader creates a downloader reading from opener
func NewStreamDownloader(opener StreamOpener, logger *log.Logger) *StreamDownloader {
	if logger == nil {
		logger = shared.DiscardLogger()
	}
	return &StreamDownloader{opener: opener, logger: logger, now: time.Now}
}

// Download writes the audio stream of link to outputBase plus the container extension.
// Partial files are removed on every error path.
func (d *StreamDownloader) Download(ctx context.Context, link, outputBase string, hook interfaces.ProgressHook) (string, error) {
	stream, err := d.opener.OpenAudio(ctx, link)
	if err != nil {
		return "", fmt.Errorf("failed to open audio stream: %w", err)
	}
	defer stream.Body.Close()

	ext := stream.Extension
	if ext == "" {
		ext = youtube.ExtensionForMime(stream.MimeType)
	}
	outputPath := outputBase + "." + ext

	if err := os.MkdirAll(filepath.Dir(outputPath), 0755); err != nil {
		return "", fmt.Errorf("failed to create directory: %w", err)
	}

	out, err := os.Create(outputPath)
	if err != nil {
		return "", fmt.Errorf("failed to create output file: %w", err)
	}

	reader := &progressReader{
		ctx:   ctx,
		r:     stream.Body,
		total: stream.Size,
		hook:  hook,
		start: d.now(),
		now:   d.now,
	}

	d.logger.Debug("downloading audio", "link", link, "mime", stream.MimeType, "size", stream.Size)

	bytesWritten, err := io.Copy(out, reader)
	if closeErr := out.Close(); err == nil {
		err = closeErr
	}
	if err != nil {
		os.Remove(outputPath)
		return "", fmt.Errorf("failed to write audio file: %w", err)
	}

	if stream.Size > 0 && bytesWritten != stream.Size {
		os.Remove(outputPath)
		return "", fmt.Errorf("incomplete download: expected %d bytes, got %d bytes", stream.Size, bytesWritten)
	}

	d.logger.Debug("download complete", "path", outputPath, "bytes", bytesWritten)
	return outputPath, nil
}

// progressReader reports every read to the hook and stops once ctx is done
type progressReader struct {
	ctx        context.Context
	r          io.Reader
	total      int64
	downloaded int64
	hook       interfaces.ProgressHook
	start      time.Time
	now        func() time.Time
}

func (p *progressReader) Read(buf []byte) (int, error) {
	if err := p.ctx.Err(); err != nil {
		return 0, err
	}
	n, err := p.r.Read(buf)
	if n > 0 {
		p.downloaded += int64(n)
		if p.hook != nil {
			p.hook(p.progress())
		}
	}
	return n, err
}

func (p *progressReader) progress() shared.Progress {
	elapsed := p.now().Sub(p.start)
	prog := shared.Progress{
		Downloaded: p.downloaded,
		Total:      p.total,
		Elapsed:    elapsed,
	}
	if elapsed > 0 {
		prog.Speed = float64(p.downloaded) / elapsed.Seconds()
	}
	if prog.Speed > 0 && p.total > p.downloaded {
		remaining := float64(p.total-p.downloaded) / prog.Speed
		prog.ETA = time.Duration(remaining * float64(time.Second))
	}
	return prog
}
