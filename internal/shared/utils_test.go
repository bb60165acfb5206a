package shared

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func TestSanitizeTrackFileName(t *testing.T) {
	tests := []struct {
		name        string
		title       string
		ext         string
		placeholder string
		want        string
	}{
		{"spaces and pipe", "Tera Buzz | Kamal Raja", "mp3", "_", "Tera_Buzz___Kamal_Raja.mp3"},
		{"path separators", "AC/DC - Back In Black", "flac", "_", "AC_DC_-_Back_In_Black.flac"},
		{"backslash", `a\b`, ".mp3", "-", "a-b.mp3"},
		{"replaces audio extension", "song.webm", "mp3", "_", "song.mp3"},
		{"keeps dotted titles", "Mr. Brightside", "mp3", "_", "Mr._Brightside.mp3"},
		{"empty title", "   ", "mp3", "", "unknown.mp3"},
		{"separator placeholder falls back", "a b", "mp3", "/", "a_b.mp3"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := SanitizeTrackFileName(tt.title, tt.ext, tt.placeholder); got != tt.want {
				t.Errorf("SanitizeTrackFileName(%q) = %q, want %q", tt.title, got, tt.want)
			}
		})
	}
}

func TestSanitizeTrackFileNameNeverLeaksSeparators(t *testing.T) {
	titles := []string{
		"a/b c", " leading space", "tab\there", "multi//slash  space", "ünïcödé / 曲名 テスト",
		strings.Repeat("long title / ", 40),
	}
	for _, title := range titles {
		got := SanitizeTrackFileName(title, "mp3", "_")
		if strings.ContainsAny(got, "/ \t") {
			t.Errorf("%q -> %q still contains a separator or whitespace", title, got)
		}
		if !strings.HasSuffix(got, ".mp3") {
			t.Errorf("%q -> %q does not end in .mp3", title, got)
		}
		if len(got) > 255 {
			t.Errorf("%q -> name too long (%d bytes)", title, len(got))
		}
	}
}

func TestRetryWithBackoffForHTTP(t *testing.T) {
	t.Run("retries retryable errors", func(t *testing.T) {
		calls := 0
		err := RetryWithBackoffForHTTPWithDebug(3, time.Millisecond, 2*time.Millisecond, func() error {
			calls++
			return &HTTPError{StatusCode: 503, Status: "503 Service Unavailable"}
		}, nil)
		if err == nil {
			t.Fatal("expected error")
		}
		if calls != 3 {
			t.Errorf("expected 3 attempts, got %d", calls)
		}
		if !IsRetryableHTTPError(err) {
			t.Errorf("final error should still wrap the HTTP error: %v", err)
		}
	})

	t.Run("stops on non retryable errors", func(t *testing.T) {
		calls := 0
		boom := errors.New("boom")
		err := RetryWithBackoffForHTTPWithDebug(3, time.Millisecond, time.Millisecond, func() error {
			calls++
			return boom
		}, nil)
		if !errors.Is(err, boom) || calls != 1 {
			t.Errorf("expected one attempt returning boom, got %d attempts, %v", calls, err)
		}
	})

	t.Run("succeeds after a retry", func(t *testing.T) {
		calls := 0
		var retried []int
		err := RetryWithBackoffForHTTPWithDebug(3, time.Millisecond, time.Millisecond, func() error {
			calls++
			if calls == 1 {
				return &HTTPError{StatusCode: 429}
			}
			return nil
		}, func(attempt int, err error, wait time.Duration) {
			retried = append(retried, attempt)
		})
		if err != nil {
			t.Fatal(err)
		}
		if len(retried) != 1 || retried[0] != 1 {
			t.Errorf("unexpected retry callbacks %v", retried)
		}
	})
}

func TestMoveFile(t *testing.T) {
	dir := t.TempDir()
	src := filepath.Join(dir, "in.mp3")
	dst := filepath.Join(dir, "out.mp3")
	if err := os.WriteFile(src, []byte("audio"), 0644); err != nil {
		t.Fatal(err)
	}
	if err := MoveFile(src, dst); err != nil {
		t.Fatal(err)
	}
	if FileExists(src) {
		t.Error("source still exists")
	}
	data, err := os.ReadFile(dst)
	if err != nil || string(data) != "audio" {
		t.Errorf("unexpected destination content %q, %v", data, err)
	}
}

func TestExpandHome(t *testing.T) {
	home, err := os.UserHomeDir()
	if err != nil {
		t.Skip("no home directory")
	}
	if got := ExpandHome("~/Music"); got != filepath.Join(home, "Music") {
		t.Errorf("got %s", got)
	}
	if got := ExpandHome("/abs/~/x"); got != "/abs/~/x" {
		t.Errorf("got %s", got)
	}
}
