package shared

import (
	"errors"
	"fmt"
	"io"
	"math/rand"
	"net/http"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"time"
	"unicode"

	"github.com/mattn/go-isatty"
)

// Constants
const (
	DefaultMaxRetries          = 3
	DefaultFilenamePlaceholder = "_"
	UserAgent                  = "tuneharvest/1.0"
)

// HTTPError represents an HTTP error with status code
type HTTPError struct {
	StatusCode int
	Status     string
	Message    string
}

func (e *HTTPError) Error() string {
	return fmt.Sprintf("HTTP %d: %s - %s", e.StatusCode, e.Status, e.Message)
}

// IsRetryableHTTPError checks if an HTTP error should be retried
func IsRetryableHTTPError(err error) bool {
	var httpErr *HTTPError
	if !errors.As(err, &httpErr) {
		return false
	}
	switch httpErr.StatusCode {
	case http.StatusServiceUnavailable, // 503
		http.StatusTooManyRequests, // 429
		http.StatusBadGateway,      // 502
		http.StatusGatewayTimeout:  // 504
		return true
	}
	return false
}

// RetryWithBackoffForHTTPWithDebug retries HTTP requests and reports every retry to onRetry when set
func RetryWithBackoffForHTTPWithDebug(maxRetries int, initialDelay time.Duration, maxDelay time.Duration, fn func() error, onRetry func(attempt int, err error, wait time.Duration)) error {
	var lastErr error

	if maxRetries <= 0 { // If no retries, just execute once
		return fn()
	}

	for attempt := 0; attempt < maxRetries; attempt++ {
		lastErr = fn()
		if lastErr == nil {
			return nil
		}

		if !IsRetryableHTTPError(lastErr) {
			return lastErr
		}

		if attempt == maxRetries-1 {
			break
		}

		delay := initialDelay * time.Duration(1<<uint(attempt))
		if delay > maxDelay {
			delay = maxDelay
		}

		// Add jitter (±25% of delay)
		finalDelay := delay
		if delay > 0 {
			jitter := time.Duration(rand.Int63n(int64(delay/2)+1)) - delay/4
			finalDelay = delay + jitter
			if finalDelay < 0 {
				finalDelay = delay
			}
		}

		if onRetry != nil {
			onRetry(attempt+1, lastErr, finalDelay)
		}

		time.Sleep(finalDelay)
	}

	return fmt.Errorf("failed after %d attempts: %w", maxRetries, lastErr)
}

// SanitizeTrackFileName turns a display title into a single path component.
// Path separators, whitespace and characters invalid on common filesystems
// all become placeholder, and ext replaces whatever extension the title carried.
func SanitizeTrackFileName(title, ext, placeholder string) string {
	if placeholder == "" || strings.ContainsAny(placeholder, `/\`) {
		placeholder = DefaultFilenamePlaceholder
	}
	ext = strings.TrimPrefix(ext, ".")

	var b strings.Builder
	for _, r := range strings.TrimSpace(title) {
		switch {
		case unicode.IsSpace(r), unicode.IsControl(r):
			b.WriteString(placeholder)
		case strings.ContainsRune(`<>:"/\|?*`, r):
			b.WriteString(placeholder)
		default:
			b.WriteRune(r)
		}
	}

	base := strings.Trim(b.String(), ".")
	if e := strings.ToLower(filepath.Ext(base)); audioExtensions[e] || (ext != "" && e == "."+strings.ToLower(ext)) {
		base = base[:len(base)-len(e)]
	}
	maxLen := 240 - len(ext)
	if len(base) > maxLen {
		base = truncateUTF8(base, maxLen)
	}
	if base == "" {
		base = "unknown"
	}
	if ext == "" {
		return base
	}
	return base + "." + ext
}

var audioExtensions = map[string]bool{
	".mp3": true, ".m4a": true, ".webm": true, ".flac": true,
	".opus": true, ".ogg": true, ".wav": true, ".aac": true,
}

func truncateUTF8(s string, n int) string {
	if len(s) <= n {
		return s
	}
	for n > 0 && !utf8RuneStart(s[n]) {
		n--
	}
	return s[:n]
}

func utf8RuneStart(b byte) bool { return b&0xC0 != 0x80 }

// FileExists checks if a file exists at the given path
func FileExists(path string) bool {
	info, err := os.Stat(path)
	if err != nil {
		return false
	}
	return !info.IsDir()
}

// TruncateString truncates a string to the specified length, adding ellipsis if truncated.
func TruncateString(s string, maxLen int) string {
	if len(s) <= maxLen || maxLen < 4 {
		return s
	}
	return truncateUTF8(s, maxLen-3) + "..."
}

// ExpandHome replaces a leading ~ with the user's home directory
func ExpandHome(path string) string {
	if path != "~" && !strings.HasPrefix(path, "~/") {
		return path
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return path
	}
	return filepath.Join(home, strings.TrimPrefix(path, "~"))
}

// MoveFile renames src to dst, falling back to copy+remove across devices
func MoveFile(src, dst string) error {
	if err := os.Rename(src, dst); err == nil {
		return nil
	}
	in, err := os.Open(src)
	if err != nil {
		return fmt.Errorf("failed to open %s: %w", src, err)
	}
	defer in.Close()

	out, err := os.Create(dst)
	if err != nil {
		return fmt.Errorf("failed to create %s: %w", dst, err)
	}
	if _, err := io.Copy(out, in); err != nil {
		out.Close()
		os.Remove(dst)
		return fmt.Errorf("failed to copy %s: %w", src, err)
	}
	if err := out.Close(); err != nil {
		return fmt.Errorf("failed to finalize %s: %w", dst, err)
	}
	in.Close()
	return os.Remove(src)
}

func IsTTY() bool {
	return isatty.IsTerminal(os.Stdout.Fd())
}

// CreateDirIfNotExists creates a directory if it doesn't exist
func CreateDirIfNotExists(dir string) error {
	if _, err := os.Stat(dir); os.IsNotExist(err) {
		return os.MkdirAll(dir, 0755)
	}
	return nil
}

// CheckFFmpeg checks if ffmpeg is installed and available in the system's PATH.
func CheckFFmpeg() bool {
	_, err := exec.LookPath("ffmpeg")
	return err == nil
}
