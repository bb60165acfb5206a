// Package navidrome asks a Navidrome (Subsonic API) server to index newly added files.
package navidrome

import (
	"context"
	"crypto/md5"
	"crypto/rand"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/charmbracelet/log"
	subsonic "github.com/delucks/go-subsonic"

	"tuneharvest/internal/shared"
)

const (
	apiVersion = "1.16.1"
	clientName = "tuneharvest"
)

// Config holds the server address and credentials
type Config struct {
	URL      string
	Username string
	Password string
	Timeout  time.Duration
}

// Scanner implements interfaces.LibraryScanner
type Scanner struct {
	config     Config
	httpClient *http.Client
	client     subsonic.Client
	logger     *log.Logger
}

// NewScanner creates a scanner; nothing is sent until Verify or Rescan
func NewScanner(config Config, logger *log.Logger) *Scanner {
	if config.Timeout <= 0 {
		config.Timeout = 30 * time.Second
	}
	if logger == nil {
		logger = shared.DiscardLogger()
	}
	config.URL = strings.TrimRight(config.URL, "/")
	httpClient := &http.Client{Timeout: config.Timeout}
	return &Scanner{
		config:     config,
		httpClient: httpClient,
		client: subsonic.Client{
			Client:       httpClient,
			BaseUrl:      config.URL,
			User:         config.Username,
			ClientName:   clientName,
			PasswordAuth: true,
		},
		logger: logger,
	}
}

// Verify checks the credentials against the server
func (s *Scanner) Verify() error {
	if err := s.client.Authenticate(s.config.Password); err != nil {
		return fmt.Errorf("navidrome authentication failed: %w", err)
	}
	return nil
}

type subsonicResponse struct {
	SubsonicResponse struct {
		Status string `json:"status"`
		Error  struct {
			Code    int    `json:"code"`
			Message string `json:"message"`
		} `json:"error"`
		ScanStatus struct {
			Scanning bool  `json:"scanning"`
			Count    int64 `json:"count"`
		} `json:"scanStatus"`
	} `json:"subsonic-response"`
}

// Rescan starts a library scan. The server scans asynchronously; this returns once the scan is accepted.
func (s *Scanner) Rescan(ctx context.Context) error {
	salt, err := newSalt()
	if err != nil {
		return err
	}
	params := url.Values{}
	params.Set("u", s.config.Username)
	params.Set("t", getSaltedPassword(s.config.Password, salt))
	params.Set("s", salt)
	params.Set("v", apiVersion)
	params.Set("c", clientName)
	params.Set("f", "json")

	scanURL := fmt.Sprintf("%s/rest/startScan.view?%s", s.config.URL, params.Encode())
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, scanURL, nil)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("failed to execute request: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("failed to read response body: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return &shared.HTTPError{StatusCode: resp.StatusCode, Status: resp.Status, Message: shared.TruncateString(string(body), 200)}
	}

	var parsed subsonicResponse
	if err := json.Unmarshal(body, &parsed); err != nil {
		return fmt.Errorf("failed to unmarshal response: %w", err)
	}
	if parsed.SubsonicResponse.Status != "ok" {
		return fmt.Errorf("failed to start scan: %s (code %d)", parsed.SubsonicResponse.Error.Message, parsed.SubsonicResponse.Error.Code)
	}

	s.logger.Debug("library scan started", "server", s.config.URL, "scanning", parsed.SubsonicResponse.ScanStatus.Scanning)
	return nil
}

func newSalt() (string, error) {
	b := make([]byte, 8)
	if _, err := rand.Read(b); err != nil {
		return "", fmt.Errorf("failed to generate salt: %w", err)
	}
	return hex.EncodeToString(b), nil
}

// getSaltedPassword returns the subsonic token md5(password + salt)
func getSaltedPassword(password string, salt string) string {
	hasher := md5.New()
	hasher.Write([]byte(password + salt))
	return hex.EncodeToString(hasher.Sum(nil))
}
