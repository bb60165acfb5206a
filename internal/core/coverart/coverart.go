// Package coverart turns an artwork reference into image bytes for tagging.
package coverart

import (
	"context"
	"os"
	"path/filepath"
	"strings"

	"github.com/charmbracelet/log"

	"tuneharvest/internal/api/rest"
	"tuneharvest/internal/shared"
)

// CoverFileName is the transient cover image kept in the working area
const CoverFileName = "cover.jpg"

// Config controls the upscale heuristic and where fetched art is staged
type Config struct {
	SizeToken    string // low resolution token found in catalog artwork URLs, e.g. 100x100
	UpscaleToken string // replacement, e.g. 2048x2048
	StagingDir   string // fetched art is written to <StagingDir>/cover.jpg when set
	HTTP         rest.Config
}

// Resolver implements interfaces.ArtworkResolver
type Resolver struct {
	config   Config
	client   *rest.Client
	warnings *shared.WarningCollector
	logger   *log.Logger
}

// NewResolver creates a cover art resolver
func NewResolver(config Config, warnings *shared.WarningCollector, logger *log.Logger) *Resolver {
	if logger == nil {
		logger = shared.DiscardLogger()
	}
	return &Resolver{
		config:   config,
		client:   rest.NewClient(config.HTTP, logger),
		warnings: warnings,
		logger:   logger,
	}
}

// Resolve returns the art for ref and false when it is unavailable.
// An existing local file is returned verbatim; anything else is fetched as a URL.
func (r *Resolver) Resolve(ctx context.Context, ref string) ([]byte, bool) {
	ref = strings.TrimSpace(ref)
	if ref == "" {
		return nil, false
	}

	if local := shared.ExpandHome(ref); shared.FileExists(local) {
		data, err := os.ReadFile(local)
		if err != nil {
			r.logger.Warn("failed to read local artwork", "path", local, "err", err)
			r.warnings.AddCoverArtDownloadWarning(local, err.Error())
			return nil, false
		}
		return data, len(data) > 0
	}

	if !strings.HasPrefix(ref, "http://") && !strings.HasPrefix(ref, "https://") {
		r.logger.Debug("artwork reference is neither a file nor a URL", "ref", ref)
		return nil, false
	}

	artURL := r.Upscale(ref)
	data, err := r.client.Fetch(ctx, artURL)
	if err != nil {
		r.logger.Debug("artwork unavailable", "url", artURL, "err", err)
		r.warnings.AddCoverArtDownloadWarning(artURL, err.Error())
		return nil, false
	}
	if len(data) == 0 {
		return nil, false
	}

	r.stage(data)
	return data, true
}

// Upscale swaps the low resolution size token for the high resolution one
func (r *Resolver) Upscale(ref string) string {
	if r.config.SizeToken == "" || r.config.UpscaleToken == "" {
		return ref
	}
	return strings.Replace(ref, r.config.SizeToken, r.config.UpscaleToken, 1)
}

func (r *Resolver) stage(data []byte) {
	if r.config.StagingDir == "" {
		return
	}
	path := filepath.Join(r.config.StagingDir, CoverFileName)
	if err := os.WriteFile(path, data, 0644); err != nil {
		r.logger.Debug("failed to stage cover art", "path", path, "err", err)
	}
}
