// Package archive submits source URLs to the Internet Archive's Wayback Machine.
package archive

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/xkilldash9x/guardian/internal/config"
)

// ErrNoSnapshot means the save request succeeded but the response did not
// say where the snapshot was stored.
var ErrNoSnapshot = errors.New("wayback response carried no snapshot location")

// Wayback performs one save request per Archive call; there are no retries.
type Wayback struct {
	baseURL    string
	httpClient *http.Client
	logger     *zap.Logger
}

// NewWayback builds an archiver from cfg. The client timeout bounds the whole
// save request.
func NewWayback(cfg config.ArchiveConfig, logger *zap.Logger) *Wayback {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &Wayback{
		baseURL:    strings.TrimRight(cfg.BaseURL, "/"),
		httpClient: &http.Client{Timeout: timeout},
		logger:     logger.Named("archive"),
	}
}

// Archive requests GET {base}/save/{target}. The snapshot is base + the
// Content-Location header, or base + the final request URI when /save/
// redirected to a /web/ capture.
func (w *Wayback) Archive(ctx context.Context, target string) (string, error) {
	parsed, err := url.Parse(target)
	if err != nil || parsed.Scheme == "" || parsed.Host == "" {
		return "", fmt.Errorf("refusing to archive %q: not an absolute URL", target)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, w.baseURL+"/save/"+target, nil)
	if err != nil {
		return "", fmt.Errorf("failed to create archive request: %w", err)
	}
	req.Header.Set("User-Agent", "guardian-archiver/1.0")

	resp, err := w.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("archive request failed: %w", err)
	}
	defer resp.Body.Close()
	// Drain so the connection can be reused.
	_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 1<<20))

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return "", fmt.Errorf("archive request returned status %d", resp.StatusCode)
	}

	location := resp.Header.Get("Content-Location")
	if location == "" && resp.Request != nil && strings.HasPrefix(resp.Request.URL.Path, "/web/") {
		location = resp.Request.URL.RequestURI()
	}
	if location == "" {
		return "", ErrNoSnapshot
	}

	archived := w.baseURL + location
	w.logger.Info("Archived source URL.", zap.String("url", target), zap.String("archived_url", archived))
	return archived, nil
}
