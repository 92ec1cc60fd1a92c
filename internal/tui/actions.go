package tui

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"path/filepath"

	"go.uber.org/zap"

	"github.com/iit-archive/cli/internal/logger"
)

// Downloader saves papers to the local download directory.
type Downloader struct {
	httpClient *http.Client
	logger     *zap.Logger
}

// NewDownloader creates a downloader. A nil client uses http.DefaultClient.
func NewDownloader(httpClient *http.Client, log *zap.Logger) *Downloader {
	if httpClient == nil {
		httpClient = http.DefaultClient
	}
	return &Downloader{httpClient: httpClient, logger: logger.OrNop(log)}
}

// Download copies the document at locator into dir as name and returns
// the written path. The file appears only once fully written.
func (d *Downloader) Download(ctx context.Context, locator, dir, name string) (string, error) {
	src, err := d.open(ctx, locator)
	if err != nil {
		return "", err
	}
	defer src.Close()

	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("failed to create download directory: %w", err)
	}

	tmp, err := os.CreateTemp(dir, ".download-*")
	if err != nil {
		return "", fmt.Errorf("failed to create file: %w", err)
	}
	defer os.Remove(tmp.Name())

	n, err := io.Copy(tmp, src)
	if cerr := tmp.Close(); err == nil {
		err = cerr
	}
	if err != nil {
		return "", fmt.Errorf("failed to write file: %w", err)
	}

	dest := filepath.Join(dir, name)
	if err := os.Rename(tmp.Name(), dest); err != nil {
		return "", fmt.Errorf("failed to save file: %w", err)
	}

	d.logger.Info("paper downloaded",
		zap.String("locator", locator),
		zap.String("path", dest),
		zap.Int64("bytes", n))
	return dest, nil
}

func (d *Downloader) open(ctx context.Context, locator string) (io.ReadCloser, error) {
	u, err := url.Parse(locator)
	if err == nil && (u.Scheme == "http" || u.Scheme == "https") {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, locator, nil)
		if err != nil {
			return nil, fmt.Errorf("failed to create request: %w", err)
		}
		resp, err := d.httpClient.Do(req)
		if err != nil {
			return nil, fmt.Errorf("failed to download paper: %w", err)
		}
		if resp.StatusCode < 200 || resp.StatusCode >= 300 {
			resp.Body.Close()
			return nil, fmt.Errorf("failed to download paper: HTTP %d", resp.StatusCode)
		}
		return resp.Body, nil
	}

	path := locator
	if err == nil && u.Scheme == "file" {
		path = u.Path
	}
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open paper: %w", err)
	}
	return f, nil
}
