// Package fetch retrieves uploaded story documents from URLs or local files.
package fetch

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"path"
	"path/filepath"
	"strings"
	"time"

	"go.uber.org/zap"
)

// Sentinel errors for story retrieval.
var (
	// ErrStatus is returned when the server answers with a non-200 status.
	ErrStatus = errors.New("unexpected HTTP status")

	// ErrTooLarge is returned when a document exceeds the configured limit.
	ErrTooLarge = errors.New("story document too large")
)

// Defaults used when [Config] fields are zero.
const (
	DefaultTimeout  = 10 * time.Second
	DefaultMaxBytes = 1 << 20
)

// Config bounds a fetch.
type Config struct {
	Timeout  time.Duration
	MaxBytes int64
}

// Document is a retrieved upload.
type Document struct {
	// Name is the file name, used to pick the document format.
	Name string
	Data []byte
}

// Fetcher reads story documents. Create one with [New].
type Fetcher struct {
	client   *http.Client
	maxBytes int64
	logger   *zap.Logger
}

// New returns a fetcher for cfg. logger may be nil.
func New(cfg Config, logger *zap.Logger) *Fetcher {
	if cfg.Timeout <= 0 {
		cfg.Timeout = DefaultTimeout
	}
	if cfg.MaxBytes <= 0 {
		cfg.MaxBytes = DefaultMaxBytes
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Fetcher{
		client:   &http.Client{Timeout: cfg.Timeout},
		maxBytes: cfg.MaxBytes,
		logger:   logger,
	}
}

// IsURL reports whether src is an http or https URL.
func IsURL(src string) bool {
	u, err := url.Parse(src)
	return err == nil && (u.Scheme == "http" || u.Scheme == "https") && u.Host != ""
}

// Fetch reads src, which is either an http(s) URL or a local file path.
func (f *Fetcher) Fetch(ctx context.Context, src string) (Document, error) {
	if IsURL(src) {
		return f.get(ctx, src)
	}
	return f.readFile(src)
}

func (f *Fetcher) get(ctx context.Context, src string) (Document, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, src, nil)
	if err != nil {
		return Document{}, fmt.Errorf("failed to build request: %w", err)
	}
	req.Header.Set("Accept", "application/json, application/yaml;q=0.9, */*;q=0.1")

	resp, err := f.client.Do(req)
	if err != nil {
		return Document{}, fmt.Errorf("failed to fetch story: %w", err)
	}
	defer resp.Body.Close()

	f.logger.Debug("fetched story",
		zap.String("url", src),
		zap.Int("status", resp.StatusCode),
		zap.Int64("content_length", resp.ContentLength),
	)

	if resp.StatusCode != http.StatusOK {
		return Document{}, fmt.Errorf("%w: %s", ErrStatus, resp.Status)
	}
	if resp.ContentLength > f.maxBytes {
		return Document{}, fmt.Errorf("%w: %d bytes", ErrTooLarge, resp.ContentLength)
	}

	data, err := f.readLimited(resp.Body)
	if err != nil {
		return Document{}, err
	}
	return Document{Name: urlName(req.URL), Data: data}, nil
}

func (f *Fetcher) readFile(src string) (Document, error) {
	file, err := os.Open(src)
	if err != nil {
		return Document{}, fmt.Errorf("failed to open story: %w", err)
	}
	defer file.Close()

	data, err := f.readLimited(file)
	if err != nil {
		return Document{}, err
	}
	return Document{Name: filepath.Base(src), Data: data}, nil
}

// readLimited reads at most maxBytes, failing if r holds more.
func (f *Fetcher) readLimited(r io.Reader) ([]byte, error) {
	data, err := io.ReadAll(io.LimitReader(r, f.maxBytes+1))
	if err != nil {
		return nil, fmt.Errorf("failed to read story: %w", err)
	}
	if int64(len(data)) > f.maxBytes {
		return nil, fmt.Errorf("%w: over %d bytes", ErrTooLarge, f.maxBytes)
	}
	return data, nil
}

func urlName(u *url.URL) string {
	name := path.Base(u.Path)
	if name == "/" || name == "." {
		return ""
	}
	return strings.TrimSpace(name)
}
