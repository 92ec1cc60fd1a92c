package availability

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"strings"
	"time"

	"github.com/patrickmn/go-cache"
	"go.uber.org/zap"

	"github.com/iit-archive/cli/internal/logger"
)

// Result is the outcome of probing one locator.
type Result struct {
	Available bool
	Reason    string
	Cached    bool
}

const (
	DefaultTimeout    = 10 * time.Second
	DefaultSuccessTTL = 5 * time.Minute
)

var pdfMagic = []byte("%PDF")

// Prober checks whether a paper can be opened before the viewer starts.
// Unavailable locators are remembered for the life of the process.
type Prober struct {
	cache      *cache.Cache
	httpClient *http.Client
	successTTL time.Duration
	logger     *zap.Logger
}

// Option configures a Prober.
type Option func(*Prober)

// WithHTTPClient sets the client used for http(s) locators.
func WithHTTPClient(c *http.Client) Option {
	return func(p *Prober) {
		p.httpClient = c
	}
}

// WithTimeout bounds each HEAD request.
func WithTimeout(d time.Duration) Option {
	return func(p *Prober) {
		if d > 0 {
			hc := *p.httpClient
			hc.Timeout = d
			p.httpClient = &hc
		}
	}
}

// WithSuccessTTL sets how long an available result is reused.
func WithSuccessTTL(d time.Duration) Option {
	return func(p *Prober) {
		p.successTTL = d
	}
}

// WithLogger sets the logger.
func WithLogger(l *zap.Logger) Option {
	return func(p *Prober) {
		p.logger = logger.OrNop(l)
	}
}

// NewProber creates a prober.
func NewProber(opts ...Option) *Prober {
	p := &Prober{
		cache:      cache.New(DefaultSuccessTTL, 10*time.Minute),
		httpClient: &http.Client{Timeout: DefaultTimeout},
		successTTL: DefaultSuccessTTL,
		logger:     zap.NewNop(),
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Check reports whether locator points at a readable PDF.
func (p *Prober) Check(ctx context.Context, locator string) Result {
	if x, found := p.cache.Get(locator); found {
		r := x.(Result)
		r.Cached = true
		return r
	}

	var r Result
	if err := p.probe(ctx, locator); err != nil {
		r = Result{Available: false, Reason: err.Error()}
		if errors.Is(err, context.Canceled) {
			return r
		}
		p.cache.Set(locator, r, cache.NoExpiration)
		p.logger.Info("paper unavailable", zap.String("locator", locator), zap.Error(err))
	} else {
		r = Result{Available: true}
		if p.successTTL > 0 {
			p.cache.Set(locator, r, p.successTTL)
		}
	}
	return r
}

// Forget drops the cached result for locator.
func (p *Prober) Forget(locator string) {
	p.cache.Delete(locator)
}

func (p *Prober) probe(ctx context.Context, locator string) error {
	if locator == "" {
		return fmt.Errorf("empty document locator")
	}

	u, err := url.Parse(locator)
	if err == nil {
		switch u.Scheme {
		case "http", "https":
			return p.head(ctx, locator)
		case "file":
			return checkFile(u.Path)
		}
	}
	return checkFile(locator)
}

func (p *Prober) head(ctx context.Context, locator string) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodHead, locator, nil)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}

	resp, err := p.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("paper is unreachable: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("paper is unavailable: HTTP %d", resp.StatusCode)
	}

	ct := resp.Header.Get("Content-Type")
	if !strings.Contains(strings.ToLower(ct), "application/pdf") {
		return fmt.Errorf("paper is not a PDF (content type %q)", ct)
	}
	return nil
}

func checkFile(path string) error {
	f, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return fmt.Errorf("paper not found: %s", path)
		}
		return fmt.Errorf("failed to open paper: %w", err)
	}
	defer f.Close()

	head := make([]byte, len(pdfMagic))
	if _, err := io.ReadFull(f, head); err != nil || !bytes.Equal(head, pdfMagic) {
		return fmt.Errorf("paper is not a PDF: %s", path)
	}
	return nil
}
