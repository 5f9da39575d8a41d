package fetcher

import (
	"context"
	"errors"
	"fmt"
	"io"
	"mime"
	"net/http"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/dtnitsch/vacancy-watch/models"
	"github.com/dtnitsch/vacancy-watch/pkg/logger"
	"github.com/dtnitsch/vacancy-watch/pkg/parser"
	"github.com/dtnitsch/vacancy-watch/pkg/pdftext"
)

var (
	// ErrStatus is wrapped by errors for non-2xx responses.
	ErrStatus = errors.New("unexpected status code")
	// ErrTooLarge is wrapped when a body is longer than the configured cap.
	// A cut-off PDF loses its xref table, so the body is refused instead.
	ErrTooLarge = errors.New("response body too large")
)

type Fetcher struct {
	client          *http.Client
	userAgent       string
	pageTimeout     time.Duration
	documentTimeout time.Duration
	maxBytes        int64
	log             logger.Logger
}

type Option func(*Fetcher)

func WithUserAgent(ua string) Option {
	return func(f *Fetcher) { f.userAgent = ua }
}

func WithTimeouts(page, document time.Duration) Option {
	return func(f *Fetcher) {
		if page > 0 {
			f.pageTimeout = page
		}
		if document > 0 {
			f.documentTimeout = document
		}
	}
}

func WithMaxBytes(n int64) Option {
	return func(f *Fetcher) {
		if n > 0 {
			f.maxBytes = n
		}
	}
}

func WithLogger(l logger.Logger) Option {
	return func(f *Fetcher) { f.log = l }
}

func WithHTTPClient(c *http.Client) Option {
	return func(f *Fetcher) { f.client = c }
}

func NewFetcher(opts ...Option) *Fetcher {
	f := &Fetcher{
		client:          &http.Client{},
		userAgent:       models.DefaultUserAgent,
		pageTimeout:     models.DefaultPageTimeout,
		documentTimeout: models.DefaultDocTimeout,
		maxBytes:        models.DefaultMaxDocumentLen,
		log:             logger.NewNop(),
	}
	for _, opt := range opts {
		opt(f)
	}
	return f
}

// GetPage downloads the watched page.
func (f *Fetcher) GetPage(ctx context.Context, url string) ([]byte, error) {
	body, _, err := f.get(ctx, url, f.pageTimeout)
	return body, err
}

// FetchText downloads a document and returns its text. Every failure,
// network or decoding, yields "".
func (f *Fetcher) FetchText(ctx context.Context, url string) string {
	body, contentType, err := f.get(ctx, url, f.documentTimeout)
	if errors.Is(err, ErrTooLarge) {
		f.log.Warn("document too large, skipped",
			logger.String("url", url),
			logger.Int64("max_bytes", f.maxBytes),
		)
		return ""
	}
	if err != nil {
		f.log.Warn("document fetch failed", logger.String("url", url), logger.Error(err))
		return ""
	}
	text := TextFromBody(body, contentType)
	f.log.Debug("document text extracted",
		logger.String("url", url),
		logger.String("content_type", contentType),
		logger.Int("bytes", len(body)),
		logger.Int("text_len", len(text)),
	)
	return text
}

func (f *Fetcher) get(ctx context.Context, url string, timeout time.Duration) ([]byte, string, error) {
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, "", fmt.Errorf("failed to build request: %w", err)
	}
	req.Header.Set("User-Agent", f.userAgent)

	resp, err := f.client.Do(req)
	if err != nil {
		return nil, "", fmt.Errorf("failed to make HTTP request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, "", fmt.Errorf("%w: %d", ErrStatus, resp.StatusCode)
	}

	if resp.ContentLength > f.maxBytes {
		return nil, "", fmt.Errorf("%w: %d bytes, limit %d", ErrTooLarge, resp.ContentLength, f.maxBytes)
	}
	body, err := io.ReadAll(io.LimitReader(resp.Body, f.maxBytes+1))
	if err != nil {
		return nil, "", fmt.Errorf("failed to read response body: %w", err)
	}
	if int64(len(body)) > f.maxBytes {
		return nil, "", fmt.Errorf("%w: more than %d bytes", ErrTooLarge, f.maxBytes)
	}
	return body, resp.Header.Get("Content-Type"), nil
}

// TextFromBody picks an extractor by content: PDF by magic bytes, then HTML,
// then plain text. Other formats yield "".
func TextFromBody(body []byte, contentType string) string {
	if len(body) == 0 {
		return ""
	}
	if pdftext.IsPDF(body) {
		return pdftext.FromBytes(body)
	}

	mediaType, _, _ := mime.ParseMediaType(contentType)
	if mediaType == "" {
		mediaType, _, _ = mime.ParseMediaType(http.DetectContentType(body))
	}

	switch {
	case mediaType == "text/html" || mediaType == "application/xhtml+xml":
		text, err := parser.DocumentText(string(body))
		if err != nil {
			return ""
		}
		return text
	case strings.HasPrefix(mediaType, "text/"):
		if !utf8.Valid(body) {
			return ""
		}
		return string(body)
	default:
		return ""
	}
}
