// Package loader turns files and web pages into plain-text documents.
package loader

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/google/uuid"
	"golang.org/x/time/rate"

	"github.com/xhad/excerpt/internal/models"
)

var ErrUnsupportedFormat = errors.New("unsupported document format")

type Format string

const (
	FormatText     Format = "text"
	FormatMarkdown Format = "markdown"
	FormatJSON     Format = "json"
	FormatHTML     Format = "html"
)

type LoaderConfig struct {
	RateLimit float64 // requests per second
	Timeout   time.Duration
	// MaxBytes caps how much of a source is read.
	MaxBytes   int64
	OnProgress func(source string)
	Client     *http.Client
}

type Loader struct {
	config  LoaderConfig
	client  *http.Client
	limiter *rate.Limiter
}

func NewWithConfig(config LoaderConfig) *Loader {
	if config.Timeout == 0 {
		config.Timeout = 30 * time.Second
	}
	if config.RateLimit == 0 {
		config.RateLimit = 2 // 2 requests per second by default
	}
	if config.MaxBytes <= 0 {
		config.MaxBytes = 20 << 20
	}

	client := config.Client
	if client == nil {
		client = &http.Client{Timeout: config.Timeout}
	}
	return &Loader{
		config:  config,
		client:  client,
		limiter: rate.NewLimiter(rate.Limit(config.RateLimit), 1),
	}
}

func New() *Loader {
	return NewWithConfig(LoaderConfig{})
}

// Load reads source as an http(s) URL or a local path.
func (l *Loader) Load(ctx context.Context, source string) (models.Document, error) {
	if u, err := url.Parse(source); err == nil && (u.Scheme == "http" || u.Scheme == "https") {
		return l.LoadURL(ctx, source)
	}
	return l.LoadFile(source)
}

func (l *Loader) LoadFile(path string) (models.Document, error) {
	format, err := formatFromExtension(path)
	if err != nil {
		return models.Document{}, err
	}
	if l.config.OnProgress != nil {
		l.config.OnProgress(path)
	}

	f, err := os.Open(path)
	if err != nil {
		return models.Document{}, fmt.Errorf("failed to open document: %w", err)
	}
	defer f.Close()

	doc, err := l.LoadReader(f, format, path)
	if err != nil {
		return models.Document{}, err
	}
	if doc.Title == "" {
		doc.Title = strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
	}
	return doc, nil
}

func (l *Loader) LoadURL(ctx context.Context, rawURL string) (models.Document, error) {
	if l.config.OnProgress != nil {
		l.config.OnProgress(rawURL)
	}

	// Apply rate limiting
	if err := l.limiter.Wait(ctx); err != nil {
		return models.Document{}, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return models.Document{}, fmt.Errorf("failed to build request: %w", err)
	}
	resp, err := l.client.Do(req)
	if err != nil {
		return models.Document{}, fmt.Errorf("failed to fetch document: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return models.Document{}, fmt.Errorf("received status code %d for URL: %s", resp.StatusCode, rawURL)
	}

	contentType := resp.Header.Get("Content-Type")
	format, err := formatFromContentType(contentType)
	if err != nil {
		// Servers often send a generic type; trust a known extension instead.
		u, perr := url.Parse(rawURL)
		if perr != nil || filepath.Ext(u.Path) == "" {
			return models.Document{}, err
		}
		if format, err = formatFromExtension(u.Path); err != nil {
			return models.Document{}, err
		}
	}

	doc, err := l.LoadReader(resp.Body, format, rawURL)
	if err != nil {
		return models.Document{}, err
	}
	doc.Metadata["contentType"] = contentType
	doc.Metadata["lastModified"] = resp.Header.Get("Last-Modified")
	return doc, nil
}

// LoadReader converts r to text according to format.
func (l *Loader) LoadReader(r io.Reader, format Format, source string) (models.Document, error) {
	raw, err := io.ReadAll(io.LimitReader(r, l.config.MaxBytes))
	if err != nil {
		return models.Document{}, fmt.Errorf("failed to read document: %w", err)
	}

	var title, content string
	switch format {
	case FormatText, FormatMarkdown:
		content = normalizeText(string(raw))
	case FormatJSON:
		var out bytes.Buffer
		if err := json.Indent(&out, raw, "", "  "); err != nil {
			return models.Document{}, fmt.Errorf("failed to parse JSON document: %w", err)
		}
		content = out.String()
	case FormatHTML:
		doc, err := goquery.NewDocumentFromReader(bytes.NewReader(raw))
		if err != nil {
			return models.Document{}, fmt.Errorf("failed to parse HTML document: %w", err)
		}
		title = strings.TrimSpace(doc.Find("title").First().Text())
		content = extractMainContent(doc)
	default:
		return models.Document{}, fmt.Errorf("%w: %s", ErrUnsupportedFormat, format)
	}

	return models.Document{
		ID:      uuid.NewString(),
		Source:  source,
		Title:   title,
		Content: content,
		Metadata: map[string]interface{}{
			"format": string(format),
			"size":   len(raw),
			"time":   time.Now(),
		},
	}, nil
}

func formatFromExtension(path string) (Format, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".txt", ".text", "":
		return FormatText, nil
	case ".md", ".markdown":
		return FormatMarkdown, nil
	case ".json":
		return FormatJSON, nil
	case ".html", ".htm":
		return FormatHTML, nil
	}
	return "", fmt.Errorf("%w: %s", ErrUnsupportedFormat, filepath.Ext(path))
}

func formatFromContentType(contentType string) (Format, error) {
	mediaType, _, err := mime.ParseMediaType(contentType)
	if err != nil {
		return "", fmt.Errorf("%w: %q", ErrUnsupportedFormat, contentType)
	}
	switch mediaType {
	case "text/html", "application/xhtml+xml":
		return FormatHTML, nil
	case "application/json":
		return FormatJSON, nil
	case "text/markdown":
		return FormatMarkdown, nil
	case "text/plain":
		return FormatText, nil
	}
	return "", fmt.Errorf("%w: %s", ErrUnsupportedFormat, mediaType)
}

// normalizeText unifies line endings and trims trailing blanks on each line.
func normalizeText(s string) string {
	s = strings.ReplaceAll(s, "\r\n", "\n")
	s = strings.ReplaceAll(s, "\r", "\n")
	lines := strings.Split(s, "\n")
	for i, line := range lines {
		lines[i] = strings.TrimRight(line, " \t")
	}
	return strings.TrimSpace(strings.Join(lines, "\n"))
}
