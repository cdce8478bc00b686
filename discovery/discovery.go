// Package discovery loads service descriptions for disco from files or URLs.
//
//	loader := discovery.NewLoader(nil)
//	desc, err := loader.Load(ctx, "https://www.googleapis.com/discovery/v1/apis/drive/v2/rest")
//	if err != nil {
//	    return err
//	}
//	client, err := disco.New(desc)
//
// Documents may be JSON or YAML. Loaded documents are cached by source.
package discovery

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/broady/disco"
	"golang.org/x/sync/errgroup"
	"gopkg.in/yaml.v3"
)

// maxDocumentSize bounds descriptions fetched over HTTP.
var maxDocumentSize = 16 << 20

// Format is the encoding of a description document.
type Format string

const (
	FormatAuto Format = ""
	FormatJSON Format = "json"
	FormatYAML Format = "yaml"
)

// Parse decodes a description document. FormatAuto treats data starting with
// '{' as JSON and anything else as YAML.
func Parse(data []byte, format Format) (*disco.Description, error) {
	if format == FormatAuto {
		format = sniff(data)
	}

	var desc disco.Description
	switch format {
	case FormatJSON:
		if err := json.Unmarshal(data, &desc); err != nil {
			return nil, fmt.Errorf("parse JSON: %w", err)
		}
	case FormatYAML:
		if err := yaml.Unmarshal(data, &desc); err != nil {
			return nil, fmt.Errorf("parse YAML: %w", err)
		}
	default:
		return nil, fmt.Errorf("unsupported format %q, use \"yaml\" or \"json\"", format)
	}
	return &desc, nil
}

func sniff(data []byte) Format {
	if bytes.HasPrefix(bytes.TrimSpace(data), []byte("{")) {
		return FormatJSON
	}
	return FormatYAML
}

// formatFromPath returns the format for a file extension, FormatAuto if unknown.
func formatFromPath(path string) Format {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		return FormatYAML
	case ".json":
		return FormatJSON
	default:
		return FormatAuto
	}
}

// Loader fetches and caches descriptions. It is safe for concurrent use.
type Loader struct {
	client *http.Client
	logger *slog.Logger

	mu    sync.RWMutex
	cache map[string]*disco.Description
}

// NewLoader returns a Loader fetching URLs with client, or http.DefaultClient.
func NewLoader(client *http.Client) *Loader {
	if client == nil {
		client = http.DefaultClient
	}
	return &Loader{
		client: client,
		logger: slog.Default(),
		cache:  make(map[string]*disco.Description),
	}
}

// SetLogger sets the logger used for cache and fetch events.
func (l *Loader) SetLogger(logger *slog.Logger) *Loader {
	if logger != nil {
		l.logger = logger
	}
	return l
}

// Load returns the description at source, a file path or an http(s) URL.
// Every call after the first successful one for a source is served from the
// cache. Each call returns its own copy, so callers may modify the result.
func (l *Loader) Load(ctx context.Context, source string) (*disco.Description, error) {
	l.mu.RLock()
	desc, ok := l.cache[source]
	l.mu.RUnlock()
	if ok {
		l.logger.Debug("description cache hit", slog.String("source", source))
		return desc.Clone(), nil
	}

	data, format, err := l.fetch(ctx, source)
	if err != nil {
		return nil, err
	}
	desc, err = Parse(data, format)
	if err != nil {
		return nil, fmt.Errorf("discovery: %s: %w", source, err)
	}

	l.mu.Lock()
	if cached, ok := l.cache[source]; ok {
		desc = cached
	} else {
		l.cache[source] = desc
	}
	l.mu.Unlock()

	l.logger.Debug("description loaded",
		slog.String("source", source),
		slog.String("name", desc.Name),
		slog.String("version", desc.Version))
	return desc.Clone(), nil
}

// LoadAll loads every source concurrently. It returns descriptions in the
// order of sources, or the first error.
func (l *Loader) LoadAll(ctx context.Context, sources ...string) ([]*disco.Description, error) {
	out := make([]*disco.Description, len(sources))
	g, ctx := errgroup.WithContext(ctx)
	for i, src := range sources {
		g.Go(func() error {
			desc, err := l.Load(ctx, src)
			if err != nil {
				return err
			}
			out[i] = desc
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return out, nil
}

// Forget drops source from the cache.
func (l *Loader) Forget(source string) {
	l.mu.Lock()
	delete(l.cache, source)
	l.mu.Unlock()
}

func (l *Loader) fetch(ctx context.Context, source string) ([]byte, Format, error) {
	if !strings.HasPrefix(source, "http://") && !strings.HasPrefix(source, "https://") {
		data, err := os.ReadFile(source)
		if err != nil {
			return nil, "", fmt.Errorf("discovery: read description file: %w", err)
		}
		return data, formatFromPath(source), nil
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, source, nil)
	if err != nil {
		return nil, "", fmt.Errorf("discovery: %w", err)
	}
	req.Header.Set("Accept", "application/json, application/yaml;q=0.9")
	resp, err := l.client.Do(req)
	if err != nil {
		return nil, "", fmt.Errorf("discovery: fetch %s: %w", source, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, "", fmt.Errorf("discovery: fetch %s: unexpected status %d", source, resp.StatusCode)
	}
	data, err := io.ReadAll(io.LimitReader(resp.Body, int64(maxDocumentSize)+1))
	if err != nil {
		return nil, "", fmt.Errorf("discovery: read %s: %w", source, err)
	}
	if len(data) > maxDocumentSize {
		return nil, "", fmt.Errorf("discovery: %s: description exceeds %d bytes", source, maxDocumentSize)
	}

	format := FormatAuto
	ct := resp.Header.Get("Content-Type")
	switch {
	case strings.Contains(ct, "json"):
		format = FormatJSON
	case strings.Contains(ct, "yaml"):
		format = FormatYAML
	}
	return data, format, nil
}
