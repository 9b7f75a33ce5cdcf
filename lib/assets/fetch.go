// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package assets

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"net/http"
	"net/url"
	"os"
	"strconv"
	"strings"

	"github.com/bureau-foundation/toolfed/lib/namespace"
)

// ErrNotFound is returned when a location does not exist: an HTTP 404
// or a missing local file.
var ErrNotFound = errors.New("asset not found")

// Options configures a Fetcher.
type Options struct {
	// Client performs HTTP requests. Nil uses http.DefaultClient.
	Client *http.Client

	// Logger receives debug-level fetch diagnostics. Nil discards.
	Logger *slog.Logger
}

// Fetcher retrieves assets from HTTP servers and the host filesystem.
type Fetcher struct {
	client *http.Client
	logger *slog.Logger
}

// NewFetcher creates a Fetcher.
func NewFetcher(options Options) *Fetcher {
	if options.Client == nil {
		options.Client = http.DefaultClient
	}
	if options.Logger == nil {
		options.Logger = slog.New(slog.DiscardHandler)
	}
	return &Fetcher{client: options.Client, logger: options.Logger}
}

var _ namespace.RangeFetcher = (*Fetcher)(nil)

// IsRemote reports whether location is an http or https URL.
func IsRemote(location string) bool {
	return strings.HasPrefix(location, "http://") || strings.HasPrefix(location, "https://")
}

// localPath returns the host path for a file:// URL or plain path.
func localPath(location string) (string, error) {
	if !strings.HasPrefix(location, "file://") {
		return location, nil
	}
	parsed, err := url.Parse(location)
	if err != nil {
		return "", fmt.Errorf("parsing %s: %w", location, err)
	}
	return parsed.Path, nil
}

// Fetch returns the decompressed content at location.
func (f *Fetcher) Fetch(ctx context.Context, location string) ([]byte, error) {
	data, err := f.fetchRaw(ctx, location)
	if err != nil {
		return nil, err
	}
	compression := Detect(data)
	if compression != CompressionNone {
		f.logger.Debug("decompressing asset", "location", location, "compression", compression.String())
	}
	result, err := Decompress(data)
	if err != nil {
		return nil, fmt.Errorf("fetching %s: %w", location, err)
	}
	return result, nil
}

func (f *Fetcher) fetchRaw(ctx context.Context, location string) ([]byte, error) {
	if !IsRemote(location) {
		path, err := localPath(location)
		if err != nil {
			return nil, err
		}
		data, err := os.ReadFile(path)
		if errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("fetching %s: %w", location, ErrNotFound)
		}
		if err != nil {
			return nil, fmt.Errorf("fetching %s: %w", location, err)
		}
		return data, nil
	}

	request, err := http.NewRequestWithContext(ctx, http.MethodGet, location, nil)
	if err != nil {
		return nil, fmt.Errorf("fetching %s: %w", location, err)
	}
	response, err := f.client.Do(request)
	if err != nil {
		return nil, fmt.Errorf("fetching %s: %w", location, err)
	}
	defer response.Body.Close()
	if err := checkStatus(location, response, http.StatusOK); err != nil {
		return nil, err
	}
	data, err := io.ReadAll(response.Body)
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", location, err)
	}
	f.logger.Debug("fetched asset", "location", location, "bytes", len(data))
	return data, nil
}

func checkStatus(location string, response *http.Response, accepted ...int) error {
	if response.StatusCode == http.StatusNotFound {
		return fmt.Errorf("fetching %s: %w", location, ErrNotFound)
	}
	for _, status := range accepted {
		if response.StatusCode == status {
			return nil
		}
	}
	return fmt.Errorf("fetching %s: unexpected status %s", location, response.Status)
}

// FetchToolConfig fetches and parses <prefix>/config.json.
func (f *Fetcher) FetchToolConfig(ctx context.Context, prefix string) (ToolConfig, error) {
	data, err := f.Fetch(ctx, strings.TrimSuffix(prefix, "/")+"/config.json")
	if err != nil {
		return ToolConfig{}, err
	}
	return ParseToolConfig(data)
}

// Size returns the length of the resource at location without reading
// its body.
func (f *Fetcher) Size(ctx context.Context, location string) (int64, error) {
	if !IsRemote(location) {
		path, err := localPath(location)
		if err != nil {
			return 0, err
		}
		info, err := os.Stat(path)
		if errors.Is(err, fs.ErrNotExist) {
			return 0, fmt.Errorf("stat %s: %w", location, ErrNotFound)
		}
		if err != nil {
			return 0, err
		}
		return info.Size(), nil
	}

	request, err := http.NewRequestWithContext(ctx, http.MethodHead, location, nil)
	if err != nil {
		return 0, fmt.Errorf("stat %s: %w", location, err)
	}
	response, err := f.client.Do(request)
	if err != nil {
		return 0, fmt.Errorf("stat %s: %w", location, err)
	}
	response.Body.Close()
	if err := checkStatus(location, response, http.StatusOK); err != nil {
		return 0, err
	}
	if response.ContentLength >= 0 {
		return response.ContentLength, nil
	}

	// Servers that omit Content-Length on HEAD still report the total
	// in Content-Range for a one-byte range request.
	_, total, err := f.rangeRequest(ctx, location, 0, 1)
	if err != nil {
		return 0, err
	}
	return total, nil
}

// FetchRange returns length bytes starting at offset. Content is
// returned as stored; ranged reads never decompress.
func (f *Fetcher) FetchRange(ctx context.Context, location string, offset, length int64) ([]byte, error) {
	if length <= 0 {
		return nil, nil
	}
	if !IsRemote(location) {
		path, err := localPath(location)
		if err != nil {
			return nil, err
		}
		file, err := os.Open(path)
		if errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("reading %s: %w", location, ErrNotFound)
		}
		if err != nil {
			return nil, err
		}
		defer file.Close()
		buffer := make([]byte, length)
		n, err := file.ReadAt(buffer, offset)
		if err != nil && !errors.Is(err, io.EOF) {
			return nil, fmt.Errorf("reading %s: %w", location, err)
		}
		return buffer[:n], nil
	}
	data, _, err := f.rangeRequest(ctx, location, offset, length)
	return data, err
}

// rangeRequest issues a ranged GET and returns the body and the total
// resource size (-1 when the server does not say).
func (f *Fetcher) rangeRequest(ctx context.Context, location string, offset, length int64) ([]byte, int64, error) {
	request, err := http.NewRequestWithContext(ctx, http.MethodGet, location, nil)
	if err != nil {
		return nil, 0, fmt.Errorf("fetching %s: %w", location, err)
	}
	request.Header.Set("Range", fmt.Sprintf("bytes=%d-%d", offset, offset+length-1))
	response, err := f.client.Do(request)
	if err != nil {
		return nil, 0, fmt.Errorf("fetching %s: %w", location, err)
	}
	defer response.Body.Close()
	if err := checkStatus(location, response, http.StatusOK, http.StatusPartialContent); err != nil {
		return nil, 0, err
	}

	if response.StatusCode == http.StatusOK {
		// The server ignored the range and sent everything.
		data, err := io.ReadAll(response.Body)
		if err != nil {
			return nil, 0, fmt.Errorf("reading %s: %w", location, err)
		}
		total := int64(len(data))
		if offset >= total {
			return nil, total, nil
		}
		return data[offset:min(offset+length, total)], total, nil
	}

	data, err := io.ReadAll(io.LimitReader(response.Body, length))
	if err != nil {
		return nil, 0, fmt.Errorf("reading %s: %w", location, err)
	}
	return data, parseContentRangeTotal(response.Header.Get("Content-Range")), nil
}

// parseContentRangeTotal extracts the complete length from a header of
// the form "bytes 0-0/1234". It returns -1 when absent or "*".
func parseContentRangeTotal(header string) int64 {
	slash := strings.LastIndexByte(header, '/')
	if slash < 0 {
		return -1
	}
	total, err := strconv.ParseInt(header[slash+1:], 10, 64)
	if err != nil {
		return -1
	}
	return total
}
