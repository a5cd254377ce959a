package imaging

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
)

// ErrUnexpectedStatus is returned when an image server answers with a non-200 status.
var ErrUnexpectedStatus = errors.New("unexpected status code")

// ErrImageTooLarge is returned when an image body exceeds the fetch size cap.
var ErrImageTooLarge = errors.New("image too large")

// maxImageSize caps the number of bytes read for a single image.
const maxImageSize = 32 << 20

// Fetcher defines the interface for retrieving the bytes behind an image URL.
type Fetcher interface {
	Fetch(ctx context.Context, url string) ([]byte, error)
}

// HTTPFetcher is an implementation of Fetcher that fetches images over HTTP.
type HTTPFetcher struct {
	client *http.Client
	limit  int64
}

// NewHTTPFetcher creates a new HTTPFetcher.
func NewHTTPFetcher(client *http.Client) *HTTPFetcher {
	return &HTTPFetcher{
		client: client,
		limit:  maxImageSize,
	}
}

// Fetch fetches the content of a URL and returns it as a byte slice.
func (f *HTTPFetcher) Fetch(ctx context.Context, url string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to build request for %s: %w", url, err)
	}

	resp, err := f.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch url %s: %w", url, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("failed to fetch url %s: %w %d", url, ErrUnexpectedStatus, resp.StatusCode)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, f.limit+1))
	if err != nil {
		return nil, fmt.Errorf("failed to read body of %s: %w", url, err)
	}
	if int64(len(body)) > f.limit {
		return nil, fmt.Errorf("failed to fetch url %s: %w: more than %d bytes", url, ErrImageTooLarge, f.limit)
	}
	return body, nil
}
