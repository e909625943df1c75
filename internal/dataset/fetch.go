package dataset

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"strings"
	"time"
)

const driveDownloadURL = "https://drive.usercontent.google.com/download?id=%s&export=download&authuser=0&confirm=t"

// Fetcher opens the raw bytes behind a dataset location
type Fetcher struct {
	httpClient *http.Client
}

// NewFetcher creates a fetcher whose HTTP requests time out after timeout
func NewFetcher(timeout time.Duration) *Fetcher {
	return &Fetcher{
		httpClient: &http.Client{
			Timeout: timeout,
		},
	}
}

// Open returns a reader for location. http(s) locations are downloaded once
// with no retry; anything else is treated as a local file path.
func (f *Fetcher) Open(ctx context.Context, location string) (io.ReadCloser, error) {
	if !isRemote(location) {
		file, err := os.Open(location)
		if err != nil {
			return nil, fmt.Errorf("failed to open dataset: %w", err)
		}
		return file, nil
	}

	resp, err := f.doRequest(ctx, DriveDownloadURL(location))
	if err != nil {
		return nil, fmt.Errorf("failed to fetch dataset: %w", err)
	}
	return resp.Body, nil
}

// doRequest performs a single GET; non-2xx responses are errors
func (f *Fetcher) doRequest(ctx context.Context, rawURL string) (*http.Response, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Accept", "text/csv, application/octet-stream, */*")

	resp, err := f.httpClient.Do(req)
	if err != nil {
		return nil, err
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		resp.Body.Close()
		return nil, fmt.Errorf("unexpected status: %d", resp.StatusCode)
	}

	return resp, nil
}

// DriveDownloadURL rewrites a Google Drive share link
// (https://drive.google.com/file/d/<id>/view) into its direct download URL.
// Other URLs are returned unchanged.
func DriveDownloadURL(location string) string {
	u, err := url.Parse(location)
	if err != nil || u.Host != "drive.google.com" {
		return location
	}

	parts := strings.Split(strings.Trim(u.Path, "/"), "/")
	for i := 0; i+1 < len(parts); i++ {
		if parts[i] == "d" && parts[i+1] != "" {
			return fmt.Sprintf(driveDownloadURL, parts[i+1])
		}
	}
	return location
}

func isRemote(location string) bool {
	return strings.HasPrefix(location, "http://") || strings.HasPrefix(location, "https://")
}
