// Package fetch acquires package manifests and lockfiles from disk, GitHub and
// the npm registry so they can be handed to a scan session as plain text.
package fetch

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/sambabib/shaiscan/pkg/logger"
)

const userAgent = "shaiscan/1.0"

// maxBodySize bounds how much of a response is read. Lockfiles of large
// monorepos run to tens of megabytes.
const maxBodySize = 64 << 20

var (
	// ErrNotFound is returned when the remote host answers 404.
	ErrNotFound = errors.New("not found")
	// ErrNoPackageFiles is returned when a repository holds none of the
	// files a scan can read.
	ErrNoPackageFiles = errors.New("no package files found")
)

// StatusError reports an unexpected HTTP status.
type StatusError struct {
	URL        string
	StatusCode int
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("unexpected status %d from %s", e.StatusCode, e.URL)
}

// newHTTPClient returns a client with the given request timeout.
func newHTTPClient(timeout time.Duration) *http.Client {
	return &http.Client{Timeout: timeout}
}

// get performs a GET request and returns the body of a 200 response. A 404
// yields ErrNotFound and any other status a *StatusError.
func get(ctx context.Context, client *http.Client, url, accept string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request for %s: %w", url, err)
	}
	req.Header.Set("User-Agent", userAgent)
	if accept != "" {
		req.Header.Set("Accept", accept)
	}

	logger.Debugf("GET %s", url)
	resp, err := client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request to %s failed: %w", url, err)
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusNotFound:
		return nil, ErrNotFound
	case resp.StatusCode != http.StatusOK:
		return nil, &StatusError{URL: url, StatusCode: resp.StatusCode}
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodySize))
	if err != nil {
		return nil, fmt.Errorf("failed to read response from %s: %w", url, err)
	}
	return body, nil
}
