// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package upload

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"time"

	"golang.org/x/net/http2"
)

// Uploader delivers one report body to the collector. A nil error means
// the collector confirmed receipt.
type Uploader interface {
	Upload(ctx context.Context, body []byte) error
}

// StatusError is returned when the collector answers with a non-2xx
// status.
type StatusError struct {
	StatusCode int
	// Body holds the start of the response body, for logging.
	Body string
}

func (e *StatusError) Error() string {
	if e.Body == "" {
		return fmt.Sprintf("collector returned HTTP %d", e.StatusCode)
	}
	return fmt.Sprintf("collector returned HTTP %d: %s", e.StatusCode, e.Body)
}

// maxErrorBody bounds how much of a failed response is kept in a
// StatusError.
const maxErrorBody = 512

// NewHTTPClient returns a client whose transport negotiates HTTP/2 with
// TLS collectors and falls back to HTTP/1.1 for plain-text URLs.
// timeout bounds each request, including reading the response.
func NewHTTPClient(timeout time.Duration) (*http.Client, error) {
	transport := http.DefaultTransport.(*http.Transport).Clone()
	if err := http2.ConfigureTransport(transport); err != nil {
		return nil, fmt.Errorf("configuring HTTP/2 transport: %w", err)
	}
	return &http.Client{Transport: transport, Timeout: timeout}, nil
}

// HTTPUploader POSTs report bodies to a collector URL.
type HTTPUploader struct {
	URL       string
	UserAgent string
	Client    *http.Client
}

// Upload sends body as application/json.
func (u *HTTPUploader) Upload(ctx context.Context, body []byte) error {
	request, err := http.NewRequestWithContext(ctx, http.MethodPost, u.URL, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("building upload request: %w", err)
	}
	request.Header.Set("Content-Type", "application/json")
	if u.UserAgent != "" {
		request.Header.Set("User-Agent", u.UserAgent)
	}

	client := u.Client
	if client == nil {
		client = http.DefaultClient
	}
	response, err := client.Do(request)
	if err != nil {
		return fmt.Errorf("posting report: %w", err)
	}
	defer response.Body.Close()

	if response.StatusCode < 200 || response.StatusCode > 299 {
		excerpt, _ := io.ReadAll(io.LimitReader(response.Body, maxErrorBody))
		return &StatusError{StatusCode: response.StatusCode, Body: string(bytes.TrimSpace(excerpt))}
	}
	// Drain so the connection can be reused.
	io.Copy(io.Discard, response.Body)
	return nil
}
