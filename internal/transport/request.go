package transport

import (
	"fmt"
	"io"
	"net/http"

	"github.com/bmedia/gearsync/pkg/errors"
)

// RequestBuilder sets the headers a desktop browser would send.
type RequestBuilder struct {
	userAgent string
}

// NewRequestBuilder creates a new request builder.
func NewRequestBuilder(userAgent string) *RequestBuilder {
	return &RequestBuilder{userAgent: userAgent}
}

// Apply adds browser headers to req without overriding ones already set.
func (rb *RequestBuilder) Apply(req *http.Request) {
	setDefault(req, "User-Agent", rb.userAgent)
	setDefault(req, "Accept", "text/html,application/xhtml+xml,image/avif,image/webp,image/*,*/*;q=0.8")
	setDefault(req, "Accept-Language", "en-US,en;q=0.9")
}

func setDefault(req *http.Request, key, value string) {
	if value != "" && req.Header.Get(key) == "" {
		req.Header.Set(key, value)
	}
}

// ReadBody reads at most limit bytes of a successful response and closes it.
// Non-2xx responses become a *errors.FetchError carrying the status code.
func ReadBody(resp *http.Response, limit int64) ([]byte, error) {
	defer func() { _ = resp.Body.Close() }()

	url := ""
	if resp.Request != nil && resp.Request.URL != nil {
		url = resp.Request.URL.String()
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, errors.NewFetchError(url, "", resp.StatusCode, fmt.Errorf("unexpected status %s", resp.Status))
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, limit+1))
	if err != nil {
		return nil, errors.WrapIO("read", "response body", err)
	}
	if int64(len(body)) > limit {
		return nil, errors.NewFetchError(url, "", resp.StatusCode, fmt.Errorf("response exceeds %d bytes", limit))
	}
	return body, nil
}
