package transport

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bmedia/gearsync/pkg/constants"
	"github.com/bmedia/gearsync/pkg/errors"
)

func TestClientSendsBrowserHeaders(t *testing.T) {
	var gotUA, gotAccept string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotUA = r.Header.Get("User-Agent")
		gotAccept = r.Header.Get("Accept")
		_, _ = w.Write([]byte("ok"))
	}))
	defer srv.Close()

	c := New()
	resp, err := c.Get(context.Background(), srv.URL)
	require.NoError(t, err)
	body, err := ReadBody(resp, 1024)
	require.NoError(t, err)

	assert.Equal(t, "ok", string(body))
	assert.Equal(t, constants.UserAgent, gotUA)
	assert.Contains(t, gotAccept, "text/html")
}

func TestClientCustomUserAgent(t *testing.T) {
	var gotUA string
	srv := httptest.NewServer(http.HandlerFunc(func(_ http.ResponseWriter, r *http.Request) {
		gotUA = r.Header.Get("User-Agent")
	}))
	defer srv.Close()

	c := New(WithUserAgent("gearsync-test"), WithTimeout(time.Second))
	resp, err := c.Get(context.Background(), srv.URL)
	require.NoError(t, err)
	_ = resp.Body.Close()
	assert.Equal(t, "gearsync-test", gotUA)
	assert.Equal(t, "gearsync-test", c.UserAgent())
}

func TestReadBodyStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		http.Error(w, "gone", http.StatusNotFound)
	}))
	defer srv.Close()

	resp, err := New().Get(context.Background(), srv.URL)
	require.NoError(t, err)
	_, err = ReadBody(resp, 1024)
	require.Error(t, err)

	var fe *errors.FetchError
	require.True(t, errors.As(err, &fe))
	assert.Equal(t, http.StatusNotFound, fe.StatusCode)
	assert.True(t, errors.IsImageFetch(err))
}

func TestReadBodyLimit(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write(make([]byte, 64))
	}))
	defer srv.Close()

	resp, err := New().Get(context.Background(), srv.URL)
	require.NoError(t, err)
	_, err = ReadBody(resp, 32)
	assert.Error(t, err)
}

func TestRateLimitHonorsContext(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(_ http.ResponseWriter, _ *http.Request) {}))
	defer srv.Close()

	c := New(WithRate(0.001, 1))
	resp, err := c.Get(context.Background(), srv.URL)
	require.NoError(t, err)
	_ = resp.Body.Close()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err = c.Get(ctx, srv.URL)
	require.Error(t, err)
}
