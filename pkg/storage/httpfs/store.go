// Copyright © 2018 One Concern

// Package httpfs implements a read-only Store over HTTP(S).
//
// Keys are full URLs. Write operations fail with status.ErrReadOnly and
// listing is not supported, which is why datasets over HTTP(S) can never
// be versioned.
package httpfs

import (
	"context"
	"io"
	"net/http"

	"github.com/oneconcern/datakit/pkg/storage"
	"github.com/oneconcern/datakit/pkg/storage/status"
)

// Option is a functor to pass optional parameters to the http store
type Option func(*httpFS)

// Client overrides the default http client
func Client(client *http.Client) Option {
	return func(h *httpFS) {
		if client != nil {
			h.client = client
		}
	}
}

// Headers adds headers (e.g. auth tokens) to every request
func Headers(headers map[string]string) Option {
	return func(h *httpFS) {
		h.headers = headers
	}
}

// New creates a read-only store backed by an HTTP(S) endpoint
func New(opts ...Option) storage.Store {
	h := &httpFS{
		client: http.DefaultClient,
	}
	for _, apply := range opts {
		apply(h)
	}
	return h
}

type httpFS struct {
	client  *http.Client
	headers map[string]string
}

func (h *httpFS) String() string {
	return "httpfs"
}

func (h *httpFS) request(ctx context.Context, method, url string) (*http.Response, error) {
	req, err := http.NewRequestWithContext(ctx, method, url, nil)
	if err != nil {
		return nil, status.ErrInvalidResource.Wrap(err)
	}
	for k, v := range h.headers {
		req.Header.Set(k, v)
	}
	resp, err := h.client.Do(req)
	if err != nil {
		return nil, status.ErrStorageAPI.Wrap(err)
	}
	return resp, nil
}

func (h *httpFS) Has(ctx context.Context, key string) (bool, error) {
	resp, err := h.request(ctx, http.MethodHead, key)
	if err != nil {
		return false, err
	}
	defer resp.Body.Close()
	switch {
	case resp.StatusCode == http.StatusOK:
		return true, nil
	case resp.StatusCode == http.StatusNotFound:
		return false, nil
	case resp.StatusCode == http.StatusUnauthorized:
		return false, status.ErrUnauthorized
	case resp.StatusCode == http.StatusForbidden:
		return false, status.ErrForbidden
	default:
		return false, status.ErrStorageAPI.WrapMessage(nil, "HEAD %s: %s", key, resp.Status)
	}
}

func (h *httpFS) Get(ctx context.Context, key string) (io.ReadCloser, error) {
	resp, err := h.request(ctx, http.MethodGet, key)
	if err != nil {
		return nil, err
	}
	switch {
	case resp.StatusCode == http.StatusOK:
		return resp.Body, nil
	case resp.StatusCode == http.StatusNotFound:
		resp.Body.Close()
		return nil, status.ErrNotFound.WrapMessage(nil, "%q", key)
	default:
		resp.Body.Close()
		return nil, status.ErrStorageAPI.WrapMessage(nil, "GET %s: %s", key, resp.Status)
	}
}

func (h *httpFS) Put(ctx context.Context, key string, source io.Reader, doesNotExist bool) error {
	return status.ErrReadOnly.WrapMessage(nil, "PUT %s", key)
}

func (h *httpFS) Delete(ctx context.Context, key string) error {
	return status.ErrReadOnly.WrapMessage(nil, "DELETE %s", key)
}

func (h *httpFS) Glob(ctx context.Context, pattern string) ([]string, error) {
	return nil, status.ErrNotSupported.WrapMessage(nil, "glob %s", pattern)
}

// Invalidate is a no-op: responses are not cached by this store.
func (h *httpFS) Invalidate(ctx context.Context, prefix string) {}
