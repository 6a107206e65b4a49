package httputil

import (
	"bytes"
	"compress/gzip"
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"

	"github.com/google/go-cmp/cmp"
)

func TestHTTPClient_UserAgent(t *testing.T) {
	t.Parallel()
	client := NewHTTPClient(http.DefaultClient)

	if client.UserAgent() != "ratechain/0.1.0" {
		t.Errorf("user agent wrong")
	}
}

func TestHTTPClient_Get(t *testing.T) {
	t.Parallel()

	gzipped := func() []byte {
		var buf bytes.Buffer
		gz := gzip.NewWriter(&buf)
		_, _ = gz.Write([]byte(`{"date":"2024-03-01"}`))
		_ = gz.Close()
		return buf.Bytes()
	}()

	testCases := []struct {
		name     string
		handler  http.HandlerFunc
		expected []byte
		err      error
	}{
		{
			name: "test_plain_body",
			handler: func(w http.ResponseWriter, req *http.Request) {
				if req.Header.Get("User-Agent") != defaultUserAgent {
					w.WriteHeader(http.StatusBadRequest)
					return
				}
				_, _ = w.Write([]byte(`{"date":"2024-03-01"}`))
			},
			expected: []byte(`{"date":"2024-03-01"}`),
		},
		{
			name: "test_gzip_body",
			handler: func(w http.ResponseWriter, req *http.Request) {
				w.Header().Set("Content-Encoding", "gzip")
				_, _ = w.Write(gzipped)
			},
			expected: []byte(`{"date":"2024-03-01"}`),
		},
		{
			name: "test_gzip_content_type",
			handler: func(w http.ResponseWriter, req *http.Request) {
				w.Header().Set("Content-Type", "application/x-gzip")
				_, _ = w.Write(gzipped)
			},
			expected: []byte(`{"date":"2024-03-01"}`),
		},
		{
			name: "test_zip_content_type_read_as_is",
			handler: func(w http.ResponseWriter, req *http.Request) {
				w.Header().Set("Content-Type", "application/zip")
				_, _ = w.Write([]byte(`{"date":"2024-03-01"}`))
			},
			expected: []byte(`{"date":"2024-03-01"}`),
		},
		{
			name: "test_broken_gzip",
			handler: func(w http.ResponseWriter, req *http.Request) {
				w.Header().Set("Content-Encoding", "gzip")
				_, _ = w.Write([]byte(`{"date":"2024-03-01"}`))
			},
			err: gzip.ErrHeader,
		},
		{
			name: "test_status_not_ok",
			handler: func(w http.ResponseWriter, req *http.Request) {
				w.WriteHeader(http.StatusServiceUnavailable)
			},
			err: ErrStatusCode,
		},
	}

	for _, tc := range testCases {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			srv := httptest.NewServer(tc.handler)
			t.Cleanup(srv.Close)

			u, err := url.Parse(srv.URL)
			if err != nil {
				t.Fatalf("url parse: %v", err)
			}

			b, err := NewHTTPClient(srv.Client()).Get(context.Background(), *u)
			if !errors.Is(err, tc.err) {
				t.Fatalf("error mismatch: want %v, got %v", tc.err, err)
			}

			if diff := cmp.Diff(tc.expected, b); diff != "" {
				t.Errorf("mismatch (-want, +got):\n%s", diff)
			}
		})
	}
}
