package exchangerateapi

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"github.com/robotomize/ratechain/label"
	"github.com/robotomize/ratechain/provider"
	"github.com/robotomize/ratechain/provider/httputil"
)

const Name = "exchangerate-api"

const defaultEndpoint = "https://v6.exchangerate-api.com/v6"

var ErrMissingAPIKey = errors.New("exchangerate-api key is not configured")

var _ provider.Source = (*source)(nil)

type Option func(*source)

// WithEndpoint overrides the API root, e.g. for a test server
func WithEndpoint(endpoint string) Option {
	return func(s *source) {
		s.endpoint = strings.TrimRight(endpoint, "/")
	}
}

// NewSource returns the metered secondary source. The key is part of the request path and is
// redacted from every returned error
func NewSource(client *http.Client, apiKey string, opts ...Option) *source {
	s := &source{
		apiKey:           apiKey,
		endpoint:         defaultEndpoint,
		SourceHTTPClient: httputil.NewHTTPClient(client),
	}

	for _, opt := range opts {
		opt(s)
	}

	return s
}

type source struct {
	apiKey   string
	endpoint string
	httputil.SourceHTTPClient
}

func (s *source) Name() string {
	return Name
}

func (s *source) Fetch(ctx context.Context, base label.Symbol) (provider.Payload, error) {
	if s.apiKey == "" {
		return nil, ErrMissingAPIKey
	}

	u, err := url.Parse(s.endpoint + "/" + url.PathEscape(s.apiKey) + "/latest/" + url.PathEscape(base.String()))
	if err != nil {
		return nil, fmt.Errorf("%w: url parse: %s", provider.ErrTransport, s.redact(err))
	}

	b, err := s.Get(ctx, *u)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %s", provider.ErrTransport, Name, s.redact(err))
	}

	p, err := decode(b)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", Name, err)
	}

	return p, nil
}

func (s *source) redact(err error) string {
	return strings.ReplaceAll(err.Error(), s.apiKey, "***")
}
