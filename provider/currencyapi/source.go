package currencyapi

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

// BasePlaceholder is substituted with the lower case base code
const BasePlaceholder = "{base}"

const (
	JSDelivrURL = "https://cdn.jsdelivr.net/npm/@fawazahmed0/currency-api@latest/v1/currencies/{base}.json"
	PagesURL    = "https://latest.currency-api.pages.dev/v1/currencies/{base}.json"
)

// DefaultTemplates are the free mirrors in the order they are tried
var DefaultTemplates = []string{JSDelivrURL, PagesURL}

var errTemplateNotValid = errors.New("mirror url template is not valid")

var _ provider.Source = (*source)(nil)

// NewSource returns a mirror source for an URL template containing BasePlaceholder
func NewSource(client *http.Client, template string) (*source, error) {
	if !strings.Contains(template, BasePlaceholder) {
		return nil, fmt.Errorf("%w: %q has no %s", errTemplateNotValid, template, BasePlaceholder)
	}

	u, err := url.Parse(strings.ReplaceAll(template, BasePlaceholder, "usd"))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", errTemplateNotValid, err)
	}

	if u.Scheme == "" || u.Host == "" {
		return nil, fmt.Errorf("%w: %q is not absolute", errTemplateNotValid, template)
	}

	return &source{
		name:             u.Host,
		template:         template,
		SourceHTTPClient: httputil.NewHTTPClient(client),
	}, nil
}

// NewSources builds mirror sources keeping the order of templates
func NewSources(client *http.Client, templates ...string) ([]provider.Source, error) {
	list := make([]provider.Source, 0, len(templates))
	for _, tmpl := range templates {
		s, err := NewSource(client, tmpl)
		if err != nil {
			return nil, err
		}

		list = append(list, s)
	}

	return list, nil
}

type source struct {
	name     string
	template string
	httputil.SourceHTTPClient
}

func (s *source) Name() string {
	return s.name
}

func (s *source) Fetch(ctx context.Context, base label.Symbol) (provider.Payload, error) {
	u, err := s.latestURL(base)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", provider.ErrTransport, err)
	}

	b, err := s.Get(ctx, *u)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %v", provider.ErrTransport, s.name, err)
	}

	p, err := decode(b)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", s.name, err)
	}

	return p, nil
}

func (s *source) latestURL(base label.Symbol) (*url.URL, error) {
	raw := strings.ReplaceAll(s.template, BasePlaceholder, url.PathEscape(base.Lower()))
	u, err := url.Parse(raw)
	if err != nil {
		return nil, fmt.Errorf("url parse: %w", err)
	}

	return u, nil
}
