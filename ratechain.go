package ratechain

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/hashicorp/go-hclog"
	"github.com/hashicorp/go-multierror"
	"github.com/robotomize/ratechain/cache"
	"github.com/robotomize/ratechain/cache/memory"
	"github.com/robotomize/ratechain/internal/logging"
	"github.com/robotomize/ratechain/internal/telemetry"
	"github.com/robotomize/ratechain/label"
	"github.com/robotomize/ratechain/provider"
	"github.com/robotomize/ratechain/provider/currencyapi"
	"github.com/robotomize/ratechain/provider/exchangerateapi"
	"github.com/robotomize/ratechain/rate"
	"github.com/sethvargo/go-retry"
)

// ErrInvalidCurrency is returned by Resolve for empty or malformed currency codes
var ErrInvalidCurrency = label.ErrInvalidSymbol

const (
	DefaultRequestTimeout = 10 * time.Second
	DefaultRetryNum       = 0
	DefaultRetryDuration  = 500 * time.Millisecond
)

// RateCache is the best-effort cache consulted by the chain. *cache.Store implements it
type RateCache interface {
	Put(ctx context.Context, e rate.ExchangeRate)
	Get(ctx context.Context, base, target label.Symbol) (rate.ExchangeRate, bool)
}

type Option func(*Resolver)

type Options struct {
	RetryNum          uint64
	RetryDuration     time.Duration
	RequestTimeout    time.Duration
	PreserveCacheTier bool
}

// WithMirrors replaces the primary mirrors. Mirrors are tried strictly in the given order
func WithMirrors(sources ...provider.Source) Option {
	return func(r *Resolver) {
		r.mirrors = sources
	}
}

// WithSecondary sets the metered source used after every mirror failed. nil disables it
func WithSecondary(source provider.Source) Option {
	return func(r *Resolver) {
		r.secondary = source
	}
}

// WithCache sets the cache used as write-through sink and last resort
func WithCache(c RateCache) Option {
	return func(r *Resolver) {
		r.cache = c
	}
}

// WithLogger sets the logger, by default the logger is taken from the context of each call
func WithLogger(logger hclog.Logger) Option {
	return func(r *Resolver) {
		r.logger = logger
	}
}

// WithRetryNum set number of repeated requests for transport errors from a source
func WithRetryNum(n uint64) Option {
	return func(r *Resolver) {
		r.opts.RetryNum = n
	}
}

// WithRetryDuration constant retry backoff, non-positive values are ignored
func WithRetryDuration(t time.Duration) Option {
	return func(r *Resolver) {
		if t > 0 {
			r.opts.RetryDuration = t
		}
	}
}

// WithRequestTimeout set a timeout for each source request, zero disables it
func WithRequestTimeout(t time.Duration) Option {
	return func(r *Resolver) {
		r.opts.RequestTimeout = t
	}
}

// WithPreservedCacheTier returns cache hits exactly as they were stored, keeping the tier and
// reason of the resolution that produced them instead of re-stamping them as rate.TierCache
func WithPreservedCacheTier() Option {
	return func(r *Resolver) {
		r.opts.PreserveCacheTier = true
	}
}

// New return resolver. Without options it uses the public currency-api mirrors, an unconfigured
// secondary source and an in-memory cache
func New(client *http.Client, opts ...Option) *Resolver {
	mirrors, err := currencyapi.NewSources(client, currencyapi.DefaultTemplates...)
	if err != nil {
		panic(fmt.Sprintf("default mirrors: %v", err))
	}

	r := &Resolver{
		opts: Options{
			RetryNum:       DefaultRetryNum,
			RetryDuration:  DefaultRetryDuration,
			RequestTimeout: DefaultRequestTimeout,
		},
		mirrors:   mirrors,
		secondary: exchangerateapi.NewSource(client, ""),
		cache:     cache.NewStore(memory.New(memory.DefaultCleanupInterval)),
	}

	for _, opt := range opts {
		opt(r)
	}

	return r
}

// Resolver resolves exchange rates through the primary mirrors, the secondary source and the
// cache, in that order. It is safe for concurrent use. Concurrent misses for the same pair are
// not merged, each of them reaches the sources
type Resolver struct {
	opts Options

	mirrors   []provider.Source
	secondary provider.Source
	cache     RateCache
	logger    hclog.Logger
}

// Resolve returns the rate of base expressed in target. The error is non-nil only for empty or
// malformed currency codes; every source and cache failure is reported through the tier of the
// result instead
func (r *Resolver) Resolve(ctx context.Context, base, target string) (rate.ExchangeRate, error) {
	from, err := label.Normalize(base)
	if err != nil {
		return rate.ExchangeRate{}, fmt.Errorf("base currency: %w", err)
	}

	to, err := label.Normalize(target)
	if err != nil {
		return rate.ExchangeRate{}, fmt.Errorf("target currency: %w", err)
	}

	logger := r.logger
	if logger == nil {
		logger = logging.FromContext(ctx)
	}
	ctx = logging.WithLogger(ctx, logger.With("base", from, "target", to))

	e := r.resolve(ctx, from, to)
	telemetry.UpdateResolvedCounter(e.Tier.String())

	return e, nil
}

func (r *Resolver) resolve(ctx context.Context, base, target label.Symbol) rate.ExchangeRate {
	logger := logging.FromContext(ctx)

	var (
		failures *multierror.Error
		lastErr  error
	)

	for i, source := range r.mirrors {
		o := r.attempt(ctx, source, base, target)
		if o.kind == outcomeOK {
			logger.Debug("retrieved rate from primary mirror", "mirror", i+1, "source", source.Name())
			return r.store(ctx, rate.Primary(o.quote))
		}

		failures = multierror.Append(failures, o.err)
		lastErr = o.err
		logger.Warn("primary mirror failed, trying next", "mirror", i+1, "source", source.Name(),
			"kind", o.kind, "err", o.err)
	}

	if r.secondary != nil {
		o := r.attempt(ctx, r.secondary, base, target)
		if o.kind == outcomeOK {
			logger.Info("all primary mirrors failed, secondary source used", "source", r.secondary.Name())
			return r.store(ctx, rate.Secondary(o.quote))
		}

		failures = multierror.Append(failures, o.err)
		lastErr = o.err
		logger.Warn("secondary source failed, using cache", "source", r.secondary.Name(),
			"kind", o.kind, "err", o.err)
	}

	if lastErr == nil {
		lastErr = errors.New("no sources configured")
	}

	logger.Debug("source chain exhausted", "failures", failures.ErrorOrNil())

	if r.cache != nil {
		if cached, ok := r.cache.Get(ctx, base, target); ok {
			if r.opts.PreserveCacheTier {
				return cached
			}

			return rate.FromCache(cached)
		}
	}

	logger.Error("all sources failed and no cached rate", "err", lastErr)

	return rate.Terminal(base, target, lastErr)
}

func (r *Resolver) store(ctx context.Context, e rate.ExchangeRate) rate.ExchangeRate {
	if r.cache != nil {
		r.cache.Put(ctx, e)
	}

	return e
}

type outcomeKind byte

const (
	outcomeOK outcomeKind = iota
	outcomeTransportFailure
	outcomeValidationFailure
)

func (k outcomeKind) String() string {
	switch k {
	case outcomeOK:
		return "ok"
	case outcomeTransportFailure:
		return telemetry.FailureTransport
	case outcomeValidationFailure:
		return telemetry.FailureValidation
	default:
		return "unknown"
	}
}

// outcome is the result of one chain link
type outcome struct {
	kind  outcomeKind
	quote rate.Quote
	err   error
}

func failed(source provider.Source, kind outcomeKind, err error) outcome {
	telemetry.UpdateSourceFailureCounter(source.Name(), kind.String())
	return outcome{kind: kind, err: err}
}

func (r *Resolver) attempt(ctx context.Context, source provider.Source, base, target label.Symbol) outcome {
	payload, err := r.fetch(ctx, source, base)
	if err != nil {
		if errors.Is(err, provider.ErrInvalidPayload) {
			return failed(source, outcomeValidationFailure, err)
		}

		return failed(source, outcomeTransportFailure, err)
	}

	if payload == nil {
		return failed(source, outcomeValidationFailure,
			fmt.Errorf("%w: %s returned no payload", provider.ErrInvalidPayload, source.Name()))
	}

	if err := payload.Validate(base, target); err != nil {
		return failed(source, outcomeValidationFailure, fmt.Errorf("%s: %w", source.Name(), err))
	}

	quote, err := extract(ctx, source.Name(), payload, base, target)
	if err != nil {
		return failed(source, outcomeValidationFailure, fmt.Errorf("%s: %w", source.Name(), err))
	}

	return outcome{kind: outcomeOK, quote: quote}
}

// fetch calls the source, only errors wrapping provider.ErrTransport are retried
func (r *Resolver) fetch(ctx context.Context, source provider.Source, base label.Symbol) (provider.Payload, error) {
	var payload provider.Payload

	b := retry.WithMaxRetries(r.opts.RetryNum, retry.NewConstant(r.opts.RetryDuration))
	if err := retry.Do(ctx, b, func(ctx context.Context) error {
		reqCtx := ctx
		if r.opts.RequestTimeout > 0 {
			var cancel context.CancelFunc
			reqCtx, cancel = context.WithTimeout(ctx, r.opts.RequestTimeout)
			defer cancel()
		}

		p, err := source.Fetch(reqCtx, base)
		if err != nil {
			if errors.Is(err, provider.ErrTransport) {
				return retry.RetryableError(err)
			}

			return err
		}

		payload = p

		return nil
	}); err != nil {
		return nil, err
	}

	return payload, nil
}

// extract reads the rate and date of a payload that already passed validation. Rate validates the
// payload once more; an unparsable date is logged and leaves AsOf nil
func extract(ctx context.Context, name string, p provider.Payload, base, target label.Symbol) (rate.Quote, error) {
	r, err := p.Rate(base, target)
	if err != nil {
		return rate.Quote{}, fmt.Errorf("extract rate: %w", err)
	}

	q := rate.Quote{
		Base:   base,
		Target: target,
		Rate:   r,
		Source: name,
	}

	date, err := p.Date()
	if err != nil {
		logging.FromContext(ctx).Warn("invalid date format, rate has no publication date", "source", name, "err", err)
		return q, nil
	}

	q.AsOf = &date

	return q, nil
}
