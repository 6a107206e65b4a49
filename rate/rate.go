package rate

import (
	"fmt"
	"time"

	"github.com/robotomize/ratechain/label"
)

// Tier records which stage of the chain produced an ExchangeRate
type Tier int

const (
	TierPrimary Tier = iota
	TierSecondary
	TierCache
	TierTerminal
)

const (
	ReasonPrimary   = "primary source success"
	ReasonSecondary = "secondary source used"
	ReasonCache     = "served from cache"
	reasonTerminal  = "all sources failed"
)

func (t Tier) String() string {
	switch t {
	case TierPrimary:
		return "primary"
	case TierSecondary:
		return "secondary"
	case TierCache:
		return "cache"
	case TierTerminal:
		return "terminal"
	default:
		return fmt.Sprintf("tier(%d)", int(t))
	}
}

// ExchangeRate is the resolved rate of an ordered currency pair. Rate is zero and meaningless
// when Tier is TierTerminal
type ExchangeRate struct {
	Base   label.Symbol `json:"base_currency"`
	Target label.Symbol `json:"target_currency"`
	Rate   float64      `json:"rate"`
	AsOf   *time.Time   `json:"as_of"`
	Tier   Tier         `json:"fallback_tier"`
	Reason string       `json:"fallback_reason"`
	Source string       `json:"source,omitempty"`
}

// OK reports whether Rate can be trusted
func (e ExchangeRate) OK() bool {
	return e.Tier < TierTerminal
}

func (e ExchangeRate) String() string {
	return fmt.Sprintf(
		"Base: %s, Target: %s, Rate: %f, Tier: %s, Reason: %s",
		e.Base,
		e.Target,
		e.Rate,
		e.Tier,
		e.Reason,
	)
}

// Quote is a rate extracted from a validated source payload
type Quote struct {
	Base   label.Symbol
	Target label.Symbol
	Rate   float64
	AsOf   *time.Time
	Source string
}

func Primary(q Quote) ExchangeRate {
	return fromQuote(q, TierPrimary, ReasonPrimary)
}

func Secondary(q Quote) ExchangeRate {
	return fromQuote(q, TierSecondary, ReasonSecondary)
}

// FromCache re-stamps a cached entry as served from cache. Rate, date, codes and source are kept
func FromCache(cached ExchangeRate) ExchangeRate {
	e := cached
	e.AsOf = copyTime(cached.AsOf)
	e.Tier = TierCache
	e.Reason = ReasonCache

	return e
}

// Terminal is the envelope returned when every source and the cache are exhausted
func Terminal(base, target label.Symbol, lastErr error) ExchangeRate {
	reason := reasonTerminal
	if lastErr != nil {
		reason = fmt.Sprintf("%s: %v", reasonTerminal, lastErr)
	}

	return ExchangeRate{
		Base:   base,
		Target: target,
		Rate:   0,
		AsOf:   nil,
		Tier:   TierTerminal,
		Reason: reason,
	}
}

func fromQuote(q Quote, tier Tier, reason string) ExchangeRate {
	return ExchangeRate{
		Base:   q.Base,
		Target: q.Target,
		Rate:   q.Rate,
		AsOf:   copyTime(q.AsOf),
		Tier:   tier,
		Reason: reason,
		Source: q.Source,
	}
}

func copyTime(t *time.Time) *time.Time {
	if t == nil {
		return nil
	}

	c := *t
	return &c
}
