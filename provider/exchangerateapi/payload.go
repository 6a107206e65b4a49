package exchangerateapi

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/robotomize/ratechain/label"
	"github.com/robotomize/ratechain/provider"
)

const resultError = "error"

var dateLayouts = []string{time.RFC1123Z, time.RFC1123, "2006-01-02"}

var _ provider.Payload = (*Payload)(nil)

// Payload is the decoded v6 "latest" response
type Payload struct {
	Result     string              `json:"result"`
	ErrorType  string              `json:"error-type"`
	LastUpdate string              `json:"time_last_update_utc"`
	BaseCode   string              `json:"base_code"`
	Rates      map[string]*float64 `json:"conversion_rates"`
}

func decode(b []byte) (*Payload, error) {
	var p Payload
	if err := json.Unmarshal(b, &p); err != nil {
		return nil, fmt.Errorf("%w: json decode: %v", provider.ErrInvalidPayload, err)
	}

	return &p, nil
}

// Validate checks the rate map is present and carries a positive target rate
func (p *Payload) Validate(base, target label.Symbol) error {
	_, err := p.check(base, target)
	return err
}

func (p *Payload) Rate(base, target label.Symbol) (float64, error) {
	return p.check(base, target)
}

func (p *Payload) Date() (time.Time, error) {
	if p == nil {
		return time.Time{}, fmt.Errorf("%w: payload is empty", provider.ErrDateFormat)
	}

	raw := strings.TrimSpace(p.LastUpdate)
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, raw); err == nil {
			return t.UTC(), nil
		}
	}

	return time.Time{}, fmt.Errorf("%w: %q", provider.ErrDateFormat, raw)
}

func (p *Payload) check(base, target label.Symbol) (float64, error) {
	if p == nil {
		return 0, fmt.Errorf("%w: payload is empty", provider.ErrInvalidPayload)
	}

	if p.Result == resultError {
		return 0, fmt.Errorf("%w: api error: %s", provider.ErrInvalidPayload, p.ErrorType)
	}

	if p.BaseCode != "" && !strings.EqualFold(p.BaseCode, base.String()) {
		return 0, fmt.Errorf("%w: base %s does not match %s", provider.ErrInvalidPayload, p.BaseCode, base)
	}

	if len(p.Rates) == 0 {
		return 0, fmt.Errorf("%w: conversion rates are missing", provider.ErrInvalidPayload)
	}

	r, ok := p.Rates[target.String()]
	if !ok {
		for k, v := range p.Rates {
			if strings.EqualFold(k, target.String()) {
				r, ok = v, true
				break
			}
		}
	}

	if !ok {
		return 0, fmt.Errorf("%w: target %s not found", provider.ErrInvalidPayload, target)
	}

	if r == nil {
		return 0, fmt.Errorf("%w: rate %s/%s is not a number", provider.ErrInvalidPayload, base, target)
	}

	if *r <= 0 {
		return 0, fmt.Errorf("%w: rate %s/%s is not positive", provider.ErrInvalidPayload, base, target)
	}

	return *r, nil
}
