package currencyapi

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/robotomize/ratechain/label"
	"github.com/robotomize/ratechain/provider"
)

const (
	dateField  = "date"
	dateLayout = "2006-01-02"
)

var _ provider.Payload = (*Payload)(nil)

// Payload is the decoded mirror response:
//
//	{"date": "2024-03-01", "usd": {"eur": 0.92, "gbp": 0.79}}
//
// Top level keys are folded to lower case, the base object is decoded lazily
type Payload struct {
	fields map[string]json.RawMessage
}

func decode(b []byte) (*Payload, error) {
	b = bytes.TrimSpace(b)
	if len(b) == 0 {
		return &Payload{}, nil
	}

	var raw map[string]json.RawMessage
	if err := json.Unmarshal(b, &raw); err != nil {
		return nil, fmt.Errorf("%w: json decode: %v", provider.ErrInvalidPayload, err)
	}

	fields := make(map[string]json.RawMessage, len(raw))
	for k, v := range raw {
		fields[strings.ToLower(k)] = v
	}

	return &Payload{fields: fields}, nil
}

// Validate rejects an empty payload, a missing or empty date, an absent or empty base object and a
// target entry that is absent or not a positive number
func (p *Payload) Validate(base, target label.Symbol) error {
	_, err := p.check(base, target)
	return err
}

func (p *Payload) Rate(base, target label.Symbol) (float64, error) {
	return p.check(base, target)
}

func (p *Payload) Date() (time.Time, error) {
	date := p.date()
	t, err := time.Parse(dateLayout, date)
	if err != nil {
		return time.Time{}, fmt.Errorf("%w: %q: %v", provider.ErrDateFormat, date, err)
	}

	return t, nil
}

func (p *Payload) date() string {
	if p == nil {
		return ""
	}

	var date string
	if err := json.Unmarshal(p.fields[dateField], &date); err != nil {
		return ""
	}

	return strings.TrimSpace(date)
}

func (p *Payload) check(base, target label.Symbol) (float64, error) {
	if p == nil || len(p.fields) == 0 {
		return 0, fmt.Errorf("%w: payload is empty", provider.ErrInvalidPayload)
	}

	if p.date() == "" {
		return 0, fmt.Errorf("%w: date is missing", provider.ErrInvalidPayload)
	}

	var rates map[string]json.RawMessage
	if err := json.Unmarshal(p.fields[base.Lower()], &rates); err != nil || len(rates) == 0 {
		return 0, fmt.Errorf("%w: no rates for %s", provider.ErrInvalidPayload, base)
	}

	var entry json.RawMessage
	for k, v := range rates {
		if strings.EqualFold(k, target.Lower()) {
			entry = v
			break
		}
	}

	if entry == nil {
		return 0, fmt.Errorf("%w: target %s not found", provider.ErrInvalidPayload, target)
	}

	// null unmarshals into a nil pointer without error
	var r *float64
	if err := json.Unmarshal(entry, &r); err != nil || r == nil {
		return 0, fmt.Errorf("%w: rate %s/%s is not a number", provider.ErrInvalidPayload, base, target)
	}

	if *r <= 0 {
		return 0, fmt.Errorf("%w: rate %s/%s is not positive", provider.ErrInvalidPayload, base, target)
	}

	return *r, nil
}
