package rate

import (
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/robotomize/ratechain/label"
)

func TestEnvelopes(t *testing.T) {
	t.Parallel()

	asOf := time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)
	quote := Quote{Base: label.USD, Target: label.EUR, Rate: 0.92, AsOf: &asOf, Source: "cdn.jsdelivr.net"}

	testCases := []struct {
		name     string
		result   ExchangeRate
		expected ExchangeRate
	}{
		{
			name:   "test_primary",
			result: Primary(quote),
			expected: ExchangeRate{
				Base: label.USD, Target: label.EUR, Rate: 0.92, AsOf: &asOf,
				Tier: TierPrimary, Reason: ReasonPrimary, Source: "cdn.jsdelivr.net",
			},
		},
		{
			name:   "test_secondary",
			result: Secondary(quote),
			expected: ExchangeRate{
				Base: label.USD, Target: label.EUR, Rate: 0.92, AsOf: &asOf,
				Tier: TierSecondary, Reason: ReasonSecondary, Source: "cdn.jsdelivr.net",
			},
		},
		{
			name:   "test_from_cache",
			result: FromCache(Secondary(quote)),
			expected: ExchangeRate{
				Base: label.USD, Target: label.EUR, Rate: 0.92, AsOf: &asOf,
				Tier: TierCache, Reason: ReasonCache, Source: "cdn.jsdelivr.net",
			},
		},
		{
			name:   "test_terminal_without_error",
			result: Terminal(label.USD, label.EUR, nil),
			expected: ExchangeRate{
				Base: label.USD, Target: label.EUR, Tier: TierTerminal, Reason: "all sources failed",
			},
		},
	}

	for _, tc := range testCases {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			if diff := cmp.Diff(tc.expected, tc.result); diff != "" {
				t.Errorf("mismatch (-want, +got):\n%s", diff)
			}
		})
	}
}

func TestTerminal(t *testing.T) {
	t.Parallel()

	e := Terminal(label.USD, label.EUR, errors.New("secondary timed out"))

	if e.OK() {
		t.Errorf("terminal envelope must not be OK")
	}

	if e.Rate != 0 || e.AsOf != nil {
		t.Errorf("terminal envelope must carry zero rate and nil date: %s", e)
	}

	if !strings.Contains(e.Reason, "secondary timed out") {
		t.Errorf("reason does not carry last error: %q", e.Reason)
	}
}

func TestEnvelopes_IndependentDate(t *testing.T) {
	t.Parallel()

	asOf := time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)
	e := Primary(Quote{Base: label.USD, Target: label.EUR, Rate: 0.92, AsOf: &asOf})

	asOf = asOf.AddDate(1, 0, 0)

	if e.AsOf.Year() != 2024 {
		t.Errorf("envelope shares date with quote")
	}
}

func TestTier_String(t *testing.T) {
	t.Parallel()

	for tier, expected := range map[Tier]string{
		TierPrimary:   "primary",
		TierSecondary: "secondary",
		TierCache:     "cache",
		TierTerminal:  "terminal",
		Tier(7):       "tier(7)",
	} {
		if diff := cmp.Diff(expected, tier.String()); diff != "" {
			t.Errorf("mismatch (-want, +got):\n%s", diff)
		}
	}
}
