package label

import (
	"errors"
	"fmt"
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

var ErrInvalidSymbol = errors.New("currency symbol is not valid")

// Symbol is a currency code folded to upper case, e.g. USD
type Symbol string

const (
	USD Symbol = "USD"
	EUR Symbol = "EUR"
	GBP Symbol = "GBP"
	JPY Symbol = "JPY"
	CAD Symbol = "CAD"
	AUD Symbol = "AUD"
)

// Majors is the set of currencies whose pairs are requested most often
var Majors = map[Symbol]struct{}{
	USD: {}, EUR: {}, GBP: {}, JPY: {}, CAD: {}, AUD: {},
}

// Normalize folds a raw currency code into a Symbol. Codes are accepted in any case,
// surrounding spaces are ignored. Empty codes and codes with characters other than
// ASCII letters and digits are rejected with ErrInvalidSymbol
func Normalize(code string) (Symbol, error) {
	code = strings.TrimSpace(code)
	if code == "" {
		return "", fmt.Errorf("%w: empty code", ErrInvalidSymbol)
	}

	// checked before folding, some non-ASCII letters upper-case to ASCII (ſ to S, ß to SS)
	for _, r := range code {
		if (r < 'A' || r > 'Z') && (r < 'a' || r > 'z') && (r < '0' || r > '9') {
			return "", fmt.Errorf("%w: %q", ErrInvalidSymbol, code)
		}
	}

	return Symbol(cases.Upper(language.Und).String(code)), nil
}

// IsMajor reports whether s belongs to Majors
func (s Symbol) IsMajor() bool {
	_, ok := Majors[s]
	return ok
}

// Lower returns the lower case form used by sources that key their payloads in lower case
func (s Symbol) Lower() string {
	return cases.Lower(language.Und).String(string(s))
}

func (s Symbol) String() string {
	return string(s)
}
