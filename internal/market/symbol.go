package market

import (
	"errors"
	"fmt"
	"regexp"
	"strings"
)

// ErrEmptySymbol is returned for blank ticker input.
var ErrEmptySymbol = errors.New("empty symbol")

var validSymbol = regexp.MustCompile(`^[A-Z0-9.]{1,12}$`)

// NormalizeSymbol converts caller input into the form used for cache keys and
// upstream calls: trimmed, uppercase, with class separators written as dots
// (BRK-B becomes BRK.B).
func NormalizeSymbol(symbol string) (string, error) {
	symbol = strings.ToUpper(strings.TrimSpace(symbol))
	if symbol == "" {
		return "", ErrEmptySymbol
	}
	symbol = strings.ReplaceAll(symbol, "-", ".")
	if !validSymbol.MatchString(symbol) {
		return "", fmt.Errorf("invalid symbol format: %q", symbol)
	}
	return symbol, nil
}

// NormalizeSymbols normalizes a batch and drops duplicates, keeping the first
// occurrence order. Invalid entries are skipped.
func NormalizeSymbols(symbols []string) []string {
	seen := make(map[string]bool, len(symbols))
	out := make([]string, 0, len(symbols))
	for _, s := range symbols {
		n, err := NormalizeSymbol(s)
		if err != nil || seen[n] {
			continue
		}
		seen[n] = true
		out = append(out, n)
	}
	return out
}
