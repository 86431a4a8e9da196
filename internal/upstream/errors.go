package upstream

import (
	"errors"
	"fmt"
)

// Kind classifies upstream failures.
type Kind string

const (
	KindNetwork   Kind = "network"
	KindRateLimit Kind = "rate_limit"
	KindProvider  Kind = "provider_error"
	KindBadSymbol Kind = "bad_symbol"
	KindDecode    Kind = "decode"
)

// Error is a failed upstream attempt. Every kind is transient from the
// gateway's point of view: the request is retried and then falls back.
type Error struct {
	Kind     Kind
	Function string
	Symbol   string
	Message  string
	Cause    error
}

func (e *Error) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s error for %s %s: %s (%v)", e.Kind, e.Function, e.Symbol, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s error for %s %s: %s", e.Kind, e.Function, e.Symbol, e.Message)
}

func (e *Error) Unwrap() error { return e.Cause }

// KindOf returns the kind of an upstream error, or "" for other errors.
func KindOf(err error) Kind {
	var ue *Error
	if errors.As(err, &ue) {
		return ue.Kind
	}
	return ""
}

// Common error constructors
func NewNetworkError(fn, symbol, message string, cause error) *Error {
	return &Error{Kind: KindNetwork, Function: fn, Symbol: symbol, Message: message, Cause: cause}
}

func NewRateLimitError(fn, symbol, message string) *Error {
	return &Error{Kind: KindRateLimit, Function: fn, Symbol: symbol, Message: message}
}

func NewProviderError(fn, symbol, message string, cause error) *Error {
	return &Error{Kind: KindProvider, Function: fn, Symbol: symbol, Message: message, Cause: cause}
}

func NewBadSymbolError(fn, symbol, message string) *Error {
	return &Error{Kind: KindBadSymbol, Function: fn, Symbol: symbol, Message: message}
}

func NewDecodeError(fn, symbol string, cause error) *Error {
	return &Error{Kind: KindDecode, Function: fn, Symbol: symbol, Message: "failed to parse response", Cause: cause}
}
