package helpers

import (
	"context"
	"errors"
	"fmt"
)

// -----------------------------------------------------------------------------
// Error Kinds
// -----------------------------------------------------------------------------

type ErrorKind int

const (
	KindUnknown ErrorKind = iota
	KindInputInvalid
	KindSymbolNotFound
	KindEmptyRange
	KindMalformed
	KindUpstreamUnavailable
	KindSharedStoreDegraded
)

func (k ErrorKind) String() string {
	switch k {
	case KindInputInvalid:
		return "InputInvalid"
	case KindSymbolNotFound:
		return "SymbolNotFound"
	case KindEmptyRange:
		return "EmptyRange"
	case KindMalformed:
		return "Malformed"
	case KindUpstreamUnavailable:
		return "UpstreamUnavailable"
	case KindSharedStoreDegraded:
		return "SharedStoreDegraded"
	default:
		return "Unknown"
	}
}

// -----------------------------------------------------------------------------
// Custom Error Type
// -----------------------------------------------------------------------------

type MarketDataError struct {
	Kind    ErrorKind
	Symbol  string
	Message string
	Cause   error
}

func (e *MarketDataError) Error() string {
	msg := e.Message
	if e.Symbol != "" {
		msg = fmt.Sprintf("%s: %s", e.Symbol, msg)
	}
	if e.Cause != nil {
		return fmt.Sprintf("%s: %v", msg, e.Cause)
	}
	return msg
}

func (e *MarketDataError) Unwrap() error {
	return e.Cause
}

// -----------------------------------------------------------------------------

func NewInputInvalid(symbol string, cause error) error {
	return &MarketDataError{Kind: KindInputInvalid, Symbol: symbol, Message: "invalid input", Cause: cause}
}

func NewSymbolNotFound(symbol string) error {
	return &MarketDataError{Kind: KindSymbolNotFound, Symbol: symbol, Message: "symbol not found"}
}

func NewEmptyRange(symbol string, period string) error {
	return &MarketDataError{Kind: KindEmptyRange, Symbol: symbol, Message: fmt.Sprintf("no data for period %s", period)}
}

func NewMalformed(symbol string, cause error) error {
	return &MarketDataError{Kind: KindMalformed, Symbol: symbol, Message: "malformed upstream response", Cause: cause}
}

func NewUpstreamUnavailable(symbol string, cause error) error {
	return &MarketDataError{Kind: KindUpstreamUnavailable, Symbol: symbol, Message: "upstream unavailable", Cause: cause}
}

func NewSharedStoreDegraded(op string, cause error) error {
	return &MarketDataError{Kind: KindSharedStoreDegraded, Message: fmt.Sprintf("shared store %s failed", op), Cause: cause}
}

// -----------------------------------------------------------------------------

// KindOf classifies any error. Context deadline and cancellation count as
// UpstreamUnavailable since they only happen on the slow path.
func KindOf(err error) ErrorKind {
	if err == nil {
		return KindUnknown
	}
	var mde *MarketDataError
	if errors.As(err, &mde) {
		return mde.Kind
	}
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
		return KindUpstreamUnavailable
	}
	return KindUnknown
}

// IsNotFound reports SymbolNotFound or EmptyRange.
func IsNotFound(err error) bool {
	k := KindOf(err)
	return k == KindSymbolNotFound || k == KindEmptyRange
}

// ShortMessage drops the cause chain, for client-facing diagnostics.
func ShortMessage(err error) string {
	var mde *MarketDataError
	if errors.As(err, &mde) {
		if mde.Kind == KindInputInvalid && mde.Cause != nil {
			return mde.Cause.Error()
		}
		if mde.Symbol != "" {
			return fmt.Sprintf("%s: %s", mde.Symbol, mde.Message)
		}
		return mde.Message
	}
	return err.Error()
}
