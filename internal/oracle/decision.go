// Package oracle defines the three-valued decision contract the navigation
// engine consults at branch points, and its LLM-backed implementation.
package oracle

import (
	"context"

	"github.com/dgallion1/matclass/internal/hierarchy"
)

// Kind tags a Decision.
type Kind int

const (
	// Match carries a candidate code chosen by the oracle. The code is raw
	// and may still need canonicalization.
	Match Kind = iota
	// NoMatch is an explicit "none of these fit".
	NoMatch
	// Invalid means the oracle could not produce a usable answer.
	Invalid
)

func (k Kind) String() string {
	switch k {
	case Match:
		return "match"
	case NoMatch:
		return "no_match"
	case Invalid:
		return "invalid"
	}
	return "unknown"
}

// Decision is the outcome of one oracle round-trip.
type Decision struct {
	Kind   Kind
	Code   string
	Reason string
}

func Matched(code string) Decision {
	return Decision{Kind: Match, Code: code}
}

func Declined(reason string) Decision {
	return Decision{Kind: NoMatch, Reason: reason}
}

func Failed(reason string) Decision {
	return Decision{Kind: Invalid, Reason: reason}
}

// Oracle picks one candidate for an item. Implementations must return in
// finite time and report every failure as an Invalid decision.
type Oracle interface {
	Decide(ctx context.Context, item string, candidates []hierarchy.Option) Decision
}

// Func adapts a plain function to Oracle.
type Func func(ctx context.Context, item string, candidates []hierarchy.Option) Decision

func (f Func) Decide(ctx context.Context, item string, candidates []hierarchy.Option) Decision {
	return f(ctx, item, candidates)
}
