// Package filter implements the Filter (spec §4.6): an ordered list of
// regex patterns, each carrying a track-or-bypass action, evaluated
// first-match-wins against the textual form of a record.
package filter

import (
	"fmt"
	"regexp"
)

// Action is what a matching pattern does with a record.
type Action int

const (
	// Track sends the record into the Match Engine.
	Track Action = iota
	// Bypass passes the record straight to the Emit Pipeline untracked.
	Bypass
)

func (a Action) String() string {
	switch a {
	case Track:
		return "track"
	case Bypass:
		return "bypass"
	default:
		return "unknown"
	}
}

// Pattern is one (regex, action) rule.
type Pattern struct {
	Expr   string
	Action Action

	re *regexp.Regexp
}

// compiled returns a Pattern with its regexp compiled, or an error
// naming the offending pattern (a fatal configuration error per spec §7).
func compiled(p Pattern) (Pattern, error) {
	re, err := regexp.Compile(p.Expr)
	if err != nil {
		return Pattern{}, fmt.Errorf("filter: bad pattern %q: %w", p.Expr, err)
	}
	p.re = re
	return p, nil
}

// Filter classifies each record as Track or Bypass per spec §4.6: ordered
// patterns, first match wins; absent a match, allow-list semantics apply
// (default Bypass) if any Track pattern is configured, else deny-list
// semantics apply (default Track).
type Filter struct {
	patterns    []Pattern
	defaultWhen Action
}

// New compiles patterns in order. An empty pattern list yields a Filter
// that tracks everything.
func New(patterns []Pattern) (*Filter, error) {
	f := &Filter{defaultWhen: Track}

	hasTrack := false
	compiledPatterns := make([]Pattern, 0, len(patterns))
	for _, p := range patterns {
		cp, err := compiled(p)
		if err != nil {
			return nil, err
		}
		compiledPatterns = append(compiledPatterns, cp)
		if p.Action == Track {
			hasTrack = true
		}
	}

	if hasTrack {
		f.defaultWhen = Bypass
	}
	f.patterns = compiledPatterns
	return f, nil
}

// Classify returns the action for record's textual form, evaluating
// patterns in order and falling back to the configured default when none
// match.
func (f *Filter) Classify(record string) Action {
	for _, p := range f.patterns {
		if p.re.MatchString(record) {
			return p.Action
		}
	}
	return f.defaultWhen
}

// Len reports how many patterns are configured.
func (f *Filter) Len() int { return len(f.patterns) }
