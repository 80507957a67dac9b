// Package filter applies client-side matching that the Graph query language
// cannot express: keyword search across subject and body with configurable
// scope and case sensitivity, plus an early-termination signal once enough
// matches have been emitted.
//
// Messages are evaluated in server-delivered order and never re-sorted.
package filter

import (
	"errors"
	"fmt"
	"regexp"
	"strings"

	"github.com/swaanand-ops/outlook-mail-reader/internal/graph"
)

// ErrInvalidCriteria reports contradictory or out-of-range filter criteria.
var ErrInvalidCriteria = errors.New("filter: invalid criteria")

// Scope selects which message parts the keyword is matched against.
type Scope int

const (
	// ScopeBoth matches against subject and body.
	ScopeBoth Scope = iota
	// ScopeSubject matches against the subject only.
	ScopeSubject
	// ScopeBody matches against the body preview and, when fetched, the
	// full body.
	ScopeBody
)

func (s Scope) String() string {
	switch s {
	case ScopeBoth:
		return "both"
	case ScopeSubject:
		return "subject"
	case ScopeBody:
		return "body"
	}
	return "unknown"
}

// ParseScope maps the two caller-facing toggles onto the scope enum.
// Disabling both is contradictory and rejected here, in the engine, rather
// than trusted to external callers.
func ParseScope(inSubject, inBody bool) (Scope, error) {
	switch {
	case inSubject && inBody:
		return ScopeBoth, nil
	case inSubject:
		return ScopeSubject, nil
	case inBody:
		return ScopeBody, nil
	}
	return 0, fmt.Errorf("%w: at least one of subject and body search must be enabled", ErrInvalidCriteria)
}

// Criteria is one immutable set of search criteria.
type Criteria struct {
	// Sender restricts results to an exact address, matched
	// case-insensitively. Empty means the whole mailbox is in scope.
	Sender string

	// Keyword is the substring to search for. Empty means every message
	// passes.
	Keyword string

	// Regex treats Keyword as a regular expression instead of a plain
	// substring.
	Regex bool

	Scope         Scope
	CaseSensitive bool

	// MaxItems bounds the number of emitted matches.
	MaxItems int
}

// Validate checks the criteria for consistency.
func (c Criteria) Validate() error {
	if c.MaxItems < 1 {
		return fmt.Errorf("%w: max items must be at least 1, got %d", ErrInvalidCriteria, c.MaxItems)
	}
	switch c.Scope {
	case ScopeBoth, ScopeSubject, ScopeBody:
	default:
		return fmt.Errorf("%w: unknown scope %d", ErrInvalidCriteria, int(c.Scope))
	}
	return nil
}

// MatchesSender reports whether the message came from the given address.
// The comparison is a case-insensitive exact-address match, never a
// substring test. An empty address matches everything.
func MatchesSender(m *graph.Message, address string) bool {
	if address == "" {
		return true
	}
	return strings.EqualFold(m.SenderAddress(), address)
}

// Engine evaluates messages against one set of criteria, counting matches
// so the retrieval layer can stop paging early.
type Engine struct {
	crit    Criteria
	keyword string
	re      *regexp.Regexp
	matched int
}

// NewEngine validates the criteria and builds an engine for one search.
// A regex keyword is compiled once here; an unparsable pattern is an
// invalid-criteria error, not a silent non-match.
func NewEngine(crit Criteria) (*Engine, error) {
	if err := crit.Validate(); err != nil {
		return nil, err
	}
	if crit.Regex && crit.Keyword != "" {
		pattern := crit.Keyword
		if !crit.CaseSensitive {
			pattern = "(?i)" + pattern
		}
		re, err := regexp.Compile(pattern)
		if err != nil {
			return nil, fmt.Errorf("%w: bad keyword pattern: %v", ErrInvalidCriteria, err)
		}
		return &Engine{crit: crit, re: re}, nil
	}
	keyword := crit.Keyword
	if !crit.CaseSensitive {
		keyword = strings.ToLower(keyword)
	}
	return &Engine{crit: crit, keyword: keyword}, nil
}

// Matches evaluates one message and records the match. Once the emitted
// count reaches MaxItems, Done reports true and callers should stop
// consuming pages.
func (e *Engine) Matches(m *graph.Message) bool {
	if !e.matches(m) {
		return false
	}
	e.matched++
	return true
}

// Done reports whether enough matches have been emitted.
func (e *Engine) Done() bool {
	return e.matched >= e.crit.MaxItems
}

// Matched returns the number of matches emitted so far.
func (e *Engine) Matched() int {
	return e.matched
}

func (e *Engine) matches(m *graph.Message) bool {
	if e.crit.Keyword == "" {
		return true
	}
	if e.crit.Scope != ScopeBody && e.contains(m.Subject) {
		return true
	}
	if e.crit.Scope != ScopeSubject {
		if e.contains(m.BodyPreview) {
			return true
		}
		if body := m.BodyContent(); body != "" && e.contains(body) {
			return true
		}
	}
	return false
}

func (e *Engine) contains(target string) bool {
	if e.re != nil {
		return e.re.MatchString(target)
	}
	if !e.crit.CaseSensitive {
		target = strings.ToLower(target)
	}
	return strings.Contains(target, e.keyword)
}
