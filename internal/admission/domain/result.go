package domain

import (
	"encoding/json"
	"fmt"
	"time"
)

// MatchKind names the source of an admission decision.
type MatchKind uint8

const (
	MatchNone MatchKind = iota
	MatchIdentifierBlacklist
	MatchIdentifierWhitelist
	MatchPattern
)

func (k MatchKind) String() string {
	switch k {
	case MatchNone:
		return "none"
	case MatchIdentifierBlacklist:
		return "identifier-blacklist"
	case MatchIdentifierWhitelist:
		return "identifier-whitelist"
	case MatchPattern:
		return "pattern"
	default:
		return fmt.Sprintf("MatchKind(%d)", k)
	}
}

// MatchSource is the tagged variant describing what produced a decision.
// Each case carries only the fields relevant to it.
type MatchSource interface {
	Kind() MatchKind
}

// NoMatch: nothing matched; content is allowed by default.
type NoMatch struct{}

// IdentifierBlacklistMatch: the exact identifier is on the blacklist.
type IdentifierBlacklistMatch struct{}

// IdentifierWhitelistMatch: the exact identifier is on the whitelist.
type IdentifierWhitelistMatch struct{}

// PatternMatch: a pattern won the priority contest.
type PatternMatch struct {
	RuleID      string
	CategoryID  string
	PatternKind PatternKind
	Severity    Severity
}

func (NoMatch) Kind() MatchKind                  { return MatchNone }
func (IdentifierBlacklistMatch) Kind() MatchKind { return MatchIdentifierBlacklist }
func (IdentifierWhitelistMatch) Kind() MatchKind { return MatchIdentifierWhitelist }
func (PatternMatch) Kind() MatchKind             { return MatchPattern }

// FilterResult is the admission decision for one content item.
// At most one of Blocked and Whitelisted is true; Allowed = Whitelisted || !Blocked.
type FilterResult struct {
	Allowed      bool
	Blocked      bool
	Whitelisted  bool
	MatchedBy    MatchSource
	Confidence   float64
	Cached       bool
	ResponseTime time.Duration
}

// MatchKind returns the kind of the match source, treating nil as none.
func (r FilterResult) MatchKind() MatchKind {
	if r.MatchedBy == nil {
		return MatchNone
	}
	return r.MatchedBy.Kind()
}

// MatchedRuleID returns the winning pattern id, or "" for non-pattern decisions.
func (r FilterResult) MatchedRuleID() string {
	if pm, ok := r.MatchedBy.(PatternMatch); ok {
		return pm.RuleID
	}
	return ""
}

// AllowedResult is the default decision: nothing matched.
func AllowedResult() FilterResult {
	return FilterResult{Allowed: true, MatchedBy: NoMatch{}, Confidence: 1.0}
}

// FailOpenResult is returned when evaluation fails internally: not blocked,
// not whitelisted, with zero confidence so operators can spot it.
func FailOpenResult() FilterResult {
	return FilterResult{Allowed: true, MatchedBy: NoMatch{}, Confidence: 0}
}

type filterResultJSON struct {
	Allowed        bool    `json:"allowed"`
	Blocked        bool    `json:"blocked"`
	Whitelisted    bool    `json:"whitelisted"`
	MatchedBy      string  `json:"matchedBy"`
	MatchedRuleID  string  `json:"matchedRuleId,omitempty"`
	CategoryID     string  `json:"categoryId,omitempty"`
	Confidence     float64 `json:"confidence"`
	Cached         bool    `json:"cached"`
	ResponseTimeMs float64 `json:"responseTimeMs"`
}

// MarshalJSON flattens the variant into the wire shape.
func (r FilterResult) MarshalJSON() ([]byte, error) {
	out := filterResultJSON{
		Allowed:        r.Allowed,
		Blocked:        r.Blocked,
		Whitelisted:    r.Whitelisted,
		MatchedBy:      r.MatchKind().String(),
		Confidence:     r.Confidence,
		Cached:         r.Cached,
		ResponseTimeMs: float64(r.ResponseTime) / float64(time.Millisecond),
	}
	if pm, ok := r.MatchedBy.(PatternMatch); ok {
		out.MatchedRuleID = pm.RuleID
		out.CategoryID = pm.CategoryID
	}
	return json.Marshal(out)
}
