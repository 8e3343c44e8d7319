package domain

import (
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/google/uuid"
)

// PatternKind defines how a pattern matches its scope field.
//
// keyword  - case-insensitive substring
// regex    - Go RE2 expression, evaluated as written
// wildcard - "*" and "?" glob, translated to an anchored case-insensitive regex
type PatternKind uint8

const (
	PatternKeyword PatternKind = iota
	PatternRegex
	PatternWildcard
)

func (k PatternKind) String() string {
	switch k {
	case PatternKeyword:
		return "keyword"
	case PatternRegex:
		return "regex"
	case PatternWildcard:
		return "wildcard"
	default:
		return fmt.Sprintf("PatternKind(%d)", k)
	}
}

// ParsePatternKind accepts "keyword", "regex", "wildcard" (case-insensitive).
func ParsePatternKind(s string) (PatternKind, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "keyword":
		return PatternKeyword, nil
	case "regex":
		return PatternRegex, nil
	case "wildcard":
		return PatternWildcard, nil
	default:
		return 0, fmt.Errorf("unsupported pattern kind: %q", s)
	}
}

func (k PatternKind) MarshalText() ([]byte, error) { return []byte(k.String()), nil }

func (k *PatternKind) UnmarshalText(b []byte) error {
	v, err := ParsePatternKind(string(b))
	if err != nil {
		return err
	}
	*k = v
	return nil
}

// Scope selects the content field a pattern is evaluated against.
type Scope uint8

const (
	ScopeTitle Scope = iota
	ScopeChannel
	ScopeDescription
	ScopeTags
)

func (s Scope) String() string {
	switch s {
	case ScopeTitle:
		return "title"
	case ScopeChannel:
		return "channel"
	case ScopeDescription:
		return "description"
	case ScopeTags:
		return "tags"
	default:
		return fmt.Sprintf("Scope(%d)", s)
	}
}

func ParseScope(s string) (Scope, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "title":
		return ScopeTitle, nil
	case "channel", "channelname":
		return ScopeChannel, nil
	case "description":
		return ScopeDescription, nil
	case "tags":
		return ScopeTags, nil
	default:
		return 0, fmt.Errorf("unsupported scope: %q", s)
	}
}

func (s Scope) MarshalText() ([]byte, error) { return []byte(s.String()), nil }

func (s *Scope) UnmarshalText(b []byte) error {
	v, err := ParseScope(string(b))
	if err != nil {
		return err
	}
	*s = v
	return nil
}

// Severity orders patterns for the block threshold; higher is more severe.
type Severity uint8

const (
	SeverityLow Severity = iota
	SeverityMedium
	SeverityHigh
	SeverityCritical
)

func (s Severity) String() string {
	switch s {
	case SeverityLow:
		return "low"
	case SeverityMedium:
		return "medium"
	case SeverityHigh:
		return "high"
	case SeverityCritical:
		return "critical"
	default:
		return fmt.Sprintf("Severity(%d)", s)
	}
}

func ParseSeverity(s string) (Severity, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "low":
		return SeverityLow, nil
	case "medium":
		return SeverityMedium, nil
	case "high":
		return SeverityHigh, nil
	case "critical":
		return SeverityCritical, nil
	default:
		return 0, fmt.Errorf("unsupported severity: %q", s)
	}
}

func (s Severity) MarshalText() ([]byte, error) { return []byte(s.String()), nil }

func (s *Severity) UnmarshalText(b []byte) error {
	v, err := ParseSeverity(string(b))
	if err != nil {
		return err
	}
	*s = v
	return nil
}

// Pattern is a rule matching content by keyword, wildcard or regex against
// one field. Lower Priority values take precedence (0 is highest).
//
// Expression holds the regex actually evaluated for regex and wildcard
// patterns; it is derived at construction and stored alongside Pattern.
type Pattern struct {
	ID            string      `json:"id"`
	Pattern       string      `json:"pattern"`
	Expression    string      `json:"expression,omitempty"`
	Scope         Scope       `json:"scope"`
	Kind          PatternKind `json:"kind"`
	IsActive      bool        `json:"isActive"`
	Priority      int         `json:"priority"`
	CategoryID    string      `json:"categoryId,omitempty"`
	Severity      Severity    `json:"severity"`
	MatchCount    uint64      `json:"matchCount"`
	LastMatchedAt *time.Time  `json:"lastMatchedAt,omitempty"`
	ExpiresAt     *time.Time  `json:"expiresAt,omitempty"`
	CreatedAt     time.Time   `json:"createdAt"`
	UpdatedAt     time.Time   `json:"updatedAt"`
}

// NewPattern constructs a Pattern with a fresh id, derives its expression and
// validates it. A regex that does not compile is rejected.
func NewPattern(pattern string, scope Scope, kind PatternKind, priority int, severity Severity, categoryID string, now time.Time) (Pattern, error) {
	p := Pattern{
		ID:         uuid.NewString(),
		Pattern:    pattern,
		Scope:      scope,
		Kind:       kind,
		IsActive:   true,
		Priority:   priority,
		CategoryID: categoryID,
		Severity:   severity,
		CreatedAt:  now,
		UpdatedAt:  now,
	}
	if err := p.Prepare(); err != nil {
		return Pattern{}, err
	}
	return p, nil
}

// Prepare trims Pattern and CategoryID, derives Expression from Pattern
// and Kind, then validates. Call it after any edit.
func (p *Pattern) Prepare() error {
	p.Pattern = strings.TrimSpace(p.Pattern)
	p.CategoryID = strings.TrimSpace(p.CategoryID)
	switch p.Kind {
	case PatternWildcard:
		p.Expression = WildcardToRegex(p.Pattern)
	case PatternRegex:
		p.Expression = p.Pattern
	default:
		p.Expression = ""
	}
	return p.Validate()
}

// Validate checks required fields, supported values, and that the
// expression compiles.
func (p Pattern) Validate() error {
	verr := &ValidationError{}
	if p.Pattern == "" {
		verr.Add("pattern", "must not be empty")
	}
	if p.Scope > ScopeTags {
		verr.Add("scope", "must be one of title, channel, description, tags")
	}
	if p.Kind > PatternWildcard {
		verr.Add("kind", "must be one of keyword, regex, wildcard")
	}
	if p.Severity > SeverityCritical {
		verr.Add("severity", "must be one of low, medium, high, critical")
	}
	if p.Priority < 0 {
		verr.Add("priority", "must not be negative")
	}
	if p.CreatedAt.IsZero() {
		verr.Add("createdAt", "must be set")
	}
	if p.Pattern != "" && (p.Kind == PatternRegex || p.Kind == PatternWildcard) {
		if _, err := regexp.Compile(p.Expression); err != nil {
			verr.Add("pattern", fmt.Sprintf("invalid %s: %v", p.Kind, err))
		}
	}
	return verr.OrNil()
}

// IsExpired reports whether the pattern has an expiry at or before now.
func (p Pattern) IsExpired(now time.Time) bool {
	return p.ExpiresAt != nil && !now.Before(*p.ExpiresAt)
}

// WildcardToRegex translates a glob into an anchored, case-insensitive
// regex: "*" becomes ".*", "?" becomes ".", everything else is literal.
func WildcardToRegex(glob string) string {
	var b strings.Builder
	b.WriteString("(?is)^")
	for _, r := range glob {
		switch r {
		case '*':
			b.WriteString(".*")
		case '?':
			b.WriteString(".")
		default:
			b.WriteString(regexp.QuoteMeta(string(r)))
		}
	}
	b.WriteString("$")
	return b.String()
}

// MatchStat is an accumulated match-statistics delta for one pattern.
type MatchStat struct {
	Count         uint64
	LastMatchedAt time.Time
}
