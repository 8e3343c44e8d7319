package domain

import (
	"errors"
	"regexp"
	"testing"
	"time"
)

func TestWildcardToRegex_Anchored(t *testing.T) {
	re := regexp.MustCompile(WildcardToRegex("ads*"))
	cases := []struct {
		in   string
		want bool
	}{
		{"ads placement", true},
		{"ads", true},
		{"ADS everywhere", true},
		{"myads", false},
		{"free ads here", false},
	}
	for _, tc := range cases {
		if got := re.MatchString(tc.in); got != tc.want {
			t.Errorf("ads* on %q = %v, want %v", tc.in, got, tc.want)
		}
	}
}

func TestWildcardToRegex_QuestionAndLiterals(t *testing.T) {
	re := regexp.MustCompile(WildcardToRegex("v?.(1)*"))
	if !re.MatchString("v2.(1) final") {
		t.Error("expected ? to match one char and parentheses/dots to be literal")
	}
	if re.MatchString("v22.(1)") {
		t.Error("? must match exactly one char")
	}
	if re.MatchString("v2x(1)") {
		t.Error(". must be literal")
	}
}

func TestNewPattern_Valid(t *testing.T) {
	now := time.Now()
	p, err := NewPattern("  spam  ", ScopeTitle, PatternKeyword, 0, SeverityMedium, "", now)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if p.ID == "" || p.Pattern != "spam" || !p.IsActive || p.Expression != "" {
		t.Fatalf("unexpected pattern: %+v", p)
	}

	w, err := NewPattern("ads*", ScopeTitle, PatternWildcard, 1, SeverityLow, "cat", now)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if w.Expression != WildcardToRegex("ads*") {
		t.Fatalf("wildcard expression not cached: %q", w.Expression)
	}
}

func TestNewPattern_InvalidRegexRejected(t *testing.T) {
	_, err := NewPattern("(unclosed", ScopeTitle, PatternRegex, 0, SeverityLow, "", time.Now())
	if err == nil {
		t.Fatal("expected invalid regex to be rejected")
	}
	if !errors.Is(err, ErrValidation) {
		t.Fatalf("expected ErrValidation, got %v", err)
	}
	var verr *ValidationError
	if !errors.As(err, &verr) || verr.Fields[0].Field != "pattern" {
		t.Fatalf("expected field-level detail on pattern, got %v", err)
	}
}

func TestPattern_ValidateFields(t *testing.T) {
	p := Pattern{Kind: PatternKind(7), Scope: Scope(9), Severity: Severity(5), Priority: -1}
	err := p.Validate()
	var verr *ValidationError
	if !errors.As(err, &verr) {
		t.Fatalf("expected ValidationError, got %v", err)
	}
	if len(verr.Fields) != 6 {
		t.Fatalf("expected 6 field errors, got %d: %v", len(verr.Fields), verr)
	}
}

func TestPattern_IsExpired(t *testing.T) {
	now := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	p := Pattern{}
	if p.IsExpired(now) {
		t.Fatal("pattern without expiry must not be expired")
	}
	later := now.Add(time.Hour)
	p.ExpiresAt = &later
	if p.IsExpired(now) {
		t.Fatal("pattern expiring later must not be expired")
	}
	if !p.IsExpired(later) {
		t.Fatal("pattern must be expired at its expiry")
	}
}
