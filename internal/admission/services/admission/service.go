// Package admission produces one FilterResult per content item by combining
// the exact-identifier lists, the pattern engine and the decision cache.
//
// Evaluate is safe for concurrent use and never fails: any internal error
// degrades to "not blocked, not whitelisted" and is logged.
package admission

import (
	"sync"
	"time"

	"github.com/maegy2011/yt-sub000/internal/admission/common/clock"
	"github.com/maegy2011/yt-sub000/internal/admission/common/log"
	"github.com/maegy2011/yt-sub000/internal/admission/domain"
	"github.com/maegy2011/yt-sub000/internal/admission/services/patterns"
)

// Resolver answers exact-identifier membership. It must not fail.
type Resolver interface {
	Lookup(itemID string, typ domain.ItemType) domain.Membership
}

// Matcher evaluates pattern rules.
type Matcher interface {
	Match(rec domain.ContentRecord) patterns.Result
	ActiveRules() int
}

// DecisionCache memoizes results by fingerprint.
type DecisionCache interface {
	Get(fp string) (domain.FilterResult, bool)
	Put(fp string, r domain.FilterResult, ttl time.Duration)
	Len() int
	Purge()
	Reset()
	Stats() (hits, misses, evictions uint64)
}

// Config holds the decision policy.
type Config struct {
	// DecisionTTL applies to identifier and no-match decisions.
	DecisionTTL time.Duration
	// PatternTTL applies to pattern decisions; patterns change more often.
	PatternTTL time.Duration
	// BlockSeverity is the minimum severity at which a pattern match blocks.
	BlockSeverity domain.Severity
}

var DefaultConfig = Config{
	DecisionTTL:   10 * time.Minute,
	PatternTTL:    2 * time.Minute,
	BlockSeverity: domain.SeverityLow,
}

const keywordConfidence = 0.8

// Service is the admission decision point. Metrics belong to the instance
// and are reset only by ResetMetrics.
type Service struct {
	resolver Resolver
	matcher  Matcher
	cache    DecisionCache
	cfg      Config
	clock    clock.Clock
	logger   log.Logger

	// gen guards cache writes against a concurrent Invalidate: a decision
	// computed before an invalidation is not cached after it.
	genMu sync.RWMutex
	gen   uint64

	metrics metrics
}

type Option func(*Service)

func WithClock(c clock.Clock) Option { return func(s *Service) { s.clock = c } }

func WithLogger(l log.Logger) Option { return func(s *Service) { s.logger = l } }

func New(resolver Resolver, matcher Matcher, cache DecisionCache, cfg Config, opts ...Option) *Service {
	if cfg.DecisionTTL <= 0 {
		cfg.DecisionTTL = DefaultConfig.DecisionTTL
	}
	if cfg.PatternTTL <= 0 {
		cfg.PatternTTL = DefaultConfig.PatternTTL
	}
	s := &Service{
		resolver: resolver,
		matcher:  matcher,
		cache:    cache,
		cfg:      cfg,
		clock:    clock.RealClock{},
		logger:   log.GetLogger(),
	}
	for _, o := range opts {
		o(s)
	}
	return s
}

// Evaluate returns the admission decision for rec.
func (s *Service) Evaluate(rec domain.ContentRecord) (res domain.FilterResult) {
	start := s.clock.Now()
	defer func() {
		if rv := recover(); rv != nil {
			s.logger.Error(map[string]any{"itemId": rec.ItemID, "type": rec.Type.String(), "panic": rv}, "admission_evaluate_failed_open")
			res = domain.FailOpenResult()
			res.ResponseTime = s.clock.Now().Sub(start)
			s.metrics.record(res, true)
		}
	}()

	fp := rec.Fingerprint()
	if hit, ok := s.cache.Get(fp); ok {
		hit.ResponseTime = s.clock.Now().Sub(start)
		s.metrics.record(hit, false)
		return hit
	}

	gen := s.generation()
	res, ttl := s.decide(rec)
	s.putIfCurrent(gen, fp, res, ttl)

	res.ResponseTime = s.clock.Now().Sub(start)
	s.metrics.record(res, false)
	return res
}

func (s *Service) generation() uint64 {
	s.genMu.RLock()
	defer s.genMu.RUnlock()
	return s.gen
}

func (s *Service) putIfCurrent(gen uint64, fp string, r domain.FilterResult, ttl time.Duration) {
	s.genMu.RLock()
	defer s.genMu.RUnlock()
	if s.gen == gen {
		s.cache.Put(fp, r, ttl)
	}
}

// EvaluateAll evaluates each record in order.
func (s *Service) EvaluateAll(recs []domain.ContentRecord) []domain.FilterResult {
	out := make([]domain.FilterResult, len(recs))
	for i, rec := range recs {
		out[i] = s.Evaluate(rec)
	}
	return out
}

// decide runs whitelist → blacklist → patterns and returns the result with
// the TTL it may be cached for.
func (s *Service) decide(rec domain.ContentRecord) (domain.FilterResult, time.Duration) {
	m := s.resolver.Lookup(rec.ItemID, rec.Type)
	switch {
	case m.OnWhitelist:
		return domain.FilterResult{
			Allowed:     true,
			Whitelisted: true,
			MatchedBy:   domain.IdentifierWhitelistMatch{},
			Confidence:  1.0,
		}, s.cfg.DecisionTTL
	case m.OnBlacklist:
		return domain.FilterResult{
			Blocked:    true,
			MatchedBy:  domain.IdentifierBlacklistMatch{},
			Confidence: 1.0,
		}, s.cfg.DecisionTTL
	}

	mr := s.matcher.Match(rec)
	if !mr.Matched {
		return domain.AllowedResult(), s.cfg.DecisionTTL
	}

	p := mr.Pattern
	res := domain.FilterResult{
		MatchedBy: domain.PatternMatch{
			RuleID:      p.ID,
			CategoryID:  p.CategoryID,
			PatternKind: p.Kind,
			Severity:    p.Severity,
		},
		Confidence: 1.0,
	}
	if p.Kind == domain.PatternKeyword {
		res.Confidence = keywordConfidence
	}
	switch {
	case mr.Category != nil && mr.Category.AllowList:
		res.Whitelisted = true
	case p.Severity >= s.cfg.BlockSeverity:
		res.Blocked = true
	}
	res.Allowed = res.Whitelisted || !res.Blocked
	return res, s.cfg.PatternTTL
}

// Invalidate drops cached decisions after a store mutation. Counters are
// kept.
func (s *Service) Invalidate() {
	s.genMu.Lock()
	s.gen++
	s.cache.Purge()
	s.genMu.Unlock()
}

// ClearCache drops cached decisions and resets the cache hit/miss counters.
// Request metrics are not touched.
func (s *Service) ClearCache() {
	s.genMu.Lock()
	s.gen++
	s.cache.Reset()
	s.genMu.Unlock()
	s.logger.Info(nil, "decision_cache_cleared")
}

// Metrics returns a snapshot of request and cache metrics.
func (s *Service) Metrics() domain.Metrics {
	m := s.metrics.snapshot()
	hits, misses, _ := s.cache.Stats()
	m.CacheHits, m.CacheMisses = hits, misses
	if total := hits + misses; total > 0 {
		m.CacheHitRate = float64(hits) / float64(total)
	}
	m.CacheSize = s.cache.Len()
	m.ActiveRules = s.matcher.ActiveRules()
	return m
}

// ResetMetrics zeroes the request metrics.
func (s *Service) ResetMetrics() {
	s.metrics.reset()
	s.logger.Info(nil, "admission_metrics_reset")
}

// metrics accumulates request counters. The average response time is a
// cumulative mean since the last reset.
type metrics struct {
	mu          sync.Mutex
	total       uint64
	blocked     uint64
	whitelisted uint64
	failedOpen  uint64
	sumLatency  time.Duration
}

func (m *metrics) record(r domain.FilterResult, failedOpen bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.total++
	if r.Blocked {
		m.blocked++
	}
	if r.Whitelisted {
		m.whitelisted++
	}
	if failedOpen {
		m.failedOpen++
	}
	m.sumLatency += r.ResponseTime
}

func (m *metrics) snapshot() domain.Metrics {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := domain.Metrics{
		TotalRequests:       m.total,
		BlockedRequests:     m.blocked,
		WhitelistedRequests: m.whitelisted,
		FailedOpenRequests:  m.failedOpen,
	}
	if m.total > 0 {
		out.AvgResponseTimeMs = float64(m.sumLatency) / float64(m.total) / float64(time.Millisecond)
	}
	return out
}

func (m *metrics) reset() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.total, m.blocked, m.whitelisted, m.failedOpen = 0, 0, 0, 0
	m.sumLatency = 0
}
