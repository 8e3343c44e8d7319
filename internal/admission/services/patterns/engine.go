// Package patterns evaluates keyword, wildcard and regex rules against
// content records.
//
// The engine works on an immutable snapshot of compiled rules that Reload
// swaps in atomically, so Match never takes a lock. Match statistics for
// the winning rule are handed to a background flusher and written to the
// store in batches; a full buffer drops the update rather than delaying the
// decision.
package patterns

import (
	"cmp"
	"context"
	"regexp"
	"slices"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/maegy2011/yt-sub000/internal/admission/common/clock"
	"github.com/maegy2011/yt-sub000/internal/admission/common/log"
	"github.com/maegy2011/yt-sub000/internal/admission/domain"
)

// Store is the persistence the engine reads rules from and writes match
// statistics to.
type Store interface {
	ListPatterns() ([]domain.Pattern, error)
	ListCategories() ([]domain.Category, error)
	RecordMatches(stats map[string]domain.MatchStat) error
}

// Result is the outcome of one Match call. Category is nil for
// uncategorized patterns.
type Result struct {
	Matched  bool
	Pattern  domain.Pattern
	Category *domain.Category
}

type rule struct {
	pattern  domain.Pattern
	category *domain.Category
	match    func(text string) bool
}

type snapshot struct {
	rules []rule
}

type matchEvent struct {
	id string
	at time.Time
}

const (
	defaultStatsBuffer   = 4096
	defaultFlushInterval = 5 * time.Second
)

// Engine evaluates the current rule snapshot. The zero value is not usable;
// construct with NewEngine.
type Engine struct {
	store         Store
	clock         clock.Clock
	logger        log.Logger
	snap          atomic.Pointer[snapshot]
	reloadMu      sync.Mutex // held from the store read until the swap
	events        chan matchEvent
	flushInterval time.Duration
	dropped       atomic.Uint64
}

type Option func(*Engine)

func WithClock(c clock.Clock) Option { return func(e *Engine) { e.clock = c } }

func WithLogger(l log.Logger) Option { return func(e *Engine) { e.logger = l } }

// WithStatsBuffer sets how many pending match events may queue before new
// ones are dropped.
func WithStatsBuffer(n int) Option {
	return func(e *Engine) {
		if n > 0 {
			e.events = make(chan matchEvent, n)
		}
	}
}

func WithFlushInterval(d time.Duration) Option {
	return func(e *Engine) {
		if d > 0 {
			e.flushInterval = d
		}
	}
}

func NewEngine(store Store, opts ...Option) *Engine {
	e := &Engine{
		store:         store,
		clock:         clock.RealClock{},
		logger:        log.GetLogger(),
		events:        make(chan matchEvent, defaultStatsBuffer),
		flushInterval: defaultFlushInterval,
	}
	for _, o := range opts {
		o(e)
	}
	e.snap.Store(&snapshot{})
	return e
}

// Reload compiles the stored rules into a new snapshot. On error the
// previous snapshot stays in place. Reloads are serialized so an older
// read can never replace a newer snapshot.
//
// Rules are skipped when inactive, when their category or any ancestor is
// inactive, or when their expression no longer compiles.
func (e *Engine) Reload() error {
	e.reloadMu.Lock()
	defer e.reloadMu.Unlock()

	pats, err := e.store.ListPatterns()
	if err != nil {
		return err
	}
	cats, err := e.store.ListCategories()
	if err != nil {
		return err
	}
	byID := make(map[string]domain.Category, len(cats))
	for _, c := range cats {
		byID[c.ID] = c
	}

	rules := make([]rule, 0, len(pats))
	for _, p := range pats {
		if !p.IsActive {
			continue
		}
		var cat *domain.Category
		if c, ok := byID[p.CategoryID]; ok {
			if !categoryEnabled(c, byID) {
				continue
			}
			cat = &c
		}
		match, err := compile(p)
		if err != nil {
			e.logger.Warn(map[string]any{"patternId": p.ID, "pattern": p.Pattern, "error": err}, "pattern_compile_failed")
			continue
		}
		rules = append(rules, rule{pattern: p, category: cat, match: match})
	}
	sortRules(rules)

	e.snap.Store(&snapshot{rules: rules})
	e.logger.Info(map[string]any{"rules": len(rules), "stored": len(pats)}, "pattern_rules_loaded")
	return nil
}

// sortRules orders by precedence: lowest priority value first, then the
// most recently created. The first matching rule is therefore the winner.
func sortRules(rules []rule) {
	slices.SortStableFunc(rules, func(a, b rule) int {
		if c := cmp.Compare(a.pattern.Priority, b.pattern.Priority); c != 0 {
			return c
		}
		return b.pattern.CreatedAt.Compare(a.pattern.CreatedAt)
	})
}

// categoryEnabled walks up the tree; a missing parent ends the walk and a
// repeated id (a corrupt cycle) disables the branch.
func categoryEnabled(c domain.Category, byID map[string]domain.Category) bool {
	seen := map[string]struct{}{}
	for {
		if !c.IsActive {
			return false
		}
		if c.IsSystem {
			// system categories cannot be deactivated, not even through a parent
			return true
		}
		if _, loop := seen[c.ID]; loop {
			return false
		}
		seen[c.ID] = struct{}{}
		parent, ok := byID[c.ParentID]
		if c.ParentID == "" || !ok {
			return true
		}
		c = parent
	}
}

func compile(p domain.Pattern) (func(string) bool, error) {
	switch p.Kind {
	case domain.PatternKeyword:
		needle := strings.ToLower(p.Pattern)
		return func(text string) bool {
			return strings.Contains(strings.ToLower(text), needle)
		}, nil
	default:
		expr := p.Expression
		if expr == "" {
			expr = p.Pattern
			if p.Kind == domain.PatternWildcard {
				expr = domain.WildcardToRegex(p.Pattern)
			}
		}
		re, err := regexp.Compile(expr)
		if err != nil {
			return nil, err
		}
		return re.MatchString, nil
	}
}

// Match returns the highest-precedence rule matching rec. Expired rules and
// rules whose scope field is empty on rec are not considered. A rule that
// panics is logged as a MatchEvaluationError and treated as a non-match.
func (e *Engine) Match(rec domain.ContentRecord) Result {
	snap := e.snap.Load()
	now := e.clock.Now()
	for i := range snap.rules {
		r := &snap.rules[i]
		if r.pattern.IsExpired(now) || !rec.HasField(r.pattern.Scope) {
			continue
		}
		if !e.evaluate(r, rec) {
			continue
		}
		e.recordMatch(r.pattern.ID, now)
		return Result{Matched: true, Pattern: r.pattern, Category: r.category}
	}
	return Result{}
}

func (e *Engine) evaluate(r *rule, rec domain.ContentRecord) (matched bool) {
	defer func() {
		if rv := recover(); rv != nil {
			err := &domain.MatchEvaluationError{PatternID: r.pattern.ID, Cause: rv}
			e.logger.Error(map[string]any{"patternId": r.pattern.ID, "error": err}, "pattern_evaluation_failed")
			matched = false
		}
	}()
	if r.pattern.Scope == domain.ScopeTags {
		for _, tag := range rec.Tags {
			if tag != "" && r.match(tag) {
				return true
			}
		}
		return false
	}
	return r.match(rec.Field(r.pattern.Scope))
}

func (e *Engine) recordMatch(id string, at time.Time) {
	select {
	case e.events <- matchEvent{id: id, at: at}:
	default:
		e.dropped.Add(1)
	}
}

// ActiveRules counts loaded rules that have not expired.
func (e *Engine) ActiveRules() int {
	now := e.clock.Now()
	n := 0
	for _, r := range e.snap.Load().rules {
		if !r.pattern.IsExpired(now) {
			n++
		}
	}
	return n
}

// DroppedStats is the number of match events discarded on a full buffer.
func (e *Engine) DroppedStats() uint64 { return e.dropped.Load() }

// Run aggregates match events and flushes them to the store every flush
// interval until ctx is done, then flushes what is left.
func (e *Engine) Run(ctx context.Context) {
	t := time.NewTicker(e.flushInterval)
	defer t.Stop()
	pending := map[string]domain.MatchStat{}
	add := func(ev matchEvent) {
		st := pending[ev.id]
		st.Count++
		if ev.at.After(st.LastMatchedAt) {
			st.LastMatchedAt = ev.at
		}
		pending[ev.id] = st
	}
	for {
		select {
		case ev := <-e.events:
			add(ev)
		case <-t.C:
			pending = e.flush(pending)
		case <-ctx.Done():
			for {
				select {
				case ev := <-e.events:
					add(ev)
				default:
					e.flush(pending)
					return
				}
			}
		}
	}
}

// flush writes pending stats. On failure the stats are kept for the next
// tick; a failure never reaches the decision path.
func (e *Engine) flush(pending map[string]domain.MatchStat) map[string]domain.MatchStat {
	if len(pending) == 0 {
		return pending
	}
	if err := e.store.RecordMatches(pending); err != nil {
		e.logger.Warn(map[string]any{"patterns": len(pending), "error": err}, "pattern_stats_flush_failed")
		return pending
	}
	return map[string]domain.MatchStat{}
}
