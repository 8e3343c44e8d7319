// Package catalog is the administrative surface over the identifier lists,
// patterns and categories. Every mutation that can change a decision
// reloads the pattern rules and invalidates cached decisions.
package catalog

import (
	"github.com/maegy2011/yt-sub000/internal/admission/common/clock"
	"github.com/maegy2011/yt-sub000/internal/admission/common/log"
	"github.com/maegy2011/yt-sub000/internal/admission/domain"
)

// ItemRepo is the identifier list repository.
type ItemRepo interface {
	Add(list domain.ListKind, it domain.ListedItem) error
	Get(list domain.ListKind, itemID string, typ domain.ItemType) (domain.ListedItem, error)
	Remove(list domain.ListKind, itemID string, typ domain.ItemType) error
	List(list domain.ListKind, q domain.ListQuery) (domain.Page, error)
	Count(list domain.ListKind) (int, error)
}

type PatternStore interface {
	CreatePattern(p domain.Pattern) error
	GetPattern(id string) (domain.Pattern, error)
	UpdatePattern(p domain.Pattern) error
	DeletePattern(id string) error
	ListPatterns() ([]domain.Pattern, error)
}

type CategoryStore interface {
	CreateCategory(c domain.Category) error
	GetCategory(id string) (domain.Category, error)
	UpdateCategory(c domain.Category) error
	DeleteCategory(id string) error
	ListCategories() ([]domain.Category, error)
}

// Reloader rebuilds compiled pattern rules from the store.
type Reloader interface {
	Reload() error
}

// Invalidator drops cached admission decisions.
type Invalidator interface {
	Invalidate()
}

type Catalog struct {
	items      ItemRepo
	patterns   PatternStore
	categories CategoryStore
	rules      Reloader
	cache      Invalidator
	clock      clock.Clock
	logger     log.Logger
}

type Option func(*Catalog)

func WithClock(c clock.Clock) Option { return func(s *Catalog) { s.clock = c } }

func WithLogger(l log.Logger) Option { return func(s *Catalog) { s.logger = l } }

// WithRules registers the pattern engine reloaded after pattern and
// category edits.
func WithRules(r Reloader) Option { return func(s *Catalog) { s.rules = r } }

// WithInvalidator registers the decision cache owner.
func WithInvalidator(i Invalidator) Option { return func(s *Catalog) { s.cache = i } }

func New(items ItemRepo, patterns PatternStore, categories CategoryStore, opts ...Option) *Catalog {
	c := &Catalog{
		items:      items,
		patterns:   patterns,
		categories: categories,
		clock:      clock.RealClock{},
		logger:     log.GetLogger(),
	}
	for _, o := range opts {
		o(c)
	}
	return c
}

func (c *Catalog) invalidate() {
	if c.cache != nil {
		c.cache.Invalidate()
	}
}

// rulesChanged reloads the engine. A reload failure keeps the previous
// rule set in place, so it is logged rather than returned: the edit itself
// is already committed.
func (c *Catalog) rulesChanged(event string) {
	if c.rules != nil {
		if err := c.rules.Reload(); err != nil {
			c.logger.Error(map[string]any{"after": event, "error": err}, "pattern_reload_failed")
		}
	}
	c.invalidate()
}
