package catalog

import (
	"errors"
	"strings"
	"time"

	"github.com/maegy2011/yt-sub000/internal/admission/domain"
)

// PatternInput carries the editable fields of a pattern. Nil IsActive
// means active on create and unchanged on update.
type PatternInput struct {
	Pattern    string
	Scope      domain.Scope
	Kind       domain.PatternKind
	Priority   int
	Severity   domain.Severity
	CategoryID string
	IsActive   *bool
	ExpiresAt  *time.Time
}

func (c *Catalog) CreatePattern(in PatternInput) (domain.Pattern, error) {
	if err := c.checkCategoryRef(in.CategoryID); err != nil {
		return domain.Pattern{}, err
	}
	p, err := domain.NewPattern(in.Pattern, in.Scope, in.Kind, in.Priority, in.Severity, in.CategoryID, c.clock.Now())
	if err != nil {
		return domain.Pattern{}, err
	}
	if in.IsActive != nil {
		p.IsActive = *in.IsActive
	}
	p.ExpiresAt = in.ExpiresAt
	if err := c.patterns.CreatePattern(p); err != nil {
		return domain.Pattern{}, err
	}
	c.rulesChanged("pattern_created")
	c.logger.Info(map[string]any{"patternId": p.ID, "kind": p.Kind.String(), "scope": p.Scope.String()}, "pattern_created")
	return p, nil
}

func (c *Catalog) GetPattern(id string) (domain.Pattern, error) {
	return c.patterns.GetPattern(id)
}

// UpdatePattern replaces the editable fields. Match statistics and
// CreatedAt are kept.
func (c *Catalog) UpdatePattern(id string, in PatternInput) (domain.Pattern, error) {
	p, err := c.patterns.GetPattern(id)
	if err != nil {
		return domain.Pattern{}, err
	}
	if err := c.checkCategoryRef(in.CategoryID); err != nil {
		return domain.Pattern{}, err
	}
	p.Pattern = in.Pattern
	p.Scope = in.Scope
	p.Kind = in.Kind
	p.Priority = in.Priority
	p.Severity = in.Severity
	p.CategoryID = in.CategoryID
	p.ExpiresAt = in.ExpiresAt
	if in.IsActive != nil {
		p.IsActive = *in.IsActive
	}
	p.UpdatedAt = c.clock.Now()
	if err := p.Prepare(); err != nil {
		return domain.Pattern{}, err
	}
	if err := c.patterns.UpdatePattern(p); err != nil {
		return domain.Pattern{}, err
	}
	c.rulesChanged("pattern_updated")
	return p, nil
}

func (c *Catalog) DeletePattern(id string) error {
	if err := c.patterns.DeletePattern(id); err != nil {
		return err
	}
	c.rulesChanged("pattern_deleted")
	c.logger.Info(map[string]any{"patternId": id}, "pattern_deleted")
	return nil
}

func (c *Catalog) ListPatterns() ([]domain.Pattern, error) {
	return c.patterns.ListPatterns()
}

func (c *Catalog) checkCategoryRef(id string) error {
	id = strings.TrimSpace(id)
	if id == "" {
		return nil
	}
	if _, err := c.categories.GetCategory(id); err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return domain.NewValidationError("categoryId", "unknown category "+id)
		}
		return err
	}
	return nil
}
