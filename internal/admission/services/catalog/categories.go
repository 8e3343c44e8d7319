package catalog

import (
	"errors"
	"strings"

	"github.com/samber/lo"

	"github.com/maegy2011/yt-sub000/internal/admission/domain"
)

// System category names seeded at startup.
const (
	GeneralCategory   = "general"
	AllowListCategory = "allow-list"
)

// CategoryInput carries the editable fields of a category. Nil IsActive
// means active on create and unchanged on update.
type CategoryInput struct {
	Name      string
	Color     string
	Priority  int
	ParentID  string
	AllowList bool
	IsActive  *bool
}

func (c *Catalog) CreateCategory(in CategoryInput) (domain.Category, error) {
	cat, err := domain.NewCategory(in.Name, in.Color, in.Priority, in.ParentID, in.AllowList, c.clock.Now())
	if err != nil {
		return domain.Category{}, err
	}
	if in.IsActive != nil {
		cat.IsActive = *in.IsActive
	}
	all, err := c.categories.ListCategories()
	if err != nil {
		return domain.Category{}, err
	}
	if err := checkTree(cat, all); err != nil {
		return domain.Category{}, err
	}
	if err := c.categories.CreateCategory(cat); err != nil {
		return domain.Category{}, err
	}
	c.rulesChanged("category_created")
	c.logger.Info(map[string]any{"categoryId": cat.ID, "name": cat.Name}, "category_created")
	return cat, nil
}

func (c *Catalog) GetCategory(id string) (domain.Category, error) {
	return c.categories.GetCategory(id)
}

// UpdateCategory replaces the editable fields. System categories keep
// their flag and cannot be deactivated; re-parenting under a descendant is
// rejected.
func (c *Catalog) UpdateCategory(id string, in CategoryInput) (domain.Category, error) {
	cat, err := c.categories.GetCategory(id)
	if err != nil {
		return domain.Category{}, err
	}
	if cat.IsSystem && in.IsActive != nil && !*in.IsActive {
		return domain.Category{}, domain.NewValidationError("isActive", "system categories cannot be deactivated")
	}
	cat.Name = strings.TrimSpace(in.Name)
	cat.Color = strings.TrimSpace(in.Color)
	if cat.Color == "" {
		cat.Color = domain.DefaultCategoryColor
	}
	cat.Priority = in.Priority
	cat.ParentID = strings.TrimSpace(in.ParentID)
	cat.AllowList = in.AllowList
	if in.IsActive != nil {
		cat.IsActive = *in.IsActive
	}
	cat.UpdatedAt = c.clock.Now()
	if err := cat.Validate(); err != nil {
		return domain.Category{}, err
	}
	all, err := c.categories.ListCategories()
	if err != nil {
		return domain.Category{}, err
	}
	if err := checkTree(cat, all); err != nil {
		return domain.Category{}, err
	}
	if err := c.categories.UpdateCategory(cat); err != nil {
		return domain.Category{}, err
	}
	c.rulesChanged("category_updated")
	return cat, nil
}

// DeleteCategory removes a non-system category. Its children move to its
// parent and its patterns become uncategorized.
func (c *Catalog) DeleteCategory(id string) error {
	cat, err := c.categories.GetCategory(id)
	if err != nil {
		return err
	}
	if cat.IsSystem {
		return domain.NewValidationError("id", "system categories cannot be deleted")
	}
	if err := c.categories.DeleteCategory(id); err != nil {
		return err
	}
	c.rulesChanged("category_deleted")
	c.logger.Info(map[string]any{"categoryId": id, "name": cat.Name}, "category_deleted")
	return nil
}

func (c *Catalog) ListCategories() ([]domain.Category, error) {
	return c.categories.ListCategories()
}

// EnsureSystemCategories seeds the built-in categories that are missing.
func (c *Catalog) EnsureSystemCategories() error {
	all, err := c.categories.ListCategories()
	if err != nil {
		return err
	}
	seeds := []struct {
		name      string
		color     string
		allowList bool
	}{
		{GeneralCategory, "#6b7280", false},
		{AllowListCategory, "#16a34a", true},
	}
	created := 0
	for _, s := range seeds {
		_, found := lo.Find(all, func(cat domain.Category) bool {
			return cat.IsSystem && strings.EqualFold(cat.Name, s.name)
		})
		if found {
			continue
		}
		cat, err := domain.NewCategory(s.name, s.color, 0, "", s.allowList, c.clock.Now())
		if err != nil {
			return err
		}
		cat.IsSystem = true
		if err := c.categories.CreateCategory(cat); err != nil && !errors.Is(err, domain.ErrConflict) {
			return err
		}
		created++
	}
	if created > 0 {
		c.logger.Info(map[string]any{"created": created}, "system_categories_seeded")
		c.rulesChanged("system_categories_seeded")
	}
	return nil
}

// checkTree rejects a parent that is missing, or that is cat itself or one
// of its descendants.
func checkTree(cat domain.Category, all []domain.Category) error {
	if cat.ParentID == "" {
		return nil
	}
	byID := lo.KeyBy(all, func(c domain.Category) string { return c.ID })
	byID[cat.ID] = cat
	if _, ok := byID[cat.ParentID]; !ok {
		return domain.NewValidationError("parentId", "unknown category "+cat.ParentID)
	}
	seen := map[string]bool{}
	for id := cat.ParentID; id != ""; id = byID[id].ParentID {
		if id == cat.ID {
			return domain.NewValidationError("parentId", "would make the category its own ancestor")
		}
		if seen[id] {
			break
		}
		seen[id] = true
	}
	return nil
}
