package domain

import (
	"regexp"
	"strings"
	"time"

	"github.com/google/uuid"
)

var colorRe = regexp.MustCompile(`^#(?:[0-9a-fA-F]{3}|[0-9a-fA-F]{6})$`)

// DefaultCategoryColor is used when a category is created without a color.
const DefaultCategoryColor = "#808080"

// Category groups patterns and identifiers for enable/disable and reporting.
// Categories form a tree via ParentID. AllowList marks a whitelist-style
// category: a pattern match in it forces content visible instead of blocking.
type Category struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Color     string    `json:"color"`
	Priority  int       `json:"priority"`
	IsActive  bool      `json:"isActive"`
	IsSystem  bool      `json:"isSystem"`
	AllowList bool      `json:"allowList"`
	ParentID  string    `json:"parentId,omitempty"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// NewCategory constructs an active, non-system category and validates it.
func NewCategory(name, color string, priority int, parentID string, allowList bool, now time.Time) (Category, error) {
	c := Category{
		ID:        uuid.NewString(),
		Name:      strings.TrimSpace(name),
		Color:     strings.TrimSpace(color),
		Priority:  priority,
		IsActive:  true,
		AllowList: allowList,
		ParentID:  strings.TrimSpace(parentID),
		CreatedAt: now,
		UpdatedAt: now,
	}
	if c.Color == "" {
		c.Color = DefaultCategoryColor
	}
	if err := c.Validate(); err != nil {
		return Category{}, err
	}
	return c, nil
}

// Validate checks required fields. Tree shape is checked by the catalog,
// which can see the other categories.
func (c Category) Validate() error {
	verr := &ValidationError{}
	if c.Name == "" {
		verr.Add("name", "must not be empty")
	}
	if !colorRe.MatchString(c.Color) {
		verr.Add("color", "must be a #rgb or #rrggbb hex color")
	}
	if c.Priority < 0 {
		verr.Add("priority", "must not be negative")
	}
	if c.ParentID != "" && c.ParentID == c.ID {
		verr.Add("parentId", "must not reference itself")
	}
	return verr.OrNil()
}
