package domain

import (
	"cmp"
	"fmt"
	"strings"
)

// SortField selects the ListedItem field a page is ordered by.
type SortField string

const (
	SortAddedAt   SortField = "addedAt"
	SortUpdatedAt SortField = "updatedAt"
	SortTitle     SortField = "title"
	SortPriority  SortField = "priority"
	SortItemID    SortField = "itemId"
)

func ParseSortField(s string) (SortField, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "addedat", "added_at", "createdat":
		return SortAddedAt, nil
	case "updatedat", "updated_at":
		return SortUpdatedAt, nil
	case "title":
		return SortTitle, nil
	case "priority":
		return SortPriority, nil
	case "itemid", "item_id":
		return SortItemID, nil
	default:
		return "", fmt.Errorf("unsupported sort field: %q", s)
	}
}

const (
	DefaultPageLimit = 20
	MaxPageLimit     = 500
)

// ListQuery filters and pages one identifier list. Zero values mean
// "no filter"; Page is 1-based.
type ListQuery struct {
	Type       *ItemType
	Search     string
	BatchID    string
	SortBy     SortField
	Descending bool
	Page       int
	Limit      int
}

// Normalize fills defaults and clamps paging.
func (q ListQuery) Normalize() ListQuery {
	if q.SortBy == "" {
		q.SortBy = SortAddedAt
	}
	if q.Page < 1 {
		q.Page = 1
	}
	if q.Limit < 1 {
		q.Limit = DefaultPageLimit
	}
	if q.Limit > MaxPageLimit {
		q.Limit = MaxPageLimit
	}
	q.Search = strings.ToLower(strings.TrimSpace(q.Search))
	return q
}

// Matches reports whether the item passes the query's filters.
func (q ListQuery) Matches(it ListedItem) bool {
	if q.Type != nil && it.Type != *q.Type {
		return false
	}
	if q.BatchID != "" && it.BatchID != q.BatchID {
		return false
	}
	if q.Search == "" {
		return true
	}
	return strings.Contains(strings.ToLower(it.ItemID), q.Search) ||
		strings.Contains(strings.ToLower(it.Title), q.Search) ||
		strings.Contains(strings.ToLower(it.ChannelName), q.Search)
}

// Compare orders a against b by the query's sort field, ties broken by
// Key so pages are stable. It suits slices.SortFunc.
func (q ListQuery) Compare(a, b ListedItem) int {
	var c int
	switch q.SortBy {
	case SortUpdatedAt:
		c = a.UpdatedAt.Compare(b.UpdatedAt)
	case SortTitle:
		c = cmp.Compare(strings.ToLower(a.Title), strings.ToLower(b.Title))
	case SortPriority:
		c = cmp.Compare(a.Priority, b.Priority)
	case SortItemID:
		c = cmp.Compare(a.ItemID, b.ItemID)
	default:
		c = a.AddedAt.Compare(b.AddedAt)
	}
	if c == 0 {
		c = cmp.Compare(a.Key(), b.Key())
	}
	if q.Descending {
		return -c
	}
	return c
}

// Page is one page of a list query.
type Page struct {
	Items      []ListedItem `json:"items"`
	Total      int          `json:"total"`
	Page       int          `json:"page"`
	Limit      int          `json:"limit"`
	TotalPages int          `json:"totalPages"`
}

// ChunkResult reports what one chunked write did.
type ChunkResult struct {
	Inserted int
	Updated  int
	Skipped  int
}

// Written is the number of items that reached their desired end state.
func (r ChunkResult) Written() int { return r.Inserted + r.Updated + r.Skipped }
