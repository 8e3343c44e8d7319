package catalog

import (
	"errors"
	"fmt"

	"github.com/maegy2011/yt-sub000/internal/admission/domain"
)

// ItemInput is one identifier submitted to a list. ItemID may be a bare
// identifier or a YouTube URL.
type ItemInput struct {
	ItemID      string
	Type        domain.ItemType
	Title       string
	ChannelName string
	Priority    int
}

// AddItem resolves and validates in, then inserts it. A duplicate
// (itemId, type) in the same list is a ConflictError.
func (c *Catalog) AddItem(list domain.ListKind, in ItemInput) (domain.ListedItem, error) {
	id, ok := domain.ResolveItemID(in.ItemID, in.Type)
	if !ok {
		return domain.ListedItem{}, domain.NewValidationError("itemId", fmt.Sprintf("not a %s id or URL", in.Type))
	}
	it, err := domain.NewListedItem(id, in.Type, in.Title, in.ChannelName, in.Priority, "", c.clock.Now())
	if err != nil {
		return domain.ListedItem{}, err
	}
	if err := c.items.Add(list, it); err != nil {
		return domain.ListedItem{}, err
	}
	c.invalidate()
	c.logger.Info(map[string]any{"list": list.String(), "itemId": it.ItemID, "type": it.Type.String()}, "list_item_added")
	return it, nil
}

func (c *Catalog) GetItem(list domain.ListKind, itemID string, typ domain.ItemType) (domain.ListedItem, error) {
	return c.items.Get(list, itemID, typ)
}

// RemoveItem deletes itemID from list. With a nil typ every type carrying
// that id is removed; NotFoundError only when none was.
func (c *Catalog) RemoveItem(list domain.ListKind, itemID string, typ *domain.ItemType) (int, error) {
	types := []domain.ItemType{domain.ItemVideo, domain.ItemPlaylist, domain.ItemChannel}
	if typ != nil {
		types = []domain.ItemType{*typ}
	}
	removed := 0
	for _, t := range types {
		err := c.items.Remove(list, itemID, t)
		switch {
		case err == nil:
			removed++
		case errors.Is(err, domain.ErrNotFound):
		default:
			return removed, err
		}
	}
	if removed == 0 {
		return 0, domain.NotFoundError("%s has no item %q", list, itemID)
	}
	c.invalidate()
	c.logger.Info(map[string]any{"list": list.String(), "itemId": itemID, "removed": removed}, "list_item_removed")
	return removed, nil
}

func (c *Catalog) ListItems(list domain.ListKind, q domain.ListQuery) (domain.Page, error) {
	return c.items.List(list, q.Normalize())
}

func (c *Catalog) CountItems(list domain.ListKind) (int, error) {
	return c.items.Count(list)
}
