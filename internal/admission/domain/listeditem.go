package domain

import (
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/maegy2011/yt-sub000/internal/admission/common/utils"
)

// ListedItem is one exact identifier on the blacklist or the whitelist.
//
// Notes:
// - ItemID is the external content identifier, canonical (see utils.CanonicalItemID).
// - Uniqueness is per (ItemID, Type) within one list; see Key.
// - BatchID is set when the row was written by a bulk import.
type ListedItem struct {
	ID          string    `json:"id"`
	ItemID      string    `json:"itemId"`
	Type        ItemType  `json:"type"`
	Title       string    `json:"title"`
	ChannelName string    `json:"channelName,omitempty"`
	Priority    int       `json:"priority"`
	BatchID     string    `json:"batchId,omitempty"`
	AddedAt     time.Time `json:"addedAt"`
	UpdatedAt   time.Time `json:"updatedAt"`
}

// NewListedItem constructs a ListedItem with a fresh id and validates it.
func NewListedItem(itemID string, typ ItemType, title, channelName string, priority int, batchID string, now time.Time) (ListedItem, error) {
	it := ListedItem{
		ID:          uuid.NewString(),
		ItemID:      utils.CanonicalItemID(itemID),
		Type:        typ,
		Title:       strings.TrimSpace(title),
		ChannelName: strings.TrimSpace(channelName),
		Priority:    priority,
		BatchID:     batchID,
		AddedAt:     now,
		UpdatedAt:   now,
	}
	if err := it.Validate(); err != nil {
		return ListedItem{}, err
	}
	return it, nil
}

// Validate checks required fields and supported values.
func (i ListedItem) Validate() error {
	verr := &ValidationError{}
	if i.ItemID == "" {
		verr.Add("itemId", "must not be empty")
	}
	if !i.Type.IsValid() {
		verr.Add("type", "must be one of video, playlist, channel")
	}
	if i.Title == "" {
		verr.Add("title", "must not be empty")
	}
	if i.Priority < 0 {
		verr.Add("priority", "must not be negative")
	}
	if i.AddedAt.IsZero() {
		verr.Add("addedAt", "must be set")
	}
	return verr.OrNil()
}

// Key is the store key enforcing (itemId, type) uniqueness within a list.
func (i ListedItem) Key() string { return ItemKey(i.ItemID, i.Type) }

// ItemKey builds the lookup key for an identifier of the given type.
func ItemKey(itemID string, typ ItemType) string {
	return typ.String() + ":" + itemID
}

// Membership is the exact-match verdict for one identifier.
type Membership struct {
	OnWhitelist bool
	OnBlacklist bool
}
