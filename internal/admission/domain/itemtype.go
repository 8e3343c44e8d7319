package domain

import (
	"fmt"
	"strings"

	"github.com/maegy2011/yt-sub000/internal/admission/common/utils"
)

// ItemType is the kind of content an identifier refers to.
type ItemType uint8

const (
	ItemVideo ItemType = iota
	ItemPlaylist
	ItemChannel
)

// ItemTypes lists every supported type in lookup order.
var ItemTypes = []ItemType{ItemVideo, ItemPlaylist, ItemChannel}

// String returns a stable string representation of the item type.
func (t ItemType) String() string {
	switch t {
	case ItemVideo:
		return "video"
	case ItemPlaylist:
		return "playlist"
	case ItemChannel:
		return "channel"
	default:
		return fmt.Sprintf("ItemType(%d)", t)
	}
}

// ParseItemType converts a string into an ItemType (case-insensitive).
func ParseItemType(s string) (ItemType, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "video":
		return ItemVideo, nil
	case "playlist":
		return ItemPlaylist, nil
	case "channel":
		return ItemChannel, nil
	default:
		return 0, fmt.Errorf("unsupported item type: %q", s)
	}
}

// IsValid reports whether t is a supported type.
func (t ItemType) IsValid() bool { return t <= ItemChannel }

func (t ItemType) MarshalText() ([]byte, error) {
	if !t.IsValid() {
		return nil, fmt.Errorf("unsupported item type: %d", t)
	}
	return []byte(t.String()), nil
}

func (t *ItemType) UnmarshalText(b []byte) error {
	v, err := ParseItemType(string(b))
	if err != nil {
		return err
	}
	*t = v
	return nil
}

// ResolveItemID turns a bare identifier or a YouTube URL into the canonical
// identifier for typ.
func ResolveItemID(raw string, typ ItemType) (string, bool) {
	switch typ {
	case ItemVideo:
		return utils.VideoID(raw)
	case ItemPlaylist:
		return utils.PlaylistID(raw)
	case ItemChannel:
		return utils.ChannelID(raw)
	default:
		return "", false
	}
}

// ListKind selects one of the two disjoint identifier collections.
type ListKind uint8

const (
	Blacklist ListKind = iota
	Whitelist
)

func (k ListKind) String() string {
	switch k {
	case Blacklist:
		return "blacklist"
	case Whitelist:
		return "whitelist"
	default:
		return fmt.Sprintf("ListKind(%d)", k)
	}
}

// ParseListKind accepts "blacklist"/"whitelist" and their "block"/"allow" aliases.
func ParseListKind(s string) (ListKind, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "blacklist", "blocklist", "block":
		return Blacklist, nil
	case "whitelist", "allowlist", "allow":
		return Whitelist, nil
	default:
		return 0, fmt.Errorf("unsupported list: %q", s)
	}
}

func (k ListKind) MarshalText() ([]byte, error) { return []byte(k.String()), nil }

func (k *ListKind) UnmarshalText(b []byte) error {
	v, err := ParseListKind(string(b))
	if err != nil {
		return err
	}
	*k = v
	return nil
}
