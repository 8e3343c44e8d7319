package domain

import (
	"strconv"
	"strings"

	"github.com/cespare/xxhash/v2"

	"github.com/maegy2011/yt-sub000/internal/admission/common/utils"
)

// ContentRecord is one item flowing through search/browse that needs an
// admission decision.
type ContentRecord struct {
	ItemID      string   `json:"itemId"`
	Type        ItemType `json:"type"`
	Title       string   `json:"title"`
	ChannelName string   `json:"channelName,omitempty"`
	Description string   `json:"description,omitempty"`
	Tags        []string `json:"tags,omitempty"`
}

// Field returns the text a pattern of the given scope is evaluated against.
// Tags are returned joined by newlines; the pattern engine matches tags one
// at a time.
func (c ContentRecord) Field(s Scope) string {
	switch s {
	case ScopeTitle:
		return c.Title
	case ScopeChannel:
		return c.ChannelName
	case ScopeDescription:
		return c.Description
	case ScopeTags:
		return strings.Join(c.Tags, "\n")
	default:
		return ""
	}
}

// HasField reports whether the scope field is non-empty on the record.
func (c ContentRecord) HasField(s Scope) bool {
	if s == ScopeTags {
		for _, t := range c.Tags {
			if strings.TrimSpace(t) != "" {
				return true
			}
		}
		return false
	}
	return strings.TrimSpace(c.Field(s)) != ""
}

// Fingerprint is a stable hash of every field a decision depends on:
// itemId, type, title, channelName, description and the joined tags.
// Changing any of them yields a different fingerprint.
func (c ContentRecord) Fingerprint() string {
	d := xxhash.New()
	write := func(s string) {
		_, _ = d.WriteString(s)
		_, _ = d.Write([]byte{0})
	}
	write(utils.CanonicalItemID(c.ItemID))
	write(c.Type.String())
	write(c.Title)
	write(c.ChannelName)
	write(c.Description)
	write(strings.Join(c.Tags, "\x1f"))
	return strconv.FormatUint(d.Sum64(), 16)
}
