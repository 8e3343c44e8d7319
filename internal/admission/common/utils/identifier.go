package utils

import (
	"net/url"
	"regexp"
	"strings"
	"unicode"
)

// CanonicalItemID returns an external content identifier in canonical form:
//   - Trimmed of surrounding whitespace and any leading byte-order mark
//   - Case preserved, since platform identifiers are case-sensitive
func CanonicalItemID(id string) string {
	id = strings.TrimSpace(id)
	id = strings.TrimPrefix(id, "\uFEFF")
	return strings.TrimSpace(id)
}

var videoIDFallback = regexp.MustCompile(`(?:v=|/v/|youtu\.be/|embed/|shorts/|live/)([a-zA-Z0-9_-]{11})`)

// VideoID resolves a raw video reference (bare id or watch/share URL) to its id.
func VideoID(raw string) (string, bool) {
	raw = CanonicalItemID(raw)
	u, isURL := parseURL(raw)
	if !isURL {
		return plainID(raw)
	}
	host := strings.ToLower(u.Host)
	path := strings.Trim(u.Path, "/")
	switch {
	case strings.Contains(host, "youtube.com"):
		if v := u.Query().Get("v"); len(v) == 11 {
			return v, true
		}
		parts := strings.Split(path, "/")
		if len(parts) >= 2 {
			switch parts[0] {
			case "shorts", "embed", "v", "live":
				if len(parts[1]) == 11 {
					return parts[1], true
				}
			}
		}
	case strings.Contains(host, "youtu.be"):
		if candidate := strings.Split(path, "/")[0]; len(candidate) == 11 {
			return candidate, true
		}
	}
	if m := videoIDFallback.FindStringSubmatch(raw); len(m) > 1 {
		return m[1], true
	}
	return "", false
}

// PlaylistID resolves a raw playlist reference (bare id or any URL carrying list=).
func PlaylistID(raw string) (string, bool) {
	raw = CanonicalItemID(raw)
	u, isURL := parseURL(raw)
	if !isURL {
		return plainID(raw)
	}
	if l := u.Query().Get("list"); l != "" {
		return plainID(l)
	}
	return "", false
}

// ChannelID resolves a raw channel reference. Handles /channel/<id>,
// /@handle, /c/<name> and /user/<name> URLs; handles keep their "@".
func ChannelID(raw string) (string, bool) {
	raw = CanonicalItemID(raw)
	u, isURL := parseURL(raw)
	if !isURL {
		return plainID(raw)
	}
	parts := strings.Split(strings.Trim(u.Path, "/"), "/")
	if len(parts) == 0 || parts[0] == "" {
		return "", false
	}
	if strings.HasPrefix(parts[0], "@") && len(parts[0]) > 1 {
		return parts[0], true
	}
	if len(parts) >= 2 {
		switch parts[0] {
		case "channel", "c", "user":
			return plainID(parts[1])
		}
	}
	return "", false
}

// parseURL reports whether raw looks like a URL and parses it, adding a
// scheme to bare "youtube.com/..." style references.
func parseURL(raw string) (*url.URL, bool) {
	if !strings.Contains(raw, "/") && !strings.Contains(raw, "?") {
		return nil, false
	}
	if !strings.Contains(raw, "://") {
		raw = "https://" + raw
	}
	u, err := url.Parse(raw)
	if err != nil || u.Host == "" {
		return nil, false
	}
	return u, true
}

// plainID accepts a bare identifier: non-empty, no whitespace or separators.
func plainID(s string) (string, bool) {
	if s == "" || len(s) > 256 {
		return "", false
	}
	for _, r := range s {
		if unicode.IsSpace(r) || r == '/' || r == '?' || r == '#' {
			return "", false
		}
	}
	return s, true
}
