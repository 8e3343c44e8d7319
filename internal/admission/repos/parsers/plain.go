// Package parsers turns uploaded list files into import items.
package parsers

import (
	"bufio"
	"io"
	"strings"

	"github.com/maegy2011/yt-sub000/internal/admission/common/log"
	"github.com/maegy2011/yt-sub000/internal/admission/domain"
)

// maxLineBytes bounds one list line; longer lines fail the scan.
const maxLineBytes = 64 * 1024

// ParsePlainList parses a newline-delimited identifier list.
//
// Each line is "[type] id-or-url [title...]":
// - '#' starts a comment (whole-line or inline); blank lines are skipped
// - a leading video/playlist/channel token sets the type, otherwise defaultType applies
// - the title is the rest of the line; when absent the identifier is used
// - exact repeats of (type, id) are dropped, first occurrence wins
//
// Identifiers are not resolved here; the import pipeline validates them and
// counts failures per item.
func ParsePlainList(r io.Reader, defaultType domain.ItemType, logger log.Logger) ([]domain.ImportItem, error) {
	if logger == nil {
		logger = log.GetLogger()
	}
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 4096), maxLineBytes)

	seen := make(map[string]struct{})
	out := make([]domain.ImportItem, 0, 256)
	lineNum := 0
	for scanner.Scan() {
		lineNum++
		line := strings.TrimPrefix(scanner.Text(), "\uFEFF")
		fields := strings.Fields(stripComment(line))
		if len(fields) == 0 {
			continue
		}

		typ := defaultType
		if t, err := domain.ParseItemType(fields[0]); err == nil && len(fields) > 1 {
			typ = t
			fields = fields[1:]
		}
		id := fields[0]
		title := strings.Join(fields[1:], " ")
		if title == "" {
			title = id
		}

		key := domain.ItemKey(id, typ)
		if _, ok := seen[key]; ok {
			logger.Debug(map[string]any{"line": lineNum, "key": key}, "skip_duplicate")
			continue
		}
		seen[key] = struct{}{}
		out = append(out, domain.ImportItem{ItemID: id, Type: typ, Title: title})
	}
	if err := scanner.Err(); err != nil {
		logger.Warn(map[string]any{"line": lineNum, "error": err}, "parse_plain_list_scan_error")
		return nil, err
	}
	logger.Debug(map[string]any{"count": len(out)}, "parse_plain_list_done")
	return out, nil
}

// stripComment cuts the line at the first '#' that starts a comment. A '#'
// inside a token containing "://" is a URL fragment and is kept.
func stripComment(line string) string {
	for i := 0; i < len(line); i++ {
		if line[i] != '#' {
			continue
		}
		start := strings.LastIndexAny(line[:i], " \t") + 1
		if start == i || !strings.Contains(line[start:i], "://") {
			return line[:i]
		}
	}
	return line
}
