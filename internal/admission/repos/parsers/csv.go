package parsers

import (
	"encoding/csv"
	"errors"
	"io"
	"strconv"
	"strings"

	"github.com/maegy2011/yt-sub000/internal/admission/common/log"
	"github.com/maegy2011/yt-sub000/internal/admission/domain"
)

// csvColumns is the positional layout used when the file has no header.
var csvColumns = []string{"itemid", "type", "title", "channelname", "priority"}

// ParseCSVList parses an exported list in CSV form.
//
// Rules:
// - an optional header row names the columns (itemId, type, title, channelName, priority, any order)
// - without a header the columns are positional in that order
// - '#' lines are comments; rows without an itemId are skipped
// - an empty type uses defaultType; an unknown type or bad priority skips the row
// - exact repeats of (type, id) are dropped, first occurrence wins
func ParseCSVList(r io.Reader, defaultType domain.ItemType, logger log.Logger) ([]domain.ImportItem, error) {
	if logger == nil {
		logger = log.GetLogger()
	}
	cr := csv.NewReader(r)
	cr.Comment = '#'
	cr.FieldsPerRecord = -1
	cr.TrimLeadingSpace = true
	cr.LazyQuotes = true

	cols := map[string]int{}
	for i, name := range csvColumns {
		cols[name] = i
	}

	seen := make(map[string]struct{})
	out := make([]domain.ImportItem, 0, 256)
	row := 0
	for {
		rec, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			logger.Warn(map[string]any{"row": row, "error": err}, "parse_csv_list_read_error")
			return nil, err
		}
		row++
		if row == 1 {
			rec[0] = strings.TrimPrefix(rec[0], "\uFEFF")
			if header, ok := headerColumns(rec); ok {
				cols = header
				continue
			}
		}

		get := func(name string) string {
			i, ok := cols[name]
			if !ok || i >= len(rec) {
				return ""
			}
			return strings.TrimSpace(rec[i])
		}

		id := get("itemid")
		if id == "" {
			logger.Debug(map[string]any{"row": row}, "csv_skip_empty")
			continue
		}
		typ := defaultType
		if raw := get("type"); raw != "" {
			t, err := domain.ParseItemType(raw)
			if err != nil {
				logger.Debug(map[string]any{"row": row, "type": raw}, "csv_skip_invalid_type")
				continue
			}
			typ = t
		}
		priority := 0
		if raw := get("priority"); raw != "" {
			p, err := strconv.Atoi(raw)
			if err != nil {
				logger.Debug(map[string]any{"row": row, "priority": raw}, "csv_skip_invalid_priority")
				continue
			}
			priority = p
		}
		title := get("title")
		if title == "" {
			title = id
		}

		key := domain.ItemKey(id, typ)
		if _, ok := seen[key]; ok {
			logger.Debug(map[string]any{"row": row, "key": key}, "skip_duplicate")
			continue
		}
		seen[key] = struct{}{}
		out = append(out, domain.ImportItem{
			ItemID:      id,
			Type:        typ,
			Title:       title,
			ChannelName: get("channelname"),
			Priority:    priority,
		})
	}
	logger.Debug(map[string]any{"count": len(out)}, "parse_csv_list_done")
	return out, nil
}

// headerColumns reports whether rec is a header row and maps its known
// column names to indexes. A header must name itemId.
func headerColumns(rec []string) (map[string]int, bool) {
	cols := map[string]int{}
	for i, name := range rec {
		key := strings.ToLower(strings.ReplaceAll(strings.TrimSpace(name), "_", ""))
		if key == "id" {
			key = "itemid"
		}
		for _, known := range csvColumns {
			if key == known {
				cols[key] = i
			}
		}
	}
	_, ok := cols["itemid"]
	return cols, ok
}
