package httpapi

import (
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/maegy2011/yt-sub000/internal/admission/domain"
	"github.com/maegy2011/yt-sub000/internal/admission/services/catalog"
)

type itemRequest struct {
	ItemID      string          `json:"itemId" validate:"required,max=2048"`
	Type        domain.ItemType `json:"type"`
	Title       string          `json:"title" validate:"required,max=500"`
	ChannelName string          `json:"channelName" validate:"max=200"`
	Priority    int             `json:"priority" validate:"gte=0"`
}

func (a *API) handleListItems(w http.ResponseWriter, r *http.Request) {
	q, err := parseListQuery(r.URL.Query())
	if err != nil {
		a.writeError(w, r, err)
		return
	}
	page, err := a.catalog.ListItems(listFrom(r.Context()), q)
	if err != nil {
		a.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, page)
}

func (a *API) handleAddItem(w http.ResponseWriter, r *http.Request) {
	var req itemRequest
	if !a.decodeJSON(w, r, maxJSONBody, &req) {
		return
	}
	it, err := a.catalog.AddItem(listFrom(r.Context()), catalog.ItemInput{
		ItemID:      req.ItemID,
		Type:        req.Type,
		Title:       req.Title,
		ChannelName: req.ChannelName,
		Priority:    req.Priority,
	})
	if err != nil {
		a.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, it)
}

// handleRemoveItem deletes by itemId; without ?type= every type with that
// id is removed.
func (a *API) handleRemoveItem(w http.ResponseWriter, r *http.Request) {
	itemID, err := url.PathUnescape(chi.URLParam(r, "itemId"))
	if err != nil {
		badRequest(w, r, "invalid itemId: %v", err)
		return
	}
	var typ *domain.ItemType
	if raw := r.URL.Query().Get("type"); raw != "" {
		t, err := domain.ParseItemType(raw)
		if err != nil {
			a.writeError(w, r, domain.NewValidationError("type", err.Error()))
			return
		}
		typ = &t
	}
	n, err := a.catalog.RemoveItem(listFrom(r.Context()), itemID, typ)
	if err != nil {
		a.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"success": true, "removed": n})
}

func parseListQuery(v url.Values) (domain.ListQuery, error) {
	verr := &domain.ValidationError{}
	q := domain.ListQuery{
		Search:  v.Get("search"),
		BatchID: strings.TrimSpace(v.Get("batchId")),
	}
	if raw := v.Get("type"); raw != "" {
		t, err := domain.ParseItemType(raw)
		if err != nil {
			verr.Add("type", err.Error())
		} else {
			q.Type = &t
		}
	}
	sortBy, err := domain.ParseSortField(v.Get("sortBy"))
	if err != nil {
		verr.Add("sortBy", err.Error())
	}
	q.SortBy = sortBy
	switch strings.ToLower(v.Get("sortOrder")) {
	case "", "desc":
		q.Descending = true
	case "asc":
	default:
		verr.Add("sortOrder", "must be asc or desc")
	}
	q.Page = intParam(v, "page", verr)
	q.Limit = intParam(v, "limit", verr)
	return q, verr.OrNil()
}

const maxIntParam = 1_000_000

func intParam(v url.Values, key string, verr *domain.ValidationError) int {
	raw := v.Get(key)
	if raw == "" {
		return 0
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n < 1 || n > maxIntParam {
		verr.Add(key, fmt.Sprintf("must be an integer between 1 and %d", maxIntParam))
		return 0
	}
	return n
}
