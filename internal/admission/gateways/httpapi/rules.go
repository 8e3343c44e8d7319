package httpapi

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/maegy2011/yt-sub000/internal/admission/domain"
	"github.com/maegy2011/yt-sub000/internal/admission/services/catalog"
)

type patternRequest struct {
	Pattern    string             `json:"pattern" validate:"required,max=1000"`
	Scope      domain.Scope       `json:"scope"`
	Kind       domain.PatternKind `json:"kind"`
	Priority   int                `json:"priority" validate:"gte=0,lte=1000"`
	Severity   domain.Severity    `json:"severity"`
	CategoryID string             `json:"categoryId" validate:"max=64"`
	IsActive   *bool              `json:"isActive"`
	ExpiresAt  *time.Time         `json:"expiresAt"`
}

func (p patternRequest) input() catalog.PatternInput {
	return catalog.PatternInput{
		Pattern:    p.Pattern,
		Scope:      p.Scope,
		Kind:       p.Kind,
		Priority:   p.Priority,
		Severity:   p.Severity,
		CategoryID: p.CategoryID,
		IsActive:   p.IsActive,
		ExpiresAt:  p.ExpiresAt,
	}
}

type categoryRequest struct {
	Name      string `json:"name" validate:"required,max=100"`
	Color     string `json:"color" validate:"omitempty,hexcolor"`
	Priority  int    `json:"priority" validate:"gte=0"`
	ParentID  string `json:"parentId" validate:"max=64"`
	AllowList bool   `json:"allowList"`
	IsActive  *bool  `json:"isActive"`
}

func (c categoryRequest) input() catalog.CategoryInput {
	return catalog.CategoryInput{
		Name:      c.Name,
		Color:     c.Color,
		Priority:  c.Priority,
		ParentID:  c.ParentID,
		AllowList: c.AllowList,
		IsActive:  c.IsActive,
	}
}

func (a *API) handleListPatterns(w http.ResponseWriter, r *http.Request) {
	all, err := a.catalog.ListPatterns()
	if err != nil {
		a.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, all)
}

func (a *API) handleCreatePattern(w http.ResponseWriter, r *http.Request) {
	var req patternRequest
	if !a.decodeJSON(w, r, maxJSONBody, &req) {
		return
	}
	p, err := a.catalog.CreatePattern(req.input())
	if err != nil {
		a.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, p)
}

func (a *API) handleGetPattern(w http.ResponseWriter, r *http.Request) {
	p, err := a.catalog.GetPattern(chi.URLParam(r, "id"))
	if err != nil {
		a.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, p)
}

func (a *API) handleUpdatePattern(w http.ResponseWriter, r *http.Request) {
	var req patternRequest
	if !a.decodeJSON(w, r, maxJSONBody, &req) {
		return
	}
	p, err := a.catalog.UpdatePattern(chi.URLParam(r, "id"), req.input())
	if err != nil {
		a.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, p)
}

func (a *API) handleDeletePattern(w http.ResponseWriter, r *http.Request) {
	if err := a.catalog.DeletePattern(chi.URLParam(r, "id")); err != nil {
		a.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]bool{"success": true})
}

func (a *API) handleListCategories(w http.ResponseWriter, r *http.Request) {
	all, err := a.catalog.ListCategories()
	if err != nil {
		a.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, all)
}

func (a *API) handleCreateCategory(w http.ResponseWriter, r *http.Request) {
	var req categoryRequest
	if !a.decodeJSON(w, r, maxJSONBody, &req) {
		return
	}
	c, err := a.catalog.CreateCategory(req.input())
	if err != nil {
		a.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, c)
}

func (a *API) handleGetCategory(w http.ResponseWriter, r *http.Request) {
	c, err := a.catalog.GetCategory(chi.URLParam(r, "id"))
	if err != nil {
		a.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, c)
}

func (a *API) handleUpdateCategory(w http.ResponseWriter, r *http.Request) {
	var req categoryRequest
	if !a.decodeJSON(w, r, maxJSONBody, &req) {
		return
	}
	c, err := a.catalog.UpdateCategory(chi.URLParam(r, "id"), req.input())
	if err != nil {
		a.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, c)
}

func (a *API) handleDeleteCategory(w http.ResponseWriter, r *http.Request) {
	if err := a.catalog.DeleteCategory(chi.URLParam(r, "id")); err != nil {
		a.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]bool{"success": true})
}
