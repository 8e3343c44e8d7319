// Package httpapi exposes the admission engine over HTTP/JSON under /api/v1.
package httpapi

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-playground/validator/v10"

	"github.com/maegy2011/yt-sub000/internal/admission/common/log"
	"github.com/maegy2011/yt-sub000/internal/admission/domain"
	"github.com/maegy2011/yt-sub000/internal/admission/services/catalog"
	"github.com/maegy2011/yt-sub000/internal/admission/services/importer"
)

// Catalog is the CRUD surface over lists, patterns and categories.
type Catalog interface {
	AddItem(list domain.ListKind, in catalog.ItemInput) (domain.ListedItem, error)
	RemoveItem(list domain.ListKind, itemID string, typ *domain.ItemType) (int, error)
	ListItems(list domain.ListKind, q domain.ListQuery) (domain.Page, error)

	CreatePattern(in catalog.PatternInput) (domain.Pattern, error)
	GetPattern(id string) (domain.Pattern, error)
	UpdatePattern(id string, in catalog.PatternInput) (domain.Pattern, error)
	DeletePattern(id string) error
	ListPatterns() ([]domain.Pattern, error)

	CreateCategory(in catalog.CategoryInput) (domain.Category, error)
	GetCategory(id string) (domain.Category, error)
	UpdateCategory(id string, in catalog.CategoryInput) (domain.Category, error)
	DeleteCategory(id string) error
	ListCategories() ([]domain.Category, error)
}

// Importer runs bulk imports in the background.
type Importer interface {
	StartImport(req importer.Request) (domain.Batch, error)
	Progress(batchID string) (domain.Batch, error)
	Cancel(batchID string) error
	List() ([]domain.Batch, error)
}

// Admission evaluates content and owns the decision metrics.
type Admission interface {
	EvaluateAll(recs []domain.ContentRecord) []domain.FilterResult
	ClearCache()
	Metrics() domain.Metrics
	ResetMetrics()
}

// Pinger reports store health.
type Pinger interface {
	Ping() error
}

const (
	maxJSONBody   = 1 << 20
	maxImportBody = 32 << 20
)

type API struct {
	catalog   Catalog
	imports   Importer
	admission Admission
	health    Pinger
	validate  *validator.Validate
	logger    log.Logger
	timeout   time.Duration
}

type Option func(*API)

func WithLogger(l log.Logger) Option { return func(a *API) { a.logger = l } }

// WithRequestTimeout bounds handler time through chi's Timeout middleware.
func WithRequestTimeout(d time.Duration) Option { return func(a *API) { a.timeout = d } }

func New(cat Catalog, imports Importer, admission Admission, health Pinger, opts ...Option) *API {
	a := &API{
		catalog:   cat,
		imports:   imports,
		admission: admission,
		health:    health,
		validate:  newValidator(),
		logger:    log.GetLogger(),
		timeout:   30 * time.Second,
	}
	for _, o := range opts {
		o(a)
	}
	return a
}

// Router builds the chi route tree.
func (a *API) Router() http.Handler {
	r := chi.NewRouter()

	r.Use(chimiddleware.RequestID)
	r.Use(chimiddleware.RealIP)
	r.Use(a.requestLogger)
	r.Use(a.recoverer)
	r.Use(chimiddleware.Timeout(a.timeout))

	r.Get("/health", a.handleHealth)

	r.Route("/api/v1", func(r chi.Router) {
		r.Get("/health", a.handleHealth)
		r.Get("/batches", a.handleListBatches)

		r.Route("/patterns", func(r chi.Router) {
			r.Get("/", a.handleListPatterns)
			r.Post("/", a.handleCreatePattern)
			r.Get("/{id}", a.handleGetPattern)
			r.Put("/{id}", a.handleUpdatePattern)
			r.Delete("/{id}", a.handleDeletePattern)
		})

		r.Route("/categories", func(r chi.Router) {
			r.Get("/", a.handleListCategories)
			r.Post("/", a.handleCreateCategory)
			r.Get("/{id}", a.handleGetCategory)
			r.Put("/{id}", a.handleUpdateCategory)
			r.Delete("/{id}", a.handleDeleteCategory)
		})

		r.Route("/content-filter", func(r chi.Router) {
			r.Post("/", a.handleFilter)
			r.Get("/", a.handleMetrics)
			r.Delete("/", a.handleClearCache)
			r.Delete("/metrics", a.handleResetMetrics)
		})

		r.Route("/{list}", func(r chi.Router) {
			r.Use(a.listParam)
			r.Get("/", a.handleListItems)
			r.Post("/", a.handleAddItem)
			r.Delete("/{itemId}", a.handleRemoveItem)
			r.Post("/bulk-import", a.handleBulkImport)
			r.Get("/bulk-import/progress/{batchId}", a.handleImportProgress)
			r.Delete("/bulk-import/{batchId}", a.handleCancelImport)
		})
	})
	return r
}

func (a *API) handleHealth(w http.ResponseWriter, r *http.Request) {
	if err := a.health.Ping(); err != nil {
		a.logger.Error(map[string]any{"error": err}, "health_check_failed")
		writeJSON(w, http.StatusServiceUnavailable, map[string]string{"status": "unavailable"})
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}
