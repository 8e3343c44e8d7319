package httpapi

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/maegy2011/yt-sub000/internal/admission/common/log"
	"github.com/maegy2011/yt-sub000/internal/admission/domain"
	"github.com/maegy2011/yt-sub000/internal/admission/services/catalog"
	"github.com/maegy2011/yt-sub000/internal/admission/services/importer"
)

var t0 = time.Date(2025, 8, 1, 12, 0, 0, 0, time.UTC)

type fakeCatalog struct {
	err       error
	panicWith any

	lastList    domain.ListKind
	lastItem    catalog.ItemInput
	lastQuery   domain.ListQuery
	lastRemove  *domain.ItemType
	lastPattern catalog.PatternInput
	lastCat     catalog.CategoryInput
	lastID      string
}

func (f *fakeCatalog) AddItem(list domain.ListKind, in catalog.ItemInput) (domain.ListedItem, error) {
	if f.panicWith != nil {
		panic(f.panicWith)
	}
	f.lastList, f.lastItem = list, in
	if f.err != nil {
		return domain.ListedItem{}, f.err
	}
	return domain.NewListedItem(in.ItemID, in.Type, in.Title, in.ChannelName, in.Priority, "", t0)
}

func (f *fakeCatalog) RemoveItem(list domain.ListKind, itemID string, typ *domain.ItemType) (int, error) {
	f.lastList, f.lastID, f.lastRemove = list, itemID, typ
	return 1, f.err
}

func (f *fakeCatalog) ListItems(list domain.ListKind, q domain.ListQuery) (domain.Page, error) {
	f.lastList, f.lastQuery = list, q
	return domain.Page{Items: []domain.ListedItem{}, Page: 1, Limit: 20}, f.err
}

func (f *fakeCatalog) CreatePattern(in catalog.PatternInput) (domain.Pattern, error) {
	f.lastPattern = in
	if f.err != nil {
		return domain.Pattern{}, f.err
	}
	return domain.NewPattern(in.Pattern, in.Scope, in.Kind, in.Priority, in.Severity, in.CategoryID, t0)
}

func (f *fakeCatalog) GetPattern(id string) (domain.Pattern, error) {
	f.lastID = id
	return domain.Pattern{ID: id}, f.err
}

func (f *fakeCatalog) UpdatePattern(id string, in catalog.PatternInput) (domain.Pattern, error) {
	f.lastID, f.lastPattern = id, in
	return domain.Pattern{ID: id, Pattern: in.Pattern}, f.err
}

func (f *fakeCatalog) DeletePattern(id string) error { f.lastID = id; return f.err }

func (f *fakeCatalog) ListPatterns() ([]domain.Pattern, error) { return []domain.Pattern{}, f.err }

func (f *fakeCatalog) CreateCategory(in catalog.CategoryInput) (domain.Category, error) {
	f.lastCat = in
	return domain.Category{ID: "c1", Name: in.Name}, f.err
}

func (f *fakeCatalog) GetCategory(id string) (domain.Category, error) {
	f.lastID = id
	return domain.Category{ID: id}, f.err
}

func (f *fakeCatalog) UpdateCategory(id string, in catalog.CategoryInput) (domain.Category, error) {
	f.lastID, f.lastCat = id, in
	return domain.Category{ID: id, Name: in.Name}, f.err
}

func (f *fakeCatalog) DeleteCategory(id string) error { f.lastID = id; return f.err }

func (f *fakeCatalog) ListCategories() ([]domain.Category, error) { return []domain.Category{}, f.err }

type fakeImporter struct {
	err       error
	cancelErr error
	last      importer.Request
	batches   map[string]domain.Batch
	cancelled string
}

func (f *fakeImporter) StartImport(req importer.Request) (domain.Batch, error) {
	f.last = req
	if f.err != nil {
		return domain.Batch{}, f.err
	}
	return domain.NewBatch(req.Name, req.List, req.Source, len(req.Items), t0), nil
}

func (f *fakeImporter) Progress(id string) (domain.Batch, error) {
	b, ok := f.batches[id]
	if !ok {
		return domain.Batch{}, domain.NotFoundError("batch %s", id)
	}
	return b, nil
}

func (f *fakeImporter) Cancel(id string) error { f.cancelled = id; return f.cancelErr }

func (f *fakeImporter) List() ([]domain.Batch, error) {
	out := make([]domain.Batch, 0, len(f.batches))
	for _, b := range f.batches {
		out = append(out, b)
	}
	return out, nil
}

type fakeAdmission struct {
	got     []domain.ContentRecord
	cleared bool
	reset   bool
}

func (f *fakeAdmission) EvaluateAll(recs []domain.ContentRecord) []domain.FilterResult {
	f.got = recs
	out := make([]domain.FilterResult, len(recs))
	for i := range recs {
		out[i] = domain.AllowedResult()
	}
	return out
}

func (f *fakeAdmission) ClearCache()   { f.cleared = true }
func (f *fakeAdmission) ResetMetrics() { f.reset = true }

func (f *fakeAdmission) Metrics() domain.Metrics {
	return domain.Metrics{TotalRequests: 10, BlockedRequests: 3, WhitelistedRequests: 2, CacheHitRate: 0.5, ActiveRules: 4}
}

type fakePinger struct{ err error }

func (p fakePinger) Ping() error { return p.err }

type fixture struct {
	cat     *fakeCatalog
	imp     *fakeImporter
	adm     *fakeAdmission
	handler http.Handler
}

func newFixture(pingErr error) *fixture {
	f := &fixture{
		cat: &fakeCatalog{},
		imp: &fakeImporter{batches: map[string]domain.Batch{}},
		adm: &fakeAdmission{},
	}
	api := New(f.cat, f.imp, f.adm, fakePinger{pingErr}, WithLogger(log.NewNoopLogger()))
	f.handler = api.Router()
	return f
}

func (f *fixture) do(method, path, contentType, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	rr := httptest.NewRecorder()
	f.handler.ServeHTTP(rr, req)
	return rr
}

func decode[T any](t *testing.T, rr *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &v), rr.Body.String())
	return v
}

func TestHealth(t *testing.T) {
	rr := newFixture(nil).do(http.MethodGet, "/health", "", "")
	assert.Equal(t, http.StatusOK, rr.Code)
	assert.JSONEq(t, `{"status":"ok"}`, rr.Body.String())

	rr = newFixture(errors.New("db closed")).do(http.MethodGet, "/api/v1/health", "", "")
	assert.Equal(t, http.StatusServiceUnavailable, rr.Code)
}

func TestUnknownList(t *testing.T) {
	rr := newFixture(nil).do(http.MethodGet, "/api/v1/greylist", "", "")
	assert.Equal(t, http.StatusNotFound, rr.Code)
	assert.Equal(t, "NOT_FOUND", decode[errorResponse](t, rr).Error.Code)
}

func TestAddItem(t *testing.T) {
	f := newFixture(nil)
	rr := f.do(http.MethodPost, "/api/v1/whitelist", "application/json",
		`{"itemId":"UCabc","type":"channel","title":"A channel","priority":2,"extra":"ignored"}`)
	require.Equal(t, http.StatusCreated, rr.Code, rr.Body.String())
	assert.Equal(t, domain.Whitelist, f.cat.lastList)
	assert.Equal(t, domain.ItemChannel, f.cat.lastItem.Type)
	assert.Equal(t, 2, f.cat.lastItem.Priority)

	item := decode[domain.ListedItem](t, rr)
	assert.Equal(t, "UCabc", item.ItemID)
}

func TestAddItem_RequestValidation(t *testing.T) {
	f := newFixture(nil)

	rr := f.do(http.MethodPost, "/api/v1/blacklist", "application/json", `{"type":"video","priority":-1}`)
	require.Equal(t, http.StatusBadRequest, rr.Code)
	resp := decode[errorResponse](t, rr)
	assert.Equal(t, "VALIDATION_ERROR", resp.Error.Code)
	fields := map[string]bool{}
	for _, fe := range resp.Error.Fields {
		fields[fe.Field] = true
	}
	assert.Equal(t, map[string]bool{"itemId": true, "title": true, "priority": true}, fields)

	rr = f.do(http.MethodPost, "/api/v1/blacklist", "application/json", `{"itemId":"x","type":"podcast","title":"t"}`)
	assert.Equal(t, http.StatusBadRequest, rr.Code)

	rr = f.do(http.MethodPost, "/api/v1/blacklist", "application/json", `not json`)
	assert.Equal(t, http.StatusBadRequest, rr.Code)

	rr = f.do(http.MethodPost, "/api/v1/blacklist", "application/json", `{"itemId":"`+strings.Repeat("a", maxJSONBody)+`"}`)
	assert.Equal(t, http.StatusRequestEntityTooLarge, rr.Code)
}

func TestErrorMapping(t *testing.T) {
	cases := []struct {
		name string
		err  error
		code int
		kind string
	}{
		{"validation", domain.NewValidationError("itemId", "bad"), http.StatusBadRequest, "VALIDATION_ERROR"},
		{"conflict", domain.ConflictError("dup"), http.StatusConflict, "CONFLICT"},
		{"not found", domain.NotFoundError("gone"), http.StatusNotFound, "NOT_FOUND"},
		{"internal", errors.New("disk on fire"), http.StatusInternalServerError, "INTERNAL_ERROR"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			f := newFixture(nil)
			f.cat.err = tc.err
			rr := f.do(http.MethodPost, "/api/v1/blacklist", "application/json", `{"itemId":"abc","type":"video","title":"t"}`)
			assert.Equal(t, tc.code, rr.Code)
			resp := decode[errorResponse](t, rr)
			assert.Equal(t, tc.kind, resp.Error.Code)
			assert.NotEmpty(t, resp.Error.RequestID)
			assert.NotContains(t, resp.Error.Message, "disk on fire")
		})
	}
}

func TestPanicIsRecovered(t *testing.T) {
	f := newFixture(nil)
	f.cat.panicWith = "boom"
	rr := f.do(http.MethodPost, "/api/v1/blacklist", "application/json", `{"itemId":"abc","type":"video","title":"t"}`)
	assert.Equal(t, http.StatusInternalServerError, rr.Code)
}

func TestListItems_Query(t *testing.T) {
	f := newFixture(nil)
	rr := f.do(http.MethodGet, "/api/v1/blacklist?type=playlist&search=Foo&page=2&limit=50&sortBy=title&sortOrder=asc&batchId=b1", "", "")
	require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())

	q := f.cat.lastQuery
	require.NotNil(t, q.Type)
	assert.Equal(t, domain.ItemPlaylist, *q.Type)
	assert.Equal(t, "Foo", q.Search)
	assert.Equal(t, 2, q.Page)
	assert.Equal(t, 50, q.Limit)
	assert.Equal(t, domain.SortTitle, q.SortBy)
	assert.False(t, q.Descending)
	assert.Equal(t, "b1", q.BatchID)

	rr = f.do(http.MethodGet, "/api/v1/blacklist", "", "")
	require.Equal(t, http.StatusOK, rr.Code)
	assert.True(t, f.cat.lastQuery.Descending)
	assert.Equal(t, domain.SortAddedAt, f.cat.lastQuery.SortBy)

	rr = f.do(http.MethodGet, "/api/v1/blacklist?page=0&sortOrder=sideways&type=x&sortBy=color", "", "")
	require.Equal(t, http.StatusBadRequest, rr.Code)
	assert.Len(t, decode[errorResponse](t, rr).Error.Fields, 4)
}

func TestListItems_PageOutOfRange(t *testing.T) {
	f := newFixture(nil)
	rr := f.do(http.MethodGet, "/api/v1/blacklist?page=9223372036854775807", "", "")
	require.Equal(t, http.StatusBadRequest, rr.Code, rr.Body.String())
	fields := decode[errorResponse](t, rr).Error.Fields
	require.Len(t, fields, 1)
	assert.Equal(t, "page", fields[0].Field)

	rr = f.do(http.MethodGet, "/api/v1/blacklist?page=1000000&limit=1000001", "", "")
	require.Equal(t, http.StatusBadRequest, rr.Code)
	fields = decode[errorResponse](t, rr).Error.Fields
	require.Len(t, fields, 1)
	assert.Equal(t, "limit", fields[0].Field)
}

func TestRemoveItem(t *testing.T) {
	f := newFixture(nil)
	rr := f.do(http.MethodDelete, "/api/v1/blacklist/abc?type=channel", "", "")
	require.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, "abc", f.cat.lastID)
	require.NotNil(t, f.cat.lastRemove)
	assert.Equal(t, domain.ItemChannel, *f.cat.lastRemove)

	rr = f.do(http.MethodDelete, "/api/v1/whitelist/abc", "", "")
	require.Equal(t, http.StatusOK, rr.Code)
	assert.Nil(t, f.cat.lastRemove)

	f.cat.err = domain.NotFoundError("nope")
	rr = f.do(http.MethodDelete, "/api/v1/whitelist/abc", "", "")
	assert.Equal(t, http.StatusNotFound, rr.Code)
}

func TestBulkImport_JSON(t *testing.T) {
	f := newFixture(nil)
	rr := f.do(http.MethodPost, "/api/v1/blacklist/bulk-import", "application/json",
		`{"items":[{"itemId":"a","type":"video","title":"A"},{"itemId":"b","title":"B"}],"batchName":"nightly","chunkSize":50}`)
	require.Equal(t, http.StatusAccepted, rr.Code, rr.Body.String())

	resp := decode[map[string]any](t, rr)
	assert.Equal(t, true, resp["success"])
	assert.NotEmpty(t, resp["batchId"])

	req := f.imp.last
	assert.Equal(t, domain.Blacklist, req.List)
	assert.Equal(t, domain.SourceAPI, req.Source)
	assert.Equal(t, "nightly", req.Name)
	assert.Equal(t, 50, req.ChunkSize)
	assert.True(t, req.SkipDuplicates)
	assert.Len(t, req.Items, 2)

	rr = f.do(http.MethodPost, "/api/v1/blacklist/bulk-import", "application/json", `{"items":[{"itemId":"a","title":"A"}],"skipDuplicates":false}`)
	require.Equal(t, http.StatusAccepted, rr.Code)
	assert.False(t, f.imp.last.SkipDuplicates)

	rr = f.do(http.MethodPost, "/api/v1/blacklist/bulk-import", "application/json", `{"batchName":"x"}`)
	assert.Equal(t, http.StatusBadRequest, rr.Code)

	f.imp.err = domain.NewValidationError("items", "at most 50000 items per batch")
	rr = f.do(http.MethodPost, "/api/v1/blacklist/bulk-import", "application/json", `{"items":[]}`)
	assert.Equal(t, http.StatusBadRequest, rr.Code)

	f.imp.err = importer.ErrClosed
	rr = f.do(http.MethodPost, "/api/v1/blacklist/bulk-import", "application/json", `{"items":[{"itemId":"a","title":"A"}]}`)
	assert.Equal(t, http.StatusServiceUnavailable, rr.Code)
}

func TestBulkImport_PlainText(t *testing.T) {
	f := newFixture(nil)
	body := "# list\nchannel UCxyz Some Channel\nabcdefghijk\n"
	rr := f.do(http.MethodPost, "/api/v1/whitelist/bulk-import?type=video&batchName=file1&chunkSize=10&skipDuplicates=false", "text/plain; charset=utf-8", body)
	require.Equal(t, http.StatusAccepted, rr.Code, rr.Body.String())

	req := f.imp.last
	assert.Equal(t, domain.Whitelist, req.List)
	assert.Equal(t, domain.SourceFile, req.Source)
	assert.Equal(t, "file1", req.Name)
	assert.Equal(t, 10, req.ChunkSize)
	assert.False(t, req.SkipDuplicates)
	require.Len(t, req.Items, 2)
	assert.Equal(t, domain.ItemChannel, req.Items[0].Type)
	assert.Equal(t, domain.ItemVideo, req.Items[1].Type)

	rr = f.do(http.MethodPost, "/api/v1/whitelist/bulk-import?chunkSize=ten", "text/plain", body)
	assert.Equal(t, http.StatusBadRequest, rr.Code)
	rr = f.do(http.MethodPost, "/api/v1/whitelist/bulk-import?type=song", "text/plain", body)
	assert.Equal(t, http.StatusBadRequest, rr.Code)
}

func TestBulkImportCSV(t *testing.T) {
	f := newFixture(nil)
	body := "itemId,type,title\nUCabc,channel,Some channel\nPL123,,A playlist\n"
	rr := f.do(http.MethodPost, "/api/v1/blacklist/bulk-import?type=playlist&batchName=export", "text/csv", body)
	require.Equal(t, http.StatusAccepted, rr.Code, rr.Body.String())

	req := f.imp.last
	assert.Equal(t, domain.SourceFile, req.Source)
	assert.Equal(t, "export", req.Name)
	assert.True(t, req.SkipDuplicates)
	require.Len(t, req.Items, 2)
	assert.Equal(t, domain.ItemChannel, req.Items[0].Type)
	assert.Equal(t, "Some channel", req.Items[0].Title)
	assert.Equal(t, domain.ItemPlaylist, req.Items[1].Type)
}

func TestImportProgressAndCancel(t *testing.T) {
	f := newFixture(nil)
	done := domain.NewBatch("done", domain.Blacklist, domain.SourceAPI, 3, t0)
	require.NoError(t, done.Transition(domain.BatchProcessing, t0))
	done.ItemCount, done.SuccessCount = 3, 3
	require.NoError(t, done.Transition(domain.BatchCompleted, t0))
	running := domain.NewBatch("running", domain.Blacklist, domain.SourceFile, 3, t0)
	f.imp.batches[done.ID] = done
	f.imp.batches[running.ID] = running

	rr := f.do(http.MethodGet, "/api/v1/blacklist/bulk-import/progress/"+done.ID, "", "")
	require.Equal(t, http.StatusOK, rr.Code)
	snap := decode[map[string]any](t, rr)
	assert.Equal(t, true, snap["isComplete"])
	assert.Equal(t, "completed", snap["status"])
	assert.EqualValues(t, 3, snap["successCount"])

	rr = f.do(http.MethodGet, "/api/v1/whitelist/bulk-import/progress/"+done.ID, "", "")
	assert.Equal(t, http.StatusNotFound, rr.Code)
	rr = f.do(http.MethodGet, "/api/v1/blacklist/bulk-import/progress/missing", "", "")
	assert.Equal(t, http.StatusNotFound, rr.Code)

	rr = f.do(http.MethodDelete, "/api/v1/blacklist/bulk-import/"+running.ID, "", "")
	require.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, running.ID, f.imp.cancelled)

	f.imp.cancelErr = domain.ConflictError("already completed")
	rr = f.do(http.MethodDelete, "/api/v1/blacklist/bulk-import/"+done.ID, "", "")
	assert.Equal(t, http.StatusConflict, rr.Code)

	rr = f.do(http.MethodGet, "/api/v1/batches", "", "")
	require.Equal(t, http.StatusOK, rr.Code)
	assert.Len(t, decode[[]map[string]any](t, rr), 2)
}

func TestPatterns(t *testing.T) {
	f := newFixture(nil)
	rr := f.do(http.MethodPost, "/api/v1/patterns", "application/json",
		`{"pattern":"ads*","scope":"channel","kind":"wildcard","severity":"critical","priority":3,"expiresAt":"2026-01-01T00:00:00Z","isActive":false}`)
	require.Equal(t, http.StatusCreated, rr.Code, rr.Body.String())
	in := f.cat.lastPattern
	assert.Equal(t, domain.ScopeChannel, in.Scope)
	assert.Equal(t, domain.PatternWildcard, in.Kind)
	assert.Equal(t, domain.SeverityCritical, in.Severity)
	require.NotNil(t, in.ExpiresAt)
	require.NotNil(t, in.IsActive)
	assert.False(t, *in.IsActive)

	rr = f.do(http.MethodPost, "/api/v1/patterns", "application/json", `{"pattern":"x","kind":"fuzzy"}`)
	assert.Equal(t, http.StatusBadRequest, rr.Code)
	rr = f.do(http.MethodPost, "/api/v1/patterns", "application/json", `{"pattern":"x","priority":1001}`)
	assert.Equal(t, http.StatusBadRequest, rr.Code)

	rr = f.do(http.MethodGet, "/api/v1/patterns/p1", "", "")
	require.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, "p1", f.cat.lastID)

	rr = f.do(http.MethodPut, "/api/v1/patterns/p2", "application/json", `{"pattern":"new"}`)
	require.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, "p2", f.cat.lastID)
	assert.Equal(t, "new", f.cat.lastPattern.Pattern)

	rr = f.do(http.MethodDelete, "/api/v1/patterns/p3", "", "")
	require.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, "p3", f.cat.lastID)

	rr = f.do(http.MethodGet, "/api/v1/patterns", "", "")
	require.Equal(t, http.StatusOK, rr.Code)
	assert.JSONEq(t, `[]`, rr.Body.String())
}

func TestCategories(t *testing.T) {
	f := newFixture(nil)
	rr := f.do(http.MethodPost, "/api/v1/categories", "application/json", `{"name":"Kids","color":"#ff0000","allowList":true,"parentId":"root"}`)
	require.Equal(t, http.StatusCreated, rr.Code, rr.Body.String())
	assert.True(t, f.cat.lastCat.AllowList)
	assert.Equal(t, "root", f.cat.lastCat.ParentID)

	rr = f.do(http.MethodPost, "/api/v1/categories", "application/json", `{"name":"Kids","color":"red"}`)
	require.Equal(t, http.StatusBadRequest, rr.Code)
	assert.Equal(t, "color", decode[errorResponse](t, rr).Error.Fields[0].Field)

	f.cat.err = domain.NewValidationError("isActive", "system categories cannot be deactivated")
	rr = f.do(http.MethodPut, "/api/v1/categories/sys", "application/json", `{"name":"general","isActive":false}`)
	assert.Equal(t, http.StatusBadRequest, rr.Code)
	assert.Equal(t, "sys", f.cat.lastID)

	f.cat.err = nil
	rr = f.do(http.MethodGet, "/api/v1/categories/c9", "", "")
	assert.Equal(t, http.StatusOK, rr.Code)
	rr = f.do(http.MethodDelete, "/api/v1/categories/c9", "", "")
	assert.Equal(t, http.StatusOK, rr.Code)
	rr = f.do(http.MethodGet, "/api/v1/categories", "", "")
	assert.Equal(t, http.StatusOK, rr.Code)
}

func TestContentFilter(t *testing.T) {
	f := newFixture(nil)
	rr := f.do(http.MethodPost, "/api/v1/content-filter", "application/json",
		`{"items":[{"itemId":"abc","type":"video","title":"hello","tags":["a","b"],"thumbnail":"ignored"}]}`)
	require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())
	require.Len(t, f.adm.got, 1)
	assert.Equal(t, []string{"a", "b"}, f.adm.got[0].Tags)

	results := decode[[]map[string]any](t, rr)
	require.Len(t, results, 1)
	assert.Equal(t, true, results[0]["allowed"])
	assert.Equal(t, "none", results[0]["matchedBy"])

	rr = f.do(http.MethodPost, "/api/v1/content-filter", "application/json", `{"items":[]}`)
	assert.Equal(t, http.StatusBadRequest, rr.Code)

	many := strings.TrimSuffix(strings.Repeat(`{"itemId":"a","title":"t"},`, 1001), ",")
	rr = f.do(http.MethodPost, "/api/v1/content-filter", "application/json", `{"items":[`+many+`]}`)
	assert.Equal(t, http.StatusBadRequest, rr.Code)
}

func TestMetricsEndpoints(t *testing.T) {
	f := newFixture(nil)

	rr := f.do(http.MethodGet, "/api/v1/content-filter", "", "")
	require.Equal(t, http.StatusOK, rr.Code)
	assert.JSONEq(t, `{"totalRequests":10,"blockedRequests":3,"whitelistedRequests":2}`, rr.Body.String())

	rr = f.do(http.MethodGet, "/api/v1/content-filter?details=true", "", "")
	require.Equal(t, http.StatusOK, rr.Code)
	m := decode[domain.Metrics](t, rr)
	assert.Equal(t, 4, m.ActiveRules)
	assert.InDelta(t, 0.5, m.CacheHitRate, 1e-9)

	rr = f.do(http.MethodDelete, "/api/v1/content-filter", "", "")
	require.Equal(t, http.StatusOK, rr.Code)
	assert.True(t, f.adm.cleared)
	assert.False(t, f.adm.reset)

	rr = f.do(http.MethodDelete, "/api/v1/content-filter/metrics", "", "")
	require.Equal(t, http.StatusOK, rr.Code)
	assert.True(t, f.adm.reset)
}
