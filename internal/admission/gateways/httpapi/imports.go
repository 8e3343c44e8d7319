package httpapi

import (
	"errors"
	"io"
	"mime"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/maegy2011/yt-sub000/internal/admission/common/log"
	"github.com/maegy2011/yt-sub000/internal/admission/domain"
	"github.com/maegy2011/yt-sub000/internal/admission/repos/parsers"
	"github.com/maegy2011/yt-sub000/internal/admission/services/importer"
)

var fileParsers = map[string]func(io.Reader, domain.ItemType, log.Logger) ([]domain.ImportItem, error){
	"text/plain": parsers.ParsePlainList,
	"text/csv":   parsers.ParseCSVList,
}

type importRequest struct {
	Items          []domain.ImportItem `json:"items" validate:"required"`
	BatchName      string              `json:"batchName" validate:"max=200"`
	ChunkSize      int                 `json:"chunkSize" validate:"gte=0"`
	SkipDuplicates *bool               `json:"skipDuplicates"`
}

type batchResponse struct {
	domain.Batch
	IsComplete bool `json:"isComplete"`
}

func toBatchResponse(b domain.Batch) batchResponse {
	return batchResponse{Batch: b, IsComplete: b.IsComplete()}
}

// handleBulkImport accepts a JSON body, a text/plain list file or a
// text/csv export. For files, batchName, chunkSize, skipDuplicates and the
// default type come from the query string.
func (a *API) handleBulkImport(w http.ResponseWriter, r *http.Request) {
	req := importer.Request{
		List:           listFrom(r.Context()),
		SkipDuplicates: true,
	}

	mediaType, _, _ := mime.ParseMediaType(r.Header.Get("Content-Type"))
	if parse, ok := fileParsers[mediaType]; ok {
		q := r.URL.Query()
		defaultType := domain.ItemVideo
		if raw := q.Get("type"); raw != "" {
			t, err := domain.ParseItemType(raw)
			if err != nil {
				a.writeError(w, r, domain.NewValidationError("type", err.Error()))
				return
			}
			defaultType = t
		}
		items, err := parse(http.MaxBytesReader(w, r.Body, maxImportBody), defaultType, a.logger)
		if err != nil {
			var tooBig *http.MaxBytesError
			if errors.As(err, &tooBig) {
				writeJSON(w, http.StatusRequestEntityTooLarge, errorResp("PAYLOAD_TOO_LARGE", err.Error(), r))
				return
			}
			badRequest(w, r, "invalid list file: %v", err)
			return
		}
		req.Source = domain.SourceFile
		req.Items = items
		req.Name = q.Get("batchName")
		if raw := q.Get("chunkSize"); raw != "" {
			n, err := strconv.Atoi(raw)
			if err != nil {
				a.writeError(w, r, domain.NewValidationError("chunkSize", "must be an integer"))
				return
			}
			req.ChunkSize = n
		}
		if raw := q.Get("skipDuplicates"); raw != "" {
			skip, err := strconv.ParseBool(raw)
			if err != nil {
				a.writeError(w, r, domain.NewValidationError("skipDuplicates", "must be a boolean"))
				return
			}
			req.SkipDuplicates = skip
		}
	} else {
		var body importRequest
		if !a.decodeJSON(w, r, maxImportBody, &body) {
			return
		}
		req.Source = domain.SourceAPI
		req.Items = body.Items
		req.Name = body.BatchName
		req.ChunkSize = body.ChunkSize
		if body.SkipDuplicates != nil {
			req.SkipDuplicates = *body.SkipDuplicates
		}
	}

	batch, err := a.imports.StartImport(req)
	if err != nil {
		a.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusAccepted, map[string]any{"success": true, "batchId": batch.ID})
}

func (a *API) handleImportProgress(w http.ResponseWriter, r *http.Request) {
	b, err := a.batchOnList(r)
	if err != nil {
		a.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toBatchResponse(b))
}

func (a *API) handleCancelImport(w http.ResponseWriter, r *http.Request) {
	b, err := a.batchOnList(r)
	if err != nil {
		a.writeError(w, r, err)
		return
	}
	if err := a.imports.Cancel(b.ID); err != nil {
		a.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"success": true, "batchId": b.ID})
}

// batchOnList loads {batchId} and hides batches that belong to the other list.
func (a *API) batchOnList(r *http.Request) (domain.Batch, error) {
	id := chi.URLParam(r, "batchId")
	b, err := a.imports.Progress(id)
	if err != nil {
		return domain.Batch{}, err
	}
	if b.List != listFrom(r.Context()) {
		return domain.Batch{}, domain.NotFoundError("batch %s", id)
	}
	return b, nil
}

func (a *API) handleListBatches(w http.ResponseWriter, r *http.Request) {
	all, err := a.imports.List()
	if err != nil {
		a.writeError(w, r, err)
		return
	}
	out := make([]batchResponse, 0, len(all))
	for _, b := range all {
		out = append(out, toBatchResponse(b))
	}
	writeJSON(w, http.StatusOK, out)
}
