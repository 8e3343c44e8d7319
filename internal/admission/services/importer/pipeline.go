// Package importer runs bulk imports of identifier lists.
//
// StartImport validates the request up front, persists a pending Batch and
// returns; one goroutine per batch then walks the items chunk by chunk.
// Counters are persisted after every chunk so callers can poll progress.
// Batches run concurrently up to a limit, each strictly sequential.
package importer

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"sync/atomic"

	"github.com/samber/lo"
	"golang.org/x/sync/semaphore"

	"github.com/maegy2011/yt-sub000/internal/admission/common/clock"
	"github.com/maegy2011/yt-sub000/internal/admission/common/log"
	"github.com/maegy2011/yt-sub000/internal/admission/domain"
)

// ItemWriter commits one chunk to an identifier list.
type ItemWriter interface {
	PutChunk(list domain.ListKind, items []domain.ListedItem, skipDuplicates bool) (domain.ChunkResult, error)
}

// BatchStore persists batch snapshots.
type BatchStore interface {
	PutBatch(b domain.Batch) error
	GetBatch(id string) (domain.Batch, error)
	ListBatches() ([]domain.Batch, error)
}

// Config bounds the pipeline.
type Config struct {
	MaxItems         int
	DefaultChunkSize int
	MaxChunkSize     int
	MaxConcurrent    int
}

var DefaultConfig = Config{
	MaxItems:         50_000,
	DefaultChunkSize: 100,
	MaxChunkSize:     1_000,
	MaxConcurrent:    4,
}

// ErrClosed is returned by StartImport after Shutdown.
var ErrClosed = errors.New("import pipeline is shut down")

// Request is one bulk import.
type Request struct {
	List           domain.ListKind
	Source         domain.BatchSource
	Name           string
	Items          []domain.ImportItem
	ChunkSize      int
	SkipDuplicates bool
}

type job struct {
	batchID   string
	ctx       context.Context
	cancel    context.CancelFunc
	cancelled atomic.Bool
}

// Pipeline owns the lifecycle of every batch it starts.
type Pipeline struct {
	writer   ItemWriter
	batches  BatchStore
	cfg      Config
	clock    clock.Clock
	logger   log.Logger
	onCommit func()

	sem    *semaphore.Weighted
	root   context.Context
	stop   context.CancelFunc
	wg     sync.WaitGroup
	mu     sync.Mutex
	jobs   map[string]*job
	closed bool
}

type Option func(*Pipeline)

func WithClock(c clock.Clock) Option { return func(p *Pipeline) { p.clock = c } }

func WithLogger(l log.Logger) Option { return func(p *Pipeline) { p.logger = l } }

// WithOnCommit registers a hook run after a chunk changed the list, e.g. to
// invalidate cached decisions.
func WithOnCommit(fn func()) Option { return func(p *Pipeline) { p.onCommit = fn } }

func New(writer ItemWriter, batches BatchStore, cfg Config, opts ...Option) *Pipeline {
	if cfg.MaxItems <= 0 {
		cfg.MaxItems = DefaultConfig.MaxItems
	}
	if cfg.DefaultChunkSize <= 0 {
		cfg.DefaultChunkSize = DefaultConfig.DefaultChunkSize
	}
	if cfg.MaxChunkSize <= 0 {
		cfg.MaxChunkSize = DefaultConfig.MaxChunkSize
	}
	if cfg.MaxConcurrent <= 0 {
		cfg.MaxConcurrent = DefaultConfig.MaxConcurrent
	}
	root, stop := context.WithCancel(context.Background())
	p := &Pipeline{
		writer:   writer,
		batches:  batches,
		cfg:      cfg,
		clock:    clock.RealClock{},
		logger:   log.GetLogger(),
		onCommit: func() {},
		sem:      semaphore.NewWeighted(int64(cfg.MaxConcurrent)),
		root:     root,
		stop:     stop,
		jobs:     map[string]*job{},
	}
	for _, o := range opts {
		o(p)
	}
	return p
}

// StartImport validates req, persists a pending batch and starts processing
// in the background. Oversized or empty requests are rejected whole.
func (p *Pipeline) StartImport(req Request) (domain.Batch, error) {
	chunkSize := req.ChunkSize
	if chunkSize == 0 {
		chunkSize = p.cfg.DefaultChunkSize
	}
	verr := &domain.ValidationError{}
	switch {
	case len(req.Items) == 0:
		verr.Add("items", "must not be empty")
	case len(req.Items) > p.cfg.MaxItems:
		verr.Add("items", fmt.Sprintf("at most %d items per batch, got %d", p.cfg.MaxItems, len(req.Items)))
	}
	if chunkSize < 1 || chunkSize > p.cfg.MaxChunkSize {
		verr.Add("chunkSize", fmt.Sprintf("must be between 1 and %d", p.cfg.MaxChunkSize))
	}
	if err := verr.OrNil(); err != nil {
		return domain.Batch{}, err
	}

	p.mu.Lock()
	defer p.mu.Unlock()
	if p.closed {
		return domain.Batch{}, ErrClosed
	}

	batch := domain.NewBatch(req.Name, req.List, req.Source, len(req.Items), p.clock.Now())
	if err := p.batches.PutBatch(batch); err != nil {
		return domain.Batch{}, fmt.Errorf("persist batch: %w", err)
	}

	ctx, cancel := context.WithCancel(p.root)
	j := &job{batchID: batch.ID, ctx: ctx, cancel: cancel}
	p.jobs[batch.ID] = j
	p.wg.Add(1)

	items := append([]domain.ImportItem(nil), req.Items...)
	go p.run(j, batch, items, chunkSize, req.SkipDuplicates)

	p.logger.Info(map[string]any{
		"batchId":   batch.ID,
		"list":      req.List.String(),
		"source":    req.Source.String(),
		"items":     len(items),
		"chunkSize": chunkSize,
	}, "import_started")
	return batch, nil
}

// Progress returns the latest persisted snapshot of a batch.
func (p *Pipeline) Progress(batchID string) (domain.Batch, error) {
	return p.batches.GetBatch(batchID)
}

// List returns every batch, newest first.
func (p *Pipeline) List() ([]domain.Batch, error) {
	return p.batches.ListBatches()
}

// Cancel asks a running batch to stop before its next chunk. Items already
// committed stay. Cancelling a finished batch is a ConflictError.
func (p *Pipeline) Cancel(batchID string) error {
	b, err := p.batches.GetBatch(batchID)
	if err != nil {
		return err
	}
	if b.Status.IsTerminal() {
		return domain.ConflictError("batch %s is already %s", batchID, b.Status)
	}
	p.mu.Lock()
	j, ok := p.jobs[batchID]
	p.mu.Unlock()
	if !ok {
		return domain.ConflictError("batch %s is not running in this process", batchID)
	}
	j.cancelled.Store(true)
	j.cancel()
	p.logger.Info(map[string]any{"batchId": batchID}, "import_cancel_requested")
	return nil
}

// Shutdown stops accepting imports, interrupts running batches (they end
// failed) and waits for them until ctx is done.
func (p *Pipeline) Shutdown(ctx context.Context) error {
	p.mu.Lock()
	p.closed = true
	p.mu.Unlock()
	p.stop()

	done := make(chan struct{})
	go func() {
		p.wg.Wait()
		close(done)
	}()
	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// RecoverInterrupted marks batches left pending or processing by a previous
// process as failed. It returns how many it marked.
func (p *Pipeline) RecoverInterrupted() (int, error) {
	all, err := p.batches.ListBatches()
	if err != nil {
		return 0, err
	}
	n := 0
	for _, b := range all {
		if b.Status.IsTerminal() {
			continue
		}
		p.mu.Lock()
		_, live := p.jobs[b.ID]
		p.mu.Unlock()
		if live {
			continue
		}
		b.Error = "interrupted by restart"
		if err := b.Transition(domain.BatchFailed, p.clock.Now()); err != nil {
			return n, err
		}
		if err := p.batches.PutBatch(b); err != nil {
			return n, err
		}
		n++
	}
	if n > 0 {
		p.logger.Warn(map[string]any{"batches": n}, "import_recovered_interrupted")
	}
	return n, nil
}

func (p *Pipeline) run(j *job, batch domain.Batch, items []domain.ImportItem, chunkSize int, skipDuplicates bool) {
	defer p.wg.Done()
	defer func() {
		p.mu.Lock()
		delete(p.jobs, j.batchID)
		p.mu.Unlock()
		j.cancel()
	}()

	if err := p.sem.Acquire(j.ctx, 1); err != nil {
		p.stopEarly(j, &batch)
		return
	}
	defer p.sem.Release(1)

	list := batch.List
	for i, chunk := range lo.Chunk(items, chunkSize) {
		if j.ctx.Err() != nil {
			p.stopEarly(j, &batch)
			return
		}
		if i == 0 {
			if err := batch.Transition(domain.BatchProcessing, p.clock.Now()); err != nil {
				p.fail(&batch, err)
				return
			}
			if err := p.batches.PutBatch(batch); err != nil {
				p.fail(&batch, err)
				return
			}
		}

		valid, invalid := p.prepare(batch.ID, chunk)
		var res domain.ChunkResult
		if len(valid) > 0 {
			var err error
			if res, err = p.writer.PutChunk(list, valid, skipDuplicates); err != nil {
				p.fail(&batch, err)
				return
			}
		}
		if res.Inserted+res.Updated > 0 {
			p.onCommit()
		}

		batch.ItemCount += len(chunk)
		batch.SuccessCount += res.Written()
		batch.ErrorCount += invalid + len(valid) - res.Written()
		batch.SkippedCount += res.Skipped
		batch.UpdatedAt = p.clock.Now()
		if err := p.batches.PutBatch(batch); err != nil {
			p.fail(&batch, err)
			return
		}
		p.logger.Debug(map[string]any{
			"batchId":   batch.ID,
			"chunk":     i,
			"processed": batch.ItemCount,
			"success":   batch.SuccessCount,
			"errors":    batch.ErrorCount,
		}, "import_chunk_done")
	}

	next := domain.BatchCompleted
	if batch.ErrorCount >= batch.ItemCount {
		next = domain.BatchFailed
		batch.Error = "no item could be imported"
	}
	p.finish(&batch, next)
}

// prepare validates and resolves one chunk. Invalid items are counted, never
// fatal.
func (p *Pipeline) prepare(batchID string, chunk []domain.ImportItem) ([]domain.ListedItem, int) {
	now := p.clock.Now()
	valid := make([]domain.ListedItem, 0, len(chunk))
	invalid := 0
	for _, in := range chunk {
		id, ok := domain.ResolveItemID(in.ItemID, in.Type)
		if !ok {
			invalid++
			p.logger.Debug(map[string]any{"batchId": batchID, "itemId": in.ItemID, "type": in.Type.String()}, "import_item_unresolvable")
			continue
		}
		it, err := domain.NewListedItem(id, in.Type, strings.TrimSpace(in.Title), in.ChannelName, in.Priority, batchID, now)
		if err != nil {
			invalid++
			p.logger.Debug(map[string]any{"batchId": batchID, "itemId": in.ItemID, "error": err}, "import_item_invalid")
			continue
		}
		valid = append(valid, it)
	}
	return valid, invalid
}

// stopEarly ends a batch whose context was cancelled: cancelled when the
// operator asked, failed when the pipeline is shutting down.
func (p *Pipeline) stopEarly(j *job, b *domain.Batch) {
	if j.cancelled.Load() {
		p.finish(b, domain.BatchCancelled)
		return
	}
	b.Error = "interrupted by shutdown"
	p.finish(b, domain.BatchFailed)
}

// fail aborts the batch on a store failure.
func (p *Pipeline) fail(b *domain.Batch, cause error) {
	err := &domain.SystemicImportError{BatchID: b.ID, Cause: cause}
	p.logger.Error(map[string]any{"batchId": b.ID, "error": err}, "import_failed")
	b.Error = cause.Error()
	p.finish(b, domain.BatchFailed)
}

func (p *Pipeline) finish(b *domain.Batch, status domain.BatchStatus) {
	if err := b.Transition(status, p.clock.Now()); err != nil {
		p.logger.Error(map[string]any{"batchId": b.ID, "error": err}, "import_transition_failed")
		return
	}
	if err := p.batches.PutBatch(*b); err != nil {
		p.logger.Error(map[string]any{"batchId": b.ID, "status": status.String(), "error": err}, "import_persist_failed")
	}
	p.logger.Info(map[string]any{
		"batchId": b.ID,
		"status":  status.String(),
		"items":   b.ItemCount,
		"success": b.SuccessCount,
		"errors":  b.ErrorCount,
		"skipped": b.SkippedCount,
	}, "import_finished")
}
