package domain

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

// BatchSource records where a bulk import came from.
type BatchSource uint8

const (
	SourceAPI BatchSource = iota
	SourceFile
	SourceManual
)

func (s BatchSource) String() string {
	switch s {
	case SourceAPI:
		return "api"
	case SourceFile:
		return "file"
	case SourceManual:
		return "manual"
	default:
		return fmt.Sprintf("BatchSource(%d)", s)
	}
}

func ParseBatchSource(s string) (BatchSource, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "api":
		return SourceAPI, nil
	case "file":
		return SourceFile, nil
	case "manual":
		return SourceManual, nil
	default:
		return 0, fmt.Errorf("unsupported batch source: %q", s)
	}
}

func (s BatchSource) MarshalText() ([]byte, error) { return []byte(s.String()), nil }

func (s *BatchSource) UnmarshalText(b []byte) error {
	v, err := ParseBatchSource(string(b))
	if err != nil {
		return err
	}
	*s = v
	return nil
}

// BatchStatus is the lifecycle state of a bulk import.
//
// pending → processing → completed | failed | cancelled
// pending → failed | cancelled (stopped before the first chunk)
type BatchStatus uint8

const (
	BatchPending BatchStatus = iota
	BatchProcessing
	BatchCompleted
	BatchFailed
	BatchCancelled
)

func (s BatchStatus) String() string {
	switch s {
	case BatchPending:
		return "pending"
	case BatchProcessing:
		return "processing"
	case BatchCompleted:
		return "completed"
	case BatchFailed:
		return "failed"
	case BatchCancelled:
		return "cancelled"
	default:
		return fmt.Sprintf("BatchStatus(%d)", s)
	}
}

func ParseBatchStatus(s string) (BatchStatus, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "pending":
		return BatchPending, nil
	case "processing":
		return BatchProcessing, nil
	case "completed":
		return BatchCompleted, nil
	case "failed":
		return BatchFailed, nil
	case "cancelled", "canceled":
		return BatchCancelled, nil
	default:
		return 0, fmt.Errorf("unsupported batch status: %q", s)
	}
}

func (s BatchStatus) MarshalText() ([]byte, error) { return []byte(s.String()), nil }

func (s *BatchStatus) UnmarshalText(b []byte) error {
	v, err := ParseBatchStatus(string(b))
	if err != nil {
		return err
	}
	*s = v
	return nil
}

// IsTerminal reports whether no further transition is allowed.
func (s BatchStatus) IsTerminal() bool {
	return s == BatchCompleted || s == BatchFailed || s == BatchCancelled
}

// Batch is one bulk-import run and its aggregate outcome.
//
// ItemCount is the number of submitted items processed so far; at
// completion ItemCount == SuccessCount + ErrorCount. SkippedCount is the
// subset of SuccessCount that already existed in the target list.
type Batch struct {
	ID           string      `json:"id"`
	Name         string      `json:"name,omitempty"`
	List         ListKind    `json:"list"`
	Source       BatchSource `json:"source"`
	Submitted    int         `json:"submitted"`
	ItemCount    int         `json:"itemCount"`
	SuccessCount int         `json:"successCount"`
	ErrorCount   int         `json:"errorCount"`
	SkippedCount int         `json:"skippedCount"`
	Status       BatchStatus `json:"status"`
	Error        string      `json:"error,omitempty"`
	CreatedAt    time.Time   `json:"createdAt"`
	UpdatedAt    time.Time   `json:"updatedAt"`
}

// NewBatch returns a pending batch for submitted items.
func NewBatch(name string, list ListKind, source BatchSource, submitted int, now time.Time) Batch {
	return Batch{
		ID:        uuid.NewString(),
		Name:      strings.TrimSpace(name),
		List:      list,
		Source:    source,
		Submitted: submitted,
		Status:    BatchPending,
		CreatedAt: now,
		UpdatedAt: now,
	}
}

// Transition moves the batch to next, enforcing the lifecycle.
func (b *Batch) Transition(next BatchStatus, now time.Time) error {
	if b.Status.IsTerminal() {
		return fmt.Errorf("batch %s is %s: terminal state is immutable", b.ID, b.Status)
	}
	switch next {
	case BatchProcessing:
		if b.Status != BatchPending {
			return fmt.Errorf("batch %s: cannot move from %s to %s", b.ID, b.Status, next)
		}
	case BatchCompleted:
		if b.Status != BatchProcessing {
			return fmt.Errorf("batch %s: cannot move from %s to %s", b.ID, b.Status, next)
		}
	case BatchFailed, BatchCancelled:
		// allowed from pending or processing
	default:
		return fmt.Errorf("batch %s: cannot move to %s", b.ID, next)
	}
	b.Status = next
	b.UpdatedAt = now
	return nil
}

// IsComplete reports whether the batch reached a terminal state.
func (b Batch) IsComplete() bool { return b.Status.IsTerminal() }

// ImportItem is one submitted entry of a bulk import before validation.
// ItemID may be a bare identifier or a YouTube URL.
type ImportItem struct {
	ItemID      string   `json:"itemId" validate:"required"`
	Type        ItemType `json:"type"`
	Title       string   `json:"title"`
	ChannelName string   `json:"channelName,omitempty"`
	Priority    int      `json:"priority,omitempty"`
}
