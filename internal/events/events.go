// Package events holds the append-only notification log that modules deposit into.
package events

import (
	"context"
	"sync"
)

// Event is a notification describing a completed state change.
// Each module defines its own set of event types.
type Event interface {
	// Module returns the name of the module that emitted the event.
	Module() string
	// Name returns the event variant, e.g. "UserAdded".
	Name() string
}

// Sink accepts events from a module during a call.
type Sink interface {
	DepositEvent(ctx context.Context, event Event) error
}

// Record is an event as stored in the log.
type Record struct {
	BlockNumber uint64 `json:"block_number"`
	Index       uint32 `json:"index"`
	CallID      string `json:"call_id,omitempty"`
	Module      string `json:"module"`
	Name        string `json:"name"`
	Event       Event  `json:"event"`
}

// Filter narrows a Records query. Zero values match everything.
type Filter struct {
	Module    string
	FromBlock uint64
	Limit     int
}

func (f Filter) matches(r Record) bool {
	if f.Module != "" && r.Module != f.Module {
		return false
	}
	return r.BlockNumber >= f.FromBlock
}

// Log is an append-only event log.
type Log interface {
	Append(ctx context.Context, record Record) error
	Records(ctx context.Context, filter Filter) ([]Record, error)
}

// MemoryLog keeps records in memory in append order.
type MemoryLog struct {
	mu      sync.RWMutex
	records []Record
}

// NewMemoryLog creates an empty log.
func NewMemoryLog() *MemoryLog {
	return &MemoryLog{}
}

func (l *MemoryLog) Append(ctx context.Context, record Record) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	l.records = append(l.records, record)
	return nil
}

func (l *MemoryLog) Records(ctx context.Context, filter Filter) ([]Record, error) {
	l.mu.RLock()
	defer l.mu.RUnlock()

	out := make([]Record, 0)
	for _, r := range l.records {
		if !filter.matches(r) {
			continue
		}
		if filter.Limit > 0 && len(out) >= filter.Limit {
			break
		}
		out = append(out, r)
	}
	return out, nil
}

var _ Log = (*MemoryLog)(nil)
