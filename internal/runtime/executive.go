// Package runtime is the host side of call execution: it serializes calls,
// tracks the chain height and stamps the events a call deposits.
package runtime

import (
	"context"
	"sync"

	"github.com/google/uuid"

	"github.com/asad/userstate/internal/chain"
	"github.com/asad/userstate/internal/events"
	"github.com/asad/userstate/internal/logging"
)

// Call names a dispatchable module function.
type Call struct {
	Module string
	Name   string
}

// Receipt describes a successfully applied call.
type Receipt struct {
	CallID      string          `json:"call_id"`
	BlockNumber uint64          `json:"block_number"`
	Events      []events.Record `json:"events"`
}

// Executive applies calls one at a time against host state.
// It implements chain.Height and events.Sink for the modules it drives.
type Executive struct {
	clock  *chain.Clock
	log    events.Log
	logger logging.Logger

	// dispatchMu serializes calls.
	dispatchMu sync.Mutex

	// pinMu guards the height the running call executes at. The clock may
	// keep producing blocks while a call runs; the call does not see them.
	pinMu       sync.RWMutex
	pinned      bool
	pinnedBlock uint64

	// eventMu guards the per-block event index.
	eventMu    sync.Mutex
	eventBlock uint64
	eventIndex uint32
}

// NewExecutive creates an executive over clock and log.
func NewExecutive(clock *chain.Clock, log events.Log, logger logging.Logger) *Executive {
	return &Executive{
		clock:  clock,
		log:    log,
		logger: logger,
	}
}

// BlockNumber returns the height of the call being dispatched, or the
// current chain height when no call is running.
func (e *Executive) BlockNumber() uint64 {
	e.pinMu.RLock()
	defer e.pinMu.RUnlock()
	if e.pinned {
		return e.pinnedBlock
	}
	return e.clock.BlockNumber()
}

// pin fixes BlockNumber at the clock's current height and returns it.
func (e *Executive) pin() uint64 {
	e.pinMu.Lock()
	defer e.pinMu.Unlock()
	e.pinned = true
	e.pinnedBlock = e.clock.BlockNumber()
	return e.pinnedBlock
}

func (e *Executive) unpin() {
	e.pinMu.Lock()
	defer e.pinMu.Unlock()
	e.pinned = false
}

// Events returns the event log the executive deposits into.
func (e *Executive) Events() events.Log {
	return e.log
}

type callKey struct{}

type callState struct {
	id      string
	records []events.Record
}

// Dispatch runs fn as a single call. No other call runs until fn returns.
// On error the call's events are discarded from the receipt; modules check
// their preconditions before writing, so a failed call leaves no trace.
func (e *Executive) Dispatch(ctx context.Context, call Call, fn func(ctx context.Context) error) (*Receipt, error) {
	e.dispatchMu.Lock()
	defer e.dispatchMu.Unlock()

	cs := &callState{id: uuid.New().String()}
	block := e.pin()
	defer e.unpin()

	logger := e.logger.With(
		logging.String("call_id", cs.id),
		logging.String("module", call.Module),
		logging.String("call", call.Name),
		logging.Uint64("block_number", block),
	)

	if err := fn(context.WithValue(ctx, callKey{}, cs)); err != nil {
		logger.Info("call rejected", logging.ErrorField(err))
		return nil, err
	}

	logger.Debug("call applied", logging.Int("events", len(cs.records)))
	return &Receipt{
		CallID:      cs.id,
		BlockNumber: block,
		Events:      cs.records,
	}, nil
}

// DepositEvent appends event to the log, stamped with the call's block,
// its index within that block and the id of the call being dispatched.
func (e *Executive) DepositEvent(ctx context.Context, event events.Event) error {
	e.eventMu.Lock()
	defer e.eventMu.Unlock()

	block := e.BlockNumber()
	if block != e.eventBlock {
		e.eventBlock = block
		e.eventIndex = 0
	}

	record := events.Record{
		BlockNumber: block,
		Index:       e.eventIndex,
		Module:      event.Module(),
		Name:        event.Name(),
		Event:       event,
	}

	cs, _ := ctx.Value(callKey{}).(*callState)
	if cs != nil {
		record.CallID = cs.id
	}

	if err := e.log.Append(ctx, record); err != nil {
		return err
	}
	e.eventIndex++

	if cs != nil {
		cs.records = append(cs.records, record)
	}
	return nil
}

var (
	_ chain.Height = (*Executive)(nil)
	_ events.Sink  = (*Executive)(nil)
)
