package chain

import (
	"context"
	"errors"
	"fmt"
	"math"
	"sync"
	"time"

	"github.com/asad/userstate/internal/logging"
	"github.com/asad/userstate/internal/state"
)

// ErrHeightOverflow is returned when advancing would wrap the block number.
var ErrHeightOverflow = errors.New("block number overflow")

// headKey is the single key the clock writes under in its HeadStore.
const headKey = "head"

// Height supplies the current chain height to modules.
type Height interface {
	BlockNumber() uint64
}

// HeadStore persists the chain head so it survives restarts.
type HeadStore = state.Map[string, uint64]

// Clock is the host's block counter. It only moves forward.
type Clock struct {
	mu     sync.RWMutex
	number uint64
	heads  HeadStore
}

// NewClock creates an in-memory clock positioned at genesis.
func NewClock(genesis uint64) *Clock {
	return &Clock{number: genesis}
}

// OpenClock creates a clock backed by heads. It resumes from the stored head,
// or from genesis if that is higher, and persists every later move.
func OpenClock(ctx context.Context, genesis uint64, heads HeadStore) (*Clock, error) {
	stored, found, err := heads.Get(ctx, headKey)
	if err != nil {
		return nil, fmt.Errorf("failed to load chain head: %w", err)
	}

	start := genesis
	if found && stored > start {
		start = stored
	}

	c := &Clock{heads: heads}
	if err := c.set(ctx, start); err != nil {
		return nil, err
	}
	return c, nil
}

// set persists n, then moves the clock. Callers hold mu (or own c exclusively).
func (c *Clock) set(ctx context.Context, n uint64) error {
	if c.heads != nil {
		if err := c.heads.Insert(ctx, headKey, n); err != nil {
			return fmt.Errorf("failed to persist chain head: %w", err)
		}
	}
	c.number = n
	return nil
}

// BlockNumber returns the current block height.
func (c *Clock) BlockNumber() uint64 {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.number
}

// SetBlockNumber moves the clock to n. Moving backwards is rejected.
func (c *Clock) SetBlockNumber(n uint64) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if n < c.number {
		return fmt.Errorf("block number %d is behind current height %d", n, c.number)
	}
	if n == c.number {
		return nil
	}
	return c.set(context.Background(), n)
}

// Advance produces n blocks and returns the new height. The height is left
// unchanged if it would overflow.
func (c *Clock) Advance(n uint64) (uint64, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if n > math.MaxUint64-c.number {
		return c.number, fmt.Errorf("advance %d from %d: %w", n, c.number, ErrHeightOverflow)
	}
	if n == 0 {
		return c.number, nil
	}
	if err := c.set(context.Background(), c.number+n); err != nil {
		return c.number, err
	}
	return c.number, nil
}

// Run produces one block per interval until ctx is cancelled.
func (c *Clock) Run(ctx context.Context, interval time.Duration, logger logging.Logger) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			logger.Info("block production stopped",
				logging.Uint64("block_number", c.BlockNumber()),
			)
			return
		case <-ticker.C:
			n, err := c.Advance(1)
			if err != nil {
				logger.Error("block production failed", logging.ErrorField(err))
				continue
			}
			logger.Debug("block produced", logging.Uint64("block_number", n))
		}
	}
}
