package userstate

import (
	"context"
	"fmt"

	"github.com/asad/userstate/internal/chain"
	"github.com/asad/userstate/internal/events"
	"github.com/asad/userstate/internal/logging"
	"github.com/asad/userstate/internal/origin"
	"github.com/asad/userstate/internal/state"
)

// Store is the storage map this module owns: account -> UserState.
type Store = state.Map[origin.AccountID, UserState]

// Pallet implements the module's calls. Every call checks the signer, then
// its existence precondition, and only then writes and deposits an event.
type Pallet struct {
	users  Store
	height chain.Height
	sink   events.Sink
	logger logging.Logger
}

// NewPallet creates the module over its storage map.
func NewPallet(users Store, height chain.Height, sink events.Sink, logger logging.Logger) *Pallet {
	return &Pallet{
		users:  users,
		height: height,
		sink:   sink,
		logger: logger.With(logging.String("module", ModuleName)),
	}
}

// AddUser registers the caller at (x, y).
func (p *Pallet) AddUser(ctx context.Context, o origin.Origin, x, y uint64) error {
	who, err := origin.EnsureSigned(o)
	if err != nil {
		return err
	}

	exists, err := p.users.Contains(ctx, who)
	if err != nil {
		return fmt.Errorf("failed to check user: %w", err)
	}
	if exists {
		return ErrUserExists
	}

	user := NewUserState(p.height.BlockNumber(), x, y)
	if err := p.users.Insert(ctx, who, user); err != nil {
		return fmt.Errorf("failed to insert user: %w", err)
	}

	p.logger.Debug("user added",
		logging.Stringer("who", who),
		logging.Uint64("block_number", user.LastUpdatedBlock),
	)
	return p.sink.DepositEvent(ctx, UserAdded{Who: who, UserState: user})
}

// RemoveUser deletes the caller's record.
func (p *Pallet) RemoveUser(ctx context.Context, o origin.Origin) error {
	who, err := origin.EnsureSigned(o)
	if err != nil {
		return err
	}

	user, found, err := p.users.Get(ctx, who)
	if err != nil {
		return fmt.Errorf("failed to read user: %w", err)
	}
	if !found {
		return ErrUserNotFound
	}

	// the snapshot in the event carries the removal block
	user.LastUpdatedBlock = p.height.BlockNumber()
	if err := p.users.Remove(ctx, who); err != nil {
		return fmt.Errorf("failed to remove user: %w", err)
	}

	p.logger.Debug("user removed",
		logging.Stringer("who", who),
		logging.Uint64("block_number", user.LastUpdatedBlock),
	)
	return p.sink.DepositEvent(ctx, UserRemoved{Who: who, UserState: user})
}

// UpdateUserInfo moves the caller to (x, y).
func (p *Pallet) UpdateUserInfo(ctx context.Context, o origin.Origin, x, y uint64) error {
	who, err := origin.EnsureSigned(o)
	if err != nil {
		return err
	}

	user, found, err := p.users.Get(ctx, who)
	if err != nil {
		return fmt.Errorf("failed to read user: %w", err)
	}
	if !found {
		return ErrUserNotFound
	}

	user.LastUpdatedBlock = p.height.BlockNumber()
	user.X = x
	user.Y = y
	if err := p.users.Insert(ctx, who, user); err != nil {
		return fmt.Errorf("failed to update user: %w", err)
	}

	p.logger.Debug("user info changed",
		logging.Stringer("who", who),
		logging.Uint64("block_number", user.LastUpdatedBlock),
		logging.Uint64("x", x),
		logging.Uint64("y", y),
	)
	return p.sink.DepositEvent(ctx, UserInfoChanged{Who: who, UserState: user})
}

// User returns the stored record for who.
func (p *Pallet) User(ctx context.Context, who origin.AccountID) (UserState, bool, error) {
	return p.users.Get(ctx, who)
}
