package usermap

import (
	"context"
	"fmt"

	"github.com/asad/userstate/internal/chain"
	"github.com/asad/userstate/internal/events"
	"github.com/asad/userstate/internal/logging"
	"github.com/asad/userstate/internal/origin"
	"github.com/asad/userstate/internal/state"
)

// Store is the storage map this module owns: account -> UserEntry.
type Store = state.Map[origin.AccountID, UserEntry]

// Pallet implements the map-variant calls. Registration and coordinates are
// separate steps: add only marks the account, update sets the point.
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

// AddUser registers the caller without coordinates.
func (p *Pallet) AddUser(ctx context.Context, o origin.Origin) error {
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

	entry := UserEntry{BlockNumber: p.height.BlockNumber()}
	if err := p.users.Insert(ctx, who, entry); err != nil {
		return fmt.Errorf("failed to insert user: %w", err)
	}

	p.logger.Debug("user added",
		logging.Stringer("who", who),
		logging.Uint64("block_number", entry.BlockNumber),
	)
	return p.sink.DepositEvent(ctx, UserAdded{Who: who})
}

// RemoveUser deletes the caller's entry.
func (p *Pallet) RemoveUser(ctx context.Context, o origin.Origin) error {
	who, err := origin.EnsureSigned(o)
	if err != nil {
		return err
	}

	exists, err := p.users.Contains(ctx, who)
	if err != nil {
		return fmt.Errorf("failed to check user: %w", err)
	}
	if !exists {
		return ErrUserNotFound
	}

	if err := p.users.Remove(ctx, who); err != nil {
		return fmt.Errorf("failed to remove user: %w", err)
	}

	p.logger.Debug("user removed", logging.Stringer("who", who))
	return p.sink.DepositEvent(ctx, UserRemoved{Who: who})
}

// UpdateUserInfo sets the caller's coordinates.
func (p *Pallet) UpdateUserInfo(ctx context.Context, o origin.Origin, x, y I128) error {
	who, err := origin.EnsureSigned(o)
	if err != nil {
		return err
	}

	exists, err := p.users.Contains(ctx, who)
	if err != nil {
		return fmt.Errorf("failed to check user: %w", err)
	}
	if !exists {
		return ErrUserNotFound
	}

	entry := UserEntry{
		BlockNumber: p.height.BlockNumber(),
		Coordinates: &Point{X: x, Y: y},
	}
	if err := p.users.Insert(ctx, who, entry); err != nil {
		return fmt.Errorf("failed to update user: %w", err)
	}

	p.logger.Debug("user info changed",
		logging.Stringer("who", who),
		logging.Uint64("block_number", entry.BlockNumber),
		logging.Stringer("x", x),
		logging.Stringer("y", y),
	)
	return p.sink.DepositEvent(ctx, UserInfoChanged{Who: who, X: x, Y: y})
}

// User returns the stored entry for who.
func (p *Pallet) User(ctx context.Context, who origin.AccountID) (UserEntry, bool, error) {
	return p.users.Get(ctx, who)
}
