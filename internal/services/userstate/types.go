package userstate

import (
	"github.com/asad/userstate/internal/origin"
)

// ModuleName is the module identifier used for routes, storage and events.
const ModuleName = "userstate"

// UserState is the record stored per account.
type UserState struct {
	// LastUpdatedBlock is the block of the last add, update or remove.
	LastUpdatedBlock uint64 `json:"last_updated_block"`

	// X and Y are the user's coordinates at that block.
	X uint64 `json:"x"`
	Y uint64 `json:"y"`
}

// NewUserState creates a record stamped at block.
func NewUserState(block, x, y uint64) UserState {
	return UserState{LastUpdatedBlock: block, X: x, Y: y}
}

// Error is a module error returned by a rejected call.
type Error uint8

const (
	// ErrUserExists is returned when adding an account that already has a record.
	ErrUserExists Error = iota + 1
	// ErrUserNotFound is returned when removing or updating an account with no record.
	ErrUserNotFound
)

// Name returns the error variant name.
func (e Error) Name() string {
	switch e {
	case ErrUserExists:
		return "UserExists"
	case ErrUserNotFound:
		return "UserNotFound"
	default:
		return "Unknown"
	}
}

func (e Error) Error() string {
	return ModuleName + ": " + e.Name()
}

// UserAdded is emitted after a successful add.
type UserAdded struct {
	Who       origin.AccountID `json:"who"`
	UserState UserState        `json:"user_state"`
}

// UserRemoved is emitted after a successful remove. UserState is the record
// as it was at removal, re-stamped with the removal block.
type UserRemoved struct {
	Who       origin.AccountID `json:"who"`
	UserState UserState        `json:"user_state"`
}

// UserInfoChanged is emitted after a successful update.
type UserInfoChanged struct {
	Who       origin.AccountID `json:"who"`
	UserState UserState        `json:"user_state"`
}

func (UserAdded) Module() string       { return ModuleName }
func (UserAdded) Name() string         { return "UserAdded" }
func (UserRemoved) Module() string     { return ModuleName }
func (UserRemoved) Name() string       { return "UserRemoved" }
func (UserInfoChanged) Module() string { return ModuleName }
func (UserInfoChanged) Name() string   { return "UserInfoChanged" }
