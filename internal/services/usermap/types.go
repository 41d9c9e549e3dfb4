package usermap

import (
	"github.com/asad/userstate/internal/origin"
)

// ModuleName is the module identifier used for routes, storage and events.
const ModuleName = "usermap"

// Point is a pair of coordinates.
type Point struct {
	X I128 `json:"x"`
	Y I128 `json:"y"`
}

// UserEntry is the value stored per account. Coordinates stay nil until the
// first update.
type UserEntry struct {
	BlockNumber uint64 `json:"block_number"`
	Coordinates *Point `json:"coordinates"`
}

// Error is a module error returned by a rejected call.
type Error uint8

const (
	// ErrUserExists is returned when adding an account that already has an entry.
	ErrUserExists Error = iota + 1
	// ErrUserNotFound is returned when removing or updating an account with no entry.
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

// UserAdded is emitted after a successful add. The entry starts without coordinates.
type UserAdded struct {
	Who origin.AccountID `json:"who"`
}

// UserRemoved is emitted after a successful remove.
type UserRemoved struct {
	Who origin.AccountID `json:"who"`
}

// UserInfoChanged is emitted after a successful update with the new coordinates.
type UserInfoChanged struct {
	Who origin.AccountID `json:"who"`
	X   I128             `json:"x"`
	Y   I128             `json:"y"`
}

func (UserAdded) Module() string       { return ModuleName }
func (UserAdded) Name() string         { return "UserAdded" }
func (UserRemoved) Module() string     { return ModuleName }
func (UserRemoved) Name() string       { return "UserRemoved" }
func (UserInfoChanged) Module() string { return ModuleName }
func (UserInfoChanged) Name() string   { return "UserInfoChanged" }
