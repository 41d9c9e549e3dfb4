// Package origin resolves who is making a call.
//
// Signature verification happens upstream; by the time a call reaches a
// module its origin is either a verified signer or nothing at all.
package origin

import (
	"context"
	"encoding/hex"
	"errors"
	"fmt"
	"strings"
)

// AccountIDLen is the byte length of an account identifier.
const AccountIDLen = 32

// ErrBadOrigin is returned when a call requires a signed origin and did not get one.
var ErrBadOrigin = errors.New("BadOrigin")

// AccountID is an opaque, externally verified account identifier.
type AccountID [AccountIDLen]byte

// ParseAccountID decodes a 0x-prefixed (or bare) hex account id.
func ParseAccountID(s string) (AccountID, error) {
	var id AccountID
	raw, err := hex.DecodeString(strings.TrimPrefix(strings.TrimSpace(s), "0x"))
	if err != nil {
		return id, fmt.Errorf("invalid account id %q: %w", s, err)
	}
	if len(raw) != AccountIDLen {
		return id, fmt.Errorf("invalid account id %q: expected %d bytes, got %d", s, AccountIDLen, len(raw))
	}
	copy(id[:], raw)
	return id, nil
}

// String returns the 0x-prefixed hex form.
func (a AccountID) String() string {
	return "0x" + hex.EncodeToString(a[:])
}

// Bytes returns a copy of the raw id.
func (a AccountID) Bytes() []byte {
	b := make([]byte, AccountIDLen)
	copy(b, a[:])
	return b
}

func (a AccountID) MarshalText() ([]byte, error) {
	return []byte(a.String()), nil
}

func (a *AccountID) UnmarshalText(text []byte) error {
	id, err := ParseAccountID(string(text))
	if err != nil {
		return err
	}
	*a = id
	return nil
}

// Origin describes the source of a call.
type Origin struct {
	signer *AccountID
}

// Signed returns an origin for a verified direct signer.
func Signed(who AccountID) Origin {
	return Origin{signer: &who}
}

// None returns an unsigned origin.
func None() Origin {
	return Origin{}
}

// IsSigned reports whether the origin carries a verified signer.
func (o Origin) IsSigned() bool {
	return o.signer != nil
}

func (o Origin) String() string {
	if o.signer == nil {
		return "none"
	}
	return "signed(" + o.signer.String() + ")"
}

// EnsureSigned returns the signer of o, or ErrBadOrigin.
func EnsureSigned(o Origin) (AccountID, error) {
	if o.signer == nil {
		return AccountID{}, ErrBadOrigin
	}
	return *o.signer, nil
}

type contextKey struct{}

// NewContext returns a copy of ctx carrying o.
func NewContext(ctx context.Context, o Origin) context.Context {
	return context.WithValue(ctx, contextKey{}, o)
}

// FromContext returns the origin stored in ctx, or None.
func FromContext(ctx context.Context) Origin {
	if o, ok := ctx.Value(contextKey{}).(Origin); ok {
		return o
	}
	return None()
}
