package usermap

import (
	"bytes"
	"errors"
	"fmt"
	"math/big"
	"strconv"
)

// ErrOutOfRange is returned for values that do not fit in a signed 128-bit integer.
var ErrOutOfRange = errors.New("value out of int128 range")

var (
	maxI128 = new(big.Int).Sub(new(big.Int).Lsh(big.NewInt(1), 127), big.NewInt(1))
	minI128 = new(big.Int).Neg(new(big.Int).Lsh(big.NewInt(1), 127))
	mask64  = new(big.Int).SetUint64(^uint64(0))
)

// I128 is a signed 128-bit integer in two's complement: hi*2^64 + lo.
// The zero value is 0. It is comparable with ==.
type I128 struct {
	hi int64
	lo uint64
}

// NewI128 widens v.
func NewI128(v int64) I128 {
	return I128{hi: v >> 63, lo: uint64(v)}
}

// I128FromBig converts b, failing if it does not fit.
func I128FromBig(b *big.Int) (I128, error) {
	if b.Cmp(minI128) < 0 || b.Cmp(maxI128) > 0 {
		return I128{}, fmt.Errorf("%s: %w", b, ErrOutOfRange)
	}
	lo := new(big.Int).And(b, mask64)
	hi := new(big.Int).Rsh(b, 64)
	return I128{hi: hi.Int64(), lo: lo.Uint64()}, nil
}

// ParseI128 parses a base-10 integer.
func ParseI128(s string) (I128, error) {
	b, ok := new(big.Int).SetString(s, 10)
	if !ok {
		return I128{}, fmt.Errorf("invalid integer %q", s)
	}
	return I128FromBig(b)
}

// Big returns i as a big.Int.
func (i I128) Big() *big.Int {
	b := big.NewInt(i.hi)
	b.Lsh(b, 64)
	return b.Add(b, new(big.Int).SetUint64(i.lo))
}

func (i I128) String() string {
	return i.Big().String()
}

// MarshalJSON encodes i as a decimal string so it survives JSON number precision.
func (i I128) MarshalJSON() ([]byte, error) {
	return []byte(`"` + i.String() + `"`), nil
}

// UnmarshalJSON accepts a decimal string or a bare JSON number.
func (i *I128) UnmarshalJSON(data []byte) error {
	s := string(data)
	if len(data) > 0 && data[0] == '"' {
		unquoted, err := strconv.Unquote(s)
		if err != nil {
			return fmt.Errorf("invalid int128 string %s", s)
		}
		s = unquoted
	} else if bytes.ContainsRune(data, '"') {
		return fmt.Errorf("invalid int128 value %s", s)
	}
	if s == "null" || s == "" {
		return fmt.Errorf("int128 value is required")
	}
	v, err := ParseI128(s)
	if err != nil {
		return err
	}
	*i = v
	return nil
}
