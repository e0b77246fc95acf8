// Copyright (c) 2025 Sonic Operations Ltd
//
// Use of this software is governed by the Business Source License included
// in the LICENSE file and at soniclabs.com/bsl11.
//
// Change Date: 2028-4-16
//
// On the date above, in accordance with the Business Source License, use of
// this software will be governed by the GNU Lesser General Public License v3.

package amount

import (
	"fmt"
	"io"

	"github.com/ethereum/go-ethereum/rlp"
	"github.com/holiman/uint256"
)

// Amount is a 256-bit unsigned quantity of value, denominated in the smallest
// unit of the host's native currency. The zero value is a valid zero amount.
// Amounts are immutable values and may be compared using ==.
type Amount struct {
	internal uint256.Int
}

// New creates an amount from a uint64 value.
func New(value uint64) Amount {
	return Amount{internal: *uint256.NewInt(value)}
}

// NewFromUint256 creates an amount from a uint256.Int value.
func NewFromUint256(value *uint256.Int) Amount {
	return Amount{internal: *value}
}

// NewFromBytes creates an amount from a big-endian byte sequence of at most
// 32 bytes.
func NewFromBytes(bytes ...byte) Amount {
	res := Amount{}
	res.internal.SetBytes(bytes)
	return res
}

// ParseDecimal parses a base-10 string into an amount.
func ParseDecimal(s string) (Amount, error) {
	value, err := uint256.FromDecimal(s)
	if err != nil {
		return Amount{}, fmt.Errorf("invalid amount %q: %w", s, err)
	}
	return NewFromUint256(value), nil
}

// Uint256 returns a copy of the amount as a uint256.Int.
func (a Amount) Uint256() uint256.Int {
	return a.internal
}

func (a Amount) IsZero() bool {
	return a.internal.IsZero()
}

// Cmp compares a and b and returns -1, 0, or +1.
func (a Amount) Cmp(b Amount) int {
	return a.internal.Cmp(&b.internal)
}

// Add returns a + b. It panics on overflow, since no sum of real deposits can
// exceed 256 bits.
func (a Amount) Add(b Amount) Amount {
	res := Amount{}
	if _, overflow := res.internal.AddOverflow(&a.internal, &b.internal); overflow {
		panic(fmt.Sprintf("amount overflow: %v + %v", a, b))
	}
	return res
}

// AddOverflow returns a + b and whether the sum exceeds 256 bits. On
// overflow the returned amount is meaningless.
func (a Amount) AddOverflow(b Amount) (Amount, bool) {
	res := Amount{}
	_, overflow := res.internal.AddOverflow(&a.internal, &b.internal)
	return res, overflow
}

// Sub returns a - b. It panics if b > a.
func (a Amount) Sub(b Amount) Amount {
	res := Amount{}
	if _, underflow := res.internal.SubOverflow(&a.internal, &b.internal); underflow {
		panic(fmt.Sprintf("amount underflow: %v - %v", a, b))
	}
	return res
}

// Bytes32 returns the 32-byte big-endian representation of the amount.
func (a Amount) Bytes32() [32]byte {
	return a.internal.Bytes32()
}

// String returns the base-10 representation of the amount.
func (a Amount) String() string {
	return a.internal.Dec()
}

func (a Amount) MarshalText() ([]byte, error) {
	return []byte(a.String()), nil
}

func (a *Amount) UnmarshalText(text []byte) error {
	res, err := ParseDecimal(string(text))
	if err != nil {
		return err
	}
	*a = res
	return nil
}

// EncodeRLP encodes the amount as an RLP big integer.
func (a Amount) EncodeRLP(w io.Writer) error {
	return rlp.Encode(w, a.internal.ToBig())
}

// DecodeRLP decodes an RLP big integer of at most 256 bits.
func (a *Amount) DecodeRLP(s *rlp.Stream) error {
	value, err := s.BigInt()
	if err != nil {
		return err
	}
	if overflow := a.internal.SetFromBig(value); overflow {
		return fmt.Errorf("amount exceeds 256 bits")
	}
	return nil
}

// Sum adds up all given amounts.
func Sum(amounts ...Amount) Amount {
	res := Amount{}
	for _, cur := range amounts {
		res = res.Add(cur)
	}
	return res
}
