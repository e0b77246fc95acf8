// Copyright (c) 2025 Sonic Operations Ltd
//
// Use of this software is governed by the Business Source License included
// in the LICENSE file and at soniclabs.com/bsl11.
//
// Change Date: 2028-4-16
//
// On the date above, in accordance with the Business Source License, use of
// this software will be governed by the GNU Lesser General Public License v3.

package common

import (
	"bytes"
	"fmt"

	geth "github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"golang.org/x/crypto/sha3"
)

// ConstError is an error type that can be used to define immutable error
// constants, e.g. `const ErrNotFound = common.ConstError("not found")`.
type ConstError string

func (e ConstError) Error() string {
	return string(e)
}

// Address identifies a participant of an auction. The host environment is
// responsible for authenticating it.
type Address [20]byte

// Hash is a fixed-width Keccak256 digest.
type Hash [32]byte

// HexToAddress parses a 0x-prefixed hex string of exactly 20 bytes.
func HexToAddress(s string) (Address, error) {
	if !geth.IsHexAddress(s) {
		return Address{}, fmt.Errorf("invalid address %q", s)
	}
	return Address(geth.HexToAddress(s)), nil
}

// HexToHash parses a 0x-prefixed hex string of exactly 32 bytes.
func HexToHash(s string) (Hash, error) {
	data, err := hexutil.Decode(s)
	if err != nil {
		return Hash{}, fmt.Errorf("invalid hash %q: %w", s, err)
	}
	if len(data) != len(Hash{}) {
		return Hash{}, fmt.Errorf("invalid hash %q: expected 32 bytes, got %d", s, len(data))
	}
	return Hash(data), nil
}

// String returns the EIP-55 checksummed hex form of the address.
func (a Address) String() string {
	return geth.Address(a).Hex()
}

// Compare orders addresses by their byte representation.
func (a Address) Compare(b Address) int {
	return bytes.Compare(a[:], b[:])
}

func (a Address) MarshalText() ([]byte, error) {
	return []byte(a.String()), nil
}

func (a *Address) UnmarshalText(text []byte) error {
	res, err := HexToAddress(string(text))
	if err != nil {
		return err
	}
	*a = res
	return nil
}

func (h Hash) String() string {
	return hexutil.Encode(h[:])
}

func (h Hash) MarshalText() ([]byte, error) {
	return []byte(h.String()), nil
}

func (h *Hash) UnmarshalText(text []byte) error {
	res, err := HexToHash(string(text))
	if err != nil {
		return err
	}
	*h = res
	return nil
}

// Keccak256 computes the legacy Keccak256 hash of the concatenation of the
// given inputs, as used throughout Ethereum.
func Keccak256(data ...[]byte) Hash {
	hasher := sha3.NewLegacyKeccak256()
	for _, cur := range data {
		hasher.Write(cur)
	}
	var res Hash
	hasher.Sum(res[:0])
	return res
}
