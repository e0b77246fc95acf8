// Copyright (c) 2025 Sonic Operations Ltd
//
// Use of this software is governed by the Business Source License included
// in the LICENSE file and at soniclabs.com/bsl11.
//
// Change Date: 2028-4-16
//
// On the date above, in accordance with the Business Source License, use of
// this software will be governed by the GNU Lesser General Public License v3.

package auction

import (
	"fmt"

	"github.com/0xsoniclabs/blindauction/common"
	"github.com/0xsoniclabs/blindauction/common/amount"
	"github.com/ethereum/go-ethereum/accounts/abi"
)

// blindBidArguments is the ABI layout of the blinded bid pre-image, i.e.
// abi.encode(uint256 value, bool fake, bytes32 secretHash).
var blindBidArguments = mustArguments("uint256", "bool", "bytes32")

// SecretHash hashes the raw secret of a bid. Only this hash is ever passed to
// the auction; the raw secret stays with the bidder.
func SecretHash(secret []byte) common.Hash {
	return common.Keccak256(secret)
}

// BlindBid computes the commitment digest of a bid,
//
//	keccak256(abi.encode(value, fake, secretHash))
//
// which is compatible with digests produced by Ethereum tooling.
func BlindBid(value amount.Amount, fake bool, secretHash common.Hash) common.Hash {
	v := value.Uint256()
	data, err := blindBidArguments.Pack(v.ToBig(), fake, [32]byte(secretHash))
	if err != nil {
		// all argument types are static, packing can not fail
		panic(fmt.Sprintf("failed to encode blinded bid: %v", err))
	}
	return common.Keccak256(data)
}

func mustArguments(types ...string) abi.Arguments {
	res := make(abi.Arguments, 0, len(types))
	for _, name := range types {
		typ, err := abi.NewType(name, "", nil)
		if err != nil {
			panic(fmt.Sprintf("invalid ABI type %q: %v", name, err))
		}
		res = append(res, abi.Argument{Type: typ})
	}
	return res
}
