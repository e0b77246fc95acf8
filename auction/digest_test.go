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
	"testing"

	"github.com/0xsoniclabs/blindauction/common"
	"github.com/0xsoniclabs/blindauction/common/amount"
	"github.com/stretchr/testify/require"
)

func TestBlindBid_HashesAbiEncodedWords(t *testing.T) {
	secretHash := SecretHash([]byte("secret"))
	value := amount.New(1_000_000_000_000_000_000)

	for _, fake := range []bool{false, true} {
		// abi.encode of static types is the concatenation of 32-byte words
		valueWord := value.Bytes32()
		var fakeWord [32]byte
		if fake {
			fakeWord[31] = 1
		}
		want := common.Keccak256(valueWord[:], fakeWord[:], secretHash[:])
		require.Equal(t, want, BlindBid(value, fake, secretHash))
	}
}

func TestBlindBid_DistinguishesAllInputs(t *testing.T) {
	s1 := SecretHash([]byte("s1"))
	s2 := SecretHash([]byte("s2"))
	base := BlindBid(amount.New(50), false, s1)

	require.NotEqual(t, base, BlindBid(amount.New(51), false, s1))
	require.NotEqual(t, base, BlindBid(amount.New(50), true, s1))
	require.NotEqual(t, base, BlindBid(amount.New(50), false, s2))
	require.Equal(t, base, BlindBid(amount.New(50), false, s1))
}

func TestSecretHash_IsKeccakOfSecret(t *testing.T) {
	require.Equal(t, common.Keccak256([]byte("abc")), SecretHash([]byte("abc")))
}

func TestClaim_DigestMatchesBlindBid(t *testing.T) {
	claim := Claim{Value: amount.New(7), Fake: true, SecretHash: common.Hash{1}}
	require.Equal(t, BlindBid(amount.New(7), true, common.Hash{1}), claim.Digest())
}
