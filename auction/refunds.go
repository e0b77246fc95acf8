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

import "github.com/0xsoniclabs/blindauction/common/amount"

// credit adds value to the refund balance.
func (b *bidder) credit(value amount.Amount) {
	b.refund = b.refund.Add(value)
}

// debitAll clears the refund balance and returns its previous value.
func (b *bidder) debitAll() amount.Amount {
	res := b.refund
	b.refund = amount.Amount{}
	return res
}
