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

//go:generate mockgen -source interfaces.go -destination interfaces_mocks.go -package auction

import (
	"github.com/0xsoniclabs/blindauction/common"
	"github.com/0xsoniclabs/blindauction/common/amount"
)

// Ledger is the host's native value-transfer primitive. Transfer moves the
// given value out of the auction's custody to the given account. An
// implementation may call back into the auction before it returns. If an
// error is returned, no value has been moved.
type Ledger interface {
	Transfer(to common.Address, value amount.Amount) error
}

// Clock supplies the current time in unix seconds. In a blockchain host this
// is the timestamp of the block being processed.
type Clock interface {
	Now() uint64
}

// Observer receives the events emitted by an auction. Events are delivered
// synchronously, in order, after the state change they describe.
type Observer interface {
	OnEvent(Event)
}
