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
)

type EventKind uint8

const (
	// BidPlaced reports a new commitment; Amount is its deposit.
	BidPlaced EventKind = iota
	// ClaimProcessed reports the outcome of a reveal claim that reached a
	// commitment; Amount is the refund credited for it.
	ClaimProcessed
	// HighestBidIncreased reports a new leader; Amount is the new highest bid.
	HighestBidIncreased
	// Withdrawn reports a completed withdrawal; Amount is the value paid out.
	Withdrawn
	// AuctionEnded reports the finalization; Account is the winner (zero if
	// there was none) and Amount the winning bid.
	AuctionEnded
)

func (k EventKind) String() string {
	switch k {
	case BidPlaced:
		return "BidPlaced"
	case ClaimProcessed:
		return "ClaimProcessed"
	case HighestBidIncreased:
		return "HighestBidIncreased"
	case Withdrawn:
		return "Withdrawn"
	case AuctionEnded:
		return "AuctionEnded"
	default:
		return fmt.Sprintf("EventKind(%d)", uint8(k))
	}
}

// Event is a record of an observable state change of an auction.
type Event struct {
	Kind    EventKind
	Account common.Address
	Index   int     // commitment slot, for BidPlaced and ClaimProcessed
	Outcome Outcome // for ClaimProcessed
	Amount  amount.Amount
}

func (e Event) String() string {
	switch e.Kind {
	case BidPlaced:
		return fmt.Sprintf("%v{%v, slot=%d, deposit=%v}", e.Kind, e.Account, e.Index, e.Amount)
	case ClaimProcessed:
		return fmt.Sprintf("%v{%v, slot=%d, %v, refund=%v}", e.Kind, e.Account, e.Index, e.Outcome, e.Amount)
	default:
		return fmt.Sprintf("%v{%v, %v}", e.Kind, e.Account, e.Amount)
	}
}

type noopObserver struct{}

func (noopObserver) OnEvent(Event) {}
