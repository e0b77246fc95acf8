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
	"slices"

	"github.com/0xsoniclabs/blindauction/common"
	"github.com/0xsoniclabs/blindauction/common/amount"
	"golang.org/x/exp/maps"
)

// Snapshot is a self-contained copy of the full state of an auction. All
// fields are RLP-encodable; bidders are listed in address order so equal
// states produce equal encodings.
type Snapshot struct {
	Config        Config
	Bidders       []BidderSnapshot
	HighestBidder common.Address
	HasLeader     bool
	HighestBid    amount.Amount
	Ended         bool
	Deposited     amount.Amount
	Forfeited     amount.Amount
	Withdrawn     amount.Amount
	Paid          amount.Amount
}

type BidderSnapshot struct {
	Address     common.Address
	Commitments []Commitment
	Refund      amount.Amount
}

// Snapshot captures the current state of the auction.
func (a *Auction) Snapshot() *Snapshot {
	addresses := maps.Keys(a.bidders)
	slices.SortFunc(addresses, common.Address.Compare)

	bidders := make([]BidderSnapshot, 0, len(addresses))
	for _, addr := range addresses {
		b := a.bidders[addr]
		bidders = append(bidders, BidderSnapshot{
			Address:     addr,
			Commitments: slices.Clone(b.commitments),
			Refund:      b.refund,
		})
	}

	return &Snapshot{
		Config:        a.config,
		Bidders:       bidders,
		HighestBidder: a.highestBidder,
		HasLeader:     a.hasLeader,
		HighestBid:    a.highestBid,
		Ended:         a.ended,
		Deposited:     a.deposited,
		Forfeited:     a.forfeited,
		Withdrawn:     a.withdrawn,
		Paid:          a.paid,
	}
}

// Restore re-creates an auction from a snapshot. The restored auction is
// checked for consistency before it is returned.
func Restore(snapshot *Snapshot, env Environment) (*Auction, error) {
	res, err := New(snapshot.Config, env)
	if err != nil {
		return nil, err
	}
	for _, cur := range snapshot.Bidders {
		if _, found := res.bidders[cur.Address]; found {
			return nil, fmt.Errorf("duplicate bidder %v in snapshot", cur.Address)
		}
		res.bidders[cur.Address] = &bidder{
			commitments: slices.Clone(cur.Commitments),
			refund:      cur.Refund,
		}
	}
	res.highestBidder = snapshot.HighestBidder
	res.hasLeader = snapshot.HasLeader
	res.highestBid = snapshot.HighestBid
	res.ended = snapshot.Ended
	res.deposited = snapshot.Deposited
	res.forfeited = snapshot.Forfeited
	res.withdrawn = snapshot.Withdrawn
	res.paid = snapshot.Paid

	if err := res.Check(); err != nil {
		return nil, fmt.Errorf("inconsistent snapshot: %w", err)
	}
	return res, nil
}
