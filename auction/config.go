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
)

// Config is the immutable set-up of an auction.
type Config struct {
	Beneficiary   common.Address
	BiddingEnd    uint64 // unix seconds, exclusive end of the bidding phase
	RevealEnd     uint64 // unix seconds, exclusive end of the reveal phase
	ForfeitPolicy ForfeitPolicy
}

// ForfeitPolicy decides what happens with the deposit of a commitment whose
// reveal claim does not match the committed digest.
type ForfeitPolicy uint8

const (
	// ForfeitToBeneficiary retains mismatched deposits in the auction and pays
	// them to the beneficiary on finalization.
	ForfeitToBeneficiary ForfeitPolicy = iota
	// ForfeitRefund credits mismatched deposits back to the bidder.
	ForfeitRefund
)

func (p ForfeitPolicy) String() string {
	switch p {
	case ForfeitToBeneficiary:
		return "beneficiary"
	case ForfeitRefund:
		return "refund"
	default:
		return fmt.Sprintf("ForfeitPolicy(%d)", uint8(p))
	}
}

// ParseForfeitPolicy is the inverse of ForfeitPolicy.String. The empty string
// selects the default policy.
func ParseForfeitPolicy(s string) (ForfeitPolicy, error) {
	switch s {
	case "", "beneficiary":
		return ForfeitToBeneficiary, nil
	case "refund":
		return ForfeitRefund, nil
	}
	return 0, fmt.Errorf("unknown forfeit policy %q", s)
}

// Validate checks the consistency of the configuration.
func (c Config) Validate() error {
	if c.Beneficiary == (common.Address{}) {
		return fmt.Errorf("%w: beneficiary must be set", ErrInvalidConfig)
	}
	if c.BiddingEnd >= c.RevealEnd {
		return fmt.Errorf("%w: bidding end %d must be before reveal end %d", ErrInvalidConfig, c.BiddingEnd, c.RevealEnd)
	}
	if c.ForfeitPolicy > ForfeitRefund {
		return fmt.Errorf("%w: unsupported forfeit policy %v", ErrInvalidConfig, c.ForfeitPolicy)
	}
	return nil
}
