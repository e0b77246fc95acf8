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
	"time"
)

// Phase is the stage of an auction's life cycle derived from the current time.
type Phase uint8

const (
	BiddingPhase Phase = iota // commitments are accepted
	RevealPhase               // commitments are opened
	EndedPhase                // the auction may be finalized
)

func (p Phase) String() string {
	switch p {
	case BiddingPhase:
		return "bidding"
	case RevealPhase:
		return "reveal"
	case EndedPhase:
		return "ended"
	default:
		return fmt.Sprintf("Phase(%d)", uint8(p))
	}
}

// PhaseAt returns the phase of an auction with the given configuration at the
// given time, in unix seconds.
func PhaseAt(config Config, now uint64) Phase {
	switch {
	case now < config.BiddingEnd:
		return BiddingPhase
	case now < config.RevealEnd:
		return RevealPhase
	default:
		return EndedPhase
	}
}

// SystemClock reads the wall clock.
type SystemClock struct{}

func (SystemClock) Now() uint64 {
	return uint64(time.Now().Unix())
}
