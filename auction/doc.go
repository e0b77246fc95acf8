// Copyright (c) 2025 Sonic Operations Ltd
//
// Use of this software is governed by the Business Source License included
// in the LICENSE file and at soniclabs.com/bsl11.
//
// Change Date: 2028-4-16
//
// On the date above, in accordance with the Business Source License, use of
// this software will be governed by the GNU Lesser General Public License v3.

// Package auction implements a sealed-bid commit-reveal auction engine.
//
// During the bidding phase participants submit blinded bids: a Keccak256
// digest over (value, fake, keccak256(secret)) together with a deposit. Once
// bidding closes, participants reveal the plaintext of their bids. Claims are
// matched positionally against the stored commitments, the highest valid bid
// wins, and every deposit that did not end up as the winning amount is
// credited to a refund balance that its owner can withdraw at any time. After
// the reveal phase the auction is finalized exactly once, paying the winning
// amount to the beneficiary.
//
// The engine is a strictly sequential state machine. It performs no locking
// of its own; the host environment is expected to serialize all calls, to
// authenticate callers and to provide the value-transfer primitive through
// the Ledger interface. Transfers out of the engine are always performed
// after all state updates of an operation, so a Ledger calling back into the
// engine observes a consistent state.
package auction
