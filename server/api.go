// Copyright (c) 2025 Sonic Operations Ltd
//
// Use of this software is governed by the Business Source License included
// in the LICENSE file and at soniclabs.com/bsl11.
//
// Change Date: 2028-4-16
//
// On the date above, in accordance with the Business Source License, use of
// this software will be governed by the GNU Lesser General Public License v3.

package server

import (
	"github.com/0xsoniclabs/blindauction/auction"
	"github.com/0xsoniclabs/blindauction/common"
	"github.com/0xsoniclabs/blindauction/common/amount"
	"github.com/0xsoniclabs/blindauction/host"
)

// Amounts are encoded as decimal strings, addresses and hashes as 0x-prefixed
// hex strings.

type BidRequest struct {
	From    common.Address `json:"from"`
	Digest  common.Hash    `json:"digest"`
	Deposit amount.Amount  `json:"deposit"`
}

type RevealRequest struct {
	From   common.Address `json:"from"`
	Claims []ClaimJSON    `json:"claims"`
}

type ClaimJSON struct {
	Value      amount.Amount `json:"value"`
	Fake       bool          `json:"fake"`
	SecretHash common.Hash   `json:"secret_hash"`
}

type RevealResponse struct {
	Results []ClaimResultJSON `json:"results"`
}

type ClaimResultJSON struct {
	Index   int           `json:"index"`
	Outcome string        `json:"outcome"`
	Refund  amount.Amount `json:"refund"`
}

type WithdrawRequest struct {
	From common.Address `json:"from"`
}

type WithdrawResponse struct {
	Amount amount.Amount `json:"amount"`
}

type FundRequest struct {
	Amount amount.Amount `json:"amount"`
}

type AuctionResponse struct {
	Beneficiary   common.Address  `json:"beneficiary"`
	BiddingEnd    uint64          `json:"bidding_end"`
	RevealEnd     uint64          `json:"reveal_end"`
	ForfeitPolicy string          `json:"forfeit_policy"`
	Now           uint64          `json:"now"`
	Phase         string          `json:"phase"`
	HighestBidder *common.Address `json:"highest_bidder,omitempty"`
	HighestBid    amount.Amount   `json:"highest_bid"`
	Ended         bool            `json:"ended"`
	Deposited     amount.Amount   `json:"deposited"`
	Held          amount.Amount   `json:"held"`
}

type AccountResponse struct {
	Address     common.Address   `json:"address"`
	Balance     amount.Amount    `json:"balance"`
	Refund      amount.Amount    `json:"refund"`
	Commitments []CommitmentJSON `json:"commitments"`
}

type CommitmentJSON struct {
	Digest   common.Hash   `json:"digest"`
	Deposit  amount.Amount `json:"deposit"`
	Consumed bool          `json:"consumed"`
}

type statusResponse struct {
	Status string `json:"status"`
}

type errorResponse struct {
	Error string `json:"error"`
}

func toAuctionResponse(status host.Status) AuctionResponse {
	return AuctionResponse{
		Beneficiary:   status.Config.Beneficiary,
		BiddingEnd:    status.Config.BiddingEnd,
		RevealEnd:     status.Config.RevealEnd,
		ForfeitPolicy: status.Config.ForfeitPolicy.String(),
		Now:           status.Now,
		Phase:         status.Phase.String(),
		HighestBidder: status.HighestBidder,
		HighestBid:    status.HighestBid,
		Ended:         status.Ended,
		Deposited:     status.Accounts.Deposited,
		Held:          status.Accounts.Held(),
	}
}

func toAccountResponse(account host.Account) AccountResponse {
	commitments := make([]CommitmentJSON, 0, len(account.Commitments))
	for _, c := range account.Commitments {
		commitments = append(commitments, CommitmentJSON{
			Digest:   c.Digest,
			Deposit:  c.Deposit,
			Consumed: c.Consumed,
		})
	}
	return AccountResponse{
		Address:     account.Address,
		Balance:     account.Balance,
		Refund:      account.Refund,
		Commitments: commitments,
	}
}

func toClaims(claims []ClaimJSON) []auction.Claim {
	res := make([]auction.Claim, 0, len(claims))
	for _, c := range claims {
		res = append(res, auction.Claim{Value: c.Value, Fake: c.Fake, SecretHash: c.SecretHash})
	}
	return res
}

func toRevealResponse(results []auction.ClaimResult) RevealResponse {
	res := RevealResponse{Results: make([]ClaimResultJSON, 0, len(results))}
	for _, r := range results {
		res.Results = append(res.Results, ClaimResultJSON{
			Index:   r.Index,
			Outcome: r.Outcome.String(),
			Refund:  r.Refund,
		})
	}
	return res
}
