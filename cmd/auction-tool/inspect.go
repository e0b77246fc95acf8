// Copyright (c) 2025 Sonic Operations Ltd
//
// Use of this software is governed by the Business Source License included
// in the LICENSE file and at soniclabs.com/bsl11.
//
// Change Date: 2028-4-16
//
// On the date above, in accordance with the Business Source License, use of
// this software will be governed by the GNU Lesser General Public License v3.

package main

import (
	"errors"
	"fmt"
	"io"
	"path/filepath"

	"github.com/0xsoniclabs/blindauction/auction"
	"github.com/0xsoniclabs/blindauction/store"
	"github.com/urfave/cli/v2"
)

var Inspect = cli.Command{
	Action:    inspect,
	Name:      "inspect",
	Usage:     "prints the persisted state of an auction",
	ArgsUsage: "<data-dir>",
}

func inspect(context *cli.Context) error {
	if context.Args().Len() != 1 {
		return fmt.Errorf("missing data directory")
	}
	dir := context.Args().Get(0)

	db, err := store.OpenLevelDb(filepath.Join(dir, "state"), store.Options{ReadOnly: true})
	if err != nil {
		return err
	}
	state, err := db.Load()
	if err != nil {
		return errors.Join(err, db.Close())
	}
	return errors.Join(
		printState(context.App.Writer, state, auction.SystemClock{}.Now()),
		db.Close(),
	)
}

func printState(out io.Writer, state *store.State, now uint64) error {
	a, b := state.Auction, state.Bank
	w := &errWriter{out: out}

	w.printf("Auction\n")
	w.printf("  beneficiary:    %v\n", a.Config.Beneficiary)
	w.printf("  bidding end:    %d\n", a.Config.BiddingEnd)
	w.printf("  reveal end:     %d\n", a.Config.RevealEnd)
	w.printf("  forfeit policy: %v\n", a.Config.ForfeitPolicy)
	w.printf("  phase:          %v (at %d)\n", auction.PhaseAt(a.Config, now), now)
	w.printf("  ended:          %t\n", a.Ended)
	if a.HasLeader {
		w.printf("  highest bid:    %v by %v\n", a.HighestBid, a.HighestBidder)
	} else {
		w.printf("  highest bid:    none\n")
	}
	w.printf("  deposited:      %v\n", a.Deposited)
	w.printf("  forfeited:      %v\n", a.Forfeited)
	w.printf("  withdrawn:      %v\n", a.Withdrawn)
	w.printf("  paid:           %v\n", a.Paid)

	w.printf("Bidders (%d)\n", len(a.Bidders))
	for _, bidder := range a.Bidders {
		w.printf("  %v refund %v\n", bidder.Address, bidder.Refund)
		for i, c := range bidder.Commitments {
			status := "sealed"
			if c.Consumed {
				status = "revealed"
			}
			w.printf("    [%d] %v deposit %v %s\n", i, c.Digest, c.Deposit, status)
		}
	}

	w.printf("Bank\n")
	w.printf("  custody: %v\n", b.Custody)
	w.printf("  minted:  %v\n", b.Minted)
	for _, account := range b.Accounts {
		w.printf("  %v %v\n", account.Address, account.Balance)
	}
	return w.err
}

// errWriter keeps the first write error and skips all later writes.
type errWriter struct {
	out io.Writer
	err error
}

func (w *errWriter) printf(format string, args ...any) {
	if w.err != nil {
		return
	}
	_, w.err = fmt.Fprintf(w.out, format, args...)
}
