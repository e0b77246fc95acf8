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
	"log/slog"
	"time"

	"github.com/0xsoniclabs/blindauction/common"
	"github.com/0xsoniclabs/blindauction/journal"
	"github.com/ethereum/go-ethereum/log"
	"github.com/urfave/cli/v2"
)

var (
	accountFlag = cli.StringFlag{
		Name:  "account",
		Usage: "only list events of the given account",
	}
	limitFlag = cli.IntFlag{
		Name:  "limit",
		Usage: "maximum number of events to list, 0 for all",
	}
)

var Journal = cli.Command{
	Action:    listJournal,
	Name:      "journal",
	Usage:     "lists the events recorded in an auction journal",
	ArgsUsage: "<journal-file>",
	Flags: []cli.Flag{
		&accountFlag,
		&limitFlag,
	},
}

func listJournal(context *cli.Context) error {
	if context.Args().Len() != 1 {
		return fmt.Errorf("missing journal file")
	}
	filter := journal.Filter{Limit: context.Int(limitFlag.Name)}
	if context.IsSet(accountFlag.Name) {
		addr, err := common.HexToAddress(context.String(accountFlag.Name))
		if err != nil {
			return err
		}
		filter.Account = addr
	}

	events, err := journal.Open(context.Args().Get(0), log.NewLogger(slog.DiscardHandler))
	if err != nil {
		return err
	}
	entries, err := events.Events(context.Context, filter)
	return errors.Join(
		err,
		printEntries(context.App.Writer, entries),
		events.Close(),
	)
}

func printEntries(out io.Writer, entries []journal.Entry) error {
	w := &errWriter{out: out}
	for _, entry := range entries {
		w.printf("%6d %s %v\n", entry.Seq, entry.Recorded.UTC().Format(time.RFC3339), entry.Event)
	}
	return w.err
}
