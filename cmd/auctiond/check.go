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
	"log/slog"
	"path/filepath"

	"github.com/0xsoniclabs/blindauction/host"
	"github.com/0xsoniclabs/blindauction/store"
	"github.com/ethereum/go-ethereum/log"
	"github.com/urfave/cli/v2"
)

var Check = cli.Command{
	Action:    check,
	Name:      "check",
	Usage:     "checks the invariants of a persisted auction",
	ArgsUsage: "<data-dir>",
}

func check(context *cli.Context) error {
	if context.Args().Len() != 1 {
		return fmt.Errorf("missing data directory")
	}
	dir := context.Args().Get(0)

	fmt.Printf("Checking auction in %s ...\n", dir)
	if err := checkDataDir(dir); err != nil {
		return err
	}
	fmt.Printf("All checks passed!\n")
	return nil
}

func checkDataDir(dir string) error {
	db, err := store.OpenLevelDb(filepath.Join(dir, "state"), store.Options{ReadOnly: true})
	if err != nil {
		return err
	}
	if _, err := db.Load(); err != nil {
		return errors.Join(fmt.Errorf("failed to load auction state: %w", err), db.Close())
	}
	h, err := host.Open(host.Options{
		Store:  db,
		Logger: log.NewLogger(slog.DiscardHandler),
	})
	if err != nil {
		return errors.Join(err, db.Close())
	}
	return errors.Join(
		h.Check(), // check must be called before closing
		h.Close(),
	)
}
