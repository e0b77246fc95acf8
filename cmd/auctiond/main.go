// Copyright (c) 2025 Sonic Operations Ltd
//
// Use of this software is governed by the Business Source License included
// in the LICENSE file and at soniclabs.com/bsl11.
//
// Change Date: 2028-4-16
//
// On the date above, in accordance with the Business Source License, use of
// this software will be governed by the GNU Lesser General Public License v3.

// Command auctiond hosts a single sealed-bid auction behind an HTTP API.
//
// Usage:
//
//	auctiond run --config auction.yaml
//	auctiond check <data-dir>
package main

import (
	"fmt"
	"os"

	"github.com/urfave/cli/v2"
)

func main() {
	app := &cli.App{
		Name:      "auctiond",
		Usage:     "sealed-bid auction daemon",
		Copyright: "(c) 2025 Sonic Operations Ltd",
		Commands: []*cli.Command{
			&Run,
			&Check,
		},
	}
	if err := app.Run(os.Args); err != nil {
		fmt.Fprintf(os.Stderr, "%v\n", err)
		os.Exit(1)
	}
}
