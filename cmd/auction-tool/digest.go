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
	"fmt"
	"io"

	"github.com/0xsoniclabs/blindauction/auction"
	"github.com/0xsoniclabs/blindauction/common/amount"
	"github.com/urfave/cli/v2"
)

var (
	valueFlag = cli.StringFlag{
		Name:     "value",
		Usage:    "bid value in wei, as a decimal number",
		Required: true,
	}
	secretFlag = cli.StringFlag{
		Name:     "secret",
		Usage:    "secret used to blind the bid",
		Required: true,
	}
	fakeFlag = cli.BoolFlag{
		Name:  "fake",
		Usage: "marks the bid as a decoy",
	}
)

var Digest = cli.Command{
	Action: digest,
	Name:   "digest",
	Usage:  "computes the blinded digest of a bid",
	Flags: []cli.Flag{
		&valueFlag,
		&secretFlag,
		&fakeFlag,
	},
}

func digest(context *cli.Context) error {
	value, err := amount.ParseDecimal(context.String(valueFlag.Name))
	if err != nil {
		return err
	}
	return printDigest(
		context.App.Writer,
		value,
		context.Bool(fakeFlag.Name),
		[]byte(context.String(secretFlag.Name)),
	)
}

func printDigest(out io.Writer, value amount.Amount, fake bool, secret []byte) error {
	secretHash := auction.SecretHash(secret)
	_, err := fmt.Fprintf(out,
		"value:       %v\nfake:        %t\nsecret hash: %v\ndigest:      %v\n",
		value, fake, secretHash, auction.BlindBid(value, fake, secretHash),
	)
	return err
}
