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
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/0xsoniclabs/blindauction/auction"
	"github.com/0xsoniclabs/blindauction/config"
	"github.com/0xsoniclabs/blindauction/host"
	"github.com/0xsoniclabs/blindauction/journal"
	"github.com/0xsoniclabs/blindauction/server"
	"github.com/0xsoniclabs/blindauction/store"
	"github.com/ethereum/go-ethereum/log"
	"github.com/urfave/cli/v2"
)

var (
	configFlag = cli.StringFlag{
		Name:  "config",
		Usage: "path to the YAML configuration file",
	}
	listenFlag = cli.StringFlag{
		Name:  "listen",
		Usage: "HTTP listen address, overrides server.listen_addr",
	}
	dataDirFlag = cli.StringFlag{
		Name:  "data-dir",
		Usage: "directory of the state database, overrides storage.data_dir",
	}
	logLevelFlag = cli.StringFlag{
		Name:  "log-level",
		Usage: "one of trace, debug, info, warn, error, crit; overrides log.level",
	}
)

var Run = cli.Command{
	Action: run,
	Name:   "run",
	Usage:  "runs the auction host and its HTTP API",
	Flags: []cli.Flag{
		&configFlag,
		&listenFlag,
		&dataDirFlag,
		&logLevelFlag,
	},
}

func run(context *cli.Context) error {
	cfg, err := loadConfig(context)
	if err != nil {
		return err
	}
	logger, err := newLogger(cfg.Log.Level)
	if err != nil {
		return err
	}

	auctionConfig, err := cfg.Auction.Resolve(auction.SystemClock{}.Now())
	if err != nil {
		return fmt.Errorf("invalid auction configuration: %w", err)
	}
	allocations, err := cfg.Auction.ResolveAllocations()
	if err != nil {
		return err
	}

	db, err := openStore(cfg.Storage, logger)
	if err != nil {
		return err
	}

	var observer auction.Observer
	var events *journal.Journal
	if cfg.Journal.Path != "" {
		events, err = journal.Open(cfg.Journal.Path, logger)
		if err != nil {
			return errors.Join(fmt.Errorf("failed to open journal: %w", err), db.Close())
		}
		observer = events
	}

	h, err := host.Open(host.Options{
		Config:      auctionConfig,
		Store:       db,
		Observer:    observer,
		Logger:      logger,
		Allocations: allocations,
	})
	if err != nil {
		return errors.Join(err, db.Close(), closeJournal(events))
	}

	srv := server.New(server.Config{
		ListenAddr:   cfg.Server.ListenAddr,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		Logger:       logger,
	}, server.NewAuctionHandler(h, cfg.Server.Faucet, logger))

	ctx, stop := signal.NotifyContext(context.Context, os.Interrupt, syscall.SIGTERM)
	defer stop()

	return errors.Join(
		srv.Run(ctx),
		h.Close(),
		closeJournal(events),
	)
}

// loadConfig reads the configuration file, if any, and applies flag
// overrides.
func loadConfig(context *cli.Context) (*config.Config, error) {
	cfg := config.Default()
	if path := context.String(configFlag.Name); path != "" {
		var err error
		cfg, err = config.Load(path)
		if err != nil {
			return nil, err
		}
	}
	if context.IsSet(listenFlag.Name) {
		cfg.Server.ListenAddr = context.String(listenFlag.Name)
	}
	if context.IsSet(dataDirFlag.Name) {
		cfg.Storage.DataDir = context.String(dataDirFlag.Name)
	}
	if context.IsSet(logLevelFlag.Name) {
		cfg.Log.Level = context.String(logLevelFlag.Name)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("configuration error: %w", err)
	}
	return cfg, nil
}

func newLogger(level string) (log.Logger, error) {
	lvl, err := config.ParseLevel(level)
	if err != nil {
		return nil, err
	}
	logger := log.NewLogger(log.NewTerminalHandlerWithLevel(os.Stderr, lvl, false))
	log.SetDefault(logger)
	return logger, nil
}

func openStore(cfg config.StorageConfig, logger log.Logger) (store.Store, error) {
	if cfg.DataDir == "" {
		logger.Warn("No data directory configured, auction state is kept in memory only")
		return store.NewInMemory(), nil
	}
	path := filepath.Join(cfg.DataDir, "state")
	cacheBytes := cfg.CacheBytes()
	start := time.Now()
	db, err := store.OpenLevelDb(path, store.Options{CacheBytes: cacheBytes})
	if err != nil {
		return nil, fmt.Errorf("failed to open state database in %s: %w", path, err)
	}
	logger.Info("Opened state database", "path", path, "cache", cacheBytes, "elapsed", time.Since(start))
	return db, nil
}

func closeJournal(events *journal.Journal) error {
	if events == nil {
		return nil
	}
	return events.Close()
}
