// Copyright (c) 2025 Sonic Operations Ltd
//
// Use of this software is governed by the Business Source License included
// in the LICENSE file and at soniclabs.com/bsl11.
//
// Change Date: 2028-4-16
//
// On the date above, in accordance with the Business Source License, use of
// this software will be governed by the GNU Lesser General Public License v3.

// Package config defines the configuration file of the auction daemon.
//
// Example:
//
//	auction:
//	  beneficiary: "0x00000000000000000000000000000000000000be"
//	  bidding_period: 1h   # or bidding_end: <unix seconds>
//	  reveal_period: 30m   # or reveal_end: <unix seconds>
//	  forfeit_policy: beneficiary
//	  allocations:         # initial balances of a new auction
//	    - address: "0x00000000000000000000000000000000000000a1"
//	      amount: "1000000000000000000"
//	server:
//	  listen_addr: ":8080"
//	  faucet: false        # without faucet, allocations are the only funds
//	storage:
//	  data_dir: "./data"   # empty keeps all state in memory
//	  cache_mb: 0          # 0 sizes the cache from system memory
//	journal:
//	  path: "./data/journal.db"
//	log:
//	  level: info
package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/0xsoniclabs/blindauction/auction"
	"github.com/0xsoniclabs/blindauction/bank"
	"github.com/0xsoniclabs/blindauction/common"
	"github.com/0xsoniclabs/blindauction/common/amount"
	"github.com/ethereum/go-ethereum/log"
	"github.com/pbnjay/memory"
	"gopkg.in/yaml.v3"
)

type Config struct {
	Auction AuctionConfig `yaml:"auction"`
	Server  ServerConfig  `yaml:"server"`
	Storage StorageConfig `yaml:"storage"`
	Journal JournalConfig `yaml:"journal"`
	Log     LogConfig     `yaml:"log"`
}

// AuctionConfig describes the auction started when the store is empty.
// Absolute phase ends take precedence over periods.
type AuctionConfig struct {
	Beneficiary   string        `yaml:"beneficiary"`
	BiddingEnd    uint64        `yaml:"bidding_end"`
	RevealEnd     uint64        `yaml:"reveal_end"`
	BiddingPeriod time.Duration `yaml:"bidding_period"`
	RevealPeriod  time.Duration `yaml:"reveal_period"`
	ForfeitPolicy string        `yaml:"forfeit_policy"`

	Allocations []AllocationConfig `yaml:"allocations"`
}

// AllocationConfig grants a balance to an account of a new auction. The
// amount is in wei.
type AllocationConfig struct {
	Address string `yaml:"address"`
	Amount  string `yaml:"amount"`
}

type ServerConfig struct {
	ListenAddr   string        `yaml:"listen_addr"`
	ReadTimeout  time.Duration `yaml:"read_timeout"`
	WriteTimeout time.Duration `yaml:"write_timeout"`
	Faucet       bool          `yaml:"faucet"`
}

type StorageConfig struct {
	DataDir string `yaml:"data_dir"`
	CacheMB int    `yaml:"cache_mb"`
}

type JournalConfig struct {
	Path string `yaml:"path"` // empty disables the journal
}

type LogConfig struct {
	Level string `yaml:"level"`
}

func Default() *Config {
	return &Config{
		Auction: AuctionConfig{
			BiddingPeriod: time.Hour,
			RevealPeriod:  time.Hour,
			ForfeitPolicy: auction.ForfeitToBeneficiary.String(),
		},
		Server: ServerConfig{
			ListenAddr:   ":8080",
			ReadTimeout:  10 * time.Second,
			WriteTimeout: 10 * time.Second,
		},
		Log: LogConfig{Level: "info"},
	}
}

// Load reads the configuration file at the given path on top of the
// defaults. Unknown fields are rejected.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config: %w", err)
	}
	return Parse(data)
}

func Parse(data []byte) (*Config, error) {
	cfg := Default()
	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true)
	if err := decoder.Decode(cfg); err != nil && !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("parsing config: %w", err)
	}
	return cfg, nil
}

// Validate checks all settings that can be checked without knowing the start
// time of the auction.
func (c *Config) Validate() error {
	var errs []error
	if _, err := common.HexToAddress(c.Auction.Beneficiary); err != nil {
		errs = append(errs, fmt.Errorf("auction.beneficiary: %w", err))
	}
	if c.Auction.BiddingEnd == 0 && c.Auction.BiddingPeriod < time.Second {
		errs = append(errs, fmt.Errorf("auction: bidding_end or a bidding_period of at least 1s is required"))
	}
	if c.Auction.RevealEnd == 0 && c.Auction.RevealPeriod < time.Second {
		errs = append(errs, fmt.Errorf("auction: reveal_end or a reveal_period of at least 1s is required"))
	}
	if _, err := auction.ParseForfeitPolicy(c.Auction.ForfeitPolicy); err != nil {
		errs = append(errs, fmt.Errorf("auction.forfeit_policy: %w", err))
	}
	if _, err := c.Auction.ResolveAllocations(); err != nil {
		errs = append(errs, err)
	}
	if c.Server.ListenAddr == "" {
		errs = append(errs, fmt.Errorf("server.listen_addr is required"))
	}
	if c.Storage.CacheMB < 0 {
		errs = append(errs, fmt.Errorf("storage.cache_mb must not be negative"))
	}
	if _, err := ParseLevel(c.Log.Level); err != nil {
		errs = append(errs, fmt.Errorf("log.level: %w", err))
	}
	return errors.Join(errs...)
}

// Resolve produces the auction configuration for an auction starting at the
// given unix time.
func (c *AuctionConfig) Resolve(start uint64) (auction.Config, error) {
	beneficiary, err := common.HexToAddress(c.Beneficiary)
	if err != nil {
		return auction.Config{}, err
	}
	policy, err := auction.ParseForfeitPolicy(c.ForfeitPolicy)
	if err != nil {
		return auction.Config{}, err
	}
	biddingEnd := c.BiddingEnd
	if biddingEnd == 0 {
		biddingEnd = start + uint64(c.BiddingPeriod/time.Second)
	}
	revealEnd := c.RevealEnd
	if revealEnd == 0 {
		revealEnd = biddingEnd + uint64(c.RevealPeriod/time.Second)
	}
	res := auction.Config{
		Beneficiary:   beneficiary,
		BiddingEnd:    biddingEnd,
		RevealEnd:     revealEnd,
		ForfeitPolicy: policy,
	}
	return res, res.Validate()
}

// ResolveAllocations parses the configured initial balances.
func (c *AuctionConfig) ResolveAllocations() ([]bank.Allocation, error) {
	res := make([]bank.Allocation, 0, len(c.Allocations))
	var errs []error
	for i, cur := range c.Allocations {
		addr, err := common.HexToAddress(cur.Address)
		if err == nil && addr == (common.Address{}) {
			err = fmt.Errorf("zero address")
		}
		if err != nil {
			errs = append(errs, fmt.Errorf("auction.allocations[%d].address: %w", i, err))
			continue
		}
		value, err := amount.ParseDecimal(cur.Amount)
		if err != nil {
			errs = append(errs, fmt.Errorf("auction.allocations[%d].amount: %w", i, err))
			continue
		}
		res = append(res, bank.Allocation{Address: addr, Amount: value})
	}
	if len(errs) > 0 {
		return nil, errors.Join(errs...)
	}
	return res, nil
}

const (
	minCacheBytes = 8 << 20
	maxCacheBytes = 1 << 30
)

// CacheBytes is the memory budget of the store. If not configured, it is a
// sixteenth of the system memory, clamped to [8 MiB, 1 GiB].
func (c *StorageConfig) CacheBytes() int {
	if c.CacheMB > 0 {
		return c.CacheMB << 20
	}
	return autoCacheBytes(memory.TotalMemory())
}

func autoCacheBytes(total uint64) int {
	return int(min(max(total/16, minCacheBytes), maxCacheBytes))
}

// ParseLevel converts a level name into a log level.
func ParseLevel(level string) (slog.Level, error) {
	switch strings.ToLower(level) {
	case "trace":
		return log.LevelTrace, nil
	case "debug":
		return log.LevelDebug, nil
	case "", "info":
		return log.LevelInfo, nil
	case "warn", "warning":
		return log.LevelWarn, nil
	case "error":
		return log.LevelError, nil
	case "crit":
		return log.LevelCrit, nil
	default:
		return 0, fmt.Errorf("unknown log level %q", level)
	}
}
