// Copyright (c) 2025 Sonic Operations Ltd
//
// Use of this software is governed by the Business Source License included
// in the LICENSE file and at soniclabs.com/bsl11.
//
// Change Date: 2028-4-16
//
// On the date above, in accordance with the Business Source License, use of
// this software will be governed by the GNU Lesser General Public License v3.

// Package journal records auction events in an append-only SQLite table.
// Events are written by a background worker so that recording never blocks
// the operation that produced them.
package journal

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/0xsoniclabs/blindauction/auction"
	"github.com/0xsoniclabs/blindauction/common"
	"github.com/0xsoniclabs/blindauction/common/amount"
	"github.com/ethereum/go-ethereum/log"
	_ "github.com/mattn/go-sqlite3"
)

// maxReportedIssues is the number of write errors kept between two syncs.
const maxReportedIssues = 10

// Entry is a recorded event.
type Entry struct {
	Seq      int64
	Recorded time.Time
	Event    auction.Event
}

// Filter restricts the entries returned by Events. Zero values match all.
type Filter struct {
	Account common.Address
	Limit   int
}

// Journal is an auction.Observer persisting all observed events. OnEvent may
// be called from a single goroutine at a time; Events, Flush and Close may be
// called concurrently with it. A journal must not be used after Close.
type Journal struct {
	db  *sql.DB
	log log.Logger

	commands chan<- command  // < commands to background worker
	syncs    <-chan error    // < signalled when syncing with background worker
	done     <-chan struct{} // < when background work is done
}

type command struct {
	entry *Entry // nil for sync commands
}

// Open opens or creates the journal database at the given path.
func Open(path string, logger log.Logger) (*Journal, error) {
	if logger == nil {
		logger = log.Root()
	}
	db, err := sql.Open("sqlite3", fmt.Sprintf("file:%s?_journal_mode=WAL&_busy_timeout=5000", path))
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}
	// A single connection serializes the worker with readers.
	db.SetMaxOpenConns(1)

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := migrate(ctx, db); err != nil {
		return nil, errors.Join(fmt.Errorf("running migrations: %w", err), db.Close())
	}
	insert, err := db.PrepareContext(ctx, `
		INSERT INTO events (recorded_at, kind, account, slot, outcome, amount)
		VALUES (?, ?, ?, ?, ?, ?)
	`)
	if err != nil {
		return nil, errors.Join(fmt.Errorf("preparing insert: %w", err), db.Close())
	}

	commands := make(chan command, 1024)
	syncs := make(chan error)
	done := make(chan struct{})
	logger = logger.New("module", "journal")

	go func() {
		defer close(done)
		defer insert.Close()
		var issues []error
		extraIssues := 0
		for command := range commands {
			if command.entry != nil {
				e := command.entry
				_, err := insert.Exec(
					e.Recorded.UnixMilli(),
					int(e.Event.Kind),
					e.Event.Account[:],
					e.Event.Index,
					int(e.Event.Outcome),
					e.Event.Amount.String(),
				)
				if err != nil {
					logger.Error("Failed to record event", "event", e.Event, "err", err)
					if len(issues) < maxReportedIssues {
						issues = append(issues, fmt.Errorf("event %v: %w", e.Event, err))
					} else {
						extraIssues++
					}
				}
			} else { // sync command
				if extraIssues > 0 {
					issues = append(issues, fmt.Errorf("%d additional errors truncated", extraIssues))
					extraIssues = 0
				}
				syncs <- errors.Join(issues...)
				issues = issues[:0]
			}
		}
	}()

	return &Journal{
		db:       db,
		log:      logger,
		commands: commands,
		syncs:    syncs,
		done:     done,
	}, nil
}

func migrate(ctx context.Context, db *sql.DB) error {
	schema := `
	CREATE TABLE IF NOT EXISTS events (
		seq INTEGER PRIMARY KEY AUTOINCREMENT,
		recorded_at INTEGER NOT NULL,
		kind INTEGER NOT NULL,
		account BLOB NOT NULL,
		slot INTEGER NOT NULL,
		outcome INTEGER NOT NULL,
		amount TEXT NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_events_account ON events(account);
	`
	_, err := db.ExecContext(ctx, schema)
	return err
}

// OnEvent queues the event for recording. It implements auction.Observer.
func (j *Journal) OnEvent(event auction.Event) {
	j.commands <- command{entry: &Entry{Recorded: time.Now(), Event: event}}
}

// Flush waits until all queued events are written and reports write errors
// that occurred since the last flush.
func (j *Journal) Flush() error {
	j.commands <- command{}
	return <-j.syncs
}

// Events returns recorded entries in recording order. Queued events are
// flushed first.
func (j *Journal) Events(ctx context.Context, filter Filter) ([]Entry, error) {
	if err := j.Flush(); err != nil {
		return nil, err
	}

	query := `SELECT seq, recorded_at, kind, account, slot, outcome, amount FROM events`
	var args []any
	if filter.Account != (common.Address{}) {
		query += ` WHERE account = ?`
		args = append(args, filter.Account[:])
	}
	query += ` ORDER BY seq`
	if filter.Limit > 0 {
		query += ` LIMIT ?`
		args = append(args, filter.Limit)
	}

	rows, err := j.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var res []Entry
	for rows.Next() {
		var (
			seq      int64
			recorded int64
			kind     int
			account  []byte
			slot     int
			outcome  int
			value    string
		)
		if err := rows.Scan(&seq, &recorded, &kind, &account, &slot, &outcome, &value); err != nil {
			return nil, fmt.Errorf("scanning row: %w", err)
		}
		if len(account) != len(common.Address{}) {
			return nil, fmt.Errorf("entry %d: invalid account length %d", seq, len(account))
		}
		parsed, err := amount.ParseDecimal(value)
		if err != nil {
			return nil, fmt.Errorf("entry %d: %w", seq, err)
		}
		res = append(res, Entry{
			Seq:      seq,
			Recorded: time.UnixMilli(recorded),
			Event: auction.Event{
				Kind:    auction.EventKind(kind),
				Account: common.Address(account),
				Index:   slot,
				Outcome: auction.Outcome(outcome),
				Amount:  parsed,
			},
		})
	}
	return res, rows.Err()
}

// Close flushes all queued events and releases the database.
func (j *Journal) Close() error {
	err := j.Flush()
	close(j.commands)
	<-j.done
	return errors.Join(err, j.db.Close())
}
