// Copyright (c) 2025 Sonic Operations Ltd
//
// Use of this software is governed by the Business Source License included
// in the LICENSE file and at soniclabs.com/bsl11.
//
// Change Date: 2028-4-16
//
// On the date above, in accordance with the Business Source License, use of
// this software will be governed by the GNU Lesser General Public License v3.

// Package bank provides the value-transfer primitive of the auction host. It
// tracks a balance per account and the value held in custody by the auction.
// Deposits move from an account into custody when a bid is placed; the
// auction pays out of custody through the auction.Ledger interface.
package bank

import (
	"fmt"
	"slices"

	"github.com/0xsoniclabs/blindauction/common"
	"github.com/0xsoniclabs/blindauction/common/amount"
	"golang.org/x/exp/maps"
)

const (
	ErrInsufficientFunds = common.ConstError("insufficient funds")
	ErrOverflow          = common.ConstError("amount overflow")
)

// Allocation is a balance granted to an account when a bank is created.
type Allocation struct {
	Address common.Address
	Amount  amount.Amount
}

// Bank is an in-memory ledger of account balances. It is not safe for
// concurrent use; the host serializes all access.
type Bank struct {
	accounts map[common.Address]amount.Amount
	custody  amount.Amount
	minted   amount.Amount
}

func New() *Bank {
	return &Bank{accounts: map[common.Address]amount.Amount{}}
}

// Balance returns the free balance of the given account.
func (b *Bank) Balance(addr common.Address) amount.Amount {
	return b.accounts[addr]
}

// Custody returns the value currently held on behalf of the auction.
func (b *Bank) Custody() amount.Amount {
	return b.custody
}

// Minted returns the total value ever created through Fund.
func (b *Bank) Minted() amount.Amount {
	return b.minted
}

// Fund credits new value to the given account. It fails without effect if
// the total minted value would exceed 256 bits.
func (b *Bank) Fund(addr common.Address, value amount.Amount) error {
	if value.IsZero() {
		return nil
	}
	balance, overflow := b.accounts[addr].AddOverflow(value)
	if overflow {
		return fmt.Errorf("%w: funding %v with %v", ErrOverflow, addr, value)
	}
	minted, overflow := b.minted.AddOverflow(value)
	if overflow {
		return fmt.Errorf("%w: minting %v on top of %v", ErrOverflow, value, b.minted)
	}
	b.accounts[addr] = balance
	b.minted = minted
	return nil
}

// Allocate funds all given accounts. It fails without effect if the total
// would overflow.
func (b *Bank) Allocate(allocations []Allocation) error {
	total := amount.Amount{}
	for _, cur := range allocations {
		var overflow bool
		if total, overflow = total.AddOverflow(cur.Amount); overflow {
			return fmt.Errorf("%w: total allocation exceeds 256 bits", ErrOverflow)
		}
	}
	if _, overflow := b.minted.AddOverflow(total); overflow {
		return fmt.Errorf("%w: minting %v on top of %v", ErrOverflow, total, b.minted)
	}
	for _, cur := range allocations {
		if err := b.Fund(cur.Address, cur.Amount); err != nil {
			return err
		}
	}
	return nil
}

// Escrow moves value from the given account into custody.
func (b *Bank) Escrow(from common.Address, value amount.Amount) error {
	balance := b.accounts[from]
	if balance.Cmp(value) < 0 {
		return fmt.Errorf("%w: %v holds %v, needs %v", ErrInsufficientFunds, from, balance, value)
	}
	b.setBalance(from, balance.Sub(value))
	b.custody = b.custody.Add(value)
	return nil
}

// Transfer pays value out of custody to the given account. It implements the
// auction.Ledger interface.
func (b *Bank) Transfer(to common.Address, value amount.Amount) error {
	if b.custody.Cmp(value) < 0 {
		return fmt.Errorf("%w: custody holds %v, needs %v", ErrInsufficientFunds, b.custody, value)
	}
	b.custody = b.custody.Sub(value)
	b.setBalance(to, b.accounts[to].Add(value))
	return nil
}

// Check verifies that no value was created or destroyed: the free balances
// and the custody add up to all value ever minted.
func (b *Bank) Check() error {
	total := b.custody
	for _, balance := range b.accounts {
		var overflow bool
		if total, overflow = total.AddOverflow(balance); overflow {
			return fmt.Errorf("%w: accounts and custody exceed 256 bits", ErrOverflow)
		}
	}
	if total != b.minted {
		return fmt.Errorf("bank out of balance: accounts and custody hold %v, minted %v", total, b.minted)
	}
	return nil
}

func (b *Bank) setBalance(addr common.Address, value amount.Amount) {
	if value.IsZero() {
		delete(b.accounts, addr)
	} else {
		b.accounts[addr] = value
	}
}

// --- Snapshots ---

type Snapshot struct {
	Accounts []AccountSnapshot
	Custody  amount.Amount
	Minted   amount.Amount
}

type AccountSnapshot struct {
	Address common.Address
	Balance amount.Amount
}

// Snapshot captures the current state of the bank, accounts listed in
// address order.
func (b *Bank) Snapshot() *Snapshot {
	addresses := maps.Keys(b.accounts)
	slices.SortFunc(addresses, common.Address.Compare)
	accounts := make([]AccountSnapshot, 0, len(addresses))
	for _, addr := range addresses {
		accounts = append(accounts, AccountSnapshot{Address: addr, Balance: b.accounts[addr]})
	}
	return &Snapshot{
		Accounts: accounts,
		Custody:  b.custody,
		Minted:   b.minted,
	}
}

// Restore re-creates a bank from a snapshot and checks its consistency.
func Restore(snapshot *Snapshot) (*Bank, error) {
	res := New()
	for _, cur := range snapshot.Accounts {
		if _, found := res.accounts[cur.Address]; found {
			return nil, fmt.Errorf("duplicate account %v in snapshot", cur.Address)
		}
		res.setBalance(cur.Address, cur.Balance)
	}
	res.custody = snapshot.Custody
	res.minted = snapshot.Minted
	if err := res.Check(); err != nil {
		return nil, fmt.Errorf("inconsistent snapshot: %w", err)
	}
	return res, nil
}
