// Package chain holds the shared ledger every component settles against:
// token balances, native currency and the undo journal that makes each
// executor call atomic.
package chain

import (
	"errors"
	"fmt"
	"sync"

	"github.com/ethereum/go-ethereum/common"
	"github.com/holiman/uint256"

	"github.com/elys-network/clexec/internal/types"
)

// Ledger is a single-writer token ledger. All state changes happen inside
// Atomic, which serializes transactions and rolls back every journaled
// change when the transaction fails.
type Ledger struct {
	mu       sync.Mutex
	weth     common.Address
	balances map[common.Address]map[common.Address]*uint256.Int // token -> account -> balance
	native   map[common.Address]*uint256.Int
	journal  journal
}

// NewLedger creates an empty ledger. weth is the token minted by Wrap.
func NewLedger(weth common.Address) (*Ledger, error) {
	if err := types.ValidateAddress(weth); err != nil {
		return nil, fmt.Errorf("weth: %w", err)
	}
	return &Ledger{
		weth:     weth,
		balances: make(map[common.Address]map[common.Address]*uint256.Int),
		native:   make(map[common.Address]*uint256.Int),
	}, nil
}

// WETH returns the wrapped native token address.
func (l *Ledger) WETH() common.Address {
	return l.weth
}

// Atomic runs fn as one transaction. If fn returns an error, or panics with
// types.ErrArithmeticOverflow, every change it made is reverted.
func (l *Ledger) Atomic(fn func(tx *Tx) error) (err error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	tx := &Tx{ledger: l}
	snap := l.journal.snapshot()
	defer func() {
		tx.done = true
		if r := recover(); r != nil {
			rerr, ok := r.(error)
			if !ok || !errors.Is(rerr, types.ErrArithmeticOverflow) {
				l.journal.revertTo(snap)
				panic(r)
			}
			err = rerr
		}
		if err != nil {
			l.journal.revertTo(snap)
			return
		}
		l.journal.reset()
	}()

	return fn(tx)
}

// View runs fn against a consistent snapshot. Any change fn makes is discarded.
func (l *Ledger) View(fn func(tx *Tx) error) error {
	err := l.Atomic(func(tx *Tx) error {
		if err := fn(tx); err != nil {
			return err
		}
		return errDiscard
	})
	if errors.Is(err, errDiscard) {
		return nil
	}
	return err
}

var errDiscard = errors.New("discard view")

// Balance reads a token balance outside of any transaction.
func (l *Ledger) Balance(token, account common.Address) *uint256.Int {
	var out *uint256.Int
	_ = l.View(func(tx *Tx) error {
		out = tx.Balance(token, account)
		return nil
	})
	return out
}

// NativeBalance reads a native balance outside of any transaction.
func (l *Ledger) NativeBalance(account common.Address) *uint256.Int {
	var out *uint256.Int
	_ = l.View(func(tx *Tx) error {
		out = tx.NativeBalance(account)
		return nil
	})
	return out
}

// Mint credits new tokens to an account. Used to fund accounts on simulated venues.
func (l *Ledger) Mint(token, to common.Address, amount *uint256.Int) error {
	return l.Atomic(func(tx *Tx) error {
		return tx.Mint(token, to, amount)
	})
}

// DepositNative credits native currency to an account.
func (l *Ledger) DepositNative(to common.Address, amount *uint256.Int) error {
	return l.Atomic(func(tx *Tx) error {
		return tx.DepositNative(to, amount)
	})
}

func (l *Ledger) balanceRef(token, account common.Address) *uint256.Int {
	if byAccount, ok := l.balances[token]; ok {
		if bal, ok := byAccount[account]; ok {
			return bal
		}
	}
	return nil
}

// setBalance records the old value in the journal and installs the new one.
func (l *Ledger) setBalance(token, account common.Address, value *uint256.Int) {
	byAccount, ok := l.balances[token]
	if !ok {
		byAccount = make(map[common.Address]*uint256.Int)
		l.balances[token] = byAccount
	}
	prev, existed := byAccount[account]
	l.journal.append(func() {
		if existed {
			byAccount[account] = prev
		} else {
			delete(byAccount, account)
		}
	})
	byAccount[account] = value
}

func (l *Ledger) setNative(account common.Address, value *uint256.Int) {
	prev, existed := l.native[account]
	l.journal.append(func() {
		if existed {
			l.native[account] = prev
		} else {
			delete(l.native, account)
		}
	})
	l.native[account] = value
}
