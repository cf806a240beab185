package chain

import (
	"errors"
	"fmt"

	"github.com/ethereum/go-ethereum/common"
	"github.com/holiman/uint256"

	"github.com/elys-network/clexec/internal/types"
)

// Tx is the handle for one ledger transaction. It is only valid inside the
// Atomic or View callback that created it.
type Tx struct {
	ledger *Ledger
	done   bool
}

// Active returns ErrNotInTransaction once the transaction has ended.
func (tx *Tx) Active() error {
	if tx == nil || tx.done {
		return types.ErrNotInTransaction
	}
	return nil
}

// Record journals an undo closure for a change made outside the ledger's own
// maps, so it is rolled back together with balances.
func (tx *Tx) Record(undo func()) error {
	if err := tx.Active(); err != nil {
		return err
	}
	tx.ledger.journal.append(undo)
	return nil
}

// Snapshot returns an identifier for the current journal position.
func (tx *Tx) Snapshot() int {
	return tx.ledger.journal.snapshot()
}

// RevertToSnapshot undoes every change recorded after the snapshot.
func (tx *Tx) RevertToSnapshot(id int) {
	tx.ledger.journal.revertTo(id)
}

// Balance returns a copy of account's balance of token.
func (tx *Tx) Balance(token, account common.Address) *uint256.Int {
	if bal := tx.ledger.balanceRef(token, account); bal != nil {
		return new(uint256.Int).Set(bal)
	}
	return new(uint256.Int)
}

// NativeBalance returns a copy of account's native balance.
func (tx *Tx) NativeBalance(account common.Address) *uint256.Int {
	if bal, ok := tx.ledger.native[account]; ok {
		return new(uint256.Int).Set(bal)
	}
	return new(uint256.Int)
}

// Transfer moves amount of token between accounts.
func (tx *Tx) Transfer(token, from, to common.Address, amount *uint256.Int) error {
	if err := tx.Active(); err != nil {
		return err
	}
	if amount.IsZero() || from == to {
		return nil
	}
	fromBal := tx.Balance(token, from)
	if fromBal.Lt(amount) {
		return errors.Join(types.ErrInsufficientBalance,
			fmt.Errorf("%s holds %s of %s, needs %s", from.Hex(), fromBal.Dec(), token.Hex(), amount.Dec()))
	}
	toBal, overflow := new(uint256.Int).AddOverflow(tx.Balance(token, to), amount)
	if overflow {
		return types.ErrArithmeticOverflow
	}
	tx.ledger.setBalance(token, from, fromBal.Sub(fromBal, amount))
	tx.ledger.setBalance(token, to, toBal)
	return nil
}

// Mint creates amount of token in account to.
func (tx *Tx) Mint(token, to common.Address, amount *uint256.Int) error {
	if err := tx.Active(); err != nil {
		return err
	}
	if err := types.ValidateAddress(token); err != nil {
		return err
	}
	bal, overflow := new(uint256.Int).AddOverflow(tx.Balance(token, to), amount)
	if overflow {
		return types.ErrArithmeticOverflow
	}
	tx.ledger.setBalance(token, to, bal)
	return nil
}

// DepositNative credits native currency.
func (tx *Tx) DepositNative(to common.Address, amount *uint256.Int) error {
	if err := tx.Active(); err != nil {
		return err
	}
	bal, overflow := new(uint256.Int).AddOverflow(tx.NativeBalance(to), amount)
	if overflow {
		return types.ErrArithmeticOverflow
	}
	tx.ledger.setNative(to, bal)
	return nil
}

// Wrap converts amount of account's native currency into WETH 1:1.
func (tx *Tx) Wrap(account common.Address, amount *uint256.Int) error {
	if err := tx.Active(); err != nil {
		return err
	}
	if amount.IsZero() {
		return types.ErrZeroValue
	}
	native := tx.NativeBalance(account)
	if native.Lt(amount) {
		return errors.Join(types.ErrInsufficientBalance,
			fmt.Errorf("%s holds %s native, needs %s", account.Hex(), native.Dec(), amount.Dec()))
	}
	tx.ledger.setNative(account, native.Sub(native, amount))
	return tx.Mint(tx.ledger.weth, account, amount)
}

// WETH returns the wrapped native token address.
func (tx *Tx) WETH() common.Address {
	return tx.ledger.weth
}
