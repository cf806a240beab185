package executor

import (
	"errors"
	"fmt"

	"github.com/ethereum/go-ethereum/common"
	"github.com/holiman/uint256"

	"github.com/elys-network/clexec/internal/chain"
	"github.com/elys-network/clexec/internal/types"
)

// escrow tracks the executor's balances of every token a call touches. The
// executor only holds tokens in flight, so each must be back to its opening
// balance when the call ends.
type escrow struct {
	tx      *chain.Tx
	account common.Address
	opening map[common.Address]*uint256.Int
	order   []common.Address
}

func newEscrow(tx *chain.Tx, account common.Address) *escrow {
	return &escrow{tx: tx, account: account, opening: make(map[common.Address]*uint256.Int)}
}

// watch records the opening balance of each token the first time it is seen.
func (e *escrow) watch(tokens ...common.Address) {
	for _, token := range tokens {
		if _, ok := e.opening[token]; ok {
			continue
		}
		e.opening[token] = e.tx.Balance(token, e.account)
		e.order = append(e.order, token)
	}
}

// pull moves amount of token from owner into escrow.
func (e *escrow) pull(token, owner common.Address, amount *uint256.Int) error {
	e.watch(token)
	if amount == nil || amount.IsZero() {
		return nil
	}
	return e.tx.Transfer(token, owner, e.account, amount)
}

// pay moves amount of token out of escrow.
func (e *escrow) pay(token, to common.Address, amount *uint256.Int) error {
	e.watch(token)
	if amount == nil || amount.IsZero() {
		return nil
	}
	return e.tx.Transfer(token, e.account, to, amount)
}

// verifySettlement ensures every watched balance is back where it started.
func (e *escrow) verifySettlement() error {
	for _, token := range e.order {
		now := e.tx.Balance(token, e.account)
		if !now.Eq(e.opening[token]) {
			return errors.Join(types.ErrUnsettledEscrow,
				fmt.Errorf("executor holds %s of %s, expected %s", now.Dec(), token.Hex(), e.opening[token].Dec()))
		}
	}
	return nil
}
