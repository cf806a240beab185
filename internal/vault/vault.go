// Package vault holds the custodial reserve-token vault that receives the
// fees of one linked strategy.
package vault

import (
	"context"
	"errors"
	"fmt"

	"github.com/ethereum/go-ethereum/common"
	"github.com/holiman/uint256"
	"github.com/rs/zerolog"

	"github.com/elys-network/clexec/internal/chain"
	"github.com/elys-network/clexec/internal/logger"
	"github.com/elys-network/clexec/internal/types"
)

// Vault keeps a counter of the reserve token it has custody of. The counter
// only changes inside ledger transactions and is journaled with them.
type Vault struct {
	ledger       *chain.Ledger
	address      common.Address
	reserveToken common.Address
	owner        common.Address
	linked       LinkedStrategy
	balance      *uint256.Int
	logger       zerolog.Logger
}

var _ Custodian = (*Vault)(nil)

// Config holds the construction-time settings of a vault.
type Config struct {
	Address      common.Address
	ReserveToken common.Address
	Owner        common.Address
	Linked       LinkedStrategy
}

// New creates an empty vault.
func New(ledger *chain.Ledger, cfg Config) (*Vault, error) {
	if ledger == nil {
		return nil, errors.Join(types.ErrInvalidInput, errors.New("vault needs a ledger"))
	}
	for name, addr := range map[string]common.Address{
		"address":       cfg.Address,
		"reserve token": cfg.ReserveToken,
		"owner":         cfg.Owner,
	} {
		if err := types.ValidateAddress(addr); err != nil {
			return nil, fmt.Errorf("vault %s: %w", name, err)
		}
	}
	if cfg.Linked == nil {
		return nil, errors.Join(types.ErrInvalidInput, errors.New("vault needs a linked strategy"))
	}
	return &Vault{
		ledger:       ledger,
		address:      cfg.Address,
		reserveToken: cfg.ReserveToken,
		owner:        cfg.Owner,
		linked:       cfg.Linked,
		balance:      new(uint256.Int),
		logger:       logger.GetForComponent("vault"),
	}, nil
}

func (v *Vault) Address() common.Address {
	return v.address
}

func (v *Vault) ReserveToken() common.Address {
	return v.reserveToken
}

func (v *Vault) LinkedStrategy() common.Address {
	return v.linked.Address()
}

// DepositFees accepts reserve-token fees from the executor of the linked strategy.
func (v *Vault) DepositFees(tx *chain.Tx, caller, token common.Address, amount *uint256.Int) error {
	if err := tx.Active(); err != nil {
		return err
	}
	linked, err := v.linked.State(tx)
	if err != nil {
		return err
	}
	if !linked.Authorized || caller != linked.Executor {
		return errors.Join(types.ErrUnauthorized,
			fmt.Errorf("%s is not the executor of linked strategy %s", caller.Hex(), linked.Width))
	}
	if token != v.reserveToken {
		return errors.Join(types.ErrTokenMismatch,
			fmt.Errorf("vault accepts %s, got %s", v.reserveToken.Hex(), token.Hex()))
	}
	if amount == nil || amount.IsZero() {
		return nil
	}

	if err := tx.Transfer(token, caller, v.address, amount); err != nil {
		return err
	}
	next, overflow := new(uint256.Int).AddOverflow(v.balance, amount)
	if overflow {
		return types.ErrArithmeticOverflow
	}
	if err := v.setBalance(tx, next); err != nil {
		return err
	}

	v.logger.Info().
		Str("token", token.Hex()).
		Str("amount", amount.Dec()).
		Str("balance", next.Dec()).
		Msg("Fees deposited")
	return nil
}

// Withdraw runs in its own transaction.
func (v *Vault) Withdraw(ctx context.Context, caller, to common.Address, amount *uint256.Int) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	err := v.ledger.Atomic(func(tx *chain.Tx) error {
		if caller != v.owner {
			return errors.Join(types.ErrUnauthorized, fmt.Errorf("%s is not the vault owner", caller.Hex()))
		}
		if err := types.ValidateAddress(to); err != nil {
			return fmt.Errorf("withdraw recipient: %w", err)
		}
		if amount == nil || amount.IsZero() {
			return errors.Join(types.ErrZeroValue, errors.New("withdraw amount"))
		}
		if amount.Gt(v.balance) {
			return errors.Join(types.ErrInsufficientBalance,
				fmt.Errorf("vault holds %s, asked %s", v.balance.Dec(), amount.Dec()))
		}
		if err := tx.Transfer(v.reserveToken, v.address, to, amount); err != nil {
			return err
		}
		return v.setBalance(tx, new(uint256.Int).Sub(v.balance, amount))
	})
	if err != nil {
		v.logger.Warn().Err(err).Str("caller", caller.Hex()).Msg("Withdraw rejected")
		return err
	}
	v.logger.Info().
		Str("to", to.Hex()).
		Str("amount", amount.Dec()).
		Msg("Withdrawn from vault")
	return nil
}

// Snapshot returns the vault state as seen inside tx.
func (v *Vault) Snapshot(tx *chain.Tx) (Info, error) {
	if err := tx.Active(); err != nil {
		return Info{}, err
	}
	linked, err := v.linked.State(tx)
	if err != nil {
		return Info{}, err
	}
	return Info{
		Address:        v.address,
		ReserveToken:   v.reserveToken,
		Owner:          v.owner,
		LinkedStrategy: v.linked.Address(),
		LinkedWidth:    linked.Width,
		Balance:        v.balance.Clone(),
	}, nil
}

func (v *Vault) setBalance(tx *chain.Tx, next *uint256.Int) error {
	prev := v.balance
	if err := tx.Record(func() { v.balance = prev }); err != nil {
		return err
	}
	v.balance = next
	return nil
}
