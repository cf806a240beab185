package vault

import (
	"context"

	"github.com/ethereum/go-ethereum/common"
	"github.com/holiman/uint256"

	"github.com/elys-network/clexec/internal/chain"
	"github.com/elys-network/clexec/internal/types"
)

// Custodian defines the interface the executor and the HTTP API use to reach
// the vault. It abstracts the custody implementation so callers depend only on
// fee deposits, withdrawals and reads.
type Custodian interface {
	// Address is the vault's ledger account.
	Address() common.Address

	// ReserveToken is the only token the vault accepts.
	ReserveToken() common.Address

	// LinkedStrategy is the address of the strategy whose fees the vault receives.
	LinkedStrategy() common.Address

	// DepositFees pulls amount of token from caller into custody. It runs inside
	// the caller's transaction.
	DepositFees(tx *chain.Tx, caller, token common.Address, amount *uint256.Int) error

	// Withdraw pays amount of the reserve token to `to`. Only the owner may call it.
	Withdraw(ctx context.Context, caller, to common.Address, amount *uint256.Int) error

	// Snapshot returns the current vault state.
	Snapshot(tx *chain.Tx) (Info, error)
}

// LinkedStrategy is the part of a strategy the vault needs to check deposits.
type LinkedStrategy interface {
	Address() common.Address
	State(tx *chain.Tx) (types.StrategyState, error)
}

// Info is a read-only view of the vault.
type Info struct {
	Address        common.Address   `json:"address"`
	ReserveToken   common.Address   `json:"reserve_token"`
	Owner          common.Address   `json:"owner"`
	LinkedStrategy common.Address   `json:"linked_strategy"`
	LinkedWidth    types.WidthClass `json:"linked_width"`
	Balance        *uint256.Int     `json:"balance"`
}
