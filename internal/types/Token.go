/*

Token metadata used for display and configuration.

*/

package types

import (
	"github.com/ethereum/go-ethereum/common"
	"github.com/holiman/uint256"
)

type Token struct {
	Symbol   string         `json:"symbol"`   // e.g., "weth"
	Address  common.Address `json:"address"`  // ledger address of the token
	Decimals int            `json:"decimals"` // e.g., 18
}

// TokenAmount pairs a token with a base-unit amount.
type TokenAmount struct {
	Token  common.Address `json:"token"`
	Amount *uint256.Int   `json:"amount"`
}
