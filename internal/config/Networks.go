/*
Known address books for the networks the executor has been deployed against.

NETWORK selects one of these as the default for any address variable left unset.
If a network is not listed here every address variable must be set explicitly.

*/

package config

import "github.com/ethereum/go-ethereum/common"

// NetworkAddresses is the address book for a single network.
type NetworkAddresses struct {
	Router common.Address
	WETH   common.Address
	Tokens map[string]common.Address
}

var (
	Networks = map[string]NetworkAddresses{
		"arbitrum": {
			Router: common.HexToAddress("0xAA23611badAFB62D37E7295A682D21960ac85A90"),
			WETH:   common.HexToAddress("0x82aF49447D8a07e3bd95BD0d56f35241523fBab1"),
			Tokens: map[string]common.Address{
				"usdc": common.HexToAddress("0xaf88d065e77c8cC2239327C5EDb3A432268e5831"),
				"weth": common.HexToAddress("0x82aF49447D8a07e3bd95BD0d56f35241523fBab1"),
				"link": common.HexToAddress("0xf97f4df75117a78c1A5a0DBb814Af92458539FB4"),
				"dai":  common.HexToAddress("0xDA10009cBd5D07dd0CeCc66161FC93D7c9000da1"),
			},
		},
		"mainnet": {
			WETH: common.HexToAddress("0xC02aaA39b223FE8D0A0e5C4F27eAD9083C756Cc2"),
			Tokens: map[string]common.Address{
				"weth": common.HexToAddress("0xC02aaA39b223FE8D0A0e5C4F27eAD9083C756Cc2"),
				"usdc": common.HexToAddress("0xA0b86991c6218b36c1d19D4a2e9Eb0cE3606eB48"),
				"dai":  common.HexToAddress("0x6B175474E89094C44Da98b954EedeAC495271d0F"),
				"link": common.HexToAddress("0x514910771AF9Ca656af840dff83E8264EcF986CA"),
			},
		},
	}
)

// TokenDecimals holds the decimals of the tokens named in the address books.
var TokenDecimals = map[string]int{
	"usdc": 6,
	"weth": 18,
	"link": 18,
	"dai":  18,
}
