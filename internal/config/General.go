package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/holiman/uint256"
	"github.com/rs/zerolog/log"

	"github.com/elys-network/clexec/internal/types"
)

// AppConfig holds all application configuration loaded from environment variables.
// These are populated at startup by the LoadConfig function.
var (
	// Network selects the default address book (see Networks.go).
	Network string

	// DeployerAddress is the account whose nonces derive the deployed addresses.
	DeployerAddress common.Address
	// VenueRouter is the swap router of the concentrated-liquidity venue.
	VenueRouter common.Address
	// WETHAddress is the wrapped native token.
	WETHAddress common.Address

	// StrategyTokenA and StrategyTokenB are the pair the strategies provide liquidity for.
	StrategyTokenA common.Address
	StrategyTokenB common.Address
	// StrategyFeeTier is the default pool fee tier for provideLiquidity.
	StrategyFeeTier types.FeeTier
	// WidthFeeTiers overrides StrategyFeeTier per width class.
	WidthFeeTiers map[types.WidthClass]types.FeeTier

	// VaultReserveToken is the only token the vault accepts.
	VaultReserveToken common.Address
	// VaultOwner may withdraw from the vault.
	VaultOwner common.Address
	// VaultLinkedWidth is the strategy whose fees are swept into the vault.
	VaultLinkedWidth types.WidthClass

	// ExecutorOperators restricts who may call the executor. Empty means anyone.
	ExecutorOperators []common.Address

	// VenueMode selects the venue backend. Only "sim" is built in.
	VenueMode string
	// SimSqrtPriceX96 is the initial price of the simulated pool.
	SimSqrtPriceX96 *uint256.Int

	// KeeperAddress receives the non-reserve side of swept fees.
	KeeperAddress common.Address
	// KeeperInterval is the fee sweep period. Zero disables the keeper.
	KeeperInterval time.Duration
)

// LoadConfig loads configuration from environment variables and sets the global config vars.
// Variables without a documented default are required.
func LoadConfig() error {
	log.Info().Msg("Loading application configuration from environment variables...")

	var err error

	Network = getEnvOrDefault("NETWORK", "arbitrum")
	book := Networks[Network]

	DeployerAddress, err = getEnvAsAddress("DEPLOYER_ADDRESS", nil)
	if err != nil {
		return err
	}

	VenueRouter, err = getEnvAsAddress("VENUE_ROUTER_ADDRESS", &book.Router)
	if err != nil {
		return err
	}

	WETHAddress, err = getEnvAsAddress("WETH_ADDRESS", &book.WETH)
	if err != nil {
		return err
	}

	StrategyTokenA, err = getEnvAsToken("STRATEGY_TOKEN_A", book)
	if err != nil {
		return err
	}

	StrategyTokenB, err = getEnvAsToken("STRATEGY_TOKEN_B", book)
	if err != nil {
		return err
	}

	StrategyFeeTier, err = getEnvAsFeeTier("STRATEGY_FEE_TIER", DefaultStrategyParameters.DefaultFeeTier)
	if err != nil {
		return err
	}

	WidthFeeTiers = make(map[types.WidthClass]types.FeeTier, len(types.AllWidths))
	for _, w := range types.AllWidths {
		key := strings.ToUpper(w.String()) + "_FEE_TIER"
		WidthFeeTiers[w], err = getEnvAsFeeTier(key, StrategyFeeTier)
		if err != nil {
			return err
		}
	}

	VaultReserveToken, err = getEnvAsToken("VAULT_RESERVE_TOKEN", book)
	if err != nil {
		return err
	}

	VaultOwner, err = getEnvAsAddress("VAULT_OWNER", &DeployerAddress)
	if err != nil {
		return err
	}

	VaultLinkedWidth, err = types.ParseWidthClass(getEnvOrDefault("VAULT_LINKED_WIDTH", "mid"))
	if err != nil {
		return err
	}

	ExecutorOperators, err = getEnvAsAddressList("EXECUTOR_OPERATORS")
	if err != nil {
		return err
	}

	VenueMode, err = getEnv("VENUE_MODE")
	if err != nil {
		return err
	}

	SimSqrtPriceX96, err = getEnvAsUint256("SIM_SQRT_PRICE_X96", new(uint256.Int).Lsh(uint256.NewInt(1), 96))
	if err != nil {
		return err
	}

	KeeperAddress, err = getEnvAsAddress("KEEPER_ADDRESS", &DeployerAddress)
	if err != nil {
		return err
	}

	KeeperInterval, err = getEnvAsDuration("KEEPER_INTERVAL", 10*time.Minute)
	if err != nil {
		return err
	}

	// Load endpoint configuration
	if err := loadEndpointConfig(); err != nil {
		return err
	}

	log.Debug().
		Str("Network", Network).
		Str("Deployer", DeployerAddress.Hex()).
		Str("Router", VenueRouter.Hex()).
		Str("VaultLinkedWidth", VaultLinkedWidth.String()).
		Msg("Configuration loaded successfully.")

	return nil
}

// getEnv retrieves a string environment variable. Returns error if not set.
func getEnv(key string) (string, error) {
	if value, exists := os.LookupEnv(key); exists {
		return value, nil
	}
	return "", errors.New("environment variable " + key + " is required but not set")
}

// getEnvOrDefault retrieves a string environment variable, falling back to def when unset or empty.
func getEnvOrDefault(key, def string) string {
	if value, exists := os.LookupEnv(key); exists && value != "" {
		return value
	}
	return def
}

// getEnvAsUint64 retrieves an environment variable as a uint64. Returns error if not set or invalid.
func getEnvAsUint64(key string) (uint64, error) {
	valueStr, err := getEnv(key)
	if err != nil {
		return 0, err
	}
	value, err := strconv.ParseUint(valueStr, 10, 64)
	if err != nil {
		return 0, errors.New("environment variable " + key + " must be a valid uint64, got: " + valueStr)
	}
	return value, nil
}

// getEnvAsAddress parses a hex address. A nil or zero def makes the variable required.
func getEnvAsAddress(key string, def *common.Address) (common.Address, error) {
	valueStr, err := getEnv(key)
	if err != nil || valueStr == "" {
		if def != nil && *def != (common.Address{}) {
			return *def, nil
		}
		return common.Address{}, errors.New("environment variable " + key + " is required but not set")
	}
	return parseAddress(key, valueStr)
}

// getEnvAsToken accepts either a hex address or a symbol from the network address book.
func getEnvAsToken(key string, book NetworkAddresses) (common.Address, error) {
	valueStr, err := getEnv(key)
	if err != nil {
		return common.Address{}, err
	}
	if addr, ok := book.Tokens[strings.ToLower(valueStr)]; ok {
		return addr, nil
	}
	return parseAddress(key, valueStr)
}

// getEnvAsAddressList parses a comma separated address list. Unset means empty.
func getEnvAsAddressList(key string) ([]common.Address, error) {
	valueStr := getEnvOrDefault(key, "")
	if valueStr == "" {
		return nil, nil
	}
	var out []common.Address
	for _, part := range strings.Split(valueStr, ",") {
		addr, err := parseAddress(key, strings.TrimSpace(part))
		if err != nil {
			return nil, err
		}
		out = append(out, addr)
	}
	return out, nil
}

// minAPITokenLength is the shortest bearer token getEnvAsCredentials accepts.
const minAPITokenLength = 16

// getEnvAsCredentials parses a comma separated list of address:token pairs.
// Unset means no credentials.
func getEnvAsCredentials(key string) (map[string]common.Address, error) {
	valueStr := getEnvOrDefault(key, "")
	if valueStr == "" {
		return nil, nil
	}
	out := make(map[string]common.Address)
	for _, part := range strings.Split(valueStr, ",") {
		addrStr, token, ok := strings.Cut(strings.TrimSpace(part), ":")
		if !ok {
			return nil, errors.Join(types.ErrInvalidInput, fmt.Errorf("environment variable %s: entries must be address:token", key))
		}
		addr, err := parseAddress(key, strings.TrimSpace(addrStr))
		if err != nil {
			return nil, err
		}
		token = strings.TrimSpace(token)
		if len(token) < minAPITokenLength {
			return nil, errors.Join(types.ErrInvalidInput,
				fmt.Errorf("environment variable %s: token for %s is shorter than %d characters", key, addr.Hex(), minAPITokenLength))
		}
		if _, dup := out[token]; dup {
			return nil, errors.Join(types.ErrInvalidInput, fmt.Errorf("environment variable %s: duplicate token", key))
		}
		out[token] = addr
	}
	return out, nil
}

// getEnvAsFeeTier parses a fee tier, falling back to def when unset.
func getEnvAsFeeTier(key string, def types.FeeTier) (types.FeeTier, error) {
	if getEnvOrDefault(key, "") == "" {
		return def, nil
	}
	value, err := getEnvAsUint64(key)
	if err != nil {
		return 0, err
	}
	tier := types.FeeTier(value)
	if !tier.Valid() {
		return 0, errors.Join(types.ErrInvalidFeeTier, fmt.Errorf("environment variable %s: %d", key, value))
	}
	return tier, nil
}

// getEnvAsUint256 parses a decimal or 0x-prefixed integer, falling back to def when unset.
func getEnvAsUint256(key string, def *uint256.Int) (*uint256.Int, error) {
	valueStr := getEnvOrDefault(key, "")
	if valueStr == "" {
		return def, nil
	}
	var (
		value *uint256.Int
		err   error
	)
	if strings.HasPrefix(valueStr, "0x") {
		value, err = uint256.FromHex(valueStr)
	} else {
		value, err = uint256.FromDecimal(valueStr)
	}
	if err != nil {
		return nil, errors.New("environment variable " + key + " must be a valid uint256, got: " + valueStr)
	}
	return value, nil
}

// getEnvAsDuration parses a Go duration string, falling back to def when unset.
func getEnvAsDuration(key string, def time.Duration) (time.Duration, error) {
	valueStr := getEnvOrDefault(key, "")
	if valueStr == "" {
		return def, nil
	}
	value, err := time.ParseDuration(valueStr)
	if err != nil {
		return 0, errors.New("environment variable " + key + " must be a valid duration, got: " + valueStr)
	}
	return value, nil
}

func parseAddress(key, valueStr string) (common.Address, error) {
	if !common.IsHexAddress(valueStr) {
		return common.Address{}, errors.Join(types.ErrInvalidAddress, fmt.Errorf("environment variable %s: %q", key, valueStr))
	}
	addr := common.HexToAddress(valueStr)
	if err := types.ValidateAddress(addr); err != nil {
		return common.Address{}, fmt.Errorf("environment variable %s: %w", key, err)
	}
	return addr, nil
}
