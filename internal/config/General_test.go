package config

import (
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/elys-network/clexec/internal/types"
)

func TestGetEnvAsCredentials(t *testing.T) {
	alice := common.HexToAddress("0x00000000000000000000000000000000000a11ce")
	owner := common.HexToAddress("0x6ac7ea33f8831ea9dcc53393aaa88b25a785dbf0")

	t.Setenv("API_TOKENS", "")
	creds, err := getEnvAsCredentials("API_TOKENS")
	require.NoError(t, err)
	assert.Empty(t, creds)

	t.Setenv("API_TOKENS", alice.Hex()+":alice-7f3c9d2e41b8a6f0, "+owner.Hex()+":owner-0b5e8a1c93d4f276")
	creds, err = getEnvAsCredentials("API_TOKENS")
	require.NoError(t, err)
	assert.Equal(t, map[string]common.Address{
		"alice-7f3c9d2e41b8a6f0": alice,
		"owner-0b5e8a1c93d4f276": owner,
	}, creds)

	bad := []struct {
		name  string
		value string
	}{
		{"no separator", alice.Hex()},
		{"short token", alice.Hex() + ":short"},
		{"bad address", "0x1234:alice-7f3c9d2e41b8a6f0"},
		{"duplicate token", alice.Hex() + ":alice-7f3c9d2e41b8a6f0," + owner.Hex() + ":alice-7f3c9d2e41b8a6f0"},
	}
	for _, tc := range bad {
		t.Run(tc.name, func(t *testing.T) {
			t.Setenv("API_TOKENS", tc.value)
			_, err := getEnvAsCredentials("API_TOKENS")
			assert.ErrorIs(t, err, types.ErrInvalidInput)
		})
	}
}
