package relay

import (
	"context"
	"errors"
	"math/big"
	"testing"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/common"
	"github.com/stretchr/testify/require"
	"go.uber.org/atomic"

	"github.com/onramp-network/relayer/config"
	"github.com/onramp-network/relayer/types"
	"github.com/onramp-network/relayer/utils"
)

func TestIsAllowedTransaction(t *testing.T) {
	filters := []TxFilter{
		{
			Destination: "0x000000000000000000000000000000000000dead",
			MethodID:    utils.MethodID("approve(address,uint256)"),
		},
		{
			Destination: "0x000000000000000000000000000000000000beef",
			MethodID:    utils.MethodID("transfer(address,uint256)"),
		},
	}

	// Matching pair is accepted, case-insensitively.
	err := IsAllowedTransaction(&types.RawTransaction{
		Destination: "0x000000000000000000000000000000000000DEAD",
		Data:        "0x095ea7b3000000000000000000000000000000000000000000000000000000000000dead",
		Value:       "0x0",
	}, filters)
	require.Nil(t, err)

	// Right destination, wrong method.
	err = IsAllowedTransaction(&types.RawTransaction{
		Destination: "0x000000000000000000000000000000000000dead",
		Data:        "0xa9059cbb000000000000000000000000000000000000000000000000000000000000dead",
		Value:       "0x0",
	}, filters)
	require.NotNil(t, err)

	notAllowed, ok := err.(*NotAllowedError)
	require.True(t, ok)
	require.Equal(t, "0xa9059cbb", notAllowed.MethodID)

	// Right method, wrong destination.
	err = IsAllowedTransaction(&types.RawTransaction{
		Destination: "0x000000000000000000000000000000000000dead",
		Data:        "0x095ea7b3",
		Value:       "0x0",
	}, nil)
	require.NotNil(t, err)

	// The check is deterministic for repeated calls.
	for i := 0; i < 3; i++ {
		err = IsAllowedTransaction(&types.RawTransaction{
			Destination: "0x000000000000000000000000000000000000beef",
			Data:        "0xa9059cbb",
			Value:       "0x0",
		}, filters)
		require.Nil(t, err)
	}
}

func TestAllowListResolver_ResolvesAndCaches(t *testing.T) {
	resolved := common.HexToAddress("0x000000000000000000000000000000000000dead")
	callCount := atomic.NewInt32(0)

	client := &MockEthClient{
		CallContractFunc: func(ctx context.Context, msg ethereum.CallMsg, block *big.Int) ([]byte, error) {
			callCount.Inc()
			return common.LeftPadBytes(resolved.Bytes(), 32), nil
		},
	}

	resolver := NewAllowListResolver(client, testRegistry, []config.AllowedCall{
		{
			Contract: "Attestations",
			Methods:  []string{"selectIssuers(bytes32)", "complete(bytes32,uint8,bytes32,bytes32)"},
		},
		{
			Contract: "Accounts",
			Methods:  []string{"setAccount(string,bytes,address,uint8,bytes32,bytes32)"},
		},
	})

	filters, err := resolver.AllowList(context.Background())
	require.Nil(t, err)
	require.Equal(t, 3, len(filters))
	require.Equal(t, resolved.Hex(), filters[0].Destination)
	require.Equal(t, utils.MethodID("selectIssuers(bytes32)"), filters[0].MethodID)
	require.Equal(t, int32(2), callCount.Load())

	// Subsequent calls reuse the cached set, no further resolution.
	again, err := resolver.AllowList(context.Background())
	require.Nil(t, err)
	require.Equal(t, filters, again)
	require.Equal(t, int32(2), callCount.Load())
}

func TestAllowListResolver_LookupFails(t *testing.T) {
	client := &MockEthClient{
		CallContractFunc: func(ctx context.Context, msg ethereum.CallMsg, block *big.Int) ([]byte, error) {
			return nil, errors.New("node unreachable")
		},
	}

	resolver := NewAllowListResolver(client, testRegistry, []config.AllowedCall{
		{Contract: "Attestations", Methods: []string{"selectIssuers(bytes32)"}},
	})

	_, err := resolver.AllowList(context.Background())
	require.NotNil(t, err)
	require.IsType(t, &RpcError{}, err)
}

func TestAllowListResolver_UnregisteredContract(t *testing.T) {
	client := &MockEthClient{
		CallContractFunc: func(ctx context.Context, msg ethereum.CallMsg, block *big.Int) ([]byte, error) {
			return common.LeftPadBytes(common.Address{}.Bytes(), 32), nil
		},
	}

	resolver := NewAllowListResolver(client, testRegistry, []config.AllowedCall{
		{Contract: "NotThere", Methods: []string{"foo()"}},
	})

	_, err := resolver.AllowList(context.Background())
	require.NotNil(t, err)
}
