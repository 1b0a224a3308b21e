package core

import (
	"context"
	"math/big"
	"sync"
	"testing"
	"time"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/common"
	ethtypes "github.com/ethereum/go-ethereum/core/types"
	"github.com/stretchr/testify/require"
	"go.uber.org/atomic"

	"github.com/onramp-network/relayer/client"
	"github.com/onramp-network/relayer/config"
	"github.com/onramp-network/relayer/relay"
	"github.com/onramp-network/relayer/types"
	"github.com/onramp-network/relayer/utils"
)

const testPrivateKey = "fad9c8855b740a0b7ed4c221dbad0f33a83a49cad6b3fe8d5817ac83d38b6a19"

var allowedContract = common.HexToAddress("0x000000000000000000000000000000000000dead")

func testConfig(timeoutMs, intervalMs int) config.Relayer {
	return config.Relayer{
		Chain:             config.Chain{Chain: "ganache1", ChainId: 189985},
		PrivateKey:        testPrivateKey,
		TxTimeoutMs:       timeoutMs,
		TxCheckIntervalMs: intervalMs,
		GasLimit:          100_000,
		RegistryContract:  "0x000000000000000000000000000000000000ce10",
		StableToken:       "StableToken",
		AllowedCalls: []config.AllowedCall{
			{Contract: "StableToken", Methods: []string{"approve(address,uint256)"}},
		},
	}
}

func testEthClient() *relay.MockEthClient {
	return &relay.MockEthClient{
		BalanceAtFunc: func(ctx context.Context, account common.Address, block *big.Int) (*big.Int, error) {
			return big.NewInt(utils.OneEtherInWei), nil
		},
		SuggestGasPriceFunc: func(ctx context.Context) (*big.Int, error) {
			return big.NewInt(utils.OneGweiInWei), nil
		},
		CallContractFunc: func(ctx context.Context, msg ethereum.CallMsg, block *big.Int) ([]byte, error) {
			return common.LeftPadBytes(allowedContract.Bytes(), 32), nil
		},
		// Never mined.
		TransactionByHashFunc: func(ctx context.Context, hash common.Hash) (*ethtypes.Transaction, bool, error) {
			return nil, false, ethereum.NotFound
		},
	}
}

func TestProcessor_SubmitMetaTransaction_NotAllowed(t *testing.T) {
	processor, err := NewProcessor(testConfig(10_000, 10_000), testEthClient(),
		&relay.MockTxPoolClient{}, nil)
	require.Nil(t, err)

	_, err = processor.SubmitMetaTransaction(&types.RawTransaction{
		Destination: "0x000000000000000000000000000000000000beef",
		Data:        "0x095ea7b3",
		Value:       "0x0",
	})
	require.NotNil(t, err)
	require.IsType(t, &relay.NotAllowedError{}, err)
	require.Equal(t, 0, processor.PendingCount())
}

func TestProcessor_SubmitMetaTransaction_Allowed(t *testing.T) {
	processor, err := NewProcessor(testConfig(10_000, 10_000), testEthClient(),
		&relay.MockTxPoolClient{}, nil)
	require.Nil(t, err)
	defer processor.Stop()

	processor.Start()

	hash, err := processor.SubmitMetaTransaction(&types.RawTransaction{
		Destination: allowedContract.Hex(),
		Data:        "0x095ea7b3000000000000000000000000000000000000000000000000000000000000dead",
		Value:       "0x0",
	})
	require.Nil(t, err)
	require.Equal(t, 1, processor.PendingCount())
	require.Equal(t, types.StatusWatched.String(), processor.GetTransactionStatus(hash))
}

func TestProcessor_StatusLifecycle(t *testing.T) {
	var lock sync.Mutex
	updates := make([]*types.TrackUpdate, 0)
	postCount := atomic.NewInt32(0)

	monitor := &client.MockClient{
		PostTrackUpdateFunc: func(update *types.TrackUpdate) error {
			lock.Lock()
			defer lock.Unlock()
			updates = append(updates, update)
			postCount.Inc()
			return nil
		},
	}

	processor, err := NewProcessor(testConfig(100, 20), testEthClient(),
		&relay.MockTxPoolClient{}, monitor)
	require.Nil(t, err)
	defer processor.Stop()

	processor.Start()

	hash, err := processor.SubmitTransaction(&types.RawTransaction{
		Destination: allowedContract.Hex(),
		Data:        "0x",
		Value:       "0x0",
	})
	require.Nil(t, err)
	require.Equal(t, types.StatusWatched.String(), processor.GetTransactionStatus(hash))

	require.Eventually(t, func() bool {
		return processor.GetTransactionStatus(hash) == types.StatusDeadLettered.String()
	}, 3*time.Second, 10*time.Millisecond)

	require.Equal(t, 0, processor.PendingCount())

	// The dead-letter record reached the monitor exactly once.
	require.Eventually(t, func() bool {
		return postCount.Load() == 1
	}, 3*time.Second, 10*time.Millisecond)

	time.Sleep(150 * time.Millisecond)
	require.Equal(t, int32(1), postCount.Load())

	lock.Lock()
	require.Equal(t, hash, updates[0].Hash)
	require.Equal(t, types.TrackResultTimeout, updates[0].Result)
	lock.Unlock()

	require.Equal(t, "unknown", processor.GetTransactionStatus("0xnotseen"))
}
