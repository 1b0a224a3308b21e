package relay

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/stretchr/testify/require"
)

type fakePoolRpc struct {
	response string
	err      error
}

func (f *fakePoolRpc) CallFor(ctx context.Context, out interface{}, method string,
	params ...interface{}) error {
	if f.err != nil {
		return f.err
	}

	return json.Unmarshal([]byte(f.response), out)
}

func TestTxPoolClient_GetPendingTxPool(t *testing.T) {
	response := `{
		"pending": {
			"0x90F79bf6EB2c4f870365E785982E1f101E93b906": {
				"11": {
					"hash": "0xabc",
					"nonce": "0xb",
					"from": "0x90F79bf6EB2c4f870365E785982E1f101E93b906",
					"to": "0x000000000000000000000000000000000000dead",
					"input": "0x095ea7b3",
					"value": "0x0"
				}
			}
		},
		"queued": {}
	}`

	client := &txPoolClient{client: &fakePoolRpc{response: response}}

	pool, err := client.GetPendingTxPool(context.Background())
	require.Nil(t, err)

	txs := pool.TxsFrom("0x90f79bf6eb2c4f870365e785982e1f101e93b906")
	require.Equal(t, 1, len(txs))
	require.Equal(t, "0xabc", txs[0].Hash)
	require.Equal(t, uint64(11), txs[0].NonceValue())

	require.Equal(t, 0, len(pool.TxsFrom("0x0000000000000000000000000000000000000001")))
}

func TestTxPoolClient_NodeUnreachable(t *testing.T) {
	client := &txPoolClient{client: &fakePoolRpc{err: errors.New("connection refused")}}

	_, err := client.GetPendingTxPool(context.Background())
	require.NotNil(t, err)
	require.IsType(t, &NodeRPCError{}, err)
}

func TestTxPool_TxsFromIncludesQueued(t *testing.T) {
	account := "0x90F79bf6EB2c4f870365E785982E1f101E93b906"
	pool := &TxPool{
		Pending: map[string]map[string]*PoolTx{
			account: {"1": {Hash: "0xaaa", Nonce: "0x1"}},
		},
		Queued: map[string]map[string]*PoolTx{
			account: {"3": {Hash: "0xbbb", Nonce: "0x3"}},
		},
	}

	txs := pool.TxsFrom(account)
	require.Equal(t, 2, len(txs))
}
