package relay

import (
	"context"
	"strconv"
	"strings"

	"github.com/ybbus/jsonrpc/v3"
)

// PoolTx is one entry of the node's txpool_content response. Numeric fields
// come back hex-encoded.
type PoolTx struct {
	Hash  string `json:"hash"`
	Nonce string `json:"nonce"`
	From  string `json:"from"`
	To    string `json:"to"`
	Input string `json:"input"`
	Value string `json:"value"`
}

func (t *PoolTx) NonceValue() uint64 {
	nonce, err := strconv.ParseUint(strings.TrimPrefix(t.Nonce, "0x"), 16, 64)
	if err != nil {
		return 0
	}

	return nonce
}

// TxPool mirrors the node's view of broadcast-but-unmined transactions,
// keyed by sender address and nonce.
type TxPool struct {
	Pending map[string]map[string]*PoolTx `json:"pending"`
	Queued  map[string]map[string]*PoolTx `json:"queued"`
}

// poolRpcClient is the slice of the JSON-RPC client the pool query needs,
// kept narrow so tests can fake it.
type poolRpcClient interface {
	CallFor(ctx context.Context, out interface{}, method string, params ...interface{}) error
}

type txPoolClient struct {
	client poolRpcClient
}

func NewTxPoolClient(rpcUrl string) TxPoolClient {
	return &txPoolClient{
		client: jsonrpc.NewClient(rpcUrl),
	}
}

// GetPendingTxPool fetches the node's pending and queued transactions. The
// geth ethclient has no typed binding for txpool_content, so this goes
// through raw JSON-RPC.
func (c *txPoolClient) GetPendingTxPool(ctx context.Context) (*TxPool, error) {
	pool := &TxPool{}
	err := c.client.CallFor(ctx, pool, "txpool_content")
	if err != nil {
		return nil, NewNodeRPCError(err)
	}

	return pool, nil
}

// TxsFrom collects all pool entries whose sender matches the given address,
// pending and queued alike. Queued transactions are still liabilities of the
// relay account and are watched the same way.
func (p *TxPool) TxsFrom(address string) []*PoolTx {
	ret := make([]*PoolTx, 0)
	for _, byNonce := range []map[string]map[string]*PoolTx{p.Pending, p.Queued} {
		for sender, txs := range byNonce {
			if !strings.EqualFold(sender, address) {
				continue
			}

			for _, tx := range txs {
				ret = append(ret, tx)
			}
		}
	}

	return ret
}
