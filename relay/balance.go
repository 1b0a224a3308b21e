package relay

import (
	"context"
	"math/big"
	"strings"
	"sync"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
)

const erc20AbiJson = `[{"constant":true,"inputs":[{"name":"account","type":"address"}],` +
	`"name":"balanceOf","outputs":[{"name":"","type":"uint256"}],` +
	`"stateMutability":"view","type":"function"}]`

// balanceReporter samples the relay account's native and stable-token
// balances at confirmation time. The stable token address is resolved through
// the registry once and reused.
type balanceReporter struct {
	client     EthClient
	resolver   *AllowListResolver
	stableName string

	lock   *sync.Mutex
	stable common.Address
	abi    abi.ABI
}

func newBalanceReporter(client EthClient, resolver *AllowListResolver,
	stableName string) *balanceReporter {
	parsed, err := abi.JSON(strings.NewReader(erc20AbiJson))
	if err != nil {
		panic(err)
	}

	return &balanceReporter{
		client:     client,
		resolver:   resolver,
		stableName: stableName,
		lock:       &sync.Mutex{},
		abi:        parsed,
	}
}

func (b *balanceReporter) fetchBalances(ctx context.Context, account common.Address) (*big.Int, *big.Int, error) {
	callCtx, cancel := context.WithTimeout(ctx, RpcTimeOut)
	native, err := b.client.BalanceAt(callCtx, account, nil)
	cancel()
	if err != nil {
		return nil, nil, NewRpcError("get balance", err)
	}

	stable, err := b.fetchStableBalance(ctx, account)
	if err != nil {
		return nil, nil, err
	}

	return native, stable, nil
}

func (b *balanceReporter) fetchStableBalance(ctx context.Context, account common.Address) (*big.Int, error) {
	token, err := b.stableToken(ctx)
	if err != nil {
		return nil, err
	}

	input, err := b.abi.Pack("balanceOf", account)
	if err != nil {
		return nil, err
	}

	ctx, cancel := context.WithTimeout(ctx, RpcTimeOut)
	defer cancel()

	output, err := b.client.CallContract(ctx, ethereum.CallMsg{
		To:   &token,
		Data: input,
	}, nil)
	if err != nil {
		return nil, NewRpcError("stable token balance", err)
	}

	values, err := b.abi.Unpack("balanceOf", output)
	if err != nil {
		return nil, err
	}

	return values[0].(*big.Int), nil
}

func (b *balanceReporter) stableToken(ctx context.Context) (common.Address, error) {
	b.lock.Lock()
	defer b.lock.Unlock()

	if b.stable != (common.Address{}) {
		return b.stable, nil
	}

	addr, err := b.resolver.ResolveAddress(ctx, b.stableName)
	if err != nil {
		return common.Address{}, err
	}

	b.stable = addr

	return addr, nil
}
