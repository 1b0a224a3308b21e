package relay

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
	"github.com/sisu-network/lib/log"

	"github.com/onramp-network/relayer/config"
	"github.com/onramp-network/relayer/types"
	"github.com/onramp-network/relayer/utils"
)

const registryAbiJson = `[{"constant":true,"inputs":[{"name":"identifier","type":"string"}],` +
	`"name":"getAddressForString","outputs":[{"name":"","type":"address"}],` +
	`"stateMutability":"view","type":"function"}]`

// TxFilter is one allow-list entry: a destination contract and the 4-byte
// method selector callers may relay to it.
type TxFilter struct {
	Destination string
	MethodID    string
}

// IsAllowedTransaction checks a candidate transaction's destination and
// leading method selector against the allow-list. It never touches the watch
// registry.
func IsAllowedTransaction(tx *types.RawTransaction, filters []TxFilter) error {
	methodID := tx.Data
	if len(methodID) > 10 {
		methodID = methodID[:10]
	}

	for _, filter := range filters {
		if strings.EqualFold(filter.Destination, tx.Destination) &&
			strings.EqualFold(filter.MethodID, methodID) {
			return nil
		}
	}

	return &NotAllowedError{
		Destination: tx.Destination,
		MethodID:    methodID,
	}
}

// AllowListResolver derives the allow-list from on-chain contract metadata.
// The set is resolved once and cached; concurrent first calls share a single
// resolution.
type AllowListResolver struct {
	client   EthClient
	registry common.Address
	calls    []config.AllowedCall

	lock   *sync.Mutex
	cached []TxFilter
	abi    abi.ABI
}

func NewAllowListResolver(client EthClient, registryContract string,
	calls []config.AllowedCall) *AllowListResolver {
	parsed, err := abi.JSON(strings.NewReader(registryAbiJson))
	if err != nil {
		panic(err)
	}

	return &AllowListResolver{
		client:   client,
		registry: common.HexToAddress(registryContract),
		calls:    calls,
		lock:     &sync.Mutex{},
		abi:      parsed,
	}
}

// AllowList returns the cached allow-list, resolving it through the ledger
// on first use.
func (r *AllowListResolver) AllowList(ctx context.Context) ([]TxFilter, error) {
	r.lock.Lock()
	defer r.lock.Unlock()

	if r.cached != nil {
		return r.cached, nil
	}

	filters := make([]TxFilter, 0)
	for _, call := range r.calls {
		addr, err := r.resolveAddress(ctx, call.Contract)
		if err != nil {
			return nil, err
		}

		for _, method := range call.Methods {
			filters = append(filters, TxFilter{
				Destination: addr.Hex(),
				MethodID:    utils.MethodID(method),
			})
		}

		log.Infof("Resolved allowed contract %s to %s with %d methods",
			call.Contract, addr.Hex(), len(call.Methods))
	}

	r.cached = filters

	return filters, nil
}

// ResolveAddress looks up a named contract in the on-chain registry.
func (r *AllowListResolver) ResolveAddress(ctx context.Context, name string) (common.Address, error) {
	r.lock.Lock()
	defer r.lock.Unlock()

	return r.resolveAddress(ctx, name)
}

func (r *AllowListResolver) resolveAddress(ctx context.Context, name string) (common.Address, error) {
	input, err := r.abi.Pack("getAddressForString", name)
	if err != nil {
		return common.Address{}, err
	}

	ctx, cancel := context.WithTimeout(ctx, RpcTimeOut)
	defer cancel()

	output, err := r.client.CallContract(ctx, ethereum.CallMsg{
		To:   &r.registry,
		Data: input,
	}, nil)
	if err != nil {
		return common.Address{}, NewRpcError("registry lookup", err)
	}

	values, err := r.abi.Unpack("getAddressForString", output)
	if err != nil {
		return common.Address{}, err
	}

	addr, ok := values[0].(common.Address)
	if !ok {
		return common.Address{}, fmt.Errorf("unexpected registry output for %s", name)
	}

	if addr == (common.Address{}) {
		return common.Address{}, fmt.Errorf("contract %s is not registered", name)
	}

	return addr, nil
}
