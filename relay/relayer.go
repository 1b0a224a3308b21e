package relay

import (
	"context"
	"crypto/ecdsa"
	"fmt"
	"math/big"
	"strings"
	"sync"
	"time"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/common"
	ethtypes "github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/sisu-network/lib/log"
	"go.uber.org/atomic"

	"github.com/onramp-network/relayer/config"
	"github.com/onramp-network/relayer/types"
	"github.com/onramp-network/relayer/utils"
)

// TxRelayer owns the watch registry and is the only component that mutates
// it. It broadcasts signed transactions, seeds the registry from the node's
// pending pool at startup and polls every watched hash until it confirms or
// exceeds its deadline.
type TxRelayer struct {
	cfg      config.Relayer
	client   EthClient
	pool     TxPoolClient
	registry *WatchRegistry
	reporter *balanceReporter

	key     *ecdsa.PrivateKey
	account common.Address
	signer  ethtypes.Signer

	submittedCh chan *types.SubmittedTx
	trackCh     chan *types.TrackUpdate
	balanceCh   chan *types.RelayerBalance

	checkerStarted *atomic.Bool
	stopCh         chan struct{}
}

// TxPoolClient queries the node's own pending/queued transaction pool.
type TxPoolClient interface {
	GetPendingTxPool(ctx context.Context) (*TxPool, error)
}

func NewTxRelayer(cfg config.Relayer, client EthClient, pool TxPoolClient,
	resolver *AllowListResolver, submittedCh chan *types.SubmittedTx,
	trackCh chan *types.TrackUpdate, balanceCh chan *types.RelayerBalance) (*TxRelayer, error) {
	key, err := crypto.HexToECDSA(strings.TrimPrefix(cfg.PrivateKey, "0x"))
	if err != nil {
		return nil, fmt.Errorf("invalid relayer private key, err = %v", err)
	}

	account := crypto.PubkeyToAddress(key.PublicKey)
	if cfg.Account != "" && !strings.EqualFold(cfg.Account, account.Hex()) {
		return nil, fmt.Errorf("configured account %s does not match key account %s",
			cfg.Account, account.Hex())
	}

	return &TxRelayer{
		cfg:            cfg,
		client:         client,
		pool:           pool,
		registry:       NewWatchRegistry(),
		reporter:       newBalanceReporter(client, resolver, cfg.StableToken),
		key:            key,
		account:        account,
		signer:         ethtypes.NewLondonSigner(big.NewInt(cfg.Chain.ChainId)),
		submittedCh:    submittedCh,
		trackCh:        trackCh,
		balanceCh:      balanceCh,
		checkerStarted: atomic.NewBool(false),
		stopCh:         make(chan struct{}),
	}, nil
}

// Start reconciles the registry against the node's pending pool. The checker
// is armed right away when reconciliation found in-flight transactions;
// otherwise the first submission arms it.
func (r *TxRelayer) Start() {
	r.reconcile()

	if r.registry.WatchedCount() > 0 {
		r.startChecker()
	}
}

func (r *TxRelayer) Stop() {
	close(r.stopCh)
}

func (r *TxRelayer) Account() string {
	return r.account.Hex()
}

func (r *TxRelayer) WatchedCount() int {
	return r.registry.WatchedCount()
}

func (r *TxRelayer) IsWatched(hash string) bool {
	return r.registry.Watched(hash)
}

// reconcile seeds the registry with transactions our account already has in
// the node's pool, so a restart does not lose visibility into them. A failed
// pool query degrades to an empty registry, it never fails startup.
func (r *TxRelayer) reconcile() {
	ctx, cancel := context.WithTimeout(context.Background(), RpcTimeOut)
	defer cancel()

	pool, err := r.pool.GetPendingTxPool(ctx)
	if err != nil {
		log.Error("Cannot query pending tx pool, starting with an empty registry, err = ", err)
		return
	}

	now := time.Now()
	count := 0
	for _, poolTx := range pool.TxsFrom(r.account.Hex()) {
		value, err := utils.ParseValue(poolTx.Value)
		if err != nil {
			value = big.NewInt(0)
		}

		// The original broadcast time is not recoverable from the pool, so
		// the deadline restarts from now.
		ok := r.registry.Watch(&types.WatchedTransaction{
			Hash:        poolTx.Hash,
			From:        poolTx.From,
			Destination: poolTx.To,
			Data:        poolTx.Input,
			Value:       value,
			Nonce:       poolTx.NonceValue(),
			SubmittedAt: now,
			Deadline:    now.Add(r.cfg.TxTimeout()),
		})
		if ok {
			count++
		}
	}

	log.Infof("Reconciled %d in-flight txs from the node's pool for account %s",
		count, r.account.Hex())
}

// SubmitTransaction signs and broadcasts a raw transaction from the relay
// account and registers it for confirmation tracking. It returns as soon as
// the node accepts the broadcast; confirmation is reported asynchronously.
func (r *TxRelayer) SubmitTransaction(rawTx *types.RawTransaction) (string, error) {
	value, err := utils.ParseValue(rawTx.Value)
	if err != nil {
		return "", err
	}

	ctx, cancel := context.WithTimeout(context.Background(), RpcTimeOut)
	defer cancel()

	nonce, err := r.client.PendingNonceAt(ctx, r.account)
	if err != nil {
		return "", NewRpcError("get pending nonce", err)
	}

	gasPrice, err := r.client.SuggestGasPrice(ctx)
	if err != nil {
		return "", NewRpcError("suggest gas price", err)
	}

	// Check the balance to see if we have enough native token before
	// broadcasting a transaction that is bound to be rejected.
	balance, err := r.client.BalanceAt(ctx, r.account, nil)
	if err != nil {
		return "", NewRpcError("get balance", err)
	}

	minimum := new(big.Int).Mul(gasPrice, big.NewInt(int64(r.cfg.GasLimit)))
	minimum = minimum.Add(minimum, value)
	if minimum.Cmp(balance) > 0 {
		return "", fmt.Errorf(
			"balance smaller than minimum required for this transaction, account = %s, balance = %s, minimum = %s",
			r.account.Hex(), balance.String(), minimum.String())
	}

	destination := common.HexToAddress(rawTx.Destination)
	tx := ethtypes.NewTransaction(nonce, destination, value, r.cfg.GasLimit,
		gasPrice, common.FromHex(rawTx.Data))

	signed, err := ethtypes.SignTx(tx, r.signer, r.key)
	if err != nil {
		return "", err
	}

	err = r.client.SendTransaction(ctx, signed)
	if err != nil && strings.Index(err.Error(), "already known") < 0 {
		// "already known" means another path submitted the same transaction.
		// The node holds it either way, so only other errors are fatal here.
		return "", NewRpcError("send transaction", err)
	}

	hash := signed.Hash().Hex()
	now := time.Now()
	r.registry.Watch(&types.WatchedTransaction{
		Hash:        hash,
		From:        r.account.Hex(),
		Destination: rawTx.Destination,
		Data:        rawTx.Data,
		Value:       value,
		Nonce:       nonce,
		SubmittedAt: now,
		Deadline:    now.Add(r.cfg.TxTimeout()),
	})

	log.Verbose("Tx submitted successfully, hash = ", hash, " nonce = ", nonce)

	r.submittedCh <- &types.SubmittedTx{
		Hash:        hash,
		From:        r.account.Hex(),
		Destination: rawTx.Destination,
		Nonce:       nonce,
	}

	r.startChecker()

	return hash, nil
}

// startChecker arms the confirmation poller. Safe to call more than once.
func (r *TxRelayer) startChecker() {
	if !r.checkerStarted.CAS(false, true) {
		return
	}

	go r.checkLoop()
}

func (r *TxRelayer) checkLoop() {
	for {
		select {
		case <-r.stopCh:
			return
		case <-time.After(r.cfg.TxCheckInterval()):
			r.checkTransactions()
		}
	}
}

// checkTransactions runs one poller tick: it snapshots the registry once and
// checks every hash concurrently. The tick joins all checks before the next
// tick may start, so no hash is ever processed by two ticks at once.
func (r *TxRelayer) checkTransactions() {
	snapshot := r.registry.Snapshot()
	if len(snapshot) == 0 {
		return
	}

	log.Verbose("Checking ", len(snapshot), " watched txs")

	wg := &sync.WaitGroup{}
	wg.Add(len(snapshot))
	for _, watched := range snapshot {
		go func(watched *types.WatchedTransaction) {
			defer wg.Done()
			r.checkTransaction(watched)
		}(watched)
	}

	wg.Wait()
}

func (r *TxRelayer) checkTransaction(watched *types.WatchedTransaction) {
	ctx, cancel := context.WithTimeout(context.Background(), RpcTimeOut)
	tx, isPending, err := r.client.TransactionByHash(ctx, common.HexToHash(watched.Hash))
	cancel()

	if err != nil && err != ethereum.NotFound {
		// Transient RPC failure. The hash stays watched and is retried on the
		// next tick.
		log.Verbose("Cannot check tx ", watched.Hash, ", err = ", err)
		return
	}

	// Node visibility can lag, so a not-found hash is treated the same as a
	// pending one.
	mined := err == nil && tx != nil && !isPending
	if !mined {
		if watched.Expired(time.Now()) {
			r.deadLetter(watched)
		}
		return
	}

	r.finalize(watched, tx)
}

// deadLetter records the timeout and removes the entry. The engine never
// broadcasts a replacement; a new transaction with a new nonce is the
// caller's call.
func (r *TxRelayer) deadLetter(watched *types.WatchedTransaction) {
	if !r.registry.Unwatch(watched.Hash) {
		return
	}

	elapsed := time.Since(watched.SubmittedAt)
	log.Warnf("Tx %s from %s with nonce %d expired after %dms, dead-lettering",
		watched.Hash, watched.From, watched.Nonce, elapsed.Milliseconds())

	r.trackCh <- &types.TrackUpdate{
		Hash:        watched.Hash,
		From:        watched.From,
		Destination: watched.Destination,
		Nonce:       watched.Nonce,
		Result:      types.TrackResultTimeout,
		ElapsedMs:   elapsed.Milliseconds(),
	}
}

// finalize fetches the receipt of a mined transaction, reports its outcome
// and gas cost, samples the relay account balances and removes the entry.
func (r *TxRelayer) finalize(watched *types.WatchedTransaction, tx *ethtypes.Transaction) {
	ctx, cancel := context.WithTimeout(context.Background(), RpcTimeOut)
	receipt, err := r.client.TransactionReceipt(ctx, common.HexToHash(watched.Hash))
	cancel()

	if err != nil || receipt == nil {
		// Receipt not available yet. Retry on the next tick.
		log.Verbose("Cannot get receipt for tx ", watched.Hash, ", err = ", err)
		return
	}

	if !r.registry.Unwatch(watched.Hash) {
		return
	}

	gasPrice := tx.GasPrice()
	gasCost := new(big.Int).Mul(gasPrice, new(big.Int).SetUint64(receipt.GasUsed))
	isRevert := receipt.Status == ethtypes.ReceiptStatusFailed

	log.Infof("Tx %s confirmed in block %d, gasUsed = %d, gasCost = %s, revert = %v",
		watched.Hash, receipt.BlockNumber.Int64(), receipt.GasUsed, gasCost.String(), isRevert)

	r.trackCh <- &types.TrackUpdate{
		Hash:        watched.Hash,
		From:        watched.From,
		Destination: watched.Destination,
		Nonce:       watched.Nonce,
		Result:      types.TrackResultConfirmed,
		IsRevert:    isRevert,
		BlockHeight: receipt.BlockNumber.Int64(),
		GasUsed:     receipt.GasUsed,
		GasPrice:    gasPrice,
		GasCost:     gasCost,
	}

	r.sampleBalance()
}

func (r *TxRelayer) sampleBalance() {
	native, stable, err := r.reporter.fetchBalances(context.Background(), r.account)
	if err != nil {
		// Balance sampling is operational reporting only, a failure here must
		// not affect tracking.
		log.Error("Cannot fetch relayer balances, err = ", err)
		return
	}

	r.balanceCh <- &types.RelayerBalance{
		Address: r.account.Hex(),
		Native:  native,
		Stable:  stable,
	}
}
