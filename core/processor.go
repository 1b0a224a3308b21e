package core

import (
	"context"
	"sync"
	"sync/atomic"

	"github.com/golang/groupcache/lru"
	"github.com/sisu-network/lib/log"

	"github.com/onramp-network/relayer/client"
	"github.com/onramp-network/relayer/config"
	"github.com/onramp-network/relayer/relay"
	"github.com/onramp-network/relayer/types"
	"github.com/onramp-network/relayer/utils"
)

const FinalizedCacheSize = 1_000

// Processor wires the relayer to the outside world. It consumes the
// relayer's event channels, logs every event, forwards terminal outcomes to
// the monitor service and keeps a cache of recent outcomes so callers can
// poll a transaction's status after it left the watch registry.
type Processor struct {
	cfg      config.Relayer
	relayer  *relay.TxRelayer
	resolver *relay.AllowListResolver
	monitor  client.Client

	submittedCh chan *types.SubmittedTx
	trackCh     chan *types.TrackUpdate
	balanceCh   chan *types.RelayerBalance

	lock      *sync.Mutex
	finalized *lru.Cache

	monitorReady atomic.Value
}

func NewProcessor(cfg config.Relayer, ethClient relay.EthClient,
	poolClient relay.TxPoolClient, monitor client.Client) (*Processor, error) {
	submittedCh := make(chan *types.SubmittedTx, 1000)
	trackCh := make(chan *types.TrackUpdate, 1000)
	balanceCh := make(chan *types.RelayerBalance, 1000)

	resolver := relay.NewAllowListResolver(ethClient, cfg.RegistryContract, cfg.AllowedCalls)

	relayer, err := relay.NewTxRelayer(cfg, ethClient, poolClient, resolver,
		submittedCh, trackCh, balanceCh)
	if err != nil {
		return nil, err
	}

	return &Processor{
		cfg:         cfg,
		relayer:     relayer,
		resolver:    resolver,
		monitor:     monitor,
		submittedCh: submittedCh,
		trackCh:     trackCh,
		balanceCh:   balanceCh,
		lock:        &sync.Mutex{},
		finalized:   lru.New(FinalizedCacheSize),
	}, nil
}

func (p *Processor) Start() {
	log.Infof("Starting relay processor on chain %s for account %s",
		p.cfg.Chain.Chain, p.relayer.Account())

	go p.listen()

	p.relayer.Start()

	if p.monitor != nil {
		go func() {
			p.monitor.TryDial()
			p.monitorReady.Store(true)
		}()
	}
}

func (p *Processor) Stop() {
	p.relayer.Stop()
}

func (p *Processor) listen() {
	for {
		select {
		case submitted := <-p.submittedCh:
			log.Infof("Tx submitted, hash = %s, nonce = %d, destination = %s",
				submitted.Hash, submitted.Nonce, submitted.Destination)

		case update := <-p.trackCh:
			p.recordOutcome(update)

			if p.monitorReady.Load() == true {
				if err := p.monitor.PostTrackUpdate(update); err != nil {
					log.Error("Cannot post track update to monitor, err = ", err)
				}
			}

		case balance := <-p.balanceCh:
			log.Infof("Relayer balance sampled, account = %s, native = %s, stable = %s",
				balance.Address, balance.Native.String(), balance.Stable.String())

			if p.monitorReady.Load() == true {
				if err := p.monitor.PostRelayerBalance(balance); err != nil {
					log.Error("Cannot post balance to monitor, err = ", err)
				}
			}
		}
	}
}

func (p *Processor) recordOutcome(update *types.TrackUpdate) {
	status := types.StatusConfirmed
	if update.Result == types.TrackResultTimeout {
		status = types.StatusDeadLettered
		log.Warnf("Tx dead-lettered, hash = %s, nonce = %d, elapsed = %dms",
			update.Hash, update.Nonce, update.ElapsedMs)
	} else {
		log.Infof("Tx confirmed, hash = %s, revert = %v, gasPrice = %.2f gwei, gasCost = %s",
			update.Hash, update.IsRevert, utils.WeiToGwei(update.GasPrice), update.GasCost.String())
	}

	p.lock.Lock()
	p.finalized.Add(update.Hash, status)
	p.lock.Unlock()
}

// SubmitTransaction relays a raw transaction without consulting the
// allow-list. This is the entry point for trusted in-process callers.
func (p *Processor) SubmitTransaction(rawTx *types.RawTransaction) (string, error) {
	return p.relayer.SubmitTransaction(rawTx)
}

// SubmitMetaTransaction gates the transaction on the allow-list before
// relaying it on a third party's behalf.
func (p *Processor) SubmitMetaTransaction(rawTx *types.RawTransaction) (string, error) {
	allowList, err := p.resolver.AllowList(context.Background())
	if err != nil {
		return "", err
	}

	if err := relay.IsAllowedTransaction(rawTx, allowList); err != nil {
		return "", err
	}

	return p.relayer.SubmitTransaction(rawTx)
}

// GetTransactionStatus reports where a hash is in its lifecycle. Outcomes
// older than the finalized cache window come back as unknown.
func (p *Processor) GetTransactionStatus(hash string) string {
	if p.relayer.IsWatched(hash) {
		return types.StatusWatched.String()
	}

	p.lock.Lock()
	defer p.lock.Unlock()

	if status, ok := p.finalized.Get(hash); ok {
		return status.(types.WatchStatus).String()
	}

	return "unknown"
}

func (p *Processor) PendingCount() int {
	return p.relayer.WatchedCount()
}

func (p *Processor) RelayerAccount() string {
	return p.relayer.Account()
}
