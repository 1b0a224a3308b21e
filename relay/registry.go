package relay

import (
	"sync"

	"github.com/onramp-network/relayer/types"
	"github.com/sisu-network/lib/log"
)

// WatchRegistry is the in-memory set of transactions the relay is waiting to
// confirm. It is owned exclusively by the relayer; everything outside learns
// about entries through emitted events and counts.
type WatchRegistry struct {
	lock    *sync.RWMutex
	watched map[string]*types.WatchedTransaction
}

func NewWatchRegistry() *WatchRegistry {
	return &WatchRegistry{
		lock:    &sync.RWMutex{},
		watched: make(map[string]*types.WatchedTransaction),
	}
}

// Watch inserts a new entry. Inserting a hash that is already watched is a
// logged no-op since the node assigns globally unique hashes.
func (r *WatchRegistry) Watch(tx *types.WatchedTransaction) bool {
	r.lock.Lock()
	defer r.lock.Unlock()

	if _, ok := r.watched[tx.Hash]; ok {
		log.Warnf("Tx %s is already watched, ignoring duplicate", tx.Hash)
		return false
	}

	r.watched[tx.Hash] = tx

	return true
}

// Unwatch removes an entry and reports whether it was present. Unwatching an
// absent hash is a safe no-op, so racing terminal transitions resolve to
// exactly one winner.
func (r *WatchRegistry) Unwatch(hash string) bool {
	r.lock.Lock()
	defer r.lock.Unlock()

	if _, ok := r.watched[hash]; !ok {
		return false
	}

	delete(r.watched, hash)

	return true
}

func (r *WatchRegistry) Get(hash string) (*types.WatchedTransaction, bool) {
	r.lock.RLock()
	defer r.lock.RUnlock()

	tx, ok := r.watched[hash]

	return tx, ok
}

func (r *WatchRegistry) Watched(hash string) bool {
	r.lock.RLock()
	defer r.lock.RUnlock()

	_, ok := r.watched[hash]

	return ok
}

func (r *WatchRegistry) WatchedCount() int {
	r.lock.RLock()
	defer r.lock.RUnlock()

	return len(r.watched)
}

// Snapshot returns the current entries. Each poller tick takes one snapshot
// so entries added mid-tick are picked up on the next tick.
func (r *WatchRegistry) Snapshot() []*types.WatchedTransaction {
	r.lock.RLock()
	defer r.lock.RUnlock()

	ret := make([]*types.WatchedTransaction, 0, len(r.watched))
	for _, tx := range r.watched {
		ret = append(ret, tx)
	}

	return ret
}
