package server

import (
	"github.com/onramp-network/relayer/core"
	"github.com/onramp-network/relayer/types"
)

type ApiHandler struct {
	processor *core.Processor
}

func NewApi(processor *core.Processor) *ApiHandler {
	return &ApiHandler{
		processor: processor,
	}
}

// Empty function for checking health only.
func (api *ApiHandler) CheckHealth() {
}

// SubmitTransaction relays a raw transaction and returns its hash as soon as
// the node accepts the broadcast.
func (api *ApiHandler) SubmitTransaction(rawTx *types.RawTransaction) (string, error) {
	return api.processor.SubmitTransaction(rawTx)
}

// SubmitMetaTransaction relays a transaction on a third party's behalf after
// checking it against the allow-list.
func (api *ApiHandler) SubmitMetaTransaction(rawTx *types.RawTransaction) (string, error) {
	return api.processor.SubmitMetaTransaction(rawTx)
}

// GetTransactionStatus reports watched, confirmed, dead-lettered or unknown.
func (api *ApiHandler) GetTransactionStatus(hash string) string {
	return api.processor.GetTransactionStatus(hash)
}

// PendingCount returns how many transactions are currently watched.
func (api *ApiHandler) PendingCount() int {
	return api.processor.PendingCount()
}

// RelayerAccount returns the address transactions are relayed from.
func (api *ApiHandler) RelayerAccount() string {
	return api.processor.RelayerAccount()
}
