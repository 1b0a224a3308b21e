package types

import "math/big"

type TrackResult int

const (
	TrackResultConfirmed TrackResult = iota
	TrackResultTimeout
)

func (r TrackResult) String() string {
	if r == TrackResultConfirmed {
		return "confirmed"
	}

	return "timeout"
}

// TrackUpdate reports the terminal outcome of a watched transaction. Exactly
// one update is emitted per watched hash.
type TrackUpdate struct {
	Hash        string
	From        string
	Destination string
	Nonce       uint64
	Result      TrackResult

	// Set when Result is TrackResultConfirmed.
	IsRevert    bool
	BlockHeight int64
	GasUsed     uint64
	GasPrice    *big.Int
	GasCost     *big.Int

	// Set when Result is TrackResultTimeout.
	ElapsedMs int64
}

// RelayerBalance is a point-in-time sample of a relay account's balances,
// taken at confirmation time for operational reporting only.
type RelayerBalance struct {
	Address string
	Native  *big.Int
	Stable  *big.Int
}

// SubmittedTx is emitted once per accepted broadcast.
type SubmittedTx struct {
	Hash        string
	From        string
	Destination string
	Nonce       uint64
}
