package types

import (
	"math/big"
	"time"
)

// RawTransaction is the payload a caller asks the relay to broadcast on its
// behalf. Value is a numeric string, either hex ("0x0") or decimal.
type RawTransaction struct {
	Destination string `json:"destination"`
	Data        string `json:"data"`
	Value       string `json:"value"`
}

type WatchStatus int

const (
	StatusWatched WatchStatus = iota
	StatusConfirmed
	StatusDeadLettered
)

func (s WatchStatus) String() string {
	switch s {
	case StatusWatched:
		return "watched"
	case StatusConfirmed:
		return "confirmed"
	case StatusDeadLettered:
		return "dead-lettered"
	}

	return "unknown"
}

// WatchedTransaction is one in-flight transaction the relay is waiting to see
// mined. It is created by the submission path or the startup reconciler and
// removed exactly once when it reaches a terminal outcome.
type WatchedTransaction struct {
	Hash        string
	From        string
	Destination string
	Data        string
	Value       *big.Int
	Nonce       uint64
	SubmittedAt time.Time
	Deadline    time.Time
}

func (w *WatchedTransaction) Expired(now time.Time) bool {
	return now.After(w.Deadline)
}
