package relay

import "fmt"

// RpcError wraps a failed broadcast or query against the ledger node. The
// submission path surfaces it to the caller; the poller retries next tick.
type RpcError struct {
	Op  string
	Err error
}

func NewRpcError(op string, err error) error {
	return &RpcError{Op: op, Err: err}
}

func (e *RpcError) Error() string {
	return fmt.Sprintf("relay rpc error during %s, err = %v", e.Op, e.Err)
}

func (e *RpcError) Unwrap() error {
	return e.Err
}

// NodeRPCError indicates the node's pending-pool could not be queried at
// startup. The reconciler degrades to an empty registry instead of failing.
type NodeRPCError struct {
	Err error
}

func NewNodeRPCError(err error) error {
	return &NodeRPCError{Err: err}
}

func (e *NodeRPCError) Error() string {
	return fmt.Sprintf("node rpc error, err = %v", e.Err)
}

func (e *NodeRPCError) Unwrap() error {
	return e.Err
}

// NotAllowedError identifies the (destination, method) pair that failed the
// allowed-transaction filter.
type NotAllowedError struct {
	Destination string
	MethodID    string
}

func (e *NotAllowedError) Error() string {
	return fmt.Sprintf("transaction to %s with method %s is not allowed", e.Destination, e.MethodID)
}
