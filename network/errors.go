package network

import "errors"

var (
	// ErrConnectionFailed indicates the HTTP request to the node failed.
	ErrConnectionFailed = errors.New("network: connection failed")

	// ErrInvalidResponse indicates the node's response could not be
	// decoded or did not match the request.
	ErrInvalidResponse = errors.New("network: invalid response")

	// ErrRPC indicates the node answered with an RPC-level error.
	ErrRPC = errors.New("network: rpc error")
)
