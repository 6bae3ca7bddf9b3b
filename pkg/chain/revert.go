package chain

import (
	"context"
	"errors"
	"io"
	"net"
	"strings"
	"syscall"

	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/ethereum/go-ethereum/rpc"
)

const revertPrefix = "execution reverted"

// RevertReason extracts the revert reason from an endpoint error. ABI-encoded
// Error(string) and Panic(uint256) payloads in the JSON-RPC error data are
// decoded; otherwise the text after "execution reverted:" is used. It
// returns "" when err carries no revert information.
func RevertReason(err error) string {
	if err == nil {
		return ""
	}
	var dataErr rpc.DataError
	if errors.As(err, &dataErr) {
		if s, ok := dataErr.ErrorData().(string); ok {
			if data, decErr := hexutil.Decode(s); decErr == nil {
				if reason, unpackErr := abi.UnpackRevert(data); unpackErr == nil {
					return reason
				}
			}
		}
	}
	msg := err.Error()
	i := strings.Index(msg, revertPrefix)
	if i < 0 {
		return ""
	}
	reason := strings.TrimSpace(strings.TrimPrefix(msg[i+len(revertPrefix):], ":"))
	if reason == "" {
		return revertPrefix
	}
	return reason
}

// isTransportError reports whether err means the endpoint itself could not
// be reached, as opposed to the endpoint rejecting the request.
func isTransportError(err error) bool {
	if err == nil {
		return false
	}
	var netErr net.Error
	if errors.As(err, &netErr) {
		return true
	}
	var httpErr rpc.HTTPError
	if errors.As(err, &httpErr) {
		return true
	}
	return errors.Is(err, syscall.ECONNREFUSED) ||
		errors.Is(err, io.EOF) ||
		errors.Is(err, io.ErrUnexpectedEOF) ||
		errors.Is(err, context.DeadlineExceeded)
}
