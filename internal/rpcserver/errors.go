package rpcserver

import (
	"context"
	"errors"
	"fmt"

	"github.com/codeindex-mcp/codeindex/internal/engineerr"
)

// Standard JSON-RPC error codes (spec §6.1 / JSON-RPC 2.0).
const (
	codeInvalidParams  = -32602
	codeMethodNotFound = -32601
	codeInternalError  = -32603

	// Codes in the -32000..-32099 "server error" range, mirroring the
	// teacher's internal/mcp/errors.go custom codes but keyed to this
	// engine's own failure modes (spec §7).
	codeIndexNotFound = -32001
	codeTimeout       = -32002
	codeStructural    = -32003
)

// rpcError is a JSON-RPC 2.0 error object, returned as the error value from
// a tool handler. Grounded on the teacher's internal/mcp/errors.go MCPError,
// which plays the same role.
type rpcError struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}

func (e *rpcError) Error() string {
	return fmt.Sprintf("rpc error %d: %s", e.Code, e.Message)
}

func newInvalidParamsError(msg string) *rpcError {
	return &rpcError{Code: codeInvalidParams, Message: msg}
}

func newMethodNotFoundError(name string) *rpcError {
	return &rpcError{Code: codeMethodNotFound, Message: fmt.Sprintf("tool %q not found", name)}
}

// mapError converts an engine error into the JSON-RPC error a tool handler
// returns. Source taxonomy is engineerr.Kind (spec §7); this is the
// counterpart of the teacher's MapError(err) for our five-kind taxonomy
// instead of its five-category AmanError.
func mapError(err error) error {
	if err == nil {
		return nil
	}

	var ee *engineerr.Error
	if errors.As(err, &ee) {
		switch ee.Kind {
		case engineerr.KindUsage:
			return &rpcError{Code: codeInvalidParams, Message: ee.Message}
		case engineerr.KindStructural:
			return &rpcError{Code: codeStructural, Message: ee.Message}
		default:
			return &rpcError{Code: codeInternalError, Message: ee.Message}
		}
	}

	switch {
	case errors.Is(err, context.DeadlineExceeded):
		return &rpcError{Code: codeTimeout, Message: "request timed out"}
	case errors.Is(err, context.Canceled):
		return &rpcError{Code: codeTimeout, Message: "request was canceled"}
	default:
		return &rpcError{Code: codeInternalError, Message: err.Error()}
	}
}
