// Package protocol defines the JSON-RPC 2.0 envelope used by the HTTP
// transport and the mapping from the server's error taxonomy onto stable
// protocol error codes and HTTP status families.
package protocol

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/mattcarp/aoma-mesh-mcp-sub010/internal/registry"
)

// JSON-RPC error codes. The -32xxx range follows the JSON-RPC 2.0 spec;
// -32000/-32001 are implementation-defined server errors.
const (
	CodeInvalidRequest = -32600
	CodeMethodNotFound = -32601
	CodeInvalidParams  = -32602
	CodeInternalError  = -32603
	CodeExecutionError = -32000
	CodeTimeout        = -32001
)

// Request is the JSON-RPC request envelope accepted by POST /rpc.
type Request struct {
	Jsonrpc string          `json:"jsonrpc"`
	Method  string          `json:"method"`
	Params  json.RawMessage `json:"params,omitempty"`
	ID      interface{}     `json:"id"`
}

// Response is the JSON-RPC response envelope. Exactly one of Result and
// Error is set.
type Response struct {
	Jsonrpc string      `json:"jsonrpc"`
	Result  interface{} `json:"result,omitempty"`
	Error   *Error      `json:"error,omitempty"`
	ID      interface{} `json:"id"`
}

// Error is the JSON-RPC error object.
type Error struct {
	Code    int         `json:"code"`
	Message string      `json:"message"`
	Data    interface{} `json:"data,omitempty"`
}

// CallParams are the params of a tools/call request.
type CallParams struct {
	Name      string                 `json:"name"`
	Arguments map[string]interface{} `json:"arguments"`
}

// NewResult builds a success response carrying the original request ID.
func NewResult(id, result interface{}) *Response {
	return &Response{Jsonrpc: "2.0", Result: result, ID: id}
}

// NewError builds an error response carrying the original request ID.
func NewError(id interface{}, code int, message string) *Response {
	return &Response{Jsonrpc: "2.0", Error: &Error{Code: code, Message: message}, ID: id}
}

// MapError converts a registry or dispatch error into the stable protocol
// error code and the matching HTTP status: 4xx for caller mistakes, 5xx for
// execution and internal failures. The message is the error's own text;
// internal stack context stays server-side.
func MapError(err error) (code int, httpStatus int) {
	var (
		validationErr *registry.ValidationError
		unknownErr    *registry.UnknownToolError
		timeoutErr    *registry.TimeoutError
		execErr       *registry.ToolExecutionError
	)

	switch {
	case errors.As(err, &validationErr):
		return CodeInvalidParams, http.StatusBadRequest
	case errors.As(err, &unknownErr):
		return CodeMethodNotFound, http.StatusNotFound
	case errors.As(err, &timeoutErr):
		return CodeTimeout, http.StatusGatewayTimeout
	case errors.As(err, &execErr):
		return CodeExecutionError, http.StatusInternalServerError
	default:
		return CodeInternalError, http.StatusInternalServerError
	}
}
