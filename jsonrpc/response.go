package jsonrpc

import "encoding/json"

// Response represents a JSON-RPC response object. Exactly one of Result and
// Error is set. The id is always emitted, as null when the request id could
// not be recovered.
type Response struct {
	Version string          `json:"jsonrpc"`
	Result  any             `json:"result,omitempty"`
	Error   *Error          `json:"error,omitempty"`
	ID      json.RawMessage `json:"id"`
}

// NewResponse creates a result Response echoing the given request id
func NewResponse(id json.RawMessage, result any) *Response {
	return &Response{
		Version: Version,
		Result:  result,
		ID:      id,
	}
}

// NewErrorResponse creates an error Response echoing the given request id
func NewErrorResponse(id json.RawMessage, err *Error) *Response {
	return &Response{
		Version: Version,
		Error:   err,
		ID:      id,
	}
}
