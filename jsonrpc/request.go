package jsonrpc

import (
	"bytes"
	"encoding/json"
)

// Version is the JSON-RPC protocol version
const Version = "2.0"

var (
	nullLiteral = []byte("null")
	emptyParams = json.RawMessage(`{}`)
)

// Request represents a single inbound JSON-RPC message. Most messages are
// method calls, but a peer may also send a response to a server-initiated
// request; IsClientResponse reports that case.
type Request struct {
	Method string
	Params json.RawMessage
	ID     json.RawMessage

	clientResponse bool
}

// IsNotification reports whether the request carries no id (or a null id)
// and therefore must never be answered with a result or error body.
func (r *Request) IsNotification() bool {
	return len(r.ID) == 0 || bytes.Equal(r.ID, nullLiteral)
}

// IsClientResponse reports whether the message is a response to a
// server-initiated request rather than a method call. Such messages are
// accepted but never answered.
func (r *Request) IsClientResponse() bool {
	return r.clientResponse
}

// Parse decodes and validates a JSON-RPC 2.0 message.
//
// Invalid JSON yields ErrParse; a non-object document or an envelope
// violation yields ErrInvalidRequest. On envelope violations the returned
// Request still carries whatever id was present so callers can echo it.
// Absent or null params default to an empty object.
func Parse(data []byte) (*Request, *Error) {
	if !json.Valid(data) {
		return nil, NewError(ErrParse, nil)
	}

	var fields map[string]json.RawMessage
	if err := json.Unmarshal(data, &fields); err != nil {
		return nil, NewError(ErrInvalidRequest, "expected a JSON object")
	}

	req := &Request{
		ID:     fields["id"],
		Params: fields["params"],
	}
	if len(req.Params) == 0 || bytes.Equal(req.Params, nullLiteral) {
		req.Params = emptyParams
	}

	methodRaw, hasMethod := fields["method"]
	if !hasMethod {
		_, hasResult := fields["result"]
		_, hasError := fields["error"]
		if hasResult || hasError {
			req.clientResponse = true
			return req, nil
		}
		return req, NewError(ErrInvalidRequest, nil)
	}

	var version string
	if err := json.Unmarshal(fields["jsonrpc"], &version); err != nil || version != Version {
		return req, NewError(ErrInvalidRequest, nil)
	}
	if err := json.Unmarshal(methodRaw, &req.Method); err != nil {
		return req, NewError(ErrInvalidRequest, nil)
	}

	return req, nil
}
