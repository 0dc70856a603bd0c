// Copyright 2025 Blink Labs Software
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

// Package jsonrpc implements the JSON-RPC 2.0 envelopes exchanged with an
// Ogmios server
package jsonrpc

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
)

// Version is the only protocol version we speak
const Version = "2.0"

// Standard JSON-RPC error codes
const (
	CodeParseError     = -32700
	CodeInvalidRequest = -32600
	CodeMethodNotFound = -32601
	CodeInvalidParams  = -32602
	CodeInternalError  = -32603
	// Implementation-defined server errors occupy this range
	CodeServerErrorStart = -32000
	CodeServerErrorEnd   = -32099
)

var (
	ErrMissingResult  = errors.New("invalid response: no result or error")
	ErrInvalidVersion = errors.New("invalid JSON-RPC version")
)

// Request is a JSON-RPC request or, when ID is nil, a notification
type Request struct {
	JSONRPC string          `json:"jsonrpc"`
	Method  string          `json:"method"`
	Params  json.RawMessage `json:"params,omitempty"`
	ID      *uint64         `json:"id,omitempty"`
}

// NewRequest builds a request with the provided numeric identifier. A nil params value is
// omitted from the envelope
func NewRequest(method string, params any, id uint64) (*Request, error) {
	req, err := newRequest(method, params)
	if err != nil {
		return nil, err
	}
	req.ID = &id
	return req, nil
}

// NewNotification builds a request without an identifier
func NewNotification(method string, params any) (*Request, error) {
	return newRequest(method, params)
}

func newRequest(method string, params any) (*Request, error) {
	req := &Request{
		JSONRPC: Version,
		Method:  method,
	}
	if params != nil {
		data, err := json.Marshal(params)
		if err != nil {
			return nil, fmt.Errorf("failed to encode params: %w", err)
		}
		if !isNull(data) {
			req.Params = data
		}
	}
	return req, nil
}

// IsNotification returns true if no reply is expected for the request
func (r *Request) IsNotification() bool {
	return r.ID == nil
}

// Encode returns the wire form of the request
func (r *Request) Encode() ([]byte, error) {
	return json.Marshal(r)
}

// Error is the error object carried by a failed response
type Error struct {
	Code    int             `json:"code"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data,omitempty"`
}

func (e *Error) Error() string {
	return fmt.Sprintf("JSON-RPC error %d: %s", e.Code, e.Message)
}

// Response is a JSON-RPC response. Exactly one of Result or Error is expected to be set
type Response struct {
	JSONRPC string          `json:"jsonrpc"`
	Result  json.RawMessage `json:"result,omitempty"`
	Error   *Error          `json:"error,omitempty"`
	ID      json.RawMessage `json:"id,omitempty"`
}

// NewResponse builds a successful response for the specified request identifier
func NewResponse(id json.RawMessage, result any) (*Response, error) {
	data, err := json.Marshal(result)
	if err != nil {
		return nil, fmt.Errorf("failed to encode result: %w", err)
	}
	return &Response{
		JSONRPC: Version,
		Result:  data,
		ID:      id,
	}, nil
}

// NewErrorResponse builds a failed response for the specified request identifier
func NewErrorResponse(id json.RawMessage, rpcErr *Error) *Response {
	return &Response{
		JSONRPC: Version,
		Error:   rpcErr,
		ID:      id,
	}
}

// DecodeResponse decodes a response envelope
func DecodeResponse(data []byte) (*Response, error) {
	var resp Response
	if err := json.Unmarshal(data, &resp); err != nil {
		return nil, err
	}
	if resp.JSONRPC != Version {
		return nil, fmt.Errorf("%w: %q", ErrInvalidVersion, resp.JSONRPC)
	}
	return &resp, nil
}

// Into returns the result payload, or the error object carried by the response. A response
// with neither yields an invalid request error
func (r *Response) Into() (json.RawMessage, *Error) {
	if r.Error != nil {
		return nil, r.Error
	}
	if len(r.Result) == 0 {
		return nil, &Error{
			Code:    CodeInvalidRequest,
			Message: "Invalid response: no result or error",
		}
	}
	return r.Result, nil
}

// PeekID extracts the numeric identifier of a response without decoding the rest of it.
// The boolean result is false for frames which carry no usable identifier
func PeekID(data []byte) (uint64, bool, error) {
	var tmp struct {
		ID json.RawMessage `json:"id"`
	}
	if err := json.Unmarshal(data, &tmp); err != nil {
		return 0, false, err
	}
	if len(tmp.ID) == 0 || isNull(tmp.ID) {
		return 0, false, nil
	}
	var id uint64
	if err := json.Unmarshal(tmp.ID, &id); err == nil {
		return id, true, nil
	}
	// Some servers echo identifiers back as strings
	var idStr string
	if err := json.Unmarshal(tmp.ID, &idStr); err != nil {
		return 0, false, nil
	}
	id, err := strconv.ParseUint(idStr, 10, 64)
	if err != nil {
		return 0, false, nil
	}
	return id, true, nil
}

func isNull(data []byte) bool {
	return bytes.Equal(bytes.TrimSpace(data), []byte("null"))
}
