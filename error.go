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

package ogmios

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/blinklabs-io/gogmios/transport"
)

var (
	// ErrSocketNotOpen is returned for requests made after the connection has closed. No data
	// is sent in that case
	ErrSocketNotOpen = errors.New("socket not open")

	// ErrConnectionClosed is returned to requests which were waiting on a reply when the
	// connection closed
	ErrConnectionClosed = transport.ErrConnectionClosed
)

// RPCError is an error reported by the server in reply to a request
type RPCError struct {
	Method  string
	Code    int
	Message string
	Data    json.RawMessage
}

func (e *RPCError) Error() string {
	return fmt.Sprintf("%s: JSON-RPC error %d: %s", e.Method, e.Code, e.Message)
}

// DecodeData decodes the error data into dest
func (e *RPCError) DecodeData(dest any) error {
	if len(e.Data) == 0 {
		return errors.New("error has no data")
	}
	return json.Unmarshal(e.Data, dest)
}

// ProtocolError is returned when a reply doesn't have the expected shape
type ProtocolError struct {
	Method string
	Err    error
}

func (e *ProtocolError) Error() string {
	return fmt.Sprintf("invalid %s response: %s", e.Method, e.Err)
}

func (e *ProtocolError) Unwrap() error {
	return e.Err
}
