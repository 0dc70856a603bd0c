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

package ogmios_mock

import (
	"encoding/json"

	"github.com/blinklabs-io/gogmios/jsonrpc"
)

type EntryType int

const (
	EntryTypeNone   EntryType = 0
	EntryTypeInput  EntryType = 1
	EntryTypeOutput EntryType = 2
	EntryTypeClose  EntryType = 3
	EntryTypeRaw    EntryType = 4
)

// ConversationEntry is a single step in a scripted exchange with a client
type ConversationEntry struct {
	Type EntryType
	// Input: expected method name, and params when not nil
	Method string
	Params any
	// Output: the request being answered. Zero means the most recent request,
	// otherwise it's the 1-based position among the requests read so far
	InputIndex int
	Result     any
	ResultFunc func(Request) any
	Error      *jsonrpc.Error
	// Raw: frame written verbatim
	Raw []byte
}

// Request is a request as received by the mock server
type Request struct {
	JSONRPC string          `json:"jsonrpc"`
	Method  string          `json:"method"`
	Params  json.RawMessage `json:"params,omitempty"`
	ID      json.RawMessage `json:"id,omitempty"`
}

var ConversationEntryClose = ConversationEntry{
	Type: EntryTypeClose,
}

// ConversationEntryInput expects a request for the specified method
func ConversationEntryInput(method string) ConversationEntry {
	return ConversationEntry{
		Type:   EntryTypeInput,
		Method: method,
	}
}

// ConversationEntryInputParams expects a request for the specified method with matching params
func ConversationEntryInputParams(method string, params any) ConversationEntry {
	return ConversationEntry{
		Type:   EntryTypeInput,
		Method: method,
		Params: params,
	}
}

// ConversationEntryResult answers the most recent request with a result
func ConversationEntryResult(result any) ConversationEntry {
	return ConversationEntry{
		Type:   EntryTypeOutput,
		Result: result,
	}
}

// ConversationEntryResultFor answers the Nth request (1-based) with a result
func ConversationEntryResultFor(inputIndex int, result any) ConversationEntry {
	return ConversationEntry{
		Type:       EntryTypeOutput,
		InputIndex: inputIndex,
		Result:     result,
	}
}

// ConversationEntryEchoFor answers the Nth request (1-based) with its own params
func ConversationEntryEchoFor(inputIndex int) ConversationEntry {
	return ConversationEntry{
		Type:       EntryTypeOutput,
		InputIndex: inputIndex,
		ResultFunc: func(req Request) any {
			return req.Params
		},
	}
}

// ConversationEntryError answers the most recent request with an error object
func ConversationEntryError(code int, message string, data any) ConversationEntry {
	rpcErr := &jsonrpc.Error{
		Code:    code,
		Message: message,
	}
	if data != nil {
		tmp, err := json.Marshal(data)
		if err != nil {
			panic(err.Error())
		}
		rpcErr.Data = tmp
	}
	return ConversationEntry{
		Type:  EntryTypeOutput,
		Error: rpcErr,
	}
}

// ConversationEntryRaw writes the frame as-is
func ConversationEntryRaw(frame string) ConversationEntry {
	return ConversationEntry{
		Type: EntryTypeRaw,
		Raw:  []byte(frame),
	}
}
