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

package transport

import "errors"

var (
	// ErrConnectionClosed is returned to every caller waiting on a reply when the connection
	// goes away, and to any call made afterward
	ErrConnectionClosed = errors.New("connection closed")

	ErrRequestTimeout = errors.New("request timed out")
	ErrDuplicateId    = errors.New("request ID already pending")
	ErrHandshake      = errors.New("websocket handshake failed")
)
