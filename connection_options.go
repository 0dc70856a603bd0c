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
	"log/slog"
	"time"

	"github.com/gorilla/websocket"
)

// InteractionContextOptionFunc is a type that represents functions that modify the InteractionContext config
type InteractionContextOptionFunc func(*InteractionContext)

// WithConnectionConfig specifies the server to connect to
func WithConnectionConfig(config ConnectionConfig) InteractionContextOptionFunc {
	return func(ic *InteractionContext) {
		ic.config = config.withDefaults()
	}
}

// WithInteractionType specifies whether the connection is closed after the first request
func WithInteractionType(interactionType InteractionType) InteractionContextOptionFunc {
	return func(ic *InteractionContext) {
		ic.interactionType = interactionType
	}
}

// WithLogger specifies the logger to use
func WithLogger(logger *slog.Logger) InteractionContextOptionFunc {
	return func(ic *InteractionContext) {
		ic.logger = logger
	}
}

// WithCloseFunc specifies a function to call once when the connection closes
func WithCloseFunc(closeFunc CloseFunc) InteractionContextOptionFunc {
	return func(ic *InteractionContext) {
		ic.closeFunc = closeFunc
	}
}

// WithErrorFunc specifies a function to call when the connection closes because of an error
func WithErrorFunc(errorFunc ErrorFunc) InteractionContextOptionFunc {
	return func(ic *InteractionContext) {
		ic.errorFunc = errorFunc
	}
}

// WithRequestTimeout specifies how long each request waits for its reply. The default is no limit
func WithRequestTimeout(timeout time.Duration) InteractionContextOptionFunc {
	return func(ic *InteractionContext) {
		ic.requestTimeout = timeout
	}
}

// WithDialer specifies a custom websocket dialer, such as one with a TLS config
func WithDialer(dialer *websocket.Dialer) InteractionContextOptionFunc {
	return func(ic *InteractionContext) {
		ic.dialer = dialer
	}
}
