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

import (
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/gorilla/websocket"
)

const (
	DefaultMaxPayload       = 128 * 1024 * 1024
	DefaultHandshakeTimeout = 45 * time.Second
	DefaultWriteTimeout     = 10 * time.Second
)

// CloseFunc is called exactly once when the transport shuts down. The error is nil for a
// shutdown requested via Close
type CloseFunc func(error)

// Config is used to configure a Transport
type Config struct {
	Logger           *slog.Logger
	Dialer           *websocket.Dialer
	Header           http.Header
	MaxPayload       int64
	HandshakeTimeout time.Duration
	WriteTimeout     time.Duration
	RequestTimeout   time.Duration
	CloseFunc        CloseFunc
	ConnectionId     string
}

// TransportOptionFunc represents a function used to modify the Transport config
type TransportOptionFunc func(*Config)

// NewConfig returns a new Transport config object with the provided options
func NewConfig(options ...TransportOptionFunc) Config {
	c := Config{
		MaxPayload:       DefaultMaxPayload,
		HandshakeTimeout: DefaultHandshakeTimeout,
		WriteTimeout:     DefaultWriteTimeout,
	}
	// Apply provided options functions
	for _, option := range options {
		option(&c)
	}
	if c.Logger == nil {
		c.Logger = slog.New(slog.NewJSONHandler(io.Discard, nil))
	}
	return c
}

// WithLogger specifies the logger to use
func WithLogger(logger *slog.Logger) TransportOptionFunc {
	return func(c *Config) {
		c.Logger = logger
	}
}

// WithDialer specifies a custom websocket dialer. The default honors proxy environment variables
func WithDialer(dialer *websocket.Dialer) TransportOptionFunc {
	return func(c *Config) {
		c.Dialer = dialer
	}
}

// WithHeader specifies extra HTTP headers to send with the handshake
func WithHeader(header http.Header) TransportOptionFunc {
	return func(c *Config) {
		c.Header = header
	}
}

// WithMaxPayload specifies the largest inbound frame accepted, in bytes
func WithMaxPayload(maxPayload int64) TransportOptionFunc {
	return func(c *Config) {
		c.MaxPayload = maxPayload
	}
}

// WithHandshakeTimeout specifies the timeout for the websocket handshake
func WithHandshakeTimeout(timeout time.Duration) TransportOptionFunc {
	return func(c *Config) {
		c.HandshakeTimeout = timeout
	}
}

// WithWriteTimeout specifies the deadline for writing a single frame
func WithWriteTimeout(timeout time.Duration) TransportOptionFunc {
	return func(c *Config) {
		c.WriteTimeout = timeout
	}
}

// WithRequestTimeout specifies how long a call waits for its reply. Zero means no limit
func WithRequestTimeout(timeout time.Duration) TransportOptionFunc {
	return func(c *Config) {
		c.RequestTimeout = timeout
	}
}

// WithCloseFunc specifies a function to call when the transport shuts down
func WithCloseFunc(closeFunc CloseFunc) TransportOptionFunc {
	return func(c *Config) {
		c.CloseFunc = closeFunc
	}
}

// WithConnectionId specifies the connection identifier used in log messages
func WithConnectionId(connId string) TransportOptionFunc {
	return func(c *Config) {
		c.ConnectionId = connId
	}
}
