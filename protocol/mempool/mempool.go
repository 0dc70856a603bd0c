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

// Package mempool implements the Ogmios mempool monitoring methods
package mempool

import (
	"io"
	"log/slog"
)

// Protocol identifiers
const (
	ProtocolName = "mempool-monitoring"
)

// Method names
const (
	MethodAcquireMempool  = "acquireMempool"
	MethodNextTransaction = "nextTransaction"
	MethodHasTransaction  = "hasTransaction"
	MethodSizeOfMempool   = "sizeOfMempool"
	MethodReleaseMempool  = "releaseMempool"
)

// Config is used to configure the mempool monitoring client
type Config struct {
	Logger *slog.Logger
}

// MempoolOptionFunc represents a function used to modify the mempool monitoring config
type MempoolOptionFunc func(*Config)

// NewConfig returns a new mempool monitoring config object with the provided options
func NewConfig(options ...MempoolOptionFunc) Config {
	c := Config{}
	for _, option := range options {
		option(&c)
	}
	if c.Logger == nil {
		c.Logger = slog.New(slog.NewJSONHandler(io.Discard, nil))
	}
	return c
}

// WithLogger specifies the logger
func WithLogger(logger *slog.Logger) MempoolOptionFunc {
	return func(c *Config) {
		c.Logger = logger
	}
}
