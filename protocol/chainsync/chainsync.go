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

// Package chainsync implements the Ogmios chain synchronization mini-protocol
package chainsync

import (
	"io"
	"log/slog"

	"github.com/blinklabs-io/gogmios/checkpoint"
)

// Protocol identifiers
const (
	ProtocolName = "chain-sync"

	MethodFindIntersection = "findIntersection"
	MethodNextBlock        = "nextBlock"

	DirectionForward  = "forward"
	DirectionBackward = "backward"
)

const DefaultInFlight = 1

// Config is used to configure the chain-sync client
type Config struct {
	// Number of nextBlock requests kept outstanding. Events are always dispatched in chain order
	InFlight        int
	Logger          *slog.Logger
	Metrics         *Metrics
	CheckpointStore checkpoint.Store
}

// ChainSyncOptionFunc represents a function used to modify the chain-sync client config
type ChainSyncOptionFunc func(*Config)

// NewConfig returns a new chain-sync config object with the provided options
func NewConfig(options ...ChainSyncOptionFunc) Config {
	c := Config{
		InFlight: DefaultInFlight,
	}
	// Apply provided options functions
	for _, option := range options {
		option(&c)
	}
	if c.InFlight < 1 {
		c.InFlight = 1
	}
	if c.Logger == nil {
		c.Logger = slog.New(slog.NewJSONHandler(io.Discard, nil))
	}
	if c.Metrics == nil {
		c.Metrics = NopMetrics()
	}
	return c
}

// WithInFlight specifies how many nextBlock requests may be pipelined ahead of the handler
func WithInFlight(inFlight int) ChainSyncOptionFunc {
	return func(c *Config) {
		c.InFlight = inFlight
	}
}

// WithLogger specifies the logger to use
func WithLogger(logger *slog.Logger) ChainSyncOptionFunc {
	return func(c *Config) {
		c.Logger = logger
	}
}

// WithMetrics specifies the metrics to update while syncing
func WithMetrics(metrics *Metrics) ChainSyncOptionFunc {
	return func(c *Config) {
		c.Metrics = metrics
	}
}

// WithCheckpointStore specifies a store which records each processed point
func WithCheckpointStore(store checkpoint.Store) ChainSyncOptionFunc {
	return func(c *Config) {
		c.CheckpointStore = store
	}
}
