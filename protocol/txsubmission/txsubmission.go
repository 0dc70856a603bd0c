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

// Package txsubmission implements the Ogmios transaction submission and evaluation methods
package txsubmission

import (
	"io"
	"log/slog"
)

// Protocol identifiers
const (
	ProtocolName = "transaction-submission"
)

// Method names
const (
	MethodSubmitTransaction   = "submitTransaction"
	MethodEvaluateTransaction = "evaluateTransaction"
)

// Config is used to configure the transaction submission client
type Config struct {
	Logger *slog.Logger
	// VerifyTransactionId compares the ID returned on submission with the one computed locally
	VerifyTransactionId bool
}

// TxSubmissionOptionFunc represents a function used to modify the transaction submission config
type TxSubmissionOptionFunc func(*Config)

// NewConfig returns a new transaction submission config object with the provided options
func NewConfig(options ...TxSubmissionOptionFunc) Config {
	c := Config{
		VerifyTransactionId: true,
	}
	for _, option := range options {
		option(&c)
	}
	if c.Logger == nil {
		c.Logger = slog.New(slog.NewJSONHandler(io.Discard, nil))
	}
	return c
}

// WithLogger specifies the logger
func WithLogger(logger *slog.Logger) TxSubmissionOptionFunc {
	return func(c *Config) {
		c.Logger = logger
	}
}

// WithVerifyTransactionId specifies whether submitted transaction IDs are checked locally
func WithVerifyTransactionId(verify bool) TxSubmissionOptionFunc {
	return func(c *Config) {
		c.VerifyTransactionId = verify
	}
}
