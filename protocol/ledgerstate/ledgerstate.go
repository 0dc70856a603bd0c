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

// Package ledgerstate implements the Ogmios ledger-state query methods
package ledgerstate

import (
	"io"
	"log/slog"

	ogmios "github.com/blinklabs-io/gogmios"
)

// Protocol identifiers
const (
	ProtocolName = "ledger-state-query"
)

// Method names
const (
	MethodAcquireLedgerState          = "acquireLedgerState"
	MethodReleaseLedgerState          = "releaseLedgerState"
	MethodQueryTip                    = "queryLedgerState/tip"
	MethodQueryEpoch                  = "queryLedgerState/epoch"
	MethodQueryEraStart               = "queryLedgerState/eraStart"
	MethodQueryEraSummaries           = "queryLedgerState/eraSummaries"
	MethodQueryProtocolParameters     = "queryLedgerState/protocolParameters"
	MethodQueryUtxo                   = "queryLedgerState/utxo"
	MethodQueryConstitution           = "queryLedgerState/constitution"
	MethodQueryGovernanceProposals    = "queryLedgerState/governanceProposals"
	MethodQueryLiveStakeDistribution  = "queryLedgerState/liveStakeDistribution"
	MethodQueryProjectedRewards       = "queryLedgerState/projectedRewards"
	MethodQueryRewardAccountSummaries = "queryLedgerState/rewardAccountSummaries"
	MethodQueryStakePools             = "queryLedgerState/stakePools"
	MethodQueryStakePoolsPerformance  = "queryLedgerState/stakePoolsPerformance"
	MethodQueryNetworkTip             = "queryNetwork/tip"
	MethodQueryNetworkBlockHeight     = "queryNetwork/blockHeight"
	MethodQueryGenesisConfiguration   = "queryNetwork/genesisConfiguration"
	MethodQueryNetworkStartTime       = "queryNetwork/startTime"
)

// Eras with a genesis configuration
const (
	GenesisByron   = "byron"
	GenesisShelley = "shelley"
	GenesisAlonzo  = "alonzo"
	GenesisConway  = "conway"
)

// Config is used to configure the ledger-state query client
type Config struct {
	Logger *slog.Logger
	// Network is used to check addresses before querying. It's unchecked when unset
	Network ogmios.Network
}

// LedgerStateOptionFunc represents a function used to modify the ledger-state query config
type LedgerStateOptionFunc func(*Config)

// NewConfig returns a new ledger-state query config object with the provided options
func NewConfig(options ...LedgerStateOptionFunc) Config {
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
func WithLogger(logger *slog.Logger) LedgerStateOptionFunc {
	return func(c *Config) {
		c.Logger = logger
	}
}

// WithNetwork specifies the network that queried addresses must belong to
func WithNetwork(network ogmios.Network) LedgerStateOptionFunc {
	return func(c *Config) {
		c.Network = network
	}
}
