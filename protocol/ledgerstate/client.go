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

package ledgerstate

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"sync"
	"time"

	ogmios "github.com/blinklabs-io/gogmios"
	"github.com/blinklabs-io/gogmios/protocol/common"
	"github.com/google/uuid"
)

// Client implements the ledger-state query client
type Client struct {
	ic           ogmios.Interaction
	config       Config
	connectionId string
	busyMutex    sync.Mutex
	acquired     *common.Point
}

// NewClient returns a new ledger-state query client which issues requests over ic
func NewClient(ic ogmios.Interaction, options ...LedgerStateOptionFunc) *Client {
	c := &Client{
		ic:     ic,
		config: NewConfig(options...),
	}
	if tmp, ok := ic.(interface{ ConnectionId() uuid.UUID }); ok {
		c.connectionId = tmp.ConnectionId().String()
	}
	return c
}

func (c *Client) logCall(msg string) {
	c.config.Logger.Debug(
		msg,
		"component", "network",
		"protocol", ProtocolName,
		"role", "client",
		"connection_id", c.connectionId,
	)
}

// Acquire acquires the ledger state at the specified point, or the most recent one when point
// is nil. Queries are answered from the acquired state until Release is called
func (c *Client) Acquire(ctx context.Context, point *common.Point) (common.Point, error) {
	if point == nil {
		c.logCall("calling Acquire(point: tip)")
	} else {
		c.logCall(fmt.Sprintf("calling Acquire(point: %s)", point))
	}
	c.busyMutex.Lock()
	defer c.busyMutex.Unlock()
	result, err := ogmios.Request[acquireResult](
		ctx,
		c.ic,
		MethodAcquireLedgerState,
		acquireParams{Point: point},
	)
	if err != nil {
		var rpcErr *ogmios.RPCError
		if errors.As(err, &rpcErr) && rpcErr.Code == ErrorCodeAcquireFailure {
			var data acquireFailureData
			// The reason is informational
			_ = rpcErr.DecodeData(&data)
			reason := data.Reason
			if reason == "" {
				reason = data.Failure
			}
			return common.Point{}, &AcquireError{Reason: reason, Message: rpcErr.Message}
		}
		return common.Point{}, err
	}
	acquired := result.Point
	c.acquired = &acquired
	return acquired, nil
}

// Acquired returns the currently acquired point, if any
func (c *Client) Acquired() (common.Point, bool) {
	c.busyMutex.Lock()
	defer c.busyMutex.Unlock()
	if c.acquired == nil {
		return common.Point{}, false
	}
	return *c.acquired, true
}

// Release releases the previously acquired ledger state
func (c *Client) Release(ctx context.Context) error {
	c.logCall("calling Release()")
	c.busyMutex.Lock()
	defer c.busyMutex.Unlock()
	if _, err := c.ic.Call(ctx, MethodReleaseLedgerState, nil); err != nil {
		return err
	}
	c.acquired = nil
	return nil
}

// LedgerTip returns the point of the ledger state the queries run against
func (c *Client) LedgerTip(ctx context.Context) (common.Point, error) {
	c.logCall("calling LedgerTip()")
	return query[common.Point](ctx, c, MethodQueryTip, nil)
}

// Epoch returns the current epoch number
func (c *Client) Epoch(ctx context.Context) (uint64, error) {
	c.logCall("calling Epoch()")
	return query[uint64](ctx, c, MethodQueryEpoch, nil)
}

// EraStart returns the start of the current era
func (c *Client) EraStart(ctx context.Context) (EraBound, error) {
	c.logCall("calling EraStart()")
	return query[EraBound](ctx, c, MethodQueryEraStart, nil)
}

// EraSummaries returns the era history
func (c *Client) EraSummaries(ctx context.Context) ([]EraSummary, error) {
	c.logCall("calling EraSummaries()")
	return query[[]EraSummary](ctx, c, MethodQueryEraSummaries, nil)
}

// ProtocolParameters returns the current protocol parameters
func (c *Client) ProtocolParameters(ctx context.Context) (ProtocolParameters, error) {
	c.logCall("calling ProtocolParameters()")
	return query[ProtocolParameters](ctx, c, MethodQueryProtocolParameters, nil)
}

// Utxo returns the unspent outputs matching the filter
func (c *Client) Utxo(ctx context.Context, filter UtxoFilter) ([]common.Utxo, error) {
	c.logCall(
		fmt.Sprintf(
			"calling Utxo(addresses: %d, outputReferences: %d)",
			len(filter.Addresses),
			len(filter.OutputReferences),
		),
	)
	if len(filter.Addresses) == 0 && len(filter.OutputReferences) == 0 {
		return nil, ErrNoFilter
	}
	for _, addr := range filter.Addresses {
		if err := ValidateAddress(addr, c.config.Network); err != nil {
			return nil, err
		}
	}
	return query[[]common.Utxo](ctx, c, MethodQueryUtxo, filter)
}

// UtxoByAddresses returns the unspent outputs at the provided addresses
func (c *Client) UtxoByAddresses(ctx context.Context, addresses ...string) ([]common.Utxo, error) {
	return c.Utxo(ctx, UtxoFilter{Addresses: addresses})
}

// UtxoByOutputReferences returns the unspent outputs among the provided references
func (c *Client) UtxoByOutputReferences(
	ctx context.Context,
	refs ...common.TransactionOutputReference,
) ([]common.Utxo, error) {
	return c.Utxo(ctx, UtxoFilter{OutputReferences: refs})
}

// NetworkTip returns the tip of the node's chain, which may be ahead of the ledger state
func (c *Client) NetworkTip(ctx context.Context) (common.Tip, error) {
	c.logCall("calling NetworkTip()")
	return query[common.Tip](ctx, c, MethodQueryNetworkTip, nil)
}

// NetworkBlockHeight returns the height of the node's chain. An empty chain has height 0
func (c *Client) NetworkBlockHeight(ctx context.Context) (uint64, error) {
	c.logCall("calling NetworkBlockHeight()")
	result, err := query[json.RawMessage](ctx, c, MethodQueryNetworkBlockHeight, nil)
	if err != nil {
		return 0, err
	}
	if string(result) == `"origin"` {
		return 0, nil
	}
	height, err := strconv.ParseUint(string(result), 10, 64)
	if err != nil {
		return 0, &ogmios.ProtocolError{Method: MethodQueryNetworkBlockHeight, Err: err}
	}
	return height, nil
}

// GenesisConfiguration returns the genesis configuration of an era. The schema differs by era,
// so the document is returned undecoded
func (c *Client) GenesisConfiguration(ctx context.Context, era string) (json.RawMessage, error) {
	c.logCall(fmt.Sprintf("calling GenesisConfiguration(era: %s)", era))
	return query[json.RawMessage](
		ctx,
		c,
		MethodQueryGenesisConfiguration,
		genesisConfigurationParams{Era: era},
	)
}

// Constitution returns the constitution currently in effect
func (c *Client) Constitution(ctx context.Context) (Constitution, error) {
	c.logCall("calling Constitution()")
	return query[Constitution](ctx, c, MethodQueryConstitution, nil)
}

// GovernanceProposals returns the governance proposals matching filter, or all of them when filter
// is nil. Proposal states are returned undecoded
func (c *Client) GovernanceProposals(
	ctx context.Context,
	filter *GovernanceProposalFilter,
) ([]json.RawMessage, error) {
	c.logCall("calling GovernanceProposals()")
	var params any
	if filter != nil {
		params = filter
	}
	return query[[]json.RawMessage](ctx, c, MethodQueryGovernanceProposals, params)
}

// LiveStakeDistribution returns the stake of each pool, keyed by pool ID
func (c *Client) LiveStakeDistribution(ctx context.Context) (map[string]json.RawMessage, error) {
	c.logCall("calling LiveStakeDistribution()")
	return query[map[string]json.RawMessage](ctx, c, MethodQueryLiveStakeDistribution, nil)
}

// ProjectedRewards returns the rewards expected at the end of the epoch for stake addresses
func (c *Client) ProjectedRewards(
	ctx context.Context,
	stakeAddresses ...string,
) (json.RawMessage, error) {
	c.logCall(fmt.Sprintf("calling ProjectedRewards(stakeAddresses: %d)", len(stakeAddresses)))
	if len(stakeAddresses) == 0 {
		return nil, ErrNoFilter
	}
	return query[json.RawMessage](
		ctx,
		c,
		MethodQueryProjectedRewards,
		projectedRewardsParams{StakeAddresses: stakeAddresses},
	)
}

// RewardAccountSummaries returns the delegation and reward balance of reward accounts, keyed by
// account
func (c *Client) RewardAccountSummaries(
	ctx context.Context,
	keys ...string,
) (map[string]json.RawMessage, error) {
	c.logCall(fmt.Sprintf("calling RewardAccountSummaries(keys: %d)", len(keys)))
	if len(keys) == 0 {
		return nil, ErrNoFilter
	}
	return query[map[string]json.RawMessage](
		ctx,
		c,
		MethodQueryRewardAccountSummaries,
		rewardAccountSummariesParams{Keys: keys},
	)
}

// StakePools returns the registered stake pools, keyed by pool ID. With no pool IDs, every pool
// is returned
func (c *Client) StakePools(
	ctx context.Context,
	includeStake bool,
	poolIds ...string,
) (map[string]json.RawMessage, error) {
	c.logCall(
		fmt.Sprintf("calling StakePools(includeStake: %t, pools: %d)", includeStake, len(poolIds)),
	)
	return query[map[string]json.RawMessage](
		ctx,
		c,
		MethodQueryStakePools,
		stakePoolsParams{StakePools: poolIds, IncludeStake: includeStake},
	)
}

// StakePoolsPerformance returns the performance of each stake pool in the last epoch, keyed by
// pool ID
func (c *Client) StakePoolsPerformance(ctx context.Context) (map[string]json.RawMessage, error) {
	c.logCall("calling StakePoolsPerformance()")
	return query[map[string]json.RawMessage](ctx, c, MethodQueryStakePoolsPerformance, nil)
}

// NetworkStartTime returns the system start of the network
func (c *Client) NetworkStartTime(ctx context.Context) (time.Time, error) {
	c.logCall("calling NetworkStartTime()")
	return query[time.Time](ctx, c, MethodQueryNetworkStartTime, nil)
}

func query[R any](ctx context.Context, c *Client, method string, params any) (R, error) {
	c.busyMutex.Lock()
	defer c.busyMutex.Unlock()
	return ogmios.Request[R](ctx, c.ic, method, params)
}
