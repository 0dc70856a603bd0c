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
	"encoding/json"
	"fmt"

	"github.com/blinklabs-io/gogmios/protocol/common"
)

type acquireParams struct {
	Point *common.Point `json:"point,omitempty"`
}

type acquireResult struct {
	Acquired string       `json:"acquired"`
	Point    common.Point `json:"point"`
}

type acquireFailureData struct {
	Reason  string `json:"reason"`
	Failure string `json:"failure"`
}

type genesisConfigurationParams struct {
	Era string `json:"era"`
}

// UtxoFilter restricts a UTxO query to addresses or output references. Exactly one should be set
type UtxoFilter struct {
	Addresses        []string                            `json:"addresses,omitempty"`
	OutputReferences []common.TransactionOutputReference `json:"outputReferences,omitempty"`
}

// RelativeTime is a number of seconds since the system start
type RelativeTime uint64

// UnmarshalJSON accepts both a plain number and the {"seconds": n} object form
func (t *RelativeTime) UnmarshalJSON(data []byte) error {
	var seconds float64
	if err := json.Unmarshal(data, &seconds); err == nil {
		*t = RelativeTime(seconds)
		return nil
	}
	var tmp struct {
		Seconds *uint64 `json:"seconds"`
	}
	if err := json.Unmarshal(data, &tmp); err != nil {
		return err
	}
	if tmp.Seconds == nil {
		return fmt.Errorf("missing seconds in relative time: %s", data)
	}
	*t = RelativeTime(*tmp.Seconds)
	return nil
}

func (t RelativeTime) MarshalJSON() ([]byte, error) {
	return json.Marshal(
		struct {
			Seconds uint64 `json:"seconds"`
		}{
			Seconds: uint64(t),
		},
	)
}

// EraBound is the start or end of an era
type EraBound struct {
	Time  RelativeTime `json:"time"`
	Slot  uint64       `json:"slot"`
	Epoch uint64       `json:"epoch"`
}

// EraParameters describes the slotting of an era
type EraParameters struct {
	EpochLength uint64 `json:"epochLength"`
	SlotLength  struct {
		Milliseconds uint64 `json:"milliseconds"`
	} `json:"slotLength"`
	SafeZone *uint64 `json:"safeZone"`
}

// EraSummary is an entry of the era history. End is nil for the current era
type EraSummary struct {
	Start      EraBound      `json:"start"`
	End        *EraBound     `json:"end"`
	Parameters EraParameters `json:"parameters"`
}

// Bytes is a size expressed in bytes
type Bytes struct {
	Bytes uint64 `json:"bytes"`
}

// ProtocolVersion is a major and minor protocol version
type ProtocolVersion struct {
	Major uint  `json:"major"`
	Minor uint  `json:"minor"`
	Patch *uint  `json:"patch,omitempty"`
}

// ProtocolParameters holds the protocol parameters needed for fee and deposit calculations.
// The complete document is kept in Raw
type ProtocolParameters struct {
	MinFeeCoefficient         uint64          `json:"minFeeCoefficient"`
	MinFeeConstant            common.Value    `json:"minFeeConstant"`
	MinUtxoDepositCoefficient uint64          `json:"minUtxoDepositCoefficient"`
	MinUtxoDepositConstant    common.Value    `json:"minUtxoDepositConstant"`
	MaxBlockBodySize          Bytes           `json:"maxBlockBodySize"`
	MaxBlockHeaderSize        Bytes           `json:"maxBlockHeaderSize"`
	MaxTransactionSize        Bytes           `json:"maxTransactionSize"`
	MaxValueSize              *Bytes          `json:"maxValueSize,omitempty"`
	StakeCredentialDeposit    common.Value    `json:"stakeCredentialDeposit"`
	StakePoolDeposit          common.Value    `json:"stakePoolDeposit"`
	Version                   ProtocolVersion `json:"version"`
	Raw                       json.RawMessage `json:"-"`
}

func (p *ProtocolParameters) UnmarshalJSON(data []byte) error {
	type tmpProtocolParameters ProtocolParameters
	var tmp tmpProtocolParameters
	if err := json.Unmarshal(data, &tmp); err != nil {
		return err
	}
	*p = ProtocolParameters(tmp)
	p.Raw = append(json.RawMessage(nil), data...)
	return nil
}

// MinFee returns the linear fee for a transaction of the given size
func (p ProtocolParameters) MinFee(txSize uint64) uint64 {
	return p.MinFeeCoefficient*txSize + p.MinFeeConstant.Lovelace
}

// MinUtxoLovelace returns the minimum lovelace the output must hold
func (p ProtocolParameters) MinUtxoLovelace(output common.TransactionOutput) uint64 {
	return p.MinUtxoDepositCoefficient*common.UtxoSize(output) + p.MinUtxoDepositConstant.Lovelace
}

// Anchor points to an off-chain document by URL and content hash
type Anchor struct {
	URL  string `json:"url"`
	Hash string `json:"hash"`
}

// Constitution is the current on-chain constitution
type Constitution struct {
	Metadata       Anchor `json:"metadata"`
	GuardianScript string `json:"guardianScript,omitempty"`
}

// GovernanceProposalFilter restricts a governance proposals query. An empty filter returns all
// proposals
type GovernanceProposalFilter struct {
	Proposals  []string `json:"proposals,omitempty"`
	ActionType string   `json:"actionType,omitempty"`
}

type projectedRewardsParams struct {
	StakeAddresses []string `json:"stakeAddresses"`
}

type rewardAccountSummariesParams struct {
	Keys []string `json:"keys"`
}

type stakePoolsParams struct {
	StakePools   []string `json:"stakePools,omitempty"`
	IncludeStake bool     `json:"includeStake"`
}
