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

package txsubmission

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	"github.com/blinklabs-io/gogmios/protocol/common"
)

// Script purposes reported by evaluation
const (
	PurposeSpend    = "spend"
	PurposeMint     = "mint"
	PurposePublish  = "publish"
	PurposeWithdraw = "withdraw"
	PurposePropose  = "propose"
	PurposeVote     = "vote"
)

type transactionCbor struct {
	Cbor string `json:"cbor"`
}

type submitParams struct {
	Transaction transactionCbor `json:"transaction"`
}

type submitResult struct {
	Transaction struct {
		ID string `json:"id"`
	} `json:"transaction"`
}

type evaluateParams struct {
	Transaction    transactionCbor `json:"transaction"`
	AdditionalUtxo []common.Utxo   `json:"additionalUtxo,omitempty"`
}

// ExUnits is an execution budget
type ExUnits struct {
	Memory uint64 `json:"memory"`
	Cpu    uint64 `json:"cpu"`
}

// Validator identifies a script by purpose and index within the transaction
type Validator struct {
	Purpose string `json:"purpose"`
	Index   uint32 `json:"index"`
}

func (v Validator) String() string {
	return fmt.Sprintf("%s:%d", v.Purpose, v.Index)
}

// UnmarshalJSON accepts the object form and the older "purpose:index" string form
func (v *Validator) UnmarshalJSON(data []byte) error {
	var str string
	if err := json.Unmarshal(data, &str); err == nil {
		purpose, index, ok := strings.Cut(str, ":")
		if !ok {
			return fmt.Errorf("invalid validator: %q", str)
		}
		tmpIndex, err := strconv.ParseUint(index, 10, 32)
		if err != nil {
			return fmt.Errorf("invalid validator: %q: %w", str, err)
		}
		v.Purpose = purpose
		v.Index = uint32(tmpIndex)
		return nil
	}
	type tmpValidator Validator
	var tmp tmpValidator
	if err := json.Unmarshal(data, &tmp); err != nil {
		return err
	}
	*v = Validator(tmp)
	return nil
}

// EvaluationResult is the execution budget of one script
type EvaluationResult struct {
	Validator Validator `json:"validator"`
	Budget    ExUnits   `json:"budget"`
}

// TotalBudget returns the sum of the budgets of all scripts
func TotalBudget(results []EvaluationResult) ExUnits {
	var ret ExUnits
	for _, result := range results {
		ret.Memory += result.Budget.Memory
		ret.Cpu += result.Budget.Cpu
	}
	return ret
}
