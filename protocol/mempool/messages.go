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

package mempool

import (
	"encoding/json"
	"fmt"

	"github.com/blinklabs-io/gogmios/protocol/common"
)

type acquireResult struct {
	Acquired string `json:"acquired"`
	Slot     uint64 `json:"slot"`
}

type hasTransactionParams struct {
	ID string `json:"id"`
}

type nextTransactionParams struct {
	Fields string `json:"fields,omitempty"`
}

type nextTransactionResult struct {
	Transaction *Transaction `json:"transaction"`
}

// hasTransactionResult is either a bare boolean or {"hasTransaction": bool}
type hasTransactionResult bool

func (r *hasTransactionResult) UnmarshalJSON(data []byte) error {
	var tmpBool bool
	if err := json.Unmarshal(data, &tmpBool); err == nil {
		*r = hasTransactionResult(tmpBool)
		return nil
	}
	var tmp struct {
		HasTransaction *bool `json:"hasTransaction"`
	}
	if err := json.Unmarshal(data, &tmp); err != nil {
		return err
	}
	if tmp.HasTransaction == nil {
		return fmt.Errorf("unexpected hasTransaction result: %s", data)
	}
	*r = hasTransactionResult(*tmp.HasTransaction)
	return nil
}

// Transaction is a transaction from the mempool. Only the ID is set unless the full transaction
// was requested, and the complete document is kept in Raw
type Transaction struct {
	ID      string                              `json:"id"`
	Inputs  []common.TransactionOutputReference `json:"inputs,omitempty"`
	Outputs []common.TransactionOutput          `json:"outputs,omitempty"`
	Fee     *common.Value                       `json:"fee,omitempty"`
	Cbor    string                              `json:"cbor,omitempty"`
	Raw     json.RawMessage                     `json:"-"`
}

func (t *Transaction) UnmarshalJSON(data []byte) error {
	type tmpTransaction Transaction
	var tmp tmpTransaction
	if err := json.Unmarshal(data, &tmp); err != nil {
		return err
	}
	if tmp.ID == "" {
		return fmt.Errorf("missing transaction id: %s", data)
	}
	*t = Transaction(tmp)
	t.Raw = append(json.RawMessage(nil), data...)
	return nil
}

// Sizes describes the mempool usage and capacity
type Sizes struct {
	MaxCapacity  uint64 // bytes
	CurrentSize  uint64 // bytes
	Transactions uint64
}

// UnmarshalJSON accepts the nested form used by the server as well as a flat form
func (s *Sizes) UnmarshalJSON(data []byte) error {
	var nested struct {
		MaxCapacity *struct {
			Bytes uint64 `json:"bytes"`
		} `json:"maxCapacity"`
		CurrentSize *struct {
			Bytes uint64 `json:"bytes"`
		} `json:"currentSize"`
		Transactions *struct {
			Count uint64 `json:"count"`
		} `json:"transactions"`
	}
	if err := json.Unmarshal(data, &nested); err == nil && nested.MaxCapacity != nil {
		s.MaxCapacity = nested.MaxCapacity.Bytes
		if nested.CurrentSize != nil {
			s.CurrentSize = nested.CurrentSize.Bytes
		}
		if nested.Transactions != nil {
			s.Transactions = nested.Transactions.Count
		}
		return nil
	}
	var flat struct {
		Bytes        uint64 `json:"bytes"`
		Transactions uint64 `json:"transactions"`
		MaxBytes     uint64 `json:"maxBytes"`
	}
	if err := json.Unmarshal(data, &flat); err != nil {
		return err
	}
	s.MaxCapacity = flat.MaxBytes
	s.CurrentSize = flat.Bytes
	s.Transactions = flat.Transactions
	return nil
}
