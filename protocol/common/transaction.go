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

package common

import (
	"encoding/json"
	"errors"
	"fmt"
	"maps"
	"strings"

	"github.com/blinklabs-io/gogmios/utils"
)

// UtxoEntryOverhead is the fixed size added to every output when computing its ledger size
const UtxoEntryOverhead = 160

// Sizes of the fixed-length hashes found in outputs
const (
	PolicyIdSize  = 28
	DatumHashSize = 32
	// Decoded size of a Shelley base address
	shelleyAddressSize = 57
	// Rough size of a native script given without its CBOR
	nativeScriptEstimate = 32
)

// Script languages
const (
	ScriptLanguageNative   = "native"
	ScriptLanguagePlutusV1 = "plutus:v1"
	ScriptLanguagePlutusV2 = "plutus:v2"
	ScriptLanguagePlutusV3 = "plutus:v3"
)

var ErrInvalidValue = errors.New("invalid value")

// Value is an amount of lovelace plus any native assets, keyed by policy ID then asset name
type Value struct {
	Lovelace uint64
	Assets   map[string]map[string]uint64
}

type adaJSON struct {
	Lovelace uint64 `json:"lovelace"`
}

func (v *Value) UnmarshalJSON(data []byte) error {
	var tmp map[string]json.RawMessage
	if err := json.Unmarshal(data, &tmp); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidValue, err)
	}
	rawAda, ok := tmp["ada"]
	if !ok {
		return fmt.Errorf("%w: missing ada", ErrInvalidValue)
	}
	var ada adaJSON
	if err := json.Unmarshal(rawAda, &ada); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidValue, err)
	}
	v.Lovelace = ada.Lovelace
	v.Assets = nil
	for policyId, rawAssets := range tmp {
		if policyId == "ada" {
			continue
		}
		var assets map[string]uint64
		if err := json.Unmarshal(rawAssets, &assets); err != nil {
			return fmt.Errorf("%w: policy %s: %w", ErrInvalidValue, policyId, err)
		}
		if v.Assets == nil {
			v.Assets = make(map[string]map[string]uint64)
		}
		v.Assets[policyId] = assets
	}
	return nil
}

func (v Value) MarshalJSON() ([]byte, error) {
	tmp := make(map[string]any, len(v.Assets)+1)
	for policyId, assets := range v.Assets {
		tmp[policyId] = assets
	}
	tmp["ada"] = adaJSON{Lovelace: v.Lovelace}
	return json.Marshal(tmp)
}

// AssetCount returns the number of distinct assets, not counting ada
func (v Value) AssetCount() int {
	ret := 0
	for _, assets := range v.Assets {
		ret += len(assets)
	}
	return ret
}

// Clone returns a copy of the value which shares no maps with the original
func (v Value) Clone() Value {
	ret := Value{Lovelace: v.Lovelace}
	if v.Assets != nil {
		ret.Assets = make(map[string]map[string]uint64, len(v.Assets))
		for policyId, assets := range v.Assets {
			ret.Assets[policyId] = maps.Clone(assets)
		}
	}
	return ret
}

// Script is a reference script attached to an output
type Script struct {
	Language string          `json:"language"`
	Cbor     string          `json:"cbor,omitempty"`
	JSON     json.RawMessage `json:"json,omitempty"`
}

// TransactionOutputReference identifies an output by transaction ID and index
type TransactionOutputReference struct {
	Transaction struct {
		ID string `json:"id"`
	} `json:"transaction"`
	Index uint32 `json:"index"`
}

// NewTransactionOutputReference returns a reference to output index of transaction txId
func NewTransactionOutputReference(txId string, index uint32) TransactionOutputReference {
	var ret TransactionOutputReference
	ret.Transaction.ID = txId
	ret.Index = index
	return ret
}

func (r TransactionOutputReference) String() string {
	return fmt.Sprintf("%s#%d", r.Transaction.ID, r.Index)
}

// TransactionOutput is an output as reported by the server
type TransactionOutput struct {
	Address   string  `json:"address"`
	Value     Value   `json:"value"`
	DatumHash string  `json:"datumHash,omitempty"`
	Datum     string  `json:"datum,omitempty"`
	Script    *Script `json:"script,omitempty"`
}

// Utxo is an unspent output together with its reference
type Utxo struct {
	TransactionOutputReference
	TransactionOutput
}

// UtxoSize estimates the size the ledger uses for an output when computing the minimum ada it
// must hold
func UtxoSize(output TransactionOutput) uint64 {
	size := uint64(UtxoEntryOverhead)
	size += addressSize(output.Address)
	size += valueSize(output.Value)
	switch {
	case output.Datum != "":
		// Inline datums are wrapped in tag 24
		size += 1 + utils.CborBytesSize(uint64(len(output.Datum)/2))
	case output.DatumHash != "":
		size += utils.CborBytesSize(DatumHashSize)
	}
	if output.Script != nil {
		size += scriptSize(*output.Script)
	}
	return size
}

func addressSize(address string) uint64 {
	if strings.HasPrefix(address, "addr") || strings.HasPrefix(address, "stake") {
		return utils.CborBytesSize(shelleyAddressSize)
	}
	// Byron addresses are base58 and only approximated from their length
	return utils.CborBytesSize(uint64(len(address) / 2))
}

func valueSize(value Value) uint64 {
	if len(value.Assets) == 0 {
		return utils.CborIntegerSize(value.Lovelace)
	}
	size := utils.CborContainerSize(2)
	size += utils.CborIntegerSize(value.Lovelace)
	size += utils.CborContainerSize(uint64(len(value.Assets)))
	for _, assets := range value.Assets {
		size += utils.CborBytesSize(PolicyIdSize)
		size += utils.CborContainerSize(uint64(len(assets)))
		for assetName, quantity := range assets {
			size += utils.CborBytesSize(uint64(len(assetName) / 2))
			size += utils.CborIntegerSize(quantity)
		}
	}
	return size
}

func scriptSize(script Script) uint64 {
	if script.Cbor == "" {
		if script.Language == ScriptLanguageNative {
			return nativeScriptEstimate
		}
		return 0
	}
	return utils.CborBytesSize(uint64(len(script.Cbor) / 2))
}
