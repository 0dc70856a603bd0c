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
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"slices"
)

// Block types as reported in the "type" field
const (
	BlockTypeEBB   = "ebb"
	BlockTypeBFT   = "bft"
	BlockTypePraos = "praos"
)

// Era names
const (
	EraByron   = "byron"
	EraShelley = "shelley"
	EraAllegra = "allegra"
	EraMary    = "mary"
	EraAlonzo  = "alonzo"
	EraBabbage = "babbage"
	EraConway  = "conway"
)

var ErrInvalidBlock = errors.New("invalid block")

// Block holds the header-level fields of a block. The full document is kept in Raw, so callers
// needing the complete schema can decode it themselves. Raw does not take part in Equal
type Block struct {
	Type         string             `json:"type"`
	Era          string             `json:"era"`
	ID           string             `json:"id"`
	Ancestor     string             `json:"ancestor"`
	Slot         uint64             `json:"slot"`
	Height       uint64             `json:"height"`
	Transactions []BlockTransaction `json:"transactions,omitempty"`
	Raw          json.RawMessage    `json:"-"`
}

// BlockTransaction is a transaction within a block. Only the ID is decoded
type BlockTransaction struct {
	ID string `json:"id"`
}

// Type alias to avoid recursion in (un)marshaling
type blockJSON Block

func (b *Block) UnmarshalJSON(data []byte) error {
	var tmp blockJSON
	if err := json.Unmarshal(data, &tmp); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidBlock, err)
	}
	switch tmp.Type {
	case BlockTypeEBB, BlockTypeBFT, BlockTypePraos:
	default:
		return fmt.Errorf("%w: unknown block type %q", ErrInvalidBlock, tmp.Type)
	}
	if tmp.ID == "" {
		return fmt.Errorf("%w: missing id", ErrInvalidBlock)
	}
	*b = Block(tmp)
	b.Raw = make([]byte, len(data))
	copy(b.Raw, data)
	return nil
}

// MarshalJSON returns the original document when the block was decoded from one
func (b Block) MarshalJSON() ([]byte, error) {
	if len(b.Raw) > 0 {
		return b.Raw, nil
	}
	return json.Marshal(blockJSON(b))
}

// Hash returns the decoded block ID
func (b *Block) Hash() ([]byte, error) {
	return hex.DecodeString(b.ID)
}

// Point returns the chain point of the block
func (b *Block) Point() (Point, error) {
	hash, err := b.Hash()
	if err != nil {
		return Point{}, fmt.Errorf("%w: %w", ErrInvalidBlock, err)
	}
	return NewPoint(b.Slot, hash), nil
}

// Equal returns whether both blocks have the same decoded fields. Raw is ignored, as the same
// block may be carried by documents that differ in formatting or in fields not decoded here
func (b Block) Equal(other Block) bool {
	return b.Type == other.Type &&
		b.Era == other.Era &&
		b.ID == other.ID &&
		b.Ancestor == other.Ancestor &&
		b.Slot == other.Slot &&
		b.Height == other.Height &&
		slices.Equal(b.Transactions, other.Transactions)
}

// IsEBB returns whether this is a Byron epoch boundary block
func (b *Block) IsEBB() bool {
	return b.Type == BlockTypeEBB
}

// IsBFT returns whether this is a Byron block
func (b *Block) IsBFT() bool {
	return b.Type == BlockTypeBFT
}

// IsPraos returns whether this is a Shelley or later block
func (b *Block) IsPraos() bool {
	return b.Type == BlockTypePraos
}

// Decode decodes the full block document into dest
func (b *Block) Decode(dest any) error {
	if len(b.Raw) == 0 {
		return fmt.Errorf("%w: no raw document", ErrInvalidBlock)
	}
	return json.Unmarshal(b.Raw, dest)
}
