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

// The common package contains types used by multiple mini-protocols
package common

import (
	"bytes"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/blinklabs-io/gogmios/cbor"
)

const originJSON = "origin"

var (
	ErrPointMissingHash = errors.New("point has a slot but no block hash")
	ErrInvalidPoint     = errors.New("invalid point")
	ErrInvalidTip       = errors.New("invalid tip")
)

// The Point type represents a point on the blockchain. It consists of a slot number and block hash
type Point struct {
	// Tells the CBOR decoder to convert to/from a struct and a CBOR array
	_    struct{} `cbor:",toarray"`
	Slot uint64
	Hash []byte
}

// NewPoint returns a Point object with the specified slot number and block hash
func NewPoint(slot uint64, blockHash []byte) Point {
	return Point{
		Slot: slot,
		Hash: blockHash,
	}
}

// NewPointOrigin returns an "empty" Point object which represents the origin of the blockchain
func NewPointOrigin() Point {
	return Point{}
}

// IsOrigin returns whether the point is the origin of the blockchain
func (p Point) IsOrigin() bool {
	return p.Slot == 0 && len(p.Hash) == 0
}

// Equal returns whether both points refer to the same block
func (p Point) Equal(other Point) bool {
	return p.Slot == other.Slot && bytes.Equal(p.Hash, other.Hash)
}

// String returns "origin" or the point in the form <slot>.<hash>
func (p Point) String() string {
	if p.IsOrigin() {
		return originJSON
	}
	return fmt.Sprintf("%d.%x", p.Slot, p.Hash)
}

// UnmarshalCBOR is a helper function for decoding a Point object from CBOR. The object content can vary,
// so we need to do some special handling when decoding. It is not intended to be called directly.
func (p *Point) UnmarshalCBOR(data []byte) error {
	var tmp []any
	if _, err := cbor.Decode(data, &tmp); err != nil {
		return err
	}
	switch len(tmp) {
	case 0:
		*p = NewPointOrigin()
	case 2:
		slot, ok := tmp[0].(uint64)
		if !ok {
			return fmt.Errorf("%w: unexpected slot type %T", ErrInvalidPoint, tmp[0])
		}
		hash, ok := tmp[1].([]byte)
		if !ok {
			return fmt.Errorf("%w: unexpected hash type %T", ErrInvalidPoint, tmp[1])
		}
		*p = NewPoint(slot, hash)
	default:
		return fmt.Errorf("%w: unexpected list length %d", ErrInvalidPoint, len(tmp))
	}
	return nil
}

// MarshalCBOR is a helper function for encoding a Point object to CBOR. The object content can vary, so we
// need to do some special handling when encoding. It is not intended to be called directly.
func (p Point) MarshalCBOR() ([]byte, error) {
	var data []any
	if p.IsOrigin() {
		// Return an empty list if values are zero
		data = make([]any, 0)
	} else {
		data = []any{p.Slot, p.Hash}
	}
	return cbor.Encode(data)
}

type pointJSON struct {
	Slot *uint64 `json:"slot"`
	ID   *string `json:"id"`
}

// MarshalJSON encodes the point as the string "origin" or as {"slot", "id"}
func (p Point) MarshalJSON() ([]byte, error) {
	if p.IsOrigin() {
		return json.Marshal(originJSON)
	}
	if len(p.Hash) == 0 {
		return nil, fmt.Errorf("%w: slot %d", ErrPointMissingHash, p.Slot)
	}
	id := hex.EncodeToString(p.Hash)
	return json.Marshal(pointJSON{Slot: &p.Slot, ID: &id})
}

func (p *Point) UnmarshalJSON(data []byte) error {
	var str string
	if err := json.Unmarshal(data, &str); err == nil {
		if str != originJSON {
			return fmt.Errorf("%w: unexpected string %q", ErrInvalidPoint, str)
		}
		*p = NewPointOrigin()
		return nil
	}
	var tmp pointJSON
	if err := json.Unmarshal(data, &tmp); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidPoint, err)
	}
	if tmp.Slot == nil || tmp.ID == nil {
		return fmt.Errorf("%w: slot and id are both required", ErrInvalidPoint)
	}
	hash, err := hex.DecodeString(*tmp.ID)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidPoint, err)
	}
	if len(hash) == 0 {
		return fmt.Errorf("%w: empty id", ErrInvalidPoint)
	}
	*p = NewPoint(*tmp.Slot, hash)
	return nil
}

// ParsePoint decodes a point from its JSON form
func ParsePoint(data []byte) (Point, error) {
	var p Point
	if err := json.Unmarshal(data, &p); err != nil {
		return Point{}, err
	}
	return p, nil
}

// ParsePointString parses a point in the form returned by Point.String
func ParsePointString(value string) (Point, error) {
	if value == originJSON {
		return NewPointOrigin(), nil
	}
	slotStr, hashStr, ok := strings.Cut(value, ".")
	if !ok {
		return Point{}, fmt.Errorf("%w: expected <slot>.<hash>: %s", ErrInvalidPoint, value)
	}
	slot, err := strconv.ParseUint(slotStr, 10, 64)
	if err != nil {
		return Point{}, fmt.Errorf("%w: %w", ErrInvalidPoint, err)
	}
	hash, err := hex.DecodeString(hashStr)
	if err != nil {
		return Point{}, fmt.Errorf("%w: %w", ErrInvalidPoint, err)
	}
	if len(hash) == 0 {
		return Point{}, fmt.Errorf("%w: empty hash", ErrInvalidPoint)
	}
	return NewPoint(slot, hash), nil
}

// Tip represents a Point combined with a block number
type Tip struct {
	cbor.StructAsArray
	Point       Point
	BlockNumber uint64
}

// NewTipOrigin returns the tip of an empty chain
func NewTipOrigin() Tip {
	return Tip{Point: NewPointOrigin()}
}

// IsOrigin returns whether the tip is the origin, meaning the chain is empty
func (t Tip) IsOrigin() bool {
	return t.Point.IsOrigin()
}

type tipJSON struct {
	Slot   *uint64 `json:"slot"`
	ID     *string `json:"id"`
	Height *uint64 `json:"height"`
}

// MarshalJSON encodes the tip as the string "origin" or as {"slot", "id", "height"}
func (t Tip) MarshalJSON() ([]byte, error) {
	if t.IsOrigin() {
		return json.Marshal(originJSON)
	}
	if len(t.Point.Hash) == 0 {
		return nil, fmt.Errorf("%w: slot %d", ErrPointMissingHash, t.Point.Slot)
	}
	id := hex.EncodeToString(t.Point.Hash)
	return json.Marshal(
		tipJSON{
			Slot:   &t.Point.Slot,
			ID:     &id,
			Height: &t.BlockNumber,
		},
	)
}

func (t *Tip) UnmarshalJSON(data []byte) error {
	var str string
	if err := json.Unmarshal(data, &str); err == nil {
		if str != originJSON {
			return fmt.Errorf("%w: unexpected string %q", ErrInvalidTip, str)
		}
		*t = NewTipOrigin()
		return nil
	}
	var tmp tipJSON
	if err := json.Unmarshal(data, &tmp); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidTip, err)
	}
	if tmp.Slot == nil || tmp.ID == nil || tmp.Height == nil {
		return fmt.Errorf("%w: slot, id and height are all required", ErrInvalidTip)
	}
	hash, err := hex.DecodeString(*tmp.ID)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidTip, err)
	}
	if len(hash) == 0 {
		return fmt.Errorf("%w: empty id", ErrInvalidTip)
	}
	*t = Tip{
		Point:       NewPoint(*tmp.Slot, hash),
		BlockNumber: *tmp.Height,
	}
	return nil
}

func (t Tip) String() string {
	if t.IsOrigin() {
		return originJSON
	}
	return fmt.Sprintf("%s (height %d)", t.Point, t.BlockNumber)
}
