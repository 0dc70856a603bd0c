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

package chainsync

import (
	"encoding/json"
	"fmt"

	"github.com/blinklabs-io/gogmios/protocol/common"
)

type findIntersectionParams struct {
	Points []common.Point `json:"points"`
}

type findIntersectionResult struct {
	Intersection *common.Point `json:"intersection"`
	Tip          *common.Tip   `json:"tip"`
}

type intersectionNotFoundData struct {
	Tip *common.Tip `json:"tip"`
}

// ChainEvent is a RollForwardEvent or a RollBackwardEvent
type ChainEvent interface {
	Direction() string
	isChainEvent()
}

// RollForwardEvent carries the next block on the chain
type RollForwardEvent struct {
	Block common.Block
	Tip   common.Tip
}

func (RollForwardEvent) Direction() string {
	return DirectionForward
}

func (RollForwardEvent) isChainEvent() {}

func (e RollForwardEvent) MarshalJSON() ([]byte, error) {
	return json.Marshal(
		chainEventJSON{
			Direction: DirectionForward,
			Block:     &e.Block,
			Tip:       &e.Tip,
		},
	)
}

// RollBackwardEvent asks the client to discard every block after Point
type RollBackwardEvent struct {
	Point common.Point
	Tip   common.Tip
}

func (RollBackwardEvent) Direction() string {
	return DirectionBackward
}

func (RollBackwardEvent) isChainEvent() {}

func (e RollBackwardEvent) MarshalJSON() ([]byte, error) {
	return json.Marshal(
		chainEventJSON{
			Direction: DirectionBackward,
			Point:     &e.Point,
			Tip:       &e.Tip,
		},
	)
}

type chainEventJSON struct {
	Direction string        `json:"direction"`
	Block     *common.Block `json:"block,omitempty"`
	Point     *common.Point `json:"point,omitempty"`
	Tip       *common.Tip   `json:"tip"`
}

// DecodeChainEvent decodes a nextBlock result
func DecodeChainEvent(data []byte) (ChainEvent, error) {
	var tmp chainEventJSON
	if err := json.Unmarshal(data, &tmp); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidChainEvent, err)
	}
	if tmp.Tip == nil {
		return nil, fmt.Errorf("%w: missing tip", ErrInvalidChainEvent)
	}
	switch tmp.Direction {
	case DirectionForward:
		if tmp.Block == nil {
			return nil, fmt.Errorf("%w: missing block", ErrInvalidChainEvent)
		}
		return RollForwardEvent{Block: *tmp.Block, Tip: *tmp.Tip}, nil
	case DirectionBackward:
		if tmp.Point == nil {
			return nil, fmt.Errorf("%w: missing point", ErrInvalidChainEvent)
		}
		return RollBackwardEvent{Point: *tmp.Point, Tip: *tmp.Tip}, nil
	default:
		return nil, fmt.Errorf("%w: unknown direction %q", ErrInvalidChainEvent, tmp.Direction)
	}
}
