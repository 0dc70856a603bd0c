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
	"context"
	"sync"

	"github.com/blinklabs-io/gogmios/protocol/common"
	"github.com/jinzhu/copier"
)

// Handler receives chain events in the order the server emits them. A returned error stops
// the sync, and the client reports it from Err
type Handler interface {
	RollForward(ctx context.Context, block common.Block, tip common.Tip) error
	RollBackward(ctx context.Context, point common.Point, tip common.Tip) error
}

// Callback function types
type RollForwardFunc func(context.Context, common.Block, common.Tip) error
type RollBackwardFunc func(context.Context, common.Point, common.Tip) error

// HandlerFuncs adapts a pair of functions to the Handler interface. Events without a function
// are ignored
type HandlerFuncs struct {
	RollForwardFunc  RollForwardFunc
	RollBackwardFunc RollBackwardFunc
}

func (h HandlerFuncs) RollForward(ctx context.Context, block common.Block, tip common.Tip) error {
	if h.RollForwardFunc == nil {
		return nil
	}
	return h.RollForwardFunc(ctx, block, tip)
}

func (h HandlerFuncs) RollBackward(ctx context.Context, point common.Point, tip common.Tip) error {
	if h.RollBackwardFunc == nil {
		return nil
	}
	return h.RollBackwardFunc(ctx, point, tip)
}

// CollectingHandler buffers blocks and rollback points. When MaxBlocks is set, it returns
// ErrStopSyncProcess once that many blocks have been collected
type CollectingHandler struct {
	MaxBlocks int
	mutex     sync.Mutex
	blocks    []common.Block
	rollbacks []common.Point
}

// NewCollectingHandler returns a CollectingHandler which stops after maxBlocks blocks. Zero means no limit
func NewCollectingHandler(maxBlocks int) *CollectingHandler {
	return &CollectingHandler{
		MaxBlocks: maxBlocks,
	}
}

func (h *CollectingHandler) RollForward(_ context.Context, block common.Block, _ common.Tip) error {
	h.mutex.Lock()
	defer h.mutex.Unlock()
	h.blocks = append(h.blocks, block)
	if h.MaxBlocks > 0 && len(h.blocks) >= h.MaxBlocks {
		return ErrStopSyncProcess
	}
	return nil
}

func (h *CollectingHandler) RollBackward(_ context.Context, point common.Point, _ common.Tip) error {
	h.mutex.Lock()
	defer h.mutex.Unlock()
	h.rollbacks = append(h.rollbacks, point)
	return nil
}

// IsComplete returns whether MaxBlocks blocks have been collected
func (h *CollectingHandler) IsComplete() bool {
	h.mutex.Lock()
	defer h.mutex.Unlock()
	return h.MaxBlocks > 0 && len(h.blocks) >= h.MaxBlocks
}

// Blocks returns a copy of the collected blocks
func (h *CollectingHandler) Blocks() ([]common.Block, error) {
	h.mutex.Lock()
	defer h.mutex.Unlock()
	var ret []common.Block
	if err := copier.CopyWithOption(&ret, &h.blocks, copier.Option{DeepCopy: true}); err != nil {
		return nil, err
	}
	return ret, nil
}

// Rollbacks returns a copy of the collected rollback points
func (h *CollectingHandler) Rollbacks() ([]common.Point, error) {
	h.mutex.Lock()
	defer h.mutex.Unlock()
	var ret []common.Point
	if err := copier.CopyWithOption(&ret, &h.rollbacks, copier.Option{DeepCopy: true}); err != nil {
		return nil, err
	}
	return ret, nil
}
