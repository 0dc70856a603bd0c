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

// Package checkpoint keeps track of the most recent points processed by a chain-sync client, so
// that syncing can resume where it left off
package checkpoint

import (
	"errors"
	"sync"

	"github.com/blinklabs-io/gogmios/protocol/common"
)

const DefaultDepth = 10

var ErrInvalidDepth = errors.New("checkpoint depth must be at least 1")

// Store records processed points. Points returns the most recent point first, which is the
// order expected when resuming a sync
type Store interface {
	Points() ([]common.Point, error)
	Advance(point common.Point) error
	Rollback(point common.Point) error
}

// MemoryStore keeps the most recent points in memory
type MemoryStore struct {
	mutex  sync.Mutex
	depth  int
	points []common.Point // oldest first
}

// NewMemoryStore returns a store which keeps up to depth points. A depth of zero uses DefaultDepth
func NewMemoryStore(depth int) (*MemoryStore, error) {
	if depth == 0 {
		depth = DefaultDepth
	}
	if depth < 0 {
		return nil, ErrInvalidDepth
	}
	return &MemoryStore{depth: depth}, nil
}

func (s *MemoryStore) Points() ([]common.Point, error) {
	s.mutex.Lock()
	defer s.mutex.Unlock()
	return s.pointsLocked(), nil
}

func (s *MemoryStore) Advance(point common.Point) error {
	s.mutex.Lock()
	defer s.mutex.Unlock()
	s.advanceLocked(point)
	return nil
}

// Rollback discards every point after the specified one. The rollback target becomes the most
// recent point
func (s *MemoryStore) Rollback(point common.Point) error {
	s.mutex.Lock()
	defer s.mutex.Unlock()
	s.rollbackLocked(point)
	return nil
}

func (s *MemoryStore) pointsLocked() []common.Point {
	ret := make([]common.Point, 0, len(s.points))
	for i := len(s.points) - 1; i >= 0; i-- {
		ret = append(ret, s.points[i])
	}
	return ret
}

func (s *MemoryStore) advanceLocked(point common.Point) {
	s.points = append(s.points, point)
	if len(s.points) > s.depth {
		s.points = s.points[len(s.points)-s.depth:]
	}
}

func (s *MemoryStore) rollbackLocked(point common.Point) {
	if point.IsOrigin() {
		s.points = nil
		return
	}
	idx := len(s.points)
	for idx > 0 && s.points[idx-1].Slot > point.Slot {
		idx--
	}
	s.points = s.points[:idx]
	if idx == 0 || !s.points[idx-1].Equal(point) {
		s.advanceLocked(point)
	}
}

func (s *MemoryStore) setLocked(points []common.Point) {
	s.points = nil
	// Stored points are most recent first
	for i := len(points) - 1; i >= 0; i-- {
		s.advanceLocked(points[i])
	}
}
