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

// Package utils contains small helpers shared by the other packages
package utils

import (
	"sync"
)

// DoneSignal is a channel which can be closed safely from multiple goroutines
type DoneSignal struct {
	closeCh chan struct{}
	once    sync.Once
}

func NewDoneSignal() *DoneSignal {
	return &DoneSignal{
		closeCh: make(chan struct{}),
	}
}

// Close closes the underlying channel. Calls after the first are no-ops
func (cn *DoneSignal) Close() {
	cn.once.Do(func() {
		close(cn.closeCh)
	})
}

func (cn *DoneSignal) GetCh() <-chan struct{} {
	return cn.closeCh
}

// IsClosed returns whether Close has been called
func (cn *DoneSignal) IsClosed() bool {
	select {
	case <-cn.closeCh:
		return true
	default:
		return false
	}
}
