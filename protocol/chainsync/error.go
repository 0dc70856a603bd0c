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
	"errors"
	"fmt"

	"github.com/blinklabs-io/gogmios/protocol/common"
)

// Error code used by the server when none of the requested points are on its chain
const ErrorCodeIntersectionNotFound = 1000

var (
	ErrIntersectNotFound = errors.New("chain intersection not found")

	// ErrStopSyncProcess is used as a special return value from a RollForward or RollBackward
	// handler function to signify that the sync process should be stopped
	ErrStopSyncProcess = errors.New("stop sync process")

	ErrAlreadyRunning = errors.New("chain sync is already running")
	ErrNoPoints       = errors.New("no points provided")

	ErrInvalidChainEvent = errors.New("invalid chain event")
)

// IntersectionNotFoundError carries the server tip observed when no intersection was found
type IntersectionNotFoundError struct {
	Tip common.Tip
}

func (e *IntersectionNotFoundError) Error() string {
	return fmt.Sprintf("%s (tip: %s)", ErrIntersectNotFound, e.Tip)
}

func (e *IntersectionNotFoundError) Is(target error) bool {
	return target == ErrIntersectNotFound
}
