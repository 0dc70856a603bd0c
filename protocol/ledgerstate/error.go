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

package ledgerstate

import (
	"errors"
	"fmt"
	"strings"
)

// ErrorCodeAcquireFailure is returned by the server when a point cannot be acquired
const ErrorCodeAcquireFailure = 2000

var (
	ErrAcquireFailure                = errors.New("acquire failure")
	ErrAcquireFailurePointTooOld     = errors.New("acquire failure: point too old")
	ErrAcquireFailurePointNotOnChain = errors.New(
		"acquire failure: point not on chain",
	)
	ErrInvalidAddress = errors.New("invalid address")
	ErrNoFilter       = errors.New("empty query filter")
)

// AcquireError is returned when acquiring a ledger state fails
type AcquireError struct {
	Reason  string
	Message string
}

func (e *AcquireError) Error() string {
	if e.Reason == "" {
		return fmt.Sprintf("%s: %s", ErrAcquireFailure, e.Message)
	}
	return fmt.Sprintf("%s: %s (%s)", ErrAcquireFailure, e.Message, e.Reason)
}

func (e *AcquireError) Is(target error) bool {
	reason := strings.ToLower(e.Reason)
	switch target {
	case ErrAcquireFailure:
		return true
	case ErrAcquireFailurePointTooOld:
		return strings.Contains(reason, "tooold")
	case ErrAcquireFailurePointNotOnChain:
		return strings.Contains(reason, "notonchain")
	}
	return false
}
