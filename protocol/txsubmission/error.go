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

package txsubmission

import (
	"encoding/json"
	"errors"
	"fmt"
)

// Server error codes for submission and evaluation failures fall in this range
const (
	ErrorCodeRejectedMin = 3000
	ErrorCodeRejectedMax = 3999
)

var (
	ErrTransactionRejected   = errors.New("transaction rejected")
	ErrEvaluationFailed      = errors.New("transaction evaluation failed")
	ErrInvalidTransaction    = errors.New("invalid transaction CBOR")
	ErrTransactionIdMismatch = errors.New("transaction ID mismatch")
)

// TransactionRejectedError represents an explicit rejection of a transaction by the ledger
type TransactionRejectedError struct {
	Method  string
	Code    int
	Message string
	Data    json.RawMessage
}

func (e *TransactionRejectedError) Error() string {
	return fmt.Sprintf("%s: code %d: %s", e.sentinel(), e.Code, e.Message)
}

func (e *TransactionRejectedError) Is(target error) bool {
	return target == e.sentinel()
}

func (e *TransactionRejectedError) sentinel() error {
	if e.Method == MethodEvaluateTransaction {
		return ErrEvaluationFailed
	}
	return ErrTransactionRejected
}

// DecodeData decodes the error details into dest
func (e *TransactionRejectedError) DecodeData(dest any) error {
	if len(e.Data) == 0 {
		return errors.New("no error data")
	}
	return json.Unmarshal(e.Data, dest)
}
