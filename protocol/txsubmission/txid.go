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
	"encoding/hex"
	"fmt"

	"github.com/blinklabs-io/gogmios/cbor"
	"golang.org/x/crypto/blake2b"
)

// TransactionID returns the hex ID of a transaction, which is the blake2b-256 hash of the
// original bytes of its body
func TransactionID(txCbor []byte) (string, error) {
	count, err := cbor.ListLength(txCbor)
	if err != nil {
		return "", fmt.Errorf("%w: %w", ErrInvalidTransaction, err)
	}
	if count == 0 {
		return "", fmt.Errorf("%w: empty transaction", ErrInvalidTransaction)
	}
	var items []cbor.RawMessage
	if _, err := cbor.Decode(txCbor, &items); err != nil {
		return "", fmt.Errorf("%w: %w", ErrInvalidTransaction, err)
	}
	body := items[0]
	if len(body) == 0 || body[0]&cbor.CborTypeMask != cbor.CborTypeMap {
		return "", fmt.Errorf("%w: transaction body is not a map", ErrInvalidTransaction)
	}
	hash := blake2b.Sum256(body)
	return hex.EncodeToString(hash[:]), nil
}
