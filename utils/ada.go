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

package utils

import (
	"encoding/hex"
	"fmt"
	"math"
)

// LovelacePerAda is the number of lovelace in one ADA
const LovelacePerAda = 1_000_000

// LovelaceToAda formats a lovelace amount as ADA with six decimal places
func LovelaceToAda(lovelace uint64) string {
	return fmt.Sprintf(
		"%d.%06d",
		lovelace/LovelacePerAda,
		lovelace%LovelacePerAda,
	)
}

// AdaToLovelace converts an ADA amount to lovelace, rounding to the nearest lovelace
func AdaToLovelace(ada float64) uint64 {
	if ada <= 0 {
		return 0
	}
	return uint64(math.Round(ada * LovelacePerAda))
}

// HexEncode returns the lowercase hex form of the provided bytes
func HexEncode(data []byte) string {
	return hex.EncodeToString(data)
}

// HexDecode decodes a hex string
func HexDecode(s string) ([]byte, error) {
	return hex.DecodeString(s)
}
