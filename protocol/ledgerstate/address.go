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
	"fmt"
	"strings"

	ogmios "github.com/blinklabs-io/gogmios"
	"github.com/btcsuite/btcd/btcutil/bech32"
)

// ValidateAddress checks that a bech32 address belongs to the network. Mixed case addresses are
// assumed to be base58 Byron addresses and are not checked
func ValidateAddress(addr string, network ogmios.Network) error {
	if addr == "" {
		return fmt.Errorf("%w: empty address", ErrInvalidAddress)
	}
	if strings.ToLower(addr) != addr {
		return nil
	}
	hrp, data, err := bech32.DecodeNoLimit(addr)
	if err != nil {
		return fmt.Errorf("%w: %s: %w", ErrInvalidAddress, addr, err)
	}
	if _, err := bech32.ConvertBits(data, 5, 8, false); err != nil {
		return fmt.Errorf("%w: %s: %w", ErrInvalidAddress, addr, err)
	}
	if network.AddressPrefix == "" {
		return nil
	}
	if hrp != network.AddressPrefix {
		return fmt.Errorf(
			"%w: %s: prefix %q does not match network %s",
			ErrInvalidAddress,
			addr,
			hrp,
			network,
		)
	}
	return nil
}
