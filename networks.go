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

package ogmios

import "strings"

// Network definitions
var (
	NetworkMainnet = Network{
		Name:          "mainnet",
		NetworkMagic:  764824073,
		AddressPrefix: "addr",
		StakePrefix:   "stake",
	}
	NetworkPreprod = Network{
		Name:          "preprod",
		NetworkMagic:  1,
		AddressPrefix: "addr_test",
		StakePrefix:   "stake_test",
	}
	NetworkPreview = Network{
		Name:          "preview",
		NetworkMagic:  2,
		AddressPrefix: "addr_test",
		StakePrefix:   "stake_test",
	}
	NetworkSancho = Network{
		Name:          "sanchonet",
		NetworkMagic:  4,
		AddressPrefix: "addr_test",
		StakePrefix:   "stake_test",
	}

	NetworkInvalid = Network{
		Name: "invalid",
	} // NetworkInvalid is used as a return value for lookup functions when a network isn't found
)

// List of valid networks for use in lookup functions
var networks = []Network{
	NetworkMainnet,
	NetworkPreprod,
	NetworkPreview,
	NetworkSancho,
}

// NetworkByName returns a predefined network by name. Ogmios reports the network name
// in its health document
func NetworkByName(name string) Network {
	name = strings.ToLower(name)
	for _, network := range networks {
		if network.Name == name {
			return network
		}
	}
	return NetworkInvalid
}

// NetworkByNetworkMagic returns a predefined network by network magic
func NetworkByNetworkMagic(networkMagic uint32) Network {
	for _, network := range networks {
		if network.NetworkMagic == networkMagic {
			return network
		}
	}
	return NetworkInvalid
}

// Network represents a Cardano network
type Network struct {
	Name          string
	NetworkMagic  uint32
	AddressPrefix string // bech32 HRP for payment addresses
	StakePrefix   string // bech32 HRP for reward addresses
}

func (n Network) String() string {
	return n.Name
}

// IsValid returns whether the network is one of the predefined networks
func (n Network) IsValid() bool {
	return n.Name != NetworkInvalid.Name
}
