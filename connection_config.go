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

import (
	"fmt"
	"net"
	"strconv"
)

const (
	DefaultHost       = "127.0.0.1"
	DefaultPort       = 1337
	DefaultMaxPayload = 128 * 1024 * 1024
)

// ConnectionConfig describes how to reach an Ogmios server
type ConnectionConfig struct {
	Host       string
	Port       uint16
	UseTLS     bool
	MaxPayload int64
}

// Addresses holds the HTTP and WebSocket URLs of a server
type Addresses struct {
	HTTP      string
	WebSocket string
}

// DefaultConnectionConfig returns the config for a server running locally on the default port
func DefaultConnectionConfig() ConnectionConfig {
	return ConnectionConfig{
		Host:       DefaultHost,
		Port:       DefaultPort,
		MaxPayload: DefaultMaxPayload,
	}
}

func (c ConnectionConfig) withDefaults() ConnectionConfig {
	if c.Host == "" {
		c.Host = DefaultHost
	}
	if c.Port == 0 {
		c.Port = DefaultPort
	}
	if c.MaxPayload == 0 {
		c.MaxPayload = DefaultMaxPayload
	}
	return c
}

// Addresses returns the HTTP and WebSocket URLs for the server. The pair is http/ws, or
// https/wss when UseTLS is set
func (c ConnectionConfig) Addresses() Addresses {
	c = c.withDefaults()
	hostPort := net.JoinHostPort(c.Host, strconv.FormatUint(uint64(c.Port), 10))
	if c.UseTLS {
		return Addresses{
			HTTP:      fmt.Sprintf("https://%s", hostPort),
			WebSocket: fmt.Sprintf("wss://%s", hostPort),
		}
	}
	return Addresses{
		HTTP:      fmt.Sprintf("http://%s", hostPort),
		WebSocket: fmt.Sprintf("ws://%s", hostPort),
	}
}
