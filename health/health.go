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

// Package health checks the readiness of an Ogmios server through its HTTP health endpoint
package health

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	ogmios "github.com/blinklabs-io/gogmios"
	"github.com/blinklabs-io/gogmios/protocol/common"
	"github.com/cenkalti/backoff"
)

// DefaultMinSynchronization is the network synchronization required by EnsureServerHealth
const DefaultMinSynchronization = 0.999

const healthPath = "/health"

var (
	ErrTimeout          = errors.New("timed out waiting for server to be ready")
	ErrUnexpectedStatus = errors.New("unexpected HTTP status")
)

// ServerNotReadyError is returned when the server is not synchronized enough
type ServerNotReadyError struct {
	Synchronization float64
	Minimum         float64
	Health          *ServerHealth
}

func (e *ServerNotReadyError) Error() string {
	return fmt.Sprintf(
		"server not ready: network synchronization is %.2f%%, minimum required is %.2f%%",
		e.Synchronization*100,
		e.Minimum*100,
	)
}

// ServerHealth is the health document served by Ogmios
type ServerHealth struct {
	CurrentEra             string        `json:"currentEra"`
	LastKnownTip           common.Tip    `json:"lastKnownTip"`
	LastTipUpdate          *time.Time    `json:"lastTipUpdate"`
	StartTime              time.Time     `json:"startTime"`
	Network                string        `json:"network"`
	NetworkSynchronization float64       `json:"networkSynchronization"`
	ConnectionStatus       string        `json:"connectionStatus,omitempty"`
	Version                string        `json:"version"`
	Metrics                ServerMetrics `json:"metrics"`
}

// NetworkInfo returns the predefined network matching the reported network name
func (h *ServerHealth) NetworkInfo() ogmios.Network {
	return ogmios.NetworkByName(h.Network)
}

// ServerMetrics holds the runtime counters reported by the server
type ServerMetrics struct {
	RuntimeStats      *RuntimeStats    `json:"runtimeStats,omitempty"`
	SessionDurations  SessionDurations `json:"sessionDurations"`
	TotalConnections  uint64           `json:"totalConnections"`
	TotalMessages     uint64           `json:"totalMessages"`
	TotalUnrouted     uint64           `json:"totalUnrouted"`
	ActiveConnections uint64           `json:"activeConnections"`
}

type RuntimeStats struct {
	GcCpuTime       float64 `json:"gcCpuTime"`
	CpuTime         float64 `json:"cpuTime"`
	MaxHeapSize     uint64  `json:"maxHeapSize"`
	CurrentHeapSize uint64  `json:"currentHeapSize"`
}

type SessionDurations struct {
	Max  float64 `json:"max"`
	Mean float64 `json:"mean"`
	Min  float64 `json:"min"`
}

// Config is used to configure the health checks
type Config struct {
	Logger             *slog.Logger
	HTTPClient         *http.Client
	MinSynchronization float64
}

// HealthOptionFunc represents a function used to modify the health check config
type HealthOptionFunc func(*Config)

// NewConfig returns a new health check config object with the provided options
func NewConfig(options ...HealthOptionFunc) Config {
	c := Config{
		MinSynchronization: DefaultMinSynchronization,
	}
	for _, option := range options {
		option(&c)
	}
	if c.Logger == nil {
		c.Logger = slog.New(slog.NewJSONHandler(io.Discard, nil))
	}
	if c.HTTPClient == nil {
		c.HTTPClient = http.DefaultClient
	}
	return c
}

// WithLogger specifies the logger
func WithLogger(logger *slog.Logger) HealthOptionFunc {
	return func(c *Config) {
		c.Logger = logger
	}
}

// WithHTTPClient specifies the HTTP client used to fetch the health document
func WithHTTPClient(client *http.Client) HealthOptionFunc {
	return func(c *Config) {
		c.HTTPClient = client
	}
}

// WithMinSynchronization specifies the network synchronization, between 0 and 1, at which the
// server is considered ready
func WithMinSynchronization(minSync float64) HealthOptionFunc {
	return func(c *Config) {
		c.MinSynchronization = minSync
	}
}

// GetServerHealth fetches the health document of the server
func GetServerHealth(
	ctx context.Context,
	connCfg ogmios.ConnectionConfig,
	options ...HealthOptionFunc,
) (*ServerHealth, error) {
	return getServerHealth(ctx, connCfg, NewConfig(options...))
}

func getServerHealth(
	ctx context.Context,
	connCfg ogmios.ConnectionConfig,
	cfg Config,
) (*ServerHealth, error) {
	url := connCfg.Addresses().HTTP + healthPath
	cfg.Logger.Debug(
		"fetching server health from "+url,
		"component", "health",
	)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, err
	}
	resp, err := cfg.HTTPClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch server health: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("%w: %s", ErrUnexpectedStatus, resp.Status)
	}
	var health ServerHealth
	if err := json.NewDecoder(resp.Body).Decode(&health); err != nil {
		return nil, fmt.Errorf("failed to decode server health: %w", err)
	}
	return &health, nil
}

// EnsureServerHealth fetches the health document and returns a ServerNotReadyError when the
// server is behind the minimum synchronization
func EnsureServerHealth(
	ctx context.Context,
	connCfg ogmios.ConnectionConfig,
	options ...HealthOptionFunc,
) (*ServerHealth, error) {
	cfg := NewConfig(options...)
	health, err := getServerHealth(ctx, connCfg, cfg)
	if err != nil {
		return nil, err
	}
	if health.NetworkSynchronization < cfg.MinSynchronization {
		return nil, &ServerNotReadyError{
			Synchronization: health.NetworkSynchronization,
			Minimum:         cfg.MinSynchronization,
			Health:          health,
		}
	}
	return health, nil
}

// WaitForServerReady polls the server until it reaches the minimum synchronization. The interval
// grows from pollInterval up to ten times its value. It returns ErrTimeout if the server is not
// ready within timeout
func WaitForServerReady(
	ctx context.Context,
	connCfg ogmios.ConnectionConfig,
	pollInterval time.Duration,
	timeout time.Duration,
	options ...HealthOptionFunc,
) (*ServerHealth, error) {
	cfg := NewConfig(options...)
	waitCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()
	expBackoff := backoff.NewExponentialBackOff()
	expBackoff.InitialInterval = pollInterval
	expBackoff.MaxInterval = pollInterval * 10
	expBackoff.MaxElapsedTime = timeout
	var health *ServerHealth
	err := backoff.RetryNotify(
		func() error {
			var err error
			health, err = EnsureServerHealth(waitCtx, connCfg, options...)
			return err
		},
		backoff.WithContext(expBackoff, waitCtx),
		func(err error, next time.Duration) {
			cfg.Logger.Debug(
				fmt.Sprintf("server not ready, retrying in %s: %s", next, err),
				"component", "health",
			)
		},
	)
	if err != nil {
		// Cancellation of the parent context is not a timeout
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		return nil, fmt.Errorf("%w after %s: %w", ErrTimeout, timeout, err)
	}
	return health, nil
}
