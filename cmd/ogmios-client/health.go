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

package main

import (
	"fmt"
	"time"

	"github.com/blinklabs-io/gogmios/health"
	"github.com/spf13/cobra"
)

func newHealthCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "health",
		Short: "Show the health of the server",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			wait, _ := cmd.Flags().GetBool("wait")
			pollInterval, _ := cmd.Flags().GetDuration("poll-interval")
			timeout, _ := cmd.Flags().GetDuration("timeout")
			minSync, _ := cmd.Flags().GetFloat64("min-sync")
			opts := []health.HealthOptionFunc{
				health.WithLogger(newLogger()),
				health.WithMinSynchronization(minSync),
			}
			var h *health.ServerHealth
			var err error
			if wait {
				h, err = health.WaitForServerReady(
					cmd.Context(),
					connectionConfig(),
					pollInterval,
					timeout,
					opts...,
				)
			} else {
				h, err = health.GetServerHealth(cmd.Context(), connectionConfig(), opts...)
			}
			if err != nil {
				return err
			}
			fmt.Printf(
				"network = %s, era = %s, synchronization = %.2f%%, tip = %s, version = %s, connection = %s\n",
				h.Network,
				h.CurrentEra,
				h.NetworkSynchronization*100,
				h.LastKnownTip,
				h.Version,
				h.ConnectionStatus,
			)
			return nil
		},
	}
	cmd.Flags().Bool("wait", false, "wait until the server is synchronized")
	cmd.Flags().Duration("poll-interval", 5*time.Second, "initial interval between health checks when waiting")
	cmd.Flags().Duration("timeout", 10*time.Minute, "maximum time to wait")
	cmd.Flags().Float64(
		"min-sync",
		health.DefaultMinSynchronization,
		"network synchronization, between 0 and 1, at which the server is ready",
	)
	return cmd
}
