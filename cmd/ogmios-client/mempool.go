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
	"context"
	"fmt"
	"log/slog"

	ogmios "github.com/blinklabs-io/gogmios"
	"github.com/blinklabs-io/gogmios/protocol/mempool"
	"github.com/spf13/cobra"
)

func newMempoolCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "mempool",
		Short: "Show the mempool size and the transactions in it",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			txId, _ := cmd.Flags().GetString("has")
			return withConnection(
				cmd.Context(),
				ogmios.InteractionTypeLongRunning,
				func(ctx context.Context, ic *ogmios.InteractionContext, logger *slog.Logger) error {
					client := mempool.NewClient(ic, mempool.WithLogger(logger))
					defer func() {
						if err := client.Release(ctx); err != nil {
							logger.Debug(fmt.Sprintf("failed to release mempool: %s", err))
						}
					}()
					if txId != "" {
						found, err := client.HasTransaction(ctx, txId)
						if err != nil {
							return err
						}
						fmt.Printf("%s: in mempool = %t\n", txId, found)
						return nil
					}
					return listMempool(ctx, client)
				},
			)
		},
	}
	cmd.Flags().String("has", "", "only check whether the transaction with this ID is in the mempool")
	return cmd
}

func listMempool(ctx context.Context, client *mempool.Client) error {
	sizes, err := client.Sizes(ctx)
	if err != nil {
		return err
	}
	slot, _ := client.AcquiredSlot()
	fmt.Printf(
		"Mempool size/capacity (bytes): %d / %d, TXs: %d, slot: %d\n",
		sizes.CurrentSize,
		sizes.MaxCapacity,
		sizes.Transactions,
		slot,
	)
	fmt.Printf("Transactions:\n\n")
	for {
		txId, ok, err := client.NextTransactionId(ctx)
		if err != nil {
			return err
		}
		if !ok {
			break
		}
		fmt.Printf("%s\n", txId)
	}
	return nil
}
