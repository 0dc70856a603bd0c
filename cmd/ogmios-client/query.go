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
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"

	ogmios "github.com/blinklabs-io/gogmios"
	"github.com/blinklabs-io/gogmios/protocol/common"
	"github.com/blinklabs-io/gogmios/protocol/ledgerstate"
	"github.com/blinklabs-io/gogmios/utils"
	"github.com/spf13/cobra"
)

func newLedgerStateClient(ic *ogmios.InteractionContext, logger *slog.Logger) *ledgerstate.Client {
	return ledgerstate.NewClient(
		ic,
		ledgerstate.WithLogger(logger),
		ledgerstate.WithNetwork(selectedNetwork()),
	)
}

func newTipCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "tip",
		Short: "Show the tip of the network and of the ledger",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withConnection(
				cmd.Context(),
				ogmios.InteractionTypeLongRunning,
				func(ctx context.Context, ic *ogmios.InteractionContext, logger *slog.Logger) error {
					client := newLedgerStateClient(ic, logger)
					networkTip, err := client.NetworkTip(ctx)
					if err != nil {
						return fmt.Errorf("failure querying network tip: %w", err)
					}
					ledgerTip, err := client.LedgerTip(ctx)
					if err != nil {
						return fmt.Errorf("failure querying ledger tip: %w", err)
					}
					epoch, err := client.Epoch(ctx)
					if err != nil {
						return fmt.Errorf("failure querying current epoch: %w", err)
					}
					fmt.Printf(
						"tip: epoch = %d, block_no = %d, slot = %d, hash = %x, ledger slot = %d\n",
						epoch,
						networkTip.BlockNumber,
						networkTip.Point.Slot,
						networkTip.Point.Hash,
						ledgerTip.Slot,
					)
					return nil
				},
			)
		},
	}
}

func newQueryCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "query <query> [args]",
		Short: "Query the ledger state or the network",
		Long: `Available queries:
  epoch
  era-start
  era-summaries
  protocol-params
  min-fee <tx size>
  block-height
  start-time
  genesis-config <byron|shelley|alonzo|conway>
  utxo`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			addresses, _ := cmd.Flags().GetStringSlice("address")
			outputRefs, _ := cmd.Flags().GetStringSlice("output-ref")
			return withConnection(
				cmd.Context(),
				ogmios.InteractionTypeLongRunning,
				func(ctx context.Context, ic *ogmios.InteractionContext, logger *slog.Logger) error {
					client := newLedgerStateClient(ic, logger)
					return runQuery(ctx, client, args, addresses, outputRefs)
				},
			)
		},
	}
	cmd.Flags().StringSlice("address", nil, "address to query UTxOs for (repeatable)")
	cmd.Flags().StringSlice("output-ref", nil, "output reference <tx id>#<index> to query (repeatable)")
	return cmd
}

func runQuery(
	ctx context.Context,
	client *ledgerstate.Client,
	args []string,
	addresses []string,
	outputRefs []string,
) error {
	var result any
	var err error
	switch args[0] {
	case "epoch":
		result, err = client.Epoch(ctx)
	case "era-start":
		result, err = client.EraStart(ctx)
	case "era-summaries":
		result, err = client.EraSummaries(ctx)
	case "protocol-params":
		result, err = client.ProtocolParameters(ctx)
	case "min-fee":
		if len(args) < 2 {
			return fmt.Errorf("you must specify a transaction size")
		}
		txSize, err := strconv.ParseUint(args[1], 10, 64)
		if err != nil {
			return fmt.Errorf("invalid transaction size: %w", err)
		}
		params, err := client.ProtocolParameters(ctx)
		if err != nil {
			return fmt.Errorf("failure querying protocol params: %w", err)
		}
		fee := params.MinFee(txSize)
		fmt.Printf("min-fee: %d lovelace (%s ADA)\n", fee, utils.LovelaceToAda(fee))
		return nil
	case "block-height":
		result, err = client.NetworkBlockHeight(ctx)
	case "start-time":
		result, err = client.NetworkStartTime(ctx)
	case "genesis-config":
		era := ledgerstate.GenesisShelley
		if len(args) > 1 {
			era = args[1]
		}
		result, err = client.GenesisConfiguration(ctx, era)
	case "utxo":
		result, err = queryUtxo(ctx, client, addresses, outputRefs)
	default:
		return fmt.Errorf("unknown query: %s", args[0])
	}
	if err != nil {
		return fmt.Errorf("failure querying %s: %w", args[0], err)
	}
	return printJSON(result)
}

func queryUtxo(
	ctx context.Context,
	client *ledgerstate.Client,
	addresses []string,
	outputRefs []string,
) ([]common.Utxo, error) {
	filter := ledgerstate.UtxoFilter{Addresses: addresses}
	for _, ref := range outputRefs {
		txId, idxStr, ok := strings.Cut(ref, "#")
		if !ok {
			return nil, fmt.Errorf("invalid output reference, expected <tx id>#<index>: %s", ref)
		}
		idx, err := strconv.ParseUint(idxStr, 10, 32)
		if err != nil {
			return nil, fmt.Errorf("invalid output reference index: %w", err)
		}
		filter.OutputReferences = append(
			filter.OutputReferences,
			common.NewTransactionOutputReference(txId, uint32(idx)),
		)
	}
	return client.Utxo(ctx, filter)
}

func printJSON(v any) error {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
