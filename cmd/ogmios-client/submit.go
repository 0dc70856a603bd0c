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
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strings"

	ogmios "github.com/blinklabs-io/gogmios"
	"github.com/blinklabs-io/gogmios/protocol/txsubmission"
	"github.com/spf13/cobra"
)

func newSubmitCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "submit [tx hex]",
		Short: "Submit or evaluate a signed transaction",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			txFile, _ := cmd.Flags().GetString("tx-file")
			rawTxFile, _ := cmd.Flags().GetString("raw-tx-file")
			evaluate, _ := cmd.Flags().GetBool("evaluate")
			noVerify, _ := cmd.Flags().GetBool("no-verify-id")
			txBytes, err := loadTransaction(args, txFile, rawTxFile)
			if err != nil {
				return err
			}
			txId, err := txsubmission.TransactionID(txBytes)
			if err != nil {
				return fmt.Errorf("could not parse transaction: %w", err)
			}
			return withConnection(
				cmd.Context(),
				ogmios.InteractionTypeOneTime,
				func(ctx context.Context, ic *ogmios.InteractionContext, logger *slog.Logger) error {
					client := txsubmission.NewClient(
						ic,
						txsubmission.WithLogger(logger),
						txsubmission.WithVerifyTransactionId(!noVerify),
					)
					if evaluate {
						return evaluateTransaction(ctx, client, txId, txBytes)
					}
					return submitTransaction(ctx, client, txId, txBytes)
				},
			)
		},
	}
	cmd.Flags().String("tx-file", "", "path to the JSON transaction file to submit")
	cmd.Flags().String("raw-tx-file", "", "path to the raw transaction file to submit")
	cmd.Flags().Bool("evaluate", false, "evaluate the scripts of the transaction instead of submitting it")
	cmd.Flags().Bool("no-verify-id", false, "do not compare the returned transaction ID with the local one")
	return cmd
}

// Load the transaction CBOR from a hex argument, a JSON envelope with a cborHex field or a raw file
func loadTransaction(args []string, txFile string, rawTxFile string) ([]byte, error) {
	switch {
	case len(args) > 0:
		return hex.DecodeString(strings.TrimSpace(args[0]))
	case txFile != "":
		txData, err := os.ReadFile(txFile)
		if err != nil {
			return nil, fmt.Errorf("failed to load transaction file: %w", err)
		}
		var jsonData map[string]any
		if err := json.Unmarshal(txData, &jsonData); err != nil {
			return nil, fmt.Errorf("failed to parse transaction file: %w", err)
		}
		cborHex, ok := jsonData["cborHex"].(string)
		if !ok {
			return nil, errors.New("transaction file has no cborHex field")
		}
		txBytes, err := hex.DecodeString(cborHex)
		if err != nil {
			return nil, fmt.Errorf("failed to decode transaction: %w", err)
		}
		return txBytes, nil
	case rawTxFile != "":
		txBytes, err := os.ReadFile(rawTxFile)
		if err != nil {
			return nil, fmt.Errorf("failed to load transaction file: %w", err)
		}
		return txBytes, nil
	}
	return nil, errors.New("you must specify a transaction, --tx-file or --raw-tx-file")
}

func submitTransaction(
	ctx context.Context,
	client *txsubmission.Client,
	txId string,
	txBytes []byte,
) error {
	fmt.Printf("Submitting TX %s\n", txId)
	serverTxId, err := client.SubmitTransaction(ctx, txBytes)
	if err != nil {
		var rejected *txsubmission.TransactionRejectedError
		if errors.As(err, &rejected) && len(rejected.Data) > 0 {
			fmt.Printf("Rejection details: %s\n", rejected.Data)
		}
		return err
	}
	fmt.Printf("Successfully sent transaction %s\n", serverTxId)
	return nil
}

func evaluateTransaction(
	ctx context.Context,
	client *txsubmission.Client,
	txId string,
	txBytes []byte,
) error {
	fmt.Printf("Evaluating TX %s\n", txId)
	results, err := client.EvaluateTransaction(ctx, txBytes, nil)
	if err != nil {
		return err
	}
	for _, result := range results {
		fmt.Printf(
			"validator = %s, memory = %d, cpu = %d\n",
			result.Validator,
			result.Budget.Memory,
			result.Budget.Cpu,
		)
	}
	total := txsubmission.TotalBudget(results)
	fmt.Printf("total: memory = %d, cpu = %d\n", total.Memory, total.Cpu)
	return nil
}
