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
	"context"
	"encoding/hex"
	"errors"
	"fmt"

	ogmios "github.com/blinklabs-io/gogmios"
	"github.com/blinklabs-io/gogmios/protocol/common"
	"github.com/google/uuid"
)

// Client implements the transaction submission client
type Client struct {
	ic           ogmios.Interaction
	config       Config
	connectionId string
}

// NewClient returns a new transaction submission client which issues requests over ic
func NewClient(ic ogmios.Interaction, options ...TxSubmissionOptionFunc) *Client {
	c := &Client{
		ic:     ic,
		config: NewConfig(options...),
	}
	if tmp, ok := ic.(interface{ ConnectionId() uuid.UUID }); ok {
		c.connectionId = tmp.ConnectionId().String()
	}
	return c
}

// SubmitTransaction submits a signed transaction and returns its ID
func (c *Client) SubmitTransaction(ctx context.Context, txCbor []byte) (string, error) {
	var localId string
	if c.config.VerifyTransactionId {
		var err error
		if localId, err = TransactionID(txCbor); err != nil {
			return "", err
		}
	}
	c.config.Logger.Debug(
		fmt.Sprintf("calling SubmitTransaction(txId: %s, size: %d)", localId, len(txCbor)),
		"component", "network",
		"protocol", ProtocolName,
		"role", "client",
		"connection_id", c.connectionId,
	)
	result, err := ogmios.Request[submitResult](
		ctx,
		c.ic,
		MethodSubmitTransaction,
		submitParams{Transaction: transactionCbor{Cbor: hex.EncodeToString(txCbor)}},
	)
	if err != nil {
		return "", rejectionError(MethodSubmitTransaction, err)
	}
	txId := result.Transaction.ID
	if localId != "" && txId != localId {
		return txId, fmt.Errorf("%w: submitted %s, server reported %s", ErrTransactionIdMismatch, localId, txId)
	}
	return txId, nil
}

// SubmitTransactionHex submits a hex encoded signed transaction and returns its ID
func (c *Client) SubmitTransactionHex(ctx context.Context, txHex string) (string, error) {
	txCbor, err := hex.DecodeString(txHex)
	if err != nil {
		return "", fmt.Errorf("%w: %w", ErrInvalidTransaction, err)
	}
	return c.SubmitTransaction(ctx, txCbor)
}

// EvaluateTransaction returns the execution budgets of the scripts in a transaction. The
// additional UTxO are used to resolve inputs not yet on chain
func (c *Client) EvaluateTransaction(
	ctx context.Context,
	txCbor []byte,
	additionalUtxo []common.Utxo,
) ([]EvaluationResult, error) {
	c.config.Logger.Debug(
		fmt.Sprintf("calling EvaluateTransaction(size: %d, additionalUtxo: %d)", len(txCbor), len(additionalUtxo)),
		"component", "network",
		"protocol", ProtocolName,
		"role", "client",
		"connection_id", c.connectionId,
	)
	results, err := ogmios.Request[[]EvaluationResult](
		ctx,
		c.ic,
		MethodEvaluateTransaction,
		evaluateParams{
			Transaction:    transactionCbor{Cbor: hex.EncodeToString(txCbor)},
			AdditionalUtxo: additionalUtxo,
		},
	)
	if err != nil {
		return nil, rejectionError(MethodEvaluateTransaction, err)
	}
	return results, nil
}

func rejectionError(method string, err error) error {
	var rpcErr *ogmios.RPCError
	if errors.As(err, &rpcErr) &&
		rpcErr.Code >= ErrorCodeRejectedMin &&
		rpcErr.Code <= ErrorCodeRejectedMax {
		return &TransactionRejectedError{
			Method:  method,
			Code:    rpcErr.Code,
			Message: rpcErr.Message,
			Data:    rpcErr.Data,
		}
	}
	return err
}
