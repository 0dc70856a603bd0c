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

package txsubmission_test

import (
	"context"
	"encoding/hex"
	"errors"
	"testing"
	"time"

	ogmios "github.com/blinklabs-io/gogmios"
	"github.com/blinklabs-io/gogmios/cbor"
	"github.com/blinklabs-io/gogmios/internal/test"
	"github.com/blinklabs-io/gogmios/internal/test/ogmios_mock"
	"github.com/blinklabs-io/gogmios/protocol/common"
	"github.com/blinklabs-io/gogmios/protocol/txsubmission"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
	"golang.org/x/crypto/blake2b"
)

type testInnerFunc func(*testing.T, *txsubmission.Client)

func runTest(
	t *testing.T,
	conversation []ogmios_mock.ConversationEntry,
	innerFunc testInnerFunc,
	options ...txsubmission.TxSubmissionOptionFunc,
) {
	defer goleak.VerifyNone(t)
	server := ogmios_mock.NewServer(conversation)
	defer server.Close()
	ic, err := ogmios.NewInteractionContext(
		context.Background(),
		ogmios.WithConnectionConfig(
			ogmios.ConnectionConfig{
				Host: server.Host(),
				Port: server.Port(),
			},
		),
	)
	if err != nil {
		t.Fatalf("unexpected error when creating interaction context: %s", err)
	}
	defer func() {
		_ = ic.Shutdown()
	}()
	innerFunc(t, txsubmission.NewClient(ic, options...))
	select {
	case err, ok := <-server.ErrorChan():
		if ok && err != nil {
			t.Fatalf("received unexpected error from mock server: %s", err)
		}
	case <-time.After(2 * time.Second):
		t.Fatalf("did not complete conversation within timeout")
	}
}

// buildTx returns a minimal transaction and the expected ID
func buildTx(t *testing.T) ([]byte, string) {
	t.Helper()
	body := map[uint64]any{
		0: []any{[]any{test.BlockHash(1), uint64(0)}},
		1: []any{[]any{test.BlockHash(2)[:29], uint64(1_000_000)}},
		2: uint64(170_000),
	}
	bodyCbor, err := cbor.Encode(body)
	require.NoError(t, err)
	txCbor, err := cbor.Encode([]any{cbor.RawMessage(bodyCbor), map[uint64]any{}, true, nil})
	require.NoError(t, err)
	hash := blake2b.Sum256(bodyCbor)
	return txCbor, hex.EncodeToString(hash[:])
}

func TestTransactionID(t *testing.T) {
	txCbor, expected := buildTx(t)
	txId, err := txsubmission.TransactionID(txCbor)
	require.NoError(t, err)
	if txId != expected {
		t.Fatalf("did not get expected transaction ID\n  got:    %s\n  wanted: %s", txId, expected)
	}
}

func TestTransactionIDInvalid(t *testing.T) {
	testDefs := []struct {
		name string
		data []byte
	}{
		{name: "not cbor", data: []byte{0xff}},
		{name: "not a list", data: test.DecodeHexString("01")},
		{name: "empty list", data: test.DecodeHexString("80")},
		{name: "body not a map", data: test.DecodeHexString("820102")},
	}
	for _, testDef := range testDefs {
		t.Run(testDef.name, func(t *testing.T) {
			_, err := txsubmission.TransactionID(testDef.data)
			assert.ErrorIs(t, err, txsubmission.ErrInvalidTransaction)
		})
	}
}

func TestSubmitTransaction(t *testing.T) {
	txCbor, txId := buildTx(t)
	runTest(
		t,
		[]ogmios_mock.ConversationEntry{
			ogmios_mock.ConversationEntryInputParams(
				"submitTransaction",
				map[string]any{"transaction": map[string]any{"cbor": hex.EncodeToString(txCbor)}},
			),
			ogmios_mock.ConversationEntryResult(map[string]any{"transaction": map[string]any{"id": txId}}),
		},
		func(t *testing.T, client *txsubmission.Client) {
			submitted, err := client.SubmitTransactionHex(context.Background(), hex.EncodeToString(txCbor))
			require.NoError(t, err)
			assert.Equal(t, txId, submitted)
		},
	)
}

func TestSubmitTransactionIdMismatch(t *testing.T) {
	txCbor, _ := buildTx(t)
	otherId := hex.EncodeToString(test.BlockHash(99))
	runTest(
		t,
		[]ogmios_mock.ConversationEntry{
			ogmios_mock.ConversationEntryInput("submitTransaction"),
			ogmios_mock.ConversationEntryResult(map[string]any{"transaction": map[string]any{"id": otherId}}),
		},
		func(t *testing.T, client *txsubmission.Client) {
			submitted, err := client.SubmitTransaction(context.Background(), txCbor)
			assert.ErrorIs(t, err, txsubmission.ErrTransactionIdMismatch)
			assert.Equal(t, otherId, submitted)
		},
	)
}

func TestSubmitTransactionNoVerify(t *testing.T) {
	otherId := hex.EncodeToString(test.BlockHash(99))
	runTest(
		t,
		[]ogmios_mock.ConversationEntry{
			ogmios_mock.ConversationEntryInput("submitTransaction"),
			ogmios_mock.ConversationEntryResult(map[string]any{"transaction": map[string]any{"id": otherId}}),
		},
		func(t *testing.T, client *txsubmission.Client) {
			// Not valid CBOR, but the server decides
			submitted, err := client.SubmitTransaction(context.Background(), []byte{0x01, 0x02})
			require.NoError(t, err)
			assert.Equal(t, otherId, submitted)
		},
		txsubmission.WithVerifyTransactionId(false),
	)
}

func TestSubmitTransactionRejected(t *testing.T) {
	txCbor, _ := buildTx(t)
	runTest(
		t,
		[]ogmios_mock.ConversationEntry{
			ogmios_mock.ConversationEntryInput("submitTransaction"),
			ogmios_mock.ConversationEntryError(
				3117,
				"The transaction contains unknown UTxO references as inputs.",
				map[string]any{"unknownOutputReferences": []any{}},
			),
		},
		func(t *testing.T, client *txsubmission.Client) {
			_, err := client.SubmitTransaction(context.Background(), txCbor)
			if !errors.Is(err, txsubmission.ErrTransactionRejected) {
				t.Fatalf("did not get expected error\n  got:    %v\n  wanted: %s", err, txsubmission.ErrTransactionRejected)
			}
			assert.NotErrorIs(t, err, txsubmission.ErrEvaluationFailed)
			var rejected *txsubmission.TransactionRejectedError
			require.ErrorAs(t, err, &rejected)
			assert.Equal(t, 3117, rejected.Code)
			var data map[string]any
			require.NoError(t, rejected.DecodeData(&data))
			assert.Contains(t, data, "unknownOutputReferences")
		},
	)
}

func TestSubmitTransactionOtherError(t *testing.T) {
	txCbor, _ := buildTx(t)
	runTest(
		t,
		[]ogmios_mock.ConversationEntry{
			ogmios_mock.ConversationEntryInput("submitTransaction"),
			ogmios_mock.ConversationEntryError(-32602, "Invalid params", nil),
		},
		func(t *testing.T, client *txsubmission.Client) {
			_, err := client.SubmitTransaction(context.Background(), txCbor)
			var rpcErr *ogmios.RPCError
			require.ErrorAs(t, err, &rpcErr)
			assert.Equal(t, -32602, rpcErr.Code)
			assert.NotErrorIs(t, err, txsubmission.ErrTransactionRejected)
		},
	)
}

func TestEvaluateTransaction(t *testing.T) {
	txCbor, _ := buildTx(t)
	utxo := common.Utxo{
		TransactionOutputReference: common.NewTransactionOutputReference(hex.EncodeToString(test.BlockHash(1)), 0),
		TransactionOutput: common.TransactionOutput{
			Address: "addr_test1vz09v9yfxguvlp0zsnrpa3tdtm7el8xufp3m5lsm7qxzclgmzkket",
			Value:   common.Value{Lovelace: 5_000_000},
		},
	}
	runTest(
		t,
		[]ogmios_mock.ConversationEntry{
			ogmios_mock.ConversationEntryInputParams(
				"evaluateTransaction",
				map[string]any{
					"transaction": map[string]any{"cbor": hex.EncodeToString(txCbor)},
					"additionalUtxo": []any{
						map[string]any{
							"transaction": map[string]any{"id": hex.EncodeToString(test.BlockHash(1))},
							"index":       0,
							"address":     "addr_test1vz09v9yfxguvlp0zsnrpa3tdtm7el8xufp3m5lsm7qxzclgmzkket",
							"value":       map[string]any{"ada": map[string]any{"lovelace": 5000000}},
						},
					},
				},
			),
			ogmios_mock.ConversationEntryResult(
				[]any{
					map[string]any{
						"validator": map[string]any{"purpose": "spend", "index": 0},
						"budget":    map[string]any{"memory": 1700, "cpu": 476468},
					},
					map[string]any{
						"validator": "mint:1",
						"budget":    map[string]any{"memory": 300, "cpu": 1000},
					},
				},
			),
		},
		func(t *testing.T, client *txsubmission.Client) {
			results, err := client.EvaluateTransaction(context.Background(), txCbor, []common.Utxo{utxo})
			require.NoError(t, err)
			require.Len(t, results, 2)
			assert.Equal(t, "spend:0", results[0].Validator.String())
			assert.Equal(t, txsubmission.Validator{Purpose: txsubmission.PurposeMint, Index: 1}, results[1].Validator)
			assert.Equal(t, txsubmission.ExUnits{Memory: 2000, Cpu: 477468}, txsubmission.TotalBudget(results))
		},
	)
}

func TestEvaluateTransactionFailure(t *testing.T) {
	txCbor, _ := buildTx(t)
	runTest(
		t,
		[]ogmios_mock.ConversationEntry{
			ogmios_mock.ConversationEntryInput("evaluateTransaction"),
			ogmios_mock.ConversationEntryError(3010, "Some scripts of the transactions terminated with error(s).", nil),
		},
		func(t *testing.T, client *txsubmission.Client) {
			_, err := client.EvaluateTransaction(context.Background(), txCbor, nil)
			assert.ErrorIs(t, err, txsubmission.ErrEvaluationFailed)
			assert.NotErrorIs(t, err, txsubmission.ErrTransactionRejected)
		},
	)
}
