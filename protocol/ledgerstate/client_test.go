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

package ledgerstate_test

import (
	"context"
	"encoding/hex"
	"errors"
	"testing"
	"time"

	ogmios "github.com/blinklabs-io/gogmios"
	"github.com/blinklabs-io/gogmios/internal/test"
	"github.com/blinklabs-io/gogmios/internal/test/ogmios_mock"
	"github.com/blinklabs-io/gogmios/protocol/common"
	"github.com/blinklabs-io/gogmios/protocol/ledgerstate"
	"github.com/btcsuite/btcd/btcutil/bech32"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
)

type testInnerFunc func(*testing.T, *ogmios_mock.Server, *ledgerstate.Client)

func runTest(
	t *testing.T,
	conversation []ogmios_mock.ConversationEntry,
	innerFunc testInnerFunc,
	options ...ledgerstate.LedgerStateOptionFunc,
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
	innerFunc(t, server, ledgerstate.NewClient(ic, options...))
	select {
	case err, ok := <-server.ErrorChan():
		if ok && err != nil {
			t.Fatalf("received unexpected error from mock server: %s", err)
		}
	case <-time.After(2 * time.Second):
		t.Fatalf("did not complete conversation within timeout")
	}
}

func encodeAddress(t *testing.T, hrp string, payload []byte) string {
	t.Helper()
	conv, err := bech32.ConvertBits(payload, 8, 5, true)
	require.NoError(t, err)
	addr, err := bech32.Encode(hrp, conv)
	require.NoError(t, err)
	return addr
}

func testAddressPayload() []byte {
	// Enterprise address header for testnets followed by a key hash
	return append([]byte{0x60}, test.BlockHash(1)[:28]...)
}

func TestAcquireQueryRelease(t *testing.T) {
	point := common.NewPoint(100, test.BlockHash(5))
	pointJSON := map[string]any{"slot": 100, "id": hex.EncodeToString(test.BlockHash(5))}
	runTest(
		t,
		[]ogmios_mock.ConversationEntry{
			ogmios_mock.ConversationEntryInputParams(
				"acquireLedgerState",
				map[string]any{"point": pointJSON},
			),
			ogmios_mock.ConversationEntryResult(
				map[string]any{"acquired": "ledgerState", "point": pointJSON},
			),
			ogmios_mock.ConversationEntryInput("queryLedgerState/epoch"),
			ogmios_mock.ConversationEntryResult(412),
			ogmios_mock.ConversationEntryInput("queryLedgerState/tip"),
			ogmios_mock.ConversationEntryResult(pointJSON),
			ogmios_mock.ConversationEntryInput("releaseLedgerState"),
			ogmios_mock.ConversationEntryResult(map[string]any{"released": "ledgerState"}),
		},
		func(t *testing.T, server *ogmios_mock.Server, client *ledgerstate.Client) {
			ctx := context.Background()
			acquired, err := client.Acquire(ctx, &point)
			require.NoError(t, err)
			assert.True(t, acquired.Equal(point))
			current, ok := client.Acquired()
			require.True(t, ok)
			assert.True(t, current.Equal(point))
			epoch, err := client.Epoch(ctx)
			require.NoError(t, err)
			assert.Equal(t, uint64(412), epoch)
			tip, err := client.LedgerTip(ctx)
			require.NoError(t, err)
			assert.True(t, tip.Equal(point))
			require.NoError(t, client.Release(ctx))
			_, ok = client.Acquired()
			assert.False(t, ok)
		},
	)
}

func TestAcquireFailure(t *testing.T) {
	runTest(
		t,
		[]ogmios_mock.ConversationEntry{
			ogmios_mock.ConversationEntryInput("acquireLedgerState"),
			ogmios_mock.ConversationEntryError(
				2000,
				"Failed to acquire requested point.",
				map[string]any{"reason": "pointTooOld"},
			),
		},
		func(t *testing.T, server *ogmios_mock.Server, client *ledgerstate.Client) {
			point := common.NewPoint(1, test.BlockHash(1))
			_, err := client.Acquire(context.Background(), &point)
			if !errors.Is(err, ledgerstate.ErrAcquireFailurePointTooOld) {
				t.Fatalf("did not get expected error\n  got:    %v\n  wanted: %s", err, ledgerstate.ErrAcquireFailurePointTooOld)
			}
			assert.ErrorIs(t, err, ledgerstate.ErrAcquireFailure)
			assert.NotErrorIs(t, err, ledgerstate.ErrAcquireFailurePointNotOnChain)
			_, ok := client.Acquired()
			assert.False(t, ok)
		},
	)
}

func TestEraStartAndSummaries(t *testing.T) {
	runTest(
		t,
		[]ogmios_mock.ConversationEntry{
			ogmios_mock.ConversationEntryInput("queryLedgerState/eraStart"),
			ogmios_mock.ConversationEntryResult(
				map[string]any{"time": map[string]any{"seconds": 1728000}, "slot": 1728000, "epoch": 4},
			),
			ogmios_mock.ConversationEntryInput("queryLedgerState/eraSummaries"),
			ogmios_mock.ConversationEntryResult(
				[]any{
					map[string]any{
						"start":      map[string]any{"time": 0, "slot": 0, "epoch": 0},
						"end":        map[string]any{"time": 1728000, "slot": 86400, "epoch": 4},
						"parameters": map[string]any{"epochLength": 21600, "slotLength": map[string]any{"milliseconds": 20000}, "safeZone": 4320},
					},
					map[string]any{
						"start":      map[string]any{"time": 1728000, "slot": 86400, "epoch": 4},
						"end":        nil,
						"parameters": map[string]any{"epochLength": 432000, "slotLength": map[string]any{"milliseconds": 1000}, "safeZone": nil},
					},
				},
			),
		},
		func(t *testing.T, server *ogmios_mock.Server, client *ledgerstate.Client) {
			ctx := context.Background()
			start, err := client.EraStart(ctx)
			require.NoError(t, err)
			assert.Equal(t, ledgerstate.RelativeTime(1728000), start.Time)
			assert.Equal(t, uint64(4), start.Epoch)
			summaries, err := client.EraSummaries(ctx)
			require.NoError(t, err)
			require.Len(t, summaries, 2)
			require.NotNil(t, summaries[0].End)
			assert.Equal(t, uint64(86400), summaries[0].End.Slot)
			assert.Equal(t, uint64(20000), summaries[0].Parameters.SlotLength.Milliseconds)
			assert.Nil(t, summaries[1].End)
			assert.Nil(t, summaries[1].Parameters.SafeZone)
		},
	)
}

func TestProtocolParameters(t *testing.T) {
	runTest(
		t,
		[]ogmios_mock.ConversationEntry{
			ogmios_mock.ConversationEntryInput("queryLedgerState/protocolParameters"),
			ogmios_mock.ConversationEntryResult(
				map[string]any{
					"minFeeCoefficient":         44,
					"minFeeConstant":            map[string]any{"ada": map[string]any{"lovelace": 155381}},
					"minUtxoDepositCoefficient": 4310,
					"maxBlockBodySize":          map[string]any{"bytes": 90112},
					"maxTransactionSize":        map[string]any{"bytes": 16384},
					"stakePoolDeposit":          map[string]any{"ada": map[string]any{"lovelace": 500000000}},
					"version":                   map[string]any{"major": 9, "minor": 1},
					"collateralPercentage":      150,
				},
			),
		},
		func(t *testing.T, server *ogmios_mock.Server, client *ledgerstate.Client) {
			params, err := client.ProtocolParameters(context.Background())
			require.NoError(t, err)
			assert.Equal(t, uint64(16384), params.MaxTransactionSize.Bytes)
			assert.Equal(t, uint64(500000000), params.StakePoolDeposit.Lovelace)
			assert.Equal(t, uint(9), params.Version.Major)
			assert.Nil(t, params.MaxValueSize)
			assert.Contains(t, string(params.Raw), "collateralPercentage")
			assert.Equal(t, uint64(44*200+155381), params.MinFee(200))
			output := common.TransactionOutput{
				Address: "addr_test1vz09v9yfxguvlp0zsnrpa3tdtm7el8xufp3m5lsm7qxzclgmzkket",
				Value:   common.Value{Lovelace: 1_000_000},
			}
			assert.Equal(t, uint64(4310*(160+59+5)), params.MinUtxoLovelace(output))
		},
	)
}

func TestUtxoByAddresses(t *testing.T) {
	addr := encodeAddress(t, "addr_test", testAddressPayload())
	txId := hex.EncodeToString(test.BlockHash(9))
	runTest(
		t,
		[]ogmios_mock.ConversationEntry{
			ogmios_mock.ConversationEntryInputParams(
				"queryLedgerState/utxo",
				map[string]any{"addresses": []any{addr}},
			),
			ogmios_mock.ConversationEntryResult(
				[]any{
					map[string]any{
						"transaction": map[string]any{"id": txId},
						"index":       0,
						"address":     addr,
						"value":       map[string]any{"ada": map[string]any{"lovelace": 42}},
					},
				},
			),
		},
		func(t *testing.T, server *ogmios_mock.Server, client *ledgerstate.Client) {
			utxos, err := client.UtxoByAddresses(context.Background(), addr)
			require.NoError(t, err)
			require.Len(t, utxos, 1)
			assert.Equal(t, txId, utxos[0].Transaction.ID)
			assert.Equal(t, addr, utxos[0].Address)
			assert.Equal(t, uint64(42), utxos[0].Value.Lovelace)
		},
		ledgerstate.WithNetwork(ogmios.NetworkPreprod),
	)
}

func TestUtxoByOutputReferences(t *testing.T) {
	txId := hex.EncodeToString(test.BlockHash(9))
	runTest(
		t,
		[]ogmios_mock.ConversationEntry{
			ogmios_mock.ConversationEntryInputParams(
				"queryLedgerState/utxo",
				map[string]any{
					"outputReferences": []any{
						map[string]any{"transaction": map[string]any{"id": txId}, "index": 3},
					},
				},
			),
			ogmios_mock.ConversationEntryResult([]any{}),
		},
		func(t *testing.T, server *ogmios_mock.Server, client *ledgerstate.Client) {
			utxos, err := client.UtxoByOutputReferences(
				context.Background(),
				common.NewTransactionOutputReference(txId, 3),
			)
			require.NoError(t, err)
			assert.Empty(t, utxos)
		},
	)
}

func TestUtxoRejectsOtherNetwork(t *testing.T) {
	addr := encodeAddress(t, "addr_test", testAddressPayload())
	runTest(
		t,
		[]ogmios_mock.ConversationEntry{},
		func(t *testing.T, server *ogmios_mock.Server, client *ledgerstate.Client) {
			_, err := client.UtxoByAddresses(context.Background(), addr)
			assert.ErrorIs(t, err, ledgerstate.ErrInvalidAddress)
			_, err = client.Utxo(context.Background(), ledgerstate.UtxoFilter{})
			assert.ErrorIs(t, err, ledgerstate.ErrNoFilter)
			assert.Equal(t, 0, server.RequestCount("queryLedgerState/utxo"))
		},
		ledgerstate.WithNetwork(ogmios.NetworkMainnet),
	)
}

func TestNetworkQueries(t *testing.T) {
	runTest(
		t,
		[]ogmios_mock.ConversationEntry{
			ogmios_mock.ConversationEntryInput("queryNetwork/blockHeight"),
			ogmios_mock.ConversationEntryResult("origin"),
			ogmios_mock.ConversationEntryInput("queryNetwork/blockHeight"),
			ogmios_mock.ConversationEntryResult(2853019),
			ogmios_mock.ConversationEntryInput("queryNetwork/tip"),
			ogmios_mock.ConversationEntryResult(
				map[string]any{"slot": 40, "id": hex.EncodeToString(test.BlockHash(2)), "height": 2},
			),
			ogmios_mock.ConversationEntryInput("queryNetwork/startTime"),
			ogmios_mock.ConversationEntryResult("2022-10-25T00:00:00Z"),
			ogmios_mock.ConversationEntryInputParams(
				"queryNetwork/genesisConfiguration",
				map[string]any{"era": "shelley"},
			),
			ogmios_mock.ConversationEntryResult(map[string]any{"era": "shelley", "networkMagic": 2}),
		},
		func(t *testing.T, server *ogmios_mock.Server, client *ledgerstate.Client) {
			ctx := context.Background()
			height, err := client.NetworkBlockHeight(ctx)
			require.NoError(t, err)
			assert.Equal(t, uint64(0), height)
			height, err = client.NetworkBlockHeight(ctx)
			require.NoError(t, err)
			assert.Equal(t, uint64(2853019), height)
			tip, err := client.NetworkTip(ctx)
			require.NoError(t, err)
			assert.Equal(t, uint64(2), tip.BlockNumber)
			startTime, err := client.NetworkStartTime(ctx)
			require.NoError(t, err)
			assert.True(t, startTime.Equal(time.Date(2022, time.October, 25, 0, 0, 0, 0, time.UTC)))
			genesis, err := client.GenesisConfiguration(ctx, ledgerstate.GenesisShelley)
			require.NoError(t, err)
			assert.JSONEq(t, `{"era": "shelley", "networkMagic": 2}`, string(genesis))
		},
	)
}

func TestGovernanceQueries(t *testing.T) {
	proposalId := hex.EncodeToString(test.BlockHash(7))
	runTest(
		t,
		[]ogmios_mock.ConversationEntry{
			ogmios_mock.ConversationEntryInput("queryLedgerState/constitution"),
			ogmios_mock.ConversationEntryResult(
				map[string]any{
					"metadata": map[string]any{
						"url":  "ipfs://constitution",
						"hash": hex.EncodeToString(test.BlockHash(3)),
					},
					"guardianScript": "fa24fb305126805cf2164c161d852a0e7330cf988f1fe558cf7d4a64",
				},
			),
			ogmios_mock.ConversationEntryInput("queryLedgerState/governanceProposals"),
			ogmios_mock.ConversationEntryResult(
				[]any{map[string]any{"proposal": map[string]any{"index": 0}}},
			),
			ogmios_mock.ConversationEntryInputParams(
				"queryLedgerState/governanceProposals",
				map[string]any{"proposals": []any{proposalId}, "actionType": "treasuryWithdrawals"},
			),
			ogmios_mock.ConversationEntryResult([]any{}),
		},
		func(t *testing.T, server *ogmios_mock.Server, client *ledgerstate.Client) {
			ctx := context.Background()
			constitution, err := client.Constitution(ctx)
			require.NoError(t, err)
			assert.Equal(t, "ipfs://constitution", constitution.Metadata.URL)
			assert.Equal(t, hex.EncodeToString(test.BlockHash(3)), constitution.Metadata.Hash)
			assert.NotEmpty(t, constitution.GuardianScript)
			proposals, err := client.GovernanceProposals(ctx, nil)
			require.NoError(t, err)
			require.Len(t, proposals, 1)
			assert.JSONEq(t, `{"proposal": {"index": 0}}`, string(proposals[0]))
			proposals, err = client.GovernanceProposals(
				ctx,
				&ledgerstate.GovernanceProposalFilter{
					Proposals:  []string{proposalId},
					ActionType: "treasuryWithdrawals",
				},
			)
			require.NoError(t, err)
			assert.Empty(t, proposals)
		},
	)
}

func TestStakeQueries(t *testing.T) {
	const (
		poolId       = "pool1m7y2gakwewqyaz05tvmqqwvl2h4jj2qxtknkzew0dhtuwuupreq"
		stakeAddress = "stake_test1uqfu74w3wh4gfzu8m6e7j987h4lq9r3t7ef5gaw497uu85qsqfy27"
	)
	runTest(
		t,
		[]ogmios_mock.ConversationEntry{
			ogmios_mock.ConversationEntryInput("queryLedgerState/liveStakeDistribution"),
			ogmios_mock.ConversationEntryResult(
				map[string]any{poolId: map[string]any{"stake": "1/2", "vrf": "00ff"}},
			),
			ogmios_mock.ConversationEntryInputParams(
				"queryLedgerState/projectedRewards",
				map[string]any{"stakeAddresses": []any{stakeAddress}},
			),
			ogmios_mock.ConversationEntryResult(
				map[string]any{stakeAddress: map[string]any{poolId: map[string]any{"ada": map[string]any{"lovelace": 42}}}},
			),
			ogmios_mock.ConversationEntryInputParams(
				"queryLedgerState/rewardAccountSummaries",
				map[string]any{"keys": []any{stakeAddress}},
			),
			ogmios_mock.ConversationEntryResult(
				map[string]any{stakeAddress: map[string]any{"delegate": map[string]any{"id": poolId}}},
			),
			ogmios_mock.ConversationEntryInputParams(
				"queryLedgerState/stakePools",
				map[string]any{"stakePools": []any{poolId}, "includeStake": true},
			),
			ogmios_mock.ConversationEntryResult(
				map[string]any{poolId: map[string]any{"id": poolId, "stake": map[string]any{"ada": map[string]any{"lovelace": 1000}}}},
			),
			ogmios_mock.ConversationEntryInputParams(
				"queryLedgerState/stakePools",
				map[string]any{"includeStake": false},
			),
			ogmios_mock.ConversationEntryResult(map[string]any{}),
			ogmios_mock.ConversationEntryInput("queryLedgerState/stakePoolsPerformance"),
			ogmios_mock.ConversationEntryResult(
				map[string]any{poolId: map[string]any{"blocksMinted": 3}},
			),
		},
		func(t *testing.T, server *ogmios_mock.Server, client *ledgerstate.Client) {
			ctx := context.Background()
			distribution, err := client.LiveStakeDistribution(ctx)
			require.NoError(t, err)
			require.Contains(t, distribution, poolId)
			assert.JSONEq(t, `{"stake": "1/2", "vrf": "00ff"}`, string(distribution[poolId]))

			_, err = client.ProjectedRewards(ctx)
			assert.ErrorIs(t, err, ledgerstate.ErrNoFilter)
			rewards, err := client.ProjectedRewards(ctx, stakeAddress)
			require.NoError(t, err)
			assert.Contains(t, string(rewards), poolId)

			_, err = client.RewardAccountSummaries(ctx)
			assert.ErrorIs(t, err, ledgerstate.ErrNoFilter)
			summaries, err := client.RewardAccountSummaries(ctx, stakeAddress)
			require.NoError(t, err)
			assert.Contains(t, summaries, stakeAddress)

			pools, err := client.StakePools(ctx, true, poolId)
			require.NoError(t, err)
			assert.Len(t, pools, 1)
			pools, err = client.StakePools(ctx, false)
			require.NoError(t, err)
			assert.Empty(t, pools)

			performance, err := client.StakePoolsPerformance(ctx)
			require.NoError(t, err)
			assert.JSONEq(t, `{"blocksMinted": 3}`, string(performance[poolId]))

			assert.Equal(t, 1, server.RequestCount("queryLedgerState/rewardAccountSummaries"))
			assert.Equal(t, 1, server.RequestCount("queryLedgerState/projectedRewards"))
		},
	)
}

func TestValidateAddress(t *testing.T) {
	testnetAddr := encodeAddress(t, "addr_test", testAddressPayload())
	mainnetAddr := encodeAddress(t, "addr", testAddressPayload())
	badChecksum := []byte(testnetAddr)
	if badChecksum[len(badChecksum)-1] == 'q' {
		badChecksum[len(badChecksum)-1] = 'p'
	} else {
		badChecksum[len(badChecksum)-1] = 'q'
	}
	testDefs := []struct {
		name    string
		addr    string
		network ogmios.Network
		valid   bool
	}{
		{name: "testnet", addr: testnetAddr, network: ogmios.NetworkPreview, valid: true},
		{name: "mainnet", addr: mainnetAddr, network: ogmios.NetworkMainnet, valid: true},
		{name: "wrong network", addr: mainnetAddr, network: ogmios.NetworkPreprod},
		{name: "no network", addr: testnetAddr, valid: true},
		{name: "byron", addr: "DdzFFzCqrhsjcfsReoiHddcfhgfhhhxJ4pfS7t8v8HP7sbh6gV1tpnM4rJd", network: ogmios.NetworkMainnet, valid: true},
		{name: "bad checksum", addr: string(badChecksum), network: ogmios.NetworkPreview},
		{name: "empty", addr: ""},
	}
	for _, testDef := range testDefs {
		t.Run(testDef.name, func(t *testing.T) {
			err := ledgerstate.ValidateAddress(testDef.addr, testDef.network)
			if testDef.valid {
				assert.NoError(t, err)
			} else {
				assert.ErrorIs(t, err, ledgerstate.ErrInvalidAddress)
			}
		})
	}
}
