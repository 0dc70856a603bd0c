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

package utils_test

import (
	"testing"
	"time"

	"github.com/blinklabs-io/gogmios/utils"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLovelaceToAda(t *testing.T) {
	testDefs := []struct {
		lovelace uint64
		expected string
	}{
		{lovelace: 1_000_000, expected: "1.000000"},
		{lovelace: 1_500_000, expected: "1.500000"},
		{lovelace: 500_000, expected: "0.500000"},
		{lovelace: 1, expected: "0.000001"},
		{lovelace: 45_000_000_000_000_000, expected: "45000000000.000000"},
	}
	for _, testDef := range testDefs {
		assert.Equal(t, testDef.expected, utils.LovelaceToAda(testDef.lovelace))
	}
}

func TestAdaToLovelace(t *testing.T) {
	assert.Equal(t, uint64(1_000_000), utils.AdaToLovelace(1.0))
	assert.Equal(t, uint64(1_500_000), utils.AdaToLovelace(1.5))
	assert.Equal(t, uint64(500_000), utils.AdaToLovelace(0.5))
	assert.Equal(t, uint64(0), utils.AdaToLovelace(-3))
}

func TestCborIntegerSize(t *testing.T) {
	testDefs := []struct {
		value    uint64
		expected uint64
	}{
		{0, 1},
		{23, 1},
		{24, 2},
		{255, 2},
		{256, 3},
		{65535, 3},
		{65536, 5},
		{4294967295, 5},
		{4294967296, 9},
	}
	for _, testDef := range testDefs {
		assert.Equal(t, testDef.expected, utils.CborIntegerSize(testDef.value), "value %d", testDef.value)
	}
	assert.Equal(t, uint64(34), utils.CborBytesSize(32))
}

func TestHexRoundTrip(t *testing.T) {
	data := []byte{0xde, 0xad, 0xbe, 0xef}
	encoded := utils.HexEncode(data)
	assert.Equal(t, "deadbeef", encoded)
	decoded, err := utils.HexDecode(encoded)
	require.NoError(t, err)
	assert.Equal(t, data, decoded)
	_, err = utils.HexDecode("xyz")
	assert.Error(t, err)
}

func TestDoneSignal(t *testing.T) {
	sig := utils.NewDoneSignal()
	assert.False(t, sig.IsClosed())
	sig.Close()
	sig.Close()
	select {
	case <-sig.GetCh():
	case <-time.After(time.Second):
		t.Fatalf("channel was not closed")
	}
	assert.True(t, sig.IsClosed())
}
