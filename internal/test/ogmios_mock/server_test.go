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

package ogmios_mock_test

import (
	"testing"
	"time"

	"github.com/blinklabs-io/gogmios/internal/test/ogmios_mock"
	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
)

func TestServerConversation(t *testing.T) {
	defer goleak.VerifyNone(t)
	server := ogmios_mock.NewServer(
		[]ogmios_mock.ConversationEntry{
			ogmios_mock.ConversationEntryInput("first"),
			ogmios_mock.ConversationEntryInputParams("second", map[string]any{"a": 1}),
			ogmios_mock.ConversationEntryResultFor(2, "two"),
			ogmios_mock.ConversationEntryResultFor(1, "one"),
		},
	)
	defer server.Close()
	conn, _, err := websocket.DefaultDialer.Dial(server.URL(), nil)
	require.NoError(t, err)
	defer conn.Close()
	require.NoError(t, conn.WriteMessage(websocket.TextMessage, []byte(`{"jsonrpc":"2.0","method":"first","id":1}`)))
	require.NoError(t, conn.WriteMessage(websocket.TextMessage, []byte(`{"jsonrpc":"2.0","method":"second","params":{"a":1},"id":2}`)))
	_, data, err := conn.ReadMessage()
	require.NoError(t, err)
	assert.JSONEq(t, `{"jsonrpc":"2.0","result":"two","id":2}`, string(data))
	_, data, err = conn.ReadMessage()
	require.NoError(t, err)
	assert.JSONEq(t, `{"jsonrpc":"2.0","result":"one","id":1}`, string(data))
	select {
	case err, ok := <-server.ErrorChan():
		if ok {
			t.Fatalf("unexpected conversation error: %s", err)
		}
	case <-time.After(2 * time.Second):
		t.Fatalf("conversation did not complete within timeout")
	}
	assert.Equal(t, 1, server.RequestCount("second"))
	assert.Len(t, server.Requests(), 2)
}

func TestServerConversationMismatch(t *testing.T) {
	defer goleak.VerifyNone(t)
	server := ogmios_mock.NewServer(
		[]ogmios_mock.ConversationEntry{
			ogmios_mock.ConversationEntryInput("expected"),
		},
	)
	defer server.Close()
	conn, _, err := websocket.DefaultDialer.Dial(server.URL(), nil)
	require.NoError(t, err)
	defer conn.Close()
	require.NoError(t, conn.WriteMessage(websocket.TextMessage, []byte(`{"jsonrpc":"2.0","method":"other","id":1}`)))
	select {
	case err := <-server.ErrorChan():
		assert.Error(t, err)
	case <-time.After(2 * time.Second):
		t.Fatalf("did not receive expected error")
	}
}
