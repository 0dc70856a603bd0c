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

package transport_test

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/blinklabs-io/gogmios/internal/test"
	"github.com/blinklabs-io/gogmios/internal/test/ogmios_mock"
	"github.com/blinklabs-io/gogmios/jsonrpc"
	"github.com/blinklabs-io/gogmios/transport"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
)

type testInnerFunc func(*testing.T, *ogmios_mock.Server, *transport.Transport)

func runTest(
	t *testing.T,
	conversation []ogmios_mock.ConversationEntry,
	innerFunc testInnerFunc,
	options ...transport.TransportOptionFunc,
) {
	defer goleak.VerifyNone(t)
	server := ogmios_mock.NewServer(conversation)
	defer server.Close()
	tr, err := transport.Dial(context.Background(), server.URL(), options...)
	if err != nil {
		t.Fatalf("unexpected error when dialing mock server: %s", err)
	}
	innerFunc(t, server, tr)
	if err := tr.Close(); err != nil {
		t.Fatalf("unexpected error when closing transport: %s", err)
	}
}

func request(t *testing.T, method string, id uint64, params any) []byte {
	t.Helper()
	req, err := jsonrpc.NewRequest(method, params, id)
	require.NoError(t, err)
	data, err := req.Encode()
	require.NoError(t, err)
	return data
}

func TestCallCorrelationReverseOrder(t *testing.T) {
	const numCalls = 3
	conversation := []ogmios_mock.ConversationEntry{}
	for range numCalls {
		conversation = append(conversation, ogmios_mock.ConversationEntryInput("echo"))
	}
	// Answer in the reverse order that requests arrived
	for i := numCalls; i > 0; i-- {
		conversation = append(conversation, ogmios_mock.ConversationEntryEchoFor(i))
	}
	runTest(
		t,
		conversation,
		func(t *testing.T, server *ogmios_mock.Server, tr *transport.Transport) {
			var wg sync.WaitGroup
			results := make([][]byte, numCalls)
			errs := make([]error, numCalls)
			payloads := make([][]byte, numCalls)
			for i := range numCalls {
				id := uint64(i + 1)
				payloads[i] = request(t, "echo", id, map[string]uint64{"caller": id})
			}
			for i := range numCalls {
				wg.Add(1)
				go func(idx int) {
					defer wg.Done()
					results[idx], errs[idx] = tr.Call(
						context.Background(),
						uint64(idx+1),
						payloads[idx],
					)
				}(i)
			}
			wg.Wait()
			for i := range numCalls {
				require.NoError(t, errs[i])
				id, ok, err := jsonrpc.PeekID(results[i])
				require.NoError(t, err)
				require.True(t, ok)
				assert.Equal(t, uint64(i+1), id)
				assert.Contains(t, string(results[i]), fmt.Sprintf(`{"caller":%d}`, i+1))
			}
			assert.Equal(t, 0, tr.Pending())
		},
	)
}

func TestCloseFailsPendingCall(t *testing.T) {
	closeErrChan := make(chan error, 2)
	runTest(
		t,
		[]ogmios_mock.ConversationEntry{
			ogmios_mock.ConversationEntryInput("slow"),
		},
		func(t *testing.T, server *ogmios_mock.Server, tr *transport.Transport) {
			payload := request(t, "slow", 1, nil)
			errChan := make(chan error, 1)
			go func() {
				_, err := tr.Call(context.Background(), 1, payload)
				errChan <- err
			}()
			test.WaitFor(t, 2*time.Second, func() bool {
				return server.RequestCount("slow") == 1
			})
			require.NoError(t, tr.Close())
			select {
			case err := <-errChan:
				if !errors.Is(err, transport.ErrConnectionClosed) {
					t.Fatalf(
						"did not receive expected error\n  got:    %s\n  wanted: %s",
						err,
						transport.ErrConnectionClosed,
					)
				}
			case <-time.After(2 * time.Second):
				t.Fatalf("pending call did not resolve after close")
			}
			assert.False(t, tr.IsOpen())
			// A second close is a no-op
			require.NoError(t, tr.Close())
			_, err := tr.Call(context.Background(), 2, request(t, "slow", 2, nil))
			assert.ErrorIs(t, err, transport.ErrConnectionClosed)
			assert.ErrorIs(t, tr.Notify(context.Background(), []byte(`{}`)), transport.ErrConnectionClosed)
		},
		transport.WithCloseFunc(func(err error) {
			closeErrChan <- err
		}),
	)
	select {
	case err := <-closeErrChan:
		assert.NoError(t, err)
	case <-time.After(2 * time.Second):
		t.Fatalf("close function was not called")
	}
	assert.Empty(t, closeErrChan)
}

func TestRemoteCloseFailsPendingCall(t *testing.T) {
	closeErrChan := make(chan error, 2)
	runTest(
		t,
		[]ogmios_mock.ConversationEntry{
			ogmios_mock.ConversationEntryInput("slow"),
			ogmios_mock.ConversationEntryClose,
		},
		func(t *testing.T, server *ogmios_mock.Server, tr *transport.Transport) {
			_, err := tr.Call(context.Background(), 1, request(t, "slow", 1, nil))
			assert.ErrorIs(t, err, transport.ErrConnectionClosed)
			select {
			case err := <-closeErrChan:
				assert.Error(t, err)
			case <-time.After(2 * time.Second):
				t.Fatalf("close function was not called")
			}
			<-tr.Done()
			assert.False(t, tr.IsOpen())
			assert.Error(t, tr.Err())
		},
		transport.WithCloseFunc(func(err error) {
			closeErrChan <- err
		}),
	)
	assert.Empty(t, closeErrChan)
}

func TestRequestTimeoutReleasesSlot(t *testing.T) {
	runTest(
		t,
		[]ogmios_mock.ConversationEntry{
			ogmios_mock.ConversationEntryInput("slow"),
			ogmios_mock.ConversationEntryInput("fast"),
			// The late reply no longer has a waiter and must be dropped
			ogmios_mock.ConversationEntryResultFor(1, "late"),
			ogmios_mock.ConversationEntryRaw(`{"jsonrpc":"2.0","method":"unsolicited"}`),
			ogmios_mock.ConversationEntryRaw(`not json`),
			ogmios_mock.ConversationEntryResultFor(2, "fast"),
		},
		func(t *testing.T, server *ogmios_mock.Server, tr *transport.Transport) {
			_, err := tr.Call(context.Background(), 1, request(t, "slow", 1, nil))
			if !errors.Is(err, transport.ErrRequestTimeout) {
				t.Fatalf(
					"did not receive expected error\n  got:    %v\n  wanted: %s",
					err,
					transport.ErrRequestTimeout,
				)
			}
			assert.Equal(t, 0, tr.Pending())
			resp, err := tr.Call(context.Background(), 2, request(t, "fast", 2, nil))
			require.NoError(t, err)
			assert.JSONEq(t, `{"jsonrpc":"2.0","result":"fast","id":2}`, string(resp))
			assert.True(t, tr.IsOpen())
		},
		transport.WithRequestTimeout(100*time.Millisecond),
	)
}

func TestCallContextCancel(t *testing.T) {
	runTest(
		t,
		[]ogmios_mock.ConversationEntry{
			ogmios_mock.ConversationEntryInput("slow"),
		},
		func(t *testing.T, server *ogmios_mock.Server, tr *transport.Transport) {
			ctx, cancel := context.WithCancel(context.Background())
			payload := request(t, "slow", 1, nil)
			errChan := make(chan error, 1)
			go func() {
				_, err := tr.Call(ctx, 1, payload)
				errChan <- err
			}()
			test.WaitFor(t, 2*time.Second, func() bool {
				return tr.Pending() == 1
			})
			cancel()
			assert.ErrorIs(t, <-errChan, context.Canceled)
			assert.Equal(t, 0, tr.Pending())
		},
	)
}

func TestNotify(t *testing.T) {
	runTest(
		t,
		[]ogmios_mock.ConversationEntry{
			ogmios_mock.ConversationEntryInputParams("notice", map[string]string{"hello": "world"}),
		},
		func(t *testing.T, server *ogmios_mock.Server, tr *transport.Transport) {
			req, err := jsonrpc.NewNotification("notice", map[string]string{"hello": "world"})
			require.NoError(t, err)
			data, err := req.Encode()
			require.NoError(t, err)
			require.NoError(t, tr.Notify(context.Background(), data))
			select {
			case err, ok := <-server.ErrorChan():
				if ok {
					t.Fatalf("unexpected conversation error: %s", err)
				}
			case <-time.After(2 * time.Second):
				t.Fatalf("notification was not received")
			}
		},
	)
}

func TestDialHandshakeFailure(t *testing.T) {
	defer goleak.VerifyNone(t)
	server := httptest.NewServer(http.NotFoundHandler())
	defer server.Close()
	url := "ws" + strings.TrimPrefix(server.URL, "http")
	_, err := transport.Dial(context.Background(), url)
	if !errors.Is(err, transport.ErrHandshake) {
		t.Fatalf(
			"did not receive expected error\n  got:    %v\n  wanted: %s",
			err,
			transport.ErrHandshake,
		)
	}
}

func TestSendWritesInOrder(t *testing.T) {
	methods := []string{"first", "second", "third"}
	conversation := []ogmios_mock.ConversationEntry{}
	for _, method := range methods {
		conversation = append(conversation, ogmios_mock.ConversationEntryInput(method))
	}
	for i := range methods {
		conversation = append(
			conversation,
			ogmios_mock.ConversationEntryResultFor(i+1, methods[i]),
		)
	}
	runTest(
		t,
		conversation,
		func(t *testing.T, server *ogmios_mock.Server, tr *transport.Transport) {
			var pendingCalls []*transport.PendingCall
			for i, method := range methods {
				pending, err := tr.Send(
					context.Background(),
					uint64(i+1),
					request(t, method, uint64(i+1), nil),
				)
				require.NoError(t, err)
				assert.Equal(t, uint64(i+1), pending.ID())
				pendingCalls = append(pendingCalls, pending)
			}
			for i, pending := range pendingCalls {
				data, err := pending.Wait(context.Background())
				require.NoError(t, err)
				assert.Contains(t, string(data), fmt.Sprintf("%q", methods[i]))
			}
			select {
			case err, ok := <-server.ErrorChan():
				if ok && err != nil {
					t.Fatalf("received unexpected error from mock server: %s", err)
				}
			case <-time.After(2 * time.Second):
				t.Fatalf("did not complete conversation within timeout")
			}
		},
	)
}
