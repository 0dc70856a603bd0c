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

// Package ogmios implements a client for the Ogmios JSON-RPC bridge to a Cardano node.
//
// An InteractionContext wraps a single WebSocket connection and turns it into a
// request/response API. Any number of goroutines may issue requests over the same
// context concurrently; replies are matched to callers by request ID.
//
// The mini-protocol clients live in the protocol/ subpackages and accept anything
// implementing the Interaction interface.
package ogmios

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/blinklabs-io/gogmios/jsonrpc"
	"github.com/blinklabs-io/gogmios/transport"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"
)

// Interaction is the request primitive used by the mini-protocol clients
type Interaction interface {
	Call(ctx context.Context, method string, params any) (json.RawMessage, error)
	Send(ctx context.Context, method string, params any) (*PendingRequest, error)
	Notify(ctx context.Context, method string, params any) error
	IsOpen() bool
	Shutdown() error
}

// InteractionType controls how long a context stays open
type InteractionType int

const (
	// InteractionTypeLongRunning keeps the connection open until Shutdown is called
	InteractionTypeLongRunning InteractionType = iota
	// InteractionTypeOneTime shuts the connection down after the first request completes
	InteractionTypeOneTime
)

func (t InteractionType) String() string {
	switch t {
	case InteractionTypeLongRunning:
		return "LongRunning"
	case InteractionTypeOneTime:
		return "OneTime"
	default:
		return fmt.Sprintf("InteractionType(%d)", int(t))
	}
}

// CloseFunc is called once when the connection closes. The error is nil when the close was
// requested via Shutdown
type CloseFunc func(error)

// ErrorFunc is called when the connection closes because of an error
type ErrorFunc func(error)

// InteractionContext is a connection to an Ogmios server
type InteractionContext struct {
	config          ConnectionConfig
	interactionType InteractionType
	logger          *slog.Logger
	transport       *transport.Transport
	connectionId    uuid.UUID
	lastRequestId   atomic.Uint64
	closeFunc       CloseFunc
	errorFunc       ErrorFunc
	requestTimeout  time.Duration
	dialer          *websocket.Dialer
	onceShutdown    sync.Once
	shutdownErr     error
}

// NewInteractionContext connects to the Ogmios server described by the provided options. With
// no options, the default local address is used
func NewInteractionContext(
	ctx context.Context,
	options ...InteractionContextOptionFunc,
) (*InteractionContext, error) {
	ic := &InteractionContext{
		config:          DefaultConnectionConfig(),
		interactionType: InteractionTypeLongRunning,
		connectionId:    uuid.New(),
	}
	// Apply provided options functions
	for _, option := range options {
		option(ic)
	}
	if ic.logger == nil {
		ic.logger = slog.New(slog.NewJSONHandler(io.Discard, nil))
	}
	address := ic.config.Addresses().WebSocket
	ic.logger.Debug(
		fmt.Sprintf("connecting to %s", address),
		"component", "network",
		"role", "client",
		"connection_id", ic.connectionId.String(),
	)
	transportOpts := []transport.TransportOptionFunc{
		transport.WithLogger(ic.logger),
		transport.WithMaxPayload(ic.config.MaxPayload),
		transport.WithRequestTimeout(ic.requestTimeout),
		transport.WithConnectionId(ic.connectionId.String()),
		transport.WithCloseFunc(ic.handleClose),
	}
	if ic.dialer != nil {
		transportOpts = append(transportOpts, transport.WithDialer(ic.dialer))
	}
	t, err := transport.Dial(ctx, address, transportOpts...)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to %s: %w", address, err)
	}
	ic.transport = t
	return ic, nil
}

// ConnectionId returns the identifier used for this connection in log messages
func (ic *InteractionContext) ConnectionId() uuid.UUID {
	return ic.connectionId
}

// Config returns the connection config
func (ic *InteractionContext) Config() ConnectionConfig {
	return ic.config
}

// Type returns the interaction type
func (ic *InteractionContext) Type() InteractionType {
	return ic.interactionType
}

// IsOpen returns whether requests can currently be sent. It never blocks
func (ic *InteractionContext) IsOpen() bool {
	return ic.transport.IsOpen()
}

// Done returns a channel which is closed once the connection has closed
func (ic *InteractionContext) Done() <-chan struct{} {
	return ic.transport.Done()
}

// PendingRequest is a request which has been written to the connection and is waiting for
// its reply
type PendingRequest struct {
	ic     *InteractionContext
	method string
	call   *transport.PendingCall
}

// Wait blocks until the reply arrives and returns the raw result. A reply carrying an error
// object is returned as an *RPCError
func (p *PendingRequest) Wait(ctx context.Context) (json.RawMessage, error) {
	if p.ic.interactionType == InteractionTypeOneTime {
		defer func() {
			_ = p.ic.Shutdown()
		}()
	}
	data, err := p.call.Wait(ctx)
	if err != nil {
		return nil, err
	}
	resp, err := jsonrpc.DecodeResponse(data)
	if err != nil {
		return nil, &ProtocolError{Method: p.method, Err: err}
	}
	result, rpcErr := resp.Into()
	if rpcErr != nil {
		return nil, &RPCError{
			Method:  p.method,
			Code:    rpcErr.Code,
			Message: rpcErr.Message,
			Data:    rpcErr.Data,
		}
	}
	return result, nil
}

// Release abandons the request. A reply arriving later is dropped
func (p *PendingRequest) Release() {
	p.call.Release()
}

// Send writes a request and returns without waiting for the reply. Requests are written in
// the order Send returns, which allows pipelining requests whose replies depend on ordering
func (ic *InteractionContext) Send(
	ctx context.Context,
	method string,
	params any,
) (*PendingRequest, error) {
	if !ic.IsOpen() {
		return nil, ErrSocketNotOpen
	}
	id := ic.lastRequestId.Add(1)
	req, err := jsonrpc.NewRequest(method, params, id)
	if err != nil {
		return nil, fmt.Errorf("failed to build %s request: %w", method, err)
	}
	payload, err := req.Encode()
	if err != nil {
		return nil, fmt.Errorf("failed to encode %s request: %w", method, err)
	}
	ic.logger.Debug(
		fmt.Sprintf("calling %s (id %d)", method, id),
		"component", "network",
		"role", "client",
		"connection_id", ic.connectionId.String(),
	)
	call, err := ic.transport.Send(ctx, id, payload)
	if err != nil {
		return nil, err
	}
	return &PendingRequest{
		ic:     ic,
		method: method,
		call:   call,
	}, nil
}

// Call sends a request and returns the raw result from the reply
func (ic *InteractionContext) Call(
	ctx context.Context,
	method string,
	params any,
) (json.RawMessage, error) {
	pending, err := ic.Send(ctx, method, params)
	if err != nil {
		if ic.interactionType == InteractionTypeOneTime {
			_ = ic.Shutdown()
		}
		return nil, err
	}
	return pending.Wait(ctx)
}

// Notify sends a request without an ID. No reply is expected
func (ic *InteractionContext) Notify(ctx context.Context, method string, params any) error {
	if !ic.IsOpen() {
		return ErrSocketNotOpen
	}
	req, err := jsonrpc.NewNotification(method, params)
	if err != nil {
		return fmt.Errorf("failed to build %s notification: %w", method, err)
	}
	payload, err := req.Encode()
	if err != nil {
		return fmt.Errorf("failed to encode %s notification: %w", method, err)
	}
	return ic.transport.Notify(ctx, payload)
}

// Shutdown closes the connection. Requests still waiting for a reply fail with
// ErrConnectionClosed. It is safe to call Shutdown more than once and from any goroutine
func (ic *InteractionContext) Shutdown() error {
	ic.onceShutdown.Do(func() {
		ic.logger.Debug(
			"shutting down",
			"component", "network",
			"role", "client",
			"connection_id", ic.connectionId.String(),
		)
		ic.shutdownErr = ic.transport.Close()
	})
	return ic.shutdownErr
}

func (ic *InteractionContext) handleClose(err error) {
	if err != nil {
		ic.logger.Debug(
			fmt.Sprintf("connection closed: %s", err),
			"component", "network",
			"role", "client",
			"connection_id", ic.connectionId.String(),
		)
		if ic.errorFunc != nil {
			ic.errorFunc(err)
		}
	}
	if ic.closeFunc != nil {
		ic.closeFunc(err)
	}
}

// Request sends a request and decodes the result into R
func Request[R any](ctx context.Context, ic Interaction, method string, params any) (R, error) {
	var ret R
	result, err := ic.Call(ctx, method, params)
	if err != nil {
		return ret, err
	}
	if err := json.Unmarshal(result, &ret); err != nil {
		return ret, &ProtocolError{Method: method, Err: err}
	}
	return ret, nil
}
