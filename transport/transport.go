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

// Package transport owns the WebSocket connection to an Ogmios server.
//
// A single actor goroutine performs every write and owns the table of pending calls. A second
// goroutine reads frames off the socket and hands them to the actor, which matches each reply
// to its caller by request ID. Callers only ever talk to the actor through channels.
package transport

import (
	"context"
	"fmt"
	"net/http"
	"sync/atomic"
	"time"

	"github.com/blinklabs-io/gogmios/jsonrpc"
	"github.com/blinklabs-io/gogmios/utils"
	"github.com/gorilla/websocket"
)

// Transport is a single WebSocket connection shared by any number of concurrent callers
type Transport struct {
	conn             *websocket.Conn
	config           Config
	callChan         chan *pendingCall
	sendChan         chan *outboundMessage
	releaseChan      chan uint64
	pendingQueryChan chan chan int
	recvChan         chan []byte
	readErrChan      chan error
	closeSignal      *utils.DoneSignal
	doneChan         chan struct{}
	readerDone       chan struct{}
	open             atomic.Bool
	closeErr         error
}

type pendingCall struct {
	id        uint64
	payload   []byte
	replyChan chan callResult
}

type callResult struct {
	data []byte
	err  error
}

type outboundMessage struct {
	payload []byte
	errChan chan error
}

// Dial performs the websocket handshake with the specified URL and returns a running Transport
func Dial(
	ctx context.Context,
	url string,
	options ...TransportOptionFunc,
) (*Transport, error) {
	cfg := NewConfig(options...)
	dialer := cfg.Dialer
	if dialer == nil {
		dialer = &websocket.Dialer{
			Proxy:            http.ProxyFromEnvironment,
			HandshakeTimeout: cfg.HandshakeTimeout,
		}
	}
	conn, resp, err := dialer.DialContext(ctx, url, cfg.Header)
	if err != nil {
		if resp != nil {
			return nil, fmt.Errorf("%w: %s: %w", ErrHandshake, resp.Status, err)
		}
		return nil, fmt.Errorf("%w: %w", ErrHandshake, err)
	}
	return newTransport(conn, cfg), nil
}

// New returns a running Transport for an already established websocket connection
func New(conn *websocket.Conn, options ...TransportOptionFunc) *Transport {
	return newTransport(conn, NewConfig(options...))
}

func newTransport(conn *websocket.Conn, cfg Config) *Transport {
	t := &Transport{
		conn:             conn,
		config:           cfg,
		callChan:         make(chan *pendingCall),
		sendChan:         make(chan *outboundMessage),
		releaseChan:      make(chan uint64),
		pendingQueryChan: make(chan chan int),
		recvChan:         make(chan []byte),
		readErrChan:      make(chan error, 1),
		closeSignal:      utils.NewDoneSignal(),
		doneChan:         make(chan struct{}),
		readerDone:       make(chan struct{}),
	}
	if cfg.MaxPayload > 0 {
		conn.SetReadLimit(cfg.MaxPayload)
	}
	t.open.Store(true)
	go t.readLoop()
	go t.actorLoop()
	return t
}

// IsOpen returns whether the transport can still accept calls
func (t *Transport) IsOpen() bool {
	return t.open.Load()
}

// Done returns a channel which is closed once the transport has shut down
func (t *Transport) Done() <-chan struct{} {
	return t.doneChan
}

// Err returns the error that caused the transport to shut down, if any. It returns nil while
// the transport is open and after a shutdown requested via Close
func (t *Transport) Err() error {
	select {
	case <-t.doneChan:
		return t.closeErr
	default:
		return nil
	}
}

// PendingCall is a call which has been handed to the actor and is waiting for its reply
type PendingCall struct {
	t    *Transport
	call *pendingCall
}

// ID returns the request ID of the call
func (p *PendingCall) ID() uint64 {
	return p.call.id
}

// Wait blocks until the reply arrives, the transport closes or the context is done. A call
// abandoned because of the context has its pending entry released
func (p *PendingCall) Wait(ctx context.Context) ([]byte, error) {
	if p.t.config.RequestTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeoutCause(
			ctx,
			p.t.config.RequestTimeout,
			ErrRequestTimeout,
		)
		defer cancel()
	}
	// Once the actor has accepted the call it guarantees exactly one result
	select {
	case res := <-p.call.replyChan:
		return res.data, res.err
	case <-ctx.Done():
		p.Release()
		return nil, context.Cause(ctx)
	}
}

// Release drops the pending entry for a call whose reply is no longer wanted
func (p *PendingCall) Release() {
	p.t.release(p.call.id)
}

// Send hands the payload to the actor, which registers the pending entry and writes the frame
// before accepting any other call. Frames are therefore written in the order Send returns
func (t *Transport) Send(ctx context.Context, id uint64, payload []byte) (*PendingCall, error) {
	if !t.IsOpen() {
		return nil, t.closedErr()
	}
	call := &pendingCall{
		id:        id,
		payload:   payload,
		replyChan: make(chan callResult, 1),
	}
	select {
	case t.callChan <- call:
	case <-t.doneChan:
		return nil, t.closedErr()
	case <-ctx.Done():
		return nil, context.Cause(ctx)
	}
	return &PendingCall{t: t, call: call}, nil
}

// Call sends the payload and waits for the reply carrying the same request ID. The pending
// entry is always released, whether the call succeeds, fails, times out or is cancelled
func (t *Transport) Call(ctx context.Context, id uint64, payload []byte) ([]byte, error) {
	pending, err := t.Send(ctx, id, payload)
	if err != nil {
		return nil, err
	}
	return pending.Wait(ctx)
}

// Notify sends the payload without waiting for any reply
func (t *Transport) Notify(ctx context.Context, payload []byte) error {
	if !t.IsOpen() {
		return t.closedErr()
	}
	msg := &outboundMessage{
		payload: payload,
		errChan: make(chan error, 1),
	}
	select {
	case t.sendChan <- msg:
	case <-t.doneChan:
		return t.closedErr()
	case <-ctx.Done():
		return ctx.Err()
	}
	return <-msg.errChan
}

// Pending returns the number of calls currently waiting for a reply
func (t *Transport) Pending() int {
	respChan := make(chan int, 1)
	select {
	case t.pendingQueryChan <- respChan:
		return <-respChan
	case <-t.doneChan:
		return 0
	}
}

// Close sends a close frame and shuts down the transport. Any call still waiting for a reply
// fails with ErrConnectionClosed. It is safe to call Close more than once and from any goroutine
func (t *Transport) Close() error {
	t.closeSignal.Close()
	<-t.doneChan
	<-t.readerDone
	return nil
}

func (t *Transport) release(id uint64) {
	select {
	case t.releaseChan <- id:
	case <-t.doneChan:
	}
}

func (t *Transport) closedErr() error {
	select {
	case <-t.doneChan:
		if t.closeErr != nil {
			return fmt.Errorf("%w: %w", ErrConnectionClosed, t.closeErr)
		}
	default:
	}
	return ErrConnectionClosed
}

func (t *Transport) readLoop() {
	defer close(t.readerDone)
	for {
		_, data, err := t.conn.ReadMessage()
		if err != nil {
			select {
			case t.readErrChan <- err:
			case <-t.doneChan:
			}
			return
		}
		select {
		case t.recvChan <- data:
		case <-t.doneChan:
			return
		}
	}
}

func (t *Transport) actorLoop() {
	pending := make(map[uint64]chan callResult)
	var reason error
	defer func() {
		t.shutdown(pending, reason)
	}()
	for {
		select {
		case call := <-t.callChan:
			if _, ok := pending[call.id]; ok {
				call.replyChan <- callResult{
					err: fmt.Errorf("%w: %d", ErrDuplicateId, call.id),
				}
				continue
			}
			pending[call.id] = call.replyChan
			if err := t.write(call.payload); err != nil {
				delete(pending, call.id)
				call.replyChan <- callResult{err: err}
				reason = err
				return
			}
		case msg := <-t.sendChan:
			err := t.write(msg.payload)
			msg.errChan <- err
			if err != nil {
				reason = err
				return
			}
		case id := <-t.releaseChan:
			delete(pending, id)
		case respChan := <-t.pendingQueryChan:
			respChan <- len(pending)
		case data := <-t.recvChan:
			t.dispatch(pending, data)
		case err := <-t.readErrChan:
			reason = err
			return
		case <-t.closeSignal.GetCh():
			t.writeClose()
			return
		}
	}
}

func (t *Transport) dispatch(pending map[uint64]chan callResult, data []byte) {
	id, ok, err := jsonrpc.PeekID(data)
	if err != nil {
		t.config.Logger.Warn(
			fmt.Sprintf("dropping malformed frame: %s", err),
			"component", "network",
			"role", "client",
			"connection_id", t.config.ConnectionId,
		)
		return
	}
	if !ok {
		t.config.Logger.Warn(
			"dropping frame without request ID",
			"component", "network",
			"role", "client",
			"connection_id", t.config.ConnectionId,
		)
		return
	}
	replyChan, found := pending[id]
	if !found {
		t.config.Logger.Warn(
			fmt.Sprintf("dropping response for unknown request ID %d", id),
			"component", "network",
			"role", "client",
			"connection_id", t.config.ConnectionId,
		)
		return
	}
	delete(pending, id)
	replyChan <- callResult{data: data}
}

func (t *Transport) shutdown(pending map[uint64]chan callResult, reason error) {
	t.open.Store(false)
	t.closeErr = reason
	closedErr := ErrConnectionClosed
	if reason != nil {
		closedErr = fmt.Errorf("%w: %w", ErrConnectionClosed, reason)
	}
	for id, replyChan := range pending {
		replyChan <- callResult{err: closedErr}
		delete(pending, id)
	}
	close(t.doneChan)
	// This unblocks the reader if it's waiting on the socket
	_ = t.conn.Close()
	<-t.readerDone
	if reason != nil {
		t.config.Logger.Debug(
			fmt.Sprintf("connection closed: %s", reason),
			"component", "network",
			"role", "client",
			"connection_id", t.config.ConnectionId,
		)
	} else {
		t.config.Logger.Debug(
			"connection closed",
			"component", "network",
			"role", "client",
			"connection_id", t.config.ConnectionId,
		)
	}
	if t.config.CloseFunc != nil {
		t.config.CloseFunc(reason)
	}
}

func (t *Transport) write(payload []byte) error {
	if err := t.conn.SetWriteDeadline(t.writeDeadline()); err != nil {
		return fmt.Errorf("failed to set write deadline: %w", err)
	}
	if err := t.conn.WriteMessage(websocket.TextMessage, payload); err != nil {
		return fmt.Errorf("write failed: %w", err)
	}
	return nil
}

func (t *Transport) writeClose() {
	msg := websocket.FormatCloseMessage(websocket.CloseNormalClosure, "")
	if err := t.conn.WriteControl(websocket.CloseMessage, msg, t.writeDeadline()); err != nil {
		t.config.Logger.Debug(
			fmt.Sprintf("failed to send close frame: %s", err),
			"component", "network",
			"role", "client",
			"connection_id", t.config.ConnectionId,
		)
	}
}

func (t *Transport) writeDeadline() time.Time {
	if t.config.WriteTimeout <= 0 {
		return time.Time{}
	}
	return time.Now().Add(t.config.WriteTimeout)
}
