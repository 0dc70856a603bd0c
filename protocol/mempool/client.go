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

package mempool

import (
	"context"
	"fmt"
	"sync"

	ogmios "github.com/blinklabs-io/gogmios"
	"github.com/google/uuid"
)

// Client implements the mempool monitoring client
type Client struct {
	ic           ogmios.Interaction
	config       Config
	connectionId string
	busyMutex    sync.Mutex
	acquired     bool
	acquiredSlot uint64
}

// NewClient returns a new mempool monitoring client which issues requests over ic
func NewClient(ic ogmios.Interaction, options ...MempoolOptionFunc) *Client {
	c := &Client{
		ic:     ic,
		config: NewConfig(options...),
	}
	if tmp, ok := ic.(interface{ ConnectionId() uuid.UUID }); ok {
		c.connectionId = tmp.ConnectionId().String()
	}
	return c
}

func (c *Client) logCall(msg string) {
	c.config.Logger.Debug(
		msg,
		"component", "network",
		"protocol", ProtocolName,
		"role", "client",
		"connection_id", c.connectionId,
	)
}

// Acquire takes a snapshot of the mempool and returns the slot it was taken at. Calling it again
// waits for the mempool to change and takes a new snapshot
func (c *Client) Acquire(ctx context.Context) (uint64, error) {
	c.logCall("calling Acquire()")
	c.busyMutex.Lock()
	defer c.busyMutex.Unlock()
	return c.acquire(ctx)
}

func (c *Client) acquire(ctx context.Context) (uint64, error) {
	result, err := ogmios.Request[acquireResult](ctx, c.ic, MethodAcquireMempool, nil)
	if err != nil {
		return 0, err
	}
	c.acquired = true
	c.acquiredSlot = result.Slot
	return result.Slot, nil
}

// AcquiredSlot returns the slot of the current snapshot, if any
func (c *Client) AcquiredSlot() (uint64, bool) {
	c.busyMutex.Lock()
	defer c.busyMutex.Unlock()
	return c.acquiredSlot, c.acquired
}

// Release releases the current snapshot
func (c *Client) Release(ctx context.Context) error {
	c.logCall("calling Release()")
	c.busyMutex.Lock()
	defer c.busyMutex.Unlock()
	if !c.acquired {
		return nil
	}
	if _, err := c.ic.Call(ctx, MethodReleaseMempool, nil); err != nil {
		return err
	}
	c.acquired = false
	return nil
}

// HasTransaction returns whether the snapshot contains the transaction. A snapshot is acquired
// first if needed
func (c *Client) HasTransaction(ctx context.Context, txId string) (bool, error) {
	c.logCall(fmt.Sprintf("calling HasTransaction(txId: %s)", txId))
	c.busyMutex.Lock()
	defer c.busyMutex.Unlock()
	if err := c.ensureAcquired(ctx); err != nil {
		return false, err
	}
	result, err := ogmios.Request[hasTransactionResult](
		ctx,
		c.ic,
		MethodHasTransaction,
		hasTransactionParams{ID: txId},
	)
	if err != nil {
		return false, err
	}
	return bool(result), nil
}

// NextTransactionId returns the ID of the next transaction in the snapshot. The second return
// value is false once the snapshot is exhausted
func (c *Client) NextTransactionId(ctx context.Context) (string, bool, error) {
	c.logCall("calling NextTransactionId()")
	tx, err := c.nextTransaction(ctx, nextTransactionParams{})
	if err != nil || tx == nil {
		return "", false, err
	}
	return tx.ID, true, nil
}

// NextTransaction returns the next transaction in the snapshot with all fields. It returns nil
// once the snapshot is exhausted
func (c *Client) NextTransaction(ctx context.Context) (*Transaction, error) {
	c.logCall("calling NextTransaction()")
	return c.nextTransaction(ctx, nextTransactionParams{Fields: "all"})
}

func (c *Client) nextTransaction(ctx context.Context, params nextTransactionParams) (*Transaction, error) {
	c.busyMutex.Lock()
	defer c.busyMutex.Unlock()
	if err := c.ensureAcquired(ctx); err != nil {
		return nil, err
	}
	var reqParams any
	if params.Fields != "" {
		reqParams = params
	}
	result, err := ogmios.Request[nextTransactionResult](ctx, c.ic, MethodNextTransaction, reqParams)
	if err != nil {
		return nil, err
	}
	return result.Transaction, nil
}

// Transactions returns every transaction remaining in the snapshot
func (c *Client) Transactions(ctx context.Context) ([]Transaction, error) {
	var ret []Transaction
	for {
		tx, err := c.NextTransaction(ctx)
		if err != nil {
			return nil, err
		}
		if tx == nil {
			return ret, nil
		}
		ret = append(ret, *tx)
	}
}

// Sizes returns the size and capacity of the snapshot
func (c *Client) Sizes(ctx context.Context) (Sizes, error) {
	c.logCall("calling Sizes()")
	c.busyMutex.Lock()
	defer c.busyMutex.Unlock()
	if err := c.ensureAcquired(ctx); err != nil {
		return Sizes{}, err
	}
	return ogmios.Request[Sizes](ctx, c.ic, MethodSizeOfMempool, nil)
}

func (c *Client) ensureAcquired(ctx context.Context) error {
	if c.acquired {
		return nil
	}
	_, err := c.acquire(ctx)
	return err
}
