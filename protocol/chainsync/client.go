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

package chainsync

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	ogmios "github.com/blinklabs-io/gogmios"
	"github.com/blinklabs-io/gogmios/protocol/common"
	"github.com/google/uuid"
)

// RunState is the lifecycle state of a chain-sync client
type RunState int32

const (
	StateNotStarted RunState = iota
	StateIntersecting
	StateRunning
	StateStopped
	StateFailed
)

func (s RunState) String() string {
	switch s {
	case StateNotStarted:
		return "NotStarted"
	case StateIntersecting:
		return "Intersecting"
	case StateRunning:
		return "Running"
	case StateStopped:
		return "Stopped"
	case StateFailed:
		return "Failed"
	default:
		return fmt.Sprintf("RunState(%d)", int32(s))
	}
}

// Client implements the chain-sync client. It follows the server chain from an intersection and
// hands each event to a Handler
type Client struct {
	ic                ogmios.Interaction
	handler           Handler
	config            Config
	connectionId      string
	mutex             sync.Mutex
	state             RunState
	err               error
	cancel            context.CancelFunc
	doneChan          chan struct{}
	shutdownRequested bool
}

// handlerError marks an error returned by the Handler, so it's never mistaken for a side effect
// of shutting down
type handlerError struct {
	err error
}

func (e handlerError) Error() string {
	return e.err.Error()
}

// NewClient returns a new chain-sync client which issues requests over ic
func NewClient(
	ic ogmios.Interaction,
	handler Handler,
	options ...ChainSyncOptionFunc,
) *Client {
	c := &Client{
		ic:       ic,
		handler:  handler,
		config:   NewConfig(options...),
		state:    StateNotStarted,
		doneChan: make(chan struct{}),
	}
	// Nothing is running yet
	close(c.doneChan)
	if tmp, ok := ic.(interface{ ConnectionId() uuid.UUID }); ok {
		c.connectionId = tmp.ConnectionId().String()
	}
	return c
}

// Resume finds an intersection with the provided points, most recent first, and starts syncing
// from it in the background. With no points, syncing starts from the origin. The context only
// applies to finding the intersection
func (c *Client) Resume(ctx context.Context, points ...common.Point) (Intersection, error) {
	c.mutex.Lock()
	if c.state == StateIntersecting || c.state == StateRunning {
		c.mutex.Unlock()
		return Intersection{}, ErrAlreadyRunning
	}
	c.state = StateIntersecting
	c.err = nil
	c.shutdownRequested = false
	doneChan := make(chan struct{})
	c.doneChan = doneChan
	c.mutex.Unlock()

	// Use origin if no intersect points were specified
	if len(points) == 0 {
		points = []common.Point{common.NewPointOrigin()}
	}
	c.config.Logger.Debug(
		fmt.Sprintf("calling Resume(points: %s)", formatPoints(points)),
		"component", "network",
		"protocol", ProtocolName,
		"role", "client",
		"connection_id", c.connectionId,
	)
	intersection, err := FindIntersection(ctx, c.ic, points)

	c.mutex.Lock()
	defer c.mutex.Unlock()
	if err == nil && c.shutdownRequested {
		err = ogmios.ErrConnectionClosed
	}
	if err != nil {
		switch {
		case c.shutdownRequested:
			c.state = StateStopped
		case errors.Is(err, ErrIntersectNotFound):
			c.state = StateNotStarted
		default:
			c.state = StateFailed
			c.err = err
		}
		close(doneChan)
		return Intersection{}, err
	}
	c.config.Logger.Debug(
		fmt.Sprintf("found intersection at %s, tip at %s", intersection.Point, intersection.Tip),
		"component", "network",
		"protocol", ProtocolName,
		"role", "client",
		"connection_id", c.connectionId,
	)
	c.config.Metrics.TipSlot.Set(float64(intersection.Tip.Point.Slot))
	loopCtx, cancel := context.WithCancel(context.Background())
	c.cancel = cancel
	c.state = StateRunning
	go c.syncLoop(loopCtx, doneChan)
	return intersection, nil
}

// Shutdown stops syncing and closes the interaction context. It waits for the sync loop to exit
// or for ctx to be done. It must not be called from within a Handler, which should return
// ErrStopSyncProcess instead
func (c *Client) Shutdown(ctx context.Context) error {
	c.mutex.Lock()
	c.shutdownRequested = true
	doneChan := c.doneChan
	cancel := c.cancel
	c.mutex.Unlock()
	c.config.Logger.Debug(
		"stopping client protocol",
		"component", "network",
		"protocol", ProtocolName,
		"connection_id", c.connectionId,
	)
	if cancel != nil {
		cancel()
	}
	err := c.ic.Shutdown()
	select {
	case <-doneChan:
	case <-ctx.Done():
		return ctx.Err()
	}
	return err
}

// IsRunning returns whether the sync loop is running
func (c *Client) IsRunning() bool {
	return c.State() == StateRunning
}

// State returns the current lifecycle state
func (c *Client) State() RunState {
	c.mutex.Lock()
	defer c.mutex.Unlock()
	return c.state
}

// Err returns the reason the client entered StateFailed
func (c *Client) Err() error {
	c.mutex.Lock()
	defer c.mutex.Unlock()
	return c.err
}

// Done returns a channel which is closed when the current sync run ends
func (c *Client) Done() <-chan struct{} {
	c.mutex.Lock()
	defer c.mutex.Unlock()
	return c.doneChan
}

// Wait blocks until the current sync run ends and returns the failure reason, if any
func (c *Client) Wait(ctx context.Context) error {
	select {
	case <-c.Done():
		return c.Err()
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (c *Client) syncLoop(ctx context.Context, doneChan chan struct{}) {
	err := c.runLoop(ctx)
	// Shutdown cancels ctx before closing the connection, so a handler may observe the
	// cancellation first
	canceled := ctx.Err() != nil
	c.mutex.Lock()
	c.cancel()
	c.cancel = nil
	var hErr handlerError
	switch {
	case errors.As(err, &hErr) && c.shutdownRequested && canceled &&
		errors.Is(hErr.err, context.Canceled):
		c.state = StateStopped
	case errors.As(err, &hErr):
		c.state = StateFailed
		c.err = hErr.err
	case err == nil, c.shutdownRequested:
		c.state = StateStopped
	default:
		c.state = StateFailed
		c.err = err
	}
	state := c.state
	c.mutex.Unlock()
	if state == StateFailed {
		c.config.Logger.Debug(
			fmt.Sprintf("sync stopped: %s", c.Err()),
			"component", "network",
			"protocol", ProtocolName,
			"role", "client",
			"connection_id", c.connectionId,
		)
	} else {
		c.config.Logger.Debug(
			"sync stopped",
			"component", "network",
			"protocol", ProtocolName,
			"role", "client",
			"connection_id", c.connectionId,
		)
	}
	close(doneChan)
}

// runLoop keeps up to InFlight nextBlock requests outstanding and dispatches their results in the
// order they were sent. It returns nil when the connection has closed
func (c *Client) runLoop(ctx context.Context) error {
	var queue []*ogmios.PendingRequest
	defer func() {
		for _, req := range queue {
			req.Release()
		}
	}()
	for {
		for len(queue) < c.config.InFlight {
			if !c.ic.IsOpen() {
				break
			}
			req, err := c.ic.Send(ctx, MethodNextBlock, nil)
			if err != nil {
				if errors.Is(err, ogmios.ErrSocketNotOpen) {
					break
				}
				return err
			}
			queue = append(queue, req)
		}
		if len(queue) == 0 {
			return nil
		}
		req := queue[0]
		queue = queue[1:]
		result, err := req.Wait(ctx)
		if err != nil {
			return err
		}
		event, err := DecodeChainEvent(result)
		if err != nil {
			return &ogmios.ProtocolError{Method: MethodNextBlock, Err: err}
		}
		if err := c.dispatch(ctx, event); err != nil {
			return err
		}
	}
}

func (c *Client) dispatch(ctx context.Context, event ChainEvent) error {
	var point common.Point
	var tip common.Tip
	start := time.Now()
	switch e := event.(type) {
	case RollForwardEvent:
		tip = e.Tip
		var err error
		if point, err = e.Block.Point(); err != nil {
			return &ogmios.ProtocolError{Method: MethodNextBlock, Err: err}
		}
		c.config.Logger.Debug(
			fmt.Sprintf("roll forward: era = %s, slot = %d, height = %d, id = %s", e.Block.Era, e.Block.Slot, e.Block.Height, e.Block.ID),
			"component", "network",
			"protocol", ProtocolName,
			"role", "client",
			"connection_id", c.connectionId,
		)
		c.config.Metrics.RollForwards.Add(1)
		if err := c.handler.RollForward(ctx, e.Block, e.Tip); err != nil {
			return handlerError{err: err}
		}
	case RollBackwardEvent:
		tip = e.Tip
		point = e.Point
		c.config.Logger.Debug(
			fmt.Sprintf("roll backward: point = %s", e.Point),
			"component", "network",
			"protocol", ProtocolName,
			"role", "client",
			"connection_id", c.connectionId,
		)
		c.config.Metrics.RollBackwards.Add(1)
		if err := c.handler.RollBackward(ctx, e.Point, e.Tip); err != nil {
			return handlerError{err: err}
		}
	}
	c.config.Metrics.HandlerDuration.Observe(time.Since(start).Seconds())
	c.config.Metrics.TipSlot.Set(float64(tip.Point.Slot))
	c.config.Metrics.SyncedSlot.Set(float64(point.Slot))
	if c.config.CheckpointStore != nil {
		var err error
		if event.Direction() == DirectionForward {
			err = c.config.CheckpointStore.Advance(point)
		} else {
			err = c.config.CheckpointStore.Rollback(point)
		}
		if err != nil {
			return fmt.Errorf("failed to record checkpoint: %w", err)
		}
	}
	return nil
}

func formatPoints(points []common.Point) string {
	tmp := make([]string, 0, len(points))
	for _, point := range points {
		tmp = append(tmp, point.String())
	}
	return "[" + strings.Join(tmp, ", ") + "]"
}
