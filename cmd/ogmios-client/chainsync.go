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

package main

import (
	"context"
	"encoding/hex"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	ogmios "github.com/blinklabs-io/gogmios"
	"github.com/blinklabs-io/gogmios/checkpoint"
	"github.com/blinklabs-io/gogmios/protocol/chainsync"
	"github.com/blinklabs-io/gogmios/protocol/common"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"golang.org/x/sync/errgroup"
)

const metricsNamespace = "ogmios_client"

type eraPoint struct {
	slot uint64
	id   string
}

// Intersect points (last block of previous era) for each era on testnet/mainnet. A nil entry
// means the chain origin
var eraIntersect = map[string]map[string]*eraPoint{
	"mainnet": {
		"genesis": nil,
		// Chain genesis, but explicit
		"byron": nil,
		// Last block of epoch 207 (Byron era)
		"shelley": {
			4492799,
			"f8084c61b6a238acec985b59310b6ecec49c0ab8352249afd7268da5cff2a457",
		},
		// Last block of epoch 235 (Shelley era)
		"allegra": {
			16588737,
			"4e9bbbb67e3ae262133d94c3da5bffce7b1127fc436e7433b87668dba34c354a",
		},
		// Last block of epoch 250 (Allegra era)
		"mary": {
			23068793,
			"69c44ac1dda2ec74646e4223bc804d9126f719b1c245dadc2ad65e8de1b276d7",
		},
		// Last block of epoch 289 (Mary era)
		"alonzo": {
			39916796,
			"e72579ff89dc9ed325b723a33624b596c08141c7bd573ecfff56a1f7229e4d09",
		},
		// Last block of epoch 364 (Alonzo era)
		"babbage": {
			72316796,
			"c58a24ba8203e7629422a24d9dc68ce2ed495420bf40d9dab124373655161a20",
		},
		// Last block of epoch 506 (Babbage era)
		"conway": {
			133660799,
			"e757d57eb8dc9500a61c60a39fadb63d9be6973ba96ae337fd24453d4d15c343",
		},
	},
	"preprod": {
		"genesis": nil,
		"alonzo":  nil,
	},
	"preview": {
		"genesis": nil,
		"alonzo":  nil,
		// Last block of epoch 3 (Alonzo era)
		"babbage": {
			345594,
			"e47ac07272e95d6c3dc8279def7b88ded00e310f99ac3dfbae48ed9ff55e6001",
		},
	},
}

// eraStartPoint returns the point to intersect at in order to start syncing with the first block
// of the given era
func eraStartPoint(network string, era string) (common.Point, error) {
	eras, ok := eraIntersect[network]
	if !ok {
		if era != "genesis" {
			return common.Point{}, fmt.Errorf(
				"only 'genesis' is supported for --start-era for network %q",
				network,
			)
		}
		return common.NewPointOrigin(), nil
	}
	tmpPoint, ok := eras[era]
	if !ok {
		return common.Point{}, fmt.Errorf("unknown era '%s' specified as chain-sync start point", era)
	}
	if tmpPoint == nil {
		return common.NewPointOrigin(), nil
	}
	hash, err := hex.DecodeString(tmpPoint.id)
	if err != nil {
		return common.Point{}, err
	}
	return common.NewPoint(tmpPoint.slot, hash), nil
}

func newChainSyncCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "chain-sync",
		Short: "Follow the chain and print each block",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runChainSync(cmd.Context())
		},
	}
	cmd.Flags().String("start-era", "genesis", "era which to start chain-sync at")
	cmd.Flags().Bool("tip", false, "start chain-sync at current chain tip")
	cmd.Flags().String("point", "", "start chain-sync at a point, as <slot>.<id> or 'origin'")
	cmd.Flags().Int("max-blocks", 0, "stop after this many blocks, 0 for no limit")
	cmd.Flags().String("checkpoint-file", "", "file used to persist recent points and resume from them")
	cmd.Flags().Int("checkpoint-depth", checkpoint.DefaultDepth, "number of recent points to keep")
	cmd.Flags().Int("in-flight", chainsync.DefaultInFlight, "number of pipelined next block requests")
	cmd.Flags().String("metrics-listen", "", "address to serve Prometheus metrics on, such as :9090")
	return cmd
}

// blockPrinter prints each event and stops after a fixed number of blocks
type blockPrinter struct {
	maxBlocks int
	count     int
}

func (p *blockPrinter) RollForward(_ context.Context, block common.Block, tip common.Tip) error {
	era := block.Era
	switch {
	case block.IsEBB():
		era = "byron (EBB)"
	case block.IsBFT():
		era = "byron"
	}
	fmt.Printf(
		"era = %s, slot = %d, block_no = %d, id = %s, txs = %d, tip = %s\n",
		era,
		block.Slot,
		block.Height,
		block.ID,
		len(block.Transactions),
		tip,
	)
	p.count++
	if p.maxBlocks > 0 && p.count >= p.maxBlocks {
		return chainsync.ErrStopSyncProcess
	}
	return nil
}

func (p *blockPrinter) RollBackward(_ context.Context, point common.Point, tip common.Tip) error {
	fmt.Printf("roll backward: point = %s, tip = %s\n", point, tip)
	return nil
}

func runChainSync(ctx context.Context) error {
	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()
	logger := newLogger()

	var points []common.Point
	switch {
	case viper.GetString("point") != "":
		point, err := common.ParsePointString(viper.GetString("point"))
		if err != nil {
			return err
		}
		points = append(points, point)
	case !viper.GetBool("tip"):
		point, err := eraStartPoint(selectedNetwork().Name, viper.GetString("start-era"))
		if err != nil {
			return err
		}
		points = append(points, point)
	}

	ic, err := connect(ctx, logger, ogmios.InteractionTypeLongRunning)
	if err != nil {
		return err
	}

	syncOpts := []chainsync.ChainSyncOptionFunc{
		chainsync.WithLogger(logger),
		chainsync.WithInFlight(viper.GetInt("in-flight")),
	}
	if path := viper.GetString("checkpoint-file"); path != "" {
		store, err := checkpoint.NewFileStore(path, viper.GetInt("checkpoint-depth"))
		if err != nil {
			_ = ic.Shutdown()
			return err
		}
		stored, err := store.Points()
		if err != nil {
			_ = ic.Shutdown()
			return err
		}
		if len(stored) > 0 {
			logger.Info(fmt.Sprintf("resuming from %d checkpoint(s) in %s", len(stored), path))
			points = stored
		}
		syncOpts = append(syncOpts, chainsync.WithCheckpointStore(store))
	}
	var registry *prometheus.Registry
	if viper.GetString("metrics-listen") != "" {
		registry = prometheus.NewRegistry()
		syncOpts = append(
			syncOpts,
			chainsync.WithMetrics(chainsync.PrometheusMetrics(registry, metricsNamespace)),
		)
	}

	if len(points) == 0 {
		// The origin is always on the chain, and the reply carries the tip
		origin, err := chainsync.FindIntersection(ctx, ic, []common.Point{common.NewPointOrigin()})
		if err != nil {
			_ = ic.Shutdown()
			return fmt.Errorf("failed to get current tip: %w", err)
		}
		points = append(points, origin.Tip.Point)
	}

	client := chainsync.NewClient(
		ic,
		&blockPrinter{maxBlocks: viper.GetInt("max-blocks")},
		syncOpts...,
	)
	intersection, err := client.Resume(ctx, points...)
	if err != nil {
		_ = ic.Shutdown()
		return fmt.Errorf("failed to start chain-sync: %w", err)
	}
	logger.Info(
		fmt.Sprintf("intersection found at %s, tip is %s", intersection.Point, intersection.Tip),
	)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return client.Shutdown(shutdownCtx)
	})
	if registry != nil {
		g.Go(func() error {
			return serveMetrics(gctx, logger, viper.GetString("metrics-listen"), registry)
		})
	}
	// A finished sync run ends the group
	g.Go(func() error {
		select {
		case <-client.Done():
			// Reaching --max-blocks stops the handler with ErrStopSyncProcess
			if client.State() == chainsync.StateFailed &&
				!errors.Is(client.Err(), chainsync.ErrStopSyncProcess) {
				return client.Err()
			}
			return errSyncFinished
		case <-gctx.Done():
			return nil
		}
	})
	if err := g.Wait(); err != nil && !errors.Is(err, errSyncFinished) {
		return err
	}
	return nil
}

var errSyncFinished = errors.New("chain-sync finished")

func serveMetrics(
	ctx context.Context,
	logger *slog.Logger,
	address string,
	registry *prometheus.Registry,
) error {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(registry, promhttp.HandlerOpts{}))
	server := &http.Server{
		Addr:              address,
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}
	go func() {
		<-ctx.Done()
		_ = server.Close()
	}()
	logger.Info(fmt.Sprintf("serving metrics on %s/metrics", address))
	if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}
