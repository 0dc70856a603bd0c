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
	"github.com/go-kit/kit/metrics"
	"github.com/go-kit/kit/metrics/discard"
	"github.com/go-kit/kit/metrics/prometheus"
	stdprometheus "github.com/prometheus/client_golang/prometheus"
)

const MetricsSubsystem = "chainsync"

// Metrics contains metrics exposed by the chain-sync client
type Metrics struct {
	// Number of RollForward events dispatched
	RollForwards metrics.Counter
	// Number of RollBackward events dispatched
	RollBackwards metrics.Counter
	// Slot of the server tip as of the last event
	TipSlot metrics.Gauge
	// Slot of the last point processed by the handler
	SyncedSlot metrics.Gauge
	// Time spent in the handler, in seconds
	HandlerDuration metrics.Histogram
}

// PrometheusMetrics returns Metrics backed by collectors registered with reg
func PrometheusMetrics(reg stdprometheus.Registerer, namespace string) *Metrics {
	rollForwards := stdprometheus.NewCounterVec(stdprometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: MetricsSubsystem,
		Name:      "roll_forwards",
		Help:      "Number of roll forward events dispatched.",
	}, []string{})
	rollBackwards := stdprometheus.NewCounterVec(stdprometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: MetricsSubsystem,
		Name:      "roll_backwards",
		Help:      "Number of roll backward events dispatched.",
	}, []string{})
	tipSlot := stdprometheus.NewGaugeVec(stdprometheus.GaugeOpts{
		Namespace: namespace,
		Subsystem: MetricsSubsystem,
		Name:      "tip_slot",
		Help:      "Slot of the server chain tip.",
	}, []string{})
	syncedSlot := stdprometheus.NewGaugeVec(stdprometheus.GaugeOpts{
		Namespace: namespace,
		Subsystem: MetricsSubsystem,
		Name:      "synced_slot",
		Help:      "Slot of the last point processed.",
	}, []string{})
	handlerDuration := stdprometheus.NewHistogramVec(stdprometheus.HistogramOpts{
		Namespace: namespace,
		Subsystem: MetricsSubsystem,
		Name:      "handler_duration_seconds",
		Help:      "Time spent handling chain events.",
		Buckets:   stdprometheus.ExponentialBuckets(0.0001, 4, 10),
	}, []string{})
	reg.MustRegister(rollForwards, rollBackwards, tipSlot, syncedSlot, handlerDuration)
	return &Metrics{
		RollForwards:    prometheus.NewCounter(rollForwards),
		RollBackwards:   prometheus.NewCounter(rollBackwards),
		TipSlot:         prometheus.NewGauge(tipSlot),
		SyncedSlot:      prometheus.NewGauge(syncedSlot),
		HandlerDuration: prometheus.NewHistogram(handlerDuration),
	}
}

// NopMetrics returns no-op Metrics
func NopMetrics() *Metrics {
	return &Metrics{
		RollForwards:    discard.NewCounter(),
		RollBackwards:   discard.NewCounter(),
		TipSlot:         discard.NewGauge(),
		SyncedSlot:      discard.NewGauge(),
		HandlerDuration: discard.NewHistogram(),
	}
}
