// Copyright 2025 TimeWtr
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
// http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	mc       *Prometheus
	registry *prometheus.Registry // Indicator registry
)

// GetHandler Return HTTP handler for docking with various frameworks
func GetHandler() http.Handler {
	return promhttp.HandlerFor(
		registry,
		promhttp.HandlerOpts{EnableOpenMetrics: true},
	)
}

var _ Collector = (*Prometheus)(nil)

type Prometheus struct {
	enabled       bool // Whether to enable indicator collection
	readCounter   *prometheus.CounterVec
	readSizes     prometheus.Counter
	readErrors    prometheus.Counter
	refillCounter *prometheus.CounterVec
	refillSizes   prometheus.Counter
	refillLatency prometheus.Histogram
	waiters       prometheus.Gauge
	closeCounts   prometheus.Counter
	closeErrors   prometheus.Counter
	closeLatency  prometheus.Histogram
	poolAlloc     prometheus.Counter
}

func NewPrometheus() *Prometheus {
	mc = &Prometheus{}
	registry = prometheus.NewRegistry()
	return mc.register()
}

func (p *Prometheus) register() *Prometheus {
	const namespace = "pagestream"

	p.readCounter = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "read_counts_total",
		Help:      "Number of bytes-to-consumer read operations.",
	}, []string{"result"})
	registry.MustRegister(p.readCounter)

	p.readSizes = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "read_bytes_total",
		Help:      "Total bytes handed to the consumer.",
	})
	registry.MustRegister(p.readSizes)

	p.readErrors = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "read_errors_total",
		Help:      "Number of read errors.",
	})
	registry.MustRegister(p.readErrors)

	p.refillCounter = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "refill_counts_total",
		Help:      "Number of page source refills, by outcome.",
	}, []string{"status"})
	registry.MustRegister(p.refillCounter)

	p.refillSizes = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "refill_bytes_total",
		Help:      "Total bytes pulled from the page source.",
	})
	registry.MustRegister(p.refillSizes)

	p.refillLatency = prometheus.NewHistogram(prometheus.HistogramOpts{
		Namespace: namespace,
		Name:      "refill_latency_seconds",
		Help:      "Latency of page source refills.",
	})
	registry.MustRegister(p.refillLatency)

	p.waiters = prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: namespace,
		Name:      "async_waiters",
		Help:      "Number of async waiters currently parked.",
	})
	registry.MustRegister(p.waiters)

	p.closeCounts = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "close_total",
		Help:      "Number of stream closes.",
	})
	registry.MustRegister(p.closeCounts)

	p.closeErrors = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "close_errors_total",
		Help:      "Number of stream closes that surfaced an error.",
	})
	registry.MustRegister(p.closeErrors)

	p.closeLatency = prometheus.NewHistogram(prometheus.HistogramOpts{
		Namespace: namespace,
		Name:      "close_latency_seconds",
		Help:      "Latency of stream close.",
	})
	registry.MustRegister(p.closeLatency)

	p.poolAlloc = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "pool_alloc_total",
		Help:      "Number of page allocator allocations.",
	})
	registry.MustRegister(p.poolAlloc)

	return p
}

func (p *Prometheus) CollectSwitcher(enable bool) {
	p.enabled = enable
}

func (p *Prometheus) ObserveRead(counts, bytes, errors float64) {
	if !p.enabled {
		return
	}

	p.readCounter.With(prometheus.Labels{"result": "success"}).Add(counts)
	p.readSizes.Add(bytes)
	p.readErrors.Add(errors)
}

func (p *Prometheus) ObserveRefill(status RefillStatus, bytes float64, latencySeconds float64) {
	if !p.enabled {
		return
	}

	switch status {
	case RefillSuccess:
		p.refillCounter.With(prometheus.Labels{"status": "success"}).Inc()
		p.refillSizes.Add(bytes)
		p.refillLatency.Observe(latencySeconds)
	case RefillEOF:
		p.refillCounter.With(prometheus.Labels{"status": "eof"}).Add(bytes)
	case RefillPaused:
		p.refillCounter.With(prometheus.Labels{"status": "paused"}).Add(bytes)
	}
}

func (p *Prometheus) ObserveWait(op WaitOp, delta float64) {
	if !p.enabled {
		return
	}

	if op == WaitBegin {
		p.waiters.Add(delta)
		return
	}
	p.waiters.Add(-delta)
}

func (p *Prometheus) ObserveClose(latencySeconds float64, failed bool) {
	if !p.enabled {
		return
	}

	p.closeCounts.Inc()
	p.closeLatency.Observe(latencySeconds)
	if failed {
		p.closeErrors.Inc()
	}
}

func (p *Prometheus) AllocInc(delta float64) {
	if !p.enabled {
		return
	}

	p.poolAlloc.Add(delta)
}
