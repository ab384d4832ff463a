// Copyright 2026 The Prometheus Authors
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

package traffic

import (
	"context"
	"fmt"
	"log/slog"
	"math"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Rater returns the target rate at a point of the run. *Model implements it.
type Rater interface {
	Rate(elapsed time.Duration) float64
}

// Emitter publishes a tick, typically by pushing the running total
// to an aggregation endpoint.
type Emitter interface {
	Emit(ctx context.Context, t Tick) error
}

// State is the running state of a generator. It is owned by a single loop.
type State struct {
	Start   time.Time
	Elapsed time.Duration
	Total   float64
	Ticks   int
}

// Tick is the output of one loop iteration.
type Tick struct {
	Index     int
	Time      time.Time
	Elapsed   time.Duration
	RPS       float64
	Increment float64
	Total     float64
}

// NextTick advances s by one step taken at now.
func NextTick(s State, now time.Time, r Rater, step time.Duration) (Tick, State) {
	elapsed := now.Sub(s.Start)
	rps := r.Rate(elapsed)
	inc := Increment(rps, step)

	s.Elapsed = elapsed
	s.Total += inc
	s.Ticks++

	return Tick{
		Index:     s.Ticks,
		Time:      now,
		Elapsed:   elapsed,
		RPS:       rps,
		Increment: inc,
		Total:     s.Total,
	}, s
}

type metrics struct {
	ticks        prometheus.Counter
	pushFailures prometheus.Counter
	targetRPS    prometheus.Gauge
	generated    *prometheus.CounterVec
}

func newMetrics(reg prometheus.Registerer) *metrics {
	m := &metrics{
		ticks: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "synthrps",
			Name:      "ticks_total",
			Help:      "Total number of generator ticks.",
		}),
		pushFailures: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "synthrps",
			Name:      "push_failures_total",
			Help:      "Total number of ticks whose emit step failed.",
		}),
		targetRPS: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "synthrps",
			Name:      "target_rps",
			Help:      "Rate computed on the last tick.",
		}),
		generated: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "synthrps",
			Name:      "generated_requests_total",
			Help:      "Total synthetic requests accumulated by the generator.",
		}, []string{"service", "namespace"}),
	}
	if reg != nil {
		reg.MustRegister(m.ticks, m.pushFailures, m.targetRPS, m.generated)
	}
	return m
}

// Generator drives the tick loop.
type Generator struct {
	cfg     Config
	rater   Rater
	emitter Emitter
	logger  *slog.Logger
	metrics *metrics

	now   func() time.Time
	sleep func(context.Context, time.Duration) error
}

// NewGenerator wires a generator. reg may be nil when self-metrics are not exposed.
func NewGenerator(cfg Config, r Rater, e Emitter, logger *slog.Logger, reg prometheus.Registerer) *Generator {
	return &Generator{
		cfg:     cfg,
		rater:   r,
		emitter: e,
		logger:  logger,
		metrics: newMetrics(reg),
		now:     time.Now,
		sleep:   sleepContext,
	}
}

// Run ticks every Step until ctx is cancelled or the configured duration
// has been covered, returning the final state. Cancellation is a clean stop.
// A failed emit is logged and the loop carries on; the next successful
// emit carries the full total.
func (g *Generator) Run(ctx context.Context) State {
	s := State{Start: g.now()}
	g.logger.Info("starting traffic generator",
		"service", g.cfg.Service,
		"namespace", g.cfg.Namespace,
		"job", g.cfg.Job,
		"period", g.cfg.Period,
		"min", g.cfg.Min,
		"max", g.cfg.Max,
		"step", g.cfg.Step,
		"duration", g.cfg.Duration,
	)

	for {
		if ctx.Err() != nil {
			g.logger.Info("interrupted, stopping traffic generator", "ticks", s.Ticks, "total", s.Total)
			return s
		}

		var t Tick
		t, s = NextTick(s, g.now(), g.rater, g.cfg.Step)
		g.observe(t)

		if err := g.emitter.Emit(ctx, t); err != nil {
			g.metrics.pushFailures.Inc()
			g.logger.Error("failed to push to aggregation endpoint", "tick", t.Index, "err", err)
		}

		if int64(math.Floor(t.Elapsed.Seconds()))%10 == 0 {
			g.logger.Info("generated traffic",
				"service", g.cfg.Service,
				"rps", fmt.Sprintf("%.1f", t.RPS),
				"increment", fmt.Sprintf("%.1f", t.Increment),
				"total", fmt.Sprintf("%.0f", t.Total),
			)
		}

		if err := g.sleep(ctx, g.cfg.Step); err != nil {
			g.logger.Info("interrupted, stopping traffic generator", "ticks", s.Ticks, "total", s.Total)
			return s
		}

		if g.cfg.Duration > 0 && time.Duration(s.Ticks)*g.cfg.Step >= g.cfg.Duration {
			g.logger.Info("duration limit reached, stopping traffic generator", "ticks", s.Ticks, "total", s.Total)
			return s
		}
	}
}

func (g *Generator) observe(t Tick) {
	g.metrics.ticks.Inc()
	g.metrics.targetRPS.Set(t.RPS)
	g.metrics.generated.WithLabelValues(g.cfg.Service, g.cfg.Namespace).Add(t.Increment)
}

func sleepContext(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
