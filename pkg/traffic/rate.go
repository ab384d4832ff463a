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

// Package traffic generates a synthetic request rate and integrates it
// into a monotonically increasing counter.
package traffic

import (
	"errors"
	"fmt"
	"math"
	"time"
)

// Source provides uniform random values in [0, 1).
// *rand.Rand from math/rand and math/rand/v2 both satisfy it.
type Source interface {
	Float64() float64
}

// Config describes the shape of the generated signal.
type Config struct {
	Period      time.Duration
	Min         float64
	Max         float64
	Spike       float64
	SpikeChance float64
	Jitter      float64
	// Duration of zero runs until cancelled.
	Duration time.Duration
	Step     time.Duration

	Service   string
	Namespace string
	Job       string
}

// DefaultConfig mirrors the CLI defaults.
func DefaultConfig() Config {
	return Config{
		Period:      300 * time.Second,
		Min:         10,
		Max:         200,
		Spike:       1.6,
		SpikeChance: 0.02,
		Jitter:      0.1,
		Step:        time.Second,
		Service:     "orders",
		Namespace:   "default",
		Job:         "synthetic-traffic",
	}
}

// Validate reports the first setting that would make the generator misbehave.
func (c Config) Validate() error {
	switch {
	case c.Period <= 0:
		return fmt.Errorf("period must be positive, got %s", c.Period)
	case c.Step <= 0:
		return fmt.Errorf("step must be positive, got %s", c.Step)
	case c.Duration < 0:
		return fmt.Errorf("duration must not be negative, got %s", c.Duration)
	case c.Min < 0:
		return fmt.Errorf("min rate must not be negative, got %g", c.Min)
	case c.Max < c.Min:
		return fmt.Errorf("max rate %g is below min rate %g", c.Max, c.Min)
	case c.Spike <= 0:
		return fmt.Errorf("spike multiplier must be positive, got %g", c.Spike)
	case c.SpikeChance < 0 || c.SpikeChance > 1:
		return fmt.Errorf("spike probability must be within [0, 1], got %g", c.SpikeChance)
	case c.Jitter < 0 || c.Jitter > 1:
		return fmt.Errorf("jitter must be within [0, 1], got %g", c.Jitter)
	case c.Service == "":
		return errors.New("service label must not be empty")
	case c.Namespace == "":
		return errors.New("namespace label must not be empty")
	case c.Job == "":
		return errors.New("job must not be empty")
	}
	return nil
}

// Model computes the target rate for a point in the run.
type Model struct {
	cfg Config
	rnd Source
}

// NewModel returns a model drawing noise and spikes from rnd.
func NewModel(cfg Config, rnd Source) *Model {
	return &Model{cfg: cfg, rnd: rnd}
}

// BaseRate is the pure sinusoid, always within [Min, Max].
func (m *Model) BaseRate(elapsed time.Duration) float64 {
	period := m.cfg.Period.Seconds()
	phase := math.Mod(elapsed.Seconds(), period) / period
	base := (math.Sin(2*math.Pi*phase) + 1) / 2
	return m.cfg.Min + base*(m.cfg.Max-m.cfg.Min)
}

// Rate applies jitter and the occasional spike on top of BaseRate.
// The result is not clamped to [Min, Max].
func (m *Model) Rate(elapsed time.Duration) float64 {
	rps := m.BaseRate(elapsed)
	rps *= (1 - m.cfg.Jitter) + 2*m.cfg.Jitter*m.rnd.Float64()
	if m.rnd.Float64() < m.cfg.SpikeChance {
		rps *= m.cfg.Spike
	}
	return rps
}

// Increment converts a rate into the counter delta for one step.
// Negative rates never decrease the counter.
func Increment(rps float64, step time.Duration) float64 {
	return math.Max(0, rps*step.Seconds())
}
