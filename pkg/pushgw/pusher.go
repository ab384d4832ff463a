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

// Package pushgw pushes the synthetic request counter to a Prometheus Pushgateway.
package pushgw

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/push"

	"github.com/prometheus/synthetic-traffic/pkg/traffic"
)

const defaultMetricName = "http_requests_total"

type Config struct {
	URL        string
	Job        string
	Service    string
	Namespace  string
	MetricName string
	Timeout    time.Duration
}

// Pusher owns the exported counter and pushes its total on every emit.
//
// The client library refuses metrics carrying a label that is also part of
// the grouping key, so service and namespace only travel in the grouping key
// and the Pushgateway attaches them to the stored series.
type Pusher struct {
	url     string
	counter prometheus.Counter
	pusher  *push.Pusher
}

func New(cfg Config) (*Pusher, error) {
	if cfg.URL == "" {
		return nil, errors.New("pushgateway URL must not be empty")
	}
	if cfg.MetricName == "" {
		cfg.MetricName = defaultMetricName
	}

	counter := prometheus.NewCounter(prometheus.CounterOpts{
		Name: cfg.MetricName,
		Help: "Total HTTP requests",
	})
	reg := prometheus.NewRegistry()
	if err := reg.Register(counter); err != nil {
		return nil, fmt.Errorf("invalid metric %q: %w", cfg.MetricName, err)
	}

	client := &http.Client{Timeout: cfg.Timeout}
	p := push.New(cfg.URL, cfg.Job).
		Gatherer(reg).
		Client(client).
		Grouping("service", cfg.Service).
		Grouping("namespace", cfg.Namespace)

	return &Pusher{
		url:     cfg.URL,
		counter: counter,
		pusher:  p,
	}, nil
}

// Emit adds the tick increment to the counter and pushes the new total,
// replacing the group on the gateway. The counter keeps the increment even
// when the push fails.
func (p *Pusher) Emit(ctx context.Context, t traffic.Tick) error {
	if t.Increment < 0 {
		return fmt.Errorf("refusing negative increment %g on tick %d", t.Increment, t.Index)
	}
	p.counter.Add(t.Increment)

	if err := p.pusher.PushContext(ctx); err != nil {
		return fmt.Errorf("push to %s: %w", p.url, err)
	}
	return nil
}

// Delete removes the whole group from the gateway.
func (p *Pusher) Delete() error {
	if err := p.pusher.Delete(); err != nil {
		return fmt.Errorf("delete group from %s: %w", p.url, err)
	}
	return nil
}
