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

package internal

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
)

func flagDefaults() Config {
	return Config{
		Pushgateway: "http://pushgateway.monitoring:9091",
		Service:     "orders",
		Namespace:   "default",
		Job:         "synthetic-traffic",
		Period:      Seconds(300 * time.Second),
		Min:         10,
		Max:         200,
		Spike:       1.6,
		SpikeChance: 0.02,
		Jitter:      0.1,
		Step:        Seconds(time.Second),
		MetricName:  "http_requests_total",
		PushTimeout: Seconds(10 * time.Second),
	}
}

func TestParseSeconds(t *testing.T) {
	for in, exp := range map[string]time.Duration{
		"300":   300 * time.Second,
		"0":     0,
		"1.5":   1500 * time.Millisecond,
		" 10 ":  10 * time.Second,
		"5m":    5 * time.Minute,
		"1h30m": 90 * time.Minute,
		"250ms": 250 * time.Millisecond,
	} {
		got, err := ParseSeconds(in)
		if err != nil {
			t.Errorf("%q: unexpected error: %v", in, err)
			continue
		}
		if got != exp {
			t.Errorf("%q: expected %s, got %s", in, exp, got)
		}
	}

	for _, in := range []string{"", "abc", "5 minutes", "NaN", "+Inf"} {
		if _, err := ParseSeconds(in); err == nil {
			t.Errorf("%q: expected error, got nil", in)
		}
	}
}

func TestLoadOverridesOnlyGivenKeys(t *testing.T) {
	cfg := flagDefaults()
	content := `
service: checkout
period: 2m
max: 500
duration: 600
spike_probability: 0.05
delete_on_exit: true
`
	if err := cfg.load([]byte(content)); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	exp := flagDefaults()
	exp.Service = "checkout"
	exp.Period = Seconds(2 * time.Minute)
	exp.Max = 500
	exp.Duration = Seconds(600 * time.Second)
	exp.SpikeChance = 0.05
	exp.DeleteOnExit = true

	if diff := cmp.Diff(exp, cfg); diff != "" {
		t.Fatalf("unexpected config (-want +got):\n%s", diff)
	}
}

func TestLoadErrors(t *testing.T) {
	for name, content := range map[string]string{
		"unknown key":  "services: orders\n",
		"bad duration": "step: soon\n",
		"not a map":    "- a\n- b\n",
	} {
		t.Run(name, func(t *testing.T) {
			cfg := flagDefaults()
			if err := cfg.load([]byte(content)); err == nil {
				t.Fatal("expected error, got nil")
			}
		})
	}
}

func TestLoadFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "synth-rps.yml")
	if err := os.WriteFile(path, []byte("pushgateway: localhost:9091\nstep: 0.5\n"), 0o644); err != nil {
		t.Fatal(err)
	}

	cfg := flagDefaults()
	if err := cfg.LoadFile(path); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.Pushgateway != "localhost:9091" || time.Duration(cfg.Step) != 500*time.Millisecond {
		t.Fatalf("file values not applied: %+v", cfg)
	}

	if err := cfg.LoadFile(filepath.Join(t.TempDir(), "missing.yml")); err == nil {
		t.Fatal("expected error for missing file")
	}
}

func TestValidate(t *testing.T) {
	if err := flagDefaults().Validate(); err != nil {
		t.Fatalf("defaults must be valid: %v", err)
	}

	for name, c := range map[string]struct {
		mutate func(*Config)
		errMsg string
	}{
		"no pushgateway":   {func(c *Config) { c.Pushgateway = "" }, "pushgateway"},
		"negative timeout": {func(c *Config) { c.PushTimeout = Seconds(-time.Second) }, "push timeout"},
		"bad bounds":       {func(c *Config) { c.Min, c.Max = 50, 5 }, "below min"},
		"zero step":        {func(c *Config) { c.Step = 0 }, "step"},
	} {
		t.Run(name, func(t *testing.T) {
			cfg := flagDefaults()
			c.mutate(&cfg)
			err := cfg.Validate()
			if err == nil {
				t.Fatal("expected error, got nil")
			}
			if !strings.Contains(err.Error(), c.errMsg) {
				t.Fatalf("expected error containing %q, got %q", c.errMsg, err)
			}
		})
	}
}

func TestConversions(t *testing.T) {
	cfg := flagDefaults()
	cfg.Duration = Seconds(time.Minute)

	tc := cfg.Traffic()
	if tc.Period != 5*time.Minute || tc.Step != time.Second || tc.Duration != time.Minute {
		t.Errorf("unexpected durations in %+v", tc)
	}
	if tc.Service != "orders" || tc.Namespace != "default" || tc.Job != "synthetic-traffic" {
		t.Errorf("unexpected labels in %+v", tc)
	}

	pc := cfg.Pusher()
	if pc.URL != cfg.Pushgateway || pc.Timeout != 10*time.Second || pc.MetricName != "http_requests_total" {
		t.Errorf("unexpected pusher config %+v", pc)
	}
}
