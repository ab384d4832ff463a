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
	"errors"
	"fmt"
	"math"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/prometheus/common/model"
	"gopkg.in/yaml.v2"

	"github.com/prometheus/synthetic-traffic/pkg/pushgw"
	"github.com/prometheus/synthetic-traffic/pkg/traffic"
)

// Seconds is a duration written either as a plain number of seconds ("300",
// "0.5") or as a Prometheus duration ("5m", "1h30m"). It can back a kingpin
// flag and a YAML field alike.
type Seconds time.Duration

func ParseSeconds(s string) (time.Duration, error) {
	s = strings.TrimSpace(s)
	if f, err := strconv.ParseFloat(s, 64); err == nil {
		if math.IsNaN(f) || math.IsInf(f, 0) {
			return 0, fmt.Errorf("invalid number of seconds %q", s)
		}
		return time.Duration(f * float64(time.Second)), nil
	}
	d, err := model.ParseDuration(s)
	if err != nil {
		return 0, fmt.Errorf("%q is neither a number of seconds nor a duration: %w", s, err)
	}
	return time.Duration(d), nil
}

func (s *Seconds) Set(v string) error {
	d, err := ParseSeconds(v)
	if err != nil {
		return err
	}
	*s = Seconds(d)
	return nil
}

func (s Seconds) String() string {
	return time.Duration(s).String()
}

func (s *Seconds) UnmarshalYAML(unmarshal func(interface{}) error) error {
	var raw interface{}
	if err := unmarshal(&raw); err != nil {
		return err
	}
	if raw == nil {
		return errors.New("empty duration")
	}
	return s.Set(fmt.Sprint(raw))
}

// Config holds everything a run needs. Flags populate it first; a config
// file, when given, overrides the keys it sets.
type Config struct {
	Pushgateway  string  `yaml:"pushgateway"`
	Service      string  `yaml:"service"`
	Namespace    string  `yaml:"namespace"`
	Job          string  `yaml:"job"`
	Period       Seconds `yaml:"period"`
	Min          float64 `yaml:"min"`
	Max          float64 `yaml:"max"`
	Spike        float64 `yaml:"spike"`
	SpikeChance  float64 `yaml:"spike_probability"`
	Jitter       float64 `yaml:"jitter"`
	Duration     Seconds `yaml:"duration"`
	Step         Seconds `yaml:"step"`
	Seed         uint64  `yaml:"seed"`
	MetricName   string  `yaml:"metric_name"`
	PushTimeout  Seconds `yaml:"push_timeout"`
	DeleteOnExit bool    `yaml:"delete_on_exit"`
}

// LoadFile overlays the YAML file at path onto c. Unknown keys are an error.
func (c *Config) LoadFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read config file %v: %w", path, err)
	}
	return c.load(data)
}

func (c *Config) load(content []byte) error {
	if err := yaml.UnmarshalStrict(content, c); err != nil {
		return fmt.Errorf("cannot unmarshal data: %w", err)
	}
	return nil
}

func (c Config) Traffic() traffic.Config {
	return traffic.Config{
		Period:      time.Duration(c.Period),
		Min:         c.Min,
		Max:         c.Max,
		Spike:       c.Spike,
		SpikeChance: c.SpikeChance,
		Jitter:      c.Jitter,
		Duration:    time.Duration(c.Duration),
		Step:        time.Duration(c.Step),
		Service:     c.Service,
		Namespace:   c.Namespace,
		Job:         c.Job,
	}
}

func (c Config) Pusher() pushgw.Config {
	return pushgw.Config{
		URL:        c.Pushgateway,
		Job:        c.Job,
		Service:    c.Service,
		Namespace:  c.Namespace,
		MetricName: c.MetricName,
		Timeout:    time.Duration(c.PushTimeout),
	}
}

func (c Config) Validate() error {
	if c.Pushgateway == "" {
		return errors.New("pushgateway address is required")
	}
	if c.PushTimeout < 0 {
		return fmt.Errorf("push timeout must not be negative, got %s", c.PushTimeout)
	}
	return c.Traffic().Validate()
}
