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

package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"log/slog"
	"math/rand/v2"
	"net/http"
	"os"
	"path/filepath"
	"syscall"
	"time"

	"github.com/nelkinda/health-go"
	"github.com/oklog/run"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	versioncollector "github.com/prometheus/client_golang/prometheus/collectors/version"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/prometheus/common/version"
	"gopkg.in/alecthomas/kingpin.v2"

	"github.com/prometheus/synthetic-traffic/pkg/pushgw"
	"github.com/prometheus/synthetic-traffic/pkg/traffic"
	"github.com/prometheus/synthetic-traffic/tools/synth-rps/internal"
)

const appName = "synth-rps"

func main() {
	var cfg internal.Config
	var configFile, listenAddr, logLevelStr string

	app := kingpin.New(filepath.Base(os.Args[0]), "synth-rps: generates a synthetic request rate "+
		"following a sinusoid with noise and occasional spikes, and pushes it as a counter to a Prometheus Pushgateway "+
		"so rate()-based dashboards and alerts can be exercised without real traffic.")
	app.Version(version.Print(appName))
	app.HelpFlag.Short('h')

	app.Flag("pushgateway", "Pushgateway address, e.g. http://pushgateway.monitoring:9091. Required unless set in --config.file.").
		StringVar(&cfg.Pushgateway)
	app.Flag("endpoint", "Alias of --pushgateway.").
		Hidden().
		StringVar(&cfg.Pushgateway)
	app.Flag("service", "Value of the service label.").
		Default("orders").
		StringVar(&cfg.Service)
	app.Flag("namespace", "Value of the namespace label.").
		Default("default").
		StringVar(&cfg.Namespace)
	app.Flag("job", "Job name used for the push group.").
		Default("synthetic-traffic").
		StringVar(&cfg.Job)
	app.Flag("period", "Period of the rate oscillation, in seconds or as a duration (5m).").
		Default("300").
		SetValue(&cfg.Period)
	app.Flag("min", "Lower bound of the oscillation, in requests per second.").
		Default("10").
		Float64Var(&cfg.Min)
	app.Flag("max", "Upper bound of the oscillation, in requests per second.").
		Default("200").
		Float64Var(&cfg.Max)
	app.Flag("spike", "Multiplier applied to the rate during an occasional spike.").
		Default("1.6").
		Float64Var(&cfg.Spike)
	app.Flag("spike-probability", "Probability of a spike on each tick.").
		Default("0.02").
		Float64Var(&cfg.SpikeChance)
	app.Flag("jitter", "Relative amplitude of the uniform noise applied to the rate.").
		Default("0.1").
		Float64Var(&cfg.Jitter)
	app.Flag("duration", "How long to run, in seconds or as a duration. 0 runs until interrupted.").
		Default("0").
		SetValue(&cfg.Duration)
	app.Flag("step", "Interval between pushes, in seconds or as a duration.").
		Default("1").
		SetValue(&cfg.Step)
	app.Flag("seed", "Seed of the random source. 0 seeds from the current time.").
		Default("0").
		Uint64Var(&cfg.Seed)
	app.Flag("metric-name", "Name of the pushed counter.").
		Default("http_requests_total").
		StringVar(&cfg.MetricName)
	app.Flag("push.timeout", "Timeout of a single push, in seconds or as a duration.").
		Default("10s").
		SetValue(&cfg.PushTimeout)
	app.Flag("push.delete-on-exit", "Delete the push group from the Pushgateway on shutdown.").
		BoolVar(&cfg.DeleteOnExit)
	app.Flag("config.file", "Optional YAML file. Keys it sets override the matching flags.").
		StringVar(&configFile)
	app.Flag("web.listen-address", "Address to expose the generator's own metrics and health endpoints on. Disabled when empty.").
		Default("").
		StringVar(&listenAddr)
	app.Flag("log.level", "Logging level, available values: 'debug', 'info', 'warn', 'error'.").
		Default("info").
		StringVar(&logLevelStr)
	kingpin.MustParse(app.Parse(os.Args[1:]))

	var logLevel slog.Level
	if err := logLevel.UnmarshalText([]byte(logLevelStr)); err != nil {
		log.Fatal("failed to parse -log.level flag", err)
	}
	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: logLevel}))

	if configFile != "" {
		if err := cfg.LoadFile(configFile); err != nil {
			usageError(app, err)
		}
	}
	if err := cfg.Validate(); err != nil {
		usageError(app, err)
	}

	pusher, err := pushgw.New(cfg.Pusher())
	if err != nil {
		usageError(app, err)
	}

	seed := cfg.Seed
	if seed == 0 {
		seed = uint64(time.Now().UnixNano())
	}
	model := traffic.NewModel(cfg.Traffic(), rand.New(rand.NewPCG(seed, seed>>1)))

	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		versioncollector.NewCollector("synth_rps"),
	)
	gen := traffic.NewGenerator(cfg.Traffic(), model, pusher, logger, reg)

	var g run.Group
	{
		ctx, cancel := context.WithCancel(context.Background())
		g.Add(func() error {
			gen.Run(ctx)
			return nil
		}, func(error) {
			cancel()
		})
	}
	if listenAddr != "" {
		mux := http.NewServeMux()
		mux.Handle("/metrics", promhttp.HandlerFor(reg, promhttp.HandlerOpts{Registry: reg}))

		healthHandler := health.New(health.Health{}).Handler
		mux.HandleFunc("/-/health", healthHandler)
		mux.HandleFunc("/-/ready", healthHandler)

		httpSrv := &http.Server{Addr: listenAddr, Handler: mux}
		g.Add(func() error {
			logger.Info("server is ready to handle requests", "address", listenAddr)
			if err := httpSrv.ListenAndServe(); !errors.Is(err, http.ErrServerClosed) {
				return err
			}
			return nil
		}, func(error) {
			_ = httpSrv.Shutdown(context.Background())
		})
	}
	g.Add(run.SignalHandler(context.Background(), os.Interrupt, syscall.SIGTERM))

	err = g.Run()

	if cfg.DeleteOnExit {
		if err := pusher.Delete(); err != nil {
			logger.Error("failed to delete push group", "err", err)
		} else {
			logger.Info("deleted push group", "job", cfg.Job)
		}
	}

	var sigErr run.SignalError
	if err != nil && !errors.As(err, &sigErr) {
		logger.Error("running synth-rps failed", "err", err)
		os.Exit(1)
	}
	if sigErr.Signal != nil {
		logger.Info("received signal, exiting", "signal", sigErr.Signal)
	}
	logger.Info("synth-rps finished")
}

func usageError(app *kingpin.Application, err error) {
	fmt.Fprintln(os.Stderr, fmt.Errorf("invalid configuration: %w", err))
	app.Usage(os.Args[1:])
	os.Exit(2)
}
