// SPDX-FileCopyrightText: 2024 EDSS
// SPDX-License-Identifier: Apache-2.0

// sensormoduled reads an HX711 load cell and a BMP barometer, logs the
// readings, and serves them as Prometheus metrics and JSON.
package main

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/alecthomas/kong"
	"github.com/goschtalt/goschtalt"
	yml "github.com/goschtalt/yaml-decoder"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/xmidt-org/sallust"
	"go.uber.org/fx"
	"go.uber.org/zap"

	"github.com/edss/sensormodule/bmp"
	"github.com/edss/sensormodule/httpserver"
	"github.com/edss/sensormodule/hx711"
	"github.com/edss/sensormodule/sensor"
)

const applicationName = "sensormoduled"

var (
	weight = promauto.NewGauge(prometheus.GaugeOpts{
		Namespace: "sensormodule",
		Subsystem: "physical",
		Name:      "weight_kg",
		Help:      "Load cell weight (kg) at this moment.",
	})

	pressure = promauto.NewGauge(prometheus.GaugeOpts{
		Namespace: "sensormodule",
		Subsystem: "physical",
		Name:      "pressure_pa",
		Help:      "Barometric pressure (Pa) at this moment.",
	})

	altitude = promauto.NewGauge(prometheus.GaugeOpts{
		Namespace: "sensormodule",
		Subsystem: "physical",
		Name:      "altitude_m",
		Help:      "Derived altitude (m) at this moment.",
	})

	temperature = promauto.NewGauge(prometheus.GaugeOpts{
		Namespace: "sensormodule",
		Subsystem: "physical",
		Name:      "temperature_c",
		Help:      "Barometer temperature (C) at this moment.",
	})

	readErrors = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "sensormodule",
			Subsystem: "physical",
			Name:      "read_errors_total",
			Help:      "Total failed sensor reads.",
		},
		[]string{"sensor"},
	)
)

type CLI struct {
	File string `short:"f" default:"sensors.yml" help:"Configuration file to use."`
}

type Config struct {
	Logging        sallust.Config
	Server         httpserver.Config
	PollIntervalMs int `mapstructure:"poll_interval_ms"`

	// Loadcell and Bmp are passed to the components untouched, exactly
	// the way the hosting runtime would push them.
	Loadcell map[string]interface{}
	Bmp      map[string]interface{}
}

func loadConfig(file string) (cfg Config, err error) {
	abs, err := filepath.Abs(file)
	if err != nil {
		return cfg, err
	}

	gs, err := goschtalt.New(
		goschtalt.AutoCompile(),
		goschtalt.WithDecoder(yml.Decoder{}),
		goschtalt.AddFile(os.DirFS(filepath.Dir(abs)), filepath.Base(abs)),
	)
	if err != nil {
		return cfg, err
	}

	if err := gs.Unmarshal("", &cfg); err != nil {
		return cfg, err
	}

	if cfg.PollIntervalMs <= 0 {
		cfg.PollIntervalMs = 5000
	}
	if cfg.Server.Address == "" {
		cfg.Server.Address = ":9090"
	}

	return cfg, nil
}

func newLoadCell(log *zap.Logger) *hx711.LoadCell {
	return hx711.New("loadcell", hx711.WithLogger(log))
}

func newBarometer(log *zap.Logger) *bmp.BMP {
	return bmp.New("bmp", bmp.WithLogger(log))
}

func newRoutes(cell *hx711.LoadCell, baro *bmp.BMP) httpserver.Routes {
	return httpserver.Routes{
		"/metrics":  promhttp.Handler(),
		"/readings": readingsHandler(cell, baro),
		"/tare":     tareHandler(cell, baro),
	}
}

// readingsHandler reports both sensors' current readings as one JSON
// document.
func readingsHandler(cell *hx711.LoadCell, baro *bmp.BMP) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		out := make(map[string]sensor.Readings, 2)

		for name, s := range map[string]sensor.Sensor{"loadcell": cell, "bmp": baro} {
			got, err := s.Readings(r.Context())
			if err != nil {
				http.Error(w, err.Error(), http.StatusInternalServerError)
				return
			}
			out[name] = got
		}

		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(out)
	})
}

// tareHandler zeroes one sensor, or both when none is named.
func tareHandler(cell *hx711.LoadCell, baro *bmp.BMP) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			http.Error(w, "POST required", http.StatusMethodNotAllowed)
			return
		}

		targets := map[string]sensor.Sensor{"loadcell": cell, "bmp": baro}
		if name := r.URL.Query().Get("sensor"); name != "" {
			s, ok := targets[name]
			if !ok {
				http.Error(w, "unknown sensor", http.StatusNotFound)
				return
			}
			targets = map[string]sensor.Sensor{name: s}
		}

		out := make(map[string]interface{}, len(targets))
		for name, s := range targets {
			got, err := s.DoCommand(r.Context(), map[string]interface{}{"tare": map[string]interface{}{}})
			if err != nil {
				http.Error(w, err.Error(), http.StatusInternalServerError)
				return
			}
			out[name] = got
		}

		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(out)
	})
}

// run configures both components on startup and polls them until
// shutdown, publishing each reading to the metrics above.
func run(lc fx.Lifecycle, cfg Config, log *zap.Logger, cell *hx711.LoadCell, baro *bmp.BMP) {
	var (
		cancel context.CancelFunc
		wg     sync.WaitGroup
	)

	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			if err := cell.Reconfigure(ctx, cfg.Loadcell); err != nil {
				return fmt.Errorf("loadcell: %w", err)
			}
			if err := baro.Reconfigure(ctx, cfg.Bmp); err != nil {
				return fmt.Errorf("bmp: %w", err)
			}

			var pollCtx context.Context
			pollCtx, cancel = context.WithCancel(context.Background())

			wg.Add(1)
			go poll(pollCtx, &wg, cfg, log, cell, baro)

			return nil
		},
		OnStop: func(ctx context.Context) error {
			if cancel != nil {
				cancel()
				wg.Wait()
			}

			_ = cell.Close(ctx)
			_ = baro.Close(ctx)

			return nil
		},
	})
}

func poll(ctx context.Context, wg *sync.WaitGroup, cfg Config, log *zap.Logger, cell *hx711.LoadCell, baro *bmp.BMP) {
	defer wg.Done()

	ticker := time.NewTicker(time.Duration(cfg.PollIntervalMs) * time.Millisecond)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}

		if got, err := cell.Readings(ctx); err != nil {
			readErrors.WithLabelValues("loadcell").Inc()
			log.Warn("loadcell read failed", zap.Error(err))
		} else if kg, ok := got["weight"].(float64); ok {
			weight.Set(kg)
			log.Debug("loadcell", zap.Float64("weight", kg))
		}

		got, err := baro.Readings(ctx)
		if err != nil {
			readErrors.WithLabelValues("bmp").Inc()
			log.Warn("bmp read failed", zap.Error(err))
			continue
		}

		for name, g := range map[string]prometheus.Gauge{
			"pressure":    pressure,
			"altitude":    altitude,
			"temperature": temperature,
		} {
			if v, ok := got[name].(float64); ok {
				g.Set(v)
			}
		}
		log.Debug("bmp",
			zap.Any("pressure", got["pressure"]),
			zap.Any("altitude", got["altitude"]),
			zap.Any("temperature", got["temperature"]))
	}
}

func main() {
	var cli CLI
	kong.Parse(&cli,
		kong.Name(applicationName),
		kong.Description("HX711 load cell and BMP barometer reader."),
		kong.UsageOnError(),
	)

	cfg, err := loadConfig(cli.File)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}

	logger, err := cfg.Logging.Build()
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	defer func() { _ = logger.Sync() }()

	app := fx.New(
		fx.Supply(cfg, logger),
		fx.Provide(
			func(c Config) httpserver.Config { return c.Server },
			newLoadCell,
			newBarometer,
			newRoutes,
		),
		fx.Invoke(
			httpserver.New,
			run,
		),
	)

	app.Run()
}
