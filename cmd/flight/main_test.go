package main

import (
	"bytes"
	"context"
	"io"
	"log/slog"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	promadapter "github.com/webriots/flight/adapters/prometheus"
	"github.com/webriots/flight/internal/config"
	"github.com/webriots/flight/memo"
)

func testConfig(mode string) config.Config {
	return config.Config{
		Mode:          mode,
		Count:         3,
		MaxDelay:      0,
		Parallel:      2,
		Values:        2,
		Interval:      0,
		MaxValue:      0,
		DispatchBurst: 1,
		Seed:          1,
		LogLevel:      "info",
		LogFormat:     "text",
	}
}

func TestExecuteModes(t *testing.T) {
	log := slog.New(slog.NewTextHandler(io.Discard, nil))

	cases := map[string]string{
		config.ModeRun:     "[0s 0s 0s]",
		config.ModeTasks:   "[0s 0s 0s]",
		config.ModeCollect: "[0 0]",
	}
	for mode, want := range cases {
		t.Run(mode, func(t *testing.T) {
			cfg := testConfig(mode)
			var out bytes.Buffer

			err := execute(context.Background(), cfg, newScheduler(cfg, log, nil), log, memo.NopMetrics(), &out)

			require.NoError(t, err)
			assert.Equal(t, want, strings.TrimSpace(out.String()))
		})
	}
}

func TestExecuteAverageMemoizes(t *testing.T) {
	log := slog.New(slog.NewTextHandler(io.Discard, nil))
	reg := prometheus.NewRegistry()
	m := promadapter.NewAllMetrics(reg)

	cfg := testConfig(config.ModeAverage)
	cfg.MaxDelay = 10 * time.Millisecond
	var out bytes.Buffer

	err := execute(context.Background(), cfg, newScheduler(cfg, log, m.Flight), log, m.Memo, &out)
	require.NoError(t, err)

	d, err := time.ParseDuration(strings.TrimSpace(out.String()))
	require.NoError(t, err)
	assert.Less(t, d, cfg.MaxDelay)

	// one measurement means one fan-out
	families, err := reg.Gather()
	require.NoError(t, err)
	for _, mf := range families {
		if mf.GetName() == "flight_runs_total" {
			require.Len(t, mf.GetMetric(), 1)
			assert.Equal(t, 1.0, mf.GetMetric()[0].GetCounter().GetValue())
		}
	}
}

func TestExecuteRuntime(t *testing.T) {
	log := slog.New(slog.NewTextHandler(io.Discard, nil))
	cfg := testConfig(config.ModeRuntime)
	var out bytes.Buffer

	err := execute(context.Background(), cfg, newScheduler(cfg, log, nil), log, memo.NopMetrics(), &out)

	require.NoError(t, err)
	_, err = time.ParseDuration(strings.TrimSpace(out.String()))
	assert.NoError(t, err)
}

func TestExecuteUnknownMode(t *testing.T) {
	log := slog.New(slog.NewTextHandler(io.Discard, nil))
	cfg := testConfig("sideways")

	err := execute(context.Background(), cfg, newScheduler(cfg, log, nil), log, memo.NopMetrics(), io.Discard)

	require.ErrorIs(t, err, config.ErrInvalidConfig)
}

func TestMetricsHandler(t *testing.T) {
	reg := prometheus.NewRegistry()
	promadapter.NewAllMetrics(reg).Flight.RunStarted("run", 1)

	srv := httptest.NewServer(metricsHandler(reg))
	defer srv.Close()

	resp, err := srv.Client().Get(srv.URL + "/metrics")
	require.NoError(t, err)
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	assert.Contains(t, string(body), "flight_runs_started_total")
}
