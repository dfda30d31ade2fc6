// Command flight runs one of the fan-out variants configured through
// FLIGHT_* environment variables and prints its result.
package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"math/rand/v2"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"golang.org/x/sync/errgroup"
	"golang.org/x/time/rate"

	"github.com/webriots/flight"
	promadapter "github.com/webriots/flight/adapters/prometheus"
	"github.com/webriots/flight/internal/config"
	"github.com/webriots/flight/internal/logging"
	"github.com/webriots/flight/memo"
)

// averageCallers is the number of concurrent readers of the memoized
// average in average mode.
const averageCallers = 3

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	err := run(ctx, os.Stdout)
	stop()

	if err != nil {
		fmt.Fprintln(os.Stderr, "flight:", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, out io.Writer) error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}

	log, err := logging.New(cfg.LogLevel, logging.Format(cfg.LogFormat), os.Stderr)
	if err != nil {
		return err
	}

	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	m := promadapter.NewAllMetrics(reg)

	if cfg.MetricsAddr != "" {
		srv := &http.Server{
			Addr:              cfg.MetricsAddr,
			Handler:           metricsHandler(reg),
			ReadHeaderTimeout: 5 * time.Second,
		}
		go func() {
			log.Info("serving metrics", "addr", cfg.MetricsAddr)
			if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				log.Error("metrics server failed", "error", err)
			}
		}()
		defer func() {
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			_ = srv.Shutdown(shutdownCtx)
		}()
	}

	if cfg.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, cfg.Timeout)
		defer cancel()
	}

	return execute(ctx, cfg, newScheduler(cfg, log, m.Flight), log, m.Memo, out)
}

func metricsHandler(reg *prometheus.Registry) http.Handler {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(reg, promhttp.HandlerOpts{Registry: reg}))
	return mux
}

func newScheduler(cfg config.Config, log *slog.Logger, m flight.Metrics) *flight.Scheduler {
	opts := []flight.Option{
		flight.WithLogger(log),
		flight.WithMetrics(m),
		flight.WithDispatcher(flight.NewTimerDispatch(
			flight.WithConcurrencyLimit(cfg.ConcurrencyLimit),
			flight.WithDispatchRate(rate.Limit(cfg.DispatchRate), cfg.DispatchBurst),
		)),
	}
	if cfg.Seed != 0 {
		opts = append(opts, flight.WithSource(flight.NewLockedSource(rand.New(rand.NewPCG(cfg.Seed, cfg.Seed)))))
	}
	return flight.New(opts...)
}

func execute(
	ctx context.Context,
	cfg config.Config,
	s *flight.Scheduler,
	log *slog.Logger,
	mm memo.Metrics,
	out io.Writer,
) error {
	start := time.Now()
	defer func() {
		log.Info("done", "mode", cfg.Mode, "took", time.Since(start))
	}()

	switch cfg.Mode {
	case config.ModeRun:
		delays, err := s.Run(ctx, cfg.Count, cfg.MaxDelay)
		if err != nil {
			return err
		}
		fmt.Fprintln(out, delays)

	case config.ModeTasks:
		j, err := s.Launch(ctx, cfg.Count, cfg.MaxDelay)
		if err != nil {
			return err
		}
		delays, err := j.Wait()
		for _, h := range j.Handles() {
			d, herr := h.Result()
			log.Debug("unit finished", "index", h.Index(), "id", h.ID(), "delay", d, "error", herr)
		}
		if err != nil {
			return err
		}
		fmt.Fprintln(out, delays)

	case config.ModeAverage:
		avg := memo.New(func(ctx context.Context) (time.Duration, error) {
			return s.MeasureAverage(ctx, cfg.Count, cfg.MaxDelay)
		}, memo.WithName("average"), memo.WithLogger(log), memo.WithMetrics(mm))

		// every reader gets the result of one measurement
		results := make([]time.Duration, averageCallers)
		g, gctx := errgroup.WithContext(ctx)
		for i := range averageCallers {
			g.Go(func() error {
				d, err := avg.Get(gctx)
				results[i] = d
				return err
			})
		}
		if err := g.Wait(); err != nil {
			return err
		}
		log.Debug("average memoized", "callers", averageCallers, "computations", avg.Computations())
		fmt.Fprintln(out, results[0])

	case config.ModeCollect:
		values, err := s.Collect(ctx, cfg.Values, cfg.Interval, cfg.MaxValue)
		if err != nil {
			return err
		}
		fmt.Fprintln(out, values)

	case config.ModeRuntime:
		elapsed, err := s.MeasureRuntime(ctx, cfg.Parallel, cfg.Values, cfg.Interval, cfg.MaxValue)
		if err != nil {
			return err
		}
		fmt.Fprintln(out, elapsed)

	default:
		return fmt.Errorf("%w: unknown mode %q", config.ErrInvalidConfig, cfg.Mode)
	}

	return nil
}
