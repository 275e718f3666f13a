package main

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"time"

	"github.com/spf13/cobra"
	"golang.org/x/time/rate"

	"github.com/hupe1980/hypervec"
	"github.com/hupe1980/hypervec/metrics/prometheus"
	"github.com/hupe1980/hypervec/pipeline"
)

func newObserveCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "observe [FILE]",
		Short: "Stream JSONL observations through the debounced clusterer",
		Long: `Submit JSONL observations (see "anchors learn") to the background
clusterer. Observations are merged by key and learned in debounced batches.
After each batch an anchor snapshot is written to the store under
--snapshot-prefix, at most --publish-rate times per second.

With --metrics-addr, Prometheus metrics are served at /metrics while the
stream is processed.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			batch, _ := cmd.Flags().GetInt("batch")
			idle, _ := cmd.Flags().GetDuration("idle")
			publishRate, _ := cmd.Flags().GetFloat64("publish-rate")
			prefix, _ := cmd.Flags().GetString("snapshot-prefix")
			metricsAddr, _ := cmd.Flags().GetString("metrics-addr")

			opts, err := anchorOptions(cmd)
			if err != nil {
				return err
			}

			ctx := cmd.Context()
			if metricsAddr != "" {
				a.metrics = prometheus.NewCollector(prometheus.DefaultConfig())
				stop, err := serveMetrics(metricsAddr, a.metrics)
				if err != nil {
					return err
				}
				defer stop()
			}

			store, closeStore, err := a.openStore(ctx)
			if err != nil {
				return err
			}
			defer closeStore()

			opts = append(opts,
				hypervec.WithBatching(batch, idle),
				hypervec.WithPublishRate(rate.Limit(publishRate), 1),
				hypervec.WithSink(pipeline.NewStoreSink(store, prefix)),
			)
			e, err := a.newEngine(ctx, store, opts...)
			if err != nil {
				return err
			}
			defer e.Close()
			if err := e.Start(ctx); err != nil {
				return err
			}

			in, err := a.openInput(firstArg(args))
			if err != nil {
				return err
			}
			defer in.Close()

			var rejected int
			err = decodeLines(in, func(_ int, o observation) error {
				switch err := e.Observe(ctx, o.Key, o.Vector); {
				case errors.Is(err, hypervec.ErrInvalidInput):
					rejected++
					return nil
				default:
					return err
				}
			})
			// Close drains the pending batch before the final persist.
			if closeErr := e.Close(); err == nil {
				err = closeErr
			}
			if err != nil {
				return err
			}
			if err := e.Persist(ctx); err != nil {
				return err
			}

			stats := e.Stats()
			return a.writeJSON(map[string]any{
				"submitted": stats.Batches.Submitted,
				"merged":    stats.Batches.Merged,
				"flushes":   stats.Batches.Flushes,
				"rejected":  rejected,
				"anchors":   stats.Anchors.Anchors,
				"published": stats.Published,
				"throttled": stats.Throttled,
			})
		},
	}
	addAnchorFlags(cmd)
	cmd.Flags().Int("batch", pipeline.DefaultMaxBatch, "observations per clustering pass")
	cmd.Flags().Duration("idle", pipeline.DefaultIdle, "idle time before a pass")
	cmd.Flags().Float64("publish-rate", 1, "snapshots per second")
	cmd.Flags().String("snapshot-prefix", "snapshots/", "store key prefix for snapshots")
	cmd.Flags().String("metrics-addr", "", "serve Prometheus metrics on this address")
	return cmd
}

func serveMetrics(addr string, c *prometheus.Collector) (func(), error) {
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return nil, fmt.Errorf("metrics listener: %w", err)
	}
	mux := http.NewServeMux()
	mux.Handle("/metrics", c.Handler())
	srv := &http.Server{Handler: mux, ReadHeaderTimeout: 5 * time.Second}
	go func() { _ = srv.Serve(ln) }()
	return func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = srv.Shutdown(ctx)
	}, nil
}
