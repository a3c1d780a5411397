package main

import (
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/cobra"

	"github.com/comalice/reactchart"
	"github.com/comalice/reactchart/internal/logging"
	"github.com/comalice/reactchart/metrics"
)

// app carries what the persistent flags configure.
type app struct {
	logLevel    string
	metricsAddr string

	logger   *slog.Logger
	registry *prometheus.Registry
	observer reactchart.Observer
}

func newRootCmd() *cobra.Command {
	a := &app{}
	root := &cobra.Command{
		Use:           "reactchart",
		Short:         "reactchart drives hierarchical reactive state charts",
		Long:          `reactchart runs scenarios against the built-in charts, renders them as Graphviz or JSON, and drives them live at a fixed tick rate.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return a.setup(cmd)
		},
	}
	root.PersistentFlags().StringVar(&a.logLevel, "log-level", "warn", "log level (debug, info, warn, error)")
	root.PersistentFlags().StringVar(&a.metricsAddr, "metrics-addr", "", "serve Prometheus metrics on this address, e.g. :9090")

	root.AddCommand(
		newChartsCmd(),
		newGraphCmd(a),
		newRunCmd(a),
		newLiveCmd(a),
		newVersionCmd(),
	)
	return root
}

func (a *app) setup(cmd *cobra.Command) error {
	level, err := logging.ParseLevel(a.logLevel)
	if err != nil {
		return err
	}
	a.logger = logging.New(level)
	a.registry = prometheus.NewRegistry()

	collector, err := metrics.New(a.registry)
	if err != nil {
		return err
	}
	a.observer = collector

	if a.metricsAddr != "" {
		srv := &http.Server{
			Addr:              a.metricsAddr,
			Handler:           promhttp.HandlerFor(a.registry, promhttp.HandlerOpts{}),
			ReadHeaderTimeout: 5 * time.Second,
		}
		go func() {
			if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				a.logger.Error("metrics server stopped", "addr", a.metricsAddr, "error", err)
			}
		}()
		a.logger.Info("serving metrics", "addr", a.metricsAddr)
	}
	return nil
}

// chartOptions are passed to every chart a command builds.
func (a *app) chartOptions() []reactchart.Option {
	return []reactchart.Option{
		reactchart.WithLogger(a.logger),
		reactchart.WithObserver(a.observer),
	}
}
