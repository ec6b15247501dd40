/*
 * root.go, part of gostk.
 *
 * Copyright 2024 Raul Mera <rmera{at}chemDOThelsinkiDOTfi>
 *
 * This program is free software; you can redistribute it and/or modify
 * it under the terms of the GNU Lesser General Public License as
 * published by the Free Software Foundation; either version 2.1 of the
 * License, or (at your option) any later version.
 *
 * This program is distributed in the hope that it will be useful,
 * but WITHOUT ANY WARRANTY; without even the implied warranty of
 * MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the
 * GNU General Public License for more details.
 *
 * You should have received a copy of the GNU Lesser General
 * Public License along with this program.  If not, see
 * <http://www.gnu.org/licenses/>.
 *
 */
/***Dedicated to the long life of the Ven. Khenpo Phuntzok Tenzin Rinpoche***/

//Package cli implements the gostk command.
package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rmera/gostk/fgroup"
	"github.com/rmera/gostk/internal/config"
	"github.com/rmera/gostk/macromol"
	"github.com/rmera/gostk/optimize"
	"github.com/rmera/gostk/topology"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

//Version of the command, set at build time.
var Version = "dev"

//app holds what the subcommands share. It is filled by the root's PersistentPreRunE.
type app struct {
	cfgPath  string
	logLevel string

	cfg      *config.Config
	log      *zap.Logger
	registry *fgroup.Registry
	cache    *macromol.Cache
	prom     *prometheus.Registry
	metrics  *optimize.Metrics
	srv      *http.Server
}

//NewRootCommand returns the gostk command with all its subcommands.
func NewRootCommand() *cobra.Command {
	cmd, _ := newRoot()
	return cmd
}

func newRoot() (*cobra.Command, *app) {
	A := &app{}
	cmd := &cobra.Command{
		Use:   "gostk",
		Short: "Assembles macromolecules from building blocks and relaxes their structures",
		Long: "gostk places building blocks on the vertices of a topology graph (a chain, a cage or\n" +
			"a periodic net), bonds them through their functional groups and, optionally,\n" +
			"optimizes the resulting structure.",
		Version:       Version,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return A.init()
		},
	}
	pf := cmd.PersistentFlags()
	pf.StringVarP(&A.cfgPath, "config", "c", "", "configuration file (YAML)")
	pf.StringVar(&A.logLevel, "log-level", "", "log level, overrides the configuration (debug, info, warn, error)")
	cmd.AddCommand(A.buildCommand(), A.optimizeCommand(), topologiesCommand(), groupsCommand())
	return cmd, A
}

//Execute runs the gostk command with ctx, which cancels running optimizations.
func Execute(ctx context.Context, args []string, out io.Writer) error {
	cmd, A := newRoot()
	defer A.close()
	cmd.SetArgs(args)
	cmd.SetOut(out)
	cmd.SetErr(out)
	return cmd.ExecuteContext(ctx)
}

func (A *app) init() error {
	cfg, err := config.Load(A.cfgPath)
	if err != nil {
		return err
	}
	if A.logLevel != "" {
		cfg.Log.Level = A.logLevel
		if err := cfg.Validate(); err != nil {
			return err
		}
	}
	A.cfg = cfg
	if A.log, err = cfg.Logger(); err != nil {
		return err
	}
	A.registry = fgroup.Default()
	A.cache = macromol.NewCache(cfg.Cache.Enabled)
	A.prom = prometheus.NewRegistry()
	if err := A.prom.Register(collectors.NewGoCollector()); err != nil {
		return err
	}
	if A.metrics, err = optimize.NewMetrics(A.prom); err != nil {
		return err
	}
	if cfg.Metrics.Addr != "" {
		A.serveMetrics(cfg.Metrics.Addr)
	}
	return nil
}

func (A *app) serveMetrics(addr string) {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(A.prom, promhttp.HandlerOpts{}))
	A.srv = &http.Server{Addr: addr, Handler: mux, ReadHeaderTimeout: 5 * time.Second}
	go func() {
		if err := A.srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			A.log.Warn("metrics endpoint stopped", zap.String("addr", addr), zap.Error(err))
		}
	}()
	A.log.Info("serving metrics", zap.String("addr", addr))
}

//close stops the metrics endpoint and flushes the log.
func (A *app) close() {
	if A.srv != nil {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := A.srv.Shutdown(ctx); err != nil {
			A.log.Warn("can't stop the metrics endpoint", zap.Error(err))
		}
	}
	if A.log != nil {
		_ = A.log.Sync()
	}
}

func (A *app) optimizer() *optimize.Optimizer {
	return optimize.New(A.log, A.metrics)
}

func (A *app) batch() optimize.BatchOptions {
	return optimize.BatchOptions{Parallel: A.cfg.Optimize.Parallel, Workers: A.cfg.Optimize.Workers}
}

func topologiesCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "topologies",
		Short: "Lists the topologies that jobs can use",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			for _, n := range topology.Names() {
				fmt.Fprintln(cmd.OutOrStdout(), n)
			}
			return nil
		},
	}
}

func groupsCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "groups",
		Short: "Lists the functional groups that building blocks can use",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			reg := fgroup.Default()
			for _, n := range reg.Names() {
				g, err := reg.Get(n)
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "%-18s %s\n", n, g.Pattern)
			}
			return nil
		},
	}
}
