package main

import (
	"fmt"
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/hupe1980/percolator"
	"github.com/hupe1980/percolator/config"
	"github.com/hupe1980/percolator/document"
	"github.com/hupe1980/percolator/registry"
	"github.com/hupe1980/percolator/resource"
)

// app holds the state shared by all commands.
type app struct {
	cfgPath string
	cfg     *config.Config
	logger  *percolator.Logger
}

func newRootCmd() *cobra.Command {
	a := &app{}

	cmd := &cobra.Command{
		Use:          "percolate",
		Short:        "Match documents against registered queries",
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			return a.load(cmd)
		},
	}
	cmd.PersistentFlags().StringVarP(&a.cfgPath, "config", "c", "percolator.toml", "configuration file")

	cmd.AddCommand(newRunCmd(a), newSnapshotCmd(a))
	return cmd
}

func (a *app) load(cmd *cobra.Command) error {
	cfg, err := config.Load(a.cfgPath)
	if err != nil {
		return err
	}
	level, err := cfg.Log.SlogLevel()
	if err != nil {
		return err
	}

	opts := &slog.HandlerOptions{Level: level}
	var h slog.Handler
	if cfg.Log.Format == "json" {
		h = slog.NewJSONHandler(cmd.ErrOrStderr(), opts)
	} else {
		h = slog.NewTextHandler(cmd.ErrOrStderr(), opts)
	}

	a.cfg = cfg
	a.logger = percolator.NewLogger(h)
	return nil
}

// registry builds a registry holding the queries of the configuration file.
func (a *app) registry() (*registry.Registry, error) {
	reg := registry.New(
		registry.WithShards(a.cfg.Registry.Shards),
		registry.WithLogger(a.logger.Logger),
	)
	for _, q := range a.cfg.Queries {
		meta, err := document.FromMap(q.Metadata)
		if err != nil {
			return nil, fmt.Errorf("query %q metadata: %w", q.ID, err)
		}
		if err := reg.RegisterDefinition(q.ID, q.Query, meta); err != nil {
			return nil, err
		}
	}
	return reg, nil
}

func (a *app) percolator(reg *registry.Registry) (*percolator.Percolator, error) {
	opts := []percolator.Option{
		percolator.WithLogger(a.logger),
		percolator.WithPoolSize(a.cfg.Percolate.PoolSize),
	}
	if rc := a.cfg.Resource; rc != (config.ResourceConfig{}) {
		opts = append(opts, percolator.WithResourceConfig(resource.Config{
			MemoryLimitBytes:      rc.MemoryLimitBytes,
			MaxConcurrentRequests: rc.MaxConcurrentRequests,
			RequestsPerSecond:     rc.RequestsPerSecond,
			Burst:                 rc.Burst,
			IOLimitBytesPerSec:    rc.IOLimitBytesPerSec,
		}))
	}
	return percolator.New(reg, opts...)
}
