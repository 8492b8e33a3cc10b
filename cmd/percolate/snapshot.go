package main

import (
	"slices"

	"github.com/spf13/cobra"

	"github.com/hupe1980/percolator/registry"
)

func newSnapshotCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "snapshot",
		Short: "Manage registry snapshots",
	}
	cmd.AddCommand(
		&cobra.Command{
			Use:   "save",
			Short: "Save the configured queries as a snapshot",
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, _ []string) error {
				return a.snapshotSave(cmd)
			},
		},
		&cobra.Command{
			Use:   "load",
			Short: "Load a snapshot and list its queries",
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, _ []string) error {
				return a.snapshotLoad(cmd)
			},
		},
		&cobra.Command{
			Use:   "list [prefix]",
			Short: "List the blobs of the snapshot store",
			Args:  cobra.MaximumNArgs(1),
			RunE: func(cmd *cobra.Command, args []string) error {
				return a.snapshotList(cmd, args)
			},
		},
	)
	return cmd
}

func (a *app) snapshotSave(cmd *cobra.Command) error {
	ctx := cmd.Context()

	opts, err := saveOptions(a.cfg.Snapshot)
	if err != nil {
		return err
	}
	reg, err := a.registry()
	if err != nil {
		return err
	}
	p, err := a.percolator(reg)
	if err != nil {
		return err
	}
	defer p.Close()

	store, closeStore, err := a.openStore(ctx)
	if err != nil {
		return err
	}
	defer closeStore()

	stats, err := p.SaveSnapshot(ctx, store, a.cfg.Snapshot.Name, opts...)
	if err != nil {
		return err
	}
	cmd.Printf("Saved %d queries (%d bytes) to %s\n", stats.Saved, stats.Bytes, a.cfg.Snapshot.Name)
	return nil
}

func (a *app) snapshotLoad(cmd *cobra.Command) error {
	ctx := cmd.Context()

	reg := registry.New(registry.WithShards(a.cfg.Registry.Shards), registry.WithLogger(a.logger.Logger))
	p, err := a.percolator(reg)
	if err != nil {
		return err
	}
	defer p.Close()

	store, closeStore, err := a.openStore(ctx)
	if err != nil {
		return err
	}
	defer closeStore()

	n, err := p.LoadSnapshot(ctx, store, a.cfg.Snapshot.Name)
	if err != nil {
		return err
	}

	ids := make([]string, 0, n)
	reg.Range(func(e registry.Entry) bool {
		ids = append(ids, e.ID)
		return true
	})
	slices.Sort(ids)

	cmd.Printf("Loaded %d queries from %s\n", n, a.cfg.Snapshot.Name)
	for _, id := range ids {
		cmd.Printf("  %s\n", id)
	}
	return nil
}

func (a *app) snapshotList(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()

	prefix := ""
	if len(args) == 1 {
		prefix = args[0]
	}

	store, closeStore, err := a.openStore(ctx)
	if err != nil {
		return err
	}
	defer closeStore()

	names, err := store.List(ctx, prefix)
	if err != nil {
		return err
	}
	for _, name := range names {
		cmd.Println(name)
	}
	return nil
}
