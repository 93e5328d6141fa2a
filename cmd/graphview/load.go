package main

import (
	"errors"
	"fmt"

	"github.com/hanpama/graphview/internal/backend/sqlstore"
	"github.com/hanpama/graphview/internal/config"
	"github.com/spf13/cobra"
)

func newLoadCmd(a *app) *cobra.Command {
	var graph string
	cmd := &cobra.Command{
		Use:   "load <file.nt...>",
		Short: "Import N-Triples or N-Quads into the sqlstore database",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			bc := a.cfg.Backend
			if bc.Kind != config.BackendSQLStore {
				return fmt.Errorf("load needs the %s backend, not %q", config.BackendSQLStore, bc.Kind)
			}
			if bc.Database == "" {
				return errors.New("load needs --database; an in-memory dataset would be discarded")
			}
			store, err := sqlstore.Open(bc.Database)
			if err != nil {
				return err
			}
			defer store.Close()

			ctx := cmd.Context()
			for _, path := range args {
				n, err := loadFile(ctx, store, path, graph)
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "%s: %d statements\n", path, n)
			}
			total, err := store.Count(ctx)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%d statements in %s\n", total, bc.Database)
			return nil
		},
	}
	cmd.Flags().StringVarP(&graph, "graph", "g", "", "Graph IRI for statements without one (default graph if empty)")
	return cmd
}
