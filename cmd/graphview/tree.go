package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"
)

func newTreeCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "tree [view...]",
		Short: "Compile views and print their query trees",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			catalog, err := newCatalog(a.cfg)
			if err != nil {
				return err
			}
			names := args
			if len(names) == 0 {
				if names, err = catalog.List(ctx); err != nil {
					return err
				}
			}
			out := cmd.OutOrStdout()
			for _, name := range names {
				v, err := catalog.Resolve(ctx, name)
				if err != nil {
					return err
				}
				fmt.Fprintf(out, "%s [%s]\n", v.Name, strings.Join(v.MediaTypes(), ", "))
				fmt.Fprint(out, v.Tree.String())
			}
			return nil
		},
	}
}
