package main

import (
	"fmt"
	"io"
	"net/url"
	"strings"

	"github.com/hanpama/graphview/internal/browser"
	"github.com/spf13/cobra"
)

func newRenderCmd(a *app) *cobra.Command {
	var (
		accept string
		trace  bool
	)
	cmd := &cobra.Command{
		Use:   "render <view> [name=value...]",
		Short: "Render one view to stdout",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			params, order, err := parseParams(args[1:])
			if err != nil {
				return err
			}

			b, err := openBackend(ctx, a.cfg.Backend, a.log)
			if err != nil {
				return err
			}
			defer b.Close()
			catalog, err := newCatalog(a.cfg)
			if err != nil {
				return err
			}

			resp, err := newBrowser(a.cfg, catalog, b, trace).Render(ctx, browser.Request{
				View:       args[0],
				Accept:     accept,
				Params:     params,
				ParamOrder: order,
				BaseURL:    "/" + args[0],
			})
			if err != nil {
				return err
			}
			if trace {
				printTrace(cmd.ErrOrStderr(), resp)
			}
			_, err = io.WriteString(cmd.OutOrStdout(), resp.Body)
			return err
		},
	}
	cmd.Flags().StringVarP(&accept, "accept", "a", "", "Accept header used for negotiation")
	cmd.Flags().BoolVar(&trace, "trace", false, "Print executed queries to stderr")
	return cmd
}

func parseParams(args []string) (url.Values, []string, error) {
	params := url.Values{}
	var order []string
	for _, arg := range args {
		name, value, ok := strings.Cut(arg, "=")
		if !ok || name == "" {
			return nil, nil, fmt.Errorf("invalid parameter %q, want name=value", arg)
		}
		if _, seen := params[name]; !seen {
			order = append(order, name)
		}
		params.Add(name, value)
	}
	return params, order, nil
}

func printTrace(w io.Writer, resp *browser.Response) {
	fmt.Fprintf(w, "# %s, %d queries\n", resp.MediaType, resp.Queries)
	for _, t := range resp.Trace {
		if t.Skipped {
			fmt.Fprintf(w, "-- %s (skipped)\n", t.Node)
			continue
		}
		fmt.Fprintf(w, "-- %s (%d rows)\n%s\n", t.Node, t.Rows, t.Query)
	}
}
