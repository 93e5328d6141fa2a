package main

import (
	"fmt"
	"os"

	"github.com/hanpama/graphview/internal/config"
	"github.com/hanpama/graphview/internal/logging"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

// app carries state shared by the subcommands of one invocation.
type app struct {
	configPath string
	verbose    bool

	// overrides applied over the loaded config when the flag was set
	views     string
	backend   string
	database  string
	endpoints []string
	reasoning bool
	debug     bool

	cfg config.Config
	log *zap.Logger
}

func newRootCmd() *cobra.Command {
	a := &app{}
	root := &cobra.Command{
		Use:   "graphview",
		Short: "graphview renders views composed from trees of graph query templates",
		Long: `graphview answers GET /{view} by executing the view's query templates
breadth-first against a SPARQL endpoint or a local SQLite dataset and rendering
the nested results through a content-negotiated response template.`,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return a.setup(cmd)
		},
		PersistentPostRun: func(cmd *cobra.Command, args []string) {
			if a.log != nil {
				_ = a.log.Sync()
			}
		},
	}

	f := root.PersistentFlags()
	f.StringVarP(&a.configPath, "config", "c", "", "YAML config file")
	f.BoolVarP(&a.verbose, "verbose", "v", false, "Enable debug logging")
	f.StringVar(&a.views, "views", "", "Views root directory")
	f.StringVar(&a.backend, "backend", "", "Query backend: sqlstore or sparqlhttp")
	f.StringVar(&a.database, "database", "", "SQLite database for the sqlstore backend (default: in-memory)")
	f.StringArrayVar(&a.endpoints, "endpoint", nil, "SPARQL query endpoint URL. Repeatable")
	f.BoolVar(&a.reasoning, "reasoning", false, "Run queries with inference enabled")
	f.BoolVar(&a.debug, "debug", false, "Render error details into responses")

	root.AddCommand(
		newServeCmd(a),
		newRenderCmd(a),
		newTreeCmd(a),
		newLoadCmd(a),
	)
	return root
}

// setup loads the config, applies flag overrides and builds the logger.
func (a *app) setup(cmd *cobra.Command) error {
	cfg, err := config.Load(a.configPath)
	if err != nil {
		return err
	}
	flags := cmd.Flags()
	if flags.Changed("views") {
		cfg.Views = a.views
	}
	if flags.Changed("backend") {
		cfg.Backend.Kind = a.backend
	}
	if flags.Changed("database") {
		cfg.Backend.Database = a.database
	}
	if flags.Changed("endpoint") {
		cfg.Backend.QueryEndpoints = a.endpoints
	}
	if flags.Changed("reasoning") {
		cfg.Reasoning = a.reasoning
	}
	if flags.Changed("debug") {
		cfg.Debug = a.debug
	}
	if err := cfg.Validate(); err != nil {
		return err
	}
	a.cfg = cfg

	a.log, err = logging.New(a.verbose)
	if err != nil {
		return fmt.Errorf("failed to initialize logger: %w", err)
	}
	return nil
}
