// ecosparql is an operator tool for the eco-tourism triplestore: it reads,
// searches, patches, exports and imports entities over SPARQL.
//
// Usage:
//
//	ecosparql [--config ecosparql.yaml] [--verbose] <command> [args]
//
// Connection settings come from the YAML file, overridden by ECOSPARQL_*
// environment variables.
package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/ecotourisme/go-ecosparql/config"
	"github.com/ecotourisme/go-ecosparql/driver"
	"github.com/ecotourisme/go-ecosparql/triplestore"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

const version = "0.4.0"

// app carries the state shared by all subcommands.
type app struct {
	configPath string
	verbose    bool
	jsonOut    bool

	out    io.Writer
	errOut io.Writer
	lookup func(string) (string, bool)

	cfg      *config.Config
	logger   *zap.Logger
	registry *prometheus.Registry
	drv      *driver.Driver
	manager  *triplestore.Manager
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	a := &app{out: os.Stdout, errOut: os.Stderr, lookup: os.LookupEnv}
	if err := a.rootCmd().ExecuteContext(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func (a *app) rootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:           "ecosparql",
		Short:         "Manage eco-tourism entities in a SPARQL triplestore",
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return a.setup()
		},
		PersistentPostRun: func(cmd *cobra.Command, args []string) {
			a.close()
		},
	}
	root.SetOut(a.out)
	root.SetErr(a.errOut)

	flags := root.PersistentFlags()
	flags.StringVarP(&a.configPath, "config", "c", "", "path to the YAML configuration file")
	flags.BoolVarP(&a.verbose, "verbose", "v", false, "log at debug level")
	flags.BoolVar(&a.jsonOut, "json", false, "print results as JSON")

	root.AddCommand(
		a.getCmd(),
		a.listCmd(),
		a.searchCmd(),
		a.findCmd(),
		a.reportCmd(),
		a.queryCmd(),
		a.updateCmd(),
		a.setCmd(),
		a.casCmd(),
		a.unsetCmd(),
		a.deleteCmd(),
		a.exportCmd(),
		a.importCmd(),
		a.syncOntologyCmd(),
		a.classifyCmd(),
	)
	return root
}

// setup loads the configuration and builds the logger. The store connection
// is opened lazily by store.
func (a *app) setup() error {
	cfg, err := config.Load(a.configPath)
	if err != nil {
		return err
	}
	if err := cfg.ApplyEnv(a.lookup); err != nil {
		return err
	}
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}
	a.cfg = cfg

	zc := zap.NewProductionConfig()
	zc.Level = zap.NewAtomicLevelAt(cfg.Level())
	if a.verbose {
		zc.Level = zap.NewAtomicLevelAt(zapcore.DebugLevel)
	}
	zc.OutputPaths = []string{"stderr"}
	logger, err := zc.Build()
	if err != nil {
		return fmt.Errorf("failed to initialize logger: %w", err)
	}
	a.logger = logger
	return nil
}

func (a *app) close() {
	if a.drv != nil {
		a.drv.Close()
		a.drv = nil
		a.manager = nil
	}
	if a.registry != nil {
		if err := a.cfg.WriteMetrics(a.registry); err != nil {
			a.logger.Warn("failed to write metrics", zap.Error(err))
		}
		a.registry = nil
	}
	if a.logger != nil {
		_ = a.logger.Sync()
	}
}

// store returns the manager, connecting on first use.
func (a *app) store() (*triplestore.Manager, error) {
	if a.manager != nil {
		return a.manager, nil
	}
	reg, metrics, err := a.cfg.MetricsRegistry()
	if err != nil {
		return nil, err
	}
	drv, err := driver.Open(a.cfg.QueryEndpoint, a.cfg.UpdateEndpoint, a.cfg.DriverOptions(a.logger, metrics)...)
	if err != nil {
		return nil, err
	}
	a.registry = reg
	factory, err := a.cfg.Factory(a.logger)
	if err != nil {
		drv.Close()
		return nil, err
	}
	m, err := triplestore.New(drv, factory,
		triplestore.WithLogger(a.logger),
		triplestore.WithWriteLocks(a.cfg.WriteLocksEnabled()),
	)
	if err != nil {
		drv.Close()
		return nil, err
	}
	a.drv = drv
	a.manager = m
	return m, nil
}
