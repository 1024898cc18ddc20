package main

import (
	"fmt"
	"os"
	"strings"

	"github.com/paveg/odataq"
	"github.com/paveg/odataq/internal/alias"
	"github.com/paveg/odataq/internal/config"
	"github.com/paveg/odataq/internal/edm"
	"github.com/paveg/odataq/internal/edm/arrowmodel"
	"github.com/paveg/odataq/internal/logging"
	"github.com/paveg/odataq/internal/monitoring"
	"github.com/paveg/odataq/internal/version"
	"github.com/spf13/cobra"
)

const (
	outputText = "text"
	outputJSON = "json"
)

// options holds the persistent flags shared by every subcommand.
type options struct {
	schemaPath string
	parquet    []string
	namespace  string
	resource   string
	configPath string
	logLevel   string
	output     string
	aliases    []string
	syntaxOnly bool
	metrics    bool
}

func newRootCommand() *cobra.Command {
	opts := &options{}

	root := &cobra.Command{
		Use:           "odataq",
		Short:         "Parse and bind OData query options",
		Version:       version.Version,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	flags := root.PersistentFlags()
	flags.StringVarP(&opts.schemaPath, "schema", "s", "", "YAML schema document")
	flags.StringArrayVar(&opts.parquet, "parquet", nil, "derive an entity set from a Parquet file as Set=path (repeatable, instead of --schema)")
	flags.StringVar(&opts.namespace, "namespace", "Default", "namespace of types derived from --parquet")
	flags.StringVarP(&opts.resource, "resource", "r", "", "entity set or singleton the query targets")
	flags.StringVarP(&opts.configPath, "config", "c", "", "configuration file (.json, .yaml); defaults to ODATAQ_* environment variables")
	flags.StringVar(&opts.logLevel, "log-level", "", "log level (trace, debug, info, warn, error, disabled)")
	flags.StringVarP(&opts.output, "output", "o", outputText, "output format: text or json")
	flags.StringArrayVarP(&opts.aliases, "alias", "a", nil, "parameter alias value as @name=expression (repeatable)")
	flags.BoolVar(&opts.syntaxOnly, "syntax", false, "print the syntax tree without binding")
	flags.BoolVar(&opts.metrics, "metrics", false, "print a metrics summary to stderr")

	root.AddCommand(
		newFilterCommand(opts),
		newOrderByCommand(opts),
		newLevelsCommand(opts),
		newVersionCommand(),
	)
	return root
}

func (o *options) loadConfig(cmd *cobra.Command) (config.Config, error) {
	cfg := config.LoadFromEnv()
	if o.configPath != "" {
		loaded, err := config.LoadFromFile(o.configPath)
		if err != nil {
			return config.Config{}, err
		}
		cfg = loaded
	}
	if cmd.Flags().Changed("log-level") {
		cfg.LogLevel = o.logLevel
	}
	if o.metrics {
		cfg.MetricsCollection = true
	}
	return cfg, cfg.Validate()
}

// queryParser builds the facade for the selected schema and resource.
// The loaded configuration becomes the process-wide one, and --metrics
// installs a fresh process-wide collector that the parser picks up.
func (o *options) queryParser(cmd *cobra.Command) (*odataq.QueryParser, error) {
	if o.output != outputText && o.output != outputJSON {
		return nil, fmt.Errorf("unsupported output format %q", o.output)
	}
	if o.schemaPath == "" && len(o.parquet) == 0 {
		return nil, fmt.Errorf("--schema or --parquet is required")
	}
	if o.resource == "" {
		return nil, fmt.Errorf("--resource is required")
	}

	cfg, err := o.loadConfig(cmd)
	if err != nil {
		return nil, err
	}
	model, err := o.loadModel()
	if err != nil {
		return nil, err
	}
	accessor, err := alias.ParseAssignments(o.aliases)
	if err != nil {
		return nil, err
	}
	logger, err := logging.New(cmd.ErrOrStderr(), logging.FormatConsole, cfg.LogLevel)
	if err != nil {
		return nil, err
	}

	config.SetGlobalConfig(cfg)
	if cfg.MetricsCollection {
		monitoring.EnableGlobalMonitoring()
	} else {
		monitoring.DisableGlobalMonitoring()
	}
	return odataq.NewQueryParser(model, o.resource,
		odataq.WithAliasAccessor(accessor),
		odataq.WithLogger(logger),
	)
}

func (o *options) loadModel() (*edm.InMemoryModel, error) {
	if o.schemaPath != "" {
		if len(o.parquet) > 0 {
			return nil, fmt.Errorf("--schema and --parquet are mutually exclusive")
		}
		return edm.LoadModelFile(o.schemaPath)
	}

	b := arrowmodel.NewBuilder(o.namespace)
	for _, arg := range o.parquet {
		set, path, ok := strings.Cut(arg, "=")
		if !ok || set == "" || path == "" {
			return nil, fmt.Errorf("--parquet value %q must have the form Set=path", arg)
		}
		if err := addParquetSet(b, set, path); err != nil {
			return nil, err
		}
	}
	return b.Build()
}

func addParquetSet(b *arrowmodel.Builder, set, path string) error {
	f, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("opening %s: %w", path, err)
	}
	defer f.Close()
	_, err = b.AddParquetEntitySet(set, set, f)
	return err
}

func printMetrics(cmd *cobra.Command) error {
	if !monitoring.IsGlobalMonitoringEnabled() {
		return nil
	}
	data, err := monitoring.GetGlobalSummary().JSON()
	if err != nil {
		return err
	}
	_, err = fmt.Fprintln(cmd.ErrOrStderr(), string(data))
	return err
}
