package main

import (
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"

	"github.com/go-viper/mapstructure/v2"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"

	"github.com/arthur-debert/nanograph/nanograph"
	"github.com/arthur-debert/nanograph/nanograph/schema"
)

// ViperCLI implements the Viper-driven nanograph CLI
type ViperCLI struct {
	rootCmd   *cobra.Command
	viperInst *viper.Viper
	logger    *slog.Logger
	logCloser io.Closer
}

// NewViperCLI creates a new Viper-powered CLI
func NewViperCLI() *ViperCLI {
	cli := &ViperCLI{
		viperInst: viper.New(),
		logger:    slog.New(slog.NewTextHandler(io.Discard, nil)),
	}

	cli.setupViperConfig()
	cli.createRootCommand()
	cli.addCommands()

	return cli
}

// setupViperConfig configures Viper with environment variables and config files
func (cli *ViperCLI) setupViperConfig() {
	// NANOGRAPH_CONFIG names a config file explicitly
	if configFile := os.Getenv("NANOGRAPH_CONFIG"); configFile != "" {
		cli.viperInst.SetConfigFile(configFile)
	} else {
		cli.viperInst.SetConfigName("nanograph")
		cli.viperInst.SetConfigType("yaml")
		cli.viperInst.AddConfigPath(".")
		cli.viperInst.AddConfigPath("$HOME/.nanograph")
	}

	cli.viperInst.SetEnvPrefix("NANOGRAPH")
	cli.viperInst.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	cli.viperInst.AutomaticEnv()

	// Read config file if it exists (ignore errors)
	_ = cli.viperInst.ReadInConfig()
}

// createRootCommand creates the root Cobra command with Viper integration
func (cli *ViperCLI) createRootCommand() {
	cli.rootCmd = &cobra.Command{
		Use:   "nanograph",
		Short: "Normalize nested records and hydrate them back into object graphs",
		Long: `nanograph flattens nested records into one partition per entity, creating
pivot records for many-to-many relations, and rebuilds connected records
from those partitions on demand.

Configuration Sources (in order of precedence):
1. Command line flags
2. Environment variables (NANOGRAPH_*)
3. Configuration file (NANOGRAPH_CONFIG, ./nanograph.yaml, ~/.nanograph/nanograph.yaml)

Examples:
  # Show the flat partitions of a seed file
  nanograph --schema schema.yaml normalize seed.yaml

  # Load a user with its roles and their permissions
  nanograph --schema schema.yaml --seed seed.yaml load users --id 1 --with roles.permissions

  # List configured models
  nanograph --schema schema.yaml models`,
		SilenceUsage: true,

		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			bindFlags(cli.viperInst, cmd.Flags())

			logger, closer, err := initLogging(
				cli.viperInst.GetString("log-level"),
				cli.viperInst.GetBool("verbose"),
				cmd.ErrOrStderr(),
			)
			if err != nil {
				return NewConfigError("initialize logging", err.Error(), CommonSuggestions.CheckConfig)
			}
			cli.logger = logger
			cli.logCloser = closer
			return nil
		},
		PersistentPostRunE: func(cmd *cobra.Command, args []string) error {
			if cli.logCloser != nil {
				return cli.logCloser.Close()
			}
			return nil
		},
	}

	cli.addGlobalFlags()
}

// addGlobalFlags adds persistent flags that apply to all commands
func (cli *ViperCLI) addGlobalFlags() {
	flags := cli.rootCmd.PersistentFlags()

	flags.StringP("schema", "s", "", "Schema file path (required)")
	flags.StringSlice("seed", nil, "Seed files to insert before running the command")
	flags.StringP("format", "f", "yaml", "Output format (yaml|json)")
	flags.String("log-level", "warn", "Log level (debug|info|warn|error)")
	flags.BoolP("verbose", "v", false, "Also write logs to stderr")

	bindFlags(cli.viperInst, flags)
}

// bindFlags binds every flag of fs to the viper key of the same name
func bindFlags(v *viper.Viper, fs *pflag.FlagSet) {
	fs.VisitAll(func(flag *pflag.Flag) {
		_ = v.BindPFlag(flag.Name, flag)
	})
}

// addCommands adds all the CLI commands
func (cli *ViperCLI) addCommands() {
	cli.addModelsCommand()
	cli.addNormalizeCommand()
	cli.addLoadCommand()
}

// openStore builds the configured schema and a store, then inserts seeds
func (cli *ViperCLI) openStore(operation string, extraSeeds ...string) (*nanograph.Store, error) {
	registry, err := cli.loadSchema(operation)
	if err != nil {
		return nil, err
	}

	s, err := nanograph.New(registry, nanograph.WithLogger(cli.logger))
	if err != nil {
		return nil, WrapError(operation, err)
	}

	seeds := append(cli.viperInst.GetStringSlice("seed"), extraSeeds...)
	for _, path := range seeds {
		cli.logger.Info("inserting seed", "path", path)
		if _, err := nanograph.Seed(s, path); err != nil {
			return nil, WrapError(operation, err, CommonSuggestions.CheckSeed)
		}
	}
	return s, nil
}

// loadSchema reads the schema file through its own viper instance, so
// schema files can be YAML, JSON or TOML
func (cli *ViperCLI) loadSchema(operation string) (*schema.Registry, error) {
	path := cli.viperInst.GetString("schema")
	if path == "" {
		return nil, NewConfigError(operation, "no schema file given",
			"Pass --schema or set NANOGRAPH_SCHEMA", CommonSuggestions.CheckConfig)
	}

	v := viper.New()
	v.SetConfigFile(path)
	if err := v.ReadInConfig(); err != nil {
		return nil, &CLIError{
			Operation:   operation,
			Cause:       "cannot read schema",
			Details:     err.Error(),
			Suggestions: []string{CommonSuggestions.CheckSchema},
			Underlying:  err,
		}
	}

	var cfg schema.Config
	hook := viper.DecodeHook(mapstructure.ComposeDecodeHookFunc(
		schema.ConfigDecodeHook(),
		mapstructure.StringToTimeDurationHookFunc(),
		mapstructure.StringToSliceHookFunc(","),
	))
	if err := v.Unmarshal(&cfg, hook); err != nil {
		return nil, WrapError(operation, err, CommonSuggestions.CheckSchema)
	}

	registry, err := schema.FromConfig(cfg)
	if err != nil {
		return nil, WrapError(operation, err, CommonSuggestions.CheckSchema)
	}
	cli.logger.Debug("schema loaded", "path", path, "models", registry.Entities())
	return registry, nil
}

// outputResult formats and writes result based on the configured format
func (cli *ViperCLI) outputResult(w io.Writer, result interface{}) error {
	switch format := cli.viperInst.GetString("format"); format {
	case "json":
		encoder := json.NewEncoder(w)
		encoder.SetIndent("", "  ")
		return encoder.Encode(result)
	case "yaml", "":
		encoder := yaml.NewEncoder(w)
		encoder.SetIndent(2)
		if err := encoder.Encode(result); err != nil {
			return err
		}
		return encoder.Close()
	default:
		return NewValidationError("write output", "format", format, "Use --format yaml or --format json")
	}
}

// Execute runs the CLI
func (cli *ViperCLI) Execute() error {
	return cli.rootCmd.Execute()
}

// GetRootCommand returns the root Cobra command for testing
func (cli *ViperCLI) GetRootCommand() *cobra.Command {
	return cli.rootCmd
}

// fatal prints err and exits
func fatal(err error) {
	fmt.Fprintf(os.Stderr, "Error: %v\n", err)
	os.Exit(1)
}
