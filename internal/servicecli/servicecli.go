// Package servicecli is the cobra-based CLI skeleton every trading-service
// binary embeds so the `manifest`/`run` subcommands the supervisor relies
// on to spawn and introspect services are implemented identically across
// binaries, using one root command with subcommands the way the rest of
// this module's binaries are laid out.
package servicecli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/ManuMario0/trading-lab-sub000/pkg/log"
	"github.com/ManuMario0/trading-lab-sub000/pkg/manifest"
)

// RunConfig is the parsed form of the `run` subcommand's flags, handed to
// the binary's RunFunc.
type RunConfig struct {
	ServiceName string
	ServiceID   uint64
	Bindings    manifest.ServiceBindings
	ConfigDir   string
	DataDir     string
}

// RunFunc is the binary-specific entry point invoked after `run`'s flags
// have been parsed and bindings decoded.
type RunFunc func(cfg RunConfig) error

// New builds the root command for one service binary: `<bin> manifest`
// prints man's JSON and exits; `<bin> run --service-name ... --bindings
// ...` parses flags and calls runFn. Exit codes: 0 when runFn returns
// nil, 1 when the flags or --bindings cannot be parsed, 2 for any error
// runFn returns. Errors in runFn's own start-up, such as a port that
// cannot be bound, therefore also exit 2.
func New(binName string, man manifest.ServiceManifest, runFn RunFunc) *cobra.Command {
	root := &cobra.Command{
		Use:   binName,
		Short: fmt.Sprintf("%s trading mesh service", binName),
	}
	root.PersistentFlags().String("log-level", "info", "Log level (debug, info, warn, error)")
	root.PersistentFlags().Bool("log-json", false, "Output logs in JSON format")
	cobra.OnInitialize(func() {
		logLevel, _ := root.PersistentFlags().GetString("log-level")
		logJSON, _ := root.PersistentFlags().GetBool("log-json")
		log.Init(log.Config{Level: log.Level(logLevel), JSONOutput: logJSON})
	})

	manifestCmd := &cobra.Command{
		Use:   "manifest",
		Short: "Print this service's ServiceManifest as JSON and exit",
		RunE: func(cmd *cobra.Command, args []string) error {
			return printManifest(man)
		},
	}

	runCmd := &cobra.Command{
		Use:   "run",
		Short: "Run the service, connecting to its resolved bindings",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := parseRunFlags(cmd)
			if err != nil {
				fmt.Fprintf(os.Stderr, "%s: %v\n", binName, err)
				os.Exit(1)
			}
			if err := runFn(cfg); err != nil {
				fmt.Fprintf(os.Stderr, "%s: %v\n", binName, err)
				os.Exit(2)
			}
			return nil
		},
	}
	runCmd.Flags().String("service-name", "", "This node's unique id in the layout")
	runCmd.Flags().Uint64("service-id", 0, "This node's stable numeric id")
	runCmd.Flags().String("bindings", "", "JSON-encoded ServiceBindings")
	runCmd.Flags().String("config-dir", "", "Per-node config directory")
	runCmd.Flags().String("data-dir", "", "Per-node data directory")
	_ = runCmd.MarkFlagRequired("service-name")
	_ = runCmd.MarkFlagRequired("bindings")

	root.AddCommand(manifestCmd, runCmd)
	return root
}

func parseRunFlags(cmd *cobra.Command) (RunConfig, error) {
	name, _ := cmd.Flags().GetString("service-name")
	id, _ := cmd.Flags().GetUint64("service-id")
	bindingsJSON, _ := cmd.Flags().GetString("bindings")
	configDir, _ := cmd.Flags().GetString("config-dir")
	dataDir, _ := cmd.Flags().GetString("data-dir")

	var bindings manifest.ServiceBindings
	if err := unmarshalBindings(bindingsJSON, &bindings); err != nil {
		return RunConfig{}, fmt.Errorf("servicecli: decode --bindings: %w", err)
	}

	return RunConfig{
		ServiceName: name,
		ServiceID:   id,
		Bindings:    bindings,
		ConfigDir:   configDir,
		DataDir:     dataDir,
	}, nil
}

// Execute runs root and translates a cobra usage/parse error into exit
// code 1, matching the harness's "fatal start-up error" contract for
// malformed CLI invocations (as opposed to errors from inside RunFunc,
// which set their own exit code before returning).
func Execute(root *cobra.Command) {
	if err := root.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
