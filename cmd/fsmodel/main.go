// Command fsmodel evaluates model scripts and reports the derived geometry.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/chazu/fsmodel/pkg/config"
	"github.com/chazu/fsmodel/pkg/engine"
	"github.com/chazu/fsmodel/pkg/logging"
	"github.com/chazu/fsmodel/pkg/model"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

// app carries the state shared by all subcommands once the root command's
// pre-run has loaded it.
type app struct {
	configPath string
	verbose    bool

	cfg    *config.Config
	logger *zap.Logger
}

func newRootCmd() *cobra.Command {
	a := &app{}
	root := &cobra.Command{
		Use:   "fsmodel",
		Short: "Evaluate and check structural model scripts",
		Long: `fsmodel builds an in-memory structural model (coordinate systems, nodes,
beam/pipe elements, element offsets and spring/couple elements) from a
Lisp script and reports its derived geometry.`,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(a.configPath)
			if err != nil {
				return err
			}
			a.cfg = cfg
			a.logger, err = logging.New(cfg.Logging, a.verbose)
			return err
		},
		PersistentPostRun: func(cmd *cobra.Command, args []string) {
			if a.logger != nil {
				_ = a.logger.Sync()
			}
		},
	}
	root.PersistentFlags().StringVar(&a.configPath, "config", "fsmodel.yaml", "configuration file")
	root.PersistentFlags().BoolVarP(&a.verbose, "verbose", "v", false, "debug logging")

	root.AddCommand(
		&cobra.Command{
			Use:   "eval <script>",
			Short: "Evaluate a script and print element geometry",
			Args:  cobra.ExactArgs(1),
			RunE:  a.runEval,
		},
		&cobra.Command{
			Use:   "check <script>",
			Short: "Validate the model built by a script",
			Long: `Validates the model: offset reference cycles and dangling coordinate
system references are errors; geometry diagnostics are warnings. Exits
non-zero when there are errors.`,
			Args: cobra.ExactArgs(1),
			RunE: a.runCheck,
		},
		&cobra.Command{
			Use:   "dump <script>",
			Short: "Print the model definition as YAML",
			Args:  cobra.ExactArgs(1),
			RunE:  a.runDump,
		},
	)
	return root
}

// evaluate reads and evaluates the script at path. Script errors are
// printed and turned into a single returned error.
func (a *app) evaluate(cmd *cobra.Command, path string) (*model.Model, []engine.EvalWarning, error) {
	src, err := os.ReadFile(path)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to read script: %w", err)
	}

	eng := engine.NewEngine(
		engine.WithLogger(a.logger),
		engine.WithTimeout(a.cfg.EngineTimeout()),
		engine.WithModelOptions(model.WithTolerances(a.cfg.ModelTolerances())),
	)
	res, err := eng.Evaluate(string(src))
	if err != nil {
		return nil, nil, fmt.Errorf("%s: %w", path, err)
	}
	if len(res.Errors) > 0 {
		for _, e := range res.Errors {
			fmt.Fprintf(cmd.ErrOrStderr(), "%s: %s\n", path, e)
		}
		return nil, nil, fmt.Errorf("%s: %d evaluation errors", path, len(res.Errors))
	}
	return res.Model, res.Warnings, nil
}
