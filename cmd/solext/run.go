package main

import (
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"
	"github.com/tmaxmax/solext/pkg/extest"
	"github.com/tmaxmax/solext/pkg/preset"
	"github.com/tmaxmax/solext/pkg/toolchain"
	"go.uber.org/zap"
)

var runFlags struct {
	binaryType   string
	binaryPath   string
	projectFile  string
	presets      string
	workDir      string
	solcjsRepo   string
	solcjsBranch string
	keep         bool
	showOutput   bool
}

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Run the external tests of a project",
	Example: `  solext run --binary-type native --binary-path build/solc/solc --project zeppelin.yaml
  solext run --binary-type solcjs --binary-path emscripten/soljson.js --project gnosis.yaml --presets legacy-no-optimize`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		presets, err := preset.ParseList(runFlags.presets)
		if err != nil {
			return err
		}

		project, err := extest.LoadProjectConfig(runFlags.projectFile)
		if err != nil {
			return err
		}

		r := &extest.Runner{
			Config: &extest.Config{
				BinaryType:       runFlags.binaryType,
				BinaryPath:       runFlags.binaryPath,
				Presets:          presets,
				Project:          project,
				WorkDir:          runFlags.workDir,
				Keep:             runFlags.keep,
				SolcJSRepository: runFlags.solcjsRepo,
				SolcJSBranch:     runFlags.solcjsBranch,
			},
			Logger: logger,
		}
		if runFlags.showOutput {
			r.Output = os.Stderr
		}

		report, err := r.Run(cmd.Context())
		if err != nil {
			return err
		}

		for _, p := range report.Presets {
			status := "passed"
			if !p.Tested {
				status = "compiled"
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%-26s %-9s %s\n", p.Preset, status, p.Duration.Round(time.Millisecond))
		}

		logger.Info("run finished", zap.String("run", report.RunID), zap.String("compiler", report.Compiler.Version))
		return nil
	},
}

func init() {
	f := runCmd.Flags()
	f.StringVar(&runFlags.binaryType, "binary-type", "", fmt.Sprintf("Type of the compiler binary %v", toolchain.BinaryTypes()))
	f.StringVar(&runFlags.binaryPath, "binary-path", "", "Path to the solc executable or the soljson.js file")
	f.StringVar(&runFlags.projectFile, "project", "", "YAML file describing the project under test")
	f.StringVar(&runFlags.presets, "presets", "", "Comma or space separated presets to run (default: all)")
	f.StringVar(&runFlags.workDir, "work-dir", "", "Directory to install the compiler and the project in (default: temporary)")
	f.StringVar(&runFlags.solcjsRepo, "solcjs-repo", "", "Git URL of the solc-js sources")
	f.StringVar(&runFlags.solcjsBranch, "solcjs-branch", "", "Branch of the solc-js sources")
	f.BoolVar(&runFlags.keep, "keep", false, "Keep the temporary work directory")
	f.BoolVar(&runFlags.showOutput, "show-output", false, "Forward the output of external programs to stderr")

	for _, name := range []string{"binary-type", "binary-path", "project"} {
		if err := runCmd.MarkFlagRequired(name); err != nil {
			panic(err)
		}
	}
}
