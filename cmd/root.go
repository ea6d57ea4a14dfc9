// Package cmd implements garlic's CLI surface: a single positional
// input path plus the -p/-s/-o/-t flags of spec.md §6, following the
// teacher's cobra root-command-with-persistent-flags pattern
// (internal/cmd/root.go's flag binding and PersistentPreRun shape).
package cmd

import (
	"github.com/spf13/cobra"

	"github.com/deploymenttheory/garlic/internal/config"
	"github.com/deploymenttheory/garlic/internal/decompile"
	"github.com/deploymenttheory/garlic/internal/logger"
)

var (
	cfgFile    string
	dumpFlag   bool
	smaliFlag  bool
	outFlag    string
	workersFlag int
)

// rootCmd is garlic's single command: classify the input file and
// dispatch to the dump/decompile/smali pipeline.
var rootCmd = &cobra.Command{
	Use:           "garlic <file>",
	Short:         "Decompile Java class files, JARs, DEX files, and APKs",
	Long: `garlic decompiles Java bytecode artifacts -- standalone class
files, JAR archives, Android DEX files, and APK archives -- back into
readable Java source or Smali assembly, or prints a structural dump.`,
	Args:          cobra.ExactArgs(1),
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		if cmd.Flags().Changed("config") && cfgFile != "" {
			if err := config.Initialize(cfgFile); err != nil {
				logger.LogError("error loading config file", err, map[string]interface{}{
					"config_file": cfgFile,
				})
			}
		}
	},
	RunE: func(cmd *cobra.Command, args []string) error {
		workers := workersFlag
		if !cmd.Flags().Changed("threads") {
			workers = config.Instance.Workers
		}
		opts := decompile.Options{
			Path:    args[0],
			Dump:    dumpFlag,
			Smali:   smaliFlag,
			Out:     outFlag,
			Workers: workers,
		}
		return decompile.Run(opts)
	},
}

// Execute runs the root command and returns its error, if any, so
// main can translate it into spec.md §6's exit codes.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is search in standard locations)")
	rootCmd.Flags().BoolVarP(&dumpFlag, "dump", "p", false, "print structural info (like javap/dexdump)")
	rootCmd.Flags().BoolVarP(&smaliFlag, "smali", "s", false, "convert DEX/APK classes to Smali")
	rootCmd.Flags().StringVarP(&outFlag, "output", "o", "", "output directory (default: sibling of the input file)")
	rootCmd.Flags().IntVarP(&workersFlag, "threads", "t", 0, "number of worker threads (default 4, clamped to [1,16])")
}
