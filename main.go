// Command garlic decompiles Java class files, JAR archives, Android
// DEX files, and APK archives into Java source or Smali assembly.
package main

import (
	"errors"
	"fmt"
	"os"

	"github.com/deploymenttheory/garlic/cmd"
	"github.com/deploymenttheory/garlic/internal/config"
	"github.com/deploymenttheory/garlic/internal/errs"
	"github.com/deploymenttheory/garlic/internal/logger"
)

func main() {
	if err := config.Initialize(""); err != nil {
		fmt.Fprintf(os.Stderr, "[garlic] config error: %v\n", err)
	}
	if err := logger.InitLogger(logger.LoggerConfig{
		Debug:     config.Instance.Debug,
		LogFormat: config.Instance.LogFormat,
		LogFile:   config.Instance.LogFile,
	}); err != nil {
		fmt.Fprintf(os.Stderr, "[garlic] logger init failed: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()

	os.Exit(run())
}

// run executes the CLI and maps its outcome onto spec.md §6's exit
// codes: 0 success, 1 unsupported/invalid input, 2 usage error.
func run() int {
	err := cmd.Execute()
	if err == nil {
		return 0
	}

	switch {
	case errors.Is(err, errs.ErrInput), errors.Is(err, errs.ErrFormat):
		fmt.Fprintf(os.Stderr, "[garlic] %v\n", err)
		return 1
	case errors.Is(err, errs.ErrIO), errors.Is(err, errs.ErrResource), errors.Is(err, errs.ErrLift):
		fmt.Fprintf(os.Stderr, "[garlic] %v\n", err)
		return 1
	default:
		fmt.Fprintf(os.Stderr, "[garlic] %v\n", err)
		return 2
	}
}
