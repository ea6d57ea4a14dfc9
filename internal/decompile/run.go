package decompile

import (
	"fmt"

	"github.com/deploymenttheory/garlic/internal/errs"
)

// Options is the decoded CLI surface of spec.md §6.
type Options struct {
	Path    string
	Dump    bool // -p
	Smali   bool // -s
	Out     string
	Workers int
}

// Run classifies opts.Path and dispatches to the matching pipeline,
// mirroring garlic.c's main(): classify, then run_for_jvm_class /
// run_for_jvm_jar / run_for_dex / run_for_apk.
func Run(opts Options) error {
	kind, err := Classify(opts.Path)
	if err != nil {
		return err
	}

	switch kind {
	case KindJavaClass:
		return runJVMClass(opts.Path, opts.Dump, opts.Out)
	case KindJAR:
		if opts.Dump {
			return runDexDumpUnsupported(opts.Path, "JAR")
		}
		return runJAR(opts.Path, opts.Out, opts.Workers)
	case KindDEX:
		switch {
		case opts.Dump:
			return runDexDump(opts.Path)
		case opts.Smali:
			return runDexSmali(opts.Path, opts.Out, opts.Workers)
		default:
			return runDexDecompile(opts.Path, opts.Out, opts.Workers)
		}
	case KindAPK:
		return runAPK(opts.Path, opts.Out, opts.Workers, opts.Smali)
	default:
		return fmt.Errorf("%w: unsupported file type: %s", errs.ErrInput, opts.Path)
	}
}

func runDexDumpUnsupported(path, kind string) error {
	return fmt.Errorf("%w: -p dump mode is only defined for class/DEX files, not %s (%s)", errs.ErrInput, kind, path)
}
