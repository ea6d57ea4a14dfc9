package decompile

import (
	"fmt"
	"os"

	"github.com/deploymenttheory/garlic/internal/arena"
	"github.com/deploymenttheory/garlic/internal/errs"
	"github.com/deploymenttheory/garlic/internal/jvmclass"
)

// runJVMClass implements the JVM single `.class` file path. Per
// SUPPLEMENTED FEATURES, it never schedules a worker pool — dump and
// decompile both run inline on the calling goroutine, and `-t` is
// parsed but silently unused here (see DESIGN.md Open Question 1).
func runJVMClass(path string, dump bool, out string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("%w: %v", errs.ErrInput, err)
	}
	// No worker pool runs for a standalone .class file (DESIGN.md Open
	// Question 1), so Parse gets a bare scratch arena instead of one
	// drawn from a worker.Pool task.
	cf, err := jvmclass.Parse(data, arena.New())
	if err != nil {
		return err
	}

	if dump {
		text, err := cf.Dump()
		if err != nil {
			return err
		}
		fmt.Println(text)
		return nil
	}

	text, err := RenderJVMJavaFile(cf)
	if err != nil {
		return err
	}
	name, err := cf.ClassName()
	if err != nil {
		return err
	}
	outDir, err := PrepareOutputDir(path, out)
	if err != nil {
		return fmt.Errorf("%w: %v", errs.ErrIO, err)
	}
	dest := classOutputPath(outDir, "L"+name+";", "java")
	if err := writeOutputFile(dest, text); err != nil {
		return fmt.Errorf("%w: %v", errs.ErrIO, err)
	}
	fmt.Printf("Written: %s\n", dest)
	return nil
}
