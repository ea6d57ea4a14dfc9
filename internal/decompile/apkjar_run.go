package decompile

import (
	"fmt"

	"github.com/deploymenttheory/garlic/internal/arena"
	"github.com/deploymenttheory/garlic/internal/archive"
	"github.com/deploymenttheory/garlic/internal/errs"
	"github.com/deploymenttheory/garlic/internal/jvmclass"
	"github.com/deploymenttheory/garlic/internal/logger"
	"github.com/deploymenttheory/garlic/internal/worker"
)

// runAPK implements the APK path of spec.md §4.7: open the archive,
// fan out one task per `.dex` entry's eligible class-defs (Smali mode
// never filters inner/anonymous classes), join, done.
func runAPK(path, out string, workers int, smaliMode bool) error {
	outDir, err := PrepareOutputDir(path, out)
	if err != nil {
		return fmt.Errorf("%w: %v", errs.ErrIO, err)
	}

	fmt.Println("[Garlic] APK file analysis")
	fmt.Printf("File     : %s\n", path)
	fmt.Printf("Save to  : %s\n", outDir)
	fmt.Printf("Thread   : %d\n", worker.ClampWorkers(workers))

	pool := worker.New(workers)
	kind := archive.KindDecompile
	if smaliMode {
		kind = archive.KindSmali
	}
	walkErr := archive.WalkAPK(path, kind, func(job archive.DexClassJob) {
		img, rc := job.Image, job.Class
		pool.Submit(worker.Task{Fn: func(p *arena.TaskPool) error {
			if smaliMode {
				return smaliOneClass(img, rc, outDir, p.Bytes)
			}
			return decompileOneClass(img, rc, outDir, p.Bytes)
		}})
	})
	pool.Join()
	if walkErr != nil {
		return walkErr
	}
	fmt.Println("\n[Done]")
	return nil
}

// runJAR implements the JAR path: one task per `.class` entry, no
// inner/anonymous suppression (spec.md §4's supplemented JAR note).
func runJAR(path, out string, workers int) error {
	outDir, err := PrepareOutputDir(path, out)
	if err != nil {
		return fmt.Errorf("%w: %v", errs.ErrIO, err)
	}

	fmt.Println("[Garlic] JAR file analysis")
	fmt.Printf("File     : %s\n", path)
	fmt.Printf("Save to  : %s\n", outDir)
	fmt.Printf("Thread   : %d\n", worker.ClampWorkers(workers))

	pool := worker.New(workers)
	walkErr := archive.WalkJAR(path, func(job archive.ClassFileJob) {
		pool.Submit(worker.Task{Fn: func(p *arena.TaskPool) error {
			return decompileOneJARClass(job, outDir, p.Bytes)
		}})
	})
	pool.Join()
	if walkErr != nil {
		return walkErr
	}
	fmt.Println("\n[Done]")
	return nil
}

func decompileOneJARClass(job archive.ClassFileJob, outDir string, a *arena.Arena) error {
	cf, err := jvmclass.Parse(job.Data, a)
	if err != nil {
		logger.LogError("parsing class entry failed", err, map[string]interface{}{"entry": job.EntryName})
		return err
	}
	text, err := RenderJVMJavaFile(cf)
	if err != nil {
		logger.LogError("decompile failed", err, map[string]interface{}{"entry": job.EntryName})
		return err
	}
	name, err := cf.ClassName()
	if err != nil {
		return err
	}
	path := classOutputPath(outDir, "L"+name+";", "java")
	if err := writeOutputFile(path, text); err != nil {
		logger.LogError("writing output failed", err, map[string]interface{}{"entry": job.EntryName, "path": path})
		return fmt.Errorf("%w: %v", errs.ErrIO, err)
	}
	return nil
}
