package decompile

import (
	"fmt"
	"os"

	"github.com/deploymenttheory/garlic/internal/arena"
	"github.com/deploymenttheory/garlic/internal/classmodel"
	"github.com/deploymenttheory/garlic/internal/dex"
	"github.com/deploymenttheory/garlic/internal/errs"
	"github.com/deploymenttheory/garlic/internal/logger"
	"github.com/deploymenttheory/garlic/internal/smali"
	"github.com/deploymenttheory/garlic/internal/worker"
)

// runDexDump implements `garlic <dex> -p`: a synchronous, pool-free
// structural dump, mirroring dex_file_dump's inline execution.
func runDexDump(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("%w: %v", errs.ErrInput, err)
	}
	img, err := dex.Parse(data)
	if err != nil {
		return err
	}
	fmt.Printf("class_defs_size=%d, string_ids_size=%d, method_ids_size=%d\n",
		len(img.ClassDefs), img.Header.StringIDs.Size, img.Header.MethodIDs.Size)
	for _, cd := range img.ClassDefs {
		rc, err := classmodel.Resolve(img, cd)
		if err != nil {
			return err
		}
		fmt.Printf("  %s\n", rc.Descriptor)
	}
	return nil
}

// runDexDecompile implements the DEX decompile path: prepares an
// output directory, clamps the worker count, and submits one task per
// eligible top-level class-def (inner/anonymous classes are inlined,
// spec.md §4.3).
func runDexDecompile(path, out string, workers int) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("%w: %v", errs.ErrInput, err)
	}
	img, err := dex.Parse(data)
	if err != nil {
		return err
	}
	outDir, err := PrepareOutputDir(path, out)
	if err != nil {
		return fmt.Errorf("%w: %v", errs.ErrIO, err)
	}

	fmt.Println("[Garlic] DEX file analysis")
	fmt.Printf("File     : %s\n", path)
	fmt.Printf("Save to  : %s\n", outDir)
	fmt.Printf("Thread   : %d\n", worker.ClampWorkers(workers))

	pool := worker.New(workers)
	if err := submitDexDecompileTasks(img, outDir, pool); err != nil {
		return err
	}
	pool.Join()
	fmt.Println("\n[Done]")
	return nil
}

// runDexSmali implements the DEX smali path: every class-def (no
// inner/anonymous suppression, spec.md §6) is emitted to its own
// `.smali` file.
func runDexSmali(path, out string, workers int) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("%w: %v", errs.ErrInput, err)
	}
	img, err := dex.Parse(data)
	if err != nil {
		return err
	}
	outDir, err := PrepareOutputDir(path, out)
	if err != nil {
		return fmt.Errorf("%w: %v", errs.ErrIO, err)
	}

	fmt.Println("[Garlic] DEX to Smali")
	fmt.Printf("File     : %s\n", path)

	pool := worker.New(workers)
	if err := submitDexSmaliTasks(img, outDir, pool); err != nil {
		return err
	}
	pool.Join()
	fmt.Println("\n[Done]")
	return nil
}

func submitDexDecompileTasks(img *dex.Image, outDir string, pool *worker.Pool) error {
	for _, cd := range img.ClassDefs {
		rc, err := classmodel.Resolve(img, cd)
		if err != nil {
			return err
		}
		if rc.IsInner() || rc.IsAnonymous() {
			continue
		}
		pool.Submit(worker.Task{Fn: func(p *arena.TaskPool) error {
			return decompileOneClass(img, rc, outDir, p.Bytes)
		}})
	}
	return nil
}

func submitDexSmaliTasks(img *dex.Image, outDir string, pool *worker.Pool) error {
	for _, cd := range img.ClassDefs {
		rc, err := classmodel.Resolve(img, cd)
		if err != nil {
			return err
		}
		pool.Submit(worker.Task{Fn: func(p *arena.TaskPool) error {
			return smaliOneClass(img, rc, outDir, p.Bytes)
		}})
	}
	return nil
}

func decompileOneClass(img *dex.Image, rc *classmodel.ResolvedClass, outDir string, a *arena.Arena) error {
	text, err := RenderJavaFile(img, rc, a)
	if err != nil {
		logger.LogError("decompile failed", err, map[string]interface{}{"class": rc.Descriptor})
		return err
	}
	path := classOutputPath(outDir, rc.Descriptor, "java")
	if err := writeOutputFile(path, text); err != nil {
		logger.LogError("writing output failed", err, map[string]interface{}{"class": rc.Descriptor, "path": path})
		return fmt.Errorf("%w: %v", errs.ErrIO, err)
	}
	return nil
}

func smaliOneClass(img *dex.Image, rc *classmodel.ResolvedClass, outDir string, a *arena.Arena) error {
	text, err := smali.EmitClass(img, rc, a)
	if err != nil {
		logger.LogError("smali emission failed", err, map[string]interface{}{"class": rc.Descriptor})
		return err
	}
	path := classOutputPath(outDir, rc.Descriptor, "smali")
	if err := writeOutputFile(path, text); err != nil {
		logger.LogError("writing output failed", err, map[string]interface{}{"class": rc.Descriptor, "path": path})
		return fmt.Errorf("%w: %v", errs.ErrIO, err)
	}
	return nil
}
