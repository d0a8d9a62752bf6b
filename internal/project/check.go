package project

import (
	"cmp"
	"context"
	"io/fs"
	"os"
	"path/filepath"
	"runtime"
	"slices"
	"strings"

	"github.com/sourcegraph/conc/pool"

	"github.com/mcdatapack/dpe/internal/diag"
	"github.com/mcdatapack/dpe/internal/lang"
	"github.com/mcdatapack/dpe/internal/lint"
)

// FileResult is the outcome of checking one file.
type FileResult struct {
	// File is the path as given to Check.
	File        string
	Source      []byte
	Document    *lang.Document
	Diagnostics []diag.Diagnostic
	// Err reports a failure to read or classify the file.
	Err error
}

// Counts returns the number of error and warning diagnostics.
func (r FileResult) Counts() (errors, warnings int) {
	for _, d := range r.Diagnostics {
		switch d.Severity {
		case diag.SeverityError:
			errors++
		case diag.SeverityWarning:
			warnings++
		}
	}
	return errors, warnings
}

// CheckSource analyses src as the content of file.
func (p *Project) CheckSource(ctx context.Context, file string, src []byte) FileResult {
	res := FileResult{File: file, Source: src}
	t, err := p.Classify(file, src)
	if err != nil {
		res.Err = err
		return res
	}
	out, err := p.runner.Analyze(ctx, p.Env(t.Key, src), t.Language, t.Schema)
	if err != nil {
		res.Err = err
		return res
	}
	res.Document = out.Document
	res.Diagnostics = out.Diagnostics
	return res
}

// Check reads and analyses file.
func (p *Project) Check(ctx context.Context, file string) FileResult {
	abs := file
	if !filepath.IsAbs(abs) {
		abs = filepath.Join(p.Root, file)
	}
	src, err := os.ReadFile(abs)
	if err != nil {
		return FileResult{File: file, Err: err}
	}
	return p.CheckSource(ctx, file, src)
}

// CheckAll analyses files on a bounded worker pool. Results are ordered by
// file name. workers <= 0 selects GOMAXPROCS.
func (p *Project) CheckAll(ctx context.Context, files []string, workers int) []FileResult {
	if workers <= 0 {
		workers = runtime.GOMAXPROCS(0)
	}
	wp := pool.NewWithResults[FileResult]().WithMaxGoroutines(workers)
	for _, file := range files {
		wp.Go(func() FileResult {
			if err := ctx.Err(); err != nil {
				return FileResult{File: file, Err: err}
			}
			return p.Check(ctx, file)
		})
	}
	results := wp.Wait()
	slices.SortFunc(results, func(a, b FileResult) int { return cmp.Compare(a.File, b.File) })
	return results
}

// Files lists the analysable files under the root, skipping hidden
// directories. Paths are relative to the root.
func (p *Project) Files() ([]string, error) {
	var out []string
	err := filepath.WalkDir(p.Root, func(file string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			if file != p.Root && strings.HasPrefix(d.Name(), ".") {
				return filepath.SkipDir
			}
			return nil
		}
		if Supported(file) {
			rel, err := filepath.Rel(p.Root, file)
			if err != nil {
				return err
			}
			out = append(out, rel)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	slices.Sort(out)
	return out, nil
}

// Runner returns the lint runner configured for the project.
func (p *Project) Runner() *lint.Runner { return p.runner }
