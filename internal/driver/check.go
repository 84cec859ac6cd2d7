package driver

import (
	"context"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"runtime"
	"slices"
	"strconv"
	"strings"

	"golang.org/x/sync/errgroup"

	"prefabls/internal/detect"
	"prefabls/internal/diag"
	"prefabls/internal/diagnose"
	"prefabls/internal/source"
	"prefabls/internal/trace"
)

// skipDirs are never descended into when walking a directory.
var skipDirs = map[string]struct{}{
	".git":         {},
	".hg":          {},
	".svn":         {},
	"node_modules": {},
	"vendor":       {},
	"__pycache__":  {},
	".venv":        {},
	"target":       {},
	"build":        {},
	"dist":         {},
}

// CheckOptions configures a batch check.
type CheckOptions struct {
	// Keys is the catalog the call sites are checked against.
	Keys           diagnose.KeySet
	Detector       *detect.Detector
	MaxDiagnostics int
	// Jobs caps the number of files scanned at once; zero means GOMAXPROCS.
	Jobs int
}

// FileResult is the outcome for one file. Err is set when the file could not
// be read; Diagnostics is then empty.
type FileResult struct {
	Path        string
	Doc         *source.Document
	Diagnostics []diag.Diagnostic
	Err         error
}

// HasErrors reports whether the file failed to load or produced an
// error-severity diagnostic.
func (r FileResult) HasErrors() bool {
	return r.Err != nil || r.bag().HasErrors()
}

// HasWarnings reports whether the file produced a diagnostic of at least
// warning severity.
func (r FileResult) HasWarnings() bool {
	return r.bag().HasWarnings()
}

func (r FileResult) bag() *diag.Bag {
	b := diag.NewBag(0)
	b.AddAll(r.Diagnostics)
	return b
}

// ListFiles expands paths into the sorted list of files with a known
// language. Explicit file arguments are kept even when their extension is
// unknown so that a typo is reported instead of silently ignored.
func ListFiles(paths []string) ([]string, error) {
	seen := make(map[string]struct{})
	var files []string
	add := func(p string) {
		if _, dup := seen[p]; dup {
			return
		}
		seen[p] = struct{}{}
		files = append(files, p)
	}
	for _, root := range paths {
		info, err := os.Stat(root)
		if err != nil {
			return nil, err
		}
		if !info.IsDir() {
			add(filepath.Clean(root))
			continue
		}
		err = filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
			if err != nil {
				return err
			}
			if d.IsDir() {
				if path != root && skipDir(d.Name()) {
					return filepath.SkipDir
				}
				return nil
			}
			if _, ok := source.LanguageForPath(path); ok {
				add(path)
			}
			return nil
		})
		if err != nil {
			return nil, err
		}
	}
	slices.Sort(files)
	return files, nil
}

func skipDir(name string) bool {
	if _, ok := skipDirs[name]; ok {
		return true
	}
	return strings.HasPrefix(name, ".") && name != "."
}

// Check scans files concurrently and reports the call sites whose key is
// missing from opts.Keys. Results keep the order of files; diagnostics of a
// file are ordered by position.
func Check(ctx context.Context, files []string, opts CheckOptions) ([]FileResult, error) {
	if opts.Keys == nil {
		return nil, fmt.Errorf("check: no catalog keys")
	}
	detector := opts.Detector
	if detector == nil {
		detector = detect.Default
	}
	jobs := opts.Jobs
	if jobs <= 0 {
		jobs = runtime.GOMAXPROCS(0)
	}
	results := make([]FileResult, len(files))
	if len(files) == 0 {
		return results, nil
	}

	tracer := trace.FromContext(ctx)
	span := trace.Begin(tracer, trace.ScopeServer, "check", 0).WithExtra("files", strconv.Itoa(len(files)))
	defer span.End("")

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(min(jobs, len(files)))
	for i, path := range files {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			results[i] = checkFile(gctx, path, detector, opts)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return results, nil
}

func checkFile(ctx context.Context, path string, detector *detect.Detector, opts CheckOptions) FileResult {
	res := FileResult{Path: path}
	doc, err := source.Load(path)
	if err != nil {
		res.Err = err
		return res
	}
	res.Doc = doc
	orch := diagnose.New(diagnose.MissingKeyAnalyzer{Keys: opts.Keys})
	orch.SetLimit(opts.MaxDiagnostics)
	out := orch.Run(ctx, doc.URI, detector.DetectMethods(doc))
	bag := diag.NewBag(0)
	bag.AddAll(out.Diagnostics)
	bag.Sort()
	res.Diagnostics = bag.Items()
	return res
}
