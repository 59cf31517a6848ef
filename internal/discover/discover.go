// Package discover walks a workspace directory tree to find Java source
// files for a composition root to feed into vfs.Store via SetFile
// calls: a worker-pool parallel directory walk with include/exclude
// glob patterns. The walk lives here because the VFS itself
// deliberately never touches disk.
package discover

import (
	"context"
	"os"
	"path/filepath"
	"runtime"
	"sync"

	"github.com/bmatcuk/doublestar/v4"
)

// Scope bounds a workspace walk.
type Scope struct {
	Root    string   // directory to walk
	Include []string // doublestar patterns; defaults to "**/*.java"
	Exclude []string // doublestar patterns skipped entirely, dirs too
	MaxFiles int      // 0 means unbounded
}

// File is one discovered source file with its content already read, so
// a caller can feed it straight into vfs.Store.SetFile.
type File struct {
	Path string
	Text string
}

// Walk scans scope.Root in parallel and returns every matching file's
// path and content. It stops early (returning what it has so far) if
// ctx is cancelled, the same cooperative-cancellation discipline used
// throughout the query engine.
func Walk(ctx context.Context, scope Scope) ([]File, error) {
	if len(scope.Include) == 0 {
		scope.Include = []string{"**/*.java"}
	}

	paths := make(chan string, 256)
	results := make(chan File, 256)
	workers := runtime.NumCPU() * 2
	if workers < 2 {
		workers = 2
	}

	var wg sync.WaitGroup
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for {
				select {
				case <-ctx.Done():
					return
				case p, ok := <-paths:
					if !ok {
						return
					}
					data, err := os.ReadFile(p)
					if err != nil {
						continue
					}
					select {
					case <-ctx.Done():
						return
					case results <- File{Path: p, Text: string(data)}:
					}
				}
			}
		}()
	}

	go func() {
		defer close(paths)
		n := 0
		filepath.WalkDir(scope.Root, func(path string, d os.DirEntry, err error) error {
			if err != nil {
				return nil
			}
			select {
			case <-ctx.Done():
				return filepath.SkipAll
			default:
			}
			rel, relErr := filepath.Rel(scope.Root, path)
			if relErr != nil {
				rel = path
			}
			if matchAny(scope.Exclude, rel) {
				if d.IsDir() {
					return filepath.SkipDir
				}
				return nil
			}
			if d.IsDir() {
				return nil
			}
			if !matchAny(scope.Include, rel) {
				return nil
			}
			if scope.MaxFiles > 0 && n >= scope.MaxFiles {
				return filepath.SkipAll
			}
			n++
			select {
			case <-ctx.Done():
				return filepath.SkipAll
			case paths <- path:
			}
			return nil
		})
	}()

	go func() {
		wg.Wait()
		close(results)
	}()

	var out []File
	for f := range results {
		out = append(out, f)
	}
	return out, nil
}

func matchAny(patterns []string, rel string) bool {
	for _, p := range patterns {
		if ok, _ := doublestar.Match(p, filepath.ToSlash(rel)); ok {
			return true
		}
	}
	return len(patterns) == 0 && false
}
