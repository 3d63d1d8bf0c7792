// Package batch runs a decode function over many files with a worker pool.
// A failing file is recorded in its Result and does not stop the run.
package batch

import (
	"fmt"
	"io/fs"
	"path/filepath"
	"slices"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/rs/zerolog/log"
)

// Func processes one file and returns a one-line summary of it.
type Func func(path string) (string, error)

// Result holds the outcome of processing one file.
type Result struct {
	Path     string
	Summary  string
	Success  bool
	Error    string
	Duration time.Duration
}

// Run processes all paths using a worker pool of the given size. Results are
// in the order of paths.
func Run(paths []string, workers int, fn Func) []Result {
	if workers <= 0 {
		workers = 1
	}
	total := len(paths)
	results := make([]Result, total)
	var processed atomic.Int64

	start := time.Now()

	// Progress reporter
	done := make(chan struct{})
	go func() {
		ticker := time.NewTicker(2 * time.Second)
		defer ticker.Stop()
		for {
			select {
			case <-done:
				return
			case <-ticker.C:
				p := processed.Load()
				if p > 0 {
					rate := float64(p) / time.Since(start).Seconds()
					fmt.Printf("  [%d/%d] %.1f files/sec\n", p, total, rate)
				}
			}
		}
	}()

	pathChan := make(chan int, workers*2)
	var wg sync.WaitGroup

	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for idx := range pathChan {
				results[idx] = process(paths[idx], fn)
				processed.Add(1)
			}
		}()
	}

	for i := range paths {
		pathChan <- i
	}
	close(pathChan)

	wg.Wait()
	close(done)

	return results
}

// process runs fn for one path. A panic inside fn is reported as that
// path's error.
func process(path string, fn Func) (r Result) {
	r.Path = path
	start := time.Now()
	defer func() {
		if p := recover(); p != nil {
			r.Success = false
			r.Error = fmt.Sprintf("panic: %v", p)
		}
		r.Duration = time.Since(start)
		if !r.Success {
			log.Error().Str("path", path).Str("error", r.Error).Msg("failed to process file")
		}
	}()

	summary, err := fn(path)
	if err != nil {
		r.Error = err.Error()
		return r
	}
	r.Summary = summary
	r.Success = true
	return r
}

// Failed returns the results that did not succeed.
func Failed(results []Result) []Result {
	var out []Result
	for _, r := range results {
		if !r.Success {
			out = append(out, r)
		}
	}
	return out
}

// Walk returns every regular file below root whose extension matches one of
// exts, ignoring case. Paths are sorted.
func Walk(root string, exts ...string) ([]string, error) {
	var files []string

	err := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			return nil
		}

		ext := filepath.Ext(path)
		for _, e := range exts {
			if strings.EqualFold(ext, e) {
				files = append(files, path)
				break
			}
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("scan %s: %w", root, err)
	}

	slices.Sort(files)
	return files, nil
}
