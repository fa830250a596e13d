package io

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"runtime"
	"sort"
	"sync"

	"github.com/alitto/pond"
	"github.com/klothoplatform/pdk/pkg/logging"
	"go.uber.org/atomic"
	"go.uber.org/zap"
)

type (
	// OutputResult lists the paths (relative to the output directory) by what happened to them. Each list is sorted.
	OutputResult struct {
		Written   []string
		Unchanged []string
		Skipped   []string
	}

	writeStatus int
)

const (
	statusWritten writeStatus = iota
	statusUnchanged
	statusSkipped
)

// OutputTo writes files under dest. Files whose content already matches what is on disk are left untouched so
// modification times stay stable for caching task runners. The first error aborts all pending writes.
func OutputTo(ctx context.Context, files []File, dest string) (OutputResult, error) {
	var result OutputResult
	if err := checkDuplicatePaths(files); err != nil {
		return result, err
	}
	log := logging.GetLogger(ctx).Named("io")

	pool := pond.New(runtime.NumCPU(), len(files))
	defer pool.StopAndWait()
	group, gctx := pool.GroupContext(ctx)

	var (
		mu      sync.Mutex
		written = atomic.NewInt64(0)
		skipped = atomic.NewInt64(0)
	)
	for idx := range files {
		f := files[idx]
		group.Submit(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			status, err := writeFile(f, dest)
			if err != nil {
				return fmt.Errorf("could not write %s: %w", f.Path(), err)
			}
			mu.Lock()
			defer mu.Unlock()
			switch status {
			case statusWritten:
				written.Inc()
				result.Written = append(result.Written, f.Path())
				log.Debug("Wrote file", zap.String("path", f.Path()))
			case statusUnchanged:
				result.Unchanged = append(result.Unchanged, f.Path())
			case statusSkipped:
				skipped.Inc()
				result.Skipped = append(result.Skipped, f.Path())
				log.Debug("Skipped file not owned by pdk", zap.String("path", f.Path()))
			}
			return nil
		})
	}
	if err := group.Wait(); err != nil {
		return result, err
	}

	sort.Strings(result.Written)
	sort.Strings(result.Unchanged)
	sort.Strings(result.Skipped)
	log.Sugar().Debugf("Output %d files to %s (%d written, %d skipped)", len(files), dest, written.Load(), skipped.Load())
	return result, nil
}

func writeFile(f File, dest string) (writeStatus, error) {
	content, err := Render(f)
	if err != nil {
		return 0, err
	}
	path := filepath.Join(dest, f.Path())

	existing, err := os.ReadFile(path)
	switch {
	case err == nil:
		if ovr, ok := f.(NonOverwritable); ok && !ovr.Overwrite(existing) {
			return statusSkipped, nil
		}
		if bytes.Equal(existing, content) {
			return statusUnchanged, nil
		}
	case errors.Is(err, fs.ErrNotExist):
	default:
		return 0, err
	}

	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return 0, err
	}
	if err := os.WriteFile(path, content, 0644); err != nil {
		return 0, err
	}
	return statusWritten, nil
}

func checkDuplicatePaths(files []File) error {
	seen := make(map[string]struct{}, len(files))
	var errs error
	for _, f := range files {
		p := filepath.Clean(f.Path())
		if _, ok := seen[p]; ok {
			errs = errors.Join(errs, fmt.Errorf("file %s is generated more than once", p))
			continue
		}
		seen[p] = struct{}{}
	}
	return errs
}
