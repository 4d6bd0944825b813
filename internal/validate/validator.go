// SPDX-License-Identifier: MPL-2.0

package validate

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	goruntime "runtime"

	"golang.org/x/sync/errgroup"
)

// ErrMismatch is the sentinel wrapped by Mismatch.
var ErrMismatch = errors.New("invalid copy")

type (
	// Mismatch identifies the first path at which a copy differs from its source.
	Mismatch struct {
		// Copy is the copy root that failed.
		Copy string
		// Path is the offending path inside Copy.
		Path string
		// Missing is set when Path does not exist in the copy.
		Missing bool
		// Expected and Actual are set for checksum mismatches.
		Expected Sum
		Actual   Sum
	}

	// Validator compares copies against a source.
	Validator struct {
		Algorithm Algorithm
		// Workers bounds how many files are checksummed at once.
		Workers int
	}
)

func (m *Mismatch) Error() string {
	switch {
	case m.Missing:
		return fmt.Sprintf("%s is not a valid copy: %s does not exist", m.Copy, m.Path)
	case m.Expected != nil:
		return fmt.Sprintf("%s is not a valid copy: %s checksum %s, want %s", m.Copy, m.Path, m.Actual, m.Expected)
	default:
		return fmt.Sprintf("%s is not a valid copy: %s has the wrong type", m.Copy, m.Path)
	}
}

// Unwrap returns ErrMismatch for errors.Is.
func (m *Mismatch) Unwrap() error { return ErrMismatch }

// NewValidator creates a validator. An empty algorithm means
// DefaultAlgorithm and workers <= 0 means GOMAXPROCS.
func NewValidator(alg Algorithm, workers int) *Validator {
	if alg == "" {
		alg = DefaultAlgorithm
	}
	if workers <= 0 {
		workers = goruntime.GOMAXPROCS(0)
	}
	return &Validator{Algorithm: alg, Workers: workers}
}

// IsValidCopy returns nil when every copy holds the same data as src.
//
// A file source must match each copy's checksum. For a directory source,
// every entry under src must exist at the same relative path in each copy;
// directories are checked for existence only and files by checksum, in
// parallel. Entries that only exist in a copy are ignored. The first
// difference is returned as a *Mismatch and stops the remaining work.
func (v *Validator) IsValidCopy(ctx context.Context, src string, copies ...string) error {
	if len(copies) == 0 {
		return errors.New("no copies to validate")
	}

	info, err := os.Stat(src)
	if err != nil {
		return fmt.Errorf("validate source: %w", err)
	}
	if !info.IsDir() {
		return v.compareFile(ctx, src, copies, copies)
	}

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(v.workers())

	walkErr := filepath.WalkDir(src, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if gctx.Err() != nil {
			return filepath.SkipAll
		}
		if path == src {
			return nil
		}

		rel, err := filepath.Rel(src, path)
		if err != nil {
			return err
		}
		targets := make([]string, len(copies))
		for i, c := range copies {
			targets[i] = filepath.Join(c, rel)
		}

		if d.IsDir() {
			if err := checkDirs(copies, targets); err != nil {
				g.Go(func() error { return err })
				return filepath.SkipAll
			}
			return nil
		}
		if !d.Type().IsRegular() && d.Type()&fs.ModeSymlink == 0 {
			slog.Debug("skipping special file", "path", path)
			return nil
		}

		g.Go(func() error { return v.compareFile(gctx, path, targets, copies) })
		return nil
	})

	if err := g.Wait(); err != nil {
		return err
	}
	if walkErr != nil {
		return fmt.Errorf("walk %s: %w", src, walkErr)
	}
	return ctx.Err()
}

// compareFile checksums src once and compares it with every target.
// roots[i] is the copy root targets[i] belongs to.
func (v *Validator) compareFile(ctx context.Context, src string, targets, roots []string) error {
	for i, target := range targets {
		info, err := os.Stat(target)
		if errors.Is(err, fs.ErrNotExist) {
			return &Mismatch{Copy: roots[i], Path: target, Missing: true}
		}
		if err != nil {
			return err
		}
		if info.IsDir() {
			return &Mismatch{Copy: roots[i], Path: target}
		}
	}

	want, err := Checksum(ctx, v.algorithm(), src)
	if err != nil {
		return err
	}
	for i, target := range targets {
		got, err := Checksum(ctx, v.algorithm(), target)
		if err != nil {
			return err
		}
		if !bytes.Equal(got, want) {
			return &Mismatch{Copy: roots[i], Path: target, Expected: want, Actual: got}
		}
	}
	return nil
}

func checkDirs(roots, targets []string) error {
	for i, target := range targets {
		info, err := os.Stat(target)
		if errors.Is(err, fs.ErrNotExist) {
			return &Mismatch{Copy: roots[i], Path: target, Missing: true}
		}
		if err != nil {
			return err
		}
		if !info.IsDir() {
			return &Mismatch{Copy: roots[i], Path: target}
		}
	}
	return nil
}

func (v *Validator) algorithm() Algorithm {
	if v.Algorithm == "" {
		return DefaultAlgorithm
	}
	return v.Algorithm
}

func (v *Validator) workers() int {
	if v.Workers <= 0 {
		return goruntime.GOMAXPROCS(0)
	}
	return v.Workers
}
