// SPDX-License-Identifier: MPL-2.0

package copier

import (
	"context"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/u-root/u-root/pkg/cp"
)

// Native copies in-process with u-root's cp package. Symlinks are followed.
type Native struct {
	opts cp.Options
}

// NewNative creates a native copier.
func NewNative() *Native {
	return &Native{opts: cp.Default}
}

// Name returns "native".
func (n *Native) Name() string { return KindNative }

// Copy copies a file to dest, or the contents of a directory into dest.
func (n *Native) Copy(ctx context.Context, src, dest string) error {
	info, err := os.Stat(src)
	if err != nil {
		return fmt.Errorf("copy source: %w", err)
	}

	if !info.IsDir() {
		if err := os.MkdirAll(filepath.Dir(dest), 0o755); err != nil {
			return err
		}
		return n.copyFile(src, dest)
	}

	return filepath.WalkDir(src, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if ctx.Err() != nil {
			return ctx.Err()
		}

		rel, err := filepath.Rel(src, path)
		if err != nil {
			return err
		}
		target := filepath.Join(dest, rel)

		if d.IsDir() {
			perm := fs.FileMode(0o755)
			if info, err := d.Info(); err == nil {
				perm = info.Mode().Perm() | 0o700
			}
			return os.MkdirAll(target, perm)
		}
		return n.copyFile(path, target)
	})
}

func (n *Native) copyFile(src, dest string) error {
	if err := n.opts.Copy(src, dest); err != nil {
		return fmt.Errorf("copy %s: %w", src, err)
	}
	slog.Debug("copied file", "src", src, "dest", dest)
	return nil
}
