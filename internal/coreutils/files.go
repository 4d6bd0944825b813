// SPDX-License-Identifier: MPL-2.0

package coreutils

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"time"

	"github.com/u-root/u-root/pkg/cp"
)

func newCat() Command {
	return &commandFunc{name: "cat", run: runCat}
}

func runCat(ctx context.Context, hc *HandlerContext, args []string) error {
	fset := newFlagSet("cat")
	if err := fset.Parse(args[1:]); err != nil {
		return wrapError("cat", err)
	}
	if fset.NArg() == 0 {
		_, err := io.Copy(hc.Stdout, hc.Stdin)
		return wrapError("cat", err)
	}
	for _, name := range fset.Args() {
		if err := ctx.Err(); err != nil {
			return err
		}
		if name == "-" {
			if _, err := io.Copy(hc.Stdout, hc.Stdin); err != nil {
				return wrapError("cat", err)
			}
			continue
		}
		if err := catFile(hc.Stdout, hc.path(name)); err != nil {
			return wrapError("cat", err)
		}
	}
	return nil
}

func catFile(w io.Writer, path string) error {
	f, err := os.Open(path)
	if err != nil {
		return err
	}
	defer f.Close()
	_, err = io.Copy(w, f)
	return err
}

func newCp() Command {
	return &commandFunc{name: "cp", run: runCp}
}

// runCp copies files, or trees with -r. With one source, dest may name the
// copy; with several, dest must be an existing directory.
func runCp(_ context.Context, hc *HandlerContext, args []string) error {
	fset := newFlagSet("cp")
	recursive := fset.BoolP("recursive", "r", false, "copy directories recursively")
	fset.BoolVarP(recursive, "R", "R", false, "same as -r")
	if err := fset.Parse(args[1:]); err != nil {
		return wrapError("cp", err)
	}
	if fset.NArg() < 2 {
		return wrapError("cp", errors.New("missing destination operand"))
	}

	sources := fset.Args()[:fset.NArg()-1]
	dest := hc.path(fset.Arg(fset.NArg() - 1))
	destIsDir := isDir(dest)
	if len(sources) > 1 && !destIsDir {
		return wrapError("cp", fmt.Errorf("target %s is not a directory", dest))
	}

	for _, s := range sources {
		src := hc.path(s)
		target := dest
		if destIsDir {
			target = filepath.Join(dest, filepath.Base(src))
		}
		info, err := os.Stat(src)
		if err != nil {
			return wrapError("cp", err)
		}
		if info.IsDir() {
			if !*recursive {
				return wrapError("cp", fmt.Errorf("-r not specified; omitting directory %s", s))
			}
			err = cp.Default.CopyTree(src, target)
		} else {
			err = cp.Default.Copy(src, target)
		}
		if err != nil {
			return wrapError("cp", err)
		}
	}
	return nil
}

func newMkdir() Command {
	return &commandFunc{name: "mkdir", run: runMkdir}
}

func runMkdir(_ context.Context, hc *HandlerContext, args []string) error {
	fset := newFlagSet("mkdir")
	parents := fset.BoolP("parents", "p", false, "create parent directories; no error if existing")
	if err := fset.Parse(args[1:]); err != nil {
		return wrapError("mkdir", err)
	}
	if fset.NArg() == 0 {
		return wrapError("mkdir", errors.New("missing operand"))
	}
	for _, name := range fset.Args() {
		var err error
		if *parents {
			err = os.MkdirAll(hc.path(name), 0o755)
		} else {
			err = os.Mkdir(hc.path(name), 0o755)
		}
		if err != nil {
			return wrapError("mkdir", err)
		}
	}
	return nil
}

func newRm() Command {
	return &commandFunc{name: "rm", run: runRm}
}

func runRm(_ context.Context, hc *HandlerContext, args []string) error {
	fset := newFlagSet("rm")
	recursive := fset.BoolP("recursive", "r", false, "remove directories and their contents")
	fset.BoolVarP(recursive, "R", "R", false, "same as -r")
	force := fset.BoolP("force", "f", false, "ignore missing files")
	if err := fset.Parse(args[1:]); err != nil {
		return wrapError("rm", err)
	}
	if fset.NArg() == 0 && !*force {
		return wrapError("rm", errors.New("missing operand"))
	}
	for _, name := range fset.Args() {
		path := hc.path(name)
		info, err := os.Lstat(path)
		switch {
		case errors.Is(err, fs.ErrNotExist) && *force:
			continue
		case err != nil:
			return wrapError("rm", err)
		case info.IsDir() && !*recursive:
			return wrapError("rm", fmt.Errorf("cannot remove %s: is a directory", name))
		}
		if *recursive {
			err = os.RemoveAll(path)
		} else {
			err = os.Remove(path)
		}
		if err != nil {
			return wrapError("rm", err)
		}
	}
	return nil
}

func newTouch() Command {
	return &commandFunc{name: "touch", run: runTouch}
}

func runTouch(_ context.Context, hc *HandlerContext, args []string) error {
	fset := newFlagSet("touch")
	noCreate := fset.BoolP("no-create", "c", false, "do not create missing files")
	if err := fset.Parse(args[1:]); err != nil {
		return wrapError("touch", err)
	}
	if fset.NArg() == 0 {
		return wrapError("touch", errors.New("missing file operand"))
	}
	now := time.Now()
	for _, name := range fset.Args() {
		path := hc.path(name)
		err := os.Chtimes(path, now, now)
		if errors.Is(err, fs.ErrNotExist) {
			if *noCreate {
				continue
			}
			var f *os.File
			if f, err = os.OpenFile(path, os.O_CREATE|os.O_WRONLY, 0o644); err == nil {
				err = f.Close()
			}
		}
		if err != nil {
			return wrapError("touch", err)
		}
	}
	return nil
}

func isDir(path string) bool {
	info, err := os.Stat(path)
	return err == nil && info.IsDir()
}
