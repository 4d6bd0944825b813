// SPDX-License-Identifier: MPL-2.0

package hardcopy

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/hardcopy/hardcopy/internal/copier"
	"github.com/hardcopy/hardcopy/internal/testutil"
	"github.com/hardcopy/hardcopy/internal/validate"
)

// flakyCopier delegates to the native copier, then corrupts the first
// corruptions copies it makes.
type flakyCopier struct {
	native      *copier.Native
	corruptions int
	calls       int
	failWith    error
}

func (f *flakyCopier) Name() string { return "flaky" }

func (f *flakyCopier) Copy(ctx context.Context, src, dest string) error {
	f.calls++
	if f.failWith != nil {
		return f.failWith
	}
	if err := f.native.Copy(ctx, src, dest); err != nil {
		return err
	}
	if f.calls <= f.corruptions {
		return os.WriteFile(filepath.Join(dest, "a.txt"), []byte("corrupted"), 0o644)
	}
	return nil
}

func newTree(t *testing.T) string {
	t.Helper()
	return testutil.WriteTree(t, filepath.Join(t.TempDir(), "src"), map[string]string{
		"a.txt":     "alpha",
		"sub/b.txt": "beta",
	})
}

func TestHardCopy_FirstAttempt(t *testing.T) {
	t.Parallel()

	src := newTree(t)
	dest := filepath.Join(t.TempDir(), "dest")
	c := &flakyCopier{native: copier.NewNative()}
	svc := NewService(c, validate.NewValidator(validate.CRC32C, 2), 0)

	out, err := svc.HardCopy(context.Background(), src, dest)
	if err != nil {
		t.Fatalf("HardCopy() error = %v", err)
	}
	if out.Attempts != 1 || out.Skipped {
		t.Errorf("Outcome = %+v", out)
	}
	if err := svc.Validate(context.Background(), src, dest); err != nil {
		t.Errorf("Validate() error = %v", err)
	}
}

func TestHardCopy_RetriesUntilValid(t *testing.T) {
	t.Parallel()

	src := newTree(t)
	dest := filepath.Join(t.TempDir(), "dest")
	c := &flakyCopier{native: copier.NewNative(), corruptions: 2}

	out, err := NewService(c, validate.NewValidator("", 1), 3).HardCopy(context.Background(), src, dest)
	if err != nil {
		t.Fatalf("HardCopy() error = %v", err)
	}
	if out.Attempts != 3 {
		t.Errorf("Attempts = %d, want 3", out.Attempts)
	}
}

func TestHardCopy_GivesUp(t *testing.T) {
	t.Parallel()

	src := newTree(t)
	dest := filepath.Join(t.TempDir(), "dest")
	c := &flakyCopier{native: copier.NewNative(), corruptions: 10}

	out, err := NewService(c, validate.NewValidator("", 1), 3).HardCopy(context.Background(), src, dest)
	var m *validate.Mismatch
	if !errors.As(err, &m) {
		t.Fatalf("HardCopy() error = %v, want *validate.Mismatch", err)
	}
	if out.Attempts != 3 || c.calls != 3 {
		t.Errorf("attempts = %d, calls = %d, want 3", out.Attempts, c.calls)
	}
}

func TestHardCopy_SkipsValidDestination(t *testing.T) {
	t.Parallel()

	src := newTree(t)
	dest := filepath.Join(t.TempDir(), "dest")
	if err := copier.NewNative().Copy(context.Background(), src, dest); err != nil {
		t.Fatal(err)
	}

	c := &flakyCopier{native: copier.NewNative()}
	out, err := NewService(c, validate.NewValidator("", 1), 3).HardCopy(context.Background(), src, dest)
	if err != nil {
		t.Fatalf("HardCopy() error = %v", err)
	}
	if !out.Skipped || c.calls != 0 {
		t.Errorf("Outcome = %+v, calls = %d, want skipped with no copy", out, c.calls)
	}
}

func TestHardCopy_RecopiesInvalidDestination(t *testing.T) {
	t.Parallel()

	src := newTree(t)
	dest := filepath.Join(t.TempDir(), "dest")
	if err := os.MkdirAll(dest, 0o755); err != nil {
		t.Fatal(err)
	}

	c := &flakyCopier{native: copier.NewNative()}
	out, err := NewService(c, validate.NewValidator("", 1), 3).HardCopy(context.Background(), src, dest)
	if err != nil {
		t.Fatalf("HardCopy() error = %v", err)
	}
	if out.Skipped || out.Attempts != 1 {
		t.Errorf("Outcome = %+v", out)
	}
}

func TestHardCopy_CopierErrors(t *testing.T) {
	t.Parallel()

	src := newTree(t)
	boom := errors.New("robocopy exploded")
	c := &flakyCopier{failWith: boom}

	out, err := NewService(c, validate.NewValidator("", 1), 2).HardCopy(context.Background(), src, filepath.Join(t.TempDir(), "d"))
	if !errors.Is(err, boom) {
		t.Fatalf("HardCopy() error = %v, want copier error", err)
	}
	if out.Attempts != 2 {
		t.Errorf("Attempts = %d, want 2", out.Attempts)
	}
}

func TestHardCopy_MissingSource(t *testing.T) {
	t.Parallel()

	svc := NewService(copier.NewNative(), validate.NewValidator("", 1), 1)
	if _, err := svc.HardCopy(context.Background(), filepath.Join(t.TempDir(), "nope"), t.TempDir()); err == nil {
		t.Error("HardCopy() with missing source should fail")
	}
}
