// SPDX-License-Identifier: MPL-2.0

// Package hardcopy copies a file or directory and proves the copy is good,
// retrying the copy a bounded number of times.
package hardcopy

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"

	"github.com/hardcopy/hardcopy/internal/copier"
	"github.com/hardcopy/hardcopy/internal/validate"
)

// DefaultAttempts is how many times HardCopy copies before giving up.
const DefaultAttempts = 3

type (
	// Validator checks a copy against its source.
	Validator interface {
		IsValidCopy(ctx context.Context, src string, copies ...string) error
	}

	// Service copies and validates.
	Service struct {
		copier    copier.Copier
		validator Validator
		attempts  int
	}

	// Outcome describes a HardCopy call.
	Outcome struct {
		// Attempts is how many copies were made; zero when dest was
		// already a valid copy.
		Attempts int
		// Skipped is set when dest was already valid and nothing was copied.
		Skipped bool
	}
)

// NewService creates a Service. attempts <= 0 means DefaultAttempts.
func NewService(c copier.Copier, v Validator, attempts int) *Service {
	if attempts <= 0 {
		attempts = DefaultAttempts
	}
	return &Service{copier: c, validator: v, attempts: attempts}
}

// HardCopy makes dest a valid copy of src. When dest already validates
// nothing is copied. Otherwise src is copied and validated until it
// validates or the attempts run out; the last failure is returned.
func (s *Service) HardCopy(ctx context.Context, src, dest string) (*Outcome, error) {
	if _, err := os.Stat(src); err != nil {
		return nil, fmt.Errorf("copy source: %w", err)
	}

	out := &Outcome{}
	if exists(dest) {
		if err := s.validator.IsValidCopy(ctx, src, dest); err == nil {
			slog.Debug("destination already valid", "src", src, "dest", dest)
			out.Skipped = true
			return out, nil
		} else if !errors.Is(err, validate.ErrMismatch) {
			return out, err
		}
	}

	var lastErr error
	for out.Attempts < s.attempts {
		if err := ctx.Err(); err != nil {
			return out, err
		}
		out.Attempts++

		if err := s.copier.Copy(ctx, src, dest); err != nil {
			if ctx.Err() != nil {
				return out, err
			}
			slog.Warn("copy failed", "src", src, "dest", dest, "attempt", out.Attempts, "copier", s.copier.Name(), "error", err)
			lastErr = err
			continue
		}
		slog.Debug("copied", "src", src, "dest", dest, "attempt", out.Attempts, "copier", s.copier.Name())

		err := s.validator.IsValidCopy(ctx, src, dest)
		if err == nil {
			slog.Debug("validated", "src", src, "dest", dest)
			return out, nil
		}
		if !errors.Is(err, validate.ErrMismatch) {
			return out, err
		}
		slog.Warn("validation failed", "src", src, "dest", dest, "attempt", out.Attempts, "error", err)
		lastErr = err
	}

	return out, fmt.Errorf("giving up after %d attempts: %w", out.Attempts, lastErr)
}

// Validate checks copies against src without copying.
func (s *Service) Validate(ctx context.Context, src string, copies ...string) error {
	if err := s.validator.IsValidCopy(ctx, src, copies...); err != nil {
		return err
	}
	slog.Debug("validated", "src", src, "copies", copies)
	return nil
}

func exists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}
