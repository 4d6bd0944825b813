// SPDX-License-Identifier: MPL-2.0

package types

import (
	"errors"
	"strings"
	"testing"
)

func TestDescriptionText_Validate(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		desc    DescriptionText
		wantErr string
	}{
		{"simple text", "Run the tests with coverage", ""},
		{"empty means none", "", ""},
		{"exactly the limit", DescriptionText(strings.Repeat("é", MaxDescriptionLength)), ""},
		{"whitespace only", "   ", "whitespace-only"},
		{"tab only", "\t", "whitespace-only"},
		{"two lines", "Format\nand lint", "single line"},
		{"carriage return", "Format\r", "single line"},
		{"too long", DescriptionText(strings.Repeat("x", MaxDescriptionLength+1)), "at most 120 characters"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			err := tt.desc.Validate()
			if tt.wantErr == "" {
				if err != nil {
					t.Errorf("Validate() error = %v", err)
				}
				return
			}
			if err == nil || !strings.Contains(err.Error(), tt.wantErr) {
				t.Fatalf("Validate() error = %v, want %q", err, tt.wantErr)
			}
			if !errors.Is(err, ErrInvalidDescriptionText) {
				t.Errorf("error should wrap ErrInvalidDescriptionText, got %v", err)
			}
			var dtErr *InvalidDescriptionTextError
			if !errors.As(err, &dtErr) || dtErr.Value != tt.desc {
				t.Errorf("error should be *InvalidDescriptionTextError carrying the value, got %T", err)
			}
		})
	}
}
