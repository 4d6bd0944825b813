// SPDX-License-Identifier: MPL-2.0

package manifest

import (
	"bytes"
	"errors"
	"fmt"
	"os"
	"regexp"
)

var (
	tableHeaderRegex = regexp.MustCompile(`^\s*\[\[?\s*([^\[\]]+?)\s*\]\]?\s*(#.*)?$`)
	versionLineRegex = regexp.MustCompile(`^(\s*(?:version|"version"|'version')\s*=\s*)(["'])([^"']*)(["'])(.*)$`)
)

// BumpFile bumps the version in the manifest at path and rewrites the file
// in place. It returns the version before and after the bump. Every call
// advances the version; there is no idempotency.
func BumpFile(path string, level Level) (Version, Version, error) {
	info, err := os.Stat(path)
	if err != nil {
		return Version{}, Version{}, fmt.Errorf("failed to stat manifest: %w", err)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return Version{}, Version{}, fmt.Errorf("failed to read manifest: %w", err)
	}

	out, oldV, newV, err := Bump(data, level)
	if err != nil {
		var pe *ParseError
		if errors.As(err, &pe) {
			pe.Path = path
		}
		return Version{}, Version{}, err
	}

	if err := os.WriteFile(path, out, info.Mode().Perm()); err != nil {
		return Version{}, Version{}, fmt.Errorf("failed to write manifest: %w", err)
	}
	return oldV, newV, nil
}

// Bump returns data with project.version bumped by level. Only the version
// value changes; everything else in data is returned untouched.
func Bump(data []byte, level Level) ([]byte, Version, Version, error) {
	if _, err := ParseLevel(string(level)); err != nil {
		return nil, Version{}, Version{}, err
	}

	m, err := Decode(data)
	if err != nil {
		return nil, Version{}, Version{}, err
	}
	current, err := m.ParsedVersion()
	if err != nil {
		return nil, Version{}, Version{}, err
	}
	next, err := current.Bump(level)
	if err != nil {
		return nil, Version{}, Version{}, err
	}

	lines := bytes.SplitAfter(data, []byte("\n"))
	table := ""
	for i, line := range lines {
		body := bytes.TrimRight(line, "\r\n")
		if h := tableHeaderRegex.FindSubmatch(body); h != nil {
			table = string(h[1])
			continue
		}
		if table != "project" {
			continue
		}
		v := versionLineRegex.FindSubmatch(body)
		if v == nil || string(v[3]) != current.String() {
			continue
		}

		var rewritten bytes.Buffer
		rewritten.Write(v[1])
		rewritten.Write(v[2])
		rewritten.WriteString(next.String())
		rewritten.Write(v[4])
		rewritten.Write(v[5])
		rewritten.Write(line[len(body):])
		lines[i] = rewritten.Bytes()
		return bytes.Join(lines, nil), current, next, nil
	}

	return nil, Version{}, Version{}, &ParseError{
		Field:  "project.version",
		Value:  current.String(),
		Reason: "version must be written as a plain key inside the [project] table to be bumped",
	}
}
