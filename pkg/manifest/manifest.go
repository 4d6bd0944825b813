// SPDX-License-Identifier: MPL-2.0

package manifest

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/pelletier/go-toml/v2"
)

// DefaultFileName is the manifest looked up in the working directory.
const DefaultFileName = "project.toml"

type (
	// Manifest is the decoded project manifest.
	Manifest struct {
		Project Project `toml:"project"`
		Tool    Tool    `toml:"tool"`

		// Path is where the manifest was read from.
		Path string `toml:"-"`
	}

	// Project is the [project] table.
	Project struct {
		Name         string       `toml:"name"`
		Version      string       `toml:"version"`
		Description  string       `toml:"description"`
		Authors      []Author     `toml:"authors"`
		License      string       `toml:"license"`
		RequiresGo   string       `toml:"requires-go"`
		Dependencies []Dependency `toml:"dependencies"`
	}

	// Author is one entry of project.authors.
	Author struct {
		Name  string `toml:"name"`
		Email string `toml:"email"`
	}

	// Dependency is a name plus a minimum-version constraint.
	Dependency struct {
		Name    string `toml:"name"`
		Version string `toml:"version"`
	}

	// Tool holds [tool.*] tables.
	Tool struct {
		// Dev maps development tool names to version constraints.
		Dev map[string]string `toml:"dev"`
	}
)

// Load reads and decodes the manifest at path.
func Load(path string) (*Manifest, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read manifest: %w", err)
	}

	m, err := Decode(data)
	if err != nil {
		var pe *ParseError
		if errors.As(err, &pe) {
			pe.Path = path
		}
		return nil, err
	}
	m.Path = path
	return m, nil
}

// Decode decodes manifest bytes. Decoding does not require a valid version;
// use (*Manifest).ParsedVersion for that.
func Decode(data []byte) (*Manifest, error) {
	var m Manifest
	if err := toml.Unmarshal(data, &m); err != nil {
		return nil, &ParseError{Reason: "invalid TOML", Err: err}
	}
	return &m, nil
}

// ParsedVersion returns project.version as a Version, or a *ParseError when
// it is missing or malformed.
func (m *Manifest) ParsedVersion() (Version, error) {
	raw := strings.TrimSpace(m.Project.Version)
	if raw == "" {
		return Version{}, &ParseError{Path: m.Path, Field: "project.version", Reason: "version field is missing"}
	}
	v, err := ParseVersion(raw)
	if err != nil {
		return Version{}, &ParseError{Path: m.Path, Field: "project.version", Value: raw, Reason: "version is not MAJOR.MINOR.PATCH"}
	}
	return v, nil
}

// Check validates every constraint in the manifest and verifies that
// goVersion (e.g. "1.25.1") satisfies requires-go. An empty goVersion skips
// the toolchain check. All problems are returned, not just the first.
func (m *Manifest) Check(goVersion string) []error {
	var errs []error

	if _, err := m.ParsedVersion(); err != nil {
		errs = append(errs, err)
	}
	if m.Project.Name == "" {
		errs = append(errs, &ParseError{Path: m.Path, Field: "project.name", Reason: "name is missing"})
	}

	if m.Project.RequiresGo != "" {
		c, err := ParseConstraint("requires-go", m.Project.RequiresGo)
		switch {
		case err != nil:
			errs = append(errs, err)
		case goVersion != "" && !c.Allows(goVersion):
			errs = append(errs, fmt.Errorf("requires-go %s is not satisfied by go %s", c, goVersion))
		}
	}

	seen := make(map[string]bool, len(m.Project.Dependencies))
	for i, dep := range m.Project.Dependencies {
		if dep.Name == "" {
			errs = append(errs, fmt.Errorf("project.dependencies[%d]: name is missing", i))
			continue
		}
		if seen[dep.Name] {
			errs = append(errs, fmt.Errorf("project.dependencies[%d]: duplicate dependency %q", i, dep.Name))
		}
		seen[dep.Name] = true
		if _, err := ParseConstraint(dep.Name, dep.Version); err != nil {
			errs = append(errs, err)
		}
	}

	for tool, constraint := range m.Tool.Dev {
		if _, err := ParseConstraint("tool.dev."+tool, constraint); err != nil {
			errs = append(errs, err)
		}
	}

	return errs
}
