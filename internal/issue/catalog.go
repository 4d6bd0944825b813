// SPDX-License-Identifier: MPL-2.0

package issue

import (
	"github.com/charmbracelet/glamour"
)

// Id identifies a help page in the catalog.
type Id int

const (
	TaskNotFoundId Id = iota + 1
	TaskGraphInvalidId
	TaskFailedId
	TaskfileParseErrorId
	ManifestParseErrorId
	RobocopyUnavailableId
	CopyValidationFailedId
	UploadFailedId
)

// Issue is a markdown help page attached to a class of failure.
type Issue struct {
	id    Id
	mdMsg string
}

// Id returns the catalog id.
func (i *Issue) Id() Id { return i.id }

// Markdown returns the raw markdown body.
func (i *Issue) Markdown() string { return i.mdMsg }

// Render renders the page with the named glamour style ("dark", "light",
// "notty", ...).
func (i *Issue) Render(style string) (string, error) {
	return render(i.mdMsg, style)
}

var render = glamour.Render

// Get returns the catalog entry for id, or nil.
func Get(id Id) *Issue {
	return catalog[id]
}

var catalog = map[Id]*Issue{
	TaskNotFoundId: {id: TaskNotFoundId, mdMsg: `
# Task not found

The task you asked for is not defined in the active taskfile.

## Things you can try
- List the defined tasks:
~~~
$ hardcopy tasks
~~~
- Check the spelling; task names are case sensitive.
- If your project has a ` + "`tasks.cue`" + `, it replaces the built-in tasks entirely.`},

	TaskGraphInvalidId: {id: TaskGraphInvalidId, mdMsg: `
# The task graph is invalid

A composite task refers to a task that does not exist, or a composite
includes itself through its steps.

## Things you can try
~~~
$ hardcopy tasks check
~~~
Every entry in ` + "`steps`" + ` must name a task defined in the same taskfile.`},

	TaskFailedId: {id: TaskFailedId, mdMsg: `
# A task step failed

The run stopped at the first failing step. Steps that already ran are **not**
undone: reformatted files and bumped versions stay as they are.

## Things you can try
- Re-run only the failing step to diagnose it:
~~~
$ hardcopy run <step>
~~~
- Inspect what a composite would run without running it:
~~~
$ hardcopy run <task> --explain
~~~`},

	TaskfileParseErrorId: {id: TaskfileParseErrorId, mdMsg: `
# Failed to parse the taskfile

## Example of a valid taskfile
~~~cue
tasks: {
	"format-fix": {cmd: "gofmt -s -w ."}
	test:         {cmd: "go test -cover ./..."}
	prebuild:     {steps: ["format-fix", "test"]}
	bump:         {builtin: "bump"}
}
~~~
Each task sets exactly one of ` + "`cmd`" + `, ` + "`steps`" + ` or ` + "`builtin`" + `.`},

	ManifestParseErrorId: {id: ManifestParseErrorId, mdMsg: `
# The project manifest has no usable version

The ` + "`[project]`" + ` table must contain a version of the form
` + "`MAJOR.MINOR.PATCH`" + `, with numbers only:

~~~toml
[project]
name = "hardcopy"
version = "0.1.0"
~~~`},

	RobocopyUnavailableId: {id: RobocopyUnavailableId, mdMsg: `
# Robocopy is not available

Robocopy ships with Windows. On other systems use the portable copier:
~~~
$ hardcopy copy --copier native <src> <dest>
~~~
or set ` + "`copy: copier: \"native\"`" + ` in your config.`},

	CopyValidationFailedId: {id: CopyValidationFailedId, mdMsg: `
# The copy does not match the source

At least one file in the destination has different contents, or is missing.
Extra files in the destination are ignored.

## Things you can try
- Re-run the copy; each run copies and validates again up to the configured
  number of attempts.
- Validate without copying to see the first mismatching path:
~~~
$ hardcopy validate <src> <dest>
~~~`},

	UploadFailedId: {id: UploadFailedId, mdMsg: `
# Upload to the package index failed

## Things you can try
- Check the index URLs under ` + "`publish`" + ` in your config.
- Make sure the token environment variable is set.
- Try the staging index first:
~~~
$ hardcopy run dry-run
~~~`},
}
