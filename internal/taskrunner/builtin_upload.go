// SPDX-License-Identifier: MPL-2.0

package taskrunner

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"maps"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"github.com/hardcopy/hardcopy/pkg/manifest"

	"github.com/spf13/pflag"
)

// BuiltinUpload is the name the upload builtin is registered under.
const BuiltinUpload = "upload"

const maxErrorBody = 512

// ErrNoArtifacts is returned when the dist directory holds no files.
var ErrNoArtifacts = errors.New("no artifacts to upload")

// UploadConfig configures the upload builtin.
type UploadConfig struct {
	// ManifestPath supplies the project name and version.
	ManifestPath string
	// DistDir holds the artifacts; every regular file at its top level is uploaded.
	DistDir string
	// Indexes maps an index name (staging, production) to its base URL.
	Indexes map[string]string
	// TokenEnv names the environment variable holding a bearer token.
	TokenEnv string
	// Client defaults to http.DefaultClient.
	Client *http.Client
}

// UploadBuiltin returns the builtin that publishes the dist directory to a
// package index selected with --index. Only the selected index is contacted.
func UploadBuiltin(cfg UploadConfig) Builtin {
	return BuiltinFunc(func(ctx context.Context, env BuiltinEnv, args []string) error {
		fs := pflag.NewFlagSet(BuiltinUpload, pflag.ContinueOnError)
		fs.SetOutput(io.Discard)
		// A task's fixed args come first; callers may add flags but not
		// override them.
		index := &onceValue{}
		dist := &onceValue{value: cfg.DistDir}
		fs.Var(index, "index", "index to upload to")
		fs.Var(dist, "dist", "directory holding the artifacts")
		if err := fs.Parse(args); err != nil {
			return fmt.Errorf("upload: %w", err)
		}
		if fs.NArg() > 0 {
			return fmt.Errorf("upload: unexpected arguments %v", fs.Args())
		}

		base, ok := cfg.Indexes[index.value]
		if !ok || base == "" {
			known := slices.Sorted(maps.Keys(cfg.Indexes))
			return fmt.Errorf("upload: unknown or unconfigured index %q (configured: %s)", index.value, strings.Join(known, ", "))
		}

		m, err := manifest.Load(resolve(env.WorkDir, cfg.ManifestPath))
		if err != nil {
			return err
		}
		version, err := m.ParsedVersion()
		if err != nil {
			return err
		}

		files, err := artifacts(resolve(env.WorkDir, dist.value))
		if err != nil {
			return err
		}

		u := &uploader{client: cfg.Client, token: os.Getenv(cfg.TokenEnv)}
		if u.client == nil {
			u.client = http.DefaultClient
		}
		for _, file := range files {
			target, err := url.JoinPath(base, m.Project.Name, version.String(), filepath.Base(file))
			if err != nil {
				return fmt.Errorf("upload: invalid index URL %q: %w", base, err)
			}
			if err := u.put(ctx, target, file); err != nil {
				return err
			}
			slog.Debug("uploaded artifact", "index", index.value, "url", target)
			if env.Stdout != nil {
				fmt.Fprintf(env.Stdout, "uploaded %s\n", target)
			}
		}
		return nil
	})
}

// onceValue is a string flag that can be given at most once.
type onceValue struct {
	value string
	set   bool
}

func (v *onceValue) String() string { return v.value }

func (v *onceValue) Type() string { return "string" }

func (v *onceValue) Set(s string) error {
	if v.set {
		return fmt.Errorf("already set to %q", v.value)
	}
	v.value, v.set = s, true
	return nil
}

type uploader struct {
	client *http.Client
	token  string
}

func (u *uploader) put(ctx context.Context, target, path string) error {
	f, err := os.Open(path)
	if err != nil {
		return err
	}
	defer f.Close()

	info, err := f.Stat()
	if err != nil {
		return err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPut, target, f)
	if err != nil {
		return fmt.Errorf("upload: %w", err)
	}
	req.ContentLength = info.Size()
	req.Header.Set("Content-Type", "application/octet-stream")
	if u.token != "" {
		req.Header.Set("Authorization", "Bearer "+u.token)
	}

	resp, err := u.client.Do(req)
	if err != nil {
		return fmt.Errorf("upload %s: %w", filepath.Base(path), err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		return fmt.Errorf("upload %s: %s: %s", filepath.Base(path), resp.Status, strings.TrimSpace(string(body)))
	}
	return nil
}

// artifacts lists the regular files directly inside dir, sorted by name.
func artifacts(dir string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("%w: %s does not exist", ErrNoArtifacts, dir)
		}
		return nil, err
	}
	var files []string
	for _, e := range entries {
		if e.Type().IsRegular() {
			files = append(files, filepath.Join(dir, e.Name()))
		}
	}
	if len(files) == 0 {
		return nil, fmt.Errorf("%w: %s is empty", ErrNoArtifacts, dir)
	}
	return files, nil
}

func resolve(workDir, path string) string {
	if filepath.IsAbs(path) || workDir == "" {
		return path
	}
	return filepath.Join(workDir, path)
}
