// SPDX-License-Identifier: MPL-2.0

package config

type (
	// Config is the effective application configuration.
	Config struct {
		Taskfile       string        `json:"taskfile" mapstructure:"taskfile"`
		Manifest       string        `json:"manifest" mapstructure:"manifest"`
		DefaultRuntime string        `json:"default_runtime" mapstructure:"default_runtime"`
		Log            LogConfig     `json:"log" mapstructure:"log"`
		Publish        PublishConfig `json:"publish" mapstructure:"publish"`
		Copy           CopyConfig    `json:"copy" mapstructure:"copy"`
		UI             UIConfig      `json:"ui" mapstructure:"ui"`

		// Source is the file the configuration was read from; empty when
		// only defaults and environment overrides apply.
		Source string `json:"-" mapstructure:"-"`
	}

	// LogConfig selects the log level and output format.
	LogConfig struct {
		Level  string `json:"level" mapstructure:"level"`
		Format string `json:"format" mapstructure:"format"`
	}

	// PublishConfig configures the upload builtin.
	PublishConfig struct {
		DistDir         string `json:"dist_dir" mapstructure:"dist_dir"`
		StagingIndex    string `json:"staging_index" mapstructure:"staging_index"`
		ProductionIndex string `json:"production_index" mapstructure:"production_index"`
		TokenEnv        string `json:"token_env" mapstructure:"token_env"`
	}

	// CopyConfig configures the copy and validate commands.
	CopyConfig struct {
		Copier          string   `json:"copier" mapstructure:"copier"`
		Attempts        int      `json:"attempts" mapstructure:"attempts"`
		Algorithm       string   `json:"algorithm" mapstructure:"algorithm"`
		Workers         int      `json:"workers" mapstructure:"workers"`
		RobocopyThreads int      `json:"robocopy_threads" mapstructure:"robocopy_threads"`
		RobocopyArgs    []string `json:"robocopy_args" mapstructure:"robocopy_args"`
	}

	// UIConfig holds presentation settings.
	UIConfig struct {
		Verbose     bool   `json:"verbose" mapstructure:"verbose"`
		ColorScheme string `json:"color_scheme" mapstructure:"color_scheme"`
	}
)

// DefaultConfig returns the built-in configuration.
func DefaultConfig() *Config {
	return &Config{
		Taskfile:       "tasks.cue",
		Manifest:       "project.toml",
		DefaultRuntime: "native",
		Log: LogConfig{
			Level:  "info",
			Format: "text",
		},
		Publish: PublishConfig{
			DistDir:  "dist",
			TokenEnv: "HARDCOPY_INDEX_TOKEN",
		},
		Copy: CopyConfig{
			Copier:          "auto",
			Attempts:        3,
			Algorithm:       "crc32c",
			Workers:         8,
			RobocopyThreads: 8,
			RobocopyArgs:    []string{},
		},
		UI: UIConfig{
			ColorScheme: "auto",
		},
	}
}

// Indexes maps the upload index names to their URLs.
func (p PublishConfig) Indexes() map[string]string {
	return map[string]string{
		"staging":    p.StagingIndex,
		"production": p.ProductionIndex,
	}
}
