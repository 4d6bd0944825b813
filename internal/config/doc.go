// SPDX-License-Identifier: MPL-2.0

// Package config handles application configuration using Viper with CUE as the file format.
//
// Configuration is loaded from config.cue in the platform config directory
// (~/.config/hardcopy on Linux, ~/Library/Application Support/hardcopy on macOS,
// %APPDATA%\hardcopy on Windows), falling back to ./config.cue. Every key can be
// overridden from the environment with the HARDCOPY_ prefix, dots replaced by
// underscores (HARDCOPY_COPY_ATTEMPTS=5).
//
// Files are validated against the embedded #Config schema (config_schema.cue)
// before they reach Viper.
package config
