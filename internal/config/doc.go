// SPDX-License-Identifier: MPL-2.0

// Package config handles versionfetch configuration using Viper with CUE as the file format.
//
// Configuration is loaded from ~/.config/versionfetch/config.cue (or the XDG
// equivalent on Linux, ~/Library/Application Support/versionfetch/config.cue on
// macOS, %APPDATA%\versionfetch\config.cue on Windows), then ./config.cue. Every
// key is optional; missing keys keep their defaults. Files are validated against
// the embedded #Config schema (config_schema.cue) before they reach Viper.
package config
