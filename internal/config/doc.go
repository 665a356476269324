// SPDX-License-Identifier: MIT

// Package config provides configuration management for zi2anki.
//
// Precedence is ENV > config file > defaults. The YAML file is parsed in
// strict mode so unknown keys fail fast instead of being silently ignored.
package config
