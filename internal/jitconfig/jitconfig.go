// Package jitconfig loads the compile-time knobs that do not change
// program semantics: diagnostics toggles and resource ceilings. Config is
// read once at process start by cmd/yarvjitc; the core compiler package
// takes no config argument of its own, keeping it testable without I/O.
package jitconfig

import (
	"github.com/BurntSushi/toml"
)

// Config holds the ambient compile-time knobs.
type Config struct {
	DumpIR     bool   `toml:"dump_ir"`
	DumpCFGDot bool   `toml:"dump_cfg_dot"`
	MaxBlocks  int    `toml:"max_blocks"`
	LogLevel   string `toml:"log_level"`
}

// Default returns the compiled-in defaults used when no config file is
// given.
func Default() Config {
	return Config{
		DumpIR:     false,
		DumpCFGDot: false,
		MaxBlocks:  4096,
		LogLevel:   "info",
	}
}

// Load reads a TOML config file at path, starting from Default() and
// overwriting only the fields present in the file.
func Load(path string) (Config, error) {
	cfg := Default()
	if _, err := toml.DecodeFile(path, &cfg); err != nil {
		return Config{}, err
	}
	return cfg, nil
}
