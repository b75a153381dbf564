// Package config loads an optional YAML file of defaults, layered under
// the CLI flags in package flags (CLI always wins). Modeled on
// wireguard-go's util/cfgGenerator/internal/config package, which parses a
// YAML settings file with gopkg.in/yaml.v3 — retargeted here from
// generating Go source to populating runtime defaults directly.
package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/dfluck/xdpfilter-go/flags"
)

// File is the on-disk shape of the optional config file.
type File struct {
	Verbose    *bool   `yaml:"verbose"`
	NumPackets *int    `yaml:"num_packets"`
	TimePeriod *int    `yaml:"time_period"`
	Interface  *string `yaml:"interface"`
}

// Load reads path and applies any fields it sets onto opts. A missing
// path is not an error when path is empty (no config file requested); any
// other read or parse failure is a startup (fatal) error, same severity
// class as a CLI parse failure (spec.md §7).
func Load(path string, opts *flags.Options) error {
	if path == "" {
		return nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("config: read %s: %w", path, err)
	}

	var f File
	if err := yaml.Unmarshal(data, &f); err != nil {
		return fmt.Errorf("config: parse %s: %w", path, err)
	}

	if f.Verbose != nil {
		opts.Verbose = *f.Verbose
	}
	if f.NumPackets != nil {
		opts.NumPackets = *f.NumPackets
	}
	if f.TimePeriod != nil {
		opts.TimePeriod = *f.TimePeriod
	}
	if f.Interface != nil {
		opts.Interface = *f.Interface
	}
	return nil
}
