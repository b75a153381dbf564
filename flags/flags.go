// Package flags parses the CLI surface described in spec.md §6, adapted
// from wireguard-go's flags package (same pflag-based shape: a package
// scoped Parse(*Options) plus usage text on stderr).
package flags

import (
	"fmt"
	"os"

	"github.com/spf13/pflag"
)

// Parse populates opts from os.Args. CLI flags take precedence over
// whatever a config file already set in opts.
func Parse(opts *Options) error {
	pflag.Usage = func() {
		fmt.Fprintf(os.Stderr, "Usage: %s [flags]\n", os.Args[0])
		pflag.PrintDefaults()
	}

	pflag.BoolVarP(&opts.Verbose, "verbose", "v", opts.Verbose, "Enable debug logging")
	pflag.IntVarP(&opts.NumPackets, "num-packets", "n", opts.NumPackets, "SYN rate threshold to trigger on")
	pflag.IntVarP(&opts.TimePeriod, "time-period", "t", opts.TimePeriod, "Sampling window length in seconds")
	pflag.StringVarP(&opts.Interface, "interface", "i", opts.Interface, "Network interface to attach the classifier to")
	pflag.StringVarP(&opts.ConfigFile, "config", "c", opts.ConfigFile, "Optional YAML config file (defaults layered under the flags above)")

	pflag.Parse()

	if opts.NumPackets <= 0 {
		return fmt.Errorf("invalid number of packets: %d", opts.NumPackets)
	}
	if opts.TimePeriod <= 0 {
		return fmt.Errorf("invalid time period: %d", opts.TimePeriod)
	}
	return nil
}
