package flags

// Options holds the CLI surface from spec.md §6, plus the optional config
// file path (SPEC_FULL.md §4.8).
type Options struct {
	Verbose    bool
	NumPackets int
	TimePeriod int // seconds
	Interface  string
	ConfigFile string
}

// NewOptions returns Options populated with spec.md §6's documented
// defaults.
func NewOptions() *Options {
	return &Options{
		NumPackets: 3,
		TimePeriod: 60,
		Interface:  "eth0",
	}
}
