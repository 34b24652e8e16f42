package conditions

// FlagMixedMode selects the mixed mode threshold dialect. Other flag bits
// are ignored.
const FlagMixedMode uint32 = 1 << 0

// Options control fulfillment decoding.
type Options struct {
	// MixedMode decodes thresholds whose first fulfillment is a preimage
	// holding the threshold value.
	MixedMode bool

	// MaxDepth limits threshold nesting. Zero means no limit.
	MaxDepth int
}

// OptionsFromFlags converts a flags word into Options.
func OptionsFromFlags(flags uint32) Options {
	return Options{
		MixedMode: flags&FlagMixedMode != 0,
	}
}
