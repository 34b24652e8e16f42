package main

import (
	"errors"
	"fmt"
	"time"

	"github.com/btcsuite/btclog"
	"github.com/czh0526/cryptoconditions/conditions"
	"github.com/jessevdk/go-flags"
)

const (
	defaultDebugLevel = "info"
	defaultDBTimeout  = 60 * time.Second
)

type config struct {
	Condition  bool   `short:"c" long:"condition" description:"Decode inputs as compact conditions instead of fulfillments"`
	MixedMode  bool   `short:"m" long:"mixedmode" description:"Decode thresholds in the mixed mode dialect"`
	MaxDepth   int    `long:"maxdepth" description:"Maximum threshold nesting depth, 0 for no limit"`
	DebugLevel string `short:"d" long:"debuglevel" description:"Logging level {trace, debug, info, warn, error, critical}"`

	// Condition store options
	DBPath    string        `long:"db" description:"Path to the conditions database"`
	Store     bool          `long:"store" description:"Store decoded conditions in the database -- requires --condition and --db"`
	List      bool          `long:"list" description:"List the conditions stored in the database and exit -- requires --db"`
	DBTimeout time.Duration `long:"dbtimeout" description:"The timeout value to use when opening the conditions database"`
	CacheSize uint64        `long:"cachesize" description:"Number of decoded conditions to keep in memory (default 1000)"`
}

// decodeOptions returns the fulfillment decoding options selected on the
// command line.
func (c *config) decodeOptions() conditions.Options {
	var bits uint32
	if c.MixedMode {
		bits |= conditions.FlagMixedMode
	}

	opts := conditions.OptionsFromFlags(bits)
	opts.MaxDepth = c.MaxDepth
	return opts
}

// isHelpErr reports whether err is the go-flags error returned for -h.
func isHelpErr(err error) bool {
	var ferr *flags.Error
	return errors.As(err, &ferr) && ferr.Type == flags.ErrHelp
}

// loadConfig parses args on top of the defaults, validates the result and
// returns the remaining positional arguments.
func loadConfig(args []string) (*config, []string, error) {
	cfg := config{
		DebugLevel: defaultDebugLevel,
		DBTimeout:  defaultDBTimeout,
	}

	parser := flags.NewParser(&cfg, flags.HelpFlag|flags.PassDoubleDash)
	parser.Usage = "[OPTIONS] [hex ...]"
	remaining, err := parser.ParseArgs(args)
	if err != nil {
		return nil, nil, err
	}

	if _, ok := btclog.LevelFromString(cfg.DebugLevel); !ok {
		return nil, nil, fmt.Errorf("the specified debug level [%v] is "+
			"invalid", cfg.DebugLevel)
	}

	if cfg.MaxDepth < 0 {
		return nil, nil, fmt.Errorf("maxdepth must not be negative, "+
			"got %d", cfg.MaxDepth)
	}

	if cfg.Store {
		if !cfg.Condition {
			return nil, nil, errors.New("--store requires --condition")
		}
		if cfg.DBPath == "" {
			return nil, nil, errors.New("--store requires --db")
		}
	}

	if cfg.List {
		if cfg.DBPath == "" {
			return nil, nil, errors.New("--list requires --db")
		}
		if len(remaining) > 0 {
			return nil, nil, errors.New("--list takes no inputs")
		}
	}

	return &cfg, remaining, nil
}
