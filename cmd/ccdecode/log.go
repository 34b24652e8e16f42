package main

import (
	"os"

	"github.com/btcsuite/btclog"
	"github.com/czh0526/cryptoconditions/conditions"
	"github.com/czh0526/cryptoconditions/condstore"
)

// Loggers per subsystem.  A single backend logger is created and all
// subsystem loggers created from it will write to the backend.
var (
	backendLog = btclog.NewBackend(os.Stderr)

	log     = backendLog.Logger("CCDC")
	ccndLog = backendLog.Logger("CCND")
	cstrLog = backendLog.Logger("CSTR")
)

func init() {
	conditions.UseLogger(ccndLog)
	condstore.UseLogger(cstrLog)
}

// subsystemLoggers maps each subsystem identifier to its associated logger.
var subsystemLoggers = map[string]btclog.Logger{
	"CCDC": log,
	"CCND": ccndLog,
	"CSTR": cstrLog,
}

// setLogLevels sets the log level for all subsystem loggers to the passed
// level.  Invalid levels are ignored.
func setLogLevels(logLevel string) {
	level, ok := btclog.LevelFromString(logLevel)
	if !ok {
		return
	}

	for _, logger := range subsystemLoggers {
		logger.SetLevel(level)
	}
}
