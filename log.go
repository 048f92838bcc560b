package main

import (
	"github.com/btcsuite/btclog"
	"github.com/lightningnetwork/lnd/build"
	"github.com/lightningnetwork/lnd/signal"
)

const (
	// Subsystem is the logging tag for the service lifecycle.
	Subsystem = "CNTR"

	// HandlerSubsystem is the logging tag for per-request lines.
	HandlerSubsystem = "HNDL"
)

// subsystems lists every tag SetupLoggers registers with the root writer.
var subsystems = []string{Subsystem, HandlerSubsystem}

var (
	logWriter = build.NewRotatingLogWriter()

	// log and hndlLog stay on the build package default until
	// SetupLoggers wires them to the rotating writer.
	log     = build.NewSubLogger(Subsystem, nil)
	hndlLog = build.NewSubLogger(HandlerSubsystem, nil)
)

// SetupLoggers creates the sub-loggers of every subsystem and registers them
// with the root writer so their levels can be set by name.
func SetupLoggers(root *build.RotatingLogWriter, interceptor signal.Interceptor) {
	genLogger := genSubLogger(root, interceptor)

	log = build.NewSubLogger(Subsystem, genLogger)
	root.RegisterSubLogger(Subsystem, log)

	hndlLog = build.NewSubLogger(HandlerSubsystem, genLogger)
	root.RegisterSubLogger(HandlerSubsystem, hndlLog)
}

// genSubLogger returns a generator that ties every sub-logger to the
// interceptor, so a critical log line brings the process down.
func genSubLogger(root *build.RotatingLogWriter,
	interceptor signal.Interceptor) func(string) btclog.Logger {

	return func(tag string) btclog.Logger {
		return root.GenSubLogger(tag, interceptor.RequestShutdown)
	}
}
