package main

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/dustin/go-humanize"
	"github.com/jessevdk/go-flags"
	"github.com/lightningnetwork/lnd/build"
	"github.com/lightningnetwork/lnd/signal"
)

func main() {
	err := run(os.Args[1:])

	// Check whether help was requested from our flag library; the help
	// text has already been printed by the parser.
	var flagErr *flags.Error
	isHelpErr := errors.As(err, &flagErr) && flagErr.Type == flags.ErrHelp

	// If we got a nil error, or help was requested, just exit.
	if err == nil || isHelpErr {
		os.Exit(0)
	}

	// Print any other non-help related errors.
	_, _ = fmt.Fprintln(os.Stderr, err)
	os.Exit(1)
}

func run(args []string) error {
	// put at first.
	interceptor, err := signal.Intercept()
	if err != nil {
		return err
	}

	cfg, err := loadConfig(args)
	if err != nil {
		return fmt.Errorf("unable to load config: %w", err)
	}

	// set logs
	SetupLoggers(logWriter, interceptor)
	logFile := filepath.Join(cfg.LogDir, defaultLogFilename)
	err = logWriter.InitLogRotator(
		logFile, cfg.MaxLogFileSize, cfg.MaxLogFiles,
	)
	if err != nil {
		return fmt.Errorf("unable to create log directory: %w", err)
	}
	defer func() {
		_ = logWriter.Close()
	}()

	err = build.ParseAndSetDebugLevels(cfg.DebugLevel, logWriter)
	if err != nil {
		return fmt.Errorf("unable to set log level: %w", err)
	}
	log.Infof("Logging to %s (%d files of up to %s)", logFile,
		cfg.MaxLogFiles,
		humanize.IBytes(uint64(cfg.MaxLogFileSize)*humanize.MiByte))

	counter := NewRequestCounter()
	server := NewServer(cfg, counter)
	if err := server.Start(); err != nil {
		return err
	}

	select {
	case <-interceptor.ShutdownChannel():
		log.Infof("Received shutdown request, stopping server")

	case err = <-server.Errors():
		log.Errorf("Error while serving requests: %v", err)
	}

	if stopErr := server.Stop(); stopErr != nil && err == nil {
		err = stopErr
	}
	log.Infof("Served %s requests", humanize.Comma(int64(counter.Value())))

	return err
}
