package main

import (
	"errors"
	"fmt"
	"os"
	"os/user"
	"path/filepath"
	"strings"
	"time"

	"github.com/Roasbeef/btcutil"
	"github.com/btcsuite/btclog"
	"github.com/jessevdk/go-flags"
)

const (
	defaultListenAddr      = "127.0.0.1:8080"
	defaultLogLevel        = "info"
	defaultLogDirname      = "logs"
	defaultLogFilename     = "counter.log"
	defaultConfigFilename  = "counter.conf"
	defaultMaxLogFiles     = 3
	defaultMaxLogFileSize  = 10
	defaultShutdownTimeout = 5 * time.Second
)

var (
	appDataDir        = btcutil.AppDataDir("counter", false)
	defaultLogDir     = filepath.Join(appDataDir, defaultLogDirname)
	defaultConfigFile = filepath.Join(appDataDir, defaultConfigFilename)
)

// Config holds every setting of the service. The command line wins over the
// config file, and environment variables replace built-in defaults.
type Config struct {
	ListenAddr string `long:"listen" env:"COUNTER_LISTEN" description:"Address to accept HTTP requests on"`

	DebugLevel string `long:"debuglevel" env:"COUNTER_DEBUGLEVEL" description:"Logging level for all subsystems {trace, debug, info, warn, error, critical} -- You may also specify <subsystem>=<level>,<subsystem2>=<level>,... to set the log level for individual subsystems"`

	LogDir         string `long:"logdir" env:"COUNTER_LOGDIR" description:"Directory to log output"`
	MaxLogFiles    int    `long:"maxlogfiles" description:"Maximum logfiles to keep"`
	MaxLogFileSize int    `long:"maxlogfilesize" description:"Maximum logfile size in MB"`

	AllowedOrigins []string `long:"allowedorigin" env:"COUNTER_ALLOWED_ORIGINS" env-delim:"," description:"Origin to send CORS headers for, may be repeated; * allows all"`

	ShutdownTimeout time.Duration `long:"shutdowntimeout" description:"How long to wait for in-flight requests on shutdown"`

	ConfigFile string `long:"configfile" description:"Path to an ini config file"`
}

func defaultConfig() Config {
	return Config{
		ListenAddr:      defaultListenAddr,
		DebugLevel:      defaultLogLevel,
		LogDir:          defaultLogDir,
		MaxLogFiles:     defaultMaxLogFiles,
		MaxLogFileSize:  defaultMaxLogFileSize,
		AllowedOrigins:  []string{"*"},
		ShutdownTimeout: defaultShutdownTimeout,
		ConfigFile:      defaultConfigFile,
	}
}

// loadConfig parses the command line once to find the config file, reads the
// file if there is one, then parses the command line again so that flags win
// over file values.
func loadConfig(args []string) (*Config, error) {
	preCfg := defaultConfig()
	if _, err := flags.NewParser(&preCfg, flags.Default).ParseArgs(args); err != nil {
		return nil, err
	}

	cfg := preCfg
	configFile := cleanAndExpandPath(preCfg.ConfigFile)
	parser := flags.NewParser(&cfg, flags.Default)
	err := flags.NewIniParser(parser).ParseFile(configFile)
	if err != nil {
		// A missing file is only fine when nobody asked for it.
		var pathErr *os.PathError
		if !errors.As(err, &pathErr) || configFile != defaultConfigFile {
			return nil, fmt.Errorf("unable to read config file %s: %w",
				configFile, err)
		}
	}

	if _, err := parser.ParseArgs(args); err != nil {
		return nil, err
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

func (c *Config) validate() error {
	c.ListenAddr = strings.TrimSpace(c.ListenAddr)
	if c.ListenAddr == "" {
		return errors.New("listen address must be set")
	}
	if c.MaxLogFiles <= 0 {
		return fmt.Errorf("maxlogfiles must be positive, got %d",
			c.MaxLogFiles)
	}
	if c.MaxLogFileSize <= 0 {
		return fmt.Errorf("maxlogfilesize must be positive, got %d",
			c.MaxLogFileSize)
	}
	if err := validateDebugLevel(c.DebugLevel); err != nil {
		return err
	}
	if c.ShutdownTimeout <= 0 {
		return fmt.Errorf("shutdowntimeout must be positive, got %v",
			c.ShutdownTimeout)
	}

	origins := c.AllowedOrigins[:0]
	for _, o := range c.AllowedOrigins {
		if o = strings.TrimSpace(o); o != "" {
			origins = append(origins, o)
		}
	}
	c.AllowedOrigins = origins

	c.LogDir = cleanAndExpandPath(c.LogDir)
	c.ConfigFile = cleanAndExpandPath(c.ConfigFile)

	return nil
}

// validateDebugLevel checks a debuglevel value before any log file exists.
// It accepts a global level or comma separated <subsystem>=<level> pairs.
func validateDebugLevel(level string) error {
	if level == "" {
		return errors.New("debuglevel must be set")
	}

	for _, pair := range strings.Split(level, ",") {
		fields := strings.Split(pair, "=")
		switch len(fields) {
		case 1:
			if _, ok := btclog.LevelFromString(fields[0]); !ok {
				return fmt.Errorf("invalid debuglevel %q", fields[0])
			}

		case 2:
			if !isKnownSubsystem(fields[0]) {
				return fmt.Errorf("unknown subsystem %q in "+
					"debuglevel, supported subsystems are %v",
					fields[0], subsystems)
			}
			if _, ok := btclog.LevelFromString(fields[1]); !ok {
				return fmt.Errorf("invalid debuglevel %q for "+
					"subsystem %s", fields[1], fields[0])
			}

		default:
			return fmt.Errorf("malformed debuglevel pair %q", pair)
		}
	}

	return nil
}

func isKnownSubsystem(name string) bool {
	for _, s := range subsystems {
		if s == name {
			return true
		}
	}
	return false
}

// cleanAndExpandPath expands environment variables and a leading ~ in the
// passed path, cleans the result, and returns it.
func cleanAndExpandPath(path string) string {
	if path == "" {
		return ""
	}

	if strings.HasPrefix(path, "~") {
		var homeDir string
		u, err := user.Current()
		if err == nil {
			homeDir = u.HomeDir
		} else {
			homeDir = os.Getenv("HOME")
		}

		path = strings.Replace(path, "~", homeDir, 1)
	}

	return filepath.Clean(os.ExpandEnv(path))
}
