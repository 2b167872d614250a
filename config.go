package main

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/decred/slog"
	"github.com/jessevdk/go-flags"

	libutils "github.com/crypto-power/oraclevoting/libwallet/utils"
	"github.com/crypto-power/oraclevoting/logger"
)

const (
	defaultConfigFilename = "oraclevoted.conf"
	defaultLogDirname     = "logs"
	defaultMaxLogZips     = 8
	defaultNetwork        = "mainnet"
)

var defaultAppDataDir = libutils.CleanAndExpandPath("~/.oraclevoted")

type config struct {
	ShowVersion       bool          `short:"V" long:"version" description:"Display version information and exit"`
	AppDataDir        string        `short:"A" long:"appdata" description:"Path to application data directory"`
	ConfigFile        string        `short:"C" long:"configfile" description:"Path to configuration file"`
	LogDir            string        `long:"logdir" description:"Directory to log output"`
	Network           string        `long:"network" description:"Network to use (mainnet, testnet or regnet)"`
	NodeRPC           string        `long:"noderpc" description:"Node JSON-RPC endpoint, network default when empty"`
	NodeAPIKey        string        `long:"nodeapikey" description:"Node JSON-RPC api key"`
	Indexer           string        `long:"indexer" description:"Contract index REST endpoint, network default when empty"`
	Coinbase          string        `long:"coinbase" description:"Identity address used to vote and pay for transactions"`
	DebugLevel        string        `short:"d" long:"debuglevel" description:"Logging level {trace, debug, info, warn, error, critical} or <subsystem>=<level>,..."`
	MaxLogZips        int           `long:"maxlogzips" description:"Number of zipped log files to keep"`
	PollInterval      time.Duration `long:"pollinterval" description:"Interval between two status queries of a pending transaction"`
	SchedulerInterval time.Duration `long:"schedulerinterval" description:"Interval between two deferred vote scheduler ticks"`
	RefreshInterval   time.Duration `long:"refreshinterval" description:"Interval between two reloads of the listed contracts"`
	PageSize          int           `long:"pagesize" description:"Number of contracts requested per index page"`
	Profile           int           `long:"profile" description:"Enable HTTP profiling on the given port"`
}

func defaultConfig() config {
	return config{
		AppDataDir:        defaultAppDataDir,
		ConfigFile:        filepath.Join(defaultAppDataDir, defaultConfigFilename),
		Network:           defaultNetwork,
		MaxLogZips:        defaultMaxLogZips,
		PollInterval:      libutils.DefaultPollInterval,
		SchedulerInterval: libutils.DefaultSchedulerInterval,
		RefreshInterval:   libutils.DefaultListRefreshInterval,
		PageSize:          libutils.DefaultListPageSize,
	}
}

// loadConfig parses the command line, then the config file, then the
// command line again so that flags override file values.
func loadConfig() (*config, error) {
	preCfg := defaultConfig()
	preParser := flags.NewParser(&preCfg, flags.HelpFlag|flags.PassDoubleDash)
	if _, err := preParser.Parse(); err != nil {
		var flagsErr *flags.Error
		if errors.As(err, &flagsErr) && flagsErr.Type == flags.ErrHelp {
			fmt.Fprintln(os.Stdout, err)
			os.Exit(0)
		}
		return nil, err
	}

	if preCfg.ShowVersion {
		fmt.Printf("oraclevoted version %s\n", Version)
		os.Exit(0)
	}

	cfg := defaultConfig()
	if preCfg.AppDataDir != defaultAppDataDir && preCfg.ConfigFile == defaultConfig().ConfigFile {
		preCfg.ConfigFile = filepath.Join(preCfg.AppDataDir, defaultConfigFilename)
	}
	cfg.AppDataDir = preCfg.AppDataDir
	cfg.ConfigFile = libutils.CleanAndExpandPath(preCfg.ConfigFile)

	parser := flags.NewParser(&cfg, flags.Default)
	if err := flags.NewIniParser(parser).ParseFile(cfg.ConfigFile); err != nil {
		var pathErr *os.PathError
		if !errors.As(err, &pathErr) {
			return nil, fmt.Errorf("error parsing config file: %v", err)
		}
	}

	if _, err := parser.Parse(); err != nil {
		return nil, err
	}

	cfg.AppDataDir = libutils.CleanAndExpandPath(cfg.AppDataDir)
	if cfg.LogDir == "" {
		cfg.LogDir = filepath.Join(cfg.AppDataDir, defaultLogDirname)
	}
	cfg.LogDir = libutils.CleanAndExpandPath(cfg.LogDir)

	if libutils.ToNetworkType(cfg.Network) == libutils.Unknown {
		return nil, fmt.Errorf("invalid network %q", cfg.Network)
	}
	if cfg.MaxLogZips < 0 {
		cfg.MaxLogZips = 0
	}
	if cfg.PollInterval <= 0 || cfg.SchedulerInterval <= 0 || cfg.RefreshInterval <= 0 {
		return nil, errors.New("intervals must be positive")
	}
	if cfg.PageSize <= 0 {
		return nil, fmt.Errorf("invalid page size %d", cfg.PageSize)
	}

	return &cfg, nil
}

// parseAndSetDebugLevels attempts to parse the specified debug level and set
// the levels accordingly.  An appropriate error is returned if anything is
// invalid.
func parseAndSetDebugLevels(debugLevel string) error {
	// When the specified string doesn't have any delimters, treat it as
	// the log level for all subsystems.
	if !strings.Contains(debugLevel, ",") && !strings.Contains(debugLevel, "=") {
		return logger.SetLogLevels(debugLevel)
	}

	// Split the specified string into subsystem/level pairs while detecting
	// issues and update the log levels accordingly.
	for _, logLevelPair := range strings.Split(debugLevel, ",") {
		if !strings.Contains(logLevelPair, "=") {
			return fmt.Errorf("the specified debug level contains an invalid subsystem/level pair [%v]", logLevelPair)
		}

		fields := strings.Split(logLevelPair, "=")
		subsysID, logLevel := fields[0], fields[1]

		if !isExistSystem(subsysID) {
			return fmt.Errorf("the specified subsystem [%v] is invalid -- supported subsytems %v",
				subsysID, logger.SupportedSubsystems())
		}
		if _, ok := slog.LevelFromString(logLevel); !ok {
			return fmt.Errorf("the specified debug level [%v] is invalid", logLevel)
		}

		logger.SetLogLevel(subsysID, logLevel)
	}

	return nil
}
