package main

import (
	"context"
	"fmt"
	golog "log"
	"net/http"
	_ "net/http/pprof"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"golang.org/x/sync/errgroup"

	"github.com/crypto-power/oraclevoting/libwallet"
	"github.com/crypto-power/oraclevoting/libwallet/utils"
	"github.com/crypto-power/oraclevoting/listeners"
	"github.com/crypto-power/oraclevoting/logger"
)

var (
	// Version is the application version. It is set using the -ldflags
	Version = "0.1.0"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %s\n", err.Error())
		os.Exit(1)
	}
}

func run() error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	if cfg.Profile > 0 {
		go func() {
			golog.Printf("Starting profiling server on port %d\n", cfg.Profile)
			golog.Println(http.ListenAndServe(fmt.Sprintf("127.0.0.1:%d", cfg.Profile), nil))
		}()
	}

	netType := utils.ToNetworkType(cfg.Network)

	//  Initialize loggers and set log level before the voting manager is
	//  initialized.
	initLogRotator(filepath.Join(cfg.LogDir, string(netType)), cfg.MaxLogZips)
	defer logRotator.Close()
	if cfg.DebugLevel == "" {
		logger.SetLogLevels(utils.DefaultLogLevel)
	} else if err := parseAndSetDebugLevels(cfg.DebugLevel); err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	mgr, err := libwallet.NewVotingManager(ctx, libwallet.Config{
		RootDir:             cfg.AppDataDir,
		Net:                 netType,
		NodeRPC:             cfg.NodeRPC,
		NodeAPIKey:          cfg.NodeAPIKey,
		Indexer:             cfg.Indexer,
		Coinbase:            cfg.Coinbase,
		PollInterval:        cfg.PollInterval,
		SchedulerInterval:   cfg.SchedulerInterval,
		ListRefreshInterval: cfg.RefreshInterval,
		PageSize:            cfg.PageSize,
	})
	if err != nil {
		log.Errorf("init voting manager error: %v", err)
		return err
	}

	// if debuglevel is passed at commandLine persist the option.
	if cfg.DebugLevel != "" {
		mgr.SetLogLevels(cfg.DebugLevel)
	} else if err := parseAndSetDebugLevels(mgr.GetLogLevels()); err != nil {
		log.Warnf("Ignoring persisted debug level: %v", err)
	}

	log.Infof("oraclevoted %s starting on %s", Version, netType.Display())

	const listenerID = "oraclevoted"
	votingListener := listeners.NewVotingNotificationListener()
	if err := mgr.AddNotificationListener(votingListener, listenerID); err != nil {
		log.Errorf("Error adding voting listener: %v", err)
	}
	listenerDone := make(chan struct{})
	go func() {
		for {
			select {
			case v := <-votingListener.VotingNotifChan:
				logVotingChange(v)
			case <-listenerDone:
				return
			}
		}
	}()

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return mgr.Run(gctx)
	})
	g.Go(func() error {
		// Wait until we receive the shutdown request.
		<-gctx.Done()
		log.Info("Shutdown requested")
		mgr.RemoveNotificationListener(listenerID)
		mgr.Shutdown()
		return nil
	})

	err = g.Wait()
	close(listenerDone)
	log.Info("Shutdown complete")
	return err
}

func logVotingChange(v *libwallet.Voting) {
	switch {
	case v.ErrorMessage != "":
		log.Warnf("Contract %s is %s: %s", v.ID, v.Status, v.ErrorMessage)
	case v.TxHash != "":
		log.Infof("Contract %s is %s, waiting for tx %s", v.ID, v.Status, v.TxHash)
	default:
		log.Infof("Contract %s is %s", v.ID, v.Status)
	}
}
