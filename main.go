package main

import (
	"context"
	"flag"
	"fmt"
	"os"

	"cryptrail/pkg/authgate"
	"cryptrail/pkg/balance"
	"cryptrail/pkg/config"
	"cryptrail/pkg/logger"
	"cryptrail/pkg/prices"
	"cryptrail/pkg/rpc"
	"cryptrail/pkg/server"
	"cryptrail/pkg/session"
	"cryptrail/pkg/storage"
	"cryptrail/pkg/tui"
	"cryptrail/pkg/tx"
	"cryptrail/pkg/watcher"
)

// Version should be set during build
var Version = "dev"

func main() {
	versionFlag := flag.Bool("version", false, "Print version and exit")
	serverFlag := flag.Bool("server", false, "Run the status API alongside the TUI")
	portFlag := flag.Int("port", 0, "Port for the status API (overrides CRYPTRAIL_SERVER_PORT)")
	dataDirFlag := flag.String("data-dir", "", "Data directory (overrides CRYPTRAIL_DATA_DIR)")
	flag.Parse()

	if *versionFlag {
		fmt.Printf("cryptrail version %s\n", Version)
		os.Exit(0)
	}

	cfg, err := config.Load()
	if err != nil {
		fmt.Printf("Error loading configuration: %v\n", err)
		os.Exit(1)
	}
	if *dataDirFlag != "" {
		cfg.DataDir = *dataDirFlag
	}
	if *portFlag != 0 {
		cfg.ServerPort = *portFlag
	}

	// The TUI owns the terminal; logs go to the configured file or nowhere.
	logger.Init(cfg.LogLevel, cfg.LogFile)

	store, err := storage.NewFileStore(cfg.DataDir)
	if err != nil {
		fmt.Printf("Error opening data directory %s: %v\n", cfg.DataDir, err)
		os.Exit(1)
	}

	sess, err := session.Open(store, authgate.NoopAuthenticator{}, cfg.AuthGateTimeout())
	if err != nil {
		fmt.Printf("Error opening wallet: %v\n", err)
		os.Exit(1)
	}

	client := rpc.NewClient()
	priceSvc := prices.NewService()
	engine := tx.NewEngine(client, sess.Ledger, sess.Gate)

	w := watcher.New(sess, &watcher.RealDataSource{
		Engine: balance.NewEngine(client),
		Client: client,
		Prices: priceSvc,
	}, cfg.RefreshInterval(), cfg.PriceInterval())

	// A confirmed send changes balances; refresh right away.
	engine.OnConfirmed(func(string) { w.RefreshNow() })

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	w.Start(ctx)
	defer w.Stop()

	if *serverFlag {
		srv := server.NewServer(sess, w, priceSvc)
		go func() {
			if err := srv.Start(cfg.ServerPort); err != nil {
				logger.Server.Error().Err(err).Msg("status server stopped")
			}
		}()
	}

	tui.Start(sess, w, engine, priceSvc, Version)
}
