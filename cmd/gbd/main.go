package main

import (
	"flag"
	"fmt"
	"os"

	"github.com/matheus3301/guestbook/internal/config"
	"github.com/matheus3301/guestbook/internal/daemon"
	"github.com/matheus3301/guestbook/internal/paths"
	"go.uber.org/fx"
)

func main() {
	configFlag := flag.String("config", "", "config file (default ~/.guestbook/config.toml)")
	addrFlag := flag.String("addr", "", "listen address (overrides config)")
	dataFlag := flag.String("data", "", "data directory (overrides config)")
	stderrFlag := flag.Bool("stderr", false, "also log to stderr")
	flag.Parse()

	cfgPath := *configFlag
	if cfgPath == "" {
		cfgPath = paths.ConfigPath()
	}
	cfg, err := config.Resolve(cfgPath, "")
	if err != nil {
		fmt.Fprintf(os.Stderr, "error: load config: %v\n", err)
		os.Exit(1)
	}

	srv := cfg.Server
	if *addrFlag != "" {
		srv.Addr = *addrFlag
	}
	if *dataFlag != "" {
		srv.DataDir = *dataFlag
	}
	if srv.DataDir == "" {
		srv.DataDir = paths.DataDir()
	}
	if err := paths.EnsureDir(paths.LogDir(), srv.DataDir); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}

	app := fx.New(
		daemon.Module(daemon.Params{Server: srv, LogToStderr: *stderrFlag}),
	)

	app.Run()
}
