package main

import (
	"context"
	"flag"
	"fmt"
	"net"
	"net/http"
	"net/url"
	"os"
	"os/exec"
	"path/filepath"
	"time"

	"github.com/matheus3301/guestbook/internal/config"
	"github.com/matheus3301/guestbook/internal/logging"
	"github.com/matheus3301/guestbook/internal/paths"
	"github.com/matheus3301/guestbook/internal/remote"
	"github.com/matheus3301/guestbook/internal/tui"
	"go.uber.org/zap"
)

func main() {
	endpointFlag := flag.String("endpoint", "", "guestbook collection URL (overrides $"+config.EnvEndpoint+" and config)")
	configFlag := flag.String("config", "", "config file (default ~/.guestbook/config.toml)")
	spawnFlag := flag.Bool("spawn", false, "start a local gbd if the endpoint is on this machine and not answering")
	flag.Parse()

	cfgPath := *configFlag
	if cfgPath == "" {
		cfgPath = paths.ConfigPath()
	}
	cfg, err := config.Resolve(cfgPath, *endpointFlag)
	if err != nil {
		fmt.Fprintf(os.Stderr, "error: load config: %v\n", err)
		os.Exit(1)
	}

	logger, err := logging.New(paths.LogPath("gbtui"), "gbtui", false)
	if err != nil {
		fmt.Fprintf(os.Stderr, "warning: file logging disabled: %v\n", err)
		logger = zap.NewNop()
	}
	defer func() { _ = logger.Sync() }()

	client, err := remote.New(cfg.Endpoint, cfg.RequestTimeout.Duration, remote.WithLogger(logger.Named("remote")))
	if err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}

	if *spawnFlag && isLoopback(cfg.Endpoint) && !probeServer(cfg.Endpoint) {
		fmt.Fprintln(os.Stderr, "gbd not answering, starting it...")
		if err := startServer(cfg.Endpoint); err != nil {
			fmt.Fprintf(os.Stderr, "failed to start gbd: %v\n", err)
			os.Exit(1)
		}
		if !waitForServer(cfg.Endpoint, 10*time.Second) {
			fmt.Fprintln(os.Stderr, "gbd did not become ready")
			os.Exit(1)
		}
	}

	app := tui.NewApp(client, client.Endpoint(), logger)
	if err := app.Run(); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

// healthURL maps a collection endpoint to the server's /healthz.
func healthURL(endpoint string) string {
	u, err := url.Parse(endpoint)
	if err != nil {
		return ""
	}
	return (&url.URL{Scheme: u.Scheme, Host: u.Host, Path: "/healthz"}).String()
}

func isLoopback(endpoint string) bool {
	u, err := url.Parse(endpoint)
	if err != nil {
		return false
	}
	if u.Hostname() == "localhost" {
		return true
	}
	ip := net.ParseIP(u.Hostname())
	return ip != nil && ip.IsLoopback()
}

// probeServer checks that gbd answers its health check.
func probeServer(endpoint string) bool {
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, healthURL(endpoint), nil)
	if err != nil {
		return false
	}
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return false
	}
	_ = resp.Body.Close()
	return resp.StatusCode == http.StatusOK
}

func startServer(endpoint string) error {
	executable, err := os.Executable()
	if err != nil {
		return err
	}
	gbd := filepath.Join(filepath.Dir(executable), "gbd")
	if _, err := os.Stat(gbd); err != nil {
		gbd = "gbd"
	}

	u, err := url.Parse(endpoint)
	if err != nil {
		return err
	}
	cmd := exec.Command(gbd, "-addr", u.Host)
	// Inherit stderr so startup errors are visible.
	cmd.Stderr = os.Stderr
	return cmd.Start()
}

// waitForServer polls the health check until it passes or timeout elapses.
func waitForServer(endpoint string, timeout time.Duration) bool {
	deadline := time.Now().Add(timeout)
	for time.Now().Before(deadline) {
		if probeServer(endpoint) {
			return true
		}
		time.Sleep(300 * time.Millisecond)
	}
	return false
}
