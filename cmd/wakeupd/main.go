// wakeupd is the smart alarm daemon.
// It serves the HTTP API the form talks to and, optionally, the form itself over SSH.
package main

import (
	"context"
	"fmt"
	"net"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/bborn/wakeup/internal/api"
	"github.com/bborn/wakeup/internal/config"
	"github.com/bborn/wakeup/internal/db"
	"github.com/bborn/wakeup/internal/geo"
	"github.com/bborn/wakeup/internal/server"
	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"
)

var version = "dev"

type daemonFlags struct {
	configPath string
	addr       string
	sshAddr    string
	debug      bool
}

func main() {
	var flags daemonFlags

	rootCmd := &cobra.Command{
		Use:          "wakeupd",
		Short:        "Smart alarm API server",
		Version:      version,
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return run(flags)
		},
	}
	rootCmd.Flags().StringVar(&flags.configPath, "config", config.DefaultPath(), "Config file path")
	rootCmd.Flags().StringVar(&flags.addr, "addr", "", "HTTP listen address (overrides server.addr)")
	rootCmd.Flags().StringVar(&flags.sshAddr, "ssh", "", "SSH listen address (overrides server.ssh_addr)")
	rootCmd.Flags().BoolVar(&flags.debug, "debug", false, "Verbose logging")

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func run(flags daemonFlags) error {
	logger := log.NewWithOptions(os.Stderr, log.Options{
		ReportTimestamp: true,
		Prefix:          "wakeupd",
	})
	if flags.debug {
		logger.SetLevel(log.DebugLevel)
	}

	cfg, err := config.LoadFromPath(flags.configPath)
	if err != nil {
		return err
	}
	if flags.addr != "" {
		cfg.Server.Addr = flags.addr
	}
	if flags.sshAddr != "" {
		cfg.Server.SSHAddr = flags.sshAddr
	}

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	store := config.NewStore(flags.configPath, cfg, logger.WithPrefix("config"))
	if err := store.Watch(ctx); err != nil {
		logger.Warn("Config changes will not be picked up", "error", err)
	}

	database, err := db.Open(cfg.Server.DBPath)
	if err != nil {
		return fmt.Errorf("open database: %w", err)
	}
	defer database.Close()
	logger.Info("Database opened", "path", cfg.Server.DBPath)

	if cfg.Server.ORSAPIKey == "" {
		logger.Warn("No OpenRouteService key; every calculation will fail", "env", config.EnvORSAPIKey)
	}

	srvCfg := server.Config{
		Addr:  cfg.Server.Addr,
		Store: store,
		Geocoder: geo.NewNominatim(geo.NominatimConfig{
			BaseURL:   cfg.Server.NominatimURL,
			UserAgent: cfg.Server.UserAgent,
			Rate:      cfg.Server.NominatimRate,
			Cache:     database,
			Logger:    logger.WithPrefix("nominatim"),
		}),
		Router: geo.NewRouter(geo.RouterConfig{
			BaseURL: cfg.Server.ORSURL,
			APIKey:  cfg.Server.ORSAPIKey,
			Logger:  logger.WithPrefix("ors"),
		}),
		History: database,
		Cache:   database,
		Logger:  logger.WithPrefix("http"),
	}
	if cfg.Server.WeatherAPIKey != "" {
		srvCfg.Weather = geo.NewWeather(geo.WeatherConfig{
			BaseURL: cfg.Server.WeatherURL,
			APIKey:  cfg.Server.WeatherAPIKey,
			Logger:  logger.WithPrefix("weather"),
		})
	} else {
		logger.Info("Weather margin disabled", "env", config.EnvWeatherAPIKey)
	}
	httpSrv := server.New(srvCfg)

	var front sshFrontEnd
	if cfg.Server.SSHAddr != "" {
		sshSrv, err := server.NewSSH(server.SSHConfig{
			Addr:        cfg.Server.SSHAddr,
			HostKeyPath: cfg.Server.HostKeyPath,
			Backend:     api.NewClient(loopbackURL(cfg.Server.Addr), api.WithLogger(logger.WithPrefix("ssh"))),
			DefaultPrep: cfg.Client.DefaultPrep,
			Logger:      logger.WithPrefix("ssh"),
		})
		if err != nil {
			return err
		}
		front = sshSrv
		logger.Info("SSH form enabled", "addr", cfg.Server.SSHAddr)
	}

	// serve returns after the HTTP server has drained, so database.Close
	// runs after the last request.
	err = serve(ctx, httpSrv.Start, front)
	logger.Info("Stopped")
	return err
}

// sshFrontEnd is the part of server.SSHServer that serve drives.
type sshFrontEnd interface {
	Start() error
	Shutdown(ctx context.Context) error
}

// serve runs the HTTP server, and ssh when it is not nil, until ctx is done
// or either fails. It returns once the HTTP server has shut down.
func serve(ctx context.Context, runHTTP func(context.Context) error, ssh sshFrontEnd) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	httpDone := make(chan error, 1)
	go func() {
		httpDone <- runHTTP(ctx)
	}()

	sshDone := make(chan error, 1)
	if ssh != nil {
		go func() {
			sshDone <- ssh.Start()
		}()
	}

	var sshErr error
	select {
	case err := <-httpDone:
		shutdownSSH(ssh)
		return err
	case sshErr = <-sshDone:
	case <-ctx.Done():
	}

	cancel()
	shutdownSSH(ssh)
	if err := <-httpDone; err != nil {
		return err
	}
	return sshErr
}

func shutdownSSH(ssh sshFrontEnd) {
	if ssh == nil {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	ssh.Shutdown(ctx)
}

// loopbackURL is the URL the SSH front end uses to reach this process's own API.
func loopbackURL(addr string) string {
	host, port, err := net.SplitHostPort(addr)
	if err != nil {
		return "http://" + addr
	}
	switch host {
	case "", "0.0.0.0", "::":
		host = "127.0.0.1"
	}
	return "http://" + net.JoinHostPort(host, port)
}
