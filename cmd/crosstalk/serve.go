package main

import (
	"context"
	"encoding/json"
	"errors"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/crosstalk-rpc/crosstalk/internal/config"
	xerrors "github.com/crosstalk-rpc/crosstalk/internal/errors"
	"github.com/crosstalk-rpc/crosstalk/pkg/channel"
	"github.com/crosstalk-rpc/crosstalk/pkg/middleware"
	"github.com/crosstalk-rpc/crosstalk/pkg/server"
)

func serveCmd() *cobra.Command {
	var (
		addr       string
		configPath string
		tlsEnabled bool
	)

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start an RPC server",
		Long: `Start a WebSocket RPC server.

The server reads crosstalk.json from the working directory when
present; flags override file values. It exposes /ws for RPC,
/healthz, and Prometheus metrics on /metrics.

Built-in demo methods: echo, time, and the ping every channel
answers.

Examples:
  crosstalk serve
  crosstalk serve --addr=:9090
  crosstalk serve --tls`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServe(addr, configPath, tlsEnabled)
		},
	}

	cmd.Flags().StringVarP(&addr, "addr", "a", "", "Address to listen on (default from crosstalk.json)")
	cmd.Flags().StringVarP(&configPath, "config", "c", "", "Path to crosstalk.json")
	cmd.Flags().BoolVar(&tlsEnabled, "tls", false, "Serve TLS, self-signed unless certificates are configured")

	return cmd
}

func runServe(addr, configPath string, tlsEnabled bool) error {
	cfg, err := loadConfig(configPath)
	if err != nil {
		return err
	}

	srvConfig := cfg.ServerConfig()
	if addr != "" {
		srvConfig.Addr = addr
	}
	if tlsEnabled && srvConfig.TLS == nil {
		srvConfig.TLS = &server.TLSConfig{Enabled: true}
	}

	srvConfig.Routes = channel.Routes{
		"echo": func(ctx context.Context, req *channel.Request) (any, error) {
			var v any
			if err := json.Unmarshal(req.Payload, &v); err != nil {
				return nil, err
			}
			return v, nil
		},
		"time": func(ctx context.Context, req *channel.Request) (any, error) {
			return time.Now().Format(time.RFC3339), nil
		},
	}
	srvConfig.Interceptors = []channel.Interceptor{
		middleware.Prometheus(),
		middleware.OpenTelemetry(),
	}

	srv := server.New(srvConfig)
	if err := srv.Start(); err != nil {
		return xerrors.FromError(err, "E103")
	}

	printBanner()
	scheme := "ws"
	if srvConfig.TLS != nil && srvConfig.TLS.Enabled {
		scheme = "wss"
	}
	success("listening on %s://%s/ws", scheme, srv.Addr())
	info("metrics at http://%s/metrics", srv.Addr())

	// Wait for shutdown signal
	sig := make(chan os.Signal, 1)
	signal.Notify(sig, syscall.SIGINT, syscall.SIGTERM)
	<-sig

	info("shutting down")
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	return srv.Stop(ctx)
}

// loadConfig reads crosstalk.json, tolerating its absence when no path
// was given explicitly.
func loadConfig(path string) (*config.Config, error) {
	if path != "" {
		return config.LoadFile(path)
	}
	cfg, err := config.Load(".")
	if err != nil {
		var coded *xerrors.Error
		if errors.As(err, &coded) && coded.Code == "E121" {
			return config.New(), nil
		}
		return nil, err
	}
	return cfg, nil
}
