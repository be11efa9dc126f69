package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"slices"
	"strings"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/ogurasousui/hr-datahub/internal/adapters/http/handler"
	"github.com/ogurasousui/hr-datahub/internal/adapters/mcp"
	"github.com/ogurasousui/hr-datahub/internal/core/query"
	"github.com/ogurasousui/hr-datahub/internal/core/schema"
	"github.com/ogurasousui/hr-datahub/internal/platform/app"
	"github.com/ogurasousui/hr-datahub/internal/platform/config"
	"github.com/ogurasousui/hr-datahub/internal/platform/httpserver"
	"github.com/ogurasousui/hr-datahub/internal/platform/server"
)

// version はビルド時に -ldflags で上書きします。
var version = "dev"

const (
	modeStdio   = "stdio"
	modeMCPHTTP = "mcp-http"
	modeHTTP    = "http"
	modeHTTPS   = "https"
	modeGRPC    = "grpc"
	modeTest    = "test"
)

var modes = []string{modeStdio, modeMCPHTTP, modeHTTP, modeHTTPS, modeGRPC, modeTest}

type serverOptions struct {
	ConfigPath string
	Mode       string
}

func newRootCmd() *cobra.Command {
	var opts serverOptions

	cmd := &cobra.Command{
		Use:           "server",
		Short:         "Serve read-only queries over the HR database",
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, _ []string) error {
			mode, err := parseMode(opts.Mode)
			if err != nil {
				return err
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			rt, err := app.Bootstrap(ctx, effectiveConfigPath(opts.ConfigPath))
			if err != nil {
				return err
			}
			defer rt.Close()

			rt.Logger.Info("starting server", zap.String("mode", mode), zap.String("version", version))
			return run(ctx, cmd, rt, mode)
		},
	}

	cmd.Flags().StringVar(&opts.ConfigPath, "config", "", "path to config file (defaults to CONFIG_PATH env or "+config.DefaultPath+")")
	cmd.Flags().StringVar(&opts.Mode, "mode", modeStdio, "transport mode: "+strings.Join(modes, "|"))
	return cmd
}

func run(ctx context.Context, cmd *cobra.Command, rt *app.Runtime, mode string) error {
	cfg := rt.Config.Server

	switch mode {
	case modeStdio:
		return mcp.NewServer(rt.Query, rt.Logger.Named("mcp"), version).ServeStdio(ctx, os.Stdin, cmd.OutOrStdout())
	case modeMCPHTTP:
		srv := newHTTPServer(rt, false)
		mcp.NewHTTPHandler(mcp.NewServer(rt.Query, rt.Logger.Named("mcp"), version)).Register(srv.App(), "/mcp")
		handler.RegisterRoutes(srv.App(), handler.RouteConfig{Health: handler.NewHealthHandler(rt.Health)})
		return srv.Run(ctx)
	case modeHTTP, modeHTTPS:
		srv := newHTTPServer(rt, mode == modeHTTPS)
		handler.RegisterRoutes(srv.App(), handler.RouteConfig{
			Query:   handler.NewQueryHandler(rt.Query),
			Health:  handler.NewHealthHandler(rt.Health),
			Metrics: rt.Metrics.Handler(),
		})
		return srv.Run(ctx)
	case modeGRPC:
		rt.Logger.Info("grpc server listening", zap.String("addr", cfg.ListenAddr))
		return server.New(cfg.ListenAddr, rt.Query, rt.Logger.Named("grpc")).Run(ctx)
	case modeTest:
		payload, _ := mcp.Execute(ctx, rt.Query, query.Input{Table: schema.TableEmployeeMaster.String(), Limit: 3})
		_, err := fmt.Fprintln(cmd.OutOrStdout(), payload)
		return err
	default:
		return fmt.Errorf("unsupported mode %q", mode)
	}
}

func newHTTPServer(rt *app.Runtime, tls bool) *httpserver.Server {
	cfg := rt.Config.Server
	return httpserver.New(httpserver.Options{
		Addr:            cfg.HTTPAddr,
		CertFile:        cfg.TLSCertFile,
		KeyFile:         cfg.TLSKeyFile,
		ShutdownTimeout: cfg.ShutdownTimeout,
		TLS:             tls,
		Logger:          rt.Logger.Named("http"),
	})
}

func parseMode(raw string) (string, error) {
	mode := strings.ToLower(strings.TrimSpace(raw))
	if mode == "" {
		return modeStdio, nil
	}
	if !slices.Contains(modes, mode) {
		return "", fmt.Errorf("unsupported mode %q (want one of %s)", raw, strings.Join(modes, ", "))
	}
	return mode, nil
}

func effectiveConfigPath(flagValue string) string {
	if flagValue != "" {
		return flagValue
	}
	if env := os.Getenv("CONFIG_PATH"); env != "" {
		return env
	}
	return config.DefaultPath
}

// Execute はルートコマンドを実行します。
func Execute() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err.Error())
		os.Exit(1)
	}
}
