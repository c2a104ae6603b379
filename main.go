package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/alecthomas/kong"

	"collectarena/config"
	"collectarena/server"
)

var CLI struct {
	Debug bool `help:"Enable debug logging."`

	Serve struct {
		Config string `help:"YAML configuration file." type:"existingfile" short:"c"`
		Addr   string `help:"Listen address, e.g. :3000 (overrides config and PORT)."`
	} `cmd:"" default:"withargs" help:"Start the arena server."`

	Config struct{} `cmd:"" help:"Write the default configuration to standard output."`
}

func main() {
	ctx := kong.Parse(&CLI,
		kong.Name("collectarena"),
		kong.Description("authoritative multiplayer collectible arena server"),
		kong.UsageOnError(),
	)

	var err error
	switch ctx.Command() {
	case "config":
		err = printConfig()
	default:
		err = serve(CLI.Serve.Config, CLI.Serve.Addr, CLI.Debug)
	}
	if err != nil {
		fmt.Fprintf(os.Stderr, "%s\n", err)
		os.Exit(1)
	}
}

func printConfig() error {
	b, err := config.Default().Marshal()
	if err != nil {
		return err
	}
	_, err = os.Stdout.Write(b)
	return err
}

// serve 启动 HTTP + WebSocket 服务，收到 SIGINT/SIGTERM 后优雅退出
func serve(path, addr string, debug bool) error {
	cfg, err := config.Load(path)
	if err != nil {
		return err
	}
	if addr != "" {
		cfg.Server.Addr = addr
	}
	if err := server.InitLogger(cfg.Log, debug); err != nil {
		return err
	}
	defer server.SyncLogger()

	var journal *server.Journal
	if cfg.Journal.Dir != "" {
		journal = server.NewJournal(cfg.Journal.Dir)
		defer func() {
			if err := journal.Close(); err != nil {
				server.Log.Warnf("journal close: %v", err)
			}
		}()
	}

	app := server.NewServer(cfg, journal)
	srv := &http.Server{Addr: cfg.Server.Addr, Handler: app.Handler()}

	errCh := make(chan error, 1)
	go func() {
		server.Log.Infof("arena listening on %s (%dx%d, maxSpeed=%d)",
			cfg.Server.Addr, cfg.Arena.Width, cfg.Arena.Height, cfg.Game.MaxSpeed)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	select {
	case err := <-errCh:
		app.Close()
		return fmt.Errorf("listen: %w", err)
	case <-quit:
	}

	server.Log.Info("Shutting down...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	// 已升级的 WebSocket 不受 Shutdown 管理，由房间停止时关闭
	app.Close()
	return srv.Shutdown(shutdownCtx)
}
