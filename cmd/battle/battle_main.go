package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	nethttp "net/http"
	"os/signal"
	"syscall"
	"time"

	"TrenchGame/internal/battle/actors"
	"TrenchGame/internal/battle/game"
	"TrenchGame/internal/battle/interfaces"
	"TrenchGame/internal/shared/logs"
	"TrenchGame/internal/shared/serverconfig"
	transporthttp "TrenchGame/internal/shared/transport/http"
	"TrenchGame/internal/shared/transport/ws"
	"TrenchGame/modules/kit/logx"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

const (
	askTimeout      = 3 * time.Second
	shutdownTimeout = 10 * time.Second
)

var configPath = flag.String("config", "", "config file (default $BATTLE_CONFIG, then configs/conf.yml)")

func main() {
	flag.Parse()

	conf, err := serverconfig.Load(*configPath)
	if err != nil {
		panic(err)
	}
	cfg := conf.Current()
	if err := logs.Init("battle", cfg.Log); err != nil {
		panic(err)
	}
	defer logs.Sync()
	logs.Info("conf", zap.Any("conf", cfg))

	conf.OnChange(func(c serverconfig.Config) {
		logs.SetLevel(c.Log.Level)
		logs.Info("config reloaded", zap.String("log_level", c.Log.Level))
	})

	baseLogger := logx.NewZapLogger(logs.Logger())

	// New battles pick up reloaded rules; running ones keep theirs.
	runtime := actors.NewRuntime(func(id string) (*game.Session, error) {
		return game.New(id, game.Options{
			Rules:  conf.Current().Battle,
			Logger: baseLogger,
		})
	}, baseLogger, askTimeout)
	defer runtime.Shutdown()

	battleModule := interfaces.New(runtime, baseLogger)

	wsRouter := ws.NewRouter(baseLogger)
	wsModules := []ws.Registrar{
		battleModule,
	}
	for _, m := range wsModules {
		m.WsRegister(wsRouter)
	}

	httpServer := transporthttp.NewHttpServer(cfg.BattleServer.Addr(), nil, baseLogger)
	httpModules := []transporthttp.Registrar{
		battleModule,
	}
	for _, m := range httpModules {
		m.HttpRegister(httpServer.Group())
	}

	wsServer := ws.NewServer(wsRouter, baseLogger, cfg.BattleServer.ReadLimit)
	wsServer.OnConnect(func(c ws.WSConn) {
		baseLogger.Info("ws connected", zap.String("conn_id", c.ID()), zap.String("addr", c.Addr()))
	})
	httpServer.Engine().GET("/ws", gin.WrapH(wsServer))

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		logs.Info("battle server listening", zap.String("addr", cfg.BattleServer.Addr()))
		if err := httpServer.Start(); err != nil && !errors.Is(err, nethttp.ErrServerClosed) {
			return fmt.Errorf("battle server start failed: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		logs.Info("shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		return httpServer.Shutdown(shutdownCtx)
	})

	if err := g.Wait(); err != nil {
		logs.Error("battle server exited", zap.Error(err))
	}
}
