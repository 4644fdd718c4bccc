package main

import (
	"context"
	"flag"
	"math/rand/v2"
	"os/signal"
	"syscall"

	"TrenchGame/internal/battle/bot"
	"TrenchGame/internal/shared/logs"
	"TrenchGame/internal/shared/serverconfig"
	"TrenchGame/modules/kit/logx"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

var (
	url   = flag.String("url", "ws://127.0.0.1:8080/ws", "battle server WebSocket endpoint")
	bots  = flag.Int("bots", 2, "number of concurrent bots; pairs end up in the same battle")
	seed  = flag.Uint64("seed", 0, "random seed, 0 picks one")
	level = flag.String("level", "info", "log level")
)

func main() {
	flag.Parse()
	if err := logs.Init("battlebot", serverconfig.LogConfig{Level: *level}); err != nil {
		panic(err)
	}
	defer logs.Sync()
	log := logx.NewZapLogger(logs.Logger())

	if *seed == 0 {
		*seed = rand.Uint64()
	}
	logs.Info("battlebot starting", zap.String("url", *url), zap.Int("bots", *bots), zap.Uint64("seed", *seed))

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	g, gctx := errgroup.WithContext(ctx)
	for i := range *bots {
		g.Go(func() error {
			l := log.With(zap.Int("bot", i))
			b, err := bot.Dial(gctx, *url, rand.New(rand.NewPCG(*seed, uint64(i))), l)
			if err != nil {
				return err
			}
			defer b.Close()
			res, err := b.Run(gctx)
			if err != nil {
				return err
			}
			l.Info("game over",
				zap.Stringer("team", res.Team),
				zap.Stringer("winner", res.Winner),
				zap.Int("actions", res.Actions),
				zap.Any("rejections", res.Rejections))
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		logs.Error("battlebot failed", zap.Error(err))
	}
}
