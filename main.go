package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"

	"github.com/gofiber/fiber/v2/log"
	"github.com/hyperfocist/ValleyTalk/app/client/llm"
	"github.com/hyperfocist/ValleyTalk/app/config"
	"github.com/hyperfocist/ValleyTalk/app/service/api"
	"github.com/hyperfocist/ValleyTalk/app/service/bank"
	"github.com/hyperfocist/ValleyTalk/app/service/character"
	"github.com/hyperfocist/ValleyTalk/app/service/engine"
	"github.com/hyperfocist/ValleyTalk/app/service/generate"
	"github.com/hyperfocist/ValleyTalk/app/service/normalize"
	"github.com/hyperfocist/ValleyTalk/app/service/prompt"
	"github.com/hyperfocist/ValleyTalk/app/service/queue"
	"github.com/hyperfocist/ValleyTalk/app/util/mylog"
	"github.com/samber/do"
)

func main() {
	di := do.New()
	defer di.Shutdown()
	defer log.Info("Waiting for services to finish...")

	mylog.Preinit()

	appCtx, cancel := context.WithCancel(context.Background())
	defer cancel()
	do.ProvideValue(di, appCtx)

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("config load failed: %v", err)
	}
	do.ProvideValue(di, cfg)

	if err = mylog.Init(cfg); err != nil {
		log.Fatalf("logging init failed: %v", err)
	}

	do.Provide(di, llm.New)
	do.Provide(di, bank.New)
	do.Provide(di, character.New)
	do.Provide(di, normalize.New)
	do.Provide(di, prompt.New)
	do.Provide(di, generate.New)
	do.Provide(di, queue.New)
	do.Provide(di, engine.New)
	do.Provide(di, api.New)

	if err = do.MustInvoke[*character.Service](di).Preload(appCtx); err != nil {
		log.Fatalf("character preload failed: %v", err)
	}

	slog.Info("Service started")

	go func() {
		sigint := make(chan os.Signal, 1)
		signal.Notify(sigint, os.Interrupt)
		<-sigint

		log.Info("Shutting down...")

		cancel()
	}()

	go do.MustInvoke[*engine.Service](di).Run(appCtx)
	go do.MustInvoke[*api.Service](di).Run(appCtx)

	<-appCtx.Done()
}
