package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"go.uber.org/zap"

	"github.com/loomoretail/loomopos/config"
	"github.com/loomoretail/loomopos/internal/app"
	"github.com/loomoretail/loomopos/internal/posapi"
	"github.com/loomoretail/loomopos/internal/webserver"
)

var (
	h        = flag.Bool("h", false, "help usage")
	conffile = flag.String("c", "", "config yaml file")
	initdb   = flag.Bool("initdb", false, "drop and recreate the database schema")
)

func main() {
	flag.Parse()
	if *h {
		fmt.Fprintf(os.Stderr, "Usage: loomopos [-c loomopos.yml] [-initdb]\n")
		flag.PrintDefaults()
		return
	}

	cfg := config.LoadConfig(*conffile)
	_ = os.MkdirAll(cfg.System.Workdir, 0o755)

	application := app.NewApplication(cfg)
	application.Init(cfg)
	defer application.Release()

	if *initdb {
		application.InitDb()
		zap.L().Info("database initialized")
		return
	}

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	application.StartBackgroundJobs(ctx)

	server := webserver.Init(application)
	posapi.RegisterRoutes(application)

	if err := server.Start(ctx); err != nil {
		zap.L().Fatal("webserver failed", zap.Error(err))
	}
}
