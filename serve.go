package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/sorenmh/infrastructure-shared/soketi-app-api/api"
	"github.com/sorenmh/infrastructure-shared/soketi-app-api/db"
	"github.com/sorenmh/infrastructure-shared/soketi-app-api/metrics"
	"github.com/sorenmh/infrastructure-shared/soketi-app-api/provision"
)

type ServeCmd struct {
	Port int `help:"Override the listen port."`
}

func (s *ServeCmd) Run(ctx *Context) error {
	if s.Port > 0 {
		ctx.Config.Server.Port = s.Port
	}
	if ctx.Config.UsesDefaultCredentials() {
		ctx.Log.Warn("API_USERNAME/API_PASSWORD not set, using default basic auth credentials")
	}

	sigCtx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	database, err := ctx.openDatabase(sigCtx)
	if err != nil {
		return err
	}
	defer database.Close()

	m := metrics.New()
	svc := provision.NewService(db.NewAppRepository(database), ctx.Log, m)
	server := api.NewServer(ctx.Config, database, svc, ctx.Log, m)

	ctx.Log.WithField("version", api.Version).Info("starting Soketi app API")
	return server.Run(sigCtx)
}
