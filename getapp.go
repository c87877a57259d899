package main

import (
	"context"
	"fmt"

	"github.com/sorenmh/infrastructure-shared/soketi-app-api/db"
	"github.com/sorenmh/infrastructure-shared/soketi-app-api/metrics"
	"github.com/sorenmh/infrastructure-shared/soketi-app-api/provision"
)

type GetAppCmd struct {
	ID string `arg:"" help:"App id to look up."`
}

func (g *GetAppCmd) Run(ctx *Context) error {
	bg := context.Background()
	database, err := ctx.openDatabase(bg)
	if err != nil {
		return err
	}
	defer database.Close()

	svc := provision.NewService(db.NewAppRepository(database), ctx.Log, metrics.New())
	app, err := svc.Find(bg, g.ID)
	if err != nil {
		return err
	}
	if app == nil {
		return fmt.Errorf("app %q not found", g.ID)
	}

	return ctx.printJSON(app)
}
