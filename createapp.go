package main

import (
	"context"
	"errors"
	"fmt"

	"github.com/sorenmh/infrastructure-shared/soketi-app-api/db"
	"github.com/sorenmh/infrastructure-shared/soketi-app-api/metrics"
	"github.com/sorenmh/infrastructure-shared/soketi-app-api/models"
	"github.com/sorenmh/infrastructure-shared/soketi-app-api/provision"
)

type CreateAppCmd struct {
	ID                   string `required:"" help:"App id (letters, numbers, underscores and hyphens)."`
	Key                  string `required:"" help:"App key."`
	Secret               string `required:"" help:"App secret."`
	MaxConnections       int    `default:"100" help:"Maximum concurrent connections."`
	EnableClientMessages int    `default:"1" help:"Allow client events (0 or 1)."`
}

func (c *CreateAppCmd) Run(ctx *Context) error {
	bg := context.Background()
	database, err := ctx.openDatabase(bg)
	if err != nil {
		return err
	}
	defer database.Close()

	svc := provision.NewService(db.NewAppRepository(database), ctx.Log, metrics.New())
	app, err := svc.CreateRequest(bg, &models.CreateAppRequest{
		ID:                   c.ID,
		Key:                  c.Key,
		Secret:               c.Secret,
		MaxConnections:       c.MaxConnections,
		EnableClientMessages: c.EnableClientMessages,
	})
	if errors.Is(err, provision.ErrConflict) {
		return fmt.Errorf("app id %q already exists", c.ID)
	}
	if err != nil {
		return err
	}

	return ctx.printJSON(app)
}
