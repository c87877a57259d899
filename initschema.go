package main

import "context"

type InitSchemaCmd struct{}

func (i *InitSchemaCmd) Run(ctx *Context) error {
	bg := context.Background()
	database, err := ctx.openDatabase(bg)
	if err != nil {
		return err
	}
	defer database.Close()

	if err := database.EnsureSchema(bg); err != nil {
		return err
	}
	ctx.Log.WithField("driver", database.Driver()).Info("apps table ready")
	return nil
}
