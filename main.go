package main

import (
	"context"
	"encoding/json"
	"io"
	"os"

	"github.com/alecthomas/kong"
	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"

	"github.com/sorenmh/infrastructure-shared/soketi-app-api/config"
	"github.com/sorenmh/infrastructure-shared/soketi-app-api/db"
	"github.com/sorenmh/infrastructure-shared/soketi-app-api/logging"
)

// Context is shared by every subcommand.
type Context struct {
	Config *config.Config
	Log    *logrus.Logger
	Out    io.Writer
}

// openDatabase connects using the loaded configuration.
func (c *Context) openDatabase(ctx context.Context) (*db.Database, error) {
	database, err := db.Open(ctx, c.Config.Database)
	if err != nil {
		return nil, err
	}
	c.Log.WithFields(logrus.Fields{
		"driver": database.Driver(),
	}).Debug("database connected")
	return database, nil
}

func (c *Context) printJSON(v interface{}) error {
	enc := json.NewEncoder(c.Out)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

var cli struct {
	Config string `help:"Path to configuration file." default:"/etc/soketi-app-api/config.yaml" env:"CONFIG_PATH" type:"path"`
	Debug  bool   `help:"Enable debug logging."`

	Serve      ServeCmd      `cmd:"" default:"1" help:"Serve the provisioning API."`
	CreateApp  CreateAppCmd  `cmd:"" help:"Register a Soketi app."`
	GetApp     GetAppCmd     `cmd:"" help:"Print a registered Soketi app."`
	InitSchema InitSchemaCmd `cmd:"" help:"Create the apps table if it does not exist."`
}

func main() {
	// A missing .env file is fine.
	_ = godotenv.Load()

	kctx := kong.Parse(&cli,
		kong.Name("soketi-app-api"),
		kong.Description("Provisioning service for Soketi applications."),
	)

	cfg, err := config.Load(cli.Config)
	kctx.FatalIfErrorf(err)
	if cli.Debug {
		cfg.Logging.Level = "debug"
	}

	logger, err := logging.New(cfg.Logging)
	kctx.FatalIfErrorf(err)

	err = kctx.Run(&Context{Config: cfg, Log: logger, Out: os.Stdout})
	kctx.FatalIfErrorf(err)
}
