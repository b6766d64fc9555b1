package main

import (
	"github.com/bwmarrin/snowflake"
	"github.com/storelane/storelane/internal/config"
	"github.com/storelane/storelane/internal/migration"
	"github.com/storelane/storelane/internal/observability"
	"github.com/storelane/storelane/internal/server"
	"github.com/storelane/storelane/pkg/db"
	"go.uber.org/fx"
)

func main() {
	app := fx.New(
		config.Module,
		observability.Module,
		fx.Provide(RegisterSnowflake),
		db.Module,
		migration.Module,
		server.Module,
	)
	app.Run()
}

func RegisterSnowflake() *snowflake.Node {
	node, err := snowflake.NewNode(1)
	if err != nil {
		panic(err)
	}
	return node
}
