package main

import (
	"github.com/bwmarrin/snowflake"
	"github.com/constructia/billing/internal/clock"
	"github.com/constructia/billing/internal/config"
	"github.com/constructia/billing/internal/logger"
	"github.com/constructia/billing/internal/migration"
	"github.com/constructia/billing/internal/server"
	"github.com/constructia/billing/pkg/db"
	"go.uber.org/fx"
)

func main() {
	app := fx.New(
		config.Module,
		logger.Module,
		fx.Provide(RegisterSnowflake),
		db.Module,
		clock.Module,
		migration.Module,
		server.Module,
	)
	app.Run()
}

func RegisterSnowflake(cfg config.Config) *snowflake.Node {
	node, err := snowflake.NewNode(cfg.SnowflakeNode)
	if err != nil {
		panic(err)
	}
	return node
}
