package main

import (
	"github.com/bwmarrin/snowflake"
	"github.com/smallbiznis/flightsurety/internal/cache"
	"github.com/smallbiznis/flightsurety/internal/clock"
	"github.com/smallbiznis/flightsurety/internal/config"
	"github.com/smallbiznis/flightsurety/internal/migration"
	"github.com/smallbiznis/flightsurety/internal/observability"
	"github.com/smallbiznis/flightsurety/internal/sequencer"
	"github.com/smallbiznis/flightsurety/internal/server"
	"github.com/smallbiznis/flightsurety/pkg/db"
	"go.uber.org/fx"
)

func main() {
	app := fx.New(
		// Core infrastructure
		config.Module,
		observability.Module,
		fx.Provide(RegisterSnowflake),
		db.Module,
		cache.Module,
		clock.Module,
		sequencer.Module,

		// Schema before the store bootstraps on start
		migration.Module,

		// Store, governance and the HTTP surface
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
