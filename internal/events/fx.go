package events

import (
	"context"
	"strings"

	"github.com/bwmarrin/snowflake"
	"github.com/smallbiznis/flightsurety/internal/config"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

var Module = fx.Module("events",
	fx.Provide(NewHub),
	fx.Provide(provideOutbox),
	fx.Provide(provideDispatcher),
)

func provideOutbox(node *snowflake.Node) *Outbox {
	return NewOutbox(node)
}

type DispatcherParams struct {
	fx.In

	Lifecycle fx.Lifecycle
	Config    config.Config
	Hub       *Hub
	Log       *zap.Logger
}

func provideDispatcher(p DispatcherParams) (*Dispatcher, error) {
	url := strings.TrimSpace(p.Config.NATSURL)
	if url == "" {
		return NewDispatcher(p.Hub, p.Log), nil
	}

	sink, err := ConnectNATS(NATSConfig{
		URL:           url,
		Name:          p.Config.AppName,
		SubjectPrefix: p.Config.NATSSubjectPrefix,
	}, p.Log)
	if err != nil {
		return nil, err
	}
	p.Lifecycle.Append(fx.Hook{
		OnStop: func(context.Context) error {
			return sink.Close()
		},
	})
	p.Log.Info("nats event sink enabled", zap.String("url", url))
	return NewDispatcher(p.Hub, p.Log, sink), nil
}
