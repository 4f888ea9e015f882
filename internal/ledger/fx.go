package ledger

import (
	"context"

	"github.com/smallbiznis/flightsurety/internal/ledger/domain"
	"github.com/smallbiznis/flightsurety/internal/ledger/repository"
	"github.com/smallbiznis/flightsurety/internal/ledger/service"
	walletdomain "github.com/smallbiznis/flightsurety/internal/wallet/domain"
	"go.uber.org/fx"
)

var Module = fx.Module("ledger.service",
	fx.Provide(NewSettings),
	fx.Provide(repository.Provide),
	fx.Provide(provideValueTransfer),
	fx.Provide(service.NewService),
	fx.Invoke(registerBootstrap),
)

func provideValueTransfer(w walletdomain.Service) domain.ValueTransfer {
	return w
}

func registerBootstrap(lc fx.Lifecycle, svc domain.Service) {
	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			return svc.Bootstrap(ctx)
		},
	})
}
