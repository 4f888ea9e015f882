package wallet

import (
	"github.com/smallbiznis/flightsurety/internal/wallet/repository"
	"github.com/smallbiznis/flightsurety/internal/wallet/service"
	"go.uber.org/fx"
)

var Module = fx.Module("wallet.service",
	fx.Provide(repository.Provide),
	fx.Provide(service.NewService),
)
