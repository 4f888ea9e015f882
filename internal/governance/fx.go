package governance

import (
	"github.com/smallbiznis/flightsurety/internal/governance/service"
	"github.com/smallbiznis/flightsurety/internal/governance/tally"
	"go.uber.org/fx"
)

var Module = fx.Module("governance.service",
	fx.Provide(tally.New),
	fx.Provide(service.NewService),
)
