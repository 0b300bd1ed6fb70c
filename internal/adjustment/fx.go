package adjustment

import (
	"github.com/smallbiznis/repairdesk/internal/adjustment/repository"
	"github.com/smallbiznis/repairdesk/internal/adjustment/service"
	"go.uber.org/fx"
)

var Module = fx.Module("adjustment.service",
	fx.Provide(repository.Provide),
	fx.Provide(service.New),
)
