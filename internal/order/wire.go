package order

import (
	"database/sql"

	"canteen/internal/config"
	"canteen/internal/order/controller"
	"canteen/internal/order/number"
	"canteen/internal/order/repository"
	"canteen/internal/order/service"

	"go.uber.org/zap"
)

// NewModule wires the order workflow. The menu lookup and the event
// publisher are injected rather than constructed here: the hub in
// particular is built once per process and passed down, never fetched
// from ambient state.
func NewModule(
	db *sql.DB,
	cfg *config.Config,
	menu service.MenuLookup,
	publisher service.Publisher,
	logger *zap.Logger,
) *controller.OrderController {
	repo := repository.NewMySQLOrderRepository(db)
	gen := number.NewGenerator(db, cfg.Order.NumberPrefix, logger)

	svc := service.NewOrderService(repo, menu, gen, publisher, cfg.Order, logger)

	return controller.NewOrderController(svc, logger)
}
