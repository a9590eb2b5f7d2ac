package menu

import (
	"database/sql"

	"canteen/internal/menu/controller"
	"canteen/internal/menu/repository"
	"canteen/internal/menu/service"

	"go.uber.org/zap"
)

// NewModule wires the menu read path. The returned service doubles as the
// menu lookup collaborator for the order module.
func NewModule(db *sql.DB, logger *zap.Logger) (*controller.MenuController, *service.MenuService) {
	repo := repository.NewMySQLMenuRepository(db)
	svc := service.NewMenuService(repo)
	ctrl := controller.NewMenuController(svc, logger)
	return ctrl, svc
}
