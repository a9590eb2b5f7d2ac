package controller

import (
	"context"
	"encoding/json"
	"net/http"

	"canteen/internal/domain"
	"canteen/internal/dto"
	apperrors "canteen/internal/errors"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

type MenuService interface {
	GetItem(ctx context.Context, id string) (*domain.MenuItem, error)
	ListItems(ctx context.Context, category string) ([]domain.MenuItem, error)
}

type MenuController struct {
	service MenuService
	logger  *zap.Logger
}

func NewMenuController(service MenuService, logger *zap.Logger) *MenuController {
	return &MenuController{service: service, logger: logger}
}

func (c *MenuController) List(w http.ResponseWriter, r *http.Request) {
	items, err := c.service.ListItems(r.Context(), r.URL.Query().Get("category"))
	if err != nil {
		c.logger.Error("listing menu items failed", zap.Error(err))
		c.writeJSON(w, http.StatusInternalServerError, map[string]string{
			"error":   "INTERNAL_ERROR",
			"message": "an unexpected error occurred",
		})
		return
	}

	out := make([]dto.MenuItemDTO, 0, len(items))
	for i := range items {
		out = append(out, dto.MenuItemFromDomain(&items[i]))
	}
	c.writeJSON(w, http.StatusOK, map[string]interface{}{"items": out})
}

func (c *MenuController) Get(w http.ResponseWriter, r *http.Request) {
	item, err := c.service.GetItem(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		if _, ok := apperrors.IsNotFoundError(err); ok {
			c.writeJSON(w, http.StatusNotFound, map[string]string{
				"error":   "NOT_FOUND",
				"message": err.Error(),
			})
			return
		}
		c.logger.Error("fetching menu item failed", zap.Error(err))
		c.writeJSON(w, http.StatusInternalServerError, map[string]string{
			"error":   "INTERNAL_ERROR",
			"message": "an unexpected error occurred",
		})
		return
	}

	c.writeJSON(w, http.StatusOK, dto.MenuItemFromDomain(item))
}

func (c *MenuController) writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		c.logger.Error("failed to encode response", zap.Error(err))
	}
}
