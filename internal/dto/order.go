package dto

import (
	"time"

	"canteen/internal/domain"
)

type CreateOrderLine struct {
	MenuItemID string `json:"menuItemId"`
	Quantity   int    `json:"quantity"`
}

type CreateOrderRequest struct {
	CustomerName        string            `json:"customerName"`
	Items               []CreateOrderLine `json:"items"`
	SpecialInstructions *string           `json:"specialInstructions,omitempty"`
}

type UpdateStatusRequest struct {
	Status string `json:"status"`
}

type OrderLineDTO struct {
	MenuItemID string  `json:"menuItemId"`
	Name       string  `json:"name"`
	Quantity   int     `json:"quantity"`
	UnitPrice  float64 `json:"unitPrice"`
	Subtotal   float64 `json:"subtotal"`
}

// OrderDTO is the full order snapshot. The same shape is returned by the
// HTTP surface and carried in realtime event payloads, so clients can
// always replace local state wholesale instead of applying deltas.
type OrderDTO struct {
	ID                  string         `json:"id"`
	OrderNumber         string         `json:"orderNumber"`
	CustomerRef         string         `json:"customerRef"`
	CustomerName        string         `json:"customerName"`
	Items               []OrderLineDTO `json:"items"`
	Subtotal            float64        `json:"subtotal"`
	ServiceFee          float64        `json:"serviceFee"`
	Total               float64        `json:"total"`
	Status              string         `json:"status"`
	PaymentStatus       string         `json:"paymentStatus"`
	PaymentMethod       *string        `json:"paymentMethod,omitempty"`
	SpecialInstructions *string        `json:"specialInstructions,omitempty"`
	EstimatedReadyAt    time.Time      `json:"estimatedReadyAt"`
	CompletedAt         *time.Time     `json:"completedAt,omitempty"`
	IsActive            bool           `json:"isActive"`
	CreatedAt           time.Time      `json:"createdAt"`
	UpdatedAt           time.Time      `json:"updatedAt"`
}

func OrderFromDomain(o *domain.Order) OrderDTO {
	items := make([]OrderLineDTO, len(o.Lines))
	for i, line := range o.Lines {
		items[i] = OrderLineDTO{
			MenuItemID: line.MenuItemID,
			Name:       line.Name,
			Quantity:   line.Quantity,
			UnitPrice:  line.UnitPrice,
			Subtotal:   line.Subtotal,
		}
	}

	return OrderDTO{
		ID:                  o.ID,
		OrderNumber:         o.OrderNumber,
		CustomerRef:         o.CustomerRef,
		CustomerName:        o.CustomerName,
		Items:               items,
		Subtotal:            o.Subtotal,
		ServiceFee:          o.ServiceFee,
		Total:               o.Total,
		Status:              o.Status,
		PaymentStatus:       o.PaymentStatus,
		PaymentMethod:       o.PaymentMethod,
		SpecialInstructions: o.SpecialInstructions,
		EstimatedReadyAt:    o.EstimatedReadyAt,
		CompletedAt:         o.CompletedAt,
		IsActive:            o.IsActive,
		CreatedAt:           o.CreatedAt,
		UpdatedAt:           o.UpdatedAt,
	}
}

type Pagination struct {
	Page  int `json:"page"`
	Limit int `json:"limit"`
	Total int `json:"total"`
	Pages int `json:"pages"`
}

type ListOrdersResponse struct {
	Orders     []OrderDTO `json:"orders"`
	Pagination Pagination `json:"pagination"`
}
