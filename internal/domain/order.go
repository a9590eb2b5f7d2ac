package domain

import "time"

type Order struct {
	ID                  string
	OrderNumber         string
	CustomerRef         string
	CustomerName        string
	Lines               []OrderLine
	Subtotal            float64
	ServiceFee          float64
	Total               float64
	Status              string
	PaymentStatus       string
	PaymentMethod       *string
	SpecialInstructions *string
	EstimatedReadyAt    time.Time
	CompletedAt         *time.Time
	IsActive            bool
	CreatedAt           time.Time
	UpdatedAt           time.Time
}

type OrderLine struct {
	ID         uint
	OrderID    string
	MenuItemID string
	Name       string
	Quantity   int
	UnitPrice  float64
	Subtotal   float64
}

const (
	PaymentStatusUnpaid = "unpaid"
	PaymentStatusPaid   = "paid"
)
