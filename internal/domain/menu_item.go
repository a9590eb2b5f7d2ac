package domain

import "time"

type MenuItem struct {
	ID          string
	Name        string
	Description string
	Price       float64
	Category    string
	ImageURL    *string
	IsAvailable bool
	IsDeleted   bool
	CreatedAt   time.Time
	UpdatedAt   time.Time
}
