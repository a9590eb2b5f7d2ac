package dto

import "canteen/internal/domain"

type MenuItemDTO struct {
	ID          string  `json:"id"`
	Name        string  `json:"name"`
	Description string  `json:"description"`
	Price       float64 `json:"price"`
	Category    string  `json:"category"`
	ImageURL    *string `json:"imageUrl,omitempty"`
	IsAvailable bool    `json:"isAvailable"`
}

func MenuItemFromDomain(m *domain.MenuItem) MenuItemDTO {
	return MenuItemDTO{
		ID:          m.ID,
		Name:        m.Name,
		Description: m.Description,
		Price:       m.Price,
		Category:    m.Category,
		ImageURL:    m.ImageURL,
		IsAvailable: m.IsAvailable,
	}
}
