package repository

import (
	"context"
	"database/sql"
	"fmt"

	"canteen/internal/domain"
	"canteen/internal/errors"
)

type MySQLMenuRepository struct {
	db *sql.DB
}

func NewMySQLMenuRepository(db *sql.DB) *MySQLMenuRepository {
	return &MySQLMenuRepository{db: db}
}

func (r *MySQLMenuRepository) FindByID(ctx context.Context, id string) (*domain.MenuItem, error) {
	query := `
		SELECT id, name, description, price, category, image_url,
		       is_available, is_deleted, created_at, updated_at
		FROM menu_items
		WHERE id = ? AND is_deleted = 0
	`

	var item domain.MenuItem
	err := r.db.QueryRowContext(ctx, query, id).Scan(
		&item.ID, &item.Name, &item.Description, &item.Price, &item.Category,
		&item.ImageURL, &item.IsAvailable, &item.IsDeleted,
		&item.CreatedAt, &item.UpdatedAt,
	)

	if err == sql.ErrNoRows {
		return nil, errors.NewNotFoundError(fmt.Sprintf("menu item %s not found", id))
	}
	if err != nil {
		return nil, fmt.Errorf("querying menu item by id: %w", err)
	}

	return &item, nil
}

func (r *MySQLMenuRepository) List(ctx context.Context, category string, availableOnly bool) ([]domain.MenuItem, error) {
	query := `
		SELECT id, name, description, price, category, image_url,
		       is_available, is_deleted, created_at, updated_at
		FROM menu_items
		WHERE is_deleted = 0
	`
	args := []interface{}{}
	if availableOnly {
		query += " AND is_available = 1"
	}
	if category != "" {
		query += " AND category = ?"
		args = append(args, category)
	}
	query += " ORDER BY category, name"

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("querying menu items: %w", err)
	}
	defer rows.Close()

	var items []domain.MenuItem
	for rows.Next() {
		var item domain.MenuItem
		err := rows.Scan(
			&item.ID, &item.Name, &item.Description, &item.Price, &item.Category,
			&item.ImageURL, &item.IsAvailable, &item.IsDeleted,
			&item.CreatedAt, &item.UpdatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("scanning menu item row: %w", err)
		}
		items = append(items, item)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating menu item rows: %w", err)
	}

	return items, nil
}
