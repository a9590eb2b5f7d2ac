package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"canteen/internal/domain"
	apperrors "canteen/internal/errors"

	"github.com/go-sql-driver/mysql"
)

const duplicateEntryErrNo = 1062

type ListFilter struct {
	Status      string
	CustomerRef string
	Page        int
	Limit       int
}

type MySQLOrderRepository struct {
	db *sql.DB
}

func NewMySQLOrderRepository(db *sql.DB) *MySQLOrderRepository {
	return &MySQLOrderRepository{db: db}
}

// Create persists the order and its lines in one transaction. A duplicate
// order_number surfaces as a ConflictError so the caller can regenerate
// the number and retry.
func (r *MySQLOrderRepository) Create(ctx context.Context, order *domain.Order) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	_, err = tx.ExecContext(ctx, `
		INSERT INTO orders
			(id, order_number, customer_ref, customer_name, subtotal, service_fee, total,
			 status, payment_status, special_instructions, estimated_ready_at, is_active,
			 created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, 1, NOW(), NOW())
	`,
		order.ID, order.OrderNumber, order.CustomerRef, order.CustomerName,
		order.Subtotal, order.ServiceFee, order.Total,
		order.Status, order.PaymentStatus, order.SpecialInstructions, order.EstimatedReadyAt,
	)
	if err != nil {
		var mysqlErr *mysql.MySQLError
		if errors.As(err, &mysqlErr) && mysqlErr.Number == duplicateEntryErrNo {
			return apperrors.NewConflictError(fmt.Sprintf("order number %s already exists", order.OrderNumber))
		}
		return fmt.Errorf("inserting order: %w", err)
	}

	for _, line := range order.Lines {
		_, err = tx.ExecContext(ctx, `
			INSERT INTO order_lines (order_id, menu_item_id, name, quantity, unit_price, subtotal)
			VALUES (?, ?, ?, ?, ?, ?)
		`, order.ID, line.MenuItemID, line.Name, line.Quantity, line.UnitPrice, line.Subtotal)
		if err != nil {
			return fmt.Errorf("inserting order line for item %s: %w", line.MenuItemID, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("committing order: %w", err)
	}

	return nil
}

// TransitionStatus applies a compare-and-set status update: the row only
// changes if its stored status still equals expectedCurrent, so of two
// racing callers at most one wins. Entering the terminal-success state
// stamps completed_at in the same statement.
func (r *MySQLOrderRepository) TransitionStatus(ctx context.Context, id, expectedCurrent, next string) (*domain.Order, error) {
	res, err := r.db.ExecContext(ctx, `
		UPDATE orders
		SET status = ?,
		    completed_at = IF(?, NOW(), completed_at),
		    updated_at = NOW()
		WHERE id = ? AND status = ? AND is_active = 1
	`, next, next == domain.OrderStatusCompleted, id, expectedCurrent)
	if err != nil {
		return nil, fmt.Errorf("updating order status: %w", err)
	}

	rowsAffected, err := res.RowsAffected()
	if err != nil {
		return nil, fmt.Errorf("getting rows affected: %w", err)
	}

	if rowsAffected == 0 {
		// Lost the race or the order does not exist; look again to tell
		// the two apart.
		if _, err := r.FindByIDOrNumber(ctx, id); err != nil {
			return nil, err
		}
		return nil, apperrors.NewConflictError(fmt.Sprintf("order %s is no longer in status %s", id, expectedCurrent))
	}

	return r.FindByIDOrNumber(ctx, id)
}

const orderColumns = `
	id, order_number, customer_ref, customer_name, subtotal, service_fee, total,
	status, payment_status, payment_method, special_instructions,
	estimated_ready_at, completed_at, is_active, created_at, updated_at`

// FindByIDOrNumber looks an active order up by its opaque id or its
// human-readable order number.
func (r *MySQLOrderRepository) FindByIDOrNumber(ctx context.Context, token string) (*domain.Order, error) {
	query := fmt.Sprintf(`
		SELECT %s
		FROM orders
		WHERE (id = ? OR order_number = ?) AND is_active = 1
	`, orderColumns)

	order, err := r.scanOrder(r.db.QueryRowContext(ctx, query, token, token))
	if err == sql.ErrNoRows {
		return nil, apperrors.NewNotFoundError(fmt.Sprintf("order %s not found", token))
	}
	if err != nil {
		return nil, fmt.Errorf("querying order by token: %w", err)
	}

	if err := r.loadLines(ctx, []*domain.Order{order}); err != nil {
		return nil, err
	}
	return order, nil
}

// FindLatestActive returns the most recently created active order. This is
// the tracking fallback for a client that lost its reference; it is
// best-effort only and ambiguous as soon as more than one customer exists.
func (r *MySQLOrderRepository) FindLatestActive(ctx context.Context) (*domain.Order, error) {
	query := fmt.Sprintf(`
		SELECT %s
		FROM orders
		WHERE is_active = 1
		ORDER BY created_at DESC, order_number DESC
		LIMIT 1
	`, orderColumns)

	order, err := r.scanOrder(r.db.QueryRowContext(ctx, query))
	if err == sql.ErrNoRows {
		return nil, apperrors.NewNotFoundError("no active orders")
	}
	if err != nil {
		return nil, fmt.Errorf("querying latest active order: %w", err)
	}

	if err := r.loadLines(ctx, []*domain.Order{order}); err != nil {
		return nil, err
	}
	return order, nil
}

// List returns a page of active orders, newest first, plus the total
// matching count for pagination metadata.
func (r *MySQLOrderRepository) List(ctx context.Context, filter ListFilter) ([]*domain.Order, int, error) {
	where := "is_active = 1"
	args := []interface{}{}
	if filter.Status != "" {
		where += " AND status = ?"
		args = append(args, filter.Status)
	}
	if filter.CustomerRef != "" {
		where += " AND customer_ref = ?"
		args = append(args, filter.CustomerRef)
	}

	var total int
	countQuery := "SELECT COUNT(*) FROM orders WHERE " + where
	if err := r.db.QueryRowContext(ctx, countQuery, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("counting orders: %w", err)
	}

	query := fmt.Sprintf(`
		SELECT %s
		FROM orders
		WHERE %s
		ORDER BY created_at DESC, order_number DESC
		LIMIT ? OFFSET ?
	`, orderColumns, where)
	args = append(args, filter.Limit, (filter.Page-1)*filter.Limit)

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("querying orders: %w", err)
	}
	defer rows.Close()

	var orders []*domain.Order
	for rows.Next() {
		order, err := r.scanOrder(rows)
		if err != nil {
			return nil, 0, fmt.Errorf("scanning order row: %w", err)
		}
		orders = append(orders, order)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("iterating order rows: %w", err)
	}

	if err := r.loadLines(ctx, orders); err != nil {
		return nil, 0, err
	}

	return orders, total, nil
}

// Deactivate soft-deletes an order. Orders are never physically removed.
func (r *MySQLOrderRepository) Deactivate(ctx context.Context, id string) error {
	res, err := r.db.ExecContext(ctx, `
		UPDATE orders SET is_active = 0, updated_at = NOW() WHERE id = ?
	`, id)
	if err != nil {
		return fmt.Errorf("deactivating order: %w", err)
	}
	rowsAffected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("getting rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return apperrors.NewNotFoundError(fmt.Sprintf("order %s not found", id))
	}
	return nil
}

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func (r *MySQLOrderRepository) scanOrder(row rowScanner) (*domain.Order, error) {
	var o domain.Order
	err := row.Scan(
		&o.ID, &o.OrderNumber, &o.CustomerRef, &o.CustomerName,
		&o.Subtotal, &o.ServiceFee, &o.Total,
		&o.Status, &o.PaymentStatus, &o.PaymentMethod, &o.SpecialInstructions,
		&o.EstimatedReadyAt, &o.CompletedAt, &o.IsActive, &o.CreatedAt, &o.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &o, nil
}

func (r *MySQLOrderRepository) loadLines(ctx context.Context, orders []*domain.Order) error {
	if len(orders) == 0 {
		return nil
	}

	byID := make(map[string]*domain.Order, len(orders))
	placeholders := make([]string, len(orders))
	args := make([]interface{}, len(orders))
	for i, order := range orders {
		byID[order.ID] = order
		placeholders[i] = "?"
		args[i] = order.ID
	}

	query := fmt.Sprintf(`
		SELECT id, order_id, menu_item_id, name, quantity, unit_price, subtotal
		FROM order_lines
		WHERE order_id IN (%s)
		ORDER BY id
	`, strings.Join(placeholders, ", "))

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("querying order lines: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var line domain.OrderLine
		err := rows.Scan(&line.ID, &line.OrderID, &line.MenuItemID, &line.Name,
			&line.Quantity, &line.UnitPrice, &line.Subtotal)
		if err != nil {
			return fmt.Errorf("scanning order line row: %w", err)
		}
		if order, ok := byID[line.OrderID]; ok {
			order.Lines = append(order.Lines, line)
		}
	}
	return rows.Err()
}
