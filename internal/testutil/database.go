package testutil

import (
	"database/sql"
	"fmt"
	"testing"

	_ "github.com/go-sql-driver/mysql"
)

// SetupTestDB opens the integration-test database. Expects a MySQL
// instance at localhost:3306 with a database named 'canteen_test';
// tests are skipped when it is not reachable.
func SetupTestDB(t *testing.T) *sql.DB {
	dsn := "root:@tcp(localhost:3306)/canteen_test?parseTime=true"
	db, err := sql.Open("mysql", dsn)
	if err != nil {
		t.Fatalf("failed to open test database: %v", err)
	}

	err = db.Ping()
	if err != nil {
		t.Skipf("test database not available: %v", err)
	}

	return db
}

// CleanupTestDB truncates the test tables and closes the handle.
func CleanupTestDB(t *testing.T, db *sql.DB) {
	if db == nil {
		return
	}

	tables := []string{"order_lines", "orders", "order_counters", "menu_items"}
	for _, table := range tables {
		_, err := db.Exec(fmt.Sprintf("DELETE FROM %s", table))
		if err != nil {
			t.Logf("failed to clean table %s: %v", table, err)
		}
	}

	db.Close()
}

// SetupTestTables creates the schema the tests need.
func SetupTestTables(t *testing.T, db *sql.DB) {
	createMenuItemsTable := `
	CREATE TABLE IF NOT EXISTS menu_items (
		id VARCHAR(36) NOT NULL PRIMARY KEY,
		name VARCHAR(150) NOT NULL,
		description VARCHAR(500) NOT NULL DEFAULT '',
		price DECIMAL(10,2) NOT NULL,
		category VARCHAR(100) NOT NULL DEFAULT '',
		image_url VARCHAR(255),
		is_available TINYINT(1) NOT NULL DEFAULT 1,
		is_deleted TINYINT(1) NOT NULL DEFAULT 0,
		created_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
		updated_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP ON UPDATE CURRENT_TIMESTAMP,
		INDEX idx_category (category)
	)`

	createOrdersTable := `
	CREATE TABLE IF NOT EXISTS orders (
		id CHAR(36) NOT NULL PRIMARY KEY,
		order_number VARCHAR(16) NOT NULL UNIQUE,
		customer_ref VARCHAR(36) NOT NULL,
		customer_name VARCHAR(100) NOT NULL,
		subtotal DECIMAL(10,2) NOT NULL DEFAULT 0.00,
		service_fee DECIMAL(10,2) NOT NULL DEFAULT 0.00,
		total DECIMAL(10,2) NOT NULL DEFAULT 0.00,
		status VARCHAR(16) NOT NULL DEFAULT 'placed',
		payment_status VARCHAR(16) NOT NULL DEFAULT 'unpaid',
		payment_method VARCHAR(16),
		special_instructions VARCHAR(500),
		estimated_ready_at DATETIME NOT NULL,
		completed_at DATETIME,
		is_active TINYINT(1) NOT NULL DEFAULT 1,
		created_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
		updated_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP ON UPDATE CURRENT_TIMESTAMP,
		INDEX idx_customer (customer_ref),
		INDEX idx_status (status)
	)`

	createOrderLinesTable := `
	CREATE TABLE IF NOT EXISTS order_lines (
		id INT UNSIGNED NOT NULL AUTO_INCREMENT PRIMARY KEY,
		order_id CHAR(36) NOT NULL,
		menu_item_id VARCHAR(36) NOT NULL,
		name VARCHAR(150) NOT NULL,
		quantity INT NOT NULL DEFAULT 1,
		unit_price DECIMAL(10,2) NOT NULL,
		subtotal DECIMAL(10,2) NOT NULL,
		FOREIGN KEY (order_id) REFERENCES orders(id) ON DELETE CASCADE,
		INDEX idx_order (order_id)
	)`

	createOrderCountersTable := `
	CREATE TABLE IF NOT EXISTS order_counters (
		name VARCHAR(32) NOT NULL PRIMARY KEY,
		value BIGINT NOT NULL DEFAULT 0
	)`

	tables := []struct {
		name  string
		query string
	}{
		{"menu_items", createMenuItemsTable},
		{"orders", createOrdersTable},
		{"order_lines", createOrderLinesTable},
		{"order_counters", createOrderCountersTable},
	}

	for _, tbl := range tables {
		_, err := db.Exec(tbl.query)
		if err != nil {
			t.Logf("failed to create table %s: %v", tbl.name, err)
		}
	}
}
