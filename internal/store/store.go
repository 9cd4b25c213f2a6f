// Package store implements the itemshop catalog, account, checkout and item creation
// collaborators on top of SQLite.
package store

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	_ "github.com/mattn/go-sqlite3"
	_ "modernc.org/sqlite"

	"github.com/pumped-fn/itemshop"
)

// Driver names registered by the two SQLite drivers.
const (
	DriverCGO  = "sqlite3"
	DriverPure = "sqlite"
)

// Store answers every remote call a session makes except image attachment.
type Store struct {
	db     *sql.DB
	userID string
	now    func() time.Time
}

var (
	_ itemshop.CatalogService  = (*Store)(nil)
	_ itemshop.AccountService  = (*Store)(nil)
	_ itemshop.CheckoutService = (*Store)(nil)
	_ itemshop.ItemCreator     = (*Store)(nil)
)

// New wraps an open database. userID is the user manager checks are made for.
func New(db *sql.DB, userID string) *Store {
	return &Store{db: db, userID: userID, now: time.Now}
}

// Open opens and migrates a SQLite database with the given driver.
func Open(ctx context.Context, driver, dsn string) (*sql.DB, error) {
	db, err := sql.Open(driver, dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	if err := Migrate(ctx, db); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to initialize schema: %w", err)
	}

	return db, nil
}

func Migrate(ctx context.Context, db *sql.DB) error {
	schema := `
	CREATE TABLE IF NOT EXISTS accounts (
		id TEXT PRIMARY KEY,
		name TEXT NOT NULL,
		account_number TEXT NOT NULL DEFAULT '',
		industry TEXT NOT NULL DEFAULT '',
		phone TEXT NOT NULL DEFAULT ''
	);

	CREATE TABLE IF NOT EXISTS users (
		id TEXT PRIMARY KEY,
		name TEXT NOT NULL,
		is_manager INTEGER NOT NULL DEFAULT 0
	);

	CREATE TABLE IF NOT EXISTS record_types (
		id TEXT PRIMARY KEY,
		name TEXT NOT NULL,
		is_default INTEGER NOT NULL DEFAULT 0
	);

	CREATE TABLE IF NOT EXISTS picklist_values (
		record_type_id TEXT NOT NULL,
		field TEXT NOT NULL,
		label TEXT NOT NULL,
		value TEXT NOT NULL,
		sort_order INTEGER NOT NULL,
		PRIMARY KEY (record_type_id, field, value),
		FOREIGN KEY (record_type_id) REFERENCES record_types(id) ON DELETE CASCADE
	);

	CREATE TABLE IF NOT EXISTS items (
		id TEXT PRIMARY KEY,
		name TEXT NOT NULL,
		type TEXT NOT NULL DEFAULT '',
		family TEXT NOT NULL DEFAULT '',
		price REAL NOT NULL DEFAULT 0,
		image_ref TEXT NOT NULL DEFAULT '',
		created_at INTEGER NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_items_type_family
		ON items(type, family);

	CREATE TABLE IF NOT EXISTS purchases (
		id TEXT PRIMARY KEY,
		account_id TEXT NOT NULL,
		created_at INTEGER NOT NULL,
		FOREIGN KEY (account_id) REFERENCES accounts(id)
	);

	CREATE TABLE IF NOT EXISTS purchase_items (
		purchase_id TEXT NOT NULL,
		item_id TEXT NOT NULL,
		price REAL NOT NULL,
		PRIMARY KEY (purchase_id, item_id),
		FOREIGN KEY (purchase_id) REFERENCES purchases(id) ON DELETE CASCADE
	);
	`

	_, err := db.ExecContext(ctx, schema)
	return err
}

func remote(op string, err error) error {
	return &itemshop.RemoteError{Op: op, Err: err}
}

func boolInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
