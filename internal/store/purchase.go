package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/oklog/ulid/v2"

	"github.com/pumped-fn/itemshop"
)

// SubmitCheckout records a purchase of itemIDs for accountID in one transaction and
// returns the purchase id. Items missing from the catalog fail the whole purchase with
// one message per missing item.
func (s *Store) SubmitCheckout(ctx context.Context, accountID string, itemIDs []string) (string, error) {
	const op = "submit checkout"
	if len(itemIDs) == 0 {
		return "", &itemshop.RemoteError{Op: op, Message: "A purchase needs at least one item"}
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return "", remote(op, err)
	}
	defer func() { _ = tx.Rollback() }()

	var exists int
	err = tx.QueryRowContext(ctx, `SELECT 1 FROM accounts WHERE id = ?`, accountID).Scan(&exists)
	if errors.Is(err, sql.ErrNoRows) {
		return "", &itemshop.RemoteError{Op: op, Message: fmt.Sprintf("Account %s does not exist", accountID)}
	}
	if err != nil {
		return "", remote(op, err)
	}

	prices := make([]float64, len(itemIDs))
	var missing []string
	for i, id := range itemIDs {
		err := tx.QueryRowContext(ctx, `SELECT price FROM items WHERE id = ?`, id).Scan(&prices[i])
		if errors.Is(err, sql.ErrNoRows) {
			missing = append(missing, fmt.Sprintf("Item %s is no longer available", id))
			continue
		}
		if err != nil {
			return "", remote(op, err)
		}
	}
	if len(missing) > 0 {
		return "", &itemshop.RemoteError{Op: op, Messages: missing}
	}

	purchaseID := ulid.Make().String()
	if _, err := tx.ExecContext(ctx, `INSERT INTO purchases (id, account_id, created_at) VALUES (?, ?, ?)`,
		purchaseID, accountID, s.now().Unix()); err != nil {
		return "", remote(op, err)
	}
	for i, id := range itemIDs {
		if _, err := tx.ExecContext(ctx, `INSERT INTO purchase_items (purchase_id, item_id, price) VALUES (?, ?, ?)`,
			purchaseID, id, prices[i]); err != nil {
			return "", remote(op, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return "", remote(op, err)
	}
	return purchaseID, nil
}

// ResolveNavigationTarget returns the location of a purchase record.
func (s *Store) ResolveNavigationTarget(ctx context.Context, purchaseID string) (string, error) {
	var id string
	err := s.db.QueryRowContext(ctx, `SELECT id FROM purchases WHERE id = ?`, purchaseID).Scan(&id)
	if errors.Is(err, sql.ErrNoRows) {
		return "", &itemshop.NotFoundError{Entity: "purchase", ID: purchaseID}
	}
	if err != nil {
		return "", remote("resolve navigation target", err)
	}
	return "/purchases/" + id, nil
}

// PurchaseItems lists the item ids recorded for a purchase.
func (s *Store) PurchaseItems(ctx context.Context, purchaseID string) ([]string, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT item_id FROM purchase_items WHERE purchase_id = ? ORDER BY item_id`, purchaseID)
	if err != nil {
		return nil, remote("purchase items", err)
	}
	defer rows.Close()

	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, remote("purchase items", err)
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}
