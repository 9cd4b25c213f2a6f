package store

import (
	"context"
	"database/sql"
	"errors"

	"github.com/pumped-fn/itemshop"
)

func (s *Store) FetchAccount(ctx context.Context, accountID string) (itemshop.Account, error) {
	var a itemshop.Account
	query := `SELECT id, name, account_number, industry, phone FROM accounts WHERE id = ?`
	err := s.db.QueryRowContext(ctx, query, accountID).Scan(&a.ID, &a.Name, &a.AccountNumber, &a.Industry, &a.Phone)
	if errors.Is(err, sql.ErrNoRows) {
		return itemshop.Account{}, &itemshop.NotFoundError{Entity: "account", ID: accountID}
	}
	if err != nil {
		return itemshop.Account{}, remote("fetch account", err)
	}
	return a, nil
}

// FetchIsManager reports whether the store's user may create items. Unknown users are not managers.
func (s *Store) FetchIsManager(ctx context.Context) (bool, error) {
	var manager int
	err := s.db.QueryRowContext(ctx, `SELECT is_manager FROM users WHERE id = ?`, s.userID).Scan(&manager)
	if errors.Is(err, sql.ErrNoRows) {
		return false, nil
	}
	if err != nil {
		return false, remote("fetch is manager", err)
	}
	return manager != 0, nil
}
