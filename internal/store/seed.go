package store

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/pumped-fn/itemshop"
)

type User struct {
	ID        string
	Name      string
	IsManager bool
}

type RecordType struct {
	ID        string
	Name      string
	IsDefault bool
	// Picklists maps a field name to its options in display order.
	Picklists map[string][]itemshop.PicklistOption
}

type SeedData struct {
	Accounts    []itemshop.Account
	Users       []User
	RecordTypes []RecordType
	Items       []itemshop.Item
}

// DemoData is a small catalog for local runs.
func DemoData() SeedData {
	return SeedData{
		Accounts: []itemshop.Account{
			{ID: "acc-demo", Name: "Acme Cycling", AccountNumber: "CD-1001", Industry: "Retail", Phone: "555-0100"},
		},
		Users: []User{
			{ID: "manager", Name: "Store Manager", IsManager: true},
			{ID: "clerk", Name: "Shop Clerk"},
		},
		RecordTypes: []RecordType{{
			ID:        "rt-bikes",
			Name:      "Bikes and Gear",
			IsDefault: true,
			Picklists: map[string][]itemshop.PicklistOption{
				itemshop.FieldType: {
					{Label: "Road", Value: "Road"},
					{Label: "Gravel", Value: "Gravel"},
					{Label: "Safety", Value: "Safety"},
				},
				itemshop.FieldFamily: {
					{Label: "Bikes", Value: "Bikes"},
					{Label: "Gear", Value: "Gear"},
				},
			},
		}},
		Items: []itemshop.Item{
			{ID: "item-road-bike", Name: "Road Bike", Type: "Road", Family: "Bikes", Price: 1200},
			{ID: "item-gravel-bike", Name: "Gravel Bike", Type: "Gravel", Family: "Bikes", Price: 1500},
			{ID: "item-helmet", Name: "Helmet", Type: "Safety", Family: "Gear", Price: 80},
			{ID: "item-lights", Name: "Bike Lights", Type: "Safety", Family: "Gear", Price: 45},
		},
	}
}

// Seed inserts data, skipping rows whose keys already exist.
func (s *Store) Seed(ctx context.Context, data SeedData) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()

	for _, a := range data.Accounts {
		if _, err := tx.ExecContext(ctx,
			`INSERT OR IGNORE INTO accounts (id, name, account_number, industry, phone) VALUES (?, ?, ?, ?, ?)`,
			a.ID, a.Name, a.AccountNumber, a.Industry, a.Phone); err != nil {
			return fmt.Errorf("seeding account %s: %w", a.ID, err)
		}
	}
	for _, u := range data.Users {
		if _, err := tx.ExecContext(ctx,
			`INSERT OR IGNORE INTO users (id, name, is_manager) VALUES (?, ?, ?)`,
			u.ID, u.Name, boolInt(u.IsManager)); err != nil {
			return fmt.Errorf("seeding user %s: %w", u.ID, err)
		}
	}
	for _, rt := range data.RecordTypes {
		if err := seedRecordType(ctx, tx, rt); err != nil {
			return err
		}
	}
	for _, it := range data.Items {
		if _, err := tx.ExecContext(ctx,
			`INSERT OR IGNORE INTO items (id, name, type, family, price, image_ref, created_at) VALUES (?, ?, ?, ?, ?, ?, ?)`,
			it.ID, it.Name, it.Type, it.Family, it.Price, it.ImageRef, s.now().Unix()); err != nil {
			return fmt.Errorf("seeding item %s: %w", it.ID, err)
		}
	}
	return tx.Commit()
}

func seedRecordType(ctx context.Context, tx *sql.Tx, rt RecordType) error {
	if _, err := tx.ExecContext(ctx,
		`INSERT OR IGNORE INTO record_types (id, name, is_default) VALUES (?, ?, ?)`,
		rt.ID, rt.Name, boolInt(rt.IsDefault)); err != nil {
		return fmt.Errorf("seeding record type %s: %w", rt.ID, err)
	}
	for field, options := range rt.Picklists {
		for i, o := range options {
			if _, err := tx.ExecContext(ctx,
				`INSERT OR IGNORE INTO picklist_values (record_type_id, field, label, value, sort_order) VALUES (?, ?, ?, ?, ?)`,
				rt.ID, field, o.Label, o.Value, i); err != nil {
				return fmt.Errorf("seeding picklist %s/%s: %w", rt.ID, field, err)
			}
		}
	}
	return nil
}
