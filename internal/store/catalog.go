package store

import (
	"context"
	"database/sql"
	"errors"
	"strings"

	"github.com/google/uuid"

	"github.com/pumped-fn/itemshop"
)

const itemFilterClause = `
	WHERE (? = '' OR name LIKE '%' || ? || '%' ESCAPE '\')
	  AND (? = '' OR type = ?)
	  AND (? = '' OR family = ?)
`

// likeEscaper makes LIKE wildcards in a search term match literally.
var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

func filterArgs(f itemshop.ItemFilter) []any {
	term := strings.TrimSpace(f.SearchTerm)
	return []any{term, likeEscaper.Replace(term), f.Type, f.Type, f.Family, f.Family}
}

// FetchItems returns items matching every non-empty filter field, ordered by name.
// The search term matches item names case-insensitively.
func (s *Store) FetchItems(ctx context.Context, f itemshop.ItemFilter) ([]itemshop.Item, error) {
	query := `SELECT id, name, type, family, price, image_ref FROM items` + itemFilterClause + `ORDER BY name, id`
	rows, err := s.db.QueryContext(ctx, query, filterArgs(f)...)
	if err != nil {
		return nil, remote("fetch items", err)
	}
	defer rows.Close()

	items := []itemshop.Item{}
	for rows.Next() {
		var it itemshop.Item
		if err := rows.Scan(&it.ID, &it.Name, &it.Type, &it.Family, &it.Price, &it.ImageRef); err != nil {
			return nil, remote("fetch items", err)
		}
		items = append(items, it)
	}
	if err := rows.Err(); err != nil {
		return nil, remote("fetch items", err)
	}
	return items, nil
}

func (s *Store) FetchItemsCount(ctx context.Context, f itemshop.ItemFilter) (int, error) {
	var n int
	err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM items`+itemFilterClause, filterArgs(f)...).Scan(&n)
	if err != nil {
		return 0, remote("fetch items count", err)
	}
	return n, nil
}

func (s *Store) FetchItemMetadata(ctx context.Context) (itemshop.ItemMetadata, error) {
	var id string
	err := s.db.QueryRowContext(ctx, `SELECT id FROM record_types WHERE is_default = 1 ORDER BY id LIMIT 1`).Scan(&id)
	if errors.Is(err, sql.ErrNoRows) {
		return itemshop.ItemMetadata{}, &itemshop.RemoteError{Op: "fetch item metadata", Message: "No default record type is configured"}
	}
	if err != nil {
		return itemshop.ItemMetadata{}, remote("fetch item metadata", err)
	}
	return itemshop.ItemMetadata{DefaultRecordTypeID: id}, nil
}

func (s *Store) FetchPicklistValues(ctx context.Context, recordTypeID, fieldName string) ([]itemshop.PicklistOption, error) {
	if recordTypeID == "" || fieldName == "" {
		return nil, &itemshop.RemoteError{Op: "fetch picklist values", Message: "Record type and field are required"}
	}
	query := `SELECT label, value FROM picklist_values WHERE record_type_id = ? AND field = ? ORDER BY sort_order, value`
	rows, err := s.db.QueryContext(ctx, query, recordTypeID, fieldName)
	if err != nil {
		return nil, remote("fetch picklist values", err)
	}
	defer rows.Close()

	options := []itemshop.PicklistOption{}
	for rows.Next() {
		var o itemshop.PicklistOption
		if err := rows.Scan(&o.Label, &o.Value); err != nil {
			return nil, remote("fetch picklist values", err)
		}
		options = append(options, o)
	}
	if err := rows.Err(); err != nil {
		return nil, remote("fetch picklist values", err)
	}
	return options, nil
}

// CreateItem validates and inserts a new item. Validation failures come back as a
// RemoteError carrying one message per problem.
func (s *Store) CreateItem(ctx context.Context, item itemshop.NewItem) (string, error) {
	var problems []string
	if strings.TrimSpace(item.Name) == "" {
		problems = append(problems, "Name is required")
	}
	if item.Price < 0 {
		problems = append(problems, "Price must not be negative")
	}
	if len(problems) > 0 {
		return "", &itemshop.RemoteError{Op: "create item", Messages: problems}
	}

	id := uuid.NewString()
	query := `INSERT INTO items (id, name, type, family, price, image_ref, created_at) VALUES (?, ?, ?, ?, ?, '', ?)`
	_, err := s.db.ExecContext(ctx, query, id, strings.TrimSpace(item.Name), item.Type, item.Family, item.Price, s.now().Unix())
	if err != nil {
		return "", remote("create item", err)
	}
	return id, nil
}

// Item loads one item by id.
func (s *Store) Item(ctx context.Context, id string) (itemshop.Item, error) {
	var it itemshop.Item
	query := `SELECT id, name, type, family, price, image_ref FROM items WHERE id = ?`
	err := s.db.QueryRowContext(ctx, query, id).Scan(&it.ID, &it.Name, &it.Type, &it.Family, &it.Price, &it.ImageRef)
	if errors.Is(err, sql.ErrNoRows) {
		return itemshop.Item{}, &itemshop.NotFoundError{Entity: "item", ID: id}
	}
	if err != nil {
		return itemshop.Item{}, remote("load item", err)
	}
	return it, nil
}

// SetImageRef records where an item's image is stored.
func (s *Store) SetImageRef(ctx context.Context, itemID, ref string) error {
	result, err := s.db.ExecContext(ctx, `UPDATE items SET image_ref = ? WHERE id = ?`, ref, itemID)
	if err != nil {
		return remote("set image ref", err)
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return remote("set image ref", err)
	}
	if rows == 0 {
		return &itemshop.NotFoundError{Entity: "item", ID: itemID}
	}
	return nil
}
