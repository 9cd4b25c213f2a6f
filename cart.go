package itemshop

import (
	"log/slog"
	"sync"
)

// Catalog looks items up in the currently displayed catalog result.
type Catalog interface {
	Lookup(itemID string) (Item, bool)
}

// CatalogFunc adapts a function to Catalog
type CatalogFunc func(itemID string) (Item, bool)

func (f CatalogFunc) Lookup(itemID string) (Item, bool) {
	return f(itemID)
}

// ResultCatalog reads the last good result of an item list query.
func ResultCatalog(items *Controller[[]Item]) Catalog {
	return CatalogFunc(func(itemID string) (Item, bool) {
		list, ok := items.Peek()
		if !ok {
			return Item{}, false
		}
		for _, item := range list {
			if item.ID == itemID {
				return item, true
			}
		}
		return Item{}, false
	})
}

// CartLine is one item held for purchase
type CartLine struct {
	ItemID string
	Item   Item
}

// Cart is an insertion-ordered set of cart lines keyed by item id.
type Cart struct {
	mu      sync.Mutex
	lines   []CartLine
	present map[string]struct{}

	catalog Catalog
	host    Host
	logger  *slog.Logger
}

// NewCart creates an empty cart resolving ids against catalog.
func NewCart(catalog Catalog, opts ...Option) *Cart {
	s := newSettings(opts)
	return &Cart{
		present: make(map[string]struct{}),
		catalog: catalog,
		host:    s.host,
		logger:  s.logger,
	}
}

// Add appends the item unless it is already present. An id missing from the current
// catalog result is reported to the host and leaves the cart unchanged.
func (c *Cart) Add(itemID string) error {
	if itemID == "" {
		c.logger.Error("add to cart called without item id")
		c.host.OnCartError(ErrMissingItemID.Error())
		return ErrMissingItemID
	}

	item, ok := c.catalog.Lookup(itemID)
	if !ok {
		err := &NotFoundError{Entity: "item", ID: itemID}
		c.logger.Error("cannot add item to cart", "item_id", itemID, "error", err)
		c.host.OnCartError(ErrorMessage(err, ""))
		return err
	}

	c.mu.Lock()
	if _, exists := c.present[itemID]; exists {
		c.mu.Unlock()
		c.logger.Debug("item already in cart", "item_id", itemID)
		return nil
	}
	c.present[itemID] = struct{}{}
	c.lines = append(c.lines, CartLine{ItemID: itemID, Item: item})
	c.mu.Unlock()

	c.logger.Info("item added to cart", "item_id", itemID, "name", item.Name)
	c.host.OnAddedToCart(item)
	return nil
}

// Remove drops the line for itemID and reports whether it was present.
func (c *Cart) Remove(itemID string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	if _, exists := c.present[itemID]; !exists {
		return false
	}
	delete(c.present, itemID)
	for i, line := range c.lines {
		if line.ItemID == itemID {
			c.lines = append(c.lines[:i], c.lines[i+1:]...)
			break
		}
	}
	return true
}

// RemoveAll drops the lines for itemIDs and returns how many were present.
// Lines for other items are kept.
func (c *Cart) RemoveAll(itemIDs []string) int {
	c.mu.Lock()
	defer c.mu.Unlock()

	drop := make(map[string]struct{}, len(itemIDs))
	for _, id := range itemIDs {
		if _, exists := c.present[id]; exists {
			drop[id] = struct{}{}
			delete(c.present, id)
		}
	}
	if len(drop) == 0 {
		return 0
	}
	kept := c.lines[:0]
	for _, line := range c.lines {
		if _, gone := drop[line.ItemID]; !gone {
			kept = append(kept, line)
		}
	}
	c.lines = kept
	return len(drop)
}

func (c *Cart) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.lines = nil
	c.present = make(map[string]struct{})
}

// Snapshot returns the lines in insertion order.
func (c *Cart) Snapshot() []CartLine {
	c.mu.Lock()
	defer c.mu.Unlock()

	out := make([]CartLine, len(c.lines))
	copy(out, c.lines)
	return out
}

// ItemIDs returns the item ids in insertion order.
func (c *Cart) ItemIDs() []string {
	c.mu.Lock()
	defer c.mu.Unlock()

	ids := make([]string, len(c.lines))
	for i, line := range c.lines {
		ids[i] = line.ItemID
	}
	return ids
}

func (c *Cart) Contains(itemID string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	_, ok := c.present[itemID]
	return ok
}

func (c *Cart) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.lines)
}

// Total is the sum of line prices.
func (c *Cart) Total() float64 {
	c.mu.Lock()
	defer c.mu.Unlock()

	var total float64
	for _, line := range c.lines {
		total += line.Item.Price
	}
	return total
}
