package itemshop

import (
	"context"
	"fmt"
	"strings"
	"sync"
)

var testItems = []Item{
	{ID: "item-1", Name: "Road Bike", Type: "Road", Family: "Bikes", Price: 1200},
	{ID: "item-2", Name: "Helmet", Type: "Safety", Family: "Gear", Price: 80},
	{ID: "item-3", Name: "Gravel Bike", Type: "Gravel", Family: "Bikes", Price: 1500},
}

// fakeBackend is an in-memory Backend counting every call
type fakeBackend struct {
	mu sync.Mutex

	items     []Item
	metadata  ItemMetadata
	picklists map[string][]PicklistOption
	manager   bool
	account   Account

	metadataGate chan struct{}
	submitGate   chan struct{}

	checkoutErr error
	purchaseID  string
	navURL      string
	navErr      error
	attachErr   error
	createErr   error
	createdID   string

	calls         map[string]int
	itemFilters   []ItemFilter
	picklistCalls []string
	submitted     [][]string
	attached      []string
}

func newFakeBackend() *fakeBackend {
	return &fakeBackend{
		items:    testItems,
		metadata: ItemMetadata{DefaultRecordTypeID: "rt-1"},
		picklists: map[string][]PicklistOption{
			FieldType:   {{Label: "Road", Value: "Road"}, {Label: "Gravel", Value: "Gravel"}, {Label: "Safety", Value: "Safety"}},
			FieldFamily: {{Label: "Bikes", Value: "Bikes"}, {Label: "Gear", Value: "Gear"}},
		},
		manager:    true,
		account:    Account{ID: "acc-1", Name: "Acme", AccountNumber: "A-001"},
		purchaseID: "pur-1",
		navURL:     "/purchase/pur-1",
		createdID:  "item-new",
		calls:      make(map[string]int),
	}
}

func (b *fakeBackend) record(op string) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.calls[op]++
}

func (b *fakeBackend) count(op string) int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.calls[op]
}

func matches(item Item, f ItemFilter) bool {
	if f.Type != "" && item.Type != f.Type {
		return false
	}
	if f.Family != "" && item.Family != f.Family {
		return false
	}
	if f.SearchTerm != "" && !strings.Contains(strings.ToLower(item.Name), strings.ToLower(f.SearchTerm)) {
		return false
	}
	return true
}

func (b *fakeBackend) filter(f ItemFilter) []Item {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.itemFilters = append(b.itemFilters, f)

	var out []Item
	for _, item := range b.items {
		if matches(item, f) {
			out = append(out, item)
		}
	}
	return out
}

func (b *fakeBackend) FetchItems(ctx context.Context, f ItemFilter) ([]Item, error) {
	b.record("FetchItems")
	return b.filter(f), nil
}

func (b *fakeBackend) FetchItemsCount(ctx context.Context, f ItemFilter) (int, error) {
	b.record("FetchItemsCount")
	return len(b.filter(f)), nil
}

func (b *fakeBackend) FetchItemMetadata(ctx context.Context) (ItemMetadata, error) {
	b.record("FetchItemMetadata")
	if b.metadataGate != nil {
		select {
		case <-b.metadataGate:
		case <-ctx.Done():
			return ItemMetadata{}, ctx.Err()
		}
	}
	return b.metadata, nil
}

func (b *fakeBackend) FetchPicklistValues(ctx context.Context, recordTypeID, field string) ([]PicklistOption, error) {
	b.record("FetchPicklistValues")
	b.mu.Lock()
	defer b.mu.Unlock()
	b.picklistCalls = append(b.picklistCalls, recordTypeID+"/"+field)
	return b.picklists[field], nil
}

func (b *fakeBackend) FetchAccount(ctx context.Context, accountID string) (Account, error) {
	b.record("FetchAccount")
	if accountID != b.account.ID {
		return Account{}, &NotFoundError{Entity: "account", ID: accountID}
	}
	return b.account, nil
}

func (b *fakeBackend) FetchIsManager(ctx context.Context) (bool, error) {
	b.record("FetchIsManager")
	return b.manager, nil
}

func (b *fakeBackend) SubmitCheckout(ctx context.Context, accountID string, itemIDs []string) (string, error) {
	b.record("SubmitCheckout")
	b.mu.Lock()
	b.submitted = append(b.submitted, append([]string(nil), itemIDs...))
	gate := b.submitGate
	b.mu.Unlock()

	if gate != nil {
		<-gate
	}
	if b.checkoutErr != nil {
		return "", b.checkoutErr
	}
	return b.purchaseID, nil
}

func (b *fakeBackend) ResolveNavigationTarget(ctx context.Context, purchaseID string) (string, error) {
	b.record("ResolveNavigationTarget")
	if b.navErr != nil {
		return "", b.navErr
	}
	return b.navURL, nil
}

func (b *fakeBackend) AttachItemImage(ctx context.Context, itemID string) error {
	b.record("AttachItemImage")
	b.mu.Lock()
	b.attached = append(b.attached, itemID)
	b.mu.Unlock()
	return b.attachErr
}

func (b *fakeBackend) CreateItem(ctx context.Context, item NewItem) (string, error) {
	b.record("CreateItem")
	if b.createErr != nil {
		return "", b.createErr
	}
	return b.createdID, nil
}

// recordingHost records every notification in order
type recordingHost struct {
	mu sync.Mutex

	events         []string
	added          []Item
	cartErrors     []string
	checkoutErrors []string
	warnings       []string
	queryErrors    []string
	details        []Item

	navigateErr    error
	beforeNavigate func()
}

func (h *recordingHost) log(format string, args ...any) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.events = append(h.events, fmt.Sprintf(format, args...))
}

func (h *recordingHost) Events() []string {
	h.mu.Lock()
	defer h.mu.Unlock()
	return append([]string(nil), h.events...)
}

func (h *recordingHost) OnAddedToCart(item Item) {
	h.log("added:%s", item.ID)
	h.mu.Lock()
	h.added = append(h.added, item)
	h.mu.Unlock()
}

func (h *recordingHost) OnCartError(message string) {
	h.log("cart_error:%s", message)
	h.mu.Lock()
	h.cartErrors = append(h.cartErrors, message)
	h.mu.Unlock()
}

func (h *recordingHost) OnCheckoutFailed(message string) {
	h.log("checkout_failed:%s", message)
	h.mu.Lock()
	h.checkoutErrors = append(h.checkoutErrors, message)
	h.mu.Unlock()
}

func (h *recordingHost) OnItemCreationWarning(message string) {
	h.log("warning:%s", message)
	h.mu.Lock()
	h.warnings = append(h.warnings, message)
	h.mu.Unlock()
}

func (h *recordingHost) OnQueryError(query string, message string) {
	h.log("query_error:%s:%s", query, message)
	h.mu.Lock()
	h.queryErrors = append(h.queryErrors, query)
	h.mu.Unlock()
}

func (h *recordingHost) OnShowDetails(item Item) {
	h.log("details:%s", item.ID)
	h.mu.Lock()
	h.details = append(h.details, item)
	h.mu.Unlock()
}

func (h *recordingHost) CloseCartView() {
	h.log("close_cart_view")
}

func (h *recordingHost) CloseCreationModal() {
	h.log("close_creation_modal")
}

func (h *recordingHost) Navigate(ctx context.Context, url string) error {
	if h.beforeNavigate != nil {
		h.beforeNavigate()
	}
	h.log("navigate:%s", url)
	return h.navigateErr
}

func staticCatalog(items ...Item) Catalog {
	return CatalogFunc(func(itemID string) (Item, bool) {
		for _, item := range items {
			if item.ID == itemID {
				return item, true
			}
		}
		return Item{}, false
	})
}
