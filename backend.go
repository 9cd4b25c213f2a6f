package itemshop

import "context"

// CatalogService answers catalog queries.
type CatalogService interface {
	FetchItems(ctx context.Context, filter ItemFilter) ([]Item, error)
	FetchItemsCount(ctx context.Context, filter ItemFilter) (int, error)
	FetchItemMetadata(ctx context.Context) (ItemMetadata, error)
	FetchPicklistValues(ctx context.Context, recordTypeID, fieldName string) ([]PicklistOption, error)
}

// AccountService answers questions about the account and the current user.
type AccountService interface {
	FetchAccount(ctx context.Context, accountID string) (Account, error)
	FetchIsManager(ctx context.Context) (bool, error)
}

// CheckoutService turns a cart into a purchase record.
type CheckoutService interface {
	SubmitCheckout(ctx context.Context, accountID string, itemIDs []string) (string, error)
	ResolveNavigationTarget(ctx context.Context, purchaseID string) (string, error)
}

// ImageService attaches a previously uploaded image to an item.
type ImageService interface {
	AttachItemImage(ctx context.Context, itemID string) error
}

// ItemCreator creates catalog items. Only managers may call it.
type ItemCreator interface {
	CreateItem(ctx context.Context, item NewItem) (string, error)
}

// Backend bundles every remote collaborator a Session needs.
type Backend interface {
	CatalogService
	AccountService
	CheckoutService
	ImageService
	ItemCreator
}
