package itemshop

import "context"

// Host is the UI that owns the screen. Notifications are fire-and-forget.
type Host interface {
	OnAddedToCart(item Item)
	OnCartError(message string)
	OnCheckoutFailed(message string)
	OnItemCreationWarning(message string)
	OnQueryError(query string, message string)
	OnShowDetails(item Item)

	CloseCartView()
	CloseCreationModal()
	Navigate(ctx context.Context, url string) error
}

// BaseHost provides no-op implementations for Host methods
type BaseHost struct{}

func (BaseHost) OnAddedToCart(Item)                     {}
func (BaseHost) OnCartError(string)                     {}
func (BaseHost) OnCheckoutFailed(string)                {}
func (BaseHost) OnItemCreationWarning(string)           {}
func (BaseHost) OnQueryError(string, string)            {}
func (BaseHost) OnShowDetails(Item)                     {}
func (BaseHost) CloseCartView()                         {}
func (BaseHost) CloseCreationModal()                    {}
func (BaseHost) Navigate(context.Context, string) error { return nil }
