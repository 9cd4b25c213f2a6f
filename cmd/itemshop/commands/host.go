package commands

import (
	"context"
	"fmt"
	"io"
	"sync"

	"github.com/pumped-fn/itemshop"
)

// consoleHost prints host notifications as lines on out.
type consoleHost struct {
	mu  sync.Mutex
	out io.Writer

	location string
}

func newConsoleHost(out io.Writer) *consoleHost {
	return &consoleHost{out: out}
}

func (h *consoleHost) printf(format string, args ...any) {
	h.mu.Lock()
	defer h.mu.Unlock()
	fmt.Fprintf(h.out, format+"\n", args...)
}

func (h *consoleHost) OnAddedToCart(item itemshop.Item) {
	h.printf("✓ added %s to cart", item.Name)
}

func (h *consoleHost) OnCartError(message string) {
	h.printf("✗ cart: %s", message)
}

func (h *consoleHost) OnCheckoutFailed(message string) {
	h.printf("✗ checkout: %s", message)
}

func (h *consoleHost) OnItemCreationWarning(message string) {
	h.printf("! item created with a warning: %s", message)
}

func (h *consoleHost) OnQueryError(query string, message string) {
	h.printf("✗ %s: %s", query, message)
}

func (h *consoleHost) OnShowDetails(item itemshop.Item) {
	image := "none"
	if item.HasImage() {
		image = item.ImageRef
	}
	h.printf("%s\n  id:     %s\n  type:   %s\n  family: %s\n  price:  %.2f\n  image:  %s",
		item.Name, item.ID, item.Type, item.Family, item.Price, image)
}

func (h *consoleHost) CloseCartView() {
	h.printf("(cart closed)")
}

func (h *consoleHost) CloseCreationModal() {
	h.printf("(creation form closed)")
}

func (h *consoleHost) Navigate(_ context.Context, url string) error {
	h.mu.Lock()
	h.location = url
	h.mu.Unlock()
	h.printf("→ %s", url)
	return nil
}

func (h *consoleHost) Location() string {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.location
}
