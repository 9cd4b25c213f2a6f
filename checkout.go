package itemshop

import (
	"context"
	"fmt"
	"sync"
)

// CheckoutState is the lifecycle of a checkout attempt
type CheckoutState int

const (
	CheckoutIdle CheckoutState = iota
	CheckoutSubmitting
	CheckoutSucceeded
	CheckoutFailed
)

func (s CheckoutState) String() string {
	switch s {
	case CheckoutIdle:
		return "idle"
	case CheckoutSubmitting:
		return "submitting"
	case CheckoutSucceeded:
		return "succeeded"
	case CheckoutFailed:
		return "failed"
	default:
		return fmt.Sprintf("checkout_state(%d)", int(s))
	}
}

// checkoutFallback is reported when a failed checkout carries no readable message.
const checkoutFallback = "Checkout failed"

// CheckoutResult describes a successful submission.
type CheckoutResult struct {
	PurchaseID string
	URL        string
	RunID      string
}

// Checkout submits the cart for an account and leads the host to the new purchase record.
type Checkout struct {
	mu         sync.Mutex
	state      CheckoutState
	purchaseID string
	lastErr    error

	accountID string
	cart      *Cart
	service   CheckoutService

	workflow
}

// NewCheckout creates an idle checkout for accountID.
func NewCheckout(accountID string, cart *Cart, service CheckoutService, opts ...Option) *Checkout {
	return &Checkout{
		accountID: accountID,
		cart:      cart,
		service:   service,
		workflow:  newWorkflow(newSettings(opts)),
	}
}

// Submit sends the cart. On success the cart view is closed and the submitted lines are
// removed before navigation starts. Lines added during the submission stay in the cart.
// A navigation failure is returned but the checkout stays succeeded.
// On failure the cart and the view are left untouched and the host is told why.
func (c *Checkout) Submit(ctx context.Context) (CheckoutResult, error) {
	c.mu.Lock()
	if c.state == CheckoutSubmitting {
		c.mu.Unlock()
		return CheckoutResult{}, ErrCheckoutInProgress
	}
	itemIDs := c.cart.ItemIDs()
	if len(itemIDs) == 0 {
		c.mu.Unlock()
		c.logger.Warn("checkout rejected", "account_id", c.accountID, "error", ErrEmptyCart)
		c.host.OnCheckoutFailed(ErrorMessage(ErrEmptyCart, checkoutFallback))
		return CheckoutResult{}, ErrEmptyCart
	}
	c.state = CheckoutSubmitting
	c.mu.Unlock()

	run := c.journal.begin("checkout", nil)
	result := CheckoutResult{RunID: run.ID}

	var purchaseID string
	err := c.step(run, "submit", func() error {
		val, err := c.call(ctx, OpCheckout, "submit_checkout", func(ctx context.Context) (any, error) {
			return c.service.SubmitCheckout(ctx, c.accountID, itemIDs)
		})
		if err != nil {
			return err
		}
		purchaseID, err = SafeTypeAssertion[string](val)
		return err
	})
	if err != nil {
		c.fail(run, err)
		return result, err
	}

	c.mu.Lock()
	c.state = CheckoutSucceeded
	c.purchaseID = purchaseID
	c.lastErr = nil
	c.mu.Unlock()

	result.PurchaseID = purchaseID
	purchaseIDTag.Set(run, purchaseID)
	c.logger.Info("checkout succeeded", "account_id", c.accountID, "purchase_id", purchaseID, "items", len(itemIDs))

	c.step(run, "close_cart_view", func() error {
		c.host.CloseCartView()
		return nil
	})
	c.step(run, "clear_cart", func() error {
		c.cart.RemoveAll(itemIDs)
		return nil
	})

	err = c.step(run, "navigate", func() error {
		val, err := c.call(ctx, OpNavigate, "resolve_navigation_target", func(ctx context.Context) (any, error) {
			return c.service.ResolveNavigationTarget(ctx, purchaseID)
		})
		if err != nil {
			return err
		}
		url, err := SafeTypeAssertion[string](val)
		if err != nil {
			return err
		}
		result.URL = url
		return c.host.Navigate(ctx, url)
	})
	run.finish(nil)
	if err != nil {
		c.logger.Error("navigation to purchase failed", "purchase_id", purchaseID, "error", err)
		return result, fmt.Errorf("navigating to purchase %s: %w", purchaseID, err)
	}
	return result, nil
}

func (c *Checkout) fail(run *ExecutionNode, err error) {
	c.mu.Lock()
	c.state = CheckoutFailed
	c.lastErr = err
	c.mu.Unlock()

	msg := ErrorMessage(err, checkoutFallback)
	messageTag.Set(run, msg)
	run.finish(err)

	c.logger.Error("checkout failed", "account_id", c.accountID, "error", err)
	c.host.OnCheckoutFailed(msg)
}

func (c *Checkout) State() CheckoutState {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// PurchaseID returns the id created by the last successful submission.
func (c *Checkout) PurchaseID() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.purchaseID
}

// Err returns the error of the last failed submission.
func (c *Checkout) Err() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.lastErr
}
