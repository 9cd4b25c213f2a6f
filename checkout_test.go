package itemshop

import (
	"context"
	"errors"
	"testing"
	"time"
)

func newTestCheckout(backend *fakeBackend, host *recordingHost, itemIDs ...string) (*Checkout, *Cart) {
	cart := NewCart(staticCatalog(testItems...), WithHost(host))
	for _, id := range itemIDs {
		cart.Add(id)
	}
	return NewCheckout("acc-1", cart, backend, WithHost(host)), cart
}

func TestCheckout_SuccessClearsBeforeNavigation(t *testing.T) {
	backend := newFakeBackend()
	host := &recordingHost{}
	checkout, cart := newTestCheckout(backend, host, "item-2", "item-1")

	cartLenAtNavigate := -1
	host.beforeNavigate = func() { cartLenAtNavigate = cart.Len() }

	result, err := checkout.Submit(context.Background())
	if err != nil {
		t.Fatalf("Submit failed: %v", err)
	}

	if result.PurchaseID != "pur-1" || result.URL != "/purchase/pur-1" {
		t.Errorf("unexpected result: %+v", result)
	}
	if checkout.State() != CheckoutSucceeded {
		t.Errorf("expected succeeded, got %v", checkout.State())
	}
	if cartLenAtNavigate != 0 {
		t.Errorf("expected cart cleared before navigation, had %d lines", cartLenAtNavigate)
	}

	events := host.Events()
	want := []string{"added:item-2", "added:item-1", "close_cart_view", "navigate:/purchase/pur-1"}
	if len(events) != len(want) {
		t.Fatalf("expected %v, got %v", want, events)
	}
	for i := range want {
		if events[i] != want[i] {
			t.Errorf("event %d: expected %s, got %s", i, want[i], events[i])
		}
	}

	if len(backend.submitted) != 1 {
		t.Fatalf("expected 1 submission, got %d", len(backend.submitted))
	}
	if ids := backend.submitted[0]; ids[0] != "item-2" || ids[1] != "item-1" {
		t.Errorf("expected cart order to be submitted, got %v", ids)
	}
}

func TestCheckout_FailurePreservesCart(t *testing.T) {
	backend := newFakeBackend()
	backend.checkoutErr = &RemoteError{Op: "submit", Message: "Account is on credit hold"}
	host := &recordingHost{}
	checkout, cart := newTestCheckout(backend, host, "item-1")

	_, err := checkout.Submit(context.Background())
	if err == nil {
		t.Fatal("expected Submit to fail")
	}

	if checkout.State() != CheckoutFailed {
		t.Errorf("expected failed, got %v", checkout.State())
	}
	if cart.Len() != 1 {
		t.Errorf("expected cart to be preserved, got %d lines", cart.Len())
	}
	for _, ev := range host.Events() {
		if ev == "close_cart_view" {
			t.Error("cart view must stay open after a failed checkout")
		}
	}
	if len(host.checkoutErrors) != 1 || host.checkoutErrors[0] != "Account is on credit hold" {
		t.Errorf("expected server message, got %v", host.checkoutErrors)
	}
	if backend.count("ResolveNavigationTarget") != 0 {
		t.Error("expected no navigation after failure")
	}
	if !errors.Is(checkout.Err(), err) {
		t.Errorf("expected Err to return the failure, got %v", checkout.Err())
	}
}

func TestCheckout_FailureWithoutMessage(t *testing.T) {
	backend := newFakeBackend()
	backend.checkoutErr = &RemoteError{Op: "submit"}
	host := &recordingHost{}
	checkout, _ := newTestCheckout(backend, host, "item-1")

	checkout.Submit(context.Background())

	if len(host.checkoutErrors) != 1 || host.checkoutErrors[0] != "Checkout failed" {
		t.Errorf("expected generic message, got %v", host.checkoutErrors)
	}
}

func TestCheckout_EmptyCart(t *testing.T) {
	backend := newFakeBackend()
	host := &recordingHost{}
	checkout, _ := newTestCheckout(backend, host)

	_, err := checkout.Submit(context.Background())
	if !errors.Is(err, ErrEmptyCart) {
		t.Fatalf("expected ErrEmptyCart, got %v", err)
	}
	if backend.count("SubmitCheckout") != 0 {
		t.Error("expected no backend call for an empty cart")
	}
	if checkout.State() != CheckoutIdle {
		t.Errorf("expected state unchanged, got %v", checkout.State())
	}
	if len(host.checkoutErrors) != 1 {
		t.Errorf("expected the host to be told, got %v", host.checkoutErrors)
	}
}

func TestCheckout_RejectsConcurrentSubmit(t *testing.T) {
	backend := newFakeBackend()
	backend.submitGate = make(chan struct{})
	host := &recordingHost{}
	checkout, _ := newTestCheckout(backend, host, "item-1")

	done := make(chan error, 1)
	go func() {
		_, err := checkout.Submit(context.Background())
		done <- err
	}()

	deadline := time.Now().Add(2 * time.Second)
	for checkout.State() != CheckoutSubmitting && time.Now().Before(deadline) {
		time.Sleep(time.Millisecond)
	}

	if _, err := checkout.Submit(context.Background()); !errors.Is(err, ErrCheckoutInProgress) {
		t.Errorf("expected ErrCheckoutInProgress, got %v", err)
	}

	close(backend.submitGate)
	if err := <-done; err != nil {
		t.Fatalf("first Submit failed: %v", err)
	}
	if backend.count("SubmitCheckout") != 1 {
		t.Errorf("expected exactly one submission, got %d", backend.count("SubmitCheckout"))
	}
}

func TestCheckout_KeepsLinesAddedDuringSubmit(t *testing.T) {
	backend := newFakeBackend()
	backend.submitGate = make(chan struct{})
	host := &recordingHost{}
	checkout, cart := newTestCheckout(backend, host, "item-1")

	done := make(chan error, 1)
	go func() {
		_, err := checkout.Submit(context.Background())
		done <- err
	}()

	deadline := time.Now().Add(2 * time.Second)
	for checkout.State() != CheckoutSubmitting && time.Now().Before(deadline) {
		time.Sleep(time.Millisecond)
	}
	if err := cart.Add("item-2"); err != nil {
		t.Fatalf("Add during submit failed: %v", err)
	}

	close(backend.submitGate)
	if err := <-done; err != nil {
		t.Fatalf("Submit failed: %v", err)
	}

	if len(backend.submitted) != 1 || len(backend.submitted[0]) != 1 || backend.submitted[0][0] != "item-1" {
		t.Errorf("expected only item-1 submitted, got %v", backend.submitted)
	}
	if ids := cart.ItemIDs(); len(ids) != 1 || ids[0] != "item-2" {
		t.Errorf("expected item-2 to stay in the cart, got %v", ids)
	}
}

func TestCheckout_NavigationFailureKeepsSuccess(t *testing.T) {
	backend := newFakeBackend()
	host := &recordingHost{navigateErr: errors.New("router unavailable")}
	checkout, cart := newTestCheckout(backend, host, "item-1")

	result, err := checkout.Submit(context.Background())
	if err == nil {
		t.Fatal("expected navigation error to be returned")
	}
	if result.PurchaseID != "pur-1" {
		t.Errorf("expected purchase id despite navigation failure, got %q", result.PurchaseID)
	}
	if checkout.State() != CheckoutSucceeded {
		t.Errorf("expected succeeded, got %v", checkout.State())
	}
	if cart.Len() != 0 {
		t.Error("expected cart to stay cleared")
	}
	if len(host.checkoutErrors) != 0 {
		t.Errorf("navigation failure is not a checkout failure, got %v", host.checkoutErrors)
	}
}

func TestCheckout_Journal(t *testing.T) {
	backend := newFakeBackend()
	host := &recordingHost{}
	tree := NewExecutionTree(10)
	cart := NewCart(staticCatalog(testItems...))
	cart.Add("item-1")
	checkout := NewCheckout("acc-1", cart, backend, WithHost(host), WithJournal(tree))

	result, err := checkout.Submit(context.Background())
	if err != nil {
		t.Fatalf("Submit failed: %v", err)
	}

	run := tree.GetNode(result.RunID)
	if run == nil {
		t.Fatal("expected the run to be journaled")
	}
	if run.Status() != ExecutionStatusSuccess {
		t.Errorf("expected success, got %v", run.Status())
	}
	if id, _ := PurchaseID().Get(run); id != "pur-1" {
		t.Errorf("expected purchase id tag, got %q", id)
	}

	var steps []string
	for _, child := range tree.GetChildren(run.ID) {
		steps = append(steps, child.Name())
	}
	want := []string{"submit", "close_cart_view", "clear_cart", "navigate"}
	if len(steps) != len(want) {
		t.Fatalf("expected steps %v, got %v", want, steps)
	}
	for i := range want {
		if steps[i] != want[i] {
			t.Errorf("step %d: expected %s, got %s", i, want[i], steps[i])
		}
	}
}

type panickingCheckout struct {
	*fakeBackend
}

func (panickingCheckout) SubmitCheckout(ctx context.Context, accountID string, itemIDs []string) (string, error) {
	panic("connection reset")
}

func TestCheckout_PanicIsAFailure(t *testing.T) {
	host := &recordingHost{}
	cart := NewCart(staticCatalog(testItems...))
	cart.Add("item-1")
	checkout := NewCheckout("acc-1", cart, panickingCheckout{newFakeBackend()}, WithHost(host))

	if _, err := checkout.Submit(context.Background()); err == nil {
		t.Fatal("expected panic to surface as an error")
	}
	if checkout.State() != CheckoutFailed {
		t.Errorf("expected failed, got %v", checkout.State())
	}
	if cart.Len() != 1 {
		t.Error("expected cart to be preserved")
	}
}
