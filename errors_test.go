package itemshop

import (
	"errors"
	"fmt"
	"testing"
)

func TestErrorMessage(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		fallback string
		want     string
	}{
		{"nil error", nil, "", "Unknown error"},
		{"nil error custom fallback", nil, "Checkout failed", "Checkout failed"},
		{"structured message wins", &RemoteError{Message: "first", Messages: []string{"second"}}, "", "first"},
		{"message list", &RemoteError{Messages: []string{"a", "b"}}, "", "a, b"},
		{"blank list entries dropped", &RemoteError{Messages: []string{" ", "b"}}, "", "b"},
		{"cause text", &RemoteError{Err: errors.New("dial tcp: refused")}, "", "dial tcp: refused"},
		{"empty remote error", &RemoteError{}, "Checkout failed", "Checkout failed"},
		{"wrapped remote error", fmt.Errorf("submit: %w", &RemoteError{Message: "hold"}), "", "hold"},
		{"plain error", errors.New("boom"), "", "boom"},
		{"empty plain error", errors.New(""), "", "Unknown error"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := ErrorMessage(tt.err, tt.fallback); got != tt.want {
				t.Errorf("expected %q, got %q", tt.want, got)
			}
		})
	}
}

func TestRemoteError(t *testing.T) {
	cause := errors.New("503")
	err := &RemoteError{Op: "submit_checkout", Err: cause}

	if err.Error() != "submit_checkout: 503" {
		t.Errorf("unexpected error text %q", err.Error())
	}
	if !errors.Is(err, cause) {
		t.Error("expected RemoteError to unwrap to its cause")
	}
}

func TestFetchError(t *testing.T) {
	cause := &NotFoundError{Entity: "account", ID: "acc-9"}
	err := CreateFetchError("account", 7, cause, "fetch")

	var notFound *NotFoundError
	if !errors.As(err, &notFound) {
		t.Fatal("expected FetchError to unwrap to NotFoundError")
	}
	want := "fetch error in query account (token 7) during fetch: account acc-9 not found"
	if err.Error() != want {
		t.Errorf("expected %q, got %q", want, err.Error())
	}
}

func TestSafeTypeAssertion(t *testing.T) {
	if v, err := SafeTypeAssertion[int](42); err != nil || v != 42 {
		t.Errorf("expected 42, got %v (%v)", v, err)
	}
	if _, err := SafeTypeAssertion[string](42); err == nil {
		t.Error("expected type mismatch error")
	}
	if v, err := SafeTypeAssertion[[]Item](nil); err != nil || v != nil {
		t.Errorf("expected zero value for nil, got %v (%v)", v, err)
	}
}
