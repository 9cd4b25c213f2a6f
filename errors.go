package itemshop

import (
	"errors"
	"fmt"
	"runtime/debug"
	"strings"
)

var (
	ErrMissingItemID      = errors.New("item id is missing")
	ErrEmptyCart          = errors.New("cart is empty")
	ErrCheckoutInProgress = errors.New("checkout already in progress")
	ErrNotManager         = errors.New("only managers can create items")
	ErrNoResult           = errors.New("query has no result yet")
	ErrGraphClosed        = errors.New("query graph is closed")
)

// FallbackMessage is shown when an error carries no readable text at all.
const FallbackMessage = "Unknown error"

// NotFoundError is returned when an identifier is absent from the current result set.
type NotFoundError struct {
	Entity string
	ID     string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s %s not found", e.Entity, e.ID)
}

// RemoteError is a failure reported by a remote collaborator. Servers answer either with a
// single structured message or with a list of messages; both shapes are kept.
type RemoteError struct {
	Op       string
	Message  string
	Messages []string
	Err      error
}

func (e *RemoteError) Error() string {
	msg := ErrorMessage(e, FallbackMessage)
	if e.Op == "" {
		return msg
	}
	return fmt.Sprintf("%s: %s", e.Op, msg)
}

func (e *RemoteError) Unwrap() error {
	return e.Err
}

// FetchError wraps a failure raised while a query node was fetching.
type FetchError struct {
	Query      string
	Token      uint64
	Cause      error
	Context    string
	StackTrace []byte
}

func (e *FetchError) Error() string {
	if e.Context != "" {
		return fmt.Sprintf("fetch error in query %s (token %d) during %s: %v", e.Query, e.Token, e.Context, e.Cause)
	}
	return fmt.Sprintf("fetch error in query %s (token %d): %v", e.Query, e.Token, e.Cause)
}

func (e *FetchError) Unwrap() error {
	return e.Cause
}

func CreateFetchError(query string, token uint64, cause error, context string) *FetchError {
	return &FetchError{
		Query:      query,
		Token:      token,
		Cause:      cause,
		Context:    context,
		StackTrace: debug.Stack(),
	}
}

// SafeTypeAssertion performs safe type assertion with proper error
func SafeTypeAssertion[T any](value any) (T, error) {
	if value == nil {
		var zero T
		return zero, nil
	}

	typed, ok := value.(T)
	if !ok {
		var zero T
		return zero, fmt.Errorf("type assertion error: expected %T, got %T (value: %v)", zero, value, value)
	}

	return typed, nil
}

// ErrorMessage extracts the most specific human-readable text from err, in order:
// structured server message, list of server messages joined with ", ", the error text,
// and finally fallback.
func ErrorMessage(err error, fallback string) string {
	if fallback == "" {
		fallback = FallbackMessage
	}
	if err == nil {
		return fallback
	}

	var remote *RemoteError
	if errors.As(err, &remote) {
		if remote.Message != "" {
			return remote.Message
		}
		if msgs := nonEmpty(remote.Messages); len(msgs) > 0 {
			return strings.Join(msgs, ", ")
		}
		if remote.Err != nil && remote.Err.Error() != "" {
			return remote.Err.Error()
		}
		return fallback
	}

	if msg := err.Error(); msg != "" {
		return msg
	}
	return fallback
}

func nonEmpty(in []string) []string {
	out := make([]string, 0, len(in))
	for _, s := range in {
		if strings.TrimSpace(s) != "" {
			out = append(out, s)
		}
	}
	return out
}
