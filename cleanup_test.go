package itemshop

import (
	"errors"
	"sync"
	"testing"
	"time"
)

func TestCleanup_LIFOOrder(t *testing.T) {
	g, err := NewGraph()
	if err != nil {
		t.Fatalf("NewGraph failed: %v", err)
	}

	cleaned := []string{}
	for _, name := range []string{"first", "second", "third"} {
		name := name
		g.OnCleanup(func() error {
			cleaned = append(cleaned, name)
			return nil
		})
	}

	if err := g.Close(); err != nil {
		t.Fatalf("Close failed: %v", err)
	}

	expected := []string{"third", "second", "first"}
	if len(cleaned) != len(expected) {
		t.Fatalf("expected %d cleanups, got %d", len(expected), len(cleaned))
	}
	for i, v := range expected {
		if cleaned[i] != v {
			t.Errorf("at index %d: expected %s, got %s", i, v, cleaned[i])
		}
	}
}

func TestCleanup_ErrorsAreJoined(t *testing.T) {
	g, err := NewGraph()
	if err != nil {
		t.Fatalf("NewGraph failed: %v", err)
	}

	errA := errors.New("a failed")
	errB := errors.New("b failed")
	ran := 0
	g.OnCleanup(func() error { ran++; return errA })
	g.OnCleanup(func() error { ran++; return nil })
	g.OnCleanup(func() error { ran++; return errB })

	err = g.Close()
	if !errors.Is(err, errA) || !errors.Is(err, errB) {
		t.Errorf("expected both cleanup errors, got %v", err)
	}
	if ran != 3 {
		t.Errorf("expected every cleanup to run, ran %d", ran)
	}

	if err := g.Close(); !errors.Is(err, ErrGraphClosed) {
		t.Errorf("expected ErrGraphClosed on second close, got %v", err)
	}
	if ran != 3 {
		t.Errorf("cleanups must run once, ran %d", ran)
	}
}

func TestCleanup_AfterClose(t *testing.T) {
	g, err := NewGraph()
	if err != nil {
		t.Fatalf("NewGraph failed: %v", err)
	}
	_ = g.Close()

	ran := false
	g.OnCleanup(func() error {
		ran = true
		return errors.New("ignored")
	})
	if !ran {
		t.Error("expected cleanup registered after close to run immediately")
	}
}

func TestCleanup_WaitsForInflightFetch(t *testing.T) {
	g, err := NewGraph()
	if err != nil {
		t.Fatalf("NewGraph failed: %v", err)
	}

	q := newGatedQuery("bike")
	Declare(g, "search", searchTerm, q.fetch)

	var mu sync.Mutex
	events := []string{}
	record := func(e string) {
		mu.Lock()
		defer mu.Unlock()
		events = append(events, e)
	}
	g.OnCleanup(func() error {
		record("cleanup")
		return nil
	})

	g.OnInputsChanged(Filter{SearchTerm: "bike"})
	waitFor(t, q.started, "bike")

	closed := make(chan error, 1)
	go func() { closed <- g.Close() }()

	select {
	case <-closed:
		t.Fatal("Close returned while a fetch was still running")
	case <-time.After(50 * time.Millisecond):
	}

	record("fetch released")
	q.release("bike", nil)

	select {
	case err := <-closed:
		if err != nil {
			t.Fatalf("Close failed: %v", err)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("Close did not return")
	}

	mu.Lock()
	defer mu.Unlock()
	if len(events) != 2 || events[0] != "fetch released" || events[1] != "cleanup" {
		t.Errorf("expected cleanup after the fetch resolved, got %v", events)
	}
}

func TestSession_CloseReleasesMetadataSubscription(t *testing.T) {
	backend := newFakeBackend()
	sess, err := NewSession("acc-1", backend)
	if err != nil {
		t.Fatalf("NewSession failed: %v", err)
	}
	sess.Wait()

	if err := sess.Close(); err != nil {
		t.Fatalf("Close failed: %v", err)
	}
	sess.graph.mu.Lock()
	got := len(sess.Metadata.node.subscribers)
	sess.graph.mu.Unlock()
	if got != 0 {
		t.Errorf("expected no metadata subscribers after close, got %d", got)
	}
}
