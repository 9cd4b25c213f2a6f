package itemshop

import "sync"

// Filter is the value projected by query nodes. An empty categorical value matches all.
type Filter struct {
	SearchTerm   string
	Type         string
	Family       string
	RecordTypeID string
}

// Items returns the projection shared by the item list and item count queries.
func (f Filter) Items() ItemFilter {
	return ItemFilter{
		SearchTerm: f.SearchTerm,
		Type:       f.Type,
		Family:     f.Family,
	}
}

// InputObserver is notified with the full filter after every mutation.
// Implementations must not call back into the FilterState synchronously.
type InputObserver interface {
	OnInputsChanged(f Filter)
}

// FilterState holds the user-adjustable query parameters and the resolved record type.
type FilterState struct {
	mu        sync.Mutex
	current   Filter
	observers []InputObserver
}

// NewFilterState creates an empty filter notifying the given observers.
func NewFilterState(observers ...InputObserver) *FilterState {
	return &FilterState{observers: observers}
}

// Observe adds an observer. It is not notified until the next mutation or Notify.
func (s *FilterState) Observe(o InputObserver) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.observers = append(s.observers, o)
}

// Snapshot returns a copy of the current filter.
func (s *FilterState) Snapshot() Filter {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.current
}

func (s *FilterState) SetSearchTerm(term string) {
	s.update(func(f *Filter) { f.SearchTerm = term })
}

func (s *FilterState) SetType(value string) {
	s.update(func(f *Filter) { f.Type = value })
}

func (s *FilterState) SetFamily(value string) {
	s.update(func(f *Filter) { f.Family = value })
}

// SetRecordTypeID is called once the item metadata has been resolved.
func (s *FilterState) SetRecordTypeID(id string) {
	s.update(func(f *Filter) { f.RecordTypeID = id })
}

// Reset clears the three user filters and keeps the record type.
func (s *FilterState) Reset() {
	s.update(func(f *Filter) {
		f.SearchTerm = ""
		f.Type = ""
		f.Family = ""
	})
}

// Notify re-broadcasts the current filter without changing it.
func (s *FilterState) Notify() {
	s.update(func(*Filter) {})
}

// update holds the lock while notifying so observers see snapshots in mutation order.
func (s *FilterState) update(mutate func(*Filter)) {
	s.mu.Lock()
	defer s.mu.Unlock()

	mutate(&s.current)
	snapshot := s.current
	for _, o := range s.observers {
		o.OnInputsChanged(snapshot)
	}
}
