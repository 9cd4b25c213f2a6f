package itemshop

import (
	"context"
	"fmt"
	"log/slog"
)

// Query names
const (
	QueryAccount        = "account"
	QueryIsManager      = "isManager"
	QueryItemMetadata   = "itemMetadata"
	QueryTypePicklist   = "typePicklist"
	QueryFamilyPicklist = "familyPicklist"
	QueryItems          = "items"
	QueryItemsCount     = "itemsCount"
)

// Session is one screen of the shop for one account. It owns the filter, the query graph,
// the cart and both workflows.
type Session struct {
	accountID string
	backend   Backend

	filter   *FilterState
	graph    *Graph
	cart     *Cart
	checkout *Checkout
	creation *ItemCreation

	Account    *Controller[Account]
	IsManager  *Controller[bool]
	Metadata   *Controller[ItemMetadata]
	Types      *Controller[[]PicklistOption]
	Families   *Controller[[]PicklistOption]
	Items      *Controller[[]Item]
	ItemsCount *Controller[int]

	host    Host
	logger  *slog.Logger
	journal *ExecutionTree
}

// NewSession declares the queries and issues the initial fetches.
func NewSession(accountID string, backend Backend, opts ...Option) (*Session, error) {
	s := newSettings(opts)
	opts = append(opts[:len(opts):len(opts)], WithJournal(s.journal))

	graph, err := NewGraph(opts...)
	if err != nil {
		return nil, fmt.Errorf("creating query graph: %w", err)
	}

	sess := &Session{
		accountID: accountID,
		backend:   backend,
		graph:     graph,
		host:      s.host,
		logger:    s.logger,
		journal:   s.journal,
	}
	sess.declare()

	sess.cart = NewCart(ResultCatalog(sess.Items), opts...)
	sess.checkout = NewCheckout(accountID, sess.cart, backend, opts...)
	sess.checkout.graph = graph
	sess.creation = NewItemCreation(backend, Refreshers{sess.Items, sess.ItemsCount}, opts...)
	sess.creation.graph = graph

	sess.filter = NewFilterState(graph)
	unsubscribe := sess.Metadata.Subscribe(func(md ItemMetadata) {
		sess.filter.SetRecordTypeID(md.DefaultRecordTypeID)
	})
	graph.OnCleanup(func() error {
		unsubscribe()
		return nil
	})
	sess.filter.Notify()

	return sess, nil
}

func (s *Session) declare() {
	b := s.backend
	g := s.graph

	s.Account = Declare(g, QueryAccount,
		func(Filter) (string, bool) { return s.accountID, s.accountID != "" },
		b.FetchAccount,
	)
	s.IsManager = Declare(g, QueryIsManager,
		func(Filter) (struct{}, bool) { return struct{}{}, true },
		func(ctx context.Context, _ struct{}) (bool, error) { return b.FetchIsManager(ctx) },
	)
	s.Metadata = Declare(g, QueryItemMetadata,
		func(Filter) (struct{}, bool) { return struct{}{}, true },
		func(ctx context.Context, _ struct{}) (ItemMetadata, error) { return b.FetchItemMetadata(ctx) },
	)
	s.Types = Declare(g, QueryTypePicklist, recordType, picklist(b, FieldType), DependsOn(QueryItemMetadata))
	s.Families = Declare(g, QueryFamilyPicklist, recordType, picklist(b, FieldFamily), DependsOn(QueryItemMetadata))
	s.Items = Declare(g, QueryItems, itemFilter, b.FetchItems)
	s.ItemsCount = Declare(g, QueryItemsCount, itemFilter, b.FetchItemsCount)
}

func recordType(f Filter) (string, bool) {
	return f.RecordTypeID, f.RecordTypeID != ""
}

func itemFilter(f Filter) (ItemFilter, bool) {
	return f.Items(), true
}

// picklist fetches the values of field and puts the "All" option first.
func picklist(catalog CatalogService, field string) func(context.Context, string) ([]PicklistOption, error) {
	return func(ctx context.Context, recordTypeID string) ([]PicklistOption, error) {
		values, err := catalog.FetchPicklistValues(ctx, recordTypeID, field)
		if err != nil {
			return nil, err
		}
		return WithAllOption(values), nil
	}
}

// WithAllOption returns values led by AllOption. Options with an empty value are dropped so
// that AllOption is the only one matching everything.
func WithAllOption(values []PicklistOption) []PicklistOption {
	out := make([]PicklistOption, 0, len(values)+1)
	out = append(out, AllOption)
	for _, v := range values {
		if v.Value == "" {
			continue
		}
		out = append(out, v)
	}
	return out
}

func (s *Session) AccountID() string          { return s.accountID }
func (s *Session) Filter() *FilterState       { return s.filter }
func (s *Session) Graph() *Graph              { return s.graph }
func (s *Session) Cart() *Cart                { return s.cart }
func (s *Session) Checkout() *Checkout        { return s.checkout }
func (s *Session) Creation() *ItemCreation    { return s.creation }
func (s *Session) Journal() *ExecutionTree    { return s.journal }
func (s *Session) SetSearchTerm(term string)  { s.filter.SetSearchTerm(term) }
func (s *Session) SetType(value string)       { s.filter.SetType(value) }
func (s *Session) SetFamily(value string)     { s.filter.SetFamily(value) }
func (s *Session) ResetFilters()              { s.filter.Reset() }

// AddToCart adds an item of the current catalog result to the cart.
func (s *Session) AddToCart(itemID string) error {
	return s.cart.Add(itemID)
}

// SubmitCheckout checks the cart out for the session's account.
func (s *Session) SubmitCheckout(ctx context.Context) (CheckoutResult, error) {
	return s.checkout.Submit(ctx)
}

// ShowDetails asks the host to open the details of an item in the current result.
func (s *Session) ShowDetails(itemID string) error {
	if itemID == "" {
		s.logger.Error("show details called without item id")
		s.host.OnCartError(ErrMissingItemID.Error())
		return ErrMissingItemID
	}
	item, ok := ResultCatalog(s.Items).Lookup(itemID)
	if !ok {
		err := &NotFoundError{Entity: "item", ID: itemID}
		s.logger.Error("cannot show item details", "item_id", itemID, "error", err)
		s.host.OnCartError(ErrorMessage(err, ""))
		return err
	}
	s.host.OnShowDetails(item)
	return nil
}

// CanCreateItems reports whether the current user is known to be a manager.
func (s *Session) CanCreateItems() bool {
	manager, _ := s.IsManager.Peek()
	return manager
}

// CreateItem creates an item on behalf of a manager and runs the post-creation workflow.
func (s *Session) CreateItem(ctx context.Context, item NewItem) (CreationReport, error) {
	if !s.CanCreateItems() {
		s.logger.Warn("item creation rejected", "name", item.Name, "error", ErrNotManager)
		return CreationReport{}, ErrNotManager
	}

	val, err := s.creation.call(ctx, OpCreateItem, "create_item", func(ctx context.Context) (any, error) {
		return s.backend.CreateItem(ctx, item)
	})
	if err != nil {
		s.logger.Error("item creation failed", "name", item.Name, "error", err)
		return CreationReport{}, fmt.Errorf("creating item %q: %w", item.Name, err)
	}
	itemID, err := SafeTypeAssertion[string](val)
	if err != nil {
		return CreationReport{}, err
	}

	s.logger.Info("item created", "item_id", itemID, "name", item.Name)
	return s.creation.Complete(ctx, itemID), nil
}

// CompleteCreation runs the post-creation workflow for an item created elsewhere.
func (s *Session) CompleteCreation(ctx context.Context, itemID string) CreationReport {
	return s.creation.Complete(ctx, itemID)
}

// Wait blocks until every outstanding fetch has resolved.
func (s *Session) Wait() {
	s.graph.Wait()
}

// Close stops the graph. Late responses are discarded.
func (s *Session) Close() error {
	return s.graph.Close()
}
