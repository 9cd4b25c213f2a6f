// Package itemshop provides the reactive core of an item catalog screen: a filter driven
// query graph, a cart and the checkout and item creation workflows.
//
// # Overview
//
// Itemshop organizes a screen around four concepts:
//
//  1. FilterState: search text, type, family and the resolved record type id
//  2. Graph: named query nodes re-fetched whenever their projection of the filter changes
//  3. Cart: ordered, identity-unique lines picked from the current catalog result
//  4. Workflows: checkout and post item creation, recorded in an execution tree
//
// Remote data access is consumed through the Backend interfaces and the UI through Host.
//
// # Basic Usage
//
//	sess, err := itemshop.NewSession(accountID, backend,
//	    itemshop.WithHost(host),
//	    itemshop.WithLogger(logger),
//	)
//	defer sess.Close()
//
//	sess.SetSearchTerm("bike")
//	sess.Wait()
//
//	items, _ := sess.Items.Peek()
//	count, _ := sess.ItemsCount.Peek()
//
// # Queries
//
// Queries are declared on a graph with a selector projecting the filter onto the query input:
//
//	g, _ := itemshop.NewGraph()
//	items := itemshop.Declare(g, "items",
//	    func(f itemshop.Filter) (itemshop.ItemFilter, bool) { return f.Items(), true },
//	    backend.FetchItems,
//	)
//	state := itemshop.NewFilterState(g)
//	state.SetType("Road")
//
// A query fetches only when its projected input differs by value from the previous one.
// A selector returning false keeps the query idle, e.g. until the record type is known.
// Every fetch carries a graph-wide token and only the response for the latest token of a
// query is applied; the previous result stays visible meanwhile and after failures.
//
// # Controllers
//
//	items.Peek()      // last good result, no fetch
//	items.Err()       // error of the last applied fetch
//	items.Pending()   // fetch outstanding
//	items.Reload()    // re-fetch the current input
//	items.Subscribe(func(list []itemshop.Item) { ... })
//
// # Workflows
//
// Checkout closes the cart view and clears the cart strictly before navigating to the new
// purchase record. A failed checkout keeps both and reports the server message.
//
// Item creation attaches the uploaded image on a best effort basis, closes the creation
// modal and reloads the catalog query.
//
// # Extensions
//
// Extensions wrap fetches and workflow calls and observe errors, stale responses and panics:
//
//	type TimingExtension struct {
//	    itemshop.BaseExtension
//	}
//
//	func (e *TimingExtension) Wrap(ctx context.Context, next func() (any, error), op *itemshop.Operation) (any, error) {
//	    start := time.Now()
//	    result, err := next()
//	    log.Printf("%s %s took %v", op.Kind, op.Name, time.Since(start))
//	    return result, err
//	}
//
// # Thread Safety
//
// All operations are thread-safe:
//   - Fetches run on their own goroutines, node state is guarded by the graph
//   - Subscribers and Host callbacks run outside the graph lock
//   - Cart and workflows can be used from multiple goroutines
package itemshop
