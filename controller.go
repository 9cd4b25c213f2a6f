package itemshop

// Controller provides access to a query node's cached result
type Controller[T any] struct {
	graph *Graph
	node  *node
}

// Name returns the query name
func (c *Controller[T]) Name() string {
	return c.node.name
}

// Peek returns the last good result without fetching. The previous value stays visible
// while a newer fetch is outstanding or after a failed one.
func (c *Controller[T]) Peek() (T, bool) {
	c.graph.mu.Lock()
	val, ok := c.node.result, c.node.hasResult
	c.graph.mu.Unlock()

	if !ok {
		var zero T
		return zero, false
	}
	typed, err := SafeTypeAssertion[T](val)
	if err != nil {
		var zero T
		return zero, false
	}
	return typed, true
}

// Get returns the last good result, or the last error, or ErrNoResult.
func (c *Controller[T]) Get() (T, error) {
	if val, ok := c.Peek(); ok {
		return val, nil
	}
	var zero T
	if err := c.Err(); err != nil {
		return zero, err
	}
	return zero, ErrNoResult
}

// Err returns the error of the last applied fetch, if it failed
func (c *Controller[T]) Err() error {
	c.graph.mu.Lock()
	defer c.graph.mu.Unlock()
	return c.node.err
}

// Pending reports whether a fetch is outstanding
func (c *Controller[T]) Pending() bool {
	c.graph.mu.Lock()
	defer c.graph.mu.Unlock()
	return c.node.current != 0
}

// IsCached reports whether a good result is available
func (c *Controller[T]) IsCached() bool {
	c.graph.mu.Lock()
	defer c.graph.mu.Unlock()
	return c.node.hasResult
}

// Reload re-issues the fetch for the current input. It returns false when the node has
// never been runnable or the graph is closed.
func (c *Controller[T]) Reload() bool {
	return c.graph.reload(c.node)
}

// State returns the node's bookkeeping
func (c *Controller[T]) State() NodeState {
	c.graph.mu.Lock()
	defer c.graph.mu.Unlock()
	return c.node.stateLocked()
}

// Subscribe registers fn for every applied result. The returned func unsubscribes.
func (c *Controller[T]) Subscribe(fn func(T)) func() {
	c.graph.mu.Lock()
	defer c.graph.mu.Unlock()

	c.node.nextSubID++
	id := c.node.nextSubID
	c.node.subscribers = append(c.node.subscribers, subscriber{
		id: id,
		fn: func(val any) {
			typed, err := SafeTypeAssertion[T](val)
			if err != nil {
				c.graph.logger.Error("dropping result of unexpected type", "query", c.node.name, "error", err)
				return
			}
			fn(typed)
		},
	})

	return func() {
		c.graph.mu.Lock()
		defer c.graph.mu.Unlock()
		for i, sub := range c.node.subscribers {
			if sub.id == id {
				c.node.subscribers = append(c.node.subscribers[:i], c.node.subscribers[i+1:]...)
				return
			}
		}
	}
}
