package itemshop

import (
	"fmt"
	"sync"
	"sync/atomic"
	"time"
)

const defaultJournalLimit = 1000

// ExecutionStatus is the outcome of a workflow run or one of its steps
type ExecutionStatus int

const (
	ExecutionStatusRunning ExecutionStatus = iota
	ExecutionStatusSuccess
	ExecutionStatusFailed
	ExecutionStatusSkipped
)

func (s ExecutionStatus) String() string {
	switch s {
	case ExecutionStatusRunning:
		return "running"
	case ExecutionStatusSuccess:
		return "success"
	case ExecutionStatusFailed:
		return "failed"
	case ExecutionStatusSkipped:
		return "skipped"
	default:
		return fmt.Sprintf("status(%d)", int(s))
	}
}

var (
	stepNameTag   = NewTag[string]("journal.name")
	startTimeTag  = NewTag[time.Time]("journal.start_time")
	endTimeTag    = NewTag[time.Time]("journal.end_time")
	statusTag     = NewTag[ExecutionStatus]("journal.status")
	errorTag      = NewTag[error]("journal.error")
	messageTag    = NewTag[string]("journal.message")
	purchaseIDTag = NewTag[string]("journal.purchase_id")
	itemIDTag     = NewTag[string]("journal.item_id")
)

func StepName() Tag[string]        { return stepNameTag }
func StartTime() Tag[time.Time]    { return startTimeTag }
func EndTime() Tag[time.Time]      { return endTimeTag }
func Status() Tag[ExecutionStatus] { return statusTag }
func ErrorTag() Tag[error]         { return errorTag }
func Message() Tag[string]         { return messageTag }
func PurchaseID() Tag[string]      { return purchaseIDTag }
func ItemID() Tag[string]          { return itemIDTag }

// ExecutionNode records one workflow run (root) or one of its steps (child)
type ExecutionNode struct {
	ID       string
	ParentID string

	mu   sync.RWMutex
	tags map[any]any
}

func (n *ExecutionNode) GetTag(tag any) (any, bool) {
	n.mu.RLock()
	defer n.mu.RUnlock()
	v, ok := n.tags[tag]
	return v, ok
}

func (n *ExecutionNode) SetTag(tag any, val any) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.tags[tag] = val
}

// Name returns the run or step name
func (n *ExecutionNode) Name() string {
	return stepNameTag.GetOrDefault(n, "")
}

// Status returns the recorded outcome
func (n *ExecutionNode) Status() ExecutionStatus {
	return statusTag.GetOrDefault(n, ExecutionStatusRunning)
}

func (n *ExecutionNode) finish(err error) {
	n.SetTag(endTimeTag, time.Now())
	if err != nil {
		n.SetTag(statusTag, ExecutionStatusFailed)
		n.SetTag(errorTag, err)
		return
	}
	n.SetTag(statusTag, ExecutionStatusSuccess)
}

func (n *ExecutionNode) skip(reason string) {
	n.SetTag(endTimeTag, time.Now())
	n.SetTag(statusTag, ExecutionStatusSkipped)
	n.SetTag(messageTag, reason)
}

// ExecutionTree keeps the most recent workflow runs with their steps
type ExecutionTree struct {
	mu       sync.RWMutex
	nodes    map[string]*ExecutionNode
	byParent map[string][]string
	roots    []string
	limit    int
	seq      atomic.Uint64
}

// NewExecutionTree creates a tree holding at most limit nodes
func NewExecutionTree(limit int) *ExecutionTree {
	if limit <= 0 {
		limit = defaultJournalLimit
	}
	return &ExecutionTree{
		nodes:    make(map[string]*ExecutionNode),
		byParent: make(map[string][]string),
		roots:    []string{},
		limit:    limit,
	}
}

// begin records a running node. parent may be nil for a workflow run.
func (t *ExecutionTree) begin(name string, parent *ExecutionNode) *ExecutionNode {
	node := &ExecutionNode{
		ID:   fmt.Sprintf("exec-%d", t.seq.Add(1)),
		tags: make(map[any]any),
	}
	if parent != nil {
		node.ParentID = parent.ID
	}
	node.SetTag(stepNameTag, name)
	node.SetTag(startTimeTag, time.Now())
	node.SetTag(statusTag, ExecutionStatusRunning)

	t.addNode(node)
	return node
}

func (t *ExecutionTree) addNode(node *ExecutionNode) {
	t.mu.Lock()
	defer t.mu.Unlock()

	t.nodes[node.ID] = node

	if node.ParentID == "" {
		t.roots = append(t.roots, node.ID)
	} else {
		t.byParent[node.ParentID] = append(t.byParent[node.ParentID], node.ID)
	}

	if len(t.nodes) > t.limit {
		t.evictOldest()
	}
}

func (t *ExecutionTree) evictOldest() {
	if len(t.roots) == 0 {
		return
	}

	oldestRoot := t.roots[0]
	t.roots = t.roots[1:]

	t.removeSubtree(oldestRoot)
}

func (t *ExecutionTree) removeSubtree(nodeID string) {
	delete(t.nodes, nodeID)

	children := t.byParent[nodeID]
	delete(t.byParent, nodeID)

	for _, childID := range children {
		t.removeSubtree(childID)
	}
}

func (t *ExecutionTree) GetNode(id string) *ExecutionNode {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.nodes[id]
}

func (t *ExecutionTree) GetChildren(id string) []*ExecutionNode {
	t.mu.RLock()
	defer t.mu.RUnlock()

	childIDs := t.byParent[id]
	children := make([]*ExecutionNode, 0, len(childIDs))
	for _, childID := range childIDs {
		if node := t.nodes[childID]; node != nil {
			children = append(children, node)
		}
	}
	return children
}

func (t *ExecutionTree) GetRoots() []*ExecutionNode {
	t.mu.RLock()
	defer t.mu.RUnlock()

	roots := make([]*ExecutionNode, 0, len(t.roots))
	for _, rootID := range t.roots {
		if node := t.nodes[rootID]; node != nil {
			roots = append(roots, node)
		}
	}
	return roots
}

// Last returns the most recent root, if any
func (t *ExecutionTree) Last() *ExecutionNode {
	roots := t.GetRoots()
	if len(roots) == 0 {
		return nil
	}
	return roots[len(roots)-1]
}

func (t *ExecutionTree) Filter(predicate func(*ExecutionNode) bool) []*ExecutionNode {
	t.mu.RLock()
	defer t.mu.RUnlock()

	var result []*ExecutionNode
	for _, node := range t.nodes {
		if predicate(node) {
			result = append(result, node)
		}
	}
	return result
}

func (t *ExecutionTree) Walk(rootID string, visitor func(*ExecutionNode) bool) {
	t.mu.RLock()
	defer t.mu.RUnlock()
	t.walkUnlocked(rootID, visitor)
}

func (t *ExecutionTree) walkUnlocked(nodeID string, visitor func(*ExecutionNode) bool) {
	node := t.nodes[nodeID]
	if node == nil {
		return
	}

	if !visitor(node) {
		return
	}

	for _, childID := range t.byParent[nodeID] {
		t.walkUnlocked(childID, visitor)
	}
}
