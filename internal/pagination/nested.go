package pagination

import (
	"sync"
)

// Nested keeps an independent controller and expanded flag per parent, such
// as the FAQs of each FAQ link.
type Nested struct {
	mu       sync.Mutex
	pageSize int
	children map[string]*child
}

type child struct {
	expanded bool
	ctrl     *Controller
}

// NewNested creates nested state whose child lists use pageSize.
func NewNested(pageSize int) *Nested {
	return &Nested{
		pageSize: pageSize,
		children: make(map[string]*child),
	}
}

func (n *Nested) child(parentID string) *child {
	n.mu.Lock()
	defer n.mu.Unlock()
	c, ok := n.children[parentID]
	if !ok {
		c = &child{ctrl: New(n.pageSize)}
		n.children[parentID] = c
	}
	return c
}

// Controller returns the list controller of parentID, creating it on first use.
func (n *Nested) Controller(parentID string) *Controller {
	return n.child(parentID).ctrl
}

// Toggle flips the expanded flag of parentID and returns the new value.
// Collapsing clears that parent's search text but keeps its page.
func (n *Nested) Toggle(parentID string) bool {
	c := n.child(parentID)

	n.mu.Lock()
	c.expanded = !c.expanded
	expanded := c.expanded
	n.mu.Unlock()

	if !expanded {
		c.ctrl.clearSearch()
	}
	return expanded
}

// Expanded reports whether parentID is expanded.
func (n *Nested) Expanded(parentID string) bool {
	n.mu.Lock()
	defer n.mu.Unlock()
	c, ok := n.children[parentID]
	return ok && c.expanded
}

// Forget drops the state of a parent that no longer exists.
func (n *Nested) Forget(parentID string) {
	n.mu.Lock()
	delete(n.children, parentID)
	n.mu.Unlock()
}
