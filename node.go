// SPDX-License-Identifier: MIT
package treeview

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"golang.org/x/exp/slices"
)

type (
	// Node is one element of a [Forest]: a caller payload plus the expansion
	// & reorder bookkeeping the tree view needs.
	//
	// Nodes are created through [Forest.NewNode] & mutated only through
	// their own API, preserving the parent-back-reference invariant.
	Node[T any] struct {
		f *Forest[T]

		// id is the stable arena identifier, unique within the forest.
		id string

		// data contains the caller payload.
		data T

		// expanded controls whether children are included when projecting.
		expanded bool

		// reorderable marks the node as a permitted drag-reorder source.
		//
		// Immutable after construction.
		reorderable bool

		// depth is the distance from the nearest root; 0 for roots &
		// detached nodes. Kept consistent with the parent chain by every
		// structural mutation.
		depth int

		// parent is the identifier of the upper node, empty for roots &
		// detached nodes.
		parent string

		// children holds the ordered identifiers of the nodes at the lower
		// level; insertion order determines sibling order in projection.
		children []string

		// observer is re-attached by every projection walk so later
		// mutations reach the owning projection without re-subscription.
		observer StructureObserver[T]

		listeners    map[int]NodeListener[T]
		nextListener int
	}

	// NodeListener receives per-node change notifications: payload,
	// expansion & structural mutations on the node itself.
	NodeListener[T any] func(*Node[T])

	// NodeOption defines the Node construction option type.
	NodeOption[T any] func(*nodeOptions[T])

	nodeOptions[T any] struct {
		id          string
		data        *T
		expanded    bool
		reorderable bool
		parent      *Node[T]
		children    List[T]
	}
)

// WithID overrides the generated node identifier.
func WithID[T any](id string) NodeOption[T] {
	return func(o *nodeOptions[T]) { o.id = id }
}

// WithData overrides the node payload; used by [Node.CopyWith].
func WithData[T any](data T) NodeOption[T] {
	return func(o *nodeOptions[T]) { o.data = &data }
}

// WithExpanded configures the initial expansion state; collapsed by default.
func WithExpanded[T any](expanded bool) NodeOption[T] {
	return func(o *nodeOptions[T]) { o.expanded = expanded }
}

// WithReorderable configures drag-source eligibility; permitted by default.
func WithReorderable[T any](reorderable bool) NodeOption[T] {
	return func(o *nodeOptions[T]) { o.reorderable = reorderable }
}

// WithParent attaches the new node under parent on construction.
func WithParent[T any](parent *Node[T]) NodeOption[T] {
	return func(o *nodeOptions[T]) { o.parent = parent }
}

// WithChildren adopts existing nodes as the new node's children, in order.
func WithChildren[T any](children ...*Node[T]) NodeOption[T] {
	return func(o *nodeOptions[T]) { o.children = append(o.children, children...) }
}

// NewNode registers a node in the Forest's arena.
//
// A node without [WithParent] starts detached; attach it with
// [Forest.AddRoot] or by adopting it elsewhere.
func (f *Forest[T]) NewNode(ctx context.Context, data T, options ...NodeOption[T]) (node *Node[T], err error) {
	opts := nodeOptions[T]{reorderable: true}
	for _, opt := range options {
		opt(&opts)
	}

	if opts.id == "" {
		opts.id = uuid.NewString()
	}
	if opts.data != nil {
		data = *opts.data
	}

	node = &Node[T]{
		f:           f,
		id:          opts.id,
		data:        data,
		expanded:    opts.expanded,
		reorderable: opts.reorderable,
		children:    make([]string, 0),
		listeners:   make(map[int]NodeListener[T]),
	}
	if err = f.register(node); err != nil {
		return nil, err
	}

	// Validate the whole adoption set before touching any attachment; a
	// failed construction must leave every prior parent & root link intact.
	if err = node.validateAssembly(&opts); err != nil {
		delete(f.nodes, node.id)
		return nil, err
	}

	// Adoption of a previously attached child alters the visible structure;
	// adopting fresh detached nodes does not, the new node being unreachable
	// from the roots until attached itself.
	structural := opts.parent != nil
	for _, child := range opts.children {
		if child.parent != "" || f.isRoot(child.id) {
			structural = true
		}
		if err = node.adopt(len(node.children), child); err != nil {
			return nil, err
		}
	}
	if opts.parent != nil {
		if err = opts.parent.adopt(len(opts.parent.children), node); err != nil {
			return nil, err
		}
	}

	if structural {
		f.notifyStructure(ctx, node)
	}

	return
}

// ID retrieves the node's stable identifier.
func (n *Node[T]) ID() string { return n.id }

// Data retrieves the node's payload.
func (n *Node[T]) Data() T { return n.data }

// SetData replaces the node's payload.
//
// Fires the node's own listeners only; presence, depth & order are
// unaffected, so no re-projection is requested.
func (n *Node[T]) SetData(_ context.Context, data T) {
	n.data = data
	n.notify()
}

// Expanded reports whether children are included when projecting.
func (n *Node[T]) Expanded() bool { return n.expanded }

// SetExpanded toggles inclusion of children in the projection, requesting a
// rebuild through the attached observer on change.
func (n *Node[T]) SetExpanded(ctx context.Context, expanded bool) {
	if n.expanded == expanded {
		return
	}

	n.expanded = expanded
	n.notify()
	n.f.notifyStructure(ctx, n)
}

// Toggle flips the expansion state.
func (n *Node[T]) Toggle(ctx context.Context) { n.SetExpanded(ctx, !n.expanded) }

// Reorderable reports drag-source eligibility.
func (n *Node[T]) Reorderable() bool { return n.reorderable }

// Depth is the distance from the nearest root; 0 for roots & detached nodes.
func (n *Node[T]) Depth() int { return n.depth }

// Parent retrieves the node's parent, nil for roots & detached nodes.
func (n *Node[T]) Parent() *Node[T] {
	if n.parent == "" {
		return nil
	}

	parent, ok := n.f.nodes[n.parent]
	if !ok {
		return nil
	}

	return parent
}

// Children lists the node's immediate children in order.
func (n *Node[T]) Children() (children List[T]) {
	children = make(List[T], 0, len(n.children))
	for _, id := range n.children {
		if child, ok := n.f.nodes[id]; ok {
			children = append(children, child)
		}
	}

	return
}

// ChildCount is the number of immediate children.
func (n *Node[T]) ChildCount() int { return len(n.children) }

// HasChildren reports whether the node has immediate children.
func (n *Node[T]) HasChildren() bool { return len(n.children) > 0 }

// IsRoot reports whether the node is attached to the forest's root list.
func (n *Node[T]) IsRoot() bool { return n.parent == "" && n.f.isRoot(n.id) }

// Subscribe registers a listener for this node's change notifications,
// returning a handle for [Node.Unsubscribe].
func (n *Node[T]) Subscribe(listener NodeListener[T]) (handle int) {
	handle = n.nextListener
	n.nextListener++
	n.listeners[handle] = listener

	return
}

// Unsubscribe removes a listener by its handle.
func (n *Node[T]) Unsubscribe(handle int) { delete(n.listeners, handle) }

// notify fires the node's own listeners.
func (n *Node[T]) notify() {
	for _, listener := range n.listeners {
		listener(n)
	}
}

// AddChild appends a node to the children, detaching it from any prior
// location first; triggers one rebuild request.
func (n *Node[T]) AddChild(ctx context.Context, child *Node[T]) (err error) {
	if err = n.adopt(len(n.children), child); err != nil {
		return
	}

	n.notify()
	n.f.notifyStructure(ctx, n)

	return
}

// InsertChildAt inserts a node into the children at index, detaching it from
// any prior location first; triggers one rebuild request.
func (n *Node[T]) InsertChildAt(ctx context.Context, index int, child *Node[T]) (err error) {
	if index < 0 || index > len(n.children) {
		return fmt.Errorf("child index %d of %d: %w", index, len(n.children), ErrInvalidIndex)
	}

	if err = n.adopt(index, child); err != nil {
		return
	}

	n.notify()
	n.f.notifyStructure(ctx, n)

	return
}

// AddChildren appends nodes to the children in order; triggers a single
// rebuild request for the whole batch.
func (n *Node[T]) AddChildren(ctx context.Context, children ...*Node[T]) (err error) {
	if len(children) < 1 {
		return
	}

	for _, child := range children {
		if err = n.adopt(len(n.children), child); err != nil {
			return
		}
	}

	n.notify()
	n.f.notifyStructure(ctx, n)

	return
}

// RemoveChild detaches an immediate child; triggers one rebuild request.
func (n *Node[T]) RemoveChild(ctx context.Context, child *Node[T]) (err error) {
	if child == nil {
		return ErrNilNode
	}
	if !slices.Contains(n.children, child.id) {
		return fmt.Errorf("(%s) %w (%s)", child.id, ErrNotChild, n.id)
	}

	n.f.detach(child)
	n.notify()
	n.f.notifyStructure(ctx, n)

	return
}

// RemoveChildren detaches the listed immediate children, skipping nodes that
// are not children; reports the number detached & triggers a single rebuild
// request when any were.
func (n *Node[T]) RemoveChildren(ctx context.Context, children ...*Node[T]) (removed int) {
	for _, child := range children {
		if child == nil || !slices.Contains(n.children, child.id) {
			continue
		}

		n.f.detach(child)
		removed++
	}

	if removed > 0 {
		n.notify()
		n.f.notifyStructure(ctx, n)
	}

	return
}

// RemoveChildAt detaches the child at index, returning it; triggers one
// rebuild request.
func (n *Node[T]) RemoveChildAt(ctx context.Context, index int) (child *Node[T], err error) {
	if index < 0 || index >= len(n.children) {
		err = fmt.Errorf("child index %d of %d: %w", index, len(n.children), ErrInvalidIndex)
		return
	}

	child, ok := n.f.nodes[n.children[index]]
	if !ok {
		// Inconsistent arena entry; leave the list untouched so the failure
		// has no side effects.
		err = fmt.Errorf("child at %d: %w", index, ErrNotFound)
		return
	}

	n.f.detach(child)
	n.notify()
	n.f.notifyStructure(ctx, n)

	return
}

// RemoveRange detaches the children in [start, end); triggers a single
// rebuild request.
func (n *Node[T]) RemoveRange(ctx context.Context, start, end int) (err error) {
	if start < 0 || end < start || end > len(n.children) {
		return fmt.Errorf("child range [%d, %d) of %d: %w", start, end, len(n.children), ErrInvalidIndex)
	}
	if start == end {
		return
	}

	for _, id := range slices.Clone(n.children[start:end]) {
		if child, ok := n.f.nodes[id]; ok {
			n.f.detach(child)
		}
	}

	n.notify()
	n.f.notifyStructure(ctx, n)

	return
}

// RemoveWhere detaches the immediate children satisfying the predicate,
// reporting how many; triggers a single rebuild request when any matched.
func (n *Node[T]) RemoveWhere(ctx context.Context, predicate func(*Node[T]) bool) (removed int) {
	for _, id := range slices.Clone(n.children) {
		child, ok := n.f.nodes[id]
		if !ok || !predicate(child) {
			continue
		}

		n.f.detach(child)
		removed++
	}

	if removed > 0 {
		n.notify()
		n.f.notifyStructure(ctx, n)
	}

	return
}

// ClearChildren detaches all immediate children, reporting how many;
// triggers a single rebuild request when any were attached.
func (n *Node[T]) ClearChildren(ctx context.Context) (removed int) {
	removed = n.orphanChildren()
	if removed > 0 {
		n.notify()
		n.f.notifyStructure(ctx, n)
	}

	return
}

// RemoveSelf detaches this node from its parent (or the root list) & clears
// its own child list; the children remain registered as detached orphans for
// the caller to re-root.
//
// Fires this node's own listeners only; a caller removing the node as part
// of a larger edit triggers the rebuild explicitly afterwards.
func (n *Node[T]) RemoveSelf(_ context.Context) {
	n.f.detach(n)
	n.orphanChildren()
	n.notify()
}

// CopyWith produces a deep structural clone: children are recursively cloned
// & reparented to the clone, the original subtree untouched. Clones register
// under fresh identifiers unless overridden; id, data, expanded, reorderable
// & parent accept overrides.
func (n *Node[T]) CopyWith(ctx context.Context, options ...NodeOption[T]) (clone *Node[T], err error) {
	clones := make(List[T], 0, len(n.children))
	for _, id := range n.children {
		child, ok := n.f.nodes[id]
		if !ok {
			continue
		}

		var cc *Node[T]
		if cc, err = child.CopyWith(ctx); err != nil {
			clones.discard()
			return
		}
		clones = append(clones, cc)
	}

	merged := append([]NodeOption[T]{
		WithExpanded[T](n.expanded),
		WithReorderable[T](n.reorderable),
		WithChildren(clones...),
	}, options...)

	if clone, err = n.f.NewNode(ctx, n.data, merged...); err != nil {
		clones.discard()
		return nil, err
	}

	return
}

// discard unregisters detached clone subtrees after a failed copy.
func (l List[T]) discard() {
	for _, n := range l {
		n.Children().discard()
		delete(n.f.nodes, n.id)
	}
}

// validateAssembly rejects a construction-time parent/children set that any
// individual adoption would refuse, before any attachment mutates.
func (n *Node[T]) validateAssembly(opts *nodeOptions[T]) error {
	if opts.parent != nil && opts.parent.f != n.f {
		return fmt.Errorf("(%s) %w", opts.parent.id, ErrForeignNode)
	}

	for index, child := range opts.children {
		switch {
		case child == nil:
			return ErrNilNode
		case child.f != n.f:
			return fmt.Errorf("(%s) %w", child.id, ErrForeignNode)
		case opts.parent != nil && (child == opts.parent || n.f.IsAncestor(child, opts.parent)):
			return fmt.Errorf("(%s) %w (%s)", child.id, ErrCycle, opts.parent.id)
		case opts.children[:index].Index(child) >= 0:
			return fmt.Errorf("(%s) %w (%s)", child.id, ErrAlreadyChild, n.id)
		}
	}

	return nil
}

// adopt validates & performs the detach-then-attach of child at index.
func (n *Node[T]) adopt(index int, child *Node[T]) error {
	switch {
	case child == nil:
		return ErrNilNode
	case child.f != n.f:
		return fmt.Errorf("(%s) %w", child.id, ErrForeignNode)
	case child == n || n.f.IsAncestor(child, n):
		return fmt.Errorf("(%s) %w (%s)", child.id, ErrCycle, n.id)
	case slices.Contains(n.children, child.id):
		return fmt.Errorf("(%s) %w (%s)", child.id, ErrAlreadyChild, n.id)
	}

	n.f.detach(child)
	if index > len(n.children) {
		index = len(n.children)
	}
	n.children = slices.Insert(n.children, index, child.id)
	child.parent = n.id
	child.setDepth(n.depth + 1)

	return nil
}

// orphanChildren clears the child list, resetting the children to detached
// state; reports how many were orphaned.
func (n *Node[T]) orphanChildren() (orphaned int) {
	for _, id := range n.children {
		child, ok := n.f.nodes[id]
		if !ok {
			continue
		}

		child.parent = ""
		child.setDepth(0)
		orphaned++
	}
	n.children = n.children[:0]

	return
}

// setDepth propagates a depth change through the subtree.
func (n *Node[T]) setDepth(depth int) {
	n.depth = depth
	for _, id := range n.children {
		if child, ok := n.f.nodes[id]; ok {
			child.setDepth(depth + 1)
		}
	}
}
