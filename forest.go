// SPDX-License-Identifier: MIT

// Package treeview implements the data model behind a hierarchical tree view:
// a forest of payload-carrying nodes with expansion state, a projector that
// flattens the visible portion of the forest for linear rendering, and a
// reorder engine that maps drag gestures on the flattened sequence back to
// structural mutations.
package treeview

import (
	"context"
	"errors"
	"fmt"

	"github.com/sirupsen/logrus"
	"golang.org/x/exp/slices"
)

type (
	// Forest is an arena of nodes addressed by stable identifier, plus an
	// ordered list of root identifiers.
	//
	// Parent & child links are stored as identifiers resolved through the
	// arena, never as aliasing references; membership mutates only through
	// the Forest/Node API.
	//
	// Synchronization is unnecessary, the type is designed for single write
	// multiple read.
	Forest[T any] struct {
		// cfg contains a pointer to a [Config] shared by all nodes of the
		// Forest.
		cfg *Config

		// nodes is the arena of all registered nodes, attached or not.
		nodes map[string]*Node[T]

		// roots holds the ordered identifiers of the root nodes.
		roots []string

		// observer receives structure notifications for nodes that have not
		// been claimed by a projection yet.
		observer StructureObserver[T]
	}

	// Config defines configuration options shared by a [Forest]'s operations.
	Config struct {
		// Logger for [Forest] messages.
		//
		// Preferring a public field to allow for sharing.
		Logger logrus.FieldLogger
		Debug  bool
	}

	// List is a type wrapper for []*Node.
	List[T any] []*Node[T]

	// StructureObserver is notified once per structural mutation that may
	// affect the visible projection. origin is the node closest to the
	// mutation, nil for forest-wide changes.
	StructureObserver[T any] interface {
		StructureChanged(ctx context.Context, origin *Node[T])
	}

	// Option defines the Forest functional option type.
	Option[T any] func(*Forest[T])
)

// Errors encountered when handling a Forest.
var (
	ErrNotFound = errors.New("not found")

	ErrDuplicateID  = errors.New("duplicate node id")
	ErrForeignNode  = errors.New("belongs to a different forest")
	ErrNilNode      = errors.New("nil node")
	ErrAlreadyChild = errors.New("is a child of")
	ErrAlreadyRoot  = errors.New("is already a root of the forest")
	ErrNotChild     = errors.New("is not a child of")
	ErrCycle        = errors.New("would become an ancestor of itself")
	ErrInvalidIndex = errors.New("index out of range")
)

var defConfig = DefConfig()

// DefConfig obtains the package's default [Forest] options.
func DefConfig() *Config {
	return &Config{
		Logger: logrus.New(),
		Debug:  false,
	}
}

// New instantiates a Forest.
func New[T any](options ...Option[T]) *Forest[T] {
	f := &Forest[T]{
		cfg:   defConfig,
		nodes: make(map[string]*Node[T]),
		roots: make([]string, 0),
	}

	for _, opt := range options {
		opt(f)
	}

	return f
}

// WithConfig configures the [Forest] [Config].
func WithConfig[T any](cfg *Config) Option[T] {
	return func(f *Forest[T]) { f.cfg = cfg }
}

// Config retrieves the [Forest]'s Config.
func (f *Forest[T]) Config() *Config { return f.cfg }

// Size is the number of nodes registered in the arena, attached or not.
func (f *Forest[T]) Size() int { return len(f.nodes) }

// Get retrieves a node by identifier.
func (f *Forest[T]) Get(id string) (node *Node[T], ok bool) {
	node, ok = f.nodes[id]
	return
}

// Roots lists the root nodes in order.
func (f *Forest[T]) Roots() (roots List[T]) {
	roots = make(List[T], 0, len(f.roots))
	for _, id := range f.roots {
		if node, ok := f.nodes[id]; ok {
			roots = append(roots, node)
		}
	}

	return
}

// RootIDs lists the root identifiers in order.
func (f *Forest[T]) RootIDs() []string { return slices.Clone(f.roots) }

// SetObserver registers the fallback [StructureObserver] used for nodes not
// yet claimed by a projection.
func (f *Forest[T]) SetObserver(observer StructureObserver[T]) { f.observer = observer }

// AddRoot appends a node to the forest's root list, detaching it from any
// current parent first.
func (f *Forest[T]) AddRoot(ctx context.Context, node *Node[T]) error {
	return f.InsertRootAt(ctx, len(f.roots), node)
}

// InsertRootAt inserts a node into the forest's root list, detaching it from
// any current parent first; index applies to the post-detach list.
func (f *Forest[T]) InsertRootAt(ctx context.Context, index int, node *Node[T]) (err error) {
	switch {
	case node == nil:
		return ErrNilNode
	case node.f != f:
		return fmt.Errorf("(%s) %w", node.id, ErrForeignNode)
	case f.isRoot(node.id):
		return fmt.Errorf("(%s) %w", node.id, ErrAlreadyRoot)
	}

	// The node cannot be a root here, so detaching never shifts the root
	// list the index refers to.
	if index < 0 || index > len(f.roots) {
		return fmt.Errorf("root index %d of %d: %w", index, len(f.roots), ErrInvalidIndex)
	}

	f.detach(node)
	f.roots = slices.Insert(f.roots, index, node.id)
	f.notifyStructure(ctx, node)

	return
}

// RemoveRoot detaches a root node from the forest; the node and its subtree
// remain registered in the arena.
func (f *Forest[T]) RemoveRoot(ctx context.Context, node *Node[T]) (err error) {
	if node == nil {
		return ErrNilNode
	}
	if !f.isRoot(node.id) {
		return fmt.Errorf("root (%s): %w", node.id, ErrNotFound)
	}

	f.detach(node)
	f.notifyStructure(ctx, node)

	return
}

// Drop removes a node from the arena entirely: it is detached from its
// parent (or the root list), its immediate children are detached to become
// re-rootable orphans & its registration is deleted.
func (f *Forest[T]) Drop(ctx context.Context, node *Node[T]) (err error) {
	if node == nil {
		return ErrNilNode
	}
	if _, ok := f.nodes[node.id]; !ok {
		return fmt.Errorf("(%s) %w", node.id, ErrNotFound)
	}

	f.detach(node)
	node.orphanChildren()
	delete(f.nodes, node.id)
	f.notifyStructure(ctx, nil)

	return
}

// IsAncestor reports whether ancestor lies on node's parent chain.
//
// A node is not its own ancestor.
func (f *Forest[T]) IsAncestor(ancestor, node *Node[T]) bool {
	if ancestor == nil || node == nil {
		return false
	}

	for id := node.parent; id != ""; {
		if id == ancestor.id {
			return true
		}

		next, ok := f.nodes[id]
		if !ok {
			return false
		}
		id = next.parent
	}

	return false
}

// register claims a node's identifier in the arena.
func (f *Forest[T]) register(node *Node[T]) error {
	if _, ok := f.nodes[node.id]; ok {
		return fmt.Errorf("(%s) %w", node.id, ErrDuplicateID)
	}
	f.nodes[node.id] = node

	return nil
}

// isRoot reports root-list membership.
func (f *Forest[T]) isRoot(id string) bool { return slices.Contains(f.roots, id) }

// detach removes a node from its parent's child list or the root list,
// resetting its depth (& its descendants') to the detached baseline.
//
// Reports whether the node was attached anywhere.
func (f *Forest[T]) detach(node *Node[T]) (wasAttached bool) {
	if node.parent != "" {
		if parent, ok := f.nodes[node.parent]; ok {
			if index := slices.Index(parent.children, node.id); index >= 0 {
				parent.children = slices.Delete(parent.children, index, index+1)
				wasAttached = true
			}
		}
		node.parent = ""
	} else if index := slices.Index(f.roots, node.id); index >= 0 {
		f.roots = slices.Delete(f.roots, index, index+1)
		wasAttached = true
	}

	node.setDepth(0)

	return
}

// notifyStructure routes a structural change to the projection that claimed
// the origin node, falling back to the forest-level observer.
func (f *Forest[T]) notifyStructure(ctx context.Context, origin *Node[T]) {
	if origin != nil && origin.observer != nil {
		origin.observer.StructureChanged(ctx, origin)
		return
	}

	if f.observer != nil {
		f.observer.StructureChanged(ctx, origin)
	}
}
