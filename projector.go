// SPDX-License-Identifier: MIT
package treeview

import (
	"context"
)

type (
	// Axis is the scroll direction of the rendered list.
	Axis int

	// ViewConfig carries presentation parameters for the rendering layer.
	//
	// The projector stores & hands these through untouched; they never
	// influence which nodes are projected.
	ViewConfig struct {
		// NodeWidth is the fixed cross-axis extent of a node cell.
		NodeWidth int

		// MaxNodeWidth bounds the cross-axis extent when NodeWidth is unset.
		MaxNodeWidth int

		// ShowLines draws connector lines between parents & children.
		ShowLines bool

		// Indent is the per-depth-level offset in the cross axis.
		Indent int

		// Direction is the main scroll axis.
		Direction Axis
	}

	// NodeItemBuilder produces the render representation for one visible
	// node; opaque to the projector.
	NodeItemBuilder[T any] func(*Node[T]) any

	// RefreshFunc receives the re-projected visible sequence & the maximum
	// visible depth after every structural change.
	RefreshFunc[T any] func(visible List[T], maxDepth int)

	// Projector flattens the expanded portion of a [Forest] into the linear
	// sequence a list renderer consumes, rebuilding it on every structural
	// notification.
	Projector[T any] struct {
		forest *Forest[T]
		view   ViewConfig

		itemBuilder NodeItemBuilder[T]
		refresh     RefreshFunc[T]
		onReorder   ReorderFunc[T]
		canMove     CanMoveFunc[T]

		// visible is the flattened sequence from the latest projection.
		visible List[T]

		// maxDepth is the deepest depth among the visible nodes.
		maxDepth int
	}

	// ProjectorOption defines the Projector functional option type.
	ProjectorOption[T any] func(*Projector[T])
)

// Scroll directions.
const (
	AxisVertical Axis = iota
	AxisHorizontal
)

// NewProjector instantiates a Projector over forest & claims the forest's
// fallback structure observer.
func NewProjector[T any](forest *Forest[T], options ...ProjectorOption[T]) *Projector[T] {
	p := &Projector[T]{
		forest:  forest,
		visible: make(List[T], 0),
	}

	for _, opt := range options {
		opt(p)
	}

	forest.SetObserver(p)

	return p
}

// WithView configures the presentation parameters handed to the renderer.
func WithView[T any](view ViewConfig) ProjectorOption[T] {
	return func(p *Projector[T]) { p.view = view }
}

// WithItemBuilder configures the per-node render callback.
func WithItemBuilder[T any](builder NodeItemBuilder[T]) ProjectorOption[T] {
	return func(p *Projector[T]) { p.itemBuilder = builder }
}

// WithRefresh configures the callback invoked after every re-projection.
func WithRefresh[T any](refresh RefreshFunc[T]) ProjectorOption[T] {
	return func(p *Projector[T]) { p.refresh = refresh }
}

// WithOnReorder configures the callback fired after a committed reorder.
func WithOnReorder[T any](onReorder ReorderFunc[T]) ProjectorOption[T] {
	return func(p *Projector[T]) { p.onReorder = onReorder }
}

// WithCanMove configures the reorder veto predicate.
//
// Without one every reorder gesture is refused.
func WithCanMove[T any](canMove CanMoveFunc[T]) ProjectorOption[T] {
	return func(p *Projector[T]) { p.canMove = canMove }
}

// Project flattens the forest depth-first in sibling order, descending only
// into expanded nodes, & records the result as the current visible sequence.
//
// Every visited node is claimed for this projector's structure
// notifications, covering nodes created since the previous projection.
func (p *Projector[T]) Project(_ context.Context) (visible List[T], maxDepth int) {
	visible = make(List[T], 0, len(p.visible))

	var walk func(n *Node[T])
	walk = func(n *Node[T]) {
		n.observer = p
		visible = append(visible, n)
		if n.depth > maxDepth {
			maxDepth = n.depth
		}

		if !n.expanded {
			return
		}
		for _, id := range n.children {
			if child, ok := p.forest.nodes[id]; ok {
				walk(child)
			}
		}
	}

	for _, id := range p.forest.roots {
		if root, ok := p.forest.nodes[id]; ok {
			walk(root)
		}
	}

	p.visible, p.maxDepth = visible, maxDepth

	return
}

// Visible retrieves the flattened sequence from the latest projection.
func (p *Projector[T]) Visible() List[T] { return p.visible }

// MaxDepth retrieves the deepest visible depth from the latest projection.
func (p *Projector[T]) MaxDepth() int { return p.maxDepth }

// View retrieves the presentation parameters.
func (p *Projector[T]) View() ViewConfig { return p.view }

// ItemBuilder retrieves the per-node render callback.
func (p *Projector[T]) ItemBuilder() NodeItemBuilder[T] { return p.itemBuilder }

// Forest retrieves the projected forest.
func (p *Projector[T]) Forest() *Forest[T] { return p.forest }

// StructureChanged re-projects & pushes the refreshed sequence to the
// renderer; implements [StructureObserver].
func (p *Projector[T]) StructureChanged(ctx context.Context, _ *Node[T]) {
	visible, maxDepth := p.Project(ctx)
	if p.refresh != nil {
		p.refresh(visible, maxDepth)
	}
}
