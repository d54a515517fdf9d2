// SPDX-License-Identifier: MIT
package treeview

import (
	"context"
	"fmt"

	"github.com/davecgh/go-spew/spew"
	"golang.org/x/exp/slices"
)

type (
	// CanMoveFunc vetoes a reorder gesture before any mutation; source is the
	// dragged node, target the node occupying the drop slot.
	CanMoveFunc[T any] func(source, target *Node[T]) bool

	// ReorderFunc is notified once after a committed reorder.
	ReorderFunc[T any] func(source, target *Node[T])
)

// ResolveReorder maps a drag gesture on the visible sequence back to a
// structural move: oldIndex is the dragged slot, newIndex the drop slot in
// the pre-drag sequence (len(visible) drops at the very end).
//
// The move is refused without error when the dragged node is not
// reorderable, the veto predicate declines, the drop would place a node
// inside its own subtree, or the gesture resolves to the current position.
// Committed moves trigger one re-projection & one reorder callback.
func (p *Projector[T]) ResolveReorder(ctx context.Context, oldIndex, newIndex int) (moved bool, err error) {
	flat := p.visible
	if oldIndex < 0 || oldIndex >= len(flat) {
		return false, fmt.Errorf("drag index %d of %d: %w", oldIndex, len(flat), ErrInvalidIndex)
	}
	if newIndex < 0 || newIndex > len(flat) {
		return false, fmt.Errorf("drop index %d of %d: %w", newIndex, len(flat), ErrInvalidIndex)
	}

	// A downward drag drops below the node at the slot; normalize to the
	// occupying node & remember the direction.
	upper := oldIndex < newIndex
	if upper {
		newIndex--
	}

	orderNode, currentNode := flat[oldIndex], flat[newIndex]

	cfg := p.forest.cfg
	if cfg.Debug {
		cfg.Logger.Debugf(
			"reorder gesture %d -> %d (upper: %t): %s",
			oldIndex, newIndex, upper, spew.Sprint(orderNode.id, currentNode.id),
		)
	}

	switch {
	case !orderNode.reorderable:
		return false, nil
	case p.canMove == nil || !p.canMove(orderNode, currentNode):
		return false, nil
	case orderNode != currentNode && p.forest.IsAncestor(orderNode, currentNode):
		// Dropping inside the dragged subtree; refuse at the gesture
		// boundary rather than surface [ErrCycle].
		return false, nil
	}

	if orderNode.parent == currentNode.parent {
		moved = p.reorderSiblings(orderNode, currentNode, upper)
	} else {
		moved = p.reorderAcross(orderNode, currentNode, upper)
	}
	if !moved {
		return
	}

	p.forest.notifyStructure(ctx, orderNode)
	if p.onReorder != nil {
		p.onReorder(orderNode, currentNode)
	}

	return
}

// reorderSiblings moves orderNode within the sibling list it shares with
// currentNode, reporting whether the order changed.
func (p *Projector[T]) reorderSiblings(orderNode, currentNode *Node[T], upper bool) bool {
	f := p.forest

	siblings := f.roots
	var parent *Node[T]
	if orderNode.parent != "" {
		ok := false
		if parent, ok = f.nodes[orderNode.parent]; !ok {
			return false
		}
		siblings = parent.children
	}

	oi := slices.Index(siblings, orderNode.id)
	ci := slices.Index(siblings, currentNode.id)
	if oi < 0 || ci < 0 {
		return false
	}

	// Translate the target slot into the frame with orderNode removed, then
	// land past it for a downward drag.
	insertAt := ci
	if oi < insertAt {
		insertAt--
	}
	if upper {
		insertAt++
	}
	if limit := len(siblings) - 1; insertAt > limit {
		insertAt = limit
	}
	if insertAt == oi {
		return false
	}

	siblings = slices.Delete(siblings, oi, oi+1)
	siblings = slices.Insert(siblings, insertAt, orderNode.id)

	if parent != nil {
		parent.children = siblings
	} else {
		f.roots = siblings
	}

	return true
}

// reorderAcross moves orderNode out of its current location to sit beside
// currentNode under currentNode's parent, reporting whether it moved.
func (p *Projector[T]) reorderAcross(orderNode, currentNode *Node[T], upper bool) bool {
	f := p.forest

	// Resolve the target slot before mutating anything; a failed lookup
	// leaves the forest untouched.
	siblings := f.roots
	var parent *Node[T]
	if currentNode.parent != "" {
		ok := false
		if parent, ok = f.nodes[currentNode.parent]; !ok {
			return false
		}
		siblings = parent.children
	}

	ci := slices.Index(siblings, currentNode.id)
	if ci < 0 {
		return false
	}

	insertAt := ci
	if upper {
		insertAt++
	}

	f.detach(orderNode)
	if parent != nil {
		parent.children = slices.Insert(parent.children, insertAt, orderNode.id)
		orderNode.parent = parent.id
		orderNode.setDepth(parent.depth + 1)
	} else {
		f.roots = slices.Insert(f.roots, insertAt, orderNode.id)
	}

	return true
}
