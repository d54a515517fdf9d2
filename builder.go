// SPDX-License-Identifier: MIT
package treeview

import (
	"context"
	"errors"
	"fmt"

	"github.com/davecgh/go-spew/spew"
)

type (
	// Builder defines an interface for entities that can be read into a
	// Forest.
	Builder interface {
		// ID obtains the node identifier stored by the Builder.
		ID() string
		// Parent obtains the parent identifier stored by the Builder; empty
		// for a root.
		Parent() string
	}

	// BuilderList is a wrapper type for []Builder.
	BuilderList []Builder

	// Record is a sample Builder interface implementation.
	Record struct {
		NodeID   string
		ParentID string
	}

	// ResolveFunc produces the payload for a node identifier during a build
	// or deserialization.
	ResolveFunc[T any] func(id string) (T, error)
)

// Forest building errors.
var (
	ErrBuildForest = errors.New("failed to build forest")

	ErrMissingRootNode = errors.New("missing root node")

	ErrEmptyBuildSrc          = errors.New("empty forest source")
	ErrInvalidBuildSrc        = errors.New("invalid forest source")
	ErrInconsistentBuildCache = errors.New("inconsistency between forest and build cache")

	ErrLocateParents = errors.New("unable to locate parent(s)")

	ErrPanicked = errors.New("recovery from panic")
)

// ID obtains the node identifier stored by the Record.
func (r *Record) ID() string { return r.NodeID }

// Parent obtains the parent identifier stored by the Record.
func (r *Record) Parent() string { return r.ParentID }

// Cut a record at some index from the BuilderList.
func (b *BuilderList) Cut(index int) {
	upper := index + 1

	// index == 0.
	if index < 1 {
		// length of slice == 0.
		if upper >= len(*b) {
			*b = BuilderList{}
			return
		}

		*b = (*b)[1:]

		return
	}

	(*b) = append((*b)[:index], (*b)[upper:]...)
}

// BuildForest generates a Forest from a BuilderList, resolving each record's
// payload through resolve.
//
// Records whose parent identifier is empty become roots, in source order;
// the list may otherwise be unordered.
func BuildForest[T any](ctx context.Context, src BuilderList, resolve ResolveFunc[T], options ...Option[T]) (f *Forest[T], err error) {
	defer func() {
		if err != nil {
			err = fmt.Errorf("%w: %v", ErrBuildForest, err)
		}
	}()

	f = New(options...)

	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("%w: %v", ErrPanicked, r)
		}

		if err != nil {
			f.cfg.Logger.Debugf("current forest: %s \nsource remnants: %s", spew.Sprint(f.roots), spew.Sprint(src))
			err = fmt.Errorf("%w: %v", ErrInvalidBuildSrc, err)
		}
	}()

	cache := make(map[string]struct{})
	select {
	case <-ctx.Done():
		err = ctx.Err()
		return
	default:
		if len(src) < 1 {
			err = ErrEmptyBuildSrc
			return
		}

		// Roots first; their record order is the root order.
		for index := 0; index < len(src); {
			if src[index].Parent() != "" {
				index++
				continue
			}

			id := src[index].ID()
			var node *Node[T]
			if node, err = newResolvedNode(ctx, f, id, resolve); err != nil {
				return
			}
			if err = f.AddRoot(ctx, node); err != nil {
				return
			}
			cache[id] = struct{}{}

			src.Cut(index)
		}
		if len(f.roots) < 1 {
			err = ErrMissingRootNode
			return
		}

		prevLen := len(src) + 1
		for {
			lenSrc := len(src)
			if lenSrc < 1 {
				return
			}

			if lenSrc == prevLen {
				err = fmt.Errorf("%w for: %s", ErrLocateParents, spew.Sprint(src))
				return
			}
			prevLen = lenSrc

			for index := 0; index < lenSrc; index++ {
				record := src[index]
				parentID := record.Parent()

				// Parent not in the forest yet.
				if _, ok := cache[parentID]; !ok {
					continue
				}

				parent, ok := f.nodes[parentID]
				if !ok {
					// Inconsistency between the cache & forest.
					err = fmt.Errorf("%w: (%s)", ErrInconsistentBuildCache, parentID)
					return
				}

				childID := record.ID()
				var child *Node[T]
				if child, err = newResolvedNode(ctx, f, childID, resolve); err != nil {
					return
				}
				if err = parent.AddChild(ctx, child); err != nil {
					return
				}
				cache[childID] = struct{}{}

				src.Cut(index)

				// Allow for unordered BuilderLists.
				break
			}
		}
	}
}

// newResolvedNode registers a node for id with its resolved payload.
func newResolvedNode[T any](ctx context.Context, f *Forest[T], id string, resolve ResolveFunc[T]) (node *Node[T], err error) {
	var data T
	if resolve != nil {
		if data, err = resolve(id); err != nil {
			err = fmt.Errorf("resolve (%s): %w", id, err)
			return
		}
	}

	return f.NewNode(ctx, data, WithID[T](id))
}
